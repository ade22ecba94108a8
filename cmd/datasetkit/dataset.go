package main

import (
	"fmt"

	"github.com/lewtec/datasetkit/dataset"
	"github.com/spf13/cobra"
)

const nameDoc = "Dataset name"

var newCmd = &cobra.Command{
	Use:   "new",
	Short: "Create an empty dataset",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		d, err := dataset.New(name, state.cfg.RootDir, datasetOptions()...)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), d.Dir())
		return nil
	},
}

var cloneCmd = &cobra.Command{
	Use:   "clone",
	Short: "Copy a dataset under a new name",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		srcName, _ := cmd.Flags().GetString("src-name")
		name, _ := cmd.Flags().GetString("name")
		srcRootDir, _ := cmd.Flags().GetString("src-root-dir")
		if srcRootDir == "" {
			srcRootDir = state.cfg.RootDir
		}
		d, err := dataset.Clone(srcName, name, srcRootDir, state.cfg.RootDir, datasetOptions()...)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), d.Dir())
		return nil
	},
}

var splitCmd = &cobra.Command{
	Use:   "split",
	Short: "Split labeled images into train, val and test sets",
	Long: `Split labeled images into train, val and test sets. When val-ratio is 0 it
is set to 1 - train-ratio. Images without annotations go to the unlabeled set.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		opts := dataset.SplitOptions{}
		opts.TrainRatio, _ = cmd.Flags().GetFloat64("train-ratio")
		opts.ValRatio, _ = cmd.Flags().GetFloat64("val-ratio")
		opts.TestRatio, _ = cmd.Flags().GetFloat64("test-ratio")
		opts.Seed, _ = cmd.Flags().GetInt64("random-seed")

		d, err := dataset.Load(name, state.cfg.RootDir, datasetOptions()...)
		if err != nil {
			return err
		}
		result, err := d.Split(cmd.Context(), opts)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "train: %d, val: %d, test: %d, unlabeled: %d\n",
			len(result.Train), len(result.Val), len(result.Test), len(result.Unlabeled))
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a split dataset to a training layout",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		formatName, _ := cmd.Flags().GetString("export-format")
		format, err := dataset.ParseFormat(formatName)
		if err != nil {
			return err
		}
		d, err := dataset.Load(name, state.cfg.RootDir, datasetOptions()...)
		if err != nil {
			return err
		}
		dir, err := d.Export(cmd.Context(), format)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), dir)
		return nil
	},
}

func init() {
	newCmd.Flags().String("name", "", nameDoc)
	newCmd.MarkFlagRequired("name")
	rootCmd.AddCommand(newCmd)

	cloneCmd.Flags().String("src-name", "", "Name of the dataset to copy")
	cloneCmd.Flags().String("name", "", nameDoc)
	cloneCmd.Flags().String("src-root-dir", "", "Root directory of the source dataset (default --root-dir)")
	cloneCmd.MarkFlagRequired("src-name")
	cloneCmd.MarkFlagRequired("name")
	rootCmd.AddCommand(cloneCmd)

	splitCmd.Flags().String("name", "", nameDoc)
	splitCmd.Flags().Float64("train-ratio", 0.8, "Ratio of labeled images in the train set")
	splitCmd.Flags().Float64("val-ratio", 0, "Ratio of labeled images in the val set")
	splitCmd.Flags().Float64("test-ratio", 0, "Ratio of labeled images in the test set")
	splitCmd.Flags().Int64("random-seed", 0, "Shuffle seed")
	splitCmd.MarkFlagRequired("name")
	rootCmd.AddCommand(splitCmd)

	exportCmd.Flags().String("name", "", nameDoc)
	exportCmd.Flags().String("export-format", "", fmt.Sprintf("One of %v", dataset.Formats))
	exportCmd.MarkFlagRequired("name")
	exportCmd.MarkFlagRequired("export-format")
	rootCmd.AddCommand(exportCmd)
}
