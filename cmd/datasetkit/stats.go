package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/lewtec/datasetkit/dataset"
	"github.com/lewtec/datasetkit/internal/visualize"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show image and annotation counts of a dataset",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		plotPath, _ := cmd.Flags().GetString("plot")
		d, err := dataset.Load(name, state.cfg.RootDir, datasetOptions()...)
		if err != nil {
			return err
		}
		stats, err := d.Stats(cmd.Context())
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintf(w, "images\t%d\n", stats.Images)
		fmt.Fprintf(w, "labeled\t%d\n", stats.Labeled)
		fmt.Fprintf(w, "annotations\t%d\n", stats.Annotations)
		fmt.Fprintf(w, "predictions\t%d\n", stats.Predictions)
		fmt.Fprintln(w)
		fmt.Fprintln(w, "ID\tCATEGORY\tANNOTATIONS")
		for _, c := range stats.Categories {
			fmt.Fprintf(w, "%d\t%s\t%d\n", c.CategoryID, c.Name, c.Count)
		}
		if err := w.Flush(); err != nil {
			return err
		}

		if plotPath == "" {
			return nil
		}
		if err := visualize.PlotCategoryHistogram(plotPath, stats, visualize.Options{Title: name}); err != nil {
			return err
		}
		state.log.WithField("path", plotPath).Info("saved category histogram")
		return nil
	},
}

func init() {
	statsCmd.Flags().String("name", "", nameDoc)
	statsCmd.Flags().String("plot", "", "Save a category histogram to this image file")
	statsCmd.MarkFlagRequired("name")
	rootCmd.AddCommand(statsCmd)
}
