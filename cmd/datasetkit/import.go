package main

import (
	"fmt"

	"github.com/lewtec/datasetkit/dataset"
	"github.com/lewtec/datasetkit/internal/domain"
	"github.com/spf13/cobra"
)

var fromCOCOCmd = &cobra.Command{
	Use:   "from_coco",
	Short: "Import a dataset from a COCO annotation file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		cocoFile, _ := cmd.Flags().GetString("coco-file")
		cocoRootDir, _ := cmd.Flags().GetString("coco-root-dir")
		d, err := dataset.FromCOCO(cmd.Context(), name, cocoFile, cocoRootDir, state.cfg.RootDir, datasetOptions()...)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), d.Dir())
		return nil
	},
}

var fromYOLOCmd = &cobra.Command{
	Use:   "from_yolo",
	Short: "Import a dataset from YOLO label files",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		taskName, _ := cmd.Flags().GetString("task")
		labelDir, _ := cmd.Flags().GetString("yolo-label-dir")
		imageDir, _ := cmd.Flags().GetString("yolo-image-dir")
		classes, _ := cmd.Flags().GetString("yolo-classes")
		task, err := domain.ParseTask(taskName)
		if err != nil {
			return err
		}
		d, err := dataset.FromYOLO(cmd.Context(), name, task, labelDir, imageDir, classes, state.cfg.RootDir, datasetOptions()...)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), d.Dir())
		return nil
	},
}

var fromAnnotationDBCmd = &cobra.Command{
	Use:   "from_annotation_db",
	Short: "Import the majority votes of an annotation database stage",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		database, _ := cmd.Flags().GetString("database")
		imageDir, _ := cmd.Flags().GetString("image-dir")
		stage, _ := cmd.Flags().GetInt("stage")
		d, err := dataset.FromAnnotationDB(cmd.Context(), name, database, imageDir, stage, state.cfg.RootDir, datasetOptions()...)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), d.Dir())
		return nil
	},
}

func init() {
	fromCOCOCmd.Flags().String("name", "", nameDoc)
	fromCOCOCmd.Flags().String("coco-file", "", "COCO json file")
	fromCOCOCmd.Flags().String("coco-root-dir", "", "COCO image root directory")
	for _, flag := range []string{"name", "coco-file", "coco-root-dir"} {
		fromCOCOCmd.MarkFlagRequired(flag)
	}
	rootCmd.AddCommand(fromCOCOCmd)

	fromYOLOCmd.Flags().String("name", "", nameDoc)
	fromYOLOCmd.Flags().String("task", string(domain.TaskObjectDetection), "Task of the labels")
	fromYOLOCmd.Flags().String("yolo-label-dir", "", "Directory of {image_id}.txt label files")
	fromYOLOCmd.Flags().String("yolo-image-dir", "", "Directory of {image_id} images")
	fromYOLOCmd.Flags().String("yolo-classes", "", "YAML file with the class names")
	for _, flag := range []string{"name", "yolo-label-dir", "yolo-image-dir", "yolo-classes"} {
		fromYOLOCmd.MarkFlagRequired(flag)
	}
	rootCmd.AddCommand(fromYOLOCmd)

	fromAnnotationDBCmd.Flags().String("name", "", nameDoc)
	fromAnnotationDBCmd.Flags().StringP("database", "d", "", "Annotation database file")
	fromAnnotationDBCmd.Flags().StringP("image-dir", "i", "", "Images directory path")
	fromAnnotationDBCmd.Flags().Int("stage", 0, "Stage whose votes become labels")
	for _, flag := range []string{"name", "database", "image-dir"} {
		fromAnnotationDBCmd.MarkFlagRequired(flag)
	}
	rootCmd.AddCommand(fromAnnotationDBCmd)
}
