package main

import (
	"fmt"

	"github.com/lewtec/datasetkit/internal/video"
	"github.com/spf13/cobra"
)

var extractFramesCmd = &cobra.Command{
	Use:   "extract_frames",
	Short: "Extract frames of a video file as images",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		input, _ := cmd.Flags().GetString("input-path")
		outputDir, _ := cmd.Flags().GetString("output-dir")
		opts := video.ExtractOptions{}
		opts.FrameRate, _ = cmd.Flags().GetFloat64("frame-rate")
		opts.IntervalSeconds, _ = cmd.Flags().GetFloat64("interval")
		opts.NumFrames, _ = cmd.Flags().GetInt("num-frames")
		opts.Ext, _ = cmd.Flags().GetString("output-image-extension")

		frames, err := video.New(state.log).ExtractFrames(cmd.Context(), input, outputDir, opts)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Extracted %d frames to %s\n", len(frames), outputDir)
		return nil
	},
}

var createVideoCmd = &cobra.Command{
	Use:   "create_video",
	Short: "Create a video from a directory of frame images",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		inputDir, _ := cmd.Flags().GetString("input-dir")
		output, _ := cmd.Flags().GetString("output-path")
		frameRate, _ := cmd.Flags().GetFloat64("frame-rate")
		if err := video.New(state.log).CreateVideo(cmd.Context(), inputDir, output, frameRate); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Video saved to %s\n", output)
		return nil
	},
}

func init() {
	extractFramesCmd.Flags().String("input-path", "", "Input video file")
	extractFramesCmd.Flags().String("output-dir", "", "Directory the frames are written to")
	extractFramesCmd.Flags().Float64("frame-rate", video.DefaultFrameRate, "Frames per second to keep")
	extractFramesCmd.Flags().Float64("interval", 0, "Seconds between kept frames, overrides --frame-rate")
	extractFramesCmd.Flags().Int("num-frames", 0, "Stop after this many frames, 0 for all")
	extractFramesCmd.Flags().String("output-image-extension", video.DefaultImageExtension, "Frame image format")
	extractFramesCmd.MarkFlagRequired("input-path")
	extractFramesCmd.MarkFlagRequired("output-dir")
	rootCmd.AddCommand(extractFramesCmd)

	createVideoCmd.Flags().String("input-dir", "", "Directory of frame images")
	createVideoCmd.Flags().String("output-path", "", "Output video file")
	createVideoCmd.Flags().Float64("frame-rate", video.DefaultFrameRate, "Frames per second of the video")
	createVideoCmd.MarkFlagRequired("input-dir")
	createVideoCmd.MarkFlagRequired("output-path")
	rootCmd.AddCommand(createVideoCmd)
}
