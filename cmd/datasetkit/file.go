package main

import (
	"fmt"

	"github.com/lewtec/datasetkit/internal/fileio"
	"github.com/lewtec/datasetkit/internal/network"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var getFileFromURLCmd = &cobra.Command{
	Use:   "get_file_from_url",
	Short: "Download a file from an http, https or s3 url",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		url, _ := cmd.Flags().GetString("url")
		filePath, _ := cmd.Flags().GetString("file-path")
		createDir, _ := cmd.Flags().GetBool("create-directory")

		d := network.NewDownloader(state.log, network.S3Options{
			Endpoint:     state.cfg.S3.Endpoint,
			Region:       state.cfg.S3.Region,
			UsePathStyle: state.cfg.S3.UsePathStyle,
		})
		d.Progress = cmd.ErrOrStderr()
		if err := d.GetFileFromURL(cmd.Context(), url, filePath, createDir); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Downloading file %s has been completed.\n", filePath)
		return nil
	},
}

var unzipCmd = &cobra.Command{
	Use:   "unzip",
	Short: "Extract a zip archive into a directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")
		outputDir, _ := cmd.Flags().GetString("output-dir")
		createDir, _ := cmd.Flags().GetBool("create-directory")
		if err := fileio.Unzip(afero.NewOsFs(), file, outputDir, createDir); err != nil {
			return err
		}
		state.log.WithFields(logrus.Fields{"file": file, "output_dir": outputDir}).Info("extracted archive")
		return nil
	},
}

var zipCmd = &cobra.Command{
	Use:   "zip SOURCE...",
	Short: "Compress files and directories into a zip archive",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")
		if err := fileio.Zip(afero.NewOsFs(), args, output); err != nil {
			return err
		}
		state.log.WithField("output", output).Info("created archive")
		return nil
	},
}

func init() {
	getFileFromURLCmd.Flags().String("url", "", "Download link")
	getFileFromURLCmd.Flags().String("file-path", "", "Download output file")
	getFileFromURLCmd.Flags().Bool("create-directory", true, "Create the output directory when missing")
	getFileFromURLCmd.MarkFlagRequired("url")
	getFileFromURLCmd.MarkFlagRequired("file-path")
	rootCmd.AddCommand(getFileFromURLCmd)

	unzipCmd.Flags().String("file", "", "Zip archive")
	unzipCmd.Flags().String("output-dir", "", "Output directory")
	unzipCmd.Flags().Bool("create-directory", true, "Create the output directory when missing")
	unzipCmd.MarkFlagRequired("file")
	unzipCmd.MarkFlagRequired("output-dir")
	rootCmd.AddCommand(unzipCmd)

	zipCmd.Flags().String("output", "", "Zip archive to create")
	zipCmd.MarkFlagRequired("output")
	rootCmd.AddCommand(zipCmd)
}
