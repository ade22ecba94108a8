/*
Copyright © 2023 NAME HERE <EMAIL ADDRESS>
*/
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/lewtec/datasetkit/dataset"
	"github.com/lewtec/datasetkit/internal/config"
	"github.com/lewtec/datasetkit/internal/hook"
	"github.com/lewtec/datasetkit/internal/logger"
	"github.com/lewtec/datasetkit/internal/metrics"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// app is the state shared by every subcommand, built before each run
type app struct {
	cfg     *config.Config
	log     *logrus.Logger
	metrics *metrics.Metrics
	hook    *hook.Hook
}

var (
	cfgFile string
	state   app
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "datasetkit",
	Short: "Build computer vision datasets",
	Long: strings.TrimSpace(`
Import COCO, YOLO and annotation database labels into a plain directory dataset,
split it into train, val and test sets and export it to the layouts training
frameworks consume.
    `),
	SilenceUsage:       true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
}

var flagKeys = map[string]string{
	"root-dir":     config.KeyRootDir,
	"log-level":    config.KeyLogLevel,
	"log-file":     config.KeyLogFile,
	"jobs":         config.KeyJobs,
	"metrics-file": config.KeyMetricsFile,
}

func setup(cmd *cobra.Command, args []string) error {
	v, err := config.New(cfgFile)
	if err != nil {
		return err
	}
	for flag, key := range flagKeys {
		if err := v.BindPFlag(key, cmd.Root().PersistentFlags().Lookup(flag)); err != nil {
			return fmt.Errorf("while binding flag '%s': %w", flag, err)
		}
	}
	cfg, err := config.Decode(v)
	if err != nil {
		return err
	}
	log, err := logger.Initialize(logger.Options{
		Level:     cfg.LogLevel,
		File:      cfg.LogFile,
		FileLevel: cfg.LogFileLevel,
		Output:    cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}
	m := metrics.New()
	h, err := hook.New(m, newProgress(cmd.ErrOrStderr()))
	if err != nil {
		return err
	}
	state = app{cfg: cfg, log: log, metrics: m, hook: h}
	log.WithFields(logrus.Fields{"command": cmd.Name(), "root_dir": cfg.RootDir, "jobs": cfg.Jobs}).Debug("starting")
	return nil
}

func teardown(cmd *cobra.Command, args []string) error {
	if state.cfg == nil || state.cfg.MetricsFile == "" {
		return nil
	}
	if err := state.metrics.WriteTextfile(state.cfg.MetricsFile); err != nil {
		return fmt.Errorf("while writing metrics: %w", err)
	}
	state.log.WithField("path", state.cfg.MetricsFile).Debug("wrote metrics")
	return nil
}

// datasetOptions wires the shared logger, hook and worker count into a dataset
func datasetOptions() []dataset.Option {
	return []dataset.Option{
		dataset.WithLogger(state.log),
		dataset.WithHook(state.hook),
		dataset.WithJobs(state.cfg.Jobs),
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Config file (default is ./datasetkit.yaml)")
	rootCmd.PersistentFlags().String("root-dir", "", "Dataset root directory (default ./datasets)")
	rootCmd.PersistentFlags().String("log-level", "", "Console log level (default info)")
	rootCmd.PersistentFlags().String("log-file", "", "Log file base path (default logs/datasetkit.log)")
	rootCmd.PersistentFlags().IntP("jobs", "j", 0, "Concurrent image copies during exports (default 4)")
	rootCmd.PersistentFlags().String("metrics-file", "", "Write Prometheus metrics to this file when set")
}
