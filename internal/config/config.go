// Package config loads datasetkit settings from defaults, datasetkit.yaml,
// DATASETKIT_* environment variables and command line flags.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const (
	configFileName = "datasetkit"
	configFileType = "yaml"
	envPrefix      = "DATASETKIT"

	KeyRootDir      = "root_dir"
	KeyLogLevel     = "log_level"
	KeyLogFile      = "log_file"
	KeyLogFileLevel = "log_file_level"
	KeyJobs         = "jobs"
	KeyMetricsFile  = "metrics_file"
	KeyS3Endpoint   = "s3.endpoint"
	KeyS3Region     = "s3.region"
	KeyS3PathStyle  = "s3.use_path_style"
)

// Config is the resolved runtime configuration
type Config struct {
	RootDir      string   `mapstructure:"root_dir"`
	LogLevel     string   `mapstructure:"log_level"`
	LogFile      string   `mapstructure:"log_file"`
	LogFileLevel string   `mapstructure:"log_file_level"`
	Jobs         int      `mapstructure:"jobs"`
	MetricsFile  string   `mapstructure:"metrics_file"`
	S3           S3Config `mapstructure:"s3"`
}

// S3Config points s3:// downloads at AWS or an S3 compatible server such as MinIO
type S3Config struct {
	Endpoint     string `mapstructure:"endpoint"`
	Region       string `mapstructure:"region"`
	UsePathStyle bool   `mapstructure:"use_path_style"`
}

// New creates a viper instance with the defaults applied and the config file
// read. An explicit configFile must exist; otherwise datasetkit.yaml is looked
// up in the working directory and may be missing.
func New(configFile string) (*viper.Viper, error) {
	v := viper.New()
	v.SetDefault(KeyRootDir, "./datasets")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFile, "logs/datasetkit.log")
	v.SetDefault(KeyLogFileLevel, "debug")
	v.SetDefault(KeyJobs, 4)
	v.SetDefault(KeyMetricsFile, "")
	v.SetDefault(KeyS3Endpoint, "")
	v.SetDefault(KeyS3Region, "us-east-1")
	v.SetDefault(KeyS3PathStyle, false)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(configFileName)
		v.SetConfigType(configFileType)
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile == "" && errors.As(err, &notFound) {
			return v, nil
		}
		return nil, fmt.Errorf("while reading config: %w", err)
	}
	return v, nil
}

// Decode resolves the final configuration
func Decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("while decoding config: %w", err)
	}
	if cfg.Jobs < 1 {
		cfg.Jobs = 1
	}
	return &cfg, nil
}

// Load is New followed by Decode
func Load(configFile string) (*Config, error) {
	v, err := New(configFile)
	if err != nil {
		return nil, err
	}
	return Decode(v)
}
