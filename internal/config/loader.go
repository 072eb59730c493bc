package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// configName is the config file name without extension.
const configName = ".artifactgen"

// configType is the config file format.
const configType = "yaml"

// envPrefix is the environment variable prefix for artifactgen settings.
const envPrefix = "ARTIFACTGEN"

// envKeySeparator is the nested key separator in environment variable names.
const envKeySeparator = "_"

// LoadConfig loads configuration from file, env vars, and defaults.
// If configPath is non-empty, it is used as the explicit config file path.
// Otherwise, the config file is searched in CWD and $HOME.
// Missing config file is not an error; defaults are used.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	applyDefaults(viperCfg)

	viperCfg.SetConfigType(configType)
	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", envKeySeparator))
	viperCfg.AutomaticEnv()

	home, homeErr := homedir.Dir()

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(configName)
		viperCfg.AddConfigPath(".")

		if homeErr == nil {
			viperCfg.AddConfigPath(home)
		}
	}

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFound) {
			return nil, fmt.Errorf("read config: %w", readErr)
		}
	}

	var cfg Config

	unmarshalErr := viperCfg.Unmarshal(&cfg)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("unmarshal config: %w", unmarshalErr)
	}

	dirErr := cfg.resolveDirectory(home, homeErr)
	if dirErr != nil {
		return nil, dirErr
	}

	validateErr := cfg.Validate()
	if validateErr != nil {
		return nil, fmt.Errorf("validate config: %w", validateErr)
	}

	return &cfg, nil
}

// resolveDirectory expands a leading ~ and falls back to the home directory.
func (c *Config) resolveDirectory(home string, homeErr error) error {
	if c.Prompt.DefaultDirectory == "" {
		if homeErr == nil {
			c.Prompt.DefaultDirectory = home
		}

		return nil
	}

	expanded, err := homedir.Expand(c.Prompt.DefaultDirectory)
	if err != nil {
		return fmt.Errorf("expand prompt.default_directory: %w", err)
	}

	c.Prompt.DefaultDirectory = expanded

	return nil
}

func applyDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("prompt.default_directory", DefaultPromptDirectory)
	viperCfg.SetDefault("prompt.default_remote", DefaultPromptRemote)

	viperCfg.SetDefault("report.only_last", DefaultReportOnlyLast)
	viperCfg.SetDefault("report.save_csv", DefaultReportSaveCSV)
	viperCfg.SetDefault("report.csv_name", DefaultReportCSVName)
	viperCfg.SetDefault("report.blob_segment", DefaultReportBlobSegment)
	viperCfg.SetDefault("report.format", DefaultReportFormat)
	viperCfg.SetDefault("report.no_color", DefaultReportNoColor)

	viperCfg.SetDefault("git.detect_renames", DefaultGitDetectRenames)
	viperCfg.SetDefault("git.detect_copies", DefaultGitDetectCopies)

	viperCfg.SetDefault("logging.level", DefaultLoggingLevel)
	viperCfg.SetDefault("logging.json", DefaultLoggingJSON)

	viperCfg.SetDefault("telemetry.otlp_endpoint", DefaultTelemetryOTLPEndpoint)
	viperCfg.SetDefault("telemetry.otlp_insecure", DefaultTelemetryOTLPInsecure)
	viperCfg.SetDefault("telemetry.otlp_headers", DefaultTelemetryOTLPHeaders)
	viperCfg.SetDefault("telemetry.metrics_textfile", DefaultTelemetryMetricsTextfile)
}
