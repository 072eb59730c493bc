package config

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/vook/artifact-gen/internal/report"
)

// Config is the top-level configuration struct for artifactgen.
// Field tags use mapstructure for viper unmarshalling.
type Config struct {
	Prompt    PromptConfig    `mapstructure:"prompt"`
	Report    ReportConfig    `mapstructure:"report"`
	Git       GitConfig       `mapstructure:"git"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// PromptConfig holds defaults offered by the interactive questions.
type PromptConfig struct {
	DefaultDirectory string `mapstructure:"default_directory"`
	DefaultRemote    string `mapstructure:"default_remote"`
}

// ReportConfig holds report building and rendering settings.
type ReportConfig struct {
	OnlyLast    bool   `mapstructure:"only_last"`
	SaveCSV     bool   `mapstructure:"save_csv"`
	CSVName     string `mapstructure:"csv_name"`
	BlobSegment string `mapstructure:"blob_segment"`
	Format      string `mapstructure:"format"`
	NoColor     bool   `mapstructure:"no_color"`
}

// GitConfig holds diff similarity settings.
type GitConfig struct {
	DetectRenames bool `mapstructure:"detect_renames"`
	DetectCopies  bool `mapstructure:"detect_copies"`
}

// LoggingConfig holds slog settings.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// TelemetryConfig holds OpenTelemetry export settings.
type TelemetryConfig struct {
	OTLPEndpoint    string `mapstructure:"otlp_endpoint"`
	OTLPInsecure    bool   `mapstructure:"otlp_insecure"`
	OTLPHeaders     string `mapstructure:"otlp_headers"`
	MetricsTextfile string `mapstructure:"metrics_textfile"`
}

// Sentinel errors for configuration validation.
var (
	// ErrInvalidLogLevel indicates logging.level is not a slog level name.
	ErrInvalidLogLevel = errors.New("logging.level must be one of debug, info, warn, error")
	// ErrEmptyBlobSegment indicates report.blob_segment has no path content.
	ErrEmptyBlobSegment = errors.New("report.blob_segment must not be empty")
	// ErrInvalidFormat indicates report.format is not a known output format.
	ErrInvalidFormat = errors.New("report.format is not a supported output format")
)

// Validate checks Config invariants and returns the first error found.
func (c *Config) Validate() error {
	_, err := c.Logging.SlogLevel()
	if err != nil {
		return err
	}

	if strings.Trim(c.Report.BlobSegment, "/ ") == "" {
		return ErrEmptyBlobSegment
	}

	if !slices.Contains(report.Formats(), report.NormalizeFormat(c.Report.Format)) {
		return fmt.Errorf("%w: %q (want one of %s)",
			ErrInvalidFormat, c.Report.Format, strings.Join(report.Formats(), ", "))
	}

	return nil
}

// SlogLevel parses Level into a slog.Level.
func (l LoggingConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level

	err := level.UnmarshalText([]byte(strings.TrimSpace(l.Level)))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidLogLevel, l.Level)
	}

	return level, nil
}
