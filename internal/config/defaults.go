// Package config provides YAML and environment based configuration for artifactgen.
package config

import (
	"github.com/vook/artifact-gen/internal/artifact"
	"github.com/vook/artifact-gen/internal/report"
)

// Prompt defaults. An empty directory resolves to the user's home at load time.
const (
	DefaultPromptDirectory = ""
	DefaultPromptRemote    = ""
)

// Report defaults.
const (
	DefaultReportOnlyLast    = false
	DefaultReportSaveCSV     = false
	DefaultReportCSVName     = ""
	DefaultReportBlobSegment = artifact.DefaultBlobSegment
	DefaultReportFormat      = report.FormatText
	DefaultReportNoColor     = false
)

// Git defaults.
const (
	DefaultGitDetectRenames = true
	DefaultGitDetectCopies  = false
)

// Logging defaults. Warn keeps interactive sessions free of pipeline chatter.
const (
	DefaultLoggingLevel = "warn"
	DefaultLoggingJSON  = false
)

// Telemetry defaults. An empty endpoint disables export.
const (
	DefaultTelemetryOTLPEndpoint    = ""
	DefaultTelemetryOTLPInsecure    = false
	DefaultTelemetryOTLPHeaders     = ""
	DefaultTelemetryMetricsTextfile = ""
)
