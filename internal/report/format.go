// Package report renders artifact rows as a terminal table, CSV, JSON or YAML.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vook/artifact-gen/internal/artifact"
)

// Output format constants.
const (
	FormatText = "text"
	FormatCSV  = "csv"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// DateLayout is the layout of the Date column (DD-MM-YYYY HH:MM:SS).
const DateLayout = "02-01-2006 15:04:05"

// ErrUnsupportedFormat is returned for an output format not in Formats.
var ErrUnsupportedFormat = errors.New("unsupported output format")

// Columns are the header labels shared by the table and the CSV export.
var Columns = []string{"Task", "Type", "File", "Date", "Blob URL", "Commit hash"}

// Formats lists every supported output format.
func Formats() []string {
	return []string{FormatText, FormatCSV, FormatJSON, FormatYAML}
}

// NormalizeFormat lower-cases and trims a user-supplied format name.
func NormalizeFormat(format string) string {
	return strings.ToLower(strings.TrimSpace(format))
}

// Options tune the text rendering.
type Options struct {
	// NoColor disables change-type coloring.
	NoColor bool
}

// Write encodes rows in the requested format.
func Write(w io.Writer, rows []artifact.Record, format string, opts Options) error {
	switch NormalizeFormat(format) {
	case FormatText, "":
		return WriteTable(w, rows, opts)
	case FormatCSV:
		return WriteCSV(w, rows)
	case FormatJSON:
		return marshalAndWrite(rows, func(v any) ([]byte, error) {
			return json.MarshalIndent(v, "", "  ")
		}, w, "json")
	case FormatYAML:
		return marshalAndWrite(rows, yaml.Marshal, w, "yaml")
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

func marshalAndWrite(data []artifact.Record, marshal func(any) ([]byte, error), w io.Writer, label string) error {
	if data == nil {
		data = []artifact.Record{}
	}

	encoded, err := marshal(data)
	if err != nil {
		return fmt.Errorf("%s marshal: %w", label, err)
	}

	_, err = w.Write(encoded)
	if err != nil {
		return fmt.Errorf("%s write: %w", label, err)
	}

	if !strings.HasSuffix(string(encoded), "\n") {
		_, err = io.WriteString(w, "\n")
		if err != nil {
			return fmt.Errorf("%s write: %w", label, err)
		}
	}

	return nil
}

// cells returns the plain column values of a row.
func cells(rec artifact.Record) []string {
	return []string{
		rec.Task,
		rec.Change.String(),
		rec.Path,
		rec.CommittedAt.Format(DateLayout),
		rec.BlobURL,
		rec.CommitHash,
	}
}
