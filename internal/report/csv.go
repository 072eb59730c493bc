package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/vook/artifact-gen/internal/artifact"
)

// csvNameLayout produces artifact_report_YYYYMMDDHHMMSS.csv.
const csvNameLayout = "artifact_report_20060102150405.csv"

// DefaultCSVName returns the timestamped export file name for now.
func DefaultCSVName(now time.Time) string {
	return now.Format(csvNameLayout)
}

// DefaultCSVPath joins dir with DefaultCSVName.
func DefaultCSVPath(dir string, now time.Time) string {
	return filepath.Join(dir, DefaultCSVName(now))
}

// WriteCSV writes the header row followed by one record per row. Change types
// are written as plain names and fields are quoted only when needed.
func WriteCSV(w io.Writer, rows []artifact.Record) error {
	writer := csv.NewWriter(w)

	err := writer.Write(Columns)
	if err != nil {
		return fmt.Errorf("write csv headers: %w", err)
	}

	for _, rec := range rows {
		err = writer.Write(cells(rec))
		if err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	writer.Flush()

	err = writer.Error()
	if err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}

	return nil
}

// SaveCSV creates (or truncates) path and writes rows to it.
func SaveCSV(path string, rows []artifact.Record) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv: %w", err)
	}

	defer func() {
		closeErr := f.Close()
		if err == nil && closeErr != nil {
			err = fmt.Errorf("close csv: %w", closeErr)
		}
	}()

	return WriteCSV(f, rows)
}
