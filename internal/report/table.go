package report

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/vook/artifact-gen/internal/artifact"
)

// changeColors holds the palette per change type; anything missing renders
// bright blue.
var changeColors = map[artifact.ChangeType]color.Attribute{
	artifact.Add:     color.FgHiGreen,
	artifact.Delete:  color.FgHiRed,
	artifact.Unknown: color.FgRed,
}

func colorize(change artifact.ChangeType, noColor bool) string {
	attr, ok := changeColors[change]
	if !ok {
		attr = color.FgHiBlue
	}

	c := color.New(attr)
	if noColor {
		c.DisableColor()
	} else {
		c.EnableColor()
	}

	return c.Sprint(change.String())
}

// WriteTable renders rows as a boxed terminal table.
func WriteTable(w io.Writer, rows []artifact.Record, opts Options) error {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)

	header := make(table.Row, len(Columns))
	for i, col := range Columns {
		header[i] = col
	}

	tbl.AppendHeader(header)

	for _, rec := range rows {
		values := cells(rec)

		row := make(table.Row, len(values))
		for i, v := range values {
			row[i] = v
		}

		row[1] = colorize(rec.Change, opts.NoColor)

		tbl.AppendRow(row)
	}

	_, err := fmt.Fprintln(w, tbl.Render())
	if err != nil {
		return fmt.Errorf("write table: %w", err)
	}

	return nil
}
