package report

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/vook/artifact-gen/internal/artifact"
)

// Summary describes a run in one human-readable line.
func Summary(stats artifact.Stats) string {
	return fmt.Sprintf("%s commits, %s file changes, %s rows in %s",
		humanize.Comma(int64(stats.Commits)),
		humanize.Comma(int64(stats.Modifications)),
		humanize.Comma(int64(stats.Rows)),
		stats.Duration.Round(time.Millisecond))
}

// Saved describes a written export.
func Saved(path string, size int64) string {
	return fmt.Sprintf("Saved %s (%s)", path, humanize.IBytes(uint64(max(size, 0))))
}
