package artifact

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"
)

// CommitSource yields commits oldest to newest.
type CommitSource interface {
	ForEachCommit(ctx context.Context, fn func(Commit) error) error
}

// Stats summarizes a single pipeline run.
type Stats struct {
	Commits       int
	Modifications int
	Rows          int
	Duration      time.Duration
}

// Report is the final ordered table produced by a run.
type Report struct {
	BaseURL string
	Rows    []Record
	Stats   Stats
}

// Pipeline turns a commit stream into a Report.
type Pipeline struct {
	// RemoteURL is the remote URL as stored in git config.
	RemoteURL string
	// BlobSegment overrides DefaultBlobSegment when set.
	BlobSegment string
	// OnlyLast collapses rows per (path, task) key.
	OnlyLast bool

	Logger *slog.Logger
	Tracer trace.Tracer
}

// Run walks src and returns the report. Any error aborts the run; there is no
// partial report.
func (p *Pipeline) Run(ctx context.Context, src CommitSource) (*Report, error) {
	tracer := p.Tracer
	if tracer == nil {
		tracer = nooptrace.NewTracerProvider().Tracer("")
	}

	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ctx, span := tracer.Start(ctx, "artifact.pipeline.run",
		trace.WithAttributes(attribute.Bool("only_last", p.OnlyLast)))
	defer span.End()

	started := time.Now()

	baseURL, err := ResolveRemote(p.RemoteURL)
	if err != nil {
		span.RecordError(err)

		return nil, err
	}

	builder := RecordBuilder{BaseURL: baseURL, BlobSegment: p.BlobSegment}
	dedup := NewDeduplicator()

	var stats Stats

	err = src.ForEachCommit(ctx, func(commit Commit) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		stats.Commits++

		logger.DebugContext(ctx, "commit",
			slog.String("hash", commit.Hash),
			slog.Int("modifications", len(commit.Modifications)))

		for _, mod := range commit.Modifications {
			dedup.Ingest(builder.Build(commit, mod), p.OnlyLast)
			stats.Modifications++
		}

		return nil
	})
	if err != nil {
		span.RecordError(err)

		return nil, fmt.Errorf("traverse commits: %w", err)
	}

	stats.Rows = dedup.Len()
	stats.Duration = time.Since(started)

	span.SetAttributes(
		attribute.Int("commits", stats.Commits),
		attribute.Int("modifications", stats.Modifications),
		attribute.Int("rows", stats.Rows),
	)

	logger.InfoContext(ctx, "report built",
		slog.Int("commits", stats.Commits),
		slog.Int("modifications", stats.Modifications),
		slog.Int("rows", stats.Rows),
		slog.Duration("duration", stats.Duration))

	return &Report{BaseURL: baseURL, Rows: dedup.Rows(), Stats: stats}, nil
}
