package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricRunsTotal          = "artifactgen.runs.total"
	metricRunDuration        = "artifactgen.run.duration.seconds"
	metricCommitsTotal       = "artifactgen.commits.total"
	metricModificationsTotal = "artifactgen.modifications.total"
	metricRowsTotal          = "artifactgen.rows.total"

	attrStatus   = "status"
	attrOnlyLast = "only_last"

	// StatusOK marks a run that produced a report.
	StatusOK = "ok"
	// StatusError marks a run that failed.
	StatusError = "error"
)

// durationBucketBoundaries covers 10ms to 600s: small repositories finish
// instantly while long histories walk for minutes.
var durationBucketBoundaries = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600}

// ReportMetrics holds the OTel instruments for report runs.
type ReportMetrics struct {
	runsTotal          metric.Int64Counter
	runDuration        metric.Float64Histogram
	commitsTotal       metric.Int64Counter
	modificationsTotal metric.Int64Counter
	rowsTotal          metric.Int64Counter
}

// RunStats holds the statistics of a single report run, decoupled from
// pipeline types.
type RunStats struct {
	Status        string
	OnlyLast      bool
	Commits       int
	Modifications int
	Rows          int
	Duration      time.Duration
}

// NewReportMetrics creates report metric instruments from the given meter.
func NewReportMetrics(mt metric.Meter) (*ReportMetrics, error) {
	b := newMetricBuilder(mt)

	rm := &ReportMetrics{
		runsTotal:          b.counter(metricRunsTotal, "Total report runs", "{run}"),
		runDuration:        b.histogram(metricRunDuration, "Report run duration in seconds", "s", durationBucketBoundaries...),
		commitsTotal:       b.counter(metricCommitsTotal, "Commits walked", "{commit}"),
		modificationsTotal: b.counter(metricModificationsTotal, "File modifications read", "{modification}"),
		rowsTotal:          b.counter(metricRowsTotal, "Report rows produced", "{row}"),
	}

	if b.err != nil {
		return nil, b.err
	}

	return rm, nil
}

// RecordRun records a finished run. Safe to call on a nil receiver (no-op).
func (rm *ReportMetrics) RecordRun(ctx context.Context, stats RunStats) {
	if rm == nil {
		return
	}

	status := stats.Status
	if status == "" {
		status = StatusOK
	}

	attrs := metric.WithAttributes(
		attribute.String(attrStatus, status),
		attribute.Bool(attrOnlyLast, stats.OnlyLast),
	)

	rm.runsTotal.Add(ctx, 1, attrs)
	rm.runDuration.Record(ctx, stats.Duration.Seconds(), attrs)
	rm.commitsTotal.Add(ctx, int64(stats.Commits))
	rm.modificationsTotal.Add(ctx, int64(stats.Modifications))
	rm.rowsTotal.Add(ctx, int64(stats.Rows))
}
