package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/unmolkumar/school-ai-bav/internal/metrics"
	"github.com/unmolkumar/school-ai-bav/internal/model"
	"github.com/unmolkumar/school-ai-bav/internal/store"
)

// RunOptions configures one pipeline.Run invocation.
type RunOptions struct {
	From         string
	To           string
	Years        []string
	BatchTimeout time.Duration
}

// Driver runs the registered stages, one academic-year batch at a time, in
// dependency order, inside the single statement-timeout-bounded transaction
// that batch gets.
type Driver struct {
	registry *Registry
	pool     *pgxpool.Pool
	log      *slog.Logger
}

func NewDriver(registry *Registry, pool *pgxpool.Pool, log *slog.Logger) *Driver {
	return &Driver{registry: registry, pool: pool, log: log}
}

// Run executes the sliced, topologically sorted stage list across the given
// years. Each (stage, year) batch is its own transaction; a failure aborts
// the whole run and reports the first failing stage, per §7.
func (d *Driver) Run(ctx context.Context, opts RunOptions) error {
	sorted, err := d.registry.TopoSort()
	if err != nil {
		return err
	}

	stages, err := Slice(sorted, opts.From, opts.To)
	if err != nil {
		return err
	}

	for _, stage := range stages {
		for _, year := range opts.Years {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("pipeline: cancelled before stage %q year %q: %w", stage.Name(), year, err)
			}

			timer := prometheus.NewTimer(metrics.StageDuration.WithLabelValues(stage.Name()))
			report, err := d.applyBatch(ctx, stage, year, opts.BatchTimeout)
			timer.ObserveDuration()
			if err != nil {
				kind := classify(err)
				metrics.StageErrors.WithLabelValues(stage.Name(), kind.String()).Inc()
				d.log.Error("stage batch failed", "stage", stage.Name(), "year", year, "error", err)
				return &StageError{Stage: stage.Name(), AcademicYear: year, Kind: kind, Err: err}
			}

			metrics.StageRuns.WithLabelValues(stage.Name(), year).Inc()
			metrics.StageRows.WithLabelValues(stage.Name(), year).Add(float64(report.RowsAffected))

			d.log.Info("stage batch completed",
				"stage", report.Stage,
				"year", report.AcademicYear,
				"rows", report.RowsAffected,
				"elapsed", report.Elapsed)
		}
	}
	return nil
}

func (d *Driver) applyBatch(ctx context.Context, stage Stage, year string, timeout time.Duration) (report model.BatchReport, err error) {
	batchCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err = store.WithRetry(batchCtx, func(ctx context.Context) error {
		return store.WithTx(ctx, d.pool, func(ctx context.Context, tx pgx.Tx) error {
			r, applyErr := stage.Apply(ctx, tx, year)
			if applyErr != nil {
				return applyErr
			}
			report = r
			return nil
		})
	})
	return report, err
}

func classify(err error) StageErrorKind {
	// Transient errors are already retried inside applyBatch by
	// store.WithRetry; anything reaching here exhausted its retries or was
	// never transient, so it is surfaced as a data-shape/invariant failure
	// unless a stage explicitly tags it otherwise.
	var se *StageError
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindDataShape
}
