// Package risktrend computes year-over-year risk movement per school
// (§4.7): prev_risk_score, risk_delta, trend_direction, chronic/volatile
// flags, and the supplemental running average and year index.
//
// Every window function here is computed in an inner CTE over the school's
// full academic_year partition; the target year filter is applied only in
// the outer UPDATE, per the §9 window-boundary contract.
package risktrend

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/unmolkumar/school-ai-bav/internal/config"
	"github.com/unmolkumar/school-ai-bav/internal/model"
	"github.com/unmolkumar/school-ai-bav/internal/store"
)

type Engine struct {
	Log *slog.Logger
	Cfg config.Config
}

func New(log *slog.Logger, cfg config.Config) *Engine {
	return &Engine{Log: log, Cfg: cfg}
}

func (e *Engine) Name() string        { return "risk_trend" }
func (e *Engine) DependsOn() []string { return []string{"compliance_risk"} }

func (e *Engine) Apply(ctx context.Context, conn store.Executor, year string) (model.BatchReport, error) {
	start := time.Now()

	if err := e.upsertRow(ctx, conn, year); err != nil {
		return model.BatchReport{}, err
	}

	trendBand := e.Cfg.TrendBand
	volatileThreshold := e.Cfg.VolatileThreshold

	sql := fmt.Sprintf(`
WITH history AS (
	SELECT
		school_id,
		academic_year,
		risk_score,
		risk_level,
		LAG(risk_score, 1) OVER (PARTITION BY school_id ORDER BY academic_year) AS prev_risk_score,
		LAG(risk_level, 1) OVER (PARTITION BY school_id ORDER BY academic_year) AS lag1_level,
		LAG(risk_level, 2) OVER (PARTITION BY school_id ORDER BY academic_year) AS lag2_level,
		AVG(risk_score) OVER (PARTITION BY school_id ORDER BY academic_year ROWS UNBOUNDED PRECEDING) AS cumulative_avg_risk,
		ROW_NUMBER() OVER (PARTITION BY school_id ORDER BY academic_year) - 1 AS year_over_year_count
	FROM school_priority_index
)
UPDATE risk_trend r
SET
	prev_risk_score = h.prev_risk_score,
	risk_delta = CASE WHEN h.prev_risk_score IS NULL THEN NULL ELSE h.risk_score - h.prev_risk_score END,
	trend_direction = CASE
		WHEN h.prev_risk_score IS NULL THEN 'BASELINE'
		WHEN (h.risk_score - h.prev_risk_score) < -%f THEN 'IMPROVING'
		WHEN (h.risk_score - h.prev_risk_score) > %f THEN 'DETERIORATING'
		ELSE 'STABLE'
	END,
	is_chronic = COALESCE(
		h.risk_level IN ('HIGH', 'CRITICAL')
		AND h.lag1_level IN ('HIGH', 'CRITICAL')
		AND h.lag2_level IN ('HIGH', 'CRITICAL'),
		FALSE
	),
	is_volatile = COALESCE(h.prev_risk_score IS NOT NULL AND ABS(h.risk_score - h.prev_risk_score) > %f, FALSE),
	cumulative_avg_risk = h.cumulative_avg_risk,
	year_over_year_count = h.year_over_year_count
FROM history h
WHERE r.school_id = h.school_id
  AND r.academic_year = h.academic_year
  AND h.academic_year = $1`, trendBand, trendBand, volatileThreshold)

	tag, err := conn.Exec(ctx, sql, year)
	if err != nil {
		return model.BatchReport{}, fmt.Errorf("risk_trend: %w", err)
	}

	return model.BatchReport{
		Stage:        e.Name(),
		AcademicYear: year,
		RowsAffected: tag.RowsAffected(),
		Elapsed:      time.Since(start),
	}, nil
}

func (e *Engine) upsertRow(ctx context.Context, conn store.Executor, year string) error {
	sql := `
INSERT INTO risk_trend (school_id, academic_year)
SELECT p.school_id, p.academic_year
FROM school_priority_index p
WHERE p.academic_year = $1
ON CONFLICT (school_id, academic_year) DO NOTHING`

	if _, err := conn.Exec(ctx, sql, year); err != nil {
		return fmt.Errorf("risk_trend: seeding rows: %w", err)
	}
	return nil
}
