// Package districtcompliance aggregates school-level risk and infrastructure
// facts up to the district level (§3's DistrictComplianceRow), producing one
// compliance scorecard per district per year: total schools, average risk,
// risk-level mix, a letter grade, year-over-year movement, and a state-wide
// rank among districts.
//
// The YoY pass computes its LAG over the district's full year history in an
// inner CTE, filtering to the target year only in the outer UPDATE, per the
// §9 window-boundary contract.
package districtcompliance

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

func (e *Engine) Name() string        { return "district_compliance" }
func (e *Engine) DependsOn() []string { return []string{"compliance_risk"} }

func (e *Engine) Apply(ctx context.Context, conn store.Executor, year string) (model.BatchReport, error) {
	start := time.Now()

	rowsAffected, err := e.aggregate(ctx, conn, year)
	if err != nil {
		return model.BatchReport{}, err
	}
	if err := e.yearOverYear(ctx, conn, year); err != nil {
		return model.BatchReport{}, err
	}
	if err := e.stateRank(ctx, conn, year); err != nil {
		return model.BatchReport{}, err
	}

	return model.BatchReport{
		Stage:        e.Name(),
		AcademicYear: year,
		RowsAffected: rowsAffected,
		Elapsed:      time.Since(start),
	}, nil
}

func (e *Engine) aggregate(ctx context.Context, conn store.Executor, year string) (int64, error) {
	cuts := e.Cfg.ComplianceGradeCuts

	sql := fmt.Sprintf(`
WITH agg AS (
	SELECT
		s.district AS district,
		$1::varchar AS academic_year,
		COUNT(DISTINCT p.school_id) AS total_schools,
		AVG(p.risk_score) AS avg_risk_score,
		SUM(CASE WHEN p.risk_level = 'CRITICAL' THEN 1 ELSE 0 END)::numeric / NULLIF(COUNT(*), 0) AS pct_critical,
		SUM(CASE WHEN p.risk_level = 'HIGH' THEN 1 ELSE 0 END)::numeric / NULLIF(COUNT(*), 0) AS pct_high,
		SUM(CASE WHEN p.risk_level = 'MODERATE' THEN 1 ELSE 0 END)::numeric / NULLIF(COUNT(*), 0) AS pct_moderate,
		SUM(CASE WHEN p.risk_level = 'LOW' THEN 1 ELSE 0 END)::numeric / NULLIF(COUNT(*), 0) AS pct_low
	FROM school_priority_index p
	JOIN schools s ON s.school_id = p.school_id
	WHERE p.academic_year = $1
	GROUP BY s.district
),
deleted AS (
	DELETE FROM district_compliance_index WHERE academic_year = $1 RETURNING 1
)
INSERT INTO district_compliance_index (
	district, academic_year, total_schools, avg_risk_score,
	pct_critical, pct_high, pct_moderate, pct_low, compliance_grade
)
SELECT
	district, academic_year, total_schools, avg_risk_score,
	pct_critical, pct_high, pct_moderate, pct_low,
	CASE
		WHEN avg_risk_score < %f THEN 'A'
		WHEN avg_risk_score < %f THEN 'B'
		WHEN avg_risk_score < %f THEN 'C'
		WHEN avg_risk_score < %f THEN 'D'
		ELSE 'F'
	END AS compliance_grade
FROM agg`, cuts.A, cuts.B, cuts.C, cuts.D)

	tag, err := conn.Exec(ctx, sql, year)
	if err != nil {
		return 0, fmt.Errorf("district_compliance: aggregating: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (e *Engine) yearOverYear(ctx context.Context, conn store.Executor, year string) error {
	sql := `
WITH history AS (
	SELECT
		district,
		academic_year,
		avg_risk_score - LAG(avg_risk_score, 1) OVER (PARTITION BY district ORDER BY academic_year) AS delta
	FROM district_compliance_index
)
UPDATE district_compliance_index d
SET yoy_risk_change = h.delta
FROM history h
WHERE d.district = h.district
  AND d.academic_year = h.academic_year
  AND h.academic_year = $1`

	if _, err := conn.Exec(ctx, sql, year); err != nil {
		return fmt.Errorf("district_compliance: year-over-year: %w", err)
	}
	return nil
}

func (e *Engine) stateRank(ctx context.Context, conn store.Executor, year string) error {
	sql := `
WITH ranked AS (
	SELECT
		district,
		academic_year,
		RANK() OVER (PARTITION BY academic_year ORDER BY avg_risk_score DESC) AS rnk
	FROM district_compliance_index
	WHERE academic_year = $1
)
UPDATE district_compliance_index d
SET state_rank = r.rnk
FROM ranked r
WHERE d.district = r.district AND d.academic_year = r.academic_year`

	if _, err := conn.Exec(ctx, sql, year); err != nil {
		return fmt.Errorf("district_compliance: state rank: %w", err)
	}
	return nil
}
