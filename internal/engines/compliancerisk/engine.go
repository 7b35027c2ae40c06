// Package compliancerisk computes per-school-year deficit ratios, enrolment
// growth, and the composite risk_score/risk_level (§4.4) as three ordered
// set-oriented passes against school_priority_index.
//
// Pass B is subject to the window-function boundary contract in §9, as are
// the other LAG-based stages: LAG(total_enrolment) must see the full
// per-school year partition, so it is computed in an inner CTE and only
// filtered to the target year in the outer UPDATE.
package compliancerisk

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

func (e *Engine) Name() string        { return "compliance_risk" }
func (e *Engine) DependsOn() []string { return []string{"infra_gap", "teacher_adequacy"} }

func (e *Engine) Apply(ctx context.Context, conn store.Executor, year string) (model.BatchReport, error) {
	start := time.Now()

	if err := e.upsertRow(ctx, conn, year); err != nil {
		return model.BatchReport{}, err
	}
	if err := e.passA(ctx, conn, year); err != nil {
		return model.BatchReport{}, err
	}
	if err := e.passB(ctx, conn, year); err != nil {
		return model.BatchReport{}, err
	}
	tag, err := e.passC(ctx, conn, year)
	if err != nil {
		return model.BatchReport{}, err
	}

	return model.BatchReport{
		Stage:        e.Name(),
		AcademicYear: year,
		RowsAffected: tag,
		Elapsed:      time.Since(start),
	}, nil
}

// upsertRow guarantees a school_priority_index row exists for every school
// present in yearly_metrics for the target year, so the later passes can be
// plain UPDATEs.
func (e *Engine) upsertRow(ctx context.Context, conn store.Executor, year string) error {
	sql := `
INSERT INTO school_priority_index (school_id, academic_year)
SELECT y.school_id, y.academic_year
FROM yearly_metrics y
WHERE y.academic_year = $1
ON CONFLICT (school_id, academic_year) DO NOTHING`

	if _, err := conn.Exec(ctx, sql, year); err != nil {
		return fmt.Errorf("compliance_risk: seeding rows: %w", err)
	}
	return nil
}

// passA computes teacher_deficit_ratio and classroom_deficit_ratio as
// min(1.0, gap/GREATEST(required,1)).
func (e *Engine) passA(ctx context.Context, conn store.Executor, year string) error {
	sql := `
UPDATE school_priority_index p
SET
	teacher_deficit_ratio = LEAST(1.0, COALESCE(t.teacher_gap, 0)::numeric / GREATEST(COALESCE(t.required_teachers, 0), 1)),
	classroom_deficit_ratio = LEAST(1.0, COALESCE(i.classroom_gap, 0)::numeric / GREATEST(COALESCE(i.required_class_rooms, 0), 1))
FROM yearly_metrics y
LEFT JOIN teacher_metrics t ON t.school_id = y.school_id AND t.academic_year = y.academic_year
LEFT JOIN infrastructure_details i ON i.school_id = y.school_id AND i.academic_year = y.academic_year
WHERE p.school_id = y.school_id
  AND p.academic_year = y.academic_year
  AND p.academic_year = $1`

	if _, err := conn.Exec(ctx, sql, year); err != nil {
		return fmt.Errorf("compliance_risk: pass A deficit ratios: %w", err)
	}
	return nil
}

// passB computes enrolment_growth_rate = (enrolment-prev)/prev via a LAG
// computed over the school's full year partition in an inner CTE, filtered
// to the target year only in the outer UPDATE (§9).
func (e *Engine) passB(ctx context.Context, conn store.Executor, year string) error {
	sql := `
WITH school_growth AS (
	SELECT
		school_id,
		academic_year,
		total_enrolment,
		LAG(total_enrolment) OVER (PARTITION BY school_id ORDER BY academic_year) AS prev_enrolment
	FROM yearly_metrics
)
UPDATE school_priority_index p
SET enrolment_growth_rate = CASE
	WHEN g.prev_enrolment IS NULL OR g.prev_enrolment <= 0 THEN NULL
	ELSE (g.total_enrolment - g.prev_enrolment)::numeric / g.prev_enrolment
END
FROM school_growth g
WHERE p.school_id = g.school_id
  AND p.academic_year = g.academic_year
  AND g.academic_year = $1`

	if _, err := conn.Exec(ctx, sql, year); err != nil {
		return fmt.Errorf("compliance_risk: pass B enrolment growth: %w", err)
	}
	return nil
}

// passC computes the composite risk_score and risk_level classification
// using the fixed weights and bands (§4.4/§6).
func (e *Engine) passC(ctx context.Context, conn store.Executor, year string) (int64, error) {
	w := e.Cfg.RiskWeights
	b := e.Cfg.RiskBands
	growthCap := e.Cfg.GrowthCapRisk

	sql := fmt.Sprintf(`
UPDATE school_priority_index p
SET
	risk_score = %f * COALESCE(p.teacher_deficit_ratio, 0)
	           + %f * COALESCE(p.classroom_deficit_ratio, 0)
	           + %f * LEAST(ABS(COALESCE(p.enrolment_growth_rate, 0)), %f),
	risk_level = CASE
		WHEN (%f * COALESCE(p.teacher_deficit_ratio, 0)
		    + %f * COALESCE(p.classroom_deficit_ratio, 0)
		    + %f * LEAST(ABS(COALESCE(p.enrolment_growth_rate, 0)), %f)) >= %f THEN 'CRITICAL'
		WHEN (%f * COALESCE(p.teacher_deficit_ratio, 0)
		    + %f * COALESCE(p.classroom_deficit_ratio, 0)
		    + %f * LEAST(ABS(COALESCE(p.enrolment_growth_rate, 0)), %f)) >= %f THEN 'HIGH'
		WHEN (%f * COALESCE(p.teacher_deficit_ratio, 0)
		    + %f * COALESCE(p.classroom_deficit_ratio, 0)
		    + %f * LEAST(ABS(COALESCE(p.enrolment_growth_rate, 0)), %f)) >= %f THEN 'MODERATE'
		ELSE 'LOW'
	END
WHERE p.academic_year = $1`,
		w.Teacher, w.Classroom, w.Growth, growthCap,
		w.Teacher, w.Classroom, w.Growth, growthCap, b.Critical,
		w.Teacher, w.Classroom, w.Growth, growthCap, b.High,
		w.Teacher, w.Classroom, w.Growth, growthCap, b.Moderate,
	)

	tag, err := conn.Exec(ctx, sql, year)
	if err != nil {
		return 0, fmt.Errorf("compliance_risk: pass C composite score: %w", err)
	}
	return tag.RowsAffected(), nil
}
