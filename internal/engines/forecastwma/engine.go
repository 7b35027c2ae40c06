// Package forecastwma projects enrolment three years ahead per school using
// a closed-form weighted moving average of the last three years' deltas
// (§4.9), then translates the projection into classroom/teacher requirement
// gaps using the same norm tables as §4.2/§4.3.
//
// The three-year deltas require LAG(1), LAG(2), LAG(3) computed over each
// school's full academic_year history; per the §9 window-boundary contract,
// this happens in an inner CTE before the base-year filter is ever applied.
package forecastwma

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/unmolkumar/school-ai-bav/internal/config"
	"github.com/unmolkumar/school-ai-bav/internal/model"
	"github.com/unmolkumar/school-ai-bav/internal/norms"
	"github.com/unmolkumar/school-ai-bav/internal/store"
)

const (
	defaultNorm = 40
	defaultPTR  = 35
)

type Engine struct {
	Log *slog.Logger
	Cfg config.Config
}

func New(log *slog.Logger, cfg config.Config) *Engine {
	return &Engine{Log: log, Cfg: cfg}
}

func (e *Engine) Name() string        { return "forecast_wma" }
func (e *Engine) DependsOn() []string { return []string{"compliance_risk"} }

func (e *Engine) Apply(ctx context.Context, conn store.Executor, year string) (model.BatchReport, error) {
	start := time.Now()

	growthCap := e.Cfg.ForecastGrowthCap
	sql := fmt.Sprintf(`
WITH deltas AS (
	SELECT
		school_id,
		academic_year AS base_year,
		total_enrolment AS e_t,
		LAG(total_enrolment, 1) OVER (PARTITION BY school_id ORDER BY academic_year) AS e_t1,
		LAG(total_enrolment, 2) OVER (PARTITION BY school_id ORDER BY academic_year) AS e_t2,
		LAG(total_enrolment, 3) OVER (PARTITION BY school_id ORDER BY academic_year) AS e_t3
	FROM yearly_metrics
),
growth AS (
	SELECT
		school_id,
		base_year,
		e_t,
		CASE
			WHEN COALESCE(e_t1, 0) > 0 THEN
				LEAST(%f, GREATEST(-%f,
					(3 * (e_t - e_t1) + 2 * COALESCE(e_t1 - e_t2, 0) + 1 * COALESCE(e_t2 - e_t3, 0))::numeric
					/ (6 * e_t1)
				))
			ELSE 0
		END AS g
	FROM deltas
	WHERE base_year = $1
),
horizons(k) AS (VALUES (1), (2), (3)),
projected AS (
	SELECT
		g.school_id,
		g.base_year,
		h.k,
		g.e_t,
		g.g,
		GREATEST(0, ROUND(g.e_t * POWER(1 + g.g, h.k)))::int AS projected_enrolment
	FROM growth g
	CROSS JOIN horizons h
),
category_norm(category, norm) AS (VALUES %s),
ptr_norm(category, ptr) AS (VALUES %s),
requirements AS (
	SELECT
		p.school_id,
		p.base_year,
		p.k,
		p.e_t,
		p.g,
		p.projected_enrolment,
		CEIL(p.projected_enrolment::numeric / COALESCE(cn.norm, %d))::int AS projected_classrooms_req,
		CEIL(p.projected_enrolment::numeric / COALESCE(pn.ptr, %d))::int AS projected_teachers_req
	FROM projected p
	JOIN schools s ON s.school_id = p.school_id
	LEFT JOIN category_norm cn ON cn.category = s.school_category
	LEFT JOIN ptr_norm pn ON pn.category = s.school_category
),
capacity AS (
	SELECT
		r.*,
		COALESCE(i.usable_class_rooms, 0) AS current_classrooms,
		COALESCE(t.total_teachers, 0) AS current_teachers
	FROM requirements r
	LEFT JOIN infrastructure_details i ON i.school_id = r.school_id AND i.academic_year = r.base_year
	LEFT JOIN teacher_metrics t ON t.school_id = r.school_id AND t.academic_year = r.base_year
),
deleted AS (
	DELETE FROM school_enrolment_forecast WHERE base_year = $1 RETURNING 1
)
INSERT INTO school_enrolment_forecast (
	school_id, base_year, years_ahead, base_enrolment, growth_rate_used,
	projected_enrolment, projected_classrooms_req, projected_teachers_req,
	projected_classroom_gap, projected_teacher_gap
)
SELECT
	school_id, base_year, k, e_t, g,
	projected_enrolment, projected_classrooms_req, projected_teachers_req,
	GREATEST(0, projected_classrooms_req - current_classrooms),
	GREATEST(0, projected_teachers_req - current_teachers)
FROM capacity`,
		growthCap, growthCap,
		norms.CategoryValuesSQL(norms.ClassroomNormTable()),
		norms.CategoryValuesSQL(norms.PTRNormTable()),
		defaultNorm, defaultPTR)

	tag, err := conn.Exec(ctx, sql, year)
	if err != nil {
		return model.BatchReport{}, fmt.Errorf("forecast_wma: %w", err)
	}

	return model.BatchReport{
		Stage:        e.Name(),
		AcademicYear: year,
		RowsAffected: tag.RowsAffected(),
		Elapsed:      time.Since(start),
	}, nil
}
