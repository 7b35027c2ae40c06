// Package teacheradequacy computes PTR-based teacher requirements and gaps
// (§4.3): the same shape as infragap, against teacher_metrics.
package teacheradequacy

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/unmolkumar/school-ai-bav/internal/model"
	"github.com/unmolkumar/school-ai-bav/internal/norms"
	"github.com/unmolkumar/school-ai-bav/internal/store"
)

const defaultPTR = 35

type Engine struct {
	Log *slog.Logger
}

func New(log *slog.Logger) *Engine { return &Engine{Log: log} }

func (e *Engine) Name() string        { return "teacher_adequacy" }
func (e *Engine) DependsOn() []string { return []string{"bootstrap"} }

func (e *Engine) Apply(ctx context.Context, conn store.Executor, year string) (model.BatchReport, error) {
	start := time.Now()

	if err := e.warnUnknownCategories(ctx, conn, year); err != nil {
		return model.BatchReport{}, err
	}

	sql := fmt.Sprintf(`
WITH ptr_norm(category, ptr) AS (VALUES %s)
UPDATE teacher_metrics t
SET
	required_teachers = CASE
		WHEN COALESCE(y.total_enrolment, 0) <= 0 THEN 0
		ELSE CEIL(y.total_enrolment::numeric / COALESCE(pn.ptr, %d))::int
	END,
	teacher_gap = GREATEST(
		0,
		(CASE
			WHEN COALESCE(y.total_enrolment, 0) <= 0 THEN 0
			ELSE CEIL(y.total_enrolment::numeric / COALESCE(pn.ptr, %d))::int
		END) - COALESCE(t.total_teachers, 0)
	)
FROM yearly_metrics y
JOIN schools s ON s.school_id = y.school_id
LEFT JOIN ptr_norm pn ON pn.category = s.school_category
WHERE t.school_id = y.school_id
  AND t.academic_year = y.academic_year
  AND t.academic_year = $1`, norms.CategoryValuesSQL(norms.PTRNormTable()), defaultPTR, defaultPTR)

	tag, err := conn.Exec(ctx, sql, year)
	if err != nil {
		return model.BatchReport{}, fmt.Errorf("teacher_adequacy: %w", err)
	}

	return model.BatchReport{
		Stage:        e.Name(),
		AcademicYear: year,
		RowsAffected: tag.RowsAffected(),
		Elapsed:      time.Since(start),
	}, nil
}

func (e *Engine) warnUnknownCategories(ctx context.Context, conn store.Executor, year string) error {
	row := conn.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM teacher_metrics t
		JOIN schools s ON s.school_id = t.school_id
		WHERE t.academic_year = $1
		  AND (s.school_category IS NULL OR s.school_category NOT BETWEEN 1 AND 11)`, year)

	var count int
	if err := row.Scan(&count); err != nil {
		return fmt.Errorf("teacher_adequacy: failed to check category coverage: %w", err)
	}
	if count > 0 {
		e.Log.Warn("schools with unknown category defaulted to permissive PTR",
			"stage", e.Name(), "year", year, "count", count, "default_ptr", defaultPTR)
	}
	return nil
}
