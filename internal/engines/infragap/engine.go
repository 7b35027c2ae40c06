// Package infragap computes norm-based classroom requirements and gaps
// (§4.2): one set-oriented UPDATE per academic year, all arithmetic done by
// the store.
package infragap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/unmolkumar/school-ai-bav/internal/model"
	"github.com/unmolkumar/school-ai-bav/internal/norms"
	"github.com/unmolkumar/school-ai-bav/internal/store"
)

type Engine struct {
	Log *slog.Logger
}

func New(log *slog.Logger) *Engine { return &Engine{Log: log} }

func (e *Engine) Name() string        { return "infra_gap" }
func (e *Engine) DependsOn() []string { return []string{"bootstrap"} }

func (e *Engine) Apply(ctx context.Context, conn store.Executor, year string) (model.BatchReport, error) {
	start := time.Now()

	if err := e.warnUnknownCategories(ctx, conn, year); err != nil {
		return model.BatchReport{}, err
	}

	sql := fmt.Sprintf(`
WITH category_norm(category, norm) AS (VALUES %s)
UPDATE infrastructure_details i
SET
	required_class_rooms = CASE
		WHEN COALESCE(y.total_enrolment, 0) <= 0 THEN 0
		ELSE CEIL(y.total_enrolment::numeric / COALESCE(cn.norm, %d))::int
	END,
	classroom_gap = GREATEST(
		0,
		(CASE
			WHEN COALESCE(y.total_enrolment, 0) <= 0 THEN 0
			ELSE CEIL(y.total_enrolment::numeric / COALESCE(cn.norm, %d))::int
		END) - COALESCE(i.usable_class_rooms, 0)
	)
FROM yearly_metrics y
JOIN schools s ON s.school_id = y.school_id
LEFT JOIN category_norm cn ON cn.category = s.school_category
WHERE i.school_id = y.school_id
  AND i.academic_year = y.academic_year
  AND i.academic_year = $1`, norms.CategoryValuesSQL(norms.ClassroomNormTable()), defaultNorm, defaultNorm)

	tag, err := conn.Exec(ctx, sql, year)
	if err != nil {
		return model.BatchReport{}, fmt.Errorf("infra_gap: %w", err)
	}

	return model.BatchReport{
		Stage:        e.Name(),
		AcademicYear: year,
		RowsAffected: tag.RowsAffected(),
		Elapsed:      time.Since(start),
	}, nil
}

// defaultNorm is the most-permissive fallback for missing/unrecognized
// categories (§4.2).
const defaultNorm = 40

func (e *Engine) warnUnknownCategories(ctx context.Context, conn store.Executor, year string) error {
	row := conn.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM infrastructure_details i
		JOIN schools s ON s.school_id = i.school_id
		WHERE i.academic_year = $1
		  AND (s.school_category IS NULL OR s.school_category NOT BETWEEN 1 AND 11)`, year)

	var count int
	if err := row.Scan(&count); err != nil {
		return fmt.Errorf("infra_gap: failed to check category coverage: %w", err)
	}
	if count > 0 {
		e.Log.Warn("schools with unknown category defaulted to permissive norm",
			"stage", e.Name(), "year", year, "count", count, "default_norm", defaultNorm)
	}
	return nil
}
