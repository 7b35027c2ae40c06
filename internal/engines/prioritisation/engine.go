// Package prioritisation ranks schools within each academic year by
// risk_score and flags multi-year persistence (§4.5).
//
// The stage follows the DELETE-then-INSERT idiom rather than UPDATE, since
// every row's rank/percentile/bucket depends on every other row in the same
// year — a pure window-function SELECT re-derives the whole year's worth of
// rows at once. The data-modifying CTE chain below snapshots the existing
// rows (including the history needed for the persistence flag) before the
// DELETE executes, so the final INSERT ... SELECT sees the pre-delete data.
package prioritisation

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

func (e *Engine) Name() string        { return "prioritisation" }
func (e *Engine) DependsOn() []string { return []string{"compliance_risk"} }

func (e *Engine) Apply(ctx context.Context, conn store.Executor, year string) (model.BatchReport, error) {
	start := time.Now()

	b := e.Cfg.PriorityBuckets
	sql := fmt.Sprintf(`
WITH history AS (
	SELECT
		school_id,
		academic_year,
		risk_level,
		LAG(risk_level, 1) OVER (PARTITION BY school_id ORDER BY academic_year) AS lag1,
		LAG(risk_level, 2) OVER (PARTITION BY school_id ORDER BY academic_year) AS lag2
	FROM school_priority_index
),
existing AS (
	SELECT
		p.school_id,
		p.academic_year,
		p.teacher_deficit_ratio,
		p.classroom_deficit_ratio,
		p.enrolment_growth_rate,
		p.risk_score,
		p.risk_level,
		s.district,
		h.lag1,
		h.lag2
	FROM school_priority_index p
	JOIN schools s ON s.school_id = p.school_id
	JOIN history h ON h.school_id = p.school_id AND h.academic_year = p.academic_year
	WHERE p.academic_year = $1
),
deleted AS (
	DELETE FROM school_priority_index WHERE academic_year = $1 RETURNING 1
)
INSERT INTO school_priority_index (
	school_id, academic_year, teacher_deficit_ratio, classroom_deficit_ratio,
	enrolment_growth_rate, risk_score, risk_level,
	risk_rank, district_rank, percentile, priority_bucket, persistent_high_risk
)
SELECT
	school_id, academic_year, teacher_deficit_ratio, classroom_deficit_ratio,
	enrolment_growth_rate, risk_score, risk_level,
	RANK() OVER (ORDER BY risk_score DESC) AS risk_rank,
	RANK() OVER (PARTITION BY district ORDER BY risk_score DESC) AS district_rank,
	PERCENT_RANK() OVER (ORDER BY risk_score DESC) AS percentile,
	CASE
		WHEN PERCENT_RANK() OVER (ORDER BY risk_score DESC) < %f THEN 'TOP_5'
		WHEN PERCENT_RANK() OVER (ORDER BY risk_score DESC) < %f THEN 'TOP_10'
		WHEN PERCENT_RANK() OVER (ORDER BY risk_score DESC) < %f THEN 'TOP_20'
		ELSE 'STANDARD'
	END AS priority_bucket,
	(lag1 IN ('HIGH', 'CRITICAL') AND lag2 IN ('HIGH', 'CRITICAL')) AS persistent_high_risk
FROM existing`, b.Top5, b.Top10, b.Top20)

	tag, err := conn.Exec(ctx, sql, year)
	if err != nil {
		return model.BatchReport{}, fmt.Errorf("prioritisation: %w", err)
	}

	return model.BatchReport{
		Stage:        e.Name(),
		AcademicYear: year,
		RowsAffected: tag.RowsAffected(),
		Elapsed:      time.Since(start),
	}, nil
}
