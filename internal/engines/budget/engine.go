// Package budget greedily allocates a fixed classroom/teacher budget across
// schools in risk-rank order (§4.6): the highest-risk school is funded
// first, and any school whose allocation would push the running total past
// the cap receives zero in that dimension — an all-or-nothing cutoff rather
// than a partial fill, so Σ allocated never exceeds the cap.
package budget

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

func (e *Engine) Name() string        { return "budget_allocation" }
func (e *Engine) DependsOn() []string { return []string{"prioritisation"} }

func (e *Engine) Apply(ctx context.Context, conn store.Executor, year string) (model.BatchReport, error) {
	start := time.Now()

	maxClassrooms := e.Cfg.Budget.MaxClassrooms()
	maxTeachers := e.Cfg.Budget.MaxTeachers
	costPerClassroom := e.Cfg.Budget.CostPerClassroom

	sql := fmt.Sprintf(`
WITH ranked AS (
	SELECT
		p.school_id,
		p.academic_year,
		COALESCE(i.classroom_gap, 0) AS classroom_gap,
		COALESCE(t.teacher_gap, 0) AS teacher_gap,
		ROW_NUMBER() OVER (ORDER BY p.risk_rank ASC) AS alloc_order
	FROM school_priority_index p
	LEFT JOIN infrastructure_details i ON i.school_id = p.school_id AND i.academic_year = p.academic_year
	LEFT JOIN teacher_metrics t ON t.school_id = p.school_id AND t.academic_year = p.academic_year
	WHERE p.academic_year = $1
),
cumulative AS (
	SELECT
		*,
		SUM(classroom_gap) OVER (ORDER BY alloc_order ROWS UNBOUNDED PRECEDING) AS cum_cr,
		SUM(teacher_gap) OVER (ORDER BY alloc_order ROWS UNBOUNDED PRECEDING) AS cum_tr
	FROM ranked
),
allocated AS (
	SELECT
		school_id,
		academic_year,
		alloc_order,
		CASE WHEN cum_cr <= %d THEN classroom_gap ELSE 0 END AS classrooms_allocated,
		CASE WHEN cum_tr <= %d THEN teacher_gap ELSE 0 END AS teachers_allocated
	FROM cumulative
),
costed AS (
	SELECT
		*,
		classrooms_allocated * %f AS estimated_cost
	FROM allocated
),
final_rows AS (
	SELECT
		*,
		SUM(estimated_cost) OVER (ORDER BY alloc_order) AS cumulative_cost
	FROM costed
),
deleted AS (
	DELETE FROM budget_simulation WHERE academic_year = $1 RETURNING 1
)
INSERT INTO budget_simulation (
	school_id, academic_year, classrooms_allocated, teachers_allocated,
	estimated_cost, cumulative_cost, allocation_status
)
SELECT
	school_id, academic_year, classrooms_allocated, teachers_allocated,
	estimated_cost, cumulative_cost,
	CASE
		WHEN classrooms_allocated > 0 AND teachers_allocated > 0 THEN 'FUNDED'
		WHEN classrooms_allocated = 0 AND teachers_allocated = 0 THEN 'UNFUNDED'
		ELSE 'PARTIALLY_FUNDED'
	END AS allocation_status
FROM final_rows`, maxClassrooms, maxTeachers, costPerClassroom)

	tag, err := conn.Exec(ctx, sql, year)
	if err != nil {
		return model.BatchReport{}, fmt.Errorf("budget_allocation: %w", err)
	}

	return model.BatchReport{
		Stage:        e.Name(),
		AcademicYear: year,
		RowsAffected: tag.RowsAffected(),
		Elapsed:      time.Since(start),
	}, nil
}
