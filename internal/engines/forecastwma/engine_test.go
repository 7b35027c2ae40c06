package forecastwma

import (
	"context"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/unmolkumar/school-ai-bav/internal/config"
)

type recordingExecutor struct {
	executed []string
}

func (r *recordingExecutor) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	r.executed = append(r.executed, sql)
	return pgconn.NewCommandTag("INSERT 0 3"), nil
}

func (r *recordingExecutor) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}

func (r *recordingExecutor) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}

func TestLagsComputedOverFullPartitionBeforeBaseYearFilter(t *testing.T) {
	exec := &recordingExecutor{}
	e := New(nil, config.Default())

	if _, err := e.Apply(context.Background(), exec, "2023-24"); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(exec.executed) != 1 {
		t.Fatalf("executed %d statements, want 1", len(exec.executed))
	}

	sql := exec.executed[0]
	lag3Idx := strings.Index(sql, "LAG(total_enrolment, 3)")
	filterIdx := strings.Index(sql, "WHERE base_year = $1")
	if lag3Idx == -1 || filterIdx == -1 || filterIdx < lag3Idx {
		t.Fatalf("expected all three LAGs computed before the base_year filter, got: %s", sql)
	}
	if strings.Contains(sql, "FROM yearly_metrics\n\tWHERE academic_year") {
		t.Error("deltas CTE source must not filter by year before computing the lags")
	}
}

func TestUsesDeleteThenInsertAcrossThreeHorizons(t *testing.T) {
	exec := &recordingExecutor{}
	e := New(nil, config.Default())

	if _, err := e.Apply(context.Background(), exec, "2023-24"); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	sql := exec.executed[0]
	if !strings.Contains(sql, "DELETE FROM school_enrolment_forecast") {
		t.Error("expected a DELETE against school_enrolment_forecast")
	}
	if !strings.Contains(sql, "horizons(k) AS (VALUES (1), (2), (3))") {
		t.Error("expected a 3-horizon VALUES list for k in {1,2,3}")
	}
}

func TestGrowthCapEmbedsConfiguredValue(t *testing.T) {
	exec := &recordingExecutor{}
	cfg := config.Default()
	cfg.ForecastGrowthCap = 0.30
	e := New(nil, cfg)

	if _, err := e.Apply(context.Background(), exec, "2023-24"); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	sql := exec.executed[0]
	if !strings.Contains(sql, "0.300000") {
		t.Errorf("expected growth cap 0.30 embedded in generated SQL, got: %s", sql)
	}
}

func TestNormTablesJoinedNotInlineCase(t *testing.T) {
	exec := &recordingExecutor{}
	e := New(nil, config.Default())

	if _, err := e.Apply(context.Background(), exec, "2023-24"); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	sql := exec.executed[0]
	if !strings.Contains(sql, "category_norm(category, norm) AS (VALUES") {
		t.Error("expected classroom norms joined via a VALUES CTE")
	}
	if !strings.Contains(sql, "ptr_norm(category, ptr) AS (VALUES") {
		t.Error("expected PTR norms joined via a VALUES CTE")
	}
}

func TestDependsOnComplianceRisk(t *testing.T) {
	e := New(nil, config.Default())
	deps := e.DependsOn()
	if len(deps) != 1 || deps[0] != "compliance_risk" {
		t.Errorf("DependsOn() = %v, want [compliance_risk]", deps)
	}
}
