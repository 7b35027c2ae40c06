package districtcompliance

import (
	"context"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/unmolkumar/school-ai-bav/internal/config"
	"github.com/unmolkumar/school-ai-bav/internal/model"
)

type recordingExecutor struct {
	executed []string
}

func (r *recordingExecutor) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	r.executed = append(r.executed, sql)
	return pgconn.NewCommandTag("UPDATE 1"), nil
}

func (r *recordingExecutor) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}

func (r *recordingExecutor) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}

func TestApplyRunsThreePasses(t *testing.T) {
	exec := &recordingExecutor{}
	e := New(nil, config.Default())

	if _, err := e.Apply(context.Background(), exec, "2023-24"); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(exec.executed) != 3 {
		t.Fatalf("executed %d statements, want 3 (aggregate, yoy, rank)", len(exec.executed))
	}
	if !strings.Contains(exec.executed[0], "INSERT INTO district_compliance_index") {
		t.Error("pass 1 should aggregate into district_compliance_index")
	}
	if !strings.Contains(exec.executed[1], "yoy_risk_change") {
		t.Error("pass 2 should compute yoy_risk_change")
	}
	if !strings.Contains(exec.executed[2], "state_rank") {
		t.Error("pass 3 should compute state_rank")
	}
}

func TestYearOverYearLagComputedOverFullHistory(t *testing.T) {
	exec := &recordingExecutor{}
	e := New(nil, config.Default())

	if err := e.yearOverYear(context.Background(), exec, "2023-24"); err != nil {
		t.Fatalf("yearOverYear: %v", err)
	}

	sql := exec.executed[0]
	lagIdx := strings.Index(sql, "LAG(avg_risk_score")
	filterIdx := strings.Index(sql, "h.academic_year = $1")
	if lagIdx == -1 || filterIdx == -1 || filterIdx < lagIdx {
		t.Fatalf("expected LAG computed before the outer year filter, got: %s", sql)
	}
	if strings.Contains(sql, "FROM district_compliance_index\n\tWHERE academic_year") {
		t.Error("history CTE source must not filter by year before computing the lag")
	}
}

func TestComplianceGradeCutsMatchModelClassifier(t *testing.T) {
	cuts := config.Default().ComplianceGradeCuts
	cases := []struct {
		avgRisk float64
		want    model.ComplianceGrade
	}{
		{0.10, model.GradeA},
		{0.15, model.GradeB},
		{0.29, model.GradeB},
		{0.30, model.GradeC},
		{0.49, model.GradeC},
		{0.50, model.GradeD},
		{0.69, model.GradeD},
		{0.70, model.GradeF},
	}
	for _, c := range cases {
		got := model.GradeFromAvgRisk(c.avgRisk, cuts.A, cuts.B, cuts.C, cuts.D)
		if got != c.want {
			t.Errorf("GradeFromAvgRisk(%v) = %s, want %s", c.avgRisk, got, c.want)
		}
	}
}

func TestAggregateEmbedsConfiguredGradeCuts(t *testing.T) {
	exec := &recordingExecutor{}
	e := New(nil, config.Default())

	if _, err := e.aggregate(context.Background(), exec, "2023-24"); err != nil {
		t.Fatalf("aggregate: %v", err)
	}

	sql := exec.executed[0]
	for _, want := range []string{"0.150000", "0.300000", "0.500000", "0.700000"} {
		if !strings.Contains(sql, want) {
			t.Errorf("expected grade cut %s in generated SQL", want)
		}
	}
}

func TestDependsOnComplianceRisk(t *testing.T) {
	e := New(nil, config.Default())
	deps := e.DependsOn()
	if len(deps) != 1 || deps[0] != "compliance_risk" {
		t.Errorf("DependsOn() = %v, want [compliance_risk]", deps)
	}
}
