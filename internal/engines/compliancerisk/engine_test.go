package compliancerisk

import (
	"context"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/unmolkumar/school-ai-bav/internal/config"
)

// recordingExecutor captures every statement it is asked to run instead of
// talking to a real database.
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

func testEngine() *Engine {
	return New(nil, config.Default())
}

func TestApplyRunsFourStatementsInOrder(t *testing.T) {
	exec := &recordingExecutor{}
	e := testEngine()

	if _, err := e.Apply(context.Background(), exec, "2023-24"); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	if len(exec.executed) != 4 {
		t.Fatalf("executed %d statements, want 4 (seed, pass A, pass B, pass C)", len(exec.executed))
	}
	if !strings.Contains(strings.ToUpper(exec.executed[0]), "INSERT INTO SCHOOL_PRIORITY_INDEX") {
		t.Error("statement 1 should seed school_priority_index rows")
	}
	if !strings.Contains(exec.executed[1], "teacher_deficit_ratio") {
		t.Error("statement 2 should compute pass A deficit ratios")
	}
	if !strings.Contains(exec.executed[2], "enrolment_growth_rate") {
		t.Error("statement 3 should compute pass B enrolment growth")
	}
	if !strings.Contains(exec.executed[3], "risk_score") {
		t.Error("statement 4 should compute pass C composite score")
	}
}

// TestPassBComputesLagOverFullPartitionThenFilters asserts the §9 window
// contract: LAG runs inside an inner CTE over the unfiltered partition, and
// the academic_year filter is applied only in the outer UPDATE.
func TestPassBComputesLagOverFullPartitionThenFilters(t *testing.T) {
	exec := &recordingExecutor{}
	e := testEngine()

	if err := e.passB(context.Background(), exec, "2023-24"); err != nil {
		t.Fatalf("passB: %v", err)
	}

	sql := exec.executed[0]
	lagIdx := strings.Index(sql, "LAG(")
	filterIdx := strings.Index(sql, "g.academic_year = $1")
	if lagIdx == -1 || filterIdx == -1 {
		t.Fatalf("expected LAG(...) and an outer year filter, got: %s", sql)
	}
	if filterIdx < lagIdx {
		t.Error("year filter must appear after the LAG computation, not inside its partition")
	}
	if strings.Contains(sql, "WHERE academic_year = $1") {
		t.Error("LAG's source CTE must not filter by year before computing the lag")
	}
}

func TestPassCUsesConfiguredWeightsAndBands(t *testing.T) {
	exec := &recordingExecutor{}
	e := testEngine()
	e.Cfg.RiskWeights = config.RiskWeights{Teacher: 0.45, Classroom: 0.35, Growth: 0.20}
	e.Cfg.RiskBands = config.RiskBands{Critical: 0.60, High: 0.40, Moderate: 0.20}

	if _, err := e.passC(context.Background(), exec, "2023-24"); err != nil {
		t.Fatalf("passC: %v", err)
	}

	sql := exec.executed[0]
	for _, want := range []string{"0.450000", "0.350000", "0.200000", "0.600000", "0.400000"} {
		if !strings.Contains(sql, want) {
			t.Errorf("expected generated SQL to embed %s, got: %s", want, sql)
		}
	}
}

func TestDependsOnBothDeficitEngines(t *testing.T) {
	e := testEngine()
	deps := e.DependsOn()
	if len(deps) != 2 || deps[0] != "infra_gap" || deps[1] != "teacher_adequacy" {
		t.Errorf("DependsOn() = %v, want [infra_gap teacher_adequacy]", deps)
	}
}
