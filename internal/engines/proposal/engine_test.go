package proposal

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
	execSQL  []string
	execArgs [][]any
}

func (r *recordingExecutor) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	r.execSQL = append(r.execSQL, sql)
	r.execArgs = append(r.execArgs, args)
	return pgconn.NewCommandTag("INSERT 0 2"), nil
}

func (r *recordingExecutor) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}

func (r *recordingExecutor) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}

func TestWriteChunkIssuesTwoStatementsWithCorrectArgCounts(t *testing.T) {
	exec := &recordingExecutor{}
	e := New(nil, config.Default())

	chunk := []computedProposal{
		{schoolID: "S1", academicYear: "2023-24", gapCR: 4, gapTR: 2, reqCR: 7, reqTR: 2,
			verdict: Verdict{model.DecisionRejected, model.ReasonClassroomOverRequest, 0.5}},
		{schoolID: "S2", academicYear: "2023-24", gapCR: 0, gapTR: 0, reqCR: 0, reqTR: 0,
			verdict: Verdict{model.DecisionAccepted, model.ReasonNoRequest, 1.0}},
	}

	n, err := e.writeChunk(context.Background(), exec, chunk)
	if err != nil {
		t.Fatalf("writeChunk: %v", err)
	}
	if n != 2 {
		t.Errorf("RowsAffected = %d, want 2", n)
	}
	if len(exec.execSQL) != 2 {
		t.Fatalf("issued %d statements, want 2 (demand, validation)", len(exec.execSQL))
	}
	if !strings.Contains(exec.execSQL[0], "school_demand_proposals") {
		t.Error("first statement should target school_demand_proposals")
	}
	if !strings.Contains(exec.execSQL[1], "proposal_validations") {
		t.Error("second statement should target proposal_validations")
	}
	if len(exec.execArgs[0]) != len(chunk)*4 {
		t.Errorf("demand args = %d, want %d", len(exec.execArgs[0]), len(chunk)*4)
	}
	if len(exec.execArgs[1]) != len(chunk)*7 {
		t.Errorf("validation args = %d, want %d", len(exec.execArgs[1]), len(chunk)*7)
	}
}

func TestWriteChunkEmptyIsNoop(t *testing.T) {
	exec := &recordingExecutor{}
	e := New(nil, config.Default())

	n, err := e.writeChunk(context.Background(), exec, nil)
	if err != nil {
		t.Fatalf("writeChunk: %v", err)
	}
	if n != 0 {
		t.Errorf("RowsAffected = %d, want 0", n)
	}
	if len(exec.execSQL) != 0 {
		t.Error("expected no statements for an empty chunk")
	}
}

func TestDependsOnComplianceRisk(t *testing.T) {
	e := New(nil, config.Default())
	deps := e.DependsOn()
	if len(deps) != 1 || deps[0] != "compliance_risk" {
		t.Errorf("DependsOn() = %v, want [compliance_risk]", deps)
	}
}
