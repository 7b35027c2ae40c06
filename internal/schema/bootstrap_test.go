package schema

import (
	"context"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// recordingExecutor implements store.Executor, capturing every statement it
// is asked to run instead of talking to a real database.
type recordingExecutor struct {
	executed []string
}

func (r *recordingExecutor) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	r.executed = append(r.executed, sql)
	return pgconn.CommandTag{}, nil
}

func (r *recordingExecutor) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}

func (r *recordingExecutor) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}

func TestApplyRunsEveryStatementIdempotently(t *testing.T) {
	exec := &recordingExecutor{}
	stage := New()

	report, err := stage.Apply(context.Background(), exec, "")
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if report.RowsAffected != int64(len(statements)) {
		t.Errorf("RowsAffected = %d, want %d", report.RowsAffected, len(statements))
	}
	if len(exec.executed) != len(statements) {
		t.Fatalf("executed %d statements, want %d", len(exec.executed), len(statements))
	}

	for _, stmt := range exec.executed {
		upper := strings.ToUpper(stmt)
		switch {
		case strings.HasPrefix(strings.TrimSpace(upper), "CREATE TABLE"):
			if !strings.Contains(upper, "IF NOT EXISTS") {
				t.Errorf("CREATE TABLE statement missing IF NOT EXISTS: %s", stmt)
			}
		case strings.HasPrefix(strings.TrimSpace(upper), "CREATE INDEX"):
			if !strings.Contains(upper, "IF NOT EXISTS") {
				t.Errorf("CREATE INDEX statement missing IF NOT EXISTS: %s", stmt)
			}
		case strings.HasPrefix(strings.TrimSpace(upper), "ALTER TABLE"):
			if !strings.Contains(upper, "ADD COLUMN IF NOT EXISTS") {
				t.Errorf("ALTER TABLE statement missing ADD COLUMN IF NOT EXISTS: %s", stmt)
			}
		}
	}
}

func TestTwelveCoreTablesPresent(t *testing.T) {
	want := []string{
		"schools", "yearly_metrics", "infrastructure_details", "teacher_metrics",
		"school_priority_index", "budget_simulation", "risk_trend",
		"district_compliance_index", "school_demand_proposals", "proposal_validations",
		"school_enrolment_forecast", "ml_enrolment_forecast",
	}
	joined := strings.Join(statements, "\n")
	for _, table := range want {
		if !strings.Contains(joined, "CREATE TABLE IF NOT EXISTS "+table) {
			t.Errorf("missing bootstrap statement for table %q", table)
		}
	}
}
