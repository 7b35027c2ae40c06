package proposal

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/unmolkumar/school-ai-bav/internal/config"
	"github.com/unmolkumar/school-ai-bav/internal/model"
	"github.com/unmolkumar/school-ai-bav/internal/store"
)

const chunkSize = 500

type Engine struct {
	Log *slog.Logger
	Cfg config.Config
}

func New(log *slog.Logger, cfg config.Config) *Engine {
	return &Engine{Log: log, Cfg: cfg}
}

func (e *Engine) Name() string        { return "proposal_validation" }
func (e *Engine) DependsOn() []string { return []string{"compliance_risk"} }

type computedProposal struct {
	schoolID     string
	academicYear string
	gapCR, gapTR int
	reqCR, reqTR int
	verdict      Verdict
}

func (e *Engine) Apply(ctx context.Context, conn store.Executor, year string) (model.BatchReport, error) {
	start := time.Now()

	rows, err := conn.Query(ctx, `
SELECT p.school_id, p.academic_year, COALESCE(i.classroom_gap, 0), COALESCE(t.teacher_gap, 0)
FROM school_priority_index p
LEFT JOIN infrastructure_details i ON i.school_id = p.school_id AND i.academic_year = p.academic_year
LEFT JOIN teacher_metrics t ON t.school_id = p.school_id AND t.academic_year = p.academic_year
WHERE p.academic_year = $1`, year)
	if err != nil {
		return model.BatchReport{}, fmt.Errorf("proposal_validation: querying deficits: %w", err)
	}
	defer rows.Close()

	var results []computedProposal
	for rows.Next() {
		var schoolID, academicYear string
		var gapCR, gapTR int
		if err := rows.Scan(&schoolID, &academicYear, &gapCR, &gapTR); err != nil {
			return model.BatchReport{}, fmt.Errorf("proposal_validation: scanning row: %w", err)
		}

		noiseCR := Noise(schoolID, academicYear, "cr", e.Cfg.ProposalNoiseFloor, e.Cfg.ProposalNoiseSpan)
		noiseTR := Noise(schoolID, academicYear, "tr", e.Cfg.ProposalNoiseFloor, e.Cfg.ProposalNoiseSpan)
		reqCR := Requested(gapCR, noiseCR)
		reqTR := Requested(gapTR, noiseTR)

		results = append(results, computedProposal{
			schoolID:     schoolID,
			academicYear: academicYear,
			gapCR:        gapCR,
			gapTR:        gapTR,
			reqCR:        reqCR,
			reqTR:        reqTR,
			verdict:      Validate(gapCR, gapTR, reqCR, reqTR),
		})
	}
	if err := rows.Err(); err != nil {
		return model.BatchReport{}, fmt.Errorf("proposal_validation: iterating rows: %w", err)
	}

	var affected int64
	for i := 0; i < len(results); i += chunkSize {
		end := min(i+chunkSize, len(results))
		n, err := e.writeChunk(ctx, conn, results[i:end])
		if err != nil {
			return model.BatchReport{}, err
		}
		affected += n
	}

	return model.BatchReport{
		Stage:        e.Name(),
		AcademicYear: year,
		RowsAffected: affected,
		Elapsed:      time.Since(start),
	}, nil
}

func (e *Engine) writeChunk(ctx context.Context, conn store.Executor, chunk []computedProposal) (int64, error) {
	if len(chunk) == 0 {
		return 0, nil
	}

	demandPlaceholders := make([]string, 0, len(chunk))
	demandArgs := make([]any, 0, len(chunk)*4)
	validationPlaceholders := make([]string, 0, len(chunk))
	validationArgs := make([]any, 0, len(chunk)*7)

	for i, c := range chunk {
		base := i * 4
		demandPlaceholders = append(demandPlaceholders, fmt.Sprintf("($%d,$%d,$%d,$%d)", base+1, base+2, base+3, base+4))
		demandArgs = append(demandArgs, c.schoolID, c.academicYear, c.reqCR, c.reqTR)

		vbase := i * 7
		validationPlaceholders = append(validationPlaceholders, fmt.Sprintf("($%d,$%d,$%d,$%d,$%d,$%d,$%d)",
			vbase+1, vbase+2, vbase+3, vbase+4, vbase+5, vbase+6, vbase+7))
		validationArgs = append(validationArgs,
			c.schoolID, c.academicYear, Ratio(c.reqCR, c.gapCR), Ratio(c.reqTR, c.gapTR),
			string(c.verdict.Decision), string(c.verdict.Reason), c.verdict.Confidence)
	}

	demandSQL := fmt.Sprintf(`
INSERT INTO school_demand_proposals (school_id, academic_year, classrooms_requested, teachers_requested)
VALUES %s
ON CONFLICT (school_id, academic_year) DO UPDATE SET
	classrooms_requested = EXCLUDED.classrooms_requested,
	teachers_requested = EXCLUDED.teachers_requested`, strings.Join(demandPlaceholders, ","))

	if _, err := conn.Exec(ctx, demandSQL, demandArgs...); err != nil {
		return 0, fmt.Errorf("proposal_validation: writing demand proposals: %w", err)
	}

	validationSQL := fmt.Sprintf(`
INSERT INTO proposal_validations (school_id, academic_year, classroom_ratio, teacher_ratio, decision_status, reason_code, confidence_score)
VALUES %s
ON CONFLICT (school_id, academic_year) DO UPDATE SET
	classroom_ratio = EXCLUDED.classroom_ratio,
	teacher_ratio = EXCLUDED.teacher_ratio,
	decision_status = EXCLUDED.decision_status,
	reason_code = EXCLUDED.reason_code,
	confidence_score = EXCLUDED.confidence_score`, strings.Join(validationPlaceholders, ","))

	tag, err := conn.Exec(ctx, validationSQL, validationArgs...)
	if err != nil {
		return 0, fmt.Errorf("proposal_validation: writing validations: %w", err)
	}

	return tag.RowsAffected(), nil
}
