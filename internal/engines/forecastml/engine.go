// Package forecastml is the machine-learned sibling of the weighted moving
// average forecast (§4.10): a gradient-boosted regression model trained
// from scratch on every invocation over the full multi-year panel, whose
// prediction for each school's growth rate is then compounded and
// translated into classroom/teacher requirement gaps exactly as the
// closed-form forecast does.
package forecastml

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/unmolkumar/school-ai-bav/internal/config"
	"github.com/unmolkumar/school-ai-bav/internal/engines/forecastwma"
	"github.com/unmolkumar/school-ai-bav/internal/ml/gbm"
	"github.com/unmolkumar/school-ai-bav/internal/model"
	"github.com/unmolkumar/school-ai-bav/internal/norms"
	"github.com/unmolkumar/school-ai-bav/internal/store"
)

const chunkSize = 500

// Engine trains and applies the gradient-boosted growth model. ModelVersion
// is supplied by the caller (the CLI stamps it with the run's start time)
// rather than computed internally, per §4.10's artefact note. Seed fixes
// both the row-subsampling PRNG and the train/validation carve-out so a
// re-run with the same panel and seed reproduces the same model.
type Engine struct {
	Log          *slog.Logger
	Cfg          config.Config
	ModelVersion string
	Seed         int64
}

func New(log *slog.Logger, cfg config.Config, modelVersion string, seed int64) *Engine {
	return &Engine{Log: log, Cfg: cfg, ModelVersion: modelVersion, Seed: seed}
}

func (e *Engine) Name() string        { return "forecast_ml" }
func (e *Engine) DependsOn() []string { return []string{"compliance_risk"} }

func (e *Engine) Apply(ctx context.Context, conn store.Executor, year string) (model.BatchReport, error) {
	start := time.Now()

	panel, err := e.loadPanel(ctx, conn)
	if err != nil {
		return model.BatchReport{}, fmt.Errorf("forecast_ml: %w", err)
	}

	bySchool, districtLabel, managementLabel := groupPanel(panel)
	samples := map[string][]sample{}
	skippedNoHistory := 0
	for schoolID, rows := range bySchool {
		built := buildSamples(rows, districtLabel, managementLabel)
		samples[schoolID] = built
		if len(built) == 0 {
			// A school with a single panel row (first year observed) has no
			// prior year to compute lag1 from, so it never yields a sample
			// and gets no ml_enrolment_forecast row this run, unlike the WMA
			// forecast, which writes a zero-growth row for such a school.
			skippedNoHistory++
		}
	}
	if skippedNoHistory > 0 && e.Log != nil {
		e.Log.Info("forecast_ml skipping schools with no prior-year history",
			"schools_skipped", skippedNoHistory, "year", year)
	}

	split := splitSamples(samples, e.Seed)
	if len(split.trainX) == 0 {
		// Not enough history yet (e.g. first year of ingestion) to fit a
		// model; skip silently, matching §4.9's "missing inputs, not
		// errors" convention for engines with sparse early-year data.
		return model.BatchReport{Stage: e.Name(), AcademicYear: year, Elapsed: time.Since(start)}, nil
	}

	params := gbm.DefaultParams(e.Seed)
	trained := gbm.Train(split.trainX, split.trainY, split.valX, split.valY, params)

	e.logTrainingSummary(trained, split, params)

	projectionRows := e.project(trained, split, year)

	if _, err := conn.Exec(ctx, `DELETE FROM ml_enrolment_forecast WHERE base_year = $1`, year); err != nil {
		return model.BatchReport{}, fmt.Errorf("forecast_ml: clearing prior projections: %w", err)
	}

	var affected int64
	for i := 0; i < len(projectionRows); i += chunkSize {
		end := min(i+chunkSize, len(projectionRows))
		n, err := e.writeChunk(ctx, conn, projectionRows[i:end])
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

// projectedRow is one school's compounded ML projection for one horizon,
// ready to be written to ml_enrolment_forecast.
type projectedRow struct {
	schoolID      string
	baseYear      string
	yearsAhead    int
	baseEnrolment int
	growthUsed    float64
	projEnrolment int
	classroomsReq int
	teachersReq   int
	classroomGap  int
	teacherGap    int
}

func (e *Engine) project(trained *gbm.Model, split splitResult, baseYear string) []projectedRow {
	if len(split.projection) == 0 {
		return nil
	}

	trainMean := mean(split.trainY)

	raw := make([]float64, len(split.projection))
	for i, s := range split.projection {
		raw[i] = trained.Predict(s.features)
	}
	shift := trainMean - mean(raw)

	var rows []projectedRow
	for i, s := range split.projection {
		if s.academicYear != baseYear {
			continue
		}
		g := clip(raw[i]+shift, growthCapML)

		for k := 1; k <= 3; k++ {
			projected := forecastwma.Project(s.enrolment, g, k)
			category := int(s.features[5])

			classroomNorm, _ := norms.ClassroomNorm(category)
			ptrNorm, _ := norms.PTRNorm(category)
			classroomsReq := norms.RequiredCount(projected, classroomNorm)
			teachersReq := norms.RequiredCount(projected, ptrNorm)

			currentClassrooms := int(s.features[8]) // usable_classrooms
			currentTeachers := int(s.features[6])   // total_teachers

			rows = append(rows, projectedRow{
				schoolID:      s.schoolID,
				baseYear:      s.academicYear,
				yearsAhead:    k,
				baseEnrolment: s.enrolment,
				growthUsed:    g,
				projEnrolment: projected,
				classroomsReq: classroomsReq,
				teachersReq:   teachersReq,
				classroomGap:  norms.Gap(classroomsReq, currentClassrooms),
				teacherGap:    norms.Gap(teachersReq, currentTeachers),
			})
		}
	}

	return rows
}

func mean(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range v {
		sum += x
	}
	return sum / float64(len(v))
}

func (e *Engine) logTrainingSummary(trained *gbm.Model, split splitResult, p gbm.Params) {
	if e.Log == nil {
		return
	}

	var testActual, testPred, testBaseline []float64
	for _, s := range split.test {
		testActual = append(testActual, *s.target)
		testPred = append(testPred, trained.Predict(s.features))
		testBaseline = append(testBaseline, s.wmaBaseline)
	}
	m := computeMetrics(testActual, testPred, testBaseline)
	importances := trained.FeatureImportances(numFeatures)

	e.Log.Info("forecast_ml training summary",
		"trees_fit", len(trained.Trees),
		"trees_budget", p.NumTrees,
		"train_rows", len(split.trainX),
		"val_rows", len(split.valX),
		"test_rows", len(split.test),
		"r2", m.r2,
		"mae", m.mae,
		"mape", m.mape,
		"baseline_r2", m.baselineR2,
		"baseline_mae", m.baselineMAE,
		"top_features", strings.Join(topFeatures(importances, 5), ","),
	)
}

func (e *Engine) writeChunk(ctx context.Context, conn store.Executor, chunk []projectedRow) (int64, error) {
	if len(chunk) == 0 {
		return 0, nil
	}

	placeholders := make([]string, 0, len(chunk))
	args := make([]any, 0, len(chunk)*11)
	for i, r := range chunk {
		base := i * 11
		placeholders = append(placeholders, fmt.Sprintf(
			"($%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8, base+9, base+10, base+11))
		args = append(args,
			r.schoolID, r.baseYear, r.yearsAhead, e.ModelVersion,
			r.baseEnrolment, r.growthUsed, r.projEnrolment,
			r.classroomsReq, r.teachersReq, r.classroomGap, r.teacherGap)
	}

	sql := fmt.Sprintf(`
INSERT INTO ml_enrolment_forecast (
	school_id, base_year, years_ahead, model_version,
	base_enrolment, growth_rate_used, projected_enrolment,
	projected_classrooms_req, projected_teachers_req,
	projected_classroom_gap, projected_teacher_gap
) VALUES %s
ON CONFLICT (school_id, base_year, years_ahead) DO UPDATE SET
	model_version            = EXCLUDED.model_version,
	base_enrolment           = EXCLUDED.base_enrolment,
	growth_rate_used         = EXCLUDED.growth_rate_used,
	projected_enrolment      = EXCLUDED.projected_enrolment,
	projected_classrooms_req = EXCLUDED.projected_classrooms_req,
	projected_teachers_req   = EXCLUDED.projected_teachers_req,
	projected_classroom_gap  = EXCLUDED.projected_classroom_gap,
	projected_teacher_gap    = EXCLUDED.projected_teacher_gap`,
		strings.Join(placeholders, ","))

	tag, err := conn.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("forecast_ml: writing projections: %w", err)
	}
	return tag.RowsAffected(), nil
}
