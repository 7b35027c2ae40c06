// Package schema creates the twelve core tables plus quarantined_tables and
// their indexes, tolerating
// "already exists" throughout (§4.1), the same guarded-DDL idiom the teacher
// uses for its own Postgres-backed store bootstrap.
package schema

import (
	"context"
	"fmt"
	"time"

	"github.com/unmolkumar/school-ai-bav/internal/model"
	"github.com/unmolkumar/school-ai-bav/internal/store"
)

// Stage is the schema bootstrap engine. It ignores the year argument: DDL
// applies once, not per academic-year batch.
type Stage struct{}

func New() *Stage { return &Stage{} }

func (s *Stage) Name() string         { return "bootstrap" }
func (s *Stage) DependsOn() []string  { return nil }

func (s *Stage) Apply(ctx context.Context, conn store.Executor, year string) (model.BatchReport, error) {
	start := time.Now()

	for _, stmt := range statements {
		if _, err := conn.Exec(ctx, stmt); err != nil {
			return model.BatchReport{}, fmt.Errorf("schema: %w", err)
		}
	}

	return model.BatchReport{
		Stage:        s.Name(),
		AcademicYear: year,
		RowsAffected: int64(len(statements)),
		Elapsed:      time.Since(start),
	}, nil
}

// statements is the ordered list of idempotent DDL. CREATE TABLE/INDEX use
// native IF NOT EXISTS; ALTER ... ADD COLUMN likewise, so no try/except
// wrapper is needed around any of it.
var statements = []string{
	createSchools,
	createYearlyMetrics,
	createInfrastructureDetails,
	alterInfrastructureComputedColumns,
	createTeacherMetrics,
	alterTeacherComputedColumns,
	createSchoolPriorityIndex,
	createBudgetSimulation,
	createRiskTrend,
	createDistrictComplianceIndex,
	createSchoolDemandProposals,
	createProposalValidations,
	createSchoolEnrolmentForecast,
	createMLEnrolmentForecast,
	createQuarantinedTables,

	idxYearlyMetricsSchoolYear,
	idxInfraSchoolYear,
	idxInfraRiskLevel,
	idxTeacherSchoolYear,
	idxPriorityBucket,
	idxPriorityRiskRank,
	idxBudgetAllocationStatus,
	idxTrendDirection,
	idxValidationDecisionStatus,
	idxDistrictComplianceGrade,
}

const createSchools = `
CREATE TABLE IF NOT EXISTS schools (
	school_id       VARCHAR(50) PRIMARY KEY,
	school_name     VARCHAR(255),
	district        VARCHAR(100) NOT NULL,
	block           VARCHAR(100),
	management_type VARCHAR(100),
	school_category SMALLINT NOT NULL CHECK (school_category BETWEEN 1 AND 11),
	latitude        DOUBLE PRECISION,
	longitude       DOUBLE PRECISION
)`

const createYearlyMetrics = `
CREATE TABLE IF NOT EXISTS yearly_metrics (
	id              BIGSERIAL PRIMARY KEY,
	school_id       VARCHAR(50) NOT NULL REFERENCES schools(school_id),
	academic_year   VARCHAR(20) NOT NULL,
	total_enrolment INT NOT NULL DEFAULT 0,
	attendance_rate DOUBLE PRECISION,
	UNIQUE (school_id, academic_year)
)`

const createInfrastructureDetails = `
CREATE TABLE IF NOT EXISTS infrastructure_details (
	id                        BIGSERIAL PRIMARY KEY,
	school_id                 VARCHAR(50) NOT NULL REFERENCES schools(school_id),
	academic_year             VARCHAR(20) NOT NULL,
	total_class_rooms         INT,
	usable_class_rooms        INT,
	classroom_condition_score INT,
	has_drinking_water        BOOLEAN,
	has_electricity           BOOLEAN,
	has_internet              BOOLEAN,
	has_girls_toilet          BOOLEAN,
	has_cwsn_toilet           BOOLEAN,
	has_ramp                  BOOLEAN,
	has_resource_room         BOOLEAN,
	building_condition        VARCHAR(50),
	last_major_repair_year    SMALLINT,
	UNIQUE (school_id, academic_year)
)`

// alterInfrastructureComputedColumns adds the columns the infra gap engine
// owns. ADD COLUMN IF NOT EXISTS makes this safe to run alongside
// createInfrastructureDetails on a pre-existing table from an earlier
// bootstrap run.
const alterInfrastructureComputedColumns = `
ALTER TABLE infrastructure_details
	ADD COLUMN IF NOT EXISTS required_class_rooms INT,
	ADD COLUMN IF NOT EXISTS classroom_gap        INT`

const createTeacherMetrics = `
CREATE TABLE IF NOT EXISTS teacher_metrics (
	id             BIGSERIAL PRIMARY KEY,
	school_id      VARCHAR(50) NOT NULL REFERENCES schools(school_id),
	academic_year  VARCHAR(20) NOT NULL,
	total_teachers INT,
	UNIQUE (school_id, academic_year)
)`

const alterTeacherComputedColumns = `
ALTER TABLE teacher_metrics
	ADD COLUMN IF NOT EXISTS required_teachers INT,
	ADD COLUMN IF NOT EXISTS teacher_gap       INT`

const createSchoolPriorityIndex = `
CREATE TABLE IF NOT EXISTS school_priority_index (
	school_id               VARCHAR(50) NOT NULL,
	academic_year           VARCHAR(20) NOT NULL,
	teacher_deficit_ratio   DOUBLE PRECISION,
	classroom_deficit_ratio DOUBLE PRECISION,
	enrolment_growth_rate   DOUBLE PRECISION,
	risk_score              DOUBLE PRECISION,
	risk_level              VARCHAR(20) CHECK (risk_level IN ('LOW','MODERATE','HIGH','CRITICAL')),
	risk_rank               INT,
	district_rank           INT,
	percentile              DOUBLE PRECISION,
	priority_bucket         VARCHAR(20) CHECK (priority_bucket IN ('TOP_5','TOP_10','TOP_20','STANDARD')),
	persistent_high_risk    BOOLEAN NOT NULL DEFAULT FALSE,
	PRIMARY KEY (school_id, academic_year)
)`

const createBudgetSimulation = `
CREATE TABLE IF NOT EXISTS budget_simulation (
	school_id            VARCHAR(50) NOT NULL,
	academic_year        VARCHAR(20) NOT NULL,
	classrooms_allocated INT NOT NULL DEFAULT 0,
	teachers_allocated   INT NOT NULL DEFAULT 0,
	estimated_cost       DOUBLE PRECISION NOT NULL DEFAULT 0,
	cumulative_cost      DOUBLE PRECISION NOT NULL DEFAULT 0,
	allocation_status    VARCHAR(20) CHECK (allocation_status IN ('FUNDED','PARTIALLY_FUNDED','UNFUNDED')),
	PRIMARY KEY (school_id, academic_year)
)`

const createRiskTrend = `
CREATE TABLE IF NOT EXISTS risk_trend (
	school_id             VARCHAR(50) NOT NULL,
	academic_year         VARCHAR(20) NOT NULL,
	prev_risk_score        DOUBLE PRECISION,
	risk_delta             DOUBLE PRECISION,
	trend_direction        VARCHAR(20) CHECK (trend_direction IN ('BASELINE','IMPROVING','STABLE','DETERIORATING')),
	is_chronic             BOOLEAN NOT NULL DEFAULT FALSE,
	is_volatile            BOOLEAN NOT NULL DEFAULT FALSE,
	cumulative_avg_risk    DOUBLE PRECISION,
	year_over_year_count   INT NOT NULL DEFAULT 0,
	PRIMARY KEY (school_id, academic_year)
)`

const createDistrictComplianceIndex = `
CREATE TABLE IF NOT EXISTS district_compliance_index (
	district          VARCHAR(100) NOT NULL,
	academic_year     VARCHAR(20) NOT NULL,
	total_schools     INT NOT NULL,
	avg_risk_score    DOUBLE PRECISION,
	pct_critical      DOUBLE PRECISION,
	pct_high          DOUBLE PRECISION,
	pct_moderate      DOUBLE PRECISION,
	pct_low           DOUBLE PRECISION,
	compliance_grade  VARCHAR(1) CHECK (compliance_grade IN ('A','B','C','D','F')),
	yoy_risk_change   DOUBLE PRECISION,
	state_rank        INT,
	PRIMARY KEY (district, academic_year)
)`

const createSchoolDemandProposals = `
CREATE TABLE IF NOT EXISTS school_demand_proposals (
	school_id            VARCHAR(50) NOT NULL,
	academic_year        VARCHAR(20) NOT NULL,
	classrooms_requested INT NOT NULL DEFAULT 0,
	teachers_requested   INT NOT NULL DEFAULT 0,
	PRIMARY KEY (school_id, academic_year)
)`

const createProposalValidations = `
CREATE TABLE IF NOT EXISTS proposal_validations (
	school_id        VARCHAR(50) NOT NULL,
	academic_year    VARCHAR(20) NOT NULL,
	classroom_ratio  DOUBLE PRECISION,
	teacher_ratio    DOUBLE PRECISION,
	decision_status  VARCHAR(20) CHECK (decision_status IN ('ACCEPTED','FLAGGED','REJECTED')),
	reason_code      VARCHAR(40),
	confidence_score DOUBLE PRECISION,
	PRIMARY KEY (school_id, academic_year)
)`

const createSchoolEnrolmentForecast = `
CREATE TABLE IF NOT EXISTS school_enrolment_forecast (
	school_id                VARCHAR(50) NOT NULL,
	base_year                VARCHAR(20) NOT NULL,
	years_ahead              SMALLINT NOT NULL CHECK (years_ahead BETWEEN 1 AND 3),
	base_enrolment           INT,
	growth_rate_used         DOUBLE PRECISION,
	projected_enrolment      INT,
	projected_classrooms_req INT,
	projected_teachers_req   INT,
	projected_classroom_gap  INT,
	projected_teacher_gap    INT,
	PRIMARY KEY (school_id, base_year, years_ahead)
)`

const createMLEnrolmentForecast = `
CREATE TABLE IF NOT EXISTS ml_enrolment_forecast (
	school_id                VARCHAR(50) NOT NULL,
	base_year                VARCHAR(20) NOT NULL,
	years_ahead              SMALLINT NOT NULL CHECK (years_ahead BETWEEN 1 AND 3),
	model_version            VARCHAR(40) NOT NULL,
	base_enrolment           INT,
	growth_rate_used         DOUBLE PRECISION,
	projected_enrolment      INT,
	projected_classrooms_req INT,
	projected_teachers_req   INT,
	projected_classroom_gap  INT,
	projected_teacher_gap    INT,
	PRIMARY KEY (school_id, base_year, years_ahead)
)`

// createQuarantinedTables creates the quarantine bookkeeping table. Only the
// table is created here: neither the driver nor any stage writes rows to it,
// and no post-write invariant check exists that would mark a table.
const createQuarantinedTables = `
CREATE TABLE IF NOT EXISTS quarantined_tables (
	table_name    VARCHAR(100) NOT NULL,
	academic_year VARCHAR(20) NOT NULL,
	reason        TEXT NOT NULL,
	quarantined_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (table_name, academic_year)
)`

const idxYearlyMetricsSchoolYear = `CREATE INDEX IF NOT EXISTS idx_yearly_metrics_school_year ON yearly_metrics (school_id, academic_year)`
const idxInfraSchoolYear = `CREATE INDEX IF NOT EXISTS idx_infra_school_year ON infrastructure_details (school_id, academic_year)`
const idxInfraRiskLevel = `CREATE INDEX IF NOT EXISTS idx_priority_risk_level ON school_priority_index (academic_year, risk_level)`
const idxTeacherSchoolYear = `CREATE INDEX IF NOT EXISTS idx_teacher_school_year ON teacher_metrics (school_id, academic_year)`
const idxPriorityBucket = `CREATE INDEX IF NOT EXISTS idx_priority_bucket ON school_priority_index (academic_year, priority_bucket)`
const idxPriorityRiskRank = `CREATE INDEX IF NOT EXISTS idx_priority_risk_rank ON school_priority_index (academic_year, risk_rank)`
const idxBudgetAllocationStatus = `CREATE INDEX IF NOT EXISTS idx_budget_allocation_status ON budget_simulation (academic_year, allocation_status)`
const idxTrendDirection = `CREATE INDEX IF NOT EXISTS idx_trend_direction ON risk_trend (academic_year, trend_direction)`
const idxValidationDecisionStatus = `CREATE INDEX IF NOT EXISTS idx_validation_decision_status ON proposal_validations (academic_year, decision_status)`
const idxDistrictComplianceGrade = `CREATE INDEX IF NOT EXISTS idx_district_compliance_grade ON district_compliance_index (academic_year, compliance_grade)`
