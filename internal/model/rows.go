package model

// School is the dimension row ingested externally; the core pipeline never
// mutates it.
type School struct {
	SchoolID       string
	SchoolName     string
	District       string
	Block          string
	ManagementType string
	Category       int
}

// PriorityRow is one (school_id, academic_year) output of the prioritisation stage.
type PriorityRow struct {
	SchoolID           string
	AcademicYear       string
	RiskScore          float64
	RiskRank           int
	DistrictRank       int
	Percentile         float64
	PriorityBucket     PriorityBucket
	PersistentHighRisk bool
}

// BudgetRow is one (school_id, academic_year) output of the budget simulator.
type BudgetRow struct {
	SchoolID            string
	AcademicYear        string
	ClassroomsAllocated int
	TeachersAllocated   int
	EstimatedCost       float64
	CumulativeCost      float64
	AllocationStatus    AllocationStatus
}

// TrendRow is one (school_id, academic_year) output of the risk trend engine.
type TrendRow struct {
	SchoolID          string
	AcademicYear      string
	PrevRiskScore     *float64
	RiskDelta         *float64
	TrendDirection    TrendDirection
	IsChronic         bool
	IsVolatile        bool
	CumulativeAvgRisk float64
	YearOverYearCount int
}

// DistrictComplianceRow is one (district, academic_year) output.
type DistrictComplianceRow struct {
	District       string
	AcademicYear   string
	TotalSchools   int
	AvgRiskScore   float64
	PctCritical    float64
	PctHigh        float64
	PctModerate    float64
	PctLow         float64
	ComplianceGrade ComplianceGrade
	YoYRiskChange  *float64
	StateRank      int
}

// ProposalRow is a synthetic demand proposal generated deterministically.
type ProposalRow struct {
	SchoolID           string
	AcademicYear       string
	ClassroomsRequested int
	TeachersRequested   int
}

// ValidationRow is the rule-based validation outcome for one ProposalRow.
type ValidationRow struct {
	SchoolID        string
	AcademicYear    string
	ClassroomRatio  float64
	TeacherRatio    float64
	DecisionStatus  DecisionStatus
	ReasonCode      ReasonCode
	ConfidenceScore float64
}

// ForecastRow is one (school_id, base_year, years_ahead, model_kind) projection.
type ForecastRow struct {
	SchoolID                string
	BaseYear                string
	YearsAhead              int
	ModelKind               ModelKind
	ModelVersion            string
	BaseEnrolment           int
	GrowthRateUsed          float64
	ProjectedEnrolment      int
	ProjectedClassroomsReq  int
	ProjectedTeachersReq    int
	ProjectedClassroomGap   int
	ProjectedTeacherGap     int
}
