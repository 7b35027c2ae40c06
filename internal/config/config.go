// Package config loads pipeline configuration from environment variables
// with an optional YAML override file, following the plain env-var idiom
// this codebase uses elsewhere rather than a heavier framework.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// RiskWeights are the fixed composite risk_score weights (§4.4). They sum to
// 1.0 by construction and are not environment-overridable: the weighting is
// a policy contract, not a deployment knob.
type RiskWeights struct {
	Teacher   float64
	Classroom float64
	Growth    float64
}

// RiskBands are the CRITICAL/HIGH/MODERATE score thresholds (§4.4).
type RiskBands struct {
	Critical float64
	High     float64
	Moderate float64
}

// PriorityBuckets are the percentile cut points (§4.5).
type PriorityBuckets struct {
	Top5  float64
	Top10 float64
	Top20 float64
}

// ComplianceGradeCuts are the district A/B/C/D/F ascending cut points (§4.7/§6).
type ComplianceGradeCuts struct {
	A, B, C, D float64
}

// Budget holds the budget allocation simulator's monetary parameters (§4.6).
// Unlike the policy tables above, these are legitimate deployment knobs and
// are environment-overridable.
type Budget struct {
	TotalClassroomBudget float64 `yaml:"total_classroom_budget"`
	CostPerClassroom     float64 `yaml:"cost_per_classroom"`
	MaxTeachers          int     `yaml:"max_teachers"`
}

// MaxClassrooms derives the classroom allocation cap from the budget.
func (b Budget) MaxClassrooms() int {
	if b.CostPerClassroom <= 0 {
		return 0
	}
	return int(b.TotalClassroomBudget / b.CostPerClassroom)
}

// Config is the fully resolved pipeline configuration.
type Config struct {
	DatabaseURL  string        `yaml:"database_url"`
	LogLevel     string        `yaml:"log_level"`
	BatchTimeout time.Duration `yaml:"batch_timeout"`
	Budget       Budget        `yaml:"budget"`

	RiskWeights         RiskWeights
	RiskBands           RiskBands
	GrowthCapRisk       float64
	TrendBand           float64
	VolatileThreshold   float64
	PriorityBuckets     PriorityBuckets
	ProposalNoiseFloor  float64
	ProposalNoiseSpan   int // modulus applied to the CRC32 checksum
	ForecastGrowthCap   float64
	ComplianceGradeCuts ComplianceGradeCuts
	MLSeed              int64
}

// fileOverlay is the subset of Config that a --config YAML file may override.
// Only deployment knobs are overridable; policy tables/thresholds are fixed
// in Go source (see internal/norms and Default below) so that a
// re-implementation cannot silently drift from the audited policy contract.
type fileOverlay struct {
	DatabaseURL  string `yaml:"database_url"`
	LogLevel     string `yaml:"log_level"`
	BatchTimeout string `yaml:"batch_timeout"`
	Budget       Budget `yaml:"budget"`
}

// Default returns the configuration with every value at its spec-fixed
// default, before environment/file overlays are applied.
func Default() Config {
	return Config{
		LogLevel:     "info",
		BatchTimeout: 120 * time.Second,
		Budget: Budget{
			TotalClassroomBudget: 5e8,
			CostPerClassroom:     5e5,
			MaxTeachers:          10000,
		},
		RiskWeights:        RiskWeights{Teacher: 0.45, Classroom: 0.35, Growth: 0.20},
		RiskBands:          RiskBands{Critical: 0.60, High: 0.40, Moderate: 0.20},
		GrowthCapRisk:      0.50,
		TrendBand:          0.05,
		VolatileThreshold:  0.15,
		PriorityBuckets:    PriorityBuckets{Top5: 0.05, Top10: 0.10, Top20: 0.20},
		ProposalNoiseFloor: 0.70,
		ProposalNoiseSpan:  80, // (CRC32 mod 80)/100 + 0.70 => [0.70, 1.49]
		ForecastGrowthCap:  0.30,
		ComplianceGradeCuts: ComplianceGradeCuts{
			A: 0.15, B: 0.30, C: 0.50, D: 0.70,
		},
		MLSeed: 42,
	}
}

// Load resolves configuration from spec-fixed defaults, then environment
// variables, then an optional YAML file (highest precedence), matching the
// CLI's `--config path` flag.
func Load(configPath string) (Config, error) {
	cfg := Default()

	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("PIPELINE_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("PIPELINE_BATCH_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid PIPELINE_BATCH_TIMEOUT %q: %w", v, err)
		}
		cfg.BatchTimeout = d
	}
	if v := os.Getenv("BUDGET_TOTAL_CLASSROOM"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return Config{}, fmt.Errorf("invalid BUDGET_TOTAL_CLASSROOM %q: %w", v, err)
		}
		cfg.Budget.TotalClassroomBudget = f
	}
	if v := os.Getenv("BUDGET_COST_PER_CLASSROOM"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return Config{}, fmt.Errorf("invalid BUDGET_COST_PER_CLASSROOM %q: %w", v, err)
		}
		cfg.Budget.CostPerClassroom = f
	}
	if v := os.Getenv("BUDGET_MAX_TEACHERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid BUDGET_MAX_TEACHERS %q: %w", v, err)
		}
		cfg.Budget.MaxTeachers = n
	}

	if configPath != "" {
		if err := applyFile(&cfg, configPath); err != nil {
			return Config{}, err
		}
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("config: DATABASE_URL is required")
	}

	return cfg, nil
}

func applyFile(cfg *Config, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: failed to read %s: %w", path, err)
	}

	var overlay fileOverlay
	if err := yaml.Unmarshal(raw, &overlay); err != nil {
		return fmt.Errorf("config: failed to parse %s: %w", path, err)
	}

	if overlay.DatabaseURL != "" {
		cfg.DatabaseURL = overlay.DatabaseURL
	}
	if overlay.LogLevel != "" {
		cfg.LogLevel = overlay.LogLevel
	}
	if overlay.BatchTimeout != "" {
		d, err := time.ParseDuration(overlay.BatchTimeout)
		if err != nil {
			return fmt.Errorf("config: invalid batch_timeout %q in %s: %w", overlay.BatchTimeout, path, err)
		}
		cfg.BatchTimeout = d
	}
	if overlay.Budget.TotalClassroomBudget != 0 {
		cfg.Budget.TotalClassroomBudget = overlay.Budget.TotalClassroomBudget
	}
	if overlay.Budget.CostPerClassroom != 0 {
		cfg.Budget.CostPerClassroom = overlay.Budget.CostPerClassroom
	}
	if overlay.Budget.MaxTeachers != 0 {
		cfg.Budget.MaxTeachers = overlay.Budget.MaxTeachers
	}

	return nil
}
