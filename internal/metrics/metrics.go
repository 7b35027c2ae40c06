// Package metrics exposes the pipeline's Prometheus instrumentation,
// grounded on the device health oracle's metrics package: a build-info
// gauge plus per-stage counters/histograms, registered against the default
// registry and served over HTTP for the run command's --metrics-addr flag.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	MetricNameBuildInfo    = "school_ai_bav_build_info"
	MetricNameStageRuns    = "school_ai_bav_stage_runs_total"
	MetricNameStageRows    = "school_ai_bav_stage_rows_affected_total"
	MetricNameStageErrors  = "school_ai_bav_stage_errors_total"
	MetricNameStageSeconds = "school_ai_bav_stage_duration_seconds"

	LabelStage       = "stage"
	LabelYear        = "academic_year"
	LabelErrorKind   = "error_kind"
	LabelModelVersion = "model_version"
)

var (
	BuildInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: MetricNameBuildInfo,
			Help: "Static info about the running pipeline build, value is always 1",
		},
		[]string{LabelModelVersion},
	)

	StageRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameStageRuns,
			Help: "Number of (stage, year) batches applied successfully",
		},
		[]string{LabelStage, LabelYear},
	)

	StageRows = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameStageRows,
			Help: "Rows affected by each (stage, year) batch",
		},
		[]string{LabelStage, LabelYear},
	)

	StageErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameStageErrors,
			Help: "Number of (stage, year) batches that failed, by error kind",
		},
		[]string{LabelStage, LabelErrorKind},
	)

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    MetricNameStageSeconds,
			Help:    "Wall-clock duration of each (stage, year) batch",
			Buckets: prometheus.DefBuckets,
		},
		[]string{LabelStage},
	)
)
