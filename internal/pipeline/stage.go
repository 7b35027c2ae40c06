// Package pipeline models the eleven engines as nodes of a DAG and drives
// them in dependency order, replacing the ad-hoc imperative run-scripts this
// was distilled from (§9 "Pipeline orchestration").
package pipeline

import (
	"context"

	"github.com/unmolkumar/school-ai-bav/internal/model"
	"github.com/unmolkumar/school-ai-bav/internal/store"
)

// Stage is the narrow interface every engine implements: apply one
// academic-year batch and report what happened. Implementations own their
// SQL as parameterised templates rather than dispatching through an ORM.
type Stage interface {
	Name() string
	DependsOn() []string
	Apply(ctx context.Context, conn store.Executor, year string) (model.BatchReport, error)
}

// StageErrorKind classifies a failure for CLI exit-code and log-level
// decisions (§7 error taxonomy).
type StageErrorKind int

const (
	KindConfiguration StageErrorKind = iota
	KindDataShape
	KindTransient
	KindInvariant
)

func (k StageErrorKind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindDataShape:
		return "data_shape"
	case KindTransient:
		return "transient"
	case KindInvariant:
		return "invariant"
	default:
		return "unknown"
	}
}

// StageError wraps a stage failure with the (stage, academic_year) identity
// the error-handling design requires every surfaced error to carry.
type StageError struct {
	Stage        string
	AcademicYear string
	Kind         StageErrorKind
	Err          error
}

func (e *StageError) Error() string {
	return e.Stage + " [" + e.AcademicYear + "]: " + e.Err.Error()
}

func (e *StageError) Unwrap() error { return e.Err }
