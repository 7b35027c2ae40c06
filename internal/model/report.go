package model

import "time"

// BatchReport is the structured result of one Stage.Apply call.
type BatchReport struct {
	Stage        string
	AcademicYear string
	RowsAffected int64
	Elapsed      time.Duration
}
