package proposal

import (
	"math"

	"github.com/unmolkumar/school-ai-bav/internal/model"
)

// Verdict is the outcome of validating one school-year's synthetic proposal.
type Verdict struct {
	Decision   model.DecisionStatus
	Reason     model.ReasonCode
	Confidence float64
}

// Validate evaluates the nine ordered rules of §4.8 against one school-year,
// returning the first matching decision.
func Validate(gapCR, gapTR, reqCR, reqTR int) Verdict {
	classroomRatio := Ratio(reqCR, gapCR)
	teacherRatio := Ratio(reqTR, gapTR)
	confidence := confidenceScore(classroomRatio, teacherRatio)

	switch {
	case gapCR == 0 && gapTR == 0 && (reqCR > 0 || reqTR > 0):
		return Verdict{model.DecisionRejected, model.ReasonNoDeficit, confidence}
	case classroomRatio > 1.50:
		return Verdict{model.DecisionRejected, model.ReasonClassroomOverRequest, confidence}
	case teacherRatio > 1.50:
		return Verdict{model.DecisionRejected, model.ReasonTeacherOverRequest, confidence}
	case classroomRatio > 1.20 && classroomRatio <= 1.50:
		return Verdict{model.DecisionFlagged, model.ReasonClassroomModerateOver, confidence}
	case teacherRatio > 1.20 && teacherRatio <= 1.50:
		return Verdict{model.DecisionFlagged, model.ReasonTeacherModerateOver, confidence}
	case classroomRatio < 0.50 && gapCR > 0:
		return Verdict{model.DecisionFlagged, model.ReasonClassroomUnderRequest, confidence}
	case teacherRatio < 0.50 && gapTR > 0:
		return Verdict{model.DecisionFlagged, model.ReasonTeacherUnderRequest, confidence}
	case reqCR == 0 && reqTR == 0 && gapCR == 0 && gapTR == 0:
		return Verdict{model.DecisionAccepted, model.ReasonNoRequest, confidence}
	default:
		return Verdict{model.DecisionAccepted, model.ReasonWithinTolerance, confidence}
	}
}

func confidenceScore(classroomRatio, teacherRatio float64) float64 {
	deviation := (math.Abs(1-classroomRatio) + math.Abs(1-teacherRatio)) / 2
	return math.Max(0, 1-deviation)
}
