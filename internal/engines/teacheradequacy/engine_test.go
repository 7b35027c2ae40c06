package teacheradequacy

import (
	"testing"

	"github.com/unmolkumar/school-ai-bav/internal/norms"
)

func TestScenarioS1PTR(t *testing.T) {
	ptr, known := norms.PTRNorm(1)
	if !known || ptr != 30 {
		t.Fatalf("category 1 PTR = %d, want 30", ptr)
	}
	required := norms.RequiredCount(120, ptr)
	if required != 4 {
		t.Fatalf("required_teachers = %d, want 4", required)
	}
	if gap := norms.Gap(required, 3); gap != 1 {
		t.Fatalf("teacher_gap = %d, want 1", gap)
	}
}

func TestScenarioS2PTR(t *testing.T) {
	ptr, known := norms.PTRNorm(8)
	if !known || ptr != 35 {
		t.Fatalf("category 8 PTR = %d, want 35", ptr)
	}
	required := norms.RequiredCount(400, ptr)
	if required != 12 {
		t.Fatalf("required_teachers = %d, want 12", required)
	}
	if gap := norms.Gap(required, 9); gap != 3 {
		t.Fatalf("teacher_gap = %d, want 3", gap)
	}
}

func TestUnknownCategoryFallsBackToPermissivePTR(t *testing.T) {
	ptr, known := norms.PTRNorm(99)
	if known {
		t.Fatal("category 99 should not be recognized")
	}
	if ptr != defaultPTR {
		t.Errorf("fallback PTR = %d, want %d", ptr, defaultPTR)
	}
}
