package forecastml

import (
	"math"
	"testing"
)

func TestBuildSamplesSkipsFirstYearForLackOfLag(t *testing.T) {
	rows := []panelRow{
		{schoolID: "S1", academicYear: "2020-21", enrolment: 100, district: "D1"},
		{schoolID: "S1", academicYear: "2021-22", enrolment: 110, district: "D1"},
	}
	samples := buildSamples(rows, labelEncode([]string{"D1"}), labelEncode([]string{""}))
	if len(samples) != 1 {
		t.Fatalf("got %d samples, want 1 (first year has no lag)", len(samples))
	}
	if samples[0].academicYear != "2021-22" {
		t.Errorf("sample academic year = %s, want 2021-22", samples[0].academicYear)
	}
}

func TestBuildSamplesLastYearHasNoTarget(t *testing.T) {
	rows := []panelRow{
		{schoolID: "S1", academicYear: "2020-21", enrolment: 100, district: "D1"},
		{schoolID: "S1", academicYear: "2021-22", enrolment: 110, district: "D1"},
		{schoolID: "S1", academicYear: "2022-23", enrolment: 121, district: "D1"},
	}
	samples := buildSamples(rows, labelEncode([]string{"D1"}), labelEncode([]string{""}))
	if len(samples) != 2 {
		t.Fatalf("got %d samples, want 2", len(samples))
	}
	if samples[len(samples)-1].hasTarget {
		t.Error("the final year's sample should carry no target (it is the projection base)")
	}
	if !samples[0].hasTarget {
		t.Error("expected the earlier sample to have a target")
	}
}

func TestGrowthFeatureMatchesClosedForm(t *testing.T) {
	rows := []panelRow{
		{schoolID: "S1", academicYear: "2020-21", enrolment: 100, district: "D1"},
		{schoolID: "S1", academicYear: "2021-22", enrolment: 110, district: "D1"},
	}
	samples := buildSamples(rows, labelEncode([]string{"D1"}), labelEncode([]string{""}))
	got := samples[0].features[3] // current growth rate
	want := 0.10
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("growth feature = %v, want %v", got, want)
	}
}

func TestRollingStatsCappedAt500(t *testing.T) {
	rows := []panelRow{
		{schoolID: "S1", academicYear: "2020-21", enrolment: 100},
		{schoolID: "S1", academicYear: "2021-22", enrolment: 100000},
		{schoolID: "S1", academicYear: "2022-23", enrolment: 100},
	}
	_, std := rollingStats(rows, 2)
	if std != 500 {
		t.Errorf("std = %v, want capped at 500", std)
	}
}

func TestLabelEncodeIsStableAndDense(t *testing.T) {
	enc := labelEncode([]string{"b", "a", "b", "c", "a"})
	if len(enc) != 3 {
		t.Fatalf("got %d labels, want 3 distinct", len(enc))
	}
	if enc["a"] != 0 || enc["b"] != 1 || enc["c"] != 2 {
		t.Errorf("encoding = %v, want sorted dense codes", enc)
	}
}

func TestClipRespectsBounds(t *testing.T) {
	if got := clip(10, 0.3); got != 0.3 {
		t.Errorf("clip(10, 0.3) = %v, want 0.3", got)
	}
	if got := clip(-10, 0.3); got != -0.3 {
		t.Errorf("clip(-10, 0.3) = %v, want -0.3", got)
	}
	if got := clip(0.1, 0.3); got != 0.1 {
		t.Errorf("clip(0.1, 0.3) = %v, want 0.1", got)
	}
}
