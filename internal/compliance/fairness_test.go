package compliance

import (
	"errors"
	"math"
	"testing"
)

func batch(group string, predicted, actual bool, n int) []Prediction {
	out := make([]Prediction, n)
	for i := range out {
		out[i] = Prediction{Group: group, Predicted: predicted, Actual: actual}
	}
	return out
}

func TestAssessFairnessEmptyBatch(t *testing.T) {
	if _, err := AssessFairness(nil); !errors.Is(err, ErrNoPredictions) {
		t.Fatalf("expected ErrNoPredictions, got %v", err)
	}
}

func TestPerfectParityScoresOne(t *testing.T) {
	var preds []Prediction
	for _, g := range []string{"a", "b"} {
		preds = append(preds, batch(g, true, true, 5)...)
		preds = append(preds, batch(g, false, false, 5)...)
	}

	report, err := AssessFairness(preds)
	if err != nil {
		t.Fatalf("assess: %v", err)
	}
	if report.DemographicParityRatio != 1 {
		t.Fatalf("parity = %v for identical groups, want 1", report.DemographicParityRatio)
	}
	if report.EqualizedOddsRatio != 1 {
		t.Fatalf("odds = %v for identical groups, want 1", report.EqualizedOddsRatio)
	}
}

func TestDemographicParityRatio(t *testing.T) {
	// Group a: 8/10 positive predictions; group b: 4/10.
	var preds []Prediction
	preds = append(preds, batch("a", true, true, 8)...)
	preds = append(preds, batch("a", false, false, 2)...)
	preds = append(preds, batch("b", true, true, 4)...)
	preds = append(preds, batch("b", false, false, 6)...)

	report, err := AssessFairness(preds)
	if err != nil {
		t.Fatalf("assess: %v", err)
	}
	if math.Abs(report.DemographicParityRatio-0.5) > 1e-12 {
		t.Fatalf("parity = %v, want 0.4/0.8 = 0.5", report.DemographicParityRatio)
	}
}

func TestEqualizedOddsTakesWorseOfTPRAndFPR(t *testing.T) {
	var preds []Prediction
	// Group a: TPR 1.0 (4/4), FPR 0.5 (2/4).
	preds = append(preds, batch("a", true, true, 4)...)
	preds = append(preds, batch("a", true, false, 2)...)
	preds = append(preds, batch("a", false, false, 2)...)
	// Group b: TPR 0.5 (2/4), FPR 0.25 (1/4).
	preds = append(preds, batch("b", true, true, 2)...)
	preds = append(preds, batch("b", false, true, 2)...)
	preds = append(preds, batch("b", true, false, 1)...)
	preds = append(preds, batch("b", false, false, 3)...)

	report, err := AssessFairness(preds)
	if err != nil {
		t.Fatalf("assess: %v", err)
	}
	// TPR ratio 0.5/1.0 = 0.5; FPR ratio 0.25/0.5 = 0.5; worse is 0.5.
	if math.Abs(report.EqualizedOddsRatio-0.5) > 1e-12 {
		t.Fatalf("odds = %v, want 0.5", report.EqualizedOddsRatio)
	}
}

func TestGroupStatsSortedAndCounted(t *testing.T) {
	var preds []Prediction
	preds = append(preds, batch("zeta", true, true, 3)...)
	preds = append(preds, batch("alpha", false, false, 2)...)

	report, err := AssessFairness(preds)
	if err != nil {
		t.Fatalf("assess: %v", err)
	}
	if len(report.Groups) != 2 {
		t.Fatalf("groups = %d, want 2", len(report.Groups))
	}
	if report.Groups[0].Group != "alpha" || report.Groups[1].Group != "zeta" {
		t.Fatalf("groups not sorted: %+v", report.Groups)
	}
	if report.Groups[1].Count != 3 {
		t.Fatalf("zeta count = %d, want 3", report.Groups[1].Count)
	}
}

func TestAllNegativePredictionsAreBalanced(t *testing.T) {
	var preds []Prediction
	preds = append(preds, batch("a", false, false, 4)...)
	preds = append(preds, batch("b", false, false, 4)...)

	report, err := AssessFairness(preds)
	if err != nil {
		t.Fatalf("assess: %v", err)
	}
	if report.DemographicParityRatio != 1 {
		t.Fatalf("parity = %v for all-zero rates, want 1", report.DemographicParityRatio)
	}
}
