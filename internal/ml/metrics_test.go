package ml

import (
	"math"
	"testing"
)

const floatTolerance = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < floatTolerance
}

// --- PrecisionRecallF1 tests ---

func TestPrecisionRecallF1_Perfect(t *testing.T) {
	yTrue := []int{1, 0, 1, 0}
	yPred := []int{1, 0, 1, 0}
	p, r, f1 := PrecisionRecallF1(yTrue, yPred)
	if !almostEqual(p, 1.0) || !almostEqual(r, 1.0) || !almostEqual(f1, 1.0) {
		t.Errorf("expected perfect scores, got p=%f r=%f f1=%f", p, r, f1)
	}
}

func TestPrecisionRecallF1_Mixed(t *testing.T) {
	// tp=1, fp=1, fn=1
	yTrue := []int{1, 0, 1, 0}
	yPred := []int{1, 1, 0, 0}
	p, r, f1 := PrecisionRecallF1(yTrue, yPred)
	if !almostEqual(p, 0.5) {
		t.Errorf("expected precision 0.5, got %f", p)
	}
	if !almostEqual(r, 0.5) {
		t.Errorf("expected recall 0.5, got %f", r)
	}
	if !almostEqual(f1, 0.5) {
		t.Errorf("expected f1 0.5, got %f", f1)
	}
}

func TestPrecisionRecallF1_NoPredictedPositives(t *testing.T) {
	yTrue := []int{1, 1, 0}
	yPred := []int{0, 0, 0}
	p, r, f1 := PrecisionRecallF1(yTrue, yPred)
	if !almostEqual(p, 0.0) || !almostEqual(r, 0.0) || !almostEqual(f1, 0.0) {
		t.Errorf("expected zeros for degenerate prediction, got p=%f r=%f f1=%f", p, r, f1)
	}
}

// --- ROCAUC tests ---

func TestROCAUC_PerfectRanking(t *testing.T) {
	yTrue := []int{0, 0, 1, 1}
	scores := []float64{0.1, 0.2, 0.8, 0.9}
	if got := ROCAUC(yTrue, scores); !almostEqual(got, 1.0) {
		t.Errorf("expected 1.0, got %f", got)
	}
}

func TestROCAUC_InvertedRanking(t *testing.T) {
	yTrue := []int{1, 1, 0, 0}
	scores := []float64{0.1, 0.2, 0.8, 0.9}
	if got := ROCAUC(yTrue, scores); !almostEqual(got, 0.0) {
		t.Errorf("expected 0.0, got %f", got)
	}
}

func TestROCAUC_AllScoresTied(t *testing.T) {
	yTrue := []int{1, 0, 1, 0}
	scores := []float64{0.5, 0.5, 0.5, 0.5}
	if got := ROCAUC(yTrue, scores); !almostEqual(got, 0.5) {
		t.Errorf("expected 0.5 for tied scores, got %f", got)
	}
}

func TestROCAUC_SingleClass(t *testing.T) {
	yTrue := []int{1, 1, 1}
	scores := []float64{0.2, 0.5, 0.9}
	if got := ROCAUC(yTrue, scores); !almostEqual(got, 0.5) {
		t.Errorf("expected 0.5 when only one class present, got %f", got)
	}
}

// --- Evaluate / ClassRatio tests ---

func TestEvaluate_ThresholdsAtHalf(t *testing.T) {
	yTrue := []int{1, 0, 1, 0}
	probs := []float64{0.9, 0.4, 0.6, 0.1}
	m := Evaluate(yTrue, probs)
	if !almostEqual(m.Precision, 1.0) || !almostEqual(m.Recall, 1.0) {
		t.Errorf("expected perfect precision/recall, got %+v", m)
	}
	if !almostEqual(m.AUC, 1.0) {
		t.Errorf("expected AUC 1.0, got %f", m.AUC)
	}
}

func TestClassRatio(t *testing.T) {
	if got := ClassRatio([]int{1, 0, 0, 0}); !almostEqual(got, 0.25) {
		t.Errorf("expected 0.25, got %f", got)
	}
	if got := ClassRatio(nil); !almostEqual(got, 0.0) {
		t.Errorf("expected 0 for empty labels, got %f", got)
	}
}
