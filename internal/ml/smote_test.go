package ml

import (
	"testing"
)

func imbalancedData() ([][]float64, []int) {
	var X [][]float64
	var y []int
	// 20 majority points around the origin
	for i := 0; i < 20; i++ {
		X = append(X, []float64{float64(i) * 0.1, float64(i) * -0.1})
		y = append(y, 0)
	}
	// 8 minority points around (5, 5)
	for i := 0; i < 8; i++ {
		X = append(X, []float64{5 + float64(i)*0.1, 5 - float64(i)*0.1})
		y = append(y, 1)
	}
	return X, y
}

func TestSMOTE_ReachesTargetRatio(t *testing.T) {
	X, y := imbalancedData()
	outX, outY, err := SMOTE(X, y, 1.0, 5, 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	pos, neg := 0, 0
	for _, label := range outY {
		if label == 1 {
			pos++
		} else {
			neg++
		}
	}
	if neg != 20 {
		t.Errorf("majority count changed: %d", neg)
	}
	if pos != 20 {
		t.Errorf("expected minority oversampled to 20, got %d", pos)
	}
	if len(outX) != len(outY) {
		t.Errorf("rows and labels out of sync: %d vs %d", len(outX), len(outY))
	}
}

func TestSMOTE_PreservesOriginalRowsAsPrefix(t *testing.T) {
	X, y := imbalancedData()
	outX, outY, err := SMOTE(X, y, 1.0, 5, 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := range X {
		if outY[i] != y[i] {
			t.Fatalf("label %d changed", i)
		}
		for j := range X[i] {
			if !almostEqual(outX[i][j], X[i][j]) {
				t.Fatalf("row %d mutated", i)
			}
		}
	}

	// Every synthetic row is minority.
	for i := len(X); i < len(outX); i++ {
		if outY[i] != 1 {
			t.Errorf("synthetic row %d not labeled minority", i)
		}
	}
}

func TestSMOTE_SyntheticPointsInterpolateMinority(t *testing.T) {
	X, y := imbalancedData()
	outX, _, err := SMOTE(X, y, 1.0, 5, 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Minority lives around (5, 5); interpolations must stay in that
	// neighborhood, never between the classes.
	for i := len(X); i < len(outX); i++ {
		if outX[i][0] < 4.5 || outX[i][1] < 4.0 {
			t.Errorf("synthetic row %d fell outside the minority region: %v", i, outX[i])
		}
	}
}

func TestSMOTE_DeterministicUnderFixedSeed(t *testing.T) {
	X, y := imbalancedData()
	aX, _, err := SMOTE(X, y, 1.0, 5, 9)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bX, _, err := SMOTE(X, y, 1.0, 5, 9)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := range aX {
		for j := range aX[i] {
			if !almostEqual(aX[i][j], bX[i][j]) {
				t.Fatalf("row %d differs for identical seed", i)
			}
		}
	}
}

func TestSMOTE_TooFewMinoritySamples(t *testing.T) {
	X := [][]float64{{0}, {1}, {2}, {3}, {10}}
	y := []int{0, 0, 0, 0, 1}

	_, _, err := SMOTE(X, y, 1.0, 5, 1)
	if err != ErrTooFewMinority {
		t.Errorf("expected ErrTooFewMinority, got %v", err)
	}
}

func TestSMOTE_AlreadyBalanced(t *testing.T) {
	X := [][]float64{{0}, {0.1}, {0.2}, {0.3}, {0.35}, {0.25}, {10}, {10.1}, {10.2}, {10.3}, {10.35}, {10.25}}
	y := []int{0, 0, 0, 0, 0, 0, 1, 1, 1, 1, 1, 1}

	outX, _, err := SMOTE(X, y, 1.0, 5, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(outX) != len(X) {
		t.Errorf("expected no synthesis for balanced input, got %d rows", len(outX))
	}
}
