package ml

import (
	"sort"
)

// BinaryMetrics holds classification metrics for the positive (minority)
// class.
type BinaryMetrics struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	AUC       float64 `json:"auc"`
}

// Evaluate computes minority-class metrics from predicted probabilities,
// thresholding at 0.5 for the confusion-based metrics.
func Evaluate(yTrue []int, probs []float64) BinaryMetrics {
	preds := make([]int, len(probs))
	for i, p := range probs {
		if p >= 0.5 {
			preds[i] = 1
		}
	}
	precision, recall, f1 := PrecisionRecallF1(yTrue, preds)
	return BinaryMetrics{
		Precision: precision,
		Recall:    recall,
		F1:        f1,
		AUC:       ROCAUC(yTrue, probs),
	}
}

// PrecisionRecallF1 computes positive-class precision, recall and F1.
// Undefined quotients (no predicted or no actual positives) yield 0.
func PrecisionRecallF1(yTrue, yPred []int) (precision, recall, f1 float64) {
	var tp, fp, fn float64
	for i := range yTrue {
		switch {
		case yPred[i] == 1 && yTrue[i] == 1:
			tp++
		case yPred[i] == 1 && yTrue[i] == 0:
			fp++
		case yPred[i] == 0 && yTrue[i] == 1:
			fn++
		}
	}

	if tp+fp > 0 {
		precision = tp / (tp + fp)
	}
	if tp+fn > 0 {
		recall = tp / (tp + fn)
	}
	if precision+recall > 0 {
		f1 = 2 * precision * recall / (precision + recall)
	}
	return precision, recall, f1
}

// ROCAUC computes the area under the ROC curve with the rank statistic,
// averaging ranks across score ties. Returns 0.5 when only one class is
// present.
func ROCAUC(yTrue []int, scores []float64) float64 {
	n := len(yTrue)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return scores[idx[a]] < scores[idx[b]] })

	ranks := make([]float64, n)
	for i := 0; i < n; {
		j := i
		for j < n && scores[idx[j]] == scores[idx[i]] {
			j++
		}
		// Average rank over the tie group; ranks are 1-based.
		avg := float64(i+j+1) / 2
		for k := i; k < j; k++ {
			ranks[idx[k]] = avg
		}
		i = j
	}

	var posRankSum, nPos, nNeg float64
	for i, label := range yTrue {
		if label == 1 {
			posRankSum += ranks[i]
			nPos++
		} else {
			nNeg++
		}
	}
	if nPos == 0 || nNeg == 0 {
		return 0.5
	}
	return (posRankSum - nPos*(nPos+1)/2) / (nPos * nNeg)
}

// ClassRatio returns the share of positive labels.
func ClassRatio(y []int) float64 {
	if len(y) == 0 {
		return 0
	}
	pos := 0
	for _, label := range y {
		if label == 1 {
			pos++
		}
	}
	return float64(pos) / float64(len(y))
}
