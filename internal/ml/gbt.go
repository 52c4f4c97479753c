package ml

import (
	"math"
	"sort"
)

// GBTConfig holds hyperparameters for the gradient-boosted tree ensemble.
type GBTConfig struct {
	Trees        int     `json:"trees"`
	MaxDepth     int     `json:"max_depth"`
	MinLeaf      int     `json:"min_leaf"`
	LearningRate float64 `json:"learning_rate"`
	// PosWeight scales the gradient contribution of positive samples.
	PosWeight float64 `json:"pos_weight"`
}

// DefaultGBTConfig returns the ensemble hyperparameters.
func DefaultGBTConfig() GBTConfig {
	return GBTConfig{
		Trees:        50,
		MaxDepth:     3,
		MinLeaf:      5,
		LearningRate: 0.1,
		PosWeight:    1,
	}
}

// TreeNode is one node of a regression tree. Leaves carry the additive score
// contribution; internal nodes split on Feature < Threshold.
type TreeNode struct {
	Feature   int       `json:"feature,omitempty"`
	Threshold float64   `json:"threshold,omitempty"`
	Left      *TreeNode `json:"left,omitempty"`
	Right     *TreeNode `json:"right,omitempty"`
	Leaf      bool      `json:"leaf,omitempty"`
	Value     float64   `json:"value,omitempty"`
}

// GBTModel is a trained gradient-boosted tree classifier over logistic loss.
type GBTModel struct {
	Base         float64     `json:"base"`
	LearningRate float64     `json:"learning_rate"`
	Trees        []*TreeNode `json:"trees"`
}

// TrainGBT fits a boosted ensemble of regression trees to the negative
// gradient of the logistic loss, with Newton leaf values.
func TrainGBT(X [][]float64, y []int, cfg GBTConfig) *GBTModel {
	n := len(X)
	if n == 0 {
		return &GBTModel{}
	}
	posWeight := cfg.PosWeight
	if posWeight <= 0 {
		posWeight = 1
	}

	weights := make([]float64, n)
	posSum, negSum := 0.0, 0.0
	for i, label := range y {
		if label == 1 {
			weights[i] = posWeight
			posSum += posWeight
		} else {
			weights[i] = 1
			negSum++
		}
	}
	if posSum == 0 || negSum == 0 {
		// Degenerate label set: a constant model is all there is to learn.
		return &GBTModel{Base: logOdds(posSum, negSum), LearningRate: cfg.LearningRate}
	}

	model := &GBTModel{
		Base:         logOdds(posSum, negSum),
		LearningRate: cfg.LearningRate,
	}

	scores := make([]float64, n)
	for i := range scores {
		scores[i] = model.Base
	}

	grads := make([]float64, n)
	hess := make([]float64, n)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}

	for t := 0; t < cfg.Trees; t++ {
		for i := range X {
			p := sigmoid(scores[i])
			grads[i] = weights[i] * (float64(y[i]) - p)
			hess[i] = weights[i] * p * (1 - p)
		}

		tree := buildTree(X, grads, hess, idx, cfg.MaxDepth, cfg.MinLeaf)
		model.Trees = append(model.Trees, tree)

		for i, row := range X {
			scores[i] += cfg.LearningRate * tree.predict(row)
		}
	}

	return model
}

// PredictProba returns the probability of the positive class.
func (m *GBTModel) PredictProba(x []float64) float64 {
	score := m.Base
	for _, tree := range m.Trees {
		score += m.LearningRate * tree.predict(x)
	}
	return sigmoid(score)
}

func (t *TreeNode) predict(x []float64) float64 {
	node := t
	for !node.Leaf {
		if x[node.Feature] < node.Threshold {
			node = node.Left
		} else {
			node = node.Right
		}
	}
	return node.Value
}

func buildTree(X [][]float64, grads, hess []float64, idx []int, depth, minLeaf int) *TreeNode {
	if depth == 0 || len(idx) < 2*minLeaf {
		return leafNode(grads, hess, idx)
	}

	feature, threshold, ok := bestSplit(X, grads, idx, minLeaf)
	if !ok {
		return leafNode(grads, hess, idx)
	}

	var left, right []int
	for _, i := range idx {
		if X[i][feature] < threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	return &TreeNode{
		Feature:   feature,
		Threshold: threshold,
		Left:      buildTree(X, grads, hess, left, depth-1, minLeaf),
		Right:     buildTree(X, grads, hess, right, depth-1, minLeaf),
	}
}

func leafNode(grads, hess []float64, idx []int) *TreeNode {
	gradSum, hessSum := 0.0, 0.0
	for _, i := range idx {
		gradSum += grads[i]
		hessSum += hess[i]
	}
	value := 0.0
	if hessSum > 1e-12 {
		value = gradSum / hessSum
	}
	return &TreeNode{Leaf: true, Value: value}
}

// bestSplit finds the split maximizing squared-gradient gain over the given
// rows. Thresholds are midpoints between consecutive distinct values.
func bestSplit(X [][]float64, grads []float64, idx []int, minLeaf int) (int, float64, bool) {
	dims := len(X[idx[0]])
	total := 0.0
	for _, i := range idx {
		total += grads[i]
	}
	n := float64(len(idx))
	baseScore := total * total / n

	bestGain := 1e-12
	bestFeature, bestThreshold := -1, 0.0

	order := make([]int, len(idx))
	for f := 0; f < dims; f++ {
		copy(order, idx)
		sort.Slice(order, func(a, b int) bool { return X[order[a]][f] < X[order[b]][f] })

		leftSum, leftN := 0.0, 0.0
		for pos := 0; pos < len(order)-1; pos++ {
			i := order[pos]
			leftSum += grads[i]
			leftN++

			cur, next := X[i][f], X[order[pos+1]][f]
			if cur == next {
				continue
			}
			if int(leftN) < minLeaf || len(order)-int(leftN) < minLeaf {
				continue
			}

			rightSum := total - leftSum
			rightN := n - leftN
			gain := leftSum*leftSum/leftN + rightSum*rightSum/rightN - baseScore
			if gain > bestGain {
				bestGain = gain
				bestFeature = f
				bestThreshold = (cur + next) / 2
			}
		}
	}

	if bestFeature < 0 {
		return 0, 0, false
	}
	return bestFeature, bestThreshold, true
}

func logOdds(pos, neg float64) float64 {
	if pos == 0 {
		return -10
	}
	if neg == 0 {
		return 10
	}
	return math.Log(pos / neg)
}
