package valueadded

import "sort"

// treeParams bound the growth of one regression tree.
type treeParams struct {
	maxDepth   int
	minSamples int // minimum samples to attempt a split
}

// treeNode is one node of a CART regression tree. Leaves predict the mean
// target of their training samples; internal nodes route on
// x[feature] <= threshold.
type treeNode struct {
	feature   int
	threshold float64
	left      *treeNode
	right     *treeNode
	value     float64
	leaf      bool
}

// regressionTree is a CART tree fitted by recursive variance-minimizing
// binary splits.
type regressionTree struct {
	root        *treeNode
	importances []float64 // total squared-error reduction per feature
}

// fitRegressionTree grows a tree on the samples selected by idx.
func fitRegressionTree(X [][]float64, y []float64, idx []int, params treeParams, nFeatures int) *regressionTree {
	t := &regressionTree{importances: make([]float64, nFeatures)}
	t.root = t.grow(X, y, idx, params, 0)
	return t
}

func (t *regressionTree) grow(X [][]float64, y []float64, idx []int, params treeParams, depth int) *treeNode {
	mean, sse := meanSSE(y, idx)

	if depth >= params.maxDepth || len(idx) < params.minSamples || sse == 0 {
		return &treeNode{leaf: true, value: mean}
	}

	feature, threshold, gain, ok := bestSplit(X, y, idx, sse)
	if !ok {
		return &treeNode{leaf: true, value: mean}
	}

	var leftIdx, rightIdx []int
	for _, i := range idx {
		if X[i][feature] <= threshold {
			leftIdx = append(leftIdx, i)
		} else {
			rightIdx = append(rightIdx, i)
		}
	}
	if len(leftIdx) == 0 || len(rightIdx) == 0 {
		return &treeNode{leaf: true, value: mean}
	}

	t.importances[feature] += gain

	return &treeNode{
		feature:   feature,
		threshold: threshold,
		left:      t.grow(X, y, leftIdx, params, depth+1),
		right:     t.grow(X, y, rightIdx, params, depth+1),
	}
}

// predict routes one sample to its leaf.
func (t *regressionTree) predict(x []float64) float64 {
	node := t.root
	for !node.leaf {
		if x[node.feature] <= node.threshold {
			node = node.left
		} else {
			node = node.right
		}
	}
	return node.value
}

// bestSplit finds the (feature, threshold) pair that maximizes squared-error
// reduction over the samples in idx. Thresholds are midpoints between
// consecutive distinct feature values; candidates are scanned with running
// sums so each feature costs one sort plus one pass.
func bestSplit(X [][]float64, y []float64, idx []int, parentSSE float64) (feature int, threshold, gain float64, ok bool) {
	n := len(idx)
	if n < 2 {
		return 0, 0, 0, false
	}
	nFeatures := len(X[idx[0]])

	type sample struct {
		x, y float64
	}
	samples := make([]sample, n)

	var totalSum, totalSq float64
	for _, i := range idx {
		totalSum += y[i]
		totalSq += y[i] * y[i]
	}

	bestGain := 0.0
	for f := 0; f < nFeatures; f++ {
		for j, i := range idx {
			samples[j] = sample{x: X[i][f], y: y[i]}
		}
		sort.Slice(samples, func(a, b int) bool { return samples[a].x < samples[b].x })

		var leftSum, leftSq float64
		for j := 0; j < n-1; j++ {
			leftSum += samples[j].y
			leftSq += samples[j].y * samples[j].y

			// Only split between distinct feature values.
			if samples[j].x == samples[j+1].x {
				continue
			}

			leftN := float64(j + 1)
			rightN := float64(n - j - 1)
			rightSum := totalSum - leftSum
			rightSq := totalSq - leftSq

			leftSSE := leftSq - leftSum*leftSum/leftN
			rightSSE := rightSq - rightSum*rightSum/rightN

			g := parentSSE - leftSSE - rightSSE
			if g > bestGain {
				bestGain = g
				feature = f
				threshold = (samples[j].x + samples[j+1].x) / 2
			}
		}
	}

	if bestGain <= 0 {
		return 0, 0, 0, false
	}
	return feature, threshold, bestGain, true
}

// meanSSE computes the mean and the sum of squared errors around it for
// the selected samples.
func meanSSE(y []float64, idx []int) (mean, sse float64) {
	if len(idx) == 0 {
		return 0, 0
	}
	for _, i := range idx {
		mean += y[i]
	}
	mean /= float64(len(idx))
	for _, i := range idx {
		d := y[i] - mean
		sse += d * d
	}
	return mean, sse
}
