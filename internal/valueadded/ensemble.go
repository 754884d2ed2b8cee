package valueadded

import (
	"math/rand"
)

// Model is a fitted regression model over encoded feature vectors.
type Model interface {
	Predict(x []float64) float64
	// Importances returns per-feature importances normalized to sum 1
	// (all zeros when no split ever improved the fit).
	Importances() []float64
}

// ModelKind selects the tree-ensemble variant for a fit.
type ModelKind string

const (
	// ModelGradientBoosting mirrors the student-level reference model:
	// 100 trees of depth 5 with shrinkage 0.1.
	ModelGradientBoosting ModelKind = "gradient_boosting"
	// ModelRandomForest mirrors the entity-level reference model:
	// 200 bootstrapped trees of depth 10.
	ModelRandomForest ModelKind = "random_forest"
)

// randomForest is a bagged ensemble of CART regression trees.
type randomForest struct {
	trees       []*regressionTree
	importances []float64
}

// fitRandomForest fits nTrees trees on bootstrap resamples of the training
// set. rng drives the bootstrap, so a fixed seed reproduces the forest.
func fitRandomForest(X [][]float64, y []float64, idx []int, nTrees, maxDepth int, rng *rand.Rand) *randomForest {
	nFeatures := len(X[idx[0]])
	f := &randomForest{
		trees:       make([]*regressionTree, 0, nTrees),
		importances: make([]float64, nFeatures),
	}
	params := treeParams{maxDepth: maxDepth, minSamples: 2}

	for t := 0; t < nTrees; t++ {
		sample := make([]int, len(idx))
		for i := range sample {
			sample[i] = idx[rng.Intn(len(idx))]
		}
		tree := fitRegressionTree(X, y, sample, params, nFeatures)
		f.trees = append(f.trees, tree)
		for j, imp := range tree.importances {
			f.importances[j] += imp
		}
	}
	normalizeImportances(f.importances)
	return f
}

// Predict averages the per-tree predictions.
func (f *randomForest) Predict(x []float64) float64 {
	var sum float64
	for _, tree := range f.trees {
		sum += tree.predict(x)
	}
	return sum / float64(len(f.trees))
}

// Importances returns the normalized accumulated importances.
func (f *randomForest) Importances() []float64 {
	return f.importances
}

// gradientBoosting is a stagewise ensemble of shallow CART trees fitted to
// the running residuals.
type gradientBoosting struct {
	base        float64
	shrinkage   float64
	trees       []*regressionTree
	importances []float64
}

// fitGradientBoosting fits nTrees stages with the given shrinkage.
func fitGradientBoosting(X [][]float64, y []float64, idx []int, nTrees, maxDepth int, shrinkage float64) *gradientBoosting {
	nFeatures := len(X[idx[0]])

	var base float64
	for _, i := range idx {
		base += y[i]
	}
	base /= float64(len(idx))

	g := &gradientBoosting{
		base:        base,
		shrinkage:   shrinkage,
		trees:       make([]*regressionTree, 0, nTrees),
		importances: make([]float64, nFeatures),
	}
	params := treeParams{maxDepth: maxDepth, minSamples: 2}

	// Residuals are tracked against the full sample array so tree fitting
	// can keep indexing into X directly.
	residuals := make([]float64, len(y))
	for _, i := range idx {
		residuals[i] = y[i] - base
	}

	for t := 0; t < nTrees; t++ {
		tree := fitRegressionTree(X, residuals, idx, params, nFeatures)
		g.trees = append(g.trees, tree)
		for j, imp := range tree.importances {
			g.importances[j] += imp
		}
		for _, i := range idx {
			residuals[i] -= shrinkage * tree.predict(X[i])
		}
	}
	normalizeImportances(g.importances)
	return g
}

// Predict sums the shrunk stage predictions on top of the base mean.
func (g *gradientBoosting) Predict(x []float64) float64 {
	pred := g.base
	for _, tree := range g.trees {
		pred += g.shrinkage * tree.predict(x)
	}
	return pred
}

// Importances returns the normalized accumulated importances.
func (g *gradientBoosting) Importances() []float64 {
	return g.importances
}

// normalizeImportances scales importances in place to sum 1.
func normalizeImportances(importances []float64) {
	var total float64
	for _, v := range importances {
		total += v
	}
	if total == 0 {
		return
	}
	for i := range importances {
		importances[i] /= total
	}
}
