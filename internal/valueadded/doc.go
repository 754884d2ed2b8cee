// Package valueadded estimates how much of an entity's exam performance is
// explained by its contextual features versus genuine value added.
//
// A tree-ensemble regressor (gradient boosting at student level, random
// forest at entity level) predicts a target subject score from categorical
// contextual features. The residual actual - predicted is the value-added
// estimate: positive means the entity outperformed what its context
// predicts. Each fit is self-contained: the categorical encoder built for
// the fit travels with the model and is the only encoder ever used for its
// predictions, so residuals from different fits can never silently mix.
package valueadded
