package domain

// ResidualResult is one entity's actual vs model-predicted score for a
// target subject. Residual = Actual - Predicted: positive means the entity
// outperformed what its contextual features predict.
type ResidualResult struct {
	EntityID  string  `json:"entity_id"`
	Label     string  `json:"label,omitempty"`
	Actual    float64 `json:"actual"`
	Predicted float64 `json:"predicted"`
	Residual  float64 `json:"residual"`
	Count     int     `json:"count"`
}

// FitReport describes one self-contained model fit: the configuration it
// ran with, holdout goodness-of-fit, and normalized feature importances.
// EncodingID identifies the categorical encoding the fit used; residual
// sets with different encoding IDs are not comparable.
type FitReport struct {
	RunID         string             `json:"run_id"`
	EncodingID    string             `json:"encoding_id"`
	Level         Level              `json:"level"`
	TargetSubject string             `json:"target_subject"`
	Features      []string           `json:"features"`
	SampleCount   int                `json:"sample_count"`
	TrainCount    int                `json:"train_count"`
	TestCount     int                `json:"test_count"`
	R2            float64            `json:"r2"`
	MAE           float64            `json:"mae"`
	RMSE          float64            `json:"rmse"`
	Importances   map[string]float64 `json:"importances"`
}

// ResidualSet is the complete output of one residual run. Results carry
// the sign convention residual = actual - predicted throughout; the set is
// recomputed from scratch whenever records, target or features change.
type ResidualSet struct {
	Report  FitReport        `json:"report"`
	Results []ResidualResult `json:"results"`
}
