package valueadded

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"

	apperrors "sabercli/internal/errors"
	"sabercli/pkg/contracts/domain"
)

// Reference ensemble shapes, matching the deployed model configurations.
const (
	gbTrees     = 100
	gbDepth     = 5
	gbShrinkage = 0.1
	rfTrees     = 200
	rfDepth     = 10

	// DefaultFloor is the minimum filtered row count for a fit.
	DefaultFloor = 100
	// DefaultTestRatio is the holdout share of the train/test split.
	DefaultTestRatio = 0.2
	// DefaultSeed fixes the split and bootstrap randomness.
	DefaultSeed = 42
)

// Engine fits value-added models and produces per-entity residuals.
type Engine struct {
	logger *slog.Logger
}

// FitOptions configures one self-contained residual run.
type FitOptions struct {
	// TargetSubject is the canonical score column the model predicts.
	TargetSubject string
	// Features are the categorical/contextual fields used as predictors.
	Features []string
	// Level is the reporting level residuals are averaged to. Must be
	// school, municipality or department.
	Level domain.Level
	// Model overrides the ensemble choice. Empty selects gradient
	// boosting for school-level runs and random forest otherwise.
	Model ModelKind
	// Floor is the minimum filtered row count; <=0 selects DefaultFloor.
	Floor int
	// TestRatio is the holdout share; <=0 selects DefaultTestRatio.
	TestRatio float64
	// Seed drives the split and bootstrap; 0 selects DefaultSeed.
	Seed int64
}

// NewEngine creates a residual engine.
func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{logger: logger}
}

// FitResiduals restricts records to rows with a non-missing target and
// complete feature values, fits a tree ensemble on a seeded train split,
// reports holdout goodness-of-fit, predicts the full filtered set, and
// averages per-record residuals to one ResidualResult per entity at the
// requested level. Results are sorted by residual descending, ties broken
// by entity id.
//
// When the filtered row count is below the floor the run returns an
// insufficient-sample error and no results at all.
func (e *Engine) FitResiduals(ctx context.Context, records []domain.StudentRecord, opts FitOptions) (*domain.ResidualSet, error) {
	start := time.Now()

	entityField := opts.Level.EntityField()
	if entityField == "" {
		return nil, apperrors.NewMalformedInput("fit_residuals",
			fmt.Sprintf("level %q has no entity identifier", opts.Level))
	}
	if opts.TargetSubject == "" || len(opts.Features) == 0 {
		return nil, apperrors.NewMalformedInput("fit_residuals",
			"target subject and features are required")
	}
	applyFitDefaults(&opts)

	// Restrict to rows usable for both fitting and residual reporting.
	filtered := make([]domain.StudentRecord, 0, len(records))
	for _, rec := range records {
		if _, ok := rec.Score(opts.TargetSubject); !ok {
			continue
		}
		complete := rec.Field(entityField) != ""
		for _, feature := range opts.Features {
			if rec.Field(feature) == "" {
				complete = false
				break
			}
		}
		if complete {
			filtered = append(filtered, rec)
		}
	}

	if len(filtered) < opts.Floor {
		return nil, apperrors.NewInsufficientSample("fit_residuals", len(filtered), opts.Floor)
	}

	// One encoding scheme per fit; the encoder travels with the model.
	encoders := fitEncoderSet(filtered, opts.Features)

	X := make([][]float64, len(filtered))
	y := make([]float64, len(filtered))
	for i, rec := range filtered {
		x, err := encoders.Encode(rec)
		if err != nil {
			return nil, fmt.Errorf("encode record: %w", err)
		}
		X[i] = x
		score, _ := rec.Score(opts.TargetSubject)
		y[i] = score
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	trainIdx, testIdx := trainTestSplit(len(filtered), opts.TestRatio, rng)

	model := fitModel(X, y, trainIdx, opts.Model, rng)

	actual := make([]float64, len(testIdx))
	predicted := make([]float64, len(testIdx))
	for i, idx := range testIdx {
		actual[i] = y[idx]
		predicted[i] = model.Predict(X[idx])
	}
	metrics := evaluateHoldout(actual, predicted)

	results := e.entityResiduals(filtered, X, y, model, entityField, opts.Level)

	importances := make(map[string]float64, len(opts.Features))
	for i, feature := range opts.Features {
		importances[feature] = model.Importances()[i]
	}

	report := domain.FitReport{
		RunID:         uuid.New().String(),
		EncodingID:    encoders.ID,
		Level:         opts.Level,
		TargetSubject: opts.TargetSubject,
		Features:      opts.Features,
		SampleCount:   len(filtered),
		TrainCount:    len(trainIdx),
		TestCount:     len(testIdx),
		R2:            metrics.r2,
		MAE:           metrics.mae,
		RMSE:          metrics.rmse,
		Importances:   importances,
	}

	e.logger.InfoContext(ctx, "residual fit completed",
		slog.String("run_id", report.RunID),
		slog.String("target", opts.TargetSubject),
		slog.String("level", string(opts.Level)),
		slog.String("model", string(opts.Model)),
		slog.Int("samples", report.SampleCount),
		slog.Int("entities", len(results)),
		slog.Float64("r2", report.R2),
		slog.Duration("duration", time.Since(start)),
	)

	return &domain.ResidualSet{Report: report, Results: results}, nil
}

// entityResiduals predicts the full filtered set and averages residuals per
// entity at the reporting level.
func (e *Engine) entityResiduals(records []domain.StudentRecord, X [][]float64, y []float64, model Model, entityField string, level domain.Level) []domain.ResidualResult {
	type accum struct {
		label                string
		actual, predicted    float64
		count                int
	}
	byEntity := make(map[string]*accum)

	labelField := labelFieldFor(level)
	for i, rec := range records {
		id := rec.Field(entityField)
		a, ok := byEntity[id]
		if !ok {
			a = &accum{label: rec.Field(labelField)}
			byEntity[id] = a
		}
		a.actual += y[i]
		a.predicted += model.Predict(X[i])
		a.count++
	}

	results := make([]domain.ResidualResult, 0, len(byEntity))
	for id, a := range byEntity {
		n := float64(a.count)
		actual := a.actual / n
		predicted := a.predicted / n
		results = append(results, domain.ResidualResult{
			EntityID:  id,
			Label:     a.label,
			Actual:    actual,
			Predicted: predicted,
			Residual:  actual - predicted,
			Count:     a.count,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Residual != results[j].Residual {
			return results[i].Residual > results[j].Residual
		}
		return results[i].EntityID < results[j].EntityID
	})

	return results
}

func applyFitDefaults(opts *FitOptions) {
	if opts.Floor <= 0 {
		opts.Floor = DefaultFloor
	}
	if opts.TestRatio <= 0 {
		opts.TestRatio = DefaultTestRatio
	}
	if opts.Seed == 0 {
		opts.Seed = DefaultSeed
	}
	if opts.Model == "" {
		if opts.Level == domain.LevelSchool {
			opts.Model = ModelGradientBoosting
		} else {
			opts.Model = ModelRandomForest
		}
	}
}

func fitModel(X [][]float64, y []float64, trainIdx []int, kind ModelKind, rng *rand.Rand) Model {
	if kind == ModelRandomForest {
		return fitRandomForest(X, y, trainIdx, rfTrees, rfDepth, rng)
	}
	return fitGradientBoosting(X, y, trainIdx, gbTrees, gbDepth, gbShrinkage)
}

func labelFieldFor(level domain.Level) string {
	switch level {
	case domain.LevelSchool:
		return domain.FieldSchoolName
	case domain.LevelMunicipality:
		return domain.FieldMunicipalityName
	case domain.LevelDepartment:
		return domain.FieldDepartmentName
	}
	return ""
}
