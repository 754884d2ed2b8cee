package analytics

import (
	"context"
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"

	apperrors "sabercli/internal/errors"
	"sabercli/pkg/contracts/domain"
)

// DefaultClipBound is the symmetric clipping bound in standard deviations.
const DefaultClipBound = 3.5

// Normalizer converts aggregate means into clipped population z-scores.
type Normalizer struct {
	logger *slog.Logger
}

// SubjectDiagnostic records why a subject was excluded from normalization.
type SubjectDiagnostic struct {
	Subject string `json:"subject"`
	Reason  string `json:"reason"`
}

// NormalizeResult holds the normalized measures plus diagnostics for
// subjects that were skipped rather than divided by zero.
type NormalizeResult struct {
	Measures []domain.NormalizedMeasure
	Skipped  []SubjectDiagnostic
}

// NewNormalizer creates a normalizer.
func NewNormalizer(logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{logger: logger}
}

// Normalize standardizes every aggregate row against the population formed
// by the full input set: per subject, (mean - populationMean)/populationStd,
// clipped to [-bound, +bound].
//
// The population is whatever the caller passes in, so level-specific
// normalization means passing the complete row set for that level. Subjects
// whose population std is zero (or that have a single row) are skipped with
// a diagnostic; NaN never propagates. bound <= 0 selects DefaultClipBound.
func (n *Normalizer) Normalize(ctx context.Context, rows []domain.AggregateRow, bound float64) (*NormalizeResult, error) {
	if len(rows) == 0 {
		return nil, apperrors.NewMalformedInput("normalize", "no aggregate rows supplied")
	}
	if bound <= 0 {
		bound = DefaultClipBound
	}

	bySubject := make(map[string][]float64)
	for _, row := range rows {
		bySubject[row.Subject] = append(bySubject[row.Subject], row.Mean)
	}

	type population struct {
		mean, std float64
	}
	populations := make(map[string]population, len(bySubject))
	var skipped []SubjectDiagnostic

	subjects := make([]string, 0, len(bySubject))
	for subject := range bySubject {
		subjects = append(subjects, subject)
	}
	sort.Strings(subjects)

	for _, subject := range subjects {
		means := bySubject[subject]
		if len(means) < 2 {
			skipped = append(skipped, SubjectDiagnostic{
				Subject: subject,
				Reason:  "fewer than two groups in population",
			})
			continue
		}
		std := stat.StdDev(means, nil)
		if std == 0 {
			err := apperrors.NewDegenerateVariance("normalize", subject)
			n.logger.WarnContext(ctx, "subject excluded from normalization",
				slog.String("subject", subject),
				slog.String("error", err.Error()),
			)
			skipped = append(skipped, SubjectDiagnostic{
				Subject: subject,
				Reason:  err.Error(),
			})
			continue
		}
		populations[subject] = population{mean: stat.Mean(means, nil), std: std}
	}

	measures := make([]domain.NormalizedMeasure, 0, len(rows))
	for _, row := range rows {
		pop, ok := populations[row.Subject]
		if !ok {
			continue
		}
		z := (row.Mean - pop.mean) / pop.std
		measures = append(measures, domain.NormalizedMeasure{
			Key:     row.Key,
			Subject: row.Subject,
			Value:   clip(z, bound),
		})
	}

	n.logger.InfoContext(ctx, "normalization completed",
		slog.Int("rows", len(rows)),
		slog.Int("measures", len(measures)),
		slog.Int("skipped_subjects", len(skipped)),
		slog.Float64("bound", bound),
	)

	return &NormalizeResult{Measures: measures, Skipped: skipped}, nil
}

// clip bounds v to [-bound, +bound].
func clip(v, bound float64) float64 {
	if v > bound {
		return bound
	}
	if v < -bound {
		return -bound
	}
	return v
}
