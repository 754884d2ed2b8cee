package analytics

import (
	"context"
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"

	apperrors "sabercli/internal/errors"
	"sabercli/pkg/contracts/domain"
)

// Aggregator groups canonical records and computes per-subject statistics.
type Aggregator struct {
	logger *slog.Logger
}

// AggregateResult holds the aggregate rows plus the count of records that
// were excluded because a grouping-key field was missing on them.
type AggregateResult struct {
	Rows     []domain.AggregateRow
	Excluded int
}

// NewAggregator creates an aggregator.
func NewAggregator(logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{logger: logger}
}

// Aggregate groups records by the exact tuple of groupKeys and computes
// count, mean and standard deviation per subject within each group.
//
// Records missing a value for any groupKey field are excluded from the
// aggregation, not coerced into a default bucket. Subjects contribute only
// their non-missing scores; a (group, subject) pair with no contributing
// scores emits no row at all. Output is sorted by group key then subject so
// identical inputs produce identical output.
func (a *Aggregator) Aggregate(ctx context.Context, records []domain.StudentRecord, groupKeys, subjects []string) (*AggregateResult, error) {
	if len(groupKeys) == 0 {
		return nil, apperrors.NewMalformedInput("aggregate", "no grouping keys supplied")
	}
	if len(subjects) == 0 {
		return nil, apperrors.NewMalformedInput("aggregate", "no subjects supplied")
	}

	type groupAccum struct {
		key    domain.GroupKey
		scores map[string][]float64
	}

	groups := make(map[string]*groupAccum)
	excluded := 0

	for _, rec := range records {
		key := make(domain.GroupKey, 0, len(groupKeys))
		complete := true
		for _, field := range groupKeys {
			value := rec.Field(field)
			if value == "" {
				complete = false
				break
			}
			key = append(key, domain.KeyPart{Field: field, Value: value})
		}
		if !complete {
			excluded++
			continue
		}

		ks := key.String()
		accum, ok := groups[ks]
		if !ok {
			accum = &groupAccum{key: key, scores: make(map[string][]float64)}
			groups[ks] = accum
		}
		for _, subject := range subjects {
			if score, ok := rec.Score(subject); ok {
				accum.scores[subject] = append(accum.scores[subject], score)
			}
		}
	}

	keys := make([]string, 0, len(groups))
	for ks := range groups {
		keys = append(keys, ks)
	}
	sort.Strings(keys)

	rows := make([]domain.AggregateRow, 0, len(groups))
	for _, ks := range keys {
		accum := groups[ks]
		for _, subject := range subjects {
			scores := accum.scores[subject]
			if len(scores) == 0 {
				continue
			}
			row := domain.AggregateRow{
				Key:     accum.key,
				Subject: subject,
				Count:   len(scores),
				Mean:    stat.Mean(scores, nil),
			}
			if len(scores) > 1 {
				row.StdDev = stat.StdDev(scores, nil)
			}
			rows = append(rows, row)
		}
	}

	a.logger.InfoContext(ctx, "aggregation completed",
		slog.Any("group_keys", groupKeys),
		slog.Int("records", len(records)),
		slog.Int("groups", len(groups)),
		slog.Int("rows", len(rows)),
		slog.Int("excluded", excluded),
	)

	return &AggregateResult{Rows: rows, Excluded: excluded}, nil
}
