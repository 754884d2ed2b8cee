// Package ranking produces stable top-N and bottom-N entity lists from
// residual and normalized-measure collections.
package ranking

import (
	"sort"

	"sabercli/pkg/contracts/domain"
)

// Accessor extracts the identity and ranking value from a collection
// element.
type Accessor[T any] func(T) (id string, label string, value float64)

// ByResidual ranks residual results by their value-added residual.
func ByResidual(r domain.ResidualResult) (string, string, float64) {
	return r.EntityID, r.Label, r.Residual
}

// ByNormalizedValue ranks normalized measures by their standardized value.
func ByNormalizedValue(m domain.NormalizedMeasure) (string, string, float64) {
	return m.Key.String(), m.Key.String(), m.Value
}

// TopN returns the n highest-valued entities in descending order. Ties are
// broken by entity id ascending, so identical input always yields the
// identical list.
func TopN[T any](items []T, access Accessor[T], n int) []domain.RankedEntity {
	return rank(items, access, n, false)
}

// BottomN returns the n lowest-valued entities in ascending order, with the
// same tie-break rule as TopN.
func BottomN[T any](items []T, access Accessor[T], n int) []domain.RankedEntity {
	return rank(items, access, n, true)
}

func rank[T any](items []T, access Accessor[T], n int, ascending bool) []domain.RankedEntity {
	if n <= 0 {
		return nil
	}

	ranked := make([]domain.RankedEntity, 0, len(items))
	for _, item := range items {
		id, label, value := access(item)
		ranked = append(ranked, domain.RankedEntity{EntityID: id, Label: label, Value: value})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Value != ranked[j].Value {
			if ascending {
				return ranked[i].Value < ranked[j].Value
			}
			return ranked[i].Value > ranked[j].Value
		}
		return ranked[i].EntityID < ranked[j].EntityID
	})

	if n < len(ranked) {
		ranked = ranked[:n]
	}
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}
