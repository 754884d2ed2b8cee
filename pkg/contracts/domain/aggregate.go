package domain

import "strings"

// KeyPart is one field/value pair of a grouping key tuple. Order matters:
// two keys are the same group only if their parts match pairwise.
type KeyPart struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// GroupKey is the ordered grouping tuple an AggregateRow was computed for.
type GroupKey []KeyPart

// String renders the key as "field=value|field=value" for logging, sorting
// and map keys.
func (k GroupKey) String() string {
	var b strings.Builder
	for i, p := range k {
		if i > 0 {
			b.WriteByte('|')
		}
		b.WriteString(p.Field)
		b.WriteByte('=')
		b.WriteString(p.Value)
	}
	return b.String()
}

// Value returns the key's value for a field, or "" when the field is not
// part of the tuple.
func (k GroupKey) Value(field string) string {
	for _, p := range k {
		if p.Field == field {
			return p.Value
		}
	}
	return ""
}

// AggregateRow is the count/mean/std of one subject within one group.
// Rows only exist for groups with at least one contributing score, so
// Count is always >= 1 and Mean/StdDev are always defined.
type AggregateRow struct {
	Key     GroupKey `json:"key"`
	Subject string   `json:"subject"`
	Count   int      `json:"count"`
	Mean    float64  `json:"mean"`
	StdDev  float64  `json:"std_dev"`
}

// NormalizedMeasure is an AggregateRow's mean expressed in population
// standard deviations, clipped to the configured symmetric bound.
type NormalizedMeasure struct {
	Key     GroupKey `json:"key"`
	Subject string   `json:"subject"`
	Value   float64  `json:"value"`
}
