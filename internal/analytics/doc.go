// Package analytics computes comparable aggregate statistics from
// canonical exam records.
//
// The Aggregator groups records by a caller-supplied key tuple and computes
// per-subject count/mean/std; one parameterized implementation serves every
// organizational level (school, municipality, department) and any extra
// grouping dimension (grade, year). The Normalizer converts aggregate means
// into population z-scores clipped to a symmetric bound so a handful of
// extreme groups cannot dominate rankings or comparisons.
//
// Both operations are pure functions of their inputs: identical input sets
// produce byte-identical output, and the caller decides what population a
// normalization is relative to by deciding what rows it passes in.
package analytics
