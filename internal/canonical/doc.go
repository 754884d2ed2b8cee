// Package canonical normalizes heterogeneous per-student exam batches into
// the canonical StudentRecord schema. Source years disagree on column
// casing and naming, encode exam-not-attempted as a sentinel score, and
// sometimes omit a direct year column; this package resolves all of that
// exactly once so every downstream table computes from the same records.
//
// Canonicalization is lossy only in documented ways: rows without a
// resolvable school identifier are dropped and counted, sentinel scores
// become missing values, and unknown columns are ignored.
package canonical
