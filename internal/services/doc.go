// Package services orchestrates the analytics pipeline: canonicalization,
// per-level aggregation and normalization, value-added fits, the KPI set
// and rankings. The service publishes immutable snapshots; readers never
// observe a half-computed pipeline.
package services
