// Package kpi computes the six equity and efficiency indicators published
// alongside the score tables: learning gap (EALG), rural-urban divergence
// (RUCDI), minority resilience (ERR), gender premium (GNCTP), municipal
// efficiency (MEF) and score volatility (SVS).
//
// Each indicator is a pure function of the supplied record set. When a
// required column is absent or a subgroup falls below the sample floor the
// indicator is reported as unavailable with a reason; the engine never
// substitutes a placeholder value.
package kpi
