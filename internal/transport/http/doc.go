// Package http exposes the computed report tables over a read-only JSON
// API. Handlers serve the service's latest published snapshot; they never
// trigger computation themselves.
package http
