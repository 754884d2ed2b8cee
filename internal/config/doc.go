// Package config provides the application configuration for the SABER
// analytics pipeline. Configuration merges three sources in increasing
// precedence: struct defaults, an optional YAML file, and SABER_-prefixed
// environment variables. The analytics section is the statistical core's
// entire configuration surface (grouping keys, subject vocabulary, clip
// bound, sample floors, split ratio, seed, top-N sizes) and is always
// passed down explicitly by callers.
package config
