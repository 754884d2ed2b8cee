package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	Analytics AnalyticsConfig `yaml:"analytics" envconfig:"ANALYTICS"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"15s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	// RequestTimeout bounds one request's handling; it must stay below
	// WriteTimeout so the 504 problem response can still be written.
	RequestTimeout time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT" default:"10s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
	RateLimit       float64       `yaml:"rate_limit" envconfig:"RATE_LIMIT" default:"100" validate:"gt=0"`
	RateBurst       int           `yaml:"rate_burst" envconfig:"RATE_BURST" default:"50" validate:"gt=0"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info" validate:"oneof=debug info warn warning error"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"console" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/app.log"`
}

// PathsConfig contains file system paths.
type PathsConfig struct {
	DataDir    string `yaml:"data_dir" envconfig:"DATA_DIR" default:"data"`
	ReportsDir string `yaml:"reports_dir" envconfig:"REPORTS_DIR" default:"data/reports"`
	LogsDir    string `yaml:"logs_dir" envconfig:"LOGS_DIR" default:"logs"`
}

// ReportPath resolves a report file name inside the reports directory.
// Absolute paths are returned unchanged.
func (p PathsConfig) ReportPath(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(p.ReportsDir, name)
}

// AnalyticsConfig is the configuration surface of the statistical core. It
// is supplied by the caller to each pipeline stage; stages never read it
// from ambient process state.
type AnalyticsConfig struct {
	// ClipBound bounds standardized measures to [-ClipBound, +ClipBound].
	ClipBound float64 `yaml:"clip_bound" envconfig:"CLIP_BOUND" default:"3.5" validate:"gt=0"`

	// RegressionFloor is the minimum filtered row count for a model fit.
	RegressionFloor int `yaml:"regression_floor" envconfig:"REGRESSION_FLOOR" default:"100" validate:"gt=0"`

	// SubgroupFloor is the minimum observations per KPI subgroup.
	SubgroupFloor int `yaml:"subgroup_floor" envconfig:"SUBGROUP_FLOOR" default:"30" validate:"gt=0"`

	// TestRatio is the holdout share of the train/test split.
	TestRatio float64 `yaml:"test_ratio" envconfig:"TEST_RATIO" default:"0.2" validate:"gt=0,lt=1"`

	// Seed fixes the shuffle and model randomness for reproducible fits.
	Seed int64 `yaml:"seed" envconfig:"SEED" default:"42"`

	// TopN is the default size of ranked top/bottom extracts.
	TopN int `yaml:"top_n" envconfig:"TOP_N" default:"10" validate:"gt=0"`

	// Subjects overrides the subject vocabulary; empty means the full
	// SABER 11 set.
	Subjects []string `yaml:"subjects" envconfig:"SUBJECTS"`

	// Features overrides the contextual feature set for value-added fits;
	// empty means the default set.
	Features []string `yaml:"features" envconfig:"FEATURES"`
}

// SubjectsOrDefault returns the configured subject vocabulary.
func (a AnalyticsConfig) SubjectsOrDefault() []string {
	if len(a.Subjects) > 0 {
		return a.Subjects
	}
	return DefaultSubjects()
}

// FeaturesOrDefault returns the configured feature set.
func (a AnalyticsConfig) FeaturesOrDefault() []string {
	if len(a.Features) > 0 {
		return a.Features
	}
	return DefaultFeatures()
}

// Load loads configuration from environment variables and an optional
// config file. Environment variables take precedence over the file.
func Load() (*Config, error) {
	return LoadFrom(configFilePath())
}

// LoadFrom loads configuration with an explicit config file path. A missing
// file is not an error; the env/default values stand.
func LoadFrom(configFile string) (*Config, error) {
	var cfg Config

	if configFile != "" {
		if _, err := os.Stat(configFile); err == nil {
			fileCfg, err := loadFromFile(configFile)
			if err != nil {
				return nil, fmt.Errorf("load config file: %w", err)
			}
			cfg = *fileCfg
		}
	}

	// Env overrides file values; envconfig also fills defaults for
	// everything still zero.
	if err := envconfig.Process("SABER", &cfg); err != nil {
		return nil, fmt.Errorf("load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return &cfg, nil
}

// Validate checks the configuration invariants.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return err
	}
	return nil
}

func loadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func configFilePath() string {
	if p := os.Getenv("SABER_CONFIG_FILE"); p != "" {
		return p
	}
	return "saber.yaml"
}
