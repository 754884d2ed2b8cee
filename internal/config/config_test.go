package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sabercli/pkg/contracts/domain"
)

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.InDelta(t, DefaultClipBound, cfg.Analytics.ClipBound, 1e-12)
	assert.Equal(t, DefaultRegressionFloor, cfg.Analytics.RegressionFloor)
	assert.Equal(t, DefaultSubgroupFloor, cfg.Analytics.SubgroupFloor)
	assert.InDelta(t, DefaultTestRatio, cfg.Analytics.TestRatio, 1e-12)
	assert.EqualValues(t, DefaultRandomSeed, cfg.Analytics.Seed)
}

func TestLoadFrom_FileThenEnvPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "saber.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
analytics:
  clip_bound: 2.5
  regression_floor: 50
`), 0o644))

	t.Setenv("SABER_ANALYTICS_REGRESSION_FLOOR", "200")

	cfg, err := LoadFrom(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.InDelta(t, 2.5, cfg.Analytics.ClipBound, 1e-12)
	// env wins over the file
	assert.Equal(t, 200, cfg.Analytics.RegressionFloor)
}

func TestLoadFrom_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoadFrom_ValidationFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "saber.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 99999999
`), 0o644))

	_, err := LoadFrom(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation")
}

func TestAnalyticsConfig_Fallbacks(t *testing.T) {
	var a AnalyticsConfig
	assert.Equal(t, DefaultSubjects(), a.SubjectsOrDefault())
	assert.Equal(t, DefaultFeatures(), a.FeaturesOrDefault())

	a.Subjects = []string{domain.SubjectMathematics}
	assert.Equal(t, []string{domain.SubjectMathematics}, a.SubjectsOrDefault())
}

func TestDefaultGroupKeys(t *testing.T) {
	tests := []struct {
		level domain.Level
		want  []string
	}{
		{domain.LevelSchool, []string{domain.FieldSchoolID}},
		{domain.LevelMunicipality, []string{domain.FieldMunicipalityID}},
		{domain.LevelDepartment, []string{domain.FieldDepartmentID}},
		{domain.LevelStudent, nil},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DefaultGroupKeys(tt.level))
	}
}

func TestPathsConfig_ReportPath(t *testing.T) {
	p := PathsConfig{ReportsDir: "data/reports"}
	assert.Equal(t, filepath.Join("data", "reports", "out.csv"), p.ReportPath("out.csv"))
	assert.Equal(t, "/tmp/abs.csv", p.ReportPath("/tmp/abs.csv"))
}
