package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sabercli/internal/config"
	"sabercli/pkg/contracts/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testAnalyticsConfig() config.AnalyticsConfig {
	return config.AnalyticsConfig{
		ClipBound:       config.DefaultClipBound,
		RegressionFloor: 20,
		SubgroupFloor:   5,
		TestRatio:       config.DefaultTestRatio,
		Seed:            config.DefaultRandomSeed,
		TopN:            3,
		Subjects: []string{
			domain.SubjectGlobal,
			domain.SubjectMathematics,
			domain.SubjectCriticalReading,
		},
		Features: []string{
			domain.AttrStratum,
			domain.AttrArea,
			domain.AttrGender,
		},
	}
}

// syntheticBatch builds 6 schools x 20 students across two municipalities
// with score structure driven by school and stratum.
func syntheticBatch() domain.Batch {
	columns := []string{
		domain.FieldSchoolID,
		domain.FieldSchoolName,
		domain.FieldMunicipalityID,
		domain.FieldDepartmentID,
		domain.FieldGrade,
		domain.FieldPeriod,
		domain.AttrStratum,
		domain.AttrArea,
		domain.AttrGender,
		domain.AttrEthnicMinority,
		domain.SubjectGlobal,
		domain.SubjectMathematics,
		domain.SubjectCriticalReading,
	}

	var rows [][]string
	for s := 0; s < 6; s++ {
		area := domain.AreaUrban
		if s >= 3 {
			area = domain.AreaRural
		}
		municipality := "05001"
		if s%2 == 1 {
			municipality = "05002"
		}
		for i := 0; i < 20; i++ {
			gender := domain.GenderFemale
			if i%2 == 1 {
				gender = domain.GenderMale
			}
			minority := "N"
			if i%5 == 0 {
				minority = domain.MinorityFlag
			}
			rows = append(rows, []string{
				fmt.Sprintf("11100%d", s),
				fmt.Sprintf("COLEGIO %d", s),
				municipality,
				"05",
				"11",
				"20221",
				fmt.Sprintf("%d", 1+s%3),
				area,
				gender,
				minority,
				fmt.Sprintf("%d", 200+10*s+i),
				fmt.Sprintf("%d", 45+s+i%5),
				fmt.Sprintf("%d", 48+s+i%3),
			})
		}
	}
	return domain.Batch{Source: "saber11_2022.csv", Columns: columns, Rows: rows}
}

func TestAnalyticsService_Run(t *testing.T) {
	svc := NewAnalyticsService(testAnalyticsConfig(), testLogger())
	require.Nil(t, svc.Current())

	snapshot, err := svc.Run(context.Background(), []domain.Batch{syntheticBatch()}, RunOptions{})
	require.NoError(t, err)
	require.NotNil(t, snapshot)

	assert.Equal(t, 120, snapshot.RecordCount)
	assert.Zero(t, snapshot.DroppedRows)

	require.Len(t, snapshot.Levels, 3)
	school := snapshot.Levels[domain.LevelSchool]
	assert.Equal(t, domain.LevelSchool, school.Level)
	// 6 schools x 3 subjects, every school has every subject.
	assert.Len(t, school.Aggregates, 18)
	assert.Len(t, school.Normalized, 18)
	assert.Zero(t, school.Excluded)

	municipality := snapshot.Levels[domain.LevelMunicipality]
	assert.Len(t, municipality.Aggregates, 6)

	require.Len(t, snapshot.Fits, 3)
	for subject, outcome := range snapshot.Fits {
		require.NotNil(t, outcome.Set, "fit for %s should have run", subject)
		assert.Equal(t, subject, outcome.Subject)
		assert.Len(t, outcome.Set.Results, 6)
		assert.Empty(t, outcome.Reason)
	}

	kpiKeys := make([]string, 0, len(snapshot.KPIs))
	for _, r := range snapshot.KPIs {
		kpiKeys = append(kpiKeys, r.Key)
	}
	assert.Equal(t, []string{
		domain.KPIEquityLearningGap,
		domain.KPIRuralUrbanDivergence,
		domain.KPIMinorityResilience,
		domain.KPIGenderPremium,
		domain.KPIMunicipalEfficiency,
		domain.KPIVolatilityStabilizer,
	}, kpiKeys)

	require.Len(t, snapshot.MostImproved, 3)
	require.Len(t, snapshot.MostDeclined, 3)
	assert.Equal(t, 1, snapshot.MostImproved[0].Rank)
	assert.GreaterOrEqual(t,
		snapshot.MostImproved[0].Value,
		snapshot.MostDeclined[0].Value)

	assert.Same(t, snapshot, svc.Current())
}

func TestAnalyticsService_Run_FloorFailureIsAnOutcome(t *testing.T) {
	cfg := testAnalyticsConfig()
	cfg.RegressionFloor = 1000

	svc := NewAnalyticsService(cfg, testLogger())
	snapshot, err := svc.Run(context.Background(), []domain.Batch{syntheticBatch()}, RunOptions{})
	require.NoError(t, err)

	require.Len(t, snapshot.Fits, 3)
	for subject, outcome := range snapshot.Fits {
		assert.Nil(t, outcome.Set, "fit for %s should have been refused", subject)
		assert.Contains(t, outcome.Reason, "observations, floor is 1000")
	}

	// No global fit means no rankings, but aggregates still exist.
	assert.Empty(t, snapshot.MostImproved)
	assert.Empty(t, snapshot.MostDeclined)
	assert.NotEmpty(t, snapshot.Levels[domain.LevelSchool].Aggregates)
}

func TestAnalyticsService_Run_SentinelClearing(t *testing.T) {
	batch := syntheticBatch()
	// Two not-attempted sittings encoded as zero, the SABER 11 convention.
	batch.Rows[0][10] = "0"
	batch.Rows[1][10] = "0"

	sentinel := config.SentinelSaber11
	svc := NewAnalyticsService(testAnalyticsConfig(), testLogger())
	snapshot, err := svc.Run(context.Background(), []domain.Batch{batch}, RunOptions{Sentinel: &sentinel})
	require.NoError(t, err)

	assert.Equal(t, 2, snapshot.SentinelCleared)
	assert.Equal(t, 120, snapshot.RecordCount)
}

func TestBatchLoader_LoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "saber11_2022.csv")
	content := "\xEF\xBB\xBF" + domain.FieldSchoolID + "," + domain.SubjectGlobal + "\n" +
		"111001,250\n" +
		"111002,310\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	loader := NewBatchLoader(testLogger())
	batch, err := loader.LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "saber11_2022.csv", batch.Source)
	// BOM must not leak into the first header name.
	assert.Equal(t, []string{domain.FieldSchoolID, domain.SubjectGlobal}, batch.Columns)
	require.Len(t, batch.Rows, 2)
	assert.Equal(t, []string{"111002", "310"}, batch.Rows[1])
}

func TestBatchLoader_LoadDir(t *testing.T) {
	dir := t.TempDir()
	header := domain.FieldSchoolID + "," + domain.SubjectGlobal + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b_2023.csv"), []byte(header+"111002,260\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a_2022.csv"), []byte(header+"111001,250\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignore me"), 0o644))

	loader := NewBatchLoader(testLogger())
	batches, err := loader.LoadDir(dir)
	require.NoError(t, err)

	require.Len(t, batches, 2)
	assert.Equal(t, "a_2022.csv", batches[0].Source)
	assert.Equal(t, "b_2023.csv", batches[1].Source)
}
