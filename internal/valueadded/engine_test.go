package valueadded

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "sabercli/internal/errors"
	"sabercli/pkg/contracts/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// syntheticRecords builds a deterministic record set with a real stratum
// signal plus a per-school offset, spread over nSchools schools.
func syntheticRecords(n, nSchools int) []domain.StudentRecord {
	records := make([]domain.StudentRecord, 0, n)
	for i := 0; i < n; i++ {
		school := i % nSchools
		stratum := i % 3
		area := domain.AreaUrban
		if school%2 == 1 {
			area = domain.AreaRural
		}
		score := 200.0 + 20.0*float64(stratum) + 5.0*float64(school) + 0.5*float64(i%7)
		records = append(records, domain.StudentRecord{
			SchoolID:   fmt.Sprintf("school-%02d", school),
			SchoolName: fmt.Sprintf("IE %02d", school),
			Scores:     map[string]float64{domain.SubjectGlobal: score},
			Attributes: map[string]string{
				domain.AttrStratum: fmt.Sprintf("%d", stratum),
				domain.AttrArea:    area,
			},
		})
	}
	return records
}

func testFitOptions() FitOptions {
	return FitOptions{
		TargetSubject: domain.SubjectGlobal,
		Features:      []string{domain.AttrStratum, domain.AttrArea},
		Level:         domain.LevelSchool,
	}
}

func TestFitResiduals_FloorRefused(t *testing.T) {
	e := NewEngine(testLogger())

	// 80 usable rows against the default floor of 100
	_, err := e.FitResiduals(context.Background(), syntheticRecords(80, 4), testFitOptions())
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInsufficientSample)
}

func TestFitResiduals_ResidualSignLaw(t *testing.T) {
	e := NewEngine(testLogger())

	set, err := e.FitResiduals(context.Background(), syntheticRecords(300, 6), testFitOptions())
	require.NoError(t, err)
	require.NotEmpty(t, set.Results)

	for _, r := range set.Results {
		assert.InDelta(t, r.Actual-r.Predicted, r.Residual, 1e-9, "entity %s", r.EntityID)
	}

	// sorting by residual descending is the published order
	sorted := sort.SliceIsSorted(set.Results, func(i, j int) bool {
		if set.Results[i].Residual != set.Results[j].Residual {
			return set.Results[i].Residual > set.Results[j].Residual
		}
		return set.Results[i].EntityID < set.Results[j].EntityID
	})
	assert.True(t, sorted)
}

func TestFitResiduals_Reproducible(t *testing.T) {
	e := NewEngine(testLogger())
	records := syntheticRecords(300, 6)

	first, err := e.FitResiduals(context.Background(), records, testFitOptions())
	require.NoError(t, err)
	second, err := e.FitResiduals(context.Background(), records, testFitOptions())
	require.NoError(t, err)

	// run and encoding ids differ, everything derived from the seeded fit
	// matches
	assert.NotEqual(t, first.Report.RunID, second.Report.RunID)
	assert.NotEqual(t, first.Report.EncodingID, second.Report.EncodingID)
	assert.Equal(t, first.Results, second.Results)
	assert.Equal(t, first.Report.R2, second.Report.R2)
	assert.Equal(t, first.Report.MAE, second.Report.MAE)
	assert.Equal(t, first.Report.RMSE, second.Report.RMSE)
	assert.Equal(t, first.Report.Importances, second.Report.Importances)
}

func TestFitResiduals_ReportShape(t *testing.T) {
	e := NewEngine(testLogger())

	set, err := e.FitResiduals(context.Background(), syntheticRecords(300, 6), testFitOptions())
	require.NoError(t, err)

	report := set.Report
	assert.NotEmpty(t, report.RunID)
	assert.NotEmpty(t, report.EncodingID)
	assert.Equal(t, domain.LevelSchool, report.Level)
	assert.Equal(t, 300, report.SampleCount)
	assert.Equal(t, 240, report.TrainCount)
	assert.Equal(t, 60, report.TestCount)

	// stratum carries the dominant signal, so importances exist and sum to 1
	var total float64
	for _, v := range report.Importances {
		total += v
	}
	assert.InDelta(t, 1.0, total, 1e-9)
	assert.Greater(t, report.Importances[domain.AttrStratum], report.Importances[domain.AttrArea])

	// six schools, one result each, with per-school counts intact
	assert.Len(t, set.Results, 6)
	for _, r := range set.Results {
		assert.Equal(t, 50, r.Count)
		assert.NotEmpty(t, r.Label)
	}
}

func TestFitResiduals_RandomForestModel(t *testing.T) {
	e := NewEngine(testLogger())

	opts := testFitOptions()
	opts.Model = ModelRandomForest
	opts.Floor = 50

	set, err := e.FitResiduals(context.Background(), syntheticRecords(120, 4), opts)
	require.NoError(t, err)
	assert.Len(t, set.Results, 4)
	for _, r := range set.Results {
		assert.False(t, math.IsNaN(r.Predicted))
	}
}

func TestFitResiduals_SkipsIncompleteRows(t *testing.T) {
	e := NewEngine(testLogger())

	records := syntheticRecords(150, 3)
	// strip the target from some rows and a feature from others
	delete(records[0].Scores, domain.SubjectGlobal)
	delete(records[1].Attributes, domain.AttrStratum)

	opts := testFitOptions()
	opts.Floor = 100

	set, err := e.FitResiduals(context.Background(), records, opts)
	require.NoError(t, err)
	assert.Equal(t, 148, set.Report.SampleCount)
}

func TestFitResiduals_ValidatesOptions(t *testing.T) {
	e := NewEngine(testLogger())
	records := syntheticRecords(200, 4)

	tests := []struct {
		name string
		opts FitOptions
	}{
		{
			name: "student level has no entity",
			opts: FitOptions{TargetSubject: domain.SubjectGlobal, Features: []string{domain.AttrStratum}, Level: domain.LevelStudent},
		},
		{
			name: "missing target",
			opts: FitOptions{Features: []string{domain.AttrStratum}, Level: domain.LevelSchool},
		},
		{
			name: "missing features",
			opts: FitOptions{TargetSubject: domain.SubjectGlobal, Level: domain.LevelSchool},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.FitResiduals(context.Background(), records, tt.opts)
			assert.ErrorIs(t, err, apperrors.ErrMalformedInput)
		})
	}
}
