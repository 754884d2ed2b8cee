package canonical

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "sabercli/internal/errors"
	"sabercli/pkg/contracts/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCanonicalize_BasicBatch(t *testing.T) {
	c := NewCanonicalizer(nil, testLogger())

	batch := domain.Batch{
		Source:  "saber11_2019.csv",
		Columns: []string{"COLE_COD_DANE_ESTABLECIMIENTO", "cole_nombre_establecimiento", "periodo", "punt_matematicas", "cole_area_ubicacion"},
		Rows: [][]string{
			{"10101", "IE Central", "20192", "55.5", "urbano"},
			{"10102", "IE Rural Norte", "20192", "48.0", "rural"},
		},
	}

	result, err := c.Canonicalize(context.Background(), []domain.Batch{batch}, Options{})
	require.NoError(t, err)
	require.Len(t, result.Records, 2)

	rec := result.Records[0]
	assert.Equal(t, "10101", rec.SchoolID)
	assert.Equal(t, "IE Central", rec.SchoolName)
	assert.Equal(t, 2019, rec.Year)
	assert.Equal(t, "20192", rec.Period)

	score, ok := rec.Score(domain.SubjectMathematics)
	require.True(t, ok)
	assert.InDelta(t, 55.5, score, 1e-9)

	// categorical values are normalized to upper case
	assert.Equal(t, domain.AreaUrban, rec.Attribute(domain.AttrArea))
}

func TestCanonicalize_AliasResolution(t *testing.T) {
	c := NewCanonicalizer(nil, testLogger())

	batch := domain.Batch{
		Source:  "saber359_2016.csv",
		Columns: []string{"CODIGO", "GRADO", "PUNT_LENGUAJE"},
		Rows:    [][]string{{"20202", "5", "310"}},
	}

	result, err := c.Canonicalize(context.Background(), []domain.Batch{batch}, Options{})
	require.NoError(t, err)
	require.Len(t, result.Records, 1)

	rec := result.Records[0]
	assert.Equal(t, "20202", rec.SchoolID)
	assert.Equal(t, "5", rec.Grade)
	score, ok := rec.Score(domain.SubjectCriticalReading)
	require.True(t, ok)
	assert.InDelta(t, 310, score, 1e-9)
}

func TestCanonicalize_SentinelScores(t *testing.T) {
	tests := []struct {
		name            string
		sentinel        float64
		scores          []string
		wantPresent     int
		wantSentinelCnt int
	}{
		{
			name:            "saber 3/5/9 sentinel 100",
			sentinel:        100,
			scores:          []string{"100", "250", "100"},
			wantPresent:     1,
			wantSentinelCnt: 2,
		},
		{
			name:            "saber 11 sentinel 0",
			sentinel:        0,
			scores:          []string{"0", "55"},
			wantPresent:     1,
			wantSentinelCnt: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCanonicalizer(nil, testLogger())

			rows := make([][]string, len(tt.scores))
			for i, s := range tt.scores {
				rows[i] = []string{"30303", s}
			}
			batch := domain.Batch{
				Source:  "batch.csv",
				Columns: []string{"cole_cod_dane_establecimiento", "punt_matematicas"},
				Rows:    rows,
			}

			result, err := c.Canonicalize(context.Background(), []domain.Batch{batch}, Options{Sentinel: &tt.sentinel})
			require.NoError(t, err)
			assert.Equal(t, tt.wantSentinelCnt, result.SentinelCleared)

			present := 0
			for _, rec := range result.Records {
				if _, ok := rec.Score(domain.SubjectMathematics); ok {
					present++
				}
			}
			assert.Equal(t, tt.wantPresent, present)
		})
	}
}

func TestCanonicalize_DropsRowsWithoutIdentifier(t *testing.T) {
	c := NewCanonicalizer(nil, testLogger())

	batch := domain.Batch{
		Source:  "batch.csv",
		Columns: []string{"cole_cod_dane_establecimiento", "punt_global"},
		Rows: [][]string{
			{"40404", "280"},
			{"", "300"},
			{"  ", "310"},
		},
	}

	result, err := c.Canonicalize(context.Background(), []domain.Batch{batch}, Options{})
	require.NoError(t, err)
	assert.Len(t, result.Records, 1)
	assert.Equal(t, 2, result.Dropped)
}

func TestCanonicalize_NoIdentifierColumnFails(t *testing.T) {
	c := NewCanonicalizer(nil, testLogger())

	batch := domain.Batch{
		Source:  "broken.csv",
		Columns: []string{"punt_global", "estu_genero"},
		Rows:    [][]string{{"280", "F"}},
	}

	_, err := c.Canonicalize(context.Background(), []domain.Batch{batch}, Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrMalformedInput)
}

func TestCanonicalize_UnparsableScoresAreMissing(t *testing.T) {
	c := NewCanonicalizer(nil, testLogger())

	batch := domain.Batch{
		Source:  "batch.csv",
		Columns: []string{"cole_cod_dane_establecimiento", "punt_ingles"},
		Rows: [][]string{
			{"50505", "NA"},
			{"50505", "nan"},
			{"50505", "-"},
			{"50505", "not-a-number"},
			{"50505", "61.3"},
		},
	}

	result, err := c.Canonicalize(context.Background(), []domain.Batch{batch}, Options{})
	require.NoError(t, err)
	require.Len(t, result.Records, 5)

	present := 0
	for _, rec := range result.Records {
		if _, ok := rec.Score(domain.SubjectEnglish); ok {
			present++
		}
	}
	assert.Equal(t, 1, present)
}

func TestYearFromPeriod(t *testing.T) {
	tests := []struct {
		period string
		want   int
	}{
		{"20172", 2017},
		{"20191", 2019},
		{"2016", 2016},
		{"bad", 0},
		{"20", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, yearFromPeriod(tt.period), "period %q", tt.period)
	}
}
