package exporter

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"sabercli/internal/config"
)

func TestWorkbookWriter_Write(t *testing.T) {
	dir := t.TempDir()
	w := NewWorkbookWriter(config.PathsConfig{ReportsDir: dir}, nil)

	sheets := []Sheet{
		{
			Name: SheetKPIs,
			Table: Table{
				Headers: []string{"key", "status"},
				Records: [][]string{{"EALG", "green"}, {"RUCDI", "unavailable"}},
			},
		},
		{
			Name: SheetRankings,
			Table: Table{
				Headers: []string{"rank", "entity_id"},
				Records: [][]string{{"1", "111001"}},
			},
		},
	}
	require.NoError(t, w.Write("saber_report.xlsx", sheets))

	f, err := excelize.OpenFile(filepath.Join(dir, "saber_report.xlsx"))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetKPIs, SheetRankings}, f.GetSheetList())

	header, err := f.GetCellValue(SheetKPIs, "A1")
	require.NoError(t, err)
	assert.Equal(t, "key", header)

	cell, err := f.GetCellValue(SheetKPIs, "B3")
	require.NoError(t, err)
	assert.Equal(t, "unavailable", cell)

	rank, err := f.GetCellValue(SheetRankings, "A2")
	require.NoError(t, err)
	assert.Equal(t, "1", rank)
}
