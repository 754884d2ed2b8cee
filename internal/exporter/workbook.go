package exporter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"sabercli/internal/config"
)

// Workbook sheet names, in display order.
const (
	SheetAggregates = "Aggregates"
	SheetNormalized = "Normalized"
	SheetValueAdded = "ValueAdded"
	SheetKPIs       = "KPIs"
	SheetRankings   = "Rankings"
)

// WorkbookWriter assembles all report tables into a single Excel workbook.
type WorkbookWriter struct {
	paths  config.PathsConfig
	logger *slog.Logger
}

// NewWorkbookWriter creates a workbook writer rooted at the configured
// paths.
func NewWorkbookWriter(paths config.PathsConfig, logger *slog.Logger) *WorkbookWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkbookWriter{paths: paths, logger: logger}
}

// Sheet is one named table in a workbook.
type Sheet struct {
	Name  string
	Table Table
}

// Write saves a workbook with one sheet per table. Sheet order follows the
// slice order; the default Sheet1 is removed.
func (w *WorkbookWriter) Write(name string, sheets []Sheet) error {
	fullPath := w.paths.ReportPath(name)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return fmt.Errorf("create report directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	for _, sheet := range sheets {
		if _, err := f.NewSheet(sheet.Name); err != nil {
			return fmt.Errorf("create sheet %s: %w", sheet.Name, err)
		}
		if err := writeSheet(f, sheet.Name, sheet.Table); err != nil {
			return fmt.Errorf("fill sheet %s: %w", sheet.Name, err)
		}
	}
	if len(sheets) > 0 {
		if err := f.DeleteSheet("Sheet1"); err != nil {
			return fmt.Errorf("remove default sheet: %w", err)
		}
	}

	if err := f.SaveAs(fullPath); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}

	w.logger.Info("workbook written",
		slog.String("path", fullPath),
		slog.Int("sheets", len(sheets)))
	return nil
}

func writeSheet(f *excelize.File, name string, table Table) error {
	for col, header := range table.Headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(name, cell, header); err != nil {
			return err
		}
	}
	for row, record := range table.Records {
		for col, value := range record {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(name, cell, value); err != nil {
				return err
			}
		}
	}
	return nil
}
