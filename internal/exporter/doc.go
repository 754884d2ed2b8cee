// Package exporter writes the computed report tables to disk: BOM-prefixed
// UTF-8 CSV files for spreadsheet import and a multi-sheet Excel workbook
// collecting aggregates, normalized measures, value-added residuals and the
// KPI set in one deliverable.
package exporter
