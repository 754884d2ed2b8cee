package services

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"sabercli/pkg/contracts/domain"
)

// BatchLoader reads tabular CSV batches from disk into the canonical input
// shape. Heterogeneous per-year column spellings are left for the
// canonicalizer to resolve.
type BatchLoader struct {
	logger *slog.Logger
}

// NewBatchLoader creates a batch loader.
func NewBatchLoader(logger *slog.Logger) *BatchLoader {
	if logger == nil {
		logger = slog.Default()
	}
	return &BatchLoader{logger: logger}
}

// LoadFile reads one CSV file as a batch. The first row is the header.
func (l *BatchLoader) LoadFile(path string) (domain.Batch, error) {
	file, err := os.Open(path)
	if err != nil {
		return domain.Batch{}, fmt.Errorf("open batch file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // ragged rows surface as short records, not read errors

	header, err := reader.Read()
	if err != nil {
		return domain.Batch{}, fmt.Errorf("read header: %w", err)
	}
	// Strip a UTF-8 BOM left by spreadsheet exports.
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\uFEFF")
	}

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return domain.Batch{}, fmt.Errorf("read row: %w", err)
		}
		rows = append(rows, row)
	}

	l.logger.Info("batch loaded",
		slog.String("path", path),
		slog.Int("columns", len(header)),
		slog.Int("rows", len(rows)))

	return domain.Batch{Source: filepath.Base(path), Columns: header, Rows: rows}, nil
}

// LoadDir reads every .csv file in a directory, in name order.
func (l *BatchLoader) LoadDir(dir string) ([]domain.Batch, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read batch directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.EqualFold(filepath.Ext(entry.Name()), ".csv") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	batches := make([]domain.Batch, 0, len(names))
	for _, name := range names {
		batch, err := l.LoadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		batches = append(batches, batch)
	}
	return batches, nil
}
