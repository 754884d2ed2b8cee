// Command processor runs the full analytics pipeline over a directory of
// CSV score batches and writes the report tables as CSV files plus one
// Excel workbook.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"sabercli/internal/config"
	"sabercli/internal/exporter"
	"sabercli/internal/infrastructure"
	"sabercli/internal/services"
	"sabercli/pkg/contracts/domain"
)

func main() {
	inDir := flag.String("in", "", "input directory of CSV batches (defaults to the configured data dir)")
	outDir := flag.String("out", "", "output directory for reports (defaults to the configured reports dir)")
	exam := flag.String("exam", "saber11", "exam family: saber11 or saber359 (selects the not-attempted sentinel)")
	noSentinel := flag.Bool("keep-sentinels", false, "disable sentinel score clearing")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if *inDir == "" {
		*inDir = cfg.Paths.DataDir
	}
	if *outDir != "" {
		cfg.Paths.ReportsDir = *outDir
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()

	if err := run(cfg, logger, *inDir, *exam, *noSentinel); err != nil {
		logger.Error("processing failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger, inDir, exam string, keepSentinels bool) error {
	ctx := infrastructure.EnsureTraceID(context.Background())

	sentinel, err := sentinelFor(exam, keepSentinels)
	if err != nil {
		return err
	}

	loader := services.NewBatchLoader(logger)
	batches, err := loader.LoadDir(inDir)
	if err != nil {
		return fmt.Errorf("load batches: %w", err)
	}
	if len(batches) == 0 {
		return fmt.Errorf("no CSV batches found in %s", inDir)
	}

	service := services.NewAnalyticsService(cfg.Analytics, logger)
	snapshot, err := service.Run(ctx, batches, services.RunOptions{Sentinel: sentinel})
	if err != nil {
		return fmt.Errorf("run pipeline: %w", err)
	}

	logger.InfoContext(ctx, "pipeline results",
		slog.Int("records", snapshot.RecordCount),
		slog.Int("dropped_rows", snapshot.DroppedRows),
		slog.Int("sentinels_cleared", snapshot.SentinelCleared))

	return writeReports(cfg, logger, snapshot)
}

func sentinelFor(exam string, keepSentinels bool) (*float64, error) {
	if keepSentinels {
		return nil, nil
	}
	switch exam {
	case "saber11":
		v := config.SentinelSaber11
		return &v, nil
	case "saber359":
		v := config.SentinelSaber359
		return &v, nil
	}
	return nil, fmt.Errorf("unknown exam family %q", exam)
}

func writeReports(cfg *config.Config, logger *slog.Logger, snapshot *services.Snapshot) error {
	csvWriter := exporter.NewCSVWriter(cfg.Paths, logger)

	schoolReport := snapshot.Levels[domain.LevelSchool]
	aggregates := exporter.AggregateTable(schoolReport.Aggregates)
	normalized := exporter.NormalizedTable(schoolReport.Normalized)
	kpis := exporter.KPITable(snapshot.KPIs)

	if err := csvWriter.WriteTable("aggregates_school.csv", aggregates); err != nil {
		return err
	}
	if err := csvWriter.WriteTable("normalized_school.csv", normalized); err != nil {
		return err
	}
	if err := csvWriter.WriteTable("kpis.csv", kpis); err != nil {
		return err
	}

	sheets := []exporter.Sheet{
		{Name: exporter.SheetAggregates, Table: aggregates},
		{Name: exporter.SheetNormalized, Table: normalized},
		{Name: exporter.SheetKPIs, Table: kpis},
	}
	if outcome, ok := snapshot.Fits[domain.SubjectGlobal]; ok && outcome.Set != nil {
		residuals := exporter.ResidualTable(outcome.Set)
		if err := csvWriter.WriteTable("value_added.csv", residuals); err != nil {
			return err
		}
		sheets = append(sheets,
			exporter.Sheet{Name: exporter.SheetValueAdded, Table: residuals},
			exporter.Sheet{Name: exporter.SheetRankings, Table: exporter.RankingTable(snapshot.MostImproved)},
		)
	}

	workbook := exporter.NewWorkbookWriter(cfg.Paths, logger)
	return workbook.Write("saber_report.xlsx", sheets)
}
