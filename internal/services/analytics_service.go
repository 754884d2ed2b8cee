package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"sabercli/internal/analytics"
	"sabercli/internal/canonical"
	"sabercli/internal/config"
	apperrors "sabercli/internal/errors"
	"sabercli/internal/kpi"
	"sabercli/internal/ranking"
	"sabercli/internal/valueadded"
	"sabercli/pkg/contracts/domain"
)

// AnalyticsService runs the full pipeline over supplied record batches and
// publishes the result as an immutable snapshot. Concurrent readers see
// either the previous snapshot or the new one, never a mix.
type AnalyticsService struct {
	cfg    config.AnalyticsConfig
	logger *slog.Logger

	canonicalizer *canonical.Canonicalizer
	aggregator    *analytics.Aggregator
	normalizer    *analytics.Normalizer
	residuals     *valueadded.Engine
	kpis          *kpi.Engine

	mu       sync.RWMutex
	snapshot *Snapshot
}

// LevelReport holds the aggregate and standardized tables for one
// organizational level.
type LevelReport struct {
	Level      domain.Level                  `json:"level"`
	Aggregates []domain.AggregateRow         `json:"aggregates"`
	Normalized []domain.NormalizedMeasure    `json:"normalized"`
	Skipped    []analytics.SubjectDiagnostic `json:"skipped,omitempty"`
	Excluded   int                           `json:"excluded"`
}

// FitOutcome is one residual run, or the reason it was not produced.
type FitOutcome struct {
	Subject string              `json:"subject"`
	Set     *domain.ResidualSet `json:"set,omitempty"`
	Reason  string              `json:"reason,omitempty"`
}

// Snapshot is one complete pipeline result. All fields are read-only after
// publication.
type Snapshot struct {
	GeneratedAt     time.Time                    `json:"generated_at"`
	RecordCount     int                          `json:"record_count"`
	DroppedRows     int                          `json:"dropped_rows"`
	SentinelCleared int                          `json:"sentinel_cleared"`
	Levels          map[domain.Level]LevelReport `json:"levels"`
	Fits            map[string]FitOutcome        `json:"fits"`
	KPIs            []domain.KPIResult           `json:"kpis"`
	MostImproved    []domain.RankedEntity        `json:"most_improved"`
	MostDeclined    []domain.RankedEntity        `json:"most_declined"`
}

// RunOptions carries the per-run inputs that are not configuration.
type RunOptions struct {
	// Sentinel is the exam family's not-attempted score encoding; nil
	// disables sentinel clearing.
	Sentinel *float64
}

// NewAnalyticsService wires the pipeline stages.
func NewAnalyticsService(cfg config.AnalyticsConfig, logger *slog.Logger) *AnalyticsService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalyticsService{
		cfg:           cfg,
		logger:        logger,
		canonicalizer: canonical.NewCanonicalizer(canonical.DefaultVocabulary(), logger),
		aggregator:    analytics.NewAggregator(logger),
		normalizer:    analytics.NewNormalizer(logger),
		residuals:     valueadded.NewEngine(logger),
		kpis:          kpi.NewEngine(logger),
	}
}

// reportLevels are the organizational levels every run aggregates at.
var reportLevels = []domain.Level{
	domain.LevelSchool,
	domain.LevelMunicipality,
	domain.LevelDepartment,
}

// Run executes the pipeline over the batches and publishes the snapshot.
func (s *AnalyticsService) Run(ctx context.Context, batches []domain.Batch, opts RunOptions) (*Snapshot, error) {
	start := time.Now()

	canonResult, err := s.canonicalizer.Canonicalize(ctx, batches, canonical.Options{Sentinel: opts.Sentinel})
	if err != nil {
		return nil, fmt.Errorf("canonicalize: %w", err)
	}
	records := canonResult.Records
	subjects := s.cfg.SubjectsOrDefault()

	snapshot := &Snapshot{
		GeneratedAt:     time.Now(),
		RecordCount:     len(records),
		DroppedRows:     canonResult.Dropped,
		SentinelCleared: canonResult.SentinelCleared,
		Levels:          make(map[domain.Level]LevelReport, len(reportLevels)),
		Fits:            make(map[string]FitOutcome, len(subjects)),
	}

	for _, level := range reportLevels {
		report, err := s.levelReport(ctx, records, level, subjects)
		if err != nil {
			return nil, fmt.Errorf("level %s: %w", level, err)
		}
		snapshot.Levels[level] = report
	}

	if err := s.runFits(ctx, records, subjects, snapshot); err != nil {
		return nil, err
	}

	snapshot.KPIs = s.kpis.Compute(ctx, records, kpi.Options{
		SubgroupFloor: s.cfg.SubgroupFloor,
	})

	if outcome, ok := snapshot.Fits[domain.SubjectGlobal]; ok && outcome.Set != nil {
		snapshot.MostImproved = ranking.TopN(outcome.Set.Results, ranking.ByResidual, s.cfg.TopN)
		snapshot.MostDeclined = ranking.BottomN(outcome.Set.Results, ranking.ByResidual, s.cfg.TopN)
	}

	s.mu.Lock()
	s.snapshot = snapshot
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "pipeline completed",
		slog.Int("records", snapshot.RecordCount),
		slog.Int("dropped", snapshot.DroppedRows),
		slog.Int("levels", len(snapshot.Levels)),
		slog.Int("fits", len(snapshot.Fits)),
		slog.Duration("duration", time.Since(start)),
	)

	return snapshot, nil
}

func (s *AnalyticsService) levelReport(ctx context.Context, records []domain.StudentRecord, level domain.Level, subjects []string) (LevelReport, error) {
	aggResult, err := s.aggregator.Aggregate(ctx, records, config.DefaultGroupKeys(level), subjects)
	if err != nil {
		return LevelReport{}, fmt.Errorf("aggregate: %w", err)
	}
	normResult, err := s.normalizer.Normalize(ctx, aggResult.Rows, s.cfg.ClipBound)
	if err != nil {
		return LevelReport{}, fmt.Errorf("normalize: %w", err)
	}
	return LevelReport{
		Level:      level,
		Aggregates: aggResult.Rows,
		Normalized: normResult.Measures,
		Skipped:    normResult.Skipped,
		Excluded:   aggResult.Excluded,
	}, nil
}

// runFits fans out one school-level residual fit per subject. Fits that
// fail the sample floor are recorded as outcomes, not run failures.
func (s *AnalyticsService) runFits(ctx context.Context, records []domain.StudentRecord, subjects []string, snapshot *Snapshot) error {
	outcomes := make([]FitOutcome, len(subjects))

	g, gctx := errgroup.WithContext(ctx)
	for i, subject := range subjects {
		i, subject := i, subject
		g.Go(func() error {
			set, err := s.residuals.FitResiduals(gctx, records, valueadded.FitOptions{
				TargetSubject: subject,
				Features:      s.cfg.FeaturesOrDefault(),
				Level:         domain.LevelSchool,
				Floor:         s.cfg.RegressionFloor,
				TestRatio:     s.cfg.TestRatio,
				Seed:          s.cfg.Seed,
			})
			if err != nil {
				if errors.Is(err, apperrors.ErrInsufficientSample) {
					outcomes[i] = FitOutcome{Subject: subject, Reason: err.Error()}
					return nil
				}
				return fmt.Errorf("fit %s: %w", subject, err)
			}
			outcomes[i] = FitOutcome{Subject: subject, Set: set}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, outcome := range outcomes {
		snapshot.Fits[outcome.Subject] = outcome
	}
	return nil
}

// Current returns the latest published snapshot, or nil before the first
// run completes.
func (s *AnalyticsService) Current() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}
