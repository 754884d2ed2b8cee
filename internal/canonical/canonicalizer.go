package canonical

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	apperrors "sabercli/internal/errors"
	"sabercli/pkg/contracts/domain"
)

// Canonicalizer converts raw tabular batches into canonical StudentRecords.
type Canonicalizer struct {
	vocab  *Vocabulary
	logger *slog.Logger
}

// Options configures one canonicalization run.
type Options struct {
	// Sentinel, when set, is the score value that encodes
	// exam-not-attempted in the source batches (100 for SABER 3/5/9,
	// 0 for SABER 11). Matching scores become missing, never real values.
	Sentinel *float64
}

// Result is the outcome of one canonicalization run. Dropped and
// SentinelCleared surface what was excluded so no record disappears
// without trace.
type Result struct {
	Records         []domain.StudentRecord
	Dropped         int
	SentinelCleared int
}

// NewCanonicalizer creates a canonicalizer with the given vocabulary.
func NewCanonicalizer(vocab *Vocabulary, logger *slog.Logger) *Canonicalizer {
	if vocab == nil {
		vocab = DefaultVocabulary()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Canonicalizer{vocab: vocab, logger: logger}
}

// Canonicalize converts one or more raw batches into canonical records.
// A batch in which no entity-identifier column resolves at all fails the
// whole run; rows that merely lack identifier values are dropped and
// counted.
func (c *Canonicalizer) Canonicalize(ctx context.Context, batches []domain.Batch, opts Options) (*Result, error) {
	result := &Result{}

	for _, batch := range batches {
		if err := c.canonicalizeBatch(ctx, batch, opts, result); err != nil {
			return nil, fmt.Errorf("batch %s: %w", batch.Source, err)
		}
	}

	c.logger.InfoContext(ctx, "canonicalization completed",
		slog.Int("batches", len(batches)),
		slog.Int("records", len(result.Records)),
		slog.Int("dropped", result.Dropped),
		slog.Int("sentinel_cleared", result.SentinelCleared),
	)

	return result, nil
}

func (c *Canonicalizer) canonicalizeBatch(ctx context.Context, batch domain.Batch, opts Options, result *Result) error {
	// Resolve the batch's columns against the vocabulary once.
	resolved := make([]string, len(batch.Columns))
	idCols := 0
	for i, raw := range batch.Columns {
		name := c.vocab.Resolve(raw)
		resolved[i] = name
		switch name {
		case domain.FieldSchoolID, domain.FieldMunicipalityID, domain.FieldDepartmentID:
			idCols++
		}
	}

	if idCols == 0 {
		return apperrors.NewMalformedInput("canonicalize",
			"no entity-identifier column resolves in batch")
	}

	dropped := 0
	for _, row := range batch.Rows {
		rec, ok := c.buildRecord(resolved, row, opts, result)
		if !ok {
			dropped++
			continue
		}
		result.Records = append(result.Records, rec)
	}

	if dropped > 0 {
		c.logger.WarnContext(ctx, "dropped rows without entity identifiers",
			slog.String("source", batch.Source),
			slog.Int("dropped", dropped),
		)
	}
	result.Dropped += dropped

	return nil
}

// buildRecord converts one raw row. ok is false when the row has no entity
// identifier value at all.
func (c *Canonicalizer) buildRecord(resolved []string, row []string, opts Options, result *Result) (domain.StudentRecord, bool) {
	rec := domain.StudentRecord{
		Scores:     make(map[string]float64),
		Attributes: make(map[string]string),
	}

	for i, name := range resolved {
		if name == "" || i >= len(row) {
			continue
		}
		value := strings.TrimSpace(row[i])
		if value == "" {
			continue
		}

		if IsSubject(name) {
			score, ok := parseScore(value)
			if !ok {
				continue
			}
			if opts.Sentinel != nil && score == *opts.Sentinel {
				result.SentinelCleared++
				continue
			}
			rec.Scores[name] = score
			continue
		}

		switch name {
		case domain.FieldSchoolID:
			rec.SchoolID = value
		case domain.FieldSchoolName:
			rec.SchoolName = value
		case domain.FieldMunicipalityID:
			rec.MunicipalityID = value
		case domain.FieldDepartmentID:
			rec.DepartmentID = value
		case domain.FieldGrade:
			rec.Grade = value
		case domain.FieldPeriod:
			rec.Period = value
			if rec.Year == 0 {
				rec.Year = yearFromPeriod(value)
			}
		case domain.FieldYear:
			if y, err := strconv.Atoi(value); err == nil {
				rec.Year = y
			}
		case domain.FieldMunicipalityName, domain.FieldDepartmentName:
			rec.Attributes[name] = value
		default:
			rec.Attributes[name] = strings.ToUpper(value)
		}
	}

	if rec.SchoolID == "" && rec.MunicipalityID == "" && rec.DepartmentID == "" {
		return domain.StudentRecord{}, false
	}

	return rec, true
}

// yearFromPeriod extracts the calendar year from a composite period code
// such as "20172" (2017, second sitting).
func yearFromPeriod(period string) int {
	if len(period) < 4 {
		return 0
	}
	y, err := strconv.Atoi(period[:4])
	if err != nil {
		return 0
	}
	return y
}

func parseScore(value string) (float64, bool) {
	switch strings.ToLower(value) {
	case "na", "nan", "null", "-":
		return 0, false
	}
	score, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(score) || math.IsInf(score, 0) {
		return 0, false
	}
	return score, true
}
