package kpi

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"sabercli/pkg/contracts/domain"
)

// DefaultSubgroupFloor is the minimum subgroup size an indicator accepts.
const DefaultSubgroupFloor = 30

// Options parameterizes one KPI computation run.
type Options struct {
	// TargetSubject is the score column EALG, RUCDI, ERR and MEF read.
	// Empty selects the global score.
	TargetSubject string
	// GenderTargetSubject and GenderControlSubject are the predicted and
	// controlling subjects for GNCTP. Empty selects mathematics predicted
	// from critical reading.
	GenderTargetSubject  string
	GenderControlSubject string
	// Subjects is the subject set SVS measures volatility across. Empty
	// selects the five individual subject scores.
	Subjects []string
	// SubgroupFloor is the minimum subgroup/entity sample size; <=0
	// selects DefaultSubgroupFloor. Values below 2 are raised to 2.
	SubgroupFloor int
}

// Engine computes the six-indicator KPI set.
type Engine struct {
	logger *slog.Logger
}

// NewEngine creates a KPI engine.
func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{logger: logger}
}

// Compute evaluates all six indicators over the record set and returns them
// in a fixed order. Indicators that cannot be computed are returned as
// unavailable with a reason; Compute never errors and never drops an entry.
func (e *Engine) Compute(ctx context.Context, records []domain.StudentRecord, opts Options) []domain.KPIResult {
	start := time.Now()
	applyKPIDefaults(&opts)

	indicators := map[string]func([]domain.StudentRecord, Options) domain.KPIResult{
		domain.KPIEquityLearningGap:    e.learningGap,
		domain.KPIRuralUrbanDivergence: e.ruralUrbanDivergence,
		domain.KPIMinorityResilience:   e.minorityResilience,
		domain.KPIGenderPremium:        e.genderPremium,
		domain.KPIMunicipalEfficiency:  e.municipalEfficiency,
		domain.KPIVolatilityStabilizer: e.volatilityStabilizer,
	}

	results := make([]domain.KPIResult, 0, len(order))
	for _, key := range order {
		results = append(results, indicators[key](records, opts))
	}

	availableCount := 0
	for _, r := range results {
		if r.Available {
			availableCount++
		}
	}
	e.logger.InfoContext(ctx, "kpi set computed",
		slog.Int("records", len(records)),
		slog.Int("available", availableCount),
		slog.String("target", opts.TargetSubject),
		slog.Duration("duration", time.Since(start)),
	)

	return results
}

func applyKPIDefaults(opts *Options) {
	if opts.TargetSubject == "" {
		opts.TargetSubject = domain.SubjectGlobal
	}
	if opts.GenderTargetSubject == "" {
		opts.GenderTargetSubject = domain.SubjectMathematics
	}
	if opts.GenderControlSubject == "" {
		opts.GenderControlSubject = domain.SubjectCriticalReading
	}
	if len(opts.Subjects) == 0 {
		opts.Subjects = []string{
			domain.SubjectCriticalReading,
			domain.SubjectMathematics,
			domain.SubjectNaturalSciences,
			domain.SubjectSocialSciences,
			domain.SubjectEnglish,
		}
	}
	if opts.SubgroupFloor <= 0 {
		opts.SubgroupFloor = DefaultSubgroupFloor
	}
	if opts.SubgroupFloor < 2 {
		opts.SubgroupFloor = 2
	}
}

// learningGap is 1 - R² of the target score regressed on socioeconomic
// stratum and area. High values mean scores are weakly determined by context.
func (e *Engine) learningGap(records []domain.StudentRecord, opts Options) domain.KPIResult {
	def := definitions[domain.KPIEquityLearningGap]

	var y []float64
	var strata, areas []string
	for _, rec := range records {
		score, ok := rec.Score(opts.TargetSubject)
		if !ok {
			continue
		}
		stratum := rec.Attribute(domain.AttrStratum)
		area := rec.Attribute(domain.AttrArea)
		if stratum == "" || area == "" {
			continue
		}
		y = append(y, score)
		strata = append(strata, stratum)
		areas = append(areas, area)
	}
	if len(y) < opts.SubgroupFloor {
		return unavailable(def, insufficientReason(len(y), opts.SubgroupFloor))
	}

	fit, ok := fitOLS2(encodeCategories(strata), encodeCategories(areas), y)
	if !ok {
		return unavailable(def, "stratum and area are constant or collinear")
	}
	return available(def, 1-fit.r2)
}

// ruralUrbanDivergence is Cohen's d between urban and rural student scores,
// restricted to schools meeting the sample floor.
func (e *Engine) ruralUrbanDivergence(records []domain.StudentRecord, opts Options) domain.KPIResult {
	def := definitions[domain.KPIRuralUrbanDivergence]

	// Schools below the floor are excluded entirely so a handful of
	// students cannot represent a school in either subgroup.
	schoolCounts := make(map[string]int)
	for _, rec := range records {
		if _, ok := rec.Score(opts.TargetSubject); !ok {
			continue
		}
		if rec.SchoolID != "" && rec.Attribute(domain.AttrArea) != "" {
			schoolCounts[rec.SchoolID]++
		}
	}

	var urban, rural []float64
	for _, rec := range records {
		score, ok := rec.Score(opts.TargetSubject)
		if !ok || rec.SchoolID == "" || schoolCounts[rec.SchoolID] < opts.SubgroupFloor {
			continue
		}
		switch rec.Attribute(domain.AttrArea) {
		case domain.AreaUrban:
			urban = append(urban, score)
		case domain.AreaRural:
			rural = append(rural, score)
		}
	}
	if len(urban) < opts.SubgroupFloor || len(rural) < opts.SubgroupFloor {
		return unavailable(def, insufficientReason(min(len(urban), len(rural)), opts.SubgroupFloor))
	}

	meanU, meanR := stat.Mean(urban, nil), stat.Mean(rural, nil)
	sdU, sdR := stat.StdDev(urban, nil), stat.StdDev(rural, nil)
	nU, nR := float64(len(urban)), float64(len(rural))
	pooled := math.Sqrt(((nU-1)*sdU*sdU + (nR-1)*sdR*sdR) / (nU + nR - 2))
	if pooled == 0 {
		if meanU == meanR {
			return available(def, 0)
		}
		return unavailable(def, "zero variance in both subgroups")
	}
	return available(def, math.Abs(meanU-meanR)/pooled)
}

// minorityResilience is the mean score of the ethnic-minority subgroup
// divided by the mean of the complement. Records without the minority
// attribute are excluded.
func (e *Engine) minorityResilience(records []domain.StudentRecord, opts Options) domain.KPIResult {
	def := definitions[domain.KPIMinorityResilience]

	var minority, complement []float64
	for _, rec := range records {
		score, ok := rec.Score(opts.TargetSubject)
		if !ok {
			continue
		}
		switch rec.Attribute(domain.AttrEthnicMinority) {
		case "":
		case domain.MinorityFlag:
			minority = append(minority, score)
		default:
			complement = append(complement, score)
		}
	}
	if len(minority) < opts.SubgroupFloor || len(complement) < opts.SubgroupFloor {
		return unavailable(def, insufficientReason(min(len(minority), len(complement)), opts.SubgroupFloor))
	}

	complementMean := stat.Mean(complement, nil)
	if complementMean == 0 {
		return unavailable(def, "complement subgroup mean is zero")
	}
	return available(def, stat.Mean(minority, nil)/complementMean)
}

// genderPremium is the coefficient on a female indicator when predicting the
// gender target subject from the control subject.
func (e *Engine) genderPremium(records []domain.StudentRecord, opts Options) domain.KPIResult {
	def := definitions[domain.KPIGenderPremium]

	var control, gender, target []float64
	for _, rec := range records {
		targetScore, okT := rec.Score(opts.GenderTargetSubject)
		controlScore, okC := rec.Score(opts.GenderControlSubject)
		g := rec.Attribute(domain.AttrGender)
		if !okT || !okC || g == "" {
			continue
		}
		indicator := 0.0
		if g == domain.GenderFemale {
			indicator = 1.0
		}
		control = append(control, controlScore)
		gender = append(gender, indicator)
		target = append(target, targetScore)
	}
	if len(target) < opts.SubgroupFloor {
		return unavailable(def, insufficientReason(len(target), opts.SubgroupFloor))
	}

	fit, ok := fitOLS2(control, gender, target)
	if !ok {
		return unavailable(def, "control subject or gender indicator is constant")
	}
	return available(def, fit.coefs[1])
}

// municipalEfficiency is the percentage of municipalities whose mean score
// exceeds the 90th percentile of all municipal means.
func (e *Engine) municipalEfficiency(records []domain.StudentRecord, opts Options) domain.KPIResult {
	def := definitions[domain.KPIMunicipalEfficiency]

	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, rec := range records {
		score, ok := rec.Score(opts.TargetSubject)
		if !ok || rec.MunicipalityID == "" {
			continue
		}
		sums[rec.MunicipalityID] += score
		counts[rec.MunicipalityID]++
	}

	means := make([]float64, 0, len(sums))
	for id, sum := range sums {
		if counts[id] < opts.SubgroupFloor {
			continue
		}
		means = append(means, sum/float64(counts[id]))
	}
	if len(means) < 2 {
		return unavailable(def, insufficientReason(len(means), 2))
	}

	sort.Float64s(means)
	p90 := stat.Quantile(0.9, stat.Empirical, means, nil)
	above := 0
	for _, m := range means {
		if m > p90 {
			above++
		}
	}
	return available(def, 100*float64(above)/float64(len(means)))
}

// volatilityStabilizer is one minus the median coefficient of variation of
// per-school subject means.
func (e *Engine) volatilityStabilizer(records []domain.StudentRecord, opts Options) domain.KPIResult {
	def := definitions[domain.KPIVolatilityStabilizer]

	type subjectAccum struct {
		sums   map[string]float64
		counts map[string]int
		total  int
	}
	bySchool := make(map[string]*subjectAccum)
	for _, rec := range records {
		if rec.SchoolID == "" {
			continue
		}
		a, ok := bySchool[rec.SchoolID]
		if !ok {
			a = &subjectAccum{sums: make(map[string]float64), counts: make(map[string]int)}
			bySchool[rec.SchoolID] = a
		}
		a.total++
		for _, subject := range opts.Subjects {
			if score, ok := rec.Score(subject); ok {
				a.sums[subject] += score
				a.counts[subject]++
			}
		}
	}

	var cvs []float64
	for _, a := range bySchool {
		if a.total < opts.SubgroupFloor {
			continue
		}
		var means []float64
		for _, subject := range opts.Subjects {
			if n := a.counts[subject]; n > 0 {
				means = append(means, a.sums[subject]/float64(n))
			}
		}
		if len(means) < 2 {
			continue
		}
		mean := stat.Mean(means, nil)
		if mean <= 0 {
			continue
		}
		cvs = append(cvs, stat.StdDev(means, nil)/mean)
	}
	if len(cvs) == 0 {
		return unavailable(def, "no school meets the sample floor with two or more subjects")
	}

	sort.Float64s(cvs)
	return available(def, 1-median(cvs))
}

// median of a sorted slice.
func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func insufficientReason(got, floor int) string {
	return fmt.Sprintf("insufficient sample: %d observations, floor %d", got, floor)
}
