package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "sabercli/internal/errors"
	"sabercli/internal/ranking"
	"sabercli/internal/services"
	"sabercli/pkg/contracts/domain"
)

// SnapshotProvider is the read side of the analytics service.
type SnapshotProvider interface {
	Current() *services.Snapshot
}

// ReportHandler serves the computed report tables.
type ReportHandler struct {
	provider     SnapshotProvider
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewReportHandler creates a report handler.
func NewReportHandler(provider SnapshotProvider, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ReportHandler {
	return &ReportHandler{
		provider:     provider,
		logger:       logger.With(slog.String("component", "report_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the report routes.
func (h *ReportHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/aggregates", h.GetAggregates)
	r.Get("/normalized", h.GetNormalized)
	r.Get("/residuals", h.GetResiduals)
	r.Get("/kpis", h.GetKPIs)
	r.Get("/rankings", h.GetRankings)

	return r
}

// GetAggregates handles GET /api/aggregates?level=school.
func (h *ReportHandler) GetAggregates(w http.ResponseWriter, r *http.Request) {
	snapshot, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	report, ok := h.levelReport(w, r, snapshot)
	if !ok {
		return
	}

	render.JSON(w, r, map[string]any{
		"level":      report.Level,
		"aggregates": report.Aggregates,
		"excluded":   report.Excluded,
	})
}

// GetNormalized handles GET /api/normalized?level=school.
func (h *ReportHandler) GetNormalized(w http.ResponseWriter, r *http.Request) {
	snapshot, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	report, ok := h.levelReport(w, r, snapshot)
	if !ok {
		return
	}

	render.JSON(w, r, map[string]any{
		"level":      report.Level,
		"normalized": report.Normalized,
		"skipped":    report.Skipped,
	})
}

// GetResiduals handles GET /api/residuals?subject=punt_global.
func (h *ReportHandler) GetResiduals(w http.ResponseWriter, r *http.Request) {
	snapshot, ok := h.snapshot(w, r)
	if !ok {
		return
	}

	subject := r.URL.Query().Get("subject")
	if subject == "" {
		subject = domain.SubjectGlobal
	}
	outcome, ok := snapshot.Fits[subject]
	if !ok {
		h.errorHandler.HandleError(w, r, apierrors.NewMalformedInput("get_residuals",
			"no fit exists for subject "+subject))
		return
	}

	render.JSON(w, r, outcome)
}

// GetKPIs handles GET /api/kpis.
func (h *ReportHandler) GetKPIs(w http.ResponseWriter, r *http.Request) {
	snapshot, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	render.JSON(w, r, map[string]any{
		"generated_at": snapshot.GeneratedAt,
		"kpis":         snapshot.KPIs,
	})
}

// GetRankings handles GET /api/rankings?subject=punt_global&n=10. The
// response carries both extremes of the ranking for the requested fit.
func (h *ReportHandler) GetRankings(w http.ResponseWriter, r *http.Request) {
	snapshot, ok := h.snapshot(w, r)
	if !ok {
		return
	}

	subject := r.URL.Query().Get("subject")
	if subject == "" {
		subject = domain.SubjectGlobal
	}
	outcome, found := snapshot.Fits[subject]
	if !found || outcome.Set == nil {
		h.errorHandler.HandleError(w, r, apierrors.NewMalformedInput("get_rankings",
			"no fit exists for subject "+subject))
		return
	}

	n := 10
	if raw := r.URL.Query().Get("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			h.errorHandler.HandleError(w, r, apierrors.NewMalformedInput("get_rankings",
				"n must be a positive integer"))
			return
		}
		n = parsed
	}

	render.JSON(w, r, map[string]any{
		"subject":       subject,
		"most_improved": ranking.TopN(outcome.Set.Results, ranking.ByResidual, n),
		"most_declined": ranking.BottomN(outcome.Set.Results, ranking.ByResidual, n),
	})
}

func (h *ReportHandler) snapshot(w http.ResponseWriter, r *http.Request) (*services.Snapshot, bool) {
	snapshot := h.provider.Current()
	if snapshot == nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrNotComputed)
		return nil, false
	}
	return snapshot, true
}

func (h *ReportHandler) levelReport(w http.ResponseWriter, r *http.Request, snapshot *services.Snapshot) (services.LevelReport, bool) {
	level := domain.Level(r.URL.Query().Get("level"))
	if level == "" {
		level = domain.LevelSchool
	}
	report, ok := snapshot.Levels[level]
	if !ok {
		h.errorHandler.HandleError(w, r, apierrors.NewMalformedInput("get_level_report",
			"unknown level "+string(level)))
		return services.LevelReport{}, false
	}
	return report, true
}
