package http

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	apierrors "cunydash/internal/errors"
	"cunydash/internal/exporter"
	mw "cunydash/internal/middleware"
	"cunydash/internal/services"
)

// DashboardHandler serves the dashboard page, its charts and the JSON API
type DashboardHandler struct {
	service      DashboardServiceInterface
	validator    *mw.RequestValidator
	exporter     *exporter.JoinedExporter
	errorHandler *apierrors.ErrorHandler
	page         PageConfig
	logger       *slog.Logger
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(
	service DashboardServiceInterface,
	validator *mw.RequestValidator,
	exp *exporter.JoinedExporter,
	errorHandler *apierrors.ErrorHandler,
	page PageConfig,
	logger *slog.Logger,
) *DashboardHandler {
	return &DashboardHandler{
		service:      service,
		validator:    validator,
		exporter:     exp,
		errorHandler: errorHandler,
		page:         page,
		logger:       logger.With(slog.String("component", "dashboard_handler")),
	}
}

// RegisterRoutes adds the page, chart and API routes to r
func (h *DashboardHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Index)
	r.Get("/charts/{figure}.svg", h.Chart)
	r.Get("/api/figures", h.Figures)
	r.Get("/api/options", h.Options)
	r.Get("/api/export/joined.{format}", h.Export)
}

// Index handles GET /
func (h *DashboardHandler) Index(w http.ResponseWriter, r *http.Request) {
	sel, err := h.selection(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	data := newPageData(h.page, h.service.Options(), h.service.FigureNames(), sel.Term, sel.College)

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to render page",
			slog.String("error", err.Error()))
		h.errorHandler.HandleError(w, r, fmt.Errorf("render page: %w", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}

// Chart handles GET /charts/{figure}.svg
func (h *DashboardHandler) Chart(w http.ResponseWriter, r *http.Request) {
	req, err := h.validator.Figure(r, chi.URLParam(r, "figure"))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	var buf bytes.Buffer
	sel := services.Selection{Term: req.Term, College: req.College}
	if err := h.service.RenderFigure(r.Context(), req.Figure, sel, &buf); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}

// Figures handles GET /api/figures
func (h *DashboardHandler) Figures(w http.ResponseWriter, r *http.Request) {
	sel, err := h.selection(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	set, err := h.service.Figures(r.Context(), sel)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.DebugContext(r.Context(), "figures computed",
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("term", set.Term),
		slog.String("college", set.College),
		slog.Int("figure_count", len(set.Figures)),
	)
	render.JSON(w, r, set)
}

// Options handles GET /api/options
func (h *DashboardHandler) Options(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{
		"variant": h.service.Variant(),
		"figures": h.service.FigureNames(),
		"options": h.service.Options(),
	})
}

// Export handles GET /api/export/joined.{format}
func (h *DashboardHandler) Export(w http.ResponseWriter, r *http.Request) {
	req, err := h.validator.Export(r, chi.URLParam(r, "format"))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	var buf bytes.Buffer
	rows := h.service.JoinedRows(req.Term)
	if err := h.exporter.Export(&buf, req.Format, rows); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.NewRenderError("failed to export joined view", err))
		return
	}

	w.Header().Set("Content-Type", exporter.ContentType(req.Format))
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, exporter.FileName(req.Term, req.Format)))
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}

// selection decodes and resolves the dropdown state of a request
func (h *DashboardHandler) selection(r *http.Request) (services.Selection, error) {
	req, err := h.validator.Selection(r)
	if err != nil {
		return services.Selection{}, err
	}
	return h.service.Resolve(services.Selection{Term: req.Term, College: req.College}), nil
}
