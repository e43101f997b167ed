package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"

	"cunydash/internal/charts"
	"cunydash/internal/config"
	"cunydash/internal/dashboard"
	"cunydash/internal/dataset"
	apperrors "cunydash/internal/errors"
	"cunydash/internal/infrastructure"
	"cunydash/internal/viewmodel"
)

// Selection is the dropdown state of one callback. Empty fields select the
// dashboard defaults.
type Selection struct {
	Term    string `json:"term"`
	College string `json:"college,omitempty"`
}

// FigureSet is the result of one callback
type FigureSet struct {
	Variant string          `json:"variant"`
	Term    string          `json:"term"`
	College string          `json:"college,omitempty"`
	Figures []charts.Figure `json:"figures"`
}

// Figure returns the figure named name, if present
func (fs FigureSet) Figure(name string) (charts.Figure, bool) {
	for _, f := range fs.Figures {
		if f.Name == name {
			return f, true
		}
	}
	return charts.Figure{}, false
}

// DashboardService answers dropdown callbacks for one dashboard variant.
// It holds only read-only state and is safe for concurrent use.
type DashboardService struct {
	variant   string
	data      *dataset.Data
	model     viewmodel.Model
	presenter *dashboard.Presenter
	renderer  *charts.SVGRenderer
	metrics   *infrastructure.DashboardMetrics
	logger    *slog.Logger
}

// NewDashboardService creates the service for variant over loaded data.
// metrics may be nil.
func NewDashboardService(
	variant string,
	data *dataset.Data,
	presenter *dashboard.Presenter,
	renderer *charts.SVGRenderer,
	metrics *infrastructure.DashboardMetrics,
	logger *slog.Logger,
) (*DashboardService, error) {
	if data == nil {
		return nil, apperrors.NewConfigError("dataset not loaded", nil)
	}
	switch variant {
	case config.VariantEnrollment:
	case config.VariantRetention:
		if !data.HasRetention() {
			return nil, apperrors.NewConfigError("retention dashboard requires retention data", nil).
				WithContext("variant", variant)
		}
	default:
		return nil, apperrors.NewConfigError(fmt.Sprintf("unknown dashboard variant %q", variant), nil)
	}

	if presenter == nil {
		presenter = dashboard.NewPresenter(dashboard.DefaultSettings())
	}
	if renderer == nil {
		cfg := config.Default().Dashboard
		renderer = charts.NewSVGRenderer(cfg.ChartWidth, cfg.ChartHeight)
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &DashboardService{
		variant:   variant,
		data:      data,
		model:     viewmodel.Build(data),
		presenter: presenter,
		renderer:  renderer,
		metrics:   metrics,
		logger:    logger.With(slog.String("component", "dashboard_service")),
	}

	s.logger.Info("Dashboard service initialized",
		slog.String("variant", variant),
		slog.Int("fall_terms", len(s.model.FallTerms)),
		slog.String("default_term", s.model.DefaultFallTerm),
		slog.Int("colleges", len(s.model.Colleges)),
	)
	return s, nil
}

// Variant returns the dashboard variant served
func (s *DashboardService) Variant() string {
	return s.variant
}

// Options returns the dropdown domains and defaults
func (s *DashboardService) Options() viewmodel.Model {
	return s.model
}

// Data returns the loaded dataset
func (s *DashboardService) Data() *dataset.Data {
	return s.data
}

// FigureNames lists the figures of the variant in page order
func (s *DashboardService) FigureNames() []string {
	if s.variant == config.VariantRetention {
		return []string{dashboard.FigureHistogram, dashboard.FigureRetention}
	}
	return []string{dashboard.FigureHistogram, dashboard.FigureGeo}
}

// HasFigure reports whether name is a figure of the variant
func (s *DashboardService) HasFigure(name string) bool {
	for _, n := range s.FigureNames() {
		if n == name {
			return true
		}
	}
	return false
}

// Resolve fills empty selection fields with the defaults. Non-empty values
// are kept as given, even when they match no data.
func (s *DashboardService) Resolve(sel Selection) Selection {
	if sel.Term == "" {
		sel.Term = s.model.DefaultFallTerm
	}
	if s.variant != config.VariantRetention {
		sel.College = ""
	} else if sel.College == "" {
		sel.College = s.model.DefaultCollege
	}
	return sel
}

// Figures runs the callback for sel
func (s *DashboardService) Figures(ctx context.Context, sel Selection) (FigureSet, error) {
	sel = s.Resolve(sel)

	ctx, span := otel.Tracer(infrastructure.MeterName).Start(ctx, "dashboard.callback")
	defer span.End()
	infrastructure.SetSpanAttributes(ctx, map[string]string{
		"dashboard.variant": s.variant,
		"dashboard.term":    sel.Term,
		"dashboard.college": sel.College,
	})

	s.metrics.RecordCallback(ctx, s.variant)

	set := FigureSet{Variant: s.variant, Term: sel.Term, College: sel.College}
	switch s.variant {
	case config.VariantRetention:
		figs, err := s.presenter.UpdateRetention(s.data, sel.Term, sel.College)
		if err != nil {
			infrastructure.RecordError(ctx, err)
			return FigureSet{}, err
		}
		set.Figures = figs.All()
	default:
		figs, err := s.presenter.UpdateEnrollment(s.data, sel.Term)
		if err != nil {
			infrastructure.RecordError(ctx, err)
			return FigureSet{}, err
		}
		set.Figures = figs.All()
	}

	if !s.model.HasTerm(sel.Term) {
		s.logger.DebugContext(ctx, "Callback for unknown term",
			slog.String("term", sel.Term))
	}
	if s.variant == config.VariantRetention && !s.model.HasCollege(sel.College) {
		s.logger.DebugContext(ctx, "Callback for unknown college",
			slog.String("college", sel.College))
	}
	return set, nil
}

// Figure returns one figure of the callback for sel
func (s *DashboardService) Figure(ctx context.Context, name string, sel Selection) (charts.Figure, error) {
	if !s.HasFigure(name) {
		return charts.Figure{}, fmt.Errorf("%w: %q", apperrors.ErrFigureNotFound, name)
	}

	set, err := s.Figures(ctx, sel)
	if err != nil {
		return charts.Figure{}, err
	}
	fig, _ := set.Figure(name)
	return fig, nil
}

// RenderFigure writes the SVG rendering of one figure to w. Nothing is
// written when rendering fails.
func (s *DashboardService) RenderFigure(ctx context.Context, name string, sel Selection, w io.Writer) error {
	fig, err := s.Figure(ctx, name, sel)
	if err != nil {
		return err
	}

	start := time.Now()
	var buf bytes.Buffer
	err = s.renderer.Render(&buf, fig)
	duration := time.Since(start)
	s.metrics.RecordFigureRender(ctx, name, duration, err)

	if err != nil {
		s.logger.ErrorContext(ctx, "Figure render failed",
			slog.String("figure", name),
			slog.String("error", err.Error()),
		)
		return apperrors.NewRenderError("failed to render figure", err).WithContext("figure", name)
	}

	s.logger.DebugContext(ctx, "Figure rendered",
		slog.String("figure", name),
		slog.Int("bytes", buf.Len()),
		slog.Duration("duration", duration),
	)

	if _, err := buf.WriteTo(w); err != nil {
		return fmt.Errorf("write figure %s: %w", name, err)
	}
	return nil
}

// JoinedRows returns the joined view, restricted to term when it is set
func (s *DashboardService) JoinedRows(term string) []dataset.JoinedRecord {
	if term == "" {
		return s.data.Joined
	}
	return s.data.JoinedForTerm(term)
}
