package http

import (
	"context"
	"io"

	"cunydash/internal/dataset"
	"cunydash/internal/services"
	"cunydash/internal/viewmodel"
)

// DashboardServiceInterface defines the dashboard operations used by the handler
type DashboardServiceInterface interface {
	Variant() string
	Options() viewmodel.Model
	FigureNames() []string
	Resolve(sel services.Selection) services.Selection
	Figures(ctx context.Context, sel services.Selection) (services.FigureSet, error)
	RenderFigure(ctx context.Context, name string, sel services.Selection, w io.Writer) error
	JoinedRows(term string) []dataset.JoinedRecord
}
