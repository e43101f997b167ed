// Package services holds the dashboard logic that sits between the loaded
// dataset and the HTTP handlers.
//
// # Services
//
//   - DashboardService: resolves a term/college selection, builds the
//     figures for it and renders them to SVG
//   - HealthService: health, readiness, liveness, version and dataset stats
//
// DashboardService is bound to one variant for the life of the process:
// "enrollment" serves the histogram and the geographic map, "retention"
// serves the histogram and the retention trend for a selected college.
//
// # Callbacks
//
// Figures is the equivalent of a dropdown change. It never fails for an
// unknown term; the figures simply come back empty. Each call is counted in
// dashboard_callbacks_total and traced as a "dashboard.callback" span.
//
// # Errors
//
// Constructors return apperrors.APIError values so the application can
// fail fast at startup. Unknown figure names wrap apperrors.ErrFigureNotFound
// and render failures are returned as render errors with the figure name in
// their context.
package services
