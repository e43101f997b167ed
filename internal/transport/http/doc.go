// Package http implements the HTTP handlers of the dashboards.
//
// Handlers stay thin: they decode and validate query parameters with the
// middleware.RequestValidator, call the dashboard or health service and
// write the result. Errors are written as RFC 7807 problem details through
// errors.ErrorHandler.
//
// Routes:
//
//	GET /                           dashboard page
//	GET /charts/{figure}.svg        one figure as SVG
//	GET /api/figures                figure specifications as JSON
//	GET /api/options                dropdown domains and defaults
//	GET /api/export/joined.{format} joined view as csv or xlsx
//	GET /api/health[/ready|/live]   health checks
//	GET /api/version                build information
//	GET /api/stats                  row counts of the loaded tables
//	GET /metrics                    Prometheus metrics
package http
