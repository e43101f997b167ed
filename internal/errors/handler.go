package errors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime"
	"runtime/debug"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

// Problem type URIs returned in the "type" member.
const (
	TypeValidation = "/errors/validation"
	TypeNotFound   = "/errors/not-found"
	TypeRateLimit  = "/errors/rate-limit"
	TypeInternal   = "/errors/internal"
	TypeTimeout    = "/errors/timeout"

	TypeFigureNotFound = "/errors/figure/not-found"
	TypeRenderFailed   = "/errors/figure/render-failed"
	TypeDataLoad       = "/errors/data/load-failed"
)

const stackBufSize = 8 << 10

// ErrorHandler writes dashboard failures as problem+json.
type ErrorHandler struct {
	logger       *slog.Logger
	includeStack bool
}

// NewErrorHandler returns a handler that logs through logger. Stacks are
// only attached to 500 responses when includeStack is set.
func NewErrorHandler(logger *slog.Logger, includeStack bool) *ErrorHandler {
	return &ErrorHandler{
		logger:       logger.With(slog.String("component", "problems")),
		includeStack: includeStack,
	}
}

// HandleError logs err and answers with its problem document. A nil err
// writes nothing.
func (h *ErrorHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}

	reqID := middleware.GetReqID(r.Context())
	h.logger.ErrorContext(r.Context(), "Dashboard request failed",
		slog.String("error", err.Error()),
		slog.String("request_id", reqID),
		slog.String("route", r.Method+" "+r.URL.Path),
	)

	problem := h.ErrorToProblem(err, r).WithExtension("trace_id", reqID)
	if h.includeStack && problem.Status == http.StatusInternalServerError {
		problem.WithExtension("stack", stack())
	}
	render.Render(w, r, problem)
}

// ErrorToProblem maps err onto a problem document for r.
func (h *ErrorHandler) ErrorToProblem(err error, r *http.Request) *ProblemDetails {
	var (
		apiErr *APIError
		appErr *AppError
	)
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return NewProblemDetails(http.StatusGatewayTimeout, TypeTimeout, "Request Timeout",
			"Figure building did not finish in time", r.URL.Path)
	case errors.As(err, &apiErr):
		return fromAPIError(apiErr, r.URL.Path)
	case errors.As(err, &appErr):
		return fromAppError(appErr, r.URL.Path)
	}
	return NewProblemDetails(http.StatusInternalServerError, TypeInternal, "Internal Server Error",
		"The dashboard could not answer this request", r.URL.Path)
}

func fromAPIError(apiErr *APIError, path string) *ProblemDetails {
	kind := TypeInternal
	switch apiErr.ErrorCode {
	case ErrValidationFailed.ErrorCode, ErrInvalidRequest.ErrorCode, ErrInvalidParameter.ErrorCode:
		kind = TypeValidation
	case ErrFigureNotFound.ErrorCode:
		kind = TypeFigureNotFound
	}

	problem := NewProblemDetails(apiErr.StatusCode, kind, http.StatusText(apiErr.StatusCode), apiErr.Message, path).
		WithExtension("error_code", apiErr.ErrorCode)
	if apiErr.Details != nil {
		problem.WithExtension("details", apiErr.Details)
	}
	return problem
}

// fromAppError answers data and config failures with 503: the dashboard is
// up but has nothing valid to draw.
func fromAppError(appErr *AppError, path string) *ProblemDetails {
	status, kind, title := http.StatusInternalServerError, TypeInternal, "Internal Server Error"
	switch appErr.Type {
	case ErrTypeRender:
		kind, title = TypeRenderFailed, "Render Failed"
	case ErrTypeLoad, ErrTypeParsing, ErrTypeConfig:
		status, kind, title = http.StatusServiceUnavailable, TypeDataLoad, "Data Unavailable"
	}

	problem := NewProblemDetails(status, kind, title, appErr.Message, path).
		WithExtension("error_type", string(appErr.Type))
	if len(appErr.Context) > 0 {
		problem.WithExtension("context", appErr.Context)
	}
	return problem
}

// HandlePanic answers a recovered panic with a 500.
func (h *ErrorHandler) HandlePanic(w http.ResponseWriter, r *http.Request, recovered interface{}) {
	reqID := middleware.GetReqID(r.Context())
	h.logger.ErrorContext(r.Context(), "Recovered handler panic",
		slog.Any("panic", recovered),
		slog.String("request_id", reqID),
		slog.String("route", r.Method+" "+r.URL.Path),
		slog.String("stack", string(debug.Stack())),
	)

	problem := NewProblemDetails(http.StatusInternalServerError, TypeInternal, "Internal Server Error",
		"The dashboard hit an unexpected fault", r.URL.Path).
		WithExtension("trace_id", reqID)
	if h.includeStack {
		problem.WithExtension("panic", fmt.Sprint(recovered))
		problem.WithExtension("stack", stack())
	}
	render.Render(w, r, problem)
}

// NotFound is the router's fallback for unknown paths.
func (h *ErrorHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	render.Render(w, r, NewProblemDetails(http.StatusNotFound, TypeNotFound, "Not Found",
		"No dashboard route matches this path", r.URL.Path).
		WithExtension("trace_id", middleware.GetReqID(r.Context())))
}

func (h *ErrorHandler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	render.Render(w, r, NewProblemDetails(http.StatusMethodNotAllowed, TypeInternal, "Method Not Allowed",
		fmt.Sprintf("Method %s is not allowed for this endpoint", r.Method), r.URL.Path).
		WithExtension("trace_id", middleware.GetReqID(r.Context())))
}

func stack() string {
	buf := make([]byte, stackBufSize)
	return string(buf[:runtime.Stack(buf, false)])
}
