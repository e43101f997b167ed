package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	apperrors "cunydash/internal/errors"
)

// SelectionRequest is the dropdown state sent with every figure request.
// Empty values select the defaults.
type SelectionRequest struct {
	Term    string `json:"term" validate:"omitempty,max=128,nocontrol"`
	College string `json:"college" validate:"omitempty,max=256,nocontrol"`
}

// ExportRequest selects the joined-view download
type ExportRequest struct {
	Format string `json:"format" validate:"required,oneof=csv xlsx"`
	Term   string `json:"term" validate:"omitempty,max=128,nocontrol"`
}

// FigureRequest names one figure of the current dashboard
type FigureRequest struct {
	Figure string `json:"figure" validate:"required,max=32,alpha"`
	SelectionRequest
}

// RequestValidator decodes and validates query parameters using struct tags
type RequestValidator struct {
	validator *validator.Validate
	logger    *slog.Logger
}

// NewRequestValidator creates a validator with the custom tags registered
func NewRequestValidator(logger *slog.Logger) *RequestValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterValidation("nocontrol", noControlChars)

	// Use JSON tag names in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &RequestValidator{
		validator: v,
		logger:    logger.With(slog.String("component", "request_validator")),
	}
}

// Selection decodes term and college from the query string
func (v *RequestValidator) Selection(r *http.Request) (SelectionRequest, error) {
	q := r.URL.Query()
	req := SelectionRequest{
		Term:    strings.TrimSpace(q.Get("term")),
		College: strings.TrimSpace(q.Get("college")),
	}
	return req, v.validate(r, req)
}

// Figure decodes a figure request from the route parameter and query string
func (v *RequestValidator) Figure(r *http.Request, figure string) (FigureRequest, error) {
	sel, err := v.Selection(r)
	if err != nil {
		return FigureRequest{}, err
	}
	req := FigureRequest{Figure: figure, SelectionRequest: sel}
	return req, v.validate(r, req)
}

// Export decodes an export request
func (v *RequestValidator) Export(r *http.Request, format string) (ExportRequest, error) {
	req := ExportRequest{
		Format: strings.ToLower(format),
		Term:   strings.TrimSpace(r.URL.Query().Get("term")),
	}
	return req, v.validate(r, req)
}

// ValidateStruct validates a struct and returns validation errors
func (v *RequestValidator) ValidateStruct(s interface{}) error {
	err := v.validator.Struct(s)
	if err == nil {
		return nil
	}

	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return apperrors.ErrInvalidRequest
	}

	validationErrors := make([]apperrors.ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		validationErrors = append(validationErrors, apperrors.ValidationError{
			Field:   fe.Field(),
			Message: formatValidationError(fe),
		})
	}
	return apperrors.NewValidationErrors(validationErrors)
}

func (v *RequestValidator) validate(r *http.Request, s interface{}) error {
	if err := v.ValidateStruct(s); err != nil {
		v.logger.WarnContext(r.Context(), "invalid request parameters",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		return err
	}
	return nil
}

// formatValidationError formats validation error messages
func formatValidationError(err validator.FieldError) string {
	field := err.Field()
	param := err.Param()

	switch err.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, param)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(param, " ", ", "))
	case "alpha":
		return fmt.Sprintf("%s must contain letters only", field)
	case "nocontrol":
		return fmt.Sprintf("%s must not contain control characters", field)
	default:
		return fmt.Sprintf("%s failed %s validation", field, err.Tag())
	}
}

// noControlChars rejects strings containing control characters
func noControlChars(fl validator.FieldLevel) bool {
	return strings.IndexFunc(fl.Field().String(), unicode.IsControl) < 0
}
