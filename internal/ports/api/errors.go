package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"drone-survey-system/internal/application"
	"drone-survey-system/internal/domain"
)

// APIError є структурованою відповіддю з помилкою
type APIError struct {
	StatusCode int         `json:"-"`
	ErrorCode  string      `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
}

// Error реалізує інтерфейс error
func (e *APIError) Error() string {
	return e.Message
}

// Render реалізує render.Renderer
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

// FieldError описує одне невалідне поле запиту
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func newAPIError(status int, code, message string) *APIError {
	return &APIError{StatusCode: status, ErrorCode: code, Message: message}
}

var errUnauthorized = newAPIError(http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")

// errorResponse відображає доменну помилку на HTTP-відповідь
func errorResponse(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	switch {
	case errors.Is(err, domain.ErrInvalidStatus):
		return newAPIError(http.StatusBadRequest, "INVALID_STATUS", err.Error())
	case errors.Is(err, domain.ErrIllegalTransition):
		apiErr := newAPIError(http.StatusBadRequest, "ILLEGAL_TRANSITION", err.Error())
		var transitionErr *domain.TransitionError
		if errors.As(err, &transitionErr) {
			apiErr.Details = map[string]string{
				"from": string(transitionErr.From),
				"to":   string(transitionErr.To),
			}
		}
		return apiErr
	case errors.Is(err, domain.ErrForbidden):
		return newAPIError(http.StatusForbidden, "FORBIDDEN", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return newAPIError(http.StatusNotFound, "NOT_FOUND", err.Error())
	// Втрачене редагування несе і Conflict, і NotEditable
	case errors.Is(err, domain.ErrConflict):
		return newAPIError(http.StatusConflict, "CONFLICT", err.Error())
	case errors.Is(err, domain.ErrMalformedGeometry):
		return newAPIError(http.StatusBadRequest, "MALFORMED_GEOMETRY", err.Error())
	case errors.Is(err, domain.ErrNotEditable):
		return newAPIError(http.StatusBadRequest, "NOT_EDITABLE", err.Error())
	case errors.Is(err, domain.ErrInvalidInput):
		return newAPIError(http.StatusBadRequest, "INVALID_INPUT", err.Error())
	case errors.Is(err, application.ErrArchiveUnavailable):
		return newAPIError(http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", err.Error())
	default:
		return newAPIError(http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "internal server error")
	}
}

// renderError записує помилку у відповідь
func renderError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	apiErr := errorResponse(err)
	if apiErr.StatusCode >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	}
	_ = render.Render(w, r, apiErr)
}

func badRequest(message string) *APIError {
	return newAPIError(http.StatusBadRequest, "INVALID_REQUEST", message)
}
