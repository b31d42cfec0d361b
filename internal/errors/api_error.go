package errors

import (
	stderrors "errors"
	"net/http"

	"dayplan/internal/model"
)

type APIError struct {
	Status  int         `json:"-"`
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

func New(status int, code, message string) *APIError {
	return &APIError{
		Status:  status,
		Code:    code,
		Message: message,
	}
}

func Internal(message string) *APIError {
	if message == "" {
		message = "internal server error"
	}
	return New(http.StatusInternalServerError, "internal_error", message)
}

func BadRequest(code, message string) *APIError {
	return New(http.StatusBadRequest, code, message)
}

func NotFound(code, message string) *APIError {
	return New(http.StatusNotFound, code, message)
}

func Conflict(code, message string, details interface{}) *APIError {
	err := New(http.StatusConflict, code, message)
	err.Details = details
	return err
}

func UpstreamUnavailable(message string) *APIError {
	return New(http.StatusBadGateway, "upstream_unavailable", message)
}

// FromDomain maps engine errors onto the HTTP envelope. Anything unknown
// becomes an internal error carrying fallback as its message.
func FromDomain(err error, fallback string) *APIError {
	if err == nil {
		return nil
	}

	var vErr *model.ValidationError
	switch {
	case stderrors.As(err, &vErr):
		apiErr := BadRequest("validation_error", vErr.Error())
		details := map[string]interface{}{"field": vErr.Field}
		if vErr.Index >= 0 {
			details["index"] = vErr.Index
		}
		apiErr.Details = details
		return apiErr
	case stderrors.Is(err, model.ErrInvalidTransition):
		return Conflict("invalid_transition", err.Error(), nil)
	case stderrors.Is(err, model.ErrScheduleStarted):
		return Conflict("schedule_started", "schedule already has execution history", nil)
	case stderrors.Is(err, model.ErrNotFound):
		return NotFound("not_found", err.Error())
	case stderrors.Is(err, model.ErrUpstreamUnavailable):
		return UpstreamUnavailable(err.Error())
	default:
		return Internal(fallback)
	}
}
