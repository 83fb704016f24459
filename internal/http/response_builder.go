package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"anjo/internal/core"
	"anjo/internal/session"
)

// ResponseBuilder provides a fluent API for JSON responses.
type ResponseBuilder struct {
	statusCode int
	headers    map[string]string
	body       any
}

// NewResponse creates a new response builder with default 200 status.
func NewResponse() *ResponseBuilder {
	return &ResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *ResponseBuilder) Status(code int) *ResponseBuilder {
	b.statusCode = code
	return b
}

func (b *ResponseBuilder) Header(name, value string) *ResponseBuilder {
	b.headers[name] = value
	return b
}

// JSON sets the value encoded as the response body.
func (b *ResponseBuilder) JSON(v any) *ResponseBuilder {
	b.body = v
	return b
}

// Write sends the built response. A nil body writes headers only.
func (b *ResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if b.body == nil {
		w.WriteHeader(b.statusCode)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	_ = json.NewEncoder(w).Encode(b.body)
}

// APIError is the body of every error response.
type APIError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type errorBody struct {
	Error APIError `json:"error"`
}

// ErrorResponse creates an error response with the standard envelope.
func ErrorResponse(statusCode int, code, message string) *ResponseBuilder {
	return NewResponse().Status(statusCode).JSON(errorBody{Error: APIError{Code: code, Message: message}})
}

// BadRequestError is returned for bodies that cannot be decoded at all.
func BadRequestError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, "BAD_REQUEST", message)
}

// FieldsError reports per-field validation failures.
func FieldsError(fields map[string]string) *ResponseBuilder {
	return NewResponse().Status(http.StatusUnprocessableEntity).JSON(errorBody{Error: APIError{
		Code:    core.ErrInvalidInput.Code,
		Message: core.ErrInvalidInput.Message,
		Fields:  fields,
	}})
}

func UnauthorizedError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusUnauthorized, "UNAUTHORIZED", message).
		Header("WWW-Authenticate", `Bearer realm="anjo"`)
}

func TooManyRequestsError() *ResponseBuilder {
	return ErrorResponse(http.StatusTooManyRequests, "RATE_LIMITED", "rate limit exceeded, try again later")
}

// FromError maps a ledger error to its response. Internal failures keep
// their cause out of the body.
func FromError(err error) *ResponseBuilder {
	if errors.Is(err, session.ErrInvalidToken) || errors.Is(err, session.ErrMissingToken) {
		return UnauthorizedError(err.Error())
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorResponse(http.StatusGatewayTimeout, "TIMEOUT", "the operation timed out")
	}

	var e *core.Error
	if !errors.As(err, &e) {
		return ErrorResponse(http.StatusInternalServerError, core.ErrInternal.Code, "internal error")
	}
	switch e.Kind {
	case core.KindValidation:
		return ErrorResponse(http.StatusUnprocessableEntity, e.Code, e.Message)
	case core.KindNotFound:
		return ErrorResponse(http.StatusNotFound, e.Code, e.Message)
	case core.KindRemote, core.KindExternal:
		return ErrorResponse(http.StatusBadGateway, e.Code, e.Message)
	}
	return ErrorResponse(http.StatusInternalServerError, e.Code, "internal error")
}
