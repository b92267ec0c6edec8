package errors

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"runtime"
	"runtime/debug"

	"github.com/go-chi/render"

	"healthvault/internal/infrastructure"
)

// requestID extracts the per-request identifier set by the middleware.
func requestID(r *http.Request) string {
	id, _ := r.Context().Value(infrastructure.RequestIDKey).(string)
	return id
}

// ErrorHandler provides centralized error handling for the HTTP layer.
type ErrorHandler struct {
	logger       *slog.Logger
	includeStack bool
}

// NewErrorHandler creates a new error handler.
func NewErrorHandler(logger *slog.Logger, includeStack bool) *ErrorHandler {
	return &ErrorHandler{
		logger:       logger.With(slog.String("component", "error_handler")),
		includeStack: includeStack,
	}
}

// HandleError converts any error to RFC 7807 format and responds.
func (h *ErrorHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}

	reqID := requestID(r)

	h.logger.ErrorContext(r.Context(), "request failed",
		slog.String("error", err.Error()),
		slog.String("request_id", reqID),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
	)

	problem := h.ErrorToProblem(err, r)
	problem.WithExtension("trace_id", reqID)

	if h.includeStack {
		problem.WithExtension("stack", getStackTrace())
	}

	render.Render(w, r, problem)
}

// ErrorToProblem converts an error to RFC 7807 Problem Details. Domain
// sentinels map to distinct problem types so clients can distinguish a
// wrong key from a malformed upload from a missing session.
func (h *ErrorHandler) ErrorToProblem(err error, r *http.Request) *ProblemDetails {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return NewProblemDetails(
			http.StatusGatewayTimeout,
			TypeTimeout,
			"Request Timeout",
			"The request took too long to process and was cancelled",
			r.URL.Path,
		)
	}

	switch {
	case errors.Is(err, ErrUnsupportedFormat):
		return NewProblemDetails(
			http.StatusUnsupportedMediaType,
			TypeUnsupportedFormat,
			"Unsupported File Format",
			"Upload a health export payload (.xml) or archive (.zip)",
			r.URL.Path,
		)

	case errors.Is(err, ErrInvalidPayload):
		return NewProblemDetails(
			http.StatusUnprocessableEntity,
			TypeInvalidPayload,
			"Invalid Payload",
			"The file does not look like a health export payload",
			r.URL.Path,
		)

	case errors.Is(err, ErrPayloadNotFound):
		return NewProblemDetails(
			http.StatusUnprocessableEntity,
			TypePayloadMissing,
			"Payload Not Found",
			"The archive does not contain the expected payload entry",
			r.URL.Path,
		)

	case errors.Is(err, ErrParse):
		return NewProblemDetails(
			http.StatusUnprocessableEntity,
			TypeParseFailed,
			"Parse Failed",
			"The payload document could not be parsed",
			r.URL.Path,
		)

	case errors.Is(err, ErrAuthentication):
		return NewProblemDetails(
			http.StatusBadRequest,
			TypeAuthFailed,
			"Authentication Failed",
			"Decryption failed: wrong key or tampered data",
			r.URL.Path,
		)

	case errors.Is(err, ErrDeserialization):
		return NewProblemDetails(
			http.StatusUnprocessableEntity,
			TypeDecodeFailed,
			"Deserialization Failed",
			"Decryption succeeded but the payload structure is invalid",
			r.URL.Path,
		)

	case errors.Is(err, ErrSessionNotFound):
		return NewProblemDetails(
			http.StatusNotFound,
			TypeSessionNotFound,
			"Session Not Found",
			err.Error(),
			r.URL.Path,
		)

	case errors.Is(err, ErrSessionSealed):
		return NewProblemDetails(
			http.StatusConflict,
			TypeSessionSealed,
			"Session Sealed",
			"The upload session no longer accepts chunks",
			r.URL.Path,
		)
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return h.appErrorToProblem(appErr, r)
	}

	return NewProblemDetails(
		http.StatusInternalServerError,
		TypeInternal,
		"Internal Server Error",
		"An unexpected error occurred while processing your request",
		r.URL.Path,
	)
}

// appErrorToProblem maps an AppError by its type.
func (h *ErrorHandler) appErrorToProblem(appErr *AppError, r *http.Request) *ProblemDetails {
	status := http.StatusInternalServerError
	problemType := TypeInternal

	switch appErr.Type {
	case ErrTypeValidation:
		status, problemType = http.StatusBadRequest, TypeValidation
	case ErrTypeNotFound:
		status, problemType = http.StatusNotFound, TypeNotFound
	case ErrTypeFormat:
		status, problemType = http.StatusUnprocessableEntity, TypeInvalidPayload
	case ErrTypeParsing:
		status, problemType = http.StatusUnprocessableEntity, TypeParseFailed
	case ErrTypeAuthentication:
		status, problemType = http.StatusBadRequest, TypeAuthFailed
	case ErrTypeDeserialization:
		status, problemType = http.StatusUnprocessableEntity, TypeDecodeFailed
	}

	problem := NewProblemDetails(
		status,
		problemType,
		http.StatusText(status),
		appErr.Message,
		r.URL.Path,
	).WithExtension("error_type", string(appErr.Type))

	if len(appErr.Context) > 0 {
		problem.WithExtension("details", appErr.Context)
	}

	return problem
}

// HandlePanic recovers from panics and returns RFC 7807 error.
func (h *ErrorHandler) HandlePanic(w http.ResponseWriter, r *http.Request, recovered interface{}) {
	reqID := requestID(r)

	h.logger.ErrorContext(r.Context(), "panic recovered",
		slog.Any("panic", recovered),
		slog.String("request_id", reqID),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("stack", string(debug.Stack())),
	)

	problem := NewProblemDetails(
		http.StatusInternalServerError,
		TypeInternal,
		"Internal Server Error",
		"An unexpected error occurred",
		r.URL.Path,
	).WithExtension("trace_id", reqID)

	if h.includeStack {
		problem.WithExtension("stack", getStackTrace())
	}

	render.Render(w, r, problem)
}

// NotFound returns a standard 404 error.
func (h *ErrorHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	problem := NewProblemDetails(
		http.StatusNotFound,
		TypeNotFound,
		"Not Found",
		"The requested resource was not found",
		r.URL.Path,
	).WithExtension("trace_id", requestID(r))

	render.Render(w, r, problem)
}

// getStackTrace returns the current stack trace.
func getStackTrace() string {
	buf := make([]byte, 1024*8)
	n := runtime.Stack(buf, false)
	return string(buf[:n])
}
