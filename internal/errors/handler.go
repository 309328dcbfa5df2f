package errors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"sspyviz/internal/dataprocessing"
)

// Problem types following RFC 7807
const (
	TypeValidation      = "/errors/validation"
	TypeNotFound        = "/errors/not-found"
	TypeRateLimit       = "/errors/rate-limit"
	TypeInternal        = "/errors/internal"
	TypeTimeout         = "/errors/timeout"
	TypePayloadTooLarge = "/errors/payload-too-large"
	TypeMethod          = "/errors/method-not-allowed"
)

// Dataset problem types
const (
	TypeSchema            = "/errors/dataset/schema"
	TypeRangeConfig       = "/errors/dataset/range"
	TypeAlias             = "/errors/dataset/alias"
	TypeFilter            = "/errors/dataset/filter"
	TypeUnsupportedFormat = "/errors/dataset/unsupported-format"
	TypeEmptyFile         = "/errors/dataset/empty"
	TypeDatasetNotFound   = "/errors/dataset/not-found"
	TypeUnsupportedSource = "/errors/dataset/unsupported-source"
	TypeSourceFetch       = "/errors/dataset/source-fetch"
)

// ErrorHandler provides centralized error handling
type ErrorHandler struct {
	logger       *slog.Logger
	includeStack bool
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(logger *slog.Logger, includeStack bool) *ErrorHandler {
	return &ErrorHandler{
		logger:       logger.With(slog.String("component", "error_handler")),
		includeStack: includeStack,
	}
}

// HandleError converts any error to RFC 7807 format and responds
func (h *ErrorHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}

	reqID := middleware.GetReqID(r.Context())
	problem := h.ErrorToProblem(err, r)
	problem.WithExtension("trace_id", reqID)

	level := slog.LevelWarn
	if problem.Status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	h.logger.Log(r.Context(), level, "request failed",
		slog.String("error", err.Error()),
		slog.Int("status", problem.Status),
		slog.String("request_id", reqID),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
	)

	if h.includeStack && problem.Status >= http.StatusInternalServerError {
		problem.WithExtension("stack", getStackTrace())
	}

	render.Render(w, r, problem)
}

// ErrorToProblem converts an error to RFC 7807 Problem Details
func (h *ErrorHandler) ErrorToProblem(err error, r *http.Request) *ProblemDetails {
	path := r.URL.Path

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return NewProblemDetails(
			http.StatusGatewayTimeout,
			TypeTimeout,
			"Request Timeout",
			"The request took too long to process and was cancelled",
			path,
		)
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return h.apiErrorToProblem(apiErr, r)
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		if appErr.Type == ErrTypeSource {
			problem := NewProblemDetails(appErr.Status(), TypeSourceFetch, "Dataset Source Unavailable", appErr.Error(), path)
			for k, v := range appErr.Context {
				problem.WithExtension(k, v)
			}
			return problem
		}
		return NewProblemDetails(appErr.Status(), TypeInternal, "Internal Server Error",
			"An unexpected error occurred while processing your request", path)
	}

	var schemaErr *dataprocessing.SchemaError
	if errors.As(err, &schemaErr) {
		problem := NewProblemDetails(
			http.StatusUnprocessableEntity,
			TypeSchema,
			"Missing Columns",
			schemaErr.Error(),
			path,
		).WithExtension("missing", schemaErr.Missing)
		if len(schemaErr.Attributes) > 0 {
			problem.WithExtension("attributes", schemaErr.Attributes)
		}
		return problem
	}

	var rangeErr *dataprocessing.RangeConfigError
	if errors.As(err, &rangeErr) {
		return NewProblemDetails(http.StatusBadRequest, TypeRangeConfig, "Invalid PAQ Range", rangeErr.Error(), path).
			WithExtension("range", rangeErr.Range)
	}

	var aliasErr *dataprocessing.AliasError
	if errors.As(err, &aliasErr) {
		return NewProblemDetails(http.StatusBadRequest, TypeAlias, "Invalid PAQ Aliases", aliasErr.Error(), path).
			WithExtension("attribute", aliasErr.Attribute)
	}

	var filterErr *dataprocessing.FilterError
	if errors.As(err, &filterErr) {
		return NewProblemDetails(http.StatusBadRequest, TypeFilter, "Invalid Filter", filterErr.Error(), path).
			WithExtension("condition", filterErr.Condition)
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		return NewProblemDetails(http.StatusBadRequest, TypeValidation, "Validation Failed", "Request validation failed", path).
			WithExtension("errors", FieldErrors(fieldErrs))
	}

	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return NewProblemDetails(
			http.StatusRequestEntityTooLarge,
			TypePayloadTooLarge,
			"Payload Too Large",
			fmt.Sprintf("The request body exceeds the maximum allowed size of %d bytes", maxBytesErr.Limit),
			path,
		)
	}

	switch {
	case errors.Is(err, dataprocessing.ErrUnsupportedFormat):
		return NewProblemDetails(http.StatusUnsupportedMediaType, TypeUnsupportedFormat, "Unsupported Format", err.Error(), path)
	case errors.Is(err, dataprocessing.ErrEmptyFile):
		return NewProblemDetails(http.StatusBadRequest, TypeEmptyFile, "Empty File", err.Error(), path)
	}

	return NewProblemDetails(
		http.StatusInternalServerError,
		TypeInternal,
		"Internal Server Error",
		"An unexpected error occurred while processing your request",
		path,
	)
}

// apiErrorToProblem converts APIError to ProblemDetails
func (h *ErrorHandler) apiErrorToProblem(apiErr *APIError, r *http.Request) *ProblemDetails {
	problemType := TypeInternal
	switch apiErr.ErrorCode {
	case "VALIDATION_FAILED", "INVALID_REQUEST", "EMPTY_UPLOAD":
		problemType = TypeValidation
	case "DATASET_NOT_FOUND":
		problemType = TypeDatasetNotFound
	case "SOURCE_NOT_FOUND":
		problemType = TypeNotFound
	case "UNSUPPORTED_SOURCE":
		problemType = TypeUnsupportedSource
	case "PAYLOAD_TOO_LARGE":
		problemType = TypePayloadTooLarge
	case "RATE_LIMIT_EXCEEDED":
		problemType = TypeRateLimit
	}

	problem := NewProblemDetails(
		apiErr.StatusCode,
		problemType,
		http.StatusText(apiErr.StatusCode),
		apiErr.Message,
		r.URL.Path,
	).WithExtension("error_code", apiErr.ErrorCode)

	if apiErr.Details != nil {
		problem.WithExtension("details", apiErr.Details)
	}
	return problem
}

// FieldErrors flattens validator errors into field/message pairs
func FieldErrors(errs validator.ValidationErrors) []ValidationError {
	out := make([]ValidationError, 0, len(errs))
	for _, fe := range errs {
		msg := fmt.Sprintf("failed on the '%s' rule", fe.Tag())
		if fe.Param() != "" {
			msg = fmt.Sprintf("failed on the '%s=%s' rule", fe.Tag(), fe.Param())
		}
		out = append(out, ValidationError{Field: strings.ToLower(fe.Field()), Message: msg})
	}
	return out
}

// HandlePanic recovers from panics and returns RFC 7807 error
func (h *ErrorHandler) HandlePanic(w http.ResponseWriter, r *http.Request, recovered interface{}) {
	reqID := middleware.GetReqID(r.Context())

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
		problem.WithExtension("panic", fmt.Sprintf("%v", recovered))
		problem.WithExtension("stack", getStackTrace())
	}

	render.Render(w, r, problem)
}

// NotFound returns a standard 404 error
func (h *ErrorHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	problem := NewProblemDetails(
		http.StatusNotFound,
		TypeNotFound,
		"Not Found",
		"The requested resource was not found",
		r.URL.Path,
	).WithExtension("trace_id", middleware.GetReqID(r.Context()))

	render.Render(w, r, problem)
}

// MethodNotAllowed returns a standard 405 error
func (h *ErrorHandler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	problem := NewProblemDetails(
		http.StatusMethodNotAllowed,
		TypeMethod,
		"Method Not Allowed",
		fmt.Sprintf("Method %s is not allowed for this endpoint", r.Method),
		r.URL.Path,
	).WithExtension("trace_id", middleware.GetReqID(r.Context()))

	render.Render(w, r, problem)
}

func getStackTrace() string {
	buf := make([]byte, 1024*8)
	n := runtime.Stack(buf, false)
	return string(buf[:n])
}
