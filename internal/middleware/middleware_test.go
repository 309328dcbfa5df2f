package middleware

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sspyviz/internal/config"
	apierrors "sspyviz/internal/errors"
	"sspyviz/internal/infrastructure"
	"sspyviz/internal/shared/testutil"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
})

func TestRequestID(t *testing.T) {
	var seen, trace string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
		trace = infrastructure.GetTraceID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, trace)
	assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "client-id")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "client-id", seen)
	assert.Equal(t, "client-id", rec.Header().Get(RequestIDHeader))
}

func TestRateLimiter(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	rl := NewRateLimiter(0.001, 1, apierrors.NewErrorHandler(logger, false), logger)
	h := rl.Handler(okHandler)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	assert.True(t, logs.ContainsMessage("rate limit exceeded"))

	other := httptest.NewRequest(http.MethodGet, "/", nil)
	other.RemoteAddr = "198.51.100.7:4000"
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, other)
	assert.Equal(t, http.StatusOK, rec.Code, "each client has its own budget")
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.9:51234"
	assert.Equal(t, "203.0.113.9", clientIP(req))

	req.RemoteAddr = "203.0.113.9"
	assert.Equal(t, "203.0.113.9", clientIP(req))
}

func TestTimeout(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	var deadline bool
	h := Timeout(10*time.Millisecond, logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, deadline = r.Context().Deadline()
		<-r.Context().Done()
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/slow", nil))
	assert.True(t, deadline)
	assert.True(t, logs.ContainsMessage("request timeout"))
}

func TestCORS(t *testing.T) {
	h := CORS(CORSConfig{AllowedOrigins: []string{"http://localhost:8080"}})(okHandler)

	tests := []struct {
		name       string
		method     string
		origin     string
		preflight  bool
		wantStatus int
		wantOrigin string
	}{
		{name: "allowed origin", method: http.MethodGet, origin: "http://localhost:8080", wantStatus: http.StatusOK, wantOrigin: "http://localhost:8080"},
		{name: "other origin", method: http.MethodGet, origin: "http://evil.example", wantStatus: http.StatusOK},
		{name: "preflight", method: http.MethodOptions, origin: "http://localhost:8080", preflight: true, wantStatus: http.StatusNoContent, wantOrigin: "http://localhost:8080"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/datasets", nil)
			req.Header.Set("Origin", tt.origin)
			if tt.preflight {
				req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestSecurityHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	SecurityHeaders(okHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))
}

func TestValidationMiddleware_ValidateJSON(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	vm := NewValidationMiddleware(logger, apierrors.NewErrorHandler(logger, false))

	var body string
	h := vm.ValidateJSON(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		body = string(b)
	}))

	tests := []struct {
		name        string
		contentType string
		body        string
		wantStatus  int
	}{
		{name: "valid json", contentType: "application/json", body: `{"validate":true}`, wantStatus: http.StatusOK},
		{name: "invalid json", contentType: "application/json", body: `{"validate":`, wantStatus: http.StatusBadRequest},
		{name: "too large", contentType: "application/json", body: `"` + strings.Repeat("x", DefaultMaxJSONBody) + `"`, wantStatus: http.StatusRequestEntityTooLarge},
		{name: "not json", contentType: "text/csv", body: "a,b", wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body = ""
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", tt.contentType)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, tt.body, body, "body is restored for the handler")
			}
		})
	}
}

func TestValidationMiddleware_ValidateStruct(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	vm := NewValidationMiddleware(logger, apierrors.NewErrorHandler(logger, false))

	type request struct {
		Format string   `json:"format" validate:"omitempty,oneof=csv xlsx"`
		Names  []string `json:"names" validate:"max=2"`
		File   string   `json:"file" validate:"filename"`
	}

	require.NoError(t, vm.ValidateStruct(request{Format: "csv", File: "survey.csv"}))

	err := vm.ValidateStruct(request{Format: "pdf", Names: []string{"a", "b", "c"}, File: "../etc/passwd"})
	require.Error(t, err)
	var apiErr *apierrors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)

	details, ok := apiErr.Details.(apierrors.ValidationErrors)
	require.True(t, ok)
	require.Len(t, details.Errors, 3)
	assert.Equal(t, "format", details.Errors[0].Field)
	assert.Equal(t, "format must be one of: csv, xlsx", details.Errors[0].Message)
	assert.Equal(t, "file must be a valid filename", details.Errors[2].Message)
}

func TestContentTypeValidator(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	h := ContentTypeValidator(apierrors.NewErrorHandler(logger, false), "application/json", "multipart/form-data")(okHandler)

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("x"))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code, "empty bodies need no content type")
}

func TestQueryParamValidator(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	v := NewQueryParamValidator(logger)

	format, err := v.Enum(httptest.NewRequest(http.MethodGet, "/?format=XLSX", nil), "format", []string{"csv", "xlsx"}, "csv")
	require.NoError(t, err)
	assert.Equal(t, "xlsx", format)

	format, err = v.Enum(httptest.NewRequest(http.MethodGet, "/", nil), "format", []string{"csv", "xlsx"}, "csv")
	require.NoError(t, err)
	assert.Equal(t, "csv", format)

	_, err = v.Enum(httptest.NewRequest(http.MethodGet, "/?format=pdf", nil), "format", []string{"csv", "xlsx"}, "csv")
	assert.Error(t, err)

	excluded, err := v.Bool(httptest.NewRequest(http.MethodGet, "/?excluded=true", nil), "excluded", false)
	require.NoError(t, err)
	assert.True(t, excluded)

	_, err = v.Bool(httptest.NewRequest(http.MethodGet, "/?excluded=maybe", nil), "excluded", false)
	assert.Error(t, err)
}

func TestOTelMiddleware_RecordsRoute(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	providers, err := infrastructure.InitializeOTel(config.TelemetryConfig{ServiceName: "sspyviz", MetricsEnabled: true}, logger)
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	metrics, err := infrastructure.CreatePipelineMetrics(providers.Meter)
	require.NoError(t, err)

	router := chi.NewRouter()
	router.Use(NewOTelMiddleware(providers, metrics).Handler)
	router.Get("/api/datasets/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/datasets/abc", nil))

	rec := httptest.NewRecorder()
	providers.PrometheusHTTP.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	assert.Contains(t, body, "http_requests_total")
	assert.Contains(t, body, `route="/api/datasets/{id}"`)
	assert.Contains(t, body, `status_code="404"`)
}

func TestProblemBodyShape(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	rl := NewRateLimiter(0.001, 0, apierrors.NewErrorHandler(logger, false), logger)
	rec := httptest.NewRecorder()
	rl.Handler(okHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	var problem map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	assert.EqualValues(t, http.StatusTooManyRequests, problem["status"])
	assert.Equal(t, "RATE_LIMIT_EXCEEDED", problem["error_code"])
}
