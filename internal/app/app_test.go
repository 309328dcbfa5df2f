package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sspyviz/internal/config"
	"sspyviz/internal/shared/testutil"
	"sspyviz/pkg/contracts/domain"
)

func newTestApp(t *testing.T, mutate ...func(*config.Config)) *Application {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.BaseDir = t.TempDir()
	cfg.Server.Port = 0
	cfg.Security.RateLimit.Enabled = false
	for _, m := range mutate {
		m(cfg)
	}

	logger, _ := testutil.NewTestLogger(t)
	application, err := NewApplication(context.Background(), cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = application.Store.Close() })
	return application
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func uploadSurvey(t *testing.T, h http.Handler) domain.DatasetSummary {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "survey.csv")
	require.NoError(t, err)
	_, err = part.Write(testutil.SurveyCSV(t))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/datasets", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := serve(h, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var summary domain.DatasetSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	return summary
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestApplication_HealthAndVersion(t *testing.T) {
	application := newTestApp(t)
	h := application.Handler()

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/api/health/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/api/version", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"api_version":"v1"`)
}

func TestApplication_NotFoundIsProblem(t *testing.T) {
	h := newTestApp(t).Handler()

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/api/nothing-here", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "json")

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/api/datasets/unknown-id", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	var problem map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	assert.Equal(t, "DATASET_NOT_FOUND", problem["error_code"])
}

func TestApplication_DatasetFlow(t *testing.T) {
	h := newTestApp(t).Handler()
	summary := uploadSurvey(t, h)
	assert.Equal(t, 6, summary.Observations)
	base := "/api/datasets/" + summary.ID

	rec := serve(h, jsonRequest(http.MethodPost, base+"/process", `{}`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var processed struct {
		Info         domain.BasicInfo `json:"info"`
		ReasonCounts map[string]int   `json:"reason_counts"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &processed))
	assert.Equal(t, 4, processed.Info.Observations)
	assert.Equal(t, 1, processed.ReasonCounts[string(domain.ReasonCompleteness)])
	assert.Equal(t, 1, processed.ReasonCounts[string(domain.ReasonRange)])

	rec = serve(h, httptest.NewRequest(http.MethodGet, base+"/locations", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"locations":[{"location_id":"CamdenTown","count":2},{"location_id":"PancrasLock","count":2}]}`, rec.Body.String())

	rec = serve(h, jsonRequest(http.MethodPost, base+"/export?format=csv", `{}`))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "soundscapy_data.csv")
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(body, []byte("\xEF\xBB\xBF")))
	assert.Contains(t, string(body), "ISOPleasant")

	rec = serve(h, jsonRequest(http.MethodPost, base+"/process", `{"paq_min":5,"paq_max":1}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(h, httptest.NewRequest(http.MethodDelete, base, nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = serve(h, jsonRequest(http.MethodPost, base+"/process", `{}`))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestApplication_LoadISDSource(t *testing.T) {
	application := newTestApp(t)
	isd := application.Paths.Resolve(config.DefaultISDPath)
	require.NoError(t, os.MkdirAll(filepath.Dir(isd), 0o755))
	require.NoError(t, os.WriteFile(isd, testutil.SurveyCSV(t), 0o644))
	h := application.Handler()

	rec := serve(h, httptest.NewRequest(http.MethodPost, "/api/sources/ISD", nil))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = serve(h, httptest.NewRequest(http.MethodPost, "/api/sources/SATP", nil))
	assert.Equal(t, http.StatusNotImplemented, rec.Code)

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/api/datasets", nil))
	assert.Contains(t, rec.Body.String(), `"count":1`)
}

func TestApplication_Metrics(t *testing.T) {
	h := newTestApp(t).Handler()
	serve(h, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")

	disabled := newTestApp(t, func(c *config.Config) { c.Telemetry.MetricsEnabled = false }).Handler()
	rec = serve(disabled, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestApplication_SQLiteStorage(t *testing.T) {
	application := newTestApp(t, func(c *config.Config) { c.Storage.Driver = config.StorageSQLite })
	summary := uploadSurvey(t, application.Handler())

	ds, err := application.Store.Get(context.Background(), summary.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, ds.Table.Len())
}

func TestApplication_RunStopsOnCancel(t *testing.T) {
	application := newTestApp(t, func(c *config.Config) { c.Server.Host = "127.0.0.1" })

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	assert.NoError(t, application.Run(ctx))
}
