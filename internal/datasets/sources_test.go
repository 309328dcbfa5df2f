package datasets

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sspyviz/internal/config"
	apierrors "sspyviz/internal/errors"
	"sspyviz/internal/shared/testutil"
	"sspyviz/pkg/contracts/domain"
)

func newRegistry(t *testing.T, cfg config.DatasetsConfig) (*Registry, *config.Paths) {
	t.Helper()
	paths, err := config.ResolvePaths(config.PathsConfig{BaseDir: t.TempDir()})
	require.NoError(t, err)
	return NewRegistry(cfg, paths, nil, slog.New(slog.NewJSONHandler(io.Discard, nil))), paths
}

func TestRegistry_Sources(t *testing.T) {
	r, _ := newRegistry(t, config.DatasetsConfig{ISDPath: "data/datasets/isd.csv"})
	sources := r.Sources()
	require.Len(t, sources, 3)
	assert.Equal(t, domain.SourceISD, sources[0].Name)
	assert.True(t, sources[0].Supported)
	assert.False(t, sources[1].Supported)
	assert.False(t, sources[2].Supported)
}

func TestRegistry_LoadLocalISD(t *testing.T) {
	r, paths := newRegistry(t, config.DatasetsConfig{ISDPath: "data/datasets/isd.csv"})
	local := filepath.Join(paths.BaseDir, "data", "datasets", "isd.csv")
	require.NoError(t, os.MkdirAll(filepath.Dir(local), 0755))
	require.NoError(t, os.WriteFile(local, testutil.SurveyCSV(t), 0644))

	table, file, err := r.Load(context.Background(), domain.SourceISD)
	require.NoError(t, err)
	assert.Equal(t, "isd.csv", file)
	assert.Equal(t, len(testutil.SurveyRows), table.Len())
}

func TestRegistry_LoadErrors(t *testing.T) {
	r, _ := newRegistry(t, config.DatasetsConfig{ISDPath: "missing.csv"})
	ctx := context.Background()

	_, _, err := r.Load(ctx, domain.SourceARAUS)
	assert.ErrorIs(t, err, ErrUnsupportedSource)

	_, _, err = r.Load(ctx, domain.SourceSATP)
	assert.ErrorIs(t, err, ErrUnsupportedSource)

	_, _, err = r.Load(ctx, "NOPE")
	assert.ErrorIs(t, err, ErrUnknownSource)

	_, _, err = r.Load(ctx, domain.SourceISD)
	assert.Error(t, err)
}

func TestRegistry_DownloadsOnce(t *testing.T) {
	var hits atomic.Int32
	body := testutil.SurveyCSV(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write(body)
	}))
	defer srv.Close()

	r, paths := newRegistry(t, config.DatasetsConfig{ISDURL: srv.URL + "/records/isd_v1.csv"})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		table, file, err := r.Load(ctx, domain.SourceISD)
		require.NoError(t, err)
		assert.Equal(t, "isd_v1.csv", file)
		assert.Equal(t, len(testutil.SurveyRows), table.Len())
	}
	assert.Equal(t, int32(1), hits.Load())
	assert.FileExists(t, filepath.Join(paths.CacheDir, "isd_v1.csv"))
}

func TestRegistry_DownloadFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	r, paths := newRegistry(t, config.DatasetsConfig{ISDURL: srv.URL + "/isd.csv"})
	_, _, err := r.Load(context.Background(), domain.SourceISD)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
	var appErr *apierrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apierrors.ErrTypeSource, appErr.Type)
	assert.Equal(t, srv.URL+"/isd.csv", appErr.Context["url"])
	assert.NoFileExists(t, filepath.Join(paths.CacheDir, "isd.csv"))
}
