package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sspyviz/internal/config"
	"sspyviz/internal/datasets"
	"sspyviz/internal/shared/testutil"
	"sspyviz/pkg/contracts"
	"sspyviz/pkg/contracts/domain"
)

type failingStore struct {
	datasets.Store
}

func (failingStore) List(context.Context) ([]domain.DatasetSummary, error) {
	return nil, errors.New("database is locked")
}

func TestHealthService(t *testing.T) {
	paths, err := config.ResolvePaths(config.PathsConfig{BaseDir: t.TempDir()})
	require.NoError(t, err)
	require.NoError(t, paths.EnsureDirectories())

	tests := []struct {
		name       string
		store      datasets.Store
		removeData bool
		wantStatus string
		wantFailed []string
	}{
		{name: "ready", store: datasets.NewMemoryStore(), wantStatus: "ready"},
		{name: "missing store", store: nil, wantStatus: "not_ready", wantFailed: []string{"store"}},
		{name: "failing store", store: failingStore{}, wantStatus: "not_ready", wantFailed: []string{"store"}},
		{name: "missing data dir", store: datasets.NewMemoryStore(), removeData: true, wantStatus: "not_ready", wantFailed: []string{"data"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := *paths
			if tt.removeData {
				p.DataDir = p.DataDir + "-missing"
			}
			logger, _ := testutil.NewTestLogger(t)
			hs := NewHealthService(&p, tt.store, logger)

			status := hs.ReadinessCheck(context.Background())
			assert.Equal(t, tt.wantStatus, status.Status)
			for _, name := range tt.wantFailed {
				assert.Equal(t, "not_ready", status.Services[name].Status, name)
			}
		})
	}
}

func TestHealthService_LivenessAndVersion(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	hs := NewHealthService(nil, datasets.NewMemoryStore(), logger)
	assert.True(t, logs.ContainsMessage("HealthService initialized"))

	health := hs.HealthCheck(context.Background())
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, contracts.Version, health.Version)

	live := hs.LivenessCheck(context.Background())
	assert.Equal(t, "alive", live.Status)
	assert.Contains(t, live.Runtime, "goroutines")

	version := hs.Version()
	assert.Equal(t, contracts.Version, version["version"])
	assert.Equal(t, contracts.APIVersion, version["api_version"])
}
