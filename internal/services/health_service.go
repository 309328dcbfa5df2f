package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"

	"sspyviz/internal/config"
	"sspyviz/internal/datasets"
	"sspyviz/pkg/contracts"
)

// HealthService provides health check functionality
type HealthService struct {
	version   contracts.VersionInfo
	paths     *config.Paths
	store     datasets.Store
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                   `json:"status"`
	Timestamp time.Time                `json:"timestamp"`
	Version   string                   `json:"version"`
	Runtime   map[string]interface{}   `json:"runtime,omitempty"`
	Services  map[string]ServiceHealth `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// NewHealthService creates a health service reporting on the dataset store
// and the data directory
func NewHealthService(paths *config.Paths, store datasets.Store, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	version := contracts.GetVersionInfo()
	logger.Info("HealthService initialized",
		slog.String("version", version.Version),
		slog.String("git_commit", version.GitCommit))

	return &HealthService{
		version:   version,
		paths:     paths,
		store:     store,
		startTime: time.Now(),
		logger:    logger,
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	hs.logger.DebugContext(ctx, "health check",
		slog.String("uptime", time.Since(hs.startTime).String()))
	return HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   hs.version.Version,
	}
}

// ReadinessCheck returns readiness status
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   hs.version.Version,
		Services: map[string]ServiceHealth{
			"store": hs.checkStoreHealth(ctx),
			"data":  hs.checkDataHealth(),
		},
	}

	for name, service := range status.Services {
		if service.Status != "ready" {
			status.Status = "not_ready"
			hs.logger.WarnContext(ctx, "service not ready",
				slog.String("service", name),
				slog.String("message", service.Message))
		}
	}
	return status
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   hs.version.Version,
		Runtime: map[string]interface{}{
			"uptime":     time.Since(hs.startTime).Seconds(),
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	}
}

// Version returns version information
func (hs *HealthService) Version() map[string]interface{} {
	return map[string]interface{}{
		"version":       hs.version.Version,
		"api_version":   hs.version.APIVersion,
		"export_schema": hs.version.ExportSchema,
		"go_version":    hs.version.GoVersion,
		"platform":      hs.version.Platform,
		"build_time":    hs.version.BuildTime,
		"git_commit":    hs.version.GitCommit,
		"uptime":        time.Since(hs.startTime).Seconds(),
		"start_time":    hs.startTime.Format(time.RFC3339),
	}
}

// checkStoreHealth lists the stored datasets to prove the store responds
func (hs *HealthService) checkStoreHealth(ctx context.Context) ServiceHealth {
	if hs.store == nil {
		return ServiceHealth{Status: "not_ready", Message: "dataset store not initialized"}
	}
	summaries, err := hs.store.List(ctx)
	if err != nil {
		return ServiceHealth{Status: "not_ready", Message: fmt.Sprintf("Dataset store error: %v", err)}
	}
	return ServiceHealth{Status: "ready", Message: fmt.Sprintf("%d datasets stored", len(summaries))}
}

// checkDataHealth checks the data directory exists
func (hs *HealthService) checkDataHealth() ServiceHealth {
	if hs.paths == nil {
		return ServiceHealth{Status: "not_ready", Message: "paths not resolved"}
	}
	info, err := os.Stat(hs.paths.DataDir)
	if err != nil {
		return ServiceHealth{Status: "not_ready", Message: fmt.Sprintf("Data directory not found: %s", hs.paths.DataDir)}
	}
	if !info.IsDir() {
		return ServiceHealth{Status: "not_ready", Message: fmt.Sprintf("Data path is not a directory: %s", hs.paths.DataDir)}
	}
	return ServiceHealth{Status: "ready", Message: "Data directory is accessible"}
}
