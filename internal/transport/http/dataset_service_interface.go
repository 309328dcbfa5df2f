package http

import (
	"context"
	"io"

	"sspyviz/internal/dataprocessing"
	"sspyviz/internal/datasets"
	"sspyviz/internal/services"
	"sspyviz/pkg/contracts/domain"
)

// DatasetServiceInterface defines the dataset operations the HTTP layer needs
type DatasetServiceInterface interface {
	DefaultOptions() services.ProcessOptions
	Sources() []datasets.SourceInfo
	LoadSource(ctx context.Context, name string) (domain.DatasetSummary, error)
	Upload(ctx context.Context, fileName string, r io.Reader) (domain.DatasetSummary, error)
	Get(ctx context.Context, id string) (*domain.Dataset, error)
	List(ctx context.Context) ([]domain.DatasetSummary, error)
	Delete(ctx context.Context, id string) error

	// Pipeline results
	Process(ctx context.Context, id string, opts services.ProcessOptions) (*services.ProcessResult, error)
	Report(ctx context.Context, id string, opts services.ProcessOptions, level domain.ProfileLevel, title string) (*domain.ProfileReport, error)
	WriteReport(ctx context.Context, id string, opts services.ProcessOptions, level domain.ProfileLevel, title string, w io.Writer) (string, error)
	Export(ctx context.Context, id string, opts services.ProcessOptions, format services.ExportFormat, excluded bool, w io.Writer) (string, error)
	Locations(ctx context.Context, id string, opts services.ProcessOptions) ([]domain.LocationCount, error)
	MapPoints(ctx context.Context, id string, opts services.ProcessOptions) ([]domain.MapPoint, error)
	Plot(ctx context.Context, id string, opts services.ProcessOptions, plot dataprocessing.PlotOptions) (*dataprocessing.PlotData, error)
	Overview(ctx context.Context, id string, opts services.ProcessOptions) (*services.Overview, error)
}

// HealthServiceInterface defines the health operations the HTTP layer needs
type HealthServiceInterface interface {
	HealthCheck(ctx context.Context) services.HealthStatus
	ReadinessCheck(ctx context.Context) services.HealthStatus
	LivenessCheck(ctx context.Context) services.HealthStatus
	Version() map[string]interface{}
}

var (
	_ DatasetServiceInterface = (*services.DatasetService)(nil)
	_ HealthServiceInterface  = (*services.HealthService)(nil)
)
