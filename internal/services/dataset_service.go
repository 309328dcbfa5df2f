package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"sspyviz/internal/config"
	"sspyviz/internal/dataprocessing"
	"sspyviz/internal/datasets"
	"sspyviz/internal/exporter"
	"sspyviz/internal/infrastructure"
	"sspyviz/pkg/contracts/domain"
)

// ExportFormat selects the encoding of a data export
type ExportFormat string

const (
	ExportCSV  ExportFormat = "csv"
	ExportXLSX ExportFormat = "xlsx"
)

// DefaultReportTitle is used when a report request has no title
const DefaultReportTitle = "Soundscapy data report"

// DatasetService runs the survey pipeline over stored datasets
type DatasetService struct {
	store     datasets.Store
	registry  *datasets.Registry
	defaults  config.ValidationConfig
	validator *dataprocessing.Validator
	profiler  *dataprocessing.Profiler
	validate  *validator.Validate
	cache     *resultCache
	group     singleflight.Group
	metrics   *infrastructure.PipelineMetrics
	tracer    trace.Tracer
	now       func() time.Time
	logger    *slog.Logger
}

// DatasetServiceConfig carries the collaborators of a DatasetService.
// Metrics and Tracer are optional.
type DatasetServiceConfig struct {
	Store           datasets.Store
	Registry        *datasets.Registry
	Validation      config.ValidationConfig
	ResultCacheSize int
	Metrics         *infrastructure.PipelineMetrics
	Tracer          trace.Tracer
	Logger          *slog.Logger
}

// NewDatasetService creates a dataset service
func NewDatasetService(cfg DatasetServiceConfig) *DatasetService {
	logger := infrastructure.WithComponent(cfg.Logger, "dataset_service")
	tracer := cfg.Tracer
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer(infrastructure.MeterName)
	}
	return &DatasetService{
		store:     cfg.Store,
		registry:  cfg.Registry,
		defaults:  cfg.Validation,
		validator: dataprocessing.NewValidator(logger),
		profiler:  dataprocessing.NewProfiler(logger),
		validate:  validator.New(),
		cache:     newResultCache(cfg.ResultCacheSize),
		metrics:   cfg.Metrics,
		tracer:    tracer,
		now:       time.Now,
		logger:    logger,
	}
}

// DefaultOptions returns the configured pipeline defaults
func (s *DatasetService) DefaultOptions() ProcessOptions {
	return DefaultProcessOptions(s.defaults)
}

// Sources lists the bundled dataset sources
func (s *DatasetService) Sources() []datasets.SourceInfo {
	return s.registry.Sources()
}

// LoadSource loads a bundled dataset and stores it. Concurrent loads of the
// same source share one fetch and one stored dataset.
func (s *DatasetService) LoadSource(ctx context.Context, name string) (summary domain.DatasetSummary, err error) {
	ctx, span := s.tracer.Start(ctx, "dataset.load_source", trace.WithAttributes(attribute.String("source", name)))
	start := time.Now()
	defer func() { s.finish(ctx, span, "load_source", start, err) }()

	v, err, shared := s.group.Do("source:"+name, func() (interface{}, error) {
		table, location, err := s.registry.Load(ctx, domain.DatasetSource(name))
		if err != nil {
			return nil, err
		}
		ds := &domain.Dataset{
			ID:        uuid.NewString(),
			Name:      name,
			Source:    domain.DatasetSource(name),
			FileName:  location,
			CreatedAt: s.now().UTC(),
			Table:     table,
		}
		if err := s.store.Create(ctx, ds); err != nil {
			return nil, err
		}
		s.loaded(ctx, ds)
		return ds.Summary(), nil
	})
	if err != nil {
		return domain.DatasetSummary{}, err
	}
	if shared {
		s.logger.DebugContext(ctx, "source load shared", slog.String("source", name))
	}
	return v.(domain.DatasetSummary), nil
}

// Upload parses a CSV or XLSX file and stores it as a new dataset
func (s *DatasetService) Upload(ctx context.Context, fileName string, r io.Reader) (summary domain.DatasetSummary, err error) {
	ctx, span := s.tracer.Start(ctx, "dataset.upload", trace.WithAttributes(attribute.String("file_name", fileName)))
	start := time.Now()
	defer func() { s.finish(ctx, span, "upload", start, err) }()

	table, err := dataprocessing.ParseUpload(fileName, r)
	if err != nil {
		return domain.DatasetSummary{}, err
	}
	ds := &domain.Dataset{
		ID:        uuid.NewString(),
		Name:      strings.TrimSuffix(fileName, fileExt(fileName)),
		Source:    domain.SourceUpload,
		FileName:  fileName,
		CreatedAt: s.now().UTC(),
		Table:     table,
	}
	if err := s.store.Create(ctx, ds); err != nil {
		return domain.DatasetSummary{}, err
	}
	s.loaded(ctx, ds)
	return ds.Summary(), nil
}

// Get returns a stored dataset
func (s *DatasetService) Get(ctx context.Context, id string) (*domain.Dataset, error) {
	return s.store.Get(ctx, id)
}

// List returns every stored dataset, oldest first
func (s *DatasetService) List(ctx context.Context) ([]domain.DatasetSummary, error) {
	return s.store.List(ctx)
}

// Delete removes a dataset and its cached results
func (s *DatasetService) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.cache.invalidate(id)
	infrastructure.WithDataset(s.logger, id).InfoContext(ctx, "dataset deleted")
	return nil
}

// BasicInfo returns the size of a stored dataset as loaded
func (s *DatasetService) BasicInfo(ctx context.Context, id string) (domain.BasicInfo, error) {
	ds, err := s.store.Get(ctx, id)
	if err != nil {
		return domain.BasicInfo{}, err
	}
	return dataprocessing.BasicInfo(ds.Table), nil
}

// Process runs the pipeline over a stored dataset: select columns, apply
// conditions, drop missing rows, validate, then derive ISO coordinates.
// Results are memoized per dataset and options.
func (s *DatasetService) Process(ctx context.Context, id string, opts ProcessOptions) (result *ProcessResult, err error) {
	if err := s.validate.Struct(opts); err != nil {
		return nil, err
	}
	if cached, ok := s.cache.get(id, opts); ok {
		s.cacheHit(ctx, true)
		return cached, nil
	}
	s.cacheHit(ctx, false)

	key := id + "|" + opts.cacheKey()
	v, err, _ := s.group.Do("process:"+key, func() (interface{}, error) {
		if cached, ok := s.cache.get(id, opts); ok {
			return cached, nil
		}
		gen := s.cache.generation(id)
		result, err := s.run(ctx, id, opts)
		if err != nil {
			return nil, err
		}
		if !s.cache.add(id, gen, opts, result) {
			infrastructure.WithDataset(s.logger, id).DebugContext(ctx, "stale result not cached")
		}
		return result, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*ProcessResult), nil
}

func (s *DatasetService) run(ctx context.Context, id string, opts ProcessOptions) (result *ProcessResult, err error) {
	ctx, span := s.tracer.Start(ctx, "dataset.process", trace.WithAttributes(
		attribute.String("dataset_id", id),
		attribute.Bool("validate", opts.Validate),
		attribute.Bool("calculate_iso", opts.CalculateISO),
		attribute.Int("conditions", len(opts.Conditions)),
	))
	start := time.Now()
	defer func() { s.finish(ctx, span, "process", start, err) }()

	ds, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	table := ds.Table

	if len(opts.Columns) > 0 {
		if table, err = dataprocessing.SelectColumns(table, opts.Columns); err != nil {
			return nil, err
		}
	}
	if len(opts.Conditions) > 0 {
		conds, err := dataprocessing.ParseConditions(opts.Conditions)
		if err != nil {
			return nil, err
		}
		if table, err = dataprocessing.ApplyConditions(table, conds); err != nil {
			return nil, err
		}
	}
	if opts.DropMissing {
		table = dataprocessing.DropMissing(table)
	}

	result = &ProcessResult{DatasetID: id, Options: opts}
	if opts.Validate {
		_, vspan := s.tracer.Start(ctx, "dataset.validate")
		validation, err := s.validator.Validate(ctx, table, opts.Aliases, opts.Range, opts.checks()...)
		vspan.End()
		if err != nil {
			return nil, err
		}
		table = validation.Valid
		result.Excluded = validation.Excluded
		result.ReasonCounts = validation.ReasonCounts
		s.metrics.RecordExclusions(ctx, validation.Valid.Len()+validation.Excluded.Len(), reasonLabels(validation.ReasonCounts))
	}
	if opts.CalculateISO {
		_, dspan := s.tracer.Start(ctx, "dataset.derive_coordinates")
		table, err = dataprocessing.DeriveCoordinates(table, opts.Aliases, opts.Range)
		dspan.End()
		if err != nil {
			return nil, err
		}
	}

	result.Table = table
	result.Info = dataprocessing.BasicInfo(table)
	infrastructure.WithDataset(s.logger, id).InfoContext(ctx, "dataset processed",
		slog.Int("observations", result.Info.Observations),
		slog.Int("excluded", result.Excluded.Len()))
	return result, nil
}

// Report profiles the processed dataset
func (s *DatasetService) Report(ctx context.Context, id string, opts ProcessOptions, level domain.ProfileLevel, title string) (*domain.ProfileReport, error) {
	result, err := s.Process(ctx, id, opts)
	if err != nil {
		return nil, err
	}
	if title == "" {
		title = DefaultReportTitle
	}
	return s.profiler.Profile(ctx, result.Table, level, title), nil
}

// WriteReport renders the profile report as HTML and returns its file name
func (s *DatasetService) WriteReport(ctx context.Context, id string, opts ProcessOptions, level domain.ProfileLevel, title string, w io.Writer) (string, error) {
	report, err := s.Report(ctx, id, opts, level, title)
	if err != nil {
		return "", err
	}
	if err := exporter.RenderHTML(w, report); err != nil {
		return "", err
	}
	return exporter.ReportFileName(report.GeneratedAt), nil
}

// Export writes the processed dataset, or the records validation excluded,
// in the requested format and returns the suggested file name
func (s *DatasetService) Export(ctx context.Context, id string, opts ProcessOptions, format ExportFormat, excluded bool, w io.Writer) (name string, err error) {
	ctx, span := s.tracer.Start(ctx, "dataset.export", trace.WithAttributes(attribute.String("format", string(format))))
	start := time.Now()
	defer func() { s.finish(ctx, span, "export", start, err) }()

	if format == "" {
		format = ExportCSV
	}
	if format != ExportCSV && format != ExportXLSX {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedExport, format)
	}

	result, err := s.Process(ctx, id, opts)
	if err != nil {
		return "", err
	}
	table := result.Table
	if excluded {
		table = domain.NewTable(result.Table.Columns...)
		if result.Excluded != nil {
			table = result.Excluded.Table()
		}
	}

	switch format {
	case ExportXLSX:
		err = exporter.WriteTableXLSX(w, table)
	default:
		err = exporter.WriteTable(w, table, exporter.WriteOptions{BOMPrefix: true})
	}
	if err != nil {
		return "", err
	}
	return exporter.DataFileName(s.now(), string(format)), nil
}

// Locations counts the processed responses per location
func (s *DatasetService) Locations(ctx context.Context, id string, opts ProcessOptions) ([]domain.LocationCount, error) {
	result, err := s.Process(ctx, id, opts)
	if err != nil {
		return nil, err
	}
	return dataprocessing.LocationCounts(result.Table)
}

// MapPoints returns the georeferenced processed responses
func (s *DatasetService) MapPoints(ctx context.Context, id string, opts ProcessOptions) ([]domain.MapPoint, error) {
	result, err := s.Process(ctx, id, opts)
	if err != nil {
		return nil, err
	}
	return dataprocessing.MapPoints(result.Table)
}

// Plot builds circumplex plot data. Coordinates are always derived.
func (s *DatasetService) Plot(ctx context.Context, id string, opts ProcessOptions, plot dataprocessing.PlotOptions) (*dataprocessing.PlotData, error) {
	if err := s.validate.Struct(plot); err != nil {
		return nil, err
	}
	opts.CalculateISO = true
	result, err := s.Process(ctx, id, opts)
	if err != nil {
		return nil, err
	}
	return dataprocessing.BuildPlotData(result.Table, plot)
}

// Overview is the dashboard summary of a processed dataset
type Overview struct {
	DatasetID    string                         `json:"dataset_id"`
	Info         domain.BasicInfo               `json:"info"`
	Excluded     int                            `json:"excluded"`
	ReasonCounts map[domain.ExclusionReason]int `json:"reason_counts,omitempty"`
	Locations    []domain.LocationCount         `json:"locations,omitempty"`
	MapPoints    []domain.MapPoint              `json:"map_points,omitempty"`
}

// Overview processes a dataset and gathers the location counts and map
// points that its columns allow
func (s *DatasetService) Overview(ctx context.Context, id string, opts ProcessOptions) (*Overview, error) {
	result, err := s.Process(ctx, id, opts)
	if err != nil {
		return nil, err
	}
	out := &Overview{
		DatasetID:    id,
		Info:         result.Info,
		Excluded:     result.Excluded.Len(),
		ReasonCounts: result.ReasonCounts,
	}

	table := result.Table
	g, _ := errgroup.WithContext(ctx)
	if table.HasColumn(domain.LocationIDColumn) {
		g.Go(func() error {
			counts, err := dataprocessing.LocationCounts(table)
			out.Locations = counts
			return err
		})
	}
	if table.HasColumn(domain.LatitudeColumn) && table.HasColumn(domain.LongitudeColumn) {
		g.Go(func() error {
			points, err := dataprocessing.MapPoints(table)
			out.MapPoints = points
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// finish ends span and records the operation outcome
func (s *DatasetService) finish(ctx context.Context, span trace.Span, operation string, start time.Time, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
	s.metrics.RecordOperation(ctx, operation, time.Since(start), err)
}

func (s *DatasetService) loaded(ctx context.Context, ds *domain.Dataset) {
	if s.metrics != nil {
		s.metrics.DatasetsLoaded.Add(ctx, 1, metric.WithAttributes(attribute.String("source", string(ds.Source))))
	}
	s.logger.InfoContext(ctx, "dataset stored",
		slog.String("dataset_id", ds.ID),
		slog.String("source", string(ds.Source)),
		slog.Int("observations", ds.Table.Len()),
		slog.Int("columns", ds.Table.Width()))
}

func (s *DatasetService) cacheHit(ctx context.Context, hit bool) {
	if s.metrics == nil {
		return
	}
	if hit {
		s.metrics.CacheHits.Add(ctx, 1)
		return
	}
	s.metrics.CacheMisses.Add(ctx, 1)
}

func reasonLabels(counts map[domain.ExclusionReason]int) map[string]int {
	out := make(map[string]int, len(counts))
	for reason, n := range counts {
		out[string(reason)] = n
	}
	return out
}

func fileExt(name string) string {
	if i := strings.LastIndex(name, "."); i > 0 {
		return name[i:]
	}
	return ""
}
