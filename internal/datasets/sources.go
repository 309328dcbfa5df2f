package datasets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"

	"sspyviz/internal/config"
	"sspyviz/internal/dataprocessing"
	apierrors "sspyviz/internal/errors"
	"sspyviz/pkg/contracts/domain"
)

var (
	// ErrUnsupportedSource is returned for sources that are registered but
	// cannot be loaded yet
	ErrUnsupportedSource = errors.New("dataset source not yet supported")

	// ErrUnknownSource is returned for names that are not registered
	ErrUnknownSource = errors.New("unknown dataset source")
)

// SourceInfo describes a bundled dataset source
type SourceInfo struct {
	Name        domain.DatasetSource `json:"name"`
	Description string               `json:"description"`
	Supported   bool                 `json:"supported"`
	Location    string               `json:"location,omitempty"`
}

// Registry resolves bundled dataset sources to tables
type Registry struct {
	cfg    config.DatasetsConfig
	paths  *config.Paths
	client *http.Client
	logger *slog.Logger
}

// NewRegistry creates a registry. A nil client uses http.DefaultClient.
func NewRegistry(cfg config.DatasetsConfig, paths *config.Paths, client *http.Client, logger *slog.Logger) *Registry {
	if client == nil {
		client = http.DefaultClient
	}
	return &Registry{
		cfg:    cfg,
		paths:  paths,
		client: client,
		logger: logger.With(slog.String("component", "dataset_sources")),
	}
}

// Sources lists every registered source in display order
func (r *Registry) Sources() []SourceInfo {
	isd := SourceInfo{
		Name:        domain.SourceISD,
		Description: "International Soundscape Database",
		Supported:   true,
		Location:    r.isdLocation(),
	}
	return []SourceInfo{
		isd,
		{Name: domain.SourceARAUS, Description: "Affective Responses to Augmented Urban Soundscapes"},
		{Name: domain.SourceSATP, Description: "Soundscape Attributes Translation Project"},
	}
}

// Load reads a source into a table and returns the file it came from
func (r *Registry) Load(ctx context.Context, name domain.DatasetSource) (*domain.Table, string, error) {
	switch name {
	case domain.SourceISD:
		return r.loadISD(ctx)
	case domain.SourceARAUS, domain.SourceSATP:
		return nil, "", fmt.Errorf("%w: %s", ErrUnsupportedSource, name)
	default:
		return nil, "", fmt.Errorf("%w: %q", ErrUnknownSource, name)
	}
}

func (r *Registry) isdLocation() string {
	if r.cfg.ISDURL != "" {
		return r.cfg.ISDURL
	}
	return r.paths.Resolve(r.cfg.ISDPath)
}

func (r *Registry) loadISD(ctx context.Context) (*domain.Table, string, error) {
	local := r.paths.Resolve(r.cfg.ISDPath)
	if r.cfg.ISDURL != "" {
		cached, err := r.fetch(ctx, r.cfg.ISDURL)
		if err != nil {
			return nil, "", err
		}
		local = cached
	}

	r.logger.InfoContext(ctx, "loading dataset source",
		slog.String("source", string(domain.SourceISD)),
		slog.String("path", local))

	table, err := dataprocessing.ParseFile(local)
	if err != nil {
		return nil, "", fmt.Errorf("load %s: %w", domain.SourceISD, err)
	}
	return table, filepath.Base(local), nil
}

// fetch downloads rawURL into the cache directory unless it is already
// there and returns the cached path
func (r *Registry) fetch(ctx context.Context, rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid source url: %w", err)
	}
	name := path.Base(u.Path)
	if name == "." || name == "/" {
		name = "isd.csv"
	}
	if _, err := dataprocessing.DetectFormat(name); err != nil {
		return "", err
	}

	cached := r.paths.GetCachePath(name)
	if _, err := os.Stat(cached); err == nil {
		r.logger.DebugContext(ctx, "using cached source", slog.String("path", cached))
		return cached, nil
	}

	if r.cfg.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.FetchTimeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}

	r.logger.InfoContext(ctx, "downloading dataset source", slog.String("url", rawURL))
	resp, err := r.client.Do(req)
	if err != nil {
		return "", sourceError(name, rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", sourceError(name, rawURL, fmt.Errorf("unexpected status %s", resp.Status))
	}

	if err := os.MkdirAll(filepath.Dir(cached), 0755); err != nil {
		return "", fmt.Errorf("create cache directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(cached), name+".*.part")
	if err != nil {
		return "", fmt.Errorf("create cache file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return "", sourceError(name, rawURL, err)
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	if err := os.Rename(tmp.Name(), cached); err != nil {
		return "", fmt.Errorf("store cached source: %w", err)
	}
	return cached, nil
}

func sourceError(name, rawURL string, cause error) error {
	return apierrors.NewSourceError("download "+name, cause).WithContext("url", rawURL)
}
