package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths contains the resolved directories the application writes to
type Paths struct {
	BaseDir     string
	DataDir     string
	DatasetsDir string
	CacheDir    string
	ExportsDir  string
	LogsDir     string
}

// ResolvePaths turns the configured directories into absolute paths. Relative
// directories hang off BaseDir, which defaults to the executable's directory.
func ResolvePaths(cfg PathsConfig) (*Paths, error) {
	base := cfg.BaseDir
	if base == "" {
		exeDir, err := executableDir()
		if err != nil {
			return nil, err
		}
		base = exeDir
	}
	base, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base directory: %w", err)
	}

	resolve := func(dir, fallback string) string {
		if dir == "" {
			dir = fallback
		}
		if filepath.IsAbs(dir) {
			return dir
		}
		return filepath.Join(base, dir)
	}

	dataDir := resolve(cfg.DataDir, DefaultDataDir)
	return &Paths{
		BaseDir:     base,
		DataDir:     dataDir,
		DatasetsDir: filepath.Join(dataDir, "datasets"),
		CacheDir:    resolve(cfg.CacheDir, DefaultCacheDir),
		ExportsDir:  resolve(cfg.ExportsDir, DefaultExportsDir),
		LogsDir:     resolve(cfg.LogsDir, DefaultLogsDir),
	}, nil
}

// executableDir returns the directory holding the running binary
func executableDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to get executable path: %w", err)
	}
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return "", fmt.Errorf("failed to resolve executable symlinks: %w", err)
	}
	return filepath.Dir(exe), nil
}

// EnsureDirectories creates all required directories if they don't exist
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.DataDir, p.DatasetsDir, p.CacheDir, p.ExportsDir, p.LogsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// Resolve returns path unchanged when absolute, otherwise relative to BaseDir
func (p *Paths) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(p.BaseDir, path)
}

// GetExportPath returns the path of an export file
func (p *Paths) GetExportPath(name string) string {
	return filepath.Join(p.ExportsDir, filepath.Base(name))
}

// GetCachePath returns the path of a cached download
func (p *Paths) GetCachePath(name string) string {
	return filepath.Join(p.CacheDir, filepath.Base(name))
}

// LogPathResolution logs every resolved directory at debug level
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	logger.Debug("resolved paths",
		slog.String("base_dir", p.BaseDir),
		slog.String("data_dir", p.DataDir),
		slog.String("datasets_dir", p.DatasetsDir),
		slog.String("cache_dir", p.CacheDir),
		slog.String("exports_dir", p.ExportsDir),
		slog.String("logs_dir", p.LogsDir))
}
