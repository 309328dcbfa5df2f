package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"sspyviz/internal/config"
	"sspyviz/internal/datasets"
	"sspyviz/internal/infrastructure"
	"sspyviz/internal/services"
	"sspyviz/internal/validation"
	"sspyviz/pkg/contracts/domain"
)

type commandContext struct {
	configFlag  *string
	verboseFlag *bool
	stderr      io.Writer

	configOnce sync.Once
	config     *config.Config
	configErr  error

	serviceOnce sync.Once
	service     *services.DatasetService
	files       *validation.FileValidator
	logger      *slog.Logger
	serviceErr  error
}

func newCommandContext(configFlag *string, verboseFlag *bool) *commandContext {
	return &commandContext{
		configFlag:  configFlag,
		verboseFlag: verboseFlag,
		stderr:      os.Stderr,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, err := config.LoadFrom(path)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// datasetService builds an in-memory dataset service. Files are pipeline
// inputs only, so nothing is persisted between runs.
func (c *commandContext) datasetService() (*services.DatasetService, error) {
	c.serviceOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.serviceErr = err
			return
		}

		logging := cfg.Logging
		logging.Output = "console"
		logging.Format = "text"
		logging.Development = false
		logging.Level = "warn"
		if c.verboseFlag != nil && *c.verboseFlag {
			logging.Level = "debug"
		}
		logger, _, err := infrastructure.NewLogger(logging, c.stderr)
		if err != nil {
			c.serviceErr = err
			return
		}
		c.logger = logger
		c.files = validation.NewFileValidator(infrastructure.WithComponent(logger, "files"))

		paths, err := config.ResolvePaths(cfg.Paths)
		if err != nil {
			c.serviceErr = err
			return
		}

		c.service = services.NewDatasetService(services.DatasetServiceConfig{
			Store:           datasets.NewMemoryStore(),
			Registry:        datasets.NewRegistry(cfg.Datasets, paths, nil, logger),
			Validation:      cfg.Validation,
			ResultCacheSize: cfg.Storage.ResultCacheSize,
			Logger:          infrastructure.WithComponent(logger, "cli"),
		})
	})
	return c.service, c.serviceErr
}

// loadFile reads a CSV or XLSX file into the dataset service
func (c *commandContext) loadFile(ctx context.Context, path string) (*services.DatasetService, domain.DatasetSummary, error) {
	svc, err := c.datasetService()
	if err != nil {
		return nil, domain.DatasetSummary{}, err
	}
	if err := c.files.ValidateSurveyFile(path); err != nil {
		return nil, domain.DatasetSummary{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, domain.DatasetSummary{}, err
	}
	defer f.Close()

	summary, err := svc.Upload(ctx, filepath.Base(path), f)
	if err != nil {
		return nil, domain.DatasetSummary{}, fmt.Errorf("load %s: %w", path, err)
	}
	return svc, summary, nil
}

// createOutput prepares the parent directory of path and creates the file
func (c *commandContext) createOutput(path string) (*os.File, error) {
	if _, err := c.datasetService(); err != nil {
		return nil, err
	}
	if err := c.files.ValidateOutputFile(path); err != nil {
		return nil, err
	}
	return os.Create(path)
}
