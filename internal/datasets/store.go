package datasets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"sspyviz/internal/config"
	"sspyviz/pkg/contracts/domain"
)

// ErrNotFound is returned when no dataset has the requested ID
var ErrNotFound = errors.New("dataset not found")

// Store keeps loaded datasets by ID. Implementations return copies, so
// callers can never mutate a stored table.
type Store interface {
	Create(ctx context.Context, ds *domain.Dataset) error
	Get(ctx context.Context, id string) (*domain.Dataset, error)
	List(ctx context.Context) ([]domain.DatasetSummary, error)
	Delete(ctx context.Context, id string) error
	Close() error
}

// NewStore opens the store selected by cfg.Driver
func NewStore(ctx context.Context, cfg config.StorageConfig, paths *config.Paths, logger *slog.Logger) (Store, error) {
	switch cfg.Driver {
	case config.StorageMemory, "":
		logger.Info("using in-memory dataset store")
		return NewMemoryStore(), nil
	case config.StorageSQLite:
		path := paths.Resolve(cfg.SQLitePath)
		logger.Info("using sqlite dataset store", slog.String("path", path))
		return OpenSQLite(ctx, path)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

func copyDataset(ds *domain.Dataset) *domain.Dataset {
	out := *ds
	if ds.Table != nil {
		out.Table = ds.Table.Clone()
	}
	return &out
}

func sortSummaries(out []domain.DatasetSummary) {
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
}
