package datasets

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	apierrors "sspyviz/internal/errors"
	"sspyviz/pkg/contracts/domain"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// SQLiteStore persists datasets in a SQLite database. Tables are stored
// as JSON documents next to their summary columns.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens or creates the database at path and applies migrations
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, apierrors.NewStorageError("open sqlite db", err).WithContext("path", path)
	}
	// A single connection keeps :memory: databases alive and serialises writers.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &SQLiteStore{db: db, path: path}
	if err := store.applyMigrations(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location
func (s *SQLiteStore) Path() string {
	return s.path
}

// Close closes the underlying database connection
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Create inserts a dataset
func (s *SQLiteStore) Create(ctx context.Context, ds *domain.Dataset) error {
	tableJSON, err := json.Marshal(ds.Table)
	if err != nil {
		return fmt.Errorf("marshal table: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO datasets (id, name, source, file_name, created_at, observations, column_count, table_json)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		ds.ID,
		ds.Name,
		string(ds.Source),
		nullableString(ds.FileName),
		ds.CreatedAt.UTC().Format(time.RFC3339Nano),
		ds.Table.Len(),
		ds.Table.Width(),
		string(tableJSON),
	)
	if err != nil {
		return apierrors.NewStorageError("insert dataset", err).WithContext("dataset_id", ds.ID)
	}
	return nil
}

// Get loads a dataset with its table
func (s *SQLiteStore) Get(ctx context.Context, id string) (*domain.Dataset, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, source, file_name, created_at, table_json FROM datasets WHERE id = ?`, id)

	var (
		ds        domain.Dataset
		source    string
		fileName  sql.NullString
		createdAt string
		tableJSON string
	)
	err := row.Scan(&ds.ID, &ds.Name, &source, &fileName, &createdAt, &tableJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get dataset: %w", err)
	}

	ds.Source = domain.DatasetSource(source)
	ds.FileName = fileName.String
	if ds.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}

	var table domain.Table
	if err := json.Unmarshal([]byte(tableJSON), &table); err != nil {
		return nil, fmt.Errorf("unmarshal table: %w", err)
	}
	ds.Table = &table
	return &ds, nil
}

// List returns summaries ordered by creation time without loading tables
func (s *SQLiteStore) List(ctx context.Context) ([]domain.DatasetSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, source, file_name, created_at, observations, column_count FROM datasets`)
	if err != nil {
		return nil, fmt.Errorf("list datasets: %w", err)
	}
	defer rows.Close()

	out := []domain.DatasetSummary{}
	for rows.Next() {
		var (
			sum       domain.DatasetSummary
			source    string
			fileName  sql.NullString
			createdAt string
		)
		if err := rows.Scan(&sum.ID, &sum.Name, &source, &fileName, &createdAt, &sum.Observations, &sum.Columns); err != nil {
			return nil, fmt.Errorf("scan dataset: %w", err)
		}
		sum.Source = domain.DatasetSource(source)
		sum.FileName = fileName.String
		if sum.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sortSummaries(out)
	return out, nil
}

// Delete removes a dataset
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM datasets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete dataset: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

type migration struct {
	version string
	sql     string
}

func loadMigrations() ([]migration, error) {
	entries, err := migrationFS.ReadDir("migrations")
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	migrations := make([]migration, 0, len(names))
	for _, name := range names {
		data, err := migrationFS.ReadFile("migrations/" + name)
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", name, err)
		}
		migrations = append(migrations, migration{version: strings.TrimSuffix(name, ".sql"), sql: string(data)})
	}
	return migrations, nil
}

func (s *SQLiteStore) applyMigrations(ctx context.Context) error {
	migrations, err := loadMigrations()
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, "CREATE TABLE IF NOT EXISTS schema_migrations (version TEXT PRIMARY KEY)"); err != nil {
		return fmt.Errorf("ensure schema_migrations: %w", err)
	}

	for _, m := range migrations {
		var count int
		if err := tx.QueryRowContext(ctx, "SELECT COUNT(1) FROM schema_migrations WHERE version = ?", m.version).Scan(&count); err != nil {
			return fmt.Errorf("scan migration version: %w", err)
		}
		if count > 0 {
			continue
		}
		if _, err := tx.ExecContext(ctx, m.sql); err != nil {
			return fmt.Errorf("apply migration %s: %w", m.version, err)
		}
		if _, err := tx.ExecContext(ctx, "INSERT INTO schema_migrations (version) VALUES (?)", m.version); err != nil {
			return fmt.Errorf("record migration %s: %w", m.version, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migrations: %w", err)
	}
	return nil
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
