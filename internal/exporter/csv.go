package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"sspyviz/internal/config"
	"sspyviz/pkg/contracts/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVWriter provides CSV export functionality
type CSVWriter struct {
	paths  *config.Paths
	logger *slog.Logger
}

// NewCSVWriter creates a new CSV writer instance
func NewCSVWriter(paths *config.Paths, logger *slog.Logger) *CSVWriter {
	return &CSVWriter{paths: paths, logger: logger.With(slog.String("component", "csv_exporter"))}
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// WriteTable writes the header and every row of table to w. Missing cells
// are written as empty fields.
func WriteTable(w io.Writer, table *domain.Table, options WriteOptions) error {
	if options.BOMPrefix {
		if _, err := w.Write(utf8BOM); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(table.Columns); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}

	record := make([]string, table.Width())
	for i, row := range table.Rows {
		for c, v := range row.Values {
			record[c] = formatValue(v)
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteCSV writes table to name inside the exports directory and returns
// the full path
func (w *CSVWriter) WriteCSV(name string, table *domain.Table, options WriteOptions) (string, error) {
	fullPath := w.paths.GetExportPath(name)

	w.logger.Info("writing CSV file",
		slog.String("full_path", fullPath),
		slog.Int("record_count", table.Len()))

	file, err := createExportFile(fullPath)
	if err != nil {
		return "", err
	}

	if err := WriteTable(file, table, options); err != nil {
		file.Close()
		return "", err
	}
	return fullPath, file.Close()
}

// createExportFile creates path and any missing parent directories
func createExportFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	return file, nil
}
