package exporter

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"sspyviz/internal/config"
	"sspyviz/pkg/contracts/domain"
)

// DefaultSheetName is the worksheet tables are written to
const DefaultSheetName = "Sheet1"

// XLSXExporter writes tables as Excel workbooks
type XLSXExporter struct {
	paths  *config.Paths
	logger *slog.Logger
}

// NewXLSXExporter creates an XLSX exporter rooted at the exports directory
func NewXLSXExporter(paths *config.Paths, logger *slog.Logger) *XLSXExporter {
	return &XLSXExporter{paths: paths, logger: logger.With(slog.String("component", "xlsx_exporter"))}
}

// WriteTableXLSX streams table into a single-sheet workbook on w. Numbers
// are stored as numeric cells and missing values as empty cells.
func WriteTableXLSX(w io.Writer, table *domain.Table) error {
	f := excelize.NewFile()
	defer f.Close()

	sw, err := f.NewStreamWriter(DefaultSheetName)
	if err != nil {
		return fmt.Errorf("failed to create stream writer: %w", err)
	}

	header := make([]interface{}, table.Width())
	for i, c := range table.Columns {
		header[i] = c
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for r, rec := range table.Rows {
		row := make([]interface{}, len(rec.Values))
		for c, v := range rec.Values {
			row[c] = xlsxCell(v)
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", r, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush sheet: %w", err)
	}
	_, err = f.WriteTo(w)
	return err
}

func xlsxCell(v domain.Value) interface{} {
	switch v.Kind() {
	case domain.KindNumber:
		if v.IsNull() {
			return nil
		}
		f, _ := v.Float()
		return f
	case domain.KindText:
		return v.String()
	default:
		return nil
	}
}

// WriteXLSX writes table to name inside the exports directory
func (e *XLSXExporter) WriteXLSX(name string, table *domain.Table) (string, error) {
	fullPath := e.paths.GetExportPath(name)
	e.logger.Info("writing XLSX file",
		slog.String("full_path", fullPath),
		slog.Int("record_count", table.Len()))

	file, err := createExportFile(fullPath)
	if err != nil {
		return "", err
	}
	if err := WriteTableXLSX(file, table); err != nil {
		file.Close()
		return "", err
	}
	return fullPath, file.Close()
}
