package dataprocessing

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"sspyviz/pkg/contracts/domain"
)

// ErrUnsupportedFormat is returned for files that are neither CSV nor XLSX
var ErrUnsupportedFormat = errors.New("unsupported file format")

// ErrEmptyFile is returned when a file has no header row
var ErrEmptyFile = errors.New("file contains no data")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Format identifies a tabular file encoding
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// DetectFormat picks the parser from a file name's extension
func DetectFormat(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Base(name))
	}
}

// ParseFile reads a CSV or XLSX survey file from disk
func ParseFile(path string) (*domain.Table, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()
	return Parse(format, f)
}

// ParseUpload parses an uploaded file, choosing the format from its name
func ParseUpload(name string, r io.Reader) (*domain.Table, error) {
	format, err := DetectFormat(name)
	if err != nil {
		return nil, err
	}
	return Parse(format, r)
}

// Parse reads a table in the given format
func Parse(format Format, r io.Reader) (*domain.Table, error) {
	switch format {
	case FormatCSV:
		return ParseCSV(r)
	case FormatXLSX:
		return ParseXLSX(r)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

// ParseCSV reads a CSV table. The first row is the header; a leading UTF-8
// BOM is ignored and short rows are padded with missing cells.
func ParseCSV(r io.Reader) (*domain.Table, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		if _, err := br.Discard(len(utf8BOM)); err != nil {
			return nil, err
		}
	}

	reader := csv.NewReader(br)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	return tableFromRows(records)
}

// ParseXLSX reads the first worksheet of an XLSX workbook
func ParseXLSX(r io.Reader) (*domain.Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyFile
	}
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	return tableFromRows(rows)
}

// tableFromRows builds a table from a header row and string cells.
// Entirely blank rows are skipped and do not consume a row index.
func tableFromRows(rows [][]string) (*domain.Table, error) {
	if len(rows) == 0 || isBlankRow(rows[0]) {
		return nil, ErrEmptyFile
	}

	headers := normalizeHeaders(rows[0])
	table := domain.NewTable(headers...)
	for _, row := range rows[1:] {
		if isBlankRow(row) {
			continue
		}
		if len(row) > len(headers) && !isBlankRow(row[len(headers):]) {
			return nil, fmt.Errorf("row %d has %d cells, header has %d", table.Len()+2, len(row), len(headers))
		}
		values := make([]domain.Value, len(headers))
		for i := range headers {
			if i < len(row) {
				values[i] = domain.ParseValue(row[i])
			}
		}
		if err := table.AppendRow(values...); err != nil {
			return nil, err
		}
	}
	return table, nil
}

// normalizeHeaders names blank headers "Unnamed: i" and suffixes repeats
// with ".1", ".2" so every column name is unique.
func normalizeHeaders(raw []string) []string {
	headers := make([]string, len(raw))
	seen := make(map[string]int, len(raw))
	for i, h := range raw {
		name := strings.TrimSpace(h)
		if name == "" {
			name = "Unnamed: " + strconv.Itoa(i)
		}
		if n := seen[name]; n > 0 {
			base := name
			for ; seen[name] > 0; n++ {
				name = base + "." + strconv.Itoa(n)
			}
			seen[base] = n
		}
		seen[name]++
		headers[i] = name
	}
	return headers
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
