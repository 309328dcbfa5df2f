package exporter

import (
	"bytes"
	"encoding/csv"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"sspyviz/internal/config"
	"sspyviz/internal/shared/testutil"
	"sspyviz/pkg/contracts/domain"
)

func testPaths(t *testing.T) *config.Paths {
	t.Helper()
	paths, err := config.ResolvePaths(config.PathsConfig{BaseDir: t.TempDir()})
	require.NoError(t, err)
	return paths
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestFileNames(t *testing.T) {
	now := time.Date(2024, 3, 1, 14, 5, 59, 0, time.UTC)
	assert.Equal(t, "2024-03-01_14:05_soundscapy_data.csv", DataFileName(now, "csv"))
	assert.Equal(t, "2024-03-01_14:05_soundscapy_data.xlsx", DataFileName(now, "xlsx"))
	assert.Equal(t, "2024-03-01_14:05_soundscapy_report.html", ReportFileName(now))
}

func TestWriteTable(t *testing.T) {
	table := testutil.SurveyTable(t)

	tests := []struct {
		name    string
		options WriteOptions
		wantBOM bool
	}{
		{name: "plain", options: WriteOptions{}},
		{name: "with BOM", options: WriteOptions{BOMPrefix: true}, wantBOM: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, WriteTable(&buf, table, tt.options))

			data := buf.Bytes()
			assert.Equal(t, tt.wantBOM, bytes.HasPrefix(data, utf8BOM))

			records, err := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM))).ReadAll()
			require.NoError(t, err)
			require.Len(t, records, table.Len()+1)
			assert.Equal(t, table.Columns, records[0])
			assert.Equal(t, "R1", records[1][0])
			assert.Equal(t, "", records[3][4], "missing PAQ3 exported as empty field")
			assert.Equal(t, "51.539", records[1][10])
		})
	}
}

func TestCSVWriter_WriteCSV(t *testing.T) {
	paths := testPaths(t)
	w := NewCSVWriter(paths, quietLogger())

	path, err := w.WriteCSV("../escape.csv", testutil.SurveyTable(t), WriteOptions{BOMPrefix: true})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(paths.ExportsDir, "escape.csv"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, utf8BOM))
}

func TestWriteTableXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTableXLSX(&buf, testutil.SurveyTable(t)))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(DefaultSheetName)
	require.NoError(t, err)
	require.Len(t, rows, len(testutil.SurveyRows)+1)
	assert.Equal(t, "RecordID", rows[0][0])
	assert.Equal(t, "CamdenTown", rows[1][1])

	v, err := f.GetCellValue(DefaultSheetName, "C2")
	require.NoError(t, err)
	assert.Equal(t, "4", v)

	missing, err := f.GetCellValue(DefaultSheetName, "E4")
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestXLSXExporter_WriteXLSX(t *testing.T) {
	paths := testPaths(t)
	e := NewXLSXExporter(paths, quietLogger())

	path, err := e.WriteXLSX(DataFileName(time.Now(), "xlsx"), testutil.SurveyTable(t))
	require.NoError(t, err)
	assert.FileExists(t, path)
}

func sampleReport(level domain.ProfileLevel) *domain.ProfileReport {
	return &domain.ProfileReport{
		Title:       "Camden <survey>",
		Level:       level,
		GeneratedAt: time.Date(2024, 3, 1, 14, 5, 0, 0, time.UTC),
		Info:        domain.BasicInfo{Observations: 6, Columns: 2},
		Columns: []domain.ColumnProfile{
			{
				Name: "PAQ1", Kind: "numeric", Count: 6, Unique: 4,
				Numeric: &domain.NumericStats{Mean: 4.1666, StdDev: 1.6, Min: 2, Q1: 3, Median: 4, Q3: 5, Max: 7},
			},
			{
				Name: "LocationID", Kind: "text", Count: 6, Unique: 3,
				TopValues: []domain.ValueCount{{Value: "CamdenTown", Count: 2}},
			},
		},
	}
}

func TestRenderHTML(t *testing.T) {
	t.Run("minimal", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, RenderHTML(&buf, sampleReport(domain.ProfileMinimal)))
		html := buf.String()

		assert.Contains(t, html, "Camden &lt;survey&gt;")
		assert.Contains(t, html, "<td>6</td>")
		assert.NotContains(t, html, "<th>Median</th>")
		assert.NotContains(t, html, "most frequent values")
	})

	t.Run("full", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, RenderHTML(&buf, sampleReport(domain.ProfileFull)))
		html := buf.String()

		assert.Contains(t, html, "<th>Median</th>")
		assert.Contains(t, html, "<td>4.1666</td>")
		assert.Contains(t, html, "LocationID: most frequent values")
		assert.Equal(t, 1, strings.Count(html, "<td colspan=\"7\"></td>"))
	})
}

func TestReportRenderer_WriteHTML(t *testing.T) {
	paths := testPaths(t)
	r := NewReportRenderer(paths, quietLogger())

	path, err := r.WriteHTML(sampleReport(domain.ProfileFull))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(paths.ExportsDir, "2024-03-01_14:05_soundscapy_report.html"), path)
}
