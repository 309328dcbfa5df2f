package testutil

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"sspyviz/pkg/contracts/domain"
)

// SurveyColumns is the header used by the survey fixtures
var SurveyColumns = []string{
	"RecordID", "LocationID",
	"PAQ1", "PAQ2", "PAQ3", "PAQ4", "PAQ5", "PAQ6", "PAQ7", "PAQ8",
	domain.LatitudeColumn, domain.LongitudeColumn,
}

// SurveyRows is a small mixed-quality survey sample. Record R3 has a
// missing PAQ3, R4 an out-of-range PAQ1 and R5 a uniform response.
var SurveyRows = [][]string{
	{"R1", "CamdenTown", "4", "2", "3", "1", "2", "1", "3", "4", "51.539", "-0.142"},
	{"R2", "CamdenTown", "5", "1", "4", "2", "1", "2", "2", "5", "51.539", "-0.142"},
	{"R3", "RegentsPark", "3", "3", "", "2", "2", "3", "3", "3", "51.531", "-0.156"},
	{"R4", "RegentsPark", "7", "2", "3", "2", "1", "2", "3", "4", "51.531", "-0.156"},
	{"R5", "PancrasLock", "2", "2", "2", "2", "2", "2", "2", "2", "51.535", "-0.128"},
	{"R6", "PancrasLock", "4", "1", "2", "1", "3", "2", "4", "5", "51.535", "-0.128"},
}

// SurveyTable builds a table from the survey fixture
func SurveyTable(t testing.TB) *domain.Table {
	t.Helper()
	return BuildTable(t, SurveyColumns, SurveyRows...)
}

// BuildTable parses every cell with domain.ParseValue
func BuildTable(t testing.TB, columns []string, rows ...[]string) *domain.Table {
	t.Helper()
	table := domain.NewTable(columns...)
	for _, row := range rows {
		values := make([]domain.Value, len(row))
		for i, cell := range row {
			values[i] = domain.ParseValue(cell)
		}
		if err := table.AppendRow(values...); err != nil {
			t.Fatalf("fixture row %v: %v", row, err)
		}
	}
	return table
}

// SurveyCSV renders the survey fixture as CSV bytes
func SurveyCSV(t testing.TB) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(SurveyColumns); err != nil {
		t.Fatal(err)
	}
	if err := w.WriteAll(SurveyRows); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// SurveyCSVReader is SurveyCSV wrapped in a reader
func SurveyCSVReader(t testing.TB) *strings.Reader {
	return strings.NewReader(string(SurveyCSV(t)))
}
