package dataprocessing

import (
	"context"
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sspyviz/pkg/contracts/domain"
)

func TestBasicInfo(t *testing.T) {
	info := BasicInfo(locationTable(t))
	assert.Equal(t, domain.BasicInfo{Observations: 5, Columns: 3}, info)
}

func TestProfiler_Minimal(t *testing.T) {
	p := NewProfiler(nil)
	report := p.Profile(context.Background(), locationTable(t), domain.ProfileMinimal, "ISD")

	assert.Equal(t, "ISD", report.Title)
	assert.Equal(t, domain.ProfileMinimal, report.Level)
	require.Len(t, report.Columns, 3)

	loc := report.Columns[0]
	assert.Equal(t, ColumnText, loc.Kind)
	assert.Equal(t, 4, loc.Count)
	assert.Equal(t, 1, loc.Missing)
	assert.Equal(t, 3, loc.Unique)
	assert.Nil(t, loc.TopValues)

	paq := report.Columns[2]
	assert.Equal(t, ColumnNumeric, paq.Kind)
	assert.Nil(t, paq.Numeric, "minimal profiles skip statistics")
}

func TestProfiler_Full(t *testing.T) {
	p := NewProfiler(nil)
	report := p.Profile(context.Background(), locationTable(t), domain.ProfileFull, "ISD")

	loc := report.Columns[0]
	require.NotEmpty(t, loc.TopValues)
	assert.Equal(t, domain.ValueCount{Value: "CarloV", Count: 2}, loc.TopValues[0])

	paq := report.Columns[2]
	require.NotNil(t, paq.Numeric)
	assert.Equal(t, 3.5, paq.Numeric.Mean)
	assert.Equal(t, 2.0, paq.Numeric.Min)
	assert.Equal(t, 5.0, paq.Numeric.Max)
}

func TestProfiler_UnknownLevelIsMinimal(t *testing.T) {
	report := NewProfiler(nil).Profile(context.Background(), locationTable(t), "huge", "")
	assert.Equal(t, domain.ProfileMinimal, report.Level)
}

func TestNumericSummary(t *testing.T) {
	assert.Nil(t, NumericSummary(nil))

	one := NumericSummary([]float64{3})
	require.NotNil(t, one)
	assert.Equal(t, 0.0, one.StdDev)
	assert.Equal(t, 3.0, one.Median)

	s := NumericSummary([]float64{5, 1, 3, 2, 4})
	assert.Equal(t, 3.0, s.Mean)
	assert.Equal(t, 3.0, s.Median)
	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 5.0, s.Max)
	assert.InDelta(t, 1.5811388, s.StdDev, 1e-6)
	assert.LessOrEqual(t, s.Q1, s.Median)
	assert.GreaterOrEqual(t, s.Q3, s.Median)

	finite := NumericSummary([]float64{1, math.Inf(1), 3, math.NaN(), math.Inf(-1)})
	require.NotNil(t, finite)
	assert.Equal(t, 2.0, finite.Mean)
	assert.Equal(t, 1.0, finite.Min)
	assert.Equal(t, 3.0, finite.Max)

	assert.Nil(t, NumericSummary([]float64{math.Inf(1)}))
}

func TestProfiler_FullWithInfinity(t *testing.T) {
	tbl, err := ParseCSV(strings.NewReader("Duration\n1\ninf\n3\n"))
	require.NoError(t, err)

	report := NewProfiler(nil).Profile(context.Background(), tbl, domain.ProfileFull, "")
	require.Len(t, report.Columns, 1)
	col := report.Columns[0]
	assert.Equal(t, 3, col.Count)
	require.NotNil(t, col.Numeric)
	assert.Equal(t, 2.0, col.Numeric.Mean)
	assert.Equal(t, 3.0, col.Numeric.Max)

	_, err = json.Marshal(report)
	assert.NoError(t, err)
}

func TestProfiler_EmptyColumn(t *testing.T) {
	tbl := domain.NewTable("blank")
	require.NoError(t, tbl.AppendRow(domain.Null()))

	report := NewProfiler(nil).Profile(context.Background(), tbl, domain.ProfileFull, "")
	assert.Equal(t, ColumnEmpty, report.Columns[0].Kind)
	assert.Nil(t, report.Columns[0].Numeric)
}
