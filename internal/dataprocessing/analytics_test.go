package dataprocessing

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sspyviz/pkg/contracts/domain"
)

func TestLocationCounts(t *testing.T) {
	counts, err := LocationCounts(locationTable(t))
	require.NoError(t, err)
	assert.Equal(t, []domain.LocationCount{
		{LocationID: "CarloV", Count: 2},
		{LocationID: "SanMarco", Count: 1},
		{LocationID: "Noorderplantsoen", Count: 1},
	}, counts)

	empty, err := LocationCounts(domain.NewTable(domain.LocationIDColumn))
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = LocationCounts(domain.NewTable("x"))
	var schemaErr *SchemaError
	assert.True(t, errors.As(err, &schemaErr))
}

func TestMapPoints(t *testing.T) {
	tbl := domain.NewTable(domain.LatitudeColumn, domain.LongitudeColumn)
	require.NoError(t, tbl.AppendRow(domain.Number(51.52), domain.Number(-0.13)))
	require.NoError(t, tbl.AppendRow(domain.Null(), domain.Number(-0.13)))
	require.NoError(t, tbl.AppendRow(domain.Number(45.43), domain.Number(12.33)))

	points, err := MapPoints(tbl)
	require.NoError(t, err)
	assert.Equal(t, []domain.MapPoint{
		{Index: 0, Latitude: 51.52, Longitude: -0.13},
		{Index: 2, Latitude: 45.43, Longitude: 12.33},
	}, points)
}

func isoTable(t *testing.T) *domain.Table {
	t.Helper()
	tbl := domain.NewTable(domain.LocationIDColumn, domain.ISOPleasantColumn, domain.ISOEventfulColumn)
	rows := [][]any{
		{"A", 0.5, 0.1},
		{"B", -0.2, 0.4},
		{"A", 0.3, -0.1},
		{"B", math.NaN(), 0.2},
		{"C", 0.0, 0.0},
	}
	for _, r := range rows {
		require.NoError(t, tbl.AppendRow(cells(r...)...))
	}
	return tbl
}

func TestBuildPlotData_Scatter(t *testing.T) {
	data, err := BuildPlotData(isoTable(t), PlotOptions{Hue: domain.LocationIDColumn, Title: "ISD", Alpha: 0.5})
	require.NoError(t, err)

	assert.Equal(t, PlotScatter, data.Kind)
	assert.Equal(t, "ISD", data.Title)
	require.Len(t, data.Groups, 3)
	assert.Equal(t, "A", data.Groups[0].Name)
	assert.Equal(t, 2, data.Groups[0].Count)
	assert.Equal(t, 1, data.Groups[1].Count, "NaN coordinates are skipped")
	assert.Nil(t, data.Groups[0].Density)
}

func TestBuildPlotData_LocationsFilter(t *testing.T) {
	data, err := BuildPlotData(isoTable(t), PlotOptions{Hue: domain.LocationIDColumn, Locations: []string{"C"}})
	require.NoError(t, err)
	require.Len(t, data.Groups, 1)
	assert.Equal(t, "C", data.Groups[0].Name)
}

func TestBuildPlotData_DensitySimple(t *testing.T) {
	data, err := BuildPlotData(isoTable(t), PlotOptions{Kind: PlotDensity, Hue: domain.LocationIDColumn, GridSize: 16})
	require.NoError(t, err)

	require.Len(t, data.Groups, 1)
	pooled := data.Groups[0]
	assert.Equal(t, 4, pooled.Count)
	assert.Nil(t, pooled.Points)
	require.NotNil(t, pooled.Density)
	assert.Len(t, pooled.Density.X, 16)
	assert.Len(t, pooled.Density.Z, 16)

	withPoints, err := BuildPlotData(isoTable(t), PlotOptions{Kind: PlotDensity, Hue: domain.LocationIDColumn, IncludeScatter: true})
	require.NoError(t, err)
	assert.Len(t, withPoints.Groups, 4)
}

func TestBuildPlotData_DensityFull(t *testing.T) {
	data, err := BuildPlotData(isoTable(t), PlotOptions{Kind: PlotDensity, Level: PlotFull, Hue: domain.LocationIDColumn})
	require.NoError(t, err)
	require.Len(t, data.Groups, 3)
	for _, g := range data.Groups {
		assert.NotNil(t, g.Density, g.Name)
		assert.Nil(t, g.Points, g.Name)
	}
}

func TestBuildPlotData_MissingColumns(t *testing.T) {
	_, err := BuildPlotData(locationTable(t), PlotOptions{})
	var schemaErr *SchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.ElementsMatch(t, []string{domain.ISOPleasantColumn, domain.ISOEventfulColumn}, schemaErr.Missing)
}

func TestDensity(t *testing.T) {
	assert.Nil(t, Density(nil, 8))

	points := []PlotPoint{{ISOPleasant: 0, ISOEventful: 0}}
	grid := Density(points, 20)
	require.NotNil(t, grid)
	assert.Equal(t, [2]float64{fallbackBandwidth, fallbackBandwidth}, grid.Bandwidth)

	// peak sits in the cells around the origin
	var maxV float64
	var maxI, maxJ int
	for i, row := range grid.Z {
		for j, v := range row {
			if v > maxV {
				maxV, maxI, maxJ = v, i, j
			}
		}
	}
	assert.InDelta(t, 0, grid.X[maxJ], 0.1)
	assert.InDelta(t, 0, grid.Y[maxI], 0.1)

	// the estimate integrates to about one over the grid
	cell := (2.0 / 20) * (2.0 / 20)
	var total float64
	for _, row := range grid.Z {
		for _, v := range row {
			total += v * cell
		}
	}
	assert.InDelta(t, 1.0, total, 0.02)
}
