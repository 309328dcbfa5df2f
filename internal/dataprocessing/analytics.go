package dataprocessing

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"sspyviz/pkg/contracts/domain"
)

// LocationCounts counts responses per LocationID in order of first appearance.
// Rows without a location are not counted.
func LocationCounts(table *domain.Table) ([]domain.LocationCount, error) {
	if err := requireColumns("location_counts", table, domain.LocationIDColumn); err != nil {
		return nil, err
	}
	col := table.ColumnIndex(domain.LocationIDColumn)

	pos := make(map[string]int)
	var out []domain.LocationCount
	for _, rec := range table.Rows {
		v := rec.Values[col]
		if v.IsNull() {
			continue
		}
		id := v.String()
		i, ok := pos[id]
		if !ok {
			i = len(out)
			pos[id] = i
			out = append(out, domain.LocationCount{LocationID: id})
		}
		out[i].Count++
	}
	if out == nil {
		out = []domain.LocationCount{}
	}
	return out, nil
}

// MapPoints returns the latitude/longitude of every row where both are numeric
func MapPoints(table *domain.Table) ([]domain.MapPoint, error) {
	if err := requireColumns("map_points", table, domain.LatitudeColumn, domain.LongitudeColumn); err != nil {
		return nil, err
	}
	lat := table.ColumnIndex(domain.LatitudeColumn)
	lon := table.ColumnIndex(domain.LongitudeColumn)

	out := []domain.MapPoint{}
	for _, rec := range table.Rows {
		y, okY := rec.Values[lat].Float()
		x, okX := rec.Values[lon].Float()
		if !okY || !okX {
			continue
		}
		out = append(out, domain.MapPoint{Index: rec.Index, Latitude: y, Longitude: x})
	}
	return out, nil
}

// PlotKind selects the circumplex plot type
type PlotKind string

const (
	PlotScatter PlotKind = "scatter"
	PlotDensity PlotKind = "density"
)

// PlotLevel selects pooled (simple) or per-group (full) density estimates
type PlotLevel string

const (
	PlotSimple PlotLevel = "simple"
	PlotFull   PlotLevel = "full"
)

// DefaultGridSize is the density grid resolution per axis
const DefaultGridSize = 32

// pooledGroup names the single group of a simple density plot
const pooledGroup = "all"

// PlotOptions configures BuildPlotData
type PlotOptions struct {
	Kind           PlotKind  `json:"kind" validate:"omitempty,oneof=scatter density"`
	Level          PlotLevel `json:"level" validate:"omitempty,oneof=simple full"`
	Hue            string    `json:"hue,omitempty"`
	Locations      []string  `json:"locations,omitempty"`
	Title          string    `json:"title,omitempty" validate:"max=200"`
	Alpha          float64   `json:"alpha,omitempty" validate:"gte=0,lte=1"`
	PointSize      float64   `json:"point_size,omitempty" validate:"gte=0,lte=100"`
	GridSize       int       `json:"grid_size,omitempty" validate:"omitempty,min=8,max=256"`
	IncludeScatter bool      `json:"include_scatter,omitempty"`
}

// PlotPoint is one response on the circumplex
type PlotPoint struct {
	Index       int     `json:"index"`
	ISOPleasant float64 `json:"iso_pleasant"`
	ISOEventful float64 `json:"iso_eventful"`
}

// DensityGrid is a kernel density estimate sampled at cell centres over
// [-1, 1] on both axes. Z[i][j] is the density at (X[j], Y[i]).
type DensityGrid struct {
	X         []float64   `json:"x"`
	Y         []float64   `json:"y"`
	Z         [][]float64 `json:"z"`
	Bandwidth [2]float64  `json:"bandwidth"`
}

// PlotGroup is the data drawn for one hue value
type PlotGroup struct {
	Name    string       `json:"name"`
	Count   int          `json:"count"`
	Points  []PlotPoint  `json:"points,omitempty"`
	Density *DensityGrid `json:"density,omitempty"`
}

// PlotData is everything a renderer needs to draw a circumplex plot
type PlotData struct {
	Title     string      `json:"title,omitempty"`
	Kind      PlotKind    `json:"kind"`
	Level     PlotLevel   `json:"level"`
	Hue       string      `json:"hue,omitempty"`
	Alpha     float64     `json:"alpha,omitempty"`
	PointSize float64     `json:"point_size,omitempty"`
	Groups    []PlotGroup `json:"groups"`
}

// BuildPlotData groups the ISO coordinates of table by the hue column and,
// for density plots, estimates a density grid per group. Rows with NaN
// coordinates are left out.
func BuildPlotData(table *domain.Table, opts PlotOptions) (*PlotData, error) {
	if opts.Kind == "" {
		opts.Kind = PlotScatter
	}
	if opts.Level == "" {
		opts.Level = PlotSimple
	}
	if opts.GridSize == 0 {
		opts.GridSize = DefaultGridSize
	}

	required := []string{domain.ISOPleasantColumn, domain.ISOEventfulColumn}
	if opts.Hue != "" {
		required = append(required, opts.Hue)
	}
	if err := requireColumns("plot", table, required...); err != nil {
		return nil, err
	}
	if len(opts.Locations) > 0 {
		var err error
		if table, err = FilterLocationIDs(table, opts.Locations); err != nil {
			return nil, err
		}
	}

	px := table.ColumnIndex(domain.ISOPleasantColumn)
	py := table.ColumnIndex(domain.ISOEventfulColumn)
	hue := -1
	if opts.Hue != "" {
		hue = table.ColumnIndex(opts.Hue)
	}

	pos := make(map[string]int)
	var groups []PlotGroup
	for _, rec := range table.Rows {
		x, okX := rec.Values[px].Float()
		y, okY := rec.Values[py].Float()
		if !okX || !okY {
			continue
		}
		name := pooledGroup
		if hue >= 0 {
			name = rec.Values[hue].String()
		}
		i, ok := pos[name]
		if !ok {
			i = len(groups)
			pos[name] = i
			groups = append(groups, PlotGroup{Name: name})
		}
		groups[i].Points = append(groups[i].Points, PlotPoint{Index: rec.Index, ISOPleasant: x, ISOEventful: y})
		groups[i].Count++
	}

	data := &PlotData{
		Title:     opts.Title,
		Kind:      opts.Kind,
		Level:     opts.Level,
		Hue:       opts.Hue,
		Alpha:     opts.Alpha,
		PointSize: opts.PointSize,
		Groups:    groups,
	}
	if data.Groups == nil {
		data.Groups = []PlotGroup{}
	}

	if opts.Kind != PlotDensity {
		return data, nil
	}

	if opts.Level == PlotSimple {
		all := flatten(groups)
		pooled := PlotGroup{Name: pooledGroup, Count: len(all), Density: Density(all, opts.GridSize)}
		data.Groups = []PlotGroup{pooled}
		if opts.IncludeScatter {
			if hue < 0 {
				data.Groups[0].Points = all
			} else {
				data.Groups = append(data.Groups, groups...)
			}
		}
		return data, nil
	}

	for i := range data.Groups {
		data.Groups[i].Density = Density(data.Groups[i].Points, opts.GridSize)
		if !opts.IncludeScatter {
			data.Groups[i].Points = nil
		}
	}
	return data, nil
}

func flatten(groups []PlotGroup) []PlotPoint {
	var out []PlotPoint
	for _, g := range groups {
		out = append(out, g.Points...)
	}
	return out
}

// fallbackBandwidth is used when a sample is too small or has no spread
const fallbackBandwidth = 0.1

// Density estimates a Gaussian product-kernel density of points on a
// size×size grid over [-1, 1]². Bandwidths follow Scott's rule for two
// dimensions, σ·n^(-1/6). It returns nil when there are no points.
func Density(points []PlotPoint, size int) *DensityGrid {
	if len(points) == 0 {
		return nil
	}
	if size <= 0 {
		size = DefaultGridSize
	}

	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	for i, p := range points {
		xs[i] = p.ISOPleasant
		ys[i] = p.ISOEventful
	}
	hx := scottBandwidth(xs)
	hy := scottBandwidth(ys)

	grid := &DensityGrid{
		X:         gridCentres(size),
		Y:         gridCentres(size),
		Z:         make([][]float64, size),
		Bandwidth: [2]float64{hx, hy},
	}
	norm := 1 / (2 * math.Pi * hx * hy * float64(len(points)))
	for i, gy := range grid.Y {
		row := make([]float64, size)
		for j, gx := range grid.X {
			var sum float64
			for k := range xs {
				u := (gx - xs[k]) / hx
				v := (gy - ys[k]) / hy
				sum += math.Exp(-0.5 * (u*u + v*v))
			}
			row[j] = sum * norm
		}
		grid.Z[i] = row
	}
	return grid
}

func scottBandwidth(x []float64) float64 {
	if len(x) < 2 {
		return fallbackBandwidth
	}
	sd := stat.StdDev(x, nil)
	if sd == 0 || math.IsNaN(sd) {
		return fallbackBandwidth
	}
	return sd * math.Pow(float64(len(x)), -1.0/6)
}

func gridCentres(size int) []float64 {
	step := 2.0 / float64(size)
	out := make([]float64, size)
	for i := range out {
		out[i] = -1 + step*(float64(i)+0.5)
	}
	return out
}
