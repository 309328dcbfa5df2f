package dataprocessing

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sspyviz/pkg/contracts/domain"
)

// soundscapyISO is the reference projection for a [1,5] scale
func soundscapyISO(v [8]float64) (float64, float64) {
	p, vi, e, ch, a, m, u, ca := v[0], v[1], v[2], v[3], v[4], v[5], v[6], v[7]
	c := math.Cos(math.Pi / 4)
	scale := 1 / (4 + math.Sqrt(32))
	return ((p - a) + c*(ca-ch) + c*(vi-m)) * scale,
		((e - u) + c*(ch-ca) + c*(vi-m)) * scale
}

func TestISOCoordinates(t *testing.T) {
	r := domain.DefaultValueRange()
	tests := []struct {
		name      string
		values    [8]float64
		wantP     float64
		wantE     float64
		wantNaN   bool
		reference bool
	}{
		{name: "neutral", values: [8]float64{3, 3, 3, 3, 3, 3, 3, 3}, wantP: 0, wantE: 0},
		{name: "pleasant extreme", values: [8]float64{5, 5, 3, 1, 1, 1, 3, 5}, wantP: 1, wantE: 0},
		{name: "eventful extreme", values: [8]float64{3, 5, 5, 5, 3, 1, 1, 1}, wantP: 0, wantE: 1},
		{name: "mixed", values: [8]float64{4, 3, 2, 1, 2, 3, 4, 5}, wantP: 0.5, wantE: -0.5},
		{name: "reference agreement", values: [8]float64{2, 4, 5, 1, 3, 2, 4, 3}, reference: true},
		{name: "out of range", values: [8]float64{6, 3, 3, 3, 3, 3, 3, 3}, wantNaN: true},
		{name: "nan input", values: [8]float64{3, 3, 3, math.NaN(), 3, 3, 3, 3}, wantNaN: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, e := ISOCoordinates(tt.values, r)
			if tt.wantNaN {
				assert.True(t, math.IsNaN(p))
				assert.True(t, math.IsNaN(e))
				return
			}
			if tt.reference {
				tt.wantP, tt.wantE = soundscapyISO(tt.values)
			}
			assert.InDelta(t, tt.wantP, p, 1e-12)
			assert.InDelta(t, tt.wantE, e, 1e-12)
			// the extremes can land one ulp past 1; no clamping is applied
			assert.LessOrEqual(t, math.Abs(p), 1+1e-12)
			assert.LessOrEqual(t, math.Abs(e), 1+1e-12)
		})
	}
}

func TestNormalize(t *testing.T) {
	r := domain.ValueRange{Min: 0, Max: 100}
	assert.Equal(t, -1.0, Normalize(0, r))
	assert.Equal(t, 0.0, Normalize(50, r))
	assert.Equal(t, 1.0, Normalize(100, r))
}

func TestISOCoordinates_ScaleIndependent(t *testing.T) {
	five := [8]float64{4, 3, 2, 1, 2, 3, 4, 5}
	var hundred [8]float64
	for i, v := range five {
		hundred[i] = (v - 1) * 25
	}

	p5, e5 := ISOCoordinates(five, domain.DefaultValueRange())
	p100, e100 := ISOCoordinates(hundred, domain.ValueRange{Min: 0, Max: 100})
	assert.InDelta(t, p5, p100, 1e-12)
	assert.InDelta(t, e5, e100, 1e-12)
}

func TestDeriveCoordinates_NaNPolicy(t *testing.T) {
	tbl := surveyTable(t,
		[]any{"ok", 4, 3, 2, 1, 2, 3, 4, 5},
		[]any{"null", nil, 3, 2, 1, 2, 3, 4, 5},
		[]any{"text", "high", 3, 2, 1, 2, 3, 4, 5},
		[]any{"range", 7, 3, 2, 1, 2, 3, 4, 5},
	)

	out, err := DeriveCoordinates(tbl, domain.DefaultPAQAliases(), domain.DefaultValueRange())
	require.NoError(t, err)
	require.Equal(t, tbl.Len(), out.Len())

	pleasant, _ := out.Floats(domain.ISOPleasantColumn)
	eventful, _ := out.Floats(domain.ISOEventfulColumn)
	assert.InDelta(t, 0.5, pleasant[0], 1e-12)
	assert.InDelta(t, -0.5, eventful[0], 1e-12)
	for i := 1; i < 4; i++ {
		assert.True(t, math.IsNaN(pleasant[i]), "row %d", i)
		assert.True(t, math.IsNaN(eventful[i]), "row %d", i)
	}

	assert.Len(t, tbl.Columns, 9, "input table gains no columns")
	assert.Equal(t, append(append([]string{}, tbl.Columns...), domain.ISOPleasantColumn, domain.ISOEventfulColumn), out.Columns)
}

func TestDeriveCoordinates_Idempotent(t *testing.T) {
	tbl := surveyTable(t,
		[]any{"a", 4, 3, 2, 1, 2, 3, 4, 5},
		[]any{"b", 1, 2, 3, 4, 5, 4, 3, 2},
	)
	aliases, r := domain.DefaultPAQAliases(), domain.DefaultValueRange()

	once, err := DeriveCoordinates(tbl, aliases, r)
	require.NoError(t, err)
	twice, err := DeriveCoordinates(once, aliases, r)
	require.NoError(t, err)

	assert.Same(t, once, twice)
	assert.Equal(t, once, twice)
}

func TestDeriveCoordinates_Deterministic(t *testing.T) {
	tbl := surveyTable(t,
		[]any{"a", 4.5, 3.25, 2, 1, 2.75, 3, 4, 5},
		[]any{"b", 1, 2, 3.5, 4, 5, 4, 3, 2},
	)
	aliases, r := domain.DefaultPAQAliases(), domain.DefaultValueRange()

	first, err := DeriveCoordinates(tbl, aliases, r)
	require.NoError(t, err)
	for run := 0; run < 5; run++ {
		again, err := DeriveCoordinates(tbl, aliases, r)
		require.NoError(t, err)
		for _, col := range []string{domain.ISOPleasantColumn, domain.ISOEventfulColumn} {
			a, _ := first.Floats(col)
			b, _ := again.Floats(col)
			for i := range a {
				assert.Equal(t, math.Float64bits(a[i]), math.Float64bits(b[i]))
			}
		}
	}
}

func TestCoordinatesPresent(t *testing.T) {
	tests := []struct {
		name        string
		columns     []string
		wantPresent bool
		wantErr     bool
	}{
		{name: "neither", columns: []string{"PAQ1"}},
		{name: "both", columns: []string{domain.ISOPleasantColumn, domain.ISOEventfulColumn}, wantPresent: true},
		{name: "only pleasant", columns: []string{domain.ISOPleasantColumn}, wantErr: true},
		{name: "only eventful", columns: []string{domain.ISOEventfulColumn}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			present, err := CoordinatesPresent(domain.NewTable(tt.columns...))
			if tt.wantErr {
				var schemaErr *SchemaError
				require.True(t, errors.As(err, &schemaErr))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantPresent, present)
		})
	}
}

func TestDeriveCoordinates_Errors(t *testing.T) {
	t.Run("missing PAQ column", func(t *testing.T) {
		_, err := DeriveCoordinates(domain.NewTable("PAQ1"), domain.DefaultPAQAliases(), domain.DefaultValueRange())
		var schemaErr *SchemaError
		require.True(t, errors.As(err, &schemaErr))
		assert.Len(t, schemaErr.Missing, 7)
	})

	t.Run("bad range", func(t *testing.T) {
		_, err := DeriveCoordinates(surveyTable(t), domain.DefaultPAQAliases(), domain.ValueRange{Min: 5, Max: 5})
		var rangeErr *RangeConfigError
		assert.True(t, errors.As(err, &rangeErr))
	})
}
