package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPAQ_Angle(t *testing.T) {
	assert.Equal(t, 0.0, Pleasant.Angle())
	assert.InDelta(t, math.Pi/2, Eventful.Angle(), 1e-12)
	assert.InDelta(t, math.Pi, Annoying.Angle(), 1e-12)
	assert.InDelta(t, 7*math.Pi/4, Calm.Angle(), 1e-12)
}

func TestParsePAQ(t *testing.T) {
	p, ok := ParsePAQ("chaotic")
	require.True(t, ok)
	assert.Equal(t, Chaotic, p)

	_, ok = ParsePAQ("loud")
	assert.False(t, ok)
}

func TestPAQAliases_Override(t *testing.T) {
	tests := []struct {
		name    string
		names   map[string]string
		want    PAQAliases
		wantErr error
	}{
		{name: "nil keeps defaults", want: DefaultPAQAliases()},
		{
			name:  "partial",
			names: map[string]string{"pleasant": "pl", " Calm ": "ca"},
			want:  PAQAliases{"pl", "PAQ2", "PAQ3", "PAQ4", "PAQ5", "PAQ6", "PAQ7", "ca"},
		},
		{
			name: "all eight",
			names: map[string]string{
				"pleasant": "a", "vibrant": "b", "eventful": "c", "chaotic": "d",
				"annoying": "e", "monotonous": "f", "uneventful": "g", "calm": "h",
			},
			want: PAQAliases{"a", "b", "c", "d", "e", "f", "g", "h"},
		},
		{name: "unknown attribute", names: map[string]string{"loud": "PAQ1"}, wantErr: ErrUnknownPAQ},
		{name: "empty column", names: map[string]string{"pleasant": " "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DefaultPAQAliases().Override(tt.names)
			if tt.want == (PAQAliases{}) {
				require.Error(t, err)
				if tt.wantErr != nil {
					assert.ErrorIs(t, err, tt.wantErr)
				}
				assert.Equal(t, DefaultPAQAliases(), got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValueRange(t *testing.T) {
	r := DefaultValueRange()
	assert.Equal(t, 3.0, r.Midpoint())
	assert.Equal(t, 2.0, r.HalfWidth())
	assert.True(t, r.Contains(1))
	assert.True(t, r.Contains(5))
	assert.False(t, r.Contains(5.01))
	assert.False(t, r.Contains(0))
}

func TestExcludedTable_Table(t *testing.T) {
	ex := &ExcludedTable{
		Columns: []string{"PAQ1"},
		Rows: []ExcludedRecord{
			{Record: Record{Index: 4, Values: []Value{Null()}}, Reasons: []ExclusionReason{ReasonCompleteness, ReasonRange}},
		},
	}

	assert.Equal(t, ReasonCompleteness, ex.Rows[0].PrimaryReason())

	flat := ex.Table()
	assert.Equal(t, []string{"PAQ1", ExclusionReasonsColumn}, flat.Columns)
	assert.Equal(t, 4, flat.Rows[0].Index)
	assert.Equal(t, "completeness;range", flat.Rows[0].Values[1].String())
}
