package domain

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrUnknownPAQ is returned for an attribute name that is not one of the eight PAQs
var ErrUnknownPAQ = errors.New("unknown PAQ attribute")

// PAQ is one of the eight perceived affective quality attributes
type PAQ int

const (
	Pleasant PAQ = iota
	Vibrant
	Eventful
	Chaotic
	Annoying
	Monotonous
	Uneventful
	Calm
)

// PAQCount is the number of PAQ attributes
const PAQCount = 8

// Output and well-known column names
const (
	ISOPleasantColumn = "ISOPleasant"
	ISOEventfulColumn = "ISOEventful"
	LocationIDColumn  = "LocationID"
	LatitudeColumn    = "Latitude"
	LongitudeColumn   = "Longitude"
)

var paqNames = [PAQCount]string{
	"pleasant", "vibrant", "eventful", "chaotic",
	"annoying", "monotonous", "uneventful", "calm",
}

// AllPAQs lists the attributes in circumplex order
var AllPAQs = [PAQCount]PAQ{Pleasant, Vibrant, Eventful, Chaotic, Annoying, Monotonous, Uneventful, Calm}

// String returns the semantic name of the attribute
func (p PAQ) String() string {
	if p < 0 || int(p) >= PAQCount {
		return "unknown"
	}
	return paqNames[p]
}

// Angle returns the circumplex angle of the attribute in radians
func (p PAQ) Angle() float64 {
	return float64(p) * math.Pi / 4
}

// ParsePAQ resolves a semantic attribute name
func ParsePAQ(name string) (PAQ, bool) {
	for i, n := range paqNames {
		if n == name {
			return PAQ(i), true
		}
	}
	return 0, false
}

// PAQAliases maps each attribute, indexed by PAQ, to the column holding it
type PAQAliases [PAQCount]string

// DefaultPAQAliases matches the column naming used by the ISD
func DefaultPAQAliases() PAQAliases {
	return PAQAliases{"PAQ1", "PAQ2", "PAQ3", "PAQ4", "PAQ5", "PAQ6", "PAQ7", "PAQ8"}
}

// Column returns the column name for an attribute
func (a PAQAliases) Column(p PAQ) string {
	return a[p]
}

// Override returns a copy of the aliases with the columns in names replacing
// their defaults. names is keyed by semantic attribute name, such as
// {"pleasant": "PAQ1"}; attributes it leaves out keep their current column.
func (a PAQAliases) Override(names map[string]string) (PAQAliases, error) {
	out := a
	for name, column := range names {
		p, ok := ParsePAQ(strings.ToLower(strings.TrimSpace(name)))
		if !ok {
			return a, fmt.Errorf("%w %q", ErrUnknownPAQ, name)
		}
		column = strings.TrimSpace(column)
		if column == "" {
			return a, fmt.Errorf("empty column name for PAQ attribute %q", name)
		}
		out[p] = column
	}
	return out, nil
}

// Map returns the aliases keyed by semantic name
func (a PAQAliases) Map() map[string]string {
	out := make(map[string]string, PAQCount)
	for _, p := range AllPAQs {
		out[p.String()] = a[p]
	}
	return out
}

// ValueRange is the closed interval PAQ responses must fall in
type ValueRange struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// DefaultValueRange is the 5-point Likert scale
func DefaultValueRange() ValueRange {
	return ValueRange{Min: 1, Max: 5}
}

// Contains reports whether v lies in [Min, Max]
func (r ValueRange) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Midpoint returns (Min+Max)/2
func (r ValueRange) Midpoint() float64 {
	return (r.Min + r.Max) / 2
}

// HalfWidth returns (Max-Min)/2
func (r ValueRange) HalfWidth() float64 {
	return (r.Max - r.Min) / 2
}

// ExclusionReason codes name the check a record failed
type ExclusionReason string

const (
	ReasonCompleteness    ExclusionReason = "completeness"
	ReasonRange           ExclusionReason = "range"
	ReasonDuplicateID     ExclusionReason = "duplicate_id"
	ReasonUniformResponse ExclusionReason = "uniform_response"
)

// ExclusionReasonsColumn is appended when an excluded table is flattened
const ExclusionReasonsColumn = "ExclusionReasons"

// ExcludedRecord is a record that failed at least one check.
// Reasons are in check order; the first is the primary reason.
type ExcludedRecord struct {
	Record
	Reasons []ExclusionReason `json:"reasons"`
}

// PrimaryReason returns the first failed check
func (e ExcludedRecord) PrimaryReason() ExclusionReason {
	if len(e.Reasons) == 0 {
		return ""
	}
	return e.Reasons[0]
}

// ExcludedTable holds the records removed by validation
type ExcludedTable struct {
	Columns []string         `json:"columns"`
	Rows    []ExcludedRecord `json:"rows"`
}

// Len returns the number of excluded records
func (e *ExcludedTable) Len() int {
	if e == nil {
		return 0
	}
	return len(e.Rows)
}

// Table flattens the excluded records, joining their reasons into an extra column
func (e *ExcludedTable) Table() *Table {
	out := NewTable(append(append([]string{}, e.Columns...), ExclusionReasonsColumn)...)
	for _, ex := range e.Rows {
		codes := ""
		for i, r := range ex.Reasons {
			if i > 0 {
				codes += ";"
			}
			codes += string(r)
		}
		values := make([]Value, 0, len(ex.Values)+1)
		values = append(values, ex.Values...)
		values = append(values, Text(codes))
		out.Append(Record{Index: ex.Index, Values: values})
	}
	return out
}
