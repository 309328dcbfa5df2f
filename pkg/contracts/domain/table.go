package domain

import (
	"fmt"
	"math"
)

// Record is one table row. Index is the row's position in the table it was
// loaded from and stays fixed through filtering and validation.
type Record struct {
	Index  int     `json:"index"`
	Values []Value `json:"values"`
}

// Clone returns a record with its own value slice
func (r Record) Clone() Record {
	values := make([]Value, len(r.Values))
	copy(values, r.Values)
	return Record{Index: r.Index, Values: values}
}

// Table is an ordered set of named columns and ordered records.
// Transformations return new tables; records are never edited in place.
type Table struct {
	Columns []string `json:"columns"`
	Rows    []Record `json:"rows"`
}

// NewTable creates an empty table with the given columns
func NewTable(columns ...string) *Table {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Table{Columns: cols, Rows: []Record{}}
}

// Len returns the number of rows
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Width returns the number of columns
func (t *Table) Width() int {
	if t == nil {
		return 0
	}
	return len(t.Columns)
}

// ColumnIndex returns the position of a column or -1
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// HasColumn reports whether the column exists
func (t *Table) HasColumn(name string) bool {
	return t.ColumnIndex(name) >= 0
}

// AppendRow adds a row positioned after the current last row
func (t *Table) AppendRow(values ...Value) error {
	if len(values) != len(t.Columns) {
		return fmt.Errorf("row has %d values, table has %d columns", len(values), len(t.Columns))
	}
	row := make([]Value, len(values))
	copy(row, values)
	t.Rows = append(t.Rows, Record{Index: len(t.Rows), Values: row})
	return nil
}

// Append adds an existing record, keeping its Index
func (t *Table) Append(rec Record) {
	t.Rows = append(t.Rows, rec)
}

// Cell returns the value at a row position and column name
func (t *Table) Cell(row int, column string) (Value, bool) {
	idx := t.ColumnIndex(column)
	if idx < 0 || row < 0 || row >= len(t.Rows) {
		return Null(), false
	}
	return t.Rows[row].Values[idx], true
}

// Column returns every value of a column in row order
func (t *Table) Column(name string) ([]Value, bool) {
	idx := t.ColumnIndex(name)
	if idx < 0 {
		return nil, false
	}
	values := make([]Value, len(t.Rows))
	for i, rec := range t.Rows {
		values[i] = rec.Values[idx]
	}
	return values, true
}

// Floats returns a column as float64, NaN where a cell is not numeric
func (t *Table) Floats(name string) ([]float64, bool) {
	values, ok := t.Column(name)
	if !ok {
		return nil, false
	}
	out := make([]float64, len(values))
	for i, v := range values {
		f, ok := v.Float()
		if !ok {
			f = math.NaN()
		}
		out[i] = f
	}
	return out, true
}

// EmptyLike returns a table with the same columns and no rows
func (t *Table) EmptyLike() *Table {
	return NewTable(t.Columns...)
}

// Clone deep-copies the table
func (t *Table) Clone() *Table {
	out := NewTable(t.Columns...)
	out.Rows = make([]Record, len(t.Rows))
	for i, rec := range t.Rows {
		out.Rows[i] = rec.Clone()
	}
	return out
}

// WithColumns returns a new table with extra columns appended. Each values
// slice must have one entry per row.
func (t *Table) WithColumns(names []string, values [][]Value) (*Table, error) {
	if len(names) != len(values) {
		return nil, fmt.Errorf("%d column names for %d value slices", len(names), len(values))
	}
	for i, name := range names {
		if t.HasColumn(name) {
			return nil, fmt.Errorf("column %q already exists", name)
		}
		if len(values[i]) != len(t.Rows) {
			return nil, fmt.Errorf("column %q has %d values, table has %d rows", name, len(values[i]), len(t.Rows))
		}
	}

	out := NewTable(append(append([]string{}, t.Columns...), names...)...)
	out.Rows = make([]Record, len(t.Rows))
	for r, rec := range t.Rows {
		row := make([]Value, 0, len(rec.Values)+len(names))
		row = append(row, rec.Values...)
		for c := range names {
			row = append(row, values[c][r])
		}
		out.Rows[r] = Record{Index: rec.Index, Values: row}
	}
	return out, nil
}
