package dataprocessing

import (
	"fmt"
	"strings"

	"sspyviz/pkg/contracts/domain"
)

// MaxConditions is the number of query conditions a single request may chain
const MaxConditions = 5

// FilterByKey keeps the records whose key column value is one of allowed,
// preserving order. An empty allowed set gives an empty table with the same
// columns. Values compare by their string form, so 3 and "3" match.
func FilterByKey(table *domain.Table, keyColumn string, allowed []string) (*domain.Table, error) {
	if err := requireColumns("filter_by_key", table, keyColumn); err != nil {
		return nil, err
	}
	out := table.EmptyLike()
	if len(allowed) == 0 {
		return out, nil
	}

	set := make(map[string]struct{}, len(allowed))
	for _, a := range allowed {
		set[a] = struct{}{}
	}
	col := table.ColumnIndex(keyColumn)
	for _, rec := range table.Rows {
		v := rec.Values[col]
		if v.IsNull() {
			continue
		}
		if _, ok := set[v.String()]; ok {
			out.Append(rec)
		}
	}
	return out, nil
}

// FilterLocationIDs keeps the records collected at the given locations
func FilterLocationIDs(table *domain.Table, locations []string) (*domain.Table, error) {
	return FilterByKey(table, domain.LocationIDColumn, locations)
}

// SelectColumns projects table onto columns in the given order
func SelectColumns(table *domain.Table, columns []string) (*domain.Table, error) {
	if err := requireColumns("select_columns", table, columns...); err != nil {
		return nil, err
	}
	idx := make([]int, len(columns))
	for i, c := range columns {
		idx[i] = table.ColumnIndex(c)
	}

	out := domain.NewTable(columns...)
	out.Rows = make([]domain.Record, 0, table.Len())
	for _, rec := range table.Rows {
		values := make([]domain.Value, len(idx))
		for i, j := range idx {
			values[i] = rec.Values[j]
		}
		out.Append(domain.Record{Index: rec.Index, Values: values})
	}
	return out, nil
}

// DropMissing removes every record holding at least one missing cell
func DropMissing(table *domain.Table) *domain.Table {
	out := table.EmptyLike()
	for _, rec := range table.Rows {
		complete := true
		for _, v := range rec.Values {
			if v.IsNull() {
				complete = false
				break
			}
		}
		if complete {
			out.Append(rec)
		}
	}
	return out
}

// Operator is a comparison usable in a query condition
type Operator string

const (
	OpEqual        Operator = "=="
	OpNotEqual     Operator = "!="
	OpLess         Operator = "<"
	OpLessEqual    Operator = "<="
	OpGreater      Operator = ">"
	OpGreaterEqual Operator = ">="
)

// two-character operators first so "<=" is not read as "<"
var operators = []Operator{OpEqual, OpNotEqual, OpLessEqual, OpGreaterEqual, OpLess, OpGreater}

// Condition is a single "column op value" row filter
type Condition struct {
	Column   string       `json:"column" validate:"required"`
	Operator Operator     `json:"op" validate:"required,oneof=== != < <= > >="`
	Value    domain.Value `json:"value"`
}

func (c Condition) String() string {
	v := c.Value.String()
	if c.Value.Kind() == domain.KindText {
		v = "'" + v + "'"
	}
	return fmt.Sprintf("%s %s %s", c.Column, c.Operator, v)
}

// ParseCondition reads expressions such as "LocationID == 'CarloV'" or
// "PAQ1 >= 3". Column names may be wrapped in backticks; quoted values are
// always text, unquoted ones are inferred like file cells.
func ParseCondition(expr string) (Condition, error) {
	s := strings.TrimSpace(expr)
	if s == "" {
		return Condition{}, &FilterError{Condition: expr, Problem: "empty condition"}
	}

	pos, op := -1, Operator("")
	for _, candidate := range operators {
		if i := strings.Index(s, string(candidate)); i > 0 && (pos < 0 || i < pos) {
			pos, op = i, candidate
		}
	}
	if pos < 0 {
		return Condition{}, &FilterError{Condition: expr, Problem: "no comparison operator"}
	}

	column := strings.Trim(strings.TrimSpace(s[:pos]), "`")
	rawValue := strings.TrimSpace(s[pos+len(op):])
	if column == "" {
		return Condition{}, &FilterError{Condition: expr, Problem: "missing column name"}
	}
	if rawValue == "" {
		return Condition{}, &FilterError{Condition: expr, Problem: "missing value"}
	}

	var value domain.Value
	if n := len(rawValue); n >= 2 && (rawValue[0] == '\'' || rawValue[0] == '"') && rawValue[n-1] == rawValue[0] {
		value = domain.Text(rawValue[1 : n-1])
	} else {
		value = domain.ParseValue(rawValue)
	}
	return Condition{Column: column, Operator: op, Value: value}, nil
}

// ParseConditions parses each non-blank expression, in order
func ParseConditions(exprs []string) ([]Condition, error) {
	conds := make([]Condition, 0, len(exprs))
	for _, e := range exprs {
		if strings.TrimSpace(e) == "" {
			continue
		}
		c, err := ParseCondition(e)
		if err != nil {
			return nil, err
		}
		conds = append(conds, c)
	}
	return conds, nil
}

// ApplyConditions keeps records matching every condition. Missing cells only
// satisfy "!=".
func ApplyConditions(table *domain.Table, conds []Condition) (*domain.Table, error) {
	if len(conds) > MaxConditions {
		return nil, &FilterError{
			Condition: conds[MaxConditions].String(),
			Problem:   fmt.Sprintf("at most %d conditions are allowed", MaxConditions),
		}
	}
	cols := make([]string, len(conds))
	for i, c := range conds {
		cols[i] = c.Column
	}
	if err := requireColumns("query", table, cols...); err != nil {
		return nil, err
	}

	out := table
	for _, c := range conds {
		col := out.ColumnIndex(c.Column)
		next := out.EmptyLike()
		for _, rec := range out.Rows {
			if c.matches(rec.Values[col]) {
				next.Append(rec)
			}
		}
		out = next
	}
	if out == table {
		out = table.Clone()
	}
	return out, nil
}

func (c Condition) matches(v domain.Value) bool {
	if v.IsNull() || c.Value.IsNull() {
		return c.Operator == OpNotEqual && !(v.IsNull() && c.Value.IsNull())
	}

	var cmp int
	a, aNum := v.Float()
	b, bNum := c.Value.Float()
	if aNum && bNum && (v.Kind() == domain.KindNumber || c.Value.Kind() == domain.KindNumber) {
		switch {
		case a < b:
			cmp = -1
		case a > b:
			cmp = 1
		}
	} else {
		cmp = strings.Compare(v.String(), c.Value.String())
	}

	switch c.Operator {
	case OpEqual:
		return cmp == 0
	case OpNotEqual:
		return cmp != 0
	case OpLess:
		return cmp < 0
	case OpLessEqual:
		return cmp <= 0
	case OpGreater:
		return cmp > 0
	case OpGreaterEqual:
		return cmp >= 0
	default:
		return false
	}
}
