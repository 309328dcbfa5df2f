package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ValueKind identifies what a table cell holds
type ValueKind uint8

const (
	KindNull ValueKind = iota
	KindNumber
	KindText
)

// String returns the kind name used in profiles and logs
func (k ValueKind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindText:
		return "text"
	default:
		return "null"
	}
}

// missingTokens are cell contents treated as missing when parsing raw text.
// They follow the default NA markers of spreadsheet and CSV exports.
var missingTokens = map[string]struct{}{
	"":     {},
	"na":   {},
	"n/a":  {},
	"#n/a": {},
	"nan":  {},
	"null": {},
	"none": {},
	"-nan": {},
}

// Value is a single table cell: missing, numeric or text.
// The zero Value is missing.
type Value struct {
	kind ValueKind
	num  float64
	text string
}

// Null returns a missing value
func Null() Value {
	return Value{}
}

// Number returns a numeric value. NaN is kept as a number but reports IsNull.
func Number(f float64) Value {
	return Value{kind: KindNumber, num: f}
}

// Text returns a text value
func Text(s string) Value {
	return Value{kind: KindText, text: s}
}

// ParseValue infers a cell from raw text: NA markers become missing,
// parseable numbers become numeric, anything else is kept as text.
func ParseValue(raw string) Value {
	s := strings.TrimSpace(raw)
	if _, missing := missingTokens[strings.ToLower(s)]; missing {
		return Null()
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return Number(f)
	}
	return Text(s)
}

// Kind returns the cell kind
func (v Value) Kind() ValueKind {
	return v.kind
}

// IsNull reports whether the cell is missing. NaN numbers count as missing.
func (v Value) IsNull() bool {
	return v.kind == KindNull || (v.kind == KindNumber && math.IsNaN(v.num))
}

// Float returns the numeric content. Text cells holding a number are converted.
func (v Value) Float() (float64, bool) {
	switch v.kind {
	case KindNumber:
		return v.num, !math.IsNaN(v.num)
	case KindText:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.text), 64)
		if err != nil {
			return math.NaN(), false
		}
		return f, true
	default:
		return math.NaN(), false
	}
}

// String renders the cell for CSV export and key comparisons. Missing is "".
func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		if math.IsNaN(v.num) {
			return ""
		}
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindText:
		return v.text
	default:
		return ""
	}
}

// Equal reports cell equality. Two missing cells are equal.
func (v Value) Equal(other Value) bool {
	if v.IsNull() || other.IsNull() {
		return v.IsNull() && other.IsNull()
	}
	if v.kind != other.kind {
		return false
	}
	if v.kind == KindNumber {
		return v.num == other.num
	}
	return v.text == other.text
}

// GoString supports %#v in test failure output
func (v Value) GoString() string {
	switch v.kind {
	case KindNumber:
		return fmt.Sprintf("Number(%v)", v.num)
	case KindText:
		return fmt.Sprintf("Text(%q)", v.text)
	default:
		return "Null()"
	}
}

// MarshalJSON encodes missing and NaN cells as null
func (v Value) MarshalJSON() ([]byte, error) {
	switch {
	case v.IsNull():
		return []byte("null"), nil
	case v.kind == KindNumber:
		if math.IsInf(v.num, 0) {
			return json.Marshal(v.String())
		}
		return json.Marshal(v.num)
	default:
		return json.Marshal(v.text)
	}
}

// UnmarshalJSON decodes null, numbers and strings
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch x := raw.(type) {
	case nil:
		*v = Null()
	case float64:
		*v = Number(x)
	case string:
		*v = Text(x)
	case bool:
		*v = Text(strconv.FormatBool(x))
	default:
		return fmt.Errorf("unsupported cell value %s", string(data))
	}
	return nil
}
