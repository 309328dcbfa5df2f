package dataprocessing

import (
	"strings"

	"sspyviz/pkg/contracts/domain"
)

// Predicate reports whether a record passes a bound check
type Predicate func(rec domain.Record) bool

// Check is a per-row validation rule. Bind is called once per validation run
// with the table schema; the returned predicate may keep state across the
// records of that run and is discarded afterwards.
type Check interface {
	Reason() domain.ExclusionReason
	Bind(table *domain.Table, aliases domain.PAQAliases, r domain.ValueRange) (Predicate, error)
}

// DefaultChecks are applied by every validation run, in this order
func DefaultChecks() []Check {
	return []Check{CompletenessCheck{}, RangeCheck{}}
}

// CompletenessCheck fails records with any missing or blank PAQ value
type CompletenessCheck struct{}

func (CompletenessCheck) Reason() domain.ExclusionReason { return domain.ReasonCompleteness }

func (CompletenessCheck) Bind(table *domain.Table, aliases domain.PAQAliases, _ domain.ValueRange) (Predicate, error) {
	idx, err := paqColumnIndexes("completeness", table, aliases)
	if err != nil {
		return nil, err
	}
	return func(rec domain.Record) bool {
		for _, i := range idx {
			v := rec.Values[i]
			if v.IsNull() {
				return false
			}
			if v.Kind() == domain.KindText && strings.TrimSpace(v.String()) == "" {
				return false
			}
		}
		return true
	}, nil
}

// RangeCheck fails records whose present PAQ values are non-numeric or
// outside the closed range. Missing values are left to CompletenessCheck.
type RangeCheck struct{}

func (RangeCheck) Reason() domain.ExclusionReason { return domain.ReasonRange }

func (RangeCheck) Bind(table *domain.Table, aliases domain.PAQAliases, r domain.ValueRange) (Predicate, error) {
	idx, err := paqColumnIndexes("range", table, aliases)
	if err != nil {
		return nil, err
	}
	return func(rec domain.Record) bool {
		for _, i := range idx {
			v := rec.Values[i]
			if v.IsNull() {
				continue
			}
			f, ok := v.Float()
			if !ok || !r.Contains(f) {
				return false
			}
		}
		return true
	}, nil
}

// DuplicateIDCheck fails every record whose ID was already seen earlier in
// the same run. The first occurrence passes. Missing IDs are never duplicates.
type DuplicateIDCheck struct {
	Column string
}

func (DuplicateIDCheck) Reason() domain.ExclusionReason { return domain.ReasonDuplicateID }

func (c DuplicateIDCheck) Bind(table *domain.Table, _ domain.PAQAliases, _ domain.ValueRange) (Predicate, error) {
	if err := requireColumns("duplicate_id", table, c.Column); err != nil {
		return nil, err
	}
	col := table.ColumnIndex(c.Column)
	seen := make(map[string]struct{}, table.Len())
	return func(rec domain.Record) bool {
		v := rec.Values[col]
		if v.IsNull() {
			return true
		}
		key := v.String()
		if _, dup := seen[key]; dup {
			return false
		}
		seen[key] = struct{}{}
		return true
	}, nil
}

// UniformResponseCheck fails records where all eight PAQs hold the same value
// and that value is not the scale midpoint. A straight-lined neutral answer is
// plausible, a straight-lined extreme one is not.
type UniformResponseCheck struct{}

func (UniformResponseCheck) Reason() domain.ExclusionReason { return domain.ReasonUniformResponse }

func (UniformResponseCheck) Bind(table *domain.Table, aliases domain.PAQAliases, r domain.ValueRange) (Predicate, error) {
	idx, err := paqColumnIndexes("uniform_response", table, aliases)
	if err != nil {
		return nil, err
	}
	mid := r.Midpoint()
	return func(rec domain.Record) bool {
		first, ok := rec.Values[idx[0]].Float()
		if !ok {
			return true
		}
		for _, i := range idx[1:] {
			f, ok := rec.Values[i].Float()
			if !ok || f != first {
				return true
			}
		}
		return first == mid
	}, nil
}
