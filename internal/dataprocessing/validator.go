package dataprocessing

import (
	"context"
	"log/slog"
	"time"

	"sspyviz/pkg/contracts/domain"
)

// ValidationResult is the partition of a table into passing and failing records
type ValidationResult struct {
	Valid        *domain.Table                  `json:"valid"`
	Excluded     *domain.ExcludedTable          `json:"excluded"`
	ReasonCounts map[domain.ExclusionReason]int `json:"reason_counts"`
}

// Validate partitions table into records passing every check and records
// failing at least one. Completeness and range always run first; extra checks
// follow in the order given. Records keep their Index and relative order and
// are never modified.
//
// The range is checked before anything else, then the alias mapping, then the
// presence of every aliased column.
func Validate(table *domain.Table, aliases domain.PAQAliases, r domain.ValueRange, extra ...Check) (*ValidationResult, error) {
	if err := CheckRange(r); err != nil {
		return nil, err
	}
	if err := CheckAliases(aliases); err != nil {
		return nil, err
	}
	if _, err := paqColumnIndexes("validate", table, aliases); err != nil {
		return nil, err
	}

	checks := append(DefaultChecks(), extra...)
	predicates := make([]Predicate, len(checks))
	for i, c := range checks {
		p, err := c.Bind(table, aliases, r)
		if err != nil {
			return nil, err
		}
		predicates[i] = p
	}

	result := &ValidationResult{
		Valid:        table.EmptyLike(),
		Excluded:     &domain.ExcludedTable{Columns: append([]string{}, table.Columns...), Rows: []domain.ExcludedRecord{}},
		ReasonCounts: make(map[domain.ExclusionReason]int),
	}

	for _, rec := range table.Rows {
		var reasons []domain.ExclusionReason
		for i, pass := range predicates {
			if !pass(rec) {
				reasons = append(reasons, checks[i].Reason())
			}
		}
		if len(reasons) == 0 {
			result.Valid.Append(rec)
			continue
		}
		for _, reason := range reasons {
			result.ReasonCounts[reason]++
		}
		result.Excluded.Rows = append(result.Excluded.Rows, domain.ExcludedRecord{Record: rec, Reasons: reasons})
	}

	return result, nil
}

// Validator runs Validate with a fixed set of extra checks and logs the outcome
type Validator struct {
	logger *slog.Logger
	extra  []Check
}

// NewValidator creates a validator applying extra after the default checks
func NewValidator(logger *slog.Logger, extra ...Check) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Validator{
		logger: logger.With(slog.String("component", "validator")),
		extra:  extra,
	}
}

// Validate partitions table, adding per-call checks after the configured ones
func (v *Validator) Validate(ctx context.Context, table *domain.Table, aliases domain.PAQAliases, r domain.ValueRange, checks ...Check) (*ValidationResult, error) {
	start := time.Now()
	all := append(append([]Check{}, v.extra...), checks...)

	result, err := Validate(table, aliases, r, all...)
	if err != nil {
		v.logger.WarnContext(ctx, "validation rejected table",
			slog.String("error", err.Error()),
			slog.Int("rows", table.Len()))
		return nil, err
	}

	attrs := []any{
		slog.Int("rows", table.Len()),
		slog.Int("valid", result.Valid.Len()),
		slog.Int("excluded", result.Excluded.Len()),
		slog.Duration("duration", time.Since(start)),
	}
	for reason, n := range result.ReasonCounts {
		attrs = append(attrs, slog.Int("reason_"+string(reason), n))
	}
	v.logger.InfoContext(ctx, "validation completed", attrs...)
	return result, nil
}

// ChecksFor builds the optional checks named by configuration or a request
func ChecksFor(idColumn string, rejectUniform bool) []Check {
	var checks []Check
	if idColumn != "" {
		checks = append(checks, DuplicateIDCheck{Column: idColumn})
	}
	if rejectUniform {
		checks = append(checks, UniformResponseCheck{})
	}
	return checks
}
