package dataprocessing

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"sspyviz/pkg/contracts/domain"
)

// topValuesLimit bounds the categorical frequency list of a full profile
const topValuesLimit = 5

// Column kinds reported by a profile
const (
	ColumnNumeric = "numeric"
	ColumnText    = "text"
	ColumnEmpty   = "empty"
)

// BasicInfo returns the observation and column counts of a table
func BasicInfo(table *domain.Table) domain.BasicInfo {
	return domain.BasicInfo{Observations: table.Len(), Columns: table.Width()}
}

// Profiler computes per-column profile reports
type Profiler struct {
	logger *slog.Logger
	now    func() time.Time
}

// NewProfiler creates a profiler
func NewProfiler(logger *slog.Logger) *Profiler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Profiler{
		logger: logger.With(slog.String("component", "profiler")),
		now:    time.Now,
	}
}

// Profile summarises every column of table. The minimal level reports kind,
// count, missing and unique; the full level adds numeric statistics and the
// most frequent values of text columns.
func (p *Profiler) Profile(ctx context.Context, table *domain.Table, level domain.ProfileLevel, title string) *domain.ProfileReport {
	start := p.now()
	if level != domain.ProfileFull {
		level = domain.ProfileMinimal
	}

	report := &domain.ProfileReport{
		Title:       title,
		Level:       level,
		GeneratedAt: start.UTC(),
		Info:        BasicInfo(table),
		Columns:     make([]domain.ColumnProfile, 0, table.Width()),
	}
	for _, name := range table.Columns {
		values, _ := table.Column(name)
		report.Columns = append(report.Columns, profileColumn(name, values, level))
	}

	p.logger.DebugContext(ctx, "profile generated",
		slog.String("level", string(level)),
		slog.Int("columns", table.Width()),
		slog.Int("rows", table.Len()),
		slog.Duration("duration", time.Since(start)))
	return report
}

func profileColumn(name string, values []domain.Value, level domain.ProfileLevel) domain.ColumnProfile {
	col := domain.ColumnProfile{Name: name}

	counts := make(map[string]int)
	var order []string
	var nums []float64
	numeric := true
	for _, v := range values {
		if v.IsNull() {
			col.Missing++
			continue
		}
		col.Count++
		key := v.String()
		if counts[key] == 0 {
			order = append(order, key)
		}
		counts[key]++
		if v.Kind() == domain.KindNumber {
			f, _ := v.Float()
			nums = append(nums, f)
		} else {
			numeric = false
		}
	}
	col.Unique = len(counts)

	switch {
	case col.Count == 0:
		col.Kind = ColumnEmpty
	case numeric:
		col.Kind = ColumnNumeric
	default:
		col.Kind = ColumnText
	}

	if level != domain.ProfileFull {
		return col
	}
	if col.Kind == ColumnNumeric {
		col.Numeric = NumericSummary(nums)
	} else if col.Kind == ColumnText {
		col.TopValues = topValues(counts, order, topValuesLimit)
	}
	return col
}

// NumericSummary computes descriptive statistics of the finite values of x.
// Infinities and NaN are skipped; it returns nil when nothing is left.
// StdDev is the sample standard deviation, 0 for one value.
func NumericSummary(x []float64) *domain.NumericStats {
	sorted := make([]float64, 0, len(x))
	for _, f := range x {
		if !math.IsInf(f, 0) && !math.IsNaN(f) {
			sorted = append(sorted, f)
		}
	}
	if len(sorted) == 0 {
		return nil
	}
	sort.Float64s(sorted)

	s := &domain.NumericStats{
		Mean:   stat.Mean(sorted, nil),
		Min:    floats.Min(sorted),
		Max:    floats.Max(sorted),
		Q1:     stat.Quantile(0.25, stat.Empirical, sorted, nil),
		Median: stat.Quantile(0.5, stat.Empirical, sorted, nil),
		Q3:     stat.Quantile(0.75, stat.Empirical, sorted, nil),
	}
	if len(sorted) > 1 {
		s.StdDev = stat.StdDev(sorted, nil)
	}
	return s
}

// topValues returns the n most frequent values, ties in first-seen order
func topValues(counts map[string]int, order []string, n int) []domain.ValueCount {
	out := make([]domain.ValueCount, len(order))
	for i, v := range order {
		out[i] = domain.ValueCount{Value: v, Count: counts[v]}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	if len(out) > n {
		out = out[:n]
	}
	return out
}
