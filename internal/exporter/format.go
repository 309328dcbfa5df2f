package exporter

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"sspyviz/pkg/contracts/domain"
)

const (
	// FileTimestampLayout prefixes export file names
	FileTimestampLayout = "2006-01-02_15:04"

	dataFileSuffix   = "soundscapy_data"
	reportFileSuffix = "soundscapy_report"
)

// DataFileName returns the name of a data export, e.g.
// 2024-03-01_14:05_soundscapy_data.csv
func DataFileName(now time.Time, ext string) string {
	return fmt.Sprintf("%s_%s.%s", now.Format(FileTimestampLayout), dataFileSuffix, ext)
}

// ReportFileName returns the name of an HTML profile report
func ReportFileName(now time.Time) string {
	return fmt.Sprintf("%s_%s.html", now.Format(FileTimestampLayout), reportFileSuffix)
}

// formatValue renders a cell for text exports; missing becomes ""
func formatValue(v domain.Value) string {
	return v.String()
}

// formatStat renders a statistic with up to 4 decimals
func formatStat(f float64) string {
	if math.IsNaN(f) {
		return ""
	}
	return strconv.FormatFloat(f, 'f', 4, 64)
}
