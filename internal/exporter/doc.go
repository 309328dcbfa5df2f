// Package exporter writes survey tables and profile reports to files or
// HTTP responses.
//
// Tables go out as CSV (optionally with a UTF-8 BOM so spreadsheet tools
// pick the encoding up) or as single-sheet XLSX workbooks built with
// excelize. Profile reports are rendered to standalone HTML.
//
// File names carry a minute timestamp:
//
//	exporter.DataFileName(time.Now(), "csv")   // 2024-03-01_14:05_soundscapy_data.csv
//	exporter.ReportFileName(time.Now())        // 2024-03-01_14:05_soundscapy_report.html
//
// The *Writer types resolve names against config.Paths.ExportsDir; the
// package-level Write*/Render* functions take any io.Writer.
package exporter
