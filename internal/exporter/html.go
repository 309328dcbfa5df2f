package exporter

import (
	"fmt"
	"html/template"
	"io"
	"log/slog"

	"sspyviz/internal/config"
	"sspyviz/pkg/contracts/domain"
)

var reportTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"stat": formatStat,
	"date": func(p *domain.ProfileReport) string { return p.GeneratedAt.Format("2006-01-02 15:04:05 MST") },
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body{font-family:sans-serif;margin:2em;color:#222}
table{border-collapse:collapse;margin-bottom:1.5em}
th,td{border:1px solid #ccc;padding:4px 8px;text-align:right}
th{background:#f3f3f3}
td.name{text-align:left;font-weight:bold}
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<p>Generated {{date .}} &middot; {{.Level}} profile</p>
<h2>Overview</h2>
<table>
<tr><th>Observations</th><td>{{.Info.Observations}}</td></tr>
<tr><th>Columns</th><td>{{.Info.Columns}}</td></tr>
</table>
<h2>Columns</h2>
<table>
<tr><th>Column</th><th>Kind</th><th>Count</th><th>Missing</th><th>Unique</th>
{{- if eq .Level "full"}}<th>Mean</th><th>Std</th><th>Min</th><th>Q1</th><th>Median</th><th>Q3</th><th>Max</th>{{end}}</tr>
{{- $full := eq .Level "full"}}
{{- range .Columns}}
<tr><td class="name">{{.Name}}</td><td>{{.Kind}}</td><td>{{.Count}}</td><td>{{.Missing}}</td><td>{{.Unique}}</td>
{{- if $full}}{{with .Numeric}}<td>{{stat .Mean}}</td><td>{{stat .StdDev}}</td><td>{{stat .Min}}</td><td>{{stat .Q1}}</td><td>{{stat .Median}}</td><td>{{stat .Q3}}</td><td>{{stat .Max}}</td>{{else}}<td colspan="7"></td>{{end}}{{end}}</tr>
{{- end}}
</table>
{{- if $full}}
{{- range .Columns}}{{if .TopValues}}
<h3>{{.Name}}: most frequent values</h3>
<table>
<tr><th>Value</th><th>Count</th></tr>
{{- range .TopValues}}
<tr><td class="name">{{.Value}}</td><td>{{.Count}}</td></tr>
{{- end}}
</table>
{{- end}}{{end}}
{{- end}}
</body>
</html>
`))

// ReportRenderer writes profile reports as standalone HTML documents
type ReportRenderer struct {
	paths  *config.Paths
	logger *slog.Logger
}

// NewReportRenderer creates a renderer writing under the exports directory
func NewReportRenderer(paths *config.Paths, logger *slog.Logger) *ReportRenderer {
	return &ReportRenderer{paths: paths, logger: logger.With(slog.String("component", "report_renderer"))}
}

// RenderHTML executes the report template on w
func RenderHTML(w io.Writer, report *domain.ProfileReport) error {
	if err := reportTemplate.Execute(w, report); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	return nil
}

// WriteHTML writes the report to the exports directory under its
// timestamped name and returns the path
func (r *ReportRenderer) WriteHTML(report *domain.ProfileReport) (string, error) {
	fullPath := r.paths.GetExportPath(ReportFileName(report.GeneratedAt))
	r.logger.Info("writing profile report",
		slog.String("full_path", fullPath),
		slog.String("level", string(report.Level)))

	file, err := createExportFile(fullPath)
	if err != nil {
		return "", err
	}
	if err := RenderHTML(file, report); err != nil {
		file.Close()
		return "", err
	}
	return fullPath, file.Close()
}
