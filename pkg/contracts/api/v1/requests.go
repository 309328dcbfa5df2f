// Package api contains the HTTP API contract definitions.
// Version v1 represents the current stable API version.
package api

import (
	"sspyviz/pkg/contracts/domain"
)

// Dataset API Requests

// ProcessRequest describes one pipeline run over a stored dataset. Nil
// fields fall back to the server's configured defaults. PAQAliases is keyed
// by semantic attribute name, e.g. {"pleasant": "PAQ1", "calm": "PAQ8"};
// attributes it leaves out keep their configured column.
type ProcessRequest struct {
	Columns       []string          `json:"columns,omitempty" validate:"omitempty,dive,required"`
	Conditions    []string          `json:"conditions,omitempty" validate:"max=5"`
	DropMissing   *bool             `json:"drop_missing,omitempty"`
	Validate      *bool             `json:"validate,omitempty"`
	CalculateISO  *bool             `json:"calculate_iso,omitempty"`
	PAQMin        *float64          `json:"paq_min,omitempty"`
	PAQMax        *float64          `json:"paq_max,omitempty"`
	PAQAliases    map[string]string `json:"paq_aliases,omitempty" validate:"omitempty,dive,keys,oneof=pleasant vibrant eventful chaotic annoying monotonous uneventful calm,endkeys,required"`
	IDColumn      *string           `json:"id_column,omitempty"`
	RejectUniform *bool             `json:"reject_uniform,omitempty"`
}

// ReportRequest asks for a profile report of a processed dataset
type ReportRequest struct {
	Process ProcessRequest      `json:"process"`
	Level   domain.ProfileLevel `json:"level" validate:"omitempty,oneof=minimal full"`
	Title   string              `json:"title,omitempty" validate:"max=200"`
}

// ExportRequest asks for a processed dataset as a file
type ExportRequest struct {
	Process  ProcessRequest `json:"process"`
	Format   string         `json:"format" query:"format" validate:"omitempty,oneof=csv xlsx"`
	Excluded bool           `json:"excluded" query:"excluded"`
}

// PlotRequest asks for circumplex plot data
type PlotRequest struct {
	Process        ProcessRequest `json:"process"`
	Kind           string         `json:"kind" validate:"omitempty,oneof=scatter density"`
	Level          string         `json:"level" validate:"omitempty,oneof=simple full"`
	Hue            string         `json:"hue,omitempty"`
	Locations      []string       `json:"locations,omitempty"`
	Title          string         `json:"title,omitempty" validate:"max=200"`
	Alpha          float64        `json:"alpha,omitempty" validate:"gte=0,lte=1"`
	PointSize      float64        `json:"point_size,omitempty" validate:"gte=0,lte=100"`
	GridSize       int            `json:"grid_size,omitempty" validate:"omitempty,min=8,max=256"`
	IncludeScatter bool           `json:"include_scatter,omitempty"`
}
