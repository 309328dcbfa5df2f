package services

import (
	"encoding/json"

	"sspyviz/internal/config"
	"sspyviz/internal/dataprocessing"
	"sspyviz/pkg/contracts/domain"
)

// ProcessOptions configures one pipeline run:
// select columns, apply query conditions, drop missing rows, validate,
// then derive ISO coordinates.
type ProcessOptions struct {
	Columns       []string          `json:"columns,omitempty"`
	Conditions    []string          `json:"conditions,omitempty" validate:"max=5"`
	DropMissing   bool              `json:"drop_missing"`
	Validate      bool              `json:"validate"`
	CalculateISO  bool              `json:"calculate_iso"`
	Range         domain.ValueRange `json:"range"`
	Aliases       domain.PAQAliases `json:"aliases"`
	IDColumn      string            `json:"id_column,omitempty"`
	RejectUniform bool              `json:"reject_uniform"`
}

// DefaultProcessOptions builds options from the configured validation
// defaults. Validation and coordinate derivation are on.
func DefaultProcessOptions(cfg config.ValidationConfig) ProcessOptions {
	aliases, err := cfg.Aliases()
	if err != nil {
		aliases = domain.DefaultPAQAliases()
	}
	return ProcessOptions{
		Validate:      true,
		CalculateISO:  true,
		Range:         cfg.Range(),
		Aliases:       aliases,
		IDColumn:      cfg.IDColumn,
		RejectUniform: cfg.RejectUniform,
	}
}

// cacheKey is a stable encoding of the options
func (o ProcessOptions) cacheKey() string {
	data, _ := json.Marshal(o)
	return string(data)
}

// checks returns the optional validation checks the options ask for
func (o ProcessOptions) checks() []dataprocessing.Check {
	return dataprocessing.ChecksFor(o.IDColumn, o.RejectUniform)
}

// ProcessResult is the outcome of a pipeline run
type ProcessResult struct {
	DatasetID    string                         `json:"dataset_id"`
	Options      ProcessOptions                 `json:"options"`
	Info         domain.BasicInfo               `json:"info"`
	Table        *domain.Table                  `json:"table"`
	Excluded     *domain.ExcludedTable          `json:"excluded,omitempty"`
	ReasonCounts map[domain.ExclusionReason]int `json:"reason_counts,omitempty"`
}
