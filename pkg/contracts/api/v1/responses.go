package api

import (
	"sspyviz/pkg/contracts/domain"
)

// DatasetListResponse lists stored datasets
type DatasetListResponse struct {
	Datasets []domain.DatasetSummary `json:"datasets"`
	Count    int                     `json:"count"`
}

// DatasetResponse describes one stored dataset
type DatasetResponse struct {
	domain.DatasetSummary
	ColumnNames []string `json:"column_names"`
}

// SourceResponse describes a bundled dataset source
type SourceResponse struct {
	Name        domain.DatasetSource `json:"name"`
	Description string               `json:"description"`
	Supported   bool                 `json:"supported"`
}

// ProcessResponse is the outcome of a pipeline run
type ProcessResponse struct {
	DatasetID    string                         `json:"dataset_id"`
	Info         domain.BasicInfo               `json:"info"`
	Table        *domain.Table                  `json:"table"`
	Excluded     *domain.ExcludedTable          `json:"excluded,omitempty"`
	ReasonCounts map[domain.ExclusionReason]int `json:"reason_counts,omitempty"`
}

// LocationsResponse is the response count per location
type LocationsResponse struct {
	Locations []domain.LocationCount `json:"locations"`
}

// MapResponse is the georeferenced responses of a dataset
type MapResponse struct {
	Points []domain.MapPoint `json:"points"`
}
