package domain

import (
	"time"
)

// Dataset is a loaded survey table and its provenance
type Dataset struct {
	ID        string        `json:"id" db:"id" validate:"required,uuid"`
	Name      string        `json:"name" db:"name" validate:"required"`
	Source    DatasetSource `json:"source" db:"source" validate:"required"`
	FileName  string        `json:"file_name,omitempty" db:"file_name"`
	CreatedAt time.Time     `json:"created_at" db:"created_at"`
	Table     *Table        `json:"table" db:"table_json"`
}

// DatasetSource says where a dataset came from
type DatasetSource string

const (
	SourceISD    DatasetSource = "ISD"
	SourceARAUS  DatasetSource = "ARAUS"
	SourceSATP   DatasetSource = "SATP"
	SourceUpload DatasetSource = "upload"
)

// Summary returns the dataset metadata without its rows
func (d *Dataset) Summary() DatasetSummary {
	return DatasetSummary{
		ID:           d.ID,
		Name:         d.Name,
		Source:       d.Source,
		FileName:     d.FileName,
		CreatedAt:    d.CreatedAt,
		Observations: d.Table.Len(),
		Columns:      d.Table.Width(),
	}
}

// DatasetSummary describes a dataset for listings
type DatasetSummary struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Source       DatasetSource `json:"source"`
	FileName     string        `json:"file_name,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	Observations int           `json:"observations"`
	Columns      int           `json:"columns"`
}

// BasicInfo is the headline size of a table
type BasicInfo struct {
	Observations int `json:"observations"`
	Columns      int `json:"columns"`
}

// ProfileLevel selects how much a profile report computes
type ProfileLevel string

const (
	ProfileMinimal ProfileLevel = "minimal"
	ProfileFull    ProfileLevel = "full"
)

// ColumnProfile summarises one column
type ColumnProfile struct {
	Name      string        `json:"name"`
	Kind      string        `json:"kind"`
	Count     int           `json:"count"`
	Missing   int           `json:"missing"`
	Unique    int           `json:"unique"`
	Numeric   *NumericStats `json:"numeric,omitempty"`
	TopValues []ValueCount  `json:"top_values,omitempty"`
}

// NumericStats are descriptive statistics of a numeric column
type NumericStats struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std"`
	Min    float64 `json:"min"`
	Q1     float64 `json:"q1"`
	Median float64 `json:"median"`
	Q3     float64 `json:"q3"`
	Max    float64 `json:"max"`
}

// ValueCount is a value and how often it appears
type ValueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// ProfileReport is the per-column profile of a table
type ProfileReport struct {
	Title       string          `json:"title"`
	Level       ProfileLevel    `json:"level"`
	GeneratedAt time.Time       `json:"generated_at"`
	Info        BasicInfo       `json:"info"`
	Columns     []ColumnProfile `json:"columns"`
}

// LocationCount is the number of responses recorded at a location
type LocationCount struct {
	LocationID string `json:"location_id"`
	Count      int    `json:"count"`
}

// MapPoint is a georeferenced response
type MapPoint struct {
	Index     int     `json:"index"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}
