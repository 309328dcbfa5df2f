// Package dataprocessing holds the soundscape survey pipeline: reading
// CSV/XLSX tables, validating PAQ responses, deriving ISO coordinates,
// filtering rows and computing profiles and plot data.
//
// # Pipeline
//
//	File → Parser → Table → Filters → Validate → (valid, excluded)
//	                                       valid → DeriveCoordinates → ISOPleasant, ISOEventful
//
// Every transform takes a table and returns a new one. Records keep the
// Index they were read with, so the valid and excluded tables of a
// validation run can always be joined back to the input.
//
// # Usage
//
//	table, err := dataprocessing.ParseFile("ISD.csv")
//	if err != nil {
//	    return err
//	}
//	result, err := dataprocessing.Validate(table, domain.DefaultPAQAliases(), domain.DefaultValueRange())
//	if err != nil {
//	    return err
//	}
//	withISO, err := dataprocessing.DeriveCoordinates(result.Valid, domain.DefaultPAQAliases(), domain.DefaultValueRange())
//
// # Error Handling
//
// Schema problems (*SchemaError), bad ranges (*RangeConfigError), bad alias
// maps (*AliasError) and bad query conditions (*FilterError) abort a call.
// Row data never does: failing rows are excluded with reason codes, and rows
// that cannot be projected get NaN coordinates.
package dataprocessing
