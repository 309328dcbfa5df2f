package dataprocessing

import (
	"math"

	"sspyviz/pkg/contracts/domain"
)

// Weight is the projection of one PAQ onto the two circumplex axes
type Weight struct {
	Pleasantness float64
	Eventfulness float64
}

const cos45 = math.Sqrt2 / 2

// ProjectionWeights holds cos and sin of each attribute's circumplex angle,
// written out so the zero weights are exact.
var ProjectionWeights = [domain.PAQCount]Weight{
	domain.Pleasant:   {1, 0},
	domain.Vibrant:    {cos45, cos45},
	domain.Eventful:   {0, 1},
	domain.Chaotic:    {-cos45, cos45},
	domain.Annoying:   {-1, 0},
	domain.Monotonous: {-cos45, -cos45},
	domain.Uneventful: {0, -1},
	domain.Calm:       {cos45, -cos45},
}

// projectionScale is the sum of absolute weights on either axis. Dividing by
// it keeps both coordinates in [-1, 1] up to rounding.
const projectionScale = 2 + 2*math.Sqrt2

// Normalize maps v from [r.Min, r.Max] onto [-1, 1]
func Normalize(v float64, r domain.ValueRange) float64 {
	return (v - r.Midpoint()) / r.HalfWidth()
}

// ISOCoordinates projects eight raw PAQ responses, in circumplex order, onto
// the pleasantness and eventfulness axes. Any NaN or out-of-range response
// yields NaN for both coordinates.
func ISOCoordinates(values [domain.PAQCount]float64, r domain.ValueRange) (pleasant, eventful float64) {
	for _, v := range values {
		if math.IsNaN(v) || !r.Contains(v) {
			return math.NaN(), math.NaN()
		}
	}
	for p, v := range values {
		n := Normalize(v, r)
		pleasant += ProjectionWeights[p].Pleasantness * n
		eventful += ProjectionWeights[p].Eventfulness * n
	}
	return pleasant / projectionScale, eventful / projectionScale
}

// CoordinatesPresent reports whether ISOPleasant and ISOEventful both exist.
// A table holding only one of them is a SchemaError.
func CoordinatesPresent(table *domain.Table) (bool, error) {
	hasP := table.HasColumn(domain.ISOPleasantColumn)
	hasE := table.HasColumn(domain.ISOEventfulColumn)
	switch {
	case hasP && hasE:
		return true, nil
	case hasP:
		return false, &SchemaError{
			Operation: "derive_coordinates",
			Missing:   []string{domain.ISOEventfulColumn},
			Reason:    "table has " + domain.ISOPleasantColumn + " without its pair",
		}
	case hasE:
		return false, &SchemaError{
			Operation: "derive_coordinates",
			Missing:   []string{domain.ISOPleasantColumn},
			Reason:    "table has " + domain.ISOEventfulColumn + " without its pair",
		}
	default:
		return false, nil
	}
}

// DeriveCoordinates returns table with ISOPleasant and ISOEventful appended.
// When both columns already exist the input table is returned as is.
// Rows with missing, non-numeric or out-of-range PAQs get NaN coordinates;
// row data never fails the call.
func DeriveCoordinates(table *domain.Table, aliases domain.PAQAliases, r domain.ValueRange) (*domain.Table, error) {
	if err := CheckRange(r); err != nil {
		return nil, err
	}
	if err := CheckAliases(aliases); err != nil {
		return nil, err
	}
	present, err := CoordinatesPresent(table)
	if err != nil {
		return nil, err
	}
	if present {
		return table, nil
	}

	idx, err := paqColumnIndexes("derive_coordinates", table, aliases)
	if err != nil {
		return nil, err
	}

	pleasant := make([]domain.Value, table.Len())
	eventful := make([]domain.Value, table.Len())
	var raw [domain.PAQCount]float64
	for row, rec := range table.Rows {
		for p, i := range idx {
			f, ok := rec.Values[i].Float()
			if !ok {
				f = math.NaN()
			}
			raw[p] = f
		}
		x, y := ISOCoordinates(raw, r)
		pleasant[row] = domain.Number(x)
		eventful[row] = domain.Number(y)
	}

	return table.WithColumns(
		[]string{domain.ISOPleasantColumn, domain.ISOEventfulColumn},
		[][]domain.Value{pleasant, eventful},
	)
}
