package analysis

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// FeatureCount is the length of the score model input
const FeatureCount = 5

// Feature indices
const (
	FeatureNumPositions = iota
	FeatureSectorDiversity
	FeatureMaxSectorWeight
	FeatureAvgSectorWeight
	FeatureTechQuantityRatio
)

// FeatureVector is the fixed-order score model input:
// [num_positions, sector_diversity, max_sector_weight, avg_sector_weight, tech_quantity_ratio]
type FeatureVector [FeatureCount]float64

// Slice returns the vector as a slice for model evaluation
func (f FeatureVector) Slice() []float64 {
	out := make([]float64, FeatureCount)
	copy(out, f[:])
	return out
}

// ExtractFeatures builds the score model input from a portfolio.
// Sector weights are quantity based, not value based.
func ExtractFeatures(holdings []Holding) (FeatureVector, error) {
	var fv FeatureVector
	if len(holdings) == 0 {
		return fv, fmt.Errorf("%w: cannot extract features from an empty portfolio", ErrInvalidInput)
	}
	if err := ValidateHoldings(holdings); err != nil {
		return fv, err
	}

	var totalQty, techQty float64
	sectorQty := make(map[string]float64)
	var order []string
	for _, h := range holdings {
		totalQty += h.Quantity
		sector := h.SectorOrDefault()
		if _, ok := sectorQty[sector]; !ok {
			order = append(order, sector)
		}
		sectorQty[sector] += h.Quantity
		// Only an explicit Tech label counts toward the ratio.
		if h.Sector == DefaultSector {
			techQty += h.Quantity
		}
	}
	if totalQty == 0 {
		return fv, fmt.Errorf("%w: total quantity is zero", ErrInvalidInput)
	}

	weights := make([]float64, 0, len(order))
	for _, sector := range order {
		weights = append(weights, sectorQty[sector]/totalQty)
	}

	fv[FeatureNumPositions] = float64(len(holdings))
	fv[FeatureSectorDiversity] = float64(len(weights))
	fv[FeatureMaxSectorWeight] = floats.Max(weights)
	fv[FeatureAvgSectorWeight] = stat.Mean(weights, nil)
	fv[FeatureTechQuantityRatio] = techQty / totalQty
	return fv, nil
}
