package scoring

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/trogers1052/portfolio-advisor/internal/analysis"
)

// TrainingColumns is the CSV header the trainer expects, features first then the label
var TrainingColumns = []string{
	"num_stocks", "sector_diversity", "max_weight", "avg_weight", "tech_ratio", "score",
}

// TrainingSet holds labeled feature rows
type TrainingSet struct {
	Features [][]float64
	Scores   []float64
}

// ReadTrainingCSV parses a labeled dataset. Columns are matched by header name.
func ReadTrainingCSV(r io.Reader) (*TrainingSet, error) {
	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[name] = i
	}
	cols := make([]int, len(TrainingColumns))
	for i, name := range TrainingColumns {
		c, ok := index[name]
		if !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
		cols[i] = c
	}

	set := &TrainingSet{}
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		row := make([]float64, len(cols))
		for i, c := range cols {
			v, err := strconv.ParseFloat(record[c], 64)
			if err != nil {
				return nil, fmt.Errorf("line %d column %s: %w", line, TrainingColumns[i], err)
			}
			row[i] = v
		}
		set.Features = append(set.Features, row[:analysis.FeatureCount])
		set.Scores = append(set.Scores, row[analysis.FeatureCount])
	}
	return set, nil
}

// TrainLinear fits ordinary least squares with an intercept term.
func TrainLinear(set *TrainingSet, version string) (*Artifact, error) {
	n := len(set.Features)
	cols := analysis.FeatureCount + 1
	if n < cols {
		return nil, fmt.Errorf("need at least %d rows to fit, got %d", cols, n)
	}
	if len(set.Scores) != n {
		return nil, fmt.Errorf("feature rows (%d) and scores (%d) differ", n, len(set.Scores))
	}

	x := mat.NewDense(n, cols, nil)
	for i, row := range set.Features {
		if len(row) != analysis.FeatureCount {
			return nil, fmt.Errorf("row %d has %d features", i, len(row))
		}
		x.Set(i, 0, 1)
		for j, v := range row {
			x.Set(i, j+1, v)
		}
	}
	y := mat.NewVecDense(n, append([]float64(nil), set.Scores...))

	var beta mat.VecDense
	if err := beta.SolveVec(x, y); err != nil {
		return nil, fmt.Errorf("failed to fit model: %w", err)
	}

	coefficients := make([]float64, analysis.FeatureCount)
	for j := range coefficients {
		coefficients[j] = beta.AtVec(j + 1)
	}
	return &Artifact{
		Version:      version,
		Kind:         KindLinear,
		NumFeatures:  analysis.FeatureCount,
		Intercept:    beta.AtVec(0),
		Coefficients: coefficients,
	}, nil
}

// TrainingHeader renders TrainingColumns as a CSV header line
func TrainingHeader() string {
	return strings.Join(TrainingColumns, ",")
}
