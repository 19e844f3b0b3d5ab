package scoring

import (
	"errors"
	"math"

	"github.com/trogers1052/portfolio-advisor/internal/analysis"
)

// ErrModelUnavailable means the score model artifact could not be loaded. It is fatal at startup.
var ErrModelUnavailable = errors.New("score model unavailable")

// Score bounds
const (
	MinScore = 0
	MaxScore = 100
)

// Model is a frozen regression over the five portfolio features
type Model interface {
	Predict(features []float64) float64
}

// Scorer adapts a Model to analysis.Scorer. It is immutable after construction and safe for
// concurrent use.
type Scorer struct {
	model   Model
	version string
}

// NewScorer wraps a model
func NewScorer(model Model, version string) *Scorer {
	return &Scorer{model: model, version: version}
}

// Version reports the artifact version the scorer was built from
func (s *Scorer) Version() string {
	return s.version
}

// Score clamps the raw prediction into [0,100] and then truncates it.
func (s *Scorer) Score(features analysis.FeatureVector) int {
	raw := s.model.Predict(features.Slice())
	if math.IsNaN(raw) {
		return MinScore
	}
	clamped := math.Max(MinScore, math.Min(MaxScore, raw))
	return int(clamped)
}
