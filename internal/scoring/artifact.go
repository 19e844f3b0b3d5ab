package scoring

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/trogers1052/portfolio-advisor/internal/analysis"
)

// Artifact kinds
const (
	KindLinear = "linear"
	KindForest = "forest"
)

// leaf marks a tree node without children
const leaf = -1

// Artifact is the serialized form of a trained score model.
type Artifact struct {
	Version      string    `msgpack:"version"`
	Kind         string    `msgpack:"kind"`
	NumFeatures  int       `msgpack:"num_features"`
	Intercept    float64   `msgpack:"intercept,omitempty"`
	Coefficients []float64 `msgpack:"coefficients,omitempty"`
	Trees        []Tree    `msgpack:"trees,omitempty"`
}

// Tree is one regression tree of a forest, stored as a flat node table rooted at index 0
type Tree struct {
	Nodes []Node `msgpack:"nodes"`
}

// Node splits on Feature <= Threshold (go Left) or holds a Value when Left is -1
type Node struct {
	Feature   int     `msgpack:"feature"`
	Threshold float64 `msgpack:"threshold"`
	Left      int     `msgpack:"left"`
	Right     int     `msgpack:"right"`
	Value     float64 `msgpack:"value"`
}

// DecodeArtifact parses and validates a msgpack artifact
func DecodeArtifact(data []byte) (*Artifact, error) {
	var a Artifact
	if err := msgpack.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("failed to decode model artifact: %w", err)
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return &a, nil
}

// Encode serializes the artifact
func (a *Artifact) Encode() ([]byte, error) {
	data, err := msgpack.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("failed to encode model artifact: %w", err)
	}
	return data, nil
}

// Validate checks that the artifact matches the feature vector shape and is internally consistent
func (a *Artifact) Validate() error {
	if a.NumFeatures != analysis.FeatureCount {
		return fmt.Errorf("artifact expects %d features, pipeline produces %d", a.NumFeatures, analysis.FeatureCount)
	}

	switch a.Kind {
	case KindLinear:
		if len(a.Coefficients) != a.NumFeatures {
			return fmt.Errorf("linear artifact has %d coefficients, want %d", len(a.Coefficients), a.NumFeatures)
		}
	case KindForest:
		if len(a.Trees) == 0 {
			return fmt.Errorf("forest artifact has no trees")
		}
		for i, t := range a.Trees {
			if err := t.validate(a.NumFeatures); err != nil {
				return fmt.Errorf("tree %d: %w", i, err)
			}
		}
	default:
		return fmt.Errorf("unknown artifact kind %q", a.Kind)
	}
	return nil
}

func (t Tree) validate(numFeatures int) error {
	if len(t.Nodes) == 0 {
		return fmt.Errorf("empty tree")
	}
	for i, n := range t.Nodes {
		if n.Left == leaf {
			continue
		}
		if n.Feature < 0 || n.Feature >= numFeatures {
			return fmt.Errorf("node %d splits on unknown feature %d", i, n.Feature)
		}
		// children must point forward so evaluation always terminates
		if n.Left <= i || n.Right <= i || n.Left >= len(t.Nodes) || n.Right >= len(t.Nodes) {
			return fmt.Errorf("node %d has invalid children %d/%d", i, n.Left, n.Right)
		}
	}
	return nil
}

// Model builds the evaluator for the artifact
func (a *Artifact) Model() (Model, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	switch a.Kind {
	case KindLinear:
		return &linearModel{intercept: a.Intercept, coefficients: append([]float64(nil), a.Coefficients...)}, nil
	default:
		return &forestModel{trees: a.Trees}, nil
	}
}

type linearModel struct {
	intercept    float64
	coefficients []float64
}

func (m *linearModel) Predict(features []float64) float64 {
	return m.intercept + floats.Dot(m.coefficients, features)
}

// forestModel averages its trees, like a random forest regressor
type forestModel struct {
	trees []Tree
}

func (m *forestModel) Predict(features []float64) float64 {
	outputs := make([]float64, len(m.trees))
	for i, t := range m.trees {
		outputs[i] = t.predict(features)
	}
	return stat.Mean(outputs, nil)
}

func (t Tree) predict(features []float64) float64 {
	i := 0
	for {
		n := t.Nodes[i]
		if n.Left == leaf {
			return n.Value
		}
		if features[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}
