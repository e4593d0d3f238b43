// Package classify labels AgNOR measurements as clusters or satellites
// with a binary classifier loaded from a model artifact.
package classify

import (
	"errors"
	"fmt"
	"os"

	"gonum.org/v1/gonum/mat"
	"gopkg.in/yaml.v3"
)

// NumFeatures is the number of columns a feature matrix must have.
const NumFeatures = 4

// ErrModelLoad is returned when a model artifact is missing or malformed.
var ErrModelLoad = errors.New("load classifier model")

// Predictor predicts a binary label for every row of an N×4 feature
// matrix. Columns are pixel count, nucleus ratio, smallest AgNOR ratio and
// greatest AgNOR ratio.
type Predictor interface {
	Predict(features mat.Matrix) ([]int, error)
}

// Model kinds accepted in an artifact.
const (
	KindLogisticRegression = "logistic_regression"
	KindDecisionTree       = "decision_tree"
)

type artifact struct {
	Kind         string    `yaml:"kind"`
	Coefficients []float64 `yaml:"coefficients"`
	Intercept    float64   `yaml:"intercept"`
	Nodes        []Node    `yaml:"nodes"`
}

// LoadModel reads a model artifact. The file is YAML (JSON is accepted as
// well) with a kind field selecting the model. Every failure wraps
// ErrModelLoad.
func LoadModel(path string) (Predictor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrModelLoad, err)
	}

	var a artifact
	if err := yaml.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %w", ErrModelLoad, path, err)
	}

	var p Predictor
	switch a.Kind {
	case KindLogisticRegression:
		p, err = NewLogisticRegression(a.Coefficients, a.Intercept)
	case KindDecisionTree:
		p, err = NewDecisionTree(a.Nodes)
	default:
		err = fmt.Errorf("unknown model kind %q", a.Kind)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrModelLoad, path, err)
	}
	return p, nil
}

// LogisticRegression predicts 1 when the linear score w·x + b is positive.
type LogisticRegression struct {
	weights   *mat.VecDense
	intercept float64
}

// NewLogisticRegression returns a model with one coefficient per feature.
func NewLogisticRegression(coefficients []float64, intercept float64) (*LogisticRegression, error) {
	if len(coefficients) != NumFeatures {
		return nil, fmt.Errorf("logistic regression needs %d coefficients, got %d", NumFeatures, len(coefficients))
	}
	w := make([]float64, NumFeatures)
	copy(w, coefficients)
	return &LogisticRegression{weights: mat.NewVecDense(NumFeatures, w), intercept: intercept}, nil
}

// Predict implements Predictor.
func (m *LogisticRegression) Predict(features mat.Matrix) ([]int, error) {
	rows, cols := features.Dims()
	if cols != NumFeatures {
		return nil, fmt.Errorf("feature matrix has %d columns, want %d", cols, NumFeatures)
	}

	var scores mat.VecDense
	scores.MulVec(features, m.weights)

	labels := make([]int, rows)
	for i := range labels {
		if scores.AtVec(i)+m.intercept > 0 {
			labels[i] = 1
		}
	}
	return labels, nil
}

// Node is one decision tree node. Internal nodes send a sample to Left
// when its Feature value is at most Threshold and to Right otherwise.
// Leaves have Left and Right set to -1 and carry the predicted Class.
type Node struct {
	Feature   int     `yaml:"feature"`
	Threshold float64 `yaml:"threshold"`
	Left      int     `yaml:"left"`
	Right     int     `yaml:"right"`
	Class     int     `yaml:"class"`
}

func (n Node) leaf() bool { return n.Left == -1 && n.Right == -1 }

// DecisionTree is a binary decision tree rooted at node 0.
type DecisionTree struct {
	nodes []Node
}

// NewDecisionTree validates the node table. Children must come after
// their parent, so every walk from the root ends at a leaf.
func NewDecisionTree(nodes []Node) (*DecisionTree, error) {
	if len(nodes) == 0 {
		return nil, errors.New("decision tree has no nodes")
	}
	for i, n := range nodes {
		if n.leaf() {
			if n.Class != 0 && n.Class != 1 {
				return nil, fmt.Errorf("node %d: class %d is not binary", i, n.Class)
			}
			continue
		}
		if n.Feature < 0 || n.Feature >= NumFeatures {
			return nil, fmt.Errorf("node %d: feature %d out of range", i, n.Feature)
		}
		for _, child := range []int{n.Left, n.Right} {
			if child <= i || child >= len(nodes) {
				return nil, fmt.Errorf("node %d: child %d out of order", i, child)
			}
		}
	}
	return &DecisionTree{nodes: nodes}, nil
}

// Predict implements Predictor.
func (t *DecisionTree) Predict(features mat.Matrix) ([]int, error) {
	rows, cols := features.Dims()
	if cols != NumFeatures {
		return nil, fmt.Errorf("feature matrix has %d columns, want %d", cols, NumFeatures)
	}

	labels := make([]int, rows)
	for i := range labels {
		n := t.nodes[0]
		for !n.leaf() {
			if features.At(i, n.Feature) <= n.Threshold {
				n = t.nodes[n.Left]
			} else {
				n = t.nodes[n.Right]
			}
		}
		labels[i] = n.Class
	}
	return labels, nil
}
