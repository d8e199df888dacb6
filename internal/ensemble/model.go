// Package ensemble owns the persisted regression artifact and exposes the
// prediction contract: load a model bundle once, validate and repair input
// feature tables, and produce blended non-negative production estimates.
package ensemble

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Model is anything that maps a numeric feature matrix to one prediction
// per row. The weighted ensemble implements Model itself, so ensembles can
// nest.
type Model interface {
	// Predict returns one value per input row.
	Predict(X [][]float64) ([]float64, error)
	// NumFeatures returns the expected input width, or 0 if unknown.
	NumFeatures() int
}

// LinearModel is a fitted linear regressor.
type LinearModel struct {
	Intercept    float64   `json:"intercept"`
	Coefficients []float64 `json:"coefficients"`
}

func (m *LinearModel) Predict(X [][]float64) ([]float64, error) {
	out := make([]float64, len(X))
	for i, row := range X {
		if len(row) != len(m.Coefficients) {
			return nil, fmt.Errorf("linear model expects %d features, row %d has %d", len(m.Coefficients), i, len(row))
		}
		y := m.Intercept
		for j, c := range m.Coefficients {
			y += c * row[j]
		}
		out[i] = y
	}
	return out, nil
}

func (m *LinearModel) NumFeatures() int {
	return len(m.Coefficients)
}

// TreeNode is one node of a flattened regression tree. Leaves have
// Feature == -1 and carry the prediction in Value.
type TreeNode struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Value     float64 `json:"value"`
}

// TreeModel is a fitted regression tree stored as a node array rooted at
// index 0.
type TreeModel struct {
	NFeatures int        `json:"n_features"`
	Nodes     []TreeNode `json:"nodes"`
}

func (m *TreeModel) Predict(X [][]float64) ([]float64, error) {
	if len(m.Nodes) == 0 {
		return nil, fmt.Errorf("tree model has no nodes")
	}
	out := make([]float64, len(X))
	for i, row := range X {
		y, err := m.predictRow(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = y
	}
	return out, nil
}

func (m *TreeModel) predictRow(row []float64) (float64, error) {
	idx := 0
	for steps := 0; steps <= len(m.Nodes); steps++ {
		if idx < 0 || idx >= len(m.Nodes) {
			return 0, fmt.Errorf("node index %d out of range", idx)
		}
		node := m.Nodes[idx]
		if node.Feature < 0 {
			return node.Value, nil
		}
		if node.Feature >= len(row) {
			return 0, fmt.Errorf("tree expects feature %d, row has %d features", node.Feature, len(row))
		}
		if row[node.Feature] <= node.Threshold {
			idx = node.Left
		} else {
			idx = node.Right
		}
	}
	return 0, fmt.Errorf("tree walk did not reach a leaf")
}

func (m *TreeModel) NumFeatures() int {
	return m.NFeatures
}

// Ensemble blends named models by non-negative weights. The blend is a
// pass-through weighted sum: weights are used verbatim and never
// renormalized, so persisted weights may double as scale factors.
type Ensemble struct {
	models  map[string]Model
	weights map[string]float64
	names   []string
}

// NewEnsemble builds a weighted ensemble. Every model must have a
// non-negative weight under the same name.
func NewEnsemble(models map[string]Model, weights map[string]float64) (*Ensemble, error) {
	if len(models) == 0 {
		return nil, fmt.Errorf("ensemble requires at least one model")
	}
	names := make([]string, 0, len(models))
	for name := range models {
		w, ok := weights[name]
		if !ok {
			return nil, fmt.Errorf("model %q has no blend weight", name)
		}
		if w < 0 {
			return nil, fmt.Errorf("model %q has negative weight %v", name, w)
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return &Ensemble{models: models, weights: weights, names: names}, nil
}

func (e *Ensemble) Predict(X [][]float64) ([]float64, error) {
	blended := make([]float64, len(X))
	for _, name := range e.names {
		preds, err := e.models[name].Predict(X)
		if err != nil {
			return nil, fmt.Errorf("model %q: %w", name, err)
		}
		if len(preds) != len(X) {
			return nil, fmt.Errorf("model %q returned %d predictions for %d rows", name, len(preds), len(X))
		}
		w := e.weights[name]
		for i, p := range preds {
			blended[i] += w * p
		}
	}
	return blended, nil
}

// NumFeatures reports the expected width from the first base model that
// declares one.
func (e *Ensemble) NumFeatures() int {
	for _, name := range e.names {
		if n := e.models[name].NumFeatures(); n > 0 {
			return n
		}
	}
	return 0
}

// BaseModels returns the base model names in stable order.
func (e *Ensemble) BaseModels() []string {
	out := make([]string, len(e.names))
	copy(out, e.names)
	return out
}

// Weights returns a copy of the blend weights.
func (e *Ensemble) Weights() map[string]float64 {
	out := make(map[string]float64, len(e.weights))
	for k, v := range e.weights {
		out[k] = v
	}
	return out
}

// modelSpec is the serialized form of a single fitted regressor.
type modelSpec struct {
	Type         string     `json:"type"`
	Intercept    float64    `json:"intercept"`
	Coefficients []float64  `json:"coefficients"`
	NFeatures    int        `json:"n_features"`
	Nodes        []TreeNode `json:"nodes"`
}

// decodeModel turns a serialized model spec into a concrete Model.
func decodeModel(raw json.RawMessage) (Model, error) {
	var spec modelSpec
	if err := json.Unmarshal(raw, &spec); err != nil {
		return nil, fmt.Errorf("undecodable model spec: %w", err)
	}
	switch spec.Type {
	case "linear":
		if len(spec.Coefficients) == 0 {
			return nil, fmt.Errorf("linear model has no coefficients")
		}
		return &LinearModel{Intercept: spec.Intercept, Coefficients: spec.Coefficients}, nil
	case "tree":
		if len(spec.Nodes) == 0 {
			return nil, fmt.Errorf("tree model has no nodes")
		}
		return &TreeModel{NFeatures: spec.NFeatures, Nodes: spec.Nodes}, nil
	case "":
		return nil, fmt.Errorf("model spec has no type")
	default:
		return nil, fmt.Errorf("unknown model type %q", spec.Type)
	}
}
