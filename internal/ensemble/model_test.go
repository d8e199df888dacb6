package ensemble

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// constantModel predicts a fixed value for every row.
type constantModel struct {
	value float64
}

func (m constantModel) Predict(X [][]float64) ([]float64, error) {
	out := make([]float64, len(X))
	for i := range out {
		out[i] = m.value
	}
	return out, nil
}

func (m constantModel) NumFeatures() int { return 0 }

func TestLinearModelPredict(t *testing.T) {
	m := &LinearModel{Intercept: 1.0, Coefficients: []float64{2.0, -0.5}}

	preds, err := m.Predict([][]float64{
		{1, 2},
		{0, 0},
	})
	require.NoError(t, err)
	assert.InDelta(t, 2.0, preds[0], 1e-12) // 1 + 2*1 - 0.5*2
	assert.InDelta(t, 1.0, preds[1], 1e-12)

	_, err = m.Predict([][]float64{{1, 2, 3}})
	assert.Error(t, err, "width mismatch surfaces as-is")
}

func TestTreeModelPredict(t *testing.T) {
	// if x0 <= 5 then 10 else 20
	m := &TreeModel{
		NFeatures: 1,
		Nodes: []TreeNode{
			{Feature: 0, Threshold: 5, Left: 1, Right: 2},
			{Feature: -1, Value: 10},
			{Feature: -1, Value: 20},
		},
	}

	preds, err := m.Predict([][]float64{{3}, {5}, {7}})
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 10, 20}, preds)
	assert.Equal(t, 1, m.NumFeatures())
}

func TestEnsembleBlendIsWeightedSum(t *testing.T) {
	models := map[string]Model{
		"a": constantModel{value: 10},
		"b": constantModel{value: 20},
	}

	X := [][]float64{{0}, {0}, {0}}

	halves, err := NewEnsemble(models, map[string]float64{"a": 0.5, "b": 0.5})
	require.NoError(t, err)
	preds, err := halves.Predict(X)
	require.NoError(t, err)
	for _, p := range preds {
		assert.InDelta(t, 15.0, p, 1e-12)
	}

	// Weights are used verbatim, never renormalized.
	ones, err := NewEnsemble(models, map[string]float64{"a": 1, "b": 1})
	require.NoError(t, err)
	preds, err = ones.Predict(X)
	require.NoError(t, err)
	for _, p := range preds {
		assert.InDelta(t, 30.0, p, 1e-12)
	}
}

func TestNewEnsembleValidation(t *testing.T) {
	models := map[string]Model{"a": constantModel{value: 1}}

	_, err := NewEnsemble(nil, nil)
	assert.Error(t, err, "empty ensemble")

	_, err = NewEnsemble(models, map[string]float64{})
	assert.Error(t, err, "model without weight")

	_, err = NewEnsemble(models, map[string]float64{"a": -0.1})
	assert.Error(t, err, "negative weight")

	// Extra weights for absent models are tolerated.
	e, err := NewEnsemble(models, map[string]float64{"a": 1, "ghost": 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, e.BaseModels())
}

func TestEnsembleIsItselfAModel(t *testing.T) {
	inner, err := NewEnsemble(
		map[string]Model{"a": constantModel{value: 4}},
		map[string]float64{"a": 1},
	)
	require.NoError(t, err)

	// Ensembles can nest.
	outer, err := NewEnsemble(
		map[string]Model{"inner": inner, "b": constantModel{value: 2}},
		map[string]float64{"inner": 0.5, "b": 1.0},
	)
	require.NoError(t, err)

	preds, err := outer.Predict([][]float64{{0}})
	require.NoError(t, err)
	assert.InDelta(t, 4.0, preds[0], 1e-12) // 0.5*4 + 1*2
}
