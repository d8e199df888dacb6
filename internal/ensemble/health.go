package ensemble

import (
	"fmt"
	"math"
	"time"

	"github.com/solarcast/solarcast/internal/nasapower"
)

// syntheticProbe holds the commonly available parameters used for the
// health-check prediction, in table column order.
var syntheticProbe = []struct {
	name  string
	value float64
}{
	{"ALLSKY_SFC_SW_DWN", 20.5},
	{"T2M", 25.0},
	{"CLOUD_AMT", 30.0},
	{"WS2M", 3.5},
	{"RH2M", 60.0},
}

// EnsembleStatus describes the blend composition in a health report.
type EnsembleStatus struct {
	BaseModels []string           `json:"base_models"`
	Weights    map[string]float64 `json:"weights"`
}

// HealthReport is the structured result of a synthetic prediction probe.
type HealthReport struct {
	Healthy        bool            `json:"healthy"`
	TestPrediction *float64        `json:"test_prediction,omitempty"`
	Message        string          `json:"message,omitempty"`
	Error          string          `json:"error,omitempty"`
	EnsembleStatus *EnsembleStatus `json:"ensemble_status,omitempty"`
}

// CheckHealth runs a one-row synthetic table through the predictor. The
// probe is padded with dummy columns up to the artifact's expected feature
// width when known. It never returns an error; any failure or non-finite
// result becomes an unhealthy report with a diagnostic message.
func (h *Handler) CheckHealth() HealthReport {
	art, err := h.current()
	if err != nil {
		return HealthReport{Healthy: false, Error: "model not loaded"}
	}

	table := nasapower.NewTable([]time.Time{time.Now().UTC()})
	for _, p := range syntheticProbe {
		if err := table.AddColumn(p.name, []float64{p.value}); err != nil {
			return HealthReport{Healthy: false, Error: fmt.Sprintf("probe construction failed: %v", err)}
		}
	}
	if want := art.Model.NumFeatures(); want > 0 {
		for table.NumColumns() < want {
			name := fmt.Sprintf("dummy_feature_%d", table.NumColumns())
			if err := table.AddColumn(name, []float64{1.0}); err != nil {
				return HealthReport{Healthy: false, Error: fmt.Sprintf("probe construction failed: %v", err)}
			}
		}
	}

	preds, err := h.Predict(table)
	if err != nil {
		return HealthReport{Healthy: false, Error: fmt.Sprintf("model validation failed: %v", err)}
	}

	if len(preds) != 1 || math.IsNaN(preds[0]) || math.IsInf(preds[0], 0) {
		return HealthReport{Healthy: false, Error: "invalid test prediction"}
	}

	report := HealthReport{
		Healthy:        true,
		TestPrediction: &preds[0],
		Message:        "model validation successful",
	}
	if len(art.BaseModels) > 0 {
		report.EnsembleStatus = &EnsembleStatus{
			BaseModels: art.BaseModels,
			Weights:    art.Weights,
		}
	}
	return report
}
