package ensemble

import (
	"fmt"

	"github.com/solarcast/solarcast/internal/nasapower"
)

// Metrics describes the loaded model for the dashboard.
type Metrics struct {
	ModelName      string `json:"model_name"`
	Status         string `json:"status"`
	ModelPath      string `json:"model_path"`
	DataSource     string `json:"data_source"`
	PredictionUnit string `json:"prediction_unit"`
	FinancialUnit  string `json:"financial_unit"`

	ModelType    string             `json:"model_type,omitempty"`
	FeatureCount int                `json:"feature_count,omitempty"`
	LoadedAt     string             `json:"loaded_at,omitempty"`
	FileSizeMB   float64            `json:"file_size_mb,omitempty"`
	BaseModels   []string           `json:"base_models,omitempty"`
	ModelWeights map[string]float64 `json:"model_weights,omitempty"`
}

// Metrics reports the handler's current model information.
func (h *Handler) Metrics() Metrics {
	m := Metrics{
		ModelName:      "PV Production Ensemble Model",
		Status:         "not_loaded",
		ModelPath:      h.modelPath,
		DataSource:     nasapower.SourceLabel,
		PredictionUnit: "kWh (daily)",
		FinancialUnit:  "MAD (Moroccan Dirham)",
	}

	art, err := h.current()
	if err != nil {
		return m
	}

	m.Status = "loaded"
	m.ModelType = modelTypeName(art)
	m.FeatureCount = art.Model.NumFeatures()
	m.LoadedAt = art.LoadedAt.Format("2006-01-02T15:04:05Z07:00")
	m.FileSizeMB = float64(art.SizeBytes) / (1024 * 1024)
	m.BaseModels = art.BaseModels
	m.ModelWeights = art.Weights
	return m
}

func modelTypeName(art *Artifact) string {
	switch art.Model.(type) {
	case *Ensemble:
		return "WeightedEnsemble"
	case *LinearModel:
		return "LinearModel"
	case *TreeModel:
		return "TreeModel"
	default:
		return fmt.Sprintf("%T", art.Model)
	}
}
