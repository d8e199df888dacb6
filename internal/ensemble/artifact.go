package ensemble

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sort"
	"time"
)

// ArtifactKind tags which recognized shape an artifact file decoded as.
type ArtifactKind string

const (
	KindDirectModel      ArtifactKind = "direct_model"
	KindWeightedEnsemble ArtifactKind = "weighted_ensemble"
	KindKeyedBundle      ArtifactKind = "keyed_bundle"
)

// bundleKeys are the recognized dictionary keys a single model may hide
// under, tried in order.
var bundleKeys = []string{"model", "trained_model", "clf", "regressor", "estimator"}

// Artifact is a loaded, immutable model bundle. It is replaced wholesale on
// reload, never mutated.
type Artifact struct {
	Model      Model
	Kind       ArtifactKind
	Path       string
	LoadedAt   time.Time
	SizeBytes  int64
	BaseModels []string           // ensemble bundles only
	Weights    map[string]float64 // ensemble bundles only
}

// LoadArtifact reads and decodes a model artifact file. Shape dispatch is
// decided once here, trying each recognized variant in order:
// a direct model spec, a models+weights bundle, then a single model under
// one of the recognized bundle keys. Anything else fails closed with the
// available top-level keys.
func LoadArtifact(path string) (*Artifact, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("model file not found: %w", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model file: %w", err)
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("undecodable model file: %w", err)
	}

	art := &Artifact{
		Path:      path,
		LoadedAt:  time.Now().UTC(),
		SizeBytes: info.Size(),
	}

	// (a) Direct model object.
	if _, ok := doc["type"]; ok {
		model, err := decodeModel(raw)
		if err != nil {
			return nil, err
		}
		art.Model = model
		art.Kind = KindDirectModel
		log.Printf("INFO: ensemble: loaded direct model from %s", path)
		return art, nil
	}

	// (b) models + weights bundle.
	modelsRaw, hasModels := doc["models"]
	weightsRaw, hasWeights := doc["weights"]
	if hasModels && hasWeights {
		var specs map[string]json.RawMessage
		if err := json.Unmarshal(modelsRaw, &specs); err != nil {
			return nil, fmt.Errorf("undecodable models map: %w", err)
		}
		var weights map[string]float64
		if err := json.Unmarshal(weightsRaw, &weights); err != nil {
			return nil, fmt.Errorf("undecodable weights map: %w", err)
		}

		models := make(map[string]Model, len(specs))
		for name, spec := range specs {
			m, err := decodeModel(spec)
			if err != nil {
				return nil, fmt.Errorf("model %q: %w", name, err)
			}
			models[name] = m
		}

		ens, err := NewEnsemble(models, weights)
		if err != nil {
			return nil, err
		}

		art.Model = ens
		art.Kind = KindWeightedEnsemble
		art.BaseModels = ens.BaseModels()
		art.Weights = ens.Weights()
		log.Printf("INFO: ensemble: loaded weighted ensemble with %d base models from %s", len(models), path)
		for _, name := range art.BaseModels {
			log.Printf("INFO: ensemble:   %s weight=%.4f", name, art.Weights[name])
		}
		return art, nil
	}

	// (c) Single model under a recognized key.
	for _, key := range bundleKeys {
		spec, ok := doc[key]
		if !ok {
			continue
		}
		model, err := decodeModel(spec)
		if err != nil {
			continue
		}
		art.Model = model
		art.Kind = KindKeyedBundle
		log.Printf("INFO: ensemble: found model under key %q in %s", key, path)
		return art, nil
	}

	keys := make([]string, 0, len(doc))
	for k := range doc {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return nil, &UnsupportedArtifactError{Keys: keys}
}
