package ensemble

import (
	"log"
	"math"
	"sync"

	"github.com/solarcast/solarcast/internal/nasapower"
)

// State is the handler's load lifecycle.
type State string

const (
	StateUnloaded State = "unloaded"
	StateLoading  State = "loading"
	StateLoaded   State = "loaded"
	StateFailed   State = "failed"
)

// Handler owns the active artifact. It is the only long-lived mutable
// state in the process: concurrent requests share-read the artifact, and
// Reload swaps it atomically so in-flight predictions observe either the
// old or the new artifact, never a partial one. A failed reload leaves the
// handler unloaded rather than rolling back; callers that want the old
// artifact back must reload a good file.
type Handler struct {
	modelPath string

	mu       sync.RWMutex
	artifact *Artifact
	state    State
	lastErr  error
}

// NewHandler creates an unloaded handler for the given artifact path.
func NewHandler(modelPath string) *Handler {
	return &Handler{
		modelPath: modelPath,
		state:     StateUnloaded,
	}
}

// Load reads the artifact file and, on success, swaps it in. The previous
// artifact keeps serving until the swap; on failure it is discarded.
func (h *Handler) Load() error {
	h.mu.Lock()
	h.state = StateLoading
	h.mu.Unlock()

	art, err := LoadArtifact(h.modelPath)

	h.mu.Lock()
	defer h.mu.Unlock()
	if err != nil {
		h.artifact = nil
		h.state = StateFailed
		h.lastErr = err
		log.Printf("ERROR: ensemble: failed to load model from %s: %v", h.modelPath, err)
		return err
	}
	h.artifact = art
	h.state = StateLoaded
	h.lastErr = nil
	log.Printf("INFO: ensemble: model loaded from %s (%s)", h.modelPath, art.Kind)
	return nil
}

// Reload re-runs Load. Exposed separately to match the serving contract.
func (h *Handler) Reload() error {
	log.Printf("INFO: ensemble: reloading model from %s", h.modelPath)
	return h.Load()
}

// State returns the current lifecycle state.
func (h *Handler) State() State {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.state
}

// Loaded reports whether an artifact is currently active.
func (h *Handler) Loaded() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.artifact != nil
}

// ModelPath returns the configured artifact file path.
func (h *Handler) ModelPath() string {
	return h.modelPath
}

// current snapshots the active artifact.
func (h *Handler) current() (*Artifact, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.artifact == nil {
		return nil, &NotLoadedError{}
	}
	return h.artifact, nil
}

// Predict runs the input table through the active artifact and returns one
// non-negative per-unit production estimate per row. Capacity scaling is
// the caller's concern, applied downstream of this contract.
//
// Input repair is two-pass: infinite values are nulled first, then a single
// per-column mean fill covers both originally-missing and newly-nulled
// cells. An all-missing column has no finite mean, so its cells stay
// missing and any resulting numeric failure surfaces as-is.
func (h *Handler) Predict(table *nasapower.Table) ([]float64, error) {
	art, err := h.current()
	if err != nil {
		return nil, err
	}

	if table == nil || table.NumRows() == 0 {
		return nil, &EmptyInputError{}
	}

	if want := art.Model.NumFeatures(); want > 0 && table.NumColumns() != want {
		log.Printf("WARN: ensemble: feature count mismatch: expected %d, got %d", want, table.NumColumns())
	}

	X := table.Matrix()
	if n := countNonFinite(X); n > 0 {
		log.Printf("WARN: ensemble: found %d missing or infinite values in input data", n)
	}
	repairMatrix(X)

	preds, err := art.Model.Predict(X)
	if err != nil {
		return nil, err
	}

	if len(preds) != table.NumRows() {
		return nil, &LengthMismatchError{Want: table.NumRows(), Got: len(preds)}
	}

	// Production cannot be negative.
	for i, p := range preds {
		if p < 0 {
			preds[i] = 0
		}
	}

	return preds, nil
}

func countNonFinite(X [][]float64) int {
	n := 0
	for _, row := range X {
		for _, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				n++
			}
		}
	}
	return n
}

// repairMatrix converts infinities to missing, then fills every missing
// cell with its column's finite mean, in place.
func repairMatrix(X [][]float64) {
	if len(X) == 0 {
		return
	}
	cols := len(X[0])

	for _, row := range X {
		for j, v := range row {
			if math.IsInf(v, 0) {
				row[j] = math.NaN()
			}
		}
	}

	for j := 0; j < cols; j++ {
		var sum float64
		var count int
		for _, row := range X {
			if j < len(row) && !math.IsNaN(row[j]) {
				sum += row[j]
				count++
			}
		}
		if count == 0 {
			// No finite values to average; the column stays missing.
			continue
		}
		mean := sum / float64(count)
		for _, row := range X {
			if j < len(row) && math.IsNaN(row[j]) {
				row[j] = mean
			}
		}
	}
}
