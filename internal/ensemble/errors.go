package ensemble

import (
	"fmt"
	"strings"
)

// NotLoadedError means a prediction was requested before any artifact
// finished loading.
type NotLoadedError struct{}

func (e *NotLoadedError) Error() string {
	return "model is not loaded"
}

// UnsupportedArtifactError means the artifact file decoded but matched none
// of the recognized shapes. The available keys are reported for diagnosis.
type UnsupportedArtifactError struct {
	Keys []string
}

func (e *UnsupportedArtifactError) Error() string {
	return fmt.Sprintf("no supported model shape found; available keys: [%s]", strings.Join(e.Keys, ", "))
}

// LengthMismatchError is the defensive should-never-happen case of a model
// returning a different row count than its input.
type LengthMismatchError struct {
	Want int
	Got  int
}

func (e *LengthMismatchError) Error() string {
	return fmt.Sprintf("prediction length mismatch: expected %d, got %d", e.Want, e.Got)
}

// EmptyInputError means the caller handed the predictor an empty table.
type EmptyInputError struct{}

func (e *EmptyInputError) Error() string {
	return "input data is empty"
}
