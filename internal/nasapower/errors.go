package nasapower

import (
	"fmt"
	"strings"
)

// ValidationError marks bad caller input (coordinates, dates). It is never
// retried and maps to a 4xx response at the boundary.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// ProviderError means the provider answered but flagged an error in its
// response metadata. Retrying the same request will not help.
type ProviderError struct {
	Messages []string
}

func (e *ProviderError) Error() string {
	return "provider error: " + strings.Join(e.Messages, "; ")
}

// DataSourceUnavailableError means every transport attempt failed.
type DataSourceUnavailableError struct {
	Attempts int
	Err      error
}

func (e *DataSourceUnavailableError) Error() string {
	return fmt.Sprintf("data source unavailable after %d attempts: %v", e.Attempts, e.Err)
}

func (e *DataSourceUnavailableError) Unwrap() error {
	return e.Err
}

// ParseError means the response body did not have the expected shape.
type ParseError struct {
	Message string
}

func (e *ParseError) Error() string {
	return "parse error: " + e.Message
}
