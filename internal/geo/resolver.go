// Package geo resolves city/country pairs to coordinates so prediction
// requests can name a place instead of a raw point.
package geo

import (
	"errors"
	"fmt"

	"github.com/kelvins/geocoder"

	"github.com/solarcast/solarcast/internal/nasapower"
)

// ErrNotConfigured is returned when no geocoding API key is set.
var ErrNotConfigured = errors.New("geocoding is not configured; set GEOCODER_API_KEY or pass coordinates")

// Resolver turns a named place into a validated (lat, lon) point using the
// Google geocoding backend.
type Resolver struct {
	apiKey string
}

// NewResolver creates a Resolver. An empty apiKey yields a resolver that
// rejects every lookup with ErrNotConfigured.
func NewResolver(apiKey string) *Resolver {
	return &Resolver{apiKey: apiKey}
}

// Configured reports whether the resolver can perform lookups.
func (r *Resolver) Configured() bool {
	return r.apiKey != ""
}

// Resolve geocodes a city/country pair and validates the result against
// the provider's coordinate bounds.
func (r *Resolver) Resolve(city, country string) (lat, lon float64, err error) {
	if !r.Configured() {
		return 0, 0, ErrNotConfigured
	}
	if city == "" {
		return 0, 0, &nasapower.ValidationError{Field: "city", Message: "city is required for geocoding"}
	}

	geocoder.ApiKey = r.apiKey
	loc, err := geocoder.Geocoding(geocoder.Address{
		City:    city,
		Country: country,
	})
	if err != nil {
		return 0, 0, fmt.Errorf("geocoding %q failed: %w", city, err)
	}

	if err := nasapower.ValidateCoordinates(loc.Latitude, loc.Longitude); err != nil {
		return 0, 0, err
	}
	return loc.Latitude, loc.Longitude, nil
}
