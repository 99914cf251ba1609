// Package geocode resolves free-text searches and map points to places.
// Coordinate literals are handled locally; names go to the Google
// Geocoding API behind a cache, a rate limiter and a circuit breaker.
package geocode

import (
	"context"
	"errors"
)

var (
	// ErrNoResultsFound is returned when a geocoding query yields no results.
	ErrNoResultsFound = errors.New("no results found for the given query")
	// ErrInvalidQuery is returned for queries that cannot be resolved
	// without a geocoding provider.
	ErrInvalidQuery = errors.New("query is not a coordinate pair")
)

// CoordinateHint tells the user how to type a coordinate search.
const CoordinateHint = "Digite coordenadas no formato: lat, lng (ex: 38.7223, -9.1393)"

// Place is a search suggestion or a reverse geocoding result.
type Place struct {
	Name        string  `json:"name"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	CountryCode string  `json:"countryCode,omitempty"`
}

// Provider is a remote geocoding backend.
type Provider interface {
	Geocode(ctx context.Context, query string) ([]Place, error)
	ReverseGeocode(ctx context.Context, lat, lng float64) (Place, error)
}
