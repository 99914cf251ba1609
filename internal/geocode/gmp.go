package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// GmpService queries the Google Maps Platform Geocoding API. Calls are rate
// limited and pass through a circuit breaker that opens after repeated
// provider failures.
type GmpService struct {
	gmpKey        string
	gmpGeocodeURL string
	httpClient    *http.Client
	limiter       *rate.Limiter
	circuit       *gobreaker.CircuitBreaker
}

// NewGmpService creates a GmpService allowing rps requests per second.
func NewGmpService(gmpKey, gmpGeocodeURL string, httpClient *http.Client, rps float64) *GmpService {
	if rps <= 0 {
		rps = 5
	}
	return &GmpService{
		gmpKey:        gmpKey,
		gmpGeocodeURL: gmpGeocodeURL,
		httpClient:    httpClient,
		limiter:       rate.NewLimiter(rate.Limit(rps), int(rps)+1),
		circuit: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "gmp-geocode",
			MaxRequests: 5,
			Interval:    1 * time.Minute,
			Timeout:     2 * time.Minute,
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, ErrNoResultsFound)
			},
		}),
	}
}

func (s *GmpService) Geocode(ctx context.Context, query string) ([]Place, error) {
	return s.performGeocodeRequest(ctx, map[string]string{
		"address": query,
	})
}

func (s *GmpService) ReverseGeocode(ctx context.Context, lat, lng float64) (Place, error) {
	places, err := s.performGeocodeRequest(ctx, map[string]string{
		"latlng": fmt.Sprintf("%f,%f", lat, lng),
	})
	if err != nil {
		return Place{}, err
	}
	place := places[0]
	place.Lat, place.Lng = lat, lng
	return place, nil
}

func (s *GmpService) performGeocodeRequest(ctx context.Context, queryParams map[string]string) ([]Place, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait canceled: %w", err)
	}

	baseURL, err := url.Parse(s.gmpGeocodeURL + "json")
	if err != nil {
		return nil, fmt.Errorf("failed to parse base geocode URL: %w", err)
	}
	q := baseURL.Query()
	q.Set("key", s.gmpKey)
	q.Set("language", "pt-BR")
	for key, value := range queryParams {
		q.Set(key, value)
	}
	baseURL.RawQuery = q.Encode()

	result, err := s.circuit.Execute(func() (interface{}, error) {
		return s.fetch(ctx, baseURL.String())
	})
	if err != nil {
		return nil, err
	}
	return result.([]Place), nil
}

func (s *GmpService) fetch(ctx context.Context, reqURL string) ([]Place, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build geocoding request: %w", err)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocoding API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocoding API request returned non-200 status: %s", resp.Status)
	}

	var responseJSON gmpResponse
	if err := json.NewDecoder(resp.Body).Decode(&responseJSON); err != nil {
		return nil, fmt.Errorf("failed to decode geocoding response: %w", err)
	}

	if responseJSON.Status != "OK" {
		if responseJSON.Status == "ZERO_RESULTS" {
			return nil, ErrNoResultsFound
		}
		return nil, fmt.Errorf("geocoding API returned status: %s", responseJSON.Status)
	}
	if len(responseJSON.Results) == 0 {
		return nil, ErrNoResultsFound
	}

	places := make([]Place, len(responseJSON.Results))
	for i, r := range responseJSON.Results {
		places[i] = placeFromResult(r)
	}
	return places, nil
}

// placeFromResult prefers the formatted address as the display name and
// falls back to the locality.
func placeFromResult(result gmpResult) Place {
	place := Place{
		Name: result.FormattedAddress,
		Lat:  result.Geometry.Location.Latitude,
		Lng:  result.Geometry.Location.Longitude,
	}
	for _, component := range result.AddressComponents {
		for _, componentType := range component.Types {
			switch componentType {
			case "locality":
				if place.Name == "" {
					place.Name = component.LongName
				}
			case "country":
				place.CountryCode = component.ShortName
			}
		}
	}
	return place
}

// Google Geocoding API response.
type gmpResponse struct {
	Results []gmpResult `json:"results"`
	Status  string      `json:"status"`
}

type gmpResult struct {
	FormattedAddress  string                `json:"formatted_address"`
	AddressComponents []gmpAddressComponent `json:"address_components"`
	Geometry          gmpGeometry           `json:"geometry"`
}

type gmpAddressComponent struct {
	LongName  string   `json:"long_name"`
	ShortName string   `json:"short_name"`
	Types     []string `json:"types"`
}

type gmpGeometry struct {
	Location gmpLatLng `json:"location"`
}

type gmpLatLng struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
}
