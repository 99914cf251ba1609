package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	searchKeyPrefix  = "geocode"
	reverseKeyPrefix = "reverse"
)

// Searcher answers search box queries and map point lookups. Provider may
// be nil, in which case only coordinate literals resolve.
type Searcher struct {
	provider Provider
	cache    Cache
	ttl      time.Duration
	logger   *slog.Logger
}

func NewSearcher(provider Provider, cache Cache, ttl time.Duration, logger *slog.Logger) *Searcher {
	if cache == nil {
		cache = NopCache{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Searcher{provider: provider, cache: cache, ttl: ttl, logger: logger}
}

// Search resolves q to candidate places. Coordinate literals never reach
// the provider.
func (s *Searcher) Search(ctx context.Context, q string) ([]Place, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, ErrInvalidQuery
	}
	if place, ok := ParseCoordinates(q); ok {
		return []Place{place}, nil
	}
	if s.provider == nil {
		return nil, ErrInvalidQuery
	}

	normalized, err := NormalizeQuery(q)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}
	key := fmt.Sprintf("%s:%s", searchKeyPrefix, normalized)

	var places []Place
	if s.lookup(ctx, key, &places) {
		return places, nil
	}

	places, err = s.provider.Geocode(ctx, q)
	if err != nil {
		return nil, err
	}
	s.store(ctx, key, places)
	return places, nil
}

// Reverse names the place at lat, lng. Without a provider the coordinates
// themselves are used as the name.
func (s *Searcher) Reverse(ctx context.Context, lat, lng float64) (Place, error) {
	if s.provider == nil {
		return Place{Name: coordinateName(lat, lng), Lat: lat, Lng: lng}, nil
	}
	key := fmt.Sprintf("%s:%.4f,%.4f", reverseKeyPrefix, lat, lng)

	var place Place
	if s.lookup(ctx, key, &place) {
		return place, nil
	}

	place, err := s.provider.ReverseGeocode(ctx, lat, lng)
	if err != nil {
		return Place{}, err
	}
	s.store(ctx, key, place)
	return place, nil
}

// Flush empties the cache.
func (s *Searcher) Flush(ctx context.Context) error {
	return s.cache.Flush(ctx)
}

func (s *Searcher) lookup(ctx context.Context, key string, dst any) bool {
	cached, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn("error getting from cache", "key", key, "error", err)
		}
		return false
	}
	if err := json.Unmarshal([]byte(cached), dst); err != nil {
		s.logger.Warn("invalid cache entry: unmarshal error", "key", key, "error", err)
		return false
	}
	s.logger.Debug("cache hit", "key", key)
	return true
}

func (s *Searcher) store(ctx context.Context, key string, value any) {
	if err := s.cache.Set(ctx, key, value, s.ttl); err != nil {
		s.logger.Warn("error setting to cache", "key", key, "error", err)
		return
	}
	s.logger.Debug("set to cache", "key", key)
}
