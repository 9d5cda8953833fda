package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dstepanov-dev/medslot/internal/gorzdrav"
	"github.com/dstepanov-dev/medslot/pkg/logging"
)

const defaultTTL = 12 * time.Hour

const (
	keyDistricts  = "directory:districts"
	keyFacilities = "directory:facilities"
)

// ProviderClient is the reference-data subset of the scheduling API.
type ProviderClient interface {
	ListDistricts(ctx context.Context) ([]gorzdrav.District, error)
	ListFacilities(ctx context.Context) ([]gorzdrav.Facility, error)
	ListFacilitiesByDistrict(ctx context.Context, districtID int) ([]gorzdrav.Facility, error)
	ListSpecialties(ctx context.Context, lpuID int) ([]gorzdrav.Specialty, error)
}

// Service serves slow-changing provider reference data (districts,
// facilities, specialties) through a Redis read-through cache. Doctor and
// slot listings change between engine ticks and are deliberately not served
// here. A nil Redis client disables caching; every read then hits the
// provider directly.
type Service struct {
	api    ProviderClient
	cache  *redis.Client
	ttl    time.Duration
	logger *logging.Logger
}

// NewService creates a directory service. cache may be nil.
func NewService(api ProviderClient, cache *redis.Client, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		api:    api,
		cache:  cache,
		ttl:    defaultTTL,
		logger: logger,
	}
}

// WithTTL overrides the cache entry lifetime.
func (s *Service) WithTTL(d time.Duration) *Service {
	if d > 0 {
		s.ttl = d
	}
	return s
}

// Districts returns all city districts.
func (s *Service) Districts(ctx context.Context) ([]gorzdrav.District, error) {
	return cached(ctx, s, keyDistricts, s.api.ListDistricts)
}

// Facilities returns all facilities known to the provider.
func (s *Service) Facilities(ctx context.Context) ([]gorzdrav.Facility, error) {
	return cached(ctx, s, keyFacilities, s.api.ListFacilities)
}

// FacilitiesByDistrict returns the facilities of one district.
func (s *Service) FacilitiesByDistrict(ctx context.Context, districtID int) ([]gorzdrav.Facility, error) {
	key := fmt.Sprintf("directory:district:%d:facilities", districtID)
	return cached(ctx, s, key, func(ctx context.Context) ([]gorzdrav.Facility, error) {
		return s.api.ListFacilitiesByDistrict(ctx, districtID)
	})
}

// Specialties returns the specialties taking appointments at a facility.
func (s *Service) Specialties(ctx context.Context, lpuID int) ([]gorzdrav.Specialty, error) {
	key := fmt.Sprintf("directory:lpu:%d:specialties", lpuID)
	return cached(ctx, s, key, func(ctx context.Context) ([]gorzdrav.Specialty, error) {
		return s.api.ListSpecialties(ctx, lpuID)
	})
}

// cached reads the key from Redis and falls back to the provider on a miss,
// storing the fresh listing with the service TTL. Cache failures degrade to
// a direct provider read; provider errors are never cached.
func cached[T any](ctx context.Context, s *Service, key string, load func(context.Context) ([]T, error)) ([]T, error) {
	if s.cache != nil {
		raw, err := s.cache.Get(ctx, key).Bytes()
		if err == nil {
			var out []T
			if unmarshalErr := json.Unmarshal(raw, &out); unmarshalErr == nil {
				return out, nil
			}
			s.logger.Warn("directory: dropping corrupt cache entry", "key", key)
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn("directory: cache read failed", "key", key, "error", err)
		}
	}

	out, err := load(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		raw, err := json.Marshal(out)
		if err == nil {
			if err := s.cache.Set(ctx, key, raw, s.ttl).Err(); err != nil {
				s.logger.Warn("directory: cache write failed", "key", key, "error", err)
			}
		}
	}
	return out, nil
}
