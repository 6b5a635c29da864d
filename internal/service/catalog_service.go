package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/repository"
)

const (
	statusCacheKey = "catalog:statuses"
	statusCacheTTL = 10 * time.Minute
)

// CatalogCache is the caching surface needed by the catalog service.
// Implemented by persistence.Redis.
type CatalogCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// CatalogService serves the status catalog. The catalog is immutable
// reference data, so reads go through a read-through cache; cache failures
// degrade to the database and never fail a request.
type CatalogService struct {
	statuses repository.StatusRepository
	cache    CatalogCache
	logger   *zap.Logger
}

// NewCatalogService builds the service. cache may be nil.
func NewCatalogService(statuses repository.StatusRepository, cache CatalogCache, logger *zap.Logger) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{statuses: statuses, cache: cache, logger: logger}
}

// ListAll returns statuses ordered by flow_order ascending.
func (s *CatalogService) ListAll(ctx context.Context) ([]domain.Status, error) {
	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, statusCacheKey); err == nil {
			var cached []domain.Status
			if err := json.Unmarshal([]byte(raw), &cached); err == nil {
				return cached, nil
			}
			s.logger.Warn("discarding malformed status cache entry")
		}
	}

	statuses, err := s.statuses.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if raw, err := json.Marshal(statuses); err == nil {
			if err := s.cache.Set(ctx, statusCacheKey, string(raw), statusCacheTTL); err != nil {
				s.logger.Warn("failed to cache status catalog", zap.Error(err))
			}
		}
	}
	return statuses, nil
}

// Get returns a single catalog entry.
func (s *CatalogService) Get(ctx context.Context, statusID string) (*domain.Status, error) {
	status, err := s.statuses.GetByID(ctx, statusID)
	if err != nil {
		return nil, notFoundOr(err, "status")
	}
	return status, nil
}

// SeedDefaults inserts any missing default catalog entries. It is the
// explicit idempotent bootstrap step run once per deployment at startup.
func (s *CatalogService) SeedDefaults(ctx context.Context) error {
	defaults := domain.DefaultStatuses()
	seeded := 0
	for i := range defaults {
		_, err := s.statuses.GetByName(ctx, defaults[i].Name)
		if err == nil {
			continue
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return err
		}
		if err := s.statuses.Create(ctx, &defaults[i]); err != nil {
			return err
		}
		seeded++
	}
	if seeded > 0 {
		s.logger.Info("seeded status catalog entries", zap.Int("count", seeded))
		if s.cache != nil {
			if err := s.cache.Del(ctx, statusCacheKey); err != nil {
				s.logger.Warn("failed to invalidate status cache", zap.Error(err))
			}
		}
	}
	return nil
}
