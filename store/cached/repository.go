// Package cached provides a read-through cache over a ReadRepository.
// Only GetByID is cached; list and aggregate queries always hit the
// underlying backend. Cache misses and Redis failures fall back to the
// source, so the decorator never makes a read less available.
package cached

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/stocker/stocker/data/pkg/database"
	"github.com/stocker/stocker/data/pkg/logger"
	"github.com/stocker/stocker/data/store"
)

// ReadRepository decorates a store.ReadRepository with a Redis cache for
// by-id lookups. Keys are scoped by tenant and resource so one tenant's
// cache never serves another.
type ReadRepository[T any, ID comparable] struct {
	source   store.ReadRepository[T, ID]
	redis    *database.RedisDB
	resource string
	tenant   string
	ttl      time.Duration
}

// New wraps source with a read-through cache. resource and tenant become
// part of the key prefix.
func New[T any, ID comparable](source store.ReadRepository[T, ID], redis *database.RedisDB, resource, tenant string, ttl time.Duration) *ReadRepository[T, ID] {
	return &ReadRepository[T, ID]{
		source:   source,
		redis:    redis,
		resource: resource,
		tenant:   tenant,
		ttl:      ttl,
	}
}

func (r *ReadRepository[T, ID]) key(id ID) string {
	return fmt.Sprintf("stocker:%s:%s:%v", r.tenant, r.resource, id)
}

// GetByID serves from cache when possible. Absent rows are not cached.
func (r *ReadRepository[T, ID]) GetByID(ctx context.Context, id ID) (*T, error) {
	key := r.key(id)

	raw, err := r.redis.Get(ctx, key)
	if err == nil {
		var entity T
		if jsonErr := json.Unmarshal([]byte(raw), &entity); jsonErr == nil {
			return &entity, nil
		}
		// Unreadable payload, drop it and fall through.
		_ = r.redis.Del(ctx, key)
	} else if err != redis.Nil {
		logger.Warn("cache read failed",
			zap.String("key", key),
			zap.Error(err),
		)
	}

	entity, err := r.source.GetByID(ctx, id)
	if err != nil || entity == nil {
		return entity, err
	}

	if payload, jsonErr := json.Marshal(entity); jsonErr == nil {
		if setErr := r.redis.Set(ctx, key, payload, r.ttl); setErr != nil {
			logger.Warn("cache write failed",
				zap.String("key", key),
				zap.Error(setErr),
			)
		}
	}
	return entity, nil
}

// Invalidate drops the cached entry for id. Call it after committing a
// change to that entity.
func (r *ReadRepository[T, ID]) Invalidate(ctx context.Context, id ID) error {
	return r.redis.Del(ctx, r.key(id))
}

// GetAll delegates to the source repository.
func (r *ReadRepository[T, ID]) GetAll(ctx context.Context, includes ...string) ([]*T, error) {
	return r.source.GetAll(ctx, includes...)
}

// Find delegates to the source repository.
func (r *ReadRepository[T, ID]) Find(ctx context.Context, spec *store.Specification) ([]*T, error) {
	return r.source.Find(ctx, spec)
}

// FindWhere delegates to the source repository.
func (r *ReadRepository[T, ID]) FindWhere(ctx context.Context, conditions ...store.Condition) ([]*T, error) {
	return r.source.FindWhere(ctx, conditions...)
}

// SingleOrDefault delegates to the source repository.
func (r *ReadRepository[T, ID]) SingleOrDefault(ctx context.Context, spec *store.Specification) (*T, error) {
	return r.source.SingleOrDefault(ctx, spec)
}

// SingleWhere delegates to the source repository.
func (r *ReadRepository[T, ID]) SingleWhere(ctx context.Context, conditions ...store.Condition) (*T, error) {
	return r.source.SingleWhere(ctx, conditions...)
}

// Any delegates to the source repository.
func (r *ReadRepository[T, ID]) Any(ctx context.Context, conditions ...store.Condition) (bool, error) {
	return r.source.Any(ctx, conditions...)
}

// AnyMatching delegates to the source repository.
func (r *ReadRepository[T, ID]) AnyMatching(ctx context.Context, spec *store.Specification) (bool, error) {
	return r.source.AnyMatching(ctx, spec)
}

// Count delegates to the source repository.
func (r *ReadRepository[T, ID]) Count(ctx context.Context, conditions ...store.Condition) (int64, error) {
	return r.source.Count(ctx, conditions...)
}

// CountMatching delegates to the source repository.
func (r *ReadRepository[T, ID]) CountMatching(ctx context.Context, spec *store.Specification) (int64, error) {
	return r.source.CountMatching(ctx, spec)
}

// GetPaged delegates to the source repository.
func (r *ReadRepository[T, ID]) GetPaged(ctx context.Context, spec *store.Specification, pageIndex, pageSize int) (store.PagedResult[*T], error) {
	return r.source.GetPaged(ctx, spec, pageIndex, pageSize)
}

// GetPagedWhere delegates to the source repository.
func (r *ReadRepository[T, ID]) GetPagedWhere(ctx context.Context, pageIndex, pageSize int, orderings []store.Ordering, conditions ...store.Condition) (store.PagedResult[*T], error) {
	return r.source.GetPagedWhere(ctx, pageIndex, pageSize, orderings, conditions...)
}

var _ store.ReadRepository[struct{}, string] = (*ReadRepository[struct{}, string])(nil)
