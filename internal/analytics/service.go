package analytics

import (
	"context"
	"fmt"

	"github.com/taskhive/taskhive/internal/authz"
)

// Service serves scope-aware task statistics with cache-aside reads.
type Service struct {
	repo     Repository
	resolver *authz.Resolver
	cache    *Cache
}

// NewService wires the analytics service.
func NewService(repo Repository, resolver *authz.Resolver, cache *Cache) *Service {
	return &Service{repo: repo, resolver: resolver, cache: cache}
}

// TaskStats returns aggregate counts over the tasks the principal may see.
func (s *Service) TaskStats(ctx context.Context, p authz.Principal) (Stats, error) {
	scope := s.resolver.TaskScope(p, authz.TaskFilter{})
	key, err := s.cache.BuildKey(ctx, keyStats(p.ID))
	if err != nil {
		return Stats{}, fmt.Errorf("analytics: build cache key: %w", err)
	}
	var stats Stats
	err = s.cache.FetchJSON(ctx, key, &stats, func(ctx context.Context) (interface{}, error) {
		return s.repo.TaskStats(ctx, scope)
	})
	if err != nil {
		return Stats{}, fmt.Errorf("analytics: task stats: %w", err)
	}
	return stats, nil
}

// Invalidate drops all cached statistics after task mutations.
func (s *Service) Invalidate(ctx context.Context) error {
	return s.cache.Bump(ctx)
}
