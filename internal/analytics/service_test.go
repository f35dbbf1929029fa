package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/taskhive/taskhive/internal/authz"
)

type stubRepo struct {
	stats Stats
	calls int
}

func (r *stubRepo) TaskStats(_ context.Context, _ authz.Predicate) (Stats, error) {
	r.calls++
	return r.stats, nil
}

type stubStore struct{}

func (stubStore) DirectReportsOf(context.Context, int64) ([]int64, error) { return nil, nil }
func (stubStore) RoleLevelOf(context.Context, int64) (authz.Level, error) {
	return authz.LevelAdmin, nil
}
func (stubStore) PermissionsOf(context.Context, int64) ([]string, error) { return nil, nil }

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, time.Minute)
}

func TestTaskStatsCachesPerPrincipal(t *testing.T) {
	repo := &stubRepo{stats: Stats{
		Total:      3,
		ByStatus:   map[string]int{"todo": 2, "done": 1},
		ByPriority: map[string]int{"medium": 3},
		Overdue:    1,
	}}
	svc := NewService(repo, authz.NewResolver(stubStore{}), newTestCache(t))
	p := authz.Principal{ID: 7, RoleID: 1, Level: authz.LevelAdmin}

	first, err := svc.TaskStats(context.Background(), p)
	require.NoError(t, err)
	require.Equal(t, repo.stats, first)

	second, err := svc.TaskStats(context.Background(), p)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, repo.calls)
}

func TestInvalidateForcesReload(t *testing.T) {
	repo := &stubRepo{stats: Stats{Total: 1, ByStatus: map[string]int{"todo": 1}, ByPriority: map[string]int{"low": 1}}}
	svc := NewService(repo, authz.NewResolver(stubStore{}), newTestCache(t))
	p := authz.Principal{ID: 7, RoleID: 1, Level: authz.LevelAdmin}

	_, err := svc.TaskStats(context.Background(), p)
	require.NoError(t, err)
	require.NoError(t, svc.Invalidate(context.Background()))

	repo.stats.Total = 5
	reloaded, err := svc.TaskStats(context.Background(), p)
	require.NoError(t, err)
	require.Equal(t, 5, reloaded.Total)
	require.Equal(t, 2, repo.calls)
}

func TestNilCacheFallsThrough(t *testing.T) {
	repo := &stubRepo{stats: Stats{Total: 2, ByStatus: map[string]int{}, ByPriority: map[string]int{}}}
	svc := NewService(repo, authz.NewResolver(stubStore{}), nil)
	p := authz.Principal{ID: 9, RoleID: 1, Level: authz.LevelAdmin}

	stats, err := svc.TaskStats(context.Background(), p)
	require.NoError(t, err)
	require.Equal(t, 2, stats.Total)
	_, err = svc.TaskStats(context.Background(), p)
	require.NoError(t, err)
	require.Equal(t, 2, repo.calls)
}
