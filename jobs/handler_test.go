package jobs

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskhive/taskhive/internal/authz"
	"github.com/taskhive/taskhive/internal/shared"
)

type stubEnqueuer struct {
	overdue int
	warmup  int
}

func (s *stubEnqueuer) EnqueueOverdueScan(context.Context, OverdueScanPayload) (*asynq.TaskInfo, error) {
	s.overdue++
	return &asynq.TaskInfo{ID: "t-overdue", Queue: QueueDefault}, nil
}

func (s *stubEnqueuer) EnqueueStatsWarmup(context.Context, StatsWarmupPayload) (*asynq.TaskInfo, error) {
	s.warmup++
	return &asynq.TaskInfo{ID: "t-warmup", Queue: QueueDefault}, nil
}

func trigger(t *testing.T, enq Enqueuer, path string, principal *authz.Principal) *httptest.ResponseRecorder {
	t.Helper()
	h := NewHandler(nil, enq, slog.New(slog.NewTextHandler(io.Discard, nil)))
	r := chi.NewRouter()
	r.Route("/jobs", h.MountRoutes)

	req := httptest.NewRequest(http.MethodPost, path, nil)
	if principal != nil {
		req = req.WithContext(shared.ContextWithPrincipal(req.Context(), *principal))
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestManualRunsEnqueueForAdmins(t *testing.T) {
	enq := &stubEnqueuer{}
	admin := authz.Principal{ID: 1, RoleID: 1, Level: authz.LevelAdmin}

	rec := trigger(t, enq, "/jobs/overdue-scan", &admin)
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.JSONEq(t, `{"task_id":"t-overdue","queue":"default"}`, rec.Body.String())

	rec = trigger(t, enq, "/jobs/stats-warmup", &admin)
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, 1, enq.overdue)
	assert.Equal(t, 1, enq.warmup)
}

func TestManualRunsRejectNonAdmins(t *testing.T) {
	enq := &stubEnqueuer{}
	manager := authz.Principal{ID: 20, RoleID: 3, Level: authz.LevelManager}

	rec := trigger(t, enq, "/jobs/overdue-scan", &manager)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = trigger(t, enq, "/jobs/stats-warmup", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Zero(t, enq.overdue)
	assert.Zero(t, enq.warmup)
}
