package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taskhive/taskhive/internal/analytics"
	"github.com/taskhive/taskhive/internal/authz"
	jobmetrics "github.com/taskhive/taskhive/internal/jobs"
)

// StatsWarmupJob pre-populates dashboard statistics for recently active users.
type StatsWarmupJob struct {
	Analytics *analytics.Service
	Pool      *pgxpool.Pool
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
	clock     func() time.Time
}

// NewStatsWarmupJob wires dependencies for the warmup handler.
func NewStatsWarmupJob(analyticsSvc *analytics.Service, pool *pgxpool.Pool, logger *slog.Logger, metrics *jobmetrics.Metrics) *StatsWarmupJob {
	return &StatsWarmupJob{
		Analytics: analyticsSvc,
		Pool:      pool,
		Logger:    logger,
		Metrics:   metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes stats warmup tasks.
func (j *StatsWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Pool == nil || j.Analytics == nil {
		return errors.New("stats warmup: handler not configured")
	}
	var payload StatsWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.MaxUsers <= 0 {
		payload.MaxUsers = 50
	}

	tracker := j.metrics().Track(TaskStatsWarmup)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger()
	now := j.now()
	logger.Info("starting stats warmup", slog.Int("max_users", payload.MaxUsers))

	principals, err := j.fetchPrincipals(ctx, payload.MaxUsers)
	if err != nil {
		resultErr = err
		logger.Error("load warmup principals", slog.Any("error", err))
		return resultErr
	}

	warmed := 0
	for _, p := range principals {
		scopeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		_, err := j.Analytics.TaskStats(scopeCtx, p)
		cancel()
		if err != nil {
			resultErr = err
			logger.Error("warm stats", slog.Int64("user_id", p.ID), slog.Any("error", err))
			return resultErr
		}
		warmed++
	}

	logger.Info("completed stats warmup",
		slog.Int("users", warmed),
		slog.Duration("duration", time.Since(now)))
	return resultErr
}

func (j *StatsWarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *StatsWarmupJob) fetchPrincipals(ctx context.Context, limit int) ([]authz.Principal, error) {
	rows, err := j.Pool.Query(ctx, `SELECT u.id, u.role_id, r.level, u.department_id, u.manager_id
		FROM users u
		JOIN roles r ON r.id = u.role_id
		JOIN sessions s ON s.user_id = u.id
		WHERE u.is_active
		GROUP BY u.id, u.role_id, r.level, u.department_id, u.manager_id
		ORDER BY MAX(s.created_at) DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	principals := make([]authz.Principal, 0, limit)
	for rows.Next() {
		var p authz.Principal
		var level int
		if err := rows.Scan(&p.ID, &p.RoleID, &level, &p.DepartmentID, &p.ManagerID); err != nil {
			return nil, err
		}
		p.Level = authz.Level(level)
		if !authz.KnownLevel(p.Level) {
			continue
		}
		principals = append(principals, p)
	}
	return principals, rows.Err()
}

func (j *StatsWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskStatsWarmup))
	}
	return slog.Default().With(slog.String("job", TaskStatsWarmup))
}

func (j *StatsWarmupJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
