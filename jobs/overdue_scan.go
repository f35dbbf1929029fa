package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	jobmetrics "github.com/taskhive/taskhive/internal/jobs"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// OverdueScanJob surfaces tasks whose due date passed without completion.
type OverdueScanJob struct {
	Pool    *pgxpool.Pool
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewOverdueScanJob wires dependencies for the overdue scan handler.
func NewOverdueScanJob(pool *pgxpool.Pool, logger *slog.Logger, metrics *jobmetrics.Metrics) *OverdueScanJob {
	return &OverdueScanJob{
		Pool:    pool,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes overdue scan tasks.
func (j *OverdueScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Pool == nil {
		return errors.New("overdue scan: handler not configured")
	}
	var payload OverdueScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tracker := j.metrics().Track(TaskOverdueScan)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger()
	now := j.now()
	logger.Info("starting overdue scan", slog.Time("as_of", now))

	query := `SELECT assignee_id, COUNT(*)
		FROM tasks
		WHERE due_date IS NOT NULL AND due_date < $1 AND status <> 'done'`
	args := []any{now}
	if len(payload.ExcludeStatuses) > 0 {
		query += ` AND NOT (status = ANY($2))`
		args = append(args, payload.ExcludeStatuses)
	}
	query += ` GROUP BY assignee_id ORDER BY assignee_id`

	rows, err := j.Pool.Query(ctx, query, args...)
	if err != nil {
		resultErr = err
		logger.Error("query overdue tasks", slog.Any("error", err))
		return resultErr
	}
	defer rows.Close()

	total := 0
	assignees := 0
	for rows.Next() {
		var assigneeID int64
		var count int
		if err := rows.Scan(&assigneeID, &count); err != nil {
			resultErr = err
			return resultErr
		}
		logger.Warn("overdue tasks detected",
			slog.Int64("assignee_id", assigneeID),
			slog.Int("count", count))
		total += count
		assignees++
	}
	if err := rows.Err(); err != nil {
		resultErr = err
		return resultErr
	}

	j.metrics().SetOverdueTasks(total)
	logger.Info("completed overdue scan",
		slog.Int("overdue_tasks", total),
		slog.Int("assignees", assignees),
		slog.Duration("duration", time.Since(now)))
	return resultErr
}

func (j *OverdueScanJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *OverdueScanJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskOverdueScan))
	}
	return slog.Default().With(slog.String("job", TaskOverdueScan))
}

func (j *OverdueScanJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
