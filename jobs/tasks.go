package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskOverdueScan flags tasks whose due date has passed.
	TaskOverdueScan = "tasks:overdue_scan"
	// TaskStatsWarmup pre-populates dashboard statistics caches.
	TaskStatsWarmup = "analytics:stats_warmup"
)

// OverdueScanPayload parameterises the overdue scan.
type OverdueScanPayload struct {
	// Statuses to skip; done tasks are always excluded.
	ExcludeStatuses []string `json:"exclude_statuses,omitempty"`
}

// NewOverdueScanTask constructs an Asynq task.
func NewOverdueScanTask(payload OverdueScanPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOverdueScan, data), nil
}

// StatsWarmupPayload parameterises the warmup run.
type StatsWarmupPayload struct {
	// MaxUsers caps how many recently active users get a warm cache.
	MaxUsers int `json:"max_users,omitempty"`
}

// NewStatsWarmupTask constructs an Asynq task.
func NewStatsWarmupTask(payload StatsWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskStatsWarmup, data), nil
}
