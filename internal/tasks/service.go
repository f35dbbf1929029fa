package tasks

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/taskhive/taskhive/internal/authz"
	"github.com/taskhive/taskhive/internal/observability"
	"github.com/taskhive/taskhive/internal/shared"
)

// StatsInvalidator drops cached task aggregates. Satisfied by
// analytics.Service; mutations here call it so stats never serve a
// full TTL of stale counts.
type StatsInvalidator interface {
	Invalidate(ctx context.Context) error
}

// Service handles task business logic. All visibility and mutation
// questions are delegated to the scope resolver; no scoping rule is
// derived here or in handlers.
type Service struct {
	repo     Repository
	resolver *authz.Resolver
	audit    *shared.AuditLogger
	metrics  *observability.Metrics
	stats    StatsInvalidator
}

// NewService builds a Service instance. Audit, metrics and stats may be nil.
func NewService(repo Repository, resolver *authz.Resolver, audit *shared.AuditLogger, metrics *observability.Metrics, stats StatsInvalidator) *Service {
	return &Service{repo: repo, resolver: resolver, audit: audit, metrics: metrics, stats: stats}
}

// TaskInput carries attributes for creating or updating a task.
type TaskInput struct {
	Title        string
	Description  string
	Status       string
	Priority     string
	AssigneeID   int64
	DepartmentID *int64
	DueDate      *time.Time
}

// BoardColumn groups tasks under one kanban column.
type BoardColumn struct {
	Status string
	Tasks  []Task
}

// List returns tasks visible to the principal, newest first.
func (s *Service) List(ctx context.Context, p authz.Principal, filter authz.TaskFilter, page, perPage int) ([]Task, shared.Pagination, error) {
	scope := s.resolver.TaskScope(p, filter)
	bounds := shared.NewPagination(page, perPage, 0)
	list, total, err := s.repo.List(ctx, scope, bounds.PerPage, bounds.Offset())
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return list, shared.NewPagination(bounds.Page, bounds.PerPage, total), nil
}

// Board returns the principal's visible tasks grouped by status in
// fixed column order.
func (s *Service) Board(ctx context.Context, p authz.Principal, filter authz.TaskFilter) ([]BoardColumn, error) {
	scope := s.resolver.TaskScope(p, filter)
	list, err := s.repo.Board(ctx, scope)
	if err != nil {
		return nil, err
	}
	byStatus := make(map[string][]Task, len(list))
	for _, task := range list {
		byStatus[task.Status] = append(byStatus[task.Status], task)
	}
	columns := make([]BoardColumn, 0, len(BoardColumns()))
	for _, status := range BoardColumns() {
		columns = append(columns, BoardColumn{Status: status, Tasks: byStatus[status]})
	}
	return columns, nil
}

// Get fetches one task, gated by CanReadTask.
func (s *Service) Get(ctx context.Context, p authz.Principal, id int64) (*Task, error) {
	task, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	decision, err := s.resolver.CanReadTask(ctx, p, taskRecord(task))
	if err != nil {
		return nil, err
	}
	s.observe("tasks.read", decision)
	if !decision.Allowed {
		_ = s.audit.RecordDenied(ctx, p.ID, "tasks.read", "task", strconv.FormatInt(id, 10), decision.Reason)
		return nil, fmt.Errorf("%w: %s", shared.ErrForbidden, decision.Reason)
	}
	return task, nil
}

// Create inserts a task authored by the principal. Assigning anyone
// other than oneself requires the assign permission.
func (s *Service) Create(ctx context.Context, p authz.Principal, input TaskInput) (*Task, error) {
	if err := s.checkAssignment(ctx, p, input.AssigneeID); err != nil {
		return nil, err
	}
	task := Task{
		Title:        strings.TrimSpace(input.Title),
		Description:  strings.TrimSpace(input.Description),
		Status:       defaultString(input.Status, StatusTodo),
		Priority:     defaultString(input.Priority, PriorityMedium),
		CreatorID:    p.ID,
		AssigneeID:   input.AssigneeID,
		DepartmentID: input.DepartmentID,
		DueDate:      input.DueDate,
	}
	if task.AssigneeID == 0 {
		task.AssigneeID = p.ID
	}
	if task.DepartmentID == nil {
		task.DepartmentID = p.DepartmentID
	}
	id, err := s.repo.Create(ctx, task)
	if err != nil {
		return nil, err
	}
	_ = s.audit.Record(ctx, shared.AuditLog{ActorID: p.ID, Action: "tasks.create", Entity: "task", EntityID: strconv.FormatInt(id, 10)})
	s.invalidateStats(ctx)
	return s.repo.Get(ctx, id)
}

// Update rewrites a task the principal can read. Reassignment to a
// different user re-checks the assign permission.
func (s *Service) Update(ctx context.Context, p authz.Principal, id int64, input TaskInput) (*Task, error) {
	task, err := s.Get(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if input.AssigneeID != task.AssigneeID {
		if err := s.checkAssignment(ctx, p, input.AssigneeID); err != nil {
			return nil, err
		}
	}
	task.Title = strings.TrimSpace(input.Title)
	task.Description = strings.TrimSpace(input.Description)
	task.Status = defaultString(input.Status, task.Status)
	task.Priority = defaultString(input.Priority, task.Priority)
	task.AssigneeID = input.AssigneeID
	task.DepartmentID = input.DepartmentID
	task.DueDate = input.DueDate
	if err := s.repo.Update(ctx, *task); err != nil {
		return nil, err
	}
	_ = s.audit.Record(ctx, shared.AuditLog{ActorID: p.ID, Action: "tasks.update", Entity: "task", EntityID: strconv.FormatInt(id, 10)})
	s.invalidateStats(ctx)
	return s.repo.Get(ctx, id)
}

// UpdateStatus moves a task the principal can read between columns.
func (s *Service) UpdateStatus(ctx context.Context, p authz.Principal, id int64, status string) error {
	if _, err := s.Get(ctx, p, id); err != nil {
		return err
	}
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return err
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  p.ID,
		Action:   "tasks.update_status",
		Entity:   "task",
		EntityID: strconv.FormatInt(id, 10),
		Meta:     map[string]any{"status": status},
	})
	s.invalidateStats(ctx)
	return nil
}

// Delete removes a task. Beyond read visibility, removal is restricted
// to the task's creator or a Director-and-above.
func (s *Service) Delete(ctx context.Context, p authz.Principal, id int64) error {
	task, err := s.Get(ctx, p, id)
	if err != nil {
		return err
	}
	if task.CreatorID != p.ID && !authz.AtLeastAsPrivileged(p.Level, authz.LevelDirector) {
		_ = s.audit.RecordDenied(ctx, p.ID, "tasks.delete", "task", strconv.FormatInt(id, 10), authz.ReasonNotOwnerOrManager)
		return fmt.Errorf("%w: %s", shared.ErrForbidden, authz.ReasonNotOwnerOrManager)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	_ = s.audit.Record(ctx, shared.AuditLog{ActorID: p.ID, Action: "tasks.delete", Entity: "task", EntityID: strconv.FormatInt(id, 10)})
	s.invalidateStats(ctx)
	return nil
}

// checkAssignment gates setting an assignee other than the principal.
func (s *Service) checkAssignment(ctx context.Context, p authz.Principal, assigneeID int64) error {
	if assigneeID == 0 || assigneeID == p.ID {
		return nil
	}
	decision, err := s.resolver.CanAssignTasks(ctx, p)
	if err != nil {
		return err
	}
	s.observe("tasks.assign", decision)
	if !decision.Allowed {
		_ = s.audit.RecordDenied(ctx, p.ID, "tasks.assign", "user", strconv.FormatInt(assigneeID, 10), decision.Reason)
		return fmt.Errorf("%w: %s", shared.ErrForbidden, decision.Reason)
	}
	return nil
}

// invalidateStats is best effort: a failed bump means stale counts
// until the cache TTL, never a failed mutation.
func (s *Service) invalidateStats(ctx context.Context) {
	if s.stats == nil {
		return
	}
	_ = s.stats.Invalidate(ctx)
}

func (s *Service) observe(check string, d authz.Decision) {
	s.metrics.ObserveDecision(check, d.Allowed)
}

func defaultString(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func taskRecord(t *Task) authz.TaskRecord {
	return authz.TaskRecord{
		ID:                   t.ID,
		CreatorID:            t.CreatorID,
		AssigneeID:           t.AssigneeID,
		DepartmentID:         t.DepartmentID,
		CreatorDepartmentID:  t.CreatorDepartmentID,
		AssigneeDepartmentID: t.AssigneeDepartmentID,
	}
}
