package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taskhive/taskhive/internal/authz"
	"github.com/taskhive/taskhive/internal/shared"
)

// Repository defines persistence operations for tasks.
type Repository interface {
	List(ctx context.Context, scope authz.Predicate, limit, offset int) ([]Task, int, error)
	Board(ctx context.Context, scope authz.Predicate) ([]Task, error)
	Get(ctx context.Context, id int64) (*Task, error)
	Create(ctx context.Context, task Task) (int64, error)
	Update(ctx context.Context, task Task) error
	UpdateStatus(ctx context.Context, id int64, status string) error
	Delete(ctx context.Context, id int64) error
}

type dbtx interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

type repository struct {
	db dbtx
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

const taskColumns = `t.id, t.title, t.description, t.status, t.priority, t.creator_id, t.assignee_id, t.department_id, t.due_date, t.created_at, t.updated_at, cu.department_id, au.department_id`

const taskJoins = `FROM tasks t
	JOIN users cu ON cu.id = t.creator_id
	JOIN users au ON au.id = t.assignee_id`

// scopedJoins applies the compiled scope predicate before the user
// joins so unqualified predicate columns bind to the tasks table only.
func scopedJoins(clause string) string {
	return fmt.Sprintf(`FROM (SELECT * FROM tasks WHERE %s) t
	JOIN users cu ON cu.id = t.creator_id
	JOIN users au ON au.id = t.assignee_id`, clause)
}

// List returns tasks matched by the scope predicate, newest first.
func (r *repository) List(ctx context.Context, scope authz.Predicate, limit, offset int) ([]Task, int, error) {
	clause, args := authz.CompileSQL(scope, 1)

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM tasks WHERE %s`, clause)
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	argPos := len(args) + 1
	query := fmt.Sprintf(`SELECT %s %s ORDER BY t.created_at DESC LIMIT $%d OFFSET $%d`,
		taskColumns, scopedJoins(clause), argPos, argPos+1)
	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var list []Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, task)
	}
	return list, total, rows.Err()
}

// Board returns every task matched by the scope predicate, for kanban
// grouping. Intentionally unpaginated; board views show all columns.
func (r *repository) Board(ctx context.Context, scope authz.Predicate) ([]Task, error) {
	clause, args := authz.CompileSQL(scope, 1)
	query := fmt.Sprintf(`SELECT %s %s ORDER BY t.created_at DESC`, taskColumns, scopedJoins(clause))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, task)
	}
	return list, rows.Err()
}

// Get fetches one task with creator/assignee departments.
func (r *repository) Get(ctx context.Context, id int64) (*Task, error) {
	row := r.db.QueryRow(ctx, fmt.Sprintf(`SELECT %s %s WHERE t.id = $1`, taskColumns, taskJoins), id)
	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &task, nil
}

// Create inserts a new task.
func (r *repository) Create(ctx context.Context, task Task) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx,
		`INSERT INTO tasks (title, description, status, priority, creator_id, assignee_id, department_id, due_date, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW()) RETURNING id`,
		task.Title, task.Description, task.Status, task.Priority, task.CreatorID, task.AssigneeID,
		nullableInt8(task.DepartmentID), nullableTime(task.DueDate)).Scan(&id)
	return id, err
}

// Update rewrites mutable task attributes.
func (r *repository) Update(ctx context.Context, task Task) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE tasks SET title = $2, description = $3, status = $4, priority = $5, assignee_id = $6, department_id = $7, due_date = $8, updated_at = NOW() WHERE id = $1`,
		task.ID, task.Title, task.Description, task.Status, task.Priority, task.AssigneeID,
		nullableInt8(task.DepartmentID), nullableTime(task.DueDate))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// UpdateStatus moves a task between board columns.
func (r *repository) UpdateStatus(ctx context.Context, id int64, status string) error {
	tag, err := r.db.Exec(ctx, `UPDATE tasks SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete removes the task row.
func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanTask(row pgx.Row) (Task, error) {
	var task Task
	var dept, creatorDept, assigneeDept pgtype.Int8
	var due pgtype.Timestamptz
	err := row.Scan(&task.ID, &task.Title, &task.Description, &task.Status, &task.Priority,
		&task.CreatorID, &task.AssigneeID, &dept, &due, &task.CreatedAt, &task.UpdatedAt,
		&creatorDept, &assigneeDept)
	if err != nil {
		return Task{}, err
	}
	if dept.Valid {
		task.DepartmentID = &dept.Int64
	}
	if due.Valid {
		t := due.Time
		task.DueDate = &t
	}
	if creatorDept.Valid {
		task.CreatorDepartmentID = &creatorDept.Int64
	}
	if assigneeDept.Valid {
		task.AssigneeDepartmentID = &assigneeDept.Int64
	}
	return task, nil
}

func nullableInt8(v *int64) pgtype.Int8 {
	if v == nil {
		return pgtype.Int8{}
	}
	return pgtype.Int8{Int64: *v, Valid: true}
}

func nullableTime(v *time.Time) pgtype.Timestamptz {
	if v == nil {
		return pgtype.Timestamptz{}
	}
	return pgtype.Timestamptz{Time: *v, Valid: true}
}
