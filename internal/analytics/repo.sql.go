package analytics

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taskhive/taskhive/internal/authz"
)

// Repository computes aggregates over scope-filtered tasks.
type Repository interface {
	TaskStats(ctx context.Context, scope authz.Predicate) (Stats, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

// TaskStats aggregates counts by status and priority plus overdue work.
func (r *repository) TaskStats(ctx context.Context, scope authz.Predicate) (Stats, error) {
	clause, args := authz.CompileSQL(scope, 1)
	stats := Stats{
		ByStatus:   make(map[string]int),
		ByPriority: make(map[string]int),
	}

	query := fmt.Sprintf(`SELECT status, priority, COUNT(*) FROM tasks WHERE %s GROUP BY status, priority`, clause)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return Stats{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var status, priority string
		var count int
		if err := rows.Scan(&status, &priority, &count); err != nil {
			return Stats{}, err
		}
		stats.ByStatus[status] += count
		stats.ByPriority[priority] += count
		stats.Total += count
	}
	if err := rows.Err(); err != nil {
		return Stats{}, err
	}

	overdueQuery := fmt.Sprintf(`SELECT COUNT(*) FROM tasks WHERE (%s) AND due_date IS NOT NULL AND due_date < NOW() AND status <> 'done'`, clause)
	if err := r.pool.QueryRow(ctx, overdueQuery, args...).Scan(&stats.Overdue); err != nil {
		return Stats{}, err
	}
	return stats, nil
}
