package users

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
	"github.com/taskhive/taskhive/internal/platform/db"
	"github.com/taskhive/taskhive/internal/shared"
)

// Repository defines persistence operations for user management.
type Repository interface {
	List(ctx context.Context, scope authz.Predicate, limit, offset int) ([]User, int, error)
	Get(ctx context.Context, id int64) (*User, error)
	Create(ctx context.Context, user User, passwordHash string) (int64, error)
	UpdateProfile(ctx context.Context, id int64, name string, departmentID, managerID *int64) error
	UpdateRole(ctx context.Context, id, roleID int64) error
	SetActive(ctx context.Context, id int64, active bool) error
	Delete(ctx context.Context, id int64) error
}

type dbtx interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

type repository struct {
	db   dbtx
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

// scopedUsers exposes role_level as a plain column so compiled scope
// predicates can reference it.
const scopedUsers = `(SELECT u.id, u.email, u.name, u.role_id, r.level AS role_level, u.department_id, u.manager_id, u.is_active, u.created_at, u.updated_at FROM users u JOIN roles r ON r.id = u.role_id) su`

// List returns users visible through the scope predicate, ordered by
// role level then name.
func (r *repository) List(ctx context.Context, scope authz.Predicate, limit, offset int) ([]User, int, error) {
	clause, args := authz.CompileSQL(scope, 1)

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE %s`, scopedUsers, clause)
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	argPos := len(args) + 1
	query := fmt.Sprintf(
		`SELECT id, email, name, role_id, role_level, department_id, manager_id, is_active, created_at, updated_at
		 FROM %s WHERE %s ORDER BY role_level, name LIMIT $%d OFFSET $%d`,
		scopedUsers, clause, argPos, argPos+1)
	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, user)
	}
	return users, total, rows.Err()
}

// Get fetches a user by id.
func (r *repository) Get(ctx context.Context, id int64) (*User, error) {
	row := r.db.QueryRow(ctx,
		`SELECT u.id, u.email, u.name, u.role_id, r.level, u.department_id, u.manager_id, u.is_active, u.created_at, u.updated_at
		 FROM users u JOIN roles r ON r.id = u.role_id WHERE u.id = $1`, id)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// Create inserts a new user.
func (r *repository) Create(ctx context.Context, user User, passwordHash string) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx,
		`INSERT INTO users (email, name, password_hash, role_id, department_id, manager_id, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, TRUE, NOW(), NOW()) RETURNING id`,
		user.Email, user.Name, passwordHash, user.RoleID, nullableInt8(user.DepartmentID), nullableInt8(user.ManagerID)).Scan(&id)
	return id, err
}

// UpdateProfile updates mutable profile attributes.
func (r *repository) UpdateProfile(ctx context.Context, id int64, name string, departmentID, managerID *int64) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE users SET name = $2, department_id = $3, manager_id = $4, updated_at = NOW() WHERE id = $1`,
		id, name, nullableInt8(departmentID), nullableInt8(managerID))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// UpdateRole reassigns the user's role.
func (r *repository) UpdateRole(ctx context.Context, id, roleID int64) error {
	tag, err := r.db.Exec(ctx, `UPDATE users SET role_id = $2, updated_at = NOW() WHERE id = $1`, id, roleID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// SetActive toggles the account's active flag. Deactivation also
// revokes the account's live sessions in the same transaction.
func (r *repository) SetActive(ctx context.Context, id int64, active bool) error {
	if active {
		tag, err := r.db.Exec(ctx, `UPDATE users SET is_active = TRUE, updated_at = NOW() WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		return nil
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE users SET is_active = FALSE, updated_at = NOW() WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		_, err = tx.Exec(ctx, `DELETE FROM sessions WHERE user_id = $1`, id)
		return err
	})
}

// Delete removes the user row together with their session records.
func (r *repository) Delete(ctx context.Context, id int64) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM sessions WHERE user_id = $1`, id); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

func scanUser(row pgx.Row) (User, error) {
	var user User
	var dept, manager pgtype.Int8
	var createdAt, updatedAt time.Time
	err := row.Scan(&user.ID, &user.Email, &user.Name, &user.RoleID, &user.RoleLevel, &dept, &manager, &user.IsActive, &createdAt, &updatedAt)
	if err != nil {
		return User{}, err
	}
	if dept.Valid {
		user.DepartmentID = &dept.Int64
	}
	if manager.Valid {
		user.ManagerID = &manager.Int64
	}
	user.CreatedAt = createdAt
	user.UpdatedAt = updatedAt
	return user, nil
}

func nullableInt8(v *int64) pgtype.Int8 {
	if v == nil {
		return pgtype.Int8{}
	}
	return pgtype.Int8{Int64: *v, Valid: true}
}
