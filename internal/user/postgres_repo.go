package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresRepo struct {
	db      *pgxpool.Pool
	timeout time.Duration
}

func NewPostgresRepo(db *pgxpool.Pool, timeout time.Duration) *PostgresRepo {
	return &PostgresRepo{db: db, timeout: timeout}
}

func (r *PostgresRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

func (r *PostgresRepo) GetByUsername(ctx context.Context, username string) (User, error) {
	const query = `
	SELECT u.id, u.username, u.password, r.id, r.name
	FROM users u
	LEFT JOIN user_roles ur ON ur.user_id = u.id
	LEFT JOIN roles r ON r.id = ur.role_id
	WHERE u.username = $1
	ORDER BY r.name
	`
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	rows, err := r.db.Query(timeoutCtx, query, username)
	if err != nil {
		return User{}, err
	}
	defer rows.Close()

	var u User
	found := false
	for rows.Next() {
		var roleID *int64
		var roleName *string
		if err := rows.Scan(&u.ID, &u.Username, &u.Password, &roleID, &roleName); err != nil {
			return User{}, err
		}
		found = true
		if roleID != nil && roleName != nil {
			u.Roles = append(u.Roles, Role{ID: *roleID, Name: *roleName})
		}
	}
	if err := rows.Err(); err != nil {
		return User{}, err
	}
	if !found {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (r *PostgresRepo) Create(ctx context.Context, u *User) error {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	tx, err := r.db.Begin(timeoutCtx)
	if err != nil {
		return err
	}
	defer tx.Rollback(timeoutCtx)

	const userSQL = `
	INSERT INTO users (username, password)
	VALUES ($1, $2)
	RETURNING id
	`
	if err := tx.QueryRow(timeoutCtx, userSQL, u.Username, u.Password).Scan(&u.ID); err != nil {
		return fmt.Errorf("insert user: %w", err)
	}

	const roleSQL = `
	INSERT INTO user_roles (user_id, role_id)
	VALUES ($1, $2)
	ON CONFLICT DO NOTHING
	`
	for _, role := range u.Roles {
		if _, err := tx.Exec(timeoutCtx, roleSQL, u.ID, role.ID); err != nil {
			return fmt.Errorf("link role %s: %w", role.Name, err)
		}
	}

	return tx.Commit(timeoutCtx)
}

func (r *PostgresRepo) EnsureRole(ctx context.Context, name string) (Role, error) {
	const query = `
	INSERT INTO roles (name)
	VALUES ($1)
	ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
	RETURNING id, name
	`
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	var role Role
	err := r.db.QueryRow(timeoutCtx, query, name).Scan(&role.ID, &role.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Role{}, fmt.Errorf("ensure role %s: no row returned", name)
		}
		return Role{}, err
	}
	return role, nil
}
