package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/sbecom/sb-ecom/internal/core/domain"
)

const (
	uniqueViolation  = "23505"
	emailConstraint  = "users_email_key"
	selectUserByName = `SELECT u.id, u.username, COALESCE(u.email, ''), u.password_hash, u.enabled, u.created_at, u.updated_at,
	       COALESCE(string_agg(r.role, ',' ORDER BY r.role), '')
	FROM users u LEFT JOIN user_roles r ON r.user_id = u.id
	WHERE u.username = $1
	GROUP BY u.id`
)

// UserRepository implements ports.UserRepository on PostgreSQL. Roles live in
// user_roles, one row per grant.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	var (
		id    int64
		u     domain.User
		roles string
	)
	err := r.db.QueryRowContext(ctx, selectUserByName, username).Scan(
		&id, &u.Username, &u.Email, &u.PasswordHash, &u.Enabled, &u.CreatedAt, &u.UpdatedAt, &roles,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	u.ID = strconv.FormatInt(id, 10)
	u.Roles = splitRoles(roles)
	return &u, nil
}

func (r *UserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)`, username)
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, email)
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("create user: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var email sql.NullString
	if user.Email != "" {
		email = sql.NullString{String: user.Email, Valid: true}
	}

	var id int64
	err = tx.QueryRowContext(ctx,
		`INSERT INTO users (username, email, password_hash, enabled, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		user.Username, email, user.PasswordHash, user.Enabled, user.CreatedAt, user.UpdatedAt,
	).Scan(&id)
	if err != nil {
		return nil, mapInsertError(err)
	}

	roles := domain.NormalizeRoles(user.Roles)
	if err := insertRoles(ctx, tx, id, roles); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("create user: commit: %w", err)
	}

	created := *user
	created.ID = strconv.FormatInt(id, 10)
	created.Roles = roles
	return &created, nil
}

// UpdateRoles replaces every grant of username inside one transaction.
func (r *UserRepository) UpdateRoles(ctx context.Context, username string, roles []string) (*domain.User, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("update roles: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var id int64
	if err := tx.QueryRowContext(ctx, `SELECT id FROM users WHERE username = $1 FOR UPDATE`, username).Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("update roles: lock user: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM user_roles WHERE user_id = $1`, id); err != nil {
		return nil, fmt.Errorf("update roles: clear: %w", err)
	}
	if err := insertRoles(ctx, tx, id, domain.NormalizeRoles(roles)); err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE users SET updated_at = $2 WHERE id = $1`, id, time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("update roles: touch user: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("update roles: commit: %w", err)
	}

	return r.FindByUsername(ctx, username)
}

func (r *UserRepository) exists(ctx context.Context, query, arg string) (bool, error) {
	var ok bool
	if err := r.db.QueryRowContext(ctx, query, arg).Scan(&ok); err != nil {
		return false, fmt.Errorf("exists: %w", err)
	}
	return ok, nil
}

func insertRoles(ctx context.Context, tx *sql.Tx, userID int64, roles []string) error {
	for _, role := range roles {
		if _, err := tx.ExecContext(ctx, `INSERT INTO user_roles (user_id, role) VALUES ($1, $2)`, userID, role); err != nil {
			return fmt.Errorf("insert role %s: %w", role, err)
		}
	}
	return nil
}

func mapInsertError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		if pgErr.ConstraintName == emailConstraint {
			return domain.ErrEmailTaken
		}
		return domain.ErrUsernameTaken
	}
	return fmt.Errorf("insert user: %w", err)
}

func splitRoles(s string) []string {
	if s == "" {
		return []string{}
	}
	return domain.NormalizeRoles(strings.Split(s, ","))
}
