package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-raas/internal/auth"
	"github.com/ovaphlow/pitchfork/service-raas/internal/user/entity"
)

// UserRepo provides data access for the users table using sqlx.
type UserRepo struct {
	db *sqlx.DB
}

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{db: db} }

const userColumns = `id, auth_id, email, full_name, role, created_at, updated_at`

// EnsureTable creates the users table if not exists (idempotent).
func (r *UserRepo) EnsureTable(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS users (
  id UUID PRIMARY KEY,
  auth_id TEXT NOT NULL UNIQUE,
  email TEXT NOT NULL,
  full_name TEXT NOT NULL DEFAULT '',
  role TEXT NOT NULL DEFAULT 'user' CHECK (role IN ('user', 'paid_user', 'admin')),
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);
CREATE INDEX IF NOT EXISTS idx_users_role ON users(role);
`
	_, err := r.db.ExecContext(ctx, ddl)
	return err
}

// Upsert inserts or updates a user keyed by auth_id. The stored role is only
// replaced when overrideRole is set.
func (r *UserRepo) Upsert(ctx context.Context, u *entity.User, overrideRole bool) (*entity.User, error) {
	q := `INSERT INTO users (id, auth_id, email, full_name, role)
		  VALUES (:id, :auth_id, :email, :full_name, :role)
		  ON CONFLICT (auth_id) DO UPDATE SET
		    email = EXCLUDED.email,
		    full_name = EXCLUDED.full_name,
		    role = CASE WHEN :override_role THEN EXCLUDED.role ELSE users.role END,
		    updated_at = NOW()
		  RETURNING ` + userColumns
	params := map[string]any{
		"id":            u.ID,
		"auth_id":       u.AuthID,
		"email":         u.Email,
		"full_name":     u.FullName,
		"role":          string(u.Role),
		"override_role": overrideRole,
	}
	rows, err := r.db.NamedQueryContext(ctx, q, params)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, errors.New("upsert returned no row")
	}
	var out entity.User
	if err := rows.StructScan(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// InsertIfMissing creates the row unless the auth_id is already known.
func (r *UserRepo) InsertIfMissing(ctx context.Context, u *entity.User) error {
	const q = `INSERT INTO users (id, auth_id, email, full_name, role) VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (auth_id) DO NOTHING`
	_, err := r.db.ExecContext(ctx, q, u.ID, u.AuthID, u.Email, u.FullName, string(u.Role))
	return err
}

// GetByAuthID returns the user with the identity-provider id or sql.ErrNoRows.
func (r *UserRepo) GetByAuthID(ctx context.Context, authID string) (*entity.User, error) {
	var u entity.User
	if err := r.db.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE auth_id=$1`, authID); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByID fetches a user row.
func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	var u entity.User
	if err := r.db.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE id=$1`, id); err != nil {
		return nil, err
	}
	return &u, nil
}

// List returns every user, newest first.
func (r *UserRepo) List(ctx context.Context) ([]entity.User, error) {
	users := []entity.User{}
	if err := r.db.SelectContext(ctx, &users, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC`); err != nil {
		return nil, err
	}
	return users, nil
}

// Count returns the number of users.
func (r *UserRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM users`)
	return n, err
}

// UpdateRole sets the role and returns the number of affected rows.
func (r *UserRepo) UpdateRole(ctx context.Context, id uuid.UUID, role auth.Role) (int64, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET role=$2, updated_at=NOW() WHERE id=$1`, id, string(role))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteByAuthID removes the user with the identity-provider id.
func (r *UserRepo) DeleteByAuthID(ctx context.Context, authID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE auth_id=$1`, authID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
