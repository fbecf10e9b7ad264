package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Togather-Foundation/eventdesk/internal/auth"
	"github.com/Togather-Foundation/eventdesk/internal/domain/admins"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AdminRepository struct {
	pool *pgxpool.Pool
}

var _ admins.Repository = (*AdminRepository)(nil)

const adminColumns = `id, email, password_hash, name, role, is_active, created_at`

func (r *AdminRepository) GetByEmail(ctx context.Context, email string) (*admins.Admin, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+adminColumns+` FROM admins WHERE lower(email) = lower($1)`, email)
	return scanAdmin(row)
}

func (r *AdminRepository) GetByID(ctx context.Context, id string) (*admins.Admin, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+adminColumns+` FROM admins WHERE id = $1`, id)
	return scanAdmin(row)
}

func (r *AdminRepository) Create(ctx context.Context, admin admins.Admin) (*admins.Admin, error) {
	row := r.pool.QueryRow(ctx, `
INSERT INTO admins (id, email, password_hash, name, role, is_active, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING `+adminColumns,
		admin.ID, admin.Email, admin.PasswordHash, admin.Name, string(admin.Role), admin.IsActive, admin.CreatedAt,
	)
	created, err := scanAdmin(row)
	if err != nil {
		return nil, translateError(err)
	}
	return created, nil
}

// SetActive toggles the active flag of an administrator.
func (r *AdminRepository) SetActive(ctx context.Context, id string, active bool) error {
	tag, err := r.pool.Exec(ctx, `UPDATE admins SET is_active = $2 WHERE id = $1`, id, active)
	if err != nil {
		return fmt.Errorf("set admin active: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return admins.ErrNotFound
	}
	return nil
}

func scanAdmin(row pgx.Row) (*admins.Admin, error) {
	var (
		a    admins.Admin
		role string
	)
	if err := row.Scan(&a.ID, &a.Email, &a.PasswordHash, &a.Name, &role, &a.IsActive, &a.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, admins.ErrNotFound
		}
		return nil, fmt.Errorf("scan admin: %w", err)
	}
	a.Role = auth.Role(role)
	a.CreatedAt = a.CreatedAt.UTC()
	return &a, nil
}
