package repository

import (
	"context"
	"errors"

	"github.com/cbtarena/cbtarena-backend/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrAdminNotFound is returned when an admin row does not exist.
var ErrAdminNotFound = errors.New("admin not found")

// AdminRepository handles admin data access.
type AdminRepository struct {
	pool *pgxpool.Pool
}

// NewAdminRepository creates a new AdminRepository.
func NewAdminRepository(pool *pgxpool.Pool) *AdminRepository {
	return &AdminRepository{pool: pool}
}

// GetByEmail retrieves an admin by email (login identifier).
func (r *AdminRepository) GetByEmail(ctx context.Context, email string) (*model.Admin, error) {
	a := &model.Admin{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, email, password_hash, created_at
		 FROM admins WHERE email = $1`, email,
	).Scan(&a.ID, &a.Name, &a.Email, &a.PasswordHash, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAdminNotFound
		}
		return nil, err
	}
	return a, nil
}

// Create inserts a new admin.
func (r *AdminRepository) Create(ctx context.Context, a *model.Admin) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO admins (name, email, password_hash)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		a.Name, a.Email, a.PasswordHash,
	).Scan(&a.ID, &a.CreatedAt)
}
