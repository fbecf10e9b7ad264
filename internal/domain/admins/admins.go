package admins

import (
	"context"
	"errors"
	"time"

	"github.com/Togather-Foundation/eventdesk/internal/auth"
)

var (
	ErrNotFound           = errors.New("admin not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountDisabled    = errors.New("account is disabled")
	ErrEmailTaken         = errors.New("email is already registered")
)

// Admin is a stored administrator record.
type Admin struct {
	ID           string
	Email        string
	PasswordHash string
	Name         string
	Role         auth.Role
	IsActive     bool
	CreatedAt    time.Time
}

// PublicAdmin is the projection returned to API clients.
type PublicAdmin struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      auth.Role `json:"role"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

// Public drops the password hash.
func (a Admin) Public() PublicAdmin {
	return PublicAdmin{
		ID:        a.ID,
		Email:     a.Email,
		Name:      a.Name,
		Role:      a.Role,
		IsActive:  a.IsActive,
		CreatedAt: a.CreatedAt,
	}
}

// Repository persists administrators. Lookups return ErrNotFound when absent
// and Create returns ErrEmailTaken on a duplicate email.
type Repository interface {
	GetByEmail(ctx context.Context, email string) (*Admin, error)
	GetByID(ctx context.Context, id string) (*Admin, error)
	Create(ctx context.Context, admin Admin) (*Admin, error)
}
