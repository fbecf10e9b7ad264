package admins

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Togather-Foundation/eventdesk/internal/auth"
	"github.com/Togather-Foundation/eventdesk/internal/domain/ids"
	"github.com/Togather-Foundation/eventdesk/internal/validation"
	"github.com/rs/zerolog"
)

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token string        `json:"token"`
	Admin LoginIdentity `json:"admin"`
}

// LoginIdentity is the admin summary returned alongside a token.
type LoginIdentity struct {
	ID    string    `json:"id"`
	Email string    `json:"email"`
	Name  string    `json:"name"`
	Role  auth.Role `json:"role"`
}

// ProvisionParams describes an administrator created outside the HTTP API.
type ProvisionParams struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Name     string `json:"name" validate:"required,max=200"`
	Role     string `json:"role" validate:"required,oneof=ADMIN SUPER_ADMIN"`
}

// Service authenticates administrators.
type Service struct {
	repo      Repository
	hasher    auth.CredentialHasher
	tokens    auth.TokenIssuer
	validator *validation.Validator
	newID     ids.Generator
	now       func() time.Time
	logger    zerolog.Logger
}

func NewService(repo Repository, hasher auth.CredentialHasher, tokens auth.TokenIssuer, logger zerolog.Logger) *Service {
	return &Service{
		repo:      repo,
		hasher:    hasher,
		tokens:    tokens,
		validator: validation.New(),
		newID:     ids.NewULID,
		now:       time.Now,
		logger:    logger.With().Str("component", "admins").Logger(),
	}
}

// Login checks credentials and issues a session token. An inactive account
// is rejected before the password is compared.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	admin, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup admin: %w", err)
	}

	if !admin.IsActive {
		return nil, ErrAccountDisabled
	}

	if err := s.hasher.Compare(admin.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("compare password: %w", err)
	}

	token, err := s.tokens.Issue(auth.TokenPayload{AdminID: admin.ID, Email: admin.Email, Role: admin.Role})
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	s.logger.Info().Str("admin_id", admin.ID).Msg("admin logged in")

	return &LoginResult{
		Token: token,
		Admin: LoginIdentity{ID: admin.ID, Email: admin.Email, Name: admin.Name, Role: admin.Role},
	}, nil
}

// VerifyToken validates a session token. All failures return auth.ErrInvalidToken.
func (s *Service) VerifyToken(token string) (*auth.TokenPayload, error) {
	payload, err := s.tokens.Verify(token)
	if err != nil {
		return nil, auth.ErrInvalidToken
	}
	return payload, nil
}

// GetAdminByID returns the public projection of an administrator.
func (s *Service) GetAdminByID(ctx context.Context, id string) (*PublicAdmin, error) {
	admin, err := s.LookupAdmin(ctx, id)
	if err != nil {
		return nil, err
	}
	public := admin.Public()
	return &public, nil
}

// LookupAdmin returns the full record, used for request authentication.
func (s *Service) LookupAdmin(ctx context.Context, id string) (*Admin, error) {
	admin, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("lookup admin: %w", err)
	}
	return admin, nil
}

// Provision creates the administrator if the email is not yet registered.
// An existing record is returned untouched with created=false.
func (s *Service) Provision(ctx context.Context, params ProvisionParams) (*PublicAdmin, bool, error) {
	params.Email = normalizeEmail(params.Email)
	params.Name = strings.TrimSpace(params.Name)
	params.Role = strings.ToUpper(strings.TrimSpace(params.Role))
	if params.Role == "" {
		params.Role = string(auth.RoleAdmin)
	}
	if err := s.validator.Struct(params); err != nil {
		return nil, false, err
	}

	existing, err := s.repo.GetByEmail(ctx, params.Email)
	if err == nil {
		public := existing.Public()
		return &public, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, fmt.Errorf("lookup admin: %w", err)
	}

	hash, err := s.hasher.Hash(params.Password)
	if err != nil {
		return nil, false, fmt.Errorf("hash password: %w", err)
	}
	id, err := s.newID()
	if err != nil {
		return nil, false, fmt.Errorf("generate id: %w", err)
	}
	role, _ := auth.ParseRole(params.Role)

	created, err := s.repo.Create(ctx, Admin{
		ID:           id,
		Email:        params.Email,
		PasswordHash: hash,
		Name:         params.Name,
		Role:         role,
		IsActive:     true,
		CreatedAt:    s.now().UTC(),
	})
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			existing, lookupErr := s.repo.GetByEmail(ctx, params.Email)
			if lookupErr == nil {
				public := existing.Public()
				return &public, false, nil
			}
		}
		return nil, false, fmt.Errorf("create admin: %w", err)
	}

	s.logger.Info().Str("admin_id", created.ID).Str("role", string(created.Role)).Msg("admin provisioned")
	public := created.Public()
	return &public, true, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
