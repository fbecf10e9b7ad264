package admins

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Togather-Foundation/eventdesk/internal/auth"
	"github.com/Togather-Foundation/eventdesk/internal/validation"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type stubRepo struct {
	mu      sync.Mutex
	byID    map[string]Admin
	created int
	getErr  error
}

func newStubRepo(admins ...Admin) *stubRepo {
	repo := &stubRepo{byID: map[string]Admin{}}
	for _, a := range admins {
		repo.byID[a.ID] = a
	}
	return repo
}

func (r *stubRepo) GetByEmail(_ context.Context, email string) (*Admin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	for _, a := range r.byID {
		if a.Email == email {
			found := a
			return &found, nil
		}
	}
	return nil, ErrNotFound
}

func (r *stubRepo) GetByID(_ context.Context, id string) (*Admin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &a, nil
}

func (r *stubRepo) Create(_ context.Context, admin Admin) (*Admin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.byID {
		if a.Email == admin.Email {
			return nil, ErrEmailTaken
		}
	}
	r.byID[admin.ID] = admin
	r.created++
	return &admin, nil
}

var testHasher = auth.BcryptHasher{Cost: bcrypt.MinCost}

func hashed(t *testing.T, password string) string {
	t.Helper()
	hash, err := testHasher.Hash(password)
	require.NoError(t, err)
	return hash
}

func newTestService(repo Repository) (*Service, *auth.JWTManager) {
	tokens := auth.NewJWTManager("test-secret", auth.TokenTTL, "eventdesk")
	return NewService(repo, testHasher, tokens, zerolog.Nop()), tokens
}

func TestLoginIssuesVerifiableToken(t *testing.T) {
	repo := newStubRepo(Admin{
		ID: "admin-1", Email: "admin@example.com", Name: "Ada", Role: auth.RoleSuperAdmin,
		PasswordHash: hashed(t, "correct-horse"), IsActive: true, CreatedAt: time.Now(),
	})
	svc, _ := newTestService(repo)

	result, err := svc.Login(context.Background(), "Admin@Example.com ", "correct-horse")
	require.NoError(t, err)
	require.NotEmpty(t, result.Token)
	require.Equal(t, LoginIdentity{ID: "admin-1", Email: "admin@example.com", Name: "Ada", Role: auth.RoleSuperAdmin}, result.Admin)

	payload, err := svc.VerifyToken(result.Token)
	require.NoError(t, err)
	require.Equal(t, "admin-1", payload.AdminID)
	require.Equal(t, "admin@example.com", payload.Email)
	require.Equal(t, auth.RoleSuperAdmin, payload.Role)
}

func TestLoginFailures(t *testing.T) {
	repo := newStubRepo(
		Admin{ID: "active", Email: "active@example.com", PasswordHash: hashed(t, "secret1"), Role: auth.RoleAdmin, IsActive: true},
		Admin{ID: "inactive", Email: "inactive@example.com", PasswordHash: hashed(t, "secret1"), Role: auth.RoleAdmin, IsActive: false},
	)
	svc, _ := newTestService(repo)
	ctx := context.Background()

	_, err := svc.Login(ctx, "missing@example.com", "secret1")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, "active@example.com", "wrong-password")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, "inactive@example.com", "secret1")
	require.ErrorIs(t, err, ErrAccountDisabled)

	_, err = svc.Login(ctx, "inactive@example.com", "wrong-password")
	require.ErrorIs(t, err, ErrAccountDisabled)
}

func TestLoginWrapsStoreErrors(t *testing.T) {
	repo := newStubRepo()
	repo.getErr = errors.New("connection refused")
	svc, _ := newTestService(repo)

	_, err := svc.Login(context.Background(), "a@example.com", "secret1")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrInvalidCredentials)
}

func TestVerifyTokenRejectsGarbage(t *testing.T) {
	svc, _ := newTestService(newStubRepo())

	_, err := svc.VerifyToken("garbage")
	require.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestGetAdminByID(t *testing.T) {
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	repo := newStubRepo(Admin{ID: "admin-1", Email: "a@example.com", Name: "Ada", Role: auth.RoleAdmin, PasswordHash: "hash", IsActive: true, CreatedAt: created})
	svc, _ := newTestService(repo)

	admin, err := svc.GetAdminByID(context.Background(), "admin-1")
	require.NoError(t, err)
	require.Equal(t, PublicAdmin{ID: "admin-1", Email: "a@example.com", Name: "Ada", Role: auth.RoleAdmin, IsActive: true, CreatedAt: created}, *admin)

	_, err = svc.GetAdminByID(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestProvisionCreatesOnce(t *testing.T) {
	repo := newStubRepo()
	svc, _ := newTestService(repo)
	ctx := context.Background()
	params := ProvisionParams{Email: "root@example.com", Password: "bootstrap", Name: "Root", Role: "super_admin"}

	admin, created, err := svc.Provision(ctx, params)
	require.NoError(t, err)
	require.True(t, created)
	require.Equal(t, auth.RoleSuperAdmin, admin.Role)
	require.True(t, admin.IsActive)

	again, created, err := svc.Provision(ctx, ProvisionParams{Email: "root@example.com", Password: "different", Name: "Other", Role: "ADMIN"})
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, admin.ID, again.ID)
	require.Equal(t, "Root", again.Name)
	require.Equal(t, 1, repo.created)

	result, err := svc.Login(ctx, "root@example.com", "bootstrap")
	require.NoError(t, err)
	require.Equal(t, admin.ID, result.Admin.ID)
}

func TestProvisionValidates(t *testing.T) {
	svc, _ := newTestService(newStubRepo())

	_, _, err := svc.Provision(context.Background(), ProvisionParams{Email: "not-an-email", Password: "123", Name: "X", Role: "OWNER"})
	var verr *validation.Error
	require.ErrorAs(t, err, &verr)
	details := verr.Details()
	require.Contains(t, details, "email")
	require.Contains(t, details, "password")
	require.Contains(t, details, "role")
}
