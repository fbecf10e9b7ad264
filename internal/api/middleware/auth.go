package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/Togather-Foundation/eventdesk/internal/api/envelope"
	"github.com/Togather-Foundation/eventdesk/internal/auth"
	"github.com/Togather-Foundation/eventdesk/internal/domain/admins"
)

const (
	msgNoToken        = "No token provided"
	msgUnauthorized   = "Unauthorized"
	msgAccountInvalid = "Invalid token or account disabled"
	msgSuperAdminOnly = "Forbidden - Super admin access required"
)

type contextKeyAdmin string

const adminContextKey contextKeyAdmin = "admin"

// AdminAuthenticator resolves bearer tokens to administrator records.
type AdminAuthenticator interface {
	VerifyToken(token string) (*auth.TokenPayload, error)
	LookupAdmin(ctx context.Context, id string) (*admins.Admin, error)
}

// AdminAuth requires a valid bearer token that names an existing, active
// administrator. The resolved record is available through AdminFromContext.
func AdminAuth(authenticator AdminAuthenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := auth.TokenFromHeader(r.Header.Get("Authorization"))
			if err != nil {
				envelope.Error(w, r, http.StatusUnauthorized, msgNoToken, nil)
				return
			}

			payload, err := authenticator.VerifyToken(token)
			if err != nil {
				envelope.Error(w, r, http.StatusUnauthorized, msgUnauthorized, err)
				return
			}

			admin, err := authenticator.LookupAdmin(r.Context(), payload.AdminID)
			switch {
			case errors.Is(err, admins.ErrNotFound):
				envelope.Error(w, r, http.StatusUnauthorized, msgAccountInvalid, err)
				return
			case err != nil:
				envelope.Error(w, r, http.StatusInternalServerError, "", err)
				return
			case !admin.IsActive:
				envelope.Error(w, r, http.StatusUnauthorized, msgAccountInvalid, admins.ErrAccountDisabled)
				return
			}

			ctx := ContextWithAdmin(r.Context(), admin)
			if logger := LoggerFromContext(ctx); logger != nil {
				ctx = logger.With().Str("admin_id", admin.ID).Logger().WithContext(ctx)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireSuperAdmin must run after AdminAuth.
func RequireSuperAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		admin := AdminFromContext(r.Context())
		if admin == nil {
			envelope.Error(w, r, http.StatusUnauthorized, msgUnauthorized, nil)
			return
		}
		if !auth.IsSuperAdmin(admin.Role) {
			envelope.Error(w, r, http.StatusForbidden, msgSuperAdminOnly, nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func ContextWithAdmin(ctx context.Context, admin *admins.Admin) context.Context {
	return context.WithValue(ctx, adminContextKey, admin)
}

// AdminFromContext returns the authenticated administrator, or nil.
func AdminFromContext(ctx context.Context) *admins.Admin {
	if ctx == nil {
		return nil
	}
	admin, _ := ctx.Value(adminContextKey).(*admins.Admin)
	return admin
}
