package handlers

import (
	"errors"
	"net/http"

	"github.com/Togather-Foundation/eventdesk/internal/api/envelope"
	"github.com/Togather-Foundation/eventdesk/internal/api/middleware"
	"github.com/Togather-Foundation/eventdesk/internal/audit"
	"github.com/Togather-Foundation/eventdesk/internal/domain/admins"
	"github.com/Togather-Foundation/eventdesk/internal/metrics"
	"github.com/Togather-Foundation/eventdesk/internal/validation"
)

const (
	msgInvalidCredentials = "Invalid credentials"
	msgAccountDisabled    = "Account is disabled"
	msgNotAuthenticated   = "Not authenticated"
	msgAdminNotFound      = "Admin not found"
)

type AuthHandler struct {
	Service   *admins.Service
	Validator *validation.Validator
	Audit     *audit.Logger
}

func NewAuthHandler(service *admins.Service, validator *validation.Validator, auditLogger *audit.Logger) *AuthHandler {
	return &AuthHandler{Service: service, Validator: validator, Audit: auditLogger}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		metrics.RecordLogin("invalid_input")
		writeDecodeError(w, r, err)
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		metrics.RecordLogin("invalid_input")
		writeValidationError(w, r, err)
		return
	}

	result, err := h.Service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, admins.ErrInvalidCredentials):
			metrics.RecordLogin("invalid_credentials")
			h.Audit.LogFromRequest(r, "auth.login", "admin", "", audit.StatusFailure, map[string]string{"reason": "invalid_credentials"})
			envelope.Error(w, r, http.StatusUnauthorized, msgInvalidCredentials, err)
		case errors.Is(err, admins.ErrAccountDisabled):
			metrics.RecordLogin("disabled")
			h.Audit.LogFromRequest(r, "auth.login", "admin", "", audit.StatusFailure, map[string]string{"reason": "account_disabled"})
			envelope.Error(w, r, http.StatusUnauthorized, msgAccountDisabled, err)
		default:
			metrics.RecordLogin("error")
			envelope.Error(w, r, http.StatusInternalServerError, "", err)
		}
		return
	}

	metrics.RecordLogin("success")
	h.Audit.Log(audit.Entry{
		Action:       "auth.login",
		AdminID:      result.Admin.ID,
		AdminEmail:   result.Admin.Email,
		ResourceType: "admin",
		ResourceID:   result.Admin.ID,
		RequestID:    middleware.GetRequestID(r.Context()),
		Status:       audit.StatusSuccess,
	})
	envelope.Success(w, http.StatusOK, result)
}

// Me handles GET /api/auth/me for the authenticated administrator.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	current := middleware.AdminFromContext(r.Context())
	if current == nil {
		envelope.Error(w, r, http.StatusUnauthorized, msgNotAuthenticated, nil)
		return
	}

	admin, err := h.Service.GetAdminByID(r.Context(), current.ID)
	if err != nil {
		if errors.Is(err, admins.ErrNotFound) {
			envelope.Error(w, r, http.StatusNotFound, msgAdminNotFound, err)
			return
		}
		envelope.Error(w, r, http.StatusInternalServerError, "", err)
		return
	}

	envelope.Success(w, http.StatusOK, admin)
}
