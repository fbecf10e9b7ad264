package handlers

import (
	"net/http"
	"strconv"

	"github.com/Togather-Foundation/eventdesk/internal/api/envelope"
	"github.com/Togather-Foundation/eventdesk/internal/api/middleware"
	"github.com/Togather-Foundation/eventdesk/internal/audit"
	"github.com/Togather-Foundation/eventdesk/internal/domain/events"
	"github.com/Togather-Foundation/eventdesk/internal/metrics"
	"github.com/Togather-Foundation/eventdesk/internal/validation"
)

const msgEventDeleted = "Event deleted successfully"

// AdminEventsHandler serves /api/admin/events. Every route sits behind
// middleware.AdminAuth.
type AdminEventsHandler struct {
	Service   *events.Service
	Validator *validation.Validator
	Audit     *audit.Logger
}

func NewAdminEventsHandler(service *events.Service, validator *validation.Validator, auditLogger *audit.Logger) *AdminEventsHandler {
	return &AdminEventsHandler{Service: service, Validator: validator, Audit: auditLogger}
}

type deleteResponse struct {
	Message string `json:"message"`
}

type blocksResponse struct {
	Blocks []events.ContentBlock `json:"blocks"`
}

// Create handles POST /api/admin/events.
func (h *AdminEventsHandler) Create(w http.ResponseWriter, r *http.Request) {
	admin := middleware.AdminFromContext(r.Context())
	if admin == nil {
		envelope.Error(w, r, http.StatusUnauthorized, msgNotAuthenticated, nil)
		return
	}

	var input events.CreateEventInput
	if err := decodeJSON(r, &input); err != nil {
		writeDecodeError(w, r, err)
		return
	}
	params, err := input.Parse(h.Validator)
	if err != nil {
		writeValidationError(w, r, err)
		return
	}

	event, err := h.Service.CreateEvent(r.Context(), params, admin.ID)
	if err != nil {
		writeEventError(w, r, err)
		return
	}

	metrics.RecordEventMutation("create")
	h.Audit.LogFromRequest(r, "event.create", "event", event.ID, audit.StatusSuccess, map[string]string{"slug": event.Slug})
	envelope.Success(w, http.StatusCreated, event)
}

// List handles GET /api/admin/events?status=&page=&limit=.
func (h *AdminEventsHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := events.ParseListFilter(r.URL.Query())
	if err != nil {
		writeValidationError(w, r, err)
		return
	}

	result, err := h.Service.GetEvents(r.Context(), filter)
	if err != nil {
		writeEventError(w, r, err)
		return
	}
	envelope.Success(w, http.StatusOK, result)
}

// Get handles GET /api/admin/events/{id}. Any status is visible.
func (h *AdminEventsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := eventIDParam(w, r)
	if !ok {
		return
	}
	event, err := h.Service.GetEventByID(r.Context(), id)
	if err != nil {
		writeEventError(w, r, err)
		return
	}
	envelope.Success(w, http.StatusOK, event)
}

// Update handles PUT /api/admin/events/{id} as a partial update.
func (h *AdminEventsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := eventIDParam(w, r)
	if !ok {
		return
	}

	var input events.UpdateEventInput
	if err := decodeJSON(r, &input); err != nil {
		writeDecodeError(w, r, err)
		return
	}
	params, err := input.Parse(h.Validator)
	if err != nil {
		writeValidationError(w, r, err)
		return
	}

	event, err := h.Service.UpdateEvent(r.Context(), id, params)
	if err != nil {
		writeEventError(w, r, err)
		return
	}

	metrics.RecordEventMutation("update")
	details := map[string]string{"slug": event.Slug}
	if params.Status != nil {
		metrics.RecordStatusChange(string(*params.Status))
		details["status"] = string(*params.Status)
	}
	h.Audit.LogFromRequest(r, "event.update", "event", event.ID, audit.StatusSuccess, details)
	envelope.Success(w, http.StatusOK, event)
}

// Delete handles DELETE /api/admin/events/{id}.
func (h *AdminEventsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := eventIDParam(w, r)
	if !ok {
		return
	}
	if err := h.Service.DeleteEvent(r.Context(), id); err != nil {
		writeEventError(w, r, err)
		return
	}

	metrics.RecordEventMutation("delete")
	h.Audit.LogFromRequest(r, "event.delete", "event", id, audit.StatusSuccess, nil)
	envelope.Success(w, http.StatusOK, deleteResponse{Message: msgEventDeleted})
}

// ReplaceBlocks handles PUT /api/admin/events/{id}/content-blocks. The
// submitted list replaces the stored one atomically.
func (h *AdminEventsHandler) ReplaceBlocks(w http.ResponseWriter, r *http.Request) {
	admin := middleware.AdminFromContext(r.Context())
	if admin == nil {
		envelope.Error(w, r, http.StatusUnauthorized, msgNotAuthenticated, nil)
		return
	}
	id, ok := eventIDParam(w, r)
	if !ok {
		return
	}

	var input events.ReplaceContentBlocksInput
	if err := decodeJSON(r, &input); err != nil {
		writeDecodeError(w, r, err)
		return
	}
	blocks, err := input.Parse(h.Validator)
	if err != nil {
		writeValidationError(w, r, err)
		return
	}

	stored, err := h.Service.UpdateContentBlocks(r.Context(), id, blocks, admin.ID)
	if err != nil {
		writeEventError(w, r, err)
		return
	}

	metrics.RecordBlockReplace(len(stored))
	h.Audit.LogFromRequest(r, "event.content_blocks.replace", "event", id, audit.StatusSuccess,
		map[string]string{"count": strconv.Itoa(len(stored))})
	envelope.Success(w, http.StatusOK, blocksResponse{Blocks: stored})
}
