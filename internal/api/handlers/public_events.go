package handlers

import (
	"errors"
	"net/http"

	"github.com/Togather-Foundation/eventdesk/internal/api/envelope"
	"github.com/Togather-Foundation/eventdesk/internal/domain/events"
)

// PublicEventsHandler exposes published events without authentication.
// Drafts and cancelled events are indistinguishable from missing ones.
type PublicEventsHandler struct {
	Service *events.Service
}

func NewPublicEventsHandler(service *events.Service) *PublicEventsHandler {
	return &PublicEventsHandler{Service: service}
}

// List handles GET /api/events?page=&limit=. A status parameter is ignored.
func (h *PublicEventsHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	query.Del("status")

	filter, err := events.ParseListFilter(query)
	if err != nil {
		writeValidationError(w, r, err)
		return
	}
	published := events.StatusPublished
	filter.Status = &published

	result, err := h.Service.GetEvents(r.Context(), filter)
	if err != nil {
		writeEventError(w, r, err)
		return
	}
	envelope.Success(w, http.StatusOK, result)
}

// Get handles GET /api/events/{slug}.
func (h *PublicEventsHandler) Get(w http.ResponseWriter, r *http.Request) {
	event, err := h.Service.GetEventBySlug(r.Context(), r.PathValue("slug"))
	if err != nil {
		writeEventError(w, r, err)
		return
	}
	if event.Status != events.StatusPublished {
		envelope.Error(w, r, http.StatusNotFound, msgEventNotFound, errors.New("event not published"))
		return
	}
	envelope.Success(w, http.StatusOK, event)
}
