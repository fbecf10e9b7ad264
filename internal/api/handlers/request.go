package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/Togather-Foundation/eventdesk/internal/api/envelope"
	"github.com/Togather-Foundation/eventdesk/internal/domain/events"
	"github.com/Togather-Foundation/eventdesk/internal/domain/ids"
	"github.com/Togather-Foundation/eventdesk/internal/validation"
)

const (
	msgEventNotFound = "Event not found"
	msgSlugConflict  = "Event with this slug already exists"
	msgInvalidJSON   = "Invalid JSON body"
	msgBodyRequired  = "Request body is required"
	msgBodyTooLarge  = "Request body too large"
)

var (
	errBodyTooLarge = errors.New("request body too large")
	errBodyRequired = errors.New("request body is required")
	errInvalidJSON  = errors.New("invalid JSON body")
)

// eventIDParam returns the {id} path value. Identifiers that are not ULIDs
// cannot exist, so they are answered with 404 before any lookup.
func eventIDParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.PathValue("id")
	if err := ids.ValidateULID(id); err != nil {
		envelope.Error(w, r, http.StatusNotFound, msgEventNotFound, err)
		return "", false
	}
	return id, true
}

// decodeJSON reads a single JSON value into dst. Unknown fields are ignored.
// Field type mismatches come back as *validation.Error.
func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return errBodyRequired
	}
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var (
			maxErr  *http.MaxBytesError
			typeErr *json.UnmarshalTypeError
		)
		switch {
		case errors.As(err, &maxErr):
			return errBodyTooLarge
		case errors.Is(err, io.EOF):
			return errBodyRequired
		case errors.As(err, &typeErr) && typeErr.Field != "":
			return validation.NewError(typeErr.Field, fmt.Sprintf("%s has an invalid type", typeErr.Field))
		default:
			return fmt.Errorf("%w: %v", errInvalidJSON, err)
		}
	}
	if dec.More() {
		return errInvalidJSON
	}
	return nil
}

// writeDecodeError answers a failed decodeJSON.
func writeDecodeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, errBodyTooLarge):
		envelope.Error(w, r, http.StatusRequestEntityTooLarge, msgBodyTooLarge, err)
	case errors.Is(err, errBodyRequired):
		envelope.Error(w, r, http.StatusBadRequest, msgBodyRequired, err)
	case validation.IsError(err):
		writeValidationError(w, r, err)
	default:
		envelope.Error(w, r, http.StatusBadRequest, msgInvalidJSON, err)
	}
}

func writeValidationError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *validation.Error
	if !errors.As(err, &verr) {
		envelope.Error(w, r, http.StatusBadRequest, err.Error(), err)
		return
	}
	envelope.Error(w, r, http.StatusBadRequest, verr.Error(), err, envelope.WithDetails(verr.Details()))
}

// writeEventError maps event service failures onto the response contract.
func writeEventError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case validation.IsError(err):
		writeValidationError(w, r, err)
	case errors.Is(err, events.ErrSlugConflict):
		envelope.Error(w, r, http.StatusBadRequest, msgSlugConflict, err)
	case errors.Is(err, events.ErrNotFound):
		envelope.Error(w, r, http.StatusNotFound, msgEventNotFound, err)
	default:
		envelope.Error(w, r, http.StatusInternalServerError, "", err)
	}
}
