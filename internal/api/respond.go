package api

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/hackgods/clinic-frontdesk/internal/appointment"
	redisclient "github.com/hackgods/clinic-frontdesk/internal/redis"
	"github.com/hackgods/clinic-frontdesk/internal/store"
	"github.com/hackgods/clinic-frontdesk/internal/workspace"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, ErrorResponse{Error: code, Details: details})
}

// handleWorkspaceError maps workspace, lifecycle and store failures onto
// HTTP. Store messages are passed through as details.
func handleWorkspaceError(w http.ResponseWriter, err error) {
	var verr *workspace.ValidationError
	var serr *store.Error

	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, "validation_failed", verr.Message)
	case errors.Is(err, workspace.ErrConfirmationRequired):
		writeError(w, http.StatusPreconditionRequired, "confirmation_required", "send X-Confirm: yes to delete")
	case errors.Is(err, workspace.ErrMutationInFlight):
		var busy *redisclient.BusyError
		if errors.As(err, &busy) && busy.RetryAfter > 0 {
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(busy.RetryAfter.Seconds()))))
		}
		writeError(w, http.StatusConflict, "mutation_in_flight", workspace.ErrMutationInFlight.Error())
	case errors.Is(err, appointment.ErrInvalidStatus):
		writeError(w, http.StatusBadRequest, "invalid_status", err.Error())
	case errors.Is(err, appointment.ErrInvalidStatusTransition),
		errors.Is(err, appointment.ErrAlreadyArrived):
		writeError(w, http.StatusConflict, "invalid_status_transition", err.Error())
	case errors.Is(err, store.ErrSessionInvalid):
		writeError(w, http.StatusUnauthorized, "session_invalid", store.UserMessage(err))
	case errors.As(err, &serr):
		writeStoreError(w, serr)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func writeStoreError(w http.ResponseWriter, err *store.Error) {
	if err.Kind == store.KindTransport {
		writeError(w, http.StatusBadGateway, "store_unreachable", err.Message)
		return
	}
	switch {
	case err.StatusCode == http.StatusNotFound:
		writeError(w, http.StatusNotFound, "not_found", err.Message)
	case err.StatusCode >= 400 && err.StatusCode < 500:
		writeError(w, err.StatusCode, "store_rejected", err.Message)
	default:
		writeError(w, http.StatusBadGateway, "store_rejected", err.Message)
	}
}
