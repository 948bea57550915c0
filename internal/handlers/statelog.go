package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"seatime-backend/internal/compliance"
	"seatime-backend/internal/ctxkeys"
	"seatime-backend/internal/database"
	"seatime-backend/internal/models"
	"seatime-backend/internal/store"
)

// StateLogHandler manages the per-day vessel state entries.
type StateLogHandler struct {
	db database.Service
}

func NewStateLogHandler(db database.Service) *StateLogHandler {
	return &StateLogHandler{db: db}
}

// List returns every logged day for a vessel, oldest first.
func (h *StateLogHandler) List(w http.ResponseWriter, r *http.Request) {
	vesselID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	pool := h.db.GetPool()
	vessel, ok := loadVessel(ctx, w, pool, vesselID)
	if !ok {
		return
	}

	logs, err := store.ListStateLogs(ctx, pool, vessel.UserID, vessel.ID)
	if err != nil {
		log.Printf("[logs] list %s: %v", vessel.ID, err)
		JSONError(w, http.StatusInternalServerError, "Failed to fetch logs")
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{"data": logs})
}

// Upsert sets the state for the day in the URL. Logging the same day twice
// replaces the earlier state.
func (h *StateLogHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	vesselID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	day, ok := pathDay(w, r, "date")
	if !ok {
		return
	}

	var req models.UpsertStateLogRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		validationFailed(w, errs)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	pool := h.db.GetPool()
	vessel, ok := loadVessel(ctx, w, pool, vesselID)
	if !ok {
		return
	}

	entry, err := store.UpsertStateLog(ctx, pool, vessel.UserID, vessel.ID, day, req.ParsedState())
	if err != nil {
		log.Printf("[logs] upsert %s %s: %v", vessel.ID, compliance.FormatDay(day), err)
		JSONError(w, http.StatusInternalServerError, "Failed to save log")
		return
	}

	logActivity(pool, ctxkeys.GetUserID(r.Context()), "logged", "state_log", entry.ID, map[string]interface{}{
		"vesselId": vessel.ID,
		"date":     entry.Date,
		"state":    entry.State,
	})
	JSON(w, http.StatusOK, entry)
}

// Delete removes the log for the day in the URL.
func (h *StateLogHandler) Delete(w http.ResponseWriter, r *http.Request) {
	vesselID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	day, ok := pathDay(w, r, "date")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	pool := h.db.GetPool()
	vessel, ok := loadVessel(ctx, w, pool, vesselID)
	if !ok {
		return
	}

	if err := store.DeleteStateLog(ctx, pool, vessel.UserID, vessel.ID, day); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			JSONError(w, http.StatusNotFound, "No log for that day")
			return
		}
		log.Printf("[logs] delete %s %s: %v", vessel.ID, compliance.FormatDay(day), err)
		JSONError(w, http.StatusInternalServerError, "Failed to delete log")
		return
	}

	logActivity(pool, ctxkeys.GetUserID(r.Context()), "deleted", "state_log", vessel.ID, map[string]interface{}{
		"date": compliance.FormatDay(day),
	})
	w.WriteHeader(http.StatusNoContent)
}
