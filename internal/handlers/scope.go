package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"seatime-backend/internal/compliance"
	"seatime-backend/internal/ctxkeys"
	"seatime-backend/internal/models"
	"seatime-backend/internal/store"
)

// pathID reads a UUID URL parameter, answering 400 when it is malformed.
func pathID(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		JSONError(w, http.StatusBadRequest, "Invalid "+name)
		return "", false
	}
	return id.String(), true
}

// pathDay reads a yyyy-mm-dd URL parameter, answering 400 when it is malformed.
func pathDay(w http.ResponseWriter, r *http.Request, name string) (time.Time, bool) {
	d, err := compliance.ParseDay(chi.URLParam(r, name))
	if err != nil {
		JSONError(w, http.StatusBadRequest, err.Error())
		return time.Time{}, false
	}
	return d, true
}

// canAccess reports whether the current user may see records owned by ownerID.
// Crew see their own records; admins see everyone's.
func canAccess(ctx context.Context, ownerID string) bool {
	return ownerID == ctxkeys.GetUserID(ctx) || ctxkeys.IsAdmin(ctx)
}

// listScope returns the owner filter for list queries: "" (everyone) for admins
// who pass ?all=1, otherwise the current user.
func listScope(r *http.Request) string {
	if ctxkeys.IsAdmin(r.Context()) && r.URL.Query().Get("all") == "1" {
		return ""
	}
	return ctxkeys.GetUserID(r.Context())
}

// loadVessel fetches a vessel the caller may access. Vessels owned by someone
// else answer 404 so their existence isn't leaked.
func loadVessel(ctx context.Context, w http.ResponseWriter, db store.DB, id string) (models.Vessel, bool) {
	v, err := store.GetVessel(ctx, db, id)
	if err == nil && !canAccess(ctx, v.UserID) {
		err = store.ErrNotFound
	}
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			JSONError(w, http.StatusNotFound, "Vessel not found")
			return models.Vessel{}, false
		}
		log.Printf("[vessel] load %s: %v", id, err)
		JSONError(w, http.StatusInternalServerError, "Failed to fetch vessel")
		return models.Vessel{}, false
	}
	return v, true
}

// loadVisaArea fetches a visa area the caller may access.
func loadVisaArea(ctx context.Context, w http.ResponseWriter, db store.DB, id string) (models.VisaArea, bool) {
	a, err := store.GetVisaArea(ctx, db, id)
	if err == nil && !canAccess(ctx, a.UserID) {
		err = store.ErrNotFound
	}
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			JSONError(w, http.StatusNotFound, "Visa area not found")
			return models.VisaArea{}, false
		}
		log.Printf("[visa] load area %s: %v", id, err)
		JSONError(w, http.StatusInternalServerError, "Failed to fetch visa area")
		return models.VisaArea{}, false
	}
	return a, true
}
