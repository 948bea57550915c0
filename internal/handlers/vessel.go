package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"seatime-backend/internal/ctxkeys"
	"seatime-backend/internal/database"
	"seatime-backend/internal/models"
	"seatime-backend/internal/store"
)

// VesselHandler manages the vessels a crew member logs days on.
type VesselHandler struct {
	db database.Service
}

func NewVesselHandler(db database.Service) *VesselHandler {
	return &VesselHandler{db: db}
}

// List returns the caller's vessels (admins may pass ?all=1).
func (h *VesselHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	vessels, err := store.ListVessels(ctx, h.db.GetPool(), listScope(r))
	if err != nil {
		log.Printf("[vessel] list: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to fetch vessels")
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{"data": vessels})
}

// Create adds a vessel owned by the caller.
func (h *VesselHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateVesselRequest
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
	userID := ctxkeys.GetUserID(r.Context())

	vessel, err := store.CreateVessel(ctx, pool, userID, req)
	if err != nil {
		log.Printf("[vessel] create: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to create vessel")
		return
	}

	logActivity(pool, userID, "created", "vessel", vessel.ID, map[string]interface{}{
		"name": vessel.Name,
	})
	JSON(w, http.StatusCreated, vessel)
}

// GetByID returns one vessel.
func (h *VesselHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	vessel, ok := loadVessel(ctx, w, h.db.GetPool(), id)
	if !ok {
		return
	}
	JSON(w, http.StatusOK, vessel)
}
