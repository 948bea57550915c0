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

// VisaHandler tracks days spent in visa-limited areas.
type VisaHandler struct {
	db  database.Service
	now func() time.Time
}

func NewVisaHandler(db database.Service) *VisaHandler {
	return &VisaHandler{db: db, now: time.Now}
}

// ── Presets ──────────────────────────────────────────────────────

// Presets lists the built-in rules, or resolves one area name with ?name=.
func (h *VisaHandler) Presets(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		JSON(w, http.StatusOK, map[string]interface{}{"data": compliance.Presets()})
		return
	}

	p, ok := compliance.ResolvePreset(name)
	if !ok {
		JSONError(w, http.StatusNotFound, "No preset matches that area")
		return
	}
	JSON(w, http.StatusOK, p)
}

// ── Areas ────────────────────────────────────────────────────────

// ListAreas returns the caller's tracked areas.
func (h *VisaHandler) ListAreas(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	areas, err := store.ListVisaAreas(ctx, h.db.GetPool(), listScope(r))
	if err != nil {
		log.Printf("[visa] list areas: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to fetch visa areas")
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{"data": areas})
}

// CreateArea starts tracking an area. Without an explicit rule the area
// name must match a preset.
func (h *VisaHandler) CreateArea(w http.ResponseWriter, r *http.Request) {
	var req models.CreateVisaAreaRequest
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
	rule := req.ResolvedRule()

	area, err := store.CreateVisaArea(ctx, pool, userID, req.AreaName, rule)
	if err != nil {
		if store.IsUniqueViolation(err) {
			JSONError(w, http.StatusConflict, "You already track an area with this name")
			return
		}
		log.Printf("[visa] create area: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to create visa area")
		return
	}

	logActivity(pool, userID, "created", "visa_area", area.ID, map[string]interface{}{
		"areaName": area.AreaName,
		"rule":     rule.String(),
	})
	JSON(w, http.StatusCreated, area)
}

// DeleteArea stops tracking an area and drops its entries.
func (h *VisaHandler) DeleteArea(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	pool := h.db.GetPool()
	area, ok := loadVisaArea(ctx, w, pool, id)
	if !ok {
		return
	}

	if err := store.DeleteVisaArea(ctx, pool, area.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
		log.Printf("[visa] delete area %s: %v", area.ID, err)
		JSONError(w, http.StatusInternalServerError, "Failed to delete visa area")
		return
	}

	logActivity(pool, ctxkeys.GetUserID(r.Context()), "deleted", "visa_area", area.ID, map[string]interface{}{
		"areaName": area.AreaName,
	})
	w.WriteHeader(http.StatusNoContent)
}

// ── Entries ──────────────────────────────────────────────────────

// ListEntries returns the days recorded in an area.
func (h *VisaHandler) ListEntries(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	pool := h.db.GetPool()
	area, ok := loadVisaArea(ctx, w, pool, id)
	if !ok {
		return
	}

	entries, err := store.ListVisaEntries(ctx, pool, area.ID)
	if err != nil {
		log.Printf("[visa] list entries %s: %v", area.ID, err)
		JSONError(w, http.StatusInternalServerError, "Failed to fetch entries")
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{"data": entries})
}

// CreateEntry records a day in an area. A day that would break the rule is
// refused with 409 unless the request sets force.
func (h *VisaHandler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req models.CreateVisaEntryRequest
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
	area, ok := loadVisaArea(ctx, w, pool, id)
	if !ok {
		return
	}

	existing, err := store.LoadVisaEntries(ctx, pool, area.ID)
	if err != nil {
		log.Printf("[visa] load entries %s: %v", area.ID, err)
		JSONError(w, http.StatusInternalServerError, "Failed to load entries")
		return
	}

	day := req.ParsedDate()
	check := compliance.CheckDateCompliance(area.Rule(), existing, day)
	if !check.Allowed && !req.Force {
		JSON(w, http.StatusConflict, map[string]interface{}{
			"error": "This day would exceed the allowance for " + area.AreaName,
			"check": check,
		})
		return
	}

	entry, err := store.InsertVisaEntry(ctx, pool, area.ID, day)
	if err != nil {
		if store.IsUniqueViolation(err) {
			JSONError(w, http.StatusConflict, "That day is already recorded")
			return
		}
		log.Printf("[visa] insert entry %s: %v", area.ID, err)
		JSONError(w, http.StatusInternalServerError, "Failed to record entry")
		return
	}

	details := map[string]interface{}{"date": entry.EntryDate}
	if !check.Allowed {
		details["forced"] = true
	}
	logActivity(pool, ctxkeys.GetUserID(r.Context()), "recorded", "visa_entry", area.ID, details)

	JSON(w, http.StatusCreated, map[string]interface{}{
		"entry": entry,
		"check": check,
	})
}

// DeleteEntry removes a recorded day.
func (h *VisaHandler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
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
	area, ok := loadVisaArea(ctx, w, pool, id)
	if !ok {
		return
	}

	if err := store.DeleteVisaEntry(ctx, pool, area.ID, day); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			JSONError(w, http.StatusNotFound, "That day is not recorded")
			return
		}
		log.Printf("[visa] delete entry %s: %v", area.ID, err)
		JSONError(w, http.StatusInternalServerError, "Failed to delete entry")
		return
	}

	logActivity(pool, ctxkeys.GetUserID(r.Context()), "deleted", "visa_entry", area.ID, map[string]interface{}{
		"date": compliance.FormatDay(day),
	})
	w.WriteHeader(http.StatusNoContent)
}

// ── Compliance ───────────────────────────────────────────────────

// Compliance summarizes usage against the area's rule as of today.
// ?trace=1 adds the per-window audit trail.
func (h *VisaHandler) Compliance(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	pool := h.db.GetPool()
	area, ok := loadVisaArea(ctx, w, pool, id)
	if !ok {
		return
	}

	entries, err := store.LoadVisaEntries(ctx, pool, area.ID)
	if err != nil {
		log.Printf("[visa] load entries %s: %v", area.ID, err)
		JSONError(w, http.StatusInternalServerError, "Failed to load entries")
		return
	}

	var tr *compliance.Trace
	if wantTrace(r) {
		tr = compliance.NewTrace()
	}

	JSON(w, http.StatusOK, models.ComplianceResponse{
		Area:             area,
		ComplianceResult: compliance.CalculateVisaCompliance(area.Rule(), entries, h.now(), tr),
		Trace:            tr,
	})
}

// Check answers whether spending a prospective day in the area is allowed.
func (h *VisaHandler) Check(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req models.CheckDateRequest
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
	area, ok := loadVisaArea(ctx, w, pool, id)
	if !ok {
		return
	}

	entries, err := store.LoadVisaEntries(ctx, pool, area.ID)
	if err != nil {
		log.Printf("[visa] load entries %s: %v", area.ID, err)
		JSONError(w, http.StatusInternalServerError, "Failed to load entries")
		return
	}

	day := req.ParsedDate()
	JSON(w, http.StatusOK, models.DateCheckResponse{
		AreaID:    area.ID,
		Date:      compliance.FormatDay(day),
		DateCheck: compliance.CheckDateCompliance(area.Rule(), entries, day),
	})
}
