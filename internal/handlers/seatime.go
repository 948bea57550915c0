package handlers

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sort"
	"time"

	"seatime-backend/internal/compliance"
	"seatime-backend/internal/ctxkeys"
	"seatime-backend/internal/database"
	"seatime-backend/internal/models"
	"seatime-backend/internal/store"
)

// SeaServiceHandler exposes the qualifying sea-time calculation and gap filling.
type SeaServiceHandler struct {
	db  database.Service
	now func() time.Time
}

func NewSeaServiceHandler(db database.Service) *SeaServiceHandler {
	return &SeaServiceHandler{db: db, now: time.Now}
}

// ByVessel returns sea days, standby days and their breakdown for one vessel.
// ?trace=1 adds the step-by-step audit trail.
func (h *SeaServiceHandler) ByVessel(w http.ResponseWriter, r *http.Request) {
	vesselID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	pool := h.db.GetPool()
	vessel, ok := loadVessel(ctx, w, pool, vesselID)
	if !ok {
		return
	}

	logs, err := store.LoadStateSeries(ctx, pool, vessel.UserID, vessel.ID)
	if err != nil {
		log.Printf("[seatime] load series %s: %v", vessel.ID, err)
		JSONError(w, http.StatusInternalServerError, "Failed to load logs")
		return
	}

	var tr *compliance.Trace
	if wantTrace(r) {
		tr = compliance.NewTrace()
	}

	JSON(w, http.StatusOK, models.SeaServiceResponse{
		VesselID:      vessel.ID,
		StandbyResult: compliance.ComputeSeaService(logs, tr),
		Trace:         tr,
	})
}

// Totals sums sea service across all of the caller's vessels.
func (h *SeaServiceHandler) Totals(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	pool := h.db.GetPool()
	userID := ctxkeys.GetUserID(r.Context())

	vessels, err := store.ListVessels(ctx, pool, userID)
	if err != nil {
		log.Printf("[seatime] list vessels: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to fetch vessels")
		return
	}

	per := make([]models.VesselSeaService, 0, len(vessels))
	for _, v := range vessels {
		logs, err := store.LoadStateSeries(ctx, pool, userID, v.ID)
		if err != nil {
			log.Printf("[seatime] load series %s: %v", v.ID, err)
			JSONError(w, http.StatusInternalServerError, "Failed to load logs")
			return
		}
		res := compliance.ComputeSeaService(logs, nil)
		per = append(per, models.VesselSeaService{
			VesselID:         v.ID,
			VesselName:       v.Name,
			TotalSeaDays:     res.TotalSeaDays,
			TotalStandbyDays: res.TotalStandbyDays,
		})
	}

	JSON(w, http.StatusOK, sumSeaService(per))
}

func sumSeaService(per []models.VesselSeaService) models.SeaServiceTotals {
	totals := models.SeaServiceTotals{Vessels: per}
	for _, v := range per {
		totals.TotalSeaDays += v.TotalSeaDays
		totals.TotalStandbyDays += v.TotalStandbyDays
	}
	return totals
}

// Gaps proposes filling the unlogged days since the last log with its state.
func (h *SeaServiceHandler) Gaps(w http.ResponseWriter, r *http.Request) {
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

	logs, err := store.LoadStateSeries(ctx, pool, vessel.UserID, vessel.ID)
	if err != nil {
		log.Printf("[gaps] load series %s: %v", vessel.ID, err)
		JSONError(w, http.StatusInternalServerError, "Failed to load logs")
		return
	}

	JSON(w, http.StatusOK, compliance.ProposeGapFill(logs, h.now()))
}

// FillGaps writes the proposed logs in one transaction. The body may name a
// subset of the proposed days; days outside the proposal are rejected.
func (h *SeaServiceHandler) FillGaps(w http.ResponseWriter, r *http.Request) {
	vesselID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req models.GapFillRequest
	if !decodeJSON(w, r, &req, true) {
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		validationFailed(w, errs)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	pool := h.db.GetPool()
	vessel, ok := loadVessel(ctx, w, pool, vesselID)
	if !ok {
		return
	}

	logs, err := store.LoadStateSeries(ctx, pool, vessel.UserID, vessel.ID)
	if err != nil {
		log.Printf("[gaps] load series %s: %v", vessel.ID, err)
		JSONError(w, http.StatusInternalServerError, "Failed to load logs")
		return
	}

	proposal := compliance.ProposeGapFill(logs, h.now())
	fill, errs := selectFillDays(proposal, req.ParsedDays())
	if len(errs) > 0 {
		validationFailed(w, errs)
		return
	}
	if len(fill) == 0 {
		JSON(w, http.StatusOK, models.GapFillResponse{})
		return
	}

	inserted, err := store.InsertStateLogs(ctx, pool, vessel.UserID, vessel.ID, fill)
	if err != nil {
		log.Printf("[gaps] fill %s: %v", vessel.ID, err)
		JSONError(w, http.StatusInternalServerError, "Failed to fill gaps")
		return
	}

	resp := models.GapFillResponse{
		Inserted: inserted,
		State:    string(fill[0].State),
		From:     compliance.FormatDay(fill[0].Date),
		To:       compliance.FormatDay(fill[len(fill)-1].Date),
	}
	logActivity(pool, ctxkeys.GetUserID(r.Context()), "filled_gaps", "vessel", vessel.ID, map[string]interface{}{
		"inserted": resp.Inserted,
		"state":    resp.State,
		"from":     resp.From,
		"to":       resp.To,
	})
	JSON(w, http.StatusOK, resp)
}

// selectFillDays narrows a proposal to the requested days. An empty request
// selects every proposed day.
func selectFillDays(p compliance.GapProposal, requested []time.Time) ([]compliance.StateLog, map[string]string) {
	all := p.FillLogs()
	if len(requested) == 0 {
		return all, nil
	}

	byDay := make(map[string]compliance.StateLog, len(all))
	for _, l := range all {
		byDay[compliance.FormatDay(l.Date)] = l
	}

	errs := map[string]string{}
	seen := map[string]bool{}
	var out []compliance.StateLog
	for i, d := range requested {
		key := compliance.FormatDay(d)
		l, ok := byDay[key]
		if !ok {
			errs[fmt.Sprintf("days[%d]", i)] = "Day is not part of the proposed gap"
			continue
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, errs
}
