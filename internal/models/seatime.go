package models

import (
	"fmt"
	"time"

	"seatime-backend/internal/compliance"
)

// ── State Logs ───────────────────────────────────────────────────

// StateLog is one persisted day of vessel state.
type StateLog struct {
	ID         string `json:"id"`
	VesselID   string `json:"vesselId"`
	Date       string `json:"date"`
	State      string `json:"state"`
	AutoFilled bool   `json:"autoFilled"`
	UpdatedAt  string `json:"updatedAt"`
}

// UpsertStateLogRequest sets the state for the day named in the URL.
type UpsertStateLogRequest struct {
	State string `json:"state"`

	parsed compliance.VesselState
}

// Validate checks the state is one of the known vessel states.
func (r *UpsertStateLogRequest) Validate() map[string]string {
	errors := map[string]string{}
	s, err := compliance.ParseState(r.State)
	if err != nil {
		errors["state"] = fmt.Sprintf("State must be one of %v", compliance.AllStates)
		return errors
	}
	r.parsed = s
	return errors
}

// ParsedState returns the state accepted by Validate.
func (r *UpsertStateLogRequest) ParsedState() compliance.VesselState {
	return r.parsed
}

// ── Sea Service ──────────────────────────────────────────────────

// SeaServiceResponse wraps a vessel's StandbyResult with an optional audit trail.
type SeaServiceResponse struct {
	VesselID string `json:"vesselId"`
	compliance.StandbyResult
	Trace *compliance.Trace `json:"trace,omitempty"`
}

// SeaServiceTotals sums sea service across all of a crew member's vessels.
type SeaServiceTotals struct {
	TotalSeaDays     int                `json:"totalSeaDays"`
	TotalStandbyDays int                `json:"totalStandbyDays"`
	Vessels          []VesselSeaService `json:"vessels"`
}

// VesselSeaService is one vessel's contribution to SeaServiceTotals.
type VesselSeaService struct {
	VesselID         string `json:"vesselId"`
	VesselName       string `json:"vesselName"`
	TotalSeaDays     int    `json:"totalSeaDays"`
	TotalStandbyDays int    `json:"totalStandbyDays"`
}

// ── Gap Filling ──────────────────────────────────────────────────

// GapFillRequest optionally restricts a fill to a subset of the proposed days.
// An empty Days list fills every proposed day.
type GapFillRequest struct {
	Days []string `json:"days"`

	parsed []time.Time
}

// Validate parses every requested day.
func (r *GapFillRequest) Validate() map[string]string {
	errors := map[string]string{}
	r.parsed = r.parsed[:0]
	for i, raw := range r.Days {
		d, err := compliance.ParseDay(raw)
		if err != nil {
			errors[fmt.Sprintf("days[%d]", i)] = "Date must be yyyy-mm-dd"
			continue
		}
		r.parsed = append(r.parsed, d)
	}
	return errors
}

// ParsedDays returns the days accepted by Validate.
func (r *GapFillRequest) ParsedDays() []time.Time {
	return r.parsed
}

// GapFillResponse reports what a fill wrote.
type GapFillResponse struct {
	Inserted int    `json:"inserted"`
	State    string `json:"state,omitempty"`
	From     string `json:"from,omitempty"`
	To       string `json:"to,omitempty"`
}
