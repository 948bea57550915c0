package models

import (
	"regexp"
	"strings"
)

// ── Vessel ───────────────────────────────────────────────────────

// Vessel is a ship a crew member logs days on.
type Vessel struct {
	ID           string   `json:"id"`
	UserID       string   `json:"userId"`
	Name         string   `json:"name"`
	IMONumber    *string  `json:"imoNumber"`
	FlagState    *string  `json:"flagState"`
	GrossTonnage *int     `json:"grossTonnage"`
	LengthMetres *float64 `json:"lengthMetres"`
	VesselType   string   `json:"vesselType"`
	CreatedAt    string   `json:"createdAt"`
}

var validVesselTypes = map[string]bool{
	"motor_yacht":    true,
	"sailing_yacht":  true,
	"expedition":     true,
	"support_vessel": true,
	"other":          true,
}

var imoPattern = regexp.MustCompile(`^[0-9]{7}$`)

// CreateVesselRequest holds the fields for adding a vessel.
type CreateVesselRequest struct {
	Name         string   `json:"name"`
	IMONumber    *string  `json:"imoNumber,omitempty"`
	FlagState    *string  `json:"flagState,omitempty"`
	GrossTonnage *int     `json:"grossTonnage,omitempty"`
	LengthMetres *float64 `json:"lengthMetres,omitempty"`
	VesselType   string   `json:"vesselType"`
}

// Validate checks the vessel fields. An empty type defaults to motor_yacht.
func (r *CreateVesselRequest) Validate() map[string]string {
	errors := map[string]string{}

	r.Name = strings.TrimSpace(r.Name)
	if len(r.Name) < 2 {
		errors["name"] = "Vessel name is required (min 2 characters)"
	}
	if r.VesselType == "" {
		r.VesselType = "motor_yacht"
	}
	if !validVesselTypes[r.VesselType] {
		errors["vesselType"] = "Vessel type must be motor_yacht, sailing_yacht, expedition, support_vessel or other"
	}
	if r.IMONumber != nil && *r.IMONumber != "" && !imoPattern.MatchString(*r.IMONumber) {
		errors["imoNumber"] = "IMO number must be 7 digits"
	}
	if r.GrossTonnage != nil && *r.GrossTonnage <= 0 {
		errors["grossTonnage"] = "Gross tonnage must be positive"
	}
	if r.LengthMetres != nil && *r.LengthMetres <= 0 {
		errors["lengthMetres"] = "Length must be positive"
	}

	return errors
}
