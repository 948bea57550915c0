package models

import (
	"strings"
	"time"

	"seatime-backend/internal/compliance"
)

// ── Visa Areas ───────────────────────────────────────────────────

// VisaArea is a jurisdiction a crew member tracks days in.
type VisaArea struct {
	ID          string `json:"id"`
	UserID      string `json:"userId"`
	AreaName    string `json:"areaName"`
	RuleType    string `json:"ruleType"`
	DaysAllowed int    `json:"daysAllowed"`
	PeriodDays  *int   `json:"periodDays"`
	CreatedAt   string `json:"createdAt"`
}

// Rule converts the stored columns into an engine rule.
func (a VisaArea) Rule() compliance.VisaRule {
	r := compliance.VisaRule{
		RuleType:    compliance.RuleType(a.RuleType),
		DaysAllowed: a.DaysAllowed,
	}
	if a.PeriodDays != nil {
		r.PeriodDays = *a.PeriodDays
	}
	return r
}

// CreateVisaAreaRequest adds a tracked area. When RuleType is omitted the
// rule is resolved from the area name via the built-in presets.
type CreateVisaAreaRequest struct {
	AreaName    string  `json:"areaName"`
	RuleType    *string `json:"ruleType,omitempty"`
	DaysAllowed *int    `json:"daysAllowed,omitempty"`
	PeriodDays  *int    `json:"periodDays,omitempty"`

	rule compliance.VisaRule
}

// Validate checks the area name and, if given, the explicit rule.
// With no explicit rule, the name must match a preset.
func (r *CreateVisaAreaRequest) Validate() map[string]string {
	errors := map[string]string{}

	r.AreaName = strings.TrimSpace(r.AreaName)
	if r.AreaName == "" {
		errors["areaName"] = "Area name is required"
		return errors
	}

	if r.RuleType == nil {
		p, ok := compliance.ResolvePreset(r.AreaName)
		if !ok {
			errors["ruleType"] = "No preset matches this area; provide ruleType and daysAllowed"
			return errors
		}
		r.rule = p.Rule
		return errors
	}

	rule := compliance.VisaRule{RuleType: compliance.RuleType(strings.ToLower(*r.RuleType))}
	if r.DaysAllowed == nil {
		errors["daysAllowed"] = "Days allowed is required"
		return errors
	}
	rule.DaysAllowed = *r.DaysAllowed
	if r.PeriodDays != nil {
		rule.PeriodDays = *r.PeriodDays
	}
	if err := rule.Validate(); err != nil {
		errors["rule"] = err.Error()
		return errors
	}
	r.rule = rule
	return errors
}

// ResolvedRule returns the rule accepted by Validate.
func (r *CreateVisaAreaRequest) ResolvedRule() compliance.VisaRule {
	return r.rule
}

// ── Visa Entries ─────────────────────────────────────────────────

// VisaEntry is one persisted day spent in an area.
type VisaEntry struct {
	ID        string `json:"id"`
	AreaID    string `json:"areaId"`
	EntryDate string `json:"entryDate"`
	CreatedAt string `json:"createdAt"`
}

// CreateVisaEntryRequest records a day in an area. A day that would break
// the rule is refused unless Force is set.
type CreateVisaEntryRequest struct {
	Date  string `json:"date"`
	Force bool   `json:"force"`

	parsed time.Time
}

// Validate parses the date.
func (r *CreateVisaEntryRequest) Validate() map[string]string {
	errors := map[string]string{}
	d, err := compliance.ParseDay(r.Date)
	if err != nil {
		errors["date"] = "Date must be yyyy-mm-dd"
		return errors
	}
	r.parsed = d
	return errors
}

// ParsedDate returns the date accepted by Validate.
func (r *CreateVisaEntryRequest) ParsedDate() time.Time {
	return r.parsed
}

// CheckDateRequest asks whether a prospective day is allowed.
type CheckDateRequest struct {
	Date string `json:"date"`

	parsed time.Time
}

// Validate parses the date.
func (r *CheckDateRequest) Validate() map[string]string {
	errors := map[string]string{}
	d, err := compliance.ParseDay(r.Date)
	if err != nil {
		errors["date"] = "Date must be yyyy-mm-dd"
		return errors
	}
	r.parsed = d
	return errors
}

// ParsedDate returns the date accepted by Validate.
func (r *CheckDateRequest) ParsedDate() time.Time {
	return r.parsed
}

// ComplianceResponse is the compliance summary for one area.
type ComplianceResponse struct {
	Area VisaArea `json:"area"`
	compliance.ComplianceResult
	Trace *compliance.Trace `json:"trace,omitempty"`
}

// DateCheckResponse answers a prospective-day check.
type DateCheckResponse struct {
	AreaID string `json:"areaId"`
	Date   string `json:"date"`
	compliance.DateCheck
}
