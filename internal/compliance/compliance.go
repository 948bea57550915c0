// Package compliance provides pure functions for maritime sea-service and
// travel day-count compliance. Nothing here touches HTTP or the database;
// the API, the cron job and the offline CLI all call into the same functions.
//
// Every function recomputes its result from the full input it is given.
// Inputs are never mutated and "today" is always injected by the caller.
package compliance

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar-day wire format used everywhere (ISO yyyy-mm-dd).
const DateLayout = "2006-01-02"

// ── Vessel States ────────────────────────────────────────────────

// VesselState is the per-day position of a crew member's vessel.
type VesselState string

const (
	StateUnderway VesselState = "underway"  // At sea, making way
	StateAtAnchor VesselState = "at_anchor" // Stationary at anchor; standby-eligible, never voyage-extending
	StateInPort   VesselState = "in_port"   // Alongside / in harbour; standby-eligible
	StateOnLeave  VesselState = "on_leave"  // Crew member ashore on leave
	StateInYard   VesselState = "in_yard"   // Vessel in refit / shipyard
)

// AllStates lists every valid state in display order.
var AllStates = []VesselState{StateUnderway, StateAtAnchor, StateInPort, StateOnLeave, StateInYard}

// IsStandbyEligible reports whether a day in this state may follow a voyage
// as counted standby.
func (s VesselState) IsStandbyEligible() bool {
	return s == StateInPort || s == StateAtAnchor
}

// DisplayName returns the human-readable label for a state.
func (s VesselState) DisplayName() string {
	switch s {
	case StateUnderway:
		return "Underway"
	case StateAtAnchor:
		return "At Anchor"
	case StateInPort:
		return "In Port"
	case StateOnLeave:
		return "On Leave"
	case StateInYard:
		return "In Yard"
	}
	return string(s)
}

// StateLog is one logged day for a single (crew member, vessel) pair.
// Callers guarantee at most one log per date.
type StateLog struct {
	Date  time.Time   `json:"date"`
	State VesselState `json:"state"`
}

// RawStateLog is the unvalidated wire form of a StateLog.
type RawStateLog struct {
	Date  string `json:"date" yaml:"date"`
	State string `json:"state" yaml:"state"`
}

// ── Validation ───────────────────────────────────────────────────

// ValidationError reports malformed boundary input. Bad dates are rejected
// before any interval math runs.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// ParseDay parses a strict yyyy-mm-dd calendar day.
func ParseDay(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, &ValidationError{Field: "date", Value: s, Reason: "expected yyyy-mm-dd"}
	}
	return t, nil
}

// FormatDay renders a calendar day as yyyy-mm-dd.
func FormatDay(t time.Time) string {
	return truncateToDay(t).Format(DateLayout)
}

// ParseState validates a state slug.
func ParseState(s string) (VesselState, error) {
	state := VesselState(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllStates {
		if state == known {
			return state, nil
		}
	}
	return "", &ValidationError{Field: "state", Value: s, Reason: "unknown vessel state"}
}

// ParseStateLogs validates a batch of raw logs. The first bad record fails
// the whole batch and its index is reported in the error. A date may appear
// only once; the second occurrence is the bad record.
func ParseStateLogs(raw []RawStateLog) ([]StateLog, error) {
	logs := make([]StateLog, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for i, r := range raw {
		day, err := ParseDay(r.Date)
		if err != nil {
			return nil, fmt.Errorf("log %d: %w", i, err)
		}
		if err := markSeen(seen, day, r.Date); err != nil {
			return nil, fmt.Errorf("log %d: %w", i, err)
		}
		state, err := ParseState(r.State)
		if err != nil {
			return nil, fmt.Errorf("log %d: %w", i, err)
		}
		logs = append(logs, StateLog{Date: day, State: state})
	}
	return logs, nil
}

// ParseVisaEntries validates a batch of consumed calendar days. Each day
// may be listed once.
func ParseVisaEntries(raw []string) ([]VisaEntry, error) {
	entries := make([]VisaEntry, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for i, s := range raw {
		day, err := ParseDay(s)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		if err := markSeen(seen, day, s); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		entries = append(entries, VisaEntry{EntryDate: day})
	}
	return entries, nil
}

// markSeen records day, failing if it was already recorded.
func markSeen(seen map[string]bool, day time.Time, value string) error {
	key := FormatDay(day)
	if seen[key] {
		return &ValidationError{Field: "date", Value: value, Reason: "date appears more than once"}
	}
	seen[key] = true
	return nil
}

// ── Internal Helpers ─────────────────────────────────────────────

// truncateToDay strips the time component, keeping only the calendar day.
// The result is pinned to UTC so that day arithmetic never crosses a DST edge.
func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// addDays steps a calendar day forward (or back) by n days.
func addDays(t time.Time, n int) time.Time {
	return truncateToDay(t).AddDate(0, 0, n)
}

// daysBetween returns the number of calendar days from a to b (b - a).
func daysBetween(a, b time.Time) int {
	return int(truncateToDay(b).Sub(truncateToDay(a)).Hours() / 24)
}
