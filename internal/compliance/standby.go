package compliance

import (
	"fmt"
	"time"
)

// MaxStandbyDays is the longest run of post-voyage standby that may ever be
// counted for a single voyage.
const MaxStandbyDays = 14

// StopReason records why a standby walk ended.
type StopReason string

const (
	StopMissingLog      StopReason = "missing_log"      // No log for the next day
	StopIneligibleState StopReason = "ineligible_state" // Next day is Underway, OnLeave or InYard
	StopNextVoyage      StopReason = "next_voyage"      // Reached the following voyage's start
	StopCapReached      StopReason = "cap_reached"      // min(14, voyage length) days counted
)

// StandbyPeriod is a run of standby days credited to the voyage before it.
type StandbyPeriod struct {
	StartDate             time.Time  `json:"startDate"`
	EndDate               time.Time  `json:"endDate"`
	RawDaysFound          int        `json:"rawDaysFound"`
	PrecedingVoyageLength int        `json:"precedingVoyageLength"`
	AllowedDays           int        `json:"allowedDays"`
	CountedDays           int        `json:"countedDays"`
	StopReason            StopReason `json:"stopReason"`
}

// StandbyResult is the sea-service total for one (crew member, vessel) pair.
type StandbyResult struct {
	TotalSeaDays     int             `json:"totalSeaDays"`
	TotalStandbyDays int             `json:"totalStandbyDays"`
	Voyages          []Voyage        `json:"voyages"`
	StandbyPeriods   []StandbyPeriod `json:"standbyPeriods"`
}

// ComputeSeaService segments logs into voyages and allocates standby.
func ComputeSeaService(logs []StateLog, tr *Trace) StandbyResult {
	return AllocateStandby(SegmentVoyages(logs), logs, tr)
}

// AllocateStandby credits post-voyage standby days to each voyage.
//
// For every voyage the walk starts the day after it ends and counts InPort /
// AtAnchor days until one of: a day has no log, a day is not standby-eligible,
// the next voyage starts, or min(14, voyage length) days are counted. A
// missing log ends the period even mid-run; it is never assumed to repeat
// the previous state. The grand total is finally clamped to total sea days.
func AllocateStandby(voyages []Voyage, logs []StateLog, tr *Trace) StandbyResult {
	byDate := make(map[time.Time]VesselState, len(logs))
	for _, l := range logs {
		byDate[truncateToDay(l.Date)] = l.State
	}

	result := StandbyResult{
		Voyages:        voyages,
		StandbyPeriods: []StandbyPeriod{},
	}
	if result.Voyages == nil {
		result.Voyages = []Voyage{}
	}

	rawStandby := 0
	for i, v := range voyages {
		result.TotalSeaDays += v.LengthDays
		tr.add(StepVoyage, v.StartDate, fmt.Sprintf("voyage %s..%s, %d days",
			FormatDay(v.StartDate), FormatDay(v.EndDate), v.LengthDays))

		var nextStart *time.Time
		if i+1 < len(voyages) {
			ns := truncateToDay(voyages[i+1].StartDate)
			nextStart = &ns
		}

		period, ok := walkStandby(v, nextStart, byDate, tr)
		if !ok {
			continue
		}
		rawStandby += period.CountedDays
		result.StandbyPeriods = append(result.StandbyPeriods, period)
	}

	result.TotalStandbyDays = min(rawStandby, result.TotalSeaDays)
	tr.add(StepStandbyTotals, time.Time{}, fmt.Sprintf("sea=%d standby_raw=%d standby=%d",
		result.TotalSeaDays, rawStandby, result.TotalStandbyDays))

	return result
}

// walkStandby steps forward one day at a time from the end of v. It returns
// false when no day could be counted.
func walkStandby(v Voyage, nextStart *time.Time, byDate map[time.Time]VesselState, tr *Trace) (StandbyPeriod, bool) {
	allowed := min(MaxStandbyDays, v.LengthDays)
	start := addDays(v.EndDate, 1)

	raw := 0
	day := start
	var reason StopReason
	for {
		if raw >= allowed {
			reason = StopCapReached
			break
		}
		if nextStart != nil && !day.Before(*nextStart) {
			reason = StopNextVoyage
			break
		}
		state, logged := byDate[day]
		if !logged {
			reason = StopMissingLog
			break
		}
		if !state.IsStandbyEligible() {
			reason = StopIneligibleState
			break
		}
		raw++
		tr.add(StepStandbyDay, day, fmt.Sprintf("counted %s (%d/%d)", state, raw, allowed))
		day = addDays(day, 1)
	}
	tr.add(StepStandbyStop, day, string(reason))

	counted := min(raw, allowed)
	if counted <= 0 {
		return StandbyPeriod{}, false
	}

	return StandbyPeriod{
		StartDate:             start,
		EndDate:               addDays(start, counted-1),
		RawDaysFound:          raw,
		PrecedingVoyageLength: v.LengthDays,
		AllowedDays:           allowed,
		CountedDays:           counted,
		StopReason:            reason,
	}, true
}
