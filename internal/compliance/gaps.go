package compliance

import (
	"sort"
	"time"
)

// GapProposal lists calendar days that could be back-filled with the last
// known state. It is a proposal only; nothing is written.
type GapProposal struct {
	LastLoggedDate  *time.Time   `json:"lastLoggedDate"`
	LastLoggedState *VesselState `json:"lastLoggedState"`
	MissingDays     []time.Time  `json:"missingDays"`
}

// ProposeGapFill proposes every day from the last logged date (exclusive)
// through today (inclusive), ascending. A last log dated today or later,
// or an empty log list, proposes nothing.
func ProposeGapFill(logs []StateLog, now time.Time) GapProposal {
	proposal := GapProposal{MissingDays: []time.Time{}}
	if len(logs) == 0 {
		return proposal
	}

	sorted := make([]StateLog, len(logs))
	copy(sorted, logs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.After(sorted[j].Date)
	})

	last := truncateToDay(sorted[0].Date)
	state := sorted[0].State
	proposal.LastLoggedDate = &last
	proposal.LastLoggedState = &state

	today := truncateToDay(now)
	for day := addDays(last, 1); !day.After(today); day = addDays(day, 1) {
		proposal.MissingDays = append(proposal.MissingDays, day)
	}
	return proposal
}

// FillLogs turns a proposal into the logs the caller would persist.
func (p GapProposal) FillLogs() []StateLog {
	if p.LastLoggedState == nil {
		return []StateLog{}
	}
	logs := make([]StateLog, 0, len(p.MissingDays))
	for _, d := range p.MissingDays {
		logs = append(logs, StateLog{Date: d, State: *p.LastLoggedState})
	}
	return logs
}
