package compliance

import (
	"sort"
	"time"
)

// Voyage is a maximal run of consecutive calendar days all logged Underway.
type Voyage struct {
	StartDate  time.Time `json:"startDate"`
	EndDate    time.Time `json:"endDate"`
	LengthDays int       `json:"lengthDays"`
}

// SegmentVoyages groups a state-log sequence into voyages.
//
// A voyage opens on the first Underway day and extends only while the next
// Underway day is exactly one calendar day later. Any other state (AtAnchor
// included) closes it, and so does any calendar gap. Empty input yields an
// empty slice.
func SegmentVoyages(logs []StateLog) []Voyage {
	voyages := []Voyage{}
	var open *Voyage

	for _, l := range sortedLogs(logs) {
		if l.State != StateUnderway {
			if open != nil {
				voyages = append(voyages, *open)
				open = nil
			}
			continue
		}

		if open != nil && l.Date.Equal(addDays(open.EndDate, 1)) {
			open.EndDate = l.Date
			open.LengthDays++
			continue
		}

		if open != nil {
			voyages = append(voyages, *open)
		}
		open = &Voyage{StartDate: l.Date, EndDate: l.Date, LengthDays: 1}
	}

	if open != nil {
		voyages = append(voyages, *open)
	}
	return voyages
}

// sortedLogs returns an ascending, day-normalized copy of logs.
func sortedLogs(logs []StateLog) []StateLog {
	out := make([]StateLog, len(logs))
	for i, l := range logs {
		out[i] = StateLog{Date: truncateToDay(l.Date), State: l.State}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}
