package compliance

import "time"

// Trace collects structured audit events while an engine function runs.
// A nil *Trace is valid and records nothing, so callers only pay for
// tracing when they ask for it.
type Trace struct {
	Events []TraceEvent `json:"events"`
}

// TraceEvent is one audit line: which step ran, on what day, and what it found.
type TraceEvent struct {
	Step   string `json:"step"`
	Date   string `json:"date,omitempty"`
	Detail string `json:"detail"`
}

// Trace steps.
const (
	StepVoyage        = "voyage"
	StepStandbyDay    = "standby_day"
	StepStandbyStop   = "standby_stop"
	StepStandbyTotals = "standby_totals"
	StepWindow        = "window"
	StepCurrentWindow = "current_window"
)

// NewTrace returns an empty trace ready to record.
func NewTrace() *Trace {
	return &Trace{Events: []TraceEvent{}}
}

func (tr *Trace) add(step string, day time.Time, detail string) {
	if tr == nil {
		return
	}
	ev := TraceEvent{Step: step, Detail: detail}
	if !day.IsZero() {
		ev.Date = FormatDay(day)
	}
	tr.Events = append(tr.Events, ev)
}

// Len returns the number of recorded events (0 for a nil trace).
func (tr *Trace) Len() int {
	if tr == nil {
		return 0
	}
	return len(tr.Events)
}
