package compliance

import (
	"reflect"
	"testing"
	"time"
)

func TestProposeGapFill_ScenarioE(t *testing.T) {
	p := ProposeGapFill(nil, testToday)
	if p.LastLoggedDate != nil || p.LastLoggedState != nil {
		t.Errorf("expected nil last log, got %v / %v", p.LastLoggedDate, p.LastLoggedState)
	}
	if p.MissingDays == nil || len(p.MissingDays) != 0 {
		t.Errorf("expected empty missing days, got %v", p.MissingDays)
	}
}

func TestProposeGapFill_LoggedToday(t *testing.T) {
	logs := []StateLog{{Date: time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC), State: StateInPort}}

	p := ProposeGapFill(logs, testToday)
	if len(p.MissingDays) != 0 {
		t.Errorf("expected no missing days, got %d", len(p.MissingDays))
	}
	if p.LastLoggedState == nil || *p.LastLoggedState != StateInPort {
		t.Errorf("expected last state in_port, got %v", p.LastLoggedState)
	}
}

func TestProposeGapFill_FutureLog(t *testing.T) {
	logs := []StateLog{{Date: addDays(testToday, 3), State: StateUnderway}}

	if p := ProposeGapFill(logs, testToday); len(p.MissingDays) != 0 {
		t.Errorf("expected no missing days for future log, got %d", len(p.MissingDays))
	}
}

func TestProposeGapFill_ProposesThroughToday(t *testing.T) {
	logs := []StateLog{
		{Date: day(t, "2026-10-10"), State: StateUnderway},
		{Date: day(t, "2026-10-14"), State: StateAtAnchor},
		{Date: day(t, "2026-10-12"), State: StateUnderway},
	}

	p := ProposeGapFill(logs, testToday)
	if FormatDay(*p.LastLoggedDate) != "2026-10-14" || *p.LastLoggedState != StateAtAnchor {
		t.Errorf("expected most recent log 2026-10-14 at_anchor, got %s %s",
			FormatDay(*p.LastLoggedDate), *p.LastLoggedState)
	}

	var got []string
	for _, d := range p.MissingDays {
		got = append(got, FormatDay(d))
	}
	want := []string{"2026-10-15", "2026-10-16", "2026-10-17"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("missing days = %v, want %v", got, want)
	}

	fill := p.FillLogs()
	if len(fill) != 3 {
		t.Fatalf("expected 3 fill logs, got %d", len(fill))
	}
	for _, l := range fill {
		if l.State != StateAtAnchor {
			t.Errorf("fill log %s carries %s, want at_anchor", FormatDay(l.Date), l.State)
		}
	}
}

func TestProposeGapFill_CrossesMonthEnd(t *testing.T) {
	logs := []StateLog{{Date: day(t, "2026-02-26"), State: StateInPort}}
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

	p := ProposeGapFill(logs, now)
	if len(p.MissingDays) != 4 {
		t.Fatalf("expected 4 days (27, 28 Feb, 1, 2 Mar), got %d", len(p.MissingDays))
	}
	if FormatDay(p.MissingDays[0]) != "2026-02-27" || FormatDay(p.MissingDays[3]) != "2026-03-02" {
		t.Errorf("unexpected range %s..%s", FormatDay(p.MissingDays[0]), FormatDay(p.MissingDays[3]))
	}
}

func TestProposeGapFill_Idempotent(t *testing.T) {
	logs := []StateLog{{Date: day(t, "2026-10-01"), State: StateUnderway}}
	if !reflect.DeepEqual(ProposeGapFill(logs, testToday), ProposeGapFill(logs, testToday)) {
		t.Error("expected identical proposals")
	}
}

func TestFillLogs_EmptyProposal(t *testing.T) {
	if logs := (GapProposal{}).FillLogs(); len(logs) != 0 {
		t.Errorf("expected no fill logs, got %d", len(logs))
	}
}
