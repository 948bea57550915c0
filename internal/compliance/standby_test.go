package compliance

import (
	"math/rand"
	"reflect"
	"testing"
	"time"
)

func TestComputeSeaService_ScenarioA(t *testing.T) {
	var logs []StateLog
	logs = append(logs, run(t, "2026-01-01", 5, StateUnderway)...)
	logs = append(logs, run(t, "2026-01-06", 5, StateInPort)...)
	logs = append(logs, run(t, "2026-01-20", 2, StateUnderway)...)

	res := ComputeSeaService(logs, nil)

	if res.TotalSeaDays != 7 {
		t.Errorf("expected 7 sea days, got %d", res.TotalSeaDays)
	}
	if res.TotalStandbyDays != 5 {
		t.Errorf("expected 5 standby days, got %d", res.TotalStandbyDays)
	}
	if len(res.StandbyPeriods) != 1 {
		t.Fatalf("expected 1 standby period, got %d", len(res.StandbyPeriods))
	}

	p := res.StandbyPeriods[0]
	if FormatDay(p.StartDate) != "2026-01-06" || FormatDay(p.EndDate) != "2026-01-10" {
		t.Errorf("period = %s..%s, want 2026-01-06..2026-01-10", FormatDay(p.StartDate), FormatDay(p.EndDate))
	}
	if p.RawDaysFound != 5 || p.AllowedDays != 5 || p.CountedDays != 5 || p.PrecedingVoyageLength != 5 {
		t.Errorf("unexpected period figures %+v", p)
	}
}

func TestComputeSeaService_ScenarioB_VoyageLengthCapBinds(t *testing.T) {
	var logs []StateLog
	logs = append(logs, run(t, "2026-03-01", 2, StateUnderway)...)
	logs = append(logs, run(t, "2026-03-03", 20, StateInPort)...)

	res := ComputeSeaService(logs, nil)
	if len(res.StandbyPeriods) != 1 {
		t.Fatalf("expected 1 period, got %d", len(res.StandbyPeriods))
	}

	p := res.StandbyPeriods[0]
	if p.AllowedDays != 2 || p.CountedDays != 2 {
		t.Errorf("expected allowed=2 counted=2, got allowed=%d counted=%d", p.AllowedDays, p.CountedDays)
	}
	if p.StopReason != StopCapReached {
		t.Errorf("expected stop reason %s, got %s", StopCapReached, p.StopReason)
	}
	if res.TotalStandbyDays != 2 {
		t.Errorf("expected 2 standby days, got %d", res.TotalStandbyDays)
	}
}

func TestComputeSeaService_FourteenDayCap(t *testing.T) {
	var logs []StateLog
	logs = append(logs, run(t, "2026-04-01", 30, StateUnderway)...)
	logs = append(logs, run(t, "2026-05-01", 20, StateAtAnchor)...)

	res := ComputeSeaService(logs, nil)
	p := res.StandbyPeriods[0]
	if p.AllowedDays != MaxStandbyDays || p.CountedDays != MaxStandbyDays {
		t.Errorf("expected 14-day cap, got allowed=%d counted=%d", p.AllowedDays, p.CountedDays)
	}
	if FormatDay(p.EndDate) != "2026-05-14" {
		t.Errorf("expected period to end 2026-05-14, got %s", FormatDay(p.EndDate))
	}
}

func TestComputeSeaService_MissingLogEndsPeriod(t *testing.T) {
	var logs []StateLog
	logs = append(logs, run(t, "2026-07-01", 10, StateUnderway)...)
	logs = append(logs, run(t, "2026-07-11", 2, StateInPort)...)
	// 2026-07-13 not logged
	logs = append(logs, run(t, "2026-07-14", 5, StateInPort)...)

	res := ComputeSeaService(logs, nil)
	p := res.StandbyPeriods[0]
	if p.CountedDays != 2 {
		t.Errorf("missing log must end the period: counted %d, want 2", p.CountedDays)
	}
	if p.StopReason != StopMissingLog {
		t.Errorf("expected %s, got %s", StopMissingLog, p.StopReason)
	}
}

func TestComputeSeaService_IneligibleStateEndsPeriod(t *testing.T) {
	var logs []StateLog
	logs = append(logs, run(t, "2026-08-01", 10, StateUnderway)...)
	logs = append(logs, run(t, "2026-08-11", 3, StateInPort)...)
	logs = append(logs, run(t, "2026-08-14", 3, StateOnLeave)...)
	logs = append(logs, run(t, "2026-08-17", 3, StateInPort)...)

	res := ComputeSeaService(logs, nil)
	if len(res.StandbyPeriods) != 1 {
		t.Fatalf("expected 1 period, got %d", len(res.StandbyPeriods))
	}
	if res.StandbyPeriods[0].CountedDays != 3 || res.StandbyPeriods[0].StopReason != StopIneligibleState {
		t.Errorf("unexpected period %+v", res.StandbyPeriods[0])
	}
}

func TestComputeSeaService_AdjacentVoyagesNoPeriod(t *testing.T) {
	var logs []StateLog
	logs = append(logs, run(t, "2026-09-01", 4, StateUnderway)...)
	logs = append(logs, StateLog{Date: day(t, "2026-09-05"), State: StateInYard})
	logs = append(logs, run(t, "2026-09-06", 4, StateUnderway)...)

	res := ComputeSeaService(logs, nil)
	if len(res.Voyages) != 2 {
		t.Fatalf("expected 2 voyages, got %d", len(res.Voyages))
	}
	if len(res.StandbyPeriods) != 0 {
		t.Errorf("expected no standby periods, got %d", len(res.StandbyPeriods))
	}
	if res.TotalSeaDays != 8 || res.TotalStandbyDays != 0 {
		t.Errorf("got sea=%d standby=%d", res.TotalSeaDays, res.TotalStandbyDays)
	}
}

func TestAllocateStandby_StopsBeforeNextVoyage(t *testing.T) {
	// Voyages supplied by the caller; the log claims in_port on the day the
	// next voyage starts, but the walk must not reach it.
	voyages := []Voyage{
		{StartDate: day(t, "2026-10-01"), EndDate: day(t, "2026-10-10"), LengthDays: 10},
		{StartDate: day(t, "2026-10-13"), EndDate: day(t, "2026-10-15"), LengthDays: 3},
	}
	logs := run(t, "2026-10-11", 5, StateInPort)

	res := AllocateStandby(voyages, logs, nil)
	p := res.StandbyPeriods[0]
	if p.CountedDays != 2 || p.StopReason != StopNextVoyage {
		t.Errorf("expected 2 days stopped by next voyage, got %d (%s)", p.CountedDays, p.StopReason)
	}
	if !p.EndDate.Before(voyages[1].StartDate) {
		t.Errorf("period end %s overlaps next voyage", FormatDay(p.EndDate))
	}
}

func TestAllocateStandby_GlobalClamp(t *testing.T) {
	// Hand-built voyages whose lengths disagree with their spans exercise the
	// final clamp independently of the per-period cap.
	voyages := []Voyage{
		{StartDate: day(t, "2026-01-01"), EndDate: day(t, "2026-01-20"), LengthDays: 3},
	}
	logs := run(t, "2026-01-21", 10, StateInPort)

	res := AllocateStandby(voyages, logs, nil)
	if res.TotalStandbyDays > res.TotalSeaDays {
		t.Errorf("standby %d exceeds sea %d", res.TotalStandbyDays, res.TotalSeaDays)
	}
	if res.TotalStandbyDays != 3 {
		t.Errorf("expected 3, got %d", res.TotalStandbyDays)
	}
}

func TestAllocateStandby_NoVoyages(t *testing.T) {
	res := AllocateStandby(nil, run(t, "2026-01-01", 5, StateInPort), nil)
	if res.Voyages == nil || res.StandbyPeriods == nil {
		t.Error("expected non-nil empty slices")
	}
	if res.TotalSeaDays != 0 || res.TotalStandbyDays != 0 {
		t.Errorf("expected zero totals, got %+v", res)
	}
}

func TestComputeSeaService_TraceDoesNotChangeResult(t *testing.T) {
	var logs []StateLog
	logs = append(logs, run(t, "2026-01-01", 5, StateUnderway)...)
	logs = append(logs, run(t, "2026-01-06", 3, StateAtAnchor)...)

	tr := NewTrace()
	traced := ComputeSeaService(logs, tr)
	plain := ComputeSeaService(logs, nil)

	if !reflect.DeepEqual(traced, plain) {
		t.Error("tracing changed the result")
	}

	var counted, stops int
	for _, ev := range tr.Events {
		switch ev.Step {
		case StepStandbyDay:
			counted++
		case StepStandbyStop:
			stops++
			if ev.Detail != string(StopMissingLog) || ev.Date != "2026-01-09" {
				t.Errorf("unexpected stop event %+v", ev)
			}
		}
	}
	if counted != 3 || stops != 1 {
		t.Errorf("expected 3 counted days and 1 stop, got %d and %d", counted, stops)
	}
}

// randomLogs builds a sparse random history over n days.
func randomLogs(rng *rand.Rand, start time.Time, n int) []StateLog {
	var logs []StateLog
	for i := 0; i < n; i++ {
		if rng.Intn(10) == 0 {
			continue // unlogged day
		}
		state := AllStates[rng.Intn(len(AllStates))]
		if rng.Intn(2) == 0 {
			state = StateUnderway
		}
		logs = append(logs, StateLog{Date: start.AddDate(0, 0, i), State: state})
	}
	rng.Shuffle(len(logs), func(i, j int) { logs[i], logs[j] = logs[j], logs[i] })
	return logs
}

func TestComputeSeaService_Properties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for iter := 0; iter < 300; iter++ {
		logs := randomLogs(rng, start, 20+rng.Intn(200))
		res := ComputeSeaService(logs, nil)

		if res.TotalStandbyDays > res.TotalSeaDays {
			t.Fatalf("iter %d: standby %d > sea %d", iter, res.TotalStandbyDays, res.TotalSeaDays)
		}

		seaSum := 0
		for _, v := range res.Voyages {
			seaSum += v.LengthDays
			if daysBetween(v.StartDate, v.EndDate)+1 != v.LengthDays {
				t.Fatalf("iter %d: voyage span disagrees with length %+v", iter, v)
			}
		}
		if seaSum != res.TotalSeaDays {
			t.Fatalf("iter %d: sea total %d != sum %d", iter, res.TotalSeaDays, seaSum)
		}

		for _, p := range res.StandbyPeriods {
			if p.CountedDays > min(MaxStandbyDays, p.PrecedingVoyageLength) {
				t.Fatalf("iter %d: period exceeds cap %+v", iter, p)
			}
			if p.CountedDays <= 0 {
				t.Fatalf("iter %d: empty period recorded", iter)
			}
			for _, v := range res.Voyages {
				if v.StartDate.After(p.StartDate) && !p.EndDate.Before(v.StartDate) {
					t.Fatalf("iter %d: period %s..%s runs into voyage starting %s",
						iter, FormatDay(p.StartDate), FormatDay(p.EndDate), FormatDay(v.StartDate))
				}
			}
		}

		again := ComputeSeaService(logs, nil)
		if !reflect.DeepEqual(res, again) {
			t.Fatalf("iter %d: result not idempotent", iter)
		}
	}
}
