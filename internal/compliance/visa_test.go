package compliance

import (
	"math/rand"
	"reflect"
	"testing"
	"time"
)

var (
	schengenRule = VisaRule{RuleType: RuleRolling, DaysAllowed: 90, PeriodDays: 180}
	waiverRule   = VisaRule{RuleType: RuleFixed, DaysAllowed: 90}
	testToday    = time.Date(2026, 10, 17, 15, 4, 0, 0, time.UTC)
)

// consecutive returns n entries ending on last (inclusive).
func consecutive(last time.Time, n int) []VisaEntry {
	entries := make([]VisaEntry, 0, n)
	for i := n - 1; i >= 0; i-- {
		entries = append(entries, VisaEntry{EntryDate: addDays(last, -i)})
	}
	return entries
}

func TestVisaRule_Validate(t *testing.T) {
	tests := []struct {
		name    string
		rule    VisaRule
		wantErr bool
	}{
		{"fixed ok", waiverRule, false},
		{"rolling ok", schengenRule, false},
		{"rolling without period", VisaRule{RuleType: RuleRolling, DaysAllowed: 90}, true},
		{"allowance over period", VisaRule{RuleType: RuleRolling, DaysAllowed: 200, PeriodDays: 180}, true},
		{"zero allowance", VisaRule{RuleType: RuleFixed}, true},
		{"unknown type", VisaRule{RuleType: "monthly", DaysAllowed: 10}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rule.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFixedCompliance_ScenarioC(t *testing.T) {
	entries := consecutive(testToday, 45)

	res := CalculateVisaCompliance(waiverRule, entries, testToday, nil)
	if !res.IsCompliant {
		t.Error("expected compliant")
	}
	if res.DaysUsed != 45 || res.DaysRemaining != 45 {
		t.Errorf("expected used=45 remaining=45, got used=%d remaining=%d", res.DaysUsed, res.DaysRemaining)
	}
	if res.IsWarning {
		t.Error("expected no warning with 45 days remaining")
	}
	if res.MaxDaysInCurrentPeriod != nil || res.EarliestAvailableDate != nil || res.Violations != nil {
		t.Error("fixed rule should not report rolling-window fields")
	}
}

func TestFixedCompliance_Thresholds(t *testing.T) {
	tests := []struct {
		name          string
		allowed, used int
		wantRemaining int
		wantCompliant bool
		wantWarning   bool
	}{
		{"exactly at warning floor", 90, 80, 10, true, true},
		{"just above floor", 90, 79, 11, true, false},
		{"ten percent beats floor", 200, 180, 20, true, true},
		{"ten percent rounds half up", 125, 112, 13, true, true},
		{"exhausted", 90, 90, 0, true, true},
		{"over", 90, 95, 0, false, true},
		{"small allowance always warns", 7, 0, 7, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := VisaRule{RuleType: RuleFixed, DaysAllowed: tt.allowed}
			res := CalculateVisaCompliance(rule, consecutive(testToday, tt.used), testToday, nil)

			if res.DaysUsed != tt.used {
				t.Errorf("daysUsed = %d, want %d", res.DaysUsed, tt.used)
			}
			if res.DaysRemaining != tt.wantRemaining {
				t.Errorf("daysRemaining = %d, want %d", res.DaysRemaining, tt.wantRemaining)
			}
			if res.IsCompliant != tt.wantCompliant {
				t.Errorf("isCompliant = %v, want %v", res.IsCompliant, tt.wantCompliant)
			}
			if res.IsWarning != tt.wantWarning {
				t.Errorf("isWarning = %v, want %v", res.IsWarning, tt.wantWarning)
			}
		})
	}
}

func TestRollingCompliance_ScenarioD(t *testing.T) {
	entries := consecutive(truncateToDay(testToday), 95)

	res := CalculateVisaCompliance(schengenRule, entries, testToday, nil)
	if res.IsCompliant {
		t.Error("expected non-compliant")
	}
	if res.DaysRemaining != 0 {
		t.Errorf("expected 0 remaining, got %d", res.DaysRemaining)
	}
	if res.DaysUsed != 95 {
		t.Errorf("expected 95 used in current window, got %d", res.DaysUsed)
	}
	if res.MaxDaysInCurrentPeriod == nil || *res.MaxDaysInCurrentPeriod != 95 {
		t.Errorf("expected max window 95, got %v", res.MaxDaysInCurrentPeriod)
	}

	var found bool
	for _, v := range res.Violations {
		if FormatDay(v.Date) == "2026-10-17" {
			found = true
			if v.DaysUsed != 95 || v.Limit != 90 {
				t.Errorf("today's violation = %+v, want daysUsed=95 limit=90", v)
			}
		}
	}
	if !found {
		t.Error("expected a violation for the window ending today")
	}
	if len(res.Violations) != 5 {
		t.Errorf("expected violations on the 91st..95th days, got %d", len(res.Violations))
	}
}

func TestRollingCompliance_Empty(t *testing.T) {
	res := CalculateVisaCompliance(schengenRule, nil, testToday, nil)
	if !res.IsCompliant || res.IsWarning {
		t.Errorf("expected compliant without warning, got %+v", res)
	}
	if res.DaysRemaining != 90 || res.DaysUsed != 0 {
		t.Errorf("expected full allowance, got used=%d remaining=%d", res.DaysUsed, res.DaysRemaining)
	}
	if len(res.Violations) != 0 {
		t.Errorf("expected no violations, got %d", len(res.Violations))
	}
	if res.EarliestAvailableDate != nil {
		t.Error("expected no earliest available date")
	}
}

func TestRollingCompliance_EmptySmallAllowanceWarns(t *testing.T) {
	rule := VisaRule{RuleType: RuleRolling, DaysAllowed: 7, PeriodDays: 30}
	res := CalculateVisaCompliance(rule, nil, testToday, nil)
	if !res.IsCompliant || !res.IsWarning {
		t.Errorf("expected compliant with warning for a 7-day allowance, got %+v", res)
	}

	fixed := CalculateVisaCompliance(VisaRule{RuleType: RuleFixed, DaysAllowed: 7}, nil, testToday, nil)
	if fixed.IsWarning != res.IsWarning {
		t.Errorf("fixed and rolling disagree on an unused small allowance: %v vs %v", fixed.IsWarning, res.IsWarning)
	}
}

func TestRollingCompliance_WindowBoundaries(t *testing.T) {
	today := truncateToDay(testToday)
	entries := []VisaEntry{
		{EntryDate: addDays(today, -180)}, // just outside today's window
		{EntryDate: addDays(today, -179)}, // first day inside
		{EntryDate: today},
	}

	res := CalculateVisaCompliance(schengenRule, entries, testToday, nil)
	if res.DaysUsed != 2 {
		t.Errorf("expected 2 days in the current 180-day window, got %d", res.DaysUsed)
	}
	if res.DaysRemaining != 88 {
		t.Errorf("expected 88 remaining, got %d", res.DaysRemaining)
	}
	if got := FormatDay(*res.EarliestAvailableDate); got != FormatDay(today) {
		t.Errorf("earliest available = %s, want %s (oldest + 180)", got, FormatDay(today))
	}
}

func TestRollingCompliance_HistoricViolationStillNonCompliant(t *testing.T) {
	// 91 consecutive days a year ago: current window is clean, history is not.
	entries := consecutive(addDays(testToday, -365), 91)

	res := CalculateVisaCompliance(schengenRule, entries, testToday, nil)
	if res.DaysUsed != 0 || res.DaysRemaining != 90 {
		t.Errorf("expected empty current window, got used=%d remaining=%d", res.DaysUsed, res.DaysRemaining)
	}
	if res.IsCompliant {
		t.Error("a past window over the limit must make the result non-compliant")
	}
	if len(res.Violations) != 1 {
		t.Errorf("expected 1 violation, got %d", len(res.Violations))
	}
}

func TestRollingCompliance_TodayWindowWithoutEntryToday(t *testing.T) {
	entries := consecutive(addDays(testToday, -1), 91)

	res := CalculateVisaCompliance(schengenRule, entries, testToday, nil)
	last := res.Violations[len(res.Violations)-1]
	if FormatDay(last.Date) != "2026-10-17" || last.DaysUsed != 91 {
		t.Errorf("expected today's window violation with 91 days, got %+v", last)
	}
}

func TestRollingCompliance_Trace(t *testing.T) {
	entries := consecutive(testToday, 3)
	tr := NewTrace()
	CalculateVisaCompliance(schengenRule, entries, testToday, tr)

	if tr.Len() != 4 {
		t.Fatalf("expected 3 window events and 1 current window event, got %d", tr.Len())
	}
	if tr.Events[3].Step != StepCurrentWindow {
		t.Errorf("expected last event %s, got %s", StepCurrentWindow, tr.Events[3].Step)
	}
}

func TestCheckDateCompliance_Rolling(t *testing.T) {
	today := truncateToDay(testToday)
	full := consecutive(addDays(today, -1), 90)

	check := CheckDateCompliance(schengenRule, full, today)
	if check.Allowed {
		t.Error("91st day in the window must be rejected")
	}
	if check.DaysUsed != 91 || check.Limit != 90 {
		t.Errorf("got %+v", check)
	}

	check = CheckDateCompliance(schengenRule, full[1:], today)
	if !check.Allowed || check.DaysUsed != 90 {
		t.Errorf("90th day should be allowed, got %+v", check)
	}

	// Far enough ahead that the oldest days have rolled off.
	later := addDays(full[0].EntryDate, 180)
	check = CheckDateCompliance(schengenRule, full, later)
	if !check.Allowed {
		t.Errorf("expected day after roll-off to be allowed, got %+v", check)
	}
}

func TestCheckDateCompliance_Fixed(t *testing.T) {
	entries := consecutive(testToday, 90)

	if check := CheckDateCompliance(waiverRule, entries, addDays(testToday, 1)); check.Allowed {
		t.Errorf("exhausted fixed allowance must reject, got %+v", check)
	}
	if check := CheckDateCompliance(waiverRule, entries[1:], addDays(testToday, 1)); !check.Allowed {
		t.Errorf("89 used of 90 should allow, got %+v", check)
	}
	if check := CheckDateCompliance(waiverRule, entries, testToday); !check.Allowed {
		t.Errorf("an already counted day adds nothing, got %+v", check)
	}
}

func TestCheckDateCompliance_DoesNotMutateInput(t *testing.T) {
	entries := []VisaEntry{
		{EntryDate: addDays(testToday, -2)},
		{EntryDate: addDays(testToday, -10)},
	}
	before := make([]VisaEntry, len(entries))
	copy(before, entries)

	CheckDateCompliance(schengenRule, entries, testToday)
	CalculateVisaCompliance(schengenRule, entries, testToday, nil)

	if !reflect.DeepEqual(before, entries) {
		t.Error("input entries were modified")
	}
}

// randomEntries returns a unique random set of days within span days of start.
func randomEntries(rng *rand.Rand, start time.Time, span, density int) []VisaEntry {
	var entries []VisaEntry
	for i := 0; i < span; i++ {
		if rng.Intn(100) < density {
			entries = append(entries, VisaEntry{EntryDate: addDays(start, i)})
		}
	}
	rng.Shuffle(len(entries), func(i, j int) { entries[i], entries[j] = entries[j], entries[i] })
	return entries
}

func randomRollingRule(rng *rand.Rand) VisaRule {
	period := 7 + rng.Intn(200)
	return VisaRule{RuleType: RuleRolling, DaysAllowed: 1 + rng.Intn(period), PeriodDays: period}
}

// bruteForceMaxWindow scans every possible window end day by day.
func bruteForceMaxWindow(entries []VisaEntry, periodDays int) int {
	if len(entries) == 0 {
		return 0
	}
	set := make(map[time.Time]bool, len(entries))
	first, last := truncateToDay(entries[0].EntryDate), truncateToDay(entries[0].EntryDate)
	for _, e := range entries {
		d := truncateToDay(e.EntryDate)
		set[d] = true
		if d.Before(first) {
			first = d
		}
		if d.After(last) {
			last = d
		}
	}

	best := 0
	for end := first; !end.After(addDays(last, periodDays)); end = addDays(end, 1) {
		count := 0
		for d := addDays(end, -(periodDays - 1)); !d.After(end); d = addDays(d, 1) {
			if set[d] {
				count++
			}
		}
		best = max(best, count)
	}
	return best
}

func TestRollingCompliance_EntryEndedWindowsFindTheMaximum(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	for iter := 0; iter < 150; iter++ {
		rule := randomRollingRule(rng)
		entries := randomEntries(rng, start, 30+rng.Intn(300), 5+rng.Intn(80))

		res := CalculateVisaCompliance(rule, entries, start, nil)
		want := bruteForceMaxWindow(entries, rule.PeriodDays)
		if *res.MaxDaysInCurrentPeriod != want {
			t.Fatalf("iter %d (%s, %d entries): max window %d, brute force %d",
				iter, rule, len(entries), *res.MaxDaysInCurrentPeriod, want)
		}
	}
}

func TestCheckDateCompliance_CrossCheck(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for iter := 0; iter < 300; iter++ {
		var rule VisaRule
		if rng.Intn(3) == 0 {
			rule = VisaRule{RuleType: RuleFixed, DaysAllowed: 1 + rng.Intn(120)}
		} else {
			rule = randomRollingRule(rng)
		}
		span := 30 + rng.Intn(300)
		entries := randomEntries(rng, start, span, 10+rng.Intn(70))
		prospective := addDays(start, rng.Intn(span+30))

		check := CheckDateCompliance(rule, entries, prospective)

		union := append([]VisaEntry{}, entries...)
		if !containsDay(sortedEntryDays(entries), prospective) {
			union = append(union, VisaEntry{EntryDate: prospective})
		}
		res := CalculateVisaCompliance(rule, union, prospective, nil)

		if !check.Allowed {
			if res.IsCompliant {
				t.Fatalf("iter %d (%s): rejected %s but union is compliant", iter, rule, FormatDay(prospective))
			}
			if rule.RuleType == RuleRolling && !hasViolationOn(res.Violations, truncateToDay(prospective)) {
				t.Fatalf("iter %d (%s): rejected %s but its window shows no violation", iter, rule, FormatDay(prospective))
			}
		}
		if rule.RuleType == RuleRolling && res.DaysUsed != check.DaysUsed {
			t.Fatalf("iter %d: window counts disagree: evaluator %d, check %d", iter, res.DaysUsed, check.DaysUsed)
		}
	}
}

func TestCalculateVisaCompliance_Idempotent(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	entries := randomEntries(rng, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), 280, 40)

	for _, rule := range []VisaRule{schengenRule, waiverRule} {
		a := CalculateVisaCompliance(rule, entries, testToday, nil)
		b := CalculateVisaCompliance(rule, entries, testToday, nil)
		if !reflect.DeepEqual(a, b) {
			t.Errorf("%s: results differ between identical calls", rule)
		}
	}
}
