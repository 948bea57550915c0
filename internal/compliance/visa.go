package compliance

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"
)

// ── Visa Rules ───────────────────────────────────────────────────

// RuleType selects how a jurisdiction limits consumed days.
type RuleType string

const (
	RuleFixed   RuleType = "fixed"   // Flat cap over the whole tracked period
	RuleRolling RuleType = "rolling" // At most X days in any trailing Y-day window
)

// VisaRule is a jurisdiction's day-use allowance.
// PeriodDays is only meaningful for rolling rules.
type VisaRule struct {
	RuleType    RuleType `json:"ruleType" yaml:"ruleType"`
	DaysAllowed int      `json:"daysAllowed" yaml:"daysAllowed"`
	PeriodDays  int      `json:"periodDays,omitempty" yaml:"periodDays,omitempty"`
}

// Validate rejects rules the evaluator cannot reason about.
func (r VisaRule) Validate() error {
	switch r.RuleType {
	case RuleFixed:
	case RuleRolling:
		if r.PeriodDays <= 0 {
			return errors.New("rolling rule requires a positive periodDays")
		}
		if r.DaysAllowed > r.PeriodDays {
			return errors.New("daysAllowed cannot exceed periodDays")
		}
	default:
		return fmt.Errorf("unknown rule type %q", r.RuleType)
	}
	if r.DaysAllowed <= 0 {
		return errors.New("daysAllowed must be positive")
	}
	return nil
}

// String renders the rule the way crew talk about it ("90/180", "90 days").
func (r VisaRule) String() string {
	if r.RuleType == RuleRolling {
		return fmt.Sprintf("%d/%d rolling", r.DaysAllowed, r.PeriodDays)
	}
	return fmt.Sprintf("%d days", r.DaysAllowed)
}

// VisaEntry is one consumed calendar day in a jurisdiction.
type VisaEntry struct {
	EntryDate time.Time `json:"entryDate"`
}

// Violation is a window whose consumed days exceed the allowance.
type Violation struct {
	Date     time.Time `json:"date"`
	DaysUsed int       `json:"daysUsed"`
	Limit    int       `json:"limit"`
}

// ComplianceResult summarizes usage against a visa rule.
type ComplianceResult struct {
	DaysUsed               int         `json:"daysUsed"`
	DaysRemaining          int         `json:"daysRemaining"`
	IsCompliant            bool        `json:"isCompliant"`
	IsWarning              bool        `json:"isWarning"`
	MaxDaysInCurrentPeriod *int        `json:"maxDaysInCurrentPeriod,omitempty"`
	EarliestAvailableDate  *time.Time  `json:"earliestAvailableDate,omitempty"`
	Violations             []Violation `json:"violations,omitempty"`
}

// DateCheck is the verdict on consuming one more day.
type DateCheck struct {
	Allowed  bool `json:"allowed"`
	DaysUsed int  `json:"daysUsed"` // Days in the relevant window including the prospective day
	Limit    int  `json:"limit"`
}

// ── Compliance Computation ───────────────────────────────────────

// CalculateVisaCompliance evaluates consumed days against a rule as of now.
// Entries may arrive in any order; each date is expected at most once.
func CalculateVisaCompliance(rule VisaRule, entries []VisaEntry, now time.Time, tr *Trace) ComplianceResult {
	if rule.RuleType == RuleRolling {
		return rollingCompliance(rule, entries, now, tr)
	}
	return fixedCompliance(rule, entries)
}

func fixedCompliance(rule VisaRule, entries []VisaEntry) ComplianceResult {
	used := len(entries)
	remaining := max(0, rule.DaysAllowed-used)
	compliant := used <= rule.DaysAllowed

	return ComplianceResult{
		DaysUsed:      used,
		DaysRemaining: remaining,
		IsCompliant:   compliant,
		IsWarning:     !compliant || remaining <= warningThreshold(rule.DaysAllowed),
	}
}

func rollingCompliance(rule VisaRule, entries []VisaEntry, now time.Time, tr *Trace) ComplianceResult {
	if len(entries) == 0 {
		zero := 0
		return ComplianceResult{
			DaysUsed:               0,
			DaysRemaining:          rule.DaysAllowed,
			IsCompliant:            true,
			IsWarning:              rule.DaysAllowed <= warningThreshold(rule.DaysAllowed),
			MaxDaysInCurrentPeriod: &zero,
		}
	}

	days := sortedEntryDays(entries)
	today := truncateToDay(now)

	maxInWindow := 0
	violations := []Violation{}
	for _, end := range days {
		count := countInWindow(days, end, rule.PeriodDays)
		tr.add(StepWindow, end, fmt.Sprintf("window %s..%s holds %d/%d",
			FormatDay(windowStart(end, rule.PeriodDays)), FormatDay(end), count, rule.DaysAllowed))
		if count > maxInWindow {
			maxInWindow = count
		}
		if count > rule.DaysAllowed {
			violations = append(violations, Violation{Date: end, DaysUsed: count, Limit: rule.DaysAllowed})
		}
	}

	current := countInWindow(days, today, rule.PeriodDays)
	tr.add(StepCurrentWindow, today, fmt.Sprintf("window %s..%s holds %d/%d",
		FormatDay(windowStart(today, rule.PeriodDays)), FormatDay(today), current, rule.DaysAllowed))
	if current > rule.DaysAllowed && !hasViolationOn(violations, today) {
		violations = append(violations, Violation{Date: today, DaysUsed: current, Limit: rule.DaysAllowed})
	}

	remaining := max(0, rule.DaysAllowed-current)
	compliant := maxInWindow <= rule.DaysAllowed && current <= rule.DaysAllowed
	earliest := addDays(days[0], rule.PeriodDays)

	result := ComplianceResult{
		DaysUsed:               current,
		DaysRemaining:          remaining,
		IsCompliant:            compliant,
		IsWarning:              !compliant || remaining <= warningThreshold(rule.DaysAllowed),
		MaxDaysInCurrentPeriod: &maxInWindow,
		EarliestAvailableDate:  &earliest,
	}
	if len(violations) > 0 {
		result.Violations = violations
	}
	return result
}

// CheckDateCompliance reports whether consuming prospective would break the
// rule. It uses the same window bounds as CalculateVisaCompliance, so a
// rejected day always shows up as a violation once it is actually added.
func CheckDateCompliance(rule VisaRule, entries []VisaEntry, prospective time.Time) DateCheck {
	day := truncateToDay(prospective)
	days := sortedEntryDays(entries)
	alreadyConsumed := containsDay(days, day)

	if rule.RuleType == RuleRolling {
		count := countInWindow(days, day, rule.PeriodDays)
		if !alreadyConsumed {
			count++
		}
		return DateCheck{
			Allowed:  count <= rule.DaysAllowed,
			DaysUsed: count,
			Limit:    rule.DaysAllowed,
		}
	}

	if alreadyConsumed {
		return DateCheck{Allowed: true, DaysUsed: len(days), Limit: rule.DaysAllowed}
	}
	return DateCheck{
		Allowed:  len(days) < rule.DaysAllowed,
		DaysUsed: len(days) + 1,
		Limit:    rule.DaysAllowed,
	}
}

// ── Internal Helpers ─────────────────────────────────────────────

// warningThreshold is max(10, 10% of the allowance).
func warningThreshold(daysAllowed int) int {
	return max(10, int(math.Round(float64(daysAllowed)*0.10)))
}

// windowStart is the first day of the closed periodDays-long window ending on end.
func windowStart(end time.Time, periodDays int) time.Time {
	return addDays(end, -(periodDays - 1))
}

// countInWindow counts sorted days within [end-(periodDays-1), end].
func countInWindow(sorted []time.Time, end time.Time, periodDays int) int {
	start := windowStart(end, periodDays)
	lo := sort.Search(len(sorted), func(i int) bool { return !sorted[i].Before(start) })
	hi := sort.Search(len(sorted), func(i int) bool { return sorted[i].After(end) })
	return hi - lo
}

func sortedEntryDays(entries []VisaEntry) []time.Time {
	days := make([]time.Time, len(entries))
	for i, e := range entries {
		days[i] = truncateToDay(e.EntryDate)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days
}

func containsDay(sorted []time.Time, day time.Time) bool {
	i := sort.Search(len(sorted), func(i int) bool { return !sorted[i].Before(day) })
	return i < len(sorted) && sorted[i].Equal(day)
}

func hasViolationOn(violations []Violation, day time.Time) bool {
	for _, v := range violations {
		if v.Date.Equal(day) {
			return true
		}
	}
	return false
}
