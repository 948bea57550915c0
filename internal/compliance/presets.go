package compliance

import "strings"

// ── Jurisdiction Presets ─────────────────────────────────────────
// Static lookup used to pre-fill a visa rule from a free-text area name.
// Matching runs top to bottom: exact keys, then substring containment in
// either direction, then hardcoded aliases. First match wins.

// Preset is a named jurisdiction rule.
type Preset struct {
	Key         string   `json:"key"`
	DisplayName string   `json:"displayName"`
	Rule        VisaRule `json:"rule"`
}

// minReverseMatchLen guards the "key contains name" direction so that short
// inputs like "us" do not match inside unrelated keys ("australia").
const minReverseMatchLen = 3

var (
	schengen      = Preset{Key: "schengen area", DisplayName: "Schengen Area", Rule: VisaRule{RuleType: RuleRolling, DaysAllowed: 90, PeriodDays: 180}}
	unitedStates  = Preset{Key: "united states", DisplayName: "United States (ESTA)", Rule: VisaRule{RuleType: RuleFixed, DaysAllowed: 90}}
	unitedKingdom = Preset{Key: "united kingdom", DisplayName: "United Kingdom", Rule: VisaRule{RuleType: RuleFixed, DaysAllowed: 180}}
	emirates      = Preset{Key: "united arab emirates", DisplayName: "United Arab Emirates", Rule: VisaRule{RuleType: RuleRolling, DaysAllowed: 90, PeriodDays: 180}}
	newZealand    = Preset{Key: "new zealand", DisplayName: "New Zealand", Rule: VisaRule{RuleType: RuleFixed, DaysAllowed: 90}}
)

var presetTable = []Preset{
	schengen,
	unitedStates,
	unitedKingdom,
	emirates,
	newZealand,
	{Key: "australia", DisplayName: "Australia (eVisitor)", Rule: VisaRule{RuleType: RuleFixed, DaysAllowed: 90}},
	{Key: "canada", DisplayName: "Canada", Rule: VisaRule{RuleType: RuleFixed, DaysAllowed: 180}},
	{Key: "mexico", DisplayName: "Mexico", Rule: VisaRule{RuleType: RuleFixed, DaysAllowed: 180}},
	{Key: "bahamas", DisplayName: "The Bahamas", Rule: VisaRule{RuleType: RuleFixed, DaysAllowed: 90}},
	{Key: "turkey", DisplayName: "Türkiye", Rule: VisaRule{RuleType: RuleRolling, DaysAllowed: 90, PeriodDays: 180}},
	{Key: "montenegro", DisplayName: "Montenegro", Rule: VisaRule{RuleType: RuleRolling, DaysAllowed: 90, PeriodDays: 180}},
	{Key: "albania", DisplayName: "Albania", Rule: VisaRule{RuleType: RuleRolling, DaysAllowed: 90, PeriodDays: 180}},
	{Key: "japan", DisplayName: "Japan", Rule: VisaRule{RuleType: RuleFixed, DaysAllowed: 90}},
	{Key: "thailand", DisplayName: "Thailand", Rule: VisaRule{RuleType: RuleFixed, DaysAllowed: 30}},
	{Key: "singapore", DisplayName: "Singapore", Rule: VisaRule{RuleType: RuleFixed, DaysAllowed: 30}},
	{Key: "maldives", DisplayName: "Maldives", Rule: VisaRule{RuleType: RuleFixed, DaysAllowed: 30}},
	{Key: "seychelles", DisplayName: "Seychelles", Rule: VisaRule{RuleType: RuleFixed, DaysAllowed: 90}},
	{Key: "french polynesia", DisplayName: "French Polynesia", Rule: VisaRule{RuleType: RuleRolling, DaysAllowed: 90, PeriodDays: 180}},
	{Key: "fiji", DisplayName: "Fiji", Rule: VisaRule{RuleType: RuleFixed, DaysAllowed: 120}},
	{Key: "antigua and barbuda", DisplayName: "Antigua and Barbuda", Rule: VisaRule{RuleType: RuleFixed, DaysAllowed: 180}},
}

// schengenMembers are the states that share the Schengen 90/180 allowance,
// plus the cruising-ground names crew commonly log instead of a country.
var schengenMembers = []string{
	"austria", "belgium", "bulgaria", "croatia", "czechia", "czech republic",
	"denmark", "estonia", "finland", "france", "germany", "greece", "hungary",
	"iceland", "italy", "latvia", "liechtenstein", "lithuania", "luxembourg",
	"malta", "netherlands", "holland", "norway", "poland", "portugal", "romania",
	"slovakia", "slovenia", "spain", "sweden", "switzerland",
	"greek islands", "french riviera", "cote d'azur", "balearic islands",
}

type presetMatcher struct {
	match  func(name string) bool
	preset Preset
}

var presetMatchers = buildPresetMatchers()

func buildPresetMatchers() []presetMatcher {
	var matchers []presetMatcher

	for _, p := range presetTable {
		key := p.Key
		matchers = append(matchers, presetMatcher{
			match:  func(name string) bool { return name == key },
			preset: p,
		})
	}

	for _, p := range presetTable {
		key := p.Key
		matchers = append(matchers, presetMatcher{
			match: func(name string) bool {
				if strings.Contains(name, key) {
					return true
				}
				return len(name) >= minReverseMatchLen && strings.Contains(key, name)
			},
			preset: p,
		})
	}

	aliases := []struct {
		preset Preset
		words  []string
	}{
		{schengen, append([]string{"schengen", "schengen zone", "eu", "europe", "european union"}, schengenMembers...)},
		{unitedStates, []string{"usa", "us", "u.s.", "u.s.a.", "united states of america", "esta"}},
		{unitedKingdom, []string{"uk", "u.k.", "great britain", "britain", "england", "scotland", "wales"}},
		{emirates, []string{"uae", "u.a.e.", "emirates", "dubai", "abu dhabi"}},
		{newZealand, []string{"nz", "n.z.", "aotearoa"}},
	}
	for _, a := range aliases {
		words := a.words
		matchers = append(matchers, presetMatcher{
			match: func(name string) bool {
				for _, w := range words {
					if name == w || strings.HasPrefix(name, w+" ") || strings.HasSuffix(name, " "+w) {
						return true
					}
				}
				return false
			},
			preset: a.preset,
		})
	}

	return matchers
}

// ResolvePreset finds the rule for a free-text area name.
func ResolvePreset(name string) (Preset, bool) {
	n := normalizeAreaName(name)
	if n == "" {
		return Preset{}, false
	}
	for _, m := range presetMatchers {
		if m.match(n) {
			return m.preset, true
		}
	}
	return Preset{}, false
}

// Presets returns a copy of the lookup table.
func Presets() []Preset {
	out := make([]Preset, len(presetTable))
	copy(out, presetTable)
	return out
}

// normalizeAreaName lowercases, trims and collapses runs of whitespace.
func normalizeAreaName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}
