// Package tier resolves subscription tiers to their enabled capabilities.
// The table is process-wide constant state: initialized once, never mutated,
// no database round-trip.
package tier

// Tier is a subscription tier identifier as stored on the owner account.
type Tier string

const (
	Free            Tier = "free"
	ScrumMaster     Tier = "scrum_master"
	AgileCoach      Tier = "agile_coach"
	TransitionCoach Tier = "transition_coach"
)

// Features is the capability set a tier enables.
type Features struct {
	MaxTeams  int  `json:"max_teams"`
	Coach     bool `json:"coach"`
	CrossTeam bool `json:"cross_team"`
}

// ordered lists every tier from lowest to highest. Upgrade/downgrade
// comparison is index comparison in this sequence, so the order here is
// part of the contract.
var ordered = []Tier{Free, ScrumMaster, AgileCoach, TransitionCoach}

var features = map[Tier]Features{
	Free:            {MaxTeams: 1, Coach: false, CrossTeam: false},
	ScrumMaster:     {MaxTeams: 3, Coach: true, CrossTeam: false},
	AgileCoach:      {MaxTeams: 10, Coach: true, CrossTeam: false},
	TransitionCoach: {MaxTeams: 25, Coach: true, CrossTeam: true},
}

// Resolve returns the feature set for t. Unrecognized (or empty) tiers
// behave as free.
func Resolve(t Tier) Features {
	if f, ok := features[t]; ok {
		return f
	}
	return features[Free]
}

// Parse normalizes a stored tier string. Unknown values map to Free so a
// corrupt or legacy tier field can never unlock paid capabilities.
func Parse(s string) Tier {
	t := Tier(s)
	if _, ok := features[t]; ok {
		return t
	}
	return Free
}

// Valid reports whether s names a known tier.
func Valid(s string) bool {
	_, ok := features[Tier(s)]
	return ok
}

// Index returns the position of t in the tier ordering; unknown tiers sit
// at the bottom with free.
func Index(t Tier) int {
	for i, v := range ordered {
		if v == t {
			return i
		}
	}
	return 0
}

// Compare orders two tiers: negative when a is lower than b, zero when
// equal, positive when higher. Used to decide upgrade vs. downgrade.
func Compare(a, b Tier) int {
	return Index(a) - Index(b)
}

// Row pairs a tier with its features for listings (pricing pages, the
// billing endpoint's tier table).
type Row struct {
	Tier     Tier     `json:"tier"`
	Features Features `json:"features"`
}

// All returns every tier with its features, lowest first. The slice is
// freshly allocated so callers cannot disturb the table.
func All() []Row {
	out := make([]Row, 0, len(ordered))
	for _, t := range ordered {
		out = append(out, Row{Tier: t, Features: features[t]})
	}
	return out
}
