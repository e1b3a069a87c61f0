// Package metrics holds the pure team-health scoring computations shared by
// the live read path and the denormalization job. Everything here is a total
// function over in-memory values: no I/O, no clock, no state. Callers fetch
// the entries, this package reduces them.
package metrics

// Trend is the direction of change between two aggregation windows.
// TrendUnknown means at least one window had no data, which callers must
// treat as "insufficient history", never as stable.
type Trend string

const (
	TrendUp      Trend = "up"
	TrendDown    Trend = "down"
	TrendStable  Trend = "stable"
	TrendUnknown Trend = ""
)

// trendThreshold is the minimum absolute difference between window averages
// before a direction is reported. Small teams produce volatile means; below
// this the movement is treated as noise. The value is load-bearing across
// the product and must not change.
const trendThreshold = 0.3

// attentionFloor is the below-midpoint boundary on the 1-5 scale. Any tool
// averaging strictly under it flags the team for attention.
const attentionFloor = 2.5

// AggregateScores reduces a window of score entries to their arithmetic mean
// rounded half-up to one decimal place. It returns nil for an empty window;
// callers must treat nil as "insufficient data", never as zero. Scores are
// validated to [1,5] by the write endpoints and are not re-checked here.
func AggregateScores(entries []int) *float64 {
	if len(entries) == 0 {
		return nil
	}
	sum := 0
	for _, s := range entries {
		sum += s
	}
	// Integer arithmetic keeps half-up rounding exact: 3.45 must become 3.5,
	// which float multiplication cannot guarantee.
	n := len(entries)
	tenths := (20*sum + n) / (2 * n)
	rounded := float64(tenths) / 10
	return &rounded
}

// ClassifyTrend compares the current window average against the previous one.
// If either side is nil there is not enough history and TrendUnknown is
// returned. The comparison is strict: a difference of exactly the threshold
// is stable.
func ClassifyTrend(current, previous *float64) Trend {
	if current == nil || previous == nil {
		return TrendUnknown
	}
	diff := *current - *previous
	switch {
	case diff > trendThreshold:
		return TrendUp
	case diff < -trendThreshold:
		return TrendDown
	default:
		return TrendStable
	}
}

// Participation returns the integer percentage of the team that has checked
// in today, clamped to [0,100]. A non-positive team size is substituted with
// 1 before dividing; see EffectiveTeamSize for how the size is chosen.
func Participation(effectiveTeamSize, todayEntries int) int {
	if effectiveTeamSize <= 0 {
		effectiveTeamSize = 1
	}
	pct := (200*todayEntries + effectiveTeamSize) / (2 * effectiveTeamSize)
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

// EffectiveTeamSize picks the denominator for participation: the declared
// size when the team admin set one, else the detected distinct-participant
// count, else 1 so the ratio stays defined. Substituting 1 when both are
// absent preserves the shipped behavior; whether "unknown size" should
// instead report no ratio at all is an open product question.
func EffectiveTeamSize(declared, detected int) int {
	if declared > 0 {
		return declared
	}
	if detected > 0 {
		return detected
	}
	return 1
}

// NeedsAttention reports whether any non-nil tool average sits strictly
// below the attention floor. Absence of data never needs attention: a team
// with no entries at all yields false.
func NeedsAttention(averages []*float64) bool {
	for _, avg := range averages {
		if avg != nil && *avg < attentionFloor {
			return true
		}
	}
	return false
}

// TeamMetrics is the derived per-team, per-tool record consumed by the
// metrics endpoints and the denormalization job. It has no identity of its
// own; it is recomputed from score entries on every read or refresh.
type TeamMetrics struct {
	AverageScore         *float64 `json:"average_score"`
	PreviousAverageScore *float64 `json:"previous_average_score"`
	Trend                Trend    `json:"trend,omitempty"`
	ParticipantCount     int      `json:"participant_count"`
	TodayEntries         int      `json:"today_entries"`
	ParticipationPercent int      `json:"participation_percent"`
}

// Windows holds the raw inputs for one tool's metrics computation, already
// restricted to the team and split into the two equal, non-overlapping
// comparison windows by the caller.
type Windows struct {
	Current  []int // trailing window (or latest closed session)
	Previous []int // immediately preceding window of equal length

	DeclaredTeamSize int
	DetectedSize     int // distinct historical participants
	TodayEntries     int
}

// Compute assembles a TeamMetrics record from the two windows. Identical
// inputs always produce identical output.
func Compute(w Windows) TeamMetrics {
	cur := AggregateScores(w.Current)
	prev := AggregateScores(w.Previous)
	return TeamMetrics{
		AverageScore:         cur,
		PreviousAverageScore: prev,
		Trend:                ClassifyTrend(cur, prev),
		ParticipantCount:     w.DetectedSize,
		TodayEntries:         w.TodayEntries,
		ParticipationPercent: Participation(EffectiveTeamSize(w.DeclaredTeamSize, w.DetectedSize), w.TodayEntries),
	}
}
