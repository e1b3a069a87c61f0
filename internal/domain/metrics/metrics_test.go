package metrics_test

import (
	"testing"

	"github.com/pulsehq/pulse/internal/domain/metrics"
)

func fp(v float64) *float64 { return &v }

func TestAggregateScores_Empty(t *testing.T) {
	if got := metrics.AggregateScores(nil); got != nil {
		t.Errorf("AggregateScores(nil) = %v, want nil", *got)
	}
	if got := metrics.AggregateScores([]int{}); got != nil {
		t.Errorf("AggregateScores([]) = %v, want nil", *got)
	}
}

func TestAggregateScores_Values(t *testing.T) {
	tests := []struct {
		name    string
		entries []int
		want    float64
	}{
		{"uniform", []int{3, 3, 3, 3}, 3.0},
		{"full range", []int{1, 2, 3, 4, 5}, 3.0},
		{"single", []int{4}, 4.0},
		{"rounds half up", []int{3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 4}, 3.1}, // mean 3.05
		{"repeating fraction", []int{3, 4, 4}, 3.7}, // mean 3.666...
		{"seven day week", []int{4, 4, 3, 4, 3, 4, 3}, 3.6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := metrics.AggregateScores(tt.entries)
			if got == nil {
				t.Fatalf("AggregateScores(%v) = nil, want %v", tt.entries, tt.want)
			}
			if *got != tt.want {
				t.Errorf("AggregateScores(%v) = %v, want %v", tt.entries, *got, tt.want)
			}
		})
	}
}

func TestAggregateScores_OrderIndependent(t *testing.T) {
	a := metrics.AggregateScores([]int{1, 5, 3, 2, 4})
	b := metrics.AggregateScores([]int{4, 2, 3, 5, 1})
	if *a != *b {
		t.Errorf("order changed result: %v vs %v", *a, *b)
	}
}

func TestAggregateScores_RangeInvariant(t *testing.T) {
	// Any non-empty input within [1,5] must aggregate within [1.0, 5.0].
	inputs := [][]int{{1}, {5}, {1, 1, 1}, {5, 5, 5, 5}, {1, 5}, {2, 3, 4}}
	for _, in := range inputs {
		got := metrics.AggregateScores(in)
		if got == nil || *got < 1.0 || *got > 5.0 {
			t.Errorf("AggregateScores(%v) = %v, want value in [1.0,5.0]", in, got)
		}
	}
}

func TestClassifyTrend_MissingWindows(t *testing.T) {
	if got := metrics.ClassifyTrend(nil, fp(4.0)); got != metrics.TrendUnknown {
		t.Errorf("ClassifyTrend(nil, 4.0) = %q, want unknown", got)
	}
	if got := metrics.ClassifyTrend(fp(4.0), nil); got != metrics.TrendUnknown {
		t.Errorf("ClassifyTrend(4.0, nil) = %q, want unknown", got)
	}
	if got := metrics.ClassifyTrend(nil, nil); got != metrics.TrendUnknown {
		t.Errorf("ClassifyTrend(nil, nil) = %q, want unknown", got)
	}
}

func TestClassifyTrend_Directions(t *testing.T) {
	tests := []struct {
		name     string
		current  float64
		previous float64
		want     metrics.Trend
	}{
		{"up", 3.9, 3.5, metrics.TrendUp},            // diff 0.4
		{"stable small diff", 3.7, 3.5, metrics.TrendStable}, // diff 0.2
		{"down", 3.0, 3.5, metrics.TrendDown},        // diff -0.5
		{"exact threshold is stable", 3.8, 3.5, metrics.TrendStable},
		{"exact negative threshold is stable", 3.5, 3.8, metrics.TrendStable},
		{"no change", 3.5, 3.5, metrics.TrendStable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := metrics.ClassifyTrend(fp(tt.current), fp(tt.previous))
			if got != tt.want {
				t.Errorf("ClassifyTrend(%v, %v) = %q, want %q", tt.current, tt.previous, got, tt.want)
			}
		})
	}
}

func TestParticipation(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		entries int
		want    int
	}{
		{"half", 8, 4, 50},
		{"full", 5, 5, 100},
		{"none", 5, 0, 0},
		{"rounds", 3, 1, 33},
		{"rounds up", 3, 2, 67},
		{"zero size clamps to one", 0, 0, 0},
		{"zero size with entry", 0, 1, 100},
		{"over-participation clamps", 2, 5, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := metrics.Participation(tt.size, tt.entries)
			if got != tt.want {
				t.Errorf("Participation(%d, %d) = %d, want %d", tt.size, tt.entries, got, tt.want)
			}
		})
	}
}

func TestEffectiveTeamSize(t *testing.T) {
	if got := metrics.EffectiveTeamSize(5, 3); got != 5 {
		t.Errorf("declared size should win: got %d, want 5", got)
	}
	if got := metrics.EffectiveTeamSize(0, 3); got != 3 {
		t.Errorf("detected size should be used: got %d, want 3", got)
	}
	if got := metrics.EffectiveTeamSize(0, 0); got != 1 {
		t.Errorf("fallback should be 1: got %d", got)
	}
}

func TestNeedsAttention(t *testing.T) {
	tests := []struct {
		name     string
		averages []*float64
		want     bool
	}{
		{"all nil", []*float64{nil, nil}, false},
		{"one below floor", []*float64{fp(2.4), nil}, true},
		{"all healthy", []*float64{fp(3.0), fp(2.6)}, false},
		{"exactly at floor", []*float64{fp(2.5)}, false},
		{"empty", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := metrics.NeedsAttention(tt.averages); got != tt.want {
				t.Errorf("NeedsAttention(%v) = %v, want %v", tt.averages, got, tt.want)
			}
		})
	}
}

func TestCompute_EndToEnd(t *testing.T) {
	// A team with a week of mood entries averaging 3.6 now and 3.1 last week,
	// declared size 5, 3 check-ins today.
	w := metrics.Windows{
		Current:          []int{4, 4, 3, 4, 3, 4, 3}, // mean 3.571 -> 3.6
		Previous:         []int{3, 3, 3, 3, 3, 4, 3}, // mean 3.142 -> 3.1
		DeclaredTeamSize: 5,
		DetectedSize:     4,
		TodayEntries:     3,
	}
	got := metrics.Compute(w)

	if got.AverageScore == nil || *got.AverageScore != 3.6 {
		t.Errorf("AverageScore = %v, want 3.6", got.AverageScore)
	}
	if got.PreviousAverageScore == nil || *got.PreviousAverageScore != 3.1 {
		t.Errorf("PreviousAverageScore = %v, want 3.1", got.PreviousAverageScore)
	}
	if got.Trend != metrics.TrendUp {
		t.Errorf("Trend = %q, want up", got.Trend)
	}
	if got.ParticipationPercent != 60 {
		t.Errorf("ParticipationPercent = %d, want 60", got.ParticipationPercent)
	}
	if got.ParticipantCount != 4 {
		t.Errorf("ParticipantCount = %d, want 4", got.ParticipantCount)
	}
	if metrics.NeedsAttention([]*float64{got.AverageScore}) {
		t.Error("healthy team should not need attention")
	}
}

func TestCompute_EmptyWindows(t *testing.T) {
	got := metrics.Compute(metrics.Windows{})
	if got.AverageScore != nil || got.PreviousAverageScore != nil {
		t.Error("empty windows should produce nil averages")
	}
	if got.Trend != metrics.TrendUnknown {
		t.Errorf("Trend = %q, want unknown", got.Trend)
	}
	if got.ParticipationPercent != 0 {
		t.Errorf("ParticipationPercent = %d, want 0", got.ParticipationPercent)
	}
}

func TestCompute_Idempotent(t *testing.T) {
	w := metrics.Windows{Current: []int{2, 3, 4}, Previous: []int{4, 4}, DeclaredTeamSize: 3, TodayEntries: 1}
	a := metrics.Compute(w)
	b := metrics.Compute(w)
	if *a.AverageScore != *b.AverageScore || a.Trend != b.Trend || a.ParticipationPercent != b.ParticipationPercent {
		t.Error("repeated computation diverged")
	}
}
