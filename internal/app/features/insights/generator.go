// internal/app/features/insights/generator.go
package insights

import (
	"fmt"

	"github.com/pulsehq/pulse/internal/domain/metrics"
	"github.com/pulsehq/pulse/internal/domain/models"
)

// Generate produces the coaching recommendation text for one tool's current
// metrics. Rules fire in priority order; the first match wins. The text is
// advisory prose for the team lead, not a verdict.
func Generate(tool string, m metrics.TeamMetrics, needsAttention bool) string {
	subject := "mood"
	if tool == models.ToolWoW {
		subject = "process health"
	}

	switch {
	case m.AverageScore == nil:
		return fmt.Sprintf("There is not enough recent data to assess %s. Encourage the team to contribute entries so trends become visible.", subject)

	case needsAttention && m.Trend == metrics.TrendDown:
		return fmt.Sprintf("Team %s is low at %.1f and falling. Consider a retrospective this week to surface what changed, and follow up with individuals privately.", subject, *m.AverageScore)

	case needsAttention:
		return fmt.Sprintf("Team %s is low at %.1f. Look for recent changes in workload or priorities and give the team room to name what is weighing on them.", subject, *m.AverageScore)

	case m.Trend == metrics.TrendDown:
		return fmt.Sprintf("Team %s has dropped to %.1f. It is still in a healthy range, but a short check-in conversation now can stop a slide early.", subject, *m.AverageScore)

	case m.ParticipationPercent < 50:
		return fmt.Sprintf("Only %d%% of the team contributed today. Scores are healthy but thin data hides problems; remind the team the entries stay anonymous.", m.ParticipationPercent)

	case m.Trend == metrics.TrendUp:
		return fmt.Sprintf("Team %s is improving at %.1f. Whatever changed recently is working; name it in the next retro so the team keeps doing it.", subject, *m.AverageScore)

	default:
		return fmt.Sprintf("Team %s is steady at %.1f. Keep the current cadence and watch participation.", subject, *m.AverageScore)
	}
}
