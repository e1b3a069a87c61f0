// internal/app/system/limits/limits.go
package limits

// Request body size limits. These prevent memory exhaustion from oversized
// JSON payloads; normal requests are far below them.
const (
	// MaxJSONBodySize bounds ordinary JSON API request bodies.
	MaxJSONBodySize = 1 << 20 // 1 MB

	// MaxFeedbackBodySize bounds a single feedback note before
	// sanitization.
	MaxFeedbackBodySize = 64 << 10 // 64 KB
)

// Field length limits enforced by the write endpoints.
const (
	MaxTeamNameLen    = 100
	MaxTeamSlugLen    = 60
	MaxTitleLen       = 200
	MaxBodyLen        = 20000
	MaxExpectedTeam   = 500 // declared team size sanity cap
)
