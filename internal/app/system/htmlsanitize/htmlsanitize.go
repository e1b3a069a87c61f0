// Package htmlsanitize strips dangerous markup from user-generated content
// before it is stored. Feedback bodies are written by anonymous peers and
// rendered to other users, so everything passes through here exactly once,
// at write time.
package htmlsanitize

import "github.com/microcosm-cc/bluemonday"

var policy = bluemonday.UGCPolicy()

// Sanitize returns s with scripts, event handlers, and javascript: URLs
// removed. Safe formatting markup (paragraphs, emphasis, lists, links)
// survives; bluemonday adds rel="nofollow" to links.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	return policy.Sanitize(s)
}
