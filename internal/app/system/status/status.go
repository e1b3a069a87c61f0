// Package status holds the lifecycle status values shared by users and
// teams. Stored as plain strings; validated at the write endpoints.
package status

const (
	Active   = "active"
	Disabled = "disabled"
	Archived = "archived"
)

// Valid reports whether s is a known lifecycle status.
func Valid(s string) bool {
	switch s {
	case Active, Disabled, Archived:
		return true
	}
	return false
}
