// Package navigation provides helpers for safe URL navigation and redirects.
package navigation

import (
	"net/http"

	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/urlutil"
)

// SafeReturnPath validates a return URL supplied by the client. Only
// same-site absolute paths survive; anything that could be an open
// redirect (full URLs, scheme-relative //host paths, empty values) is
// replaced by fallback.
func SafeReturnPath(raw, fallback string) string {
	ret := urlutil.SafeReturn(raw, "", "")
	if ret == "" || ret[0] != '/' || (len(ret) > 1 && ret[1] == '/') {
		return fallback
	}
	return ret
}

// SafeBackURL extracts the "return" query parameter from the request and
// validates it with SafeReturnPath.
func SafeBackURL(r *http.Request, fallback string) string {
	return SafeReturnPath(query.Get(r, "return"), fallback)
}
