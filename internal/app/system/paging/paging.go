// internal/app/system/paging/paging.go
package paging

import (
	"net/http"
	"strconv"

	"github.com/dalemusser/waffle/pantry/query"
)

// PageSize is the default number of rows in paged list responses.
const PageSize = 50

// LimitPlusOne returns PageSize+1 as int64 for look-ahead pagination
// (fetch one extra document to detect hasNext).
func LimitPlusOne() int64 { return int64(PageSize + 1) }

// ParseStart extracts the 1-based "start" query parameter.
// Returns 1 if not present or invalid.
func ParseStart(r *http.Request) int {
	s := query.Get(r, "start")
	if s == "" {
		return 1
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// Skip converts a 1-based start index into the Mongo skip value.
func Skip(start int) int64 {
	if start < 1 {
		start = 1
	}
	return int64(start - 1)
}

// Result holds the pagination indicators for a trimmed page.
type Result struct {
	HasPrev bool
	HasNext bool
}

// Trim reports pagination indicators for a look-ahead fetch of up to
// PageSize+1 rows starting at the 1-based start index, and returns the
// number of rows the response should keep. Callers slice their fetched
// results to the returned length.
func Trim(fetched, start int) (keep int, res Result) {
	res.HasPrev = start > 1
	if fetched > PageSize {
		res.HasNext = true
		return PageSize, res
	}
	return fetched, res
}
