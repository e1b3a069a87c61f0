package paging

import (
	"net/http/httptest"
	"testing"
)

func TestParseStart(t *testing.T) {
	tests := []struct {
		url  string
		want int
	}{
		{"/teams", 1},
		{"/teams?start=1", 1},
		{"/teams?start=51", 51},
		{"/teams?start=0", 1},
		{"/teams?start=-5", 1},
		{"/teams?start=abc", 1},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			r := httptest.NewRequest("GET", tt.url, nil)
			if got := ParseStart(r); got != tt.want {
				t.Errorf("ParseStart(%q) = %d, want %d", tt.url, got, tt.want)
			}
		})
	}
}

func TestTrim(t *testing.T) {
	// Full look-ahead page: keep PageSize, has next.
	keep, res := Trim(PageSize+1, 1)
	if keep != PageSize || !res.HasNext || res.HasPrev {
		t.Errorf("full page: keep=%d res=%+v", keep, res)
	}

	// Partial page beyond the first: no next, has prev.
	keep, res = Trim(10, PageSize+1)
	if keep != 10 || res.HasNext || !res.HasPrev {
		t.Errorf("partial page: keep=%d res=%+v", keep, res)
	}

	// Empty first page.
	keep, res = Trim(0, 1)
	if keep != 0 || res.HasNext || res.HasPrev {
		t.Errorf("empty page: keep=%d res=%+v", keep, res)
	}
}

func TestSkip(t *testing.T) {
	if got := Skip(1); got != 0 {
		t.Errorf("Skip(1) = %d, want 0", got)
	}
	if got := Skip(51); got != 50 {
		t.Errorf("Skip(51) = %d, want 50", got)
	}
	if got := Skip(0); got != 0 {
		t.Errorf("Skip(0) = %d, want 0", got)
	}
}
