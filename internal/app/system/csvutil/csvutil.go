// internal/app/system/csvutil/csvutil.go
package csvutil

import (
	"encoding/csv"
	"io"
)

// SanitizeField neutralizes spreadsheet formula injection: a leading
// =, +, - or @ makes Excel evaluate the cell, so prefix it with a quote.
func SanitizeField(s string) string {
	if len(s) == 0 {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@':
		return "'" + s
	}
	return s
}

// NewExportWriter returns a CSV writer configured for download exports:
// CRLF line endings and a UTF-8 BOM so Excel detects the encoding.
func NewExportWriter(w io.Writer) (*csv.Writer, error) {
	if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return nil, err
	}
	cw := csv.NewWriter(w)
	cw.UseCRLF = true
	return cw, nil
}
