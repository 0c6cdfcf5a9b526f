// Package barcode normalizes scanned UPC/EAN product codes.
//
// Every store in crate keys records by the normalized form: the digits of the
// raw input in their original order. Scanners and hand-typed input frequently
// carry spaces, dashes, or check-digit separators, so comparisons must never
// use the raw string.
package barcode

import "strings"

// Normalize returns the digits-only subsequence of raw in original order.
func Normalize(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for i := 0; i < len(raw); i++ {
		if c := raw[i]; c >= '0' && c <= '9' {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// Valid reports whether a normalized barcode may be indexed or looked up.
// Empty and all-zero codes are rejected.
func Valid(normalized string) bool {
	if normalized == "" {
		return false
	}
	return strings.Trim(normalized, "0") != ""
}

// Related reports whether either barcode contains the other. Scans that pick up
// extra leading or trailing digits still relate to the stored code. This is
// deliberately permissive and can relate unrelated codes sharing a digit run.
func Related(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}
