package fetch

import "fmt"

// Range is an inclusive byte range of the remote object.
type Range struct {
	Index int
	Start int64
	End   int64
}

// Len returns the number of bytes covered by the range.
func (r Range) Len() int64 {
	return r.End - r.Start + 1
}

// Header returns the HTTP Range header value for the range.
func (r Range) Header() string {
	return fmt.Sprintf("bytes=%d-%d", r.Start, r.End)
}

// Plan splits [0, length) into n contiguous, non-overlapping ranges in
// ascending order. The last range absorbs the remainder. n is clamped to
// [1, length] so no range is empty.
func Plan(length int64, n int) []Range {
	if length <= 0 {
		return nil
	}
	if n < 1 {
		n = 1
	}
	if int64(n) > length {
		n = int(length)
	}
	chunk := length / int64(n)
	ranges := make([]Range, n)
	for i := range ranges {
		start := int64(i) * chunk
		end := start + chunk - 1
		if i == n-1 {
			end = length - 1
		}
		ranges[i] = Range{Index: i, Start: start, End: end}
	}
	return ranges
}
