package dufsd

import (
	"strconv"
	"strings"
)

// RangeValue is a single byte range (spec.md §3: only one range supported;
// multipart byte ranges are not).
type RangeValue struct {
	Start uint64
	End   *uint64 // nil means "to end of file"
}

// ParseRange parses a `Range: bytes=<s>-<e?>` header value. ok is false for
// anything that isn't a well-formed single-range request (a multi-range
// header, a non-bytes unit, or garbage), which the caller treats as "no
// range requested" rather than an error.
func ParseRange(header string) (rv RangeValue, ok bool) {
	const prefix = "bytes="
	if !strings.HasPrefix(header, prefix) {
		return RangeValue{}, false
	}
	spec := strings.TrimPrefix(header, prefix)
	if strings.Contains(spec, ",") {
		return RangeValue{}, false
	}
	parts := strings.SplitN(spec, "-", 2)
	if len(parts) != 2 {
		return RangeValue{}, false
	}
	startStr, endStr := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	if startStr == "" {
		return RangeValue{}, false
	}
	start, err := strconv.ParseUint(startStr, 10, 64)
	if err != nil {
		return RangeValue{}, false
	}
	rv.Start = start
	if endStr != "" {
		end, err := strconv.ParseUint(endStr, 10, 64)
		if err != nil {
			return RangeValue{}, false
		}
		rv.End = &end
	}
	return rv, true
}

// Satisfiable reports whether the range is valid against size, and if so
// returns the concrete, size-capped (start, end) pair (spec.md §4.3 step 5):
// absent end requires start < size; an explicit end requires start < size
// and end >= start, and is capped at size-1.
func (rv RangeValue) Satisfiable(size uint64) (start, end uint64, ok bool) {
	if rv.End == nil {
		if rv.Start >= size {
			return 0, 0, false
		}
		return rv.Start, size - 1, true
	}
	if rv.Start >= size || *rv.End < rv.Start {
		return 0, 0, false
	}
	end = *rv.End
	if end > size-1 {
		end = size - 1
	}
	return rv.Start, end, true
}
