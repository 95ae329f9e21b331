// Package httprange resolves single-range Range headers against a known
// resource size. net/http's ServeContent is deliberately not used for the
// media endpoint: its multi-range and rejection semantics differ from the
// contract this server exposes (single ranges only, end clamped before the
// satisfiability check, 416 with a descriptive body for malformed headers).
package httprange

import (
	"strconv"
	"strings"
)

// Range is an inclusive, zero-indexed byte interval.
type Range struct {
	Start int64
	End   int64
}

// Length is the number of bytes covered by the range.
func (r Range) Length() int64 { return r.End - r.Start + 1 }

// RangeError is any rejection; callers map it to 416.
type RangeError struct {
	Reason string
}

func (e *RangeError) Error() string { return e.Reason }

const (
	reasonMalformed     = "malformed range"
	reasonUnsatisfiable = "range not satisfiable"
)

// Resolve maps a raw Range header to a concrete interval for a resource of
// the given size. full is true when no header was supplied, meaning the
// whole resource should be served. A non-nil error is always a *RangeError.
func Resolve(header string, size int64) (rng Range, full bool, err error) {
	if header == "" {
		return Range{}, true, nil
	}
	spec, ok := strings.CutPrefix(header, "bytes=")
	if !ok {
		return Range{}, false, &RangeError{reasonMalformed}
	}
	startStr, endStr, ok := strings.Cut(spec, "-")
	if !ok || (startStr == "" && endStr == "") {
		return Range{}, false, &RangeError{reasonMalformed}
	}

	var start, end int64
	if startStr == "" {
		// Suffix form: last N bytes.
		n, perr := strconv.ParseInt(endStr, 10, 64)
		if perr != nil || n <= 0 {
			return Range{}, false, &RangeError{reasonMalformed}
		}
		start = size - n
		if start < 0 {
			start = 0
		}
		end = size - 1
	} else {
		start, err = strconv.ParseInt(startStr, 10, 64)
		if err != nil || start < 0 {
			return Range{}, false, &RangeError{reasonMalformed}
		}
		if endStr == "" {
			end = size - 1
		} else {
			end, err = strconv.ParseInt(endStr, 10, 64)
			if err != nil {
				return Range{}, false, &RangeError{reasonMalformed}
			}
			if end < start {
				return Range{}, false, &RangeError{reasonMalformed}
			}
		}
	}

	if end > size-1 {
		end = size - 1
	}
	if start >= size {
		return Range{}, false, &RangeError{reasonUnsatisfiable}
	}
	return Range{Start: start, End: end}, false, nil
}
