package stowgate

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const rangeUnitPrefix = "bytes="

// ParseRange parses a Range header value of the form "bytes=<start>-<end>"
// (the unit prefix is optional). Both ends are required and inclusive;
// suffix ("-500"), open ("500-") and multi-range forms are rejected.
//
// An empty value returns a nil range and no error.
func ParseRange(value string) (*Range, error) {
	if value == "" {
		return nil, nil
	}

	spec := strings.TrimPrefix(strings.TrimSpace(value), rangeUnitPrefix)

	parts := strings.Split(spec, "-")
	if len(parts) != 2 {
		return nil, fmt.Errorf("parse range %q: %w: expected <start>-<end>", value, ErrInvalidRange)
	}

	start, err := parseRangeBound(parts[0])
	if err != nil {
		return nil, fmt.Errorf("parse range %q: start: %w", value, err)
	}

	end, err := parseRangeBound(parts[1])
	if err != nil {
		return nil, fmt.Errorf("parse range %q: end: %w", value, err)
	}

	if end < start {
		return nil, fmt.Errorf("parse range %q: %w: end before start", value, ErrInvalidRange)
	}

	// bytes=0-<MaxInt64> would need a length of MaxInt64+1; saturate it since
	// Clamp trims it to the object anyway.
	length := end - start
	if length < math.MaxInt64 {
		length++
	}

	return &Range{Offset: start, Length: length}, nil
}

func parseRangeBound(s string) (int64, error) {
	if s == "" {
		return 0, fmt.Errorf("%w: missing bound", ErrInvalidRange)
	}

	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("%w: %q is not a non-negative integer", ErrInvalidRange, s)
		}
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidRange, err)
	}

	return n, nil
}

// ContentRange formats the Content-Range header value for r within an object of size bytes.
func ContentRange(r Range, size int64) string {
	return "bytes " + strconv.FormatInt(r.Offset, 10) + "-" + strconv.FormatInt(r.End(), 10) + "/" + strconv.FormatInt(size, 10)
}

// Clamp validates r against an object of size bytes and trims its length so
// it does not run past the end of the object.
func (r Range) Clamp(size int64) (Range, error) {
	if r.Offset >= size {
		return Range{}, fmt.Errorf("clamp range: %w: offset %d, size %d", ErrRangeNotSatisfiable, r.Offset, size)
	}

	if r.Length > size-r.Offset {
		r.Length = size - r.Offset
	}

	return r, nil
}
