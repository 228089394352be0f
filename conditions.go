package stowgate

import (
	"net/http"
	"strings"
	"time"
)

// Conditions carries the conditional request predicates a store evaluates
// before deciding whether to return an object body.
type Conditions struct {
	IfMatch           string
	IfNoneMatch       string
	IfModifiedSince   time.Time
	IfUnmodifiedSince time.Time
}

// ConditionsFromHeader extracts conditional predicates from request headers.
// Unparseable dates are ignored, as RFC 9110 requires.
func ConditionsFromHeader(h http.Header) Conditions {
	c := Conditions{
		IfMatch:     strings.TrimSpace(h.Get("If-Match")),
		IfNoneMatch: strings.TrimSpace(h.Get("If-None-Match")),
	}

	if v := h.Get("If-Modified-Since"); v != "" {
		if t, err := http.ParseTime(v); err == nil {
			c.IfModifiedSince = t
		}
	}

	if v := h.Get("If-Unmodified-Since"); v != "" {
		if t, err := http.ParseTime(v); err == nil {
			c.IfUnmodifiedSince = t
		}
	}

	return c
}

// IsZero reports whether no predicate is set.
func (c Conditions) IsZero() bool {
	return c.IfMatch == "" && c.IfNoneMatch == "" && c.IfModifiedSince.IsZero() && c.IfUnmodifiedSince.IsZero()
}

// Evaluate reports whether a store should return the full object body for an
// object with the given entity tag and modification time.
//
// It returns false when If-Match or If-Unmodified-Since fail, or when
// If-None-Match or If-Modified-Since indicate the client's copy is current.
// If-None-Match takes precedence over If-Modified-Since.
func (c Conditions) Evaluate(etag string, lastModified time.Time) bool {
	if c.IfMatch != "" {
		if !etagMatch(c.IfMatch, etag, false) {
			return false
		}
	} else if !c.IfUnmodifiedSince.IsZero() && !lastModified.IsZero() {
		if lastModified.Truncate(time.Second).After(c.IfUnmodifiedSince) {
			return false
		}
	}

	if c.IfNoneMatch != "" {
		return !etagMatch(c.IfNoneMatch, etag, true)
	}

	if !c.IfModifiedSince.IsZero() && !lastModified.IsZero() {
		if !lastModified.Truncate(time.Second).After(c.IfModifiedSince) {
			return false
		}
	}

	return true
}

// etagMatch reports whether etag matches any entity tag in a comma separated
// header list. Weak comparison ignores the W/ prefix; strong comparison
// never matches a weak tag.
func etagMatch(header, etag string, weak bool) bool {
	if etag == "" {
		return false
	}

	header = strings.TrimSpace(header)
	if header == "*" {
		return true
	}

	etagWeak := strings.HasPrefix(etag, "W/")
	if etagWeak && !weak {
		return false
	}
	etag = strings.Trim(strings.TrimPrefix(etag, "W/"), `"`)

	for _, part := range strings.Split(header, ",") {
		part = strings.TrimSpace(part)
		if strings.HasPrefix(part, "W/") {
			if !weak {
				continue
			}
			part = strings.TrimPrefix(part, "W/")
		}
		if strings.Trim(part, `"`) == etag {
			return true
		}
	}

	return false
}
