package port

import (
	"fmt"
	"strings"

	"github.com/awantoch/portflow/constants"
)

// NormalizeBaseURL trims whitespace, one trailing slash and a trailing /v1 so
// that versioned paths can be appended uniformly. It is idempotent.
func NormalizeBaseURL(raw string) string {
	normalized := strings.TrimSpace(raw)
	normalized = strings.TrimSuffix(normalized, "/")
	normalized = strings.TrimSuffix(normalized, constants.VersionPathSuffix)
	return normalized
}

// BaseURLOrDefault normalizes raw, falling back to the public Port API when raw is blank.
func BaseURLOrDefault(raw string) string {
	if strings.TrimSpace(raw) == "" {
		raw = constants.DefaultBaseURL
	}
	return NormalizeBaseURL(raw)
}

// QueryParam is one optional query parameter. Value is a string or a bool.
type QueryParam struct {
	Key   string
	Value any
}

// Query is an ordered list of optional query parameters. Order is preserved on
// encoding so request URLs are reproducible.
type Query []QueryParam

// Encode renders the query: true booleans as key=true, non-empty strings
// URL-encoded, everything else skipped. Returns "" when nothing qualifies,
// otherwise a string starting with "?".
func (q Query) Encode() string {
	parts := make([]string, 0, len(q))
	for _, p := range q {
		switch v := p.Value.(type) {
		case bool:
			if v {
				parts = append(parts, p.Key+"=true")
			}
		case string:
			if v != "" {
				parts = append(parts, p.Key+"="+escapeComponent(v))
			}
		case nil:
		default:
			if s := fmt.Sprint(v); s != "" {
				parts = append(parts, p.Key+"="+escapeComponent(s))
			}
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return "?" + strings.Join(parts, "&")
}

// BuildQueryString is shorthand for Query(params).Encode().
func BuildQueryString(params ...QueryParam) string {
	return Query(params).Encode()
}

// escapeComponent percent-encodes s for use as a single path segment or query
// value. ASCII letters, digits and -_.!~*'() are kept; every other byte of the
// UTF-8 encoding becomes %XX.
func escapeComponent(s string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if keepUnescaped(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0F])
	}
	return b.String()
}

func keepUnescaped(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return strings.IndexByte("-_.!~*'()", c) >= 0
}
