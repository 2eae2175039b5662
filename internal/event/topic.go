package event

import "strings"

// Topic is a hierarchical event name using dot notation.
// Examples: "document.changed", "history.undo", "plugin.autolink.error"
type Topic string

// Wildcard constants for subscription patterns.
const (
	// WildcardSingle matches exactly one segment.
	WildcardSingle = "*"

	// WildcardMulti matches zero or more trailing segments.
	WildcardMulti = "**"

	// Separator divides topic segments.
	Separator = "."
)

// String returns the topic as a string.
func (t Topic) String() string {
	return string(t)
}

// Segments returns the topic split by the separator.
func (t Topic) Segments() []string {
	if t == "" {
		return nil
	}
	return strings.Split(string(t), Separator)
}

// IsValid reports whether the topic is non-empty with no empty segments.
func (t Topic) IsValid() bool {
	if t == "" {
		return false
	}
	for _, seg := range t.Segments() {
		if seg == "" {
			return false
		}
	}
	return true
}

// Match reports whether a concrete topic matches a subscription pattern.
// The pattern may contain wildcards; the topic must not.
func Match(pattern, t Topic) bool {
	return matchSegments(pattern.Segments(), t.Segments())
}

func matchSegments(pattern, segs []string) bool {
	for i, p := range pattern {
		switch p {
		case WildcardMulti:
			// Try consuming zero or more remaining segments.
			rest := pattern[i+1:]
			for j := i; j <= len(segs); j++ {
				if matchSegments(rest, segs[j:]) {
					return true
				}
			}
			return false
		case WildcardSingle:
			if i >= len(segs) {
				return false
			}
		default:
			if i >= len(segs) || segs[i] != p {
				return false
			}
		}
	}
	return len(pattern) == len(segs)
}
