// Package rolepath parses the dot-delimited role paths used to address
// descendants of a node ("list.item", "*.label") and the comma-joined role
// lists accepted by handler registration ("header,footer").
package rolepath

import "strings"

// Path is a dot-delimited sequence of roles.
type Path string

const (
	// Separator separates path segments.
	Separator = "."

	// Wildcard as the first segment selects unbounded-depth search.
	Wildcard = "*"

	// ListSeparator separates roles in a multi-role key.
	ListSeparator = ","
)

// String returns the path as a string.
func (p Path) String() string {
	return string(p)
}

// Segments returns the path split by the separator.
func (p Path) Segments() []string {
	if p == "" {
		return nil
	}
	return strings.Split(string(p), Separator)
}

// Len returns the number of segments.
func (p Path) Len() int {
	if p == "" {
		return 0
	}
	return strings.Count(string(p), Separator) + 1
}

// Head returns the first segment.
//
// Example: "list.item.label" -> "list"
func (p Path) Head() string {
	s := string(p)
	idx := strings.Index(s, Separator)
	if idx < 0 {
		return s
	}
	return s[:idx]
}

// Tail returns the path without its first segment.
// Returns an empty path for a single-segment path.
//
// Example: "list.item.label" -> "item.label"
func (p Path) Tail() Path {
	s := string(p)
	idx := strings.Index(s, Separator)
	if idx < 0 {
		return ""
	}
	return Path(s[idx+1:])
}

// Base returns the last segment.
func (p Path) Base() string {
	s := string(p)
	idx := strings.LastIndex(s, Separator)
	if idx < 0 {
		return s
	}
	return s[idx+1:]
}

// Dir returns the path without its last segment.
//
// Example: "list.item.label" -> "list.item"
func (p Path) Dir() Path {
	s := string(p)
	idx := strings.LastIndex(s, Separator)
	if idx < 0 {
		return ""
	}
	return Path(s[:idx])
}

// IsWildcard reports whether the path starts with the wildcard segment.
func (p Path) IsWildcard() bool {
	return p.Head() == Wildcard
}

// IsCompound reports whether the path has more than one segment.
func (p Path) IsCompound() bool {
	return HasSeparator(string(p))
}

// IsValid reports whether the path is non-empty with no empty segments.
func (p Path) IsValid() bool {
	if p == "" {
		return false
	}
	for _, seg := range p.Segments() {
		if seg == "" {
			return false
		}
	}
	return true
}

// Join joins segments into a path, skipping empty ones.
func Join(segments ...string) Path {
	kept := segments[:0:0]
	for _, s := range segments {
		if s != "" {
			kept = append(kept, s)
		}
	}
	return Path(strings.Join(kept, Separator))
}

// HasSeparator reports whether key contains the path separator.
// Attribute and validation keys that do are reserved for descendants.
func HasSeparator(key string) bool {
	return strings.Contains(key, Separator)
}

// SplitRoles expands a comma-joined role key into its individual roles,
// trimming whitespace and dropping empty entries. Order is preserved and
// duplicates are removed.
//
// Example: "header, footer" -> ["header", "footer"]
func SplitRoles(key string) []string {
	if key == "" {
		return nil
	}
	parts := strings.Split(key, ListSeparator)
	roles := make([]string, 0, len(parts))
	seen := make(map[string]bool, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		roles = append(roles, p)
	}
	return roles
}
