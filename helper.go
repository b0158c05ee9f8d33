// FILE: lixenwraith/namespace/helper.go
package namespace

import "strings"

// DefaultDelimiter separates path segments when no delimiter is configured.
const DefaultDelimiter = "/"

// Split tokenizes a flat key on delim. It is literal tokenization, not path
// normalization: the empty string yields one empty segment and consecutive
// delimiters yield empty intermediate segments.
func Split(path, delim string) []string {
	if delim == "" {
		return []string{path}
	}
	return strings.Split(path, delim)
}

// Join is the left inverse of Split on non-empty segment sequences.
func Join(segments []string, delim string) string {
	return strings.Join(segments, delim)
}

// joinPath appends name to prefix, omitting the delimiter for the root prefix.
func joinPath(prefix, name, delim string) string {
	if prefix == "" {
		return name
	}
	return prefix + delim + name
}

// setNestedValue sets a value in a nested map using a delimited path.
// It creates intermediate maps if they don't exist.
// If a segment exists but is not a map, it will be overwritten by a new map.
func setNestedValue(nested map[string]any, path, delim string, value any) {
	segments := Split(path, delim)
	current := nested

	// Iterate through segments up to the second-to-last one
	for i := 0; i < len(segments)-1; i++ {
		segment := segments[i]

		next, exists := current[segment]
		if !exists {
			newMap := make(map[string]any)
			current[segment] = newMap
			current = newMap
			continue
		}

		if nextMap, isMap := next.(map[string]any); isMap {
			current = nextMap
		} else {
			newMap := make(map[string]any)
			current[segment] = newMap
			current = newMap
		}
	}

	current[segments[len(segments)-1]] = value
}

// isValidKeySegment checks if a single command-line key segment is usable.
// Segments are sequences of ASCII letters, digits, underscores, dashes and dots.
func isValidKeySegment(s string) bool {
	if len(s) == 0 {
		return false
	}

	for _, r := range s {
		isLetter := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		isDigit := r >= '0' && r <= '9'
		if !(isLetter || isDigit || r == '_' || r == '-' || r == '.') {
			return false
		}
	}
	return true
}
