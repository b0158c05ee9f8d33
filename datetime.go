// FILE: lixenwraith/namespace/datetime.go
package namespace

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Date and time patterns tried in order, most specific first. Each kind owns
// its own list; parsing returns the first pattern that matches the whole
// input. The order is part of the contract.
var (
	DateTimePatterns = []string{
		"yyyy-MM-dd'T'HH:mm:ss.SSSZ",
		"yyyy-MM-dd'T'HH:mm:ss.SSSXXX",
		"yyyy-MM-dd'T'HH:mm:ss",
		"yyyy-MM-dd'T'HH:mm",
		"yyyy-MM-dd",
	}
	DatePatterns = []string{
		"yyyy-MM-dd",
	}
	TimePatterns = []string{
		"HH:mm:ss.SSSZ",
		"HH:mm:ss.SSSXXX",
		"HH:mm:ss",
		"HH:mm",
	}
)

var (
	dateTimeLayouts = mustLayouts(DateTimePatterns)
	dateLayouts     = mustLayouts(DatePatterns)
	timeLayouts     = mustLayouts(TimePatterns)
)

var (
	errNoPattern     = errors.New("no date/time pattern matched")
	errLayoutLiteral = errors.New("literal text holds a layout element")
)

func mustLayouts(patterns []string) []string {
	layouts := make([]string, len(patterns))
	for i, p := range patterns {
		layout, err := PatternLayout(p)
		if err != nil {
			panic(fmt.Sprintf("namespace: invalid built-in pattern %q: %v", p, err))
		}
		layouts[i] = layout
	}
	return layouts
}

// ParseDateTime parses raw against DateTimePatterns. Values without a zone
// are returned in UTC.
func ParseDateTime(raw string) (time.Time, error) {
	return parseChain(raw, "datetime", dateTimeLayouts)
}

// ParseDate parses raw against DatePatterns.
func ParseDate(raw string) (time.Time, error) {
	return parseChain(raw, "date", dateLayouts)
}

// ParseTimeOfDay parses raw against TimePatterns. The date part of the
// result is the zero date.
func ParseTimeOfDay(raw string) (time.Time, error) {
	return parseChain(raw, "time", timeLayouts)
}

// ParseWithPattern parses raw using a single pattern, as given by a format
// attribute.
func ParseWithPattern(raw, pattern, typeName string) (time.Time, error) {
	layout, err := PatternLayout(pattern)
	if err != nil {
		return time.Time{}, convErr(raw, typeName, err)
	}
	t, err := time.Parse(layout, raw)
	if err != nil {
		return time.Time{}, convErr(raw, typeName, err)
	}
	return t, nil
}

func parseChain(raw, typeName string, layouts []string) (time.Time, error) {
	for _, layout := range layouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, convErr(raw, typeName, errNoPattern)
}

// PatternLayout translates a letter pattern (yyyy-MM-dd'T'HH:mm:ss.SSSZ) into
// a Go reference layout. Quoted text is literal and '' is a single quote.
func PatternLayout(pattern string) (string, error) {
	var b strings.Builder
	runes := []rune(pattern)

	for i := 0; i < len(runes); {
		r := runes[i]

		if r == '\'' {
			if i+1 < len(runes) && runes[i+1] == '\'' {
				b.WriteRune('\'')
				i += 2
				continue
			}
			var lit strings.Builder
			j, closed := i+1, false
			for j < len(runes) {
				if runes[j] == '\'' {
					if j+1 < len(runes) && runes[j+1] == '\'' {
						lit.WriteRune('\'')
						j += 2
						continue
					}
					closed = true
					break
				}
				lit.WriteRune(runes[j])
				j++
			}
			if !closed {
				return "", fmt.Errorf("unterminated quote in pattern %q", pattern)
			}
			if err := checkLiteral(lit.String()); err != nil {
				return "", fmt.Errorf("pattern %q: %w", pattern, err)
			}
			b.WriteString(lit.String())
			i = j + 1
			continue
		}

		if !isPatternLetter(r) {
			if err := checkLiteral(string(r)); err != nil {
				return "", fmt.Errorf("pattern %q: %w", pattern, err)
			}
			b.WriteRune(r)
			i++
			continue
		}

		n := 1
		for i+n < len(runes) && runes[i+n] == r {
			n++
		}
		elem, err := layoutElement(r, n, b.String())
		if err != nil {
			return "", fmt.Errorf("pattern %q: %w", pattern, err)
		}
		b.WriteString(elem)
		i += n
	}

	return b.String(), nil
}

// layoutWords are reference layout elements that cannot appear as literal
// text; January and Monday are covered by their prefixes.
var layoutWords = []string{"Jan", "Mon", "MST", "PM", "pm"}

// checkLiteral rejects literal text that time.Parse would read as a layout
// element instead of matching it verbatim.
func checkLiteral(lit string) error {
	for _, r := range lit {
		if r >= '0' && r <= '9' {
			return fmt.Errorf("literal %q: %w", lit, errLayoutLiteral)
		}
	}
	for _, word := range layoutWords {
		if strings.Contains(lit, word) {
			return fmt.Errorf("literal %q: %w", lit, errLayoutLiteral)
		}
	}
	return nil
}

func isPatternLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

// layoutElement maps a run of n pattern letters to its Go layout element.
func layoutElement(letter rune, n int, written string) (string, error) {
	switch letter {
	case 'y':
		if n == 2 {
			return "06", nil
		}
		return "2006", nil
	case 'M':
		switch n {
		case 1:
			return "1", nil
		case 2:
			return "01", nil
		case 3:
			return "Jan", nil
		default:
			return "January", nil
		}
	case 'd':
		if n == 1 {
			return "2", nil
		}
		return "02", nil
	case 'H':
		return "15", nil
	case 'h':
		if n == 1 {
			return "3", nil
		}
		return "03", nil
	case 'm':
		if n == 1 {
			return "4", nil
		}
		return "04", nil
	case 's':
		if n == 1 {
			return "5", nil
		}
		return "05", nil
	case 'S':
		if !strings.HasSuffix(written, ".") && !strings.HasSuffix(written, ",") {
			return "", errors.New("fraction of second must follow '.' or ','")
		}
		return strings.Repeat("0", n), nil
	case 'a':
		return "PM", nil
	case 'E':
		if n <= 3 {
			return "Mon", nil
		}
		return "Monday", nil
	case 'Z':
		return "-0700", nil
	case 'X':
		switch n {
		case 1:
			return "Z07", nil
		case 2:
			return "Z0700", nil
		default:
			return "Z07:00", nil
		}
	case 'z':
		return "MST", nil
	}
	return "", fmt.Errorf("unsupported pattern letter %q", letter)
}
