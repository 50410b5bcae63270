// Package discover expands date/hour-partitioned path templates into the
// concrete log files covering a UTC time window.
package discover

import (
	"fmt"
	"strings"
	"time"
)

type templatePart interface {
	append(dst *strings.Builder, hour time.Time)
}

type literalPart string

type yearPart struct{}

type monthPart struct{}

type dayPart struct{}

type hourPart struct{}

// guidPart expands to a filesystem-glob wildcard.
type guidPart struct{}

func (p literalPart) append(dst *strings.Builder, _ time.Time) {
	dst.WriteString(string(p))
}

func (yearPart) append(dst *strings.Builder, hour time.Time) {
	fmt.Fprintf(dst, "%04d", hour.Year())
}

func (monthPart) append(dst *strings.Builder, hour time.Time) {
	fmt.Fprintf(dst, "%02d", int(hour.Month()))
}

func (dayPart) append(dst *strings.Builder, hour time.Time) {
	fmt.Fprintf(dst, "%02d", hour.Day())
}

func (hourPart) append(dst *strings.Builder, hour time.Time) {
	fmt.Fprintf(dst, "%02d", hour.Hour())
}

func (guidPart) append(dst *strings.Builder, _ time.Time) {
	dst.WriteByte('*')
}

// Template is a compiled log-path template.
//
// Supported placeholders:
//   - `{YYYY}`, `{MM}`, `{DD}`, `{HH}`: UTC date/hour components
//   - `{guid}`: glob wildcard
//
// Any other placeholder is a configuration error reported at compile time.
type Template struct {
	raw     string
	parts   []templatePart
	hasDate bool
}

// CompileTemplate parses a template string into a Template.
func CompileTemplate(template string) (*Template, error) {
	if template == "" {
		return nil, fmt.Errorf("empty path template")
	}

	t := &Template{raw: template}
	s := template
	for len(s) > 0 {
		open := strings.IndexByte(s, '{')
		if open == -1 {
			t.parts = append(t.parts, literalPart(s))
			break
		}
		if open > 0 {
			t.parts = append(t.parts, literalPart(s[:open]))
			s = s[open:]
		}

		closeIdx := strings.IndexByte(s, '}')
		if closeIdx == -1 {
			return nil, fmt.Errorf("unclosed placeholder in %q", template)
		}

		placeholder := s[1:closeIdx]
		s = s[closeIdx+1:]

		part, isDate, err := parsePlaceholder(placeholder)
		if err != nil {
			return nil, fmt.Errorf("path template %q: %w", template, err)
		}
		t.parts = append(t.parts, part)
		t.hasDate = t.hasDate || isDate
	}

	return t, nil
}

func parsePlaceholder(p string) (part templatePart, isDate bool, err error) {
	switch p {
	case "YYYY":
		return yearPart{}, true, nil
	case "MM":
		return monthPart{}, true, nil
	case "DD":
		return dayPart{}, true, nil
	case "HH":
		return hourPart{}, true, nil
	case "guid":
		return guidPart{}, false, nil
	default:
		return nil, false, fmt.Errorf("unsupported placeholder {%s}", p)
	}
}

// HasDateParts reports whether the template contains any date placeholder.
// Templates without date parts are globbed once, not per hour.
func (t *Template) HasDateParts() bool {
	return t.hasDate
}

// Raw returns the original template string.
func (t *Template) Raw() string {
	return t.raw
}

// Expand substitutes the placeholders for one UTC hour and returns the
// resulting glob pattern.
func (t *Template) Expand(hour time.Time) string {
	hour = hour.UTC()
	var b strings.Builder
	b.Grow(len(t.raw))
	for _, part := range t.parts {
		part.append(&b, hour)
	}
	return b.String()
}
