package scanner

import (
	"encoding/json"
)

// Match is one matching log line, tagged with the service it came from.
//
// Matches form a multiset: ordering within a result set is not guaranteed
// and consumers must not rely on it.
type Match struct {
	Service    string  `json:"service"`
	FilePath   string  `json:"file_path"`
	LineNumber int     `json:"line_number"` // 1-based
	Content    Content `json:"content"`
}

// Content is the matched line's payload: either a structured value (when
// the raw line parses as JSON) or the original string.
type Content struct {
	value      any
	structured bool
}

// StringContent wraps a raw line.
func StringContent(s string) Content {
	return Content{value: s}
}

// JSONContent wraps an already-decoded structured value.
func JSONContent(v any) Content {
	return Content{value: v, structured: true}
}

// DecodeContent attempts to JSON-decode a raw line, falling back to the
// string itself. Decoding is opportunistic: a line has to parse in full to
// count as structured.
func DecodeContent(raw string) Content {
	trimmed := leftTrim(raw)
	if trimmed == "" {
		return StringContent(raw)
	}
	// Only lines that can plausibly open a JSON document are worth a
	// decode attempt; everything else is log text.
	switch trimmed[0] {
	case '{', '[', '"':
		var v any
		if err := json.Unmarshal([]byte(trimmed), &v); err == nil {
			return JSONContent(v)
		}
	}
	return StringContent(raw)
}

// IsStructured reports whether the content decoded as JSON.
func (c Content) IsStructured() bool {
	return c.structured
}

// Value returns the decoded value for structured content, or the raw
// string otherwise.
func (c Content) Value() any {
	return c.value
}

// String renders the content for textual output.
func (c Content) String() string {
	if !c.structured {
		s, _ := c.value.(string)
		return s
	}
	b, err := json.Marshal(c.value)
	if err != nil {
		return ""
	}
	return string(b)
}

// MarshalJSON emits the structured value directly, or the raw string as a
// JSON string.
func (c Content) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.value)
}

// UnmarshalJSON restores the tagged union: JSON strings become raw string
// content, everything else is structured.
func (c *Content) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	if s, ok := v.(string); ok {
		*c = StringContent(s)
		return nil
	}
	*c = JSONContent(v)
	return nil
}

func leftTrim(s string) string {
	for len(s) > 0 && (s[0] == ' ' || s[0] == '\t') {
		s = s[1:]
	}
	return s
}
