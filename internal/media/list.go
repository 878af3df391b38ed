// Package media reconciles the legacy single-URL media fields with the JSON list schema.
package media

import (
	"encoding/json"
	"strings"
)

// Normalize turns a stored media field into an ordered list of URLs.
// Absent, malformed or unrecognised values yield an empty list, never an error.
func Normalize(raw any) []string {
	switch v := raw.(type) {
	case nil:
		return []string{}
	case string:
		return normalizeText(v)
	case *string:
		if v == nil {
			return []string{}
		}
		return normalizeText(*v)
	case []byte:
		return normalizeText(string(v))
	case json.RawMessage:
		return normalizeText(string(v))
	case []string:
		return compact(v)
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, s)
			}
		}
		return out
	case List:
		return compact(v)
	default:
		return []string{}
	}
}

func normalizeText(text string) []string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || trimmed == "null" {
		return []string{}
	}

	switch trimmed[0] {
	case '[', '{', '"':
		var decoded any
		if err := json.Unmarshal([]byte(trimmed), &decoded); err != nil {
			return []string{}
		}
		switch d := decoded.(type) {
		case []any:
			return Normalize(d)
		case string:
			return normalizeText(d)
		default:
			return []string{}
		}
	}

	// Legacy rows hold one bare URL.
	if strings.ContainsAny(trimmed, " \t\r\n") {
		return []string{}
	}
	return []string{trimmed}
}

func compact(items []string) []string {
	out := make([]string, 0, len(items))
	for _, s := range items {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}

// List is a media URL list that decodes from any stored shape
type List []string

// UnmarshalJSON accepts arrays, JSON-encoded array strings and legacy scalars.
// It never fails so one corrupt record cannot break decoding of its siblings.
func (l *List) UnmarshalJSON(data []byte) error {
	var decoded any
	if err := json.Unmarshal(data, &decoded); err != nil {
		*l = List{}
		return nil
	}
	*l = List(Normalize(decoded))
	return nil
}

// MarshalJSON always emits an array
func (l List) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(l))
}

// Encode returns the JSON text stored in the database column
func (l List) Encode() string {
	if len(l) == 0 {
		return "[]"
	}
	data, err := json.Marshal([]string(l))
	if err != nil {
		return "[]"
	}
	return string(data)
}

// ParseStored decodes a nullable database column
func ParseStored(column *string) List {
	return List(Normalize(column))
}

// ParseLines splits free text with one URL per line, as entered in admin forms
func ParseLines(text string) List {
	var out List
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}
