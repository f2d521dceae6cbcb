package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// Tags is a story's tag list. The database keeps it as one serialized JSON
// string; over the wire it is an array, but decoding also accepts the
// serialized-string form older payloads carry.
type Tags []string

func (t Tags) MarshalJSON() ([]byte, error) {
	if t == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(t))
}

func (t *Tags) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		return nil
	}
	v, err := NormalizeTags(b)
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// NormalizeTags turns a raw JSON tags value into a tag list. It accepts an
// array, a string holding a serialized array, a comma-separated string, or
// null, and is idempotent: feeding it the encoding of its own output yields
// the same list.
func NormalizeTags(raw []byte) (Tags, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return Tags{}, nil
	}
	switch raw[0] {
	case '[':
		var out []string
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, fmt.Errorf("tags: %w", err)
		}
		if out == nil {
			return Tags{}, nil
		}
		return Tags(out), nil
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("tags: %w", err)
		}
		s = strings.TrimSpace(s)
		if strings.HasPrefix(s, "[") || strings.HasPrefix(s, `"`) {
			return NormalizeTags([]byte(s))
		}
		return ParseTagList(s), nil
	}
	return nil, fmt.Errorf("tags: unsupported value %q", string(raw))
}

// ParseTagList splits comma-separated input into trimmed, lowercased,
// de-duplicated tags.
func ParseTagList(s string) Tags {
	out := Tags{}
	seen := map[string]bool{}
	for _, part := range strings.Split(s, ",") {
		tag := strings.ToLower(strings.TrimSpace(part))
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}

// Value stores tags as a serialized JSON array, or NULL when empty.
func (t Tags) Value() (driver.Value, error) {
	if len(t) == 0 {
		return nil, nil
	}
	b, err := json.Marshal([]string(t))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (t *Tags) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*t = Tags{}
		return nil
	case string:
		return t.scanBytes([]byte(v))
	case []byte:
		return t.scanBytes(v)
	default:
		return fmt.Errorf("tags: cannot scan %T", src)
	}
}

func (t *Tags) scanBytes(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		*t = Tags{}
		return nil
	}
	if b[0] != '[' && b[0] != '"' {
		*t = ParseTagList(string(b))
		return nil
	}
	v, err := NormalizeTags(b)
	if err != nil {
		return err
	}
	*t = v
	return nil
}
