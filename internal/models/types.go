package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// StringList is an ordered list of strings persisted as a JSONB array.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		l = StringList{}
	}
	data, err := json.Marshal([]string(l))
	if err != nil {
		return nil, fmt.Errorf("marshal string list: %w", err)
	}
	return data, nil
}

func (l *StringList) Scan(value interface{}) error {
	data, err := jsonBytes(value)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		*l = StringList{}
		return nil
	}
	var out []string
	if err := json.Unmarshal(data, &out); err != nil {
		return fmt.Errorf("unmarshal string list: %w", err)
	}
	*l = out
	return nil
}

// Clean trims entries, drops blanks and caps the list at max (max <= 0 means no cap).
func (l StringList) Clean(max int) StringList {
	out := make(StringList, 0, len(l))
	for _, s := range l {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		out = append(out, s)
		if max > 0 && len(out) == max {
			break
		}
	}
	return out
}

// Contains reports whether v is present.
func (l StringList) Contains(v string) bool {
	for _, s := range l {
		if s == v {
			return true
		}
	}
	return false
}

// JSONMap is an opaque JSON object column.
type JSONMap map[string]interface{}

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	data, err := json.Marshal(map[string]interface{}(m))
	if err != nil {
		return nil, fmt.Errorf("marshal json map: %w", err)
	}
	return data, nil
}

func (m *JSONMap) Scan(value interface{}) error {
	data, err := jsonBytes(value)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		*m = JSONMap{}
		return nil
	}
	out := JSONMap{}
	if err := json.Unmarshal(data, &out); err != nil {
		return fmt.Errorf("unmarshal json map: %w", err)
	}
	*m = out
	return nil
}

// RawJSON is a nullable JSON document kept verbatim.
type RawJSON json.RawMessage

func (r RawJSON) Value() (driver.Value, error) {
	if len(r) == 0 {
		return nil, nil
	}
	if !json.Valid(r) {
		return nil, fmt.Errorf("invalid json document")
	}
	return []byte(r), nil
}

func (r *RawJSON) Scan(value interface{}) error {
	data, err := jsonBytes(value)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		*r = nil
		return nil
	}
	*r = append((*r)[:0], data...)
	return nil
}

func (r RawJSON) MarshalJSON() ([]byte, error) {
	if len(r) == 0 {
		return []byte("null"), nil
	}
	return r, nil
}

func (r *RawJSON) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*r = nil
		return nil
	}
	*r = append((*r)[:0], data...)
	return nil
}

func jsonBytes(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("unsupported json column type %T", value)
	}
}
