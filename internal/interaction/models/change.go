package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// FieldChange is the before/after snapshot of one tracked field.
//
// Values are JSON-native (nil, string, float64, bool, map[string]any,
// []any). HasBefore and HasAfter record presence: a create never carries a
// before value and a delete never carries an after value, while an update
// carries both even when they are null. Changed is set only for updates.
type FieldChange struct {
	Field     string
	Before    any
	HasBefore bool
	After     any
	HasAfter  bool
	Changed   *bool
}

// Clone deep-copies the projected values of c.
func (c FieldChange) Clone() FieldChange {
	out := c
	out.Before = cloneValue(c.Before)
	out.After = cloneValue(c.After)
	if c.Changed != nil {
		changed := *c.Changed
		out.Changed = &changed
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[k] = cloneValue(val)
		}
		return m
	case []any:
		s := make([]any, len(t))
		for i, val := range t {
			s[i] = cloneValue(val)
		}
		return s
	default:
		return v
	}
}

// MarshalJSON writes keys in a fixed order and omits absent sides.
func (c FieldChange) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if err := writeMember(&buf, "field", c.Field, false); err != nil {
		return nil, err
	}
	if c.HasBefore {
		if err := writeMember(&buf, "before", c.Before, true); err != nil {
			return nil, err
		}
	}
	if c.HasAfter {
		if err := writeMember(&buf, "after", c.After, true); err != nil {
			return nil, err
		}
	}
	if c.Changed != nil {
		if err := writeMember(&buf, "changed", *c.Changed, true); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeMember(buf *bytes.Buffer, key string, value any, comma bool) error {
	if comma {
		buf.WriteByte(',')
	}
	k, _ := json.Marshal(key)
	buf.Write(k)
	buf.WriteByte(':')
	v, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("field %q: %w", key, err)
	}
	buf.Write(v)
	return nil
}

// UnmarshalJSON restores presence flags from the keys present.
func (c *FieldChange) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*c = FieldChange{}
	if v, ok := raw["field"]; ok {
		if err := json.Unmarshal(v, &c.Field); err != nil {
			return fmt.Errorf("field: %w", err)
		}
	}
	if v, ok := raw["before"]; ok {
		c.HasBefore = true
		if err := json.Unmarshal(v, &c.Before); err != nil {
			return fmt.Errorf("before: %w", err)
		}
	}
	if v, ok := raw["after"]; ok {
		c.HasAfter = true
		if err := json.Unmarshal(v, &c.After); err != nil {
			return fmt.Errorf("after: %w", err)
		}
	}
	if v, ok := raw["changed"]; ok && string(v) != "null" {
		var changed bool
		if err := json.Unmarshal(v, &changed); err != nil {
			return fmt.Errorf("changed: %w", err)
		}
		c.Changed = &changed
	}
	return nil
}
