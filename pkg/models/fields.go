package models

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// fields tracks which keys of a loosely-typed JSON object were consumed by a
// coercion so that everything else can be carried along untouched.
type fields struct {
	m    map[string]any
	used map[string]struct{}
}

func newFields(m map[string]any) *fields {
	if m == nil {
		m = map[string]any{}
	}
	return &fields{m: m, used: map[string]struct{}{"type": {}}}
}

func (f *fields) mark(key string) { f.used[key] = struct{}{} }

// take returns the raw value for key and marks it consumed.
func (f *fields) take(key string) (any, bool) {
	v, ok := f.m[key]
	if ok {
		f.mark(key)
	}
	return v, ok
}

// peek returns the first non-empty text among keys without consuming anything.
func (f *fields) peek(keys ...string) string {
	for _, k := range keys {
		if t, ok := scalarText(f.m[k]); ok && t != "" {
			return t
		}
	}
	return ""
}

// str returns the first non-empty text value among keys. Keys holding
// objects are left for the extras.
func (f *fields) str(keys ...string) string {
	for _, k := range keys {
		v, ok := f.m[k]
		if !ok {
			continue
		}
		t, ok := scalarText(v)
		if !ok {
			continue
		}
		f.mark(k)
		if t != "" {
			return t
		}
	}
	return ""
}

// list returns the first array value among keys.
func (f *fields) list(keys ...string) ([]any, bool) {
	for _, k := range keys {
		if arr, ok := f.m[k].([]any); ok {
			f.mark(k)
			return arr, true
		}
	}
	return nil, false
}

// strings collects a list of texts, accepting a single scalar as a one-item
// list. An empty value under one key does not hide a later alias.
func (f *fields) strings(keys ...string) []string {
	for _, k := range keys {
		v, ok := f.m[k]
		if !ok {
			continue
		}
		var out []string
		switch val := v.(type) {
		case []any:
			f.mark(k)
			for _, item := range val {
				if t := itemText(item); t != "" {
					out = append(out, t)
				}
			}
		case string:
			f.mark(k)
			if strings.TrimSpace(val) != "" {
				out = []string{val}
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return []string{}
}

func (f *fields) number(keys ...string) (float64, bool) {
	for _, k := range keys {
		if n, ok := toNumber(f.m[k]); ok {
			f.mark(k)
			return n, true
		}
	}
	return 0, false
}

func (f *fields) object(key string) (map[string]any, bool) {
	m, ok := f.m[key].(map[string]any)
	if ok {
		f.mark(key)
	}
	return m, ok
}

// claim marks canonical output keys as consumed so a leftover raw value can
// never shadow the typed field on encode.
func (f *fields) claim(keys ...string) {
	for _, k := range keys {
		f.mark(k)
	}
}

// text is str with a last resort: the first non-scalar found under any of
// the keys is rendered as JSON rather than lost.
func (f *fields) text(keys ...string) string {
	if t := f.str(keys...); t != "" {
		return t
	}
	for _, k := range keys {
		v, ok := f.m[k]
		if !ok || v == nil {
			continue
		}
		if _, scalar := scalarText(v); scalar {
			continue
		}
		f.mark(k)
		return bestText(v)
	}
	return ""
}

// rest returns the keys nobody consumed, or nil.
func (f *fields) rest() map[string]any {
	var out map[string]any
	for k, v := range f.m {
		if _, ok := f.used[k]; ok {
			continue
		}
		if out == nil {
			out = make(map[string]any)
		}
		out[k] = v
	}
	return out
}

func scalarText(v any) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(val), true
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			t, ok := scalarText(item)
			if !ok {
				return "", false
			}
			if t != "" {
				parts = append(parts, t)
			}
		}
		return strings.Join(parts, "\n\n"), true
	}
	return "", false
}

// itemText renders a list item that may be a plain value or a small object.
func itemText(v any) string {
	if t, ok := scalarText(v); ok {
		return t
	}
	if m, ok := v.(map[string]any); ok {
		return newFields(m).peek("text", "label", "title", "content", "value")
	}
	return ""
}

// bestText is used when a value must become prose no matter what it holds.
func bestText(v any) string {
	if t, ok := scalarText(v); ok {
		return t
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

func toNumber(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(strings.ReplaceAll(val, ",", "")), 64)
		return n, err == nil
	}
	return 0, false
}

func parseTime(v any) (*time.Time, bool) {
	s, ok := v.(string)
	if !ok {
		return nil, false
	}
	t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(s))
	if err != nil {
		return nil, false
	}
	t = t.UTC()
	return &t, true
}

// sortedKeys is used wherever map iteration order would leak into output.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// encodeObject marshals a typed value, stamps its type tag and merges extras
// that do not collide with typed fields.
func encodeObject(kind string, plain any, extra map[string]any) ([]byte, error) {
	b, err := json.Marshal(plain)
	if err != nil {
		return nil, err
	}
	if kind == "" && len(extra) == 0 {
		return b, nil
	}

	obj := map[string]json.RawMessage{}
	if err := json.Unmarshal(b, &obj); err != nil {
		return nil, err
	}
	for k, v := range extra {
		if _, taken := obj[k]; taken {
			continue
		}
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("extra field %q: %w", k, err)
		}
		obj[k] = raw
	}
	if kind != "" {
		tag, err := json.Marshal(kind)
		if err != nil {
			return nil, err
		}
		obj["type"] = tag
	}
	return json.Marshal(obj)
}
