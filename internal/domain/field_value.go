package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// ValueKind tags which variant a FieldValue holds.
type ValueKind uint8

const (
	KindNull ValueKind = iota
	KindScalar
	KindList
)

func (k ValueKind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindList:
		return "list"
	default:
		return "null"
	}
}

// FieldValue holds a profile field: null, a single string, or an ordered list of strings.
// The zero value is null.
type FieldValue struct {
	kind   ValueKind
	scalar string
	list   []string
}

// Null returns the absent value.
func Null() FieldValue {
	return FieldValue{}
}

// Scalar returns a single-string value.
func Scalar(s string) FieldValue {
	return FieldValue{kind: KindScalar, scalar: s}
}

// List returns a list value holding a copy of items.
func List(items ...string) FieldValue {
	cp := make([]string, len(items))
	copy(cp, items)
	return FieldValue{kind: KindList, list: cp}
}

func (v FieldValue) Kind() ValueKind { return v.kind }

func (v FieldValue) IsNull() bool { return v.kind == KindNull }

// IsEmpty reports scalar emptiness only: null or "". An empty list is not empty.
func (v FieldValue) IsEmpty() bool {
	return v.kind == KindNull || (v.kind == KindScalar && v.scalar == "")
}

// Items returns a copy of the list items, or nil for non-list values.
func (v FieldValue) Items() []string {
	if v.kind != KindList {
		return nil
	}
	cp := make([]string, len(v.list))
	copy(cp, v.list)
	return cp
}

func (v FieldValue) String() string {
	switch v.kind {
	case KindScalar:
		return v.scalar
	case KindList:
		return strings.Join(v.list, ", ")
	default:
		return ""
	}
}

func (v FieldValue) Equal(o FieldValue) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindScalar:
		return v.scalar == o.scalar
	case KindList:
		if len(v.list) != len(o.list) {
			return false
		}
		for i := range v.list {
			if v.list[i] != o.list[i] {
				return false
			}
		}
	}
	return true
}

func (v FieldValue) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindScalar:
		return json.Marshal(v.scalar)
	case KindList:
		if v.list == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.list)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts any JSON value. Strings become scalars, arrays become lists,
// null becomes null and anything else is kept as its textual form.
func (v *FieldValue) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("invalid field value: %w", err)
	}

	*v = valueFromAny(raw)
	return nil
}

func valueFromAny(raw any) FieldValue {
	switch typed := raw.(type) {
	case nil:
		return Null()
	case string:
		return Scalar(typed)
	case []any:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, textOf(item))
		}
		return FieldValue{kind: KindList, list: items}
	default:
		return Scalar(textOf(typed))
	}
}

func textOf(raw any) string {
	switch typed := raw.(type) {
	case nil:
		return ""
	case string:
		return typed
	case json.Number:
		return typed.String()
	case bool:
		if typed {
			return "true"
		}
		return "false"
	default:
		encoded, err := json.Marshal(typed)
		if err != nil {
			return fmt.Sprintf("%v", typed)
		}
		return string(encoded)
	}
}
