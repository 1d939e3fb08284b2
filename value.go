package uci

import (
	"encoding/json"
	"slices"
	"strings"
)

// Value is the payload of an option: a single string or an ordered list of strings.
// The zero Value is the empty scalar.
type Value struct {
	list   []string
	isList bool
	scalar string
}

// Scalar returns a single-string Value.
func Scalar(s string) Value {
	return Value{scalar: s}
}

// List returns a list Value holding a copy of items in order.
func List(items ...string) Value {
	return Value{list: slices.Clone(items), isList: true}
}

// IsList reports whether v is a list.
func (v Value) IsList() bool {
	return v.isList
}

// String returns the scalar, or the list items joined by a single space.
func (v Value) String() string {
	if v.isList {
		return strings.Join(v.list, " ")
	}

	return v.scalar
}

// Strings returns the list items, or a one-element slice holding the scalar.
func (v Value) Strings() []string {
	if v.isList {
		return slices.Clone(v.list)
	}

	return []string{v.scalar}
}

// Len is the number of list items, or 1 for a scalar.
func (v Value) Len() int {
	if v.isList {
		return len(v.list)
	}

	return 1
}

// Equal reports whether both values have the same shape and contents.
func (v Value) Equal(other Value) bool {
	if v.isList != other.isList {
		return false
	}

	if v.isList {
		return slices.Equal(v.list, other.list)
	}

	return v.scalar == other.scalar
}

// MarshalJSON encodes a scalar as a JSON string and a list as an array of strings.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.isList {
		return json.Marshal(v.list) //nolint:wrapcheck
	}

	return json.Marshal(v.scalar) //nolint:wrapcheck
}

// UnmarshalJSON accepts either a JSON string or an array of strings.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err //nolint:wrapcheck
	}

	val, err := ValueOf(raw)
	if err != nil {
		return err
	}

	*v = val

	return nil
}

// Plain returns the value as a string or a []string.
func (v Value) Plain() any {
	if v.isList {
		return slices.Clone(v.list)
	}

	return v.scalar
}

// ValueOf converts a host value into a Value. Strings become scalars; []string,
// []any of strings and Value pass through as lists or as-is. Anything else is
// an unsupported_type error.
func ValueOf(data any) (Value, error) {
	switch typed := data.(type) {
	case Value:
		return typed, nil
	case string:
		return Scalar(typed), nil
	case []string:
		return List(typed...), nil
	case []any:
		items := make([]string, 0, len(typed))

		for i, item := range typed {
			s, ok := item.(string)
			if !ok {
				return Value{}, newError(KindUnsupportedType, "list item %d has type %T, want string", i, item)
			}

			items = append(items, s)
		}

		return List(items...), nil
	default:
		return Value{}, newError(KindUnsupportedType, "unsupported value type %T", data)
	}
}
