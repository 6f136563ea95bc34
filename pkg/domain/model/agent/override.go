package agent

import (
	"bytes"
	"encoding/json"
)

// Override is an optional replacement value on an extension. The zero value
// inherits from the base; Set(v) overrides it, even when v is empty.
type Override[T any] struct {
	value T
	set   bool
}

// Set returns an override carrying v
func Set[T any](v T) Override[T] {
	return Override[T]{value: v, set: true}
}

// Inherit returns an override that keeps the current value
func Inherit[T any]() Override[T] {
	return Override[T]{}
}

// Get returns the override value and whether it is set
func (o Override[T]) Get() (T, bool) {
	return o.value, o.set
}

// IsSet reports whether the override carries a value
func (o Override[T]) IsSet() bool {
	return o.set
}

// MarshalJSON encodes an unset override as null
func (o Override[T]) MarshalJSON() ([]byte, error) {
	if !o.set {
		return []byte("null"), nil
	}
	return json.Marshal(o.value)
}

// UnmarshalJSON decodes null as inherit and anything else as a set value
func (o *Override[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*o = Override[T]{}
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = Set(v)
	return nil
}
