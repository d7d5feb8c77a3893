// Package vmdl defines the core data structures for VMDL parsing.
package vmdl

import (
	"sort"
	"strings"
)

// Kind identifies which variant a Value holds.
type Kind uint8

const (
	// KindInvalid is the kind of the zero Value.
	KindInvalid Kind = iota
	// KindLeaf is a plain string payload.
	KindLeaf
	// KindContainer is a mapping from keys to nested values.
	KindContainer
)

func (k Kind) String() string {
	switch k {
	case KindLeaf:
		return "leaf"
	case KindContainer:
		return "container"
	default:
		return "invalid"
	}
}

// Value represents any VMDL value: either a leaf string or a container of
// nested values keyed by name.
type Value struct {
	kind     Kind
	leaf     string
	children map[string]Value
}

// Leaf returns a leaf Value holding s.
func Leaf(s string) Value {
	return Value{kind: KindLeaf, leaf: s}
}

// Container returns a container Value that takes ownership of children.
func Container(children map[string]Value) Value {
	if children == nil {
		children = make(map[string]Value)
	}
	return Value{kind: KindContainer, children: children}
}

// NewContainer returns an empty container Value.
func NewContainer() Value {
	return Container(nil)
}

// Kind reports which variant v holds.
func (v Value) Kind() Kind { return v.kind }

// IsLeaf reports whether v is a leaf.
func (v Value) IsLeaf() bool { return v.kind == KindLeaf }

// IsContainer reports whether v is a container.
func (v Value) IsContainer() bool { return v.kind == KindContainer }

// AsString returns the payload of a leaf. Containers are never coerced.
func (v Value) AsString() (string, bool) {
	if v.kind != KindLeaf {
		return "", false
	}
	return v.leaf, true
}

// AsContainer returns the children of a container.
func (v Value) AsContainer() (map[string]Value, bool) {
	if v.kind != KindContainer {
		return nil, false
	}
	return v.children, true
}

// Get looks up key among the direct children of a container.
func (v Value) Get(key string) (Value, bool) {
	if v.kind != KindContainer {
		return Value{}, false
	}
	child, ok := v.children[key]
	return child, ok
}

// GetString returns the leaf stored under key.
func (v Value) GetString(key string) (string, bool) {
	child, ok := v.Get(key)
	if !ok {
		return "", false
	}
	return child.AsString()
}

// GetContainer returns the children of the container stored under key.
func (v Value) GetContainer(key string) (map[string]Value, bool) {
	child, ok := v.Get(key)
	if !ok {
		return nil, false
	}
	return child.AsContainer()
}

// Lookup follows a dotted key-path such as "Environments.Staging.Route".
func (v Value) Lookup(path string) (Value, bool) {
	cur := v
	for _, segment := range strings.Split(path, ".") {
		next, ok := cur.Get(segment)
		if !ok {
			return Value{}, false
		}
		cur = next
	}
	return cur, true
}

// Keys returns the child keys of a container in sorted order.
func (v Value) Keys() []string {
	if v.kind != KindContainer {
		return nil
	}
	keys := make([]string, 0, len(v.children))
	for k := range v.children {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Equal compares leaf payloads and container shapes recursively.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindLeaf:
		return v.leaf == other.leaf
	case KindContainer:
		if len(v.children) != len(other.children) {
			return false
		}
		for k, child := range v.children {
			o, ok := other.children[k]
			if !ok || !child.Equal(o) {
				return false
			}
		}
	}
	return true
}

// String renders a leaf verbatim and a container as an opaque placeholder.
func (v Value) String() string {
	switch v.kind {
	case KindLeaf:
		return v.leaf
	case KindContainer:
		return "<Object>"
	default:
		return "<invalid>"
	}
}

// toAny converts v into plain Go values (string and map[string]any).
func (v Value) toAny() any {
	switch v.kind {
	case KindLeaf:
		return v.leaf
	case KindContainer:
		m := make(map[string]any, len(v.children))
		for k, child := range v.children {
			m[k] = child.toAny()
		}
		return m
	default:
		return nil
	}
}
