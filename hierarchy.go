package vmdl

import (
	"sort"
	"strings"
)

// buildHierarchy turns a flat mapping of dotted paths into a tree. Paths are
// visited in sorted order so a prefix is always seen before its descendants.
func buildHierarchy(flat map[string]string) (Value, error) {
	paths := make([]string, 0, len(flat))
	for path := range flat {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	root := make(map[string]Value)
	for _, path := range paths {
		if err := insertPath(root, path, flat[path]); err != nil {
			return Value{}, err
		}
	}
	return Container(root), nil
}

// insertPath places value at path below root, creating containers on the way.
func insertPath(root map[string]Value, path, value string) error {
	parts := strings.Split(path, ".")
	current := root

	for i, part := range parts[:len(parts)-1] {
		child, ok := current[part]
		if !ok {
			child = NewContainer()
			current[part] = child
		}
		if !child.IsContainer() {
			return keyConflict(strings.Join(parts[:i+1], "."))
		}
		current = child.children
	}

	last := parts[len(parts)-1]
	existing, exists := current[last]

	// An empty value only declares an object; the container appears once
	// something is written beneath it.
	if value == "" {
		return nil
	}
	if exists && existing.IsContainer() {
		return keyConflict(path)
	}
	current[last] = Leaf(value)
	return nil
}
