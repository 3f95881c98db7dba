package manager

import "strings"

// FlatEntry is an ephemeral projection node of the Settings tree. Rebuilt on
// every document change; never persisted.
type FlatEntry struct {
	Path      []string
	Value     Value
	Depth     int
	Container bool
}

// Key joins the entry's path with dots for collapse-set membership and
// default lookup.
func (f FlatEntry) Key() string { return PathKey(f.Path) }

// PathKey joins a key path with dots.
func PathKey(path []string) string { return strings.Join(path, ".") }

// SplitPath splits a dotted key path.
func SplitPath(key string) []string {
	if key == "" {
		return nil
	}
	return strings.Split(key, ".")
}

// FlattenSettings projects the configuration object into two flattened
// sequences: the visible one (entries under a collapsed container are
// filtered out) and the full one (collapse ignored). Collapse affects
// visibility only, never logical structure, so adjacent-structural
// computations such as default lookup always use the full sequence.
//
// Keys are visited in document (enumeration) order. A nested object becomes
// a container node immediately followed by its flattened children;
// scalar and array leaves are terminal nodes.
func FlattenSettings(root Value, collapsed map[string]bool) (visible, full []FlatEntry) {
	var walk func(v Value, prefix []string, depth int, hidden bool)
	walk = func(v Value, prefix []string, depth int, hidden bool) {
		for _, key := range v.Keys() {
			child, _ := v.Field(key)
			path := append(append([]string(nil), prefix...), key)
			entry := FlatEntry{
				Path:      path,
				Value:     child,
				Depth:     depth,
				Container: child.Kind() == KindObject,
			}
			full = append(full, entry)
			if !hidden {
				visible = append(visible, entry)
			}
			if entry.Container {
				childHidden := hidden || collapsed[entry.Key()]
				walk(child, path, depth+1, childHidden)
			}
		}
	}
	if root.Kind() == KindObject {
		walk(root, nil, 0, false)
	}
	return visible, full
}

// ClampCursor bounds a cursor index into a list of length n. Shrinking lists
// clamp to the new last index; an empty list clamps to 0. This is the
// continuous invariant re-checked after every mutation.
func ClampCursor(cur, n int) int {
	if n <= 0 {
		return 0
	}
	if cur >= n {
		return n - 1
	}
	if cur < 0 {
		return 0
	}
	return cur
}
