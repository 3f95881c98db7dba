// Package manager implements the document model, schema resolution,
// navigation and editing state machine for ssg-plugin-manager.
package manager

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"
)

// ValueKind is the structural tag of a Value. It is independent of the
// schema-derived FieldKind: ValueKind says what a value is, FieldKind says
// how a key path should be edited.
type ValueKind int

const (
	KindInvalid ValueKind = iota
	KindBool
	KindString
	KindNumber
	KindArray
	KindObject
)

func (k ValueKind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "invalid"
	}
}

// Value is a closed union over the shapes a configuration value can take:
// bool, string, number, array, or object. Objects preserve key order so the
// Settings tree renders in document order.
//
// The zero Value is invalid and marshals to YAML null. All "mutating"
// operations are copy-on-write: they return a new Value and never modify
// containers shared with previous snapshots.
type Value struct {
	kind ValueKind
	b    bool
	s    string
	n    float64
	arr  []Value
	keys []string
	obj  map[string]Value
}

// Bool returns a boolean Value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Str returns a string Value.
func Str(s string) Value { return Value{kind: KindString, s: s} }

// Num returns a numeric Value.
func Num(n float64) Value { return Value{kind: KindNumber, n: n} }

// Arr returns an array Value over the given items.
func Arr(items ...Value) Value {
	return Value{kind: KindArray, arr: items}
}

// StrArr is a convenience constructor for arrays of strings.
func StrArr(items ...string) Value {
	vs := make([]Value, len(items))
	for i, s := range items {
		vs[i] = Str(s)
	}
	return Arr(vs...)
}

// Obj returns an empty object Value.
func Obj() Value {
	return Value{kind: KindObject, obj: map[string]Value{}}
}

func (v Value) Kind() ValueKind { return v.kind }
func (v Value) IsValid() bool   { return v.kind != KindInvalid }

// AsBool returns the boolean payload (false for non-bools).
func (v Value) AsBool() bool { return v.kind == KindBool && v.b }

// AsString returns the string payload ("" for non-strings).
func (v Value) AsString() string {
	if v.kind == KindString {
		return v.s
	}
	return ""
}

// AsNumber returns the numeric payload (0 for non-numbers).
func (v Value) AsNumber() float64 {
	if v.kind == KindNumber {
		return v.n
	}
	return 0
}

// Items returns the array payload. The returned slice must not be mutated.
func (v Value) Items() []Value {
	if v.kind != KindArray {
		return nil
	}
	return v.arr
}

// Len returns the item count for arrays and the key count for objects.
func (v Value) Len() int {
	switch v.kind {
	case KindArray:
		return len(v.arr)
	case KindObject:
		return len(v.keys)
	default:
		return 0
	}
}

// Keys returns the object's keys in document order.
func (v Value) Keys() []string {
	if v.kind != KindObject {
		return nil
	}
	return v.keys
}

// Field looks up a key in an object Value.
func (v Value) Field(key string) (Value, bool) {
	if v.kind != KindObject {
		return Value{}, false
	}
	f, ok := v.obj[key]
	return f, ok
}

// WithField returns a copy of the object with key set to val. New keys are
// appended in insertion order. Calling WithField on a non-object returns a
// fresh single-field object.
func (v Value) WithField(key string, val Value) Value {
	out := Obj()
	if v.kind == KindObject {
		out.keys = append(out.keys, v.keys...)
		for k, f := range v.obj {
			out.obj[k] = f
		}
	}
	if _, exists := out.obj[key]; !exists {
		out.keys = append(out.keys, key)
	}
	out.obj[key] = val
	return out
}

// WithoutField returns a copy of the object with key removed.
func (v Value) WithoutField(key string) Value {
	if v.kind != KindObject {
		return v
	}
	out := Obj()
	for _, k := range v.keys {
		if k == key {
			continue
		}
		out.keys = append(out.keys, k)
		out.obj[k] = v.obj[k]
	}
	return out
}

// WithItem returns a copy of the array with the item at index replaced.
func (v Value) WithItem(index int, val Value) Value {
	if v.kind != KindArray || index < 0 || index >= len(v.arr) {
		return v
	}
	out := make([]Value, len(v.arr))
	copy(out, v.arr)
	out[index] = val
	return Arr(out...)
}

// WithAppended returns a copy of the array with val appended.
func (v Value) WithAppended(val Value) Value {
	var out []Value
	if v.kind == KindArray {
		out = append(out, v.arr...)
	}
	return Arr(append(out, val)...)
}

// WithoutItem returns a copy of the array with the item at index removed.
func (v Value) WithoutItem(index int) Value {
	if v.kind != KindArray || index < 0 || index >= len(v.arr) {
		return v
	}
	out := make([]Value, 0, len(v.arr)-1)
	out = append(out, v.arr[:index]...)
	out = append(out, v.arr[index+1:]...)
	return Arr(out...)
}

// WithSwapped returns a copy of the array with items i and j exchanged.
func (v Value) WithSwapped(i, j int) Value {
	if v.kind != KindArray ||
		i < 0 || i >= len(v.arr) || j < 0 || j >= len(v.arr) {
		return v
	}
	out := make([]Value, len(v.arr))
	copy(out, v.arr)
	out[i], out[j] = out[j], out[i]
	return Arr(out...)
}

// GetPath walks an object tree along path. Missing segments and non-object
// intermediates report ok=false.
func (v Value) GetPath(path []string) (Value, bool) {
	cur := v
	for _, seg := range path {
		next, ok := cur.Field(seg)
		if !ok {
			return Value{}, false
		}
		cur = next
	}
	return cur, true
}

// SetPath returns a copy of the object tree with the value at path replaced.
// Intermediate objects are created when a segment is missing or the existing
// value at that segment is not itself an object (create-if-missing, never
// error-on-missing). Every container along the path is copied.
func (v Value) SetPath(path []string, val Value) Value {
	if len(path) == 0 {
		return val
	}
	root := v
	if root.kind != KindObject {
		root = Obj()
	}
	head := path[0]
	if len(path) == 1 {
		return root.WithField(head, val)
	}
	child, ok := root.Field(head)
	if !ok || child.kind != KindObject {
		child = Obj()
	}
	return root.WithField(head, child.SetPath(path[1:], val))
}

// DeletePath returns a copy of the tree with the key at path removed.
// Missing intermediates leave the tree unchanged.
func (v Value) DeletePath(path []string) Value {
	if len(path) == 0 || v.kind != KindObject {
		return v
	}
	head := path[0]
	if len(path) == 1 {
		return v.WithoutField(head)
	}
	child, ok := v.Field(head)
	if !ok || child.kind != KindObject {
		return v
	}
	return v.WithField(head, child.DeletePath(path[1:]))
}

// Equal reports deep structural equality. Arrays must match element-wise
// with equal length; objects must have equal key sets and recursively equal
// values (key order is not significant). Invalid values equal nothing,
// including other invalid values.
func (v Value) Equal(o Value) bool {
	if v.kind == KindInvalid || o.kind == KindInvalid {
		return false
	}
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindBool:
		return v.b == o.b
	case KindString:
		return v.s == o.s
	case KindNumber:
		return v.n == o.n
	case KindArray:
		if len(v.arr) != len(o.arr) {
			return false
		}
		for i := range v.arr {
			if !v.arr[i].Equal(o.arr[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if len(v.obj) != len(o.obj) {
			return false
		}
		for k, f := range v.obj {
			of, ok := o.obj[k]
			if !ok || !f.Equal(of) {
				return false
			}
		}
		return true
	}
	return false
}

// String renders a compact one-line representation for list rows.
func (v Value) String() string {
	switch v.kind {
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindString:
		return v.s
	case KindNumber:
		return formatNumber(v.n)
	case KindArray:
		parts := make([]string, len(v.arr))
		for i, it := range v.arr {
			parts[i] = it.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindObject:
		if len(v.keys) == 1 {
			return "{1 field}"
		}
		return fmt.Sprintf("{%d fields}", len(v.keys))
	default:
		return ""
	}
}

func formatNumber(n float64) string {
	if n == float64(int64(n)) {
		return strconv.FormatInt(int64(n), 10)
	}
	return strconv.FormatFloat(n, 'g', -1, 64)
}

// JSON renders the value as compact JSON. Unlike String, the output parses
// back to an equal value through ParseScalarText, so it is safe to seed a
// text editor with.
func (v Value) JSON() string {
	switch v.kind {
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindString:
		return strconv.Quote(v.s)
	case KindNumber:
		return formatNumber(v.n)
	case KindArray:
		parts := make([]string, len(v.arr))
		for i, it := range v.arr {
			parts[i] = it.JSON()
		}
		return "[" + strings.Join(parts, ",") + "]"
	case KindObject:
		var b strings.Builder
		b.WriteByte('{')
		for i, k := range v.keys {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(strconv.Quote(k))
			b.WriteByte(':')
			b.WriteString(v.obj[k].JSON())
		}
		b.WriteByte('}')
		return b.String()
	default:
		return "null"
	}
}

// ---------- text coercion ----------

// ParseScalarText applies the canonical commit-coercion rule for free-form
// input: if the text is valid JSON it becomes the corresponding Value
// (bool, number, string, array, object); otherwise it is kept as a literal
// string. An empty string stays an empty string.
func ParseScalarText(text string) Value {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Str(text)
	}
	if !gjson.Valid(trimmed) {
		return Str(text)
	}
	return valueFromJSON(gjson.Parse(trimmed))
}

func valueFromJSON(res gjson.Result) Value {
	switch {
	case res.IsArray():
		var items []Value
		res.ForEach(func(_, item gjson.Result) bool {
			items = append(items, valueFromJSON(item))
			return true
		})
		return Arr(items...)
	case res.IsObject():
		out := Obj()
		res.ForEach(func(key, item gjson.Result) bool {
			out = out.WithField(key.String(), valueFromJSON(item))
			return true
		})
		return out
	}
	switch res.Type {
	case gjson.True:
		return Bool(true)
	case gjson.False:
		return Bool(false)
	case gjson.Number:
		return Num(res.Num)
	case gjson.String:
		return Str(res.String())
	default:
		// JSON null has no representation in the value union; keep the
		// literal text so nothing is silently dropped.
		return Str(res.Raw)
	}
}

// ---------- YAML codec ----------

// UnmarshalYAML decodes a yaml.Node into the value union, preserving object
// key order.
func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	decoded, err := valueFromYAML(node)
	if err != nil {
		return err
	}
	*v = decoded
	return nil
}

func valueFromYAML(node *yaml.Node) (Value, error) {
	switch node.Kind {
	case yaml.AliasNode:
		return valueFromYAML(node.Alias)
	case yaml.ScalarNode:
		switch node.Tag {
		case "!!bool":
			b, err := strconv.ParseBool(strings.ToLower(node.Value))
			if err != nil {
				return Value{}, fmt.Errorf("line %d: bad bool %q", node.Line, node.Value)
			}
			return Bool(b), nil
		case "!!int":
			n, err := strconv.ParseInt(node.Value, 0, 64)
			if err != nil {
				return Value{}, fmt.Errorf("line %d: bad int %q", node.Line, node.Value)
			}
			return Num(float64(n)), nil
		case "!!float":
			n, err := strconv.ParseFloat(node.Value, 64)
			if err != nil {
				return Value{}, fmt.Errorf("line %d: bad float %q", node.Line, node.Value)
			}
			return Num(n), nil
		case "!!null":
			return Value{}, nil
		default:
			return Str(node.Value), nil
		}
	case yaml.SequenceNode:
		items := make([]Value, 0, len(node.Content))
		for _, c := range node.Content {
			item, err := valueFromYAML(c)
			if err != nil {
				return Value{}, err
			}
			items = append(items, item)
		}
		return Arr(items...), nil
	case yaml.MappingNode:
		out := Obj()
		for i := 0; i+1 < len(node.Content); i += 2 {
			key := node.Content[i].Value
			val, err := valueFromYAML(node.Content[i+1])
			if err != nil {
				return Value{}, err
			}
			out = out.WithField(key, val)
		}
		return out, nil
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return Value{}, nil
		}
		return valueFromYAML(node.Content[0])
	}
	return Value{}, fmt.Errorf("unsupported yaml node kind %d", node.Kind)
}

// MarshalYAML encodes the value union back to a yaml.Node, keeping object
// key order.
func (v Value) MarshalYAML() (interface{}, error) {
	return valueToYAML(v), nil
}

func valueToYAML(v Value) *yaml.Node {
	switch v.kind {
	case KindBool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(v.b)}
	case KindString:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v.s}
	case KindNumber:
		tag := "!!float"
		if v.n == float64(int64(v.n)) {
			tag = "!!int"
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: formatNumber(v.n)}
	case KindArray:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range v.arr {
			n.Content = append(n.Content, valueToYAML(item))
		}
		return n
	case KindObject:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, k := range v.keys {
			n.Content = append(n.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k},
				valueToYAML(v.obj[k]))
		}
		return n
	default:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	}
}
