package manager

import (
	"testing"

	"gopkg.in/yaml.v3"
)

func TestParseScalarText(t *testing.T) {
	tests := []struct {
		in   string
		want Value
	}{
		{"true", Bool(true)},
		{"false", Bool(false)},
		{"42", Num(42)},
		{"2.5", Num(2.5)},
		{"hello", Str("hello")},
		{`"quoted"`, Str("quoted")},
		{`["a","b"]`, StrArr("a", "b")},
		{`{"k":1}`, Obj().WithField("k", Num(1))},
		{"#fff", Str("#fff")},
		{"", Str("")},
		{"not json {", Str("not json {")},
	}
	for _, tt := range tests {
		got := ParseScalarText(tt.in)
		if !got.Equal(tt.want) {
			t.Errorf("ParseScalarText(%q) = %v (%s), want %v", tt.in, got.String(), got.Kind(), tt.want.String())
		}
	}
}

func TestSetPathCreatesIntermediates(t *testing.T) {
	root := Obj().WithField("pageTitle", Str("My Site"))
	out := root.SetPath([]string{"theme", "colors", "lightMode", "light"}, Str("#fff"))

	got, ok := out.GetPath([]string{"theme", "colors", "lightMode", "light"})
	if !ok || got.AsString() != "#fff" {
		t.Fatalf("GetPath after SetPath = %v, %v", got, ok)
	}
	if title, ok := out.Field("pageTitle"); !ok || title.AsString() != "My Site" {
		t.Errorf("sibling key lost after SetPath")
	}
}

func TestSetPathCopyOnWrite(t *testing.T) {
	orig := Obj().WithField("a", Obj().WithField("b", Num(1)))
	_ = orig.SetPath([]string{"a", "b"}, Num(2))

	got, _ := orig.GetPath([]string{"a", "b"})
	if got.AsNumber() != 1 {
		t.Fatalf("original mutated: a.b = %v, want 1", got.AsNumber())
	}
}

func TestSetPathReplacesNonObjectIntermediate(t *testing.T) {
	root := Obj().WithField("a", Str("scalar"))
	out := root.SetPath([]string{"a", "b"}, Num(7))
	got, ok := out.GetPath([]string{"a", "b"})
	if !ok || got.AsNumber() != 7 {
		t.Fatalf("SetPath through scalar intermediate = %v, %v", got, ok)
	}
}

func TestWithFieldPreservesKeyOrder(t *testing.T) {
	v := Obj().
		WithField("z", Num(1)).
		WithField("a", Num(2)).
		WithField("m", Num(3))

	want := []string{"z", "a", "m"}
	got := v.Keys()
	if len(got) != len(want) {
		t.Fatalf("Keys() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Keys() = %v, want %v", got, want)
		}
	}

	// Overwriting keeps the key's original position.
	v = v.WithField("a", Num(9))
	if v.Keys()[1] != "a" {
		t.Errorf("overwrite moved key: Keys() = %v", v.Keys())
	}
	if f, _ := v.Field("a"); f.AsNumber() != 9 {
		t.Errorf("overwrite lost value: a = %v", f.AsNumber())
	}
}

func TestDeletePath(t *testing.T) {
	root := Obj().WithField("a", Obj().
		WithField("b", Num(1)).
		WithField("c", Num(2)))

	out := root.DeletePath([]string{"a", "b"})
	if _, ok := out.GetPath([]string{"a", "b"}); ok {
		t.Errorf("a.b still present after DeletePath")
	}
	if got, ok := out.GetPath([]string{"a", "c"}); !ok || got.AsNumber() != 2 {
		t.Errorf("a.c lost after DeletePath")
	}

	// Missing intermediates leave the tree unchanged.
	same := root.DeletePath([]string{"x", "y"})
	if !same.Equal(root) {
		t.Errorf("DeletePath through missing segment changed the tree")
	}
}

func TestArrayOps(t *testing.T) {
	arr := StrArr("a", "b", "c")

	appended := arr.WithAppended(Str("d"))
	if appended.Len() != 4 || appended.Items()[3].AsString() != "d" {
		t.Fatalf("WithAppended = %v", appended.String())
	}
	if arr.Len() != 3 {
		t.Fatalf("WithAppended mutated receiver")
	}

	swapped := appended.WithSwapped(3, 2).WithSwapped(2, 1)
	if got, want := swapped.String(), "[a, d, b, c]"; got != want {
		t.Errorf("after two swaps = %s, want %s", got, want)
	}

	removed := swapped.WithoutItem(0)
	if got, want := removed.String(), "[d, b, c]"; got != want {
		t.Errorf("WithoutItem(0) = %s, want %s", got, want)
	}

	// Out-of-range indices are no-ops.
	if !arr.WithoutItem(9).Equal(arr) || !arr.WithSwapped(0, 9).Equal(arr) {
		t.Errorf("out-of-range array op changed the value")
	}
}

func TestEqual(t *testing.T) {
	if (Value{}).Equal(Value{}) {
		t.Errorf("invalid values must not compare equal")
	}
	if Bool(true).Equal(Str("true")) {
		t.Errorf("kind mismatch compared equal")
	}
	if !StrArr("a", "b").Equal(StrArr("a", "b")) {
		t.Errorf("equal arrays compared unequal")
	}
	if StrArr("a").Equal(StrArr("a", "b")) {
		t.Errorf("length mismatch compared equal")
	}

	// Object equality ignores key order.
	a := Obj().WithField("x", Num(1)).WithField("y", Num(2))
	b := Obj().WithField("y", Num(2)).WithField("x", Num(1))
	if !a.Equal(b) {
		t.Errorf("objects with same fields in different order compared unequal")
	}
}

func TestValueYAMLRoundTrip(t *testing.T) {
	v := Obj().
		WithField("zebra", Str("z")).
		WithField("alpha", Num(1)).
		WithField("nested", Obj().
			WithField("on", Bool(true)).
			WithField("list", StrArr("x", "y")))

	data, err := yaml.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back Value
	if err := yaml.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !back.Equal(v) {
		t.Fatalf("round trip changed value:\n%s", data)
	}

	// Document order survives the trip.
	want := []string{"zebra", "alpha", "nested"}
	for i, k := range back.Keys() {
		if k != want[i] {
			t.Fatalf("key order lost: %v, want %v", back.Keys(), want)
		}
	}
}

func TestValueJSONRoundTrip(t *testing.T) {
	// JSON output must parse back to an equal value through the commit
	// coercion rule, so container values can seed a text editor safely.
	tests := []Value{
		Bool(true),
		Bool(false),
		Num(42),
		Num(2.5),
		Str("plain"),
		Str(""),
		Str(`has "quotes" and [brackets]`),
		StrArr("a", "b"),
		Arr(Num(1), Str("two"), Bool(false)),
		Arr(StrArr("x"), StrArr("y", "z")),
		Obj().WithField("k", Num(1)).WithField("list", StrArr("x", "y")),
		Obj().WithField("nested", Obj().WithField("on", Bool(true))),
	}
	for _, v := range tests {
		got := ParseScalarText(v.JSON())
		if !got.Equal(v) {
			t.Errorf("ParseScalarText(%s) = %v (%s), want the original value", v.JSON(), got.String(), got.Kind())
		}
	}
}

func TestValueString(t *testing.T) {
	tests := []struct {
		v    Value
		want string
	}{
		{Bool(true), "true"},
		{Num(50), "50"},
		{Num(2.5), "2.5"},
		{Str("hi"), "hi"},
		{StrArr("a", "b"), "[a, b]"},
		{Obj().WithField("k", Num(1)), "{1 field}"},
		{Obj().WithField("k", Num(1)).WithField("j", Num(2)), "{2 fields}"},
		{Value{}, ""},
	}
	for _, tt := range tests {
		if got := tt.v.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
