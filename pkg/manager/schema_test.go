package manager

import "testing"

func TestResolveGlobalFieldKind(t *testing.T) {
	tests := []struct {
		path []string
		want FieldKind
	}{
		{[]string{"enableSPA"}, FieldBoolean},
		{[]string{"enablePopovers"}, FieldBoolean},
		{[]string{"theme", "cdnCaching"}, FieldBoolean},
		{[]string{"defaultDateType"}, FieldEnum},
		{[]string{"analytics", "provider"}, FieldEnum},
		{[]string{"ignorePatterns"}, FieldArrayString},
		{[]string{"theme", "colors", "lightMode", "light"}, FieldColor},
		{[]string{"theme", "colors", "darkMode", "secondary"}, FieldColor},
		{[]string{"theme", "colors", "lightMode"}, FieldText},
		{[]string{"theme", "colors", "noSuchMode", "light"}, FieldText},
		{[]string{"pageTitle"}, FieldText},
		{[]string{"baseUrl"}, FieldText},
	}
	for _, tt := range tests {
		got, _ := ResolveGlobalFieldKind(tt.path)
		if got != tt.want {
			t.Errorf("ResolveGlobalFieldKind(%v) = %s, want %s", tt.path, got, tt.want)
		}
		// Resolution is a pure function of the path.
		again, _ := ResolveGlobalFieldKind(tt.path)
		if again != got {
			t.Errorf("ResolveGlobalFieldKind(%v) not stable: %s then %s", tt.path, got, again)
		}
	}
}

func TestResolveGlobalFieldKindEnumValues(t *testing.T) {
	kind, values := ResolveGlobalFieldKind([]string{"defaultDateType"})
	if kind != FieldEnum {
		t.Fatalf("kind = %s, want enum", kind)
	}
	want := []string{"created", "modified", "published"}
	if len(values) != len(want) {
		t.Fatalf("values = %v, want %v", values, want)
	}
	for i := range want {
		if values[i] != want[i] {
			t.Fatalf("values = %v, want %v", values, want)
		}
	}
}

func TestResolvePluginOptionKind(t *testing.T) {
	m := &Manifest{
		OptionSchema: map[string]OptionSchema{
			"mode": {Type: "enum", Values: []string{"fast", "full"}},
			"targets": {Type: "array", Items: &OptionSchema{
				Type: "enum", Values: []string{"html", "rss"},
			}},
		},
	}

	if kind, values, ok := ResolvePluginOptionKind(m, "mode"); !ok || kind != FieldEnum || len(values) != 2 {
		t.Errorf("mode resolved to %s/%v/%v", kind, values, ok)
	}
	if kind, values, ok := ResolvePluginOptionKind(m, "targets"); !ok || kind != FieldArrayEnum || len(values) != 2 {
		t.Errorf("targets resolved to %s/%v/%v", kind, values, ok)
	}
	if _, _, ok := ResolvePluginOptionKind(m, "unknown"); ok {
		t.Errorf("unknown option key must not resolve")
	}
	if _, _, ok := ResolvePluginOptionKind(nil, "mode"); ok {
		t.Errorf("nil manifest must not resolve")
	}
}

func TestStructuralFieldKind(t *testing.T) {
	tests := []struct {
		v    Value
		want FieldKind
	}{
		{Bool(true), FieldBoolean},
		{StrArr("a"), FieldArrayString},
		{Obj(), FieldObject},
		{Str("x"), FieldText},
		{Num(1), FieldText},
		{Value{}, FieldText},
	}
	for _, tt := range tests {
		if got := StructuralFieldKind(tt.v); got != tt.want {
			t.Errorf("StructuralFieldKind(%s) = %s, want %s", tt.v.Kind(), got, tt.want)
		}
	}
}

func TestValidColor(t *testing.T) {
	valid := []string{
		"#fff",
		"#faf8f8",
		"#faf8f8aa",
		"  #2b2b2b  ",
		"rgba(143, 159, 169, 0.15)",
		"hsl(200, 50%, 50%)",
		"color-mix(in srgb, red, blue)",
	}
	for _, s := range valid {
		if !ValidColor(s) {
			t.Errorf("ValidColor(%q) = false, want true", s)
		}
	}

	invalid := []string{
		"",
		"red",
		"#ff",
		"#ffff",
		"#fffff",
		"#ggg",
		"#faf8f8zz",
		"(no-name)",
		"#2b2b2b extra",
	}
	for _, s := range invalid {
		if ValidColor(s) {
			t.Errorf("ValidColor(%q) = true, want false", s)
		}
	}
}

func TestSwatchHex(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"#faf8f8", "#faf8f8"},
		{"#FAF8F8", "#faf8f8"},
		{"#faf8f8aa", "#faf8f8"},
		{"rgba(0,0,0,0.5)", ""},
		{"nonsense", ""},
	}
	for _, tt := range tests {
		if got := SwatchHex(tt.in); got != tt.want {
			t.Errorf("SwatchHex(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
