package manager

import "testing"

func TestDefaultDocumentParses(t *testing.T) {
	doc := DefaultDocument()
	if doc == nil {
		t.Fatal("shipped default document failed to parse")
	}
	if doc.Configuration.Kind() != KindObject {
		t.Fatalf("default configuration is %s, want object", doc.Configuration.Kind())
	}
	if len(doc.Plugins) == 0 {
		t.Errorf("default document has no plugins")
	}

	// The returned copy must not alias the shared parse.
	doc.Plugins[0].Source = "mutated"
	if DefaultDocument().Plugins[0].Source == "mutated" {
		t.Errorf("DefaultDocument() aliases the shared parse")
	}
}

func TestLookupDefault(t *testing.T) {
	v, ok := LookupDefault([]string{"enableSPA"})
	if !ok || !v.AsBool() {
		t.Errorf("enableSPA default = %v, %v; want true", v, ok)
	}
	v, ok = LookupDefault([]string{"theme", "colors", "lightMode", "light"})
	if !ok || v.AsString() != "#faf8f8" {
		t.Errorf("lightMode.light default = %v, %v", v, ok)
	}
	if _, ok := LookupDefault([]string{"no", "such", "key"}); ok {
		t.Errorf("undefined default resolved")
	}
}

func TestIsAtDefault(t *testing.T) {
	def, _ := LookupDefault([]string{"defaultDateType"})
	if !IsAtDefault(Str("created"), def) {
		t.Errorf("created should equal its default")
	}
	if IsAtDefault(Str("modified"), def) {
		t.Errorf("modified should differ from default created")
	}
	// An undefined default never counts as equal.
	if IsAtDefault(Str("anything"), Value{}) {
		t.Errorf("invalid default compared equal")
	}
}

func TestNewMinimalDocument(t *testing.T) {
	doc := NewMinimalDocument()
	if got, _ := doc.Configuration.Field("enableSPA"); !got.AsBool() {
		t.Errorf("minimal enableSPA = %v, want true", got)
	}
	if got, _ := doc.Configuration.Field("defaultDateType"); got.AsString() != "created" {
		t.Errorf("minimal defaultDateType = %q", got.AsString())
	}
	if got, ok := doc.Configuration.Field("ignorePatterns"); !ok || got.Kind() != KindArray || got.Len() != 0 {
		t.Errorf("minimal ignorePatterns = %v, want empty array", got)
	}
	if len(doc.Plugins) != 0 {
		t.Errorf("minimal document declares plugins")
	}
}

func TestDefaultLayoutOverrides(t *testing.T) {
	doc := DefaultDocument()
	ov, ok := doc.Layout.ByPageType["list"]
	if !ok {
		t.Fatal("default document missing list page override")
	}
	if len(ov.Exclude) != 1 || ov.Exclude[0] != "backlinks" {
		t.Errorf("list exclude = %v", ov.Exclude)
	}
	if !ov.Positions["right"].Clear {
		t.Errorf("list right position should be a clear marker: %+v", ov.Positions["right"])
	}
}
