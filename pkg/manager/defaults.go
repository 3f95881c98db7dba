package manager

import (
	_ "embed"
	"sync"

	"gopkg.in/yaml.v3"
)

// The shipped default document. It seeds first-run setup and is the
// comparison source for the default-diff engine.
//
//go:embed defaults.yaml
var defaultDocumentYAML []byte

var (
	defaultOnce sync.Once
	defaultDoc  *ConfigDocument
)

// DefaultDocument returns the shipped default document, or nil when the
// embedded copy cannot be parsed. The returned document is cloned so callers
// can adopt it without aliasing the shared parse.
func DefaultDocument() *ConfigDocument {
	doc := defaultDocument()
	if doc == nil {
		return nil
	}
	return doc.Clone()
}

// NewMinimalDocument builds the first-run alternative to the shipped
// defaults: a fixed baseline of global settings with empty plugin and layout
// collections.
func NewMinimalDocument() *ConfigDocument {
	cfg := Obj().
		WithField("pageTitle", Str("My Site")).
		WithField("enableSPA", Bool(true)).
		WithField("enablePopovers", Bool(true)).
		WithField("defaultDateType", Str("created")).
		WithField("ignorePatterns", StrArr())
	return &ConfigDocument{
		Configuration: cfg,
		Plugins:       nil,
		Layout:        LayoutConfig{},
	}
}

// LookupDefault resolves the shipped default value at a global configuration
// key path. ok is false when the path has no default.
func LookupDefault(path []string) (Value, bool) {
	doc := defaultDocument()
	if doc == nil {
		return Value{}, false
	}
	return doc.Configuration.GetPath(path)
}

// IsAtDefault reports whether a live value deeply equals its shipped
// default. An undefined default never counts as equal to anything.
func IsAtDefault(v, def Value) bool {
	if !def.IsValid() {
		return false
	}
	return v.Equal(def)
}

// defaultDocument returns the shared parse without cloning; internal use
// only, callers must not mutate.
func defaultDocument() *ConfigDocument {
	defaultOnce.Do(func() {
		var doc ConfigDocument
		if err := yaml.Unmarshal(defaultDocumentYAML, &doc); err != nil {
			return
		}
		defaultDoc = &doc
	})
	return defaultDoc
}
