package manager

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"
)

// Installed-plugin state lives under the site's plugins directory:
//
//	plugins/<name>/plugin.json  manifest (display name, categories, options)
//	plugins/<name>/.commit      currently checked-out commit
//	plugins/lock.json           resolved source+commit per plugin at install
//
// All reads here are best-effort: a missing or malformed file yields nil,
// never an error. The UI treats "no manifest" as "not installed".

// Manifest is the plugin-declared metadata read from plugin.json.
type Manifest struct {
	DisplayName    string
	Categories     []string
	DefaultOptions Value
	OptionSchema   map[string]OptionSchema
	Components     []string
}

// OptionSchema declares the editor shape of one plugin option. Supported
// forms are enum and array-of-enum; anything else is absent from the schema
// and edited by runtime type inspection.
type OptionSchema struct {
	Type   string // "enum" | "array"
	Values []string
	Items  *OptionSchema
}

// LockRecord is the persisted install record for one plugin.
type LockRecord struct {
	Source string
	Commit string
}

// PluginStateReader exposes installed-plugin state to the enrichment join.
// Implementations are queried once per Document Store snapshot per plugin.
type PluginStateReader interface {
	Manifest(name string) *Manifest
	Lock(name string) *LockRecord
	CurrentCommit(name string) string
}

// ReadManifest parses plugin.json in dir. Returns nil when the file is
// missing or not valid JSON.
func ReadManifest(dir string) *Manifest {
	data, err := os.ReadFile(filepath.Join(dir, "plugin.json"))
	if err != nil || !gjson.ValidBytes(data) {
		return nil
	}
	doc := gjson.ParseBytes(data)

	m := &Manifest{
		DisplayName: doc.Get("displayName").String(),
	}

	// category may be a single string or an array of strings.
	cat := doc.Get("category")
	switch {
	case cat.IsArray():
		cat.ForEach(func(_, item gjson.Result) bool {
			if s := strings.TrimSpace(item.String()); s != "" {
				m.Categories = append(m.Categories, s)
			}
			return true
		})
	case cat.Type == gjson.String:
		if s := strings.TrimSpace(cat.String()); s != "" {
			m.Categories = []string{s}
		}
	}

	if opts := doc.Get("defaultOptions"); opts.IsObject() {
		m.DefaultOptions = valueFromJSON(opts)
	}

	if schema := doc.Get("optionSchema"); schema.IsObject() {
		m.OptionSchema = map[string]OptionSchema{}
		schema.ForEach(func(key, entry gjson.Result) bool {
			if os, ok := optionSchemaFromJSON(entry); ok {
				m.OptionSchema[key.String()] = os
			}
			return true
		})
	}

	if comps := doc.Get("components"); comps.IsArray() {
		comps.ForEach(func(_, item gjson.Result) bool {
			m.Components = append(m.Components, item.String())
			return true
		})
	}

	return m
}

func optionSchemaFromJSON(entry gjson.Result) (OptionSchema, bool) {
	typ := entry.Get("type").String()
	switch typ {
	case "enum":
		var values []string
		entry.Get("values").ForEach(func(_, v gjson.Result) bool {
			values = append(values, v.String())
			return true
		})
		if len(values) == 0 {
			return OptionSchema{}, false
		}
		return OptionSchema{Type: "enum", Values: values}, true
	case "array":
		items, ok := optionSchemaFromJSON(entry.Get("items"))
		if !ok || items.Type != "enum" {
			return OptionSchema{}, false
		}
		return OptionSchema{Type: "array", Items: &items}, true
	default:
		return OptionSchema{}, false
	}
}

// ReadLockFile parses plugins/lock.json into a name -> record map. Missing
// or malformed files yield an empty map.
func ReadLockFile(path string) map[string]LockRecord {
	out := map[string]LockRecord{}
	data, err := os.ReadFile(path)
	if err != nil || !gjson.ValidBytes(data) {
		return out
	}
	gjson.ParseBytes(data).ForEach(func(key, entry gjson.Result) bool {
		out[key.String()] = LockRecord{
			Source: entry.Get("source").String(),
			Commit: entry.Get("commit").String(),
		}
		return true
	})
	return out
}

// DirPluginState reads installed-plugin state from a plugins directory.
type DirPluginState struct {
	Root string

	lock map[string]LockRecord
}

// NewDirPluginState creates a reader rooted at the given plugins directory,
// loading the lock file once.
func NewDirPluginState(root string) *DirPluginState {
	return &DirPluginState{
		Root: root,
		lock: ReadLockFile(filepath.Join(root, "lock.json")),
	}
}

// Manifest implements PluginStateReader.
func (d *DirPluginState) Manifest(name string) *Manifest {
	if name == "" {
		return nil
	}
	return ReadManifest(filepath.Join(d.Root, name))
}

// Lock implements PluginStateReader.
func (d *DirPluginState) Lock(name string) *LockRecord {
	if rec, ok := d.lock[name]; ok {
		return &rec
	}
	return nil
}

// CurrentCommit implements PluginStateReader. Reads the .commit marker left
// by the installer; empty when absent.
func (d *DirPluginState) CurrentCommit(name string) string {
	if name == "" {
		return ""
	}
	data, err := os.ReadFile(filepath.Join(d.Root, name, ".commit"))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
