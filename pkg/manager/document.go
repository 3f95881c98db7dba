package manager

import (
	"errors"
	"fmt"
)

// ErrDocumentNotFound is returned when no configuration document exists.
// Callers route it to first-run setup, not to the user as an error.
var ErrDocumentNotFound = errors.New("configuration document not found")

// ConfigDocument is the root aggregate: global settings, the ordered plugin
// list, and layout configuration.
type ConfigDocument struct {
	Configuration Value         `yaml:"configuration"`
	Plugins       []PluginEntry `yaml:"plugins"`
	Layout        LayoutConfig  `yaml:"layout"`
}

// Clone returns a deep-enough copy for snapshot handoff: the plugin slice is
// copied, Value trees are already copy-on-write.
func (d *ConfigDocument) Clone() *ConfigDocument {
	out := &ConfigDocument{
		Configuration: d.Configuration,
		Plugins:       append([]PluginEntry(nil), d.Plugins...),
		Layout:        d.Layout,
	}
	return out
}

// Persistence loads and rewrites the whole document; there is no incremental
// patching. Load returns ErrDocumentNotFound when no document exists yet.
type Persistence interface {
	Load() (*ConfigDocument, error)
	Save(doc *ConfigDocument) error
}

// DocumentStore owns the canonical in-memory document for the process
// lifetime. All mutations are synchronous read-modify-write against the full
// tree followed by an immediate persistence request. A failed persist leaves
// the in-memory copy ahead of disk and surfaces the error without reverting,
// since the UI already reflects the change.
type DocumentStore struct {
	persist Persistence
	state   PluginStateReader

	doc      *ConfigDocument
	enriched []EnrichedPlugin
}

// NewDocumentStore creates a store over the given persistence and installed
// state reader (which may be nil).
func NewDocumentStore(persist Persistence, state PluginStateReader) *DocumentStore {
	return &DocumentStore{persist: persist, state: state}
}

// Load (re)reads the document from persistence and recomputes the enriched
// snapshot. ErrDocumentNotFound passes through for first-run handling.
func (s *DocumentStore) Load() error {
	doc, err := s.persist.Load()
	if err != nil {
		return err
	}
	if doc.Configuration.Kind() != KindObject {
		doc.Configuration = Obj()
	}
	s.doc = doc
	s.refresh()
	return nil
}

// Adopt installs the given document as the canonical one (first-run setup:
// shipped default or minimal empty document) and persists it.
func (s *DocumentStore) Adopt(doc *ConfigDocument) error {
	if doc.Configuration.Kind() != KindObject {
		doc.Configuration = Obj()
	}
	s.doc = doc.Clone()
	s.refresh()
	return s.Persist()
}

// Loaded reports whether a document is held.
func (s *DocumentStore) Loaded() bool { return s.doc != nil }

// Document returns the canonical document. Callers must treat nested Values
// as immutable.
func (s *DocumentStore) Document() *ConfigDocument { return s.doc }

// Enriched returns the current snapshot's enriched plugin list. Valid until
// the next mutation or reload; derived indices must be recomputed by name
// lookup across reloads, never cached as raw integers.
func (s *DocumentStore) Enriched() []EnrichedPlugin { return s.enriched }

// PluginIndexByName resolves a plugin's current position by identity.
// Returns -1 when absent.
func (s *DocumentStore) PluginIndexByName(name string) int {
	for _, e := range s.enriched {
		if e.Name == name {
			return e.Index
		}
	}
	return -1
}

// GetAtPath reads a value from the global configuration tree.
func (s *DocumentStore) GetAtPath(path []string) (Value, bool) {
	if s.doc == nil {
		return Value{}, false
	}
	return s.doc.Configuration.GetPath(path)
}

// SetAtPath writes a value into the global configuration tree, creating
// intermediate objects as needed, then persists.
func (s *DocumentStore) SetAtPath(path []string, v Value) error {
	if s.doc == nil {
		return ErrDocumentNotFound
	}
	s.doc.Configuration = s.doc.Configuration.SetPath(path, v)
	s.refresh()
	return s.Persist()
}

// DeleteAtPath removes a key from the global configuration tree.
func (s *DocumentStore) DeleteAtPath(path []string) error {
	if s.doc == nil {
		return ErrDocumentNotFound
	}
	s.doc.Configuration = s.doc.Configuration.DeletePath(path)
	s.refresh()
	return s.Persist()
}

// ReplacePluginList swaps the whole plugin sequence.
func (s *DocumentStore) ReplacePluginList(list []PluginEntry) error {
	if s.doc == nil {
		return ErrDocumentNotFound
	}
	s.doc.Plugins = append([]PluginEntry(nil), list...)
	s.refresh()
	return s.Persist()
}

// InsertPlugin appends an entry to the declared list.
func (s *DocumentStore) InsertPlugin(entry PluginEntry) error {
	if s.doc == nil {
		return ErrDocumentNotFound
	}
	s.doc.Plugins = append(s.doc.Plugins, entry)
	s.refresh()
	return s.Persist()
}

// RemovePluginAt removes the entry at index from the top-level sequence.
// Layout overrides referencing the removed plugin are left in place; stale
// references simply have no effect at view time.
func (s *DocumentStore) RemovePluginAt(index int) error {
	if s.doc == nil {
		return ErrDocumentNotFound
	}
	if index < 0 || index >= len(s.doc.Plugins) {
		return fmt.Errorf("plugin index %d out of range", index)
	}
	s.doc.Plugins = append(s.doc.Plugins[:index:index], s.doc.Plugins[index+1:]...)
	s.refresh()
	return s.Persist()
}

// MovePlugin relocates the entry at from to position to, shifting the rest.
func (s *DocumentStore) MovePlugin(from, to int) error {
	if s.doc == nil {
		return ErrDocumentNotFound
	}
	n := len(s.doc.Plugins)
	if from < 0 || from >= n || to < 0 || to >= n {
		return fmt.Errorf("plugin move %d -> %d out of range", from, to)
	}
	if from == to {
		return nil
	}
	list := append([]PluginEntry(nil), s.doc.Plugins...)
	entry := list[from]
	list = append(list[:from], list[from+1:]...)
	rest := append([]PluginEntry(nil), list[to:]...)
	list = append(append(list[:to:to], entry), rest...)
	s.doc.Plugins = list
	s.refresh()
	return s.Persist()
}

// UpdatePlugin applies fn to the entry at index and persists the result.
func (s *DocumentStore) UpdatePlugin(index int, fn func(PluginEntry) PluginEntry) error {
	if s.doc == nil {
		return ErrDocumentNotFound
	}
	if index < 0 || index >= len(s.doc.Plugins) {
		return fmt.Errorf("plugin index %d out of range", index)
	}
	s.doc.Plugins[index] = fn(s.doc.Plugins[index])
	s.refresh()
	return s.Persist()
}

// GetPluginOption reads a path within the plugin's options object.
func (s *DocumentStore) GetPluginOption(index int, path []string) (Value, bool) {
	if s.doc == nil || index < 0 || index >= len(s.doc.Plugins) {
		return Value{}, false
	}
	return s.doc.Plugins[index].Options.GetPath(path)
}

// SetPluginOption writes a path within the plugin's options object.
func (s *DocumentStore) SetPluginOption(index int, path []string, v Value) error {
	return s.UpdatePlugin(index, func(p PluginEntry) PluginEntry {
		if p.Options.Kind() != KindObject {
			p.Options = Obj()
		}
		p.Options = p.Options.SetPath(path, v)
		return p
	})
}

// DeletePluginOption removes a key within the plugin's options object.
func (s *DocumentStore) DeletePluginOption(index int, path []string) error {
	return s.UpdatePlugin(index, func(p PluginEntry) PluginEntry {
		p.Options = p.Options.DeletePath(path)
		return p
	})
}

// SetPageOverride writes a page-type override block and persists.
func (s *DocumentStore) SetPageOverride(pageType string, ov PageOverride) error {
	if s.doc == nil {
		return ErrDocumentNotFound
	}
	if s.doc.Layout.ByPageType == nil {
		s.doc.Layout.ByPageType = map[string]PageOverride{}
	}
	s.doc.Layout.ByPageType[pageType] = ov
	s.refresh()
	return s.Persist()
}

// Persist requests a full rewrite of the document.
func (s *DocumentStore) Persist() error {
	if s.doc == nil {
		return ErrDocumentNotFound
	}
	if err := s.persist.Save(s.doc); err != nil {
		return fmt.Errorf("persist document: %w", err)
	}
	return nil
}

// refresh recomputes the derived enriched snapshot. Called after every
// mutation and load; EnrichedPlugin lifetimes never cross a refresh.
func (s *DocumentStore) refresh() {
	if s.doc == nil {
		s.enriched = nil
		return
	}
	s.enriched = EnrichPlugins(s.doc.Plugins, s.state)
}
