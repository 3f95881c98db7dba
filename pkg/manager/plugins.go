package manager

import (
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Defaults applied to plugin entries that omit the fields.
const (
	defaultPluginOrder = 50
)

// PluginEntry is one entry of the configured plugin list. Declaration order
// in the document is meaningful: it is the default display order and the
// tiebreak for every sort mode.
type PluginEntry struct {
	// Source identifies the plugin, e.g. "github:owner/repo". It is the
	// identity key used to match configured entries against installed state.
	Source string `yaml:"source"`

	Enabled bool  `yaml:"enabled"`
	Options Value `yaml:"options,omitempty"`

	// Order is the manual tiebreak used by the "order" sort mode.
	Order int `yaml:"order"`

	// Layout is the plugin's default layout contribution. Nil means the
	// plugin contributes no layout component.
	Layout *LayoutBlock `yaml:"layout,omitempty"`
}

// LayoutBlock describes where and how a plugin's component is placed.
type LayoutBlock struct {
	Position     Zone   `yaml:"position"`
	Priority     int    `yaml:"priority"`
	Display      string `yaml:"display,omitempty"` // all | desktop-only | mobile-only
	Condition    string `yaml:"condition,omitempty"`
	Group        string `yaml:"group,omitempty"`
	GroupOptions Value  `yaml:"groupOptions,omitempty"`
}

// UnmarshalYAML applies entry defaults (enabled: true, order: 50) before
// decoding, so omitted fields land on their documented defaults.
func (p *PluginEntry) UnmarshalYAML(node *yaml.Node) error {
	type rawEntry PluginEntry
	tmp := rawEntry{Enabled: true, Order: defaultPluginOrder}
	if err := node.Decode(&tmp); err != nil {
		return err
	}
	*p = PluginEntry(tmp)
	return nil
}

// Name derives the plugin identifier from the source string:
// the last path element with any "github:"-style scheme and ".git" suffix
// stripped.
func (p PluginEntry) Name() string {
	return PluginNameFromSource(p.Source)
}

// PluginNameFromSource extracts the plugin identifier from a source string.
func PluginNameFromSource(source string) string {
	s := strings.TrimSpace(source)
	if i := strings.Index(s, ":"); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(s, "/")
	if i := strings.LastIndex(s, "/"); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(s, ".git")
	return s
}

// EnrichedPlugin joins a configured PluginEntry with on-disk installed
// state. It is derived per Document Store snapshot and recomputed after
// every mutation; nothing here is persisted.
type EnrichedPlugin struct {
	Entry PluginEntry

	// Index is the entry's position in the declared plugin list. Valid only
	// for the snapshot it was computed from.
	Index int

	Name        string
	DisplayName string

	Manifest      *Manifest
	Lock          *LockRecord
	CurrentCommit string

	Installed bool
	// Modified reports drift from the lock record
	// (CurrentCommit != Lock.Commit).
	Modified bool
}

// Categories returns the manifest-declared categories, or ["unknown"] when
// the plugin is not installed or declares none.
func (e EnrichedPlugin) Categories() []string {
	if e.Manifest != nil && len(e.Manifest.Categories) > 0 {
		return e.Manifest.Categories
	}
	return []string{"unknown"}
}

// PrimaryCategory is the first declared category.
func (e EnrichedPlugin) PrimaryCategory() string {
	return e.Categories()[0]
}

// EnrichPlugins joins the configured list with installed state from reader.
// A nil reader produces entries with derived names only.
func EnrichPlugins(entries []PluginEntry, reader PluginStateReader) []EnrichedPlugin {
	out := make([]EnrichedPlugin, 0, len(entries))
	for i, entry := range entries {
		e := EnrichedPlugin{
			Entry:       entry,
			Index:       i,
			Name:        entry.Name(),
			DisplayName: entry.Name(),
		}
		if reader != nil {
			if m := reader.Manifest(e.Name); m != nil {
				e.Manifest = m
				e.Installed = true
				if m.DisplayName != "" {
					e.DisplayName = m.DisplayName
				}
			}
			e.Lock = reader.Lock(e.Name)
			e.CurrentCommit = reader.CurrentCommit(e.Name)
			if e.Lock != nil && e.CurrentCommit != "" {
				e.Modified = e.CurrentCommit != e.Lock.Commit
			}
		}
		out = append(out, e)
	}
	return out
}

// SortMode selects the comparator used within a category group.
type SortMode int

const (
	// SortAlpha orders by display name.
	SortAlpha SortMode = iota
	// SortOrder orders by the entry's numeric order field.
	SortOrder
	// SortIndex orders by declared list position.
	SortIndex
)

func (m SortMode) String() string {
	switch m {
	case SortOrder:
		return "order"
	case SortIndex:
		return "index"
	default:
		return "name"
	}
}

// Next cycles to the following sort mode.
func (m SortMode) Next() SortMode {
	switch m {
	case SortAlpha:
		return SortOrder
	case SortOrder:
		return SortIndex
	default:
		return SortAlpha
	}
}

// PluginRow is one line of the grouped plugin listing: either a category
// separator (not independently selectable) or a reference to an enriched
// plugin by snapshot index.
type PluginRow struct {
	Separator bool
	Category  string

	// PluginIndex indexes the enriched snapshot (and therefore the declared
	// plugin list). A plugin declaring multiple categories produces one row
	// per category, all sharing the same PluginIndex.
	PluginIndex int
}

// BuildPluginRows produces the grouped, sorted listing. Categories are
// ordered lexically with "unknown" last; within a category the sort mode's
// comparator applies, with declaration order breaking ties (stable sort).
func BuildPluginRows(enriched []EnrichedPlugin, mode SortMode) []PluginRow {
	byCategory := map[string][]int{}
	var categories []string
	for i, e := range enriched {
		for _, cat := range e.Categories() {
			if _, seen := byCategory[cat]; !seen {
				categories = append(categories, cat)
			}
			byCategory[cat] = append(byCategory[cat], i)
		}
	}
	sort.SliceStable(categories, func(i, j int) bool {
		a, b := categories[i], categories[j]
		if (a == "unknown") != (b == "unknown") {
			return b == "unknown"
		}
		return a < b
	})

	var rows []PluginRow
	for _, cat := range categories {
		rows = append(rows, PluginRow{Separator: true, Category: cat})
		members := append([]int(nil), byCategory[cat]...)
		sort.SliceStable(members, func(x, y int) bool {
			a, b := enriched[members[x]], enriched[members[y]]
			switch mode {
			case SortOrder:
				return a.Entry.Order < b.Entry.Order
			case SortIndex:
				return a.Index < b.Index
			default:
				return strings.ToLower(a.DisplayName) < strings.ToLower(b.DisplayName)
			}
		})
		for _, idx := range members {
			rows = append(rows, PluginRow{Category: cat, PluginIndex: idx})
		}
	}
	return rows
}

// NextSelectableRow returns the nearest selectable (non-separator) row index
// moving from cur by delta, clamped into range. Returns cur when no
// selectable row exists in that direction.
func NextSelectableRow(rows []PluginRow, cur, delta int) int {
	if len(rows) == 0 {
		return 0
	}
	i := cur + delta
	for i >= 0 && i < len(rows) {
		if !rows[i].Separator {
			return i
		}
		i += delta
	}
	return cur
}

// FirstSelectableRow returns the first non-separator row index, or -1.
func FirstSelectableRow(rows []PluginRow) int {
	for i, r := range rows {
		if !r.Separator {
			return i
		}
	}
	return -1
}
