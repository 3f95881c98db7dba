package manager

import (
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

// Zone is one of the six fixed named page regions that can host
// plugin-contributed components.
type Zone string

const (
	ZoneHeader     Zone = "header"
	ZoneLeft       Zone = "left"
	ZoneBeforeBody Zone = "beforeBody"
	ZoneAfterBody  Zone = "afterBody"
	ZoneRight      Zone = "right"
	ZoneFooter     Zone = "footer"
)

// AllZones lists the closed zone set in display order.
var AllZones = []Zone{ZoneHeader, ZoneLeft, ZoneBeforeBody, ZoneAfterBody, ZoneRight, ZoneFooter}

// zoneColumns is the fixed three-column arrangement of the layout panel:
// left | header,beforeBody,afterBody,footer stacked | right.
var zoneColumns = [][]Zone{
	{ZoneLeft},
	{ZoneHeader, ZoneBeforeBody, ZoneAfterBody, ZoneFooter},
	{ZoneRight},
}

// ValidZone reports whether z is a member of the closed zone set.
func ValidZone(z Zone) bool {
	for _, known := range AllZones {
		if z == known {
			return true
		}
	}
	return false
}

// DefaultPageType is the page type holding each plugin's own layout block,
// with no overrides applied.
const DefaultPageType = "default"

// Display mode values for a layout block.
var DisplayModes = []string{"all", "desktop-only", "mobile-only"}

// LayoutConfig is the document's layout section: named groups and
// per-page-type overrides.
type LayoutConfig struct {
	Groups     map[string]LayoutGroup  `yaml:"groups,omitempty"`
	ByPageType map[string]PageOverride `yaml:"byPageType,omitempty"`
}

// LayoutGroup is a named flex-like grouping of components.
type LayoutGroup struct {
	Direction string `yaml:"direction,omitempty"`
	Gap       string `yaml:"gap,omitempty"`
}

// PageOverride adjusts zone assignment for one page type.
type PageOverride struct {
	// Exclude removes the named plugins' components for this page type.
	Exclude []string `yaml:"exclude,omitempty"`

	// Positions maps either a plugin name to its overriding zone, or a zone
	// name to an empty list meaning "clear this zone's defaults".
	Positions map[string]PositionOverride `yaml:"positions,omitempty"`
}

// PositionOverride is either a target zone or a clear marker. In YAML the
// clear marker is written as an empty sequence, a zone as a plain string.
type PositionOverride struct {
	Zone  Zone
	Clear bool
}

// UnmarshalYAML accepts a scalar zone name or an (empty) sequence.
func (p *PositionOverride) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*p = PositionOverride{Zone: Zone(node.Value)}
		return nil
	case yaml.SequenceNode:
		*p = PositionOverride{Clear: true}
		return nil
	}
	return fmt.Errorf("line %d: position override must be a zone name or []", node.Line)
}

// MarshalYAML writes the clear marker as an empty sequence.
func (p PositionOverride) MarshalYAML() (interface{}, error) {
	if p.Clear {
		return []string{}, nil
	}
	return string(p.Zone), nil
}

// ZoneComponent is one plugin component placed in a zone view.
type ZoneComponent struct {
	// PluginIndex indexes the enriched snapshot this view was built from.
	PluginIndex int

	Name        string
	DisplayName string
	Priority    int
	Display     string
}

// PageTypes returns "default" followed by the declared override page types
// in lexical order.
func (l LayoutConfig) PageTypes() []string {
	out := []string{DefaultPageType}
	var extra []string
	for name := range l.ByPageType {
		if name != DefaultPageType {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	return append(out, extra...)
}

// ZoneView computes the per-zone component lists for one page type.
//
// Placement rules:
//   - A plugin contributes a component when enabled and carrying a layout
//     block with a valid zone.
//   - For non-default page types, an explicit position override always wins,
//     whether or not the plugin has a default zone; a plugin named only in
//     an override still appears in the target zone, with priority falling
//     back to its order field.
//   - A zone named in positions with an empty-list value loses its default
//     components (explicitly overridden plugins still land there).
//   - Excluded plugins are dropped entirely.
//   - Stale references to plugins that no longer exist have no effect.
//
// Within a zone, components are ordered ascending by priority; ties keep
// declaration order.
func ZoneView(enriched []EnrichedPlugin, layout LayoutConfig, pageType string) map[Zone][]ZoneComponent {
	var override *PageOverride
	if pageType != DefaultPageType {
		if ov, ok := layout.ByPageType[pageType]; ok {
			override = &ov
		}
	}

	excluded := map[string]bool{}
	cleared := map[Zone]bool{}
	moved := map[string]Zone{}
	if override != nil {
		for _, name := range override.Exclude {
			excluded[name] = true
		}
		for key, pos := range override.Positions {
			if pos.Clear {
				if z := Zone(key); ValidZone(z) {
					cleared[z] = true
				}
				continue
			}
			if ValidZone(pos.Zone) {
				moved[key] = pos.Zone
			}
		}
	}

	out := map[Zone][]ZoneComponent{}
	for _, e := range enriched {
		if !e.Entry.Enabled || excluded[e.Name] {
			continue
		}

		var zone Zone
		priority := e.Entry.Order
		display := "all"
		if e.Entry.Layout != nil {
			zone = e.Entry.Layout.Position
			priority = e.Entry.Layout.Priority
			if e.Entry.Layout.Display != "" {
				display = e.Entry.Layout.Display
			}
			if !ValidZone(zone) {
				zone = ""
			}
			if cleared[zone] {
				zone = ""
			}
		}
		if target, ok := moved[e.Name]; ok {
			zone = target
		}
		if zone == "" {
			continue
		}

		out[zone] = append(out[zone], ZoneComponent{
			PluginIndex: e.Index,
			Name:        e.Name,
			DisplayName: e.DisplayName,
			Priority:    priority,
			Display:     display,
		})
	}

	for zone := range out {
		comps := out[zone]
		sort.SliceStable(comps, func(i, j int) bool {
			return comps[i].Priority < comps[j].Priority
		})
		out[zone] = comps
	}
	return out
}

// ZoneGrid is the two-dimensional cursor over the fixed zone arrangement:
// the active column/row selects a zone, Comp selects a component within it.
type ZoneGrid struct {
	Col  int
	Row  int
	Comp int
}

// ActiveZone returns the zone under the cursor.
func (g ZoneGrid) ActiveZone() Zone {
	col := clampInt(g.Col, 0, len(zoneColumns)-1)
	row := clampInt(g.Row, 0, len(zoneColumns[col])-1)
	return zoneColumns[col][row]
}

// Move shifts the active zone by column/row deltas, clamping to the grid.
// Whenever the active zone changes, the component index resets to 0.
func (g *ZoneGrid) Move(dCol, dRow int) {
	before := g.ActiveZone()
	g.Col = clampInt(g.Col+dCol, 0, len(zoneColumns)-1)
	g.Row = clampInt(g.Row+dRow, 0, len(zoneColumns[g.Col])-1)
	if g.ActiveZone() != before {
		g.Comp = 0
	}
}

// MoveComp shifts the component index within the active zone.
func (g *ZoneGrid) MoveComp(delta, count int) {
	if count <= 0 {
		g.Comp = 0
		return
	}
	g.Comp = clampInt(g.Comp+delta, 0, count-1)
}

// ClampComp re-applies the bounds invariant after the active zone's
// component list shrinks.
func (g *ZoneGrid) ClampComp(count int) {
	if count <= 0 {
		g.Comp = 0
		return
	}
	if g.Comp >= count {
		g.Comp = count - 1
	}
	if g.Comp < 0 {
		g.Comp = 0
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
