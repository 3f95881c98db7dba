package manager

import (
	"testing"

	"gopkg.in/yaml.v3"
)

func layoutFixture() []EnrichedPlugin {
	entries := []PluginEntry{
		{Source: "github:p/search", Enabled: true, Order: 10,
			Layout: &LayoutBlock{Position: ZoneHeader, Priority: 10}},
		{Source: "github:p/toc", Enabled: true, Order: 20,
			Layout: &LayoutBlock{Position: ZoneRight, Priority: 10}},
		{Source: "github:p/graph", Enabled: true, Order: 30,
			Layout: &LayoutBlock{Position: ZoneRight, Priority: 20}},
		{Source: "github:p/disabled", Enabled: false, Order: 40,
			Layout: &LayoutBlock{Position: ZoneRight, Priority: 5}},
		{Source: "github:p/plain", Enabled: true, Order: 25},
	}
	return EnrichPlugins(entries, nil)
}

func zoneNames(view map[Zone][]ZoneComponent, z Zone) []string {
	var out []string
	for _, c := range view[z] {
		out = append(out, c.Name)
	}
	return out
}

func TestZoneViewDefaultPageType(t *testing.T) {
	view := ZoneView(layoutFixture(), LayoutConfig{}, DefaultPageType)

	if got := zoneNames(view, ZoneHeader); len(got) != 1 || got[0] != "search" {
		t.Errorf("header = %v, want [search]", got)
	}
	// Right zone ordered by priority; the disabled plugin is absent.
	if got := zoneNames(view, ZoneRight); len(got) != 2 || got[0] != "toc" || got[1] != "graph" {
		t.Errorf("right = %v, want [toc graph]", got)
	}
	// No layout block means no component anywhere.
	for _, z := range AllZones {
		for _, c := range view[z] {
			if c.Name == "plain" {
				t.Errorf("plugin without layout block placed in %s", z)
			}
		}
	}
}

func TestZoneViewExplicitOverrideWins(t *testing.T) {
	layout := LayoutConfig{
		ByPageType: map[string]PageOverride{
			"list": {
				Positions: map[string]PositionOverride{
					"search": {Zone: ZoneFooter},
				},
			},
		},
	}
	view := ZoneView(layoutFixture(), layout, "list")

	if got := zoneNames(view, ZoneHeader); len(got) != 0 {
		t.Errorf("header = %v, want empty after move", got)
	}
	if got := zoneNames(view, ZoneFooter); len(got) != 1 || got[0] != "search" {
		t.Errorf("footer = %v, want [search]", got)
	}

	// The default page type never applies overrides.
	view = ZoneView(layoutFixture(), layout, DefaultPageType)
	if got := zoneNames(view, ZoneHeader); len(got) != 1 {
		t.Errorf("default page header = %v, want [search]", got)
	}
}

func TestZoneViewOverridePlacesPluginWithoutDefaultZone(t *testing.T) {
	layout := LayoutConfig{
		ByPageType: map[string]PageOverride{
			"list": {
				Positions: map[string]PositionOverride{
					"plain": {Zone: ZoneAfterBody},
				},
			},
		},
	}
	view := ZoneView(layoutFixture(), layout, "list")

	comps := view[ZoneAfterBody]
	if len(comps) != 1 || comps[0].Name != "plain" {
		t.Fatalf("afterBody = %v, want [plain]", zoneNames(view, ZoneAfterBody))
	}
	// Priority falls back to the entry's order field.
	if comps[0].Priority != 25 {
		t.Errorf("moved plugin priority = %d, want order fallback 25", comps[0].Priority)
	}
}

func TestZoneViewClearedZone(t *testing.T) {
	layout := LayoutConfig{
		ByPageType: map[string]PageOverride{
			"list": {
				Positions: map[string]PositionOverride{
					"right":  {Clear: true},
					"search": {Zone: ZoneRight},
				},
			},
		},
	}
	view := ZoneView(layoutFixture(), layout, "list")

	// Defaults are cleared, but the explicitly moved plugin still lands there.
	if got := zoneNames(view, ZoneRight); len(got) != 1 || got[0] != "search" {
		t.Errorf("cleared right = %v, want [search]", got)
	}
}

func TestZoneViewExcludeAndStaleRefs(t *testing.T) {
	layout := LayoutConfig{
		ByPageType: map[string]PageOverride{
			"list": {
				Exclude: []string{"toc", "no-such-plugin"},
				Positions: map[string]PositionOverride{
					"also-missing": {Zone: ZoneFooter},
				},
			},
		},
	}
	view := ZoneView(layoutFixture(), layout, "list")

	if got := zoneNames(view, ZoneRight); len(got) != 1 || got[0] != "graph" {
		t.Errorf("right = %v, want [graph] after exclude", got)
	}
	if got := zoneNames(view, ZoneFooter); len(got) != 0 {
		t.Errorf("stale position override produced components: %v", got)
	}
}

func TestZoneViewPriorityTiebreak(t *testing.T) {
	entries := []PluginEntry{
		{Source: "github:p/a", Enabled: true,
			Layout: &LayoutBlock{Position: ZoneHeader, Priority: 10}},
		{Source: "github:p/b", Enabled: true,
			Layout: &LayoutBlock{Position: ZoneHeader, Priority: 10}},
	}
	view := ZoneView(EnrichPlugins(entries, nil), LayoutConfig{}, DefaultPageType)
	if got := zoneNames(view, ZoneHeader); got[0] != "a" || got[1] != "b" {
		t.Errorf("tied priorities reordered: %v", got)
	}
}

func TestPageTypes(t *testing.T) {
	layout := LayoutConfig{
		ByPageType: map[string]PageOverride{
			"tag":  {},
			"list": {},
		},
	}
	got := layout.PageTypes()
	want := []string{"default", "list", "tag"}
	if len(got) != len(want) {
		t.Fatalf("PageTypes() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("PageTypes() = %v, want %v", got, want)
		}
	}

	if got := (LayoutConfig{}).PageTypes(); len(got) != 1 || got[0] != "default" {
		t.Errorf("empty layout PageTypes() = %v, want [default]", got)
	}
}

func TestPositionOverrideYAML(t *testing.T) {
	var ov PageOverride
	doc := "positions:\n  search: footer\n  right: []\n"
	if err := yaml.Unmarshal([]byte(doc), &ov); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if pos := ov.Positions["search"]; pos.Clear || pos.Zone != ZoneFooter {
		t.Errorf("scalar override = %+v, want zone footer", pos)
	}
	if pos := ov.Positions["right"]; !pos.Clear {
		t.Errorf("empty sequence = %+v, want clear marker", pos)
	}

	data, err := yaml.Marshal(ov)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back PageOverride
	if err := yaml.Unmarshal(data, &back); err != nil {
		t.Fatalf("re-unmarshal: %v", err)
	}
	if !back.Positions["right"].Clear || back.Positions["search"].Zone != ZoneFooter {
		t.Errorf("round trip lost override shapes: %+v", back.Positions)
	}
}

func TestZoneGrid(t *testing.T) {
	var g ZoneGrid
	if g.ActiveZone() != ZoneLeft {
		t.Fatalf("zero grid active zone = %s, want left", g.ActiveZone())
	}

	g.Comp = 3
	g.Move(1, 0)
	if g.ActiveZone() != ZoneHeader {
		t.Fatalf("after right: %s, want header", g.ActiveZone())
	}
	if g.Comp != 0 {
		t.Errorf("component index must reset on zone change, got %d", g.Comp)
	}

	g.Move(0, 3)
	if g.ActiveZone() != ZoneFooter {
		t.Errorf("after down x3: %s, want footer", g.ActiveZone())
	}
	// Clamped at the bottom of the middle column.
	g.Move(0, 5)
	if g.ActiveZone() != ZoneFooter {
		t.Errorf("over-move past footer: %s", g.ActiveZone())
	}

	g.Comp = 5
	g.ClampComp(2)
	if g.Comp != 1 {
		t.Errorf("ClampComp(2) = %d, want 1", g.Comp)
	}
	g.ClampComp(0)
	if g.Comp != 0 {
		t.Errorf("ClampComp(0) = %d, want 0", g.Comp)
	}

	g.MoveComp(1, 3)
	g.MoveComp(1, 3)
	g.MoveComp(1, 3)
	if g.Comp != 2 {
		t.Errorf("MoveComp clamp = %d, want 2", g.Comp)
	}
}
