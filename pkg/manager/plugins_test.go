package manager

import (
	"testing"

	"gopkg.in/yaml.v3"
)

// fakeState is an in-memory PluginStateReader for tests.
type fakeState struct {
	manifests map[string]*Manifest
	locks     map[string]*LockRecord
	commits   map[string]string
}

func (f *fakeState) Manifest(name string) *Manifest {
	return f.manifests[name]
}

func (f *fakeState) Lock(name string) *LockRecord {
	return f.locks[name]
}

func (f *fakeState) CurrentCommit(name string) string {
	return f.commits[name]
}

func TestPluginNameFromSource(t *testing.T) {
	tests := []struct {
		source, want string
	}{
		{"github:ssg-plugins/graph-view", "graph-view"},
		{"github:owner/repo.git", "repo"},
		{"https://example.com/owner/repo", "repo"},
		{"local-plugin", "local-plugin"},
		{"github:owner/repo/", "repo"},
		{"  github:owner/spaced  ", "spaced"},
	}
	for _, tt := range tests {
		if got := PluginNameFromSource(tt.source); got != tt.want {
			t.Errorf("PluginNameFromSource(%q) = %q, want %q", tt.source, got, tt.want)
		}
	}
}

func TestPluginEntryDefaults(t *testing.T) {
	var entry PluginEntry
	if err := yaml.Unmarshal([]byte("source: github:owner/thing\n"), &entry); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !entry.Enabled {
		t.Errorf("omitted enabled must default to true")
	}
	if entry.Order != 50 {
		t.Errorf("omitted order = %d, want 50", entry.Order)
	}

	if err := yaml.Unmarshal([]byte("source: x\nenabled: false\norder: 5\n"), &entry); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if entry.Enabled || entry.Order != 5 {
		t.Errorf("explicit fields overridden by defaults: %+v", entry)
	}
}

func TestEnrichPlugins(t *testing.T) {
	entries := []PluginEntry{
		{Source: "github:p/alpha", Enabled: true},
		{Source: "github:p/beta", Enabled: true},
		{Source: "github:p/gamma", Enabled: true},
	}
	state := &fakeState{
		manifests: map[string]*Manifest{
			"alpha": {DisplayName: "Alpha Plugin", Categories: []string{"transformer"}},
			"beta":  {Categories: []string{"emitter"}},
		},
		locks: map[string]*LockRecord{
			"alpha": {Commit: "aaa"},
			"beta":  {Commit: "bbb"},
		},
		commits: map[string]string{
			"alpha": "aaa",
			"beta":  "ccc",
		},
	}

	out := EnrichPlugins(entries, state)
	if len(out) != 3 {
		t.Fatalf("got %d enriched entries, want 3", len(out))
	}

	alpha, beta, gamma := out[0], out[1], out[2]
	if !alpha.Installed || alpha.DisplayName != "Alpha Plugin" || alpha.Modified {
		t.Errorf("alpha = %+v", alpha)
	}
	if !beta.Installed || beta.DisplayName != "beta" {
		t.Errorf("beta display fallback = %q, want %q", beta.DisplayName, "beta")
	}
	if !beta.Modified {
		t.Errorf("beta must be modified: commit ccc != lock bbb")
	}
	if gamma.Installed || gamma.Modified {
		t.Errorf("gamma = %+v, want not installed", gamma)
	}
	if got := gamma.PrimaryCategory(); got != "unknown" {
		t.Errorf("uninstalled category = %q, want unknown", got)
	}
}

func rowsFixture() []EnrichedPlugin {
	entries := []PluginEntry{
		{Source: "github:p/zeta", Enabled: true, Order: 10},
		{Source: "github:p/alpha", Enabled: true, Order: 30},
		{Source: "github:p/mid", Enabled: true, Order: 20},
		{Source: "github:p/loose", Enabled: true, Order: 40},
	}
	state := &fakeState{
		manifests: map[string]*Manifest{
			"zeta":  {Categories: []string{"transformer"}},
			"alpha": {Categories: []string{"transformer", "emitter"}},
			"mid":   {Categories: []string{"transformer"}},
		},
	}
	return EnrichPlugins(entries, state)
}

func TestBuildPluginRowsAlpha(t *testing.T) {
	rows := BuildPluginRows(rowsFixture(), SortAlpha)

	// Categories lexical with unknown last; each starts with a separator.
	wantCats := []string{"emitter", "transformer", "unknown"}
	var sepCats []string
	for _, r := range rows {
		if r.Separator {
			sepCats = append(sepCats, r.Category)
		}
	}
	if len(sepCats) != len(wantCats) {
		t.Fatalf("separators = %v, want %v", sepCats, wantCats)
	}
	for i := range wantCats {
		if sepCats[i] != wantCats[i] {
			t.Fatalf("separators = %v, want %v", sepCats, wantCats)
		}
	}

	// transformer members alphabetical: alpha, mid, zeta.
	var transformer []int
	for _, r := range rows {
		if !r.Separator && r.Category == "transformer" {
			transformer = append(transformer, r.PluginIndex)
		}
	}
	want := []int{1, 2, 0}
	for i := range want {
		if transformer[i] != want[i] {
			t.Fatalf("transformer order = %v, want %v", transformer, want)
		}
	}
}

func TestBuildPluginRowsOrderAndIndex(t *testing.T) {
	fixture := rowsFixture()

	byOrder := BuildPluginRows(fixture, SortOrder)
	var transformer []int
	for _, r := range byOrder {
		if !r.Separator && r.Category == "transformer" {
			transformer = append(transformer, r.PluginIndex)
		}
	}
	// Orders: zeta 10, mid 20, alpha 30.
	want := []int{0, 2, 1}
	for i := range want {
		if transformer[i] != want[i] {
			t.Fatalf("order-sorted transformer = %v, want %v", transformer, want)
		}
	}

	byIndex := BuildPluginRows(fixture, SortIndex)
	transformer = nil
	for _, r := range byIndex {
		if !r.Separator && r.Category == "transformer" {
			transformer = append(transformer, r.PluginIndex)
		}
	}
	want = []int{0, 1, 2}
	for i := range want {
		if transformer[i] != want[i] {
			t.Fatalf("index-sorted transformer = %v, want %v", transformer, want)
		}
	}
}

func TestBuildPluginRowsMultiCategory(t *testing.T) {
	rows := BuildPluginRows(rowsFixture(), SortAlpha)

	// alpha declares two categories: one row in each, same snapshot index.
	var alphaRows []PluginRow
	for _, r := range rows {
		if !r.Separator && r.PluginIndex == 1 {
			alphaRows = append(alphaRows, r)
		}
	}
	if len(alphaRows) != 2 {
		t.Fatalf("multi-category plugin produced %d rows, want 2", len(alphaRows))
	}
	if alphaRows[0].Category == alphaRows[1].Category {
		t.Errorf("duplicated rows share a category: %v", alphaRows)
	}
}

func TestSortOrderStableTiebreak(t *testing.T) {
	entries := []PluginEntry{
		{Source: "github:p/first", Enabled: true, Order: 50},
		{Source: "github:p/second", Enabled: true, Order: 50},
		{Source: "github:p/third", Enabled: true, Order: 50},
	}
	rows := BuildPluginRows(EnrichPlugins(entries, nil), SortOrder)

	var got []int
	for _, r := range rows {
		if !r.Separator {
			got = append(got, r.PluginIndex)
		}
	}
	// Equal orders keep declaration order.
	want := []int{0, 1, 2}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("tied sort reordered entries: %v", got)
		}
	}
}

func TestNextSelectableRow(t *testing.T) {
	rows := []PluginRow{
		{Separator: true, Category: "a"},
		{Category: "a", PluginIndex: 0},
		{Separator: true, Category: "b"},
		{Category: "b", PluginIndex: 1},
	}

	if got := NextSelectableRow(rows, 1, 1); got != 3 {
		t.Errorf("down from 1 = %d, want 3 (skipping separator)", got)
	}
	if got := NextSelectableRow(rows, 3, -1); got != 1 {
		t.Errorf("up from 3 = %d, want 1", got)
	}
	// No selectable row beyond the end: cursor stays put.
	if got := NextSelectableRow(rows, 3, 1); got != 3 {
		t.Errorf("down from last = %d, want 3", got)
	}
	if got := FirstSelectableRow(rows); got != 1 {
		t.Errorf("FirstSelectableRow = %d, want 1", got)
	}
	if got := FirstSelectableRow([]PluginRow{{Separator: true}}); got != -1 {
		t.Errorf("FirstSelectableRow with no plugins = %d, want -1", got)
	}
}

func TestSortModeCycle(t *testing.T) {
	m := SortAlpha
	seen := map[SortMode]bool{}
	for i := 0; i < 3; i++ {
		seen[m] = true
		m = m.Next()
	}
	if len(seen) != 3 || m != SortAlpha {
		t.Errorf("sort mode cycle broken: %v, back to %v", seen, m)
	}
}
