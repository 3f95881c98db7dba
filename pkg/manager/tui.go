package manager

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// UIOptions controls the TUI.
type UIOptions struct {
	// SiteDir is the site root (plugin state lives under <site>/plugins).
	SiteDir string
}

// RunTUI starts the Bubble Tea program over an already-constructed store.
// The store may be unloaded; a missing document routes to first-run setup.
func RunTUI(store *DocumentStore, ops PluginOps, opts UIOptions) error {
	m := newUIModel(store, ops, opts)
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

type panel int

const (
	panelPlugins panel = iota
	panelSettings
	panelLayout
)

func (p panel) title() string {
	switch p {
	case panelSettings:
		return "Settings"
	case panelLayout:
		return "Layout"
	default:
		return "Plugins"
	}
}

type promptKind int

const (
	promptNone promptKind = iota
	promptAddSource
	promptRemoveConfirm
)

// Messages from background plugin operations. Progress lines are appended to
// the log by the operation goroutine itself; the message only requests a
// repaint, so the log never loses recent lines to a full channel.
type opProgressMsg struct{}

type opDoneMsg struct {
	name   string
	result OperationResult
}

type statusTickMsg struct{}

type uiModel struct {
	store  *DocumentStore
	ops    PluginOps
	editor *Editor
	styles Styles
	opts   UIOptions

	// First-run setup (no document exists yet): adopt defaults or start
	// from a minimal empty document.
	firstRun       bool
	firstRunChoice int

	panel panel

	// Plugins panel.
	rows         []PluginRow
	pluginCursor int
	sortMode     SortMode

	// Settings panel. collapsed affects visibility only; fullEntries keeps
	// the logical structure for default lookups.
	collapsed      map[string]bool
	visible        []FlatEntry
	fullEntries    []FlatEntry
	settingsCursor int

	// Layout panel.
	grid     ZoneGrid
	pageIdx  int
	zones    map[Zone][]ZoneComponent

	// Text entry shared by the editor's text states.
	input textinput.Model

	// Modal prompts (add sources / remove confirm).
	prompt       promptKind
	promptInput  textinput.Model
	removeTarget string

	// External operation state. loading gates mutating input; display
	// keeps rendering.
	loading    bool
	opName     string
	progress   *ProgressLog
	progressCh chan struct{}

	status      string
	statusErr   bool
	statusUntil time.Time

	showHelp bool
	width    int
	height   int
}

func newUIModel(store *DocumentStore, ops PluginOps, opts UIOptions) *uiModel {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.CharLimit = 512

	pi := textinput.New()
	pi.Prompt = "> "
	pi.CharLimit = 512

	m := &uiModel{
		store:       store,
		ops:         ops,
		editor:      NewEditor(store),
		styles:      DefaultStyles(),
		opts:        opts,
		firstRun:    !store.Loaded(),
		collapsed:   map[string]bool{},
		input:       ti,
		promptInput: pi,
		progress:    NewProgressLog(8),
	}
	if store.Loaded() {
		m.refreshDerived()
	}
	return m
}

func (m *uiModel) Init() tea.Cmd { return nil }

// refreshDerived rebuilds every projection from the current document and
// re-applies cursor clamping. Called after every store mutation or reload.
func (m *uiModel) refreshDerived() {
	doc := m.store.Document()
	if doc == nil {
		return
	}
	m.rows = BuildPluginRows(m.store.Enriched(), m.sortMode)
	m.pluginCursor = ClampCursor(m.pluginCursor, len(m.rows))
	if len(m.rows) > 0 && m.rows[m.pluginCursor].Separator {
		if first := FirstSelectableRow(m.rows); first >= 0 {
			m.pluginCursor = first
		}
	}

	m.visible, m.fullEntries = FlattenSettings(doc.Configuration, m.collapsed)
	m.settingsCursor = ClampCursor(m.settingsCursor, len(m.visible))

	pageTypes := doc.Layout.PageTypes()
	m.pageIdx = ClampCursor(m.pageIdx, len(pageTypes))
	m.zones = ZoneView(m.store.Enriched(), doc.Layout, pageTypes[m.pageIdx])
	m.grid.ClampComp(len(m.zones[m.grid.ActiveZone()]))
}

func (m *uiModel) pageType() string {
	doc := m.store.Document()
	if doc == nil {
		return DefaultPageType
	}
	types := doc.Layout.PageTypes()
	return types[ClampCursor(m.pageIdx, len(types))]
}

// selectedPlugin returns the enriched plugin under the cursor, or nil.
func (m *uiModel) selectedPlugin() *EnrichedPlugin {
	if m.pluginCursor < 0 || m.pluginCursor >= len(m.rows) {
		return nil
	}
	row := m.rows[m.pluginCursor]
	if row.Separator {
		return nil
	}
	enriched := m.store.Enriched()
	if row.PluginIndex < 0 || row.PluginIndex >= len(enriched) {
		return nil
	}
	return &enriched[row.PluginIndex]
}

func (m *uiModel) setStatus(s string, isErr bool) tea.Cmd {
	m.status = s
	m.statusErr = isErr
	m.statusUntil = time.Now().Add(4 * time.Second)
	return tea.Tick(4*time.Second, func(time.Time) tea.Msg { return statusTickMsg{} })
}

func (m *uiModel) noteResult(n Notice) tea.Cmd {
	if n.Text == "" {
		return nil
	}
	return m.setStatus(n.Text, n.Error)
}

// ---------- external operations ----------

// startOp launches a plugin operation as a background command streaming
// progress lines over a channel; the editor is suspended until the done
// message triggers an unconditional reload.
func (m *uiModel) startOp(name string, run func(ctx context.Context, progress ProgressFunc) OperationResult) tea.Cmd {
	ch := make(chan struct{}, 1)
	m.progressCh = ch
	log := m.progress
	log.Reset()
	m.loading = true
	m.opName = name
	m.editor.SetLoading(true)

	opCmd := func() tea.Msg {
		result := run(context.Background(), func(line string) {
			log.Append(line)
			select {
			case ch <- struct{}{}:
			default:
			}
		})
		close(ch)
		return opDoneMsg{name: name, result: result}
	}
	return tea.Batch(opCmd, waitProgress(ch))
}

func waitProgress(ch chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return opProgressMsg{}
	}
}

func (m *uiModel) finishOp(msg opDoneMsg) tea.Cmd {
	m.loading = false
	m.editor.SetLoading(false)
	m.progressCh = nil

	// Reload unconditionally; derived indices are recomputed by identity,
	// never carried across the reload as raw integers.
	var selectedName string
	if sel := m.selectedPlugin(); sel != nil {
		selectedName = sel.Name
	}
	if err := m.store.Load(); err != nil && err != ErrDocumentNotFound {
		return m.setStatus(fmt.Sprintf("reload failed: %v", err), true)
	}
	m.refreshDerived()
	if selectedName != "" {
		if idx := m.store.PluginIndexByName(selectedName); idx >= 0 {
			for i, row := range m.rows {
				if !row.Separator && row.PluginIndex == idx {
					m.pluginCursor = i
					break
				}
			}
		}
	}

	summary := fmt.Sprintf("%s: %s", msg.name, msg.result.Summary())
	return m.setStatus(summary, !msg.result.Success)
}

// ---------- update ----------

func (m *uiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case opProgressMsg:
		if m.progressCh != nil {
			return m, waitProgress(m.progressCh)
		}
		return m, nil

	case opDoneMsg:
		return m, m.finishOp(msg)

	case statusTickMsg:
		if time.Now().After(m.statusUntil) {
			m.status = ""
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *uiModel) handleKey(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	if k.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}

	if m.firstRun {
		return m.handleFirstRunKey(k)
	}
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}
	if m.prompt != promptNone {
		return m.handlePromptKey(k)
	}
	if m.editor.Editing() {
		return m.handleEditorKey(k)
	}
	return m.handleViewingKey(k)
}

func (m *uiModel) handleFirstRunKey(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch k.String() {
	case "q", "esc":
		return m, tea.Quit
	case "up", "k", "down", "j", "tab":
		m.firstRunChoice = 1 - m.firstRunChoice
		return m, nil
	case "enter":
		doc := DefaultDocument()
		if m.firstRunChoice == 1 || doc == nil {
			doc = NewMinimalDocument()
		}
		if err := m.store.Adopt(doc); err != nil {
			return m, m.setStatus(fmt.Sprintf("initialize failed: %v", err), true)
		}
		m.firstRun = false
		m.refreshDerived()
		return m, m.setStatus("configuration created", false)
	}
	return m, nil
}

func (m *uiModel) handlePromptKey(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch k.String() {
	case "esc":
		m.prompt = promptNone
		m.promptInput.Blur()
		return m, nil
	case "enter":
		value := strings.TrimSpace(m.promptInput.Value())
		prompt := m.prompt
		m.prompt = promptNone
		m.promptInput.Blur()
		m.promptInput.SetValue("")
		switch prompt {
		case promptAddSource:
			return m, m.confirmAdd(value)
		case promptRemoveConfirm:
			if strings.EqualFold(value, "y") || strings.EqualFold(value, "yes") {
				return m, m.confirmRemove()
			}
			return m, nil
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.promptInput, cmd = m.promptInput.Update(k)
	return m, cmd
}

func (m *uiModel) confirmAdd(raw string) tea.Cmd {
	if m.loading || raw == "" {
		return nil
	}
	sources := strings.Fields(raw)
	for _, src := range sources {
		entry := PluginEntry{Source: src, Enabled: true, Order: defaultPluginOrder}
		if err := m.store.InsertPlugin(entry); err != nil {
			return m.setStatus(err.Error(), true)
		}
	}
	m.refreshDerived()
	return m.startOp("add", func(ctx context.Context, progress ProgressFunc) OperationResult {
		return m.ops.Add(ctx, sources, progress)
	})
}

func (m *uiModel) confirmRemove() tea.Cmd {
	if m.loading || m.removeTarget == "" {
		return nil
	}
	name := m.removeTarget
	m.removeTarget = ""
	idx := m.store.PluginIndexByName(name)
	if idx < 0 {
		return m.setStatus(fmt.Sprintf("plugin %s not found", name), true)
	}
	if err := m.store.RemovePluginAt(idx); err != nil {
		return m.setStatus(err.Error(), true)
	}
	m.refreshDerived()
	return m.startOp("remove", func(ctx context.Context, progress ProgressFunc) OperationResult {
		return m.ops.Remove(ctx, []string{name}, progress)
	})
}

// editorTextActive reports whether the current editor state reads from the
// shared text input.
func (m *uiModel) editorTextActive() bool {
	switch m.editor.State() {
	case StateEditText, StateAddFieldKey, StateAddFieldValue:
		return true
	case StateEditArrayItem:
		return m.editor.Kind() != FieldArrayEnum
	case StateEditObjectValue:
		return !m.editor.ObjBool()
	}
	return false
}

// syncEditorInput seeds/focuses or blurs the shared text input after an
// editor state transition.
func (m *uiModel) syncEditorInput(prev EditorState) {
	if m.editorTextActive() {
		if prev != m.editor.State() {
			m.input.SetValue(m.editor.Text())
			m.input.CursorEnd()
		}
		m.input.Focus()
	} else {
		m.input.Blur()
	}
}

func (m *uiModel) handleEditorKey(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	prev := m.editor.State()

	if m.editorTextActive() {
		switch k.String() {
		case "enter":
			m.editor.SetText(m.input.Value())
			notice := m.editor.Confirm()
			m.refreshDerived()
			m.syncEditorInput(prev)
			return m, m.noteResult(notice)
		case "esc":
			m.editor.Cancel()
			m.syncEditorInput(prev)
			return m, nil
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(k)
		return m, cmd
	}

	switch k.String() {
	case "esc":
		m.editor.Cancel()
		m.syncEditorInput(prev)
		return m, nil
	case "up", "k":
		m.editor.MoveChoice(-1)
		return m, nil
	case "down", "j":
		m.editor.MoveChoice(1)
		return m, nil
	case "enter":
		notice := m.editor.Confirm()
		m.refreshDerived()
		m.syncEditorInput(prev)
		return m, m.noteResult(notice)
	case "K", "shift+up":
		m.editor.MoveItem(-1)
		m.refreshDerived()
		return m, nil
	case "J", "shift+down":
		m.editor.MoveItem(1)
		m.refreshDerived()
		return m, nil
	case "d", "backspace":
		switch m.editor.State() {
		case StateEditArray:
			m.editor.DeleteItem()
		case StateEditObject:
			m.editor.DeleteField()
		}
		m.refreshDerived()
		return m, nil
	}
	return m, nil
}

func (m *uiModel) handleViewingKey(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch k.String() {
	case "q":
		return m, tea.Quit
	case "?":
		m.showHelp = true
		return m, nil
	case "tab":
		m.panel = (m.panel + 1) % 3
		return m, nil
	case "shift+tab":
		m.panel = (m.panel + 2) % 3
		return m, nil
	case "1":
		m.panel = panelPlugins
		return m, nil
	case "2":
		m.panel = panelSettings
		return m, nil
	case "3":
		m.panel = panelLayout
		return m, nil
	}

	switch m.panel {
	case panelPlugins:
		return m.handlePluginsKey(k)
	case panelSettings:
		return m.handleSettingsKey(k)
	default:
		return m.handleLayoutKey(k)
	}
}

func (m *uiModel) handlePluginsKey(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := k.String()
	switch key {
	case "up", "k":
		m.pluginCursor = NextSelectableRow(m.rows, m.pluginCursor, -1)
		return m, nil
	case "down", "j":
		m.pluginCursor = NextSelectableRow(m.rows, m.pluginCursor, 1)
		return m, nil
	case "s":
		m.sortMode = m.sortMode.Next()
		m.refreshDerived()
		return m, m.setStatus("sort: "+m.sortMode.String(), false)
	}

	if m.loading {
		return m, nil
	}

	sel := m.selectedPlugin()
	switch key {
	case " ":
		if sel == nil {
			return m, nil
		}
		idx := sel.Index
		if err := m.store.UpdatePlugin(idx, func(p PluginEntry) PluginEntry {
			p.Enabled = !p.Enabled
			return p
		}); err != nil {
			return m, m.setStatus(err.Error(), true)
		}
		m.refreshDerived()
		return m, nil
	case "enter", "o":
		if sel == nil {
			return m, nil
		}
		m.editor.Enter(OptionField(sel.Index))
		m.syncEditorInput(StateViewing)
		return m, nil
	case "K":
		return m, m.movePluginEntry(sel, -1)
	case "J":
		return m, m.movePluginEntry(sel, 1)
	case "z":
		return m, m.cycleZone(sel)
	case "m":
		return m, m.cycleDisplay(sel)
	case "+", "=":
		return m, m.nudgePriority(sel, 10)
	case "-":
		return m, m.nudgePriority(sel, -10)
	case "a":
		m.prompt = promptAddSource
		m.promptInput.Placeholder = "github:owner/repo ..."
		m.promptInput.SetValue("")
		m.promptInput.Focus()
		return m, nil
	case "x":
		if sel == nil {
			return m, nil
		}
		m.prompt = promptRemoveConfirm
		m.removeTarget = sel.Name
		m.promptInput.Placeholder = fmt.Sprintf("remove %s? y/N", sel.Name)
		m.promptInput.SetValue("")
		m.promptInput.Focus()
		return m, nil
	case "i":
		return m, m.startOp("install", func(ctx context.Context, progress ProgressFunc) OperationResult {
			return m.ops.Install(ctx, progress)
		})
	case "u":
		var names []string
		if sel != nil {
			names = []string{sel.Name}
		}
		return m, m.startOp("update", func(ctx context.Context, progress ProgressFunc) OperationResult {
			return m.ops.Update(ctx, names, progress)
		})
	}
	return m, nil
}

func (m *uiModel) movePluginEntry(sel *EnrichedPlugin, delta int) tea.Cmd {
	if sel == nil {
		return nil
	}
	from := sel.Index
	to := from + delta
	if to < 0 || to >= len(m.store.Document().Plugins) {
		return nil
	}
	name := sel.Name
	if err := m.store.MovePlugin(from, to); err != nil {
		return m.setStatus(err.Error(), true)
	}
	m.refreshDerived()
	// Follow the moved entry by identity.
	if idx := m.store.PluginIndexByName(name); idx >= 0 {
		for i, row := range m.rows {
			if !row.Separator && row.PluginIndex == idx {
				m.pluginCursor = i
				break
			}
		}
	}
	return nil
}

// cycleZone steps the selected plugin's default layout zone through the
// closed zone set, with "none" (no layout block) between footer and header.
func (m *uiModel) cycleZone(sel *EnrichedPlugin) tea.Cmd {
	if sel == nil {
		return nil
	}
	next := func(cur *LayoutBlock) *LayoutBlock {
		if cur == nil {
			return &LayoutBlock{Position: AllZones[0], Priority: defaultPluginOrder, Display: "all"}
		}
		for i, z := range AllZones {
			if cur.Position == z {
				if i == len(AllZones)-1 {
					return nil
				}
				out := *cur
				out.Position = AllZones[i+1]
				return &out
			}
		}
		out := *cur
		out.Position = AllZones[0]
		return &out
	}
	if err := m.store.UpdatePlugin(sel.Index, func(p PluginEntry) PluginEntry {
		p.Layout = next(p.Layout)
		return p
	}); err != nil {
		return m.setStatus(err.Error(), true)
	}
	m.refreshDerived()
	return nil
}

func (m *uiModel) cycleDisplay(sel *EnrichedPlugin) tea.Cmd {
	if sel == nil || sel.Entry.Layout == nil {
		return nil
	}
	if err := m.store.UpdatePlugin(sel.Index, func(p PluginEntry) PluginEntry {
		out := *p.Layout
		idx := 0
		for i, mode := range DisplayModes {
			if out.Display == mode {
				idx = (i + 1) % len(DisplayModes)
				break
			}
		}
		out.Display = DisplayModes[idx]
		p.Layout = &out
		return p
	}); err != nil {
		return m.setStatus(err.Error(), true)
	}
	m.refreshDerived()
	return nil
}

func (m *uiModel) nudgePriority(sel *EnrichedPlugin, delta int) tea.Cmd {
	if sel == nil || sel.Entry.Layout == nil {
		return nil
	}
	if err := m.store.UpdatePlugin(sel.Index, func(p PluginEntry) PluginEntry {
		out := *p.Layout
		out.Priority += delta
		p.Layout = &out
		return p
	}); err != nil {
		return m.setStatus(err.Error(), true)
	}
	m.refreshDerived()
	return nil
}

func (m *uiModel) handleSettingsKey(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch k.String() {
	case "up", "k":
		m.settingsCursor = ClampCursor(m.settingsCursor-1, len(m.visible))
		return m, nil
	case "down", "j":
		m.settingsCursor = ClampCursor(m.settingsCursor+1, len(m.visible))
		return m, nil
	}

	if len(m.visible) == 0 {
		return m, nil
	}
	entry := m.visible[m.settingsCursor]

	switch k.String() {
	case "h", "l", "left", "right":
		if entry.Container {
			m.collapsed[entry.Key()] = !m.collapsed[entry.Key()]
			m.refreshDerived()
		}
		return m, nil
	case "enter":
		if m.loading {
			return m, nil
		}
		m.editor.Enter(GlobalField(entry.Path...))
		m.syncEditorInput(StateViewing)
		return m, nil
	case "r":
		if m.loading {
			return m, nil
		}
		switch m.editor.RestoreDefault(GlobalField(entry.Path...)) {
		case RestoreApplied:
			m.refreshDerived()
			return m, m.setStatus(entry.Key()+" restored to default", false)
		case RestoreAlreadyDefault:
			return m, m.setStatus(entry.Key()+" already at default", false)
		default:
			return m, m.setStatus("no default for "+entry.Key(), true)
		}
	}
	return m, nil
}

func (m *uiModel) handleLayoutKey(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	comps := m.zones[m.grid.ActiveZone()]
	switch k.String() {
	case "left", "h":
		m.grid.Move(-1, 0)
		m.grid.ClampComp(len(m.zones[m.grid.ActiveZone()]))
		return m, nil
	case "right", "l":
		m.grid.Move(1, 0)
		m.grid.ClampComp(len(m.zones[m.grid.ActiveZone()]))
		return m, nil
	case "up", "k":
		m.grid.Move(0, -1)
		m.grid.ClampComp(len(m.zones[m.grid.ActiveZone()]))
		return m, nil
	case "down", "j":
		m.grid.Move(0, 1)
		m.grid.ClampComp(len(m.zones[m.grid.ActiveZone()]))
		return m, nil
	case "J":
		m.grid.MoveComp(1, len(comps))
		return m, nil
	case "K":
		m.grid.MoveComp(-1, len(comps))
		return m, nil
	case "t":
		m.pageIdx++
		types := m.store.Document().Layout.PageTypes()
		if m.pageIdx >= len(types) {
			m.pageIdx = 0
		}
		m.grid.Comp = 0
		m.refreshDerived()
		return m, m.setStatus("page type: "+m.pageType(), false)
	}

	if m.loading || len(comps) == 0 {
		return m, nil
	}
	comp := comps[ClampCursor(m.grid.Comp, len(comps))]

	switch k.String() {
	case "x":
		if m.pageType() == DefaultPageType {
			return m, m.setStatus("exclusions apply to override page types only", true)
		}
		return m, m.toggleExclude(comp.Name)
	case "m":
		return m, m.moveComponentZone(comp)
	case "]":
		return m, m.nudgeComponentPriority(comp, 10)
	case "[":
		return m, m.nudgeComponentPriority(comp, -10)
	}
	return m, nil
}

func (m *uiModel) toggleExclude(name string) tea.Cmd {
	doc := m.store.Document()
	pageType := m.pageType()
	ov := doc.Layout.ByPageType[pageType]
	found := false
	out := ov.Exclude[:0:0]
	for _, n := range ov.Exclude {
		if n == name {
			found = true
			continue
		}
		out = append(out, n)
	}
	if !found {
		out = append(out, name)
	}
	ov.Exclude = out
	if err := m.store.SetPageOverride(pageType, ov); err != nil {
		return m.setStatus(err.Error(), true)
	}
	m.refreshDerived()
	return nil
}

// moveComponentZone relocates the selected component to the next zone. For
// the default page type this rewrites the plugin's own layout block; for
// override page types it writes a position override.
func (m *uiModel) moveComponentZone(comp ZoneComponent) tea.Cmd {
	cur := m.grid.ActiveZone()
	var target Zone
	for i, z := range AllZones {
		if z == cur {
			target = AllZones[(i+1)%len(AllZones)]
			break
		}
	}
	pageType := m.pageType()
	if pageType == DefaultPageType {
		if err := m.store.UpdatePlugin(comp.PluginIndex, func(p PluginEntry) PluginEntry {
			block := LayoutBlock{Position: target, Priority: comp.Priority, Display: comp.Display}
			if p.Layout != nil {
				block = *p.Layout
				block.Position = target
			}
			p.Layout = &block
			return p
		}); err != nil {
			return m.setStatus(err.Error(), true)
		}
	} else {
		doc := m.store.Document()
		ov := doc.Layout.ByPageType[pageType]
		if ov.Positions == nil {
			ov.Positions = map[string]PositionOverride{}
		}
		ov.Positions[comp.Name] = PositionOverride{Zone: target}
		if err := m.store.SetPageOverride(pageType, ov); err != nil {
			return m.setStatus(err.Error(), true)
		}
	}
	m.refreshDerived()
	return m.setStatus(fmt.Sprintf("%s -> %s", comp.Name, target), false)
}

func (m *uiModel) nudgeComponentPriority(comp ZoneComponent, delta int) tea.Cmd {
	enriched := m.store.Enriched()
	if comp.PluginIndex >= len(enriched) || enriched[comp.PluginIndex].Entry.Layout == nil {
		return nil
	}
	return m.nudgePriority(&enriched[comp.PluginIndex], delta)
}

// ---------- view ----------

func (m *uiModel) View() string {
	if m.firstRun {
		return m.viewFirstRun()
	}
	if m.showHelp {
		return m.viewHelp()
	}

	var b strings.Builder
	b.WriteString(m.viewHeader())
	b.WriteString("\n\n")

	switch m.panel {
	case panelPlugins:
		b.WriteString(m.viewPlugins())
	case panelSettings:
		b.WriteString(m.viewSettings())
	default:
		b.WriteString(m.viewLayout())
	}

	if m.editor.Editing() {
		b.WriteString("\n")
		b.WriteString(m.viewEditor())
	}
	if m.prompt != promptNone {
		b.WriteString("\n")
		b.WriteString(m.promptInput.View())
	}
	if m.loading {
		b.WriteString("\n")
		b.WriteString(m.styles.Warn.Render(fmt.Sprintf("%s in progress...", m.opName)))
		for _, line := range m.progress.Lines() {
			b.WriteString("\n  " + m.styles.Dim.Render(line))
		}
	}
	if m.status != "" {
		b.WriteString("\n\n")
		if m.statusErr {
			b.WriteString(m.styles.Error.Render(m.status))
		} else {
			b.WriteString(m.styles.Success.Render(m.status))
		}
	}
	b.WriteString("\n")
	b.WriteString(m.styles.Help.Render("tab: panel  ?: help  q: quit"))
	return b.String()
}

func (m *uiModel) viewHeader() string {
	var tabs []string
	for p := panelPlugins; p <= panelLayout; p++ {
		if p == m.panel {
			tabs = append(tabs, m.styles.TabActive.Render(p.title()))
		} else {
			tabs = append(tabs, m.styles.Tab.Render(p.title()))
		}
	}
	header := m.styles.Header.Render("ssg-plugin-manager") + "  " + strings.Join(tabs, "")
	switch m.panel {
	case panelPlugins:
		header += m.styles.Dim.Render("  sort:" + m.sortMode.String())
	case panelSettings:
		if n := m.modifiedCount(); n > 0 {
			header += m.styles.Modified.Render(fmt.Sprintf("  %d modified", n))
		}
	case panelLayout:
		header += m.styles.Dim.Render("  page:" + m.pageType())
	}
	if m.opts.SiteDir != "" {
		header += m.styles.Dim.Render("  " + m.opts.SiteDir)
	}
	return header
}

// modifiedCount counts leaves drifted from their shipped defaults. Computed
// over the full projection so collapsed subtrees still count.
func (m *uiModel) modifiedCount() int {
	n := 0
	for _, entry := range m.fullEntries {
		if entry.Container {
			continue
		}
		if def, ok := LookupDefault(entry.Path); ok && !IsAtDefault(entry.Value, def) {
			n++
		}
	}
	return n
}

func (m *uiModel) viewFirstRun() string {
	var b strings.Builder
	b.WriteString(m.styles.Header.Render("No configuration found") + "\n\n")
	choices := []string{
		"Create from shipped defaults",
		"Start with a minimal empty configuration",
	}
	for i, c := range choices {
		cursor := "  "
		line := c
		if i == m.firstRunChoice {
			cursor = "> "
			line = m.styles.Selected.Render(c)
		}
		b.WriteString(cursor + line + "\n")
	}
	b.WriteString("\n" + m.styles.Help.Render("enter: choose  q: quit"))
	return b.String()
}

func (m *uiModel) viewHelp() string {
	rows := []string{
		"Plugins   j/k move   space toggle   enter options   J/K reorder",
		"          z zone   m display   +/- priority   s sort mode",
		"          a add   x remove   i install   u update",
		"Settings  j/k move   h/l collapse   enter edit   r restore default",
		"Layout    arrows zones   J/K component   t page type   x exclude",
		"          m move zone   [/] priority",
		"Editor    enter commit   esc cancel one level   d delete   J/K reorder",
	}
	return m.styles.Header.Render("Help") + "\n\n" + strings.Join(rows, "\n") + "\n\n" +
		m.styles.Help.Render("any key to close")
}

func (m *uiModel) viewPlugins() string {
	if len(m.rows) == 0 {
		return m.styles.Dim.Render("no plugins configured, press 'a' to add one")
	}
	var b strings.Builder
	enriched := m.store.Enriched()
	for i, row := range m.rows {
		if row.Separator {
			b.WriteString(m.styles.Separator.Render("── "+row.Category+" ") + "\n")
			continue
		}
		e := enriched[row.PluginIndex]
		mark := "[x]"
		if !e.Entry.Enabled {
			mark = "[ ]"
		}
		line := fmt.Sprintf("%s %s", mark, e.DisplayName)
		var annotations []string
		if !e.Installed {
			annotations = append(annotations, "not installed")
		}
		if e.Modified {
			annotations = append(annotations, "modified")
		}
		if e.Entry.Layout != nil {
			annotations = append(annotations, string(e.Entry.Layout.Position))
		}
		if len(annotations) > 0 {
			line += "  " + m.styles.Dim.Render("("+strings.Join(annotations, ", ")+")")
		}
		if e.Modified {
			line = m.styles.Modified.Render(mark+" "+e.DisplayName) + strings.TrimPrefix(line, mark+" "+e.DisplayName)
		}
		if i == m.pluginCursor {
			b.WriteString(m.styles.Selected.Render(" > ") + line + "\n")
		} else {
			b.WriteString("   " + line + "\n")
		}
	}
	return b.String()
}

func (m *uiModel) viewSettings() string {
	if len(m.visible) == 0 {
		return m.styles.Dim.Render("no settings")
	}
	var b strings.Builder
	for i, entry := range m.visible {
		indent := strings.Repeat("  ", entry.Depth)
		label := entry.Path[len(entry.Path)-1]
		var line string
		if entry.Container {
			marker := "▾"
			if m.collapsed[entry.Key()] {
				marker = "▸"
			}
			line = fmt.Sprintf("%s%s %s", indent, marker, label)
		} else {
			val := entry.Value.String()
			line = fmt.Sprintf("%s%s: %s", indent, label, val)
			if kind, _ := ResolveGlobalFieldKind(entry.Path); kind == FieldColor {
				if sw := m.styles.Swatch(val); sw != "" {
					line += " " + sw
				}
			}
			if def, ok := LookupDefault(entry.Path); ok && !IsAtDefault(entry.Value, def) {
				line += " " + m.styles.Modified.Render("*")
			}
		}
		if i == m.settingsCursor {
			b.WriteString(m.styles.Selected.Render(" > ") + line + "\n")
		} else {
			b.WriteString("   " + line + "\n")
		}
	}
	return b.String()
}

func (m *uiModel) viewLayout() string {
	renderZone := func(z Zone) string {
		comps := m.zones[z]
		active := z == m.grid.ActiveZone()
		var lines []string
		lines = append(lines, m.styles.ZoneTitle.Render(string(z)))
		if len(comps) == 0 {
			lines = append(lines, m.styles.Dim.Render("(empty)"))
		}
		for i, c := range comps {
			line := fmt.Sprintf("%s %d", c.DisplayName, c.Priority)
			if c.Display != "all" && c.Display != "" {
				line += m.styles.Dim.Render(" " + c.Display)
			}
			if active && i == m.grid.Comp {
				line = m.styles.Selected.Render("> " + line)
			} else {
				line = "  " + line
			}
			lines = append(lines, line)
		}
		box := m.styles.ZoneBox
		if active {
			box = m.styles.ZoneBoxActive
		}
		return box.Render(strings.Join(lines, "\n"))
	}

	left := renderZone(ZoneLeft)
	middle := lipgloss.JoinVertical(lipgloss.Left,
		renderZone(ZoneHeader),
		renderZone(ZoneBeforeBody),
		renderZone(ZoneAfterBody),
		renderZone(ZoneFooter),
	)
	right := renderZone(ZoneRight)
	return lipgloss.JoinHorizontal(lipgloss.Top, left, " ", middle, " ", right)
}

func (m *uiModel) viewEditor() string {
	s := m.styles
	title := s.Header.Render("edit: " + m.editor.Title())
	var body string

	renderChoices := func(options []string, choice int) string {
		var lines []string
		for i, opt := range options {
			if i == choice {
				lines = append(lines, s.Selected.Render("> "+opt))
			} else {
				lines = append(lines, "  "+opt)
			}
		}
		return strings.Join(lines, "\n")
	}

	switch m.editor.State() {
	case StateEditBool:
		body = renderChoices([]string{"true", "false"}, m.editor.Choice())
	case StateEditEnum:
		body = renderChoices(m.editor.EnumValues(), m.editor.Choice())
	case StateEditText:
		body = m.input.View()
		if m.editor.Kind() == FieldColor {
			if sw := s.Swatch(m.input.Value()); sw != "" {
				body += " " + sw
			}
		}
	case StateEditArray:
		items := m.editor.ArrayItems()
		var lines []string
		for i, item := range items {
			prefix := "  "
			if i == m.editor.ItemCursor() {
				prefix = s.Selected.Render("> ")
			}
			lines = append(lines, prefix+item.String())
		}
		appendLabel := s.Dim.Render("+ add item")
		if m.editor.ItemCursor() >= len(items) {
			appendLabel = s.Selected.Render("> + add item")
		}
		lines = append(lines, appendLabel)
		body = strings.Join(lines, "\n")
	case StateEditArrayItem:
		if m.editor.Kind() == FieldArrayEnum {
			body = renderChoices(m.editor.EnumValues(), m.editor.Choice())
		} else {
			body = m.input.View()
		}
	case StateEditObject:
		keys := m.editor.ObjectKeys()
		var lines []string
		for i, key := range keys {
			prefix := "  "
			if i == m.editor.ObjCursor() {
				prefix = s.Selected.Render("> ")
			}
			val := ""
			if f, ok := m.editorObjectField(key); ok {
				val = f.String()
			}
			lines = append(lines, fmt.Sprintf("%s%s: %s", prefix, key, val))
		}
		addLabel := s.Dim.Render("+ add field")
		if m.editor.ObjCursor() >= len(keys) {
			addLabel = s.Selected.Render("> + add field")
		}
		lines = append(lines, addLabel)
		body = strings.Join(lines, "\n")
	case StateEditObjectValue:
		if m.editor.ObjBool() {
			body = m.editor.ObjKey() + ":\n" + renderChoices([]string{"true", "false"}, m.editor.Choice())
		} else {
			body = m.editor.ObjKey() + ": " + m.input.View()
		}
	case StateAddFieldKey:
		body = "field name: " + m.input.View()
	case StateAddFieldValue:
		body = m.editor.PendingKey() + " = " + m.input.View()
	}

	out := title + "\n" + body
	if errText := m.editor.Err(); errText != "" {
		out += "\n" + s.Error.Render(errText)
	}
	return out
}

func (m *uiModel) editorObjectField(key string) (Value, bool) {
	ref := m.editor.Ref()
	var container Value
	if ref.PluginIndex < 0 {
		container, _ = m.store.GetAtPath(ref.Path)
	} else {
		container, _ = m.store.GetPluginOption(ref.PluginIndex, ref.Path)
	}
	return container.Field(key)
}
