package manager

import (
	"fmt"
	"strconv"
	"strings"
)

// EditorState enumerates the edit-session machine states. Each state carries
// typed payload fields on the Editor rather than a pile of independent
// booleans, so impossible combinations cannot be represented.
type EditorState int

const (
	// StateViewing: cursor navigation only, no field selected.
	StateViewing EditorState = iota
	// StateEditBool: two-item true/false choice.
	StateEditBool
	// StateEditEnum: highlighted choice among a fixed candidate list.
	StateEditEnum
	// StateEditText: single text-input commit (free-form, color, numeric).
	StateEditText
	// StateEditArray: item cursor over array items plus a virtual append slot.
	StateEditArray
	// StateEditArrayItem: nested editor for one array item (or the append).
	StateEditArrayItem
	// StateEditObject: key cursor over object keys plus a virtual add slot.
	StateEditObject
	// StateEditObjectValue: nested editor for one subfield's value.
	StateEditObjectValue
	// StateAddFieldKey: first step of add-field, prompting the key name.
	StateAddFieldKey
	// StateAddFieldValue: second step of add-field, prompting the value.
	StateAddFieldValue
)

// FieldRef identifies an editable field: a global configuration path when
// PluginIndex is negative, otherwise a path within that plugin's options.
type FieldRef struct {
	PluginIndex int
	Path        []string
}

// GlobalField makes a ref into the global configuration tree.
func GlobalField(path ...string) FieldRef {
	return FieldRef{PluginIndex: -1, Path: path}
}

// OptionField makes a ref into a plugin's options object.
func OptionField(pluginIndex int, path ...string) FieldRef {
	return FieldRef{PluginIndex: pluginIndex, Path: path}
}

func (r FieldRef) global() bool { return r.PluginIndex < 0 }

// Notice is a user-visible outcome of an editor action. The zero Notice
// means nothing to report.
type Notice struct {
	Text  string
	Error bool
}

// RestoreOutcome distinguishes the restore-to-default results.
type RestoreOutcome int

const (
	// RestoreNoDefault: the key path has no defined default; no-op.
	RestoreNoDefault RestoreOutcome = iota
	// RestoreAlreadyDefault: value already equals the default; no-op.
	RestoreAlreadyDefault
	// RestoreApplied: the default was written like a normal commit.
	RestoreApplied
)

// Editor is the per-field edit-session state machine layered on top of the
// navigation models. Commits write through the Document Store; array and
// object sub-editors write through per item operation, while scalar editors
// commit only on confirm.
type Editor struct {
	store   *DocumentStore
	loading bool

	state EditorState
	ref   FieldRef
	kind  FieldKind

	enumValues []string
	choice     int

	text    string
	numeric bool

	itemCursor int // array cursor; == item count selects the append slot
	itemIndex  int // item under edit in StateEditArrayItem; -1 appends

	objCursor  int    // object cursor; == key count selects the add slot
	objKey     string // key under edit in StateEditObjectValue
	objBool    bool   // subfield editor is the boolean chooser
	pendingKey string // staged key during the add-field value step

	errText string
}

// NewEditor creates an editor writing through the given store.
func NewEditor(store *DocumentStore) *Editor {
	return &Editor{store: store, ref: FieldRef{PluginIndex: -1}}
}

func (e *Editor) State() EditorState   { return e.state }
func (e *Editor) Ref() FieldRef        { return e.ref }
func (e *Editor) Kind() FieldKind      { return e.kind }
func (e *Editor) EnumValues() []string { return e.enumValues }
func (e *Editor) Choice() int          { return e.choice }
func (e *Editor) Text() string         { return e.text }
func (e *Editor) Numeric() bool        { return e.numeric }
func (e *Editor) ItemCursor() int      { return e.itemCursor }
func (e *Editor) ObjCursor() int       { return e.objCursor }
func (e *Editor) ObjKey() string       { return e.objKey }
func (e *Editor) ObjBool() bool        { return e.objBool }
func (e *Editor) PendingKey() string   { return e.pendingKey }
func (e *Editor) Err() string          { return e.errText }

// SetText mirrors the UI text input into the editor's buffer.
func (e *Editor) SetText(s string) { e.text = s }

// SetLoading gates all mutating transitions while an external plugin
// operation is in flight. Navigation display continues to render.
func (e *Editor) SetLoading(on bool) { e.loading = on }
func (e *Editor) Loading() bool      { return e.loading }

// Editing reports whether a field edit session is active.
func (e *Editor) Editing() bool { return e.state != StateViewing }

// Title names the field under edit for the UI.
func (e *Editor) Title() string {
	if !e.ref.global() && len(e.ref.Path) == 0 {
		return "options"
	}
	return PathKey(e.ref.Path)
}

// currentValue re-reads the field from the store. Sub-editors never cache
// container values across write-throughs.
func (e *Editor) currentValue() Value {
	var v Value
	if e.ref.global() {
		v, _ = e.store.GetAtPath(e.ref.Path)
	} else {
		v, _ = e.store.GetPluginOption(e.ref.PluginIndex, e.ref.Path)
	}
	return v
}

// ArrayItems returns the current array items for rendering.
func (e *Editor) ArrayItems() []Value { return e.currentValue().Items() }

// ObjectKeys returns the current object keys for rendering.
func (e *Editor) ObjectKeys() []string { return e.currentValue().Keys() }

func (e *Editor) manifest() *Manifest {
	if e.ref.global() {
		return nil
	}
	enriched := e.store.Enriched()
	if e.ref.PluginIndex >= len(enriched) {
		return nil
	}
	return enriched[e.ref.PluginIndex].Manifest
}

// resolveKind picks the field kind for a ref: the schema table for globals,
// the manifest option schema for plugin options, and structural inspection
// of the current value when neither applies.
func (e *Editor) resolveKind(ref FieldRef, current Value) (FieldKind, []string) {
	if ref.global() {
		kind, values := ResolveGlobalFieldKind(ref.Path)
		if kind == FieldText {
			kind = StructuralFieldKind(current)
		}
		return kind, values
	}
	if len(ref.Path) == 1 {
		if kind, values, ok := ResolvePluginOptionKind(e.manifest(), ref.Path[0]); ok {
			return kind, values
		}
	}
	// The options root is always an object, even before any option is set.
	if len(ref.Path) == 0 && !current.IsValid() {
		return FieldObject, nil
	}
	return StructuralFieldKind(current), nil
}

// Enter begins an edit session on ref, entering the type-specific sub-state.
func (e *Editor) Enter(ref FieldRef) {
	if e.loading || e.state != StateViewing {
		return
	}
	current := func() Value {
		if ref.global() {
			v, _ := e.store.GetAtPath(ref.Path)
			return v
		}
		v, _ := e.store.GetPluginOption(ref.PluginIndex, ref.Path)
		return v
	}()

	e.ref = ref
	e.errText = ""
	e.kind, e.enumValues = e.resolveKind(ref, current)

	switch e.kind {
	case FieldBoolean:
		e.state = StateEditBool
		// Choice list is [true, false]; highlight the current value.
		if current.Kind() == KindBool && !current.AsBool() {
			e.choice = 1
		} else {
			e.choice = 0
		}
	case FieldEnum:
		e.state = StateEditEnum
		e.choice = enumIndexOf(e.enumValues, current.AsString())
	case FieldArrayEnum, FieldArrayString:
		e.state = StateEditArray
		e.itemCursor = 0
	case FieldObject:
		e.state = StateEditObject
		e.objCursor = 0
	default:
		e.state = StateEditText
		e.numeric = current.Kind() == KindNumber
		if current.IsValid() {
			e.text = editText(current)
		} else {
			e.text = ""
		}
	}
}

// editText renders a value for seeding a free-text editor. Containers
// serialize as JSON so an untouched confirm round-trips through the
// try-JSON-else-string rule instead of committing the display form as a
// literal string; scalars stay plain text.
func editText(v Value) string {
	switch v.Kind() {
	case KindArray, KindObject:
		return v.JSON()
	default:
		return v.String()
	}
}

func enumIndexOf(values []string, current string) int {
	for i, v := range values {
		if v == current {
			return i
		}
	}
	return 0
}

// MoveChoice advances the highlighted choice or sub-cursor for the active
// state, clamped to its bounds.
func (e *Editor) MoveChoice(delta int) {
	if e.loading {
		return
	}
	switch e.state {
	case StateEditBool:
		e.choice = ClampCursor(e.choice+delta, 2)
	case StateEditEnum:
		e.choice = ClampCursor(e.choice+delta, len(e.enumValues))
	case StateEditArray:
		// The append slot sits one past the last real item.
		e.itemCursor = ClampCursor(e.itemCursor+delta, len(e.ArrayItems())+1)
	case StateEditArrayItem:
		if e.kind == FieldArrayEnum {
			e.choice = ClampCursor(e.choice+delta, len(e.enumValues))
		}
	case StateEditObject:
		e.objCursor = ClampCursor(e.objCursor+delta, len(e.ObjectKeys())+1)
	case StateEditObjectValue:
		if e.objBool {
			e.choice = ClampCursor(e.choice+delta, 2)
		}
	}
}

// Confirm advances the active state: committing scalar editors, opening
// nested item editors, or stepping the add-field flow.
func (e *Editor) Confirm() Notice {
	if e.loading {
		return Notice{}
	}
	switch e.state {
	case StateEditBool:
		notice := e.commit(Bool(e.choice == 0))
		e.state = StateViewing
		return notice

	case StateEditEnum:
		if len(e.enumValues) == 0 {
			e.state = StateViewing
			return Notice{}
		}
		notice := e.commit(Str(e.enumValues[e.choice]))
		e.state = StateViewing
		return notice

	case StateEditText:
		v, ok := e.validateText(e.text)
		if !ok {
			return Notice{}
		}
		notice := e.commit(v)
		e.state = StateViewing
		return notice

	case StateEditArray:
		items := e.ArrayItems()
		e.errText = ""
		if e.itemCursor >= len(items) {
			// Append slot: open the nested editor pre-seeded empty.
			e.itemIndex = -1
			e.text = ""
			e.choice = 0
		} else {
			e.itemIndex = e.itemCursor
			item := items[e.itemIndex]
			if e.kind == FieldArrayEnum {
				e.choice = enumIndexOf(e.enumValues, item.AsString())
			} else {
				e.text = editText(item)
			}
		}
		e.state = StateEditArrayItem
		return Notice{}

	case StateEditArrayItem:
		var item Value
		switch {
		case e.kind == FieldArrayEnum:
			if len(e.enumValues) == 0 {
				e.state = StateEditArray
				return Notice{}
			}
			item = Str(e.enumValues[e.choice])
		case e.kind == FieldArrayString:
			// Array-of-string items commit as plain text, no JSON coercion.
			item = Str(e.text)
		default:
			item = ParseScalarText(e.text)
		}
		arr := e.currentValue()
		if arr.Kind() != KindArray {
			arr = Arr()
		}
		if e.itemIndex < 0 {
			arr = arr.WithAppended(item)
			e.itemCursor = arr.Len() - 1
		} else {
			arr = arr.WithItem(e.itemIndex, item)
		}
		notice := e.commit(arr)
		e.state = StateEditArray
		return notice

	case StateEditObject:
		keys := e.ObjectKeys()
		e.errText = ""
		if e.objCursor >= len(keys) {
			e.pendingKey = ""
			e.text = ""
			e.state = StateAddFieldKey
			return Notice{}
		}
		e.objKey = keys[e.objCursor]
		sub, _ := e.currentValue().Field(e.objKey)
		e.objBool = sub.Kind() == KindBool
		e.numeric = sub.Kind() == KindNumber
		if e.objBool {
			if sub.AsBool() {
				e.choice = 0
			} else {
				e.choice = 1
			}
		} else if sub.IsValid() {
			e.text = editText(sub)
		} else {
			e.text = ""
		}
		e.state = StateEditObjectValue
		return Notice{}

	case StateEditObjectValue:
		var v Value
		if e.objBool {
			v = Bool(e.choice == 0)
		} else {
			parsed, ok := e.validateText(e.text)
			if !ok {
				return Notice{}
			}
			v = parsed
		}
		obj := e.currentValue()
		if obj.Kind() != KindObject {
			obj = Obj()
		}
		notice := e.commit(obj.WithField(e.objKey, v))
		e.state = StateEditObject
		return notice

	case StateAddFieldKey:
		key := strings.TrimSpace(e.text)
		if key == "" {
			e.errText = "field name required"
			return Notice{}
		}
		if _, exists := e.currentValue().Field(key); exists {
			e.errText = fmt.Sprintf("field %q already exists", key)
			return Notice{}
		}
		e.pendingKey = key
		e.text = ""
		e.errText = ""
		e.state = StateAddFieldValue
		return Notice{}

	case StateAddFieldValue:
		obj := e.currentValue()
		if obj.Kind() != KindObject {
			obj = Obj()
		}
		obj = obj.WithField(e.pendingKey, ParseScalarText(e.text))
		notice := e.commit(obj)
		e.objCursor = obj.Len() - 1
		e.state = StateEditObject
		return notice
	}
	return Notice{}
}

// validateText applies the scalar commit rules: numeric fields must parse as
// a number, color fields must satisfy the color syntax, and everything else
// goes through try-JSON-else-string. Returns ok=false with the editor left
// open and an in-place error set.
func (e *Editor) validateText(text string) (Value, bool) {
	if e.numeric {
		n, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
		if err != nil {
			e.errText = fmt.Sprintf("%q is not a number", text)
			return Value{}, false
		}
		e.errText = ""
		return Num(n), true
	}
	if e.kind == FieldColor {
		if !ValidColor(text) {
			e.errText = fmt.Sprintf("%q is not a valid color", text)
			return Value{}, false
		}
		e.errText = ""
		return Str(strings.TrimSpace(text)), true
	}
	e.errText = ""
	return ParseScalarText(text), true
}

// Cancel unwinds exactly one level of nesting. Returns false in Viewing so
// the caller can treat the key as a panel-level action instead.
func (e *Editor) Cancel() bool {
	e.errText = ""
	switch e.state {
	case StateViewing:
		return false
	case StateEditArrayItem:
		e.state = StateEditArray
	case StateEditObjectValue, StateAddFieldKey:
		e.state = StateEditObject
	case StateAddFieldValue:
		e.state = StateAddFieldKey
		e.text = e.pendingKey
	default:
		e.state = StateViewing
	}
	return true
}

// MoveItem swaps the item under the array cursor with its neighbor. Swaps
// happen only between two real items; the append slot never participates.
func (e *Editor) MoveItem(delta int) {
	if e.loading || e.state != StateEditArray {
		return
	}
	items := e.ArrayItems()
	i := e.itemCursor
	j := i + delta
	if i < 0 || i >= len(items) || j < 0 || j >= len(items) {
		return
	}
	if notice := e.commit(e.currentValue().WithSwapped(i, j)); notice.Error {
		e.errText = notice.Text
		return
	}
	e.itemCursor = j
}

// DeleteItem removes the real item under the array cursor and re-clamps.
func (e *Editor) DeleteItem() {
	if e.loading || e.state != StateEditArray {
		return
	}
	items := e.ArrayItems()
	if e.itemCursor < 0 || e.itemCursor >= len(items) {
		return
	}
	if notice := e.commit(e.currentValue().WithoutItem(e.itemCursor)); notice.Error {
		e.errText = notice.Text
		return
	}
	e.itemCursor = ClampCursor(e.itemCursor, len(items))
}

// DeleteField removes the object key under the cursor and re-clamps. Unlike
// the other object operations this routes through the store's delete path
// rather than rewriting the container.
func (e *Editor) DeleteField() {
	if e.loading || e.state != StateEditObject {
		return
	}
	keys := e.ObjectKeys()
	if e.objCursor < 0 || e.objCursor >= len(keys) {
		return
	}
	path := append(append([]string(nil), e.ref.Path...), keys[e.objCursor])
	var err error
	if e.ref.global() {
		err = e.store.DeleteAtPath(path)
	} else {
		err = e.store.DeletePluginOption(e.ref.PluginIndex, path)
	}
	if err != nil {
		e.errText = fmt.Sprintf("save failed: %v", err)
		return
	}
	e.objCursor = ClampCursor(e.objCursor, e.currentValue().Len()+1)
}

// RestoreDefault writes the field's defined default from Viewing. Global
// paths restore from the shipped default document; plugin options restore
// from the manifest's defaultOptions.
func (e *Editor) RestoreDefault(ref FieldRef) RestoreOutcome {
	if e.loading || e.state != StateViewing {
		return RestoreNoDefault
	}
	var def Value
	var ok bool
	if ref.global() {
		def, ok = LookupDefault(ref.Path)
	} else if m := func() *Manifest {
		enriched := e.store.Enriched()
		if ref.PluginIndex < len(enriched) {
			return enriched[ref.PluginIndex].Manifest
		}
		return nil
	}(); m != nil {
		def, ok = m.DefaultOptions.GetPath(ref.Path)
	}
	if !ok || !def.IsValid() {
		return RestoreNoDefault
	}

	var current Value
	if ref.global() {
		current, _ = e.store.GetAtPath(ref.Path)
	} else {
		current, _ = e.store.GetPluginOption(ref.PluginIndex, ref.Path)
	}
	if IsAtDefault(current, def) {
		return RestoreAlreadyDefault
	}

	saved := e.ref
	e.ref = ref
	e.commit(def)
	e.ref = saved
	return RestoreApplied
}

// commit writes through the Document Store. On persist failure the in-memory
// document keeps the change and the error surfaces as a notice.
func (e *Editor) commit(v Value) Notice {
	var err error
	if e.ref.global() {
		err = e.store.SetAtPath(e.ref.Path, v)
	} else {
		err = e.store.SetPluginOption(e.ref.PluginIndex, e.ref.Path, v)
	}
	if err != nil {
		return Notice{Text: fmt.Sprintf("save failed: %v", err), Error: true}
	}
	return Notice{}
}
