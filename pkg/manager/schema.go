package manager

import (
	"regexp"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// FieldKind is the resolved editor behavior for a key path. It is a second,
// schema-derived tag layered on top of the structural ValueKind; the two tag
// spaces stay orthogonal.
type FieldKind int

const (
	// FieldText is the free-form fallback: committed text is parsed with the
	// try-JSON-else-string rule.
	FieldText FieldKind = iota
	FieldBoolean
	FieldEnum
	FieldArrayEnum
	FieldArrayString
	FieldObject
	FieldColor
)

func (k FieldKind) String() string {
	switch k {
	case FieldBoolean:
		return "boolean"
	case FieldEnum:
		return "enum"
	case FieldArrayEnum:
		return "array-of-enum"
	case FieldArrayString:
		return "array-of-string"
	case FieldObject:
		return "object"
	case FieldColor:
		return "color"
	default:
		return "free-form"
	}
}

// Fixed global field table. Everything unmatched is free-form.
var (
	globalBooleanPaths = map[string]bool{
		"enableSPA":        true,
		"enablePopovers":   true,
		"theme.cdnCaching": true,
	}

	globalEnumPaths = map[string][]string{
		"defaultDateType":    {"created", "modified", "published"},
		"analytics.provider": {"plausible", "umami", "goatcounter", "google", "none"},
	}

	globalStringArrayPaths = map[string]bool{
		"ignorePatterns": true,
	}

	colorPathPattern = regexp.MustCompile(`^theme\.colors\.(lightMode|darkMode)\.[^.]+$`)
)

// ResolveGlobalFieldKind maps a global configuration key path to its field
// kind. Pure function of the path: calling it twice with the same path
// yields the same kind. Enum kinds also return their literal candidate set.
func ResolveGlobalFieldKind(path []string) (FieldKind, []string) {
	key := PathKey(path)
	if globalBooleanPaths[key] {
		return FieldBoolean, nil
	}
	if values, ok := globalEnumPaths[key]; ok {
		return FieldEnum, values
	}
	if globalStringArrayPaths[key] {
		return FieldArrayString, nil
	}
	if colorPathPattern.MatchString(key) {
		return FieldColor, nil
	}
	return FieldText, nil
}

// ResolvePluginOptionKind maps a plugin option key to a field kind using the
// manifest's declared option schema. ok is false when the option has no
// schema entry, in which case the editor falls back to runtime type
// inspection of the current value.
func ResolvePluginOptionKind(m *Manifest, optionKey string) (FieldKind, []string, bool) {
	if m == nil || m.OptionSchema == nil {
		return FieldText, nil, false
	}
	schema, found := m.OptionSchema[optionKey]
	if !found {
		return FieldText, nil, false
	}
	switch schema.Type {
	case "enum":
		return FieldEnum, schema.Values, true
	case "array":
		if schema.Items != nil && schema.Items.Type == "enum" {
			return FieldArrayEnum, schema.Items.Values, true
		}
	}
	return FieldText, nil, false
}

// StructuralFieldKind inspects a current value to pick an editor when no
// schema kind applies (kind is the resolver's fallback FieldText).
func StructuralFieldKind(v Value) FieldKind {
	switch v.Kind() {
	case KindBool:
		return FieldBoolean
	case KindArray:
		return FieldArrayString
	case KindObject:
		return FieldObject
	default:
		return FieldText
	}
}

var cssFunctionPattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9-]*\(.*\)$`)

// ValidColor reports whether text is acceptable for a color field: 3/6/8
// digit hex, or any CSS color function call (matched by function-name prefix
// plus parenthesized argument, not a full grammar).
func ValidColor(text string) bool {
	s := strings.TrimSpace(text)
	if s == "" {
		return false
	}
	if strings.HasPrefix(s, "#") {
		hex := s[1:]
		switch len(hex) {
		case 3:
			// go-colorful only parses #RGB and #RRGGBB directly.
			_, err := colorful.Hex(s)
			return err == nil
		case 6:
			_, err := colorful.Hex(s)
			return err == nil
		case 8:
			if !isHexDigits(hex) {
				return false
			}
			_, err := colorful.Hex("#" + hex[:6])
			return err == nil
		default:
			return false
		}
	}
	return cssFunctionPattern.MatchString(s)
}

func isHexDigits(s string) bool {
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f', r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return s != ""
}

// SwatchHex normalizes a color value to a #RRGGBB hex usable for a terminal
// swatch, or "" when the value is not hex-representable (css functions).
func SwatchHex(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "#") {
		return ""
	}
	hex := s[1:]
	switch len(hex) {
	case 3:
		if c, err := colorful.Hex(s); err == nil {
			return c.Hex()
		}
	case 6:
		if c, err := colorful.Hex(s); err == nil {
			return c.Hex()
		}
	case 8:
		if isHexDigits(hex) {
			if c, err := colorful.Hex("#" + hex[:6]); err == nil {
				return c.Hex()
			}
		}
	}
	return ""
}
