package resourceschema

import "fmt"

// Structured tagging configuration attributes. Any other key inside the
// tagging block is rejected during extraction.
const (
	taggingTaggable       = "taggable"
	taggingTagOnCreate    = "tagOnCreate"
	taggingTagUpdatable   = "tagUpdatable"
	taggingSystemTags     = "cloudFormationSystemTags"
	taggingTagProperty    = "tagProperty"
	taggingTagPermissions = "permissions"
)

const defaultTagProperty = "/properties/Tags"

// Tagging describes how instances of a resource type may be tagged.
type Tagging struct {
	Taggable                 bool
	TagOnCreate              bool
	TagUpdatable             bool
	CloudFormationSystemTags bool
	TagProperty              Pointer
	TagPermissions           []string
}

// DefaultTagging is the configuration assumed when a definition declares
// nothing: fully taggable through the conventional tag property.
func DefaultTagging() Tagging { return taggingFromLegacy(true) }

// taggingFromLegacy synthesizes a uniform configuration from the legacy
// scalar taggable field.
func taggingFromLegacy(taggable bool) Tagging {
	return Tagging{
		Taggable:                 taggable,
		TagOnCreate:              taggable,
		TagUpdatable:             taggable,
		CloudFormationSystemTags: taggable,
		TagProperty:              MustPointer(defaultTagProperty),
	}
}

func parseTagging(v any) (Tagging, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return Tagging{}, &SemanticError{
			Message: "tagging must be an object",
			Key:     "tagging",
			Pointer: "/tagging",
		}
	}
	t := DefaultTagging()
	for key, raw := range m {
		var err error
		switch key {
		case taggingTaggable:
			t.Taggable, err = asBool(raw)
		case taggingTagOnCreate:
			t.TagOnCreate, err = asBool(raw)
		case taggingTagUpdatable:
			t.TagUpdatable, err = asBool(raw)
		case taggingSystemTags:
			t.CloudFormationSystemTags, err = asBool(raw)
		case taggingTagProperty:
			var s string
			if s, err = asString(raw); err == nil {
				t.TagProperty, err = NewPointer(s)
			}
		case taggingTagPermissions:
			t.TagPermissions, err = asStringList(raw)
		default:
			return Tagging{}, &SemanticError{
				Message: fmt.Sprintf("unknown tagging attribute [%s]", key),
				Key:     "tagging",
				Pointer: "/tagging/" + key,
			}
		}
		if err != nil {
			return Tagging{}, &SemanticError{
				Message: fmt.Sprintf("invalid tagging attribute %s: %v", key, err),
				Key:     "tagging",
				Pointer: "/tagging/" + key,
			}
		}
	}
	return t, nil
}

// validate runs the cross-field tagging invariants against the declared
// handler set and the property shape of the loaded schema.
func (t Tagging) validate(hasUpdateHandler bool, definesProperty func(string) bool) error {
	if t.TagUpdatable && !hasUpdateHandler {
		return &SemanticError{
			Message: "invalid tagUpdatable value since update handler is missing",
			Key:     "tagging",
			Pointer: "/tagging/tagUpdatable",
		}
	}
	tokens := t.TagProperty.Tokens()
	if len(tokens) < 2 || tokens[0] != "properties" {
		return &SemanticError{
			Message: fmt.Sprintf("invalid tagProperty value %s must start with \"/properties\"", t.TagProperty),
			Key:     "tagging",
			Pointer: "/tagging/tagProperty",
		}
	}
	if t.Taggable {
		name := pointerFromTokens(tokens[1:]).String()[1:]
		if !definesProperty(name) {
			return &SemanticError{
				Message: fmt.Sprintf("invalid tagProperty value since %s not found in schema", name),
				Key:     "tagging",
				Pointer: "/tagging/tagProperty",
			}
		}
	}
	return nil
}
