package resourceschema

import (
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Replacement strategies a definition may declare.
const (
	ReplacementCreateThenDelete = "create_then_delete"
	ReplacementDeleteThenCreate = "delete_then_create"
)

// standardKeywords are the draft-07 keywords consumed by structural
// validation. Definition keys outside this set are residual vendor metadata.
var standardKeywords = map[string]struct{}{
	"$schema": {}, "$id": {}, "$ref": {}, "$comment": {},
	"title": {}, "description": {}, "default": {}, "examples": {},
	"type": {}, "enum": {}, "const": {},
	"multipleOf": {}, "maximum": {}, "exclusiveMaximum": {}, "minimum": {}, "exclusiveMinimum": {},
	"maxLength": {}, "minLength": {}, "pattern": {},
	"items": {}, "additionalItems": {}, "maxItems": {}, "minItems": {}, "uniqueItems": {}, "contains": {},
	"maxProperties": {}, "minProperties": {}, "required": {},
	"properties": {}, "patternProperties": {}, "additionalProperties": {}, "dependencies": {}, "propertyNames": {},
	"if": {}, "then": {}, "else": {},
	"allOf": {}, "anyOf": {}, "oneOf": {}, "not": {},
	"format": {}, "contentEncoding": {}, "contentMediaType": {},
	"definitions": {}, "readOnly": {}, "writeOnly": {},
}

// ResourceTypeSchema is the semantic model built from a successfully loaded
// resource definition. It is immutable after construction.
type ResourceTypeSchema struct {
	validator *Validator
	compiled  *jsonschema.Schema
	doc       map[string]any

	typeName            string
	description         string
	schemaURL           string
	sourceURL           string
	documentationURL    string
	replacementStrategy string

	createOnly            []Pointer
	conditionalCreateOnly []Pointer
	deprecated            []Pointer
	readOnly              []Pointer
	writeOnly             []Pointer
	primaryIdentifier     []Pointer
	additionalIdentifiers [][]Pointer

	propertyTransform map[string]string
	handlers          map[string]Handler
	tagging           Tagging
	unprocessed       map[string]any

	legacyTaggingSeen     bool
	structuredTaggingSeen bool
}

// residualField binds a vendor key to its extraction step. The table is
// walked in order over the residual map; each step consumes its key, so
// whatever survives the walk is genuinely unknown vendor metadata.
type residualField struct {
	key   string
	parse func(s *ResourceTypeSchema, v any) error
}

var residualFields = []residualField{
	{"typeName", func(s *ResourceTypeSchema, v any) error {
		return scalarField(&s.typeName, "typeName", v)
	}},
	{"sourceUrl", func(s *ResourceTypeSchema, v any) error {
		return scalarField(&s.sourceURL, "sourceUrl", v)
	}},
	{"documentationUrl", func(s *ResourceTypeSchema, v any) error {
		return scalarField(&s.documentationURL, "documentationUrl", v)
	}},
	{"replacementStrategy", func(s *ResourceTypeSchema, v any) error {
		return scalarField(&s.replacementStrategy, "replacementStrategy", v)
	}},
	{"createOnlyProperties", func(s *ResourceTypeSchema, v any) error {
		return pointerListField(&s.createOnly, "createOnlyProperties", v)
	}},
	{"conditionalCreateOnlyProperties", func(s *ResourceTypeSchema, v any) error {
		return pointerListField(&s.conditionalCreateOnly, "conditionalCreateOnlyProperties", v)
	}},
	{"deprecatedProperties", func(s *ResourceTypeSchema, v any) error {
		return pointerListField(&s.deprecated, "deprecatedProperties", v)
	}},
	{"readOnlyProperties", func(s *ResourceTypeSchema, v any) error {
		return pointerListField(&s.readOnly, "readOnlyProperties", v)
	}},
	{"writeOnlyProperties", func(s *ResourceTypeSchema, v any) error {
		return pointerListField(&s.writeOnly, "writeOnlyProperties", v)
	}},
	{"primaryIdentifier", func(s *ResourceTypeSchema, v any) error {
		return pointerListField(&s.primaryIdentifier, "primaryIdentifier", v)
	}},
	{"additionalIdentifiers", func(s *ResourceTypeSchema, v any) error {
		list, ok := v.([]any)
		if !ok {
			return semanticTypeError("additionalIdentifiers", "an array of arrays")
		}
		for i, raw := range list {
			var ident []Pointer
			if err := pointerListField(&ident, fmt.Sprintf("additionalIdentifiers/%d", i), raw); err != nil {
				return err
			}
			s.additionalIdentifiers = append(s.additionalIdentifiers, ident)
		}
		return nil
	}},
	{"propertyTransform", func(s *ResourceTypeSchema, v any) error {
		m, ok := v.(map[string]any)
		if !ok {
			return semanticTypeError("propertyTransform", "an object of strings")
		}
		for path, raw := range m {
			expr, ok := raw.(string)
			if !ok {
				return semanticTypeError("propertyTransform/"+path, "a string")
			}
			s.propertyTransform[path] = expr
		}
		return nil
	}},
	{"handlers", func(s *ResourceTypeSchema, v any) error {
		handlers, err := parseHandlers(v)
		if err != nil {
			return err
		}
		s.handlers = handlers
		return nil
	}},
	{"taggable", func(s *ResourceTypeSchema, v any) error {
		taggable, err := asBool(v)
		if err != nil {
			return semanticTypeError("taggable", "a boolean")
		}
		s.tagging = taggingFromLegacy(taggable)
		s.legacyTaggingSeen = true
		return nil
	}},
	{"tagging", func(s *ResourceTypeSchema, v any) error {
		if s.legacyTaggingSeen {
			return &SemanticError{
				Message: "invalid tagging configuration: more than one tagging configuration found",
				Key:     "tagging",
				Pointer: "/tagging",
			}
		}
		tagging, err := parseTagging(v)
		if err != nil {
			return err
		}
		s.tagging = tagging
		s.structuredTaggingSeen = true
		return nil
	}},
}

// newResourceTypeSchema extracts vendor metadata from an accepted definition
// document. The document has already passed the two-phase load.
func newResourceTypeSchema(v *Validator, doc map[string]any, sch *jsonschema.Schema) (*ResourceTypeSchema, error) {
	s := &ResourceTypeSchema{
		validator:           v,
		compiled:            sch,
		doc:                 doc,
		replacementStrategy: ReplacementCreateThenDelete,
		propertyTransform:   map[string]string{},
		handlers:            map[string]Handler{},
		tagging:             DefaultTagging(),
	}
	s.description, _ = doc["description"].(string)
	s.schemaURL, _ = doc[schemaKey].(string)

	residual := make(map[string]any, len(doc))
	for k, raw := range doc {
		if _, std := standardKeywords[k]; !std {
			residual[k] = raw
		}
	}
	for _, f := range residualFields {
		raw, ok := residual[f.key]
		if !ok {
			continue
		}
		if err := f.parse(s, raw); err != nil {
			return nil, err
		}
		delete(residual, f.key)
	}
	if s.typeName == "" {
		return nil, &SemanticError{Message: "typeName is required", Key: "typeName", Pointer: "/typeName"}
	}
	s.unprocessed = residual

	// cross-field checks only apply to an explicit tagging block; the
	// default and legacy configurations predate them
	if s.structuredTaggingSeen {
		_, hasUpdate := s.handlers[HandlerUpdate]
		if err := s.tagging.validate(hasUpdate, s.DefinesProperty); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *ResourceTypeSchema) TypeName() string            { return s.typeName }
func (s *ResourceTypeSchema) Description() string         { return s.description }
func (s *ResourceTypeSchema) SchemaURL() string           { return s.schemaURL }
func (s *ResourceTypeSchema) SourceURL() string           { return s.sourceURL }
func (s *ResourceTypeSchema) DocumentationURL() string    { return s.documentationURL }
func (s *ResourceTypeSchema) ReplacementStrategy() string { return s.replacementStrategy }

func (s *ResourceTypeSchema) CreateOnlyProperties() []Pointer { return clonePointers(s.createOnly) }
func (s *ResourceTypeSchema) ConditionalCreateOnlyProperties() []Pointer {
	return clonePointers(s.conditionalCreateOnly)
}
func (s *ResourceTypeSchema) DeprecatedProperties() []Pointer { return clonePointers(s.deprecated) }
func (s *ResourceTypeSchema) ReadOnlyProperties() []Pointer   { return clonePointers(s.readOnly) }
func (s *ResourceTypeSchema) WriteOnlyProperties() []Pointer  { return clonePointers(s.writeOnly) }
func (s *ResourceTypeSchema) PrimaryIdentifier() []Pointer {
	return clonePointers(s.primaryIdentifier)
}

func (s *ResourceTypeSchema) AdditionalIdentifiers() [][]Pointer {
	out := make([][]Pointer, len(s.additionalIdentifiers))
	for i, ident := range s.additionalIdentifiers {
		out[i] = clonePointers(ident)
	}
	return out
}

func (s *ResourceTypeSchema) CreateOnlyPropertiesAsStrings() []string {
	return pointersAsStrings(s.createOnly)
}
func (s *ResourceTypeSchema) ConditionalCreateOnlyPropertiesAsStrings() []string {
	return pointersAsStrings(s.conditionalCreateOnly)
}
func (s *ResourceTypeSchema) DeprecatedPropertiesAsStrings() []string {
	return pointersAsStrings(s.deprecated)
}
func (s *ResourceTypeSchema) ReadOnlyPropertiesAsStrings() []string {
	return pointersAsStrings(s.readOnly)
}
func (s *ResourceTypeSchema) WriteOnlyPropertiesAsStrings() []string {
	return pointersAsStrings(s.writeOnly)
}
func (s *ResourceTypeSchema) PrimaryIdentifierAsStrings() []string {
	return pointersAsStrings(s.primaryIdentifier)
}

func (s *ResourceTypeSchema) AdditionalIdentifiersAsStrings() [][]string {
	out := make([][]string, len(s.additionalIdentifiers))
	for i, ident := range s.additionalIdentifiers {
		out[i] = pointersAsStrings(ident)
	}
	return out
}

// PropertyTransform maps schema-rooted property pointers to transform
// expressions.
func (s *ResourceTypeSchema) PropertyTransform() map[string]string {
	out := make(map[string]string, len(s.propertyTransform))
	for k, v := range s.propertyTransform {
		out[k] = v
	}
	return out
}

// Handlers returns the declared lifecycle handlers keyed by action. An absent
// action is unsupported.
func (s *ResourceTypeSchema) Handlers() map[string]Handler {
	out := make(map[string]Handler, len(s.handlers))
	for k, v := range s.handlers {
		out[k] = v
	}
	return out
}

func (s *ResourceTypeSchema) Tagging() Tagging { return s.tagging }

// UnprocessedProperties returns the vendor keys that no extraction step
// recognized.
func (s *ResourceTypeSchema) UnprocessedProperties() map[string]any {
	return copyDocument(s.unprocessed)
}

// ValidateInstance checks a concrete resource instance against the loaded
// schema; failures are a scrubbed *ValidationError tree.
func (s *ResourceTypeSchema) ValidateInstance(instance any) error {
	return validateWith(s.compiled, instance)
}

// DefinesProperty reports whether the schema declares the named property.
// Nested properties may be addressed as "outer/inner". The walk is
// combinator-aware: when the top-level schema is an allOf/anyOf/oneOf
// aggregate, a property declared by any branch counts as defined.
func (s *ResourceTypeSchema) DefinesProperty(name string) bool {
	p, err := NewPointer("/" + name)
	if err != nil || p.IsRoot() {
		return false
	}
	return definesProperty(s.compiled, p.Tokens(), map[schemaVisit]bool{})
}

// schemaVisit guards ref cycles per remaining path depth.
type schemaVisit struct {
	sch   *jsonschema.Schema
	depth int
}

func definesProperty(sch *jsonschema.Schema, path []string, visited map[schemaVisit]bool) bool {
	if sch == nil || len(path) == 0 || visited[schemaVisit{sch, len(path)}] {
		return false
	}
	visited[schemaVisit{sch, len(path)}] = true
	if sch.Ref != nil && definesProperty(sch.Ref, path, visited) {
		return true
	}
	if child, ok := sch.Properties[path[0]]; ok {
		if len(path) == 1 {
			return true
		}
		if definesProperty(child, path[1:], visited) {
			return true
		}
	}
	for _, branches := range [][]*jsonschema.Schema{sch.AllOf, sch.AnyOf, sch.OneOf} {
		for _, branch := range branches {
			if definesProperty(branch, path, visited) {
				return true
			}
		}
	}
	return false
}

// RemoveWriteOnlyProperties strips every write-only property from an
// instance document in place. Schema-rooted pointers (/properties/...) are
// rewritten to instance-rooted ones; properties absent from the instance are
// skipped.
func (s *ResourceTypeSchema) RemoveWriteOnlyProperties(instance map[string]any) {
	for _, p := range s.writeOnly {
		instancePointer(p).Remove(instance)
	}
}

// HasWriteOnlyProperties reports whether the instance document carries a
// value for any write-only property.
func (s *ResourceTypeSchema) HasWriteOnlyProperties(instance map[string]any) bool {
	for _, p := range s.writeOnly {
		if instancePointer(p).Exists(instance) {
			return true
		}
	}
	return false
}

// instancePointer rewrites a schema-rooted property pointer to the
// corresponding instance-rooted pointer.
func instancePointer(p Pointer) Pointer {
	tokens := p.Tokens()
	if len(tokens) > 0 && tokens[0] == "properties" {
		return pointerFromTokens(tokens[1:])
	}
	return p
}

func clonePointers(ps []Pointer) []Pointer {
	out := make([]Pointer, len(ps))
	copy(out, ps)
	return out
}

func pointersAsStrings(ps []Pointer) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.String()
	}
	return out
}

func scalarField(dst *string, key string, v any) error {
	s, err := asString(v)
	if err != nil {
		return semanticTypeError(key, "a string")
	}
	*dst = s
	return nil
}

func pointerListField(dst *[]Pointer, key string, v any) error {
	list, ok := v.([]any)
	if !ok {
		return semanticTypeError(key, "an array of property pointers")
	}
	out := make([]Pointer, 0, len(list))
	for _, raw := range list {
		s, ok := raw.(string)
		if !ok {
			return semanticTypeError(key, "an array of property pointers")
		}
		p, err := NewPointer(s)
		if err != nil {
			return &SemanticError{Message: fmt.Sprintf("%s: %v", key, err), Key: key, Pointer: "/" + key}
		}
		out = append(out, p)
	}
	*dst = out
	return nil
}

func semanticTypeError(key, want string) error {
	return &SemanticError{
		Message: fmt.Sprintf("%s must be %s", key, want),
		Key:     key,
		Pointer: "/" + key,
	}
}

func asString(v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("expected string, got %T", v)
	}
	return s, nil
}

func asBool(v any) (bool, error) {
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("expected boolean, got %T", v)
	}
	return b, nil
}

func asInt(v any) (int, error) {
	switch n := v.(type) {
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, fmt.Errorf("expected integer, got %v", n)
		}
		return int(i), nil
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n != float64(int64(n)) {
			return 0, fmt.Errorf("expected integer, got %v", n)
		}
		return int(n), nil
	default:
		return 0, fmt.Errorf("expected integer, got %T", v)
	}
}

func asStringList(v any) ([]string, error) {
	list, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("expected array of strings, got %T", v)
	}
	out := make([]string, len(list))
	for i, raw := range list {
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("expected array of strings, got %T element", raw)
		}
		out[i] = s
	}
	return out, nil
}
