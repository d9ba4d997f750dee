package resourceschema_test

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	rs "github.com/provisionkit/resourceschema"
)

func TestResourceTypeSchema_ScalarMetadata(t *testing.T) {
	s := loadDefinition(t, testDefinitionJSON)

	if got := s.TypeName(); got != "Acme::Test::TestModel" {
		t.Errorf("typeName = %q", got)
	}
	if got := s.Description(); got != "A test schema for unit tests." {
		t.Errorf("description = %q", got)
	}
	if got := s.SourceURL(); got != "https://example.com/acme/test-model.git" {
		t.Errorf("sourceUrl = %q", got)
	}
	if got := s.DocumentationURL(); got != "" {
		t.Errorf("documentationUrl = %q, want empty", got)
	}
	if got := s.SchemaURL(); got != rs.DefinitionSchemaURI {
		t.Errorf("schemaUrl = %q, want the stamped meta-schema URI", got)
	}
	if got := s.UnprocessedProperties(); len(got) != 0 {
		t.Errorf("unprocessedProperties = %v, want empty", got)
	}
}

func TestResourceTypeSchema_PointerLists(t *testing.T) {
	s := loadDefinition(t, testDefinitionJSON)

	cases := []struct {
		name string
		got  []string
		want []string
	}{
		{"createOnly", s.CreateOnlyPropertiesAsStrings(), []string{"/properties/propertyA", "/properties/propertyD"}},
		{"conditionalCreateOnly", s.ConditionalCreateOnlyPropertiesAsStrings(), []string{"/properties/propertyD"}},
		{"deprecated", s.DeprecatedPropertiesAsStrings(), []string{"/properties/propertyC"}},
		{"readOnly", s.ReadOnlyPropertiesAsStrings(), []string{"/properties/propertyB"}},
		{"writeOnly", s.WriteOnlyPropertiesAsStrings(), []string{"/properties/propertyC", "/properties/propertyE/nestedProperty"}},
		{"primaryIdentifier", s.PrimaryIdentifierAsStrings(), []string{"/properties/propertyA"}},
	}
	for _, c := range cases {
		if !reflect.DeepEqual(c.got, c.want) {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}

	additional := s.AdditionalIdentifiersAsStrings()
	if len(additional) != 1 || !reflect.DeepEqual(additional[0], []string{"/properties/propertyB"}) {
		t.Errorf("additionalIdentifiers = %v", additional)
	}
}

func TestResourceTypeSchema_Handlers(t *testing.T) {
	s := loadDefinition(t, testDefinitionJSON)
	handlers := s.Handlers()

	create, ok := handlers[rs.HandlerCreate]
	if !ok {
		t.Fatalf("create handler missing")
	}
	if create.TimeoutInMinutes != 30 {
		t.Errorf("create timeout = %d, want 30", create.TimeoutInMinutes)
	}
	if !reflect.DeepEqual(create.Permissions, []string{"acme:CreateTestModel"}) {
		t.Errorf("create permissions = %v", create.Permissions)
	}

	read, ok := handlers[rs.HandlerRead]
	if !ok {
		t.Fatalf("read handler missing")
	}
	if read.TimeoutInMinutes != rs.DefaultHandlerTimeoutMinutes {
		t.Errorf("read timeout = %d, want default %d", read.TimeoutInMinutes, rs.DefaultHandlerTimeoutMinutes)
	}

	if _, ok := handlers[rs.HandlerList]; ok {
		t.Errorf("list handler should be unsupported (absent)")
	}
}

func TestResourceTypeSchema_TaggingBlock(t *testing.T) {
	s := loadDefinition(t, testDefinitionJSON)
	tagging := s.Tagging()

	if !tagging.Taggable || !tagging.TagOnCreate || !tagging.TagUpdatable {
		t.Errorf("tagging booleans = %+v", tagging)
	}
	if tagging.CloudFormationSystemTags {
		t.Errorf("cloudFormationSystemTags should be false")
	}
	if got := tagging.TagProperty.String(); got != "/properties/Tags" {
		t.Errorf("tagProperty = %q", got)
	}
	if !reflect.DeepEqual(tagging.TagPermissions, []string{"acme:TagResource"}) {
		t.Errorf("tagPermissions = %v", tagging.TagPermissions)
	}
}

func TestResourceTypeSchema_DefaultTaggingWhenUnconfigured(t *testing.T) {
	s := loadDefinition(t, `{
		"typeName": "Org::Svc::Res",
		"description": "d",
		"primaryIdentifier": ["/properties/A"],
		"properties": { "A": { "type": "string" } },
		"additionalProperties": false
	}`)
	if !reflect.DeepEqual(s.Tagging(), rs.DefaultTagging()) {
		t.Errorf("tagging = %+v, want default", s.Tagging())
	}
}

func TestResourceTypeSchema_LegacyTaggable(t *testing.T) {
	s := loadDefinition(t, `{
		"typeName": "Org::Svc::Res",
		"description": "d",
		"taggable": false,
		"primaryIdentifier": ["/properties/A"],
		"properties": { "A": { "type": "string" } },
		"additionalProperties": false
	}`)
	tagging := s.Tagging()
	if tagging.Taggable || tagging.TagOnCreate || tagging.TagUpdatable || tagging.CloudFormationSystemTags {
		t.Errorf("legacy taggable=false should disable every flag: %+v", tagging)
	}
	if got := tagging.TagProperty.String(); got != "/properties/Tags" {
		t.Errorf("tagProperty = %q, want conventional location", got)
	}
}

func TestResourceTypeSchema_ReplacementStrategy(t *testing.T) {
	s := loadDefinition(t, `{
		"typeName": "Org::Svc::Res",
		"description": "d",
		"replacementStrategy": "delete_then_create",
		"primaryIdentifier": ["/properties/A"],
		"properties": { "A": { "type": "string" } },
		"additionalProperties": false
	}`)
	if got := s.ReplacementStrategy(); got != rs.ReplacementDeleteThenCreate {
		t.Errorf("replacementStrategy = %q", got)
	}
}

func TestResourceTypeSchema_PropertyTransform(t *testing.T) {
	s := loadDefinition(t, testDefinitionJSON)
	want := map[string]string{"/properties/propertyA": "$uppercase(propertyA)"}
	if got := s.PropertyTransform(); !reflect.DeepEqual(got, want) {
		t.Errorf("propertyTransform = %v, want %v", got, want)
	}
}

func TestDefinesProperty(t *testing.T) {
	s := loadDefinition(t, testDefinitionJSON)

	cases := []struct {
		name string
		want bool
	}{
		{"propertyA", true},
		{"Tags", true},
		{"propertyE/nestedProperty", true},
		{"unknown", false},
		{"propertyE/unknown", false},
		{"", false},
	}
	for _, c := range cases {
		if got := s.DefinesProperty(c.name); got != c.want {
			t.Errorf("DefinesProperty(%q) = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestDefinesProperty_CombinatorWrapping(t *testing.T) {
	s := loadDefinition(t, `{
		"typeName": "Org::Svc::Res",
		"description": "d",
		"primaryIdentifier": ["/properties/Name"],
		"properties": { "Name": { "type": "string" } },
		"allOf": [
			{ "properties": { "Shared": { "type": "string" } } },
			{ "oneOf": [
				{ "properties": { "AltA": { "type": "string" } } },
				{ "properties": { "AltB": { "type": "integer" } } }
			] },
			{ "anyOf": [
				{ "properties": { "AnyC": { "type": "boolean" } } }
			] }
		],
		"additionalProperties": false
	}`)

	for _, name := range []string{"Name", "Shared", "AltA", "AltB", "AnyC"} {
		if !s.DefinesProperty(name) {
			t.Errorf("DefinesProperty(%q) = false, want true", name)
		}
	}
	if s.DefinesProperty("Undeclared") {
		t.Errorf("DefinesProperty(Undeclared) = true, want false")
	}
}

func TestRemoveWriteOnlyProperties(t *testing.T) {
	s := loadDefinition(t, testDefinitionJSON)
	instance := map[string]any{
		"propertyA": "a",
		"propertyB": 2,
		"propertyC": "write-only",
		"propertyE": map[string]any{
			"nestedProperty": "write-only-nested",
			"otherNested":    "keep",
		},
	}

	if !s.HasWriteOnlyProperties(instance) {
		t.Fatalf("instance carries write-only values")
	}
	s.RemoveWriteOnlyProperties(instance)

	if s.HasWriteOnlyProperties(instance) {
		t.Errorf("write-only values survived removal")
	}
	if _, ok := instance["propertyC"]; ok {
		t.Errorf("propertyC should be removed")
	}
	nested, _ := instance["propertyE"].(map[string]any)
	if _, ok := nested["nestedProperty"]; ok {
		t.Errorf("nestedProperty should be removed")
	}
	if nested["otherNested"] != "keep" {
		t.Errorf("sibling of the removed leaf should be intact")
	}
	if instance["propertyB"] != 2 {
		t.Errorf("non write-only property should be intact")
	}
}

func TestRemoveWriteOnlyProperties_AbsentParentIsNoop(t *testing.T) {
	s := loadDefinition(t, testDefinitionJSON)
	instance := map[string]any{"propertyA": "a"}

	s.RemoveWriteOnlyProperties(instance)

	if len(instance) != 1 || instance["propertyA"] != "a" {
		t.Errorf("instance changed by no-op removal: %v", instance)
	}
	if s.HasWriteOnlyProperties(instance) {
		t.Errorf("HasWriteOnlyProperties on clean instance")
	}
}

func TestResourceTypeSchema_ValidateInstance(t *testing.T) {
	s := loadDefinition(t, testDefinitionJSON)

	if err := s.ValidateInstance(map[string]any{"propertyA": "x"}); err != nil {
		t.Fatalf("valid instance rejected: %v", err)
	}

	err := s.ValidateInstance(map[string]any{"propertyA": 42})
	if err == nil {
		t.Fatalf("expected type violation")
	}
	var ve *rs.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("error = %T, want *ValidationError", err)
	}
	if findKeyword(ve, "type") == nil {
		t.Errorf("expected type violation, got: %v", ve.FullMessage())
	}
}

func TestTagging_UpdatableWithoutUpdateHandler(t *testing.T) {
	v := newValidator(t)
	_, err := v.LoadResourceDefinition(decodeDefinition(t, `{
		"typeName": "Org::Svc::Res",
		"description": "d",
		"primaryIdentifier": ["/properties/A"],
		"properties": {
			"A": { "type": "string" },
			"Tags": { "type": "array", "items": { "type": "string" } }
		},
		"tagging": { "taggable": true, "tagUpdatable": true },
		"additionalProperties": false
	}`))
	var se *rs.SemanticError
	if !errors.As(err, &se) {
		t.Fatalf("error = %v, want *SemanticError", err)
	}
	if !strings.Contains(se.Message, "update handler is missing") {
		t.Errorf("message = %q", se.Message)
	}
	if se.Pointer != "/tagging/tagUpdatable" {
		t.Errorf("pointer = %q", se.Pointer)
	}
}

func TestTagging_TagPropertyNotInSchema(t *testing.T) {
	v := newValidator(t)
	_, err := v.LoadResourceDefinition(decodeDefinition(t, `{
		"typeName": "Org::Svc::Res",
		"description": "d",
		"primaryIdentifier": ["/properties/A"],
		"properties": { "A": { "type": "string" } },
		"handlers": { "update": { "permissions": ["org:Update"] } },
		"tagging": { "taggable": true, "tagProperty": "/properties/Missing" },
		"additionalProperties": false
	}`))
	var se *rs.SemanticError
	if !errors.As(err, &se) {
		t.Fatalf("error = %v, want *SemanticError", err)
	}
	if !strings.Contains(se.Message, "not found in schema") {
		t.Errorf("message = %q", se.Message)
	}
}

func TestTagging_BothFormsRejected(t *testing.T) {
	v := newValidator(t)
	_, err := v.LoadResourceDefinition(decodeDefinition(t, `{
		"typeName": "Org::Svc::Res",
		"description": "d",
		"primaryIdentifier": ["/properties/A"],
		"properties": {
			"A": { "type": "string" },
			"Tags": { "type": "array", "items": { "type": "string" } }
		},
		"taggable": true,
		"handlers": { "update": { "permissions": ["org:Update"] } },
		"tagging": { "taggable": true },
		"additionalProperties": false
	}`))
	var se *rs.SemanticError
	if !errors.As(err, &se) {
		t.Fatalf("error = %v, want *SemanticError", err)
	}
	if !strings.Contains(se.Message, "more than one tagging configuration") {
		t.Errorf("message = %q", se.Message)
	}
}
