package resourceschema

import (
	"strings"
	"testing"
)

func TestParseTagging_UnknownAttribute(t *testing.T) {
	_, err := parseTagging(map[string]any{
		"taggable":   true,
		"tagColours": []any{"red"},
	})
	if err == nil {
		t.Fatalf("expected unknown attribute error")
	}
	se, ok := err.(*SemanticError)
	if !ok {
		t.Fatalf("error = %T, want *SemanticError", err)
	}
	if !strings.Contains(se.Message, "unknown tagging attribute") {
		t.Errorf("message = %q", se.Message)
	}
	if se.Pointer != "/tagging/tagColours" {
		t.Errorf("pointer = %q", se.Pointer)
	}
}

func TestParseTagging_PartialBlockKeepsDefaults(t *testing.T) {
	tagging, err := parseTagging(map[string]any{"taggable": true, "tagOnCreate": false})
	if err != nil {
		t.Fatalf("parseTagging: %v", err)
	}
	if tagging.TagOnCreate {
		t.Errorf("tagOnCreate should be overridden to false")
	}
	if !tagging.TagUpdatable || !tagging.CloudFormationSystemTags {
		t.Errorf("unset attributes should keep fully-taggable defaults: %+v", tagging)
	}
	if tagging.TagProperty.String() != defaultTagProperty {
		t.Errorf("tagProperty = %q", tagging.TagProperty)
	}
}

func TestTaggingValidate_TagPropertyMustBeSchemaRooted(t *testing.T) {
	tagging := taggingFromLegacy(true)
	tagging.TagProperty = MustPointer("/Tags")

	err := tagging.validate(true, func(string) bool { return true })
	if err == nil || !strings.Contains(err.Error(), `must start with "/properties"`) {
		t.Errorf("err = %v", err)
	}
}

func TestNewResourceTypeSchema_ResidualClosure(t *testing.T) {
	doc := map[string]any{
		"typeName":    "Org::Svc::Res",
		"description": "d",
		"taggable":    false,
		"properties":  map[string]any{"A": map[string]any{"type": "string"}},
		"vendorExt":   true,
	}
	s, err := newResourceTypeSchema(nil, doc, nil)
	if err != nil {
		t.Fatalf("newResourceTypeSchema: %v", err)
	}
	unprocessed := s.UnprocessedProperties()
	if len(unprocessed) != 1 {
		t.Fatalf("unprocessed = %v, want only the unrecognized vendor key", unprocessed)
	}
	if unprocessed["vendorExt"] != true {
		t.Errorf("vendorExt missing from unprocessed: %v", unprocessed)
	}
}

func TestNewResourceTypeSchema_MissingTypeName(t *testing.T) {
	_, err := newResourceTypeSchema(nil, map[string]any{"description": "d"}, nil)
	se, ok := err.(*SemanticError)
	if !ok {
		t.Fatalf("error = %T, want *SemanticError", err)
	}
	if se.Key != "typeName" {
		t.Errorf("key = %q", se.Key)
	}
}

func TestParseHandler_TimeoutShapes(t *testing.T) {
	cases := []struct {
		raw  any
		want int
	}{
		{map[string]any{"permissions": []any{"p"}}, DefaultHandlerTimeoutMinutes},
		{map[string]any{"permissions": []any{"p"}, "timeoutInMinutes": 45}, 45},
		{map[string]any{"permissions": []any{"p"}, "timeoutInMinutes": float64(60)}, 60},
	}
	for i, c := range cases {
		h, err := parseHandler("create", c.raw)
		if err != nil {
			t.Fatalf("case %d: %v", i, err)
		}
		if h.TimeoutInMinutes != c.want {
			t.Errorf("case %d: timeout = %d, want %d", i, h.TimeoutInMinutes, c.want)
		}
	}
}
