package resourceschema

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// safeKeywords lists the keywords whose engine messages never echo instance
// values. Messages for any other keyword are rewritten to a fixed template
// before they leave this package, because instance documents frequently carry
// credentials as property values.
var safeKeywords = map[string]struct{}{
	// object keywords
	"required": {}, "minProperties": {}, "maxProperties": {}, "dependencies": {}, "additionalProperties": {},
	// string keywords
	"minLength": {}, "maxLength": {},
	// array keywords
	"minItems": {}, "maxItems": {}, "uniqueItems": {}, "contains": {},
	// misc keywords
	"type": {}, "allOf": {}, "anyOf": {}, "oneOf": {},
}

// ValidationError is a node in a validation failure tree. Aggregate nodes
// (combinators, multi-violation checks) have an empty Keyword and a non-empty
// Causes list; their message is a violation summary, never an instance value.
type ValidationError struct {
	Message string
	Keyword string
	Pointer string // instance location; "" is the document root
	Causes  []*ValidationError
}

func (e *ValidationError) Error() string { return e.Message }

// FullMessage flattens the failure tree into a multi-line message containing
// every leaf violation.
func (e *ValidationError) FullMessage() string {
	var b strings.Builder
	e.appendFullMessage(&b)
	return strings.TrimSpace(b.String())
}

func (e *ValidationError) appendFullMessage(b *strings.Builder) {
	if !e.isAggregate() && e.Message != "" {
		b.WriteString(e.Message)
		b.WriteByte('\n')
	}
	for _, c := range e.Causes {
		c.appendFullMessage(b)
	}
}

func (e *ValidationError) isAggregate() bool {
	return e.Keyword == "" && len(e.Causes) > 0
}

// NewScrubbedError translates the engine's native failure tree into a
// ValidationError, redacting messages for keywords outside the safe list.
// Aggregate nodes and safe-keyword nodes pass through verbatim; everything
// else is rewritten to pointer+keyword only. Children are scrubbed
// recursively regardless.
func NewScrubbedError(ve *jsonschema.ValidationError) *ValidationError {
	if ve == nil {
		return nil
	}
	keyword := keywordAt(ve.KeywordLocation)
	out := &ValidationError{
		Keyword: keyword,
		Pointer: ve.InstanceLocation,
	}
	aggregate := keyword == "" && len(ve.Causes) > 0
	if _, safe := safeKeywords[keyword]; aggregate || safe {
		out.Message = ve.Message
	} else {
		out.Message = fmt.Sprintf("%s: failed validation constraint for keyword [%s]", ve.InstanceLocation, keyword)
	}
	for _, c := range ve.Causes {
		out.Causes = append(out.Causes, NewScrubbedError(c))
	}
	return out
}

// keywordAt extracts the violated keyword from an engine keyword location
// such as "/allOf/1/properties/x/minLength". Trailing numeric tokens select a
// combinator branch and are skipped.
func keywordAt(keywordLocation string) string {
	if keywordLocation == "" {
		return ""
	}
	tokens := strings.Split(strings.TrimPrefix(keywordLocation, "/"), "/")
	for i := len(tokens) - 1; i >= 0; i-- {
		if _, err := strconv.Atoi(tokens[i]); err == nil {
			continue
		}
		return unescapeToken(tokens[i])
	}
	return ""
}

// ConfigError reports that the system's own bundled meta-schema documents are
// broken (for example a missing or malformed $id). It indicates a bad
// deployment, not bad user input.
type ConfigError struct {
	Reason string
	Cause  error
}

func (e *ConfigError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("resourceschema: %s: %v", e.Reason, e.Cause)
	}
	return "resourceschema: " + e.Reason
}

func (e *ConfigError) Unwrap() error { return e.Cause }

// SemanticError reports that a recognized vendor property is internally
// inconsistent, detected while constructing a ResourceTypeSchema.
type SemanticError struct {
	Message string
	Key     string // the vendor key at fault, e.g. "tagging"
	Pointer string // location of the offending value within the definition
}

func (e *SemanticError) Error() string { return e.Message }
