package resourceschema

import (
	"bytes"
	_ "embed"
	"errors"
	"io"
	"net/url"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const (
	idKey     = "$id"
	schemaKey = "$schema"

	// DefinitionSchemaURI identifies the bundled resource definition
	// meta-schema. Definitions are stamped with it before loading so the
	// engine always validates them against that meta-schema.
	DefinitionSchemaURI = "https://schema.provisionkit.dev/resource.definition.schema.v1.json"

	// definitionDocURI is the synthetic address a definition document is
	// registered under while it is compiled.
	definitionDocURI = "resource.schema.json"
)

//go:embed schema/draft-07.json
var draft07SchemaJSON []byte

//go:embed schema/resource.definition.schema.v1.json
var definitionSchemaJSON []byte

// RefLoader supplies documents for remote $ref targets not present in the
// local registry. The engine invokes it once per distinct unresolved ref per
// load; failures propagate immediately as load failures.
type RefLoader func(url string) (io.ReadCloser, error)

// Option configures a Validator.
type Option func(*Validator)

// WithRefLoader installs a remote reference fetcher. Without one, any $ref
// outside the registered meta-schemas fails the load.
func WithRefLoader(l RefLoader) Option {
	return func(v *Validator) { v.loader = l }
}

// metaSchema is a bundled reference document pinned to its canonical URI.
type metaSchema struct {
	uri string
	raw []byte
}

// Validator owns the bundled meta-schema documents and the external
// validation engine wiring. It is immutable after construction and safe for
// concurrent use: every operation builds its own compiler, so concurrent
// loads never share reference-resolution state.
type Validator struct {
	registry []metaSchema
	loader   RefLoader
}

// New constructs a Validator from the bundled meta-schema documents. A
// malformed bundle (bad or missing $id) is a *ConfigError: it means the
// deployment is broken, not that user input is bad.
func New(opts ...Option) (*Validator, error) {
	v := &Validator{}
	for _, opt := range opts {
		opt(v)
	}
	for _, raw := range [][]byte{draft07SchemaJSON, definitionSchemaJSON} {
		doc, err := DecodeJSON(raw)
		if err != nil {
			return nil, &ConfigError{Reason: "bundled meta-schema is not valid JSON", Cause: err}
		}
		uri, err := metaSchemaURI(doc)
		if err != nil {
			return nil, err
		}
		v.registry = append(v.registry, metaSchema{uri: uri, raw: raw})
	}
	// a broken bundle surfaces at construction, not on first load
	c, err := v.newCompiler()
	if err != nil {
		return nil, err
	}
	if _, err := c.Compile(DefinitionSchemaURI); err != nil {
		return nil, &ConfigError{Reason: "bundled meta-schema does not compile", Cause: err}
	}
	return v, nil
}

// metaSchemaURI extracts and checks the self-identifying URI of a
// meta-schema document.
func metaSchemaURI(doc map[string]any) (string, error) {
	raw, ok := doc[idKey]
	if !ok {
		return "", &ConfigError{Reason: "meta-schema has no " + idKey}
	}
	id, ok := raw.(string)
	if !ok || id == "" {
		return "", &ConfigError{Reason: "meta-schema " + idKey + " must be a non-empty string"}
	}
	u, err := url.Parse(id)
	if err != nil || !u.IsAbs() {
		return "", &ConfigError{Reason: "meta-schema " + idKey + " is not a valid absolute URI", Cause: err}
	}
	u.Fragment = ""
	return u.String(), nil
}

// newCompiler returns a fresh draft-07 compiler with every bundled
// meta-schema registered under its $id, so dependent loads resolve them from
// cache instead of the network.
func (v *Validator) newCompiler() (*jsonschema.Compiler, error) {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft7
	if v.loader != nil {
		c.LoadURL = v.loader
	}
	for _, m := range v.registry {
		if err := c.AddResource(m.uri, bytes.NewReader(m.raw)); err != nil {
			return nil, &ConfigError{Reason: "registering meta-schema " + m.uri, Cause: err}
		}
	}
	return c, nil
}

// ValidateInstance checks an instance document against a schema document.
// Validation failures are returned as a scrubbed *ValidationError tree.
func (v *Validator) ValidateInstance(instance any, schemaDoc map[string]any) error {
	c, err := v.newCompiler()
	if err != nil {
		return err
	}
	sch, err := v.compileDocument(c, schemaDoc)
	if err != nil {
		return err
	}
	return validateWith(sch, instance)
}

// LoadResourceDefinition runs the two-phase load:
//
// Phase 1 stamps the definition's $schema with the resource definition
// meta-schema URI and validates its shape against that meta-schema. This
// catches missing required keys, wrong types and disallowed keywords, but a
// dangling $ref passes because the meta-schema only checks that ref values
// are URIs.
//
// Phase 2 loads the definition itself as a schema, forcing resolution of
// every $ref it contains; a missing or structurally invalid target fails
// here.
//
// An accepted definition is returned as a ResourceTypeSchema with its vendor
// metadata extracted.
func (v *Validator) LoadResourceDefinition(definition map[string]any) (*ResourceTypeSchema, error) {
	doc, err := normalizeDocument(definition)
	if err != nil {
		return nil, err
	}
	doc[schemaKey] = DefinitionSchemaURI

	c, err := v.newCompiler()
	if err != nil {
		return nil, err
	}
	meta, err := c.Compile(DefinitionSchemaURI)
	if err != nil {
		return nil, &ConfigError{Reason: "bundled meta-schema does not compile", Cause: err}
	}
	if err := validateWith(meta, doc); err != nil {
		return nil, err
	}

	// fresh compiler: phase 1 must not pollute phase 2's resolution cache
	c, err = v.newCompiler()
	if err != nil {
		return nil, err
	}
	sch, err := v.compileDocument(c, doc)
	if err != nil {
		return nil, err
	}
	return newResourceTypeSchema(v, doc, sch)
}

// compileDocument registers a schema document under a synthetic URI and
// compiles it, translating engine failures into this package's error types.
func (v *Validator) compileDocument(c *jsonschema.Compiler, doc map[string]any) (*jsonschema.Schema, error) {
	raw, err := EncodeJSON(doc)
	if err != nil {
		return nil, err
	}
	if err := c.AddResource(definitionDocURI, bytes.NewReader(raw)); err != nil {
		return nil, schemaLoadError(err)
	}
	sch, err := c.Compile(definitionDocURI)
	if err != nil {
		return nil, schemaLoadError(err)
	}
	return sch, nil
}

// schemaLoadError surfaces reference-resolution and structural load failures
// as the same failure tree type as shape violations.
func schemaLoadError(err error) error {
	var se *jsonschema.SchemaError
	if errors.As(err, &se) {
		var ve *jsonschema.ValidationError
		if errors.As(se.Err, &ve) {
			return NewScrubbedError(ve)
		}
		return &ValidationError{Message: se.Error(), Pointer: se.SchemaURL}
	}
	return &ValidationError{Message: err.Error()}
}

func validateWith(sch *jsonschema.Schema, instance any) error {
	err := sch.Validate(instance)
	if err == nil {
		return nil
	}
	var ve *jsonschema.ValidationError
	if errors.As(err, &ve) {
		return NewScrubbedError(ve)
	}
	return err
}
