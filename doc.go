package resourceschema

// Package resourceschema validates declarative resource type definitions
// against a bundled meta-schema and reinterprets accepted definitions as
// schemas for concrete resource instances.
//
// It provides:
//
//   - Two-phase definition loading: shape validation against the resource
//     definition meta-schema, then a ref-resolving schema load (Validator)
//   - Semantic extraction of vendor metadata (identifiers, mutability classes,
//     handlers, tagging) from the residual properties of an accepted
//     definition (ResourceTypeSchema)
//   - A redacted validation failure tree so instance values never leak into
//     error output (ValidationError)
//   - Pointer-addressed queries and mutation of instance documents (Pointer)
//
// Design policy:
//   - The recursive JSON Schema validation algorithm is not reimplemented; it
//     is consumed through santhosh-tekuri/jsonschema behind the Validator.
//   - Every operation is synchronous and stateless with respect to
//     caller-supplied documents; each load obtains its own compiler so
//     concurrent callers never share reference-resolution state.
//   - Prefer black-box testing against public APIs.
//
// Typical usage:
//
//	v, err := resourceschema.New()
//	doc, err := resourceschema.DecodeJSON(definitionBytes)
//	rts, err := v.LoadResourceDefinition(doc)
//	err = rts.ValidateInstance(instanceDoc)
//	rts.RemoveWriteOnlyProperties(instanceDoc)
