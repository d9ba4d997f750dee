package resourceschema

import (
	"bytes"
	"fmt"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// DecodeJSON decodes a JSON-encoded document into the generic document model
// (map[string]any / []any / string / json.Number / bool / nil). Numbers are
// preserved as json.Number to avoid precision loss.
func DecodeJSON(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return doc, nil
}

// DecodeYAML decodes a YAML-encoded document into the generic document model.
// Resource definitions are commonly authored in YAML; the result is
// interchangeable with DecodeJSON output.
func DecodeYAML(data []byte) (map[string]any, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return doc, nil
}

// EncodeJSON serializes a document back to JSON.
func EncodeJSON(doc any) ([]byte, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return data, nil
}

// normalizeDocument re-encodes a document through JSON so values decoded from
// other sources (YAML integers, typed numbers) take the canonical document
// model shape. The result never aliases the input.
func normalizeDocument(doc map[string]any) (map[string]any, error) {
	raw, err := EncodeJSON(doc)
	if err != nil {
		return nil, err
	}
	return DecodeJSON(raw)
}

// copyDocument deep-copies a document tree. Containers are duplicated;
// scalars are shared (they are immutable).
func copyDocument(doc map[string]any) map[string]any {
	if doc == nil {
		return nil
	}
	out := make(map[string]any, len(doc))
	for k, v := range doc {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return copyDocument(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = copyValue(e)
		}
		return out
	default:
		return v
	}
}
