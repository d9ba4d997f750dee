package resourceschema

import (
	"fmt"
	"strconv"
	"strings"
)

// Pointer addresses a location inside a decoded JSON document using
// RFC 6901 slash-delimited tokens. The zero value is the document root.
//
// Resolution and removal are tolerant: a structurally absent parent is a
// well-defined not-found outcome, never an error.
type Pointer struct {
	tokens []string
}

// NewPointer parses an RFC 6901 pointer string. The empty string is the
// document root; any other pointer must begin with '/'.
func NewPointer(s string) (Pointer, error) {
	if s == "" {
		return Pointer{}, nil
	}
	if !strings.HasPrefix(s, "/") {
		return Pointer{}, fmt.Errorf("pointer %q must begin with '/'", s)
	}
	raw := strings.Split(s[1:], "/")
	tokens := make([]string, len(raw))
	for i, t := range raw {
		tokens[i] = unescapeToken(t)
	}
	return Pointer{tokens: tokens}, nil
}

// MustPointer is NewPointer for pointers known to be well-formed; it panics
// on a malformed pointer.
func MustPointer(s string) Pointer {
	p, err := NewPointer(s)
	if err != nil {
		panic(err)
	}
	return p
}

func pointerFromTokens(tokens []string) Pointer {
	return Pointer{tokens: tokens}
}

// String renders the pointer back to its RFC 6901 form. The root renders as "".
func (p Pointer) String() string {
	if len(p.tokens) == 0 {
		return ""
	}
	var b strings.Builder
	for _, t := range p.tokens {
		b.WriteByte('/')
		b.WriteString(escapeToken(t))
	}
	return b.String()
}

// Tokens returns a copy of the pointer's reference tokens.
func (p Pointer) Tokens() []string {
	out := make([]string, len(p.tokens))
	copy(out, p.tokens)
	return out
}

// IsRoot reports whether the pointer addresses the document root.
func (p Pointer) IsRoot() bool { return len(p.tokens) == 0 }

// Resolve walks the document and returns the node at the pointer, or
// ok=false when any step of the path is absent.
func (p Pointer) Resolve(doc any) (any, bool) {
	node := doc
	for _, tok := range p.tokens {
		next, ok := childNode(node, tok)
		if !ok {
			return nil, false
		}
		node = next
	}
	return node, true
}

// Exists reports whether the pointer resolves to a node in the document.
func (p Pointer) Exists(doc any) bool {
	_, ok := p.Resolve(doc)
	return ok
}

// Remove deletes the entry addressed by the pointer from the document. It is
// a no-op when any ancestor is absent, when the final token does not exist in
// its parent, or when the pointer is the root. Malformed array indices count
// as "nothing to remove".
func (p Pointer) Remove(doc map[string]any) {
	if doc == nil || len(p.tokens) == 0 {
		return
	}
	removeFrom(doc, p.tokens)
}

// removeFrom deletes tokens' path from node, returning the (possibly
// replaced) node. Slices are replaced on element removal, so callers assign
// the result back into the enclosing container.
func removeFrom(node any, tokens []string) any {
	if len(tokens) == 1 {
		switch c := node.(type) {
		case map[string]any:
			delete(c, tokens[0])
			return c
		case []any:
			i, ok := sliceIndex(c, tokens[0])
			if !ok {
				return c
			}
			return append(c[:i:i], c[i+1:]...)
		default:
			return node
		}
	}
	child, ok := childNode(node, tokens[0])
	if !ok {
		return node
	}
	replaced := removeFrom(child, tokens[1:])
	switch c := node.(type) {
	case map[string]any:
		c[tokens[0]] = replaced
	case []any:
		if i, ok := sliceIndex(c, tokens[0]); ok {
			c[i] = replaced
		}
	}
	return node
}

func childNode(node any, token string) (any, bool) {
	switch c := node.(type) {
	case map[string]any:
		v, ok := c[token]
		return v, ok
	case []any:
		i, ok := sliceIndex(c, token)
		if !ok {
			return nil, false
		}
		return c[i], true
	default:
		return nil, false
	}
}

// sliceIndex interprets a token as a positional array index. Non-numeric or
// out-of-range tokens report ok=false rather than failing.
func sliceIndex(s []any, token string) (int, bool) {
	i, err := strconv.Atoi(token)
	if err != nil || i < 0 || i >= len(s) {
		return 0, false
	}
	return i, true
}

func unescapeToken(t string) string {
	t = strings.ReplaceAll(t, "~1", "/")
	return strings.ReplaceAll(t, "~0", "~")
}

func escapeToken(t string) string {
	t = strings.ReplaceAll(t, "~", "~0")
	return strings.ReplaceAll(t, "/", "~1")
}
