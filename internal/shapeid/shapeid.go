// Package shapeid implements the Shape ID value type: the canonical
// identifier "namespace#name[$member]" used to reference shapes.
package shapeid

import (
	"fmt"
	"strings"
)

// ID is the triple (namespace, name, member). It is a plain comparable
// struct, so it is usable directly as a map key without needing an
// interner.
type ID struct {
	Namespace string
	Name      string
	Member    string // "" when this ID does not name a member
}

func New(namespace, name, member string) ID {
	return ID{Namespace: namespace, Name: name, Member: member}
}

// Root returns the containing shape's ID, dropping any member part.
func (id ID) Root() ID {
	return ID{Namespace: id.Namespace, Name: id.Name}
}

func (id ID) WithMember(member string) ID {
	return ID{Namespace: id.Namespace, Name: id.Name, Member: member}
}

func (id ID) HasMember() bool { return id.Member != "" }

func (id ID) IsZero() bool { return id.Namespace == "" && id.Name == "" }

func (id ID) String() string {
	if id.Member != "" {
		return fmt.Sprintf("%s#%s$%s", id.Namespace, id.Name, id.Member)
	}
	return fmt.Sprintf("%s#%s", id.Namespace, id.Name)
}

// Parse validates and decomposes the textual form namespace#name[$member].
// An identifier's first code point must be a letter or '_'; subsequent
// code points may be letters, digits, or '_'. A namespace is a non-empty
// dot-separated sequence of such identifiers.
func Parse(text string) (ID, error) {
	hashParts := strings.SplitN(text, "#", 2)
	if len(hashParts) != 2 {
		return ID{}, fmt.Errorf("invalid shape id %q: missing '#'", text)
	}
	namespace := hashParts[0]
	rest := hashParts[1]

	if err := validateNamespace(namespace); err != nil {
		return ID{}, fmt.Errorf("invalid shape id %q: %w", text, err)
	}

	name := rest
	member := ""
	if i := strings.IndexByte(rest, '$'); i >= 0 {
		name = rest[:i]
		member = rest[i+1:]
		if member == "" {
			return ID{}, fmt.Errorf("invalid shape id %q: empty member name", text)
		}
		if !isIdentifier(member) {
			return ID{}, fmt.Errorf("invalid shape id %q: malformed member name %q", text, member)
		}
	}
	if !isIdentifier(name) {
		return ID{}, fmt.Errorf("invalid shape id %q: malformed shape name %q", text, name)
	}
	return ID{Namespace: namespace, Name: name, Member: member}, nil
}

// MustParse is Parse but panics on error; reserved for prelude construction
// where the input is a compile-time constant.
func MustParse(text string) ID {
	id, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return id
}

func validateNamespace(ns string) error {
	if ns == "" {
		return fmt.Errorf("empty namespace")
	}
	for _, part := range strings.Split(ns, ".") {
		if !isIdentifier(part) {
			return fmt.Errorf("malformed namespace segment %q", part)
		}
	}
	return nil
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if i == 0 {
			if !(isLetter(r) || r == '_') {
				return false
			}
			continue
		}
		if !(isLetter(r) || isDigit(r) || r == '_') {
			return false
		}
	}
	return true
}

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

const PreludeNamespace = "smithy.api"
