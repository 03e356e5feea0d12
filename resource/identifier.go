package resource

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMalformedIdentifier is returned for resource URIs without a "//"
	// separator or with nothing after it.
	ErrMalformedIdentifier = errors.New("malformed resource identifier")

	// ErrNotFound is returned by Lookup for identifiers never registered.
	ErrNotFound = errors.New("resource not found")
)

// separator splits the scheme part of a resource URI from its name.
const separator = "//"

// Identifier names an auxiliary resource requested during an upgrade.
// Identifiers are comparable; two identifiers are equal iff their names are.
type Identifier struct {
	name string
}

// ParseIdentifier builds an Identifier from a URI of the form scheme://name.
// The name is everything after the last "//".
//
// Example:
//
//	id, err := resource.ParseIdentifier("file://cert.bin")
//	// id.Name() == "cert.bin"
func ParseIdentifier(uri string) (Identifier, error) {
	i := strings.LastIndex(uri, separator)
	if i < 0 {
		return Identifier{}, fmt.Errorf("%w: %q has no %q separator", ErrMalformedIdentifier, uri, separator)
	}

	name := uri[i+len(separator):]
	if name == "" {
		return Identifier{}, fmt.Errorf("%w: %q has an empty name", ErrMalformedIdentifier, uri)
	}
	return Identifier{name: name}, nil
}

// Name returns the full resource name.
func (id Identifier) Name() string {
	return id.name
}

// IsZero reports whether id was never parsed.
func (id Identifier) IsZero() bool {
	return id.name == ""
}

func (id Identifier) String() string {
	return id.name
}
