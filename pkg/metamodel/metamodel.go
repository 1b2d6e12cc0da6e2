// Package metamodel caches managed-type metadata per metamodel instance.
//
// A Metamodel is the persistence provider's catalog of managed types. Views
// over it are computed lazily, once per metamodel identity, and live until the
// owning Cache is cleared, normally when the application container shuts down.
package metamodel

import (
	"errors"
	"reflect"
)

// ErrInvalidArgument is returned for nil or otherwise unusable inputs.
var ErrInvalidArgument = errors.New("metamodel: invalid argument")

// Metamodel is the read-only catalog consumed by the cache.
type Metamodel interface {
	ManagedTypes() []ManagedType
}

// ManagedType describes one type known to the persistence layer.
type ManagedType interface {
	// RuntimeType is nil for descriptors without a concrete Go type.
	RuntimeType() reflect.Type
	// HasSingleIDAttribute is false for composite keys.
	HasSingleIDAttribute() bool
	IDAttributes() []Attribute
}

// Attribute is a declared attribute of a managed type.
type Attribute interface {
	Name() string
	DeclaredType() reflect.Type
	IsID() bool
}

// TypeResolver maps runtime types to user types, see proxy.Resolver.
type TypeResolver interface {
	Resolve(t reflect.Type) reflect.Type
}
