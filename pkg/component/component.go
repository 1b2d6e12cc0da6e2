// Package component defines the hierarchical component registry consumed by
// the walker, and a Container implementing it.
package component

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// FactoryPrefix addresses a factory component itself rather than its product.
const FactoryPrefix = "&"

var (
	// ErrNotFound is matched by every *NotFoundError.
	ErrNotFound = errors.New("component: no such definition")
	// ErrInvalidDefinition is returned for unusable registrations.
	ErrInvalidDefinition = errors.New("component: invalid definition")
)

// NotFoundError reports a name missing from one registry.
type NotFoundError struct {
	Name     string
	Registry string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no component definition named %q in registry %s", e.Name, e.Registry)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// Registry lists component names by type.
type Registry interface {
	// NamesForType returns the names of components whose type is assignable
	// to t. Factory components matched by their own type carry FactoryPrefix.
	NamesForType(t reflect.Type, includeAncestors bool) []string
	// Parent returns the parent registry, or nil.
	Parent() Registry
}

// Introspector is a Registry that exposes static definitions.
type Introspector interface {
	Registry
	// ID identifies the registry node and must be unique per node.
	// Descriptors compare registries by ID, so a wrapper reporting the ID of
	// the registry it wraps is treated as that registry.
	ID() string
	// Definition returns the local definition of name, or a *NotFoundError.
	Definition(name string) (*Definition, error)
	// TypeOf returns the type a component resolves to, nil when unknown.
	TypeOf(name string) reflect.Type
	// CanonicalName strips FactoryPrefix and resolves aliases.
	CanonicalName(name string) string
}

// Producer is implemented by factory components.
type Producer interface {
	// ObjectType is the type of the produced object, nil when not known up front.
	ObjectType() reflect.Type
}

// PropertySource exposes configured property values of a component.
type PropertySource interface {
	Properties() map[string]any
}

// Disposable is notified when its container shuts down.
type Disposable interface {
	Destroy() error
}

// TransformedName strips FactoryPrefix from name.
func TransformedName(name string) string {
	for strings.HasPrefix(name, FactoryPrefix) {
		name = strings.TrimPrefix(name, FactoryPrefix)
	}
	return name
}

// TypeName returns the fully qualified name of t, such as
// "*github.com/acme/app/pkg/persistence.GormFactory".
func TypeName(t reflect.Type) string {
	if t == nil {
		return ""
	}
	if t.Kind() == reflect.Pointer {
		return "*" + TypeName(t.Elem())
	}
	if t.PkgPath() != "" && t.Name() != "" {
		return t.PkgPath() + "." + t.Name()
	}
	return t.String()
}

// Assignable reports whether values of type from can be used as to.
func Assignable(from, to reflect.Type) bool {
	if from == nil || to == nil {
		return false
	}
	return from.AssignableTo(to)
}
