package metamodel

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/bitechdev/MetaSpec/pkg/logger"
)

// View is the cached metadata over one metamodel.
type View struct {
	metamodel    Metamodel
	managedTypes func() TypeSet
}

func newView(m Metamodel) *View {
	return &View{
		metamodel: m,
		managedTypes: sync.OnceValue(func() TypeSet {
			set := newTypeSet(m.ManagedTypes())
			logger.Debug("metamodel: computed %d managed types for %T(%p)", set.Len(), m, m)
			return set
		}),
	}
}

// Metamodel returns the metamodel the view was built for.
func (v *View) Metamodel() Metamodel {
	return v.metamodel
}

// ManagedTypes returns the runtime types of all managed types that have one.
// The set is computed on first call and shared afterwards; callers must not modify it.
func (v *View) ManagedTypes() TypeSet {
	return v.managedTypes()
}

// IsManaged reports whether t is a managed runtime type.
func (v *View) IsManaged(t reflect.Type) (bool, error) {
	if t == nil {
		return false, fmt.Errorf("%w: type must not be nil", ErrInvalidArgument)
	}
	return v.ManagedTypes().Contains(t), nil
}

// IsSingleIDAttribute reports whether entity declares exactly one identifier
// attribute and that attribute has the given name and declared type.
// Composite keys and unknown entities never match. The metamodel is consulted
// on every call.
func (v *View) IsSingleIDAttribute(entity reflect.Type, name string, attrType reflect.Type) (bool, error) {
	if entity == nil {
		return false, fmt.Errorf("%w: entity type must not be nil", ErrInvalidArgument)
	}

	for _, mt := range v.metamodel.ManagedTypes() {
		if mt == nil || mt.RuntimeType() != entity {
			continue
		}

		id := singleIDAttribute(mt)
		if id == nil {
			return false, nil
		}
		return id.DeclaredType() == attrType && id.Name() == name, nil
	}

	return false, nil
}

func singleIDAttribute(mt ManagedType) Attribute {
	if !mt.HasSingleIDAttribute() {
		return nil
	}
	for _, attr := range mt.IDAttributes() {
		if attr != nil && attr.IsID() {
			return attr
		}
	}
	return nil
}
