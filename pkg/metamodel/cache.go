package metamodel

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/bitechdev/MetaSpec/pkg/logger"
	"github.com/bitechdev/MetaSpec/pkg/proxy"
)

// Cache maps metamodel identities to their views.
// It is safe for concurrent use.
type Cache struct {
	views    sync.Map // map[Metamodel]*View
	resolver TypeResolver
}

// Option configures a Cache.
type Option func(*Cache)

// WithTypeResolver sets the resolver IsManagedObject uses to see through proxies.
func WithTypeResolver(r TypeResolver) Option {
	return func(c *Cache) {
		c.resolver = r
	}
}

// NewCache creates an empty cache
func NewCache(opts ...Option) *Cache {
	c := &Cache{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var defaultCache = sync.OnceValue(func() *Cache {
	return NewCache(WithTypeResolver(proxy.Default()))
})

// Default returns the process-wide cache.
func Default() *Cache {
	return defaultCache()
}

// Of returns the view for m from the process-wide cache.
func Of(m Metamodel) (*View, error) {
	return Default().Of(m)
}

// Clear empties the process-wide cache.
func Clear() {
	Default().Clear()
}

// Of returns the view for m, creating it on first request. Metamodels are
// keyed by pointer identity, so m must be a non-nil pointer to a type with a
// non-zero size.
func (c *Cache) Of(m Metamodel) (*View, error) {
	if err := checkIdentity(m); err != nil {
		return nil, err
	}

	if v, ok := c.views.Load(m); ok {
		return v.(*View), nil
	}

	// Losing views are dropped before any computation happened.
	v, loaded := c.views.LoadOrStore(m, newView(m))
	if !loaded {
		logger.Debug("metamodel: created view for %T(%p)", m, m)
	}
	return v.(*View), nil
}

// ManagedTypeSetFor returns the memoized set of managed runtime types of m.
func (c *Cache) ManagedTypeSetFor(m Metamodel) (TypeSet, error) {
	v, err := c.Of(m)
	if err != nil {
		return nil, err
	}
	return v.ManagedTypes(), nil
}

// IsManaged reports whether t is one of m's managed runtime types.
func (c *Cache) IsManaged(m Metamodel, t reflect.Type) (bool, error) {
	v, err := c.Of(m)
	if err != nil {
		return false, err
	}
	return v.IsManaged(t)
}

// IsManagedObject reports whether the user type of obj is managed by m.
// Pointers are dereferenced and proxies resolved before the lookup.
func (c *Cache) IsManagedObject(m Metamodel, obj any) (bool, error) {
	if obj == nil {
		return false, fmt.Errorf("%w: object must not be nil", ErrInvalidArgument)
	}

	t := reflect.TypeOf(obj)
	if c.resolver != nil {
		t = c.resolver.Resolve(t)
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	return c.IsManaged(m, t)
}

// IsSingleIDAttribute reports whether entity has a single identifier attribute
// named name and declared as attrType.
func (c *Cache) IsSingleIDAttribute(m Metamodel, entity reflect.Type, name string, attrType reflect.Type) (bool, error) {
	v, err := c.Of(m)
	if err != nil {
		return false, err
	}
	return v.IsSingleIDAttribute(entity, name, attrType)
}

// Clear drops every view. Clearing an empty cache is a no-op.
func (c *Cache) Clear() {
	c.views.Clear()
	logger.Debug("metamodel: cache cleared")
}

// Len returns the number of cached views.
func (c *Cache) Len() int {
	n := 0
	c.views.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

func checkIdentity(m Metamodel) error {
	if m == nil {
		return fmt.Errorf("%w: metamodel must not be nil", ErrInvalidArgument)
	}
	rv := reflect.ValueOf(m)
	if rv.Kind() != reflect.Pointer {
		return fmt.Errorf("%w: metamodel %T has no pointer identity", ErrInvalidArgument, m)
	}
	if rv.IsNil() {
		return fmt.Errorf("%w: metamodel must not be nil", ErrInvalidArgument)
	}
	// Distinct zero-size allocations may share an address.
	if rv.Type().Elem().Size() == 0 {
		return fmt.Errorf("%w: metamodel %T is zero-size and has no stable identity", ErrInvalidArgument, m)
	}
	return nil
}
