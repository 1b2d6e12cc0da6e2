package metamodel

import (
	"reflect"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

type Customer struct {
	ID   int64  `gorm:"primaryKey"`
	Name string `gorm:"column:name"`
}

type OrderLine struct {
	OrderID int64  `bun:"order_id,pk"`
	LineNo  int    `bun:"line_no,pk"`
	Sku     string `bun:"sku"`
}

type Address struct {
	Street string
}

// countingMetamodel records how often the catalog is enumerated.
type countingMetamodel struct {
	*Static
	calls atomic.Int32
	gate  chan struct{}
}

func (c *countingMetamodel) ManagedTypes() []ManagedType {
	c.calls.Add(1)
	if c.gate != nil {
		<-c.gate
	}
	return c.Static.ManagedTypes()
}

// valueMetamodel has no pointer identity.
type valueMetamodel struct{}

func (valueMetamodel) ManagedTypes() []ManagedType { return nil }

type emptyMetamodel struct{}

func (*emptyMetamodel) ManagedTypes() []ManagedType { return nil }

var (
	int64Type    = reflect.TypeOf(int64(0))
	stringType   = reflect.TypeOf("")
	customerType = reflect.TypeOf(Customer{})
	orderType    = reflect.TypeOf(OrderLine{})
)

func newTestMetamodel() *countingMetamodel {
	return &countingMetamodel{Static: NewStatic(
		NewType(customerType,
			NewAttribute("ID", int64Type, true),
			NewAttribute("Name", stringType, false),
		),
		NewType(orderType,
			NewAttribute("OrderID", int64Type, true),
			NewAttribute("LineNo", reflect.TypeOf(0), true),
		),
		NewType(nil, NewAttribute("Street", stringType, false)),
	)}
}

func TestManagedTypeSetForIsMemoized(t *testing.T) {
	cache := NewCache()
	m := newTestMetamodel()

	first, err := cache.ManagedTypeSetFor(m)
	require.NoError(t, err)
	second, err := cache.ManagedTypeSetFor(m)
	require.NoError(t, err)

	assert.Equal(t, reflect.ValueOf(first).Pointer(), reflect.ValueOf(second).Pointer(), "same set instance expected")
	assert.Equal(t, int32(1), m.calls.Load())
	assert.Equal(t, []reflect.Type{customerType, orderType}, first.Types())
}

func TestManagedTypeSetForConcurrentFirstAccess(t *testing.T) {
	cache := NewCache()
	m := newTestMetamodel()
	m.gate = make(chan struct{})

	const callers = 32
	sets := make([]TypeSet, callers)

	var g errgroup.Group
	var started sync.WaitGroup
	started.Add(callers)
	for i := 0; i < callers; i++ {
		g.Go(func() error {
			started.Done()
			set, err := cache.ManagedTypeSetFor(m)
			sets[i] = set
			return err
		})
	}
	started.Wait()
	close(m.gate)
	require.NoError(t, g.Wait())

	assert.Equal(t, int32(1), m.calls.Load())
	for _, set := range sets[1:] {
		assert.Equal(t, reflect.ValueOf(sets[0]).Pointer(), reflect.ValueOf(set).Pointer())
	}
	assert.Equal(t, 1, cache.Len())
}

func TestDifferentIdentitiesDoNotBlockEachOther(t *testing.T) {
	cache := NewCache()
	blocked := newTestMetamodel()
	blocked.gate = make(chan struct{})
	defer close(blocked.gate)

	go func() {
		_, _ = cache.ManagedTypeSetFor(blocked)
	}()

	other := newTestMetamodel()
	set, err := cache.ManagedTypeSetFor(other)
	require.NoError(t, err)
	assert.Equal(t, 2, set.Len())
}

func TestIdentityKeying(t *testing.T) {
	cache := NewCache()
	a := newTestMetamodel()
	b := newTestMetamodel()

	va, err := cache.Of(a)
	require.NoError(t, err)
	vb, err := cache.Of(b)
	require.NoError(t, err)

	assert.NotSame(t, va, vb, "equal content must not share a view")
	assert.Same(t, a, va.Metamodel())
	assert.Equal(t, 2, cache.Len())
}

func TestIdentityKeyingRejectsZeroSizeMetamodels(t *testing.T) {
	cache := NewCache()
	a, b := &emptyMetamodel{}, &emptyMetamodel{}

	_, err := cache.Of(a)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = cache.Of(b)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.Equal(t, 0, cache.Len(), "instances that may share an address never share a view")

	_, err = cache.IsManaged(a, reflect.TypeOf(Customer{}))
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestOfRejectsUnusableMetamodels(t *testing.T) {
	cache := NewCache()

	_, err := cache.Of(nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	var typedNil *Static
	_, err = cache.Of(typedNil)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = cache.Of(valueMetamodel{})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	assert.Equal(t, 0, cache.Len())
}

func TestClear(t *testing.T) {
	cache := NewCache()
	m := newTestMetamodel()

	cache.Clear()
	assert.Equal(t, 0, cache.Len())

	_, err := cache.ManagedTypeSetFor(m)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.Len())

	cache.Clear()
	assert.Equal(t, 0, cache.Len())

	_, err = cache.ManagedTypeSetFor(m)
	require.NoError(t, err)
	assert.Equal(t, int32(2), m.calls.Load(), "clear must force recomputation")

	cache.Clear()
	cache.Clear()
	assert.Equal(t, 0, cache.Len())
}

func TestIsManaged(t *testing.T) {
	cache := NewCache()
	m := newTestMetamodel()

	managed, err := cache.IsManaged(m, customerType)
	require.NoError(t, err)
	assert.True(t, managed)

	managed, err = cache.IsManaged(m, reflect.TypeOf(Address{}))
	require.NoError(t, err)
	assert.False(t, managed)

	managed, err = cache.IsManaged(m, reflect.TypeOf(&Customer{}))
	require.NoError(t, err)
	assert.False(t, managed, "pointer types are distinct from the entity type")

	_, err = cache.IsManaged(m, nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

type identityResolver struct {
	from, to reflect.Type
}

func (r identityResolver) Resolve(t reflect.Type) reflect.Type {
	if t == r.from {
		return r.to
	}
	return t
}

type customerProxy struct {
	Customer
}

func TestIsManagedObject(t *testing.T) {
	cache := NewCache(WithTypeResolver(identityResolver{
		from: reflect.TypeOf(&customerProxy{}),
		to:   reflect.TypeOf(&Customer{}),
	}))
	m := newTestMetamodel()

	managed, err := cache.IsManagedObject(m, &customerProxy{})
	require.NoError(t, err)
	assert.True(t, managed)

	managed, err = cache.IsManagedObject(m, &Customer{})
	require.NoError(t, err)
	assert.True(t, managed)

	managed, err = cache.IsManagedObject(m, customerProxy{})
	require.NoError(t, err)
	assert.False(t, managed)

	_, err = cache.IsManagedObject(m, nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestIsSingleIDAttribute(t *testing.T) {
	cache := NewCache()
	m := newTestMetamodel()

	tests := []struct {
		name     string
		entity   reflect.Type
		attr     string
		attrType reflect.Type
		expected bool
	}{
		{"matching name and type", customerType, "ID", int64Type, true},
		{"name mismatch", customerType, "Name", int64Type, false},
		{"type mismatch", customerType, "ID", stringType, false},
		{"composite key", orderType, "OrderID", int64Type, false},
		{"unknown entity", reflect.TypeOf(Address{}), "Street", stringType, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := cache.IsSingleIDAttribute(m, tt.entity, tt.attr, tt.attrType)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, ok)
		})
	}

	_, err := cache.IsSingleIDAttribute(m, nil, "ID", int64Type)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestIsSingleIDAttributeIsNotCached(t *testing.T) {
	cache := NewCache()
	m := newTestMetamodel()

	for i := 0; i < 3; i++ {
		_, err := cache.IsSingleIDAttribute(m, customerType, "ID", int64Type)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(3), m.calls.Load())
}

func TestFromModels(t *testing.T) {
	m, err := FromModels(&Customer{}, []OrderLine{})
	require.NoError(t, err)

	cache := NewCache()
	set, err := cache.ManagedTypeSetFor(m)
	require.NoError(t, err)
	assert.True(t, set.Contains(customerType))
	assert.True(t, set.Contains(orderType))

	ok, err := cache.IsSingleIDAttribute(m, customerType, "ID", int64Type)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = cache.IsSingleIDAttribute(m, orderType, "OrderID", int64Type)
	require.NoError(t, err)
	assert.False(t, ok)

	customer := m.ManagedTypes()[0].(*StaticType)
	require.Len(t, customer.Attributes(), 2)
	assert.Equal(t, "name", customer.Attributes()[1].Column())

	_, err = FromModels("not a model")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestCleanupClearsOnce(t *testing.T) {
	cache := NewCache()
	m := newTestMetamodel()
	_, err := cache.Of(m)
	require.NoError(t, err)

	hook := NewCleanup(cache)
	require.NoError(t, hook.Destroy())
	assert.Equal(t, 0, cache.Len())

	_, err = cache.Of(m)
	require.NoError(t, err)
	require.NoError(t, hook.Destroy())
	assert.Equal(t, 1, cache.Len(), "only the first Destroy clears")
}

func TestDefaultCache(t *testing.T) {
	t.Cleanup(Clear)
	m := newTestMetamodel()

	v, err := Of(m)
	require.NoError(t, err)
	again, err := Default().Of(m)
	require.NoError(t, err)
	assert.Same(t, v, again)

	Clear()
	assert.Equal(t, 0, Default().Len())
}
