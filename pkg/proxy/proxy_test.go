package proxy

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
)

type lazyProxy interface {
	LazyInitializer() string
}

type Customer struct {
	ID   int64
	Name string
}

// customerProxy stands in for Customer the way a generated wrapper would.
type customerProxy struct {
	Customer
	loaded bool
}

func (customerProxy) LazyInitializer() string { return "customer" }

type orderProxy struct {
	*Customer
}

func (*orderProxy) LazyInitializer() string { return "order" }

// rootProxy carries the marker but wraps nothing.
type rootProxy struct {
	lazyProxy
	state int
}

var markerType = reflect.TypeOf((*lazyProxy)(nil)).Elem()

func TestResolve(t *testing.T) {
	r := New(markerType)

	tests := []struct {
		name     string
		in       reflect.Type
		expected reflect.Type
	}{
		{
			name:     "proxy value resolves to embedded user type",
			in:       reflect.TypeOf(customerProxy{}),
			expected: reflect.TypeOf(Customer{}),
		},
		{
			name:     "proxy pointer keeps pointer-ness",
			in:       reflect.TypeOf(&customerProxy{}),
			expected: reflect.TypeOf(&Customer{}),
		},
		{
			name:     "pointer receiver marker on pointer embedding",
			in:       reflect.TypeOf(&orderProxy{}),
			expected: reflect.TypeOf(&Customer{}),
		},
		{
			name:     "value of proxy with pointer receiver marker",
			in:       reflect.TypeOf(orderProxy{}),
			expected: reflect.TypeOf(Customer{}),
		},
		{
			name:     "plain user type is unchanged",
			in:       reflect.TypeOf(Customer{}),
			expected: reflect.TypeOf(Customer{}),
		},
		{
			name:     "proxy without supertype falls back to input",
			in:       reflect.TypeOf(rootProxy{}),
			expected: reflect.TypeOf(rootProxy{}),
		},
		{
			name:     "nil type",
			in:       nil,
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, r.Resolve(tt.in))
		})
	}
}

func TestResolveWithoutMarker(t *testing.T) {
	r := New(nil)
	assert.False(t, r.Enabled())
	assert.Equal(t, reflect.TypeOf(customerProxy{}), r.Resolve(reflect.TypeOf(customerProxy{})))

	var nilResolver *Resolver
	assert.False(t, nilResolver.Enabled())
	assert.Equal(t, reflect.TypeOf(customerProxy{}), nilResolver.Resolve(reflect.TypeOf(customerProxy{})))
}

func TestNewRejectsNonInterfaceMarker(t *testing.T) {
	r := New(reflect.TypeOf(Customer{}))
	assert.False(t, r.Enabled())
}

func TestUserType(t *testing.T) {
	r := New(markerType)
	assert.Equal(t, reflect.TypeOf(&Customer{}), r.UserType(&customerProxy{}))
	assert.Nil(t, r.UserType(nil))
}

func TestDefaultProbesOnce(t *testing.T) {
	first := Default()
	assert.False(t, first.Enabled())

	RegisterMarker(markerType)
	assert.Same(t, first, Default())
	assert.False(t, Default().Enabled())
}
