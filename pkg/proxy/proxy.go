// Package proxy resolves the user type behind generated proxy wrappers.
//
// A proxy wrapper is a struct that embeds the type it stands in for as its
// first anonymous field and implements a marker interface announced by the
// proxy mechanism through RegisterMarker.
package proxy

import (
	"reflect"
	"sync"

	"github.com/bitechdev/MetaSpec/pkg/logger"
)

var (
	markerMu sync.RWMutex
	marker   reflect.Type
)

// RegisterMarker announces the marker interface implemented by every proxy
// wrapper of the calling mechanism. It is meant to be called from init, before
// Default is first used. Non-interface types are ignored.
func RegisterMarker(t reflect.Type) {
	if t == nil || t.Kind() != reflect.Interface {
		return
	}
	markerMu.Lock()
	defer markerMu.Unlock()
	marker = t
}

func registeredMarker() reflect.Type {
	markerMu.RLock()
	defer markerMu.RUnlock()
	return marker
}

var defaultResolver = sync.OnceValue(func() *Resolver {
	m := registeredMarker()
	if m == nil {
		logger.Debug("proxy: no proxy marker registered, type resolution is a pass-through")
	} else {
		logger.Debug("proxy: unwrapping proxies marked by %s", m.String())
	}
	return New(m)
})

// Default returns the process resolver. The environment is probed once, on
// first use; markers registered afterwards are not observed.
func Default() *Resolver {
	return defaultResolver()
}

// Resolver maps proxy wrapper types to the user types they wrap.
// The zero value and a nil *Resolver are pass-throughs.
type Resolver struct {
	marker reflect.Type
}

// New returns a resolver for the given marker interface. A nil or
// non-interface marker disables unwrapping.
func New(marker reflect.Type) *Resolver {
	if marker != nil && marker.Kind() != reflect.Interface {
		marker = nil
	}
	return &Resolver{marker: marker}
}

// Enabled reports whether proxies are unwrapped at all.
func (r *Resolver) Enabled() bool {
	return r != nil && r.marker != nil
}

// Resolve returns the user type of t. Proxy types resolve to their immediate
// embedded supertype; pointer-ness of t is preserved. Anything else, including
// a proxy without an embedded supertype, comes back unchanged.
func (r *Resolver) Resolve(t reflect.Type) reflect.Type {
	if t == nil || !r.Enabled() {
		return t
	}

	if !t.Implements(r.marker) && !(t.Kind() != reflect.Pointer && reflect.PointerTo(t).Implements(r.marker)) {
		return t
	}

	base := t
	if base.Kind() == reflect.Pointer {
		base = base.Elem()
	}

	super := supertype(base)
	if super == nil {
		return t
	}

	// *Proxy embedding User resolves to *User, Proxy embedding *User to User.
	if t.Kind() == reflect.Pointer && super.Kind() != reflect.Pointer {
		return reflect.PointerTo(super)
	}
	if t.Kind() != reflect.Pointer && super.Kind() == reflect.Pointer {
		return super.Elem()
	}
	return super
}

// UserType resolves the type of v. It returns nil for a nil interface.
func (r *Resolver) UserType(v any) reflect.Type {
	return r.Resolve(reflect.TypeOf(v))
}

// supertype returns the type of the first embedded field of a struct, or nil.
func supertype(t reflect.Type) reflect.Type {
	if t.Kind() != reflect.Struct {
		return nil
	}
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.Anonymous {
			continue
		}
		ft := field.Type
		if ft.Kind() == reflect.Interface {
			continue
		}
		return ft
	}
	return nil
}
