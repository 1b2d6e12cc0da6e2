// Package persistence defines persistence-context factories and the factory
// components that produce them.
package persistence

import (
	"errors"
	"reflect"

	"github.com/bitechdev/MetaSpec/pkg/metamodel"
)

// ContextFactory produces persistence contexts and exposes their metamodel.
type ContextFactory interface {
	Metamodel() metamodel.Metamodel
	Close() error
}

// FactoryBean is a component producing a ContextFactory.
type FactoryBean interface {
	ObjectType() reflect.Type
	Object() (ContextFactory, error)
}

// ErrDestroyed is returned by factory beans after Destroy.
var ErrDestroyed = errors.New("persistence: factory bean destroyed")

var (
	// ContextFactoryType is the interface type the walker hunts for.
	ContextFactoryType = reflect.TypeOf((*ContextFactory)(nil)).Elem()
	// FactoryBeanType is the interface type of ContextFactory producers.
	FactoryBeanType = reflect.TypeOf((*FactoryBean)(nil)).Elem()
)
