package server

import (
	"fmt"
	"sync"

	"github.com/bitechdev/MetaSpec/pkg/component"
	"github.com/bitechdev/MetaSpec/pkg/persistence"
	"github.com/bitechdev/MetaSpec/pkg/walker"
)

// Instances holds the live objects behind component definitions, keyed by
// registry id and component name. Definitions stay static; the composition
// root puts the objects here.
type Instances struct {
	objects map[string]map[string]any
	mutex   sync.RWMutex
}

// NewInstances creates an empty instance table
func NewInstances() *Instances {
	return &Instances{objects: make(map[string]map[string]any)}
}

// Put stores the object for name in reg.
func (i *Instances) Put(reg component.Introspector, name string, object any) {
	i.mutex.Lock()
	defer i.mutex.Unlock()

	byName, ok := i.objects[reg.ID()]
	if !ok {
		byName = make(map[string]any)
		i.objects[reg.ID()] = byName
	}
	byName[reg.CanonicalName(name)] = object
}

// ContextFactory returns the factory behind d. Factory components are asked
// for their product and lookup components are resolved through the directory.
func (i *Instances) ContextFactory(d walker.Descriptor) (persistence.ContextFactory, error) {
	if d.Registry == nil {
		return nil, fmt.Errorf("%w: descriptor %s has no registry", walker.ErrInvalidArgument, d.Name)
	}

	i.mutex.RLock()
	object, ok := i.objects[d.Registry.ID()][d.Name]
	i.mutex.RUnlock()
	if !ok {
		return nil, &component.NotFoundError{Name: d.Name, Registry: d.Registry.ID()}
	}

	switch v := object.(type) {
	case persistence.ContextFactory:
		return v, nil
	case persistence.FactoryBean:
		return v.Object()
	case *component.LookupFactory:
		resolved, err := v.Object()
		if err != nil {
			return nil, err
		}
		factory, ok := resolved.(persistence.ContextFactory)
		if !ok {
			return nil, fmt.Errorf("lookup %s resolved to %T, not a context factory", v.Name, resolved)
		}
		return factory, nil
	default:
		return nil, fmt.Errorf("component %s is a %T, not a context factory", d, object)
	}
}
