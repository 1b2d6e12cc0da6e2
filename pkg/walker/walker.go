// Package walker finds persistence-context factory components across a
// hierarchy of component registries.
package walker

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/bitechdev/MetaSpec/pkg/component"
	"github.com/bitechdev/MetaSpec/pkg/logger"
	"github.com/bitechdev/MetaSpec/pkg/persistence"
	"github.com/bitechdev/MetaSpec/pkg/proxy"
)

// ErrInvalidArgument is returned for nil registries.
var ErrInvalidArgument = errors.New("walker: invalid argument")

// Capabilities are the optional mechanisms present in the environment.
type Capabilities struct {
	// Lookup enables LookupFactory components as factory candidates.
	Lookup bool
	// Proxy resolves proxied component types; nil disables unwrapping.
	Proxy *proxy.Resolver
}

// DetectCapabilities probes the environment.
func DetectCapabilities() Capabilities {
	return Capabilities{
		Lookup: component.LookupAvailable(),
		Proxy:  proxy.Default(),
	}
}

// Walker inspects registries for context factories. It holds no mutable state.
type Walker struct {
	types []reflect.Type
	proxy *proxy.Resolver
}

// New creates a walker for the given capabilities.
func New(caps Capabilities) *Walker {
	types := []reflect.Type{persistence.ContextFactoryType, persistence.FactoryBeanType}
	if caps.Lookup {
		types = append(types, component.LookupFactoryType)
	}
	return &Walker{types: types, proxy: caps.Proxy}
}

var defaultWalker = sync.OnceValue(func() *Walker {
	caps := DetectCapabilities()
	logger.Debug("walker: lookup=%t proxy=%t", caps.Lookup, caps.Proxy.Enabled())
	return New(caps)
})

// Default returns a walker for the capabilities detected on first use.
func Default() *Walker {
	return defaultWalker()
}

// Types returns the candidate types searched by FactoryDescriptors, in order.
func (w *Walker) Types() []reflect.Type {
	return append([]reflect.Type(nil), w.types...)
}

// FactoryComponentNames returns the names of context factory components in reg
// and its ancestors. Factory components are reported under their product name.
func (w *Walker) FactoryComponentNames(reg component.Registry) []string {
	if reg == nil {
		return nil
	}

	names := make(map[string]struct{})
	for _, name := range reg.NamesForType(persistence.ContextFactoryType, true) {
		names[name] = struct{}{}
	}
	for _, name := range reg.NamesForType(persistence.FactoryBeanType, true) {
		names[component.TransformedName(name)] = struct{}{}
	}

	out := make([]string, 0, len(names))
	for name := range names {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// FactoryDescriptors returns a descriptor for every context factory defined in
// reg or any ancestor that is itself an Introspector. The same name defined at
// two levels yields two descriptors.
func (w *Walker) FactoryDescriptors(reg component.Introspector) (*DescriptorSet, error) {
	if reg == nil {
		return nil, fmt.Errorf("%w: registry must not be nil", ErrInvalidArgument)
	}

	set := NewDescriptorSet()
	for current := reg; current != nil; {
		for _, t := range w.types {
			for _, name := range current.NamesForType(t, false) {
				if err := w.collect(component.TransformedName(name), current, set); err != nil {
					return nil, err
				}
			}
		}

		parent, ok := current.Parent().(component.Introspector)
		if !ok {
			break
		}
		current = parent
	}
	return set, nil
}

func (w *Walker) collect(name string, reg component.Introspector, set *DescriptorSet) error {
	canonical := reg.CanonicalName(name)

	def, err := reg.Definition(canonical)
	if err != nil {
		return err
	}

	// Lookups only qualify when declared to resolve to a context factory.
	if def.TypeName == component.TypeName(component.LookupFactoryType) {
		expected, _ := def.Property(component.ExpectedTypeProperty)
		if expected != component.TypeName(persistence.ContextFactoryType) {
			logger.Debug("walker: skipping lookup %s, expected type %v", canonical, expected)
			return nil
		}
	}

	t := w.proxy.Resolve(reg.TypeOf(canonical))
	if !component.Assignable(t, persistence.ContextFactoryType) {
		logger.Debug("walker: skipping %s, type %v is not a context factory", canonical, t)
		return nil
	}

	set.Add(Descriptor{Registry: reg, Name: canonical})
	return nil
}

// FactoryComponentNames uses the default walker.
func FactoryComponentNames(reg component.Registry) []string {
	return Default().FactoryComponentNames(reg)
}

// FactoryDescriptors uses the default walker.
func FactoryDescriptors(reg component.Introspector) (*DescriptorSet, error) {
	return Default().FactoryDescriptors(reg)
}

// DefinitionFor returns the definition of name from reg or the nearest ancestor
// defining it. When no registry in the chain has it, the error of reg itself is
// returned.
func DefinitionFor(name string, reg component.Introspector) (*component.Definition, error) {
	if reg == nil {
		return nil, fmt.Errorf("%w: registry must not be nil", ErrInvalidArgument)
	}

	var first error
	for current := reg; current != nil; {
		def, err := current.Definition(name)
		if err == nil {
			return def, nil
		}
		if !errors.Is(err, component.ErrNotFound) {
			return nil, err
		}
		if first == nil {
			first = err
		}

		parent, ok := current.Parent().(component.Introspector)
		if !ok {
			break
		}
		current = parent
	}
	return nil, first
}
