package component

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/bitechdev/MetaSpec/pkg/logger"
	"github.com/google/uuid"
)

// Container is a hierarchical Registry of component definitions.
type Container struct {
	id     string
	name   string
	parent Registry

	definitions map[string]*Definition
	order       []string
	aliases     map[string]string
	hooks       []Disposable
	closed      bool
	mutex       sync.RWMutex
}

// NewContainer creates an empty container below parent, which may be nil.
func NewContainer(name string, parent Registry) *Container {
	return &Container{
		id:          uuid.NewString(),
		name:        name,
		parent:      parent,
		definitions: make(map[string]*Definition),
		aliases:     make(map[string]string),
	}
}

func (c *Container) ID() string {
	return c.id
}

// Name is the display name given at construction.
func (c *Container) Name() string {
	return c.name
}

func (c *Container) String() string {
	return fmt.Sprintf("%s(%s)", c.name, c.id)
}

func (c *Container) Parent() Registry {
	return c.parent
}

// Register adds a definition under name. Names are unique per container but
// may shadow names of ancestors.
func (c *Container) Register(name string, def *Definition) error {
	if name == "" || strings.HasPrefix(name, FactoryPrefix) {
		return fmt.Errorf("%w: illegal component name %q", ErrInvalidDefinition, name)
	}
	if def == nil {
		return fmt.Errorf("%w: definition for %s must not be nil", ErrInvalidDefinition, name)
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	if _, exists := c.definitions[name]; exists {
		return fmt.Errorf("component %s already registered", name)
	}
	if _, exists := c.aliases[name]; exists {
		return fmt.Errorf("component %s already registered as alias", name)
	}

	c.definitions[name] = def.clone()
	c.order = append(c.order, name)
	logger.Debug("component: registered %s (%s) in %s", name, def.TypeName, c.name)
	return nil
}

// Define registers the definition described by prototype.
func (c *Container) Define(name string, prototype any) error {
	def, err := Describe(prototype)
	if err != nil {
		return err
	}
	return c.Register(name, def)
}

// Alias makes alias resolve to name.
func (c *Container) Alias(alias, name string) error {
	if alias == "" || alias == name || strings.HasPrefix(alias, FactoryPrefix) {
		return fmt.Errorf("%w: illegal alias %q for %s", ErrInvalidDefinition, alias, name)
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	if _, exists := c.definitions[alias]; exists {
		return fmt.Errorf("alias %s clashes with a registered component", alias)
	}
	if existing, exists := c.aliases[alias]; exists && existing != name {
		return fmt.Errorf("alias %s already points to %s", alias, existing)
	}

	c.aliases[alias] = name
	return nil
}

// CanonicalName strips FactoryPrefix and follows local aliases.
func (c *Container) CanonicalName(name string) string {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.canonicalName(name)
}

func (c *Container) canonicalName(name string) string {
	name = TransformedName(name)
	// Bounded by the alias count so a cycle cannot spin forever.
	for i := 0; i <= len(c.aliases); i++ {
		target, ok := c.aliases[name]
		if !ok {
			break
		}
		name = target
	}
	return name
}

// Definition returns a copy of the local definition of name.
func (c *Container) Definition(name string) (*Definition, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	canonical := c.canonicalName(name)
	def, exists := c.definitions[canonical]
	if !exists {
		return nil, &NotFoundError{Name: canonical, Registry: c.String()}
	}
	return def.clone(), nil
}

// Contains reports whether name is defined locally.
func (c *Container) Contains(name string) bool {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	_, exists := c.definitions[c.canonicalName(name)]
	return exists
}

// Names returns the local component names in registration order.
func (c *Container) Names() []string {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return append([]string(nil), c.order...)
}

// TypeOf resolves the type of a component, consulting ancestors when name is
// not defined locally. A FactoryPrefix name resolves to the factory's own type.
func (c *Container) TypeOf(name string) reflect.Type {
	c.mutex.RLock()
	def, exists := c.definitions[c.canonicalName(name)]
	c.mutex.RUnlock()

	if !exists {
		if parent, ok := c.parent.(interface{ TypeOf(string) reflect.Type }); ok {
			return parent.TypeOf(name)
		}
		return nil
	}

	if strings.HasPrefix(name, FactoryPrefix) {
		return def.Type
	}
	return def.ResolvedType()
}

// NamesForType returns local names first, in registration order, followed by
// ancestor names that are not shadowed locally.
func (c *Container) NamesForType(t reflect.Type, includeAncestors bool) []string {
	if t == nil {
		return nil
	}

	c.mutex.RLock()
	var names []string
	for _, name := range c.order {
		def := c.definitions[name]
		if def.Factory {
			if Assignable(def.ObjectType, t) {
				names = append(names, name)
			}
			if Assignable(def.Type, t) {
				names = append(names, FactoryPrefix+name)
			}
			continue
		}
		if Assignable(def.Type, t) {
			names = append(names, name)
		}
	}
	c.mutex.RUnlock()

	if !includeAncestors || c.parent == nil {
		return names
	}

	seen := make(map[string]bool, len(names))
	for _, name := range names {
		seen[name] = true
	}
	for _, name := range c.parent.NamesForType(t, true) {
		if seen[name] || c.Contains(name) {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}

// OnShutdown registers a hook run by Close.
func (c *Container) OnShutdown(d Disposable) {
	if d == nil {
		return
	}
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.hooks = append(c.hooks, d)
}

// Close runs the shutdown hooks once, most recently registered first.
// Hook errors are joined; every hook runs regardless.
func (c *Container) Close() error {
	c.mutex.Lock()
	if c.closed {
		c.mutex.Unlock()
		return nil
	}
	c.closed = true
	hooks := c.hooks
	c.hooks = nil
	c.mutex.Unlock()

	logger.Info("Shutting down container %s", c.name)

	var errs []error
	for i := len(hooks) - 1; i >= 0; i-- {
		if err := hooks[i].Destroy(); err != nil {
			logger.Error("Shutdown hook of %s failed: %v", c.name, err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
