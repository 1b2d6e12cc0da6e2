package component

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
)

// Property names configured on a LookupFactory definition.
const (
	LookupNameProperty   = "name"
	ExpectedTypeProperty = "expectedType"
)

// ErrLookupUnavailable is returned when no Directory is installed.
var ErrLookupUnavailable = errors.New("component: no directory installed")

// LookupFactoryType is the implementation type of lookup components.
var LookupFactoryType = reflect.TypeOf((*LookupFactory)(nil))

// Directory is an external naming service resolving objects by name.
type Directory interface {
	Lookup(name string) (any, error)
}

var (
	directoryMu sync.RWMutex
	directory   Directory
)

// SetDirectory installs the process directory. Passing nil uninstalls it.
func SetDirectory(d Directory) {
	directoryMu.Lock()
	defer directoryMu.Unlock()
	directory = d
}

// LookupAvailable reports whether a directory is installed.
func LookupAvailable() bool {
	return currentDirectory() != nil
}

func currentDirectory() Directory {
	directoryMu.RLock()
	defer directoryMu.RUnlock()
	return directory
}

// LookupFactory is an indirection: its product is whatever the directory has
// bound under Name, expected to be of ExpectedType.
type LookupFactory struct {
	Name         string
	ExpectedType reflect.Type
}

// ObjectType returns ExpectedType, nil when the lookup is untyped.
func (l *LookupFactory) ObjectType() reflect.Type {
	return l.ExpectedType
}

func (l *LookupFactory) Properties() map[string]any {
	props := map[string]any{LookupNameProperty: l.Name}
	if l.ExpectedType != nil {
		props[ExpectedTypeProperty] = TypeName(l.ExpectedType)
	}
	return props
}

// Object resolves the bound object through the installed directory.
func (l *LookupFactory) Object() (any, error) {
	d := currentDirectory()
	if d == nil {
		return nil, ErrLookupUnavailable
	}

	obj, err := d.Lookup(l.Name)
	if err != nil {
		return nil, fmt.Errorf("lookup of %s failed: %w", l.Name, err)
	}

	if l.ExpectedType != nil && !Assignable(reflect.TypeOf(obj), l.ExpectedType) {
		return nil, fmt.Errorf("object bound to %s is %T, expected %s", l.Name, obj, TypeName(l.ExpectedType))
	}
	return obj, nil
}

// MapDirectory is an in-memory Directory.
type MapDirectory map[string]any

func (m MapDirectory) Lookup(name string) (any, error) {
	obj, ok := m[name]
	if !ok {
		return nil, fmt.Errorf("name %s is not bound", name)
	}
	return obj, nil
}
