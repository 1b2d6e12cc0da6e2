package modelregistry

import (
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/bitechdev/MetaSpec/pkg/component"
)

// DefaultModelRegistry maps names to model types.
// Every type is reachable by its registered name and its fully qualified type name.
type DefaultModelRegistry struct {
	types map[string]reflect.Type
	mutex sync.RWMutex
}

// Global default registry instance
var defaultRegistry = NewModelRegistry()

var builtinTypes = map[string]reflect.Type{
	"bool":    reflect.TypeOf(false),
	"string":  reflect.TypeOf(""),
	"int":     reflect.TypeOf(0),
	"int8":    reflect.TypeOf(int8(0)),
	"int16":   reflect.TypeOf(int16(0)),
	"int32":   reflect.TypeOf(int32(0)),
	"int64":   reflect.TypeOf(int64(0)),
	"uint":    reflect.TypeOf(uint(0)),
	"uint8":   reflect.TypeOf(uint8(0)),
	"uint16":  reflect.TypeOf(uint16(0)),
	"uint32":  reflect.TypeOf(uint32(0)),
	"uint64":  reflect.TypeOf(uint64(0)),
	"float32": reflect.TypeOf(float32(0)),
	"float64": reflect.TypeOf(float64(0)),
	"[]byte":  reflect.TypeOf([]byte(nil)),
}

// NewModelRegistry creates a new model registry
func NewModelRegistry() *DefaultModelRegistry {
	return &DefaultModelRegistry{
		types: make(map[string]reflect.Type),
	}
}

// RegisterModel registers the struct type of model under name.
// Pointers, slices and arrays are unwrapped to the base struct.
func (r *DefaultModelRegistry) RegisterModel(name string, model interface{}) error {
	modelType := reflect.TypeOf(model)
	if modelType == nil {
		return fmt.Errorf("model cannot be nil")
	}

	originalType := modelType

	// Unwrap pointers, slices, and arrays to check the underlying type
	for modelType.Kind() == reflect.Ptr || modelType.Kind() == reflect.Slice || modelType.Kind() == reflect.Array {
		modelType = modelType.Elem()
	}

	// Validate that the underlying type is a struct
	if modelType.Kind() != reflect.Struct {
		return fmt.Errorf("model must be a struct or pointer to struct, got %s", originalType.String())
	}

	if name == "" {
		name = modelType.Name()
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	if existing, exists := r.types[name]; exists && existing != modelType {
		return fmt.Errorf("model %s already registered", name)
	}

	r.types[name] = modelType
	r.types[component.TypeName(modelType)] = modelType
	return nil
}

// GetType resolves a registered model name, a fully qualified type name or a
// builtin type name such as int64.
func (r *DefaultModelRegistry) GetType(name string) (reflect.Type, error) {
	if t, ok := builtinTypes[name]; ok {
		return t, nil
	}

	r.mutex.RLock()
	defer r.mutex.RUnlock()

	t, exists := r.types[name]
	if !exists {
		return nil, fmt.Errorf("model %s not found", name)
	}
	return t, nil
}

// GetAllModels returns the registered names, fully qualified aliases excluded.
func (r *DefaultModelRegistry) GetAllModels() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	names := make([]string, 0, len(r.types))
	for name, t := range r.types {
		if name == component.TypeName(t) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Global convenience functions using the default registry

// RegisterModel registers a model with the default global registry
func RegisterModel(model interface{}, name string) error {
	return defaultRegistry.RegisterModel(name, model)
}

// GetTypeByName resolves a type from the default global registry
func GetTypeByName(name string) (reflect.Type, error) {
	return defaultRegistry.GetType(name)
}

// Default returns the default global registry
func Default() *DefaultModelRegistry {
	return defaultRegistry
}
