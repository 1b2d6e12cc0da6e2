package component

import (
	"fmt"
	"maps"
	"reflect"
)

// Definition is the static description of a named component.
type Definition struct {
	// TypeName is the fully qualified implementation type name.
	TypeName string
	Type     reflect.Type
	// Factory marks components that produce another object.
	Factory bool
	// ObjectType is the product type of a factory, nil when unknown.
	ObjectType reflect.Type
	Properties map[string]any
}

// Describe derives a definition from a prototype value.
func Describe(prototype any) (*Definition, error) {
	if prototype == nil {
		return nil, fmt.Errorf("%w: prototype must not be nil", ErrInvalidDefinition)
	}

	typ := reflect.TypeOf(prototype)
	def := &Definition{
		TypeName: TypeName(typ),
		Type:     typ,
	}

	if producer, ok := prototype.(Producer); ok {
		def.Factory = true
		def.ObjectType = producer.ObjectType()
	}

	if source, ok := prototype.(PropertySource); ok {
		def.Properties = maps.Clone(source.Properties())
	}

	return def, nil
}

// Property returns a configured property value.
func (d *Definition) Property(name string) (any, bool) {
	v, ok := d.Properties[name]
	return v, ok
}

// ResolvedType is the type the component resolves to: the product type for
// factories, the implementation type otherwise.
func (d *Definition) ResolvedType() reflect.Type {
	if d.Factory {
		return d.ObjectType
	}
	return d.Type
}

func (d *Definition) clone() *Definition {
	c := *d
	c.Properties = maps.Clone(d.Properties)
	return &c
}
