package metamodel

import (
	"fmt"
	"reflect"

	"github.com/bitechdev/MetaSpec/pkg/reflection"
)

// StaticAttribute is an attribute of a StaticType.
type StaticAttribute struct {
	name   string
	column string
	typ    reflect.Type
	id     bool
}

// NewAttribute declares an attribute; column defaults to the attribute name.
func NewAttribute(name string, typ reflect.Type, id bool) *StaticAttribute {
	return &StaticAttribute{name: name, column: name, typ: typ, id: id}
}

func (a *StaticAttribute) Name() string               { return a.name }
func (a *StaticAttribute) Column() string             { return a.column }
func (a *StaticAttribute) DeclaredType() reflect.Type { return a.typ }
func (a *StaticAttribute) IsID() bool                 { return a.id }

// StaticType is a managed type declared up front.
type StaticType struct {
	typ        reflect.Type
	attributes []*StaticAttribute
}

// NewType declares a managed type. A nil t describes a type-less descriptor,
// such as an embeddable that has no Go type of its own.
func NewType(t reflect.Type, attributes ...*StaticAttribute) *StaticType {
	return &StaticType{typ: t, attributes: attributes}
}

func (s *StaticType) RuntimeType() reflect.Type { return s.typ }

// Attributes returns all declared attributes in declaration order.
func (s *StaticType) Attributes() []*StaticAttribute {
	return append([]*StaticAttribute(nil), s.attributes...)
}

// HasSingleIDAttribute is true when exactly one attribute is an identifier.
func (s *StaticType) HasSingleIDAttribute() bool {
	return len(s.IDAttributes()) == 1
}

func (s *StaticType) IDAttributes() []Attribute {
	var ids []Attribute
	for _, attr := range s.attributes {
		if attr.id {
			ids = append(ids, attr)
		}
	}
	return ids
}

// Static is an immutable in-memory Metamodel.
type Static struct {
	types []ManagedType
}

// NewStatic creates a metamodel over the given managed types.
func NewStatic(types ...ManagedType) *Static {
	return &Static{types: append([]ManagedType(nil), types...)}
}

// FromModels builds a metamodel from tagged model structs. Identifier
// attributes are taken from bun pk and gorm primaryKey tags, falling back to a
// field named ID.
func FromModels(models ...any) (*Static, error) {
	types := make([]ManagedType, 0, len(models))

	for _, model := range models {
		modelType := reflection.ModelType(model)
		if modelType == nil {
			return nil, fmt.Errorf("%w: model %T is not a struct", ErrInvalidArgument, model)
		}

		ids := make(map[string]bool)
		for _, field := range reflection.PrimaryKeyFields(modelType) {
			ids[field.Name] = true
		}

		var attributes []*StaticAttribute
		for _, field := range reflection.Fields(modelType) {
			attributes = append(attributes, &StaticAttribute{
				name:   field.Name,
				column: reflection.ColumnName(field),
				typ:    field.Type,
				id:     ids[field.Name],
			})
		}

		types = append(types, NewType(modelType, attributes...))
	}

	return &Static{types: types}, nil
}

// ManagedTypes returns a copy of the declared types.
func (s *Static) ManagedTypes() []ManagedType {
	return append([]ManagedType(nil), s.types...)
}
