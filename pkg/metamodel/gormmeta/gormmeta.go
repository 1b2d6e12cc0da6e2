// Package gormmeta exposes GORM schemas as a metamodel.
package gormmeta

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/bitechdev/MetaSpec/pkg/metamodel"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// Metamodel is the set of GORM schemas parsed for a list of models.
type Metamodel struct {
	types []metamodel.ManagedType
}

// New parses models with the naming strategy and schema cache of db.
func New(db *gorm.DB, models ...interface{}) (*Metamodel, error) {
	if db == nil {
		return nil, fmt.Errorf("%w: gorm db must not be nil", metamodel.ErrInvalidArgument)
	}

	m := &Metamodel{}
	for _, model := range models {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(model); err != nil {
			return nil, fmt.Errorf("failed to parse model %T: %w", model, err)
		}
		m.types = append(m.types, newEntity(stmt.Schema))
	}
	return m, nil
}

// FromNamer parses models without a database, using namer for table and column names.
func FromNamer(namer schema.Namer, models ...interface{}) (*Metamodel, error) {
	if namer == nil {
		namer = schema.NamingStrategy{}
	}

	cacheStore := &sync.Map{}
	m := &Metamodel{}
	for _, model := range models {
		s, err := schema.Parse(model, cacheStore, namer)
		if err != nil {
			return nil, fmt.Errorf("failed to parse model %T: %w", model, err)
		}
		m.types = append(m.types, newEntity(s))
	}
	return m, nil
}

func (m *Metamodel) ManagedTypes() []metamodel.ManagedType {
	return append([]metamodel.ManagedType(nil), m.types...)
}

// Schema returns the parsed schema of a model type.
func (m *Metamodel) Schema(t reflect.Type) (*schema.Schema, bool) {
	for _, mt := range m.types {
		e := mt.(*Entity)
		if e.schema.ModelType == t {
			return e.schema, true
		}
	}
	return nil, false
}

// Entity is a managed type backed by a GORM schema.
type Entity struct {
	schema *schema.Schema
	ids    []metamodel.Attribute
}

func newEntity(s *schema.Schema) *Entity {
	e := &Entity{schema: s}
	for _, field := range s.PrimaryFields {
		e.ids = append(e.ids, &Attribute{field: field})
	}
	return e
}

func (e *Entity) RuntimeType() reflect.Type {
	return e.schema.ModelType
}

func (e *Entity) HasSingleIDAttribute() bool {
	return len(e.schema.PrimaryFields) == 1
}

func (e *Entity) IDAttributes() []metamodel.Attribute {
	return append([]metamodel.Attribute(nil), e.ids...)
}

// Table returns the table name GORM resolved for the entity.
func (e *Entity) Table() string {
	return e.schema.Table
}

// Attribute wraps a GORM schema field.
type Attribute struct {
	field *schema.Field
}

func (a *Attribute) Name() string {
	return a.field.Name
}

func (a *Attribute) DeclaredType() reflect.Type {
	return a.field.FieldType
}

func (a *Attribute) IsID() bool {
	return a.field.PrimaryKey
}

// Column returns the database column name.
func (a *Attribute) Column() string {
	return a.field.DBName
}
