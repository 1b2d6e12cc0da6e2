// Package bunmeta exposes the tables registered with a bun.DB as a metamodel.
package bunmeta

import (
	"fmt"
	"reflect"

	"github.com/bitechdev/MetaSpec/pkg/metamodel"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/schema"
)

// Metamodel is a snapshot of the tables known to a bun dialect.
type Metamodel struct {
	types []metamodel.ManagedType
}

// New registers models with db and snapshots every table the dialect has
// registered so far, including tables of earlier registrations.
func New(db *bun.DB, models ...interface{}) (*Metamodel, error) {
	if db == nil {
		return nil, fmt.Errorf("%w: bun db must not be nil", metamodel.ErrInvalidArgument)
	}

	for _, model := range models {
		typ := reflect.TypeOf(model)
		for typ != nil && typ.Kind() == reflect.Pointer {
			typ = typ.Elem()
		}
		if typ == nil || typ.Kind() != reflect.Struct {
			return nil, fmt.Errorf("%w: model %T is not a struct", metamodel.ErrInvalidArgument, model)
		}
		db.Table(typ)
	}

	m := &Metamodel{}
	for _, table := range db.Dialect().Tables().All() {
		m.types = append(m.types, newEntity(table))
	}
	return m, nil
}

func (m *Metamodel) ManagedTypes() []metamodel.ManagedType {
	return append([]metamodel.ManagedType(nil), m.types...)
}

// Entity is a managed type backed by a bun table.
type Entity struct {
	table *schema.Table
	ids   []metamodel.Attribute
}

func newEntity(table *schema.Table) *Entity {
	e := &Entity{table: table}
	for _, field := range table.PKs {
		e.ids = append(e.ids, &Attribute{field: field})
	}
	return e
}

func (e *Entity) RuntimeType() reflect.Type {
	return e.table.Type
}

func (e *Entity) HasSingleIDAttribute() bool {
	return len(e.table.PKs) == 1
}

func (e *Entity) IDAttributes() []metamodel.Attribute {
	return append([]metamodel.Attribute(nil), e.ids...)
}

// Table returns the SQL table name.
func (e *Entity) Table() string {
	return e.table.Name
}

// Attribute wraps a bun field.
type Attribute struct {
	field *schema.Field
}

func (a *Attribute) Name() string {
	return a.field.GoName
}

func (a *Attribute) DeclaredType() reflect.Type {
	return a.field.StructField.Type
}

func (a *Attribute) IsID() bool {
	return a.field.IsPK
}

// Column returns the SQL column name.
func (a *Attribute) Column() string {
	return a.field.Name
}
