package persistence

import (
	"database/sql"
	"fmt"
	"reflect"
	"sync"

	"github.com/bitechdev/MetaSpec/pkg/logger"
	"github.com/bitechdev/MetaSpec/pkg/metamodel"
	"github.com/bitechdev/MetaSpec/pkg/metamodel/bunmeta"
	_ "github.com/glebarez/go-sqlite"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

// sqliteDriverName is the database/sql name registered by go-sqlite, the
// driver under the GORM dialector as well.
const sqliteDriverName = "sqlite"

// BunFactory is a ContextFactory over a bun connection.
type BunFactory struct {
	db        *bun.DB
	metamodel *bunmeta.Metamodel
}

// NewBunFactory registers models with db and snapshots its tables.
func NewBunFactory(db *bun.DB, models ...interface{}) (*BunFactory, error) {
	m, err := bunmeta.New(db, models...)
	if err != nil {
		return nil, err
	}
	return &BunFactory{db: db, metamodel: m}, nil
}

// DB returns the underlying connection.
func (f *BunFactory) DB() *bun.DB {
	return f.db
}

func (f *BunFactory) Metamodel() metamodel.Metamodel {
	return f.metamodel
}

func (f *BunFactory) Close() error {
	return f.db.Close()
}

// BunFactoryBean opens a SQLite-backed BunFactory on first use.
type BunFactoryBean struct {
	DSN    string
	Models []interface{}

	mutex   sync.Mutex
	opened  bool
	closed  bool
	factory *BunFactory
	err     error
}

func (b *BunFactoryBean) ObjectType() reflect.Type {
	return reflect.TypeOf((*BunFactory)(nil))
}

// Object opens the factory on the first call and returns the same factory, or
// the same error, afterwards.
func (b *BunFactoryBean) Object() (ContextFactory, error) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	if b.closed {
		return nil, ErrDestroyed
	}
	if !b.opened {
		b.opened = true
		b.factory, b.err = b.open()
	}
	if b.err != nil {
		return nil, b.err
	}
	return b.factory, nil
}

func (b *BunFactoryBean) open() (*BunFactory, error) {
	dsn := b.DSN
	if dsn == "" {
		dsn = "file:bunfactory?mode=memory&cache=shared"
	}

	sqldb, err := sql.Open(sqliteDriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open bun database: %w", err)
	}

	db := bun.NewDB(sqldb, sqlitedialect.New())
	factory, err := NewBunFactory(db, b.Models...)
	if err != nil {
		if cerr := db.Close(); cerr != nil {
			logger.Warn("Failed to close bun database: %v", cerr)
		}
		return nil, err
	}

	logger.Info("Opened bun context factory with %d models", len(b.Models))
	return factory, nil
}

// Destroy closes the produced factory, if any. Later calls to Object fail.
func (b *BunFactoryBean) Destroy() error {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	if b.factory == nil {
		return nil
	}
	return b.factory.Close()
}
