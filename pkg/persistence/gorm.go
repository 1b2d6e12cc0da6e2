package persistence

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/bitechdev/MetaSpec/pkg/logger"
	"github.com/bitechdev/MetaSpec/pkg/metamodel"
	"github.com/bitechdev/MetaSpec/pkg/metamodel/gormmeta"
	"gorm.io/gorm"
)

// GormFactory is a ContextFactory over a GORM connection.
type GormFactory struct {
	db        *gorm.DB
	metamodel *gormmeta.Metamodel
}

// NewGormFactory parses models eagerly so schema errors surface here.
func NewGormFactory(db *gorm.DB, models ...interface{}) (*GormFactory, error) {
	m, err := gormmeta.New(db, models...)
	if err != nil {
		return nil, err
	}
	return &GormFactory{db: db, metamodel: m}, nil
}

// DB returns the underlying connection.
func (f *GormFactory) DB() *gorm.DB {
	return f.db
}

func (f *GormFactory) Metamodel() metamodel.Metamodel {
	return f.metamodel
}

func (f *GormFactory) Close() error {
	sqlDB, err := f.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// GormFactoryBean opens a GormFactory on first use.
type GormFactoryBean struct {
	Dialector gorm.Dialector
	Config    *gorm.Config
	Models    []interface{}
	// Migrate runs AutoMigrate for Models after opening.
	Migrate bool

	mutex   sync.Mutex
	opened  bool
	closed  bool
	factory *GormFactory
	err     error
}

func (b *GormFactoryBean) ObjectType() reflect.Type {
	return reflect.TypeOf((*GormFactory)(nil))
}

// Object opens the factory on the first call and returns the same factory, or
// the same error, afterwards.
func (b *GormFactoryBean) Object() (ContextFactory, error) {
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

func (b *GormFactoryBean) open() (*GormFactory, error) {
	if b.Dialector == nil {
		return nil, fmt.Errorf("gorm factory bean has no dialector")
	}

	config := b.Config
	if config == nil {
		config = &gorm.Config{}
	}

	db, err := gorm.Open(b.Dialector, config)
	if err != nil {
		return nil, fmt.Errorf("failed to open gorm database: %w", err)
	}

	if b.Migrate && len(b.Models) > 0 {
		if err := db.AutoMigrate(b.Models...); err != nil {
			closeGormDB(db)
			return nil, fmt.Errorf("failed to migrate models: %w", err)
		}
	}

	factory, err := NewGormFactory(db, b.Models...)
	if err != nil {
		closeGormDB(db)
		return nil, err
	}

	logger.Info("Opened GORM context factory with %d models", len(b.Models))
	return factory, nil
}

// Destroy closes the produced factory, if any. Later calls to Object fail.
func (b *GormFactoryBean) Destroy() error {
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

func closeGormDB(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		logger.Warn("Failed to reach gorm connection pool: %v", err)
		return
	}
	if err := sqlDB.Close(); err != nil {
		logger.Warn("Failed to close gorm database: %v", err)
	}
}
