package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/bitechdev/MetaSpec/pkg/component"
	"github.com/bitechdev/MetaSpec/pkg/config"
	"github.com/bitechdev/MetaSpec/pkg/logger"
	"github.com/bitechdev/MetaSpec/pkg/metamodel"
	"github.com/bitechdev/MetaSpec/pkg/modelregistry"
	"github.com/bitechdev/MetaSpec/pkg/persistence"
	"github.com/bitechdev/MetaSpec/pkg/server"
	"github.com/bitechdev/MetaSpec/pkg/testmodels"
	"github.com/bitechdev/MetaSpec/pkg/walker"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlog "gorm.io/gorm/logger"
)

// app is the composition root: a root container holding the GORM factory and
// the metamodel cleanup hook, and a child container holding the bun factory
// and any configured lookups.
type app struct {
	root      *component.Container
	child     *component.Container
	instances *server.Instances
}

func buildApp(cfg *config.Config) (*app, error) {
	a := &app{instances: server.NewInstances()}

	a.root = component.NewContainer("root", nil)
	a.root.OnShutdown(metamodel.NewCleanup(metamodel.Default()))

	gormBean := &persistence.GormFactoryBean{
		Dialector: sqlite.Open(cfg.Factories.GormDSN),
		Config:    &gorm.Config{Logger: newGormLogger(cfg.Log.Dev)},
		Models:    testmodels.GormModels(),
		Migrate:   cfg.Factories.Migrate,
	}
	if err := a.root.Define("gormFactory", gormBean); err != nil {
		a.Close()
		return nil, err
	}
	a.root.OnShutdown(gormBean)
	a.instances.Put(a.root, "gormFactory", gormBean)

	a.child = component.NewContainer("reporting", a.root)

	bunBean := &persistence.BunFactoryBean{
		DSN:    cfg.Factories.BunDSN,
		Models: testmodels.BunModels(),
	}
	if err := a.child.Define("bunFactory", bunBean); err != nil {
		a.Close()
		return nil, err
	}
	a.child.OnShutdown(bunBean)
	a.instances.Put(a.child, "bunFactory", bunBean)

	if len(cfg.Lookups) > 0 {
		if err := a.defineLookups(cfg.Lookups); err != nil {
			a.Close()
			return nil, err
		}
	}

	for _, model := range append(testmodels.GormModels(), testmodels.BunModels()...) {
		if err := modelregistry.RegisterModel(model, ""); err != nil {
			a.Close()
			return nil, err
		}
	}

	return a, nil
}

// defineLookups binds each target factory in a directory and registers a
// lookup component for it under the configured name.
func (a *app) defineLookups(lookups map[string]string) error {
	directory := component.MapDirectory{}
	for name, target := range lookups {
		d, err := descriptorFor(a.child, target)
		if err != nil {
			return err
		}
		factory, err := a.instances.ContextFactory(d)
		if err != nil {
			return fmt.Errorf("failed to bind lookup %s: %w", name, err)
		}
		directory[name] = factory
	}
	component.SetDirectory(directory)

	for name := range lookups {
		lookup := &component.LookupFactory{Name: name, ExpectedType: persistence.ContextFactoryType}
		if err := a.child.Define(name, lookup); err != nil {
			return err
		}
		a.instances.Put(a.child, name, lookup)
	}
	logger.Info("Registered %d lookup factories", len(lookups))
	return nil
}

// Close shuts the child container down before the root.
func (a *app) Close() {
	for _, c := range []*component.Container{a.child, a.root} {
		if c == nil {
			continue
		}
		if err := c.Close(); err != nil {
			logger.Error("Failed to close container %s: %v", c, err)
		}
	}
}

func descriptorFor(reg component.Introspector, name string) (walker.Descriptor, error) {
	for current := reg; current != nil; {
		if _, err := current.Definition(name); err == nil {
			return walker.Descriptor{Registry: current, Name: current.CanonicalName(name)}, nil
		}
		parent, ok := current.Parent().(component.Introspector)
		if !ok {
			break
		}
		current = parent
	}
	return walker.Descriptor{}, &component.NotFoundError{Name: name, Registry: reg.ID()}
}

func newGormLogger(dev bool) gormlog.Interface {
	level := gormlog.Warn
	if dev {
		level = gormlog.Info
	}
	return gormlog.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlog.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
			ParameterizedQueries:      true,
			Colorful:                  dev,
		},
	)
}
