// Package server exposes factory and metamodel introspection over HTTP.
package server

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"runtime/debug"

	"github.com/bitechdev/MetaSpec/pkg/common"
	"github.com/bitechdev/MetaSpec/pkg/component"
	"github.com/bitechdev/MetaSpec/pkg/logger"
	"github.com/bitechdev/MetaSpec/pkg/metamodel"
	"github.com/bitechdev/MetaSpec/pkg/modelregistry"
	"github.com/bitechdev/MetaSpec/pkg/walker"
)

// Handler answers introspection requests against one registry node.
type Handler struct {
	registry  component.Introspector
	instances *Instances
	types     *modelregistry.DefaultModelRegistry
	walker    *walker.Walker
	cache     *metamodel.Cache
}

// Option configures a Handler.
type Option func(*Handler)

// WithWalker replaces the process walker.
func WithWalker(w *walker.Walker) Option {
	return func(h *Handler) {
		h.walker = w
	}
}

// WithCache replaces the process metamodel cache.
func WithCache(c *metamodel.Cache) Option {
	return func(h *Handler) {
		h.cache = c
	}
}

// WithTypes sets the registry used to resolve type names in queries.
func WithTypes(r *modelregistry.DefaultModelRegistry) Option {
	return func(h *Handler) {
		h.types = r
	}
}

// NewHandler creates a handler for registry whose live factories are in instances.
func NewHandler(registry component.Introspector, instances *Instances, opts ...Option) *Handler {
	h := &Handler{
		registry:  registry,
		instances: instances,
		types:     modelregistry.Default(),
		walker:    walker.Default(),
		cache:     metamodel.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// handlePanic is a helper function to handle panics with stack traces
func (h *Handler) handlePanic(w common.ResponseWriter, method string, err interface{}) {
	stack := debug.Stack()
	logger.Error("Panic in %s: %v\nStack trace:\n%s", method, err, string(stack))
	h.sendError(w, http.StatusInternalServerError, "internal_error", fmt.Sprintf("Internal server error in %s", method), fmt.Errorf("%v", err))
}

// ListFactories lists every context factory visible from the registry.
func (h *Handler) ListFactories(w common.ResponseWriter, r common.Request) {
	defer func() {
		if err := recover(); err != nil {
			h.handlePanic(w, "ListFactories", err)
		}
	}()

	set, err := h.walker.FactoryDescriptors(h.registry)
	if err != nil {
		logger.Error("Failed to collect factory descriptors: %v", err)
		h.sendError(w, statusFor(err), "walk_error", "Failed to collect factories", err)
		return
	}

	factories := make([]common.FactoryInfo, 0, set.Len())
	for _, d := range set.Slice() {
		def, err := d.Definition()
		if err != nil {
			logger.Warn("Skipping factory %s: %v", d, err)
			continue
		}
		info := common.FactoryInfo{
			Name:     d.Name,
			Registry: d.Registry.ID(),
			Type:     def.TypeName,
			Factory:  def.Factory,
		}
		if def.ObjectType != nil {
			info.ObjectType = component.TypeName(def.ObjectType)
		}
		factories = append(factories, info)
	}

	h.sendResponse(w, map[string]interface{}{
		"names":       h.walker.FactoryComponentNames(h.registry),
		"descriptors": factories,
	}, &common.Metadata{
		Total: int64(set.Len()),
		Count: int64(len(factories)),
	})
}

// ManagedTypes lists the managed types of one factory's metamodel.
func (h *Handler) ManagedTypes(w common.ResponseWriter, r common.Request) {
	defer func() {
		if err := recover(); err != nil {
			h.handlePanic(w, "ManagedTypes", err)
		}
	}()

	m, ok := h.metamodelFor(w, r.PathParam("name"))
	if !ok {
		return
	}

	set, err := h.cache.ManagedTypeSetFor(m)
	if err != nil {
		h.sendError(w, statusFor(err), "metamodel_error", "Failed to read managed types", err)
		return
	}

	byType := make(map[reflect.Type]metamodel.ManagedType)
	for _, mt := range m.ManagedTypes() {
		if mt == nil || mt.RuntimeType() == nil {
			continue
		}
		if _, seen := byType[mt.RuntimeType()]; !seen {
			byType[mt.RuntimeType()] = mt
		}
	}

	types := set.Types()
	result := make([]common.ManagedTypeInfo, 0, len(types))
	for _, t := range types {
		info := common.ManagedTypeInfo{Type: component.TypeName(t), IDAttributes: []string{}}
		if mt, ok := byType[t]; ok {
			info.SingleID = mt.HasSingleIDAttribute()
			for _, attr := range mt.IDAttributes() {
				info.IDAttributes = append(info.IDAttributes, attr.Name())
			}
		}
		result = append(result, info)
	}

	h.sendResponse(w, result, &common.Metadata{
		Total: int64(len(result)),
		Count: int64(len(result)),
	})
}

// IDAttribute reports whether attribute of entity is its single id attribute
// of the given type.
func (h *Handler) IDAttribute(w common.ResponseWriter, r common.Request) {
	defer func() {
		if err := recover(); err != nil {
			h.handlePanic(w, "IDAttribute", err)
		}
	}()

	entityName := r.QueryParam("entity")
	attribute := r.QueryParam("attribute")
	typeName := r.QueryParam("type")
	if entityName == "" || attribute == "" || typeName == "" {
		h.sendError(w, http.StatusBadRequest, "invalid_request", "entity, attribute and type are required", nil)
		return
	}

	entity, err := h.types.GetType(entityName)
	if err != nil {
		h.sendError(w, http.StatusBadRequest, "unknown_type", "Unknown entity type", err)
		return
	}
	attrType, err := h.types.GetType(typeName)
	if err != nil {
		h.sendError(w, http.StatusBadRequest, "unknown_type", "Unknown attribute type", err)
		return
	}

	m, ok := h.metamodelFor(w, r.PathParam("name"))
	if !ok {
		return
	}

	match, err := h.cache.IsSingleIDAttribute(m, entity, attribute, attrType)
	if err != nil {
		h.sendError(w, statusFor(err), "metamodel_error", "Failed to check id attribute", err)
		return
	}

	h.sendResponse(w, common.IDAttributeCheck{
		Entity:    component.TypeName(entity),
		Attribute: attribute,
		Type:      component.TypeName(attrType),
		Match:     match,
	}, nil)
}

// metamodelFor finds the factory named name nearest to the handler's registry
// and returns its metamodel. It writes the error response itself.
func (h *Handler) metamodelFor(w common.ResponseWriter, name string) (metamodel.Metamodel, bool) {
	d, err := h.descriptor(name)
	if err != nil {
		h.sendError(w, statusFor(err), "not_found", fmt.Sprintf("Factory %s not found", name), err)
		return nil, false
	}

	factory, err := h.instances.ContextFactory(d)
	if err != nil {
		logger.Error("Failed to obtain context factory %s: %v", d, err)
		h.sendError(w, statusFor(err), "factory_error", fmt.Sprintf("Factory %s is unavailable", name), err)
		return nil, false
	}
	return factory.Metamodel(), true
}

func (h *Handler) descriptor(name string) (walker.Descriptor, error) {
	set, err := h.walker.FactoryDescriptors(h.registry)
	if err != nil {
		return walker.Descriptor{}, err
	}

	for current := h.registry; current != nil; {
		d := walker.Descriptor{Registry: current, Name: current.CanonicalName(name)}
		if set.Contains(d) {
			return d, nil
		}
		parent, ok := current.Parent().(component.Introspector)
		if !ok {
			break
		}
		current = parent
	}
	return walker.Descriptor{}, &component.NotFoundError{Name: name, Registry: h.registry.ID()}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, component.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, metamodel.ErrInvalidArgument), errors.Is(err, walker.ErrInvalidArgument):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) sendResponse(w common.ResponseWriter, data interface{}, metadata *common.Metadata) {
	w.SetHeader("Content-Type", "application/json")
	if err := w.WriteJSON(common.Response{
		Success:  true,
		Data:     data,
		Metadata: metadata,
	}); err != nil {
		logger.Error("Failed to write response: %v", err)
	}
}

func (h *Handler) sendError(w common.ResponseWriter, status int, code, message string, details interface{}) {
	w.SetHeader("Content-Type", "application/json")
	w.WriteHeader(status)
	apiErr := &common.APIError{
		Code:    code,
		Message: message,
	}
	if err, ok := details.(error); ok {
		apiErr.Detail = err.Error()
	} else if details != nil {
		apiErr.Details = details
		apiErr.Detail = fmt.Sprintf("%v", details)
	}
	if err := w.WriteJSON(common.Response{
		Success: false,
		Error:   apiErr,
	}); err != nil {
		logger.Error("Failed to write error response: %v", err)
	}
}
