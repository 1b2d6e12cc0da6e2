package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/bitechdev/MetaSpec/pkg/common"
	"github.com/bitechdev/MetaSpec/pkg/component"
	"github.com/bitechdev/MetaSpec/pkg/metamodel"
	"github.com/bitechdev/MetaSpec/pkg/modelregistry"
	"github.com/bitechdev/MetaSpec/pkg/persistence"
	"github.com/bitechdev/MetaSpec/pkg/walker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Customer struct {
	ID   int64
	Name string
}

type Subscription struct {
	CustomerID int64
	PlanID     int64
}

type staticFactory struct {
	metamodel *metamodel.Static
}

func (f *staticFactory) Metamodel() metamodel.Metamodel { return f.metamodel }
func (f *staticFactory) Close() error                   { return nil }

type staticFactoryBean struct {
	factory *staticFactory
}

func (b *staticFactoryBean) ObjectType() reflect.Type { return reflect.TypeOf(b.factory) }
func (b *staticFactoryBean) Object() (persistence.ContextFactory, error) {
	return b.factory, nil
}

type envelope struct {
	Success  bool             `json:"success"`
	Data     json.RawMessage  `json:"data"`
	Metadata *common.Metadata `json:"metadata"`
	Error    *common.APIError `json:"error"`
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	customerType := reflect.TypeOf(Customer{})
	subscriptionType := reflect.TypeOf(Subscription{})
	int64Type := reflect.TypeOf(int64(0))

	billing := &staticFactory{metamodel: metamodel.NewStatic(
		metamodel.NewType(customerType,
			metamodel.NewAttribute("ID", int64Type, true),
			metamodel.NewAttribute("Name", reflect.TypeOf(""), false),
		),
		metamodel.NewType(subscriptionType,
			metamodel.NewAttribute("CustomerID", int64Type, true),
			metamodel.NewAttribute("PlanID", int64Type, true),
		),
	)}
	primary := &staticFactory{metamodel: metamodel.NewStatic()}

	root := component.NewContainer("root", nil)
	require.NoError(t, root.Define("primaryFactory", primary))

	child := component.NewContainer("child", root)
	bean := &staticFactoryBean{factory: billing}
	require.NoError(t, child.Define("billingFactory", bean))
	require.NoError(t, child.Define("orphanFactory", &staticFactory{metamodel: metamodel.NewStatic()}))

	instances := NewInstances()
	instances.Put(root, "primaryFactory", primary)
	instances.Put(child, "billingFactory", bean)

	types := modelregistry.NewModelRegistry()
	require.NoError(t, types.RegisterModel("customers", Customer{}))
	require.NoError(t, types.RegisterModel("subscriptions", Subscription{}))

	handler := NewHandler(child, instances,
		WithWalker(walker.New(walker.Capabilities{})),
		WithCache(metamodel.NewCache()),
		WithTypes(types),
	)

	srv := httptest.NewServer(NewRouter(handler))
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, srv *httptest.Server, path string) (int, envelope) {
	t.Helper()

	resp, err := http.Get(srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var body envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

func TestListFactories(t *testing.T) {
	srv := newTestServer(t)

	status, body := get(t, srv, "/factories")
	require.Equal(t, http.StatusOK, status)
	assert.True(t, body.Success)

	var data struct {
		Names       []string             `json:"names"`
		Descriptors []common.FactoryInfo `json:"descriptors"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &data))

	assert.Equal(t, []string{"billingFactory", "orphanFactory", "primaryFactory"}, data.Names)
	require.Len(t, data.Descriptors, 3)
	assert.Equal(t, "billingFactory", data.Descriptors[0].Name)
	assert.True(t, data.Descriptors[0].Factory)
	assert.Equal(t, "*github.com/bitechdev/MetaSpec/pkg/server.staticFactory", data.Descriptors[0].ObjectType)
	assert.Equal(t, "primaryFactory", data.Descriptors[2].Name)
	assert.False(t, data.Descriptors[2].Factory)
	require.NotNil(t, body.Metadata)
	assert.Equal(t, int64(3), body.Metadata.Count)
}

func TestManagedTypes(t *testing.T) {
	srv := newTestServer(t)

	status, body := get(t, srv, "/factories/billingFactory/managed-types")
	require.Equal(t, http.StatusOK, status)
	assert.True(t, body.Success)

	var types []common.ManagedTypeInfo
	require.NoError(t, json.Unmarshal(body.Data, &types))
	require.Len(t, types, 2)

	assert.Equal(t, "github.com/bitechdev/MetaSpec/pkg/server.Customer", types[0].Type)
	assert.True(t, types[0].SingleID)
	assert.Equal(t, []string{"ID"}, types[0].IDAttributes)

	assert.Equal(t, "github.com/bitechdev/MetaSpec/pkg/server.Subscription", types[1].Type)
	assert.False(t, types[1].SingleID)
	assert.Equal(t, []string{"CustomerID", "PlanID"}, types[1].IDAttributes)
}

func TestManagedTypesFromAncestor(t *testing.T) {
	srv := newTestServer(t)

	status, body := get(t, srv, "/factories/primaryFactory/managed-types")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `[]`, string(body.Data))
}

func TestIDAttribute(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name  string
		query string
		match bool
	}{
		{"single id", "entity=customers&attribute=ID&type=int64", true},
		{"wrong name", "entity=customers&attribute=Name&type=int64", false},
		{"wrong type", "entity=customers&attribute=ID&type=string", false},
		{"composite key", "entity=subscriptions&attribute=CustomerID&type=int64", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := get(t, srv, "/factories/billingFactory/id-attribute?"+tt.query)
			require.Equal(t, http.StatusOK, status)

			var check common.IDAttributeCheck
			require.NoError(t, json.Unmarshal(body.Data, &check))
			assert.Equal(t, tt.match, check.Match)
		})
	}
}

func TestErrors(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name   string
		path   string
		status int
		code   string
	}{
		{"unknown factory", "/factories/missing/managed-types", http.StatusNotFound, "not_found"},
		{"no live instance", "/factories/orphanFactory/managed-types", http.StatusNotFound, "factory_error"},
		{"missing params", "/factories/billingFactory/id-attribute?entity=customers", http.StatusBadRequest, "invalid_request"},
		{"unknown entity", "/factories/billingFactory/id-attribute?entity=nope&attribute=ID&type=int64", http.StatusBadRequest, "unknown_type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := get(t, srv, tt.path)
			assert.Equal(t, tt.status, status)
			assert.False(t, body.Success)
			require.NotNil(t, body.Error)
			assert.Equal(t, tt.code, body.Error.Code)
		})
	}
}

func TestInstancesContextFactory(t *testing.T) {
	reg := component.NewContainer("root", nil)
	require.NoError(t, reg.Define("lookupFactory", &component.LookupFactory{Name: "billing/factory", ExpectedType: persistence.ContextFactoryType}))
	require.NoError(t, reg.Alias("billing", "lookupFactory"))

	factory := &staticFactory{metamodel: metamodel.NewStatic()}
	instances := NewInstances()
	instances.Put(reg, "billing", &component.LookupFactory{Name: "billing/factory", ExpectedType: persistence.ContextFactoryType})

	component.SetDirectory(component.MapDirectory{"billing/factory": factory})
	t.Cleanup(func() { component.SetDirectory(nil) })

	got, err := instances.ContextFactory(walker.Descriptor{Registry: reg, Name: "lookupFactory"})
	require.NoError(t, err)
	assert.Same(t, factory, got)

	_, err = instances.ContextFactory(walker.Descriptor{Registry: reg, Name: "other"})
	assert.ErrorIs(t, err, component.ErrNotFound)

	_, err = instances.ContextFactory(walker.Descriptor{Name: "lookupFactory"})
	assert.ErrorIs(t, err, walker.ErrInvalidArgument)
}
