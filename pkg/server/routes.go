package server

import (
	"net/http"

	"github.com/bitechdev/MetaSpec/pkg/common"
	"github.com/gorilla/mux"
)

// SetupMuxRoutes registers the introspection routes on muxRouter
func SetupMuxRoutes(muxRouter *mux.Router, handler *Handler) {
	muxRouter.HandleFunc("/factories", adapt(handler.ListFactories)).Methods("GET")
	muxRouter.HandleFunc("/factories/{name}/managed-types", adapt(handler.ManagedTypes)).Methods("GET")
	muxRouter.HandleFunc("/factories/{name}/id-attribute", adapt(handler.IDAttribute)).Methods("GET")
}

// NewRouter creates a mux router serving handler
func NewRouter(handler *Handler) *mux.Router {
	r := mux.NewRouter()
	SetupMuxRoutes(r, handler)
	return r
}

func adapt(fn func(common.ResponseWriter, common.Request)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reqAdapter := common.NewHTTPRequest(r, mux.Vars(r))
		respAdapter := common.NewHTTPResponseWriter(w)
		fn(respAdapter, reqAdapter)
	}
}
