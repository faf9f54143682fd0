package workers

import (
	"net/http"

	"github.com/gorilla/mux"

	"gitlab.com/appserver.net/internal/core/services/dispatch"
	"gitlab.com/appserver.net/internal/domain"
	"gitlab.com/appserver.net/internal/handlers"
)

type ApiHandler struct {
	Dispatcher dispatch.IDispatchService
}

func NewHandler(dispatcher dispatch.IDispatchService) *ApiHandler {
	return &ApiHandler{
		Dispatcher: dispatcher,
	}
}

func (api *ApiHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/workers", api.GetWorkers).Methods("GET")
}

// GetWorkers lists registered workers in rotation order
func (api *ApiHandler) GetWorkers(w http.ResponseWriter, r *http.Request) {
	workers := api.Dispatcher.Workers()
	if workers == nil {
		workers = []domain.WorkerStatus{}
	}
	handlers.ResponseWithJson(w, http.StatusOK, map[string][]domain.WorkerStatus{"workers": workers})
}
