package tools

import (
	"net/http"

	"github.com/gorilla/mux"

	"gitlab.com/appserver.net/internal/core/ports/primary"
	"gitlab.com/appserver.net/internal/core/ports/secondary"
	"gitlab.com/appserver.net/internal/domain"
	"gitlab.com/appserver.net/internal/handlers"
	"gitlab.com/appserver.net/internal/handlers/response"
)

// ToolHandler serves tool definitions to workers
type ToolHandler struct {
	repo   secondary.ToolRepository
	kinds  map[string]struct{}
	logger primary.Logger
}

// NewToolHandler creates a handler over repo; kinds lists the accepted kinds
// for uploads, and an empty list accepts any kind.
func NewToolHandler(repo secondary.ToolRepository, kinds []string, logger primary.Logger) *ToolHandler {
	h := &ToolHandler{
		repo:   repo,
		kinds:  make(map[string]struct{}, len(kinds)),
		logger: logger,
	}
	for _, kind := range kinds {
		h.kinds[kind] = struct{}{}
	}
	return h
}

// RegisterRoutes registers the API routes for ToolHandler
func (h *ToolHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/tools", h.ListTools).Methods("GET")
	router.HandleFunc("/api/tools/{name}", h.GetTool).Methods("GET")
	router.HandleFunc("/api/tools/{name}", h.PutTool).Methods("PUT")
}

func (h *ToolHandler) ListTools(w http.ResponseWriter, r *http.Request) {
	defs, err := h.repo.List(r.Context())
	if err != nil {
		h.logger.Error("Failed to list tools", "error", err)
		response.WriteError(w, err)
		return
	}
	handlers.ResponseWithJson(w, http.StatusOK, map[string][]*domain.ToolDefinition{"tools": defs})
}

func (h *ToolHandler) GetTool(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	def, err := h.repo.Provide(r.Context(), name)
	if err != nil {
		response.WriteError(w, err)
		return
	}
	handlers.ResponseWithJson(w, http.StatusOK, def)
}

func (h *ToolHandler) PutTool(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	var def domain.ToolDefinition
	if err := handlers.DecodeJSON(w, r, &def); err != nil {
		handlers.ResponseError(w, "Invalid tool definition", http.StatusBadRequest)
		return
	}
	if def.Name != "" && def.Name != name {
		handlers.ResponseError(w, "Tool name does not match path", http.StatusBadRequest)
		return
	}
	def.Name = name
	if def.Kind == "" {
		handlers.ResponseError(w, "Tool kind is required", http.StatusBadRequest)
		return
	}
	if _, ok := h.kinds[def.Kind]; len(h.kinds) > 0 && !ok {
		handlers.ResponseError(w, "Unknown tool kind "+def.Kind, http.StatusBadRequest)
		return
	}

	if err := h.repo.Save(r.Context(), &def); err != nil {
		h.logger.Error("Failed to save tool", "tool", name, "error", err)
		response.WriteError(w, err)
		return
	}
	h.logger.Info("Tool saved", "tool", name, "kind", def.Kind)
	handlers.ResponseWithJson(w, http.StatusOK, def)
}
