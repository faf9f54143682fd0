package tools

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"

	"gitlab.com/appserver.net/internal/adapter/logging"
	"gitlab.com/appserver.net/internal/adapter/static/toolcatalog"
	"gitlab.com/appserver.net/internal/domain"
	"gitlab.com/appserver.net/internal/handlers/response"
	"gitlab.com/appserver.net/internal/static/errs"
)

func newRouter(t *testing.T) (*mux.Router, *toolcatalog.Catalog) {
	t.Helper()
	catalog := toolcatalog.Builtin()
	router := mux.NewRouter()
	NewToolHandler(catalog, []string{"calculator", "echo", "fib"}, logging.NewNopLogger()).RegisterRoutes(router)
	return router, catalog
}

func serve(router http.Handler, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestGetTool(t *testing.T) {
	router, _ := newRouter(t)

	rec := serve(router, http.MethodGet, "/api/tools/"+toolcatalog.QualifiedFibName, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var def domain.ToolDefinition
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &def))
	require.Equal(t, toolcatalog.QualifiedFibName, def.Name)
	require.Equal(t, "fib", def.Kind)
}

func TestGetUnknownTool(t *testing.T) {
	router, _ := newRouter(t)

	rec := serve(router, http.MethodGet, "/api/tools/nope", "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	var msg response.ErrorMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &msg))
	require.Equal(t, errs.CodeUnknownTool, msg.Code)
}

func TestListTools(t *testing.T) {
	router, _ := newRouter(t)

	rec := serve(router, http.MethodGet, "/api/tools", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string][]domain.ToolDefinition
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body["tools"], 4)
}

func TestPutTool(t *testing.T) {
	router, catalog := newRouter(t)

	rec := serve(router, http.MethodPut, "/api/tools/small-fib", `{"kind":"fib","config":{"max":10}}`)
	require.Equal(t, http.StatusOK, rec.Code)

	def, err := catalog.Provide(context.Background(), "small-fib")
	require.NoError(t, err)
	require.Equal(t, "fib", def.Kind)
	require.JSONEq(t, `{"max":10}`, string(def.Config))
}

func TestPutToolRejects(t *testing.T) {
	router, _ := newRouter(t)

	tests := []struct {
		name string
		path string
		body string
	}{
		{"bad json", "/api/tools/x", `{`},
		{"name mismatch", "/api/tools/x", `{"name":"y","kind":"echo"}`},
		{"missing kind", "/api/tools/x", `{}`},
		{"unknown kind", "/api/tools/x", `{"kind":"groovy"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(router, http.MethodPut, tt.path, tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}
