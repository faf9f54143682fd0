package workers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"

	"gitlab.com/appserver.net/internal/adapter/logging"
	"gitlab.com/appserver.net/internal/core/services/balancer"
	"gitlab.com/appserver.net/internal/core/services/dispatch"
	"gitlab.com/appserver.net/internal/core/services/registry"
	"gitlab.com/appserver.net/internal/domain"
)

func TestGetWorkers(t *testing.T) {
	dispatcher := dispatch.NewDispatcher(registry.NewWorkerRegistry(), balancer.NewRoundRobin(), nil, logging.NewNopLogger())
	router := mux.NewRouter()
	NewHandler(dispatcher).RegisterRoutes(router)

	get := func() map[string][]domain.WorkerStatus {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/workers", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var body map[string][]domain.WorkerStatus
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		return body
	}

	body := get()
	require.Contains(t, body, "workers")
	require.Empty(t, body["workers"])

	for i, name := range []string{"Earth", "Mars"} {
		require.NoError(t, dispatcher.RegisterWorker(context.Background(),
			domain.ConnectivityInfo{Host: "127.0.0.1", Port: 9001 + i, Name: name}))
	}

	workers := get()["workers"]
	require.Len(t, workers, 2)
	require.Equal(t, "Earth", workers[0].Name)
	require.True(t, workers[0].NextInLine)
	require.Equal(t, 9002, workers[1].Port)
}
