package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tcmartin/flowgraph/pkg/auth"
	"github.com/tcmartin/flowgraph/pkg/config"
	"github.com/tcmartin/flowgraph/pkg/engine"
	"github.com/tcmartin/flowgraph/pkg/flow"
	"github.com/tcmartin/flowgraph/pkg/nodes"
	"github.com/tcmartin/flowgraph/pkg/registry"
	"github.com/tcmartin/flowgraph/pkg/runtime"
	"github.com/tcmartin/flowgraph/pkg/scripting"
	"github.com/tcmartin/flowgraph/pkg/storage"
)

const testWorkflow = `
metadata:
  name: greeting
nodes:
  - id: start
    type: trigger
    canBeStart: true
    config:
      payload:
        name: world
  - id: format
    type: template
    config:
      template: "hello {{name}}"
connections:
  - from: start
    to: format
`

func newTestServer(t *testing.T) *Server {
	t.Helper()

	passwordHash, err := auth.HashPassword("correct-horse")
	require.NoError(t, err)

	cfg := config.DefaultConfig()
	cfg.Auth.JWTSecret = "test-secret"
	cfg.Auth.Username = "operator"
	cfg.Auth.PasswordHash = passwordHash

	reg := registry.New()
	require.NoError(t, nodes.Register(reg, nodes.Deps{Script: scripting.NewScriptEngine()}))

	rt := runtime.NewService(reg, engine.Options{}, storage.NewMemoryExecutionStore(), flow.Services{})
	return NewServer(cfg, rt, reg)
}

func doJSON(t *testing.T, handler http.Handler, method, path, token string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var body *bytes.Buffer
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewBuffer(data)
	} else {
		body = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func login(t *testing.T, s *Server) string {
	t.Helper()

	rec := doJSON(t, s.Handler(), http.MethodPost, "/api/v1/login", "",
		map[string]string{"username": "operator", "password": "correct-horse"})
	require.Equal(t, http.StatusOK, rec.Code)

	var out map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.NotEmpty(t, out["token"])
	return out["token"]
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s.Handler(), http.MethodGet, "/api/v1/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s.Handler(), http.MethodPost, "/api/v1/login", "",
		map[string]string{"username": "operator", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, s.Handler(), http.MethodPost, "/api/v1/login", "",
		map[string]string{"username": "intruder", "password": "correct-horse"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s.Handler(), http.MethodGet, "/api/v1/nodes", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, s.Handler(), http.MethodGet, "/api/v1/executions", "forged", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListNodes(t *testing.T) {
	s := newTestServer(t)
	token := login(t, s)

	rec := doJSON(t, s.Handler(), http.MethodGet, "/api/v1/nodes", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var listed []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.NotEmpty(t, listed)

	types := make(map[string]bool)
	for _, info := range listed {
		types[info["type"].(string)] = true
	}
	assert.True(t, types["trigger"])
	assert.True(t, types["merge"])
	assert.True(t, types["switch"])
}

func TestCreateAndFetchExecution(t *testing.T) {
	s := newTestServer(t)
	token := login(t, s)

	rec := doJSON(t, s.Handler(), http.MethodPost, "/api/v1/executions", token,
		map[string]interface{}{"workflow": testWorkflow})
	require.Equal(t, http.StatusAccepted, rec.Code)

	var created map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	executionID := created["execution_id"]
	require.NotEmpty(t, executionID)

	// Poll until the asynchronous run settles.
	deadline := time.Now().Add(5 * time.Second)
	var status engine.ExecutionStatus
	for {
		rec = doJSON(t, s.Handler(), http.MethodGet, "/api/v1/executions/"+executionID, token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
		if status.State != engine.RunRunning {
			break
		}
		require.True(t, time.Now().Before(deadline), "run never settled")
		time.Sleep(10 * time.Millisecond)
	}
	assert.Equal(t, engine.RunCompleted, status.State)
	assert.Equal(t, engine.NodeSucceeded, status.NodeStates["format"])

	rec = doJSON(t, s.Handler(), http.MethodGet, "/api/v1/executions/"+executionID+"/logs", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var logs []engine.LogEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &logs))
	assert.Len(t, logs, 2)

	rec = doJSON(t, s.Handler(), http.MethodGet, "/api/v1/executions", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var list []engine.ExecutionStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, executionID, list[0].ID)
}

func TestCreateExecutionRejectsBadWorkflow(t *testing.T) {
	s := newTestServer(t)
	token := login(t, s)

	rec := doJSON(t, s.Handler(), http.MethodPost, "/api/v1/executions", token,
		map[string]interface{}{"workflow": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, s.Handler(), http.MethodPost, "/api/v1/executions", token,
		map[string]interface{}{"workflow": "metadata: {name: x}"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestGetExecutionNotFound(t *testing.T) {
	s := newTestServer(t)
	token := login(t, s)

	rec := doJSON(t, s.Handler(), http.MethodGet, "/api/v1/executions/ghost", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, s.Handler(), http.MethodGet, "/api/v1/executions/ghost/logs", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCancelExecution(t *testing.T) {
	s := newTestServer(t)
	token := login(t, s)

	slowWorkflow := `
metadata:
  name: slow
nodes:
  - id: stall
    type: delay
    canBeStart: true
    config:
      duration: 30s
`
	rec := doJSON(t, s.Handler(), http.MethodPost, "/api/v1/executions", token,
		map[string]interface{}{"workflow": slowWorkflow})
	require.Equal(t, http.StatusAccepted, rec.Code)

	var created map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	executionID := created["execution_id"]

	time.Sleep(50 * time.Millisecond)
	rec = doJSON(t, s.Handler(), http.MethodDelete, "/api/v1/executions/"+executionID, token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Cancelling again conflicts once the run has stopped.
	deadline := time.Now().Add(5 * time.Second)
	for {
		rec = doJSON(t, s.Handler(), http.MethodDelete, "/api/v1/executions/"+executionID, token, nil)
		if rec.Code == http.StatusConflict {
			break
		}
		require.True(t, time.Now().Before(deadline), "cancelled run never settled")
		time.Sleep(10 * time.Millisecond)
	}
}
