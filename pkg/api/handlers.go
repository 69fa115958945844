package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/tcmartin/flowgraph/pkg/auth"
	"github.com/tcmartin/flowgraph/pkg/flow"
	"github.com/tcmartin/flowgraph/pkg/storage"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// loginRequest is the login payload.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// handleLogin verifies the operator credential and issues a token.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Username != s.config.Auth.Username ||
		auth.CheckPassword(s.config.Auth.PasswordHash, req.Password) != nil {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := s.tokens.GenerateToken(req.Username)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// nodeInfo is the listing shape of a registered node type.
type nodeInfo struct {
	Type       string               `json:"type"`
	Name       string               `json:"name"`
	Category   string               `json:"category"`
	Parameters []flow.ParameterSpec `json:"parameters,omitempty"`
}

// handleListNodes lists the registered node types in registration order.
func (s *Server) handleListNodes(w http.ResponseWriter, r *http.Request) {
	defs := s.registry.All()
	out := make([]nodeInfo, 0, len(defs))
	for _, def := range defs {
		out = append(out, nodeInfo{
			Type:       def.Type,
			Name:       def.Name,
			Category:   def.Category,
			Parameters: def.Parameters,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// createExecutionRequest submits a workflow document for execution.
type createExecutionRequest struct {
	// Workflow is the YAML workflow document
	Workflow string `json:"workflow"`

	// Input seeds the start nodes
	Input map[string]interface{} `json:"input,omitempty"`
}

// handleCreateExecution parses, validates and launches a workflow run.
func (s *Server) handleCreateExecution(w http.ResponseWriter, r *http.Request) {
	var req createExecutionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Workflow == "" {
		writeError(w, http.StatusBadRequest, "workflow document is required")
		return
	}

	graph, meta, err := s.loader.Parse([]byte(req.Workflow))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	executionID, err := s.runtime.Execute(graph, meta.Name, req.Input)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"execution_id": executionID})
}

// handleListExecutions lists known executions, newest first.
func (s *Server) handleListExecutions(w http.ResponseWriter, r *http.Request) {
	executions, err := s.runtime.ListExecutions()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, executions)
}

// handleGetExecution returns the status of one execution.
func (s *Server) handleGetExecution(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	status, err := s.runtime.GetStatus(id)
	if err == storage.ErrExecutionNotFound {
		writeError(w, http.StatusNotFound, "execution not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// handleCancelExecution raises the cancellation signal of a running execution.
func (s *Server) handleCancelExecution(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.runtime.Cancel(id); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelling"})
}

// handleGetLogs returns the recorded log entries of an execution.
func (s *Server) handleGetLogs(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if _, err := s.runtime.GetStatus(id); err == storage.ErrExecutionNotFound {
		writeError(w, http.StatusNotFound, "execution not found")
		return
	}
	logs, err := s.runtime.GetLogs(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, logs)
}
