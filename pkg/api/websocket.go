package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// handleStreamLogs upgrades to a websocket and streams the execution's log
// entries as JSON messages until the run ends or the client disconnects.
func (s *Server) handleStreamLogs(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	logs, err := s.runtime.SubscribeToLogs(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "execution not found")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	// The subscription replays the recorded history before following live
	// entries, so each entry is written exactly once.
	for entry := range logs {
		if err := conn.WriteJSON(entry); err != nil {
			return
		}
	}

	_ = conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "run finished"))
}
