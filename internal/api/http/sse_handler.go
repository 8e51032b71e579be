package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/credflow/credflow/internal/domain/identity"
	"github.com/credflow/credflow/internal/domain/notification"
)

// sseEndpoint streams portal events from the shared SSE hub. Clients are
// subscribed to their own client channel; staff roles join the staff group
// and see every event.
func (s *Server) sseEndpoint(w http.ResponseWriter, r *http.Request) {
	id := s.identityFromRequest(r)

	connID := r.URL.Query().Get("connectionId")
	if connID == "" {
		connID = uuid.NewString()
	}

	var userID *string
	groups := []string{}
	if id.Role == identity.RoleClient {
		cid := id.ClientID
		userID = &cid
	} else {
		groups = append(groups, "staff")
	}

	client := notification.NewSSEClient(connID, userID, groups)
	s.sseHub.Register(client)
	defer s.sseHub.Unregister(connID)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "streaming not supported")
		return
	}
	_, _ = w.Write([]byte(": connected\n\n"))
	flusher.Flush()

	ctx := r.Context()
	for {
		select {
		case msg := <-client.MessageChan:
			if msg == nil {
				return
			}
			payload, _ := json.Marshal(msg)
			_, _ = w.Write([]byte("event: "))
			_, _ = w.Write([]byte(msg.Event))
			_, _ = w.Write([]byte("\ndata: "))
			_, _ = w.Write(payload)
			_, _ = w.Write([]byte("\n\n"))
			flusher.Flush()
		case <-ctx.Done():
			return
		}
	}
}
