package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{CheckOrigin: func(_ *http.Request) bool { return true }}

// rerouted computes the route against the current hazard registry for a
// stream push after a hazard change.
func (s *Server) rerouted(r *http.Request) (Event, error) {
	hazards, err := s.registryHazards(r)
	if err != nil {
		return Event{}, err
	}
	res, _, err := s.Service.ComputeRoute(r.Context(), hazards)
	if err != nil {
		return Event{}, err
	}
	return Event{Type: "route.updated", Data: map[string]any{
		"tour":              res.Tour,
		"totalDistance":     res.TotalDistance,
		"totalRisk":         res.TotalRisk,
		"totalCost":         res.TotalCost,
		"algorithm":         res.Algorithm,
		"contaminatedEdges": res.ContaminatedEdges,
	}}, nil
}

// StreamHandler handles GET /v1/route/stream: a WebSocket feed of hazard
// and route events. Clients receive one JSON Event per message.
func (s *Server) StreamHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer func() { _ = conn.Close() }()

	ch := s.Broker.Subscribe(topicEvents)
	defer s.Broker.Unsubscribe(topicEvents, ch)

	conn.SetReadLimit(1 << 16)
	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	// Drain client frames so pong handlers run and closes are noticed.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(20 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case evt, ok := <-ch:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteJSON(evt); err != nil {
				return
			}
			// Hazard changes invalidate the current route; push the
			// rerouted result so map clients stay current.
			if strings.HasPrefix(evt.Type, "hazard.") {
				if upd, err := s.rerouted(r); err == nil {
					_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
					if err := conn.WriteJSON(upd); err != nil {
						return
					}
				}
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
