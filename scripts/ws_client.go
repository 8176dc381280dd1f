// Package main runs a demo WebSocket client for the route event stream.
package main

import (
	"bytes"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/gorilla/websocket"
)

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	base := fmt.Sprintf("http://localhost:%s", port)

	// Connect WS
	u := url.URL{Scheme: "ws", Host: "localhost:" + port, Path: "/v1/route/stream"}
	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatal("dial:", err)
	}
	defer func() { _ = c.Close() }()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var evt struct {
				Type string         `json:"type"`
				Data map[string]any `json:"data"`
			}
			if err := c.ReadJSON(&evt); err != nil {
				log.Printf("read: %v", err)
				return
			}
			log.Printf("WS <- %s: %v", evt.Type, evt.Data)
		}
	}()

	// Trigger events: report a hazard, then recompute the route.
	time.Sleep(500 * time.Millisecond)
	hr, _ := http.NewRequest(http.MethodPost, base+"/v1/hazards", bytes.NewReader([]byte(`{"lat":23.805,"lng":86.434,"note":"demo hazard"}`)))
	hr.Header.Set("Content-Type", "application/json")
	if tok := os.Getenv("AUTH_TOKEN"); tok != "" {
		hr.Header.Set("Authorization", "Bearer "+tok)
	}
	if resp, err := http.DefaultClient.Do(hr); err == nil {
		_ = resp.Body.Close()
	}
	if resp, err := http.Get(base + "/v1/route"); err == nil {
		_ = resp.Body.Close()
	}

	// Wait briefly to receive a few messages
	select {
	case <-time.After(2 * time.Second):
	case <-done:
	}
}
