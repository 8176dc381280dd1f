// Package notify delivers hazard lifecycle events to configured webhook
// endpoints with HMAC signatures and retry/backoff.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"saferoute/internal/metrics"
)

// Endpoint is a delivery target. An empty Events list subscribes to all
// event types.
type Endpoint struct {
	URL    string
	Secret string
	Events []string
}

type delivery struct {
	Endpoint    Endpoint
	EventType   string
	Payload     []byte
	Attempts    int
	NextAttempt time.Time
}

// Notifier queues events and delivers them from a background worker.
type Notifier struct {
	Endpoints   []Endpoint
	HTTP        *http.Client
	MaxAttempts int

	mu    sync.Mutex
	queue []delivery
	stop  chan struct{}
	once  sync.Once
}

func New(endpoints []Endpoint, maxAttempts int) *Notifier {
	if maxAttempts <= 0 {
		maxAttempts = 8
	}
	return &Notifier{
		Endpoints:   endpoints,
		HTTP:        &http.Client{Timeout: 5 * time.Second},
		MaxAttempts: maxAttempts,
		stop:        make(chan struct{}),
	}
}

// Emit enqueues one delivery per endpoint subscribed to eventType. It never
// blocks on network I/O.
func (n *Notifier) Emit(eventType string, data any) {
	if len(n.Endpoints) == 0 {
		return
	}
	payload, err := json.Marshal(map[string]any{
		"id":   fmt.Sprintf("evt_%d", time.Now().UnixNano()),
		"type": eventType,
		"ts":   time.Now().UTC().Format(time.RFC3339),
		"data": data,
	})
	if err != nil {
		return
	}
	n.mu.Lock()
	for _, ep := range n.Endpoints {
		if !subscribed(ep, eventType) {
			continue
		}
		n.queue = append(n.queue, delivery{Endpoint: ep, EventType: eventType, Payload: payload, NextAttempt: time.Now()})
	}
	n.mu.Unlock()
}

func subscribed(ep Endpoint, eventType string) bool {
	if len(ep.Events) == 0 {
		return true
	}
	for _, e := range ep.Events {
		if e == eventType {
			return true
		}
	}
	return false
}

// Start launches the delivery loop.
func (n *Notifier) Start() {
	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-n.stop:
				return
			case <-ticker.C:
				n.ProcessOnce(context.Background())
			}
		}
	}()
}

func (n *Notifier) Stop() { n.once.Do(func() { close(n.stop) }) }

// ProcessOnce attempts every due delivery once. Failed deliveries are
// requeued with exponential backoff until MaxAttempts.
func (n *Notifier) ProcessOnce(ctx context.Context) {
	now := time.Now()
	n.mu.Lock()
	var due, pending []delivery
	for _, d := range n.queue {
		if d.NextAttempt.After(now) {
			pending = append(pending, d)
		} else {
			due = append(due, d)
		}
	}
	n.queue = pending
	n.mu.Unlock()

	for _, d := range due {
		if n.deliver(ctx, d) {
			metrics.WebhookDeliveries.WithLabelValues(d.EventType, "delivered").Inc()
			continue
		}
		d.Attempts++
		if d.Attempts >= n.MaxAttempts {
			metrics.WebhookDeliveries.WithLabelValues(d.EventType, "failed").Inc()
			continue
		}
		metrics.WebhookDeliveries.WithLabelValues(d.EventType, "retry").Inc()
		d.NextAttempt = time.Now().Add(backoff(d.Attempts))
		n.mu.Lock()
		n.queue = append(n.queue, d)
		n.mu.Unlock()
	}
}

func (n *Notifier) deliver(ctx context.Context, d delivery) bool {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.Endpoint.URL, bytes.NewReader(d.Payload))
	if err != nil {
		return false
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Event-Type", d.EventType)
	if d.Endpoint.Secret != "" {
		req.Header.Set("X-Signature", SignHMAC(d.Endpoint.Secret, d.Payload))
	}
	resp, err := n.HTTP.Do(req)
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

func backoff(attempts int) time.Duration {
	if attempts > 10 {
		attempts = 10
	}
	d := time.Second * time.Duration(1<<attempts)
	if d > time.Hour {
		d = time.Hour
	}
	return d
}

// QueueLen reports the number of pending deliveries.
func (n *Notifier) QueueLen() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.queue)
}
