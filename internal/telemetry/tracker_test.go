package telemetry

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"go.uber.org/zap"
)

func TestHTTPTracker_sendsEvents(t *testing.T) {
	var mu sync.Mutex
	var received []trackPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p trackPayload
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			t.Errorf("decode: %v", err)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer key" {
			t.Errorf("Authorization = %q", auth)
		}
		mu.Lock()
		received = append(received, p)
		mu.Unlock()
	}))
	defer srv.Close()

	tr := NewHTTPTracker(srv.URL, "key", zap.NewNop())
	tr.Track(EventQuery, map[string]string{"track_id": "t1", "rag_type": "traditional", "query": "q"})
	tr.Track(EventResponse, map[string]string{"track_id": "t1", "rag_type": "traditional", "response": "a"})
	if err := tr.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(received) != 2 {
		t.Fatalf("received %d events, want 2", len(received))
	}
	events := map[string]bool{}
	for _, p := range received {
		events[p.Event] = true
		if p.Properties["track_id"] != "t1" {
			t.Errorf("track_id = %q", p.Properties["track_id"])
		}
	}
	if !events[EventQuery] || !events[EventResponse] {
		t.Errorf("events: %v", events)
	}
}

func TestHTTPTracker_failureDoesNotPanic(t *testing.T) {
	tr := NewHTTPTracker("http://127.0.0.1:1", "", zap.NewNop())
	tr.Track(EventQuery, map[string]string{"track_id": "x"})
	if err := tr.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestNopTracker(t *testing.T) {
	var tr Tracker = NopTracker{}
	tr.Track(EventQuery, nil)
	if err := tr.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
