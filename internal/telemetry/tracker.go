// Package telemetry sends interaction events to an external tracking sink.
package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Event names emitted around each pipeline run.
const (
	EventQuery    = "rag_query"
	EventResponse = "rag_response"
)

// Tracker records interaction events. Implementations must never block or
// fail the request path.
type Tracker interface {
	Track(event string, properties map[string]string)
	Close() error
}

// NopTracker discards all events.
type NopTracker struct{}

// Track discards the event.
func (NopTracker) Track(string, map[string]string) {}

// Close is a no-op.
func (NopTracker) Close() error { return nil }

// HTTPTracker posts events as JSON to an HTTP endpoint, one goroutine per
// event. Delivery failures are logged at debug level and dropped; tracking
// is observability, not bookkeeping.
type HTTPTracker struct {
	endpoint string
	apiKey   string
	client   *http.Client
	logger   *zap.Logger
	wg       sync.WaitGroup
}

// trackPayload is the wire format for one event.
type trackPayload struct {
	Event      string            `json:"event"`
	Properties map[string]string `json:"properties"`
	Timestamp  time.Time         `json:"timestamp"`
}

// NewHTTPTracker returns a tracker posting to endpoint. apiKey may be empty.
func NewHTTPTracker(endpoint, apiKey string, logger *zap.Logger) *HTTPTracker {
	return &HTTPTracker{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: 10 * time.Second},
		logger:   logger,
	}
}

// Track sends the event asynchronously and returns immediately.
func (t *HTTPTracker) Track(event string, properties map[string]string) {
	payload := trackPayload{
		Event:      event,
		Properties: properties,
		Timestamp:  time.Now().UTC(),
	}
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		t.send(payload)
	}()
}

func (t *HTTPTracker) send(payload trackPayload) {
	body, err := json.Marshal(payload)
	if err != nil {
		t.logger.Debug("telemetry marshal failed", zap.Error(err))
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		t.logger.Debug("telemetry request failed", zap.Error(err))
		return
	}
	req.Header.Set("Content-Type", "application/json")
	if t.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+t.apiKey)
	}
	resp, err := t.client.Do(req)
	if err != nil {
		t.logger.Debug("telemetry send failed", zap.Error(err))
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		t.logger.Debug("telemetry rejected", zap.Int("status", resp.StatusCode))
	}
}

// Close waits for in-flight events to finish sending.
func (t *HTTPTracker) Close() error {
	t.wg.Wait()
	return nil
}
