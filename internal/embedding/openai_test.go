package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func embeddingServer(t *testing.T, calls *atomic.Int64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls != nil {
			calls.Add(1)
		}
		if r.URL.Path != "/embeddings" {
			http.NotFound(w, r)
			return
		}
		var req embeddingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		resp := map[string]any{"data": []map[string]any{}}
		data := resp["data"].([]map[string]any)
		for i := range req.Input {
			data = append(data, map[string]any{
				"embedding": []float64{float64(i) + 1, 0, 0},
				"index":     i,
			})
		}
		resp["data"] = data
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func TestOpenAIEmbedder_Embed(t *testing.T) {
	srv := embeddingServer(t, nil)
	defer srv.Close()

	e, err := NewOpenAIEmbedder(OpenAIConfig{APIKey: "test", BaseURL: srv.URL, Dimensions: 3})
	if err != nil {
		t.Fatalf("NewOpenAIEmbedder: %v", err)
	}
	emb, err := e.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(emb) != 3 || emb[0] != 1 {
		t.Errorf("got %v", emb)
	}
	if e.Dimensions() != 3 {
		t.Errorf("Dimensions=%d", e.Dimensions())
	}
}

func TestOpenAIEmbedder_cacheHitSkipsProvider(t *testing.T) {
	var calls atomic.Int64
	srv := embeddingServer(t, &calls)
	defer srv.Close()

	e, err := NewOpenAIEmbedder(OpenAIConfig{APIKey: "test", BaseURL: srv.URL, Dimensions: 3})
	if err != nil {
		t.Fatalf("NewOpenAIEmbedder: %v", err)
	}
	if _, err := e.Embed(context.Background(), "same text"); err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if _, err := e.Embed(context.Background(), "same text"); err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("provider called %d times, want 1", got)
	}
}

func TestOpenAIEmbedder_batchRequestsOnlyMisses(t *testing.T) {
	var calls atomic.Int64
	srv := embeddingServer(t, &calls)
	defer srv.Close()

	e, err := NewOpenAIEmbedder(OpenAIConfig{APIKey: "test", BaseURL: srv.URL, Dimensions: 3})
	if err != nil {
		t.Fatalf("NewOpenAIEmbedder: %v", err)
	}
	if _, err := e.Embed(context.Background(), "cached"); err != nil {
		t.Fatalf("Embed: %v", err)
	}
	out, err := e.EmbedBatch(context.Background(), []string{"cached", "fresh"})
	if err != nil {
		t.Fatalf("EmbedBatch: %v", err)
	}
	if len(out) != 2 || out[0] == nil || out[1] == nil {
		t.Fatalf("got %v", out)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("provider called %d times, want 2", got)
	}
}

func TestOpenAIEmbedder_apiError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	e, err := NewOpenAIEmbedder(OpenAIConfig{APIKey: "bad", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewOpenAIEmbedder: %v", err)
	}
	if _, err := e.Embed(context.Background(), "x"); err == nil {
		t.Error("expected error from provider")
	}
}

func TestNewOpenAIEmbedder_requiresKey(t *testing.T) {
	if _, err := NewOpenAIEmbedder(OpenAIConfig{}); err == nil {
		t.Error("expected error without API key")
	}
}

func TestMockEmbedder_deterministic(t *testing.T) {
	e := NewMockEmbedder(16)
	a, err := e.Embed(context.Background(), "text")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	b, _ := e.Embed(context.Background(), "text")
	c, _ := e.Embed(context.Background(), "other")
	if len(a) != 16 {
		t.Fatalf("len=%d", len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatal("same text produced different embeddings")
		}
	}
	same := true
	for i := range a {
		if a[i] != c[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("different texts produced identical embeddings")
	}
}
