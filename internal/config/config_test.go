package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
debug: true
server:
  host: 0.0.0.0
  port: 9090
storage:
  database_path: ./data/records.db
rag:
  chunk_size: 500
  chunk_overlap: 100
`
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Debug {
		t.Error("debug should be true")
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("port: got %d", cfg.Server.Port)
	}
	if cfg.RAG.ChunkSize != 500 || cfg.RAG.ChunkOverlap != 100 {
		t.Errorf("rag config: got %d/%d", cfg.RAG.ChunkSize, cfg.RAG.ChunkOverlap)
	}
	// "./" paths expand relative to the config dir.
	if cfg.Storage.DatabasePath != filepath.Join(dir, "data/records.db") {
		t.Errorf("database path not expanded: %s", cfg.Storage.DatabasePath)
	}
	// Unset values get defaults.
	if cfg.RAG.RetrieveTopK != 3 || cfg.RAG.HistoryTopK != 5 {
		t.Errorf("top-k defaults: got %d/%d", cfg.RAG.RetrieveTopK, cfg.RAG.HistoryTopK)
	}
	if cfg.Provider.ChatModel == "" {
		t.Error("chat model default missing")
	}
}

func TestLoad_Missing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("missing config file should be an error")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.RAG.ChunkSize != 1000 || cfg.RAG.ChunkOverlap != 200 {
		t.Errorf("chunk defaults: got %d/%d", cfg.RAG.ChunkSize, cfg.RAG.ChunkOverlap)
	}
	if cfg.Embedding.Backend != "openai" || cfg.Embedding.Dimensions != 1536 {
		t.Errorf("embedding defaults: got %s/%d", cfg.Embedding.Backend, cfg.Embedding.Dimensions)
	}

	onnx := &Config{Embedding: EmbeddingConfig{Backend: "onnx"}}
	ApplyDefaults(onnx)
	if onnx.Embedding.Dimensions != 384 {
		t.Errorf("onnx dimensions default: got %d", onnx.Embedding.Dimensions)
	}
}

func TestWatchRecursiveDefault(t *testing.T) {
	w := &WatchConfig{}
	if !w.RecursiveOrDefault() {
		t.Error("recursive should default to true")
	}
	f := false
	w.Recursive = &f
	if w.RecursiveOrDefault() {
		t.Error("explicit false should be honored")
	}
}
