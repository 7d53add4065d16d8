// Package main is the Kurabe CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/hyperjump/kurabe/internal/cli"
	"github.com/hyperjump/kurabe/internal/config"
	"github.com/hyperjump/kurabe/internal/embedding"
	"github.com/hyperjump/kurabe/internal/guardrail"
	"github.com/hyperjump/kurabe/internal/keyword"
	"github.com/hyperjump/kurabe/internal/llm"
	"github.com/hyperjump/kurabe/internal/server"
	"github.com/hyperjump/kurabe/internal/service"
	"github.com/hyperjump/kurabe/internal/store"
	"github.com/hyperjump/kurabe/internal/telemetry"
	"github.com/hyperjump/kurabe/internal/vector"
	"github.com/hyperjump/kurabe/internal/watcher"
	"github.com/hyperjump/kurabe/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/kurabe/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists
// it is used, so that "kurabe server" from the project dir uses the project's
// config. Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	// API keys commonly live in a local .env during development.
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "upload":
		runUpload()
	case "ask":
		runAsk()
	case "history":
		runHistory()
	case "search":
		runSearch()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("kurabe version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	svc := components.Service
	var watchSvc *watcher.Watcher
	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if len(cfg.Watch.Directories) > 0 {
		watchSvc = watcher.New(
			cfg.Watch.Directories,
			cfg.Watch.Extensions,
			cfg.Watch.RecursiveOrDefault(),
			func(path string) {
				if _, upErr := svc.UploadFile(context.Background(), path); upErr != nil {
					logger.Warn("watch ingest failed", zap.String("path", path), zap.Error(upErr))
				}
			},
			logger,
		)
		if err := watchSvc.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
		watchSvc.SyncExistingFiles()
	}

	srv := server.NewServer(svc, &cfg.Server, logger)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchCancel()
	if watchSvc != nil {
		watchSvc.Stop()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

func runUpload() {
	fs := flag.NewFlagSet("upload", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: kurabe upload [flags] <file>")
		os.Exit(1)
	}
	path := fs.Arg(0)
	content, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read file: %v\n", err)
		os.Exit(1)
	}

	result, err := uploadViaHTTP(*serverURL, filepath.Base(path), content)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Upload failed: %v\n", err)
		os.Exit(1)
	}
	if *outputFormat == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
		return
	}
	fmt.Printf("Uploaded %s: %d chunk(s) indexed\n", result.FileName, result.Chunks)
}

type uploadResult struct {
	FileName string `json:"file_name"`
	Chunks   int    `json:"chunks"`
	Status   string `json:"status"`
}

func uploadViaHTTP(serverURL, fileName string, content []byte) (*uploadResult, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", fileName)
	if err != nil {
		return nil, err
	}
	if _, err := fw.Write(content); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}
	resp, err := http.Post(serverURL+"/api/v1/documents", mw.FormDataContentType(), &body)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var result uploadResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &result, nil
}

// buildQuery joins all positional args with spaces so multi-word questions
// work the same with or without shell quoting.
func buildQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// askArgsReorder moves any flags (and their values) that appear after the
// query to the front of the slice so that flag.Parse() sees them. Go's flag
// package stops at the first non-flag argument.
func askArgsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

func runAsk() {
	askArgs := askArgsReorder(os.Args[2:])
	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	outputFormat := fs.String("output", "text", "output format: text (human-readable) or json (parseable)")
	_ = fs.Parse(askArgs)

	if fs.NArg() < 1 {
		fmt.Println("Usage: kurabe ask [flags] <question>")
		os.Exit(1)
	}
	query := buildQuery(fs.Args())
	if query == "" {
		fmt.Println("Usage: kurabe ask [flags] <question>")
		os.Exit(1)
	}
	format := cli.OutputText
	if *outputFormat == "json" {
		format = cli.OutputJSON
	}

	result, err := askViaHTTP(*serverURL, query)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ask failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteComparison(os.Stdout, result, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func askViaHTTP(serverURL, query string) (*cli.ComparisonView, error) {
	body, err := json.Marshal(map[string]string{"query": query})
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(serverURL+"/api/v1/ask", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var result cli.ComparisonView
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &result, nil
}

func runHistory() {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	ragType := fs.String("pipeline", "traditional", "pipeline: traditional or agentic")
	limit := fs.Int("limit", 0, "max turns to return (0 = server default)")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: kurabe history [flags] <query>")
		os.Exit(1)
	}
	query := buildQuery(fs.Args())

	u := fmt.Sprintf("%s/api/v1/history?rag_type=%s&query=%s&limit=%d",
		*serverURL, url.QueryEscape(*ragType), url.QueryEscape(query), *limit)
	resp, err := http.Get(u)
	if err != nil {
		fmt.Fprintf(os.Stderr, "History failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		fmt.Fprintf(os.Stderr, "History failed (%d): %s\n", resp.StatusCode, string(b))
		os.Exit(1)
	}
	var out struct {
		Turns []struct {
			Question  string    `json:"question"`
			Answer    string    `json:"answer"`
			Timestamp time.Time `json:"timestamp"`
		} `json:"turns"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		fmt.Fprintf(os.Stderr, "Parse failed: %v\n", err)
		os.Exit(1)
	}
	if len(out.Turns) == 0 {
		fmt.Println("No matching history.")
		return
	}
	for _, turn := range out.Turns {
		fmt.Printf("[%s]\nQ: %s\nA: %s\n\n",
			turn.Timestamp.Format(time.RFC3339), turn.Question, utils.TruncateWords(turn.Answer, 80))
	}
}

func runSearch() {
	searchArgs := askArgsReorder(os.Args[2:])
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	limit := fs.Int("limit", 10, "number of results")
	_ = fs.Parse(searchArgs)

	if fs.NArg() < 1 {
		fmt.Println("Usage: kurabe search [flags] <query>")
		os.Exit(1)
	}
	query := buildQuery(fs.Args())

	u := fmt.Sprintf("%s/api/v1/chunks/search?query=%s&limit=%d", *serverURL, url.QueryEscape(query), *limit)
	resp, err := http.Get(u)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		fmt.Fprintf(os.Stderr, "Search failed (%d): %s\n", resp.StatusCode, string(b))
		os.Exit(1)
	}
	var out struct {
		Results []struct {
			ID         string  `json:"id"`
			Text       string  `json:"text"`
			PageNumber int     `json:"page_number"`
			Score      float64 `json:"score"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		fmt.Fprintf(os.Stderr, "Parse failed: %v\n", err)
		os.Exit(1)
	}
	if len(out.Results) == 0 {
		fmt.Println("No matching chunks.")
		return
	}
	for _, res := range out.Results {
		fmt.Printf("Page %d | Score: %.4f | %s\n%s\n\n",
			res.PageNumber, res.Score, res.ID, utils.Truncate(utils.CollapseWhitespace(res.Text), 200))
	}
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	resp, err := http.Get(*serverURL + "/api/v1/status")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		fmt.Fprintf(os.Stderr, "Status failed (%d): %s\n", resp.StatusCode, string(b))
		os.Exit(1)
	}
	var status cli.StatusView
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		fmt.Fprintf(os.Stderr, "Parse failed: %v\n", err)
		os.Exit(1)
	}
	format := cli.OutputText
	if *outputFormat == "json" {
		format = cli.OutputJSON
	}
	if err := cli.WriteStatus(os.Stdout, &status, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

// Components holds initialized services.
type Components struct {
	Records  *store.RecordStore
	Keywords *keyword.BleveIndex
	Embedder embedding.Embedder
	Index    vector.Index
	Gen      llm.Generator
	Tracker  telemetry.Tracker
	Service  *service.Service
}

func (c *Components) Close() {
	if c.Tracker != nil {
		_ = c.Tracker.Close()
	}
	if c.Gen != nil {
		_ = c.Gen.Close()
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
	if c.Index != nil {
		_ = c.Index.Close()
	}
	if c.Keywords != nil {
		_ = c.Keywords.Close()
	}
	if c.Records != nil {
		_ = c.Records.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Storage.DatabasePath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	records, err := store.NewRecordStore(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize record store: %w", err)
	}

	embedder, err := embedding.New(cfg.Embedding, cfg.Provider)
	if err != nil {
		_ = records.Close()
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}

	index, err := vector.NewMemoryIndex(embedder.Dimensions())
	if err != nil {
		_ = embedder.Close()
		_ = records.Close()
		return nil, fmt.Errorf("failed to initialize vector index: %w", err)
	}

	keywords, err := keyword.NewBleveIndex(cfg.Storage.BleveIndexPath)
	if err != nil {
		_ = index.Close()
		_ = embedder.Close()
		_ = records.Close()
		return nil, fmt.Errorf("failed to initialize keyword index: %w", err)
	}

	st, err := store.New(embedder, index, keywords, records, logger)
	if err != nil {
		_ = keywords.Close()
		_ = index.Close()
		_ = embedder.Close()
		_ = records.Close()
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}

	gen, err := llm.NewOpenAIGenerator(llm.Config{
		APIKey:  os.Getenv(cfg.Provider.APIKeyEnv),
		BaseURL: cfg.Provider.BaseURL,
		Model:   cfg.Provider.ChatModel,
		Timeout: time.Duration(cfg.Provider.TimeoutSecs) * time.Second,
	})
	if err != nil {
		_ = keywords.Close()
		_ = index.Close()
		_ = embedder.Close()
		_ = records.Close()
		return nil, fmt.Errorf("failed to initialize generator: %w", err)
	}

	var tracker telemetry.Tracker = telemetry.NopTracker{}
	if cfg.Telemetry.Endpoint != "" {
		tracker = telemetry.NewHTTPTracker(cfg.Telemetry.Endpoint, os.Getenv(cfg.Telemetry.APIKeyEnv), logger)
	}

	guard := guardrail.New(logger)
	svc := service.New(st, gen, guard, tracker, cfg.RAG, logger)

	return &Components{
		Records:  records,
		Keywords: keywords,
		Embedder: embedder,
		Index:    index,
		Gen:      gen,
		Tracker:  tracker,
		Service:  svc,
	}, nil
}

func printUsage() {
	fmt.Println(`kurabe - Side-by-side traditional vs agentic RAG over a single document

Usage:
  kurabe server [flags]            Start the HTTP server
  kurabe upload [flags] <file>     Upload a document to a running server
  kurabe ask [flags] <question>    Ask both pipelines a question
  kurabe history [flags] <query>   Show relevant past turns for one pipeline
  kurabe search [flags] <query>    Keyword-search the stored chunks
  kurabe status [flags]            Show document and store status
  kurabe version                   Show version
  kurabe help                      Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/kurabe/config.yaml)
  --debug            Enable debug logging

Upload Flags:
  --server string    Server URL (default: http://localhost:8080)
  --output string    Output format: text or json (default: text)

Ask Flags:
  --server string    Server URL (default: http://localhost:8080)
  --output string    Output format: text or json (default: text)

History Flags:
  --server string    Server URL (default: http://localhost:8080)
  --pipeline string  Pipeline: traditional or agentic (default: traditional)
  --limit int        Max turns to return (default: server default)

Examples:
  kurabe server
  kurabe upload report.pdf
  kurabe ask "what were the Q3 results?"
  kurabe ask --output json what were the Q3 results?
  kurabe history --pipeline agentic revenue
  kurabe search revenue
  kurabe status --output json`)
}
