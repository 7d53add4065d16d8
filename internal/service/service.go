// Package service orchestrates document ingestion and side-by-side pipeline
// comparison over the unified store.
package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/kurabe/internal/chunker"
	"github.com/hyperjump/kurabe/internal/config"
	"github.com/hyperjump/kurabe/internal/extract"
	"github.com/hyperjump/kurabe/internal/guardrail"
	"github.com/hyperjump/kurabe/internal/llm"
	"github.com/hyperjump/kurabe/internal/models"
	"github.com/hyperjump/kurabe/internal/rag"
	"github.com/hyperjump/kurabe/internal/store"
	"github.com/hyperjump/kurabe/internal/telemetry"
)

// ErrNoDocument is returned by Ask before any document has been uploaded.
var ErrNoDocument = errors.New("no document uploaded")

// VariantResult is one pipeline's outcome for a query. Err is set when the
// pipeline failed; the other variant's result is unaffected.
type VariantResult struct {
	RAGType       models.RAGType    `json:"rag_type"`
	Answer        string            `json:"answer,omitempty"`
	Citations     []models.Citation `json:"citations,omitempty"`
	CitationsText string            `json:"citations_text,omitempty"`
	Err           error             `json:"-"`
}

// ComparisonResult holds both pipelines' outcomes for one query.
type ComparisonResult struct {
	Query       string         `json:"query"`
	Traditional *VariantResult `json:"traditional"`
	Agentic     *VariantResult `json:"agentic"`
}

// Service wires extraction, chunking, the store, the engines, validation,
// and telemetry into the two user-facing operations: Upload and Ask.
type Service struct {
	store     *store.Store
	extractor *extract.Extractor
	chunker   *chunker.Chunker
	gen       llm.Generator
	guard     *guardrail.Validator
	tracker   telemetry.Tracker
	logger    *zap.Logger

	retrieveTopK int
	historyTopK  int

	mu          sync.RWMutex
	currentFile string
}

// New builds a Service. The chunker is configured from ragCfg; engines are
// created per query.
func New(st *store.Store, gen llm.Generator, guard *guardrail.Validator, tracker telemetry.Tracker, ragCfg config.RAGConfig, logger *zap.Logger) *Service {
	return &Service{
		store:        st,
		extractor:    extract.NewExtractor(),
		chunker:      chunker.New(ragCfg.ChunkSize, ragCfg.ChunkOverlap),
		gen:          gen,
		guard:        guard,
		tracker:      tracker,
		logger:       logger,
		retrieveTopK: ragCfg.RetrieveTopK,
		historyTopK:  ragCfg.HistoryTopK,
	}
}

// Upload extracts, chunks, embeds, and stores a document, making it the
// current comparison target. Re-uploading the same file name replaces its
// chunks; conversation history is kept.
func (s *Service) Upload(ctx context.Context, fileName string, content []byte) (int, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	pages, err := s.extractor.Pages(content, ext)
	if err != nil {
		return 0, fmt.Errorf("extract %s: %w", fileName, err)
	}
	return s.ingestPages(ctx, fileName, pages)
}

// UploadFile ingests the document at path, named by its base name. Used by
// the inbox watcher, which hands over paths rather than raw bytes.
func (s *Service) UploadFile(ctx context.Context, path string) (int, error) {
	pages, err := s.extractor.ExtractFile(path)
	if err != nil {
		return 0, fmt.Errorf("extract %s: %w", path, err)
	}
	return s.ingestPages(ctx, filepath.Base(path), pages)
}

// ingestPages chunks and stores already-extracted pages.
func (s *Service) ingestPages(ctx context.Context, fileName string, pages []models.Page) (int, error) {
	chunks := s.chunker.Chunk(fileName, pages)
	if len(chunks) == 0 {
		return 0, fmt.Errorf("document %s contains no extractable text", fileName)
	}

	if err := s.store.RemoveDocument(ctx, fileName); err != nil {
		return 0, fmt.Errorf("replace document: %w", err)
	}
	if err := s.store.AddChunks(ctx, chunks); err != nil {
		return 0, fmt.Errorf("store chunks: %w", err)
	}

	s.mu.Lock()
	s.currentFile = fileName
	s.mu.Unlock()

	s.logger.Info("document ingested",
		zap.String("file", fileName),
		zap.Int("pages", len(pages)),
		zap.Int("chunks", len(chunks)))
	return len(chunks), nil
}

// CurrentFile returns the active document name, empty before any upload.
func (s *Service) CurrentFile() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentFile
}

// Ask runs both pipelines concurrently against the current document and
// returns both results. A failure in one pipeline never hides the other's
// answer; Ask itself only fails when no document is loaded.
func (s *Service) Ask(ctx context.Context, query string) (*ComparisonResult, error) {
	file := s.CurrentFile()
	if file == "" {
		return nil, ErrNoDocument
	}

	result := &ComparisonResult{Query: query}
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		result.Traditional = s.runVariant(ctx, query, file, models.RAGTraditional)
	}()
	go func() {
		defer wg.Done()
		result.Agentic = s.runVariant(ctx, query, file, models.RAGAgentic)
	}()
	wg.Wait()
	return result, nil
}

// runVariant executes one pipeline end to end: recall history, answer,
// validate, persist the turn, and emit telemetry correlated by track ID.
func (s *Service) runVariant(ctx context.Context, query, file string, ragType models.RAGType) *VariantResult {
	trackID := uuid.New().String()
	s.tracker.Track(telemetry.EventQuery, map[string]string{
		"track_id": trackID,
		"rag_type": string(ragType),
		"query":    query,
	})

	history, err := s.store.QueryHistory(ctx, query, ragType, s.historyTopK)
	if err != nil {
		return &VariantResult{RAGType: ragType, Err: fmt.Errorf("recall history: %w", err)}
	}

	engine := s.newEngine(ragType, file)
	resp, err := engine.Respond(ctx, query, history)
	if err != nil {
		s.logger.Warn("pipeline failed",
			zap.String("rag_type", string(ragType)),
			zap.String("track_id", trackID),
			zap.Error(err))
		// No conversation record for a failed turn; the history must only
		// contain answers that were actually produced.
		return &VariantResult{RAGType: ragType, Err: err}
	}

	validated := s.guard.Validate(resp.Answer)

	if err := s.store.AddConversation(ctx, query, validated, ragType); err != nil {
		// The user still gets the answer; only continuity degrades.
		s.logger.Warn("failed to store conversation turn",
			zap.String("rag_type", string(ragType)),
			zap.Error(err))
	}

	s.tracker.Track(telemetry.EventResponse, map[string]string{
		"track_id": trackID,
		"rag_type": string(ragType),
		"response": validated,
	})

	return &VariantResult{
		RAGType:       ragType,
		Answer:        validated,
		Citations:     resp.Citations,
		CitationsText: resp.CitationsText,
	}
}

func (s *Service) newEngine(ragType models.RAGType, file string) rag.Engine {
	retriever := s.store.Retriever(file)
	if ragType == models.RAGAgentic {
		return rag.NewAgenticEngine(s.gen, retriever, s.retrieveTopK)
	}
	return rag.NewTraditionalEngine(s.gen, retriever, s.retrieveTopK)
}

// History returns the stored turns of one pipeline relevant to query.
func (s *Service) History(ctx context.Context, query string, ragType models.RAGType, k int) ([]models.ConversationTurn, error) {
	if k <= 0 {
		k = s.historyTopK
	}
	return s.store.QueryHistory(ctx, query, ragType, k)
}

// SearchChunks runs a keyword search over the stored chunks.
func (s *Service) SearchChunks(ctx context.Context, query string, limit int) ([]store.ScoredChunk, error) {
	return s.store.KeywordSearch(ctx, query, limit)
}

// Status summarizes the store for health and CLI output.
type Status struct {
	CurrentFile   string `json:"current_file,omitempty"`
	Chunks        int    `json:"chunks"`
	Conversations int    `json:"conversations"`
	Model         string `json:"model"`
}

// Status returns current document and store counts.
func (s *Service) Status() Status {
	chunks, conversations := s.store.Counts()
	return Status{
		CurrentFile:   s.CurrentFile(),
		Chunks:        chunks,
		Conversations: conversations,
		Model:         s.gen.ModelName(),
	}
}
