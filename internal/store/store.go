package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/kurabe/internal/embedding"
	"github.com/hyperjump/kurabe/internal/keyword"
	"github.com/hyperjump/kurabe/internal/models"
	"github.com/hyperjump/kurabe/internal/vector"
)

// conversationTextFormat is the text embedded for a stored turn, so later
// similarity lookups match against both the question and the answer.
const conversationTextFormat = "Question: %s\nAnswer: %s"

// Store is the unified embedding store. One store holds both document chunks
// and per-pipeline conversation history; reads are partitioned by record type
// and RAG type at query time, never by storage location. Writes commit to
// SQLite first, then publish to the in-memory indexes, so a record is either
// durable and visible or neither.
type Store struct {
	embedder embedding.Embedder
	index    vector.Index
	keywords *keyword.BleveIndex
	records  *RecordStore
	logger   *zap.Logger

	mu   sync.RWMutex
	byID map[string]*models.Record

	// now is swappable for deterministic timestamps in tests.
	now func() time.Time
}

// ScoredChunk is a keyword search hit with its relevance score.
type ScoredChunk struct {
	models.DocumentChunk
	Score float64 `json:"score"`
}

// New builds a Store over the given components and rebuilds the vector index
// from the persisted records. The keyword index persists itself on disk, so
// only vectors need replaying.
func New(embedder embedding.Embedder, index vector.Index, keywords *keyword.BleveIndex, records *RecordStore, logger *zap.Logger) (*Store, error) {
	s := &Store{
		embedder: embedder,
		index:    index,
		keywords: keywords,
		records:  records,
		logger:   logger,
		byID:     make(map[string]*models.Record),
		now:      time.Now,
	}
	if err := s.loadFromDisk(context.Background()); err != nil {
		return nil, fmt.Errorf("rebuild indexes: %w", err)
	}
	return s, nil
}

func (s *Store) loadFromDisk(ctx context.Context) error {
	recs, err := s.records.ListAll(ctx)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		return nil
	}
	ids := make([]string, 0, len(recs))
	vectors := make([][]float32, 0, len(recs))
	for _, rec := range recs {
		if len(rec.Embedding) == 0 {
			s.logger.Warn("skipping record without embedding", zap.String("id", rec.ID))
			continue
		}
		s.byID[rec.ID] = rec
		ids = append(ids, rec.ID)
		vectors = append(vectors, rec.Embedding)
	}
	if err := s.index.Add(ctx, ids, vectors); err != nil {
		return err
	}
	s.logger.Info("rebuilt vector index from database", zap.Int("records", len(ids)))
	return nil
}

// AddChunks embeds and stores document chunks. The batch commits to SQLite
// before any chunk becomes searchable.
func (s *Store) AddChunks(ctx context.Context, chunks []models.DocumentChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Text
	}
	embeddings, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed chunks: %w", err)
	}

	now := s.now()
	recs := make([]*models.Record, len(chunks))
	for i, ch := range chunks {
		createdAt := ch.CreatedAt
		if createdAt.IsZero() {
			createdAt = now
		}
		recs[i] = &models.Record{
			ID:         ch.ID,
			Type:       models.RecordPDFChunk,
			Text:       ch.Text,
			Embedding:  embeddings[i],
			PageNumber: ch.PageNumber,
			FileName:   ch.FileName,
			CreatedAt:  createdAt,
		}
	}
	if err := s.records.BatchInsert(ctx, recs); err != nil {
		return err
	}
	return s.publish(ctx, recs)
}

// AddConversation embeds and stores one question/answer turn for the given
// pipeline. Timestamps come from the store clock so history ordering is
// consistent across both pipelines.
func (s *Store) AddConversation(ctx context.Context, question, answer string, ragType models.RAGType) error {
	text := fmt.Sprintf(conversationTextFormat, question, answer)
	emb, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return fmt.Errorf("embed conversation: %w", err)
	}
	rec := &models.Record{
		ID:        uuid.New().String(),
		Type:      models.RecordConversation,
		Text:      text,
		Embedding: emb,
		Question:  question,
		Answer:    answer,
		RAGType:   ragType,
		CreatedAt: s.now(),
	}
	if err := s.records.Insert(ctx, rec); err != nil {
		return err
	}
	return s.publish(ctx, []*models.Record{rec})
}

// publish makes committed records visible to searches. Chunk records also go
// into the keyword index.
func (s *Store) publish(ctx context.Context, recs []*models.Record) error {
	ids := make([]string, len(recs))
	vectors := make([][]float32, len(recs))
	for i, rec := range recs {
		ids[i] = rec.ID
		vectors[i] = rec.Embedding
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.index.Add(ctx, ids, vectors); err != nil {
		return fmt.Errorf("index vectors: %w", err)
	}
	for _, rec := range recs {
		s.byID[rec.ID] = rec
		if rec.Type == models.RecordPDFChunk && s.keywords != nil {
			chunk := chunkFromRecord(rec)
			if err := s.keywords.Index(ctx, rec.ID, &chunk); err != nil {
				s.logger.Warn("keyword indexing failed", zap.String("id", rec.ID), zap.Error(err))
			}
		}
	}
	return nil
}

// Retrieve returns the top-k chunks of fileName most similar to query, in
// retrieval order. Only chunk records participate; conversation records are
// excluded by the type filter regardless of similarity.
func (s *Store) Retrieve(ctx context.Context, query, fileName string, k int) ([]models.DocumentChunk, error) {
	queryEmb, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	results, err := s.index.Search(ctx, queryEmb, k, func(id string) bool {
		rec, ok := s.byID[id]
		return ok && rec.Type == models.RecordPDFChunk && rec.FileName == fileName
	})
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	chunks := make([]models.DocumentChunk, 0, len(results))
	for _, r := range results {
		if rec, ok := s.byID[r.ID]; ok {
			chunks = append(chunks, chunkFromRecord(rec))
		}
	}
	return chunks, nil
}

// QueryHistory returns up to k past turns of the given pipeline relevant to
// query, re-sorted ascending by timestamp. Similarity picks which turns
// surface; chronology decides how they read in a prompt.
func (s *Store) QueryHistory(ctx context.Context, query string, ragType models.RAGType, k int) ([]models.ConversationTurn, error) {
	queryEmb, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	results, err := s.index.Search(ctx, queryEmb, k, func(id string) bool {
		rec, ok := s.byID[id]
		return ok && rec.Type == models.RecordConversation && rec.RAGType == ragType
	})
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	turns := make([]models.ConversationTurn, 0, len(results))
	for _, r := range results {
		if rec, ok := s.byID[r.ID]; ok {
			turns = append(turns, models.ConversationTurn{
				Question:  rec.Question,
				Answer:    rec.Answer,
				Timestamp: rec.CreatedAt,
			})
		}
	}
	sort.Slice(turns, func(i, j int) bool { return turns[i].Timestamp.Before(turns[j].Timestamp) })
	return turns, nil
}

// KeywordSearch runs a literal term search over indexed chunks.
func (s *Store) KeywordSearch(ctx context.Context, query string, limit int) ([]ScoredChunk, error) {
	if s.keywords == nil {
		return nil, fmt.Errorf("keyword index not configured")
	}
	hits, err := s.keywords.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ScoredChunk, 0, len(hits))
	for _, hit := range hits {
		rec, ok := s.byID[hit.ID]
		if !ok || rec.Type != models.RecordPDFChunk {
			continue
		}
		out = append(out, ScoredChunk{DocumentChunk: chunkFromRecord(rec), Score: hit.Score})
	}
	return out, nil
}

// RemoveDocument deletes all chunk records of fileName from SQLite and both
// indexes. Conversation history is untouched.
func (s *Store) RemoveDocument(ctx context.Context, fileName string) error {
	ids, err := s.records.DeleteByFile(ctx, fileName)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.index.Remove(ctx, ids); err != nil {
		return fmt.Errorf("remove vectors: %w", err)
	}
	for _, id := range ids {
		delete(s.byID, id)
		if s.keywords != nil {
			if err := s.keywords.Delete(ctx, id); err != nil {
				s.logger.Warn("keyword delete failed", zap.String("id", id), zap.Error(err))
			}
		}
	}
	s.logger.Info("removed document", zap.String("file", fileName), zap.Int("chunks", len(ids)))
	return nil
}

// Counts returns the number of stored chunk and conversation records.
func (s *Store) Counts() (chunks, conversations int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, rec := range s.byID {
		switch rec.Type {
		case models.RecordPDFChunk:
			chunks++
		case models.RecordConversation:
			conversations++
		}
	}
	return chunks, conversations
}

// DocumentRetriever scopes retrieval to one uploaded document. Engines hold
// one of these instead of the whole store, so they can only ever read chunks
// of the document they were built for.
type DocumentRetriever struct {
	store    *Store
	fileName string
}

// Retriever returns a retriever bound to fileName.
func (s *Store) Retriever(fileName string) *DocumentRetriever {
	return &DocumentRetriever{store: s, fileName: fileName}
}

// Retrieve returns the top-k chunks of the bound document for query.
func (r *DocumentRetriever) Retrieve(ctx context.Context, query string, k int) ([]models.DocumentChunk, error) {
	return r.store.Retrieve(ctx, query, r.fileName, k)
}

// FileName returns the bound document name.
func (r *DocumentRetriever) FileName() string {
	return r.fileName
}

func chunkFromRecord(rec *models.Record) models.DocumentChunk {
	return models.DocumentChunk{
		ID:         rec.ID,
		Text:       rec.Text,
		PageNumber: rec.PageNumber,
		FileName:   rec.FileName,
		CreatedAt:  rec.CreatedAt,
	}
}
