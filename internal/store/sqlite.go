// Package store provides the unified record store: SQLite persistence plus
// in-memory vector and keyword indexes over document chunks and conversation
// history.
package store

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/kurabe/internal/models"
)

// RecordStore persists records to SQLite. It is the durable source of truth;
// the in-memory indexes are rebuilt from it at startup.
type RecordStore struct {
	db *sql.DB
}

// NewRecordStore opens or creates a SQLite database at dbPath and initializes
// the schema. Parent directories are created if they do not exist.
func NewRecordStore(dbPath string) (*RecordStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &RecordStore{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS records (
		id TEXT PRIMARY KEY,
		type TEXT NOT NULL,
		text TEXT NOT NULL,
		embedding BLOB,
		page_number INTEGER,
		file_name TEXT,
		question TEXT,
		answer TEXT,
		rag_type TEXT,
		created_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_records_type ON records(type);
	CREATE INDEX IF NOT EXISTS idx_records_file_name ON records(file_name);
	CREATE INDEX IF NOT EXISTS idx_records_type_rag ON records(type, rag_type);
	`
	_, err := db.Exec(schema)
	return err
}

// Insert persists one record. The record is validated first so malformed
// type tags never reach disk.
func (s *RecordStore) Insert(ctx context.Context, rec *models.Record) error {
	if err := rec.Validate(); err != nil {
		return fmt.Errorf("invalid record: %w", err)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO records (id, type, text, embedding, page_number, file_name, question, answer, rag_type, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, string(rec.Type), rec.Text, encodeEmbedding(rec.Embedding),
		rec.PageNumber, rec.FileName, rec.Question, rec.Answer, string(rec.RAGType), rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

// BatchInsert persists records in a single transaction: either the whole
// batch lands or none of it does.
func (s *RecordStore) BatchInsert(ctx context.Context, recs []*models.Record) error {
	for _, rec := range recs {
		if err := rec.Validate(); err != nil {
			return fmt.Errorf("invalid record: %w", err)
		}
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO records (id, type, text, embedding, page_number, file_name, question, answer, rag_type, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()
	for _, rec := range recs {
		if _, err := stmt.ExecContext(ctx,
			rec.ID, string(rec.Type), rec.Text, encodeEmbedding(rec.Embedding),
			rec.PageNumber, rec.FileName, rec.Question, rec.Answer, string(rec.RAGType), rec.CreatedAt,
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert record %s: %w", rec.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	return nil
}

// ListAll returns every persisted record, oldest first.
func (s *RecordStore) ListAll(ctx context.Context) ([]*models.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, type, text, embedding, page_number, file_name, question, answer, rag_type, created_at
		 FROM records ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var recs []*models.Record
	for rows.Next() {
		var rec models.Record
		var typ, ragType string
		var emb []byte
		if err := rows.Scan(&rec.ID, &typ, &rec.Text, &emb, &rec.PageNumber,
			&rec.FileName, &rec.Question, &rec.Answer, &ragType, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		rec.Type = models.RecordType(typ)
		rec.RAGType = models.RAGType(ragType)
		rec.Embedding = decodeEmbedding(emb)
		recs = append(recs, &rec)
	}
	return recs, rows.Err()
}

// DeleteByFile removes all chunk records for fileName and returns their IDs
// so in-memory indexes can drop the same entries.
func (s *RecordStore) DeleteByFile(ctx context.Context, fileName string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM records WHERE type = ? AND file_name = ?`,
		string(models.RecordPDFChunk), fileName)
	if err != nil {
		return nil, fmt.Errorf("select chunk ids: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan chunk id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM records WHERE type = ? AND file_name = ?`,
		string(models.RecordPDFChunk), fileName); err != nil {
		return nil, fmt.Errorf("delete chunks: %w", err)
	}
	return ids, nil
}

// CountByType returns the number of records per record type.
func (s *RecordStore) CountByType(ctx context.Context) (map[models.RecordType]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT type, COUNT(*) FROM records GROUP BY type`)
	if err != nil {
		return nil, fmt.Errorf("count records: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.RecordType]int)
	for rows.Next() {
		var typ string
		var n int
		if err := rows.Scan(&typ, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[models.RecordType(typ)] = n
	}
	return counts, rows.Err()
}

// Close closes the database.
func (s *RecordStore) Close() error {
	return s.db.Close()
}

// encodeEmbedding packs a float32 slice as little-endian bytes.
func encodeEmbedding(emb []float32) []byte {
	if len(emb) == 0 {
		return nil
	}
	buf := make([]byte, len(emb)*4)
	for i, v := range emb {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// decodeEmbedding unpacks little-endian bytes into a float32 slice.
func decodeEmbedding(buf []byte) []float32 {
	if len(buf) == 0 {
		return nil
	}
	emb := make([]float32, len(buf)/4)
	for i := range emb {
		emb[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return emb
}
