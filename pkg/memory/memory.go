// Package memory implements the embedding-indexed persistent key/value
// store: a durable sqlite-backed table plus a hand-rolled cosine
// similarity scan for nearest-neighbor search.
package memory

import (
	"database/sql"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	_ "modernc.org/sqlite"
)

// Store is the backing key/value + embedding table.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS memory (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	embedding  BLOB,
	embed_dim  INTEGER NOT NULL DEFAULT 0,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);`

// Open creates or opens the sqlite-backed store at path, creating the
// table if absent.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage: open %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: create schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Store upserts key, replacing value and embedding; bumps updated_at.
// embedding may be nil; embed_dim is then stored as 0, otherwise as
// len(embedding).
func (s *Store) Store(key, value string, embedding []float32) bool {
	var blob []byte
	dim := 0
	if len(embedding) > 0 {
		blob = encodeEmbedding(embedding)
		dim = len(embedding)
	}

	now := time.Now().Unix()
	_, err := s.db.Exec(`
		INSERT INTO memory (key, value, embedding, embed_dim, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			embedding = excluded.embedding,
			embed_dim = excluded.embed_dim,
			updated_at = excluded.updated_at
	`, key, value, blob, dim, now, now)
	if err != nil {
		slog.Error("memory store write failed", "key", key, "error", err)
		return false
	}
	return true
}

// Get returns the value for key, or ("", false) if absent.
func (s *Store) Get(key string) (string, bool) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM memory WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false
	}
	if err != nil {
		slog.Error("memory store read failed", "key", key, "error", err)
		return "", false
	}
	return value, true
}

// Delete removes key, reporting whether a row was removed.
func (s *Store) Delete(key string) bool {
	res, err := s.db.Exec(`DELETE FROM memory WHERE key = ?`, key)
	if err != nil {
		slog.Error("memory store delete failed", "key", key, "error", err)
		return false
	}
	n, _ := res.RowsAffected()
	return n > 0
}

// Result is one ranked hit from Search.
type Result struct {
	Key   string
	Value string
	Score float64
}

// Search performs a full-table scan over rows whose stored embedding
// dimension equals dim, scoring each by cosine similarity to queryVec,
// and returns the top-k descending, ties broken by first-seen (row) order.
func (s *Store) Search(queryVec []float32, topK int) ([]Result, error) {
	dim := len(queryVec)
	rows, err := s.db.Query(`SELECT key, value, embedding FROM memory WHERE embed_dim = ? ORDER BY rowid ASC`, dim)
	if err != nil {
		return nil, fmt.Errorf("storage: search query: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var key, value string
		var blob []byte
		if err := rows.Scan(&key, &value, &blob); err != nil {
			return nil, fmt.Errorf("storage: search scan: %w", err)
		}
		if len(blob) != dim*4 {
			continue
		}
		vec := decodeEmbedding(blob)
		results = append(results, Result{Key: key, Value: value, Score: cosineSimilarity(queryVec, vec)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: search rows: %w", err)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if topK > 0 && len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// cosineSimilarity returns dot(a,b)/(||a||*||b||), or 0.0 if either norm
// is zero.
func cosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0.0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func encodeEmbedding(vec []float32) []byte {
	out := make([]byte, len(vec)*4)
	for i, v := range vec {
		bits := math.Float32bits(v)
		out[i*4+0] = byte(bits)
		out[i*4+1] = byte(bits >> 8)
		out[i*4+2] = byte(bits >> 16)
		out[i*4+3] = byte(bits >> 24)
	}
	return out
}

func decodeEmbedding(raw []byte) []float32 {
	out := make([]float32, len(raw)/4)
	for i := range out {
		bits := uint32(raw[i*4+0]) | uint32(raw[i*4+1])<<8 | uint32(raw[i*4+2])<<16 | uint32(raw[i*4+3])<<24
		out[i] = math.Float32frombits(bits)
	}
	return out
}
