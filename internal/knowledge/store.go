package knowledge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// upsertRecordSQL inserts one chunk or, because IDs are derived from the
// vaccine name, overwrites the previous content for the same chunk.
const upsertRecordSQL = `INSERT INTO vaccine_documents
	(id, vaccine_name, full_name, category, topic, content, embedding, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, now())
	ON CONFLICT (id) DO UPDATE SET
		vaccine_name = EXCLUDED.vaccine_name,
		full_name    = EXCLUDED.full_name,
		category     = EXCLUDED.category,
		topic        = EXCLUDED.topic,
		content      = EXCLUDED.content,
		embedding    = EXCLUDED.embedding,
		updated_at   = now()`

// searchSQL returns the nearest chunks by cosine distance. Similarity is
// 1 - distance so callers see descending-is-better scores.
const searchSQL = `SELECT vaccine_name, full_name, category, topic, content,
	1 - (embedding <=> $1) AS similarity
	FROM vaccine_documents
	ORDER BY embedding <=> $1
	LIMIT $2`

// Store manages vaccine knowledge chunks in PostgreSQL + pgvector.
//
// Store is safe for concurrent use by multiple goroutines.
type Store struct {
	pool    *pgxpool.Pool
	timeout time.Duration
	logger  *slog.Logger
}

// NewStore creates a Store. timeout bounds every vector query.
func NewStore(pool *pgxpool.Pool, timeout time.Duration, logger *slog.Logger) (*Store, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	if timeout <= 0 {
		return nil, errors.New("timeout must be positive")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{pool: pool, timeout: timeout, logger: logger}, nil
}

// Upsert writes all records in a single transaction: both chunks of a
// vaccine land together or not at all.
func (s *Store) Upsert(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	opCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	tx, err := s.pool.Begin(opCtx)
	if err != nil {
		return fmt.Errorf("%w: begin upsert: %v", ErrUnavailable, err)
	}
	defer func() { _ = tx.Rollback(opCtx) }()

	for _, r := range records {
		vec := pgvector.NewVector(r.Embedding)
		if _, err := tx.Exec(opCtx, upsertRecordSQL,
			r.ID, r.VaccineName, r.FullName, r.Category, r.Topic, r.Content, vec); err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return fmt.Errorf("%w: upsert %q after %s", ErrTimeout, r.ID, s.timeout)
			}
			return fmt.Errorf("%w: upsert %q: %v", ErrUnavailable, r.ID, err)
		}
	}

	if err := tx.Commit(opCtx); err != nil {
		return fmt.Errorf("%w: commit upsert: %v", ErrUnavailable, err)
	}

	s.logger.Debug("upserted records", "count", len(records))
	return nil
}

// Search returns the topK nearest records by cosine similarity, ordered by
// non-increasing score. An empty store yields an empty slice, not an error.
func (s *Store) Search(ctx context.Context, vector []float32, topK int) ([]Hit, error) {
	if topK < 1 {
		return nil, fmt.Errorf("topK must be positive, got %d", topK)
	}

	opCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rows, err := s.pool.Query(opCtx, searchSQL, pgvector.NewVector(vector), topK)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: vector search after %s", ErrTimeout, s.timeout)
		}
		return nil, fmt.Errorf("%w: vector search: %v", ErrUnavailable, err)
	}
	defer rows.Close()

	var hits []Hit
	for rows.Next() {
		var h Hit
		if err := rows.Scan(&h.VaccineName, &h.FullName, &h.Category, &h.Topic, &h.Content, &h.Similarity); err != nil {
			return nil, fmt.Errorf("%w: scanning hit: %v", ErrUnavailable, err)
		}
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: vector search after %s", ErrTimeout, s.timeout)
		}
		return nil, fmt.Errorf("%w: vector search: %v", ErrUnavailable, err)
	}

	return hits, nil
}
