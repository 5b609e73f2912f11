package testutil

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/tikasheba/vaccine-ai/internal/knowledge"
)

// MemoryIndex is an in-memory vector index implementing both
// knowledge.Searcher and knowledge.Upserter. Search ranks by cosine
// similarity, like the pgvector store it stands in for.
//
// Thread-safe for concurrent use.
type MemoryIndex struct {
	mu      sync.Mutex
	records map[string]knowledge.Record
}

// NewMemoryIndex creates an empty index.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{records: make(map[string]knowledge.Record)}
}

// Upsert stores records keyed by id, overwriting existing ones.
func (m *MemoryIndex) Upsert(_ context.Context, records []knowledge.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range records {
		m.records[r.ID] = r
	}
	return nil
}

// Len returns the number of stored records.
func (m *MemoryIndex) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

// Record returns the stored record for id, if any.
func (m *MemoryIndex) Record(id string) (knowledge.Record, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[id]
	return r, ok
}

// Search returns the topK nearest records by cosine similarity in
// non-increasing order.
func (m *MemoryIndex) Search(_ context.Context, vector []float32, topK int) ([]knowledge.Hit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	hits := make([]knowledge.Hit, 0, len(m.records))
	for _, r := range m.records {
		hits = append(hits, knowledge.Hit{
			VaccineName: r.VaccineName,
			FullName:    r.FullName,
			Category:    r.Category,
			Topic:       r.Topic,
			Content:     r.Content,
			Similarity:  cosine(vector, r.Embedding),
		})
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Similarity > hits[j].Similarity })
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

// cosine computes cosine similarity between two vectors.
func cosine(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}
