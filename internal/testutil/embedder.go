package testutil

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"math"
	"sync"

	"github.com/tikasheba/vaccine-ai/internal/knowledge"
)

// MockEmbedder is a deterministic knowledge.Embedder.
//
// By default it derives a unit vector from SHA-256 of the text and the
// purpose tag (so document and query embeddings for the same text differ,
// matching the production contract). Explicit vectors can be registered
// for precise cosine-similarity control.
//
// Thread-safe for concurrent use.
type MockEmbedder struct {
	mu      sync.Mutex
	vectors map[string][]float32
	dim     int
	calls   int
}

// NewMockEmbedder creates a mock embedder producing dim-length vectors.
func NewMockEmbedder(dim int) *MockEmbedder {
	return &MockEmbedder{vectors: make(map[string][]float32), dim: dim}
}

// SetVector registers an explicit vector for a text, ignoring purpose.
func (e *MockEmbedder) SetVector(text string, vec []float32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.vectors[text] = vec
}

// Calls returns how many Embed invocations occurred.
func (e *MockEmbedder) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

// Embed returns a deterministic vector for text.
func (e *MockEmbedder) Embed(_ context.Context, text string, purpose knowledge.Purpose) ([]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++

	if vec, ok := e.vectors[text]; ok {
		return vec, nil
	}
	return hashVector(text+"\x00"+string(purpose), e.dim), nil
}

// hashVector expands a SHA-256 digest into a normalized dim-length vector.
func hashVector(seed string, dim int) []float32 {
	vec := make([]float32, dim)
	digest := sha256.Sum256([]byte(seed))

	var norm float64
	buf := digest[:]
	for i := range vec {
		if len(buf) < 4 {
			next := sha256.Sum256(buf)
			buf = next[:]
		}
		bits := binary.BigEndian.Uint32(buf[:4])
		buf = buf[4:]
		v := float64(bits)/float64(math.MaxUint32)*2 - 1
		vec[i] = float32(v)
		norm += v * v
	}

	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range vec {
			vec[i] = float32(float64(vec[i]) / norm)
		}
	}
	return vec
}
