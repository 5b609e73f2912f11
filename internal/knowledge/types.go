// Package knowledge implements the retrieval subsystem: Gemini embeddings,
// a PostgreSQL + pgvector document store, nearest-neighbor search with
// result formatting, and the two-chunk vaccine ingestion policy.
package knowledge

import "errors"

// VectorDimension is the embedding dimensionality. The vaccine_documents
// schema declares vector(768); the embedder must match it.
const VectorDimension int32 = 768

// Topic labels for the two chunks stored per vaccine. Chunking is a fixed,
// caller-visible policy: every vaccine yields exactly these two records.
const (
	TopicDetails      = "Details"
	TopicPreservation = "Preservation"
)

var (
	// ErrUnavailable indicates the embedding service or the vector store
	// is unreachable or erroring.
	ErrUnavailable = errors.New("knowledge backend unavailable")

	// ErrTimeout indicates an embedding or vector-store call exceeded its
	// deadline.
	ErrTimeout = errors.New("knowledge call timed out")

	// ErrInvalidVaccine indicates required ingestion fields are missing.
	ErrInvalidVaccine = errors.New("invalid vaccine data")
)

// Vaccine is the ingestion input: one subject split into a details chunk
// and a preservation chunk.
type Vaccine struct {
	Name         string // subject name, e.g. "BCG" (required)
	FullName     string // e.g. "Bacille Calmette-Guérin" (optional)
	Category     string // e.g. "Government EPI (Mandatory)" (required)
	Details      string // free-text details (required)
	Preservation string // preservation guidelines (required)
}

// Record is one stored knowledge chunk. IDs are derived from the vaccine
// name, so re-storing the same vaccine overwrites rather than duplicates.
type Record struct {
	ID          string
	VaccineName string
	FullName    string
	Category    string
	Topic       string
	Content     string
	Embedding   []float32
}

// Hit is one search result: record metadata plus cosine similarity.
type Hit struct {
	VaccineName string
	FullName    string
	Category    string
	Topic       string
	Content     string
	Similarity  float32
}
