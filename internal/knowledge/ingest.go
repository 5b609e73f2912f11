package knowledge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Upserter is the write half of the store, as consumed by the Ingestor.
type Upserter interface {
	Upsert(ctx context.Context, records []Record) error
}

// Ingestor stores vaccine knowledge as two fixed chunks per vaccine.
type Ingestor struct {
	embedder Embedder
	store    Upserter
	logger   *slog.Logger
}

// NewIngestor creates an Ingestor.
func NewIngestor(embedder Embedder, store Upserter, logger *slog.Logger) (*Ingestor, error) {
	if embedder == nil {
		return nil, errors.New("embedder is required")
	}
	if store == nil {
		return nil, errors.New("store is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingestor{embedder: embedder, store: store, logger: logger}, nil
}

// ChunkIDs returns the two record ids derived from a vaccine name. The
// derivation is deterministic, so re-storing a vaccine upserts in place.
func ChunkIDs(name string) (detailsID, preservationID string) {
	base := strings.ToLower(name)
	return base + "_details", base + "_preservation"
}

// StoreVaccine embeds both chunks with document-purpose tagging and writes
// them atomically. It returns the created record ids in chunk order.
func (i *Ingestor) StoreVaccine(ctx context.Context, v Vaccine) ([]string, error) {
	if err := validateVaccine(v); err != nil {
		return nil, err
	}

	detailsID, preservationID := ChunkIDs(v.Name)

	detailsVec, err := i.embedder.Embed(ctx, fmt.Sprintf("%s Details: %s", v.Name, v.Details), PurposeDocument)
	if err != nil {
		return nil, fmt.Errorf("embedding details chunk: %w", err)
	}
	preservationVec, err := i.embedder.Embed(ctx, fmt.Sprintf("%s Preservation: %s", v.Name, v.Preservation), PurposeDocument)
	if err != nil {
		return nil, fmt.Errorf("embedding preservation chunk: %w", err)
	}

	records := []Record{
		{
			ID:          detailsID,
			VaccineName: v.Name,
			FullName:    v.FullName,
			Category:    v.Category,
			Topic:       TopicDetails,
			Content:     v.Details,
			Embedding:   detailsVec,
		},
		{
			ID:          preservationID,
			VaccineName: v.Name,
			FullName:    v.FullName,
			Category:    v.Category,
			Topic:       TopicPreservation,
			Content:     v.Preservation,
			Embedding:   preservationVec,
		},
	}

	// Both chunks in one transaction: a vaccine is never half-stored.
	if err := i.store.Upsert(ctx, records); err != nil {
		return nil, fmt.Errorf("upserting chunks: %w", err)
	}

	i.logger.Info("stored vaccine", "vaccine", v.Name, "ids", []string{detailsID, preservationID})
	return []string{detailsID, preservationID}, nil
}

func validateVaccine(v Vaccine) error {
	required := map[string]string{
		"vaccine_name":            v.Name,
		"category":                v.Category,
		"details":                 v.Details,
		"preservation_guidelines": v.Preservation,
	}
	for field, value := range required {
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("%w: %s is required", ErrInvalidVaccine, field)
		}
	}
	return nil
}
