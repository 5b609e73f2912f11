package knowledge_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tikasheba/vaccine-ai/internal/knowledge"
	"github.com/tikasheba/vaccine-ai/internal/log"
	"github.com/tikasheba/vaccine-ai/internal/testutil"
)

func validVaccine() knowledge.Vaccine {
	return knowledge.Vaccine{
		Name:         "BCG",
		FullName:     "Bacillus Calmette-Guerin",
		Category:     "mandatory",
		Details:      "Protects against tuberculosis.",
		Preservation: "Store at +2C to +8C away from light.",
	}
}

func TestChunkIDs(t *testing.T) {
	detailsID, preservationID := knowledge.ChunkIDs("BCG")
	assert.Equal(t, "bcg_details", detailsID)
	assert.Equal(t, "bcg_preservation", preservationID)
}

func TestStoreVaccineWritesTwoChunks(t *testing.T) {
	index := testutil.NewMemoryIndex()
	ingestor, err := knowledge.NewIngestor(testutil.NewMockEmbedder(8), index, log.NewNop())
	require.NoError(t, err)

	ids, err := ingestor.StoreVaccine(context.Background(), validVaccine())
	require.NoError(t, err)
	assert.Equal(t, []string{"bcg_details", "bcg_preservation"}, ids)
	assert.Equal(t, 2, index.Len())

	details, ok := index.Record("bcg_details")
	require.True(t, ok)
	assert.Equal(t, "BCG", details.VaccineName)
	assert.Equal(t, knowledge.TopicDetails, details.Topic)
	assert.Equal(t, "Protects against tuberculosis.", details.Content)
	assert.NotEmpty(t, details.Embedding)

	preservation, ok := index.Record("bcg_preservation")
	require.True(t, ok)
	assert.Equal(t, knowledge.TopicPreservation, preservation.Topic)
	assert.Equal(t, "Store at +2C to +8C away from light.", preservation.Content)
}

func TestStoreVaccineIsIdempotent(t *testing.T) {
	index := testutil.NewMemoryIndex()
	ingestor, err := knowledge.NewIngestor(testutil.NewMockEmbedder(8), index, log.NewNop())
	require.NoError(t, err)

	v := validVaccine()
	_, err = ingestor.StoreVaccine(context.Background(), v)
	require.NoError(t, err)

	// Re-storing the same vaccine replaces the records in place.
	v.Details = "Updated details."
	ids, err := ingestor.StoreVaccine(context.Background(), v)
	require.NoError(t, err)
	assert.Equal(t, []string{"bcg_details", "bcg_preservation"}, ids)
	assert.Equal(t, 2, index.Len())

	details, ok := index.Record("bcg_details")
	require.True(t, ok)
	assert.Equal(t, "Updated details.", details.Content)
}

func TestStoreVaccineValidation(t *testing.T) {
	ingestor, err := knowledge.NewIngestor(testutil.NewMockEmbedder(8), testutil.NewMemoryIndex(), log.NewNop())
	require.NoError(t, err)

	mutations := map[string]func(*knowledge.Vaccine){
		"missing name":         func(v *knowledge.Vaccine) { v.Name = "" },
		"blank name":           func(v *knowledge.Vaccine) { v.Name = "   " },
		"missing category":     func(v *knowledge.Vaccine) { v.Category = "" },
		"missing details":      func(v *knowledge.Vaccine) { v.Details = "" },
		"missing preservation": func(v *knowledge.Vaccine) { v.Preservation = "" },
	}

	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			v := validVaccine()
			mutate(&v)
			_, err := ingestor.StoreVaccine(context.Background(), v)
			assert.ErrorIs(t, err, knowledge.ErrInvalidVaccine)
		})
	}

	// FullName is optional.
	v := validVaccine()
	v.FullName = ""
	_, err = ingestor.StoreVaccine(context.Background(), v)
	assert.NoError(t, err)
}
