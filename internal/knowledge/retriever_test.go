package knowledge_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tikasheba/vaccine-ai/internal/knowledge"
	"github.com/tikasheba/vaccine-ai/internal/log"
	"github.com/tikasheba/vaccine-ai/internal/testutil"
)

func seedIndex(t *testing.T, index *testutil.MemoryIndex, records ...knowledge.Record) {
	t.Helper()
	require.NoError(t, index.Upsert(context.Background(), records))
}

func TestRetrieverSearchFormatsHits(t *testing.T) {
	embedder := testutil.NewMockEmbedder(8)
	index := testutil.NewMemoryIndex()

	// Control similarity directly: the query vector matches the BCG
	// preservation chunk exactly and the OPV chunk partially.
	embedder.SetVector("BCG storage", []float32{1, 0, 0, 0, 0, 0, 0, 0})
	seedIndex(t, index,
		knowledge.Record{
			ID: "bcg_preservation", VaccineName: "BCG", Topic: knowledge.TopicPreservation,
			Content: "Store at +2C to +8C.", Embedding: []float32{1, 0, 0, 0, 0, 0, 0, 0},
		},
		knowledge.Record{
			ID: "opv_details", VaccineName: "OPV", Topic: knowledge.TopicDetails,
			Content: "Oral polio vaccine.", Embedding: []float32{0.5, 0.5, 0, 0, 0, 0, 0, 0},
		},
		knowledge.Record{
			ID: "hepb_details", VaccineName: "HepB", Topic: knowledge.TopicDetails,
			Content: "Hepatitis B vaccine.", Embedding: []float32{0, 0, 1, 0, 0, 0, 0, 0},
		},
	)

	retriever, err := knowledge.NewRetriever(embedder, index, 2, log.NewNop())
	require.NoError(t, err)

	out, err := retriever.Search(context.Background(), "BCG storage")
	require.NoError(t, err)

	blocks := strings.Split(out, "\n\n---\n\n")
	require.Len(t, blocks, 2, "topK must cap the result")
	assert.Equal(t, "SOURCE (Vaccine: BCG, Topic: Preservation):\nStore at +2C to +8C.", blocks[0])
	assert.Equal(t, "SOURCE (Vaccine: OPV, Topic: Details):\nOral polio vaccine.", blocks[1])
}

func TestRetrieverSearchEmptyStore(t *testing.T) {
	retriever, err := knowledge.NewRetriever(testutil.NewMockEmbedder(8), testutil.NewMemoryIndex(), 3, log.NewNop())
	require.NoError(t, err)

	out, err := retriever.Search(context.Background(), "anything")
	require.NoError(t, err)
	assert.Equal(t, knowledge.NoResultsSentinel, out)
}

func TestNewRetrieverValidation(t *testing.T) {
	embedder := testutil.NewMockEmbedder(8)
	index := testutil.NewMemoryIndex()

	_, err := knowledge.NewRetriever(nil, index, 3, log.NewNop())
	assert.Error(t, err)

	_, err = knowledge.NewRetriever(embedder, nil, 3, log.NewNop())
	assert.Error(t, err)

	_, err = knowledge.NewRetriever(embedder, index, 0, log.NewNop())
	assert.Error(t, err)
}
