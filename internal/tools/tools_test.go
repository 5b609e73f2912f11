package tools

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tikasheba/vaccine-ai/internal/log"
)

type stubSearcher struct {
	queries []string
	result  string
	err     error
}

func (s *stubSearcher) Search(_ context.Context, query string) (string, error) {
	s.queries = append(s.queries, query)
	return s.result, s.err
}

func TestRegistryLookup(t *testing.T) {
	tool, err := NewSearchTool(&stubSearcher{}, log.NewNop())
	require.NoError(t, err)

	registry := NewRegistry(tool)

	got, ok := registry.Lookup(SearchVaccineDatabaseName)
	require.True(t, ok)
	assert.Equal(t, tool, got)

	_, ok = registry.Lookup("does_not_exist")
	assert.False(t, ok)

	assert.Equal(t, []string{SearchVaccineDatabaseName}, registry.Names())
}

func TestRegistryDeclarations(t *testing.T) {
	tool, err := NewSearchTool(&stubSearcher{}, log.NewNop())
	require.NoError(t, err)

	registry := NewRegistry(tool)

	decls := registry.Declarations([]string{SearchVaccineDatabaseName, "unknown"})
	require.Len(t, decls, 1, "unknown names are skipped")
	assert.Equal(t, SearchVaccineDatabaseName, decls[0].Name)

	assert.Empty(t, registry.Declarations(nil))
}

func TestSearchToolDeclaration(t *testing.T) {
	tool, err := NewSearchTool(&stubSearcher{}, log.NewNop())
	require.NoError(t, err)

	decl := tool.Declaration()
	assert.Equal(t, SearchVaccineDatabaseName, decl.Name)
	assert.NotEmpty(t, decl.Description)
	require.NotNil(t, decl.Parameters)
	assert.Contains(t, decl.Parameters.Properties, "query")
	assert.Equal(t, []string{"query"}, decl.Parameters.Required)
}

func TestSearchToolRun(t *testing.T) {
	searcher := &stubSearcher{result: "SOURCE (Vaccine: BCG, Topic: Details):\ninfo"}
	tool, err := NewSearchTool(searcher, log.NewNop())
	require.NoError(t, err)

	out, err := tool.Run(context.Background(), map[string]any{"query": "BCG"})
	require.NoError(t, err)
	assert.Equal(t, searcher.result, out)
	assert.Equal(t, []string{"BCG"}, searcher.queries)
}

func TestSearchToolRunFallbackArgument(t *testing.T) {
	searcher := &stubSearcher{result: "ok"}
	tool, err := NewSearchTool(searcher, log.NewNop())
	require.NoError(t, err)

	// A mislabeled argument still works as long as it is a string.
	_, err = tool.Run(context.Background(), map[string]any{"q": "OPV schedule"})
	require.NoError(t, err)
	assert.Equal(t, []string{"OPV schedule"}, searcher.queries)
}

func TestSearchToolRunMissingQuery(t *testing.T) {
	tool, err := NewSearchTool(&stubSearcher{}, log.NewNop())
	require.NoError(t, err)

	_, err = tool.Run(context.Background(), map[string]any{})
	assert.Error(t, err)

	_, err = tool.Run(context.Background(), map[string]any{"query": 42})
	assert.Error(t, err)
}

func TestSearchToolRunPropagatesError(t *testing.T) {
	wantErr := errors.New("store down")
	tool, err := NewSearchTool(&stubSearcher{err: wantErr}, log.NewNop())
	require.NoError(t, err)

	_, err = tool.Run(context.Background(), map[string]any{"query": "x"})
	assert.ErrorIs(t, err, wantErr)
}

func TestSearchToolExposesRetrieverSentinel(t *testing.T) {
	searcher := &stubSearcher{result: "No relevant vaccine information found in the database."}
	tool, err := NewSearchTool(searcher, log.NewNop())
	require.NoError(t, err)

	out, err := tool.Run(context.Background(), map[string]any{"query": "unrelated"})
	require.NoError(t, err)
	assert.Equal(t, searcher.result, out)
}
