package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"google.golang.org/genai"

	"github.com/tikasheba/vaccine-ai/internal/llm"
)

// SearchVaccineDatabaseName is the tool name declared to the model.
const SearchVaccineDatabaseName = "search_vaccine_database"

// searchDescription tells the model when to reach for the knowledge base.
const searchDescription = "Query the Bangladesh vaccine database for factual details. " +
	"Use this tool WHENEVER the user asks about vaccine names, storage, " +
	"schedules, or side effects. The query should be a specific search " +
	"string, e.g. 'BCG storage temperature'."

// VaccineSearcher is the retrieval capability wrapped by the search tool.
// Satisfied by *knowledge.Retriever.
type VaccineSearcher interface {
	Search(ctx context.Context, query string) (string, error)
}

// SearchTool exposes the Retriever as a model-callable tool.
type SearchTool struct {
	searcher VaccineSearcher
	logger   *slog.Logger
}

// NewSearchTool creates the search_vaccine_database tool.
func NewSearchTool(searcher VaccineSearcher, logger *slog.Logger) (*SearchTool, error) {
	if searcher == nil {
		return nil, errors.New("searcher is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SearchTool{searcher: searcher, logger: logger}, nil
}

// Name implements Tool.
func (*SearchTool) Name() string { return SearchVaccineDatabaseName }

// Declaration implements Tool.
func (*SearchTool) Declaration() llm.ToolDecl {
	return llm.ToolDecl{
		Name:        SearchVaccineDatabaseName,
		Description: searchDescription,
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"query": {
					Type:        genai.TypeString,
					Description: "The specific search query, e.g. 'BCG storage temperature'",
				},
			},
			Required: []string{"query"},
		},
	}
}

// Run implements Tool. The query is taken from the "query" argument or,
// when the model mislabels it, from the first string argument.
func (t *SearchTool) Run(ctx context.Context, args map[string]any) (string, error) {
	query := extractQuery(args)
	if query == "" {
		return "", fmt.Errorf("missing query argument")
	}

	t.logger.Debug("searching vaccine database", "query", query)
	return t.searcher.Search(ctx, query)
}

func extractQuery(args map[string]any) string {
	if q, ok := args["query"].(string); ok && q != "" {
		return q
	}
	for _, v := range args {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return ""
}
