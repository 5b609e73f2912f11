package llm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/tikasheba/vaccine-ai/internal/log"
)

func TestToContents(t *testing.T) {
	msgs := []Message{
		{Role: RoleUser, Text: "How do I store BCG?"},
		{Role: RoleModel, ToolRequests: []ToolRequest{
			{Name: "search_vaccine_database", Args: map[string]any{"query": "BCG storage"}},
		}},
		{Role: RoleTool, ToolResults: []ToolResult{
			{Name: "search_vaccine_database", Content: "+2C to +8C"},
		}},
		{Role: RoleModel, Text: "Store it cold."},
	}

	contents, err := toContents(msgs)
	require.NoError(t, err)
	require.Len(t, contents, 4)

	assert.Equal(t, genai.RoleUser, contents[0].Role)
	assert.Equal(t, "How do I store BCG?", contents[0].Parts[0].Text)

	assert.Equal(t, genai.RoleModel, contents[1].Role)
	require.NotNil(t, contents[1].Parts[0].FunctionCall)
	assert.Equal(t, "search_vaccine_database", contents[1].Parts[0].FunctionCall.Name)
	assert.Equal(t, "BCG storage", contents[1].Parts[0].FunctionCall.Args["query"])

	// Tool results ride in a user-role content as function responses.
	assert.Equal(t, genai.RoleUser, contents[2].Role)
	require.NotNil(t, contents[2].Parts[0].FunctionResponse)
	assert.Equal(t, "search_vaccine_database", contents[2].Parts[0].FunctionResponse.Name)
	assert.Equal(t, "+2C to +8C", contents[2].Parts[0].FunctionResponse.Response["result"])

	assert.Equal(t, genai.RoleModel, contents[3].Role)
	assert.Equal(t, "Store it cold.", contents[3].Parts[0].Text)
}

func TestToContentsUnknownRole(t *testing.T) {
	_, err := toContents([]Message{{Role: Role("system"), Text: "x"}})
	assert.Error(t, err)
}

func TestToContentsModelMessageNeverEmpty(t *testing.T) {
	contents, err := toContents([]Message{{Role: RoleModel}})
	require.NoError(t, err)
	require.Len(t, contents, 1)
	require.NotEmpty(t, contents[0].Parts)
}

func TestNewGeminiValidation(t *testing.T) {
	_, err := NewGemini(nil, "gemini-2.5-flash", time.Second, log.NewNop())
	assert.Error(t, err)

	client := &genai.Client{}
	_, err = NewGemini(client, "", time.Second, log.NewNop())
	assert.Error(t, err)

	_, err = NewGemini(client, "gemini-2.5-flash", 0, log.NewNop())
	assert.Error(t, err)
}
