package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/genai"
)

// Gemini is the production Client backed by the Gemini API.
//
// Gemini is stateless apart from the underlying SDK client and is safe for
// concurrent use.
type Gemini struct {
	client  *genai.Client
	model   string
	timeout time.Duration
	logger  *slog.Logger
}

// NewClient creates the underlying Gemini SDK client. It is constructed
// once at process start and shared by the generation client and the
// embedder.
func NewClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	if apiKey == "" {
		return nil, errors.New("api key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating Gemini client: %w", err)
	}
	return client, nil
}

// NewGemini creates a generation Client on top of an SDK client.
// timeout bounds every Generate call; it must be positive.
func NewGemini(client *genai.Client, model string, timeout time.Duration, logger *slog.Logger) (*Gemini, error) {
	if client == nil {
		return nil, errors.New("genai client is required")
	}
	if model == "" {
		return nil, errors.New("model name is required")
	}
	if timeout <= 0 {
		return nil, errors.New("timeout must be positive")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Gemini{
		client:  client,
		model:   model,
		timeout: timeout,
		logger:  logger,
	}, nil
}

// Generate sends the request to Gemini and returns the model's text and
// any tool requests it emitted.
func (g *Gemini) Generate(ctx context.Context, req *Request) (*Response, error) {
	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	contents, err := toContents(req.Messages)
	if err != nil {
		return nil, err
	}

	cfg := &genai.GenerateContentConfig{}
	if req.SystemInstruction != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.SystemInstruction, genai.RoleUser)
	}
	if len(req.Tools) > 0 {
		decls := make([]*genai.FunctionDeclaration, 0, len(req.Tools))
		for _, t := range req.Tools {
			decls = append(decls, &genai.FunctionDeclaration{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			})
		}
		cfg.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	}

	resp, err := g.client.Models.GenerateContent(callCtx, g.model, contents, cfg)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: after %s", ErrTimeout, g.timeout)
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	out := &Response{Text: resp.Text()}
	for _, fc := range resp.FunctionCalls() {
		out.ToolRequests = append(out.ToolRequests, ToolRequest{
			Name: fc.Name,
			Args: fc.Args,
		})
	}

	g.logger.Debug("gemini generate",
		"model", g.model,
		"messages", len(req.Messages),
		"tool_requests", len(out.ToolRequests),
		"text_len", len(out.Text),
	)
	return out, nil
}

// toContents translates the engine's message sequence into Gemini contents.
// Tool results ride in user-role contents as function responses, matching
// the Gemini function-calling protocol.
func toContents(msgs []Message) ([]*genai.Content, error) {
	contents := make([]*genai.Content, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case RoleUser:
			contents = append(contents, genai.NewContentFromText(m.Text, genai.RoleUser))

		case RoleModel:
			var parts []*genai.Part
			if m.Text != "" {
				parts = append(parts, genai.NewPartFromText(m.Text))
			}
			for _, tr := range m.ToolRequests {
				parts = append(parts, &genai.Part{
					FunctionCall: &genai.FunctionCall{Name: tr.Name, Args: tr.Args},
				})
			}
			if len(parts) == 0 {
				parts = append(parts, genai.NewPartFromText(""))
			}
			contents = append(contents, genai.NewContentFromParts(parts, genai.RoleModel))

		case RoleTool:
			parts := make([]*genai.Part, 0, len(m.ToolResults))
			for _, tr := range m.ToolResults {
				parts = append(parts, genai.NewPartFromFunctionResponse(tr.Name, map[string]any{
					"result": tr.Content,
				}))
			}
			contents = append(contents, genai.NewContentFromParts(parts, genai.RoleUser))

		default:
			return nil, fmt.Errorf("unknown message role %q", m.Role)
		}
	}
	return contents, nil
}
