// Package chat implements the conversational retrieval loop: per-exchange
// turn accumulation and the bounded protocol between the reasoning
// component and the tool registry.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/tikasheba/vaccine-ai/internal/llm"
	"github.com/tikasheba/vaccine-ai/internal/tools"
)

var (
	// ErrGeneration indicates the reasoning component or a tool dispatch
	// failed in an unrecoverable way.
	ErrGeneration = errors.New("generation failed")

	// ErrToolLoopExceeded indicates the model kept requesting tools past
	// the configured iteration cap without converging to a final answer.
	ErrToolLoopExceeded = errors.New("tool loop exceeded iteration cap")
)

// fallbackResponse is returned when the model produces an empty final
// answer with no tool requests.
const fallbackResponse = "I apologize, but I couldn't generate a response. Please try rephrasing your question."

// unknownToolResult is fed back to the model when it names a tool that is
// not in the registry, so the function-calling protocol stays balanced
// while the exchange continues.
const unknownToolResult = "Error: unknown tool"

// Role identifies the author of a Turn.
type Role string

const (
	// RoleUser marks caller-authored turns.
	RoleUser Role = "user"

	// RoleAssistant marks engine-produced turns.
	RoleAssistant Role = "assistant"
)

// Turn is one immutable entry of a conversation history.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Engine drives one conversational exchange: it presents the windowed
// history and new message to the reasoning component, dispatches any tool
// requests sequentially, feeds results back into the same context, and
// returns the final answer plus the updated history.
//
// Engine holds no per-session state; concurrent Respond calls for
// different sessions are independent.
type Engine struct {
	client        llm.Client
	registry      *tools.Registry
	maxToolRounds int
	logger        *slog.Logger
}

// NewEngine creates an Engine. maxToolRounds caps the model/tool loop and
// must be positive: the loop is required to be finite.
func NewEngine(client llm.Client, registry *tools.Registry, maxToolRounds int, logger *slog.Logger) (*Engine, error) {
	if client == nil {
		return nil, errors.New("llm client is required")
	}
	if registry == nil {
		return nil, errors.New("tool registry is required")
	}
	if maxToolRounds < 1 {
		return nil, fmt.Errorf("maxToolRounds must be positive, got %d", maxToolRounds)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		client:        client,
		registry:      registry,
		maxToolRounds: maxToolRounds,
		logger:        logger,
	}, nil
}

// Respond answers message in the context of history under the given
// persona. The returned history is a fresh slice: caller history + user
// turn + assistant turn, never truncated or reordered.
func (e *Engine) Respond(ctx context.Context, history []Turn, message string, persona Persona) (string, []Turn, error) {
	logger := e.logger.With("persona", persona.Name)

	msgs := windowedMessages(history, persona.HistoryWindow)
	msgs = append(msgs, llm.Message{Role: llm.RoleUser, Text: message})

	decls := e.registry.Declarations(persona.Tools)

	answer, err := e.runToolLoop(ctx, persona.SystemInstruction, msgs, decls, logger)
	if err != nil {
		return "", nil, err
	}

	updated := slices.Clone(history)
	updated = append(updated,
		Turn{Role: RoleUser, Content: message},
		Turn{Role: RoleAssistant, Content: answer},
	)
	return answer, updated, nil
}

// runToolLoop is the bounded iterative protocol with the reasoning
// component. Each round either converges (no tool requests) or dispatches
// every request sequentially and continues with the results appended to
// the same ongoing context.
func (e *Engine) runToolLoop(ctx context.Context, system string, msgs []llm.Message, decls []llm.ToolDecl, logger *slog.Logger) (string, error) {
	for round := range e.maxToolRounds {
		resp, err := e.client.Generate(ctx, &llm.Request{
			SystemInstruction: system,
			Messages:          msgs,
			Tools:             decls,
		})
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrGeneration, err)
		}

		if len(resp.ToolRequests) == 0 {
			text := resp.Text
			if strings.TrimSpace(text) == "" {
				logger.Warn("model returned empty response with no tool requests")
				text = fallbackResponse
			}
			return text, nil
		}

		logger.Debug("model requested tools", "round", round, "count", len(resp.ToolRequests))

		results, err := e.dispatch(ctx, resp.ToolRequests, logger)
		if err != nil {
			return "", err
		}

		msgs = append(msgs,
			llm.Message{Role: llm.RoleModel, Text: resp.Text, ToolRequests: resp.ToolRequests},
			llm.Message{Role: llm.RoleTool, ToolResults: results},
		)
	}

	return "", fmt.Errorf("%w: no convergence after %d rounds", ErrToolLoopExceeded, e.maxToolRounds)
}

// dispatch runs each tool request in emission order. Unknown tool names
// are not invoked and do not fail the exchange; they produce an error
// result so the model can recover.
func (e *Engine) dispatch(ctx context.Context, requests []llm.ToolRequest, logger *slog.Logger) ([]llm.ToolResult, error) {
	results := make([]llm.ToolResult, 0, len(requests))
	for _, req := range requests {
		tool, ok := e.registry.Lookup(req.Name)
		if !ok {
			logger.Warn("ignoring unknown tool request", "tool", req.Name)
			results = append(results, llm.ToolResult{Name: req.Name, Content: unknownToolResult})
			continue
		}

		output, err := tool.Run(ctx, req.Args)
		if err != nil {
			return nil, fmt.Errorf("%w: tool %s: %w", ErrGeneration, req.Name, err)
		}
		results = append(results, llm.ToolResult{Name: req.Name, Content: output})
	}
	return results, nil
}

// windowedMessages converts the most recent window turns for the model.
// Order is preserved; the caller's slice is never mutated.
func windowedMessages(history []Turn, window int) []llm.Message {
	start := 0
	if window > 0 && len(history) > window {
		start = len(history) - window
	}

	msgs := make([]llm.Message, 0, len(history)-start+1)
	for _, t := range history[start:] {
		role := llm.RoleUser
		if t.Role == RoleAssistant {
			role = llm.RoleModel
		}
		msgs = append(msgs, llm.Message{Role: role, Text: t.Content})
	}
	return msgs
}
