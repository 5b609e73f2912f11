// Package llm defines the reasoning-component boundary for the vaccine-ai
// service.
//
// The conversation engine talks to an opaque Client: given a system
// instruction, prior messages, and declared tools, the client returns either
// final text or structured tool requests. The production implementation
// wraps the Gemini API (gemini.go); tests inject a scripted double from
// internal/testutil.
package llm

import (
	"context"
	"errors"

	"google.golang.org/genai"
)

var (
	// ErrUnavailable indicates the model backend is unreachable or erroring.
	ErrUnavailable = errors.New("model unavailable")

	// ErrTimeout indicates a model call exceeded its deadline.
	ErrTimeout = errors.New("model call timed out")
)

// Role identifies the author of a Message.
type Role string

const (
	// RoleUser marks caller-authored messages.
	RoleUser Role = "user"

	// RoleModel marks model-authored messages, including those that carry
	// tool requests.
	RoleModel Role = "model"

	// RoleTool marks messages feeding tool results back to the model.
	RoleTool Role = "tool"
)

// ToolRequest is a structured request from the model to execute a named
// tool. Produced only by the model, never by callers.
type ToolRequest struct {
	Name string
	Args map[string]any
}

// ToolResult carries a tool's textual output back into the conversation.
type ToolResult struct {
	Name    string
	Content string
}

// Message is one entry in the reasoning context. Exactly one of the
// payload groups is meaningful per role: Text for RoleUser, Text and/or
// ToolRequests for RoleModel, ToolResults for RoleTool.
type Message struct {
	Role         Role
	Text         string
	ToolRequests []ToolRequest
	ToolResults  []ToolResult
}

// ToolDecl declares a callable tool to the model.
type ToolDecl struct {
	Name        string
	Description string
	Parameters  *genai.Schema
}

// Request is one generation call.
type Request struct {
	SystemInstruction string
	Messages          []Message
	Tools             []ToolDecl
}

// Response is the model's output for one call: final text, zero or more
// tool requests, or both.
type Response struct {
	Text         string
	ToolRequests []ToolRequest
}

// Client generates model responses. Implementations must be safe for
// concurrent use by multiple in-flight conversations.
type Client interface {
	Generate(ctx context.Context, req *Request) (*Response, error)
}
