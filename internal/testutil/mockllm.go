// Package testutil provides deterministic test doubles: a scripted
// reasoning component, a hash-based embedder, and an in-memory vector
// index. None of them touch the network.
package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/tikasheba/vaccine-ai/internal/llm"
)

// MockLLM is a scripted llm.Client. Each Generate call consumes the next
// scripted response in order; when the script is exhausted, the fallback
// behavior repeats the last response (or errors if none was set).
//
// Thread-safe for concurrent use.
type MockLLM struct {
	mu        sync.Mutex
	script    []llm.Response
	repeat    bool // repeat last response when script is exhausted
	callCount int
	requests  []llm.Request
}

// NewMockLLM creates a mock with the given scripted responses.
func NewMockLLM(script ...llm.Response) *MockLLM {
	return &MockLLM{script: script}
}

// RepeatLast makes the mock replay its final scripted response forever.
// Useful for simulating a model that never stops requesting tools.
func (m *MockLLM) RepeatLast() *MockLLM {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.repeat = true
	return m
}

// Generate returns the next scripted response and records the request.
func (m *MockLLM) Generate(_ context.Context, req *llm.Request) (*llm.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, *req)

	idx := m.callCount
	m.callCount++

	if idx >= len(m.script) {
		if m.repeat && len(m.script) > 0 {
			resp := m.script[len(m.script)-1]
			return &resp, nil
		}
		return nil, errors.New("mock llm: script exhausted")
	}
	resp := m.script[idx]
	return &resp, nil
}

// Calls returns the number of Generate invocations.
func (m *MockLLM) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Requests returns copies of every request the mock received, in order.
func (m *MockLLM) Requests() []llm.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]llm.Request, len(m.requests))
	copy(cp, m.requests)
	return cp
}

// FailingLLM is an llm.Client that always returns the given error.
type FailingLLM struct {
	Err error
}

// Generate always fails.
func (f *FailingLLM) Generate(context.Context, *llm.Request) (*llm.Response, error) {
	return nil, f.Err
}
