package mocks

import (
	"context"
	"sync"
	"time"

	"conductor/pkg/llm"
)

// MockLLMClient implements llm.LLMClient for testing.
// It provides configurable behavior for Complete and Stream operations.
//
//nolint:govet // fieldalignment: mock struct layout optimized for readability
type MockLLMClient struct {
	// CompleteFunc is called when Complete is invoked. Override to customize behavior.
	CompleteFunc func(ctx context.Context, req llm.CompletionRequest) (llm.CompletionResponse, error)

	// StreamFunc is called when Stream is invoked. Override to customize behavior.
	StreamFunc func(ctx context.Context, req llm.CompletionRequest) (<-chan llm.StreamChunk, error)

	// ProbeErr is returned by Probe, letting the mock stand in for the
	// local backend in router tests.
	ProbeErr error

	// CompleteCalls tracks all calls to Complete for verification.
	CompleteCalls []llm.CompletionRequest

	// StreamCalls tracks all calls to Stream for verification.
	StreamCalls []llm.CompletionRequest

	// ProbeCalls counts calls to Probe.
	ProbeCalls int

	// modelName is the model name returned by GetModelName.
	modelName string

	// mu protects call tracking
	mu sync.Mutex
}

// NewMockLLMClient creates a new mock LLM client with default behavior.
// Default behavior: Complete returns a fixed response, Stream returns a
// single-chunk channel that closes immediately.
func NewMockLLMClient() *MockLLMClient {
	m := &MockLLMClient{
		modelName: "mock-model",
	}

	m.CompleteFunc = func(_ context.Context, _ llm.CompletionRequest) (llm.CompletionResponse, error) {
		return llm.CompletionResponse{
			Content:    "Mock response",
			StopReason: "end_turn",
		}, nil
	}

	m.StreamFunc = func(_ context.Context, _ llm.CompletionRequest) (<-chan llm.StreamChunk, error) {
		ch := make(chan llm.StreamChunk, 1)
		ch <- llm.StreamChunk{Content: "Mock streamed response", Done: true}
		close(ch)
		return ch, nil
	}

	return m
}

// Complete implements llm.LLMClient.
func (m *MockLLMClient) Complete(ctx context.Context, req llm.CompletionRequest) (llm.CompletionResponse, error) {
	m.mu.Lock()
	m.CompleteCalls = append(m.CompleteCalls, req)
	m.mu.Unlock()
	return m.CompleteFunc(ctx, req)
}

// Stream implements llm.LLMClient.
func (m *MockLLMClient) Stream(ctx context.Context, req llm.CompletionRequest) (<-chan llm.StreamChunk, error) {
	m.mu.Lock()
	m.StreamCalls = append(m.StreamCalls, req)
	m.mu.Unlock()
	return m.StreamFunc(ctx, req)
}

// GetModelName implements llm.LLMClient.
func (m *MockLLMClient) GetModelName() string {
	return m.modelName
}

// Probe mimics the local backend's liveness check.
func (m *MockLLMClient) Probe(_ context.Context, _ time.Duration) error {
	m.mu.Lock()
	m.ProbeCalls++
	m.mu.Unlock()
	return m.ProbeErr
}

// --- Configuration methods ---

// SetModelName sets the model name returned by GetModelName.
func (m *MockLLMClient) SetModelName(name string) {
	m.modelName = name
}

// OnComplete sets a custom handler for Complete calls.
func (m *MockLLMClient) OnComplete(fn func(ctx context.Context, req llm.CompletionRequest) (llm.CompletionResponse, error)) {
	m.CompleteFunc = fn
}

// --- Error simulation helpers ---

// FailCompleteWith configures Complete to return the specified error.
func (m *MockLLMClient) FailCompleteWith(err error) {
	m.CompleteFunc = func(_ context.Context, _ llm.CompletionRequest) (llm.CompletionResponse, error) {
		return llm.CompletionResponse{}, err
	}
}

// --- Response helpers ---

// RespondWith configures Complete to return the specified content.
func (m *MockLLMClient) RespondWith(content string) {
	m.CompleteFunc = func(_ context.Context, _ llm.CompletionRequest) (llm.CompletionResponse, error) {
		return llm.CompletionResponse{
			Content:    content,
			StopReason: "end_turn",
		}, nil
	}
}

// RespondWithToolCall configures Complete to return a tool call response.
func (m *MockLLMClient) RespondWithToolCall(toolName string, params map[string]any) {
	m.CompleteFunc = func(_ context.Context, _ llm.CompletionRequest) (llm.CompletionResponse, error) {
		return llm.CompletionResponse{
			ToolCalls: []llm.ToolCall{
				{
					ID:         "mock-tool-call-1",
					Name:       toolName,
					Parameters: params,
				},
			},
			StopReason: "tool_use",
		}, nil
	}
}

// RespondWithSequence configures Complete to return different responses for
// each call, returning the last one for any additional calls.
func (m *MockLLMClient) RespondWithSequence(responses []llm.CompletionResponse) {
	callIndex := 0
	var seqMu sync.Mutex
	m.CompleteFunc = func(_ context.Context, _ llm.CompletionRequest) (llm.CompletionResponse, error) {
		seqMu.Lock()
		defer seqMu.Unlock()
		if callIndex < len(responses)-1 {
			resp := responses[callIndex]
			callIndex++
			return resp, nil
		}
		return responses[len(responses)-1], nil
	}
}
