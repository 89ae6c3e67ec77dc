package agents

import (
	"context"
	"fmt"
	"testing"

	"conductor/internal/mocks"
	"conductor/pkg/llm"
	"conductor/pkg/state"
	"conductor/pkg/tools"
)

// stubSelector returns a fixed client for every Select call and records
// the modes and task types requested.
type stubSelector struct {
	client    llm.LLMClient
	name      string
	err       error
	modes     []string
	taskTypes []string
}

func (s *stubSelector) Select(_ context.Context, _, mode, taskType string) (llm.LLMClient, string, string, error) {
	s.modes = append(s.modes, mode)
	s.taskTypes = append(s.taskTypes, taskType)
	if s.err != nil {
		return nil, "", "", s.err
	}
	return s.client, s.name, taskType, nil
}

func newStubSelector(client llm.LLMClient) *stubSelector {
	return &stubSelector{client: client, name: "test-model"}
}

// stubTool is a minimal tools.Tool for exercising the tool loop.
type stubTool struct {
	name    string
	execFn  func(ctx context.Context, args map[string]any) (*tools.ExecResult, error)
	calls   int
	lastArg map[string]any
}

func (t *stubTool) Name() string { return t.name }

func (t *stubTool) Definition() tools.ToolDefinition {
	return tools.ToolDefinition{
		Name:        t.name,
		Description: "stub",
		InputSchema: tools.InputSchema{Type: "object"},
	}
}

func (t *stubTool) PromptDocumentation() string { return "- " + t.name }

func (t *stubTool) Exec(ctx context.Context, args map[string]any) (*tools.ExecResult, error) {
	t.calls++
	t.lastArg = args
	if t.execFn != nil {
		return t.execFn(ctx, args)
	}
	return &tools.ExecResult{Content: "stub result"}, nil
}

// stubProvider serves stub tools by name.
type stubProvider struct {
	tools map[string]*stubTool
}

func newStubProvider(ts ...*stubTool) *stubProvider {
	p := &stubProvider{tools: make(map[string]*stubTool)}
	for _, t := range ts {
		p.tools[t.name] = t
	}
	return p
}

func (p *stubProvider) Get(name string) (tools.Tool, error) {
	t, ok := p.tools[name]
	if !ok {
		return nil, fmt.Errorf("tool not found: %s", name)
	}
	return t, nil
}

func (p *stubProvider) Definitions() []tools.ToolDefinition {
	defs := make([]tools.ToolDefinition, 0, len(p.tools))
	for _, t := range p.tools {
		defs = append(defs, t.Definition())
	}
	return defs
}

func TestTranscriptMessages(t *testing.T) {
	st := state.New("soru")
	st.AppendMessage("user", "soru")
	st.AppendMessage("supervisor", "Supervisor kararı: coder")

	msgs := transcriptMessages(st)
	if len(msgs) != 2 {
		t.Fatalf("len = %d, want 2", len(msgs))
	}
	if msgs[0].Role != llm.RoleUser {
		t.Errorf("msgs[0].Role = %s, want user", msgs[0].Role)
	}
	if msgs[1].Role != llm.RoleAssistant {
		t.Errorf("msgs[1].Role = %s, want assistant", msgs[1].Role)
	}
}

func TestHead(t *testing.T) {
	if got := head("abc", 5); got != "abc" {
		t.Errorf("head short = %q", got)
	}
	if got := head("öğrenci", 3); got != "öğr" {
		t.Errorf("head runes = %q", got)
	}
}

func TestToolLoopExecutesTools(t *testing.T) {
	search := &stubTool{name: "web_search"}
	provider := newStubProvider(search)

	client := mocks.NewMockLLMClient()
	client.RespondWithSequence([]llm.CompletionResponse{
		{
			ToolCalls: []llm.ToolCall{{ID: "c1", Name: "web_search", Parameters: map[string]any{"query": "go"}}},
		},
		{Content: "özet cevap", StopReason: "end_turn"},
	})

	d := newDeps(nil, "test")
	out, err := d.runToolLoop(context.Background(), client, provider,
		"system", []llm.CompletionMessage{llm.NewUserMessage("go nedir")})
	if err != nil {
		t.Fatalf("runToolLoop: %v", err)
	}
	if out != "özet cevap" {
		t.Errorf("out = %q", out)
	}
	if search.calls != 1 {
		t.Errorf("tool calls = %d, want 1", search.calls)
	}
	if len(client.CompleteCalls) != 2 {
		t.Errorf("LLM calls = %d, want 2", len(client.CompleteCalls))
	}
	// The second request must carry the tool result back.
	second := client.CompleteCalls[1]
	last := second.Messages[len(second.Messages)-1]
	if last.Role != llm.RoleTool || len(last.ToolResults) != 1 {
		t.Errorf("tool result message missing: role=%s results=%d", last.Role, len(last.ToolResults))
	}
}

func TestToolLoopUnknownToolGetsErrorResult(t *testing.T) {
	provider := newStubProvider()

	client := mocks.NewMockLLMClient()
	client.RespondWithSequence([]llm.CompletionResponse{
		{ToolCalls: []llm.ToolCall{{ID: "c1", Name: "no_such_tool"}}},
		{Content: "devam", StopReason: "end_turn"},
	})

	d := newDeps(nil, "test")
	out, err := d.runToolLoop(context.Background(), client, provider,
		"system", []llm.CompletionMessage{llm.NewUserMessage("q")})
	if err != nil {
		t.Fatalf("runToolLoop: %v", err)
	}
	if out != "devam" {
		t.Errorf("out = %q", out)
	}

	second := client.CompleteCalls[1]
	last := second.Messages[len(second.Messages)-1]
	if len(last.ToolResults) != 1 || !last.ToolResults[0].IsError {
		t.Error("expected an error tool result for the unknown tool")
	}
}

func TestToolLoopIterationCap(t *testing.T) {
	search := &stubTool{name: "web_search"}
	provider := newStubProvider(search)

	client := mocks.NewMockLLMClient()
	client.OnComplete(func(_ context.Context, _ llm.CompletionRequest) (llm.CompletionResponse, error) {
		return llm.CompletionResponse{
			ToolCalls: []llm.ToolCall{{ID: "c", Name: "web_search"}},
		}, nil
	})

	d := newDeps(nil, "test")
	_, err := d.runToolLoop(context.Background(), client, provider,
		"system", []llm.CompletionMessage{llm.NewUserMessage("q")})
	if err == nil {
		t.Fatal("expected iteration cap error")
	}
	if search.calls != toolLoopMaxIterations {
		t.Errorf("tool executed %d times, want %d", search.calls, toolLoopMaxIterations)
	}
}
