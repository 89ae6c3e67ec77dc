package agents

import (
	"context"
	"fmt"
	"strings"
	"time"

	"conductor/pkg/config"
	"conductor/pkg/llm"
	"conductor/pkg/router"
	"conductor/pkg/state"
	"conductor/pkg/tools"
)

// Coder solves computational tasks by writing Python and running it in
// the sandbox, writing the outcome to CodeResults.
type Coder struct {
	deps
	tools ToolProvider
}

// NewCoder creates the coder node.
func NewCoder(r Selector, provider ToolProvider) *Coder {
	return &Coder{
		deps:  newDeps(r, state.AgentCoder),
		tools: provider,
	}
}

// Name implements Node.
func (a *Coder) Name() string { return state.AgentCoder }

// Run generates and executes code, updating the state. Strategies in
// order: the tool-calling flow where the backend invokes the sandbox
// itself, then a manual generate-strip-execute fallback.
func (a *Coder) Run(ctx context.Context, st *state.RunState) {
	start := time.Now()
	status := "success"
	defer func() { a.observeTurn(state.AgentCoder, status, start) }()

	client, modelName, _, err := a.router.Select(ctx, st.Query, config.ModeAccurate, router.TaskCoding)
	if err != nil {
		a.logger.Error("backend selection failed: %v", err)
		status = "degraded"
		a.conclude(st, "", fmt.Sprintf("Kod çalıştırma sırasında hata oluştu: %v", err))
		return
	}

	result, err := a.code(ctx, client, st)
	if err != nil {
		a.logger.Error("coder failed on all strategies: %v", err)
		status = "degraded"
		result = fmt.Sprintf("Kod çalıştırma sırasında hata oluştu: %v", err)
	}

	a.conclude(st, modelName, result)
}

func (a *Coder) code(ctx context.Context, client llm.LLMClient, st *state.RunState) (string, error) {
	conversation := transcriptMessages(st)
	conversation = append(conversation, llm.NewUserMessage(st.Query))

	result, err := a.runToolLoop(ctx, client, a.tools, coderSystemPrompt, conversation)
	if err == nil {
		return result, nil
	}
	a.logger.Warn("tool-calling flow failed, using manual fallback: %v", err)

	return a.generateAndExecute(ctx, client, st.Query)
}

// generateAndExecute has the backend emit bare Python, strips code-fence
// markup, and runs it through the sandbox tool directly.
func (a *Coder) generateAndExecute(ctx context.Context, client llm.LLMClient, query string) (string, error) {
	msgs := []llm.CompletionMessage{
		llm.NewSystemMessage(coderFallbackSystemPrompt),
		llm.NewUserMessage(query),
	}

	req := llm.NewCompletionRequest(msgs)
	req.Temperature = llm.TemperatureDeterministic
	resp, err := a.complete(ctx, client, req)
	if err != nil {
		return "", err
	}

	code := stripCodeFences(resp.Content)

	tool, err := a.tools.Get(tools.ToolCodeExecute)
	if err != nil {
		return "", err
	}
	execResult, err := tool.Exec(ctx, map[string]any{"code": code})
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("Üretilen Kod:\n```python\n%s\n```\n\n%s", code, execResult.Content), nil
}

// stripCodeFences removes markdown fence markup around generated code.
// Preference order: a ```python block, then any ``` block, then the raw
// text as-is.
func stripCodeFences(text string) string {
	if idx := strings.Index(text, "```python"); idx >= 0 {
		rest := text[idx+len("```python"):]
		if end := strings.Index(rest, "```"); end >= 0 {
			rest = rest[:end]
		}
		return strings.TrimSpace(rest)
	}
	if idx := strings.Index(text, "```"); idx >= 0 {
		rest := text[idx+len("```"):]
		if end := strings.Index(rest, "```"); end >= 0 {
			rest = rest[:end]
		}
		return strings.TrimSpace(rest)
	}
	return strings.TrimSpace(text)
}

func (a *Coder) conclude(st *state.RunState, modelName, result string) {
	st.CodeResults = result
	st.RecordTool(tools.ToolCodeExecute)
	if modelName != "" {
		st.RecordModel("coder:" + modelName)
	}
	st.AppendMessage(state.AgentCoder, "Kod sonuçları: "+head(result, 500))
}
