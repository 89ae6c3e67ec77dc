// Package agents implements the five agent nodes of the orchestration
// graph. Each node reads the shared run state, invokes an LLM backend
// selected by the router, and writes back its own slot. Nodes never
// return errors: every backend or tool failure degrades into a valid
// state update so one broken agent cannot kill a run.
package agents

import (
	"context"
	"time"

	"conductor/pkg/llm"
	"conductor/pkg/llm/llmerrors"
	"conductor/pkg/logx"
	"conductor/pkg/metrics"
	"conductor/pkg/state"
	"conductor/pkg/tokens"
	"conductor/pkg/tools"
)

// Node is one behavior unit in the orchestration graph.
type Node interface {
	Name() string
	Run(ctx context.Context, st *state.RunState)
}

// Selector is the slice of the router the nodes need. Each node resolves
// a backend with a fixed mode and task type appropriate to its role.
type Selector interface {
	Select(ctx context.Context, query, mode, taskType string) (llm.LLMClient, string, string, error)
}

// ToolProvider is what the tool-using nodes need from pkg/tools.
type ToolProvider interface {
	Get(name string) (tools.Tool, error)
	Definitions() []tools.ToolDefinition
}

// contentBudgetTokens caps the scratch content embedded into review and
// formatting prompts so accumulated results cannot blow the local
// model's context window.
const contentBudgetTokens = 3000

// deps carries the collaborators shared by all nodes.
type deps struct {
	router   Selector
	logger   *logx.Logger
	counter  *tokens.Counter
	recorder *metrics.Recorder
}

func newDeps(router Selector, name string) deps {
	// A nil counter falls back to character-based estimation.
	counter, _ := tokens.NewCounter("gpt-4")
	return deps{
		router:   router,
		logger:   logx.NewLogger(name),
		counter:  counter,
		recorder: metrics.Default(),
	}
}

// complete invokes the backend and records the request in metrics,
// labeled with the model name and the calling node.
func (d *deps) complete(ctx context.Context, client llm.LLMClient, req llm.CompletionRequest) (llm.CompletionResponse, error) {
	start := time.Now()
	resp, err := client.Complete(ctx, req)

	errorType := ""
	if err != nil {
		errorType = llmerrors.TypeOf(err).String()
	}
	d.recorder.RecordBackendRequest(client.GetModelName(), d.logger.GetAgentID(), err, errorType, time.Since(start))
	return resp, err
}

// observeTurn records one node execution in metrics.
func (d *deps) observeTurn(agent, status string, start time.Time) {
	d.recorder.RecordAgentTurn(agent, status, time.Since(start))
}

// budget truncates content to the shared prompt budget.
func (d *deps) budget(content string) string {
	return d.counter.Truncate(content, contentBudgetTokens)
}

// transcriptMessages converts the run transcript into completion
// messages. The user's query stays a user turn; agent messages become
// assistant turns.
func transcriptMessages(st *state.RunState) []llm.CompletionMessage {
	msgs := make([]llm.CompletionMessage, 0, len(st.Messages))
	for _, m := range st.Messages {
		if m.From == "user" {
			msgs = append(msgs, llm.NewUserMessage(m.Content))
		} else {
			msgs = append(msgs, llm.NewAssistantMessage(m.Content))
		}
	}
	return msgs
}

// head returns the first n runes of s, the whole string if shorter.
func head(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// orPlaceholder substitutes the "not yet present" marker for empty slots
// in the supervisor's state summary.
func orPlaceholder(s string) string {
	if s == "" {
		return "Henüz yok"
	}
	return s
}
