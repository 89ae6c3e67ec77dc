package agents

import (
	"context"
	"fmt"
	"time"

	"conductor/pkg/config"
	"conductor/pkg/llm"
	"conductor/pkg/router"
	"conductor/pkg/state"
)

// Supervisor decides which agent runs next. Routing decisions are judged
// high-value, so it always uses the accurate mode.
type Supervisor struct {
	deps
	maxIterations int
}

// NewSupervisor creates the supervisor node. maxIterations is the run's
// liveness cap; once reached, the supervisor forces FINISH no matter
// what the backend proposes.
func NewSupervisor(r Selector, maxIterations int) *Supervisor {
	return &Supervisor{
		deps:          newDeps(r, state.AgentSupervisor),
		maxIterations: maxIterations,
	}
}

// Name implements Node.
func (s *Supervisor) Name() string { return state.AgentSupervisor }

// Run asks the backend for a routing decision and writes it to
// NextAgent. Also increments the iteration count; this is the only node
// that does.
func (s *Supervisor) Run(ctx context.Context, st *state.RunState) {
	start := time.Now()
	status := "success"
	defer func() { s.observeTurn(state.AgentSupervisor, status, start) }()

	client, modelName, _, err := s.router.Select(ctx, st.Query, config.ModeAccurate, router.TaskPlanning)
	if err != nil {
		// Only reachable through misconfiguration; end the run cleanly.
		s.logger.Error("backend selection failed: %v", err)
		status = "degraded"
		s.conclude(st, "", state.DecisionFinish)
		return
	}

	next, ok := s.decide(ctx, client, st)
	if !ok {
		status = "degraded"
	}
	s.conclude(st, modelName, next)
}

// decide runs the decision prompt and extracts the routing payload.
// ok is false when the backend call itself failed.
func (s *Supervisor) decide(ctx context.Context, client llm.LLMClient, st *state.RunState) (string, bool) {
	msgs := []llm.CompletionMessage{
		llm.NewSystemMessage(supervisorSystemPrompt),
	}
	msgs = append(msgs, transcriptMessages(st)...)
	msgs = append(msgs, llm.NewUserMessage(fmt.Sprintf(
		"Mevcut durum bilgisi:\n"+
			"- Araştırma sonuçları: %s\n"+
			"- Kod sonuçları: %s\n"+
			"- İnceleme notları: %s\n\n"+
			"Bir sonraki adım ne olmalı? JSON formatında yanıtla: "+
			`{"next": "ajan_adı", "reason": "kısa açıklama"}`,
		orPlaceholder(s.budget(st.SearchResults)),
		orPlaceholder(s.budget(st.CodeResults)),
		orPlaceholder(s.budget(st.ReviewNotes)),
	)))

	resp, err := s.complete(ctx, client, llm.NewCompletionRequest(msgs))
	if err != nil {
		s.logger.Warn("decision completion failed: %v", err)
		return state.DecisionFinish, false
	}

	decision := ParseDecision(resp.Content)
	s.logger.Info("decision: next=%s reason=%s", decision.Next, decision.Reason)
	return decision.Next, true
}

// conclude applies the decision, enforcing the iteration cap.
func (s *Supervisor) conclude(st *state.RunState, modelName, next string) {
	st.IterationCount++
	if st.IterationCount >= s.maxIterations {
		s.logger.Warn("iteration cap reached (%d), forcing FINISH", s.maxIterations)
		next = state.DecisionFinish
	}

	st.NextAgent = next
	if modelName != "" {
		st.RecordModel("supervisor:" + modelName)
	}
	st.AppendMessage(state.AgentSupervisor, "Supervisor kararı: "+next)
}
