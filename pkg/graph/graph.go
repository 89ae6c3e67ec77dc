// Package graph implements the orchestration state machine that drives
// the agent nodes. One run is a strictly sequential loop: the supervisor
// picks a worker, the worker runs and control returns to the supervisor,
// until the supervisor ends the run. The transition rules live in an
// explicit table so the cyclic shape is a testable structural property.
package graph

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"conductor/pkg/agents"
	"conductor/pkg/config"
	"conductor/pkg/logx"
	"conductor/pkg/metrics"
	"conductor/pkg/router"
	"conductor/pkg/sandbox"
	"conductor/pkg/state"
	"conductor/pkg/tools"
)

// EmptyQueryMessage is the answer for a blank query; no agent runs.
const EmptyQueryMessage = "Hata: Boş sorgu gönderilemez. Lütfen bir soru sorun."

// Result is the caller-facing outcome of one run. It is always
// well-formed: on total failure the fields degrade to empty/zero.
type Result struct {
	RunID       string        `json:"run_id"`
	Answer      string        `json:"answer"`
	TaskType    string        `json:"task_type"`
	ModelsUsed  []string      `json:"models_used"`
	ToolsCalled []string      `json:"tools_called"`
	Iterations  int           `json:"iterations"`
	Duration    time.Duration `json:"duration"`
}

// workerSuccessor is the transition table for the worker nodes: every
// worker hands control straight back to the supervisor.
//
//nolint:gochecknoglobals // Static transition table
var workerSuccessor = map[string]string{
	state.AgentResearcher: state.AgentSupervisor,
	state.AgentCoder:      state.AgentSupervisor,
	state.AgentReviewer:   state.AgentSupervisor,
	state.AgentFormatter:  state.AgentSupervisor,
}

// probeResetter is the slice of the router the engine needs directly:
// the local-backend liveness cache must not outlive one run.
type probeResetter interface {
	ResetProbeCache()
}

// Engine executes orchestration runs. Safe for concurrent runs: each
// gets its own state; the nodes and router are shared read-only.
type Engine struct {
	logger   *logx.Logger
	cfg      config.Config
	nodes    map[string]agents.Node
	router   probeResetter
	recorder *metrics.Recorder
}

// New wires the engine: router, sandbox, tool providers, and the five
// agent nodes. A missing cloud credential fails here, before any run.
func New(cfg config.Config) (*Engine, error) {
	r, err := router.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build model router: %w", err)
	}

	agentCtx := tools.AgentContext{
		Sandbox:   sandbox.New(cfg.Sandbox),
		Retrieval: cfg.Retrieval,
	}
	researcherTools := tools.NewProvider(agentCtx, tools.ResearcherTools)
	coderTools := tools.NewProvider(agentCtx, tools.CoderTools)

	nodes := map[string]agents.Node{
		state.AgentSupervisor: agents.NewSupervisor(r, cfg.MaxIterations),
		state.AgentResearcher: agents.NewResearcher(r, researcherTools),
		state.AgentCoder:      agents.NewCoder(r, coderTools),
		state.AgentReviewer:   agents.NewReviewer(r),
		state.AgentFormatter:  agents.NewFormatter(r),
	}

	return &Engine{
		logger:   logx.NewLogger("graph"),
		cfg:      cfg,
		nodes:    nodes,
		router:   r,
		recorder: metrics.Default(),
	}, nil
}

// Run executes one orchestration run. mode is the user-facing selection
// mode; an empty string falls back to the configured default. The result
// is always well-formed; engine panics and context cancellation degrade
// into a system-error answer rather than propagating.
func (e *Engine) Run(ctx context.Context, query, mode string) (result Result) {
	start := time.Now()
	runID := uuid.NewString()
	result = Result{RunID: runID}

	if strings.TrimSpace(query) == "" {
		result.Answer = EmptyQueryMessage
		return result
	}

	if mode == "" {
		mode = e.cfg.Mode
	}
	if !config.IsValidMode(mode) {
		err := &router.InvalidModeError{Mode: mode}
		e.logger.Error("run %s rejected: %v", runID, err)
		result.Answer = fmt.Sprintf("Sistem hatası oluştu: %v", err)
		return result
	}

	status := "success"
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("run %s panicked: %v", runID, r)
			result = Result{
				RunID:  runID,
				Answer: fmt.Sprintf("Sistem hatası oluştu: %v", r),
			}
			status = "panic"
		}
		result.Duration = time.Since(start)
		e.recorder.RecordRun(status, result.Duration)
	}()

	// A fresh run never trusts the previous run's liveness result.
	if e.router != nil {
		e.router.ResetProbeCache()
	}

	st := state.New(query)
	st.TaskType = router.Classify(query, e.cfg.ComplexityThreshold)
	st.AppendMessage("user", query)
	result.TaskType = st.TaskType

	e.logger.Info("run %s started: mode=%s task_type=%s", runID, mode, st.TaskType)

	// Hard step budget: the supervisor's iteration cap bounds normal
	// runs, but a node that never satisfies the finish condition must
	// not spin forever. On exhaustion the run degrades to whatever
	// intermediate results exist.
	maxSteps := 2*e.cfg.MaxIterations + 5

	current := state.AgentSupervisor
	for step := 0; ; step++ {
		if step >= maxSteps {
			e.logger.Warn("run %s exceeded step budget %d, ending", runID, maxSteps)
			break
		}
		if err := ctx.Err(); err != nil {
			e.logger.Warn("run %s canceled: %v", runID, err)
			result.Answer = fmt.Sprintf("Sistem hatası oluştu: %v", err)
			result.ModelsUsed = st.ModelsUsed
			result.ToolsCalled = st.ToolsCalled
			result.Iterations = st.IterationCount
			status = "canceled"
			return result
		}

		node, ok := e.nodes[current]
		if !ok {
			// Unreachable with a validated transition table; end cleanly.
			e.logger.Error("run %s hit unknown node %q", runID, current)
			break
		}

		e.logger.Debug("run %s executing node %s (iteration %d)", runID, current, st.IterationCount)
		node.Run(ctx, st)

		next, done := nextNode(current, st)
		if done {
			break
		}
		current = next
	}

	result.Answer = st.ExtractResult()
	result.ModelsUsed = st.ModelsUsed
	result.ToolsCalled = st.ToolsCalled
	result.Iterations = st.IterationCount

	e.logger.Info("run %s finished: iterations=%d models=%d tools=%d",
		runID, result.Iterations, len(result.ModelsUsed), len(result.ToolsCalled))
	return result
}

// nextNode applies the transition rules after a node has run. done is
// true when the run terminates.
func nextNode(current string, st *state.RunState) (string, bool) {
	if current != state.AgentSupervisor {
		// A formatter reached through a finish decision closes the run;
		// only the supervisor writes NextAgent, so the decision is still
		// visible here. This keeps the iteration count within the cap.
		if current == state.AgentFormatter && st.NextAgent == state.DecisionFinish {
			return "", true
		}
		successor, ok := workerSuccessor[current]
		if !ok {
			return "", true
		}
		return successor, false
	}

	next := st.NextAgent
	if next == state.DecisionFinish {
		// Finishing without a formatted answer diverts through the
		// formatter so the user never gets raw scratch content.
		if st.FinalAnswer == "" {
			return state.AgentFormatter, false
		}
		return "", true
	}

	if _, ok := workerSuccessor[next]; !ok {
		return "", true
	}
	return next, false
}
