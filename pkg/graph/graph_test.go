package graph

import (
	"context"
	"strings"
	"testing"

	"conductor/pkg/agents"
	"conductor/pkg/config"
	"conductor/pkg/logx"
	"conductor/pkg/metrics"
	"conductor/pkg/state"
)

// scriptedNode runs a hand-written state mutation in place of a real
// agent so tests can exercise the transition rules deterministically.
type scriptedNode struct {
	name string
	runs int
	fn   func(st *state.RunState)
}

func (n *scriptedNode) Name() string { return n.name }

func (n *scriptedNode) Run(_ context.Context, st *state.RunState) {
	n.runs++
	if n.fn != nil {
		n.fn(st)
	}
}

// supervisorScript replays a fixed sequence of routing decisions,
// incrementing the iteration count the way the real supervisor does.
func supervisorScript(decisions ...string) *scriptedNode {
	i := 0
	return &scriptedNode{name: state.AgentSupervisor, fn: func(st *state.RunState) {
		st.IterationCount++
		next := state.DecisionFinish
		if i < len(decisions) {
			next = decisions[i]
			i++
		}
		st.NextAgent = next
	}}
}

func newTestEngine(nodes ...*scriptedNode) *Engine {
	cfg := config.Default()
	table := make(map[string]agents.Node, len(nodes))
	for _, n := range nodes {
		table[n.name] = n
	}
	return &Engine{
		logger:   logx.NewLogger("graph-test"),
		cfg:      cfg,
		nodes:    table,
		recorder: metrics.Default(),
	}
}

func TestRunEmptyQuery(t *testing.T) {
	e := newTestEngine(supervisorScript())

	for _, query := range []string{"", "   ", "\n\t"} {
		res := e.Run(context.Background(), query, "")
		if res.Answer != EmptyQueryMessage {
			t.Fatalf("query %q: answer = %q, want %q", query, res.Answer, EmptyQueryMessage)
		}
		if res.Iterations != 0 || len(res.ModelsUsed) != 0 || len(res.ToolsCalled) != 0 {
			t.Fatalf("query %q: expected zero stats, got %+v", query, res)
		}
		if res.RunID == "" {
			t.Fatal("expected a run ID even for rejected queries")
		}
	}
}

func TestRunInvalidMode(t *testing.T) {
	sup := supervisorScript()
	e := newTestEngine(sup)

	res := e.Run(context.Background(), "merhaba", "turbo")
	if !strings.HasPrefix(res.Answer, "Sistem hatası oluştu: ") {
		t.Fatalf("answer = %q, want system error prefix", res.Answer)
	}
	if !strings.Contains(res.Answer, "turbo") {
		t.Fatalf("answer should name the rejected mode, got %q", res.Answer)
	}
	if sup.runs != 0 {
		t.Fatal("no node should run for an invalid mode")
	}
}

func TestRunEmptyModeUsesConfigDefault(t *testing.T) {
	sup := supervisorScript()
	sup.fn = func(st *state.RunState) {
		st.IterationCount++
		st.NextAgent = state.DecisionFinish
		st.FinalAnswer = "tamam"
	}
	e := newTestEngine(sup)

	res := e.Run(context.Background(), "merhaba", "")
	if res.Answer != "tamam" {
		t.Fatalf("answer = %q, want %q", res.Answer, "tamam")
	}
	if sup.runs != 1 {
		t.Fatalf("supervisor runs = %d, want 1", sup.runs)
	}
}

func TestRunWorkersReturnToSupervisor(t *testing.T) {
	sup := supervisorScript(state.AgentResearcher, state.AgentCoder, state.AgentReviewer, state.AgentFormatter)
	researcher := &scriptedNode{name: state.AgentResearcher, fn: func(st *state.RunState) {
		st.SearchResults = "bulgular"
	}}
	coder := &scriptedNode{name: state.AgentCoder, fn: func(st *state.RunState) {
		st.CodeResults = "çıktı"
	}}
	reviewer := &scriptedNode{name: state.AgentReviewer, fn: func(st *state.RunState) {
		st.ReviewStatus = state.ReviewApproved
		st.ReviewNotes = "uygun"
	}}
	formatter := &scriptedNode{name: state.AgentFormatter, fn: func(st *state.RunState) {
		st.FinalAnswer = "derlenmiş cevap"
	}}
	e := newTestEngine(sup, researcher, coder, reviewer, formatter)

	res := e.Run(context.Background(), "fibonacci hesapla ve araştır", "auto")

	if res.Answer != "derlenmiş cevap" {
		t.Fatalf("answer = %q, want formatted answer", res.Answer)
	}
	// Supervisor runs once per decision plus the closing FINISH.
	if sup.runs != 5 {
		t.Fatalf("supervisor runs = %d, want 5", sup.runs)
	}
	for _, n := range []*scriptedNode{researcher, coder, reviewer, formatter} {
		if n.runs != 1 {
			t.Fatalf("%s runs = %d, want 1", n.name, n.runs)
		}
	}
	if res.Iterations != 5 {
		t.Fatalf("iterations = %d, want 5", res.Iterations)
	}
}

func TestRunFinishWithoutAnswerDivertsToFormatter(t *testing.T) {
	// First decision is FINISH with no final answer; the run must pass
	// through the formatter before it can end.
	sup := supervisorScript()
	formatter := &scriptedNode{name: state.AgentFormatter, fn: func(st *state.RunState) {
		st.FinalAnswer = "formatlanmış"
	}}
	e := newTestEngine(sup, formatter)

	res := e.Run(context.Background(), "özetle", "auto")

	if formatter.runs != 1 {
		t.Fatalf("formatter runs = %d, want 1", formatter.runs)
	}
	if res.Answer != "formatlanmış" {
		t.Fatalf("answer = %q, want formatter output", res.Answer)
	}
	// The formatter closes a finishing run; the supervisor must not get
	// another turn (and another iteration) after it.
	if sup.runs != 1 {
		t.Fatalf("supervisor runs = %d, want 1", sup.runs)
	}
	if res.Iterations != 1 {
		t.Fatalf("iterations = %d, want 1", res.Iterations)
	}
}

func TestRunFallbackToIntermediateResults(t *testing.T) {
	// Formatter fails to produce an answer; the result degrades to the
	// joined intermediate results instead of an empty string.
	sup := supervisorScript(state.AgentResearcher)
	researcher := &scriptedNode{name: state.AgentResearcher, fn: func(st *state.RunState) {
		st.SearchResults = "ara bulgu"
	}}
	broken := &scriptedNode{name: state.AgentFormatter}
	e := newTestEngine(sup, researcher, broken)

	res := e.Run(context.Background(), "araştır bunu", "auto")

	if res.Answer != "ara bulgu" {
		t.Fatalf("answer = %q, want intermediate results", res.Answer)
	}
	// Formatter ran once, failed to set an answer, and the run still
	// terminated instead of bouncing through it again.
	if broken.runs != 1 {
		t.Fatalf("formatter runs = %d, want 1", broken.runs)
	}
}

func TestRunNoResultsAtAll(t *testing.T) {
	sup := supervisorScript()
	broken := &scriptedNode{name: state.AgentFormatter}
	e := newTestEngine(sup, broken)

	res := e.Run(context.Background(), "merhaba", "fast")
	if res.Answer != state.NoAnswerMessage {
		t.Fatalf("answer = %q, want %q", res.Answer, state.NoAnswerMessage)
	}
}

func TestRunPanicRecovery(t *testing.T) {
	sup := &scriptedNode{name: state.AgentSupervisor, fn: func(_ *state.RunState) {
		panic("backend exploded")
	}}
	e := newTestEngine(sup)

	res := e.Run(context.Background(), "merhaba", "auto")

	want := "Sistem hatası oluştu: backend exploded"
	if res.Answer != want {
		t.Fatalf("answer = %q, want %q", res.Answer, want)
	}
	if res.Iterations != 0 || len(res.ModelsUsed) != 0 || len(res.ToolsCalled) != 0 {
		t.Fatalf("expected empty stats after panic, got %+v", res)
	}
	if res.RunID == "" {
		t.Fatal("run ID should survive the panic path")
	}
}

func TestRunContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sup := supervisorScript(state.AgentResearcher)
	e := newTestEngine(sup)

	res := e.Run(ctx, "merhaba", "auto")
	if !strings.HasPrefix(res.Answer, "Sistem hatası oluştu: ") {
		t.Fatalf("answer = %q, want system error prefix", res.Answer)
	}
	if sup.runs != 0 {
		t.Fatal("no node should run after cancellation")
	}
}

func TestNextNodeTable(t *testing.T) {
	tests := []struct {
		name     string
		current  string
		next     string
		answer   string
		wantNode string
		wantDone bool
	}{
		{"researcher returns to supervisor", state.AgentResearcher, "", "", state.AgentSupervisor, false},
		{"coder returns to supervisor", state.AgentCoder, "", "", state.AgentSupervisor, false},
		{"reviewer returns to supervisor", state.AgentReviewer, "", "", state.AgentSupervisor, false},
		{"formatter returns to supervisor", state.AgentFormatter, state.AgentFormatter, "", state.AgentSupervisor, false},
		{"formatter after finish decision ends", state.AgentFormatter, state.DecisionFinish, "cevap", "", true},
		{"supervisor routes to worker", state.AgentSupervisor, state.AgentCoder, "", state.AgentCoder, false},
		{"finish with answer ends", state.AgentSupervisor, state.DecisionFinish, "cevap", "", true},
		{"finish without answer diverts", state.AgentSupervisor, state.DecisionFinish, "", state.AgentFormatter, false},
		{"unknown target ends", state.AgentSupervisor, "oracle", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := state.New("soru")
			st.NextAgent = tt.next
			st.FinalAnswer = tt.answer

			got, done := nextNode(tt.current, st)
			if done != tt.wantDone {
				t.Fatalf("done = %v, want %v", done, tt.wantDone)
			}
			if !done && got != tt.wantNode {
				t.Fatalf("next = %q, want %q", got, tt.wantNode)
			}
		})
	}
}
