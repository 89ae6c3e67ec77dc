package agents

import (
	"context"
	"errors"
	"strings"
	"testing"

	"conductor/internal/mocks"
	"conductor/pkg/state"
)

func TestSupervisorRoutesDecision(t *testing.T) {
	client := mocks.NewMockLLMClient()
	client.RespondWith(`{"next": "coder", "reason": "hesaplama gerekli"}`)
	sel := newStubSelector(client)

	sup := NewSupervisor(sel, 10)
	st := state.New("fibonacci hesapla")
	st.AppendMessage("user", st.Query)

	sup.Run(context.Background(), st)

	if st.NextAgent != state.AgentCoder {
		t.Errorf("NextAgent = %q, want coder", st.NextAgent)
	}
	if st.IterationCount != 1 {
		t.Errorf("IterationCount = %d, want 1", st.IterationCount)
	}
	if len(st.ModelsUsed) != 1 || st.ModelsUsed[0] != "supervisor:test-model" {
		t.Errorf("ModelsUsed = %v", st.ModelsUsed)
	}
	last := st.Messages[len(st.Messages)-1]
	if last.From != state.AgentSupervisor || last.Content != "Supervisor kararı: coder" {
		t.Errorf("message = %+v", last)
	}
	if sel.modes[0] != "accurate" {
		t.Errorf("mode = %q, want accurate", sel.modes[0])
	}
}

func TestSupervisorStateSummaryInPrompt(t *testing.T) {
	client := mocks.NewMockLLMClient()
	client.RespondWith(`{"next": "FINISH", "reason": "tamam"}`)
	sel := newStubSelector(client)

	sup := NewSupervisor(sel, 10)
	st := state.New("soru")
	st.AppendMessage("user", st.Query)
	st.SearchResults = "bulunan bilgiler"

	sup.Run(context.Background(), st)

	req := client.CompleteCalls[0]
	lastMsg := req.Messages[len(req.Messages)-1].Content
	for _, want := range []string{"bulunan bilgiler", "Henüz yok"} {
		if !strings.Contains(lastMsg, want) {
			t.Errorf("state summary missing %q:\n%s", want, lastMsg)
		}
	}
}

func TestSupervisorIterationCapForcesFinish(t *testing.T) {
	client := mocks.NewMockLLMClient()
	client.RespondWith(`{"next": "researcher", "reason": "devam"}`)
	sel := newStubSelector(client)

	sup := NewSupervisor(sel, 10)
	st := state.New("araştır bunu")
	st.IterationCount = 9

	sup.Run(context.Background(), st)

	if st.NextAgent != state.DecisionFinish {
		t.Errorf("NextAgent = %q, want FINISH at cap", st.NextAgent)
	}
	if st.IterationCount != 10 {
		t.Errorf("IterationCount = %d, want 10", st.IterationCount)
	}
}

func TestSupervisorBackendFailureEndsRun(t *testing.T) {
	client := mocks.NewMockLLMClient()
	client.FailCompleteWith(errors.New("rate limited"))
	sel := newStubSelector(client)

	sup := NewSupervisor(sel, 10)
	st := state.New("soru")

	sup.Run(context.Background(), st)

	if st.NextAgent != state.DecisionFinish {
		t.Errorf("NextAgent = %q, want FINISH on failure", st.NextAgent)
	}
	if st.IterationCount != 1 {
		t.Errorf("IterationCount = %d, want 1", st.IterationCount)
	}
}

func TestSupervisorSelectorFailureEndsRun(t *testing.T) {
	sel := &stubSelector{err: errors.New("no credential")}

	sup := NewSupervisor(sel, 10)
	st := state.New("soru")

	sup.Run(context.Background(), st)

	if st.NextAgent != state.DecisionFinish {
		t.Errorf("NextAgent = %q, want FINISH", st.NextAgent)
	}
	if len(st.ModelsUsed) != 0 {
		t.Errorf("ModelsUsed = %v, want empty", st.ModelsUsed)
	}
	if len(st.Messages) != 1 {
		t.Errorf("Messages = %d, want exactly one appended", len(st.Messages))
	}
}
