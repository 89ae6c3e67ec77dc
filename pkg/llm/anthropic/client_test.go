package anthropic

import (
	"testing"

	"conductor/pkg/llm"
)

func TestEnsureAlternationExtractsSystem(t *testing.T) {
	system, msgs, err := ensureAlternation([]llm.CompletionMessage{
		llm.NewSystemMessage("be brief"),
		llm.NewUserMessage("hello"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if system != "be brief" {
		t.Errorf("expected system prompt extracted, got %q", system)
	}
	if len(msgs) != 1 || msgs[0].Role != llm.RoleUser {
		t.Errorf("unexpected messages: %+v", msgs)
	}
}

func TestEnsureAlternationMergesConsecutiveUsers(t *testing.T) {
	_, msgs, err := ensureAlternation([]llm.CompletionMessage{
		llm.NewUserMessage("part one"),
		llm.NewUserMessage("part two"),
		llm.NewAssistantMessage("answer"),
		llm.NewUserMessage("followup"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 3 {
		t.Fatalf("expected 3 merged messages, got %d", len(msgs))
	}
	if msgs[0].Content != "part one\n\npart two" {
		t.Errorf("consecutive user messages should merge, got %q", msgs[0].Content)
	}
	for i := 1; i < len(msgs); i++ {
		if msgs[i].Role == msgs[i-1].Role {
			t.Errorf("alternation broken at %d", i)
		}
	}
}

func TestEnsureAlternationRejectsTrailingAssistant(t *testing.T) {
	_, _, err := ensureAlternation([]llm.CompletionMessage{
		llm.NewUserMessage("q"),
		llm.NewAssistantMessage("a"),
	})
	if err == nil {
		t.Error("expected error when last message is assistant")
	}
}

func TestEnsureAlternationRejectsEmpty(t *testing.T) {
	if _, _, err := ensureAlternation(nil); err == nil {
		t.Error("expected error for empty messages")
	}
	if _, _, err := ensureAlternation([]llm.CompletionMessage{llm.NewSystemMessage("only system")}); err == nil {
		t.Error("expected error for system-only messages")
	}
}

func TestExtractStatusCode(t *testing.T) {
	cases := map[string]int{
		"request failed with status code: 429 too many requests": 429,
		"HTTP 503 service unavailable":                           503,
		"no code here":                                           0,
	}
	for in, want := range cases {
		if got := extractStatusCode(in); got != want {
			t.Errorf("extractStatusCode(%q) = %d, want %d", in, got, want)
		}
	}
}
