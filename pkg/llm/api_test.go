package llm

import (
	"io"
	"testing"
)

func TestNewCompletionRequestDefaults(t *testing.T) {
	req := NewCompletionRequest([]CompletionMessage{NewUserMessage("hi")})
	if req.MaxTokens != 4096 {
		t.Errorf("expected default max tokens 4096, got %d", req.MaxTokens)
	}
	if req.Temperature != TemperatureDefault {
		t.Errorf("expected default temperature %v, got %v", TemperatureDefault, req.Temperature)
	}
}

func TestMessageConstructors(t *testing.T) {
	sys := NewSystemMessage("instructions")
	if sys.Role != RoleSystem || sys.Content != "instructions" {
		t.Errorf("unexpected system message: %+v", sys)
	}
	user := NewUserMessage("question")
	if user.Role != RoleUser {
		t.Errorf("unexpected user role: %s", user.Role)
	}
	asst := NewAssistantMessage("answer")
	if asst.Role != RoleAssistant {
		t.Errorf("unexpected assistant role: %s", asst.Role)
	}
}

func TestLLMConfigValidate(t *testing.T) {
	valid := LLMConfig{ModelName: "m", MaxTokens: 100, Temperature: 0.5}
	if err := valid.Validate(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}

	cases := []LLMConfig{
		{ModelName: "", MaxTokens: 100, Temperature: 0.5},
		{ModelName: "m", MaxTokens: 0, Temperature: 0.5},
		{ModelName: "m", MaxTokens: 100, Temperature: 2.5},
	}
	for i, cfg := range cases {
		if err := cfg.Validate(); err == nil {
			t.Errorf("case %d: expected validation error", i)
		}
	}
}

func TestStreamToReader(t *testing.T) {
	ch := make(chan StreamChunk, 3)
	ch <- StreamChunk{Content: "hello "}
	ch <- StreamChunk{Content: "world"}
	ch <- StreamChunk{Done: true}
	close(ch)

	data, err := io.ReadAll(StreamToReader(ch))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "hello world" {
		t.Errorf("got %q", string(data))
	}
}
