package tools

import (
	"context"
	"strings"
	"testing"

	"conductor/pkg/config"
	"conductor/pkg/sandbox"
)

func TestCodeExecuteRejectsBlockedCode(t *testing.T) {
	tool := NewCodeExecuteTool(sandbox.New(config.Default().Sandbox))

	res, err := tool.Exec(context.Background(), map[string]any{"code": "import subprocess"})
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsError {
		t.Error("blocked code should produce an error result")
	}
	if !strings.Contains(res.Content, "Güvenlik Hatası") {
		t.Errorf("unexpected content: %s", res.Content)
	}
}

func TestCodeExecuteMissingCode(t *testing.T) {
	tool := NewCodeExecuteTool(sandbox.New(config.Default().Sandbox))
	if _, err := tool.Exec(context.Background(), map[string]any{}); err == nil {
		t.Error("expected error for missing code argument")
	}
}
