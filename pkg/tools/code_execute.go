package tools

import (
	"context"
	"fmt"

	"conductor/pkg/sandbox"
)

// CodeExecuteTool runs model-generated Python in the sandbox. Rejections,
// runtime errors, and timeouts are reported in the result content; the coder
// agent feeds them back into the conversation as-is.
type CodeExecuteTool struct {
	sandbox *sandbox.Sandbox
}

// NewCodeExecuteTool creates a code execution tool backed by the given sandbox.
func NewCodeExecuteTool(sb *sandbox.Sandbox) *CodeExecuteTool {
	return &CodeExecuteTool{sandbox: sb}
}

// Name returns the tool name.
func (t *CodeExecuteTool) Name() string {
	return ToolCodeExecute
}

// PromptDocumentation returns formatted tool documentation for prompts.
func (t *CodeExecuteTool) PromptDocumentation() string {
	return `- **code_execute** - Run a Python snippet in the sandbox
  - Parameters: code (string, REQUIRED)
  - Use for calculations, data processing, and verifying generated code
  - Dangerous modules (os, subprocess, ...) are blocked; runs are time-limited
  - Print results with print(), otherwise the run produces no output`
}

// Definition returns the tool definition for the LLM.
func (t *CodeExecuteTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name: ToolCodeExecute,
		Description: `Execute a Python snippet in a restricted sandbox and return its stdout.
Use for calculations, data processing, and validating generated code.
Imports of system modules (os, subprocess, sys, ...) and calls to eval/exec/open
are rejected before execution. Runs are killed after the configured timeout.
Always print() the values you want returned.`,
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"code": {
					Type:        "string",
					Description: "Python code to execute",
				},
			},
			Required: []string{"code"},
		},
	}
}

// Exec executes the code execution tool.
func (t *CodeExecuteTool) Exec(ctx context.Context, args map[string]any) (*ExecResult, error) {
	code, ok := args["code"].(string)
	if !ok || code == "" {
		return nil, fmt.Errorf("code is required and must be a string")
	}

	res := t.sandbox.Execute(ctx, code)
	return &ExecResult{
		Content: res.Message,
		IsError: !res.Succeeded(),
	}, nil
}
