// Package tools provides the tool implementations and registry that agents
// use to reach outside the conversation: web search, document retrieval, and
// sandboxed code execution.
package tools

import "context"

// Property describes a single parameter in a tool's input schema.
type Property struct {
	Type        string              `json:"type"`
	Description string              `json:"description,omitempty"`
	Enum        []string            `json:"enum,omitempty"`
	Items       *Property           `json:"items,omitempty"`
	Properties  map[string]Property `json:"properties,omitempty"`
}

// InputSchema is a JSON-schema style description of a tool's parameters.
type InputSchema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties,omitempty"`
	Required   []string            `json:"required,omitempty"`
}

// ToolDefinition describes a tool to the LLM in provider-neutral form.
// Provider clients convert this to their SDK's native tool format.
type ToolDefinition struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	InputSchema InputSchema `json:"input_schema"`
}

// ExecResult is the outcome of a tool execution. Content is the text placed
// into the conversation; IsError marks results the agent should treat as a
// failed attempt rather than an answer.
type ExecResult struct {
	Content string
	IsError bool
}

// Tool is the interface all agent tools implement.
type Tool interface {
	// Name returns the tool's identifier.
	Name() string
	// Definition returns the tool definition for the LLM.
	Definition() ToolDefinition
	// PromptDocumentation returns formatted tool documentation for prompts.
	PromptDocumentation() string
	// Exec executes the tool with the given arguments.
	Exec(ctx context.Context, args map[string]any) (*ExecResult, error)
}
