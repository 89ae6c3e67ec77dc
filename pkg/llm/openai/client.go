// Package openai provides the OpenAI client implementation using the official OpenAI Go package.
package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"

	"conductor/pkg/llm"
	"conductor/pkg/llm/llmerrors"
	"conductor/pkg/tools"
)

// Client wraps the official OpenAI Go client to implement llm.LLMClient.
type Client struct {
	client openai.Client
	model  string
}

// NewClient creates a new OpenAI client for the given model.
func NewClient(apiKey, model string) *Client {
	return &Client{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

// convertPropertyToSchema recursively converts a Property to OpenAI schema format.
func convertPropertyToSchema(prop *tools.Property) map[string]interface{} {
	schema := map[string]interface{}{
		"type":        prop.Type,
		"description": prop.Description,
	}

	if len(prop.Enum) > 0 {
		schema["enum"] = prop.Enum
	}

	if prop.Type == "array" && prop.Items != nil {
		schema["items"] = convertPropertyToSchema(prop.Items)
	}

	if prop.Type == "object" && prop.Properties != nil {
		properties := make(map[string]interface{})
		for name := range prop.Properties {
			child := prop.Properties[name]
			properties[name] = convertPropertyToSchema(&child)
		}
		schema["properties"] = properties
	}

	return schema
}

// Complete implements the llm.LLMClient interface using the Responses API.
//
//nolint:gocritic // CompletionRequest passed by value matches interface
func (o *Client) Complete(ctx context.Context, in llm.CompletionRequest) (llm.CompletionResponse, error) {
	// The Responses API takes a single input string; flatten the conversation.
	var inputText strings.Builder
	for i := range in.Messages {
		msg := &in.Messages[i]
		switch msg.Role {
		case llm.RoleSystem:
			fmt.Fprintf(&inputText, "System: %s\n\n", msg.Content)
		case llm.RoleUser, llm.RoleTool:
			inputText.WriteString(msg.Content)
			inputText.WriteString("\n\n")
		case llm.RoleAssistant:
			fmt.Fprintf(&inputText, "Assistant: %s\n\n", msg.Content)
		}
	}

	params := responses.ResponseNewParams{
		Model:           o.model,
		MaxOutputTokens: openai.Int(int64(in.MaxTokens)),
		Input:           responses.ResponseNewParamsInputUnion{OfString: openai.String(strings.TrimSpace(inputText.String()))},
	}

	if len(in.Tools) > 0 {
		toolParams := make([]responses.ToolUnionParam, len(in.Tools))
		for i := range in.Tools {
			tool := &in.Tools[i]
			properties := make(map[string]interface{})
			for name := range tool.InputSchema.Properties {
				prop := tool.InputSchema.Properties[name]
				properties[name] = convertPropertyToSchema(&prop)
			}

			toolParams[i] = responses.ToolUnionParam{
				OfFunction: &responses.FunctionToolParam{
					Name:        tool.Name,
					Description: openai.String(tool.Description),
					Parameters: openai.FunctionParameters(map[string]interface{}{
						"type":       "object",
						"properties": properties,
						"required":   tool.InputSchema.Required,
					}),
				},
			}
		}
		params.Tools = toolParams
	}

	resp, err := o.client.Responses.New(ctx, params)
	if err != nil {
		return llm.CompletionResponse{}, classifyError(err)
	}

	if resp == nil {
		return llm.CompletionResponse{}, llmerrors.NewError(llmerrors.ErrorTypeEmptyResponse, "empty response from OpenAI Responses API")
	}

	var toolCalls []llm.ToolCall
	for i := range resp.Output {
		item := &resp.Output[i]
		if item.Type != "function_call" {
			continue
		}
		funcItem := item.AsFunctionCall()
		var parameters map[string]interface{}
		if funcItem.Arguments != "" {
			if err := json.Unmarshal([]byte(funcItem.Arguments), &parameters); err != nil {
				continue
			}
		}
		toolCalls = append(toolCalls, llm.ToolCall{
			ID:         funcItem.ID,
			Name:       funcItem.Name,
			Parameters: parameters,
		})
	}

	return llm.CompletionResponse{
		Content:    resp.OutputText(),
		ToolCalls:  toolCalls,
		StopReason: "end_turn",
	}, nil
}

// Stream implements the llm.LLMClient interface by wrapping Complete.
//
//nolint:gocritic // CompletionRequest passed by value matches interface
func (o *Client) Stream(ctx context.Context, in llm.CompletionRequest) (<-chan llm.StreamChunk, error) {
	ch := make(chan llm.StreamChunk, 1)
	go func() {
		defer close(ch)
		resp, err := o.Complete(ctx, in)
		if err != nil {
			ch <- llm.StreamChunk{Error: err}
			return
		}
		ch <- llm.StreamChunk{Content: resp.Content}
		ch <- llm.StreamChunk{Done: true}
	}()
	return ch, nil
}

// GetModelName returns the model name for this client.
func (o *Client) GetModelName() string {
	return o.model
}

// classifyError converts OpenAI errors to our error types.
func classifyError(err error) error {
	if err == nil {
		return nil
	}

	lower := strings.ToLower(err.Error())
	switch {
	case strings.Contains(lower, "429"), strings.Contains(lower, "rate limit"):
		return llmerrors.NewErrorWithCause(llmerrors.ErrorTypeRateLimit, err, "OpenAI rate limit")
	case strings.Contains(lower, "401"), strings.Contains(lower, "403"), strings.Contains(lower, "api key"):
		return llmerrors.NewErrorWithCause(llmerrors.ErrorTypeAuth, err, "OpenAI authentication failed")
	case strings.Contains(lower, "500"), strings.Contains(lower, "503"), strings.Contains(lower, "timeout"):
		return llmerrors.NewErrorWithCause(llmerrors.ErrorTypeTransient, err, "OpenAI transient error")
	default:
		return llmerrors.NewErrorWithCause(llmerrors.ErrorTypeUnknown, err, "OpenAI Responses API failed")
	}
}
