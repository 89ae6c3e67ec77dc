package agents

import (
	"context"
	"fmt"
	"time"

	"conductor/pkg/llm"
	"conductor/pkg/logx"
)

// toolLoopMaxIterations bounds one node's tool-calling conversation.
const toolLoopMaxIterations = 5

// runToolLoop drives a tool-calling conversation until the model answers
// without requesting a tool. The returned string is the model's final
// content. Errors mean the flow is unusable (backend failure or the
// iteration cap); callers fall back to their manual strategy.
func (d *deps) runToolLoop(
	ctx context.Context,
	client llm.LLMClient,
	provider ToolProvider,
	systemPrompt string,
	conversation []llm.CompletionMessage,
) (string, error) {
	logger := d.logger
	msgs := make([]llm.CompletionMessage, 0, len(conversation)+1)
	msgs = append(msgs, llm.NewSystemMessage(systemPrompt))
	msgs = append(msgs, conversation...)

	toolDefs := provider.Definitions()

	for iteration := 0; iteration < toolLoopMaxIterations; iteration++ {
		req := llm.NewCompletionRequest(msgs)
		req.Tools = toolDefs

		logger.Info("tool loop: calling %s with %d messages, %d tools (iteration %d)",
			client.GetModelName(), len(msgs), len(toolDefs), iteration+1)

		start := time.Now()
		resp, err := d.complete(ctx, client, req)
		if err != nil {
			return "", fmt.Errorf("LLM completion failed: %w", err)
		}
		logger.Debug("tool loop: completion took %.3gs, %d tool calls",
			time.Since(start).Seconds(), len(resp.ToolCalls))

		msgs = append(msgs, llm.CompletionMessage{
			Role:      llm.RoleAssistant,
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})

		if len(resp.ToolCalls) == 0 {
			return resp.Content, nil
		}

		// Every requested tool gets a result, including lookup failures.
		results := make([]llm.ToolResult, 0, len(resp.ToolCalls))
		for i := range resp.ToolCalls {
			call := &resp.ToolCalls[i]
			results = append(results, executeToolCall(ctx, logger, provider, call))
		}
		msgs = append(msgs, llm.CompletionMessage{
			Role:        llm.RoleTool,
			ToolResults: results,
		})
	}

	return "", fmt.Errorf("maximum tool iterations (%d) exceeded", toolLoopMaxIterations)
}

func executeToolCall(ctx context.Context, logger *logx.Logger, provider ToolProvider, call *llm.ToolCall) llm.ToolResult {
	result := llm.ToolResult{
		ToolCallID: call.ID,
		Name:       call.Name,
	}

	tool, err := provider.Get(call.Name)
	if err != nil {
		logger.Warn("tool %s unavailable: %v", call.Name, err)
		result.Content = err.Error()
		result.IsError = true
		return result
	}

	start := time.Now()
	execResult, err := tool.Exec(ctx, call.Parameters)
	if err != nil {
		logger.Warn("tool %s failed after %.3fs: %v", call.Name, time.Since(start).Seconds(), err)
		result.Content = err.Error()
		result.IsError = true
		return result
	}

	logger.Info("tool %s completed in %.3fs", call.Name, time.Since(start).Seconds())
	result.Content = execResult.Content
	result.IsError = execResult.IsError
	return result
}
