package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"conductor/pkg/config"
	"conductor/pkg/logx"
)

// DocSearchTool queries an external document-retrieval service for semantic
// search over the local document collection (PDF, DOCX, TXT). When no service
// is configured the tool reports that instead of failing the agent.
type DocSearchTool struct {
	httpClient *http.Client
	logger     *logx.Logger
	baseURL    string
	topK       int
}

// NewDocSearchTool creates a doc search tool pointed at the configured
// retrieval service.
func NewDocSearchTool(cfg config.RetrievalConfig) *DocSearchTool {
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &DocSearchTool{
		httpClient: &http.Client{Timeout: timeout},
		logger:     logx.NewLogger("doc-search"),
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		topK:       5,
	}
}

// Name returns the tool name.
func (t *DocSearchTool) Name() string {
	return ToolDocSearch
}

// PromptDocumentation returns formatted tool documentation for prompts.
func (t *DocSearchTool) PromptDocumentation() string {
	return `- **doc_search** - Semantic search over the local document collection
  - Parameters: query (string, REQUIRED)
  - Use when the question may be answered by local documents
  - Returns the retrieval answer with source references`
}

// Definition returns the tool definition for the LLM.
func (t *DocSearchTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name: ToolDocSearch,
		Description: `Search the local document collection with semantic retrieval.
Use this before web search when the question may concern internal or previously
ingested documents. Returns an answer synthesized from matching documents plus
source references.`,
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"query": {
					Type:        "string",
					Description: "Question or topic to search the documents for",
				},
			},
			Required: []string{"query"},
		},
	}
}

// retrievalRequest is the JSON body sent to the retrieval service.
type retrievalRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

// retrievalResponse is the JSON body returned by the retrieval service.
type retrievalResponse struct {
	Answer  string   `json:"answer"`
	Sources []string `json:"sources"`
}

// Exec executes the doc search tool. Service failures come back as error
// results the agent can report, not Go errors.
func (t *DocSearchTool) Exec(ctx context.Context, args map[string]any) (*ExecResult, error) {
	query, ok := args["query"].(string)
	if !ok || query == "" {
		return nil, fmt.Errorf("query is required and must be a string")
	}

	if t.baseURL == "" {
		return &ExecResult{
			Content: "Doküman arama servisi yapılandırılmamış.",
			IsError: true,
		}, nil
	}

	t.logger.Info("Doküman araması: %q", query)

	body, err := json.Marshal(retrievalRequest{Query: query, TopK: t.topK})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/query", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		t.logger.Error("RAG tool hatası: %v", err)
		return &ExecResult{
			Content: fmt.Sprintf("RAG Hatası: %v", err),
			IsError: true,
		}, nil
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &ExecResult{
			Content: fmt.Sprintf("RAG Hatası: %v", err),
			IsError: true,
		}, nil
	}

	if resp.StatusCode != http.StatusOK {
		t.logger.Error("RAG tool hatası: status %d", resp.StatusCode)
		return &ExecResult{
			Content: fmt.Sprintf("RAG Hatası: servis %d döndürdü", resp.StatusCode),
			IsError: true,
		}, nil
	}

	var result retrievalResponse
	if unmarshalErr := json.Unmarshal(respBody, &result); unmarshalErr != nil {
		return &ExecResult{
			Content: fmt.Sprintf("RAG Hatası: %v", unmarshalErr),
			IsError: true,
		}, nil
	}

	answer := result.Answer
	if answer == "" {
		answer = "Cevap üretilemedi."
	}

	return &ExecResult{
		Content: fmt.Sprintf("%s\n\nKaynaklar: %s", answer, strings.Join(result.Sources, ", ")),
	}, nil
}
