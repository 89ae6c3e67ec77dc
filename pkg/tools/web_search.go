package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"conductor/pkg/config"
	"conductor/pkg/logx"
)

// SearchResult represents a single search result from any provider.
type SearchResult struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
}

// SearchProvider defines the interface for web search backends.
type SearchProvider interface {
	// Name returns a human-readable name for the provider.
	Name() string
	// Search performs a web search and returns results.
	Search(ctx context.Context, query string, maxResults int) ([]SearchResult, error)
}

// WebSearchTool lets the researcher agent search the web for current
// information. Results are formatted as markdown the model can cite from.
type WebSearchTool struct {
	provider   SearchProvider
	logger     *logx.Logger
	maxResults int
}

// NewWebSearchTool creates a web search tool with the best available provider.
func NewWebSearchTool() *WebSearchTool {
	return &WebSearchTool{
		provider:   selectProvider(),
		logger:     logx.NewLogger("web-search"),
		maxResults: 5,
	}
}

// NewWebSearchToolWithProvider creates a web search tool with a specific provider.
// Useful for testing or when you want to override the default provider selection.
func NewWebSearchToolWithProvider(provider SearchProvider) *WebSearchTool {
	return &WebSearchTool{
		provider:   provider,
		logger:     logx.NewLogger("web-search"),
		maxResults: 5,
	}
}

// selectProvider chooses the best available search provider.
// Priority: Google Custom Search > DuckDuckGo (fallback).
func selectProvider() SearchProvider {
	status := config.DetectSearchAPIs()
	if status.Available && status.Provider == "google" {
		return NewGoogleSearchProvider(status.GoogleAPIKey, status.GoogleCX)
	}
	return NewDuckDuckGoProvider()
}

// Name returns the tool name.
func (t *WebSearchTool) Name() string {
	return ToolWebSearch
}

// PromptDocumentation returns formatted tool documentation for prompts.
func (t *WebSearchTool) PromptDocumentation() string {
	return `- **web_search** - Search the web for current information
  - Parameters: query (string, REQUIRED)
  - Use for research, fact checking, and gathering up-to-date information
  - Returns formatted search results with titles, sources, and summaries`
}

// Definition returns the tool definition for the LLM.
func (t *WebSearchTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name: ToolWebSearch,
		Description: `Search the web and return current information. Use this tool when:
- The question concerns facts, events, or data you are not certain about
- The user explicitly asks for research or up-to-date information
- You need sources to back up an answer
Returns search results with titles, source URLs, and summaries.`,
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"query": {
					Type:        "string",
					Description: "Search query string",
				},
			},
			Required: []string{"query"},
		},
	}
}

// Exec executes the web search tool. Search failures come back as error
// results the agent can report, not Go errors.
func (t *WebSearchTool) Exec(ctx context.Context, args map[string]any) (*ExecResult, error) {
	query, ok := args["query"].(string)
	if !ok || query == "" {
		return nil, fmt.Errorf("query is required and must be a string")
	}

	t.logger.Info("Web araması başlatılıyor: %q (provider=%s)", query, t.provider.Name())

	results, err := t.provider.Search(ctx, query, t.maxResults)
	if err != nil {
		t.logger.Error("Web araması sırasında hata oluştu: %v", err)
		return &ExecResult{
			Content: fmt.Sprintf("Hata: Web araması sırasında hata oluştu: %v", err),
			IsError: true,
		}, nil
	}

	if len(results) == 0 {
		t.logger.Warn("Arama sonucu bulunamadı: %q", query)
		return &ExecResult{
			Content: fmt.Sprintf("'%s' için arama sonucu bulunamadı.", query),
		}, nil
	}

	t.logger.Info("Web araması tamamlandı: %d sonuç", len(results))
	return &ExecResult{Content: FormatSearchResults(query, results)}, nil
}

// FormatSearchResults renders results as the markdown block agents place
// into the conversation.
func FormatSearchResults(query string, results []SearchResult) string {
	blocks := make([]string, 0, len(results))
	for i := range results {
		r := &results[i]
		title := r.Title
		if title == "" {
			title = "Başlıksız"
		}
		source := r.URL
		if source == "" {
			source = "Bilinmiyor"
		}
		desc := r.Description
		if desc == "" {
			desc = "Özet yok"
		}
		blocks = append(blocks, fmt.Sprintf("**%s**\nKaynak: %s\nÖzet: %s\n", title, source, desc))
	}
	return fmt.Sprintf("## Arama Sonuçları: '%s'\n\n%s", query, strings.Join(blocks, "\n---\n"))
}

// =============================================================================
// Google Custom Search Provider
// =============================================================================

// GoogleSearchProvider implements SearchProvider using Google Custom Search API.
type GoogleSearchProvider struct {
	httpClient *http.Client
	apiKey     string
	cx         string
}

// NewGoogleSearchProvider creates a new Google Custom Search provider.
func NewGoogleSearchProvider(apiKey, cx string) *GoogleSearchProvider {
	return &GoogleSearchProvider{
		apiKey: apiKey,
		cx:     cx,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Name returns the provider name.
func (p *GoogleSearchProvider) Name() string {
	return "google"
}

type googleSearchItem struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

type googleSearchError struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}

type googleSearchResponse struct {
	Error *googleSearchError `json:"error"`
	Items []googleSearchItem `json:"items"`
}

// Search performs a web search using Google Custom Search API.
func (p *GoogleSearchProvider) Search(ctx context.Context, query string, maxResults int) ([]SearchResult, error) {
	// API docs: https://developers.google.com/custom-search/v1/reference/rest/v1/cse/list
	searchURL := fmt.Sprintf(
		"https://www.googleapis.com/customsearch/v1?key=%s&cx=%s&q=%s&num=%d",
		url.QueryEscape(p.apiKey),
		url.QueryEscape(p.cx),
		url.QueryEscape(query),
		maxResults,
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var googleResp googleSearchResponse
	if unmarshalErr := json.Unmarshal(body, &googleResp); unmarshalErr != nil {
		return nil, fmt.Errorf("failed to parse response: %w", unmarshalErr)
	}

	if googleResp.Error != nil {
		return nil, fmt.Errorf("API error %d: %s", googleResp.Error.Code, googleResp.Error.Message)
	}

	results := make([]SearchResult, 0, len(googleResp.Items))
	for i := range googleResp.Items {
		item := &googleResp.Items[i]
		results = append(results, SearchResult{
			Title:       item.Title,
			Description: item.Snippet,
			URL:         item.Link,
		})
	}

	return results, nil
}

// =============================================================================
// DuckDuckGo Provider (Fallback)
// =============================================================================

// DuckDuckGoProvider implements SearchProvider using DuckDuckGo's Instant Answer API.
// NOTE: This is a fallback provider with limited functionality. It only returns
// encyclopedic/instant answers, not general web search results.
type DuckDuckGoProvider struct {
	httpClient *http.Client
}

// NewDuckDuckGoProvider creates a new DuckDuckGo provider.
func NewDuckDuckGoProvider() *DuckDuckGoProvider {
	return &DuckDuckGoProvider{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Name returns the provider name.
func (p *DuckDuckGoProvider) Name() string {
	return "duckduckgo"
}

type duckDuckGoResponse struct {
	Abstract      string `json:"Abstract"`
	AbstractText  string `json:"AbstractText"`
	AbstractURL   string `json:"AbstractURL"`
	Heading       string `json:"Heading"`
	Answer        string `json:"Answer"`
	RelatedTopics []struct {
		Text     string `json:"Text"`
		FirstURL string `json:"FirstURL"`
	} `json:"RelatedTopics"`
	Results []struct {
		Text     string `json:"Text"`
		FirstURL string `json:"FirstURL"`
	} `json:"Results"`
}

// Search performs a search using DuckDuckGo's Instant Answer API.
// The API is limited to encyclopedic/instant answers and may return nothing
// for general queries.
func (p *DuckDuckGoProvider) Search(ctx context.Context, query string, maxResults int) ([]SearchResult, error) {
	searchURL := fmt.Sprintf("https://api.duckduckgo.com/?q=%s&format=json&no_html=1&skip_disambig=1",
		url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", "Conductor/1.0 (Research Agent)")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var ddgResp duckDuckGoResponse
	if unmarshalErr := json.Unmarshal(body, &ddgResp); unmarshalErr != nil {
		return nil, fmt.Errorf("failed to parse response: %w", unmarshalErr)
	}

	var results []SearchResult

	if ddgResp.AbstractText != "" {
		results = append(results, SearchResult{
			Title:       ddgResp.Heading,
			Description: ddgResp.AbstractText,
			URL:         ddgResp.AbstractURL,
		})
	}

	if ddgResp.Answer != "" {
		results = append(results, SearchResult{
			Title:       "Instant Answer",
			Description: ddgResp.Answer,
			URL:         "",
		})
	}

	for i := range ddgResp.RelatedTopics {
		topic := &ddgResp.RelatedTopics[i]
		if topic.Text != "" && len(results) < maxResults {
			results = append(results, SearchResult{
				Description: topic.Text,
				URL:         topic.FirstURL,
			})
		}
	}

	for i := range ddgResp.Results {
		ddgResult := &ddgResp.Results[i]
		if ddgResult.Text != "" && len(results) < maxResults {
			results = append(results, SearchResult{
				Description: ddgResult.Text,
				URL:         ddgResult.FirstURL,
			})
		}
	}

	return results, nil
}
