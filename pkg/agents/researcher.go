package agents

import (
	"context"
	"fmt"
	"time"

	"conductor/pkg/config"
	"conductor/pkg/llm"
	"conductor/pkg/router"
	"conductor/pkg/state"
	"conductor/pkg/tools"
)

// Researcher gathers information via the web-search and doc-search
// tools and writes a sourced summary to SearchResults.
type Researcher struct {
	deps
	tools ToolProvider
}

// NewResearcher creates the researcher node.
func NewResearcher(r Selector, provider ToolProvider) *Researcher {
	return &Researcher{
		deps:  newDeps(r, state.AgentResearcher),
		tools: provider,
	}
}

// Name implements Node.
func (a *Researcher) Name() string { return state.AgentResearcher }

// Run performs the research and updates the state. Strategies are tried
// in order: the tool-calling flow, then a manual search-then-summarize
// fallback. Total failure degrades into an error string in
// SearchResults, never an error.
func (a *Researcher) Run(ctx context.Context, st *state.RunState) {
	start := time.Now()
	status := "success"
	defer func() { a.observeTurn(state.AgentResearcher, status, start) }()

	client, modelName, _, err := a.router.Select(ctx, st.Query, config.ModeAccurate, router.TaskResearch)
	if err != nil {
		a.logger.Error("backend selection failed: %v", err)
		status = "degraded"
		a.conclude(st, "", fmt.Sprintf("Araştırma sırasında hata oluştu: %v", err))
		return
	}

	result, err := a.research(ctx, client, st)
	if err != nil {
		a.logger.Error("researcher failed on all strategies: %v", err)
		status = "degraded"
		result = fmt.Sprintf("Araştırma sırasında hata oluştu: %v", err)
	}

	a.conclude(st, modelName, result)
}

// research tries the tool-calling flow first, then the manual fallback.
func (a *Researcher) research(ctx context.Context, client llm.LLMClient, st *state.RunState) (string, error) {
	conversation := transcriptMessages(st)
	conversation = append(conversation, llm.NewUserMessage(st.Query))

	result, err := a.runToolLoop(ctx, client, a.tools, researcherSystemPrompt, conversation)
	if err == nil {
		return result, nil
	}
	a.logger.Warn("tool-calling flow failed, using manual fallback: %v", err)

	return a.manualSearch(ctx, client, st.Query)
}

// manualSearch invokes the search tool directly and has the backend
// summarize whatever came back.
func (a *Researcher) manualSearch(ctx context.Context, client llm.LLMClient, query string) (string, error) {
	tool, err := a.tools.Get(tools.ToolWebSearch)
	if err != nil {
		return "", err
	}

	searchResult, err := tool.Exec(ctx, map[string]any{"query": query})
	if err != nil {
		return "", err
	}

	msgs := []llm.CompletionMessage{
		llm.NewSystemMessage(researcherSystemPrompt),
		llm.NewUserMessage(fmt.Sprintf(
			"Şu sorgu için web araması yapıldı: '%s'\n\n"+
				"Arama sonuçları:\n%s\n\n"+
				"Bu sonuçları özetle ve kullanıcıya faydalı bilgiler sun.",
			query, searchResult.Content)),
	}

	resp, err := a.complete(ctx, client, llm.NewCompletionRequest(msgs))
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

func (a *Researcher) conclude(st *state.RunState, modelName, result string) {
	st.SearchResults = result
	st.RecordTool(tools.ToolWebSearch)
	if modelName != "" {
		st.RecordModel("researcher:" + modelName)
	}
	st.AppendMessage(state.AgentResearcher, "Araştırma sonuçları: "+head(result, 500))
}
