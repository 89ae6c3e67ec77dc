package agents

import (
	"context"
	"fmt"
	"strings"
	"time"

	"conductor/pkg/config"
	"conductor/pkg/llm"
	"conductor/pkg/router"
	"conductor/pkg/state"
)

// Formatter turns the accumulated raw results into the final user-facing
// answer. Runs on the fast backend; on failure the raw content is
// returned with a failure marker rather than losing it.
type Formatter struct {
	deps
}

// NewFormatter creates the formatter node.
func NewFormatter(r Selector) *Formatter {
	return &Formatter{deps: newDeps(r, state.AgentFormatter)}
}

// Name implements Node.
func (a *Formatter) Name() string { return state.AgentFormatter }

// Run writes the formatted answer to FinalAnswer.
func (a *Formatter) Run(ctx context.Context, st *state.RunState) {
	start := time.Now()
	status := "success"
	defer func() { a.observeTurn(state.AgentFormatter, status, start) }()

	content := formatterContent(st)

	modelName, formatted, err := a.format(ctx, st.Query, content)
	if err != nil {
		a.logger.Error("formatting failed, returning raw content: %v", err)
		status = "degraded"
		formatted = "(Formatlama başarısız - ham sonuç)\n\n" + content
	}

	st.FinalAnswer = formatted
	if modelName != "" {
		st.RecordModel("formatter:" + modelName)
	}
	st.AppendMessage(state.AgentFormatter, "Final cevap hazırlandı")
}

func (a *Formatter) format(ctx context.Context, query, content string) (string, string, error) {
	client, modelName, _, err := a.router.Select(ctx, query, config.ModeFast, router.TaskFormatting)
	if err != nil {
		return "", "", err
	}

	msgs := []llm.CompletionMessage{
		llm.NewSystemMessage(formatterSystemPrompt),
		llm.NewUserMessage(fmt.Sprintf(
			"Kullanıcının sorusu: %s\n\n"+
				"Ham sonuçlar:\n%s\n\n"+
				"Bu sonuçları düzenle ve kullanıcıya sunulmak üzere formatla.",
			query, a.budget(content))),
	}

	resp, err := a.complete(ctx, client, llm.NewCompletionRequest(msgs))
	if err != nil {
		return modelName, "", err
	}
	return modelName, resp.Content, nil
}

// formatterContent assembles every available scratch slot; with nothing
// accumulated yet, the query itself is formatted.
func formatterContent(st *state.RunState) string {
	var parts []string
	if st.SearchResults != "" {
		parts = append(parts, "Araştırma Sonuçları:\n"+st.SearchResults)
	}
	if st.CodeResults != "" {
		parts = append(parts, "Kod Sonuçları:\n"+st.CodeResults)
	}
	if st.ReviewNotes != "" {
		parts = append(parts, "İnceleme Notları:\n"+st.ReviewNotes)
	}
	if len(parts) == 0 {
		return st.Query
	}
	return strings.Join(parts, "\n\n---\n\n")
}
