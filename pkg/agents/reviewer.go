package agents

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"conductor/pkg/config"
	"conductor/pkg/llm"
	"conductor/pkg/router"
	"conductor/pkg/state"
)

// scorePattern extracts the numeric quality score from free-form review
// text ("Puan: 8" and similar).
var scorePattern = regexp.MustCompile(`[Pp]uan[:\s]*(\d+)`)

// negativeKeywords flag a review as requesting revision. Matched against
// the uppercased review text.
//
//nolint:gochecknoglobals // Static keyword table
var negativeKeywords = []string{
	"DÜZELTİ", "HATA", "YANLIŞ", "EKSİK", "NEEDS_REVISION", "GELİŞTİRİLMELİ",
}

const (
	defaultReviewScore = 7
	failedReviewScore  = 5
)

// Reviewer checks the accumulated worker results for quality. It runs on
// the fast backend; a broken reviewer must never block the pipeline, so
// any internal failure auto-approves with the error in the notes.
type Reviewer struct {
	deps
}

// NewReviewer creates the reviewer node.
func NewReviewer(r Selector) *Reviewer {
	return &Reviewer{deps: newDeps(r, state.AgentReviewer)}
}

// Name implements Node.
func (a *Reviewer) Name() string { return state.AgentReviewer }

// Run reviews the accumulated results and writes status, notes, and a
// transcript entry with the parsed score.
func (a *Reviewer) Run(ctx context.Context, st *state.RunState) {
	start := time.Now()
	status := "success"
	defer func() { a.observeTurn(state.AgentReviewer, status, start) }()

	content := reviewContent(st)

	modelName, reviewStatus, notes, score, err := a.review(ctx, st.Query, content)
	if err != nil {
		a.logger.Error("review failed, auto-approving: %v", err)
		status = "degraded"
		reviewStatus = state.ReviewApproved
		notes = fmt.Sprintf("Review sırasında hata oluştu: %v. Otomatik onay verildi.", err)
		score = failedReviewScore
	}

	st.ReviewStatus = reviewStatus
	st.ReviewNotes = notes
	if modelName != "" {
		st.RecordModel("reviewer:" + modelName)
	}
	st.AppendMessage(state.AgentReviewer,
		fmt.Sprintf("Review: %s (Puan: %d)", reviewStatus, score))
}

func (a *Reviewer) review(ctx context.Context, query, content string) (string, state.ReviewStatus, string, int, error) {
	client, modelName, _, err := a.router.Select(ctx, query, config.ModeFast, router.TaskReview)
	if err != nil {
		return "", state.ReviewUnset, "", 0, err
	}

	msgs := []llm.CompletionMessage{
		llm.NewSystemMessage(reviewerSystemPrompt),
		llm.NewUserMessage(fmt.Sprintf(
			"Orijinal soru: %s\n\n"+
				"Gözden geçirilecek içerik:\n%s\n\n"+
				"Bu içeriği kontrol et ve değerlendirmeni yap.",
			query, a.budget(content))),
	}

	resp, err := a.complete(ctx, client, llm.NewCompletionRequest(msgs))
	if err != nil {
		return modelName, state.ReviewUnset, "", 0, err
	}

	reviewStatus, score := parseReview(resp.Content)
	return modelName, reviewStatus, resp.Content, score, nil
}

// parseReview derives the verdict and score from the review text.
func parseReview(text string) (state.ReviewStatus, int) {
	status := state.ReviewApproved
	upper := strings.ToUpper(text)
	for _, kw := range negativeKeywords {
		if strings.Contains(upper, kw) {
			status = state.ReviewNeedsRevision
			break
		}
	}

	score := defaultReviewScore
	if m := scorePattern.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			score = min(10, max(1, n))
		}
	}

	return status, score
}

// reviewContent assembles the worker results for the review prompt.
func reviewContent(st *state.RunState) string {
	var parts []string
	if st.SearchResults != "" {
		parts = append(parts, "Araştırma:\n"+st.SearchResults)
	}
	if st.CodeResults != "" {
		parts = append(parts, "Kod Sonuçları:\n"+st.CodeResults)
	}
	if len(parts) == 0 {
		return "İçerik yok"
	}
	return strings.Join(parts, "\n\n---\n\n")
}
