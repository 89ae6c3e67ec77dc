package agents

import (
	"context"
	"errors"
	"strings"
	"testing"

	"conductor/internal/mocks"
	"conductor/pkg/state"
)

func TestParseReview(t *testing.T) {
	cases := []struct {
		name       string
		text       string
		wantStatus state.ReviewStatus
		wantScore  int
	}{
		{
			name:       "clean approval",
			text:       "- Durum: ONAY\n- Notlar: İçerik tutarlı ve eksiksiz.\n- Puan: 9",
			wantStatus: state.ReviewApproved,
			wantScore:  9,
		},
		{
			name:       "revision requested",
			text:       "- Durum: DÜZELTİ_GEREKLİ\n- Notlar: Kaynak eksik.\n- Puan: 4",
			wantStatus: state.ReviewNeedsRevision,
			wantScore:  4,
		},
		{
			name:       "negative keyword in prose",
			text:       "Cevapta HATA var, hesaplama tutarsız. Puan: 3",
			wantStatus: state.ReviewNeedsRevision,
			wantScore:  3,
		},
		{
			name:       "no score defaults to seven",
			text:       "Her şey yolunda görünüyor.",
			wantStatus: state.ReviewApproved,
			wantScore:  7,
		},
		{
			name:       "score clamped high",
			text:       "Mükemmel! Puan: 15",
			wantStatus: state.ReviewApproved,
			wantScore:  10,
		},
		{
			name:       "score clamped low",
			text:       "Durum: ONAY. Puan: 0",
			wantStatus: state.ReviewApproved,
			wantScore:  1,
		},
		{
			name:       "lowercase puan",
			text:       "puan 8 veriyorum",
			wantStatus: state.ReviewApproved,
			wantScore:  8,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, score := parseReview(tc.text)
			if status != tc.wantStatus {
				t.Errorf("status = %v, want %v", status, tc.wantStatus)
			}
			if score != tc.wantScore {
				t.Errorf("score = %d, want %d", score, tc.wantScore)
			}
		})
	}
}

func TestReviewContent(t *testing.T) {
	st := state.New("soru")
	if got := reviewContent(st); got != "İçerik yok" {
		t.Errorf("empty content = %q", got)
	}

	st.SearchResults = "arama"
	st.CodeResults = "kod"
	got := reviewContent(st)
	want := "Araştırma:\narama\n\n---\n\nKod Sonuçları:\nkod"
	if got != want {
		t.Errorf("content = %q, want %q", got, want)
	}
}

func TestReviewerRun(t *testing.T) {
	client := mocks.NewMockLLMClient()
	client.RespondWith("- Durum: ONAY\n- Notlar: Sonuçlar doğru.\n- Puan: 8")
	sel := newStubSelector(client)

	r := NewReviewer(sel)
	st := state.New("soru")
	st.SearchResults = "bazı sonuçlar"

	r.Run(context.Background(), st)

	if st.ReviewStatus != state.ReviewApproved {
		t.Errorf("ReviewStatus = %v", st.ReviewStatus)
	}
	if !strings.Contains(st.ReviewNotes, "Sonuçlar doğru.") {
		t.Errorf("ReviewNotes = %q", st.ReviewNotes)
	}
	last := st.Messages[len(st.Messages)-1]
	if last.Content != "Review: approved (Puan: 8)" {
		t.Errorf("message = %q", last.Content)
	}
	if sel.modes[0] != "fast" {
		t.Errorf("mode = %q, want fast", sel.modes[0])
	}
}

func TestReviewerFailureAutoApproves(t *testing.T) {
	client := mocks.NewMockLLMClient()
	client.FailCompleteWith(errors.New("model yüklenemedi"))
	sel := newStubSelector(client)

	r := NewReviewer(sel)
	st := state.New("soru")
	st.CodeResults = "kod çıktısı"

	r.Run(context.Background(), st)

	if st.ReviewStatus != state.ReviewApproved {
		t.Errorf("ReviewStatus = %v, want approved on failure", st.ReviewStatus)
	}
	if !strings.Contains(st.ReviewNotes, "Review sırasında hata oluştu") ||
		!strings.Contains(st.ReviewNotes, "Otomatik onay verildi.") {
		t.Errorf("ReviewNotes = %q", st.ReviewNotes)
	}
	last := st.Messages[len(st.Messages)-1]
	if last.Content != "Review: approved (Puan: 5)" {
		t.Errorf("message = %q", last.Content)
	}
}
