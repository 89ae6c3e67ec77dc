package router

import (
	"context"
	"errors"
	"strings"
	"testing"

	"conductor/internal/mocks"
	"conductor/pkg/config"
	"conductor/pkg/logx"
	"conductor/pkg/metrics"
)

func newTestRouter(localProbeErr error) (*Router, *mocks.MockLLMClient, *mocks.MockLLMClient) {
	local := mocks.NewMockLLMClient()
	local.SetModelName("llama3.2:3b")
	local.ProbeErr = localProbeErr

	cloud := mocks.NewMockLLMClient()
	cloud.SetModelName("gemini-2.5-flash")

	r := &Router{
		logger:    logx.NewLogger("router-test"),
		cfg:       config.Default(),
		local:     local,
		cloud:     cloud,
		localName: local.GetModelName(),
		cloudName: cloud.GetModelName(),
		recorder:  metrics.Default(),
	}
	return r, local, cloud
}

func TestSelectInvalidMode(t *testing.T) {
	r, _, _ := newTestRouter(nil)

	_, _, _, err := r.Select(context.Background(), "soru", "turbo", "")
	if err == nil {
		t.Fatal("expected error for invalid mode")
	}

	var modeErr *InvalidModeError
	if !errors.As(err, &modeErr) {
		t.Fatalf("error type = %T, want *InvalidModeError", err)
	}
	for _, m := range []string{"fast", "accurate", "auto"} {
		if !strings.Contains(err.Error(), m) {
			t.Errorf("error %q does not name mode %q", err.Error(), m)
		}
	}
}

func TestSelectAccurateAlwaysCloud(t *testing.T) {
	r, local, _ := newTestRouter(nil)

	_, name, taskType, err := r.Select(context.Background(), "merhaba", config.ModeAccurate, "")
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if name != "gemini-2.5-flash" {
		t.Errorf("backend = %q, want cloud", name)
	}
	if taskType != TaskGreeting {
		t.Errorf("taskType = %q, want greeting", taskType)
	}
	if local.ProbeCalls != 0 {
		t.Errorf("accurate mode probed the local backend %d times", local.ProbeCalls)
	}
}

func TestSelectFastPrefersLocal(t *testing.T) {
	r, _, _ := newTestRouter(nil)

	client, name, _, err := r.Select(context.Background(), "merhaba", config.ModeFast, "")
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if name != "llama3.2:3b" {
		t.Errorf("backend = %q, want local", name)
	}
	if client.GetModelName() != "llama3.2:3b" {
		t.Errorf("client model = %q", client.GetModelName())
	}
}

func TestSelectFastFallsBackToCloud(t *testing.T) {
	r, _, _ := newTestRouter(errors.New("connection refused"))

	_, name, _, err := r.Select(context.Background(), "merhaba", config.ModeFast, "")
	if err != nil {
		t.Fatalf("fallback must be silent, got error: %v", err)
	}
	if name != "gemini-2.5-flash" {
		t.Errorf("backend = %q, want cloud fallback", name)
	}
}

func TestSelectAuto(t *testing.T) {
	cases := []struct {
		name     string
		taskType string
		want     string
	}{
		{"simple routes local", TaskGreeting, "llama3.2:3b"},
		{"review routes local", TaskReview, "llama3.2:3b"},
		{"coding routes cloud", TaskCoding, "gemini-2.5-flash"},
		{"planning routes cloud", TaskPlanning, "gemini-2.5-flash"},
		{"unknown routes cloud", "mystery", "gemini-2.5-flash"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r, _, _ := newTestRouter(nil)
			_, name, taskType, err := r.Select(context.Background(), "soru", config.ModeAuto, tc.taskType)
			if err != nil {
				t.Fatalf("Select: %v", err)
			}
			if name != tc.want {
				t.Errorf("backend = %q, want %q", name, tc.want)
			}
			if taskType != tc.taskType {
				t.Errorf("taskType = %q, want %q (explicit type must not be reclassified)", taskType, tc.taskType)
			}
		})
	}
}

func TestSelectEmptyModeUsesConfig(t *testing.T) {
	r, _, _ := newTestRouter(nil)
	r.cfg.Mode = config.ModeAccurate

	_, name, _, err := r.Select(context.Background(), "merhaba", "", "")
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if name != "gemini-2.5-flash" {
		t.Errorf("backend = %q, want cloud via config mode", name)
	}
}

func TestProbeResultIsCached(t *testing.T) {
	r, local, _ := newTestRouter(nil)

	for i := 0; i < 3; i++ {
		if _, _, _, err := r.Select(context.Background(), "merhaba", config.ModeFast, ""); err != nil {
			t.Fatalf("Select: %v", err)
		}
	}
	if local.ProbeCalls != 1 {
		t.Errorf("ProbeCalls = %d, want 1 (cached)", local.ProbeCalls)
	}
}

func TestResetProbeCacheForcesReprobe(t *testing.T) {
	r, local, _ := newTestRouter(nil)

	if _, _, _, err := r.Select(context.Background(), "merhaba", config.ModeFast, ""); err != nil {
		t.Fatalf("Select: %v", err)
	}
	r.ResetProbeCache()
	if _, _, _, err := r.Select(context.Background(), "merhaba", config.ModeFast, ""); err != nil {
		t.Fatalf("Select: %v", err)
	}

	if local.ProbeCalls != 2 {
		t.Errorf("ProbeCalls = %d, want 2 after reset", local.ProbeCalls)
	}
}
