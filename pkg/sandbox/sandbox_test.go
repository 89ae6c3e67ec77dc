package sandbox

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"conductor/pkg/config"
)

func newTestSandbox(t *testing.T) *Sandbox {
	t.Helper()
	cfg := config.Default().Sandbox
	cfg.TimeoutSec = 5
	return New(cfg)
}

func requirePython(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("python3"); err != nil {
		t.Skip("python3 not available")
	}
}

func TestValidateEmptyCode(t *testing.T) {
	s := newTestSandbox(t)
	if reason := s.Validate("   \n  "); reason == "" {
		t.Fatal("expected rejection for empty code")
	}
}

func TestValidateBlockedImports(t *testing.T) {
	s := newTestSandbox(t)
	cases := []struct {
		name string
		code string
	}{
		{"import os", "import os\nprint(os.getcwd())"},
		{"from subprocess", "from subprocess import run"},
		{"eval call", "eval('1+1')"},
		{"exec call", "exec('x = 1')"},
		{"open call", "f = open('/etc/passwd')"},
		{"dunder import", "__import__('os')"},
		{"builtins access", "print(__builtins__)"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if reason := s.Validate(tc.code); reason == "" {
				t.Errorf("expected rejection for %q", tc.code)
			}
		})
	}
}

func TestValidateAllowsSafeCode(t *testing.T) {
	s := newTestSandbox(t)
	safe := []string{
		"print('hello')",
		"x = [i*i for i in range(10)]\nprint(sum(x))",
		"import math\nprint(math.pi)",
		// "osmanli" contains "os" but is not the os module.
		"osmanli = 1\nprint(osmanli)",
	}
	for _, code := range safe {
		if reason := s.Validate(code); reason != "" {
			t.Errorf("unexpected rejection for %q: %s", code, reason)
		}
	}
}

func TestExecuteRejectedNeverRuns(t *testing.T) {
	s := newTestSandbox(t)
	res := s.Execute(context.Background(), "import os")
	if res.Outcome != OutcomeRejected {
		t.Fatalf("expected rejected outcome, got %v", res.Outcome)
	}
	if !strings.HasPrefix(res.Message, "Güvenlik Hatası:") {
		t.Errorf("unexpected message: %q", res.Message)
	}
}

func TestExecuteSuccess(t *testing.T) {
	requirePython(t)
	s := newTestSandbox(t)

	res := s.Execute(context.Background(), "print(2 + 2)")
	if res.Outcome != OutcomeOK {
		t.Fatalf("expected ok outcome, got %v: %s", res.Outcome, res.Message)
	}
	if res.Output != "4" {
		t.Errorf("expected output 4, got %q", res.Output)
	}
	if !res.Succeeded() {
		t.Error("Succeeded should be true for ok outcome")
	}
}

func TestExecuteNoOutput(t *testing.T) {
	requirePython(t)
	s := newTestSandbox(t)

	res := s.Execute(context.Background(), "x = 1 + 1")
	if res.Outcome != OutcomeNoOutput {
		t.Fatalf("expected no_output outcome, got %v", res.Outcome)
	}
	if !strings.Contains(res.Message, "print") {
		t.Errorf("no-output message should hint at print, got %q", res.Message)
	}
}

func TestExecuteRunError(t *testing.T) {
	requirePython(t)
	s := newTestSandbox(t)

	res := s.Execute(context.Background(), "raise ValueError('boom')")
	if res.Outcome != OutcomeRunError {
		t.Fatalf("expected run_error outcome, got %v", res.Outcome)
	}
	if !strings.Contains(res.Message, "ValueError") {
		t.Errorf("run error should carry stderr, got %q", res.Message)
	}
	if res.Succeeded() {
		t.Error("Succeeded should be false for run_error")
	}
}

func TestExecuteTimeout(t *testing.T) {
	requirePython(t)
	cfg := config.Default().Sandbox
	cfg.TimeoutSec = 1
	s := New(cfg)

	res := s.Execute(context.Background(), "while True:\n    pass")
	if res.Outcome != OutcomeTimeout {
		t.Fatalf("expected timeout outcome, got %v: %s", res.Outcome, res.Message)
	}
	if !strings.Contains(res.Message, "Zaman Aşımı") {
		t.Errorf("unexpected timeout message: %q", res.Message)
	}
}

func TestExecuteInterpreterMissing(t *testing.T) {
	cfg := config.Default().Sandbox
	cfg.Interpreter = "definitely-not-a-real-interpreter"
	s := New(cfg)

	res := s.Execute(context.Background(), "print(1)")
	if res.Outcome != OutcomeInternalError {
		t.Fatalf("expected internal_error outcome, got %v", res.Outcome)
	}
}

func TestExecuteCleansUpTempFiles(t *testing.T) {
	requirePython(t)
	s := newTestSandbox(t)

	countTempFiles := func() int {
		matches, err := filepath.Glob(filepath.Join(os.TempDir(), "conductor-*.py"))
		if err != nil {
			t.Fatalf("glob: %v", err)
		}
		return len(matches)
	}

	before := countTempFiles()
	for _, code := range []string{
		"print(2+3)",
		"import sys\nsys.exit(3)",
		"import os",
	} {
		s.Execute(context.Background(), code)
	}

	if after := countTempFiles(); after != before {
		t.Errorf("temp files leaked: before=%d after=%d", before, after)
	}
}
