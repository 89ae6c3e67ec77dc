// Package sandbox runs model-generated Python snippets in an isolated
// subprocess with a static safety check and a hard timeout.
//
// Execution is two-phase: Validate rejects code that references blocked
// modules or builtins before anything touches the filesystem, then Execute
// writes the snippet to a temp file and runs it under the configured
// interpreter. User-code failures (syntax errors, crashes, timeouts) are
// outcomes, not Go errors - callers always get a Result they can feed back
// into the conversation.
package sandbox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"conductor/pkg/config"
	"conductor/pkg/logx"
	"conductor/pkg/metrics"
)

// Outcome classifies the result of a sandbox run.
type Outcome int8

const (
	// OutcomeRejected means the code failed the static safety check and never ran.
	OutcomeRejected Outcome = iota
	// OutcomeOK means the code ran to completion and produced stdout output.
	OutcomeOK
	// OutcomeNoOutput means the code ran to completion but printed nothing.
	OutcomeNoOutput
	// OutcomeRunError means the interpreter exited non-zero.
	OutcomeRunError
	// OutcomeTimeout means the run exceeded the configured deadline.
	OutcomeTimeout
	// OutcomeInternalError means the sandbox itself failed (temp file, interpreter missing).
	OutcomeInternalError
)

// String returns the string representation of the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeRejected:
		return "rejected"
	case OutcomeOK:
		return "ok"
	case OutcomeNoOutput:
		return "no_output"
	case OutcomeRunError:
		return "run_error"
	case OutcomeTimeout:
		return "timeout"
	case OutcomeInternalError:
		return "internal_error"
	default:
		return "invalid"
	}
}

// Result is the outcome of a sandbox run. Message is the user-facing text
// that agents place into the conversation; Output holds raw stdout when the
// run succeeded.
type Result struct {
	Message string
	Output  string
	Outcome Outcome
}

// Succeeded reports whether the code ran to completion.
func (r Result) Succeeded() bool {
	return r.Outcome == OutcomeOK || r.Outcome == OutcomeNoOutput
}

// blockedPattern holds the compiled detection regexes for one blocked name.
type blockedPattern struct {
	name     string
	patterns []*regexp.Regexp
}

// Sandbox validates and executes Python snippets.
type Sandbox struct {
	logger      *logx.Logger
	recorder    *metrics.Recorder
	interpreter string
	blockedList string
	blocked     []blockedPattern
	timeout     time.Duration
}

// New creates a sandbox from the given configuration.
func New(cfg config.SandboxConfig) *Sandbox {
	blocked := make([]blockedPattern, 0, len(cfg.BlockedModules))
	for _, name := range cfg.BlockedModules {
		quoted := regexp.QuoteMeta(name)
		blocked = append(blocked, blockedPattern{
			name: name,
			patterns: []*regexp.Regexp{
				regexp.MustCompile(`\bimport\s+` + quoted + `\b`),
				regexp.MustCompile(`\bfrom\s+` + quoted + `\b`),
				regexp.MustCompile(`\b` + quoted + `\s*\(`),
			},
		})
	}

	return &Sandbox{
		logger:      logx.NewLogger("sandbox"),
		recorder:    metrics.Default(),
		interpreter: cfg.Interpreter,
		blocked:     blocked,
		blockedList: strings.Join(cfg.BlockedModules, ", "),
		timeout:     time.Duration(cfg.TimeoutSec) * time.Second,
	}
}

// Validate performs the static safety check. Returns a non-empty reason when
// the code must be rejected. Purely syntactic: a blocked name inside a string
// literal is still rejected, which is acceptable over-blocking.
func (s *Sandbox) Validate(code string) string {
	if strings.TrimSpace(code) == "" {
		return "Boş kod gönderildi."
	}

	for i := range s.blocked {
		for _, re := range s.blocked[i].patterns {
			if re.MatchString(code) {
				return fmt.Sprintf(
					"Güvenlik ihlali: '%s' kullanımına izin verilmiyor. Engellenen modüller: %s",
					s.blocked[i].name, s.blockedList)
			}
		}
	}

	if strings.Contains(code, "__builtins__") {
		return "Güvenlik ihlali: __builtins__ erişimine izin verilmiyor."
	}

	return ""
}

// Execute validates and runs the code. The returned Result is always usable;
// user-code failures are encoded in the Outcome rather than returned as
// errors. The parent context bounds the whole run in addition to the
// sandbox's own timeout.
func (s *Sandbox) Execute(ctx context.Context, code string) Result {
	result := s.execute(ctx, code)
	s.recorder.RecordSandboxExecution(result.Outcome.String())
	return result
}

func (s *Sandbox) execute(ctx context.Context, code string) Result {
	s.logger.Info("Kod çalıştırma isteği (%d bayt)", len(code))

	if reason := s.Validate(code); reason != "" {
		s.logger.Warn("Güvenlik kontrolü başarısız: %s", reason)
		return Result{
			Outcome: OutcomeRejected,
			Message: "Güvenlik Hatası: " + reason,
		}
	}

	tmp, err := os.CreateTemp("", "conductor-*.py")
	if err != nil {
		return s.internalError(fmt.Errorf("temp file: %w", err))
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	if _, err := tmp.WriteString(code); err != nil {
		_ = tmp.Close()
		return s.internalError(fmt.Errorf("write temp file: %w", err))
	}
	if err := tmp.Close(); err != nil {
		return s.internalError(fmt.Errorf("close temp file: %w", err))
	}

	runCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, s.interpreter, tmpPath)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	if runCtx.Err() == context.DeadlineExceeded {
		s.logger.Warn("Kod çalıştırma zaman aşımı (%v)", s.timeout)
		return Result{
			Outcome: OutcomeTimeout,
			Message: fmt.Sprintf(
				"Zaman Aşımı: Kod %d saniye içinde tamamlanamadı. Sonsuz döngü veya ağır işlem olabilir.",
				int(s.timeout.Seconds())),
		}
	}

	out := strings.TrimSpace(stdout.String())
	errOut := strings.TrimSpace(stderr.String())

	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			s.logger.Warn("Kod çalıştırma hatası (kod %d)", exitErr.ExitCode())
			return Result{
				Outcome: OutcomeRunError,
				Message: "Çalıştırma Hatası:\n" + errOut,
			}
		}
		// Interpreter could not be started at all.
		return s.internalError(fmt.Errorf("start %s: %w", s.interpreter, runErr))
	}

	if out == "" && errOut == "" {
		return Result{
			Outcome: OutcomeNoOutput,
			Message: "Kod başarıyla çalıştı ancak çıktı üretmedi (print kullandınız mı?).",
		}
	}

	s.logger.Info("Kod başarıyla çalıştırıldı (%d bayt çıktı)", len(out))
	return Result{
		Outcome: OutcomeOK,
		Output:  out,
		Message: "Çıktı:\n" + out,
	}
}

func (s *Sandbox) internalError(err error) Result {
	s.logger.Error("Beklenmeyen hata: %v", err)
	return Result{
		Outcome: OutcomeInternalError,
		Message: fmt.Sprintf("Hata: Beklenmeyen hata: %v", err),
	}
}
