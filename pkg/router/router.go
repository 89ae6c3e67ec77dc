package router

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"conductor/pkg/config"
	"conductor/pkg/llm"
	"conductor/pkg/llm/anthropic"
	"conductor/pkg/llm/gemini"
	"conductor/pkg/llm/ollamaclient"
	"conductor/pkg/llm/openai"
	"conductor/pkg/logx"
	"conductor/pkg/metrics"
)

const (
	// probeTimeout bounds the Ollama liveness check so a dead local
	// backend cannot stall a run.
	probeTimeout = 5 * time.Second

	// probeTTL caches the liveness result inside one router. The engine
	// resets the cache at the start of every run, so staleness never
	// crosses a run boundary.
	probeTTL = 30 * time.Second
)

// InvalidModeError is returned when Select is given an unknown mode.
type InvalidModeError struct {
	Mode string
}

func (e *InvalidModeError) Error() string {
	return fmt.Sprintf("geçersiz model seçim modu: %q, geçerli modlar: %s",
		e.Mode, strings.Join(config.ValidModes(), ", "))
}

// localBackend is the subset of the Ollama client the router needs.
// Narrowed to an interface so tests can stub liveness.
type localBackend interface {
	llm.LLMClient
	Probe(ctx context.Context, timeout time.Duration) error
}

// Router chooses between the local and cloud LLM backends per task.
// Safe for use within one run's sequential node executions; the probe
// cache has its own lock in case callers share a router.
type Router struct {
	logger    *logx.Logger
	cfg       config.Config
	local     localBackend
	cloud     llm.LLMClient
	localName string
	cloudName string
	recorder  *metrics.Recorder

	probeMu  sync.Mutex
	probedAt time.Time
	probeOK  bool
}

// New constructs a router from config. The cloud backend is constructed
// eagerly so a missing credential fails here, before any agent runs.
func New(cfg config.Config) (*Router, error) {
	cloud, err := newCloudClient(cfg.Cloud)
	if err != nil {
		return nil, err
	}

	local := ollamaclient.NewClient(cfg.Ollama.BaseURL, cfg.Ollama.Model)

	return &Router{
		logger:    logx.NewLogger("router"),
		cfg:       cfg,
		local:     local,
		cloud:     cloud,
		localName: local.GetModelName(),
		cloudName: cloud.GetModelName(),
		recorder:  metrics.Default(),
	}, nil
}

// newCloudClient builds the configured cloud backend. API keys come from
// the environment or the encrypted secrets file via config.GetSecret.
func newCloudClient(cc config.CloudConfig) (llm.LLMClient, error) {
	switch cc.Provider {
	case config.ProviderGemini:
		key, err := config.GetSecret(config.SecretGeminiAPIKey)
		if err != nil {
			return nil, fmt.Errorf("cloud backend %s unavailable: %w", cc.Provider, err)
		}
		return gemini.NewClient(key, cc.Model), nil
	case config.ProviderAnthropic:
		key, err := config.GetSecret(config.SecretAnthropicAPIKey)
		if err != nil {
			return nil, fmt.Errorf("cloud backend %s unavailable: %w", cc.Provider, err)
		}
		return anthropic.NewClient(key, cc.Model), nil
	case config.ProviderOpenAI:
		key, err := config.GetSecret(config.SecretOpenAIAPIKey)
		if err != nil {
			return nil, fmt.Errorf("cloud backend %s unavailable: %w", cc.Provider, err)
		}
		return openai.NewClient(key, cc.Model), nil
	default:
		return nil, fmt.Errorf("unknown cloud provider %q", cc.Provider)
	}
}

// Select returns the backend for a query under the given mode. taskType
// may be empty, in which case it is classified from the query. The
// returned name is the concrete model name for the audit trail.
func (r *Router) Select(ctx context.Context, query, mode, taskType string) (llm.LLMClient, string, string, error) {
	if mode == "" {
		mode = r.cfg.Mode
	}
	if !config.IsValidMode(mode) {
		return nil, "", "", &InvalidModeError{Mode: mode}
	}

	if taskType == "" {
		taskType = Classify(query, r.cfg.ComplexityThreshold)
	}

	var (
		client llm.LLMClient
		name   string
	)
	switch mode {
	case config.ModeFast:
		client, name = r.tryLocalFirst(ctx)
	case config.ModeAccurate:
		client, name = r.cloud, r.cloudName
	case config.ModeAuto:
		if IsSimpleTask(taskType) {
			client, name = r.tryLocalFirst(ctx)
		} else {
			// Complex and unrecognized task types both go to the cloud.
			client, name = r.cloud, r.cloudName
		}
	}

	r.logger.Info("backend selected: mode=%s task_type=%s backend=%s", mode, taskType, name)
	r.recorder.RecordRoutingDecision(mode, taskType, name)
	return client, name, taskType, nil
}

// tryLocalFirst prefers the local backend when it is alive, otherwise
// falls back to the cloud. Local unavailability never raises past here.
func (r *Router) tryLocalFirst(ctx context.Context) (llm.LLMClient, string) {
	if r.localAlive(ctx) {
		return r.local, r.localName
	}
	r.logger.Info("local backend unavailable, falling back to %s", r.cloudName)
	return r.cloud, r.cloudName
}

// ResetProbeCache discards the cached liveness result so the next fast
// or auto selection re-probes the local backend.
func (r *Router) ResetProbeCache() {
	r.probeMu.Lock()
	defer r.probeMu.Unlock()
	r.probedAt = time.Time{}
	r.probeOK = false
}

// localAlive probes Ollama, caching the result for probeTTL.
func (r *Router) localAlive(ctx context.Context) bool {
	r.probeMu.Lock()
	defer r.probeMu.Unlock()

	if !r.probedAt.IsZero() && time.Since(r.probedAt) < probeTTL {
		return r.probeOK
	}

	err := r.local.Probe(ctx, probeTimeout)
	r.probedAt = time.Now()
	r.probeOK = err == nil
	if err != nil {
		r.logger.Warn("ollama probe failed: %v", err)
	}
	return r.probeOK
}
