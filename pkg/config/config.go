// Package config provides configuration loading, validation, and management for conductor.
//
// KEY PRINCIPLES:
//
//  1. GLOBAL SINGLETON: A single global Config instance is maintained in memory,
//     protected by mutex for thread safety. It is loaded once at startup.
//
//  2. VALUE-BASED ACCESS: Get() returns the config BY VALUE (copy, not reference)
//     to prevent external mutation.
//
//  3. VALIDATION FIRST: configs are validated at load time. Invalid configs are
//     rejected before any component sees them.
//
//  4. SECRETS ARE NOT CONFIG: API keys live in the environment or the encrypted
//     secrets file (see secrets.go), never in the config file itself.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"conductor/pkg/logx"
)

// Routing mode constants.
const (
	ModeFast     = "fast"
	ModeAccurate = "accurate"
	ModeAuto     = "auto"
)

// Cloud provider constants.
const (
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

// Secret names looked up via GetSecret.
const (
	SecretGeminiAPIKey    = "GEMINI_API_KEY"
	SecretAnthropicAPIKey = "ANTHROPIC_API_KEY"
	SecretOpenAIAPIKey    = "OPENAI_API_KEY"
	SecretGoogleSearchKey = "GOOGLE_SEARCH_API_KEY"
	SecretGoogleSearchCX  = "GOOGLE_SEARCH_CX"
)

// Orchestration defaults.
const (
	DefaultMaxIterations       = 10
	DefaultComplexityThreshold = 500
	DefaultCodeTimeoutSec      = 10
	ConfigFilename             = "config.json"
	UserConfigDir              = ".conductor"
)

// DefaultBlockedModules is the denylist of Python modules and builtins that
// sandboxed code may not import or call. Syntactic check only; over-blocking
// is acceptable, under-blocking is not.
var DefaultBlockedModules = []string{
	"os", "subprocess", "sys", "shutil", "pathlib",
	"socket", "http", "urllib", "requests", "ctypes",
	"__import__", "eval", "exec", "compile", "open",
}

// OllamaConfig contains settings for the local Ollama backend.
type OllamaConfig struct {
	BaseURL     string  `json:"base_url" yaml:"base_url"`
	Model       string  `json:"model" yaml:"model"`
	Temperature float32 `json:"temperature" yaml:"temperature"`
	MaxTokens   int     `json:"max_tokens" yaml:"max_tokens"`
}

// CloudConfig contains settings for the cloud backend.
type CloudConfig struct {
	Provider    string  `json:"provider" yaml:"provider"` // "gemini", "anthropic", "openai"
	Model       string  `json:"model" yaml:"model"`
	Temperature float32 `json:"temperature" yaml:"temperature"`
	MaxTokens   int     `json:"max_tokens" yaml:"max_tokens"`
}

// SandboxConfig contains settings for sandboxed code execution.
type SandboxConfig struct {
	Interpreter    string   `json:"interpreter" yaml:"interpreter"` // Command used to run generated code
	TimeoutSec     int      `json:"timeout_sec" yaml:"timeout_sec"`
	BlockedModules []string `json:"blocked_modules" yaml:"blocked_modules"`
}

// RetrievalConfig points at the external document-retrieval (RAG) service.
// Empty BaseURL means the doc_search tool reports the service as unavailable.
type RetrievalConfig struct {
	BaseURL    string `json:"base_url" yaml:"base_url"`
	TimeoutSec int    `json:"timeout_sec" yaml:"timeout_sec"`
}

// PersistenceConfig contains settings for the run-history store.
type PersistenceConfig struct {
	DBPath string `json:"db_path" yaml:"db_path"` // Empty disables run history
}

// MetricsConfig contains settings for metrics export and querying.
type MetricsConfig struct {
	PrometheusURL string `json:"prometheus_url" yaml:"prometheus_url"` // For the query service; empty disables queries
}

// Config represents the full conductor configuration.
type Config struct {
	Mode                string            `json:"mode" yaml:"mode"` // "fast", "accurate", "auto"
	MaxIterations       int               `json:"max_iterations" yaml:"max_iterations"`
	ComplexityThreshold int               `json:"complexity_threshold" yaml:"complexity_threshold"`
	Ollama              OllamaConfig      `json:"ollama" yaml:"ollama"`
	Cloud               CloudConfig       `json:"cloud" yaml:"cloud"`
	Sandbox             SandboxConfig     `json:"sandbox" yaml:"sandbox"`
	Retrieval           RetrievalConfig   `json:"retrieval" yaml:"retrieval"`
	Persistence         PersistenceConfig `json:"persistence" yaml:"persistence"`
	Metrics             MetricsConfig     `json:"metrics" yaml:"metrics"`
}

// Global config instance with mutex protection.
//
//nolint:gochecknoglobals // Intentional singleton pattern for config management
var (
	config *Config
	mu     sync.RWMutex
	logger *logx.Logger
)

// getLogger returns the config logger, initializing it if needed.
func getLogger() *logx.Logger {
	if logger == nil {
		logger = logx.NewLogger("config")
	}
	return logger
}

// Default returns the built-in default configuration.
func Default() Config {
	return Config{
		Mode:                ModeAuto,
		MaxIterations:       DefaultMaxIterations,
		ComplexityThreshold: DefaultComplexityThreshold,
		Ollama: OllamaConfig{
			BaseURL:     "http://localhost:11434",
			Model:       "llama3.2:3b",
			Temperature: 0.3,
			MaxTokens:   2048,
		},
		Cloud: CloudConfig{
			Provider:    ProviderGemini,
			Model:       "gemini-2.5-flash",
			Temperature: 0.7,
			MaxTokens:   4096,
		},
		Sandbox: SandboxConfig{
			Interpreter:    "python3",
			TimeoutSec:     DefaultCodeTimeoutSec,
			BlockedModules: append([]string(nil), DefaultBlockedModules...),
		},
		Retrieval: RetrievalConfig{
			TimeoutSec: 30,
		},
	}
}

// Load reads the config file at path (JSON or YAML by extension), applies
// environment overrides, validates, and installs the result as the global
// config. An empty path installs the defaults. Load must be called once at
// startup before Get.
func Load(path string) error {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return fmt.Errorf("failed to parse YAML config %s: %w", path, err)
			}
		default:
			if err := json.Unmarshal(data, &cfg); err != nil {
				return fmt.Errorf("failed to parse JSON config %s: %w", path, err)
			}
		}
		getLogger().Info("Config loaded from %s", path)
	}

	applyEnvOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	mu.Lock()
	config = &cfg
	mu.Unlock()
	return nil
}

// applyEnvOverrides layers environment variables over the loaded file.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("OLLAMA_BASE_URL"); v != "" {
		cfg.Ollama.BaseURL = v
	}
	if v := os.Getenv("OLLAMA_MODEL"); v != "" {
		cfg.Ollama.Model = v
	}
	if v := os.Getenv("CONDUCTOR_MODE"); v != "" {
		cfg.Mode = v
	}
	if v := os.Getenv("RETRIEVAL_BASE_URL"); v != "" {
		cfg.Retrieval.BaseURL = v
	}
}

// Get returns the global config by value.
// Returns an error if Load has not been called.
func Get() (Config, error) {
	mu.RLock()
	defer mu.RUnlock()

	if config == nil {
		return Config{}, fmt.Errorf("config not loaded - call config.Load first")
	}
	return *config, nil
}

// SetForTest installs a config directly. Only for use in tests.
func SetForTest(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	config = &cfg
}

// Reset clears the global config. Only for use in tests.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	config = nil
}

// ValidModes returns the set of valid routing modes.
func ValidModes() []string {
	return []string{ModeFast, ModeAccurate, ModeAuto}
}

// IsValidMode checks whether mode is a known routing mode.
func IsValidMode(mode string) bool {
	for _, m := range ValidModes() {
		if mode == m {
			return true
		}
	}
	return false
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if !IsValidMode(c.Mode) {
		return fmt.Errorf("invalid mode %q, valid modes: %s", c.Mode, strings.Join(ValidModes(), ", "))
	}
	if c.MaxIterations <= 0 {
		return fmt.Errorf("max_iterations must be positive, got %d", c.MaxIterations)
	}
	if c.ComplexityThreshold <= 0 {
		return fmt.Errorf("complexity_threshold must be positive, got %d", c.ComplexityThreshold)
	}
	if c.Sandbox.TimeoutSec <= 0 {
		return fmt.Errorf("sandbox timeout_sec must be positive, got %d", c.Sandbox.TimeoutSec)
	}
	if c.Sandbox.Interpreter == "" {
		return fmt.Errorf("sandbox interpreter cannot be empty")
	}
	if len(c.Sandbox.BlockedModules) == 0 {
		return fmt.Errorf("sandbox blocked_modules cannot be empty")
	}
	switch c.Cloud.Provider {
	case ProviderGemini, ProviderAnthropic, ProviderOpenAI:
	default:
		return fmt.Errorf("invalid cloud provider %q, valid providers: %s, %s, %s",
			c.Cloud.Provider, ProviderGemini, ProviderAnthropic, ProviderOpenAI)
	}
	if c.Cloud.Model == "" {
		return fmt.Errorf("cloud model cannot be empty")
	}
	if c.Ollama.Model == "" {
		return fmt.Errorf("ollama model cannot be empty")
	}
	if c.Ollama.BaseURL == "" {
		return fmt.Errorf("ollama base_url cannot be empty")
	}
	if c.Cloud.Temperature < 0 || c.Cloud.Temperature > 2.0 {
		return fmt.Errorf("cloud temperature must be between 0.0 and 2.0, got %v", c.Cloud.Temperature)
	}
	if c.Ollama.Temperature < 0 || c.Ollama.Temperature > 2.0 {
		return fmt.Errorf("ollama temperature must be between 0.0 and 2.0, got %v", c.Ollama.Temperature)
	}
	return nil
}

// DefaultConfigPath returns the per-user config file path, or "" if the home
// directory cannot be determined or the file does not exist.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	path := filepath.Join(home, UserConfigDir, ConfigFilename)
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

// SearchAPIStatus describes which web-search provider is usable.
type SearchAPIStatus struct {
	Available    bool
	Provider     string // "google" or "duckduckgo"
	GoogleAPIKey string
	GoogleCX     string
}

// DetectSearchAPIs checks secrets/environment for search provider credentials.
// Google Custom Search is preferred when both key and CX are present;
// DuckDuckGo needs no credentials and is always available as fallback.
func DetectSearchAPIs() SearchAPIStatus {
	apiKey, keyErr := GetSecret(SecretGoogleSearchKey)
	cx, cxErr := GetSecret(SecretGoogleSearchCX)
	if keyErr == nil && cxErr == nil && apiKey != "" && cx != "" {
		return SearchAPIStatus{
			Available:    true,
			Provider:     "google",
			GoogleAPIKey: apiKey,
			GoogleCX:     cx,
		}
	}
	return SearchAPIStatus{
		Available: true,
		Provider:  "duckduckgo",
	}
}
