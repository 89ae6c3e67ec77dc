// Command conductor is the CLI entry point for the multi-agent assistant.
// With a query argument it runs once and prints the result; without one it
// starts an interactive loop.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/term"

	"conductor/pkg/config"
	"conductor/pkg/graph"
	"conductor/pkg/logx"
	"conductor/pkg/persistence"
)

// Version information - set by goreleaser via ldflags.
//
//nolint:gochecknoglobals // Build-time version injection
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	var (
		mode        = flag.String("mode", "", "Model seçim modu: fast, accurate, auto (varsayılan: config)")
		configPath  = flag.String("config", "", "Konfigürasyon dosyası yolu")
		metricsAddr = flag.String("metrics-addr", "", "Prometheus /metrics adresi (boşsa kapalı)")
		showVersion = flag.Bool("version", false, "Sürüm bilgisini göster")
	)
	flag.StringVar(mode, "m", "", "Model seçim modu (kısa form)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("conductor %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
		os.Exit(0)
	}

	os.Exit(run(*configPath, *mode, *metricsAddr, flag.Arg(0)))
}

// run contains the main application logic and returns an exit code so
// defers execute before the process exits.
func run(configPath, mode, metricsAddr, query string) int {
	logger := logx.NewLogger("cli")

	path := configPath
	if path == "" {
		path = config.DefaultConfigPath()
	}
	if err := config.Load(path); err != nil {
		fmt.Fprintf(os.Stderr, "❌ Konfigürasyon yüklenemedi: %v\n", err)
		return 1
	}
	cfg, err := config.Get()
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Konfigürasyon okunamadı: %v\n", err)
		return 1
	}

	if mode != "" && !config.IsValidMode(mode) {
		fmt.Fprintf(os.Stderr, "❌ Geçersiz mod: %q (geçerli: fast, accurate, auto)\n", mode)
		return 1
	}
	if mode == "" {
		mode = cfg.Mode
	}

	if err := loadSecrets(logger); err != nil {
		fmt.Fprintf(os.Stderr, "❌ Secrets dosyası çözülemedi: %v\n", err)
		return 1
	}

	if metricsAddr != "" {
		startMetricsServer(logger, metricsAddr)
	}

	engine, err := graph.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Sistem başlatılamadı: %v\n", err)
		return 1
	}

	var store *persistence.Store
	if cfg.Persistence.DBPath != "" {
		store, err = persistence.Open(cfg.Persistence.DBPath)
		if err != nil {
			logger.Warn("run history disabled: %v", err)
		} else {
			defer func() { _ = store.Close() }()
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &cli{
		engine:     engine,
		store:      store,
		logger:     logger,
		mode:       mode,
		metricsURL: cfg.Metrics.PrometheusURL,
	}

	if query != "" {
		logger.Info("single query mode: mode=%s", mode)
		result := app.execute(ctx, query)
		printResult(os.Stdout, result)
		return 0
	}

	app.interactive(ctx, os.Stdin, os.Stdout)
	return 0
}

// cli bundles the pieces one session needs. mode is mutable through the
// interactive /mode command.
type cli struct {
	engine     *graph.Engine
	store      *persistence.Store
	logger     *logx.Logger
	mode       string
	metricsURL string
}

// execute runs one query and records it in the run history when enabled.
func (c *cli) execute(ctx context.Context, query string) graph.Result {
	result := c.engine.Run(ctx, query, c.mode)

	if c.store != nil {
		rec := &persistence.RunRecord{
			ID:          result.RunID,
			Query:       query,
			Answer:      result.Answer,
			TaskType:    result.TaskType,
			Mode:        c.mode,
			Iterations:  result.Iterations,
			ModelsUsed:  result.ModelsUsed,
			ToolsCalled: result.ToolsCalled,
			Duration:    result.Duration,
		}
		saveCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := c.store.SaveRun(saveCtx, rec); err != nil {
			c.logger.Warn("failed to record run %s: %v", result.RunID, err)
		}
	}

	return result
}

// loadSecrets decrypts the per-user secrets file when present. The
// passphrase comes from CONDUCTOR_SECRETS_PASSPHRASE or an interactive
// prompt. A missing file is not an error; credentials then come from
// the environment alone.
func loadSecrets(logger *logx.Logger) error {
	path, err := config.DefaultSecretsPath()
	if err != nil {
		logger.Warn("secrets path unavailable: %v", err)
		return nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	passphrase := os.Getenv("CONDUCTOR_SECRETS_PASSPHRASE")
	if passphrase == "" {
		if !term.IsTerminal(int(syscall.Stdin)) {
			logger.Warn("secrets file %s present but no passphrase available, using environment only", path)
			return nil
		}
		fmt.Print("🔑 Secrets parolası: ")
		raw, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err != nil {
			return fmt.Errorf("failed to read passphrase: %w", err)
		}
		passphrase = string(raw)
	}

	return config.LoadSecrets(path, passphrase)
}

// startMetricsServer exposes the Prometheus registry over HTTP.
func startMetricsServer(logger *logx.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("metrics endpoint listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server failed: %v", err)
		}
	}()
}
