package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"conductor/pkg/config"
	"conductor/pkg/graph"
	"conductor/pkg/metrics"
)

const banner = `
╔══════════════════════════════════════════════════════════════╗
║           🤖 Multi-Agent LLM Asistanı v1.0 🤖              ║
║                                                              ║
║  Modeller: Gemini 2.5 Flash (Bulut) + Llama 3.2 3B (Yerel)  ║
║  Ajanlar:  Supervisor | Researcher | Coder | Reviewer | Fmt  ║
║  Araçlar:  Web Arama | Kod Çalıştırma | MCP                 ║
║                                                              ║
║  Çıkmak için 'q' veya 'quit' yazın                          ║
╚══════════════════════════════════════════════════════════════╝
`

// quitWords end the interactive session.
//
//nolint:gochecknoglobals // Static command table
var quitWords = map[string]bool{
	"q": true, "quit": true, "exit": true, "çık": true, "çıkış": true,
}

// interactive reads queries from in until the user quits or the context
// is canceled.
func (c *cli) interactive(ctx context.Context, in io.Reader, out io.Writer) {
	fmt.Fprint(out, banner+"\n")
	fmt.Fprintf(out, "📌 Aktif mod: %s\n\n", c.mode)

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "❓ Sorunuz: ")
		if !scanner.Scan() {
			fmt.Fprintln(out, "\n👋 Güle güle!")
			return
		}
		if ctx.Err() != nil {
			fmt.Fprintln(out, "\n👋 Güle güle!")
			return
		}

		query := strings.TrimSpace(scanner.Text())
		if query == "" {
			fmt.Fprintln(out, "⚠️  Lütfen bir soru yazın.")
			fmt.Fprintln(out)
			continue
		}

		if quitWords[strings.ToLower(query)] {
			fmt.Fprintln(out, "\n👋 Güle güle! İyi günler.")
			return
		}

		if strings.HasPrefix(query, "/mode") {
			c.handleModeCommand(out, query)
			continue
		}

		if query == "/stats" {
			c.handleStatsCommand(ctx, out)
			continue
		}

		fmt.Fprintf(out, "\n🔄 İşleniyor... (mod: %s)\n\n", c.mode)
		result := c.execute(ctx, query)
		printResult(out, result)
		fmt.Fprintln(out)
	}
}

// handleModeCommand processes "/mode fast|accurate|auto".
func (c *cli) handleModeCommand(out io.Writer, query string) {
	parts := strings.Fields(query)
	if len(parts) == 2 && config.IsValidMode(parts[1]) {
		c.mode = parts[1]
		fmt.Fprintf(out, "✅ Mod değiştirildi: %s\n\n", c.mode)
		return
	}
	fmt.Fprintln(out, "⚠️  Kullanım: /mode [fast|accurate|auto]")
	fmt.Fprintln(out)
}

// handleStatsCommand prints run-history aggregates and, when Prometheus
// is configured, usage counters scraped from the metrics endpoint.
func (c *cli) handleStatsCommand(ctx context.Context, out io.Writer) {
	if c.store == nil && c.metricsURL == "" {
		fmt.Fprintln(out, "⚠️  İstatistik kaynağı yapılandırılmamış (run history ve Prometheus kapalı).")
		fmt.Fprintln(out)
		return
	}

	if c.store != nil {
		stats, err := c.store.Stats(ctx)
		if err != nil {
			fmt.Fprintf(out, "⚠️  Geçmiş okunamadı: %v\n", err)
		} else {
			fmt.Fprintln(out, "📚 Kayıtlı çalıştırmalar:")
			fmt.Fprintf(out, "   Toplam: %d\n", stats.TotalRuns)
			fmt.Fprintf(out, "   Ortalama iterasyon: %.1f\n", stats.AvgIterations)
			fmt.Fprintf(out, "   Ortalama süre: %s\n", stats.AvgDuration.Round(time.Millisecond))
			for taskType, count := range stats.RunsByTaskType {
				fmt.Fprintf(out, "   %s: %d\n", taskType, count)
			}
		}
	}

	if c.metricsURL != "" {
		svc, err := metrics.NewQueryService(c.metricsURL)
		if err != nil {
			fmt.Fprintf(out, "⚠️  Prometheus istemcisi oluşturulamadı: %v\n", err)
			fmt.Fprintln(out)
			return
		}
		summary, err := svc.GetUsageSummary(ctx)
		if err != nil {
			fmt.Fprintf(out, "⚠️  Prometheus sorgusu başarısız: %v\n", err)
			fmt.Fprintln(out)
			return
		}
		fmt.Fprintln(out, "📈 Prometheus:")
		fmt.Fprintf(out, "   Toplam çalıştırma: %d\n", summary.Runs)
		for backend, count := range summary.RoutesByBackend {
			fmt.Fprintf(out, "   Yönlendirme %s: %d\n", backend, count)
		}
		for outcome, count := range summary.SandboxByOutcome {
			fmt.Fprintf(out, "   Sandbox %s: %d\n", outcome, count)
		}
		if latency, err := svc.GetBackendLatency(ctx); err == nil {
			for backend, seconds := range latency {
				fmt.Fprintf(out, "   Gecikme %s: %.2fs\n", backend, seconds)
			}
		}
	}
	fmt.Fprintln(out)
}

// printResult renders one run's answer and statistics.
func printResult(out io.Writer, result graph.Result) {
	divider := strings.Repeat("=", 60)

	fmt.Fprintln(out)
	fmt.Fprintln(out, divider)
	fmt.Fprintln(out, "📋 SONUÇ")
	fmt.Fprintln(out, divider)
	fmt.Fprintln(out, result.Answer)
	fmt.Fprintln(out)
	fmt.Fprintln(out, strings.Repeat("-", 60))
	fmt.Fprintln(out, "📊 İstatistikler:")
	fmt.Fprintf(out, "   İterasyon sayısı: %d\n", result.Iterations)
	fmt.Fprintf(out, "   Kullanılan modeller: %s\n", joinOrNone(result.ModelsUsed))
	fmt.Fprintf(out, "   Çağrılan tool'lar: %s\n", joinOrNone(result.ToolsCalled))
	fmt.Fprintln(out, divider)
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "Yok"
	}
	return strings.Join(items, ", ")
}
