package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"conductor/pkg/graph"
	"conductor/pkg/logx"
)

func newTestCLI() *cli {
	return &cli{logger: logx.NewLogger("cli-test"), mode: "auto"}
}

func TestInteractiveQuitWords(t *testing.T) {
	for _, word := range []string{"q", "quit", "exit", "çık", "çıkış", "QUIT"} {
		c := newTestCLI()
		var out bytes.Buffer

		c.interactive(context.Background(), strings.NewReader(word+"\n"), &out)

		if !strings.Contains(out.String(), "👋 Güle güle! İyi günler.") {
			t.Fatalf("word %q: missing goodbye, output:\n%s", word, out.String())
		}
	}
}

func TestInteractiveEOF(t *testing.T) {
	c := newTestCLI()
	var out bytes.Buffer

	c.interactive(context.Background(), strings.NewReader(""), &out)

	if !strings.Contains(out.String(), "👋 Güle güle!") {
		t.Fatalf("missing goodbye on EOF:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "📌 Aktif mod: auto") {
		t.Fatalf("missing active mode line:\n%s", out.String())
	}
}

func TestInteractiveEmptyInputReprompts(t *testing.T) {
	c := newTestCLI()
	var out bytes.Buffer

	c.interactive(context.Background(), strings.NewReader("   \nq\n"), &out)

	if !strings.Contains(out.String(), "⚠️  Lütfen bir soru yazın.") {
		t.Fatalf("missing empty-input warning:\n%s", out.String())
	}
}

func TestInteractiveModeSwitch(t *testing.T) {
	c := newTestCLI()
	var out bytes.Buffer

	c.interactive(context.Background(), strings.NewReader("/mode fast\nq\n"), &out)

	if c.mode != "fast" {
		t.Fatalf("mode = %q, want fast", c.mode)
	}
	if !strings.Contains(out.String(), "✅ Mod değiştirildi: fast") {
		t.Fatalf("missing mode-change confirmation:\n%s", out.String())
	}
}

func TestInteractiveModeSwitchInvalid(t *testing.T) {
	tests := []string{"/mode turbo", "/mode", "/mode fast extra"}
	for _, input := range tests {
		c := newTestCLI()
		var out bytes.Buffer

		c.interactive(context.Background(), strings.NewReader(input+"\nq\n"), &out)

		if c.mode != "auto" {
			t.Fatalf("input %q: mode changed to %q", input, c.mode)
		}
		if !strings.Contains(out.String(), "⚠️  Kullanım: /mode [fast|accurate|auto]") {
			t.Fatalf("input %q: missing usage hint:\n%s", input, out.String())
		}
	}
}

func TestInteractiveStatsWithoutSources(t *testing.T) {
	c := newTestCLI()
	var out bytes.Buffer

	c.interactive(context.Background(), strings.NewReader("/stats\nq\n"), &out)

	if !strings.Contains(out.String(), "⚠️  İstatistik kaynağı yapılandırılmamış") {
		t.Fatalf("missing unconfigured-stats warning:\n%s", out.String())
	}
}

func TestPrintResult(t *testing.T) {
	var out bytes.Buffer
	printResult(&out, graph.Result{
		Answer:      "Fibonacci dizisi: 0, 1, 1, 2, 3",
		Iterations:  4,
		ModelsUsed:  []string{"supervisor:gemini", "coder:gemini"},
		ToolsCalled: []string{"code_execute"},
	})

	text := out.String()
	for _, want := range []string{
		"📋 SONUÇ",
		"Fibonacci dizisi: 0, 1, 1, 2, 3",
		"İterasyon sayısı: 4",
		"Kullanılan modeller: supervisor:gemini, coder:gemini",
		"Çağrılan tool'lar: code_execute",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("output missing %q:\n%s", want, text)
		}
	}
}

func TestPrintResultEmptyStats(t *testing.T) {
	var out bytes.Buffer
	printResult(&out, graph.Result{Answer: "cevap"})

	text := out.String()
	if !strings.Contains(text, "Kullanılan modeller: Yok") {
		t.Fatalf("empty models should print Yok:\n%s", text)
	}
	if !strings.Contains(text, "Çağrılan tool'lar: Yok") {
		t.Fatalf("empty tools should print Yok:\n%s", text)
	}
}
