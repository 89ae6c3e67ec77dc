// Package router selects the LLM backend for each agent turn: a local
// Ollama model for cheap work, a cloud model for everything that needs
// accuracy. Classification is keyword-based and deliberately simple;
// adversarial phrasing can misroute a query, which only costs accuracy
// or latency, never safety.
package router

import (
	"strings"
	"unicode/utf8"
)

// Task types produced by Classify.
const (
	TaskGreeting      = "greeting"
	TaskCoding        = "coding"
	TaskResearch      = "research"
	TaskFormatting    = "formatting"
	TaskAnalysis      = "analysis"
	TaskSimpleQA      = "simple_qa"
	TaskReview        = "review"
	TaskPlanning      = "planning"
	TaskSummarization = "summarization"
)

// Keyword tables cover Turkish and English phrasing. Checks run in order;
// the first match wins.
//
//nolint:gochecknoglobals // Static classification tables
var (
	greetingPrefixes = []string{
		"merhaba", "selam", "hello", "hi", "hey", "nasılsın", "günaydın",
	}

	codingKeywords = []string{
		"kod", "code", "python", "javascript", "hesapla", "calculate",
		"fonksiyon", "function", "algoritma", "program", "script",
		"fibonacci", "sırala", "sort", "döngü", "loop",
	}

	researchKeywords = []string{
		"araştır", "research", "bul", "find", "nedir", "what is",
		"karşılaştır", "compare", "analiz", "analyze", "incele",
		"özetle", "summarize", "açıkla", "explain", "listele",
	}

	formatKeywords = []string{
		"formatla", "format", "düzenle", "edit", "listele", "list",
		"tablo", "table", "madde", "bullet",
	}

	simpleTaskTypes = map[string]bool{
		TaskGreeting:   true,
		TaskFormatting: true,
		TaskReview:     true,
		TaskSimpleQA:   true,
	}

	complexTaskTypes = map[string]bool{
		TaskResearch:      true,
		TaskCoding:        true,
		TaskAnalysis:      true,
		TaskPlanning:      true,
		TaskSummarization: true,
	}
)

// Classify determines the task type of a query. Queries longer than
// complexityThreshold runes that match no keyword table are treated as
// analysis work.
func Classify(query string, complexityThreshold int) string {
	q := strings.ToLower(strings.TrimSpace(query))

	for _, g := range greetingPrefixes {
		if strings.HasPrefix(q, g) {
			return TaskGreeting
		}
	}

	for _, kw := range codingKeywords {
		if strings.Contains(q, kw) {
			return TaskCoding
		}
	}

	for _, kw := range researchKeywords {
		if strings.Contains(q, kw) {
			return TaskResearch
		}
	}

	for _, kw := range formatKeywords {
		if strings.Contains(q, kw) {
			return TaskFormatting
		}
	}

	if utf8.RuneCountInString(query) > complexityThreshold {
		return TaskAnalysis
	}

	return TaskSimpleQA
}

// IsSimpleTask reports whether a task type is cheap enough for the local
// backend in auto mode.
func IsSimpleTask(taskType string) bool {
	return simpleTaskTypes[taskType]
}

// IsComplexTask reports whether a task type requires the cloud backend
// in auto mode.
func IsComplexTask(taskType string) bool {
	return complexTaskTypes[taskType]
}
