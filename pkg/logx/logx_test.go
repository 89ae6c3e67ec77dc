package logx

import (
	"strings"
	"testing"
)

func TestNewLogger(t *testing.T) {
	logger := NewLogger("test-agent")
	if logger.GetAgentID() != "test-agent" {
		t.Errorf("Expected agent ID 'test-agent', got %s", logger.GetAgentID())
	}
}

func TestWithAgentID(t *testing.T) {
	logger := NewLogger("original")
	derived := logger.WithAgentID("derived")

	if derived.GetAgentID() != "derived" {
		t.Errorf("Expected agent ID 'derived', got %s", derived.GetAgentID())
	}
	if logger.GetAgentID() != "original" {
		t.Error("Original logger should be unchanged")
	}
}

func TestLogBufferCapturesEntries(t *testing.T) {
	logger := NewLogger("buffer-test")
	logger.Info("captured message %d", 42)

	entries := GetRecentLogEntries("")
	found := false
	for i := range entries {
		if entries[i].AgentID == "buffer-test" && strings.Contains(entries[i].Message, "captured message 42") {
			found = true
			break
		}
	}
	if !found {
		t.Error("Expected log entry in buffer")
	}
}

func TestLogBufferMaxSize(t *testing.T) {
	buffer := &InMemoryLogBuffer{maxSize: 3}
	for i := 0; i < 5; i++ {
		buffer.AddLogEntry(&LogEntry{Message: "entry", AgentID: "a"})
	}

	entries := buffer.GetLogEntries("")
	if len(entries) != 3 {
		t.Errorf("Expected 3 entries after overflow, got %d", len(entries))
	}
}

func TestDebugDomainFiltering(t *testing.T) {
	SetDebugConfig(true)
	SetDebugDomains([]string{"router"})
	defer func() {
		SetDebugConfig(false)
		SetDebugDomains(nil)
	}()

	if !IsDebugEnabledForDomain("router") {
		t.Error("Expected router domain to be enabled")
	}
	if IsDebugEnabledForDomain("graph") {
		t.Error("Expected graph domain to be disabled")
	}

	// Empty domain list means all domains.
	SetDebugDomains(nil)
	if !IsDebugEnabledForDomain("graph") {
		t.Error("Expected all domains enabled when no filter set")
	}
}

func TestDebugDisabled(t *testing.T) {
	SetDebugConfig(false)
	if IsDebugEnabledForDomain("router") {
		t.Error("Expected debug disabled")
	}
}
