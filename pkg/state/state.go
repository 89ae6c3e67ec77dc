// Package state defines the shared run state that flows through the
// orchestration graph. Every agent node reads from it and writes back its
// own slot; the graph owns the single mutable instance per run.
package state

import "strings"

// Agent names used for routing decisions and message attribution.
const (
	AgentSupervisor = "supervisor"
	AgentResearcher = "researcher"
	AgentCoder      = "coder"
	AgentReviewer   = "reviewer"
	AgentFormatter  = "formatter"

	// DecisionFinish is the supervisor's terminal routing decision.
	DecisionFinish = "FINISH"
)

// NoAnswerMessage is returned when a run completes without any agent
// producing usable output.
const NoAnswerMessage = "Yanıt üretilemedi."

// ReviewStatus is the reviewer's verdict on the accumulated results.
type ReviewStatus int8

const (
	ReviewUnset ReviewStatus = iota
	ReviewApproved
	ReviewNeedsRevision
)

func (s ReviewStatus) String() string {
	switch s {
	case ReviewApproved:
		return "approved"
	case ReviewNeedsRevision:
		return "needs_revision"
	default:
		return "unset"
	}
}

// Message is one entry in the run transcript. Every agent node appends
// exactly one message per turn.
type Message struct {
	From    string `json:"from"`
	Content string `json:"content"`
}

// RunState is the blackboard shared by all agents during one run.
type RunState struct {
	Query          string
	TaskType       string
	Messages       []Message
	SearchResults  string
	CodeResults    string
	ReviewNotes    string
	ReviewStatus   ReviewStatus
	FinalAnswer    string
	NextAgent      string
	IterationCount int
	ModelsUsed     []string
	ToolsCalled    []string
}

// New returns a fresh run state for the given query.
func New(query string) *RunState {
	return &RunState{
		Query:     query,
		NextAgent: AgentSupervisor,
	}
}

// AppendMessage records one transcript entry attributed to an agent.
func (s *RunState) AppendMessage(from, content string) {
	s.Messages = append(s.Messages, Message{From: from, Content: content})
}

// RecordModel appends a "role:model" entry to the audit trail.
func (s *RunState) RecordModel(label string) {
	s.ModelsUsed = append(s.ModelsUsed, label)
}

// RecordTool appends a tool name to the audit trail.
func (s *RunState) RecordTool(name string) {
	s.ToolsCalled = append(s.ToolsCalled, name)
}

// ExtractResult returns the best available answer from the run state.
// Preference order: formatted final answer, then raw worker results
// stitched together, then a fixed no-answer message.
func (s *RunState) ExtractResult() string {
	if s.FinalAnswer != "" {
		return s.FinalAnswer
	}

	var parts []string
	if s.SearchResults != "" {
		parts = append(parts, s.SearchResults)
	}
	if s.CodeResults != "" {
		parts = append(parts, s.CodeResults)
	}
	if len(parts) > 0 {
		return strings.Join(parts, "\n\n")
	}

	return NoAnswerMessage
}
