package agents

import (
	"encoding/json"
	"strings"

	"conductor/pkg/state"
)

// Decision is the supervisor's routing choice, extracted from free-form
// model output.
type Decision struct {
	Next   string `json:"next"`
	Reason string `json:"reason"`
}

// validNext is the closed set of routing targets the supervisor may pick.
//
//nolint:gochecknoglobals // Static validation set
var validNext = map[string]bool{
	state.AgentResearcher: true,
	state.AgentCoder:      true,
	state.AgentReviewer:   true,
	state.AgentFormatter:  true,
	state.DecisionFinish:  true,
}

// ParseDecision extracts the supervisor's JSON decision from a model
// reply. Models wrap the payload in prose, so parsing takes everything
// between the first '{' and the last '}'. Any malformed payload or
// out-of-set agent name normalizes to FINISH; callers never see a
// parse error.
func ParseDecision(response string) Decision {
	decision := Decision{
		Next:   state.DecisionFinish,
		Reason: "Belirtilmedi",
	}

	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start < 0 || end <= start {
		return decision
	}

	var parsed Decision
	if err := json.Unmarshal([]byte(response[start:end+1]), &parsed); err != nil {
		return decision
	}

	if parsed.Reason != "" {
		decision.Reason = parsed.Reason
	}
	if validNext[parsed.Next] {
		decision.Next = parsed.Next
	}
	return decision
}
