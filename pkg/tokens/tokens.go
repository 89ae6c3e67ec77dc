// Package tokens provides tiktoken-based token counting for prompt
// budgeting. None of the routed models publish exact tokenizers here, so
// GPT-4 encoding is used as a close approximation throughout.
package tokens

import (
	"fmt"

	"github.com/tiktoken-go/tokenizer"
)

// Counter provides token counting and budget-based truncation.
type Counter struct {
	codec tokenizer.Codec
}

// NewCounter creates a token counter. The model name is accepted for
// call-site clarity; all models map to GPT-4 encoding.
func NewCounter(model string) (*Counter, error) {
	codec, err := tokenizer.ForModel(tokenizer.GPT4)
	if err != nil {
		return nil, fmt.Errorf("failed to create tokenizer codec for model %s: %w", model, err)
	}
	return &Counter{codec: codec}, nil
}

// Count returns the number of tokens in the given text.
func (c *Counter) Count(text string) int {
	if c == nil || c.codec == nil {
		// Character-based estimation (4 chars ≈ 1 token)
		return len(text) / 4
	}

	count, err := c.codec.Count(text)
	if err != nil {
		return len(text) / 4
	}
	return count
}

// WithinLimit reports whether text fits in the given token budget.
func (c *Counter) WithinLimit(text string, limit int) bool {
	return c.Count(text) <= limit
}

// Truncate shortens text to roughly fit within the token budget. It cuts
// by characters, not exact token boundaries, with a safety margin.
func (c *Counter) Truncate(text string, limit int) string {
	currentTokens := c.Count(text)
	if currentTokens <= limit {
		return text
	}

	ratio := float64(limit) / float64(currentTokens)
	charLimit := int(float64(len(text)) * ratio * 0.9)
	if charLimit >= len(text) {
		return text
	}

	// Back up to a rune boundary so multi-byte text stays valid.
	for charLimit > 0 && text[charLimit]&0xC0 == 0x80 {
		charLimit--
	}

	return text[:charLimit] + "..."
}

// Estimate counts tokens without constructing a Counter, falling back to
// character-based estimation if the codec cannot be built.
func Estimate(text string) int {
	counter, err := NewCounter("gpt-4")
	if err != nil {
		return len(text) / 4
	}
	return counter.Count(text)
}
