package spell

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/MrWong99/orderbot/internal/observe"
	"github.com/MrWong99/orderbot/pkg/provider/llm"
)

const defaultTemperature = 0.1

const systemPromptTemplate = `You correct spelling in food orders typed by restaurant customers.

Rules:
- Only fix words that look like misspellings of the menu words listed below.
- Keep numbers, quantities, punctuation and word order exactly as given.
- Do not add, remove or translate items.
- If nothing needs fixing, return the input unchanged.

Menu words:
%s

Respond with ONLY a JSON object, no markdown:
{"corrected_text": "<the full corrected order>"}`

// LLMOption configures an [LLM] corrector.
type LLMOption func(*LLM)

// WithTemperature sets the sampling temperature. Default: 0.1.
func WithTemperature(t float64) LLMOption {
	return func(c *LLM) {
		c.temperature = t
	}
}

// LLM is a [Corrector] backed by a language model. A reply that cannot be
// parsed leaves the text unchanged; transport errors are returned.
type LLM struct {
	provider    llm.Provider
	prompt      string
	temperature float64
}

var _ Corrector = (*LLM)(nil)

// NewLLM returns an LLM corrector that steers the model towards vocabulary.
func NewLLM(p llm.Provider, vocabulary []string, opts ...LLMOption) *LLM {
	c := &LLM{
		provider:    p,
		prompt:      fmt.Sprintf(systemPromptTemplate, strings.Join(vocabulary, ", ")),
		temperature: defaultTemperature,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Name implements [Corrector].
func (c *LLM) Name() string { return "llm" }

type llmReply struct {
	CorrectedText string `json:"corrected_text"`
}

// Correct implements [Corrector].
func (c *LLM) Correct(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}
	resp, err := c.provider.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: c.prompt,
		Messages:     []llm.Message{{Role: llm.RoleUser, Content: text}},
		Temperature:  c.temperature,
		JSON:         true,
	})
	if err != nil {
		return "", fmt.Errorf("spell: llm complete: %w", err)
	}
	if resp == nil {
		return "", fmt.Errorf("spell: llm complete: %w", llm.ErrEmptyReply)
	}

	var reply llmReply
	if err := json.Unmarshal([]byte(stripMarkdown(resp.Content)), &reply); err != nil {
		observe.Logger(ctx).Debug("spell: unparseable llm reply", "model", c.provider.Model(), "err", err)
		return text, nil
	}
	if strings.TrimSpace(reply.CorrectedText) == "" {
		return text, nil
	}
	return reply.CorrectedText, nil
}

// stripMarkdown removes the code fences some models wrap around JSON.
func stripMarkdown(s string) string {
	s = strings.TrimSpace(s)
	for _, prefix := range []string{"```json", "```"} {
		if after, ok := strings.CutPrefix(s, prefix); ok {
			s = after
			break
		}
	}
	s, _ = strings.CutSuffix(s, "```")
	return strings.TrimSpace(s)
}
