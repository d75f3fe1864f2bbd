package resilience

import (
	"context"
	"strings"

	"github.com/MrWong99/orderbot/pkg/provider/llm"
)

// LLMFallback is an [llm.Provider] that fails over across several backends.
type LLMFallback struct {
	group *FallbackGroup[llm.Provider]
}

var _ llm.Provider = (*LLMFallback)(nil)

// NewLLMFallback returns an LLMFallback with primary as its preferred backend.
func NewLLMFallback(primaryName string, primary llm.Provider, cfg FallbackConfig) *LLMFallback {
	return &LLMFallback{group: NewFallbackGroup[llm.Provider](cfg).Add(primaryName, primary)}
}

// AddFallback registers another backend behind the ones already added.
func (f *LLMFallback) AddFallback(name string, p llm.Provider) {
	f.group.Add(name, p)
}

// Complete returns the first successful completion.
func (f *LLMFallback) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	resp, _, err := Do(ctx, f.group, func(ctx context.Context, p llm.Provider) (*llm.CompletionResponse, error) {
		return p.Complete(ctx, req)
	})
	return resp, err
}

// Model joins the model names of all backends with "|".
func (f *LLMFallback) Model() string {
	models := make([]string, 0, f.group.Len())
	for _, e := range f.group.entries {
		models = append(models, e.value.Model())
	}
	return strings.Join(models, "|")
}
