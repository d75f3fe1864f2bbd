package anyllm

import (
	"errors"
	"slices"
	"testing"

	anyllmlib "github.com/mozilla-ai/any-llm-go"

	"github.com/MrWong99/orderbot/pkg/provider/llm"
)

func TestSupported(t *testing.T) {
	t.Parallel()
	got := Supported()
	if !slices.IsSorted(got) {
		t.Errorf("Supported() = %v, not sorted", got)
	}
	for _, want := range []string{"anthropic", "ollama", "openai"} {
		if !slices.Contains(got, want) {
			t.Errorf("Supported() lacks %q", want)
		}
	}
}

func TestNew(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		backend  string
		model    string
		opts     []anyllmlib.Option
		wantErr  bool
		wantName string
	}{
		{name: "empty model", backend: "openai", opts: []anyllmlib.Option{anyllmlib.WithAPIKey("dummy")}, wantErr: true},
		{name: "unknown backend", backend: "fakecloud", model: "m", wantErr: true},
		{name: "empty backend", model: "m", wantErr: true},
		{name: "case-insensitive", backend: "OpenAI", model: "gpt-4o-mini", opts: []anyllmlib.Option{anyllmlib.WithAPIKey("sk-test")}, wantName: "openai"},
		{name: "local ollama needs no key", backend: "ollama", model: "llama3.2", wantName: "ollama"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p, err := New(tt.backend, tt.model, tt.opts...)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			if p.name != tt.wantName || p.Model() != tt.model {
				t.Errorf("got %s/%s, want %s/%s", p.name, p.Model(), tt.wantName, tt.model)
			}
		})
	}
}

func TestParams(t *testing.T) {
	t.Parallel()
	p, err := New("ollama", "llama3.2")
	if err != nil {
		t.Fatal(err)
	}

	t.Run("corrector request", func(t *testing.T) {
		params, err := p.params(llm.CompletionRequest{
			SystemPrompt: "fix spelling",
			Messages:     []llm.Message{{Role: llm.RoleUser, Content: "2 chikn biryani"}},
			Temperature:  0.1,
			MaxTokens:    200,
			JSON:         true,
		})
		if err != nil {
			t.Fatalf("params: %v", err)
		}
		if params.Model != "llama3.2" {
			t.Errorf("Model = %q", params.Model)
		}
		if len(params.Messages) != 2 {
			t.Fatalf("len(Messages) = %d, want 2", len(params.Messages))
		}
		if params.Messages[0].Role != anyllmlib.RoleSystem || params.Messages[1].Role != llm.RoleUser {
			t.Errorf("roles = %q, %q", params.Messages[0].Role, params.Messages[1].Role)
		}
		if params.Messages[1].Content != "2 chikn biryani" {
			t.Errorf("user content = %v", params.Messages[1].Content)
		}
		if params.Temperature == nil || *params.Temperature != 0.1 {
			t.Errorf("Temperature = %v, want 0.1", params.Temperature)
		}
		if params.MaxTokens == nil || *params.MaxTokens != 200 {
			t.Errorf("MaxTokens = %v, want 200", params.MaxTokens)
		}
	})

	t.Run("zero values keep backend defaults", func(t *testing.T) {
		params, err := p.params(llm.CompletionRequest{
			Messages: []llm.Message{{Role: llm.RoleUser, Content: "1 coke"}},
		})
		if err != nil {
			t.Fatalf("params: %v", err)
		}
		if params.Temperature != nil || params.MaxTokens != nil {
			t.Errorf("Temperature, MaxTokens = %v, %v; want nil", params.Temperature, params.MaxTokens)
		}
		if len(params.Messages) != 1 {
			t.Errorf("len(Messages) = %d, want 1 without system prompt", len(params.Messages))
		}
	})

	t.Run("empty request", func(t *testing.T) {
		if _, err := p.params(llm.CompletionRequest{}); !errors.Is(err, llm.ErrNoMessages) {
			t.Errorf("err = %v, want ErrNoMessages", err)
		}
	})
}
