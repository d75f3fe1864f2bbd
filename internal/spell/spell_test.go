package spell_test

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/MrWong99/orderbot/internal/menu"
	"github.com/MrWong99/orderbot/internal/resilience"
	"github.com/MrWong99/orderbot/internal/spell"
	"github.com/MrWong99/orderbot/pkg/provider/llm"
	"github.com/MrWong99/orderbot/pkg/provider/llm/mock"
)

var vocab = []string{
	"chicken", "biryani", "garlic", "bread", "butter", "naan",
	"mineral", "water", "coke", "fries", "paneer", "tikka",
}

func TestDictionary_Correct(t *testing.T) {
	t.Parallel()
	d := spell.NewDictionary(vocab)

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"misspelled items", "2 chiken biriyani, 1 garlik bred!", "2 chicken biryani, 1 garlic bread!"},
		{"known words untouched", "1 butter naan and 2 coke", "1 butter naan and 2 coke"},
		{"short words untouched", "1 nan", "1 nan"},
		{"stopwords untouched", "with them", "with them"},
		{"too far away", "3 spaceship", "3 spaceship"},
		{"case folded on fix", "Paner Tika", "paneer tikka"},
		{"empty", "", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := d.Correct(context.Background(), tc.in)
			if err != nil {
				t.Fatalf("Correct: %v", err)
			}
			if got != tc.want {
				t.Errorf("Correct(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestDictionary_PhoneticTieBreak(t *testing.T) {
	t.Parallel()
	d := spell.NewDictionary([]string{"lake", "cake"})
	got, _ := d.Correct(context.Background(), "kake")
	if got != "cake" {
		t.Errorf("Correct(kake) = %q, want cake", got)
	}
}

func TestDictionary_AmbiguousLeftAlone(t *testing.T) {
	t.Parallel()
	d := spell.NewDictionary([]string{"cake", "coke"})
	got, _ := d.Correct(context.Background(), "cuke")
	if got != "cuke" {
		t.Errorf("Correct(cuke) = %q, want unchanged", got)
	}
}

func TestDictionary_MinLength(t *testing.T) {
	t.Parallel()
	d := spell.NewDictionary([]string{"naan"}, spell.WithMinLength(3))
	got, _ := d.Correct(context.Background(), "nan")
	if got != "naan" {
		t.Errorf("Correct(nan) = %q, want naan", got)
	}
}

func TestDictionary_KeepsNumberWords(t *testing.T) {
	t.Parallel()
	// Each number word is one edit away from a vocabulary word.
	d := spell.NewDictionary([]string{"give", "fight", "hour", "tea", "roti", "fries", "naan"}, spell.WithMinLength(3))

	for _, in := range []string{"five roti", "eight fries", "four naan", "ten tea", "Five Roti"} {
		got, err := d.Correct(context.Background(), in)
		if err != nil {
			t.Fatalf("Correct: %v", err)
		}
		if got != in {
			t.Errorf("Correct(%q) = %q, want it unchanged", in, got)
		}
	}
}

func TestVocabulary(t *testing.T) {
	t.Parallel()
	cat := menu.NewCatalog(menu.Restaurant{
		Name:  "Tasty Bites",
		Items: menu.NewItems(menu.Item{Key: "cheese burger", Price: 120}, menu.Item{Key: "fries", Price: 80}),
	})
	words := spell.Vocabulary(cat, "Extra Cheese")

	for _, w := range []string{"tasty", "bites", "cheese", "burger", "fries", "please", "extra"} {
		if !slices.Contains(words, w) {
			t.Errorf("vocabulary lacks %q", w)
		}
	}
	if !slices.IsSorted(words) {
		t.Error("vocabulary not sorted")
	}
	if len(slices.Compact(slices.Clone(words))) != len(words) {
		t.Error("vocabulary has duplicates")
	}
}

func TestLLM_Correct(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		err     error
		want    string
		wantErr bool
	}{
		{name: "json reply", content: `{"corrected_text":"2 chicken biryani"}`, want: "2 chicken biryani"},
		{name: "fenced reply", content: "```json\n{\"corrected_text\":\"2 chicken biryani\"}\n```", want: "2 chicken biryani"},
		{name: "prose reply keeps input", content: "Sure! Here you go.", want: "2 chikn biryani"},
		{name: "empty correction keeps input", content: `{"corrected_text":""}`, want: "2 chikn biryani"},
		{name: "provider error", err: errors.New("rate limited"), wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			p := &mock.Provider{ModelName: "test-model", CompleteErr: tc.err}
			if tc.err == nil {
				p.CompleteResponse = &llm.CompletionResponse{Content: tc.content}
			}
			c := spell.NewLLM(p, vocab)

			got, err := c.Correct(context.Background(), "2 chikn biryani")
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Correct: %v", err)
			}
			if got != tc.want {
				t.Errorf("Correct = %q, want %q", got, tc.want)
			}

			calls := p.Calls()
			if len(calls) != 1 {
				t.Fatalf("calls = %d, want 1", len(calls))
			}
			req := calls[0].Req
			if !req.JSON || req.Temperature != 0.1 {
				t.Errorf("request JSON=%v Temperature=%v", req.JSON, req.Temperature)
			}
			if req.Messages[0].Content != "2 chikn biryani" {
				t.Errorf("user message = %q", req.Messages[0].Content)
			}
		})
	}
}

func TestLLM_BlankInputSkipsProvider(t *testing.T) {
	t.Parallel()
	p := &mock.Provider{}
	got, err := spell.NewLLM(p, vocab).Correct(context.Background(), "   ")
	if err != nil || got != "   " {
		t.Fatalf("Correct = %q, %v", got, err)
	}
	if len(p.Calls()) != 0 {
		t.Error("provider should not be called for blank input")
	}
}

func TestChain(t *testing.T) {
	t.Parallel()
	cfg := resilience.FallbackConfig{CircuitBreaker: resilience.CircuitBreakerConfig{
		MaxFailures: 1, Cooldown: time.Hour,
	}}
	failing := spell.NewLLM(&mock.Provider{CompleteErr: errors.New("offline")}, vocab)
	chain := spell.NewChain(cfg, failing, spell.NewDictionary(vocab))

	if chain.Name() != "llm+dictionary" {
		t.Errorf("Name() = %q", chain.Name())
	}

	got, err := chain.Correct(context.Background(), "2 chiken biryani")
	if err != nil {
		t.Fatalf("Correct: %v", err)
	}
	if got != "2 chicken biryani" {
		t.Errorf("Correct = %q", got)
	}
	if chain.States()["llm"] != resilience.StateOpen {
		t.Errorf("llm breaker = %v, want open", chain.States()["llm"])
	}
}

func TestChain_AllFail(t *testing.T) {
	t.Parallel()
	chain := spell.NewChain(resilience.FallbackConfig{},
		spell.NewLLM(&mock.Provider{CompleteErr: errors.New("offline")}, vocab))
	if _, err := chain.Correct(context.Background(), "x"); !errors.Is(err, resilience.ErrAllFailed) {
		t.Fatalf("err = %v, want ErrAllFailed", err)
	}
}
