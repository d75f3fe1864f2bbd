package order_test

import (
	"slices"
	"testing"

	"github.com/MrWong99/orderbot/internal/order"
)

var tastyBites = []string{
	"cheese burger", "veg burger", "margherita pizza", "farmhouse pizza",
	"fries", "peri peri fries", "chicken wrap", "paneer wrap", "club sandwich",
	"garlic bread", "mango mojito", "chocolate shake", "coke", "ice cream",
}

var desiDelight = []string{
	"chicken biryani", "veg biryani", "paneer tikka", "butter naan",
	"tandoori roti", "dal makhani", "jeera rice", "butter chicken", "veg thali",
	"cappuccino", "orange juice", "mineral water", "gulab jamun",
}

func TestMatcher_Match(t *testing.T) {
	t.Parallel()

	m := order.NewMatcher(order.DefaultSynonyms())
	all := slices.Concat(tastyBites, desiDelight)

	tests := []struct {
		name   string
		phrase string
		want   string
		ok     bool
	}{
		{"exact", "fries", "fries", true},
		{"synonym", "soda", "coke", true},
		{"substring bonus keeps first seen", "biryani", "chicken biryani", true},
		{"typo within edit distance", "chiken biryani", "chicken biryani", true},
		{"two typos", "garlik bred", "garlic bread", true},
		{"sequence similarity fallback", "frise", "fries", true},
		{"reordered words", "naan butter", "butter naan", true},
		{"word subset", "pizza margherita", "margherita pizza", true},
		{"no match", "spaceship", "", false},
		{"empty phrase", "", "", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, ok := m.Match(tc.phrase, all)
			if got != tc.want || ok != tc.ok {
				t.Errorf("Match(%q) = %q, %v; want %q, %v", tc.phrase, got, ok, tc.want, tc.ok)
			}
		})
	}
}

func TestMatcher_SynonymOnlyWhenCandidate(t *testing.T) {
	t.Parallel()

	m := order.NewMatcher(order.DefaultSynonyms())
	if got, ok := m.Match("soda", []string{"cheese burger"}); ok {
		t.Errorf("Match(soda) = %q, want no match when coke is not on the menu", got)
	}
}

func TestMatcher_NoCandidates(t *testing.T) {
	t.Parallel()

	m := order.NewMatcher(nil)
	if _, ok := m.Match("fries", nil); ok {
		t.Error("Match against no candidates must not match")
	}
}

func TestMatcher_TotalAndDeterministic(t *testing.T) {
	t.Parallel()

	m := order.NewMatcher(order.DefaultSynonyms())
	phrases := []string{
		"", "a", "burger", "burgr", "chese", "veg", "pizza", "the best pizza",
		"water", "watr", "mineral", "biryani veg", "xyz", "ice", "cream ice",
		"paneer", "chicken", "lassi", "naan", "roti", "mojto", "shake it",
	}
	for _, candidates := range [][]string{tastyBites, desiDelight, {}} {
		for _, p := range phrases {
			got1, ok1 := m.Match(p, candidates)
			got2, ok2 := m.Match(p, candidates)
			if got1 != got2 || ok1 != ok2 {
				t.Errorf("Match(%q) not deterministic: %q,%v then %q,%v", p, got1, ok1, got2, ok2)
			}
			if ok1 && !slices.Contains(candidates, got1) {
				t.Errorf("Match(%q) = %q which is not a candidate", p, got1)
			}
			if !ok1 && got1 != "" {
				t.Errorf("Match(%q) returned %q with ok=false", p, got1)
			}
		}
	}
}

func TestMatcher_Thresholds(t *testing.T) {
	t.Parallel()

	// "frise" scores 60 in the scored step and only the sequence step
	// accepts it; raising that cutoff leaves it unmatched.
	m := order.NewMatcher(nil, order.WithSequenceCutoff(0.9))
	if got, ok := m.Match("frise", []string{"fries"}); ok {
		t.Errorf("Match(frise) = %q, want no match with cutoff 0.9", got)
	}

	m = order.NewMatcher(nil, order.WithScoreThreshold(60))
	if got, ok := m.Match("frise", []string{"fries"}); !ok || got != "fries" {
		t.Errorf("Match(frise) = %q, %v; want fries with threshold 60", got, ok)
	}
}

func TestRatio(t *testing.T) {
	t.Parallel()

	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 100},
		{"fries", "fries", 100},
		{"fries", "", 0},
		{"abc", "xyz", 0},
		{"chiken biryani", "chicken biryani", 93},
		{"frise", "fries", 60},
		{"fries", "peri peri fries", 33},
		{"burgr", "cheese burger", 38},
	}
	for _, tc := range tests {
		if got := order.Ratio(tc.a, tc.b); got != tc.want {
			t.Errorf("Ratio(%q, %q) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
		if got := order.Ratio(tc.b, tc.a); got != tc.want {
			t.Errorf("Ratio(%q, %q) = %d, want %d (symmetry)", tc.b, tc.a, got, tc.want)
		}
	}
}
