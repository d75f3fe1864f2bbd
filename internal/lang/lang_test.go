package lang

import (
	"slices"
	"testing"
)

func TestLight_Tokens(t *testing.T) {
	t.Parallel()

	a := NewLight(nil)
	doc := a.Annotate("2 Rotis, and 1 mineral-water!")

	var got []string
	for _, tok := range doc.Tokens {
		got = append(got, tok.Text)
	}
	want := []string{"2", "rotis", ",", "and", "1", "mineral", "-", "water", "!"}
	if !slices.Equal(got, want) {
		t.Errorf("tokens = %q, want %q", got, want)
	}
	if doc.Chunks != nil {
		t.Errorf("Light must not chunk, got %q", doc.Chunks)
	}
	if a.Tagged() {
		t.Error("Light.Tagged() = true, want false")
	}
}

func TestToken_Predicates(t *testing.T) {
	t.Parallel()

	tests := []struct {
		tok                    Token
		alpha, num, punct, nou bool
	}{
		{Token{Text: "rice", Tag: "NN"}, true, false, false, true},
		{Token{Text: "12"}, false, true, false, false},
		{Token{Text: "three"}, true, true, false, false},
		{Token{Text: ","}, false, false, true, false},
		{Token{Text: "&"}, false, false, true, false},
		{Token{Text: ""}, false, false, false, false},
	}
	for _, tc := range tests {
		if got := tc.tok.IsAlpha(); got != tc.alpha {
			t.Errorf("%q.IsAlpha() = %v, want %v", tc.tok.Text, got, tc.alpha)
		}
		if got := tc.tok.IsNum(); got != tc.num {
			t.Errorf("%q.IsNum() = %v, want %v", tc.tok.Text, got, tc.num)
		}
		if got := tc.tok.IsPunct(); got != tc.punct {
			t.Errorf("%q.IsPunct() = %v, want %v", tc.tok.Text, got, tc.punct)
		}
		if got := tc.tok.IsNoun(); got != tc.nou {
			t.Errorf("%q.IsNoun() = %v, want %v", tc.tok.Text, got, tc.nou)
		}
	}
}

func TestNormalize_DropsStopwordsAndNonAlpha(t *testing.T) {
	t.Parallel()

	got := Normalize(NewLight(nil), "I want 2 Biryani, please!")
	want := []string{"want", "biryani", "please"}
	if !slices.Equal(got, want) {
		t.Errorf("Normalize = %q, want %q", got, want)
	}
}

func TestNormalize_Empty(t *testing.T) {
	t.Parallel()

	got := Normalize(NewLight(nil), "")
	if got == nil || len(got) != 0 {
		t.Errorf("Normalize(\"\") = %#v, want empty non-nil slice", got)
	}
}

type suffixLemmas struct{}

func (suffixLemmas) Lemma(w string) string {
	if len(w) > 3 && w[len(w)-1] == 's' {
		return w[:len(w)-1]
	}
	return w
}

func TestNormalize_UsesLemmas(t *testing.T) {
	t.Parallel()

	got := Normalize(NewLight(suffixLemmas{}), "burgers and shakes")
	want := []string{"burger", "shake"}
	if !slices.Equal(got, want) {
		t.Errorf("Normalize = %q, want %q", got, want)
	}
}

func TestChunkNouns(t *testing.T) {
	t.Parallel()

	toks := []Token{
		{Text: "i", Tag: "PRP"},
		{Text: "want", Tag: "VBP"},
		{Text: "a", Tag: "DT"},
		{Text: "spicy", Tag: "JJ"},
		{Text: "paneer", Tag: "NN"},
		{Text: "wrap", Tag: "NN"},
		{Text: "and", Tag: "CC"},
		{Text: "the", Tag: "DT"},
		{Text: "big", Tag: "JJ"},
		{Text: ".", Tag: "."},
	}
	got := chunkNouns(toks)
	want := []string{"a spicy paneer wrap"}
	if !slices.Equal(got, want) {
		t.Errorf("chunkNouns = %q, want %q", got, want)
	}
}

func TestSelect_Light(t *testing.T) {
	t.Parallel()

	a, err := Select(ModeLight, nil)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if a.Name() != "light" {
		t.Errorf("Name = %q, want light", a.Name())
	}
}

func TestSelect_UnknownMode(t *testing.T) {
	t.Parallel()

	if _, err := Select(Mode("spacy"), nil); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}

func TestTagger_TagsNumerals(t *testing.T) {
	t.Parallel()

	doc := NewTagger(nil).Annotate("i want 2 pizzas")
	if len(doc.Tokens) == 0 {
		t.Fatal("no tokens")
	}
	var found bool
	for _, tok := range doc.Tokens {
		if tok.Text == "2" && tok.IsNum() {
			found = true
		}
		if tok.Tag == "" {
			t.Errorf("token %q has no tag", tok.Text)
		}
	}
	if !found {
		t.Error("numeral token 2 not found")
	}
}

func TestSingular(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"burgers":    "burger",
		"fries":      "fry",
		"sandwiches": "sandwich",
		"dishes":     "dish",
		"glasses":    "glass",
		"boxes":      "box",
		"shakes":     "shake",
		"glass":      "glass",
		"bus":        "bus",
		"pies":       "pie",
	}
	for in, want := range tests {
		if got := singular(in); got != want {
			t.Errorf("singular(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTagger_SingularisesUnknownPlurals(t *testing.T) {
	t.Parallel()

	doc := NewTagger(Identity{}).Annotate("two burgers please")
	var found bool
	for _, tok := range doc.Tokens {
		if tok.Text != "burgers" {
			continue
		}
		found = true
		if tok.Tag != "NNS" {
			t.Fatalf("burgers tagged %q, want NNS", tok.Tag)
		}
		if tok.Lemma != "burger" {
			t.Errorf("Lemma = %q, want burger", tok.Lemma)
		}
	}
	if !found {
		t.Fatal("token burgers not found")
	}
}

func TestTagger_GolemPlurals(t *testing.T) {
	t.Parallel()

	lem, err := NewLemmatizer()
	if err != nil {
		t.Fatalf("NewLemmatizer: %v", err)
	}
	got := Normalize(NewTagger(lem), "burgers please")
	if !slices.Contains(got, "burger") {
		t.Errorf("Normalize = %q, want it to contain burger", got)
	}
}
