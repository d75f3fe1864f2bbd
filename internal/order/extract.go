package order

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/MrWong99/orderbot/internal/lang"
)

// Extraction is the result of pulling item phrases out of an utterance.
type Extraction struct {
	// Entities lists phrases in the order they were found. A phrase may
	// appear more than once.
	Entities []string

	// Quantities maps a phrase to its quantity. Phrases missing from the map
	// have quantity 1.
	Quantities map[string]int
}

// Quantity returns the quantity recorded for phrase, defaulting to 1.
func (e Extraction) Quantity(phrase string) int {
	if q, ok := e.Quantities[phrase]; ok {
		return q
	}
	return 1
}

// Empty reports whether no phrase was extracted.
func (e Extraction) Empty() bool { return len(e.Entities) == 0 }

func (e *Extraction) add(phrase string, quantity int) {
	if e.Quantities == nil {
		e.Quantities = make(map[string]int)
	}
	e.Entities = append(e.Entities, phrase)
	e.Quantities[phrase] = quantity
}

// Strategy is one way of extracting phrases. Implementations never fail;
// finding nothing yields an empty [Extraction].
type Strategy interface {
	// Name identifies the strategy in logs and metrics.
	Name() string

	// Extract works on lower-cased text with the spelled numbers one..five
	// already replaced by digits.
	Extract(text string) Extraction
}

// Extractor runs an ordered chain of strategies and returns the first
// non-empty result. It is safe for concurrent use.
type Extractor struct {
	strategies []Strategy
}

// NewExtractor returns the standard chain for annotator a: the
// [PatternStrategy] first, then [AnnotatedStrategy] when a produces tags or
// [TokenStrategy] otherwise.
func NewExtractor(a lang.Annotator) *Extractor {
	second := Strategy(TokenStrategy{Annotator: a})
	if a.Tagged() {
		second = AnnotatedStrategy{Annotator: a}
	}
	return NewExtractorWith(PatternStrategy{}, second)
}

// NewExtractorWith returns an [Extractor] that runs strategies in order.
func NewExtractorWith(strategies ...Strategy) *Extractor {
	return &Extractor{strategies: strategies}
}

// Extract returns the phrases and quantities found in text along with the
// name of the strategy that found them. When nothing is found the strategy
// name is empty.
func (x *Extractor) Extract(text string) (Extraction, string) {
	text = prepare(text)
	for _, s := range x.strategies {
		if ex := s.Extract(text); !ex.Empty() {
			return ex, s.Name()
		}
	}
	return Extraction{Quantities: map[string]int{}}, ""
}

var spelledNumber = regexp.MustCompile(`\b(one|two|three|four|five)\b`)

var spelledDigits = map[string]string{
	"one": "1", "two": "2", "three": "3", "four": "4", "five": "5",
}

func prepare(text string) string {
	return spelledNumber.ReplaceAllStringFunc(strings.ToLower(text), func(w string) string {
		return spelledDigits[w]
	})
}

// quantityItem matches "<digits> <words>" terminated by a comma, "and", "&"
// or the end of the text.
var quantityItem = regexp.MustCompile(`(\d+)\s+([a-z\s]+?)(?:,|\s+and|\s+&|\s*$)`)

// PatternStrategy extracts "<quantity> <item>" pairs with a regular
// expression.
type PatternStrategy struct{}

// Name implements [Strategy].
func (PatternStrategy) Name() string { return "pattern" }

// Extract implements [Strategy].
func (PatternStrategy) Extract(text string) Extraction {
	var ex Extraction
	for _, m := range quantityItem.FindAllStringSubmatch(text, -1) {
		q, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		phrase := strings.TrimSpace(m[2])
		if phrase == "" {
			continue
		}
		ex.add(phrase, q)
	}
	return ex
}

// AnnotatedStrategy uses part-of-speech tags. A numeral followed by nouns,
// adjectives, "of" or "and" yields one phrase; without such numerals every
// noun chunk longer than two characters that is not made of stopwords only
// becomes a phrase with quantity 1.
type AnnotatedStrategy struct {
	Annotator lang.Annotator
}

// Name implements [Strategy].
func (AnnotatedStrategy) Name() string { return "annotated" }

// Extract implements [Strategy].
func (s AnnotatedStrategy) Extract(text string) Extraction {
	doc := s.Annotator.Annotate(text)
	toks := doc.Tokens

	var ex Extraction
	for i, tok := range toks {
		if !tok.IsNum() || i+1 >= len(toks) {
			continue
		}
		j := i + 1
		for j < len(toks) && (toks[j].IsNoun() || toks[j].IsAdj() || toks[j].Text == "of" || toks[j].Text == "and") {
			j++
		}
		if j == i+1 {
			continue
		}
		q, ok := tok.Int()
		if !ok {
			continue
		}
		ex.add(joinTokens(toks[i+1:j]), q)
	}
	if !ex.Empty() {
		return ex
	}

	for _, chunk := range doc.Chunks {
		if len(chunk) <= 2 || allStopwords(chunk) {
			continue
		}
		ex.add(chunk, 1)
	}
	return ex
}

// TokenStrategy is used when the annotator cannot tag. A numeral token
// collects the following tokens up to the next punctuation, numeral or
// "and".
type TokenStrategy struct {
	Annotator lang.Annotator
}

// Name implements [Strategy].
func (TokenStrategy) Name() string { return "tokens" }

// Extract implements [Strategy].
func (s TokenStrategy) Extract(text string) Extraction {
	toks := s.Annotator.Annotate(text).Tokens

	var ex Extraction
	for i, tok := range toks {
		q, ok := tok.Int()
		if !ok || i+1 >= len(toks) {
			continue
		}
		j := i + 1
		for j < len(toks) && !toks[j].IsPunct() && !toks[j].IsNum() && toks[j].Text != "and" {
			j++
		}
		if j > i+1 {
			ex.add(joinTokens(toks[i+1:j]), q)
		}
	}
	return ex
}

func joinTokens(toks []lang.Token) string {
	words := make([]string, len(toks))
	for i, t := range toks {
		words[i] = t.Text
	}
	return strings.Join(words, " ")
}

func allStopwords(phrase string) bool {
	for _, w := range strings.Fields(phrase) {
		if !lang.IsStopword(w) {
			return false
		}
	}
	return true
}
