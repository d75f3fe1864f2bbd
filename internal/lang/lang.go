// Package lang provides the linguistic annotation layer used by the order
// pipeline: tokenisation, part-of-speech tags, lemmas and noun-phrase chunks.
//
// Two [Annotator] implementations ship with the package:
//
//   - [Tagger]: full fidelity. Tokens carry Penn Treebank tags from the prose
//     tagger, lemmas from golem, and noun chunks built from tag patterns.
//   - [Light]: degraded fidelity. A regular-expression tokeniser with lemmas
//     and stopword flags only; no tags, no chunks.
//
// The annotator is selected once at startup (see [Select]) and injected into
// the components that need it. Both implementations are read-only after
// construction and safe for concurrent use.
package lang

import (
	"strconv"
	"strings"
	"unicode"
)

// Token is a single annotated token.
type Token struct {
	// Text is the lower-cased surface form.
	Text string

	// Lemma is the dictionary form of Text. Equal to Text when the
	// lemmatiser does not know the word.
	Lemma string

	// Tag is the Penn Treebank part-of-speech tag (e.g. "NN", "JJ", "CD").
	// Empty when produced by an annotator that does not tag.
	Tag string

	// Stop reports whether Text is an English stopword.
	Stop bool
}

// IsAlpha reports whether the token consists of letters only.
func (t Token) IsAlpha() bool {
	if t.Text == "" {
		return false
	}
	for _, r := range t.Text {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

// IsNum reports whether the token looks like a number: either an all-digit
// string or a spelled-out cardinal.
func (t Token) IsNum() bool {
	if _, ok := t.Int(); ok {
		return true
	}
	return t.Tag == "CD"
}

// Int returns the integer value of the token when it is an all-digit string or
// a spelled-out cardinal between zero and twelve.
func (t Token) Int() (int, bool) {
	if n, err := strconv.Atoi(t.Text); err == nil && n >= 0 {
		return n, true
	}
	if n, ok := numberWords[t.Text]; ok {
		return n, true
	}
	return 0, false
}

// IsPunct reports whether the token is made of punctuation or symbols only.
func (t Token) IsPunct() bool {
	if t.Text == "" {
		return false
	}
	for _, r := range t.Text {
		if !unicode.IsPunct(r) && !unicode.IsSymbol(r) {
			return false
		}
	}
	return true
}

// IsNoun reports whether the token is tagged as a noun.
func (t Token) IsNoun() bool { return strings.HasPrefix(t.Tag, "NN") }

// IsAdj reports whether the token is tagged as an adjective.
func (t Token) IsAdj() bool { return strings.HasPrefix(t.Tag, "JJ") }

// Document is the result of annotating one piece of text.
type Document struct {
	// Tokens in text order.
	Tokens []Token

	// Chunks are noun-phrase chunks in text order, lower-cased and joined by
	// single spaces. Always nil for annotators that do not tag.
	Chunks []string
}

// Annotator turns raw text into a [Document].
//
// Implementations must be safe for concurrent use and must never fail: text
// that cannot be analysed yields an empty Document.
type Annotator interface {
	// Annotate tokenises and annotates text.
	Annotate(text string) Document

	// Tagged reports whether Documents carry part-of-speech tags and chunks.
	Tagged() bool

	// Name identifies the implementation in logs.
	Name() string
}

// Lemmatizer maps a word to its dictionary form.
type Lemmatizer interface {
	Lemma(word string) string
}

// Identity is a [Lemmatizer] that returns every word unchanged.
type Identity struct{}

// Lemma implements [Lemmatizer].
func (Identity) Lemma(word string) string { return word }

// Normalize returns the lower-cased lemmas of the alphabetic, non-stopword
// tokens in text, in order. Empty input yields an empty slice.
func Normalize(a Annotator, text string) []string {
	doc := a.Annotate(strings.ToLower(text))
	out := make([]string, 0, len(doc.Tokens))
	for _, tok := range doc.Tokens {
		if tok.Stop || !tok.IsAlpha() {
			continue
		}
		out = append(out, strings.ToLower(tok.Lemma))
	}
	return out
}

// numberWords maps spelled-out cardinals to their values.
var numberWords = map[string]int{
	"zero": 0, "one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
	"eleven": 11, "twelve": 12,
}
