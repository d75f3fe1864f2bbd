package lang

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/aaaton/golem/v4"
	"github.com/aaaton/golem/v4/dicts/en"
	"github.com/jdkato/prose/v2"
)

// Tagger is the full-fidelity [Annotator]. Tokens and part-of-speech tags come
// from the prose averaged-perceptron tagger; lemmas from the injected
// [Lemmatizer]; noun chunks from [chunkNouns].
type Tagger struct {
	lemmas Lemmatizer
}

var _ Annotator = (*Tagger)(nil)

// NewTagger returns a [Tagger]. A nil lemmatizer falls back to [Identity].
func NewTagger(l Lemmatizer) *Tagger {
	if l == nil {
		l = Identity{}
	}
	return &Tagger{lemmas: l}
}

// Annotate implements [Annotator]. Tagger failures are logged at debug level
// and produce an empty Document.
func (a *Tagger) Annotate(text string) Document {
	if strings.TrimSpace(text) == "" {
		return Document{}
	}
	doc, err := prose.NewDocument(text,
		prose.WithSegmentation(false),
		prose.WithExtraction(false),
	)
	if err != nil {
		slog.Debug("lang: tagger failed", "err", err)
		return Document{}
	}

	ptoks := doc.Tokens()
	toks := make([]Token, 0, len(ptoks))
	for _, pt := range ptoks {
		tok := newToken(pt.Text, pt.Tag, a.lemmas)
		if tok.Tag == "NNS" && tok.Lemma == tok.Text {
			tok.Lemma = singular(tok.Text)
		}
		toks = append(toks, tok)
	}
	return Document{Tokens: toks, Chunks: chunkNouns(toks)}
}

// singular strips a regular English plural ending. It covers plural nouns
// the lemmatizer's dictionary does not know, such as "burgers".
func singular(w string) string {
	switch {
	case len(w) > 4 && strings.HasSuffix(w, "ies"):
		return w[:len(w)-3] + "y"
	case len(w) > 4 && (strings.HasSuffix(w, "ches") || strings.HasSuffix(w, "shes") ||
		strings.HasSuffix(w, "sses") || strings.HasSuffix(w, "xes") || strings.HasSuffix(w, "zes")):
		return w[:len(w)-2]
	case len(w) > 3 && strings.HasSuffix(w, "s") && !strings.HasSuffix(w, "ss"):
		return w[:len(w)-1]
	}
	return w
}

// Tagged implements [Annotator]. Always true.
func (a *Tagger) Tagged() bool { return true }

// Name implements [Annotator].
func (a *Tagger) Name() string { return "tagger" }

// chunkNouns groups maximal runs of determiner, possessive, numeral,
// adjective and noun tokens into noun phrases. A run is trimmed back to its
// last noun; runs without a noun are dropped.
func chunkNouns(toks []Token) []string {
	var (
		chunks []string
		run    []Token
	)
	flush := func() {
		last := -1
		for i, t := range run {
			if t.IsNoun() {
				last = i
			}
		}
		if last >= 0 {
			words := make([]string, 0, last+1)
			for _, t := range run[:last+1] {
				words = append(words, t.Text)
			}
			chunks = append(chunks, strings.Join(words, " "))
		}
		run = run[:0]
	}

	for _, t := range toks {
		if inNounPhrase(t) {
			run = append(run, t)
			continue
		}
		flush()
	}
	flush()
	return chunks
}

// inNounPhrase reports whether t may be part of a noun phrase.
func inNounPhrase(t Token) bool {
	switch t.Tag {
	case "DT", "PRP$", "CD", "POS":
		return true
	}
	return t.IsNoun() || t.IsAdj()
}

// NewLemmatizer loads the English golem dictionary.
func NewLemmatizer() (Lemmatizer, error) {
	l, err := golem.New(en.New())
	if err != nil {
		return nil, fmt.Errorf("lang: load lemmatizer: %w", err)
	}
	return l, nil
}
