package lang

import (
	"regexp"
	"strings"
)

// lightTokenPattern splits lower-cased text into words (with an optional
// apostrophe suffix), digit runs and single punctuation characters.
var lightTokenPattern = regexp.MustCompile(`[a-z]+(?:'[a-z]+)?|\d+|[^\s\w]`)

// Light is the degraded [Annotator]: tokenise, lemmatise and flag
// stopwords. It never tags and never chunks.
type Light struct {
	lemmas Lemmatizer
}

var _ Annotator = (*Light)(nil)

// NewLight returns a [Light] annotator. A nil lemmatizer falls back to
// [Identity].
func NewLight(l Lemmatizer) *Light {
	if l == nil {
		l = Identity{}
	}
	return &Light{lemmas: l}
}

// Annotate implements [Annotator].
func (a *Light) Annotate(text string) Document {
	raw := lightTokenPattern.FindAllString(strings.ToLower(text), -1)
	toks := make([]Token, 0, len(raw))
	for _, r := range raw {
		toks = append(toks, newToken(r, "", a.lemmas))
	}
	return Document{Tokens: toks}
}

// Tagged implements [Annotator]. Always false.
func (a *Light) Tagged() bool { return false }

// Name implements [Annotator].
func (a *Light) Name() string { return "light" }

// newToken builds a lower-cased [Token] with lemma and stopword flag.
func newToken(text, tag string, l Lemmatizer) Token {
	text = strings.ToLower(text)
	lemma := text
	if text != "" && !IsStopword(text) {
		if lm := l.Lemma(text); lm != "" {
			lemma = strings.ToLower(lm)
		}
	}
	return Token{
		Text:  text,
		Lemma: lemma,
		Tag:   tag,
		Stop:  IsStopword(text),
	}
}
