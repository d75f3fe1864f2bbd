package lang

import (
	"fmt"
	"log/slog"
)

// Mode selects which [Annotator] implementation to use.
type Mode string

const (
	// ModeAuto prefers the [Tagger] and falls back to [Light] when the tagger
	// cannot annotate a test sentence.
	ModeAuto Mode = "auto"

	// ModeTagger requires the [Tagger].
	ModeTagger Mode = "tagger"

	// ModeLight forces the [Light] annotator.
	ModeLight Mode = "light"
)

// IsValid reports whether m is a recognised mode.
func (m Mode) IsValid() bool {
	switch m {
	case ModeAuto, ModeTagger, ModeLight:
		return true
	}
	return false
}

// checkSentence is annotated once at startup to check the tagger works.
const checkSentence = "I would like two plates of rice"

// Select returns the annotator for mode. It is called once at startup; the
// result is injected wherever annotation is needed.
func Select(mode Mode, l Lemmatizer) (Annotator, error) {
	switch mode {
	case ModeLight:
		return NewLight(l), nil
	case ModeTagger:
		t := NewTagger(l)
		if !works(t) {
			return nil, fmt.Errorf("lang: tagger unavailable")
		}
		return t, nil
	case ModeAuto, "":
		t := NewTagger(l)
		if works(t) {
			return t, nil
		}
		slog.Warn("lang: tagger unavailable, falling back to light annotator")
		return NewLight(l), nil
	default:
		return nil, fmt.Errorf("lang: unknown annotator mode %q", mode)
	}
}

// works reports whether a annotates the check sentence without panicking and
// with at least one tagged token.
func works(a Annotator) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("lang: annotator check panicked", "annotator", a.Name(), "panic", r)
			ok = false
		}
	}()
	for _, tok := range a.Annotate(checkSentence).Tokens {
		if tok.Tag != "" {
			return true
		}
	}
	return false
}
