package spell

import (
	"context"
	"regexp"
	"strings"

	"github.com/antzucaro/matchr"

	"github.com/MrWong99/orderbot/internal/lang"
)

const defaultMinLength = 4

// DictionaryOption configures a [Dictionary].
type DictionaryOption func(*Dictionary)

// WithMinLength sets the shortest word length that is considered for
// correction. Default: 4.
func WithMinLength(n int) DictionaryOption {
	return func(d *Dictionary) {
		d.minLength = n
	}
}

// Dictionary corrects single words against a fixed vocabulary. It never
// fails and is safe for concurrent use.
//
// A word is replaced when it is not a stopword or number word, is unknown
// and a vocabulary word lies within the allowed edit distance: 1 for words
// of up to five letters, 2 for longer ones. Among equally distant candidates, one sharing a Double Metaphone
// code wins. A tie that phonetics cannot break leaves the word alone.
type Dictionary struct {
	minLength int
	known     map[string]struct{}
	entries   []dictEntry
}

type dictEntry struct {
	word    string
	primary string
	second  string
}

var _ Corrector = (*Dictionary)(nil)

var wordPattern = regexp.MustCompile(`[A-Za-z]+`)

// NewDictionary builds a Dictionary over vocabulary. Words are lower-cased.
func NewDictionary(vocabulary []string, opts ...DictionaryOption) *Dictionary {
	d := &Dictionary{
		minLength: defaultMinLength,
		known:     make(map[string]struct{}, len(vocabulary)),
	}
	for _, o := range opts {
		o(d)
	}
	for _, w := range vocabulary {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		if _, dup := d.known[w]; dup {
			continue
		}
		d.known[w] = struct{}{}
		p, s := matchr.DoubleMetaphone(w)
		d.entries = append(d.entries, dictEntry{word: w, primary: p, second: s})
	}
	return d
}

// Name implements [Corrector].
func (d *Dictionary) Name() string { return "dictionary" }

// Correct implements [Corrector]. Punctuation, digits and spacing are kept.
func (d *Dictionary) Correct(_ context.Context, text string) (string, error) {
	return wordPattern.ReplaceAllStringFunc(text, func(w string) string {
		if fixed, ok := d.word(strings.ToLower(w)); ok {
			return fixed
		}
		return w
	}), nil
}

// word returns the correction for a lower-case word, if any. Stopwords and
// spelled-out numbers are never touched; the extractor reads quantities from
// the latter.
func (d *Dictionary) word(w string) (string, bool) {
	if len(w) < d.minLength || lang.IsStopword(w) {
		return "", false
	}
	if _, isNum := (lang.Token{Text: w}).Int(); isNum {
		return "", false
	}
	if _, ok := d.known[w]; ok {
		return "", false
	}

	maxDist := 1
	if len(w) > 5 {
		maxDist = 2
	}
	wp, ws := matchr.DoubleMetaphone(w)

	type pick struct {
		word     string
		dist     int
		phonetic bool
	}
	var (
		best      pick
		ambiguous bool
	)
	for _, e := range d.entries {
		dist := matchr.DamerauLevenshtein(w, e.word)
		if dist > maxDist {
			continue
		}
		ph := soundsAlike(wp, ws, e.primary, e.second)
		switch {
		case best.word == "",
			dist < best.dist,
			dist == best.dist && ph && !best.phonetic:
			best = pick{word: e.word, dist: dist, phonetic: ph}
			ambiguous = false
		case dist == best.dist && ph == best.phonetic:
			ambiguous = true
		}
	}
	if best.word == "" || ambiguous {
		return "", false
	}
	return best.word, true
}

func soundsAlike(ap, as, bp, bs string) bool {
	if ap == "" || bp == "" {
		return false
	}
	return ap == bp || (as != "" && as == bp) || (bs != "" && ap == bs) || (as != "" && as == bs)
}
