package order

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/antzucaro/matchr"
	"github.com/pmezard/go-difflib/difflib"
)

const (
	defaultSubstringScore = 85
	defaultScoreThreshold = 75
	defaultSequenceCutoff = 0.75
)

// MatchOption is a functional option for configuring a [Matcher].
type MatchOption func(*Matcher)

// WithScoreThreshold sets the minimum 0–100 score the scored-similarity step
// accepts. Default: 75.
func WithScoreThreshold(score int) MatchOption {
	return func(m *Matcher) {
		m.scoreThreshold = score
	}
}

// WithSequenceCutoff sets the minimum 0–1 ratio the sequence-similarity step
// accepts. Default: 0.75.
func WithSequenceCutoff(cutoff float64) MatchOption {
	return func(m *Matcher) {
		m.sequenceCutoff = cutoff
	}
}

// Matcher resolves a free-text phrase to one of a set of candidate item keys.
//
// Resolution is layered; the first step that succeeds wins:
//
//  1. exact key match
//  2. synonym match
//  3. scored similarity (substring bonus or Levenshtein ratio)
//  4. sequence similarity (Ratcliff/Obershelp over characters)
//  5. word-subset or substring containment
//
// A Matcher is read-only after construction and safe for concurrent use.
type Matcher struct {
	synonyms       Synonyms
	substringScore int
	scoreThreshold int
	sequenceCutoff float64
}

// NewMatcher returns a [Matcher] that consults syn in step 2. A nil table
// disables synonym matching.
func NewMatcher(syn Synonyms, opts ...MatchOption) *Matcher {
	m := &Matcher{
		synonyms:       syn,
		substringScore: defaultSubstringScore,
		scoreThreshold: defaultScoreThreshold,
		sequenceCutoff: defaultSequenceCutoff,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Match returns the candidate phrase resolves to. When ok is false there is
// no match; when ok is true item is always an element of candidates.
func (m *Matcher) Match(phrase string, candidates []string) (item string, ok bool) {
	if phrase == "" || len(candidates) == 0 {
		return "", false
	}

	for _, c := range candidates {
		if c == phrase {
			return c, true
		}
	}

	if syn := m.synonyms.Resolve(phrase); syn != phrase {
		for _, c := range candidates {
			if c == syn {
				return c, true
			}
		}
	}

	if c, ok := m.scored(phrase, candidates); ok {
		return c, true
	}

	if c, ok := m.closest(phrase, candidates); ok {
		return c, true
	}

	return containing(phrase, candidates)
}

// scored implements step 3. Ties keep the first candidate seen.
func (m *Matcher) scored(phrase string, candidates []string) (string, bool) {
	best, bestScore := -1, -1
	for i, c := range candidates {
		score := m.substringScore
		if !strings.Contains(c, phrase) {
			score = Ratio(phrase, c)
		}
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	if best >= 0 && bestScore >= m.scoreThreshold {
		return candidates[best], true
	}
	return "", false
}

// closest implements step 4. Ties go to the lexicographically greater
// candidate.
func (m *Matcher) closest(phrase string, candidates []string) (string, bool) {
	var (
		best      string
		bestRatio float64
		found     bool
	)
	p := chars(phrase)
	for _, c := range candidates {
		r := difflib.NewMatcher(chars(c), p).Ratio()
		if r < m.sequenceCutoff {
			continue
		}
		if !found || r > bestRatio || (r == bestRatio && c > best) {
			best, bestRatio, found = c, r, true
		}
	}
	return best, found
}

// containing implements step 5.
func containing(phrase string, candidates []string) (string, bool) {
	words := strings.Fields(phrase)
	for _, c := range candidates {
		if strings.Contains(c, phrase) || subset(words, strings.Fields(c)) {
			return c, true
		}
	}
	return "", false
}

func subset(words, of []string) bool {
	if len(words) == 0 {
		return false
	}
	set := make(map[string]struct{}, len(of))
	for _, w := range of {
		set[w] = struct{}{}
	}
	for _, w := range words {
		if _, ok := set[w]; !ok {
			return false
		}
	}
	return true
}

// Ratio returns the similarity of a and b on a 0–100 scale, computed as
// round(100 * (max(len a, len b) - Levenshtein(a, b)) / max(len a, len b))
// over runes. Equal strings score 100 and strings that share nothing 0. It
// is symmetric.
//
// This is not the indel ratio 2*matches/(len a + len b) that fuzzywuzzy and
// rapidfuzz report. It penalises length differences harder: "fries" against
// "peri peri fries" scores 33 here and 50 there. The matcher scores phrases
// contained in a candidate separately, so that case never reaches Ratio.
func Ratio(a, b string) int {
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	longest := max(la, lb)
	if longest == 0 {
		return 100
	}
	d := matchr.Levenshtein(a, b)
	return int(math.Round(100 * float64(longest-d) / float64(longest)))
}

// chars splits s into single-rune strings for the sequence matcher.
func chars(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}
