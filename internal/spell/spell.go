// Package spell fixes misspelled menu words in customer utterances before
// items are extracted.
//
// Three correctors are provided:
//
//   - [Dictionary] corrects words locally against the menu vocabulary using
//     Damerau-Levenshtein distance with a Double Metaphone tie-break.
//   - [LLM] asks a language model to rewrite the utterance with canonical
//     menu spellings.
//   - [Chain] tries several correctors in order, each behind its own circuit
//     breaker, and returns the first successful result.
//
// A corrector returns an error only when it could not run at all. Callers
// fall back to the uncorrected text in that case.
package spell

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/MrWong99/orderbot/internal/menu"
	"github.com/MrWong99/orderbot/internal/resilience"
)

// Corrector rewrites an utterance with corrected spellings.
type Corrector interface {
	Correct(ctx context.Context, text string) (string, error)
	Name() string
}

// orderWords are common non-menu words in orders. They are part of every
// vocabulary so the dictionary never bends them towards a menu item.
var orderWords = []string{
	"want", "like", "order", "give", "please", "add", "also", "plus",
	"thanks", "thank", "need", "get", "could", "would", "large", "small",
	"extra", "spicy", "done", "finished", "complete", "checkout",
}

// Vocabulary collects the distinct lower-case words of every restaurant name
// and menu item in c, plus extra. The result is sorted.
func Vocabulary(c *menu.Catalog, extra ...string) []string {
	seen := make(map[string]struct{})
	addWords := func(s string) {
		for _, w := range strings.Fields(strings.ToLower(s)) {
			seen[w] = struct{}{}
		}
	}
	for _, r := range c.Restaurants() {
		addWords(r)
		items, err := c.Items(r)
		if err != nil {
			continue
		}
		for _, k := range items.Keys() {
			addWords(k)
		}
	}
	for _, w := range orderWords {
		addWords(w)
	}
	for _, w := range extra {
		addWords(w)
	}

	out := make([]string, 0, len(seen))
	for w := range seen {
		out = append(out, w)
	}
	slices.Sort(out)
	return out
}

// Chain is a [Corrector] that fails over across correctors.
type Chain struct {
	group *resilience.FallbackGroup[Corrector]
}

var _ Corrector = (*Chain)(nil)

// NewChain returns a Chain trying correctors in the given order. Each one
// gets a circuit breaker built from cfg.
func NewChain(cfg resilience.FallbackConfig, correctors ...Corrector) *Chain {
	g := resilience.NewFallbackGroup[Corrector](cfg)
	for _, c := range correctors {
		g.Add(c.Name(), c)
	}
	return &Chain{group: g}
}

// Correct returns the result of the first corrector that succeeds.
func (c *Chain) Correct(ctx context.Context, text string) (string, error) {
	out, _, err := resilience.Do(ctx, c.group, func(ctx context.Context, cr Corrector) (string, error) {
		return cr.Correct(ctx, text)
	})
	if err != nil {
		return "", fmt.Errorf("spell: chain: %w", err)
	}
	return out, nil
}

// Name joins the member names with "+".
func (c *Chain) Name() string { return strings.Join(c.group.Names(), "+") }

// States reports the breaker state of every member.
func (c *Chain) States() map[string]resilience.State { return c.group.States() }
