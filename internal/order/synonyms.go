package order

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Synonyms maps colloquial phrases to canonical menu phrases. Keys and values
// are lower-case. A Synonyms value is never mutated after construction.
type Synonyms map[string]string

// DefaultSynonyms returns a fresh copy of the built-in synonym table.
func DefaultSynonyms() Synonyms {
	return Synonyms{
		"soda":         "coke",
		"cola":         "coke",
		"pepsi":        "coke",
		"chips":        "fries",
		"french fries": "fries",
		"icecream":     "ice cream",
		"naan":         "butter naan",
		"bread":        "garlic bread",
		"water":        "mineral water",
		"coffee":       "cappuccino",
		"paneer":       "paneer tikka",
		"chicken":      "chicken biryani",
		"rice":         "jeera rice",
		"wrap":         "chicken wrap",
		"burger":       "cheese burger",
		"mojito":       "mango mojito",
		"juice":        "orange juice",
		"shake":        "chocolate shake",
	}
}

// NewSynonyms normalises the keys and values of m and validates the result.
func NewSynonyms(m map[string]string) (Synonyms, error) {
	s := make(Synonyms, len(m))
	for k, v := range m {
		k = strings.ToLower(strings.TrimSpace(k))
		v = strings.ToLower(strings.TrimSpace(v))
		if k == "" || v == "" {
			return nil, fmt.Errorf("order: synonyms: empty entry %q -> %q", k, v)
		}
		s[k] = v
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Resolve returns the canonical phrase for phrase, or phrase unchanged when
// the table has no entry for it.
func (s Synonyms) Resolve(phrase string) string {
	if v, ok := s[phrase]; ok {
		return v
	}
	return phrase
}

// Validate reports an error when a canonical phrase is itself a key, which
// would make resolution depend on how many times it is applied.
func (s Synonyms) Validate() error {
	for _, k := range slices.Sorted(maps.Keys(s)) {
		v := s[k]
		if v == k {
			continue
		}
		if next, ok := s[v]; ok && next != v {
			return fmt.Errorf("order: synonyms: chained entry %q -> %q -> %q", k, v, next)
		}
	}
	return nil
}
