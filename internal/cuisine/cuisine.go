// Package cuisine guesses which kind of food a customer is asking for.
package cuisine

import (
	"strings"

	"github.com/MrWong99/orderbot/internal/lang"
	"github.com/MrWong99/orderbot/internal/menu"
)

// FoodType is a coarse cuisine label.
type FoodType string

// Food types. Their values are the labels [menu.Catalog.ForFoodType] accepts.
const (
	FastFood FoodType = menu.FastFood
	Meals    FoodType = menu.Meals
	General  FoodType = menu.General
)

// String returns the label.
func (f FoodType) String() string { return string(f) }

var (
	fastFoodKeywords = set("burger", "pizza", "fries", "fry", "wrap", "snack", "sandwich",
		"mojito", "fast", "quick", "shake", "coke", "cola")
	mealKeywords = set("biryani", "roti", "paneer", "dal", "naan", "curry",
		"rice", "dinner", "lunch", "meal", "platter", "thali")

	fastFoodNames = []string{"tasty", "bites"}
	mealNames     = []string{"desi", "delight"}
)

func set(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

// Classifier maps utterances to a [FoodType]. It is read-only after
// construction and safe for concurrent use.
type Classifier struct {
	annotator lang.Annotator
}

// NewClassifier returns a Classifier normalising text with a.
func NewClassifier(a lang.Annotator) *Classifier {
	return &Classifier{annotator: a}
}

// Classify counts the distinct fast-food and meal keywords among the
// normalised tokens of utterance; the strictly larger count wins. On a tie,
// restaurant name fragments in the raw text decide, else [General].
func (c *Classifier) Classify(utterance string) FoodType {
	tokens := set(lang.Normalize(c.annotator, utterance)...)

	var fast, meal int
	for t := range tokens {
		if _, ok := fastFoodKeywords[t]; ok {
			fast++
		}
		if _, ok := mealKeywords[t]; ok {
			meal++
		}
	}
	switch {
	case fast > meal:
		return FastFood
	case meal > fast:
		return Meals
	}

	lower := strings.ToLower(utterance)
	switch {
	case containsAny(lower, fastFoodNames):
		return FastFood
	case containsAny(lower, mealNames):
		return Meals
	default:
		return General
	}
}

func containsAny(s string, fragments []string) bool {
	for _, f := range fragments {
		if strings.Contains(s, f) {
			return true
		}
	}
	return false
}
