// Package menu holds the restaurant catalog: restaurants, their items and
// prices, loaded once at startup from a flat file and read-only afterwards.
//
// The file format is a sequence of blank-line separated blocks. The first
// line of a block names the restaurant; every following line of the form
// "<item name> - <integer price>" adds an item. Lines without the " - "
// separator are ignored. Restaurant and item names are lower-cased and
// trimmed to form their keys.
package menu

import (
	"errors"
	"slices"
	"strings"
)

// ErrUnknownRestaurant is returned when a restaurant key is not in the
// catalog.
var ErrUnknownRestaurant = errors.New("menu: unknown restaurant")

// Item is one priced menu entry.
type Item struct {
	// Key is the lower-cased item name.
	Key string `json:"name"`

	// Price is the item price in whole currency units.
	Price int `json:"price"`
}

// Items is an ordered item map. Iteration order is file order. The zero
// value is an empty menu.
type Items struct {
	keys   []string
	prices map[string]int
}

// NewItems builds an [Items] from entries in order. A repeated key keeps its
// first position and takes the last price.
func NewItems(entries ...Item) Items {
	it := Items{prices: make(map[string]int, len(entries))}
	for _, e := range entries {
		it.set(e.Key, e.Price)
	}
	return it
}

func (it *Items) set(key string, price int) {
	if it.prices == nil {
		it.prices = make(map[string]int)
	}
	if _, ok := it.prices[key]; !ok {
		it.keys = append(it.keys, key)
	}
	it.prices[key] = price
}

// Keys returns the item keys in file order. The caller may modify the
// returned slice.
func (it Items) Keys() []string { return slices.Clone(it.keys) }

// Price returns the price of key.
func (it Items) Price(key string) (int, bool) {
	p, ok := it.prices[key]
	return p, ok
}

// Len returns the number of items.
func (it Items) Len() int { return len(it.keys) }

// List returns the items in file order.
func (it Items) List() []Item {
	out := make([]Item, len(it.keys))
	for i, k := range it.keys {
		out[i] = Item{Key: k, Price: it.prices[k]}
	}
	return out
}

// Catalog maps restaurant keys to their [Items]. It is immutable after
// construction and safe for concurrent use.
type Catalog struct {
	order []string
	menus map[string]Items
}

// Restaurant is one catalog entry, used to build a [Catalog] directly.
type Restaurant struct {
	Name  string
	Items Items
}

// NewCatalog builds a [Catalog] from restaurants in order. Names are
// normalised to keys. A repeated restaurant keeps its first position and
// takes the last menu.
func NewCatalog(restaurants ...Restaurant) *Catalog {
	c := &Catalog{menus: make(map[string]Items, len(restaurants))}
	for _, r := range restaurants {
		c.add(Key(r.Name), r.Items)
	}
	return c
}

func (c *Catalog) add(key string, items Items) {
	if _, ok := c.menus[key]; !ok {
		c.order = append(c.order, key)
	}
	c.menus[key] = items
}

// Key normalises a restaurant or item name.
func Key(name string) string { return strings.ToLower(strings.TrimSpace(name)) }

// Restaurants returns the restaurant keys in file order.
func (c *Catalog) Restaurants() []string { return slices.Clone(c.order) }

// Len returns the number of restaurants.
func (c *Catalog) Len() int { return len(c.order) }

// Items returns the menu of the restaurant with the given key.
func (c *Catalog) Items(restaurant string) (Items, error) {
	it, ok := c.menus[restaurant]
	if !ok {
		return Items{}, ErrUnknownRestaurant
	}
	return it, nil
}

// Has reports whether restaurant is in the catalog.
func (c *Catalog) Has(restaurant string) bool {
	_, ok := c.menus[restaurant]
	return ok
}

// Food type labels understood by [Catalog.ForFoodType].
const (
	FastFood = "fast food"
	Meals    = "meals"
	General  = "general"
)

// restaurantHints lists the name fragments that associate a restaurant with
// a food type.
var restaurantHints = map[string][]string{
	FastFood: {"tasty bites", "fast"},
	Meals:    {"desi delight", "meal"},
}

// ForFoodType recommends restaurants for a food type in catalog order.
// [General] and unknown types return every restaurant.
func (c *Catalog) ForFoodType(foodType string) []string {
	hints, ok := restaurantHints[foodType]
	if !ok {
		return c.Restaurants()
	}
	out := []string{}
	for _, r := range c.order {
		for _, h := range hints {
			if strings.Contains(r, h) {
				out = append(out, r)
				break
			}
		}
	}
	return out
}
