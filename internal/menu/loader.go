package menu

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// LoadFile reads and parses the menu file at path.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("menu: open %q: %w", path, err)
	}
	defer f.Close()

	c, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("menu: %q: %w", path, err)
	}
	slog.Info("menu loaded", "path", path, "restaurants", c.Len())
	return c, nil
}

// LoadFromReader parses the menu format from r. An item line whose price is
// not an integer is an error. An input without any restaurant is an error.
func LoadFromReader(r io.Reader) (*Catalog, error) {
	c := &Catalog{menus: make(map[string]Items)}

	var (
		name  string
		items Items
		open  bool
	)
	flush := func() {
		if open {
			c.add(name, items)
		}
		name, items, open = "", Items{}, false
	}

	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			flush()
			continue
		}
		if !open {
			name, items, open = Key(line), Items{prices: map[string]int{}}, true
			continue
		}
		item, price, ok := strings.Cut(line, " - ")
		if !ok {
			continue
		}
		p, err := strconv.Atoi(strings.TrimSpace(price))
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid price %q: %w", lineNo, strings.TrimSpace(price), err)
		}
		items.set(Key(item), p)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	flush()

	if c.Len() == 0 {
		return nil, fmt.Errorf("no restaurants found")
	}
	return c, nil
}
