package dialogue

import (
	"fmt"
	"math/rand/v2"
)

// IDGenerator issues customer-facing order identifiers.
type IDGenerator interface {
	NewOrderID() string
}

// IDFunc adapts a function to [IDGenerator].
type IDFunc func() string

// NewOrderID implements [IDGenerator].
func (f IDFunc) NewOrderID() string { return f() }

// RandomIDs returns "ORDER" followed by a number in [10000, 99999]. IDs are
// not guaranteed unique.
type RandomIDs struct{}

var _ IDGenerator = RandomIDs{}

// NewOrderID implements [IDGenerator].
func (RandomIDs) NewOrderID() string {
	return fmt.Sprintf("ORDER%d", 10000+rand.IntN(90000))
}
