// Package dialogue implements the food-ordering conversation as a state
// machine.
//
// The server keeps no sessions. Every [Request] carries the caller's
// [Context]; [Engine.Turn] works on a private copy and returns the updated
// context in the [Response], which the caller sends back on the next turn.
//
// States advance as:
//
//	welcome → select_restaurant → ordering ⇄ checkout → payment → delivery → new_order
//
// new_order loops back to ordering for another order with the same
// restaurant, or resets to welcome.
package dialogue

import (
	"errors"
	"slices"

	"github.com/MrWong99/orderbot/internal/menu"
	"github.com/MrWong99/orderbot/internal/order"
)

// ErrNoRestaurant is reported when a state that needs a restaurant finds
// none in the context, or one the catalog does not know.
var ErrNoRestaurant = errors.New("dialogue: no restaurant bound")

// State names a conversation step.
type State string

// Conversation states.
const (
	Welcome          State = "welcome"
	SelectRestaurant State = "select_restaurant"
	Ordering         State = "ordering"
	Checkout         State = "checkout"
	Payment          State = "payment"
	Delivery         State = "delivery"
	NewOrder         State = "new_order"
)

// needsRestaurant reports whether s is only valid with a bound restaurant.
func (s State) needsRestaurant() bool {
	switch s {
	case Ordering, Checkout, Payment, Delivery, NewOrder:
		return true
	}
	return false
}

// Context is the session state round-tripped by the caller.
type Context struct {
	State         State        `json:"state"`
	Restaurant    string       `json:"restaurant"`
	Order         []order.Line `json:"order"`
	PaymentMethod string       `json:"payment_method,omitempty"`
	Address       string       `json:"address,omitempty"`
	OrderID       string       `json:"order_id,omitempty"`
}

// NewContext returns the context of a fresh session.
func NewContext() Context {
	return Context{State: Welcome, Order: []order.Line{}}
}

// clone returns a deep copy with a non-nil order.
func (c Context) clone() Context {
	out := c
	out.Order = slices.Clone(c.Order)
	if out.Order == nil {
		out.Order = []order.Line{}
	}
	return out
}

// Request is one inbound customer message.
type Request struct {
	Message string `json:"message"`

	// Context is the session context from the previous response. Nil starts
	// a new session.
	Context *Context `json:"context,omitempty"`
}

// Summary is the order shown at checkout.
type Summary struct {
	Items []order.Line `json:"items"`
	Total int          `json:"total"`
}

// Response is the reply to a [Request].
type Response struct {
	Message      string      `json:"message"`
	Context      Context     `json:"context"`
	Options      []string    `json:"options"`
	Menu         []menu.Item `json:"menu"`
	OrderSummary *Summary    `json:"order_summary"`
}

func newResponse(c Context) Response {
	return Response{Context: c, Options: []string{}, Menu: []menu.Item{}}
}

// Reply texts.
const (
	msgApology        = "Sorry, there was an error processing your request. Please try again."
	msgGreeting       = "Welcome to NLP Food Ordering System! What would you like to eat today?"
	msgRestaurants    = "I found these restaurants for %s cuisine. Which one would you like to order from?"
	msgMenu           = "Great choice! Here's the menu from %s. What would you like to order?"
	msgUnknownPlace   = "I don't recognize that restaurant. Please select one from the list."
	msgSummary        = "Here's your order summary. Would you like to proceed to checkout?"
	msgEmptyOrder     = "Your order is empty. What would you like to order?"
	msgAdded          = "Added %s to your order. Anything else or type 'done' to finish?"
	msgNotRecognised  = "I didn't recognize any items from our menu. Could you try again or type 'done' to finish your order?"
	msgChoosePayment  = "Great! Please choose your payment method:"
	msgKeepOrdering   = "No problem. You can continue ordering or type 'done' when you're finished."
	msgConfirmOrNot   = "Would you like to proceed to checkout? Please respond with yes or no."
	msgAskAddress     = "Please provide your delivery address."
	msgInvalidPayment = "Please select a valid payment method: Credit Card, Debit Card, UPI, or Cash on Delivery."
	msgPlaced         = "Thank you! Your order (ID: %s) has been placed successfully with %s. Your total is ₹%d. Payment will be made via %s. Your food will be delivered to your address within 30-45 minutes."
	msgShortAddress   = "Please provide a valid delivery address with street name, area, and city."
	msgStartAgain     = "Sure! Let's start a new order with %s. What would you like to order?"
	msgFarewell       = "Thank you for ordering with us! Feel free to start a new order anytime. Just tell me what you're looking for."
	msgAnotherOrder   = "Would you like to place another order or are you done for now?"

	fallbackPaymentLabel = "selected payment method"
)

// Keyword vocabularies. Matching is substring containment on the lower-cased
// message.
var (
	finishWords   = []string{"done", "finished", "complete", "checkout"}
	yesWords      = []string{"yes", "proceed", "ok", "sure", "confirm"}
	noWords       = []string{"no", "cancel", "back"}
	newWords      = []string{"new", "another", "more", "again"}
	farewellWords = []string{"bye", "thank", "thanks", "quit", "exit"}

	// paymentMethods are checked in order; the first contained one wins.
	paymentMethods = []string{"credit card", "debit card", "upi", "cash on delivery"}
	paymentOptions = []string{"Credit Card", "Debit Card", "UPI", "Cash on Delivery"}
	newOrderOption = []string{"New Order", "Exit"}
)

// minAddressWords is the fewest whitespace-separated words accepted as a
// delivery address.
const minAddressWords = 3

// restaurantRatio is the similarity a typed restaurant name must exceed.
const restaurantRatio = 70
