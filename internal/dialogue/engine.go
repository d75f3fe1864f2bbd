package dialogue

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/MrWong99/orderbot/internal/cuisine"
	"github.com/MrWong99/orderbot/internal/menu"
	"github.com/MrWong99/orderbot/internal/observe"
	"github.com/MrWong99/orderbot/internal/order"
	"github.com/MrWong99/orderbot/internal/orderlog"
)

// Turn outcomes reported to metrics.
const (
	outcomeOK    = "ok"
	outcomeRetry = "reprompt"
	outcomeError = "error"
)

// Option configures an [Engine].
type Option func(*Engine)

// WithIDGenerator replaces the default [RandomIDs].
func WithIDGenerator(g IDGenerator) Option {
	return func(e *Engine) {
		e.ids = g
	}
}

// WithSink hands every placed order to s.
func WithSink(s orderlog.Sink, name string) Option {
	return func(e *Engine) {
		e.sink = s
		e.sinkName = name
	}
}

// WithMetrics overrides the default metrics.
func WithMetrics(m *observe.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// Engine runs conversation turns. It holds no per-session state and is safe
// for concurrent use.
type Engine struct {
	catalog    *menu.Catalog
	classifier *cuisine.Classifier
	processor  *order.Processor

	ids      IDGenerator
	sink     orderlog.Sink
	sinkName string
	metrics  *observe.Metrics
}

// NewEngine returns an Engine over catalog.
func NewEngine(catalog *menu.Catalog, classifier *cuisine.Classifier, processor *order.Processor, opts ...Option) *Engine {
	e := &Engine{
		catalog:    catalog,
		classifier: classifier,
		processor:  processor,
		ids:        RandomIDs{},
		metrics:    observe.DefaultMetrics(),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// turn is the working state of one [Engine.Turn] call.
type turn struct {
	msg   string
	lower string
	resp  Response
	retry bool
}

func (t *turn) reprompt(msg string) {
	t.resp.Message = msg
	t.retry = true
}

// Turn advances the conversation by one message. It never fails: internal
// errors and panics produce a fixed apology and a fresh context.
func (e *Engine) Turn(ctx context.Context, req Request) (resp Response) {
	start := time.Now()
	in := NewContext()
	if req.Context != nil {
		in = req.Context.clone()
	}
	if in.State == "" {
		in.State = Welcome
	}

	ctx, span := observe.StartSpan(ctx, "dialogue.turn",
		trace.WithAttributes(attribute.String("dialogue.state", string(in.State))))
	defer span.End()
	log := observe.Logger(ctx).With("state", in.State)

	outcome := outcomeOK
	defer func() {
		if r := recover(); r != nil {
			log.Error("dialogue: panic during turn", "panic", r, "stack", string(debug.Stack()))
			span.SetStatus(codes.Error, fmt.Sprint(r))
			resp = apology()
			outcome = outcomeError
		}
		e.metrics.RecordTurn(ctx, string(in.State), outcome, time.Since(start))
	}()

	t := &turn{
		msg:   req.Message,
		lower: strings.ToLower(req.Message),
		resp:  newResponse(in),
	}
	if err := e.dispatch(ctx, t); err != nil {
		log.Error("dialogue: turn failed", "err", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		outcome = outcomeError
		return apology()
	}
	if t.retry {
		outcome = outcomeRetry
	}
	log.Debug("dialogue: turn done", "next", t.resp.Context.State, "outcome", outcome)
	return t.resp
}

func apology() Response {
	r := newResponse(NewContext())
	r.Message = msgApology
	return r
}

func (e *Engine) dispatch(ctx context.Context, t *turn) error {
	c := &t.resp.Context
	if c.State.needsRestaurant() && !e.catalog.Has(c.Restaurant) {
		return fmt.Errorf("dialogue: %s: %w: %q", c.State, ErrNoRestaurant, c.Restaurant)
	}

	switch c.State {
	case Welcome:
		e.welcome(t)
	case SelectRestaurant:
		return e.selectRestaurant(t)
	case Ordering:
		return e.ordering(ctx, t)
	case Checkout:
		e.checkout(t)
	case Payment:
		e.payment(t)
	case Delivery:
		e.delivery(ctx, t)
	case NewOrder:
		return e.newOrder(t)
	default:
		c.State = Welcome
		t.resp.Message = msgGreeting
	}
	return nil
}

func (e *Engine) welcome(t *turn) {
	ft := e.classifier.Classify(t.msg)
	t.resp.Message = fmt.Sprintf(msgRestaurants, ft)
	t.resp.Options = titles(e.catalog.ForFoodType(ft.String()))
	t.resp.Context.State = SelectRestaurant
}

func (e *Engine) selectRestaurant(t *turn) error {
	r, ok := e.findRestaurant(strings.TrimSpace(t.lower))
	if !ok {
		t.reprompt(msgUnknownPlace)
		t.resp.Options = titles(e.catalog.Restaurants())
		return nil
	}
	c := &t.resp.Context
	c.Restaurant = r
	c.State = Ordering
	t.resp.Message = fmt.Sprintf(msgMenu, title(r))
	return e.showMenu(t, r)
}

// findRestaurant matches by containment in either direction first, then by
// similarity ratio. Catalog order breaks ties.
func (e *Engine) findRestaurant(selected string) (string, bool) {
	if selected == "" {
		return "", false
	}
	names := e.catalog.Restaurants()
	for _, r := range names {
		if strings.Contains(r, selected) || strings.Contains(selected, r) {
			return r, true
		}
	}
	for _, r := range names {
		if order.Ratio(selected, r) > restaurantRatio {
			return r, true
		}
	}
	return "", false
}

func (e *Engine) showMenu(t *turn, restaurant string) error {
	items, err := e.catalog.Items(restaurant)
	if err != nil {
		return fmt.Errorf("dialogue: menu of %q: %w", restaurant, err)
	}
	list := items.List()
	for i := range list {
		list[i].Key = title(list[i].Key)
	}
	t.resp.Menu = list
	return nil
}

func (e *Engine) ordering(ctx context.Context, t *turn) error {
	c := &t.resp.Context
	if containsAny(t.lower, finishWords) {
		if len(c.Order) == 0 {
			t.reprompt(msgEmptyOrder)
			return nil
		}
		c.State = Checkout
		t.resp.Message = msgSummary
		t.resp.OrderSummary = &Summary{Items: c.Order, Total: order.Total(c.Order)}
		return nil
	}

	items, err := e.catalog.Items(c.Restaurant)
	if err != nil {
		return fmt.Errorf("dialogue: menu of %q: %w", c.Restaurant, err)
	}
	added := e.processor.Process(ctx, items, t.msg)
	if len(added) == 0 {
		e.metrics.RecordUnrecognised(ctx, c.Restaurant)
		t.reprompt(msgNotRecognised)
		return nil
	}
	c.Order = append(c.Order, added...)

	parts := make([]string, len(added))
	for i, l := range added {
		parts[i] = fmt.Sprintf("%d x %s", l.Quantity, title(l.Item))
	}
	t.resp.Message = fmt.Sprintf(msgAdded, strings.Join(parts, ", "))
	return nil
}

func (e *Engine) checkout(t *turn) {
	c := &t.resp.Context
	switch {
	case containsAny(t.lower, yesWords):
		c.State = Payment
		t.resp.Message = msgChoosePayment
		t.resp.Options = append([]string(nil), paymentOptions...)
	case containsAny(t.lower, noWords):
		c.State = Ordering
		t.resp.Message = msgKeepOrdering
	default:
		t.reprompt(msgConfirmOrNot)
	}
}

func (e *Engine) payment(t *turn) {
	for _, m := range paymentMethods {
		if strings.Contains(t.lower, m) {
			t.resp.Context.State = Delivery
			t.resp.Context.PaymentMethod = m
			t.resp.Message = msgAskAddress
			return
		}
	}
	t.reprompt(msgInvalidPayment)
	t.resp.Options = append([]string(nil), paymentOptions...)
}

func (e *Engine) delivery(ctx context.Context, t *turn) {
	if len(strings.Fields(t.msg)) < minAddressWords {
		t.reprompt(msgShortAddress)
		return
	}
	c := &t.resp.Context
	c.Address = strings.TrimSpace(t.msg)
	c.OrderID = e.ids.NewOrderID()

	method := c.PaymentMethod
	if method == "" {
		method = fallbackPaymentLabel
	}
	t.resp.Message = fmt.Sprintf(msgPlaced, c.OrderID, title(c.Restaurant), order.Total(c.Order), method)
	c.State = NewOrder

	e.metrics.RecordOrderPlaced(ctx, c.Restaurant)
	e.record(ctx, orderlog.NewPlaced(c.OrderID, c.Restaurant, c.Order, c.PaymentMethod, c.Address))
}

// record hands p to the sink. Failures are logged only.
func (e *Engine) record(ctx context.Context, p orderlog.Placed) {
	if e.sink == nil {
		return
	}
	if err := e.sink.Record(ctx, p); err != nil {
		observe.Logger(ctx).Warn("dialogue: order sink failed", "sink", e.sinkName, "order_id", p.OrderID, "err", err)
		e.metrics.RecordSinkError(ctx, e.sinkName)
	}
}

func (e *Engine) newOrder(t *turn) error {
	c := &t.resp.Context
	switch {
	case containsAny(t.lower, newWords):
		r := c.Restaurant
		*c = NewContext()
		c.State = Ordering
		c.Restaurant = r
		t.resp.Message = fmt.Sprintf(msgStartAgain, title(r))
		return e.showMenu(t, r)
	case containsAny(t.lower, farewellWords):
		*c = NewContext()
		t.resp.Message = msgFarewell
	default:
		t.reprompt(msgAnotherOrder)
		t.resp.Options = append([]string(nil), newOrderOption...)
	}
	return nil
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// title capitalises every word. A Caser is stateful, so each call gets its
// own.
func title(s string) string {
	return cases.Title(language.English).String(s)
}

func titles(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = title(s)
	}
	return out
}
