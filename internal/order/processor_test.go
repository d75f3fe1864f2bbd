package order_test

import (
	"context"
	"errors"
	"slices"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/MrWong99/orderbot/internal/lang"
	"github.com/MrWong99/orderbot/internal/menu"
	"github.com/MrWong99/orderbot/internal/observe"
	"github.com/MrWong99/orderbot/internal/order"
	"github.com/MrWong99/orderbot/internal/spell"
)

func itemsOf(t *testing.T, keys []string, price func(string) int) menu.Items {
	t.Helper()
	entries := make([]menu.Item, len(keys))
	for i, k := range keys {
		entries[i] = menu.Item{Key: k, Price: price(k)}
	}
	return menu.NewItems(entries...)
}

var prices = map[string]int{
	"chicken biryani": 220, "tandoori roti": 25, "mineral water": 20,
	"coke": 40, "fries": 80, "margherita pizza": 250,
}

func priceOf(k string) int {
	if p, ok := prices[k]; ok {
		return p
	}
	return 100
}

func newProcessor(opts ...order.ProcessorOption) *order.Processor {
	syn := order.DefaultSynonyms()
	return order.NewProcessor(
		order.NewExtractor(lang.NewLight(nil)),
		syn,
		order.NewMatcher(syn),
		opts...,
	)
}

func TestProcessor_Process(t *testing.T) {
	t.Parallel()

	p := newProcessor()
	ctx := context.Background()
	dd := itemsOf(t, desiDelight, priceOf)
	tb := itemsOf(t, tastyBites, priceOf)

	tests := []struct {
		name      string
		items     menu.Items
		utterance string
		want      []order.Line
	}{
		{
			name:      "single item",
			items:     dd,
			utterance: "2 chicken biryani",
			want:      []order.Line{{Item: "chicken biryani", Price: 220, Quantity: 2}},
		},
		{
			name:      "two items",
			items:     dd,
			utterance: "2 tandoori roti and 1 mineral water",
			want: []order.Line{
				{Item: "tandoori roti", Price: 25, Quantity: 2},
				{Item: "mineral water", Price: 20, Quantity: 1},
			},
		},
		{
			name:      "synonym",
			items:     dd,
			utterance: "3 water",
			want:      []order.Line{{Item: "mineral water", Price: 20, Quantity: 3}},
		},
		{
			name:      "duplicate phrase counted once",
			items:     tb,
			utterance: "1 coke, 1 coke and 2 fries",
			want: []order.Line{
				{Item: "coke", Price: 40, Quantity: 1},
				{Item: "fries", Price: 80, Quantity: 2},
			},
		},
		{
			name:      "word fallback",
			items:     tb,
			utterance: "1 coke fries",
			want: []order.Line{
				{Item: "coke", Price: 40, Quantity: 1},
				{Item: "fries", Price: 80, Quantity: 1},
			},
		},
		{
			name:      "word fallback skips unknown words",
			items:     tb,
			utterance: "2 xyzzy pizza",
			want:      []order.Line{{Item: "margherita pizza", Price: 250, Quantity: 2}},
		},
		{
			name:      "word already matched is not matched again",
			items:     tb,
			utterance: "1 coke fries, 2 coke",
			want: []order.Line{
				{Item: "coke", Price: 40, Quantity: 1},
				{Item: "fries", Price: 80, Quantity: 1},
			},
		},
		{
			name:      "nothing understood",
			items:     tb,
			utterance: "i would like a spaceship",
			want:      nil,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := p.Process(ctx, tc.items, tc.utterance)
			if !slices.Equal(got, tc.want) {
				t.Errorf("Process(%q) = %+v, want %+v", tc.utterance, got, tc.want)
			}
		})
	}
}

type stubCorrector struct {
	out string
	err error
}

func (s stubCorrector) Correct(context.Context, string) (string, error) { return s.out, s.err }
func (stubCorrector) Name() string                                       { return "stub" }

func TestProcessor_UsesCorrectedText(t *testing.T) {
	t.Parallel()

	p := newProcessor(order.WithCorrector(stubCorrector{out: "2 chicken biryani"}))
	got := p.Process(context.Background(), itemsOf(t, desiDelight, priceOf), "2 chikn biriyani plz")
	want := []order.Line{{Item: "chicken biryani", Price: 220, Quantity: 2}}
	if !slices.Equal(got, want) {
		t.Errorf("Process = %+v, want %+v", got, want)
	}
}

func TestProcessor_CorrectorFailureFallsBack(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	met, err := observe.NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	p := newProcessor(
		order.WithCorrector(stubCorrector{err: errors.New("boom")}),
		order.WithMetrics(met),
	)
	got := p.Process(context.Background(), itemsOf(t, tastyBites, priceOf), "2 fries")
	want := []order.Line{{Item: "fries", Price: 80, Quantity: 2}}
	if !slices.Equal(got, want) {
		t.Errorf("Process = %+v, want %+v", got, want)
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	var fallbacks int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "orderbot.corrector.fallbacks" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("fallbacks data is %T", m.Data)
			}
			for _, dp := range sum.DataPoints {
				fallbacks += dp.Value
			}
		}
	}
	if fallbacks != 1 {
		t.Errorf("corrector fallbacks = %d, want 1", fallbacks)
	}
}

func TestProcessor_DictionaryKeepsSpelledQuantities(t *testing.T) {
	t.Parallel()

	dd := itemsOf(t, desiDelight, priceOf)
	cat := menu.NewCatalog(menu.Restaurant{Name: "Desi Delight", Items: dd})
	p := newProcessor(order.WithCorrector(spell.NewDictionary(spell.Vocabulary(cat))))

	tests := []struct {
		utterance string
		want      []order.Line
	}{
		{"five roti", []order.Line{{Item: "tandoori roti", Price: 25, Quantity: 5}}},
		{"Five roti", []order.Line{{Item: "tandoori roti", Price: 25, Quantity: 5}}},
		{"three mineral water", []order.Line{{Item: "mineral water", Price: 20, Quantity: 3}}},
		{"four chiken biryani", []order.Line{{Item: "chicken biryani", Price: 220, Quantity: 4}}},
	}
	for _, tc := range tests {
		t.Run(tc.utterance, func(t *testing.T) {
			t.Parallel()
			got := p.Process(context.Background(), dd, tc.utterance)
			if !slices.Equal(got, tc.want) {
				t.Errorf("Process(%q) = %+v, want %+v", tc.utterance, got, tc.want)
			}
		})
	}
}

func TestProcessor_TaggerAndDictionary(t *testing.T) {
	t.Parallel()

	a := taggerAnnotator(t)
	dd := itemsOf(t, desiDelight, priceOf)
	cat := menu.NewCatalog(menu.Restaurant{Name: "Desi Delight", Items: dd})
	syn := order.DefaultSynonyms()
	p := order.NewProcessor(order.NewExtractor(a), syn, order.NewMatcher(syn),
		order.WithCorrector(spell.NewDictionary(spell.Vocabulary(cat))))

	tests := []struct {
		utterance string
		want      []order.Line
	}{
		{"2 chicken biryani", []order.Line{{Item: "chicken biryani", Price: 220, Quantity: 2}}},
		{"2 chicken biryani.", []order.Line{{Item: "chicken biryani", Price: 220, Quantity: 2}}},
		{"five roti", []order.Line{{Item: "tandoori roti", Price: 25, Quantity: 5}}},
	}
	for _, tc := range tests {
		t.Run(tc.utterance, func(t *testing.T) {
			t.Parallel()
			got := p.Process(context.Background(), dd, tc.utterance)
			if !slices.Equal(got, tc.want) {
				t.Errorf("Process(%q) = %+v, want %+v", tc.utterance, got, tc.want)
			}
		})
	}
}

func TestTotal(t *testing.T) {
	t.Parallel()

	lines := []order.Line{
		{Item: "chicken biryani", Price: 120, Quantity: 2},
		{Item: "coke", Price: 40, Quantity: 1},
	}
	if got := order.Total(lines); got != 280 {
		t.Errorf("Total = %d, want 280", got)
	}
	if got := order.Total(nil); got != 0 {
		t.Errorf("Total(nil) = %d, want 0", got)
	}
}
