// Package order turns free-form utterances into priced order lines.
//
// The pipeline is: correct the text, extract (quantity, phrase) pairs with an
// [Extractor], resolve each phrase through the [Synonyms] table and match it
// against the restaurant's item keys with a [Matcher]. Every component is
// read-only after construction and safe for concurrent use.
package order

import (
	"context"
	"strings"
	"time"

	"github.com/MrWong99/orderbot/internal/lang"
	"github.com/MrWong99/orderbot/internal/menu"
	"github.com/MrWong99/orderbot/internal/observe"
)

// Line is one priced, quantified order entry. Lines are appended to an
// order and never merged.
type Line struct {
	Item     string `json:"item"`
	Price    int    `json:"price"`
	Quantity int    `json:"quantity"`
}

// Total returns the sum of price × quantity over lines.
func Total(lines []Line) int {
	total := 0
	for _, l := range lines {
		total += l.Price * l.Quantity
	}
	return total
}

// Corrector returns a spelling-corrected version of text. Implementations
// may fail; the [Processor] then continues with the original text.
type Corrector interface {
	Correct(ctx context.Context, text string) (string, error)
}

// ProcessorOption is a functional option for configuring a [Processor].
type ProcessorOption func(*Processor)

// WithCorrector sets the text corrector run before extraction. Without one
// the utterance is used as is.
func WithCorrector(c Corrector) ProcessorOption {
	return func(p *Processor) {
		p.corrector = c
	}
}

// WithMetrics sets the metrics sink. Default: [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) ProcessorOption {
	return func(p *Processor) {
		p.metrics = m
	}
}

// Processor orchestrates correction, extraction and matching.
type Processor struct {
	corrector Corrector
	extractor *Extractor
	matcher   *Matcher
	synonyms  Synonyms
	metrics   *observe.Metrics
}

// NewProcessor returns a [Processor] that extracts with x, resolves phrases
// through syn and matches them with m.
func NewProcessor(x *Extractor, syn Synonyms, m *Matcher, opts ...ProcessorOption) *Processor {
	p := &Processor{
		extractor: x,
		matcher:   m,
		synonyms:  syn,
	}
	for _, o := range opts {
		o(p)
	}
	if p.metrics == nil {
		p.metrics = observe.DefaultMetrics()
	}
	return p
}

// Process returns the order lines understood in utterance against items, in
// extraction order. Each distinct phrase or word contributes at most one
// line. An empty result means nothing was understood.
func (p *Processor) Process(ctx context.Context, items menu.Items, utterance string) []Line {
	log := observe.Logger(ctx)
	text := p.correct(ctx, utterance)

	start := time.Now()
	ex, strategy := p.extractor.Extract(text)
	p.metrics.RecordStage(ctx, observe.StageExtract, time.Since(start))
	log.Debug("order: extracted", "strategy", strategy, "entities", ex.Entities)

	start = time.Now()
	defer func() { p.metrics.RecordStage(ctx, observe.StageMatch, time.Since(start)) }()

	keys := items.Keys()
	var (
		lines     []Line
		processed = make(map[string]struct{})
	)
	emit := func(key string, quantity int) {
		price, _ := items.Price(key)
		lines = append(lines, Line{Item: key, Price: price, Quantity: quantity})
	}

	for _, phrase := range ex.Entities {
		if _, done := processed[phrase]; done {
			continue
		}
		quantity := ex.Quantity(phrase)

		if key, ok := p.matcher.Match(p.synonyms.Resolve(phrase), keys); ok {
			emit(key, quantity)
			processed[phrase] = struct{}{}
			continue
		}

		words := strings.Fields(phrase)
		if len(words) < 2 {
			continue
		}
		for _, w := range words {
			if _, done := processed[w]; done || lang.IsStopword(w) {
				continue
			}
			if key, ok := p.matcher.Match(p.synonyms.Resolve(w), keys); ok {
				emit(key, quantity)
				processed[w] = struct{}{}
			}
		}
	}

	log.Debug("order: matched", "lines", len(lines))
	return lines
}

// correct runs the corrector and falls back to text on failure.
func (p *Processor) correct(ctx context.Context, text string) string {
	if p.corrector == nil {
		return text
	}
	start := time.Now()
	corrected, err := p.corrector.Correct(ctx, text)
	p.metrics.RecordStage(ctx, observe.StageCorrect, time.Since(start))
	if err != nil {
		observe.Logger(ctx).Warn("order: text correction failed, using original text", "err", err)
		p.metrics.RecordCorrectorFallback(ctx, correctorName(p.corrector))
		return text
	}
	if strings.TrimSpace(corrected) == "" {
		return text
	}
	return corrected
}

func correctorName(c Corrector) string {
	if n, ok := c.(interface{ Name() string }); ok {
		return n.Name()
	}
	return "unknown"
}
