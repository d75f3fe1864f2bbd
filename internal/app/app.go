// Package app wires the orderbot subsystems into a running server.
//
// The App struct owns the full lifecycle: New loads the menu, builds the
// order pipeline, the dialogue engine and the order log sink, Run serves HTTP
// until its context ends, and Shutdown releases everything in order.
//
// For testing, inject doubles via functional options (WithCatalog, WithSink,
// etc.). When an option is not provided, New creates real implementations
// from the config.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MrWong99/orderbot/internal/config"
	"github.com/MrWong99/orderbot/internal/cuisine"
	"github.com/MrWong99/orderbot/internal/dialogue"
	"github.com/MrWong99/orderbot/internal/health"
	"github.com/MrWong99/orderbot/internal/lang"
	"github.com/MrWong99/orderbot/internal/menu"
	"github.com/MrWong99/orderbot/internal/observe"
	"github.com/MrWong99/orderbot/internal/order"
	"github.com/MrWong99/orderbot/internal/orderlog"
	"github.com/MrWong99/orderbot/internal/orderlog/kafka"
	"github.com/MrWong99/orderbot/internal/orderlog/postgres"
	"github.com/MrWong99/orderbot/internal/resilience"
	"github.com/MrWong99/orderbot/internal/spell"
	"github.com/MrWong99/orderbot/internal/web"
	"github.com/MrWong99/orderbot/pkg/provider/llm"
)

// Providers holds the external model backends. Nil means not configured.
// Populated by main.go via the config registry.
type Providers struct {
	// Corrector is the language model used by the "llm" and "chain"
	// corrector modes.
	Corrector llm.Provider
}

// App owns all subsystem lifetimes.
type App struct {
	cfg       *config.Config
	providers *Providers

	// Subsystems, initialised in New and torn down in Shutdown.
	catalog   *menu.Catalog
	annotator lang.Annotator
	corrector spell.Corrector
	sink      orderlog.Sink
	sinkName  string
	ids       dialogue.IDGenerator
	telemetry *observe.Telemetry
	metrics   *observe.Metrics
	engine    *dialogue.Engine
	handler   http.Handler
	server    *http.Server

	mu   sync.Mutex
	addr net.Addr

	// closers are called in order during Shutdown.
	closers []func(context.Context) error

	// stopOnce guards the Shutdown path.
	stopOnce sync.Once
}

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*App)

// WithCatalog injects a catalog instead of loading cfg.Menu.File.
func WithCatalog(c *menu.Catalog) Option {
	return func(a *App) { a.catalog = c }
}

// WithAnnotator injects an annotator instead of selecting one from
// cfg.NLP.Annotator.
func WithAnnotator(an lang.Annotator) Option {
	return func(a *App) { a.annotator = an }
}

// WithSink injects an order log sink instead of creating one from
// cfg.OrderLog. The sink is still closed on Shutdown.
func WithSink(s orderlog.Sink, name string) Option {
	return func(a *App) {
		a.sink = s
		a.sinkName = name
	}
}

// WithIDGenerator replaces the random order ID generator.
func WithIDGenerator(g dialogue.IDGenerator) Option {
	return func(a *App) { a.ids = g }
}

// WithTelemetry routes metrics to t and serves its registry at /metrics.
// The telemetry is shut down with the App.
func WithTelemetry(t *observe.Telemetry) Option {
	return func(a *App) { a.telemetry = t }
}

// ─── New ─────────────────────────────────────────────────────────────────────

// New creates an App by wiring all subsystems together. providers may be nil
// when no language model is configured.
func New(ctx context.Context, cfg *config.Config, providers *Providers, opts ...Option) (*App, error) {
	if providers == nil {
		providers = &Providers{}
	}
	a := &App{
		cfg:       cfg,
		providers: providers,
	}
	for _, o := range opts {
		o(a)
	}
	a.metrics = observe.DefaultMetrics()
	if a.telemetry != nil {
		a.metrics = a.telemetry.Metrics
	}

	// ── 1. Menu ──────────────────────────────────────────────────────────
	if a.catalog == nil {
		c, err := menu.LoadFile(cfg.Menu.File)
		if err != nil {
			return nil, fmt.Errorf("app: load menu: %w", err)
		}
		a.catalog = c
	}

	// ── 2. Annotator ─────────────────────────────────────────────────────
	if err := a.initAnnotator(); err != nil {
		return nil, fmt.Errorf("app: init annotator: %w", err)
	}

	// ── 3. Spelling corrector ────────────────────────────────────────────
	if err := a.initCorrector(); err != nil {
		return nil, fmt.Errorf("app: init corrector: %w", err)
	}

	// ── 4. Order log ─────────────────────────────────────────────────────
	if err := a.initSink(ctx); err != nil {
		return nil, fmt.Errorf("app: init order log: %w", err)
	}

	// ── 5. Dialogue engine ───────────────────────────────────────────────
	if err := a.initEngine(); err != nil {
		return nil, fmt.Errorf("app: init engine: %w", err)
	}

	// ── 6. HTTP ──────────────────────────────────────────────────────────
	a.initHTTP()

	if a.telemetry != nil {
		a.closers = append(a.closers, a.telemetry.Shutdown)
	}

	slog.Info("app initialised",
		"restaurants", a.catalog.Len(),
		"annotator", a.annotator.Name(),
		"corrector", correctorName(a.corrector),
		"sink", a.sinkName,
	)
	return a, nil
}

func (a *App) initAnnotator() error {
	if a.annotator != nil {
		return nil
	}
	lem, err := lang.NewLemmatizer()
	if err != nil {
		slog.Warn("lemmatizer unavailable, using surface forms", "err", err)
		lem = lang.Identity{}
	}
	an, err := lang.Select(lang.Mode(a.cfg.NLP.Annotator), lem)
	if err != nil {
		return err
	}
	a.annotator = an
	return nil
}

func (a *App) initCorrector() error {
	c := a.cfg.Corrector
	vocab := spell.Vocabulary(a.catalog)

	var dictOpts []spell.DictionaryOption
	if c.MinWordLength > 0 {
		dictOpts = append(dictOpts, spell.WithMinLength(c.MinWordLength))
	}

	switch c.Mode {
	case config.CorrectorNone:
		return nil
	case config.CorrectorDictionary, "":
		a.corrector = spell.NewDictionary(vocab, dictOpts...)
		return nil
	}

	if a.providers.Corrector == nil {
		return fmt.Errorf("corrector mode %q needs an LLM provider", c.Mode)
	}
	llmCorrector := spell.NewLLM(a.providers.Corrector, vocab)
	if c.Mode == config.CorrectorLLM {
		a.corrector = llmCorrector
		return nil
	}
	a.corrector = spell.NewChain(
		resilience.FallbackConfig{CircuitBreaker: breakerConfig("corrector", c.Breaker)},
		llmCorrector,
		spell.NewDictionary(vocab, dictOpts...),
	)
	return nil
}

func (a *App) initSink(ctx context.Context) error {
	if a.sink == nil {
		ol := a.cfg.OrderLog
		var (
			s   orderlog.Sink
			err error
		)
		switch ol.Sink {
		case config.SinkNone, "":
			return nil
		case config.SinkMemory:
			s = &orderlog.MemSink{}
		case config.SinkPostgres:
			s, err = postgres.New(ctx, ol.PostgresDSN)
		case config.SinkKafka:
			s, err = kafka.New(ol.Kafka.Brokers, ol.Kafka.Topic)
		default:
			return fmt.Errorf("unknown sink %q", ol.Sink)
		}
		if err != nil {
			return err
		}
		a.sink = orderlog.Guard(s, breakerConfig("orderlog/"+string(ol.Sink), ol.Breaker))
		a.sinkName = string(ol.Sink)
	}
	if a.sinkName == "" {
		a.sinkName = "custom"
	}
	sink := a.sink
	a.closers = append(a.closers, func(context.Context) error { return sink.Close() })
	return nil
}

func (a *App) initEngine() error {
	syn := order.DefaultSynonyms()
	if len(a.cfg.NLP.Synonyms) > 0 {
		s, err := order.NewSynonyms(a.cfg.NLP.Synonyms)
		if err != nil {
			return err
		}
		syn = s
	}

	procOpts := []order.ProcessorOption{order.WithMetrics(a.metrics)}
	if a.corrector != nil {
		procOpts = append(procOpts, order.WithCorrector(a.corrector))
	}
	proc := order.NewProcessor(order.NewExtractor(a.annotator), syn, order.NewMatcher(syn), procOpts...)

	engOpts := []dialogue.Option{dialogue.WithMetrics(a.metrics)}
	if a.ids != nil {
		engOpts = append(engOpts, dialogue.WithIDGenerator(a.ids))
	}
	if a.sink != nil {
		engOpts = append(engOpts, dialogue.WithSink(a.sink, a.sinkName))
	}
	a.engine = dialogue.NewEngine(a.catalog, cuisine.NewClassifier(a.annotator), proc, engOpts...)
	return nil
}

func (a *App) initHTTP() {
	checks := []health.Checker{health.CatalogCheck(a.catalog)}
	if a.sink != nil {
		checks = append(checks, health.PingCheck("orderlog", a.sink))
	}

	opts := []web.Option{
		web.WithMetrics(a.metrics),
		web.WithHealth(health.New(checks...)),
	}
	if a.telemetry != nil {
		opts = append(opts, web.WithMetricsHandler(a.telemetry.Handler()))
	}
	if a.cfg.Server.StaticDir != "" {
		opts = append(opts, web.WithStaticDir(a.cfg.Server.StaticDir))
	}
	a.handler = web.New(a.engine, opts...).Handler()
	a.server = &http.Server{
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// Handler returns the root HTTP handler.
func (a *App) Handler() http.Handler { return a.handler }

// Engine returns the dialogue engine.
func (a *App) Engine() *dialogue.Engine { return a.engine }

// Addr returns the address the server listens on, or nil before Run has
// bound it.
func (a *App) Addr() net.Addr {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.addr
}

// ─── Run ─────────────────────────────────────────────────────────────────────

// Run serves HTTP on cfg.Server.ListenAddr and blocks until ctx is cancelled
// or the server fails. On cancellation the server is drained within
// cfg.Server.ShutdownTimeout and Run returns ctx.Err().
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.cfg.Server.ListenAddr)
	if err != nil {
		return fmt.Errorf("app: listen: %w", err)
	}
	a.mu.Lock()
	a.addr = ln.Addr()
	a.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := a.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("app: serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		timeout := a.cfg.Server.ShutdownTimeout
		if timeout <= 0 {
			timeout = config.DefaultShutdownTimeout
		}
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
		defer cancel()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("app: drain http: %w", err)
		}
		return nil
	})

	slog.Info("app running", "addr", ln.Addr().String())
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// ─── Shutdown ────────────────────────────────────────────────────────────────

// Shutdown releases all subsystems in init order. It respects the context
// deadline: if ctx expires before all closers finish, remaining closers are
// skipped and the context error is returned.
func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error
	a.stopOnce.Do(func() {
		slog.Info("shutting down", "closers", len(a.closers))

		for i, closer := range a.closers {
			select {
			case <-ctx.Done():
				slog.Warn("shutdown deadline exceeded", "remaining", len(a.closers)-i)
				shutdownErr = ctx.Err()
				return
			default:
			}
			if err := closer(ctx); err != nil {
				slog.Warn("closer error", "index", i, "err", err)
			}
		}

		slog.Info("shutdown complete")
	})
	return shutdownErr
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

// breakerConfig converts a config.BreakerConfig to the resilience form.
func breakerConfig(name string, b config.BreakerConfig) resilience.CircuitBreakerConfig {
	return resilience.CircuitBreakerConfig{
		Name:        name,
		MaxFailures: b.MaxFailures,
		Cooldown:    b.Cooldown,
	}
}

func correctorName(c spell.Corrector) string {
	if c == nil {
		return "none"
	}
	return c.Name()
}
