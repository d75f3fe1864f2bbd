package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/MrWong99/orderbot/internal/lang"
	"github.com/MrWong99/orderbot/internal/order"
)

// ValidLLMNames lists the LLM backends registered by the orderbot binary.
// Used by [Validate] to warn about unrecognised provider names.
var ValidLLMNames = []string{
	"openai", "anthropic", "ollama", "gemini", "deepseek", "mistral", "groq", "llamacpp", "llamafile",
}

// Defaults applied by [ApplyDefaults].
const (
	DefaultListenAddr      = ":8080"
	DefaultShutdownTimeout = 15 * time.Second
	DefaultKafkaTopic      = "orders.placed"
)

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader] and [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, fills in defaults and
// validates the result. Useful in tests where configs are constructed from
// string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	ApplyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyDefaults fills unset fields with their defaults.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = DefaultListenAddr
	}
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = LogInfo
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.NLP.Annotator == "" {
		cfg.NLP.Annotator = string(lang.ModeAuto)
	}
	if cfg.Corrector.Mode == "" {
		cfg.Corrector.Mode = CorrectorDictionary
	}
	if cfg.OrderLog.Sink == "" {
		cfg.OrderLog.Sink = SinkNone
	}
	if cfg.OrderLog.Sink == SinkKafka && cfg.OrderLog.Kafka.Topic == "" {
		cfg.OrderLog.Kafka.Topic = DefaultKafkaTopic
	}
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	if cfg.Server.ShutdownTimeout < 0 {
		errs = append(errs, fmt.Errorf("server.shutdown_timeout %s must not be negative", cfg.Server.ShutdownTimeout))
	}
	if cfg.Server.StaticDir != "" {
		if fi, err := os.Stat(cfg.Server.StaticDir); err != nil || !fi.IsDir() {
			slog.Warn("server.static_dir is not a readable directory; the web client will not be served",
				"static_dir", cfg.Server.StaticDir)
		}
	}

	// Menu
	if cfg.Menu.File == "" {
		errs = append(errs, errors.New("menu.file is required"))
	}

	// NLP
	if cfg.NLP.Annotator != "" && !lang.Mode(cfg.NLP.Annotator).IsValid() {
		errs = append(errs, fmt.Errorf("nlp.annotator %q is invalid; valid values: auto, tagger, light", cfg.NLP.Annotator))
	}
	if len(cfg.NLP.Synonyms) > 0 {
		if _, err := order.NewSynonyms(cfg.NLP.Synonyms); err != nil {
			errs = append(errs, fmt.Errorf("nlp.synonyms: %w", err))
		}
	}

	// Corrector
	c := cfg.Corrector
	if c.Mode != "" && !c.Mode.IsValid() {
		errs = append(errs, fmt.Errorf("corrector.mode %q is invalid; valid values: none, dictionary, llm, chain", c.Mode))
	}
	if c.MinWordLength < 0 {
		errs = append(errs, fmt.Errorf("corrector.min_word_length %d must not be negative", c.MinWordLength))
	}
	if c.Mode.UsesLLM() {
		errs = append(errs, validateProvider("corrector.llm", c.LLM)...)
		for i, fb := range c.Fallbacks {
			errs = append(errs, validateProvider(fmt.Sprintf("corrector.fallbacks[%d]", i), fb)...)
		}
	} else if c.LLM.Name != "" || len(c.Fallbacks) > 0 {
		slog.Warn("corrector.llm is configured but unused", "mode", c.Mode)
	}
	errs = append(errs, validateBreaker("corrector.breaker", c.Breaker)...)

	// Order log
	ol := cfg.OrderLog
	if ol.Sink != "" && !ol.Sink.IsValid() {
		errs = append(errs, fmt.Errorf("orderlog.sink %q is invalid; valid values: none, memory, postgres, kafka", ol.Sink))
	}
	switch ol.Sink {
	case SinkPostgres:
		if ol.PostgresDSN == "" {
			errs = append(errs, errors.New("orderlog.postgres_dsn is required when sink is postgres"))
		}
	case SinkKafka:
		if len(ol.Kafka.Brokers) == 0 {
			errs = append(errs, errors.New("orderlog.kafka.brokers is required when sink is kafka"))
		}
		if ol.Kafka.Topic == "" {
			errs = append(errs, errors.New("orderlog.kafka.topic is required when sink is kafka"))
		}
	case SinkMemory:
		slog.Warn("orderlog.sink is memory; placed orders are lost on restart")
	}
	errs = append(errs, validateBreaker("orderlog.breaker", ol.Breaker)...)

	return errors.Join(errs...)
}

func validateProvider(prefix string, e ProviderEntry) []error {
	var errs []error
	if e.Name == "" {
		errs = append(errs, fmt.Errorf("%s.name is required", prefix))
	} else if !slices.Contains(ValidLLMNames, e.Name) {
		slog.Warn("unknown provider name; it must be registered before use",
			"field", prefix,
			"name", e.Name,
			"known", ValidLLMNames,
		)
	}
	if e.Model == "" {
		errs = append(errs, fmt.Errorf("%s.model is required", prefix))
	}
	if e.Timeout < 0 {
		errs = append(errs, fmt.Errorf("%s.timeout %s must not be negative", prefix, e.Timeout))
	}
	return errs
}

func validateBreaker(prefix string, b BreakerConfig) []error {
	var errs []error
	if b.MaxFailures < 0 {
		errs = append(errs, fmt.Errorf("%s.max_failures %d must not be negative", prefix, b.MaxFailures))
	}
	if b.Cooldown < 0 {
		errs = append(errs, fmt.Errorf("%s.cooldown %s must not be negative", prefix, b.Cooldown))
	}
	return errs
}
