package mvel

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Option configures a Registry or an Engine.
type Option func(*options)

type options struct {
	logger       *slog.Logger
	strict       bool
	defaultLabel string
}

func newOptions(opts []Option) *options {
	o := &options{
		logger:       slog.New(slog.DiscardHandler),
		defaultLabel: "value",
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithStrict makes unknown comparison operators an error instead of falling
// back to "and".
func WithStrict(strict bool) Option {
	return func(o *options) {
		o.strict = strict
	}
}

// WithDefaultLabel sets the @label used when neither the rule nor the caller
// provides one.
func WithDefaultLabel(label string) Option {
	return func(o *options) {
		o.defaultLabel = label
	}
}

// Config is the file representation of registry aliases, macros and message
// overrides.
//
//	aliases:
//	  bool: boolean
//	macros:
//	  adult: required&integer&min:18
//	messages:
//	  required: "${@label} is mandatory."
type Config struct {
	Aliases  map[string]string `yaml:"aliases"`
	Macros   map[string]string `yaml:"macros"`
	Messages map[string]string `yaml:"messages"`
}

// LoadConfig reads a YAML Config from rd and applies it to r.
func (r *Registry) LoadConfig(rd io.Reader) error {
	var cfg Config
	dec := yaml.NewDecoder(rd)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && err != io.EOF {
		return fmt.Errorf("%w: decoding config: %v", ErrInvalidRuleDefinition, err)
	}
	return r.Apply(cfg)
}

// LoadConfigFile is like LoadConfig but reads from path.
func (r *Registry) LoadConfigFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return r.LoadConfig(f)
}

// Apply registers the aliases, macros and message overrides of cfg. Macros
// may reference each other in any order.
func (r *Registry) Apply(cfg Config) error {
	for _, alias := range sortedKeys(cfg.Aliases) {
		if err := r.Alias(alias, cfg.Aliases[alias]); err != nil {
			return err
		}
	}

	pending := sortedKeys(cfg.Macros)
	r.mu.Lock()
	for _, name := range pending {
		if _, ok := r.macros[name]; ok {
			r.mu.Unlock()
			return invalidDefinition("macro %q is already registered", name)
		}
	}
	r.mu.Unlock()
	for _, name := range pending {
		if err := r.Macro(name, cfg.Macros[name]); err != nil {
			return err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for name, msg := range cfg.Messages {
		if _, ok := r.rules[name]; !ok {
			return unknownRule("rule", name)
		}
		r.messages[name] = msg
	}
	r.logger.Debug("config applied",
		slog.Int("aliases", len(cfg.Aliases)),
		slog.Int("macros", len(cfg.Macros)),
		slog.Int("messages", len(cfg.Messages)),
	)
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
