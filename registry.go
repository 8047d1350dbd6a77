package mvel

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
)

// Registry holds rule definitions, aliases and macros. It is meant to be
// populated at startup and read afterwards; the lock only keeps the maps
// consistent, it does not make registration atomic with running validations.
type Registry struct {
	mu       sync.RWMutex
	rules    map[string]*Rule
	aliases  map[string]string
	macros   map[string]string
	messages map[string]string
	logger   *slog.Logger
}

// NewRegistry returns an empty registry.
func NewRegistry(opts ...Option) *Registry {
	o := newOptions(opts)
	return &Registry{
		rules:    map[string]*Rule{},
		aliases:  map[string]string{},
		macros:   map[string]string{},
		messages: map[string]string{},
		logger:   o.logger,
	}
}

var defaultRegistry = NewRegistry()

// DefaultRegistry returns the process-wide registry used by the package level
// functions.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// Register adds rule definitions. Names must be unique across rules and aliases.
func (r *Registry) Register(rules ...*Rule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rule := range rules {
		if err := rule.validate(); err != nil {
			return err
		}
		if _, ok := r.rules[rule.Name]; ok {
			return invalidDefinition("rule %q is already registered", rule.Name)
		}
		if _, ok := r.aliases[rule.Name]; ok {
			return invalidDefinition("rule %q collides with an alias", rule.Name)
		}
		r.rules[rule.Name] = rule
	}
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(rules ...*Rule) {
	if err := r.Register(rules...); err != nil {
		panic(err)
	}
}

// Alias registers alias as another name for the canonical rule. Aliases
// resolve exactly one level, so the target must not be an alias itself.
func (r *Registry) Alias(alias, rule string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !validName(alias) {
		return invalidDefinition("alias name %q must match [A-Za-z0-9_\\-.]{2,255}", alias)
	}
	if _, ok := r.rules[alias]; ok {
		return invalidDefinition("alias %q collides with a rule", alias)
	}
	if _, ok := r.aliases[rule]; ok {
		return invalidDefinition("alias %q targets alias %q, only rules can be aliased", alias, rule)
	}
	if _, ok := r.rules[rule]; !ok {
		return unknownRule("rule", rule)
	}
	r.aliases[alias] = rule
	r.logger.Debug("alias registered", slog.String("alias", alias), slog.String("rule", rule))
	return nil
}

// Macro registers a named expansion. The expression is checked for
// structure and for cycles through other macros before it is stored.
func (r *Registry) Macro(name, expression string) error {
	if !validName(name) {
		return invalidDefinition("macro name %q must match [A-Za-z0-9_\\-.]{2,255}", name)
	}
	if err := checkExpression(expression); err != nil {
		return fmt.Errorf("macro %q: %w", name, err)
	}
	behavior, _, _ := lex(expression)
	if behavior != Normal {
		return invalidDefinition("macro %q must not carry a behavior character", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if path := r.macroCycle(name, expression, []string{name}); path != nil {
		return invalidDefinition("macro %q is cyclic: %s", name, strings.Join(path, " -> "))
	}
	r.macros[name] = expression
	r.logger.Debug("macro registered", slog.String("macro", name), slog.String("expression", expression))
	return nil
}

// macroCycle returns the reference path back to root, or nil.
func (r *Registry) macroCycle(root, expression string, path []string) []string {
	_, tokens, _ := lex(expression)
	for _, t := range tokens {
		if t.kind != tokMacro {
			continue
		}
		next := append(append([]string{}, path...), t.name)
		if t.name == root {
			return next
		}
		if expr, ok := r.macros[t.name]; ok {
			if cycle := r.macroCycle(root, expr, next); cycle != nil {
				return cycle
			}
		}
	}
	return nil
}

// Lookup returns the canonical definition for name, following one alias.
func (r *Registry) Lookup(name string) (*Rule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lookup(name)
}

func (r *Registry) lookup(name string) (*Rule, error) {
	if rule, ok := r.rules[name]; ok {
		return rule, nil
	}
	if target, ok := r.aliases[name]; ok {
		if rule, ok := r.rules[target]; ok {
			return rule, nil
		}
	}
	return nil, unknownRule("rule", name)
}

// Message returns the message template of a rule, honoring configured overrides.
func (r *Registry) Message(rule *Rule) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if m, ok := r.messages[rule.Name]; ok {
		return m
	}
	return rule.message()
}

// Rules returns the names of all canonical rules, sorted.
func (r *Registry) Rules() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.rules))
	for n := range r.rules {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Expand replaces macro references in expression with their parenthesised
// expansion.
func (r *Registry) Expand(expression string) (string, error) {
	behavior, tokens, problems := lex(expression)
	if len(problems) > 0 {
		return "", &ExpressionError{Expression: expression, Problems: problems}
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	tokens, err := r.expand(tokens, 0)
	if err != nil {
		return "", err
	}
	return renderTokens(behavior, tokens), nil
}

// maxMacroDepth only guards against registries mutated concurrently with
// expansion; cycles are rejected at registration.
const maxMacroDepth = 64

func (r *Registry) expand(tokens []token, depth int) ([]token, error) {
	if depth > maxMacroDepth {
		return nil, fmt.Errorf("%w: macro nesting deeper than %d", ErrValidationLogic, maxMacroDepth)
	}
	out := make([]token, 0, len(tokens))
	for _, t := range tokens {
		if t.kind != tokMacro {
			out = append(out, t)
			continue
		}
		expr, ok := r.macros[t.name]
		if !ok {
			return nil, unknownRule("macro", t.name)
		}
		_, inner, problems := lex(expr)
		if len(problems) > 0 {
			return nil, &ExpressionError{Expression: expr, Problems: problems}
		}
		inner, err := r.expand(inner, depth+1)
		if err != nil {
			return nil, err
		}
		out = append(out, token{kind: tokOperator, op: OpOpen})
		out = append(out, inner...)
		out = append(out, token{kind: tokOperator, op: OpClose})
	}
	return out, nil
}

func renderTokens(behavior Behavior, tokens []token) string {
	var sb strings.Builder
	sb.WriteString(behavior.Symbol())
	for _, t := range tokens {
		sb.WriteString(t.String())
	}
	return sb.String()
}

// Decode decodes a single statement and binds its arguments to the rule's
// declared slots.
func (r *Registry) Decode(statement string) (*Statement, error) {
	_, tokens, problems := lex(statement)
	if len(problems) > 0 {
		return nil, invalidStatement("%s", strings.Join(problems, "; "))
	}
	if len(tokens) != 1 || tokens[0].kind != tokStatement {
		return nil, invalidStatement("%q is not a single statement", statement)
	}
	return r.bind(tokens[0])
}

func (r *Registry) bind(t token) (*Statement, error) {
	rule, err := r.Lookup(t.name)
	if err != nil {
		return nil, err
	}
	args, err := parseArguments(t.args)
	if err != nil {
		return nil, invalidStatement("%q: %v", t.name, err)
	}
	stmt, err := bindArguments(rule, args)
	if err != nil {
		return nil, err
	}
	stmt.Name = t.name
	return stmt, nil
}
