package mvel

import (
	"fmt"
	"log/slog"
	"maps"
)

// Engine runs rules and expressions against values.
type Engine struct {
	registry     *Registry
	logger       *slog.Logger
	strict       bool
	defaultLabel string
}

// NewEngine returns an engine dispatching into reg. A nil reg uses
// [DefaultRegistry].
func NewEngine(reg *Registry, opts ...Option) *Engine {
	if reg == nil {
		reg = DefaultRegistry()
	}
	o := newOptions(opts)
	return &Engine{
		registry:     reg,
		logger:       o.logger,
		strict:       o.strict,
		defaultLabel: o.defaultLabel,
	}
}

var defaultEngine = NewEngine(nil)

// Default returns the engine backed by [DefaultRegistry].
func Default() *Engine {
	return defaultEngine
}

// Registry returns the registry the engine dispatches into.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// ExecOption configures a single execution.
type ExecOption func(*execConfig)

type execConfig struct {
	key      string
	label    string
	messages map[string]string
}

// WithKey sets the key recorded on the Result.
func WithKey(key string) ExecOption {
	return func(c *execConfig) { c.key = key }
}

// WithLabel sets @label for every rule of the execution.
func WithLabel(label string) ExecOption {
	return func(c *execConfig) { c.label = label }
}

// WithMessages overrides message templates per rule name.
func WithMessages(messages map[string]string) ExecOption {
	return func(c *execConfig) { c.messages = messages }
}

func newExecConfig(opts []ExecOption) *execConfig {
	c := &execConfig{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Outcome is the result of running a single rule.
type Outcome struct {
	Rule      string
	Statement *Statement
	Success   bool
	Message   string
	Context   Context
}

// ExecuteStatement runs one rule statement against value.
func (e *Engine) ExecuteStatement(value any, stmt *Statement, opts ...ExecOption) (*Outcome, error) {
	return e.execute(value, stmt, newExecConfig(opts))
}

func (e *Engine) execute(value any, stmt *Statement, cfg *execConfig) (*Outcome, error) {
	rule, err := e.registry.Lookup(stmt.Name)
	if err != nil {
		return nil, err
	}

	vars := rule.variables(nil)
	if cfg.label != "" {
		vars[KeyLabel] = cfg.label
	}
	if vars[KeyLabel] == nil {
		vars[KeyLabel] = e.defaultLabel
	}
	ctx := Context{}
	maps.Copy(ctx, vars)
	ctx[KeyRule] = rule
	ctx[KeyName] = rule.Name
	ctx[KeyInput] = value
	ctx[KeyArguments] = stmt.Arguments

	declared := rule.parameters()
	params := make([]any, len(declared))
	for i, p := range declared {
		params[i] = ctx.operand(p)
	}
	ctx[KeyParameters] = params

	out, err := rule.callback()(params...)
	if err != nil {
		return nil, fmt.Errorf("rule %q: %w", rule.Name, err)
	}
	switch o := out.(type) {
	case Output:
		ctx[KeyOutput] = o.Value
		maps.Copy(ctx, o.Variables)
	case *Output:
		ctx[KeyOutput] = o.Value
		maps.Copy(ctx, o.Variables)
	default:
		ctx[KeyOutput] = out
	}

	cmp := rule.comparison()
	op, known := ParseCompareOp(cmp.Operator)
	if !known {
		if e.strict {
			return nil, fmt.Errorf("%w: rule %q has unknown comparison operator %q", ErrValidationLogic, rule.Name, cmp.Operator)
		}
		e.logger.Warn("unknown comparison operator, using and",
			slog.String("rule", rule.Name),
			slog.String("operator", cmp.Operator),
		)
	}

	outcome := &Outcome{
		Rule:      rule.Name,
		Statement: stmt,
		Success:   Compare(op, ctx.operand(cmp.Left), ctx.operand(cmp.Right)),
		Context:   ctx,
	}
	if !outcome.Success {
		outcome.Message = ctx.Render(e.template(rule, stmt, cfg))
	}
	return outcome, nil
}

func (e *Engine) template(rule *Rule, stmt *Statement, cfg *execConfig) string {
	if m, ok := cfg.messages[stmt.Name]; ok {
		return m
	}
	if m, ok := cfg.messages[rule.Name]; ok {
		return m
	}
	return e.registry.Message(rule)
}

const negatedMessage = "${@label} must not pass the ${@name} rule."

// Execute runs an expression against value. The expression may be a string,
// an *Expression, an *AST or any [fmt.Stringer] producing mVEL.
//
// A value that does not pass is reported through Result.Success; an error is
// returned only for malformed expressions, unknown rules, bad arguments and
// callback errors.
func (e *Engine) Execute(value any, expression any, opts ...ExecOption) (*Result, error) {
	expr, err := expressionString(expression)
	if err != nil {
		return nil, err
	}
	ast, err := e.registry.Parse(expr)
	if err != nil {
		return nil, err
	}
	cfg := newExecConfig(opts)
	ev := &evaluator{
		engine:   e,
		cfg:      cfg,
		value:    value,
		behavior: ast.Behavior,
		nodes:    ast.Nodes,
		result:   newResult(cfg.key, value, expr),
	}
	success, stopped, err := ev.sequence()
	if err != nil {
		return nil, err
	}
	ev.result.Success = success
	ev.result.ShortCircuited = stopped
	if success {
		ev.result.Failures = nil
	}
	if stopped {
		e.logger.Debug("expression short-circuited",
			slog.String("expression", expr),
			slog.String("behavior", ast.Behavior.String()),
			slog.Int("attempted", len(ev.result.Attempted)),
		)
	}
	return ev.result, nil
}

type evaluator struct {
	engine   *Engine
	cfg      *execConfig
	value    any
	behavior Behavior
	nodes    []Node
	pos      int
	result   *Result
	// negated counts the enclosing negated groups.
	negated  int
}

// decides reports whether v settles the whole expression under the
// evaluator's behavior.
func (ev *evaluator) decides(v bool) bool {
	if ev.negated > 0 {
		return false
	}
	switch ev.behavior {
	case Optimistic:
		return v
	case Pessimistic:
		return !v
	}
	return false
}

// sequence evaluates nodes left to right until the end or a closing
// parenthesis. stopped reports a behavior short-circuit, in which case the
// returned value is the final outcome of the whole expression. A negated
// group is one value: its rules never short-circuit on their own, the
// group's negated result does.
func (ev *evaluator) sequence() (value, stopped bool, err error) {
	var (
		acc     bool
		seen    bool
		negate  bool
		pending = OpAnd
	)
	for ev.pos < len(ev.nodes) {
		n := ev.nodes[ev.pos]
		ev.pos++

		var v bool
		if n.Statement != nil {
			v, err = ev.statement(n.Statement, negate)
			if err != nil {
				return false, false, err
			}
			if negate {
				v = !v
			}
			negate = false
			if ev.decides(v) {
				return v, true, nil
			}
		} else {
			switch n.Operator {
			case OpNot:
				negate = !negate
				continue
			case OpAnd, OpOr, OpXor:
				pending = n.Operator
				continue
			case OpClose:
				return acc, false, nil
			case OpOpen:
				if negate {
					ev.negated++
				}
				v, stopped, err = ev.sequence()
				if negate {
					ev.negated--
				}
				if err != nil || stopped {
					return v, stopped, err
				}
				if negate {
					v = !v
				}
				negate = false
				if ev.decides(v) {
					return v, true, nil
				}
			}
		}

		if seen {
			acc = pending.apply(acc, v)
		} else {
			acc, seen = v, true
		}
		pending = OpAnd
	}
	return acc, false, nil
}

func (ev *evaluator) statement(stmt *Statement, negated bool) (bool, error) {
	outcome, err := ev.engine.execute(ev.value, stmt, ev.cfg)
	if err != nil {
		return false, err
	}
	r := ev.result
	r.Attempted = append(r.Attempted, outcome.Rule)
	r.Validations[outcome.Rule] = outcome.Success

	switch {
	case !negated && !outcome.Success:
		r.Failures = append(r.Failures, Failure{Rule: outcome.Rule, Message: outcome.Message})
	case negated && outcome.Success:
		r.Failures = append(r.Failures, Failure{Rule: outcome.Rule, Message: outcome.Context.Render(negatedMessage)})
	}
	return outcome.Success, nil
}

// Validate runs expression against value using the default engine.
func Validate(value any, expression any, opts ...ExecOption) (*Result, error) {
	return Default().Execute(value, expression, opts...)
}
