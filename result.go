package mvel

import (
	"errors"
	"strings"
)

// Failure is a failed rule with its rendered message.
type Failure struct {
	Rule    string
	Message string
}

// Result is the outcome of validating one value against one expression.
type Result struct {
	Key        string
	Value      any
	Expression string
	Success    bool
	Failures   []Failure

	// Validations records the outcome of every rule that was executed,
	// keyed by canonical rule name.
	Validations map[string]bool
	// Attempted lists the executed rules in execution order.
	Attempted []string
	// ShortCircuited is set when the behavior stopped evaluation early.
	ShortCircuited bool

	// Attributes carries free-form contextual tags.
	Attributes map[string]any
}

func newResult(key string, value any, expression string) *Result {
	return &Result{
		Key:         key,
		Value:       value,
		Expression:  expression,
		Validations: map[string]bool{},
		Attributes:  map[string]any{},
	}
}

// Messages returns the failure messages in execution order.
func (r *Result) Messages() []string {
	msgs := make([]string, len(r.Failures))
	for i, f := range r.Failures {
		msgs[i] = f.Message
	}
	return msgs
}

// Failed reports whether the named rule was executed and failed.
func (r *Result) Failed(rule string) bool {
	passed, ok := r.Validations[rule]
	return ok && !passed
}

// Err returns the failures joined as an error, or nil on success.
func (r *Result) Err() error {
	if r.Success {
		return nil
	}
	if len(r.Failures) == 0 {
		return errors.New("did not pass " + r.Expression)
	}
	return errors.New(strings.Join(r.Messages(), " "))
}

// view is the shape exposed to ${key.value} and ${key.validations.rule}
// back-references.
func (r *Result) view() map[string]any {
	validations := make(map[string]any, len(r.Validations))
	for k, v := range r.Validations {
		validations[k] = v
	}
	return map[string]any{
		"value":       r.Value,
		"success":     r.Success,
		"validations": validations,
		"messages":    r.Messages(),
	}
}

// Results maps result keys to results.
type Results map[string]*Result

// Keys returns the result keys, sorted.
func (rs Results) Keys() []string {
	return sortedKeys(rs)
}

// Failed returns the unsuccessful results in key order.
func (rs Results) Failed() []*Result {
	var failed []*Result
	for _, k := range rs.Keys() {
		if !rs[k].Success {
			failed = append(failed, rs[k])
		}
	}
	return failed
}

// Valid reports whether every result succeeded.
func (rs Results) Valid() bool {
	for _, r := range rs {
		if !r.Success {
			return false
		}
	}
	return true
}

// Errors returns ozzo-validation errors for the failed results.
func (rs Results) Errors() ValidationErrors {
	errs := ValidationErrors{}
	for k, r := range rs {
		if err := r.Err(); err != nil {
			errs[k] = err
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}
