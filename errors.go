package mvel

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Error kinds. Every error returned by this package wraps exactly one of them.
var (
	// ErrInvalidExpression is returned for a malformed mVEL string.
	ErrInvalidExpression = errors.New("invalid expression")
	// ErrUnknownRule is returned when a rule, alias or macro name is not registered.
	ErrUnknownRule = errors.New("unknown rule")
	// ErrInvalidRuleDefinition is returned when a registry entry fails its own schema.
	ErrInvalidRuleDefinition = errors.New("invalid rule definition")
	// ErrInvalidStatement is returned on argument arity or type mismatch.
	ErrInvalidStatement = errors.New("invalid statement")
	// ErrValidationLogic is returned for structurally impossible requests.
	ErrValidationLogic = errors.New("validation logic error")
	// ErrValidationFailed is wrapped by [ValidationFailedError].
	ErrValidationFailed = errors.New("validation failed")
)

// ValidationErrors is a map of result keys to their validation errors.
// It is an alias for [validation.Errors] from ozzo-validation and implements
// the error interface with a JSON-friendly string representation.
type ValidationErrors = validation.Errors

// ExpressionError lists every problem found in an expression.
type ExpressionError struct {
	Expression string
	Problems   []string
}

func (e *ExpressionError) Error() string {
	return fmt.Sprintf("%s %q: %s", ErrInvalidExpression, e.Expression, strings.Join(e.Problems, "; "))
}

func (e *ExpressionError) Unwrap() error {
	return ErrInvalidExpression
}

// ValidationFailedError is raised by fail-fast paths and by Check. The message
// is rendered when the error is created so it stays stable if the results are
// later mutated.
type ValidationFailedError struct {
	Results []*Result
	msg     string
}

// NewValidationFailedError builds the error for the given failed results.
func NewValidationFailedError(results ...*Result) *ValidationFailedError {
	var sb strings.Builder
	sb.WriteString(ErrValidationFailed.Error())
	for _, r := range results {
		value, err := json.Marshal(r.Value)
		if err != nil {
			value = []byte(fmt.Sprintf("%v", r.Value))
		}
		fmt.Fprintf(&sb, "; %s: value %s did not pass %q", r.Key, value, r.Expression)
		for i, f := range r.Failures {
			fmt.Fprintf(&sb, " (%d) %s", i+1, f.Message)
		}
	}
	return &ValidationFailedError{Results: results, msg: sb.String()}
}

func (e *ValidationFailedError) Error() string {
	return e.msg
}

func (e *ValidationFailedError) Unwrap() error {
	return ErrValidationFailed
}

// Errors converts the failed results into ozzo-validation errors keyed by result key.
func (e *ValidationFailedError) Errors() ValidationErrors {
	errs := ValidationErrors{}
	for _, r := range e.Results {
		if err := r.Err(); err != nil {
			errs[r.Key] = err
		}
	}
	return errs
}

func invalidStatement(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidStatement, fmt.Sprintf(format, args...))
}

func invalidDefinition(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRuleDefinition, fmt.Sprintf(format, args...))
}

func unknownRule(kind, name string) error {
	return fmt.Errorf("%w: %s %q is not registered", ErrUnknownRule, kind, name)
}
