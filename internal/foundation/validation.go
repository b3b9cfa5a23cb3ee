// Package foundation holds small generic building blocks shared by the other packages.
package foundation

import (
	"fmt"
	"strings"

	"git.home.luguber.info/inful/ojsconvert/internal/foundation/errors"
)

// FieldError is one problem found in a field of a checked value.
type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (fe FieldError) Error() string {
	if fe.Field != "" {
		return fmt.Sprintf("field '%s': %s", fe.Field, fe.Message)
	}
	return fe.Message
}

// Rule inspects a value and reports every problem it finds.
type Rule[T any] func(T) []FieldError

// Rules runs rules in order and collects all problems.
type Rules[T any] []Rule[T]

// Check runs every rule against value.
func (rs Rules[T]) Check(value T) []FieldError {
	var problems []FieldError
	for _, rule := range rs {
		problems = append(problems, rule(value)...)
	}
	return problems
}

// Err runs the rules and folds any problems into one classified error of category.
func (rs Rules[T]) Err(category errors.ErrorCategory, message string, value T) error {
	problems := rs.Check(value)
	if len(problems) == 0 {
		return nil
	}
	msgs := make([]string, 0, len(problems))
	for _, p := range problems {
		msgs = append(msgs, p.Error())
	}
	return errors.NewError(category, message+": "+strings.Join(msgs, "; ")).
		WithContext("problems", problems).
		Build()
}

// Problem returns a single-problem slice, for rules that find at most one.
func Problem(field, code, format string, args ...any) []FieldError {
	return []FieldError{{Field: field, Code: code, Message: fmt.Sprintf(format, args...)}}
}
