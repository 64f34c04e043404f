package casewhen

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration is returned for an empty rule set or an operand that
	// cannot be resolved to a scalar or a row-aligned vector
	ErrConfiguration = errors.New("configuration error")

	// ErrShape is returned when a resolved vector's length differs from the row count
	ErrShape = errors.New("shape error")

	// ErrType is returned when values cannot be held by one output kind
	ErrType = errors.New("type error")
)

// Part names the side of a rule an error came from
type Part string

const (
	PartCondition Part = "condition"
	PartValue     Part = "value"
)

// RuleError reports the rule that failed. It matches both its Kind and its
// cause with errors.Is.
type RuleError struct {
	Index int
	Part  Part
	Kind  error
	Err   error
}

func (e *RuleError) Error() string {
	return fmt.Sprintf("rule %d %s: %v: %v", e.Index, e.Part, e.Kind, e.Err)
}

func (e *RuleError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// kindError pairs an error kind with its cause until the rule index is known
type kindError struct {
	kind error
	err  error
}

func (e *kindError) Error() string { return fmt.Sprintf("%v: %v", e.kind, e.err) }

func (e *kindError) Unwrap() []error { return []error{e.kind, e.err} }

func newKindError(kind error, format string, args ...any) error {
	return &kindError{kind: kind, err: fmt.Errorf(format, args...)}
}

// atRule attaches the rule position to a resolution error
func atRule(index int, part Part, err error) error {
	var ke *kindError
	if errors.As(err, &ke) {
		return &RuleError{Index: index, Part: part, Kind: ke.kind, Err: ke.err}
	}
	return &RuleError{Index: index, Part: part, Kind: ErrConfiguration, Err: err}
}
