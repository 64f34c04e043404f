package casewhen

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/aescanero/dago-node-casewhen/internal/eval/template"
)

// OperandSpec is the wire form of an operand. Exactly one field must be set.
type OperandSpec struct {
	Literal  json.RawMessage `json:"literal,omitempty"`
	Expr     *string         `json:"expr,omitempty"`
	Column   *string         `json:"column,omitempty"`
	Template *string         `json:"template,omitempty"`
}

// RuleSpec is the wire form of a rule
type RuleSpec struct {
	When OperandSpec `json:"when"`
	Then OperandSpec `json:"then"`
}

// BuildRules converts wire rules into a RuleSet, preserving order. engine may
// be nil, in which case template operands are rejected.
func BuildRules(specs []RuleSpec, engine *template.Engine) (RuleSet, error) {
	if len(specs) == 0 {
		return nil, fmt.Errorf("%w: rule set is empty", ErrConfiguration)
	}

	rules := make(RuleSet, 0, len(specs))
	for i, spec := range specs {
		when, err := spec.When.Build(engine)
		if err != nil {
			return nil, &RuleError{Index: i, Part: PartCondition, Kind: ErrConfiguration, Err: err}
		}
		then, err := spec.Then.Build(engine)
		if err != nil {
			return nil, &RuleError{Index: i, Part: PartValue, Kind: ErrConfiguration, Err: err}
		}
		rules = append(rules, When(when, then))
	}

	return rules, nil
}

// Build converts the spec into an Operand
func (s OperandSpec) Build(engine *template.Engine) (Operand, error) {
	set := 0
	for _, present := range []bool{s.Literal != nil, s.Expr != nil, s.Column != nil, s.Template != nil} {
		if present {
			set++
		}
	}
	if set != 1 {
		return Operand{}, fmt.Errorf("operand must set exactly one of literal, expr, column, template (got %d)", set)
	}

	switch {
	case s.Literal != nil:
		v, err := decodeLiteral(s.Literal)
		if err != nil {
			return Operand{}, err
		}
		return Literal(v), nil
	case s.Expr != nil:
		return Expr(*s.Expr), nil
	case s.Column != nil:
		return Ref(*s.Column), nil
	default:
		if engine == nil {
			return Operand{}, fmt.Errorf("template operands are disabled")
		}
		if err := engine.ValidateTemplate(*s.Template); err != nil {
			return Operand{}, fmt.Errorf("invalid template: %w", err)
		}
		return Template(engine, *s.Template), nil
	}
}

// decodeLiteral keeps numbers as json.Number so integers stay integers
func decodeLiteral(raw json.RawMessage) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("invalid literal: %w", err)
	}
	return v, nil
}
