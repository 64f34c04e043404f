package casewhen

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/aescanero/dago-node-casewhen/internal/eval/cel"
	"github.com/aescanero/dago-node-casewhen/internal/table"
)

// OutputName is the name of the column returned by Evaluate
const OutputName = "case_when"

// Evaluator resolves rule sets against tables
type Evaluator struct {
	celEvaluator *cel.Evaluator
	logger       *zap.Logger
}

// NewEvaluator creates a new evaluator
func NewEvaluator(logger *zap.Logger) *Evaluator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Evaluator{
		celEvaluator: cel.NewEvaluator(),
		logger:       logger,
	}
}

// Evaluate returns a column row-aligned with tbl where each row holds the
// value of the first rule whose condition is true for it, or null when no
// rule matches. The table is never modified.
func (e *Evaluator) Evaluate(tbl *table.Table, rules RuleSet) (*table.Column, error) {
	if tbl == nil {
		return nil, fmt.Errorf("%w: table is nil", ErrConfiguration)
	}
	if len(rules) == 0 {
		return nil, fmt.Errorf("%w: rule set is empty", ErrConfiguration)
	}

	n := tbl.NumRows()
	out := make([]any, n)
	assigned := make([]bool, n)
	kind := table.KindNull

	for i, rule := range rules {
		mask, err := e.resolveCondition(tbl, rule.When)
		if err != nil {
			return nil, atRule(i, PartCondition, err)
		}

		candidates, err := e.resolve(tbl, rule.Then)
		if err != nil {
			return nil, atRule(i, PartValue, err)
		}

		written, err := maskedAssign(out, assigned, mask, candidates, &kind)
		if err != nil {
			return nil, atRule(i, PartValue, err)
		}

		e.logger.Debug("rule evaluated",
			zap.Int("rule_index", i),
			zap.Stringer("condition", rule.When),
			zap.Stringer("value", rule.Then),
			zap.Int("rows_assigned", written),
		)
	}

	col, err := table.NewColumn(OutputName, out)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrType, err)
	}
	return col, nil
}

// resolveCondition resolves an operand into a row mask. Null counts as false.
func (e *Evaluator) resolveCondition(tbl *table.Table, op Operand) ([]bool, error) {
	if op.kind == KindLiteral {
		if _, ok := op.literal.(bool); !ok {
			return nil, newKindError(ErrConfiguration, "literal condition must be bool, got %T", op.literal)
		}
	}

	values, err := e.resolve(tbl, op)
	if err != nil {
		return nil, err
	}

	mask := make([]bool, len(values))
	for row, v := range values {
		switch b := v.(type) {
		case bool:
			mask[row] = b
		case nil:
		default:
			return nil, newKindError(ErrType, "row %d: condition is %T, not bool", row, v)
		}
	}
	return mask, nil
}

// resolve turns an operand into a vector of exactly NumRows normalized values
func (e *Evaluator) resolve(tbl *table.Table, op Operand) ([]any, error) {
	n := tbl.NumRows()

	switch op.kind {
	case KindLiteral:
		v, _, err := table.Normalize(op.literal)
		if err != nil {
			return nil, newKindError(valueKind(err), "literal: %v", err)
		}
		return broadcast(v, n), nil

	case KindExpr:
		values, err := e.celEvaluator.EvaluateColumns(op.expr, tbl)
		switch {
		case errors.Is(err, cel.ErrCompile):
			return nil, newKindError(ErrConfiguration, "%v", err)
		case err != nil:
			return nil, newKindError(ErrType, "%v", err)
		}
		if err := checkShape(values, n); err != nil {
			return nil, err
		}
		return values, normalizeAll(values)

	case KindFunc:
		if op.fn == nil {
			return nil, newKindError(ErrConfiguration, "callable is nil")
		}
		result, err := op.fn(tbl)
		if err != nil {
			var ke *kindError
			if errors.As(err, &ke) {
				return nil, err
			}
			return nil, newKindError(ErrConfiguration, "callable failed: %v", err)
		}
		return fromResult(result, n)

	default:
		return nil, newKindError(ErrConfiguration, "operand is unset")
	}
}

// Check compiles every expression operand against the given column names
// without evaluating anything
func (e *Evaluator) Check(columns []string, rules RuleSet) error {
	for i, rule := range rules {
		for _, side := range []struct {
			part Part
			op   Operand
		}{{PartCondition, rule.When}, {PartValue, rule.Then}} {
			if side.op.kind != KindExpr {
				continue
			}
			if err := e.celEvaluator.Validate(side.op.expr, columns); err != nil {
				return &RuleError{Index: i, Part: side.part, Kind: ErrConfiguration, Err: err}
			}
		}
	}
	return nil
}

// fromResult accepts a callable's scalar or vector result
func fromResult(result any, n int) ([]any, error) {
	var values []any
	switch v := result.(type) {
	case *table.Column:
		if v == nil {
			return nil, newKindError(ErrConfiguration, "callable returned nil column")
		}
		values = v.Values()
	case []any:
		values = append([]any(nil), v...)
	case []bool:
		values = toAny(v)
	case []int:
		values = toAny(v)
	case []int64:
		values = toAny(v)
	case []float64:
		values = toAny(v)
	case []string:
		values = toAny(v)
	default:
		nv, _, err := table.Normalize(result)
		if err != nil {
			return nil, newKindError(valueKind(err), "callable result: %v", err)
		}
		return broadcast(nv, n), nil
	}
	if err := checkShape(values, n); err != nil {
		return nil, err
	}
	return values, normalizeAll(values)
}

// normalizeAll normalizes a resolved vector in place
func normalizeAll(values []any) error {
	for row, v := range values {
		nv, _, err := table.Normalize(v)
		if err != nil {
			return newKindError(valueKind(err), "row %d: %v", row, err)
		}
		values[row] = nv
	}
	return nil
}

// valueKind maps a normalization failure to an error kind: a form the
// evaluator cannot hold is a configuration error, an unrepresentable value of
// a supported form is a type error
func valueKind(err error) error {
	if errors.Is(err, table.ErrUnsupported) {
		return ErrConfiguration
	}
	return ErrType
}

func toAny[T any](s []T) []any {
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = v
	}
	return out
}

func broadcast(v any, n int) []any {
	out := make([]any, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func checkShape(values []any, n int) error {
	if len(values) != n {
		return newKindError(ErrShape, "got %d values for %d rows", len(values), n)
	}
	return nil
}

// maskedAssign writes candidates into out for rows selected by mask that are
// not yet assigned, widening kind as it goes. It returns the rows written.
func maskedAssign(out []any, assigned, mask []bool, candidates []any, kind *table.Kind) (int, error) {
	written := 0
	for row, hit := range mask {
		if !hit || assigned[row] {
			continue
		}

		v, k, err := table.Normalize(candidates[row])
		if err != nil {
			return written, newKindError(ErrType, "row %d: %v", row, err)
		}
		unified, ok := table.Unify(*kind, k)
		if !ok {
			return written, newKindError(ErrType, "row %d: cannot combine %s with %s", row, *kind, k)
		}

		*kind = unified
		out[row] = v
		assigned[row] = true
		written++
	}
	return written, nil
}
