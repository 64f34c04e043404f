// Package casewhen evaluates ordered conditional assignments over a table,
// the columnar equivalent of SQL's CASE WHEN ... THEN ... ELSE NULL END.
//
// A RuleSet is an ordered list of (condition, value) rules. For every row the
// first rule whose condition holds supplies the value; rows matching no rule
// are null.
//
// Conditions and values are Operands, one of:
//   - Literal: a scalar broadcast to every row
//   - Expr: a CEL expression over the table's columns, evaluated per row
//   - Call: a function of the table returning a scalar or a row-aligned vector
//
// Ref, Thunk and Template build Call operands for the common cases.
//
// Example usage:
//
//	evaluator := casewhen.NewEvaluator(logger)
//
//	// x = [0, 1, 2]
//	out, err := evaluator.Evaluate(tbl, casewhen.RuleSet{
//	    casewhen.When(casewhen.Expr("x < 2"), casewhen.Literal(0)),
//	    casewhen.When(casewhen.Literal(true), casewhen.Literal(999)),
//	})
//	// out = [0, 0, 999]
//
// Errors match ErrConfiguration, ErrShape or ErrType with errors.Is; a
// failing rule is reported as a *RuleError. Evaluation either succeeds for
// every row or returns no column.
package casewhen
