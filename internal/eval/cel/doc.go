// Package cel provides the CEL (Common Expression Language) backend for lazy
// column expressions.
//
// An expression is written once and evaluated per row: every column of the
// table whose name is a valid identifier is declared as a dynamic variable
// bound to that row's value. Null cells are bound to CEL null.
//
// Example usage:
//
//	evaluator := cel.NewEvaluator()
//
//	// x = [0, 1, 2]
//	values, err := evaluator.EvaluateColumns("x < 2", tbl)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	// values = [true, true, false]
//
// Supported operations:
//   - Comparisons: ==, !=, <, <=, >, >=
//   - Boolean logic: &&, ||, !
//   - Conditional: cond ? a : b
//   - String operations: contains, startsWith, endsWith, matches
//   - Arithmetic: +, -, *, /, %
//
// Compiled programs are cached per expression and column set.
package cel
