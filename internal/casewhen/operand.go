package casewhen

import (
	"fmt"

	"github.com/aescanero/dago-node-casewhen/internal/eval/template"
	"github.com/aescanero/dago-node-casewhen/internal/table"
)

// OperandKind tags the form of an Operand
type OperandKind uint8

const (
	// KindUnset is the zero Operand; it never resolves
	KindUnset OperandKind = iota
	// KindLiteral is a scalar broadcast to every row
	KindLiteral
	// KindExpr is a CEL expression over the table's columns
	KindExpr
	// KindFunc is a callable receiving the table
	KindFunc
)

func (k OperandKind) String() string {
	switch k {
	case KindLiteral:
		return "literal"
	case KindExpr:
		return "expr"
	case KindFunc:
		return "func"
	default:
		return "unset"
	}
}

// Func computes a scalar or a row-aligned vector from a table. Supported
// results are scalars, *table.Column and slices of scalars.
type Func func(tbl *table.Table) (any, error)

// Operand is a condition or value of a rule
type Operand struct {
	kind    OperandKind
	literal any
	expr    string
	fn      Func
}

// Literal returns an operand broadcasting v to every row
func Literal(v any) Operand {
	return Operand{kind: KindLiteral, literal: v}
}

// Expr returns an operand evaluating a CEL expression per row
func Expr(src string) Operand {
	return Operand{kind: KindExpr, expr: src}
}

// Call returns an operand invoking fn with the table
func Call(fn Func) Operand {
	return Operand{kind: KindFunc, fn: fn}
}

// Thunk returns an operand invoking a function that ignores the table
func Thunk(fn func() (any, error)) Operand {
	return Call(func(*table.Table) (any, error) { return fn() })
}

// Ref returns an operand resolving to the named column
func Ref(name string) Operand {
	return Call(func(tbl *table.Table) (any, error) {
		col, ok := tbl.Column(name)
		if !ok {
			return nil, newKindError(ErrConfiguration, "unknown column %q", name)
		}
		return col, nil
	})
}

// Template returns an operand rendering a Handlebars template per row
func Template(engine *template.Engine, src string) Operand {
	return Call(func(tbl *table.Table) (any, error) {
		return engine.RenderRows(src, tbl)
	})
}

// Kind returns the operand form
func (o Operand) Kind() OperandKind { return o.kind }

func (o Operand) String() string {
	switch o.kind {
	case KindLiteral:
		return fmt.Sprintf("literal(%v)", o.literal)
	case KindExpr:
		return fmt.Sprintf("expr(%s)", o.expr)
	case KindFunc:
		return "func"
	default:
		return "unset"
	}
}

// Rule assigns Then to the rows where When holds
type Rule struct {
	When Operand
	Then Operand
}

// When is shorthand for building a Rule
func When(cond, value Operand) Rule {
	return Rule{When: cond, Then: value}
}

// RuleSet is an ordered list of rules; earlier rules take priority
type RuleSet []Rule
