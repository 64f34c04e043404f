package cel

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"

	"github.com/aescanero/dago-node-casewhen/internal/table"
)

var (
	// ErrCompile is returned when an expression cannot be compiled against a table's columns
	ErrCompile = errors.New("expression compile error")

	// ErrEval is returned when a compiled expression fails on a row
	ErrEval = errors.New("expression evaluation error")
)

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// reserved words cannot be declared as CEL variables
var reserved = map[string]bool{
	"true": true, "false": true, "null": true, "in": true, "as": true,
	"break": true, "const": true, "continue": true, "else": true, "for": true,
	"function": true, "if": true, "import": true, "let": true, "loop": true,
	"package": true, "namespace": true, "return": true, "var": true,
	"void": true, "while": true,
}

// Evaluator evaluates CEL expressions row by row over a table
type Evaluator struct {
	envs  map[string]*cel.Env
	cache map[string]*compiled
	mu    sync.RWMutex
}

// compiled is a program plus the column variables its expression references
type compiled struct {
	program cel.Program
	refs    map[string]bool
}

// NewEvaluator creates a new CEL evaluator
func NewEvaluator() *Evaluator {
	return &Evaluator{
		envs:  make(map[string]*cel.Env),
		cache: make(map[string]*compiled),
	}
}

// EvaluateColumns evaluates the expression once per row of tbl, binding each
// column to the variable of the same name. The result is row-aligned. A row
// whose evaluation fails while a referenced cell is null yields null.
func (e *Evaluator) EvaluateColumns(expression string, tbl *table.Table) ([]any, error) {
	names := Variables(tbl.Names())

	prog, err := e.getProgram(expression, names)
	if err != nil {
		return nil, err
	}

	cols := make([]*table.Column, len(names))
	for i, name := range names {
		cols[i], _ = tbl.Column(name)
	}

	out := make([]any, tbl.NumRows())
	vars := make(map[string]any, len(names))
	for row := range out {
		hasNull := false
		for i, name := range names {
			if cols[i].IsNull(row) {
				vars[name] = types.NullValue
				hasNull = hasNull || prog.refs[name]
			} else {
				vars[name] = cols[i].Value(row)
			}
		}

		val, _, err := prog.program.Eval(vars)
		if err != nil {
			// a failure on a row with a referenced null is a null result, as in SQL
			if hasNull {
				out[row] = nil
				continue
			}
			return nil, fmt.Errorf("%w: row %d: %v", ErrEval, row, err)
		}
		out[row] = toNative(val)
	}

	return out, nil
}

// Validate compiles the expression against the given column names without evaluating it
func (e *Evaluator) Validate(expression string, columns []string) error {
	_, err := e.getProgram(expression, Variables(columns))
	return err
}

// Variables returns the sorted column names that can be bound as CEL variables
func Variables(columns []string) []string {
	names := make([]string, 0, len(columns))
	for _, name := range columns {
		if identPattern.MatchString(name) && !reserved[name] {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// toNative converts a CEL value to the column representation
func toNative(val ref.Val) any {
	if _, ok := val.(types.Null); ok {
		return nil
	}
	return val.Value()
}

// getProgram gets a compiled program from cache or compiles it
func (e *Evaluator) getProgram(expression string, names []string) (*compiled, error) {
	signature := strings.Join(names, ",")
	key := signature + "\x00" + expression

	e.mu.RLock()
	if program, ok := e.cache[key]; ok {
		e.mu.RUnlock()
		return program, nil
	}
	e.mu.RUnlock()

	e.mu.Lock()
	defer e.mu.Unlock()

	// Check again in case another goroutine compiled it
	if program, ok := e.cache[key]; ok {
		return program, nil
	}

	env, ok := e.envs[signature]
	if !ok {
		opts := make([]cel.EnvOption, 0, len(names))
		for _, name := range names {
			opts = append(opts, cel.Variable(name, cel.DynType))
		}

		var err error
		env, err = cel.NewEnv(opts...)
		if err != nil {
			return nil, fmt.Errorf("%w: environment: %v", ErrCompile, err)
		}
		e.envs[signature] = env
	}

	ast, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("%w: %v", ErrCompile, issues.Err())
	}

	program, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("%w: program generation: %v", ErrCompile, err)
	}

	c := &compiled{program: program, refs: referencedVariables(ast)}
	e.cache[key] = c

	return c, nil
}

// referencedVariables returns the identifiers the checked expression resolves
// to declared variables
func referencedVariables(ast *cel.Ast) map[string]bool {
	refs := make(map[string]bool)
	checked, err := cel.AstToCheckedExpr(ast)
	if err != nil {
		return refs
	}
	for _, r := range checked.GetReferenceMap() {
		if name := r.GetName(); name != "" {
			refs[name] = true
		}
	}
	return refs
}
