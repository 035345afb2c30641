package expectation

import (
	"fmt"
	"math"
	"strconv"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/parser"
	"github.com/expr-lang/expr/vm"

	"github.com/joseignaciorc/great-expectations/internal/config"
	"github.com/joseignaciorc/great-expectations/internal/ir"
)

// ParameterKey marks a kwarg whose value is an evaluation parameter
// expression: {"$PARAMETER": "param2 * 2"}.
const ParameterKey = "$PARAMETER"

// Evaluator compiles and runs evaluation parameter expressions. Compiled
// programs are cached per expression and parameter types.
type Evaluator struct {
	mu    sync.RWMutex
	cache map[string]*vm.Program
}

// NewEvaluator returns an evaluator with an empty cache.
func NewEvaluator() *Evaluator {
	return &Evaluator{cache: make(map[string]*vm.Program)}
}

// Evaluate runs src against env.
func (e *Evaluator) Evaluate(src string, env map[string]any) (any, error) {
	if env == nil {
		env = map[string]any{}
	}
	prog, err := e.compile(src, env)
	if err != nil {
		return nil, err
	}
	return expr.Run(prog, env)
}

func (e *Evaluator) compile(src string, env map[string]any) (*vm.Program, error) {
	key := src
	for _, k := range ir.SortedKeys(env) {
		key += fmt.Sprintf("\x00%s:%T", k, env[k])
	}

	e.mu.RLock()
	prog, ok := e.cache[key]
	e.mu.RUnlock()
	if ok {
		return prog, nil
	}

	prog, err := expr.Compile(src, expr.Env(env))
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	e.cache[key] = prog
	e.mu.Unlock()
	return prog, nil
}

// ResolveParameters substitutes variables in every value and resolves the
// strings that need it. A bare variable reference ("$MY_PARAM") takes the
// variable's value, as a number when it is numeric. A string that uses a
// variable or names another parameter ("1 + $OLD_PARAM", "param1 + 2") is
// evaluated as an expression once the parameters it names are resolved,
// and stays a string when it does not evaluate. Any other string is kept
// as written.
func (e *Evaluator) ResolveParameters(params map[string]any, lookup config.Lookup) map[string]any {
	out := make(map[string]any, len(params))
	pending := make(map[string]string)
	for k, v := range params {
		raw, _ := v.(string)
		v = config.SubstituteValue(v, lookup)
		s, ok := v.(string)
		switch {
		case !ok:
			out[k] = v
		case s != raw && config.IsReference(raw):
			out[k] = parseNumber(s)
		case s != raw || referencesParameter(s, params, k):
			pending[k] = s
		default:
			out[k] = s
		}
	}

	for progress := true; progress && len(pending) > 0; {
		progress = false
		for _, k := range ir.SortedKeys(pending) {
			val, err := e.Evaluate(pending[k], out)
			if err != nil {
				continue
			}
			out[k] = val
			delete(pending, k)
			progress = true
		}
	}
	for k, s := range pending {
		out[k] = s
	}
	return out
}

// parseNumber returns s as an int or a finite float, or s itself.
func parseNumber(s string) any {
	if n, err := strconv.ParseInt(s, 10, 0); err == nil {
		return int(n)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
		return f
	}
	return s
}

// referencesParameter reports whether src parses as an expression naming a
// parameter other than self.
func referencesParameter(src string, params map[string]any, self string) bool {
	tree, err := parser.Parse(src)
	if err != nil {
		return false
	}
	idents := &identifiers{}
	ast.Walk(&tree.Node, idents)
	for _, name := range idents.names {
		if _, ok := params[name]; ok && name != self {
			return true
		}
	}
	return false
}

type identifiers struct {
	names []string
}

func (v *identifiers) Visit(node *ast.Node) {
	if id, ok := (*node).(*ast.IdentifierNode); ok {
		v.names = append(v.names, id.Value)
	}
}

// ResolveKwargs replaces every {"$PARAMETER": expr} mapping inside kwargs
// with the value of expr over params.
func (e *Evaluator) ResolveKwargs(kwargs map[string]any, params map[string]any) (map[string]any, error) {
	v, err := e.resolveValue(kwargs, params)
	if err != nil {
		return nil, err
	}
	m, _ := v.(map[string]any)
	return m, nil
}

func (e *Evaluator) resolveValue(v any, params map[string]any) (any, error) {
	switch t := v.(type) {
	case map[string]any:
		if src, ok := t[ParameterKey]; ok && len(t) == 1 {
			s, ok := src.(string)
			if !ok {
				return nil, fmt.Errorf("%s: expected a string expression, got %T", ParameterKey, src)
			}
			val, err := e.Evaluate(s, params)
			if err != nil {
				return nil, fmt.Errorf("%s %q: %w", ParameterKey, s, err)
			}
			return val, nil
		}
		out := make(map[string]any, len(t))
		for k, inner := range t {
			r, err := e.resolveValue(inner, params)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			out[k] = r
		}
		return out, nil
	case []any:
		out := make([]any, len(t))
		for i, inner := range t {
			r, err := e.resolveValue(inner, params)
			if err != nil {
				return nil, err
			}
			out[i] = r
		}
		return out, nil
	default:
		return v, nil
	}
}
