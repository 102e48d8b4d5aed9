package script

import (
	"fmt"
)

// Context keys made available to expressions.
const (
	KeySrcBean = "srcBean"
	KeyDstBean = "dstBean"
	KeySrcAttr = "srcAttr"
	KeyDstAttr = "dstAttr"
	KeyCustom  = "custom"
)

// Env is the named-value context an expression is evaluated against.
type Env map[string]any

// With returns a copy of the environment with key set to value.
func (e Env) With(key string, value any) Env {
	out := make(Env, len(e)+1)
	for k, v := range e {
		out[k] = v
	}
	out[key] = value
	return out
}

// Evaluator evaluates an expression against an environment and returns its
// string results. Implementations must not retain env.
type Evaluator interface {
	Evaluate(expr string, env Env) ([]string, error)
}

// EvaluatorFunc adapts a function to the Evaluator interface.
type EvaluatorFunc func(expr string, env Env) ([]string, error)

// Evaluate calls f(expr, env).
func (f EvaluatorFunc) Evaluate(expr string, env Env) ([]string, error) {
	return f(expr, env)
}

// Error reports a failed evaluation.
type Error struct {
	Expr  string
	Cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("evaluating %q: %v", e.Expr, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// EvaluateAll evaluates every expression in order and concatenates the results.
func EvaluateAll(ev Evaluator, exprs []string, env Env) ([]string, error) {
	var out []string
	for _, expr := range exprs {
		values, err := ev.Evaluate(expr, env)
		if err != nil {
			return nil, err
		}
		out = append(out, values...)
	}
	return out, nil
}

// EvaluateOne evaluates an expression that must yield exactly one value.
func EvaluateOne(ev Evaluator, expr string, env Env) (string, error) {
	values, err := ev.Evaluate(expr, env)
	if err != nil {
		return "", err
	}
	if len(values) != 1 {
		return "", &Error{Expr: expr, Cause: fmt.Errorf("expected exactly one value, got %d", len(values))}
	}
	return values[0], nil
}
