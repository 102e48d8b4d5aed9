package script

import (
	"fmt"
	"strconv"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// CUE evaluates expressions written in the CUE language.
//
// Every call builds its own cue.Context, so a single CUE evaluator can be shared
// by concurrent reconciliations.
type CUE struct{}

// NewCUE returns a CUE expression evaluator.
func NewCUE() *CUE {
	return &CUE{}
}

// Evaluate compiles expr with the environment as its scope and converts the
// result to strings. Lists yield one string per element, null yields nothing.
func (c *CUE) Evaluate(expr string, env Env) ([]string, error) {
	ctx := cuecontext.New()

	scope := ctx.Encode(map[string]any(env))
	if err := scope.Err(); err != nil {
		return nil, &Error{Expr: expr, Cause: fmt.Errorf("encoding context: %w", err)}
	}

	v := ctx.CompileString(expr, cue.Scope(scope), cue.InferBuiltins(true))
	if err := v.Err(); err != nil {
		return nil, &Error{Expr: expr, Cause: err}
	}
	if def, ok := v.Default(); ok {
		v = def
	}

	values, err := toStrings(v)
	if err != nil {
		return nil, &Error{Expr: expr, Cause: err}
	}
	return values, nil
}

func toStrings(v cue.Value) ([]string, error) {
	switch v.IncompleteKind() {
	case cue.NullKind:
		return nil, nil
	case cue.ListKind:
		iter, err := v.List()
		if err != nil {
			return nil, err
		}
		var out []string
		for iter.Next() {
			elem := iter.Value()
			if elem.IncompleteKind() == cue.NullKind {
				continue
			}
			s, err := scalar(elem)
			if err != nil {
				return nil, fmt.Errorf("element %s: %w", iter.Selector(), err)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		s, err := scalar(v)
		if err != nil {
			return nil, err
		}
		return []string{s}, nil
	}
}

func scalar(v cue.Value) (string, error) {
	if !v.IsConcrete() {
		return "", fmt.Errorf("value is not concrete: %v", v)
	}
	switch v.Kind() {
	case cue.StringKind:
		return v.String()
	case cue.BytesKind:
		b, err := v.Bytes()
		if err != nil {
			return "", err
		}
		return string(b), nil
	case cue.IntKind:
		i, err := v.Int64()
		if err != nil {
			return "", err
		}
		return strconv.FormatInt(i, 10), nil
	case cue.FloatKind:
		f, err := v.Float64()
		if err != nil {
			return "", err
		}
		return strconv.FormatFloat(f, 'f', -1, 64), nil
	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return "", err
		}
		return strconv.FormatBool(b), nil
	default:
		return "", fmt.Errorf("unsupported kind %s", v.Kind())
	}
}
