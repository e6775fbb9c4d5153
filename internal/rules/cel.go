package rules

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types/ref"
)

// CEL environments are immutable and safe for concurrent use, so they
// are built once per process.
var (
	customEnvOnce sync.Once
	customEnv     *cel.Env
	customEnvErr  error

	comparatorEnvOnce sync.Once
	comparatorEnv     *cel.Env
	comparatorEnvErr  error
)

// customEnvironment returns the CEL environment for custom transform
// expressions, with the input bound as value.
func customEnvironment() (*cel.Env, error) {
	customEnvOnce.Do(func() {
		customEnv, customEnvErr = cel.NewEnv(
			cel.Variable("value", cel.DynType),
		)
	})
	return customEnv, customEnvErr
}

// comparatorEnvironment returns the CEL environment for sortArray
// comparator expressions, with the two elements bound as a and b.
func comparatorEnvironment() (*cel.Env, error) {
	comparatorEnvOnce.Do(func() {
		comparatorEnv, comparatorEnvErr = cel.NewEnv(
			cel.Variable("a", cel.DynType),
			cel.Variable("b", cel.DynType),
		)
	})
	return comparatorEnv, comparatorEnvErr
}

// CompileCustomExpression compiles a custom transform expression.
func CompileCustomExpression(expression string) (cel.Program, error) {
	env, err := customEnvironment()
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	ast, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidExpression, issues.Err())
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidExpression, err)
	}

	return prg, nil
}

// CompileComparatorExpression compiles a sortArray comparator expression.
func CompileComparatorExpression(expression string) (cel.Program, error) {
	env, err := comparatorEnvironment()
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	ast, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidExpression, issues.Err())
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidExpression, err)
	}

	return prg, nil
}

// evalCustom evaluates a compiled custom transform against a value.
func evalCustom(prg cel.Program, value interface{}) (interface{}, error) {
	out, _, err := prg.Eval(map[string]interface{}{"value": value})
	if err != nil {
		return nil, err
	}
	return refToNative(out), nil
}

// evalComparator evaluates a compiled comparator against two elements.
// The result is interpreted as negative, zero, or positive.
func evalComparator(prg cel.Program, a, b interface{}) (int, error) {
	out, _, err := prg.Eval(map[string]interface{}{"a": a, "b": b})
	if err != nil {
		return 0, err
	}

	switch v := refToNative(out).(type) {
	case int64:
		return int(v), nil
	case uint64:
		return int(v), nil
	case float64:
		switch {
		case v < 0:
			return -1, nil
		case v > 0:
			return 1, nil
		default:
			return 0, nil
		}
	case bool:
		// Treat a boolean result as "a sorts before b".
		if v {
			return -1, nil
		}
		return 1, nil
	default:
		return 0, fmt.Errorf("comparator returned non-numeric value %T", v)
	}
}

var anyType = reflect.TypeOf((*interface{})(nil)).Elem()

// refToNative converts a CEL value to its native Go representation.
func refToNative(val ref.Val) interface{} {
	if native, err := val.ConvertToNative(anyType); err == nil {
		return native
	}
	return val.Value()
}
