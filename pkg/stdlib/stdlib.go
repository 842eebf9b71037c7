// Package stdlib registers the default native functions: printing,
// container helpers, math, and string helpers.
package stdlib

import (
	"fmt"
	"math"
	"strings"

	"github.com/matan45/intercpp/pkg/diagnostics"
	"github.com/matan45/intercpp/pkg/evaluator"
	"github.com/matan45/intercpp/pkg/formatter"
)

// Names lists every native this package registers.
func Names() []string {
	return []string{
		"print", "len", "push", "pop", "keys", "has", "delete",
		"abs", "min", "max", "sqrt", "pow", "floor",
		"str", "upper", "lower", "contains",
	}
}

// Register installs all default natives into env.
func Register(env *evaluator.Environment) error {
	natives := map[string]evaluator.NativeFunc{
		"print":    nativePrint,
		"len":      nativeLen,
		"push":     nativePush,
		"pop":      nativePop,
		"keys":     nativeKeys,
		"has":      nativeHas,
		"delete":   nativeDelete,
		"abs":      math1("abs", math.Abs),
		"min":      math2("min", math.Min),
		"max":      math2("max", math.Max),
		"sqrt":     nativeSqrt,
		"pow":      math2("pow", math.Pow),
		"floor":    math1("floor", math.Floor),
		"str":      nativeStr,
		"upper":    string1("upper", strings.ToUpper),
		"lower":    string1("lower", strings.ToLower),
		"contains": nativeContains,
	}
	for _, name := range Names() {
		if err := env.RegisterNative(name, natives[name]); err != nil {
			return err
		}
	}
	return nil
}

func arityErr(name string, want, got int) error {
	return evaluator.Errorf(diagnostics.EArity, "'%s' expects %d arguments, got %d", name, want, got)
}

func typeErr(name, want string, got evaluator.Value) error {
	kind := "void"
	if got != nil {
		kind = got.Type()
	}
	return evaluator.Errorf(diagnostics.EType, "'%s' expects a %s argument, got %s", name, want, kind)
}

func nativePrint(args []evaluator.Value, _ []string, env *evaluator.Environment) (evaluator.Value, error) {
	parts := make([]string, len(args))
	for i, arg := range args {
		parts[i] = formatter.FormatBare(arg)
	}
	fmt.Fprintln(env.Stdout(), strings.Join(parts, " "))
	return nil, nil
}

func nativeLen(args []evaluator.Value, _ []string, _ *evaluator.Environment) (evaluator.Value, error) {
	if len(args) != 1 {
		return nil, arityErr("len", 1, len(args))
	}
	switch v := args[0].(type) {
	case *evaluator.String:
		return evaluator.NewNumber(float64(len(v.Value))), nil
	case *evaluator.Array:
		return evaluator.NewNumber(float64(len(v.Elems))), nil
	case *evaluator.Map:
		return evaluator.NewNumber(float64(v.Len())), nil
	}
	return nil, typeErr("len", "string, array, or map", args[0])
}

func nativePush(args []evaluator.Value, _ []string, _ *evaluator.Environment) (evaluator.Value, error) {
	if len(args) != 2 {
		return nil, arityErr("push", 2, len(args))
	}
	arr, ok := args[0].(*evaluator.Array)
	if !ok {
		return nil, typeErr("push", "array", args[0])
	}
	arr.Elems = append(arr.Elems, args[1])
	return evaluator.NewNumber(float64(len(arr.Elems))), nil
}

func nativePop(args []evaluator.Value, _ []string, _ *evaluator.Environment) (evaluator.Value, error) {
	if len(args) != 1 {
		return nil, arityErr("pop", 1, len(args))
	}
	arr, ok := args[0].(*evaluator.Array)
	if !ok {
		return nil, typeErr("pop", "array", args[0])
	}
	if len(arr.Elems) == 0 {
		return nil, evaluator.Errorf(diagnostics.ERange, "'pop' on empty array")
	}
	last := arr.Elems[len(arr.Elems)-1]
	arr.Elems = arr.Elems[:len(arr.Elems)-1]
	return last, nil
}

func nativeKeys(args []evaluator.Value, _ []string, _ *evaluator.Environment) (evaluator.Value, error) {
	if len(args) != 1 {
		return nil, arityErr("keys", 1, len(args))
	}
	m, ok := args[0].(*evaluator.Map)
	if !ok {
		return nil, typeErr("keys", "map", args[0])
	}
	keys := m.Keys()
	elems := make([]evaluator.Value, len(keys))
	for i, k := range keys {
		elems[i] = evaluator.NewString(k)
	}
	return evaluator.NewArray(elems...), nil
}

func nativeHas(args []evaluator.Value, _ []string, _ *evaluator.Environment) (evaluator.Value, error) {
	if len(args) != 2 {
		return nil, arityErr("has", 2, len(args))
	}
	m, ok := args[0].(*evaluator.Map)
	if !ok {
		return nil, typeErr("has", "map", args[0])
	}
	key, ok := args[1].(*evaluator.String)
	if !ok {
		return nil, typeErr("has", "string key", args[1])
	}
	_, present := m.Get(key.Value)
	return evaluator.NewBool(present), nil
}

func nativeDelete(args []evaluator.Value, _ []string, _ *evaluator.Environment) (evaluator.Value, error) {
	if len(args) != 2 {
		return nil, arityErr("delete", 2, len(args))
	}
	m, ok := args[0].(*evaluator.Map)
	if !ok {
		return nil, typeErr("delete", "map", args[0])
	}
	key, ok := args[1].(*evaluator.String)
	if !ok {
		return nil, typeErr("delete", "string key", args[1])
	}
	return evaluator.NewBool(m.Delete(key.Value)), nil
}

func math1(name string, fn func(float64) float64) evaluator.NativeFunc {
	return func(args []evaluator.Value, _ []string, _ *evaluator.Environment) (evaluator.Value, error) {
		if len(args) != 1 {
			return nil, arityErr(name, 1, len(args))
		}
		n, ok := args[0].(*evaluator.Number)
		if !ok {
			return nil, typeErr(name, "number", args[0])
		}
		return evaluator.NewNumber(fn(n.Value)), nil
	}
}

func math2(name string, fn func(float64, float64) float64) evaluator.NativeFunc {
	return func(args []evaluator.Value, _ []string, _ *evaluator.Environment) (evaluator.Value, error) {
		if len(args) != 2 {
			return nil, arityErr(name, 2, len(args))
		}
		a, ok := args[0].(*evaluator.Number)
		if !ok {
			return nil, typeErr(name, "number", args[0])
		}
		b, ok := args[1].(*evaluator.Number)
		if !ok {
			return nil, typeErr(name, "number", args[1])
		}
		return evaluator.NewNumber(fn(a.Value, b.Value)), nil
	}
}

func nativeSqrt(args []evaluator.Value, _ []string, _ *evaluator.Environment) (evaluator.Value, error) {
	if len(args) != 1 {
		return nil, arityErr("sqrt", 1, len(args))
	}
	n, ok := args[0].(*evaluator.Number)
	if !ok {
		return nil, typeErr("sqrt", "number", args[0])
	}
	if n.Value < 0 {
		return nil, evaluator.Errorf(diagnostics.ERange, "'sqrt' of negative number %s", formatter.FormatNumber(n.Value))
	}
	return evaluator.NewNumber(math.Sqrt(n.Value)), nil
}

func nativeStr(args []evaluator.Value, _ []string, _ *evaluator.Environment) (evaluator.Value, error) {
	if len(args) != 1 {
		return nil, arityErr("str", 1, len(args))
	}
	return evaluator.NewString(formatter.FormatBare(args[0])), nil
}

func string1(name string, fn func(string) string) evaluator.NativeFunc {
	return func(args []evaluator.Value, _ []string, _ *evaluator.Environment) (evaluator.Value, error) {
		if len(args) != 1 {
			return nil, arityErr(name, 1, len(args))
		}
		s, ok := args[0].(*evaluator.String)
		if !ok {
			return nil, typeErr(name, "string", args[0])
		}
		return evaluator.NewString(fn(s.Value)), nil
	}
}

func nativeContains(args []evaluator.Value, _ []string, _ *evaluator.Environment) (evaluator.Value, error) {
	if len(args) != 2 {
		return nil, arityErr("contains", 2, len(args))
	}
	s, ok := args[0].(*evaluator.String)
	if !ok {
		return nil, typeErr("contains", "string", args[0])
	}
	sub, ok := args[1].(*evaluator.String)
	if !ok {
		return nil, typeErr("contains", "string", args[1])
	}
	return evaluator.NewBool(strings.Contains(s.Value, sub.Value)), nil
}
