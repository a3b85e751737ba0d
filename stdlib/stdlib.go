// Package stdlib registers Zap's builtin native functions into a
// symtab.Env: the arithmetic and comparison operators also recognized
// in-line by the compiler (+ - * =, so they still work as first-class
// values, e.g. passed to a higher-order function), the predicates and
// concat from the original core library, the supplemented now builtin, and
// the internal %list/%concat-lists helpers the compiler's quasiquote
// desugaring depends on. Grounded on original_source/zap-core/src/lib.rs,
// with - * and now added per SPEC_FULL.md's supplemented-features section.
package stdlib

import (
	"fmt"
	"strings"
	"time"

	"github.com/mna/zap/lang/symtab"
	"github.com/mna/zap/lang/values"
)

// Install registers every builtin into env. It is idempotent: calling it
// twice on the same env just re-binds the same globals.
func Install(env *symtab.Env) {
	env.RegisterNative("+", add)
	env.RegisterNative("-", sub)
	env.RegisterNative("*", mul)
	env.RegisterNative("=", equal)
	env.RegisterNative("float?", isFloat)
	env.RegisterNative("false?", isFalse)
	env.RegisterNative("concat", concat)
	env.RegisterNative("now", now)
	env.RegisterNative("%list", list)
	env.RegisterNative("%concat-lists", concatLists)
}

func add(args []values.Value) (values.Value, error) {
	if len(args) == 0 {
		return values.Number(0), nil
	}
	acc := args[0]
	if !acc.IsNumber() {
		return values.Value{}, fmt.Errorf("+ expects numbers")
	}
	for _, a := range args[1:] {
		var err error
		acc, err = values.Add(acc, a)
		if err != nil {
			return values.Value{}, err
		}
	}
	return acc, nil
}

func sub(args []values.Value) (values.Value, error) {
	switch len(args) {
	case 0:
		return values.Value{}, fmt.Errorf("- expects at least 1 argument")
	case 1:
		return values.Sub(values.Number(0), args[0])
	default:
		acc := args[0]
		for _, a := range args[1:] {
			var err error
			acc, err = values.Sub(acc, a)
			if err != nil {
				return values.Value{}, err
			}
		}
		return acc, nil
	}
}

func mul(args []values.Value) (values.Value, error) {
	if len(args) == 0 {
		return values.Number(1), nil
	}
	acc := args[0]
	if !acc.IsNumber() {
		return values.Value{}, fmt.Errorf("* expects numbers")
	}
	for _, a := range args[1:] {
		var err error
		acc, err = values.Mul(acc, a)
		if err != nil {
			return values.Value{}, err
		}
	}
	return acc, nil
}

func equal(args []values.Value) (values.Value, error) {
	if len(args) != 2 {
		return values.Value{}, fmt.Errorf("= expects 2 arguments, got %d", len(args))
	}
	return values.Bool(values.Equal(args[0], args[1])), nil
}

// isFloat reports whether its single argument is a number (Zap has one
// numeric kind, so float? is simply a number-kind test).
func isFloat(args []values.Value) (values.Value, error) {
	if len(args) != 1 {
		return values.Value{}, fmt.Errorf("float? expects 1 argument, got %d", len(args))
	}
	return values.Bool(args[0].IsNumber()), nil
}

// isFalse reports whether its single argument is falsy: nil or Bool(false).
func isFalse(args []values.Value) (values.Value, error) {
	if len(args) != 1 {
		return values.Value{}, fmt.Errorf("false? expects 1 argument, got %d", len(args))
	}
	return values.Bool(!args[0].Truthy()), nil
}

func concat(args []values.Value) (values.Value, error) {
	var b strings.Builder
	for _, a := range args {
		if !a.IsString() {
			return values.Value{}, fmt.Errorf("concat expects strings")
		}
		b.WriteString(a.AsString())
	}
	return values.Str(b.String()), nil
}

// now returns the current Unix time in seconds, as a Zap number.
func now([]values.Value) (values.Value, error) {
	return values.Number(float64(time.Now().Unix())), nil
}

func list(args []values.Value) (values.Value, error) {
	items := append([]values.Value(nil), args...)
	return values.FromList(values.NewList(items)), nil
}

func concatLists(args []values.Value) (values.Value, error) {
	var items []values.Value
	for _, a := range args {
		if !a.IsList() {
			return values.Value{}, fmt.Errorf("splice-unquote expects a list, got %s", a.Kind())
		}
		items = append(items, a.AsList().Items...)
	}
	return values.FromList(values.NewList(items)), nil
}
