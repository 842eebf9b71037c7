package evaluator

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/matan45/intercpp/pkg/ast"
	"github.com/matan45/intercpp/pkg/diagnostics"
)

// DefaultMaxDepth bounds call nesting before evaluation aborts.
const DefaultMaxDepth = 512

// NativeFunc is the host-function bridge. args holds the evaluated
// arguments; argNames[i] carries the source identifier when argument i
// was a bare variable reference and "" otherwise, so natives that mutate
// a value can also rebind the caller's variable through env.
type NativeFunc func(args []Value, argNames []string, env *Environment) (Value, error)

// binding is one variable slot: its current value plus the declared type
// every later assignment is checked against.
type binding struct {
	value Value
	typ   ast.DeclaredType
}

type scope map[string]*binding

// Environment holds all mutable interpreter state: the scope stack, the
// three registries (natives, user functions, classes), and the current
// method receiver. The registries are append-only and mutually disjoint
// by name.
type Environment struct {
	globals scope
	scopes  []scope // innermost last; empty outside calls

	natives map[string]NativeFunc
	userFns map[string]*ast.FunctionDef
	classes map[string]*ast.ClassDef

	// instance is the receiver member map while a method or constructor
	// body runs, nil otherwise. Its members shadow scope lookups.
	instance *Map

	depth    int
	maxDepth int

	stdout io.Writer
}

// NewEnvironment creates an empty environment writing to os.Stdout.
func NewEnvironment() *Environment {
	return &Environment{
		globals:  scope{},
		natives:  map[string]NativeFunc{},
		userFns:  map[string]*ast.FunctionDef{},
		classes:  map[string]*ast.ClassDef{},
		maxDepth: DefaultMaxDepth,
		stdout:   os.Stdout,
	}
}

// SetStdout redirects output produced by print and similar natives.
func (env *Environment) SetStdout(w io.Writer) { env.stdout = w }

// Stdout returns the writer print output goes to.
func (env *Environment) Stdout() io.Writer { return env.stdout }

// SetMaxDepth overrides the call-nesting limit.
func (env *Environment) SetMaxDepth(n int) { env.maxDepth = n }

// RegisterNative adds a host function. The name must not collide with an
// already-registered native or user-defined function.
func (env *Environment) RegisterNative(name string, fn NativeFunc) error {
	if _, ok := env.natives[name]; ok {
		return Errorf(diagnostics.EName, "native function '%s' already registered", name)
	}
	if _, ok := env.userFns[name]; ok {
		return Errorf(diagnostics.EName, "'%s' is already a defined function", name)
	}
	env.natives[name] = fn
	return nil
}

// NativeNames lists the registered native function names.
func (env *Environment) NativeNames() map[string]bool {
	names := make(map[string]bool, len(env.natives))
	for name := range env.natives {
		names[name] = true
	}
	return names
}

func (env *Environment) defineFunction(def *ast.FunctionDef) error {
	if _, ok := env.userFns[def.Name]; ok {
		return errAt(diagnostics.EName, def.NodeSpan(), "function '%s' already defined", def.Name)
	}
	if _, ok := env.natives[def.Name]; ok {
		return errAt(diagnostics.EName, def.NodeSpan(), "'%s' is already a native function", def.Name)
	}
	env.userFns[def.Name] = def
	return nil
}

func (env *Environment) defineClass(def *ast.ClassDef) error {
	if _, ok := env.classes[def.Name]; ok {
		return errAt(diagnostics.EName, def.NodeSpan(), "class '%s' already defined", def.Name)
	}
	env.classes[def.Name] = def
	return nil
}

// LookupFunction returns a user-defined function by name.
func (env *Environment) LookupFunction(name string) (*ast.FunctionDef, bool) {
	def, ok := env.userFns[name]
	return def, ok
}

// LookupClass returns a class definition by name.
func (env *Environment) LookupClass(name string) (*ast.ClassDef, bool) {
	def, ok := env.classes[name]
	return def, ok
}

func (env *Environment) pushScope() {
	env.scopes = append(env.scopes, scope{})
}

func (env *Environment) popScope() {
	if len(env.scopes) == 0 {
		panic("evaluator: scope stack underflow")
	}
	env.scopes = env.scopes[:len(env.scopes)-1]
}

func (env *Environment) currentScope() scope {
	if len(env.scopes) == 0 {
		return env.globals
	}
	return env.scopes[len(env.scopes)-1]
}

// declare creates a binding in the innermost scope. Redeclaring a name
// in the same scope is an error; shadowing an outer scope is allowed.
func (env *Environment) declare(name string, typ ast.DeclaredType, v Value, span ast.Span) error {
	sc := env.currentScope()
	if _, ok := sc[name]; ok {
		return errAt(diagnostics.EName, span, "variable '%s' already declared in this scope", name)
	}
	if err := checkAssignable(typ, v, span); err != nil {
		return err
	}
	sc[name] = &binding{value: v, typ: typ}
	return nil
}

// initDeclared overwrites a binding just created in the innermost scope
// with its initializer value. Unlike assign it never targets a receiver
// member of the same name; the new binding itself is written.
func (env *Environment) initDeclared(name string, v Value, span ast.Span) error {
	b, ok := env.currentScope()[name]
	if !ok {
		return errAt(diagnostics.EName, span, "undefined variable '%s'", name)
	}
	if err := checkAssignable(b.typ, v, span); err != nil {
		return err
	}
	b.value = v
	return nil
}

// lookup resolves a name: receiver members first, then call scopes from
// innermost outward, then globals.
func (env *Environment) lookup(name string) (Value, bool) {
	if env.instance != nil {
		if v, ok := env.instance.Get(name); ok {
			return v, true
		}
	}
	for i := len(env.scopes) - 1; i >= 0; i-- {
		if b, ok := env.scopes[i][name]; ok {
			return b.value, true
		}
	}
	if b, ok := env.globals[name]; ok {
		return b.value, true
	}
	return nil, false
}

// assign overwrites an existing binding, checking the declared type.
// Receiver members win over scope bindings, matching lookup order.
func (env *Environment) assign(name string, v Value, span ast.Span) error {
	if env.instance != nil {
		if _, ok := env.instance.Get(name); ok {
			if typ, ok := env.memberType(env.instance.Class, name); ok {
				if err := checkAssignable(typ, v, span); err != nil {
					return err
				}
			}
			env.instance.Set(name, v)
			return nil
		}
	}
	for i := len(env.scopes) - 1; i >= 0; i-- {
		if b, ok := env.scopes[i][name]; ok {
			if err := checkAssignable(b.typ, v, span); err != nil {
				return err
			}
			b.value = v
			return nil
		}
	}
	if b, ok := env.globals[name]; ok {
		if err := checkAssignable(b.typ, v, span); err != nil {
			return err
		}
		b.value = v
		return nil
	}
	return errAt(diagnostics.EName, span, "undefined variable '%s'", name)
}

// memberType returns the declared type of a class data member.
func (env *Environment) memberType(class, name string) (ast.DeclaredType, bool) {
	def, ok := env.classes[class]
	if !ok {
		return ast.DeclaredType{}, false
	}
	for _, m := range def.Members {
		if m.Name == name {
			return m.Type, true
		}
	}
	return ast.DeclaredType{}, false
}

// checkAssignable verifies that v fits the declared type. An int slot
// additionally requires the number to have no fractional part.
func checkAssignable(typ ast.DeclaredType, v Value, span ast.Span) error {
	switch typ.Kind {
	case ast.TypeInt:
		num, ok := v.(*Number)
		if !ok {
			return assignTypeErr(typ, v, span)
		}
		if num.Value != math.Trunc(num.Value) {
			return errAt(diagnostics.EType, span,
				"cannot assign non-integer value %s to int variable", formatNumber(num.Value))
		}
	case ast.TypeFloat:
		if _, ok := v.(*Number); !ok {
			return assignTypeErr(typ, v, span)
		}
	case ast.TypeBool:
		if _, ok := v.(*Bool); !ok {
			return assignTypeErr(typ, v, span)
		}
	case ast.TypeString:
		if _, ok := v.(*String); !ok {
			return assignTypeErr(typ, v, span)
		}
	case ast.TypeArray:
		if _, ok := v.(*Array); !ok {
			return assignTypeErr(typ, v, span)
		}
	case ast.TypeMap:
		m, ok := v.(*Map)
		if !ok || m.Class != "" {
			return assignTypeErr(typ, v, span)
		}
	case ast.TypeClass:
		m, ok := v.(*Map)
		if !ok || m.Class != typ.ClassName {
			return assignTypeErr(typ, v, span)
		}
	}
	return nil
}

func assignTypeErr(typ ast.DeclaredType, v Value, span ast.Span) error {
	kind := "void"
	if m, ok := v.(*Map); ok {
		kind = m.TypeName()
	} else if v != nil {
		kind = v.Type()
	}
	return errAt(diagnostics.EType, span, "cannot assign %s value to %s variable", kind, typ)
}

// RuntimeError is an evaluation failure carrying a diagnostic.
type RuntimeError struct {
	Diag diagnostics.Diagnostic
}

func (e *RuntimeError) Error() string {
	return e.Diag.Message
}

// Errorf builds a RuntimeError with no source position. The evaluator
// attaches the offending node's span when the error crosses it.
func Errorf(code, format string, args ...any) error {
	return &RuntimeError{Diag: diagnostics.MakeDiag(code, fmt.Sprintf(format, args...), nil, "")}
}

func errAt(code string, span ast.Span, format string, args ...any) error {
	s := span
	return &RuntimeError{Diag: diagnostics.MakeDiag(code, fmt.Sprintf(format, args...), &s, "")}
}

// withSpan fills in a position on span-less runtime errors.
func withSpan(err error, span ast.Span) error {
	re, ok := err.(*RuntimeError)
	if !ok || re.Diag.Span != nil {
		return err
	}
	s := span
	re.Diag.Span = &s
	return re
}
