// Package evaluator implements the tree-walking interpreter: a single
// recursive Evaluate over AST nodes against an Environment.
package evaluator

import (
	"math"

	"github.com/matan45/intercpp/pkg/ast"
	"github.com/matan45/intercpp/pkg/diagnostics"
)

// returnSignal unwinds a return statement to the nearest call boundary.
// It travels as an error value so deferred scope pops always run.
type returnSignal struct {
	value Value
}

func (*returnSignal) Error() string { return "return outside function" }

// Evaluate executes one AST node and returns its value, nil for
// statements that produce none. A Program yields its last statement's
// value, which the REPL echoes.
func Evaluate(node ast.Node, env *Environment) (Value, error) {
	switch n := node.(type) {
	case *ast.Program:
		var last Value
		for _, stmt := range n.Statements {
			v, err := Evaluate(stmt, env)
			if err != nil {
				if _, ok := err.(*returnSignal); ok {
					return nil, errAt(diagnostics.EParse, stmt.NodeSpan(), "return outside function")
				}
				return nil, err
			}
			last = v
		}
		return last, nil

	case *ast.NumberLit:
		return NewNumber(n.Value), nil
	case *ast.StringLit:
		return NewString(n.Value), nil
	case *ast.BoolLit:
		return NewBool(n.Value), nil

	case *ast.ArrayLit:
		elems := make([]Value, len(n.Elements))
		for i, e := range n.Elements {
			v, err := Evaluate(e, env)
			if err != nil {
				return nil, err
			}
			elems[i] = v
		}
		return &Array{Elems: elems}, nil

	case *ast.MapLit:
		m := NewMap()
		for i, key := range n.Keys {
			v, err := Evaluate(n.Values[i], env)
			if err != nil {
				return nil, err
			}
			m.Set(key, v)
		}
		return m, nil

	case *ast.Variable:
		v, ok := env.lookup(n.Name)
		if !ok {
			return nil, errAt(diagnostics.EName, n.Span, "undefined variable '%s'", n.Name)
		}
		return v, nil

	case *ast.Index:
		return evalIndex(n, env)

	case *ast.MemberAccess:
		obj, err := evalObject(n.Object, env)
		if err != nil {
			return nil, err
		}
		v, ok := obj.Get(n.Member)
		if !ok {
			return nil, errAt(diagnostics.EName, n.Span, "class '%s' has no member '%s'", obj.Class, n.Member)
		}
		return v, nil

	case *ast.MemberCall:
		return evalMemberCall(n, env)

	case *ast.BinaryExpr:
		// Both operands always evaluate; && and || do not short-circuit.
		left, err := Evaluate(n.Left, env)
		if err != nil {
			return nil, err
		}
		right, err := Evaluate(n.Right, env)
		if err != nil {
			return nil, err
		}
		return evalBinary(n.Op, left, right, n.Span)

	case *ast.UnaryExpr:
		operand, err := Evaluate(n.Operand, env)
		if err != nil {
			return nil, err
		}
		switch n.Op {
		case ast.OpNeg:
			num, ok := operand.(*Number)
			if !ok {
				return nil, errAt(diagnostics.EType, n.Span, "operator '-' requires a number, got %s", operand.Type())
			}
			return NewNumber(-num.Value), nil
		case ast.OpNot:
			b, ok := operand.(*Bool)
			if !ok {
				return nil, errAt(diagnostics.EType, n.Span, "operator '!' requires a bool, got %s", operand.Type())
			}
			return NewBool(!b.Value), nil
		}
		return nil, errAt(diagnostics.EParse, n.Span, "unknown unary operator '%s'", n.Op)

	case *ast.Increment:
		return evalIncrement(n, env)

	case *ast.FunctionCall:
		return evalCall(n, env)

	case *ast.ObjectNew:
		def, ok := env.LookupClass(n.ClassName)
		if !ok {
			return nil, errAt(diagnostics.EName, n.Span, "undefined class '%s'", n.ClassName)
		}
		args, err := evalArgs(n.Args, env)
		if err != nil {
			return nil, err
		}
		return instantiate(env, def, args, n.Span)

	case *ast.Declaration:
		// The binding exists, holding its default, before the initializer
		// runs, so the initializer sees the fresh binding rather than an
		// outer one of the same name.
		def, err := defaultValue(env, n.Type, n.Span)
		if err != nil {
			return nil, err
		}
		if err := env.declare(n.Name, n.Type, def, n.Span); err != nil {
			return nil, err
		}
		if n.Init == nil {
			return nil, nil
		}
		v, err := Evaluate(n.Init, env)
		if err != nil {
			return nil, err
		}
		return nil, env.initDeclared(n.Name, v, n.Span)

	case *ast.Assignment:
		return nil, evalAssignment(n, env)

	case *ast.Block:
		// Blocks do not open scopes; scoping is call-granular.
		for _, stmt := range n.Statements {
			if _, err := Evaluate(stmt, env); err != nil {
				return nil, err
			}
		}
		return nil, nil

	case *ast.If:
		cond, err := evalCondition(n.Cond, env)
		if err != nil {
			return nil, err
		}
		if cond {
			_, err = Evaluate(n.Then, env)
		} else if n.Else != nil {
			_, err = Evaluate(n.Else, env)
		}
		return nil, err

	case *ast.While:
		for {
			cond, err := evalCondition(n.Cond, env)
			if err != nil {
				return nil, err
			}
			if !cond {
				return nil, nil
			}
			if _, err := Evaluate(n.Body, env); err != nil {
				return nil, err
			}
		}

	case *ast.DoWhile:
		for {
			if _, err := Evaluate(n.Body, env); err != nil {
				return nil, err
			}
			cond, err := evalCondition(n.Cond, env)
			if err != nil {
				return nil, err
			}
			if !cond {
				return nil, nil
			}
		}

	case *ast.For:
		if n.Init != nil {
			if _, err := Evaluate(n.Init, env); err != nil {
				return nil, err
			}
		}
		for {
			cond, err := evalCondition(n.Cond, env)
			if err != nil {
				return nil, err
			}
			if !cond {
				return nil, nil
			}
			if _, err := Evaluate(n.Body, env); err != nil {
				return nil, err
			}
			if n.Update != nil {
				if _, err := Evaluate(n.Update, env); err != nil {
					return nil, err
				}
			}
		}

	case *ast.Return:
		var v Value
		if n.Value != nil {
			var err error
			v, err = Evaluate(n.Value, env)
			if err != nil {
				return nil, err
			}
		}
		return nil, &returnSignal{value: v}

	case *ast.FunctionDef:
		return nil, env.defineFunction(n)

	case *ast.ClassDef:
		return nil, env.defineClass(n)
	}

	return nil, errAt(diagnostics.EParse, node.NodeSpan(), "cannot evaluate %s node", node.Kind())
}

// EvaluateFunction invokes a user-defined function by name with
// pre-built values. This is the host embedding entry point.
func (env *Environment) EvaluateFunction(name string, args []Value) (Value, error) {
	def, ok := env.userFns[name]
	if !ok {
		return nil, Errorf(diagnostics.EName, "undefined function '%s'", name)
	}
	return callUserFunction(env, def, args, def.NodeSpan(), nil)
}

func evalArgs(exprs []ast.Expr, env *Environment) ([]Value, error) {
	args := make([]Value, len(exprs))
	for i, e := range exprs {
		v, err := Evaluate(e, env)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return args, nil
}

func evalCondition(expr ast.Expr, env *Environment) (bool, error) {
	v, err := Evaluate(expr, env)
	if err != nil {
		return false, err
	}
	b, ok := v.(*Bool)
	if !ok {
		kind := "void"
		if v != nil {
			kind = v.Type()
		}
		return false, errAt(diagnostics.EType, expr.NodeSpan(), "condition must be a bool, got %s", kind)
	}
	return b.Value, nil
}

// evalObject evaluates an expression that must yield a class instance.
func evalObject(expr ast.Expr, env *Environment) (*Map, error) {
	v, err := Evaluate(expr, env)
	if err != nil {
		return nil, err
	}
	m, ok := v.(*Map)
	if !ok || m.Class == "" {
		kind := "void"
		if v != nil {
			kind = v.Type()
		}
		return nil, errAt(diagnostics.EType, expr.NodeSpan(), "member access requires an object, got %s", kind)
	}
	return m, nil
}

func evalIndex(n *ast.Index, env *Environment) (Value, error) {
	target, err := Evaluate(n.Target, env)
	if err != nil {
		return nil, err
	}
	key, err := Evaluate(n.Key, env)
	if err != nil {
		return nil, err
	}
	switch t := target.(type) {
	case *Array:
		idx, err := arrayIndex(key, len(t.Elems), n.Key.NodeSpan())
		if err != nil {
			return nil, err
		}
		return t.Elems[idx], nil
	case *Map:
		k, ok := key.(*String)
		if !ok {
			return nil, errAt(diagnostics.EType, n.Key.NodeSpan(), "map key must be a string, got %s", key.Type())
		}
		v, ok := t.Get(k.Value)
		if !ok {
			return nil, errAt(diagnostics.ERange, n.Span, "key '%s' not found in map", k.Value)
		}
		return v, nil
	}
	return nil, errAt(diagnostics.EType, n.Span, "cannot index %s value", target.Type())
}

func arrayIndex(key Value, length int, span ast.Span) (int, error) {
	num, ok := key.(*Number)
	if !ok {
		return 0, errAt(diagnostics.EType, span, "array index must be a number, got %s", key.Type())
	}
	if num.Value != math.Trunc(num.Value) {
		return 0, errAt(diagnostics.EType, span, "array index must be an integer, got %s", formatNumber(num.Value))
	}
	idx := int(num.Value)
	if idx < 0 || idx >= length {
		return 0, errAt(diagnostics.ERange, span, "array index %d out of bounds (length %d)", idx, length)
	}
	return idx, nil
}

func evalAssignment(n *ast.Assignment, env *Environment) error {
	value, err := Evaluate(n.Value, env)
	if err != nil {
		return err
	}
	if n.Index == nil {
		return env.assign(n.Name, value, n.Span)
	}

	container, ok := env.lookup(n.Name)
	if !ok {
		return errAt(diagnostics.EName, n.Span, "undefined variable '%s'", n.Name)
	}
	key, err := Evaluate(n.Index, env)
	if err != nil {
		return err
	}
	switch t := container.(type) {
	case *Array:
		idx, err := arrayIndex(key, len(t.Elems), n.Index.NodeSpan())
		if err != nil {
			return err
		}
		t.Elems[idx] = value
		return nil
	case *Map:
		k, ok := key.(*String)
		if !ok {
			return errAt(diagnostics.EType, n.Index.NodeSpan(), "map key must be a string, got %s", key.Type())
		}
		t.Set(k.Value, value)
		return nil
	}
	return errAt(diagnostics.EType, n.Span, "cannot index %s value", container.Type())
}

func evalIncrement(n *ast.Increment, env *Environment) (Value, error) {
	v, ok := env.lookup(n.Name)
	if !ok {
		return nil, errAt(diagnostics.EName, n.Span, "undefined variable '%s'", n.Name)
	}
	num, ok := v.(*Number)
	if !ok {
		return nil, errAt(diagnostics.EType, n.Span, "operator '%s' requires a number variable, got %s", n.Op, v.Type())
	}
	old := num.Value
	next := old + 1
	if n.Op == ast.OpDec {
		next = old - 1
	}
	if err := env.assign(n.Name, NewNumber(next), n.Span); err != nil {
		return nil, err
	}
	if n.Prefix {
		return NewNumber(next), nil
	}
	return NewNumber(old), nil
}

func evalCall(n *ast.FunctionCall, env *Environment) (Value, error) {
	if fn, ok := env.natives[n.Name]; ok {
		args := make([]Value, len(n.Args))
		names := make([]string, len(n.Args))
		for i, a := range n.Args {
			v, err := Evaluate(a, env)
			if err != nil {
				return nil, err
			}
			args[i] = v
			if vr, ok := a.(*ast.Variable); ok {
				names[i] = vr.Name
			}
		}
		result, err := fn(args, names, env)
		if err != nil {
			return nil, withSpan(err, n.Span)
		}
		return result, nil
	}

	def, ok := env.userFns[n.Name]
	if !ok {
		return nil, errAt(diagnostics.EName, n.Span, "undefined function '%s'", n.Name)
	}
	args, err := evalArgs(n.Args, env)
	if err != nil {
		return nil, err
	}
	return callUserFunction(env, def, args, n.Span, nil)
}

func evalMemberCall(n *ast.MemberCall, env *Environment) (Value, error) {
	obj, err := evalObject(n.Object, env)
	if err != nil {
		return nil, err
	}
	entry, ok := obj.Get(n.Method)
	if !ok {
		return nil, errAt(diagnostics.EName, n.Span, "class '%s' has no method '%s'", obj.Class, n.Method)
	}
	fr, ok := entry.(*FuncRef)
	if !ok {
		return nil, errAt(diagnostics.EType, n.Span, "'%s' is a member, not a method of class '%s'", n.Method, obj.Class)
	}
	args, err := evalArgs(n.Args, env)
	if err != nil {
		return nil, err
	}
	return callUserFunction(env, fr.Def, args, n.Span, obj)
}

// callUserFunction runs a function, method, or constructor body. recv is
// the receiver instance for methods and constructors, nil for free
// functions; its members shadow the fresh call scope.
func callUserFunction(env *Environment, def *ast.FunctionDef, args []Value, span ast.Span, recv *Map) (Value, error) {
	if len(args) != len(def.Params) {
		return nil, errAt(diagnostics.EArity, span,
			"'%s' expects %d arguments, got %d", def.Name, len(def.Params), len(args))
	}
	env.depth++
	defer func() { env.depth-- }()
	if env.depth > env.maxDepth {
		return nil, errAt(diagnostics.EDepth, span, "recursion too deep")
	}

	saved := env.instance
	env.instance = recv
	defer func() { env.instance = saved }()

	env.pushScope()
	defer env.popScope()
	for i, param := range def.Params {
		if err := env.declare(param.Name, param.Type, args[i], span); err != nil {
			return nil, err
		}
	}

	var result Value
	if _, err := Evaluate(def.Body, env); err != nil {
		rs, ok := err.(*returnSignal)
		if !ok {
			return nil, err
		}
		result = rs.value
	}

	if def.ReturnType.Kind == ast.TypeVoid {
		if result != nil {
			return nil, errAt(diagnostics.EType, span, "void function '%s' returned a value", def.Name)
		}
		return nil, nil
	}
	if result != nil {
		if err := checkAssignable(def.ReturnType, result, span); err != nil {
			return nil, errAt(diagnostics.EType, span,
				"function '%s' declared to return %s returned an incompatible value", def.Name, def.ReturnType)
		}
	}
	return result, nil
}

// instantiate builds a class instance: members get their initializer or
// a type default, methods bind as function references, then the
// constructor runs with the new instance as receiver.
func instantiate(env *Environment, def *ast.ClassDef, args []Value, span ast.Span) (*Map, error) {
	obj := &Map{Class: def.Name}
	for _, member := range def.Members {
		var v Value
		var err error
		if member.Init != nil {
			v, err = Evaluate(member.Init, env)
		} else {
			v, err = defaultValue(env, member.Type, member.Span)
		}
		if err != nil {
			return nil, err
		}
		if err := checkAssignable(member.Type, v, member.Span); err != nil {
			return nil, err
		}
		obj.Set(member.Name, v)
	}
	for _, method := range def.Methods {
		obj.Set(method.Name, &FuncRef{Name: method.Name, Def: method})
	}

	if def.Constructor != nil {
		if _, err := callUserFunction(env, def.Constructor, args, span, obj); err != nil {
			return nil, err
		}
	} else if len(args) > 0 {
		return nil, errAt(diagnostics.EArity, span,
			"class '%s' has no constructor but got %d arguments", def.Name, len(args))
	}
	return obj, nil
}

// defaultValue returns the zero value for a declared type. Class-typed
// declarations get a fresh instance with default members; the
// constructor does not run.
func defaultValue(env *Environment, typ ast.DeclaredType, span ast.Span) (Value, error) {
	switch typ.Kind {
	case ast.TypeInt, ast.TypeFloat:
		return NewNumber(0), nil
	case ast.TypeBool:
		return NewBool(false), nil
	case ast.TypeString:
		return NewString(""), nil
	case ast.TypeArray:
		return NewArray(), nil
	case ast.TypeMap:
		return NewMap(), nil
	case ast.TypeClass:
		def, ok := env.LookupClass(typ.ClassName)
		if !ok {
			return nil, errAt(diagnostics.EName, span, "undefined class '%s'", typ.ClassName)
		}
		obj := &Map{Class: def.Name}
		for _, member := range def.Members {
			var v Value
			var err error
			if member.Init != nil {
				v, err = Evaluate(member.Init, env)
			} else {
				v, err = defaultValue(env, member.Type, member.Span)
			}
			if err != nil {
				return nil, err
			}
			obj.Set(member.Name, v)
		}
		for _, method := range def.Methods {
			obj.Set(method.Name, &FuncRef{Name: method.Name, Def: method})
		}
		return obj, nil
	}
	return nil, errAt(diagnostics.EType, span, "cannot declare a variable of type %s", typ)
}

func evalBinary(op ast.BinaryOp, left, right Value, span ast.Span) (Value, error) {
	switch op {
	case ast.OpAdd:
		if l, ok := left.(*Number); ok {
			if r, ok := right.(*Number); ok {
				return NewNumber(l.Value + r.Value), nil
			}
		}
		if l, ok := left.(*String); ok {
			if r, ok := right.(*String); ok {
				return NewString(l.Value + r.Value), nil
			}
		}
		return nil, binaryTypeErr(op, left, right, span)

	case ast.OpSub, ast.OpMul, ast.OpDiv:
		l, lok := left.(*Number)
		r, rok := right.(*Number)
		if !lok || !rok {
			return nil, binaryTypeErr(op, left, right, span)
		}
		switch op {
		case ast.OpSub:
			return NewNumber(l.Value - r.Value), nil
		case ast.OpMul:
			return NewNumber(l.Value * r.Value), nil
		default:
			if r.Value == 0 {
				return nil, errAt(diagnostics.EArith, span, "division by zero")
			}
			return NewNumber(l.Value / r.Value), nil
		}

	case ast.OpAnd, ast.OpOr:
		l, lok := left.(*Bool)
		r, rok := right.(*Bool)
		if !lok || !rok {
			return nil, binaryTypeErr(op, left, right, span)
		}
		if op == ast.OpAnd {
			return NewBool(l.Value && r.Value), nil
		}
		return NewBool(l.Value || r.Value), nil

	case ast.OpEqEq, ast.OpNeq:
		eq, err := primitiveEqual(left, right, span)
		if err != nil {
			return nil, err
		}
		if op == ast.OpNeq {
			eq = !eq
		}
		return NewBool(eq), nil

	case ast.OpLt, ast.OpLtEq, ast.OpGt, ast.OpGtEq:
		l, lok := left.(*Number)
		r, rok := right.(*Number)
		if !lok || !rok {
			return nil, binaryTypeErr(op, left, right, span)
		}
		switch op {
		case ast.OpLt:
			return NewBool(l.Value < r.Value), nil
		case ast.OpLtEq:
			return NewBool(l.Value <= r.Value), nil
		case ast.OpGt:
			return NewBool(l.Value > r.Value), nil
		default:
			return NewBool(l.Value >= r.Value), nil
		}
	}
	return nil, errAt(diagnostics.EParse, span, "unknown binary operator '%s'", op)
}

// primitiveEqual compares two values of the same primitive kind.
// Arrays, maps, objects, and function references do not compare.
func primitiveEqual(left, right Value, span ast.Span) (bool, error) {
	switch l := left.(type) {
	case *Number:
		if r, ok := right.(*Number); ok {
			return l.Value == r.Value, nil
		}
	case *Bool:
		if r, ok := right.(*Bool); ok {
			return l.Value == r.Value, nil
		}
	case *String:
		if r, ok := right.(*String); ok {
			return l.Value == r.Value, nil
		}
	default:
		return false, errAt(diagnostics.EType, span, "cannot compare %s values", valueKind(left))
	}
	return false, errAt(diagnostics.EType, span,
		"cannot compare %s and %s", valueKind(left), valueKind(right))
}

func binaryTypeErr(op ast.BinaryOp, left, right Value, span ast.Span) error {
	return errAt(diagnostics.EType, span,
		"operator '%s' cannot be applied to %s and %s", op, valueKind(left), valueKind(right))
}

func valueKind(v Value) string {
	if v == nil {
		return "void"
	}
	if m, ok := v.(*Map); ok {
		return m.TypeName()
	}
	return v.Type()
}
