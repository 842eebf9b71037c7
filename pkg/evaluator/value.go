package evaluator

import "github.com/matan45/intercpp/pkg/ast"

// Value is the runtime value union. Numbers are a single float64 kind;
// the int/float distinction exists only at declaration-check time.
// Arrays, maps, and objects have reference semantics: assigning one to
// another binding aliases the same underlying storage.
type Value interface {
	// Type returns the value's kind name as used in diagnostics.
	Type() string
	value() // sealed marker
}

// Number is the single numeric kind.
type Number struct {
	Value float64
}

func (*Number) Type() string { return "number" }
func (*Number) value()       {}

// NewNumber wraps a float64 as a runtime value.
func NewNumber(v float64) *Number { return &Number{Value: v} }

// Bool is a boolean value.
type Bool struct {
	Value bool
}

func (*Bool) Type() string { return "bool" }
func (*Bool) value()       {}

func NewBool(v bool) *Bool { return &Bool{Value: v} }

// String is a string value.
type String struct {
	Value string
}

func (*String) Type() string { return "string" }
func (*String) value()       {}

func NewString(v string) *String { return &String{Value: v} }

// Array is an ordered, heterogeneous element sequence.
type Array struct {
	Elems []Value
}

func (*Array) Type() string { return "array" }
func (*Array) value()       {}

func NewArray(elems ...Value) *Array { return &Array{Elems: elems} }

// MapEntry is one key/value pair of a Map, in insertion order.
type MapEntry struct {
	Key   string
	Value Value
}

// Map is a string-keyed container that preserves insertion order.
// Class instances are Maps whose Class field names their class; plain
// map literals leave Class empty.
type Map struct {
	Class string
	Pairs []MapEntry

	index map[string]int // lazy: key → position in Pairs
}

func (*Map) Type() string { return "map" }
func (*Map) value()       {}

// TypeName returns the class name for instances, "map" otherwise.
func (m *Map) TypeName() string {
	if m.Class != "" {
		return m.Class
	}
	return "map"
}

func NewMap() *Map { return &Map{} }

func (m *Map) buildIndex() {
	m.index = make(map[string]int, len(m.Pairs))
	for i, p := range m.Pairs {
		m.index[p.Key] = i
	}
}

// Get returns the value for key and whether it is present.
func (m *Map) Get(key string) (Value, bool) {
	if m.index == nil {
		m.buildIndex()
	}
	i, ok := m.index[key]
	if !ok {
		return nil, false
	}
	return m.Pairs[i].Value, true
}

// Set inserts or overwrites key. New keys keep insertion order.
func (m *Map) Set(key string, v Value) {
	if m.index == nil {
		m.buildIndex()
	}
	if i, ok := m.index[key]; ok {
		m.Pairs[i].Value = v
		return
	}
	m.index[key] = len(m.Pairs)
	m.Pairs = append(m.Pairs, MapEntry{Key: key, Value: v})
}

// Delete removes key and reports whether it was present.
func (m *Map) Delete(key string) bool {
	if m.index == nil {
		m.buildIndex()
	}
	i, ok := m.index[key]
	if !ok {
		return false
	}
	m.Pairs = append(m.Pairs[:i], m.Pairs[i+1:]...)
	m.index = nil
	return true
}

// Keys returns the keys in insertion order.
func (m *Map) Keys() []string {
	keys := make([]string, len(m.Pairs))
	for i, p := range m.Pairs {
		keys[i] = p.Key
	}
	return keys
}

// Len returns the number of entries.
func (m *Map) Len() int { return len(m.Pairs) }

// FuncRef is a reference to a user-defined function or method. Object
// member maps hold one per method.
type FuncRef struct {
	Name string
	Def  *ast.FunctionDef
}

func (*FuncRef) Type() string { return "function" }
func (*FuncRef) value()       {}
