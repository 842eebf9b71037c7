// Package ast defines the script language AST node types.
package ast

import "fmt"

// Span represents a source location range.
type Span struct {
	File      string `json:"file"`
	StartLine int    `json:"startLine"`
	StartCol  int    `json:"startCol"`
	EndLine   int    `json:"endLine"`
	EndCol    int    `json:"endCol"`
}

// TypeKind enumerates the declarable value types.
type TypeKind int

const (
	TypeInt TypeKind = iota
	TypeFloat
	TypeBool
	TypeString
	TypeArray
	TypeMap
	TypeClass
	TypeVoid
)

// DeclaredType is the static type tag attached at declaration time.
// It is used only to validate assignments, never for dispatch.
type DeclaredType struct {
	Kind      TypeKind
	ClassName string // set when Kind == TypeClass
}

func (t DeclaredType) String() string {
	switch t.Kind {
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypeBool:
		return "bool"
	case TypeString:
		return "string"
	case TypeArray:
		return "array"
	case TypeMap:
		return "map"
	case TypeClass:
		return t.ClassName
	case TypeVoid:
		return "void"
	}
	return fmt.Sprintf("type(%d)", int(t.Kind))
}

// BinaryOp represents a binary operator.
type BinaryOp string

const (
	OpAdd  BinaryOp = "+"
	OpSub  BinaryOp = "-"
	OpMul  BinaryOp = "*"
	OpDiv  BinaryOp = "/"
	OpAnd  BinaryOp = "&&"
	OpOr   BinaryOp = "||"
	OpEqEq BinaryOp = "=="
	OpNeq  BinaryOp = "!="
	OpLt   BinaryOp = "<"
	OpLtEq BinaryOp = "<="
	OpGt   BinaryOp = ">"
	OpGtEq BinaryOp = ">="
)

// UnaryOp represents a unary operator.
type UnaryOp string

const (
	OpNeg UnaryOp = "-"
	OpNot UnaryOp = "!"
)

// IncOp represents an increment or decrement operator.
type IncOp string

const (
	OpInc IncOp = "++"
	OpDec IncOp = "--"
)

// Node is the interface implemented by all AST nodes.
type Node interface {
	Kind() string
	NodeSpan() Span
}

// Expr is the interface for all expression nodes.
type Expr interface {
	Node
	exprNode() // sealed marker
}

// Stmt is the interface for all statement nodes.
type Stmt interface {
	Node
	stmtNode() // sealed marker
}

// Param is a typed function or constructor parameter.
type Param struct {
	Name string
	Type DeclaredType
}

// --- Literal expressions ---

type NumberLit struct {
	Span  Span
	Value float64
}

func (n *NumberLit) Kind() string   { return "NumberLit" }
func (n *NumberLit) NodeSpan() Span { return n.Span }
func (n *NumberLit) exprNode()      {}

type StringLit struct {
	Span  Span
	Value string
}

func (n *StringLit) Kind() string   { return "StringLit" }
func (n *StringLit) NodeSpan() Span { return n.Span }
func (n *StringLit) exprNode()      {}

type BoolLit struct {
	Span  Span
	Value bool
}

func (n *BoolLit) Kind() string   { return "BoolLit" }
func (n *BoolLit) NodeSpan() Span { return n.Span }
func (n *BoolLit) exprNode()      {}

type ArrayLit struct {
	Span     Span
	Elements []Expr
}

func (n *ArrayLit) Kind() string   { return "ArrayLit" }
func (n *ArrayLit) NodeSpan() Span { return n.Span }
func (n *ArrayLit) exprNode()      {}

// MapLit is a map literal. Keys are restricted to string literals by the
// grammar, so they are stored directly; Keys and Values are index-aligned.
type MapLit struct {
	Span   Span
	Keys   []string
	Values []Expr
}

func (n *MapLit) Kind() string   { return "MapLit" }
func (n *MapLit) NodeSpan() Span { return n.Span }
func (n *MapLit) exprNode()      {}

// --- Names and access ---

type Variable struct {
	Span Span
	Name string
}

func (n *Variable) Kind() string   { return "Variable" }
func (n *Variable) NodeSpan() Span { return n.Span }
func (n *Variable) exprNode()      {}

// Index is an array or map element read: target[key].
type Index struct {
	Span   Span
	Target Expr
	Key    Expr
}

func (n *Index) Kind() string   { return "Index" }
func (n *Index) NodeSpan() Span { return n.Span }
func (n *Index) exprNode()      {}

// MemberAccess reads a field from an object's member map.
type MemberAccess struct {
	Span   Span
	Object Expr
	Member string
}

func (n *MemberAccess) Kind() string   { return "MemberAccess" }
func (n *MemberAccess) NodeSpan() Span { return n.Span }
func (n *MemberAccess) exprNode()      {}

// MemberCall invokes a method on an object.
type MemberCall struct {
	Span   Span
	Object Expr
	Method string
	Args   []Expr
}

func (n *MemberCall) Kind() string   { return "MemberCall" }
func (n *MemberCall) NodeSpan() Span { return n.Span }
func (n *MemberCall) exprNode()      {}
func (n *MemberCall) stmtNode()      {}

// --- Operators ---

type BinaryExpr struct {
	Span  Span
	Op    BinaryOp
	Left  Expr
	Right Expr
}

func (n *BinaryExpr) Kind() string   { return "BinaryExpr" }
func (n *BinaryExpr) NodeSpan() Span { return n.Span }
func (n *BinaryExpr) exprNode()      {}

type UnaryExpr struct {
	Span    Span
	Op      UnaryOp
	Operand Expr
}

func (n *UnaryExpr) Kind() string   { return "UnaryExpr" }
func (n *UnaryExpr) NodeSpan() Span { return n.Span }
func (n *UnaryExpr) exprNode()      {}

// Increment mutates a numeric variable in place. Prefix yields the
// post-increment value, postfix the pre-increment value.
type Increment struct {
	Span   Span
	Name   string
	Op     IncOp
	Prefix bool
}

func (n *Increment) Kind() string   { return "Increment" }
func (n *Increment) NodeSpan() Span { return n.Span }
func (n *Increment) exprNode()      {}
func (n *Increment) stmtNode()      {}

// --- Calls and construction ---

type FunctionCall struct {
	Span Span
	Name string
	Args []Expr
}

func (n *FunctionCall) Kind() string   { return "FunctionCall" }
func (n *FunctionCall) NodeSpan() Span { return n.Span }
func (n *FunctionCall) exprNode()      {}
func (n *FunctionCall) stmtNode()      {}

type ObjectNew struct {
	Span      Span
	ClassName string
	Args      []Expr
}

func (n *ObjectNew) Kind() string   { return "ObjectNew" }
func (n *ObjectNew) NodeSpan() Span { return n.Span }
func (n *ObjectNew) exprNode()      {}

// --- Statements ---

// Declaration creates a typed binding in the innermost scope, with a
// type-appropriate default when no initializer is given.
type Declaration struct {
	Span Span
	Name string
	Type DeclaredType
	Init Expr // optional
}

func (n *Declaration) Kind() string   { return "Declaration" }
func (n *Declaration) NodeSpan() Span { return n.Span }
func (n *Declaration) stmtNode()      {}

// Assignment writes to an existing binding. When Index is non-nil the
// target must hold an array or map and the write goes to one element.
type Assignment struct {
	Span  Span
	Name  string
	Index Expr // optional: element assignment
	Value Expr
}

func (n *Assignment) Kind() string   { return "Assignment" }
func (n *Assignment) NodeSpan() Span { return n.Span }
func (n *Assignment) stmtNode()      {}

type Block struct {
	Span       Span
	Statements []Stmt
}

func (n *Block) Kind() string   { return "Block" }
func (n *Block) NodeSpan() Span { return n.Span }
func (n *Block) stmtNode()      {}

type If struct {
	Span Span
	Cond Expr
	Then Stmt
	Else Stmt // optional; chained else-if folds into nested If nodes
}

func (n *If) Kind() string   { return "If" }
func (n *If) NodeSpan() Span { return n.Span }
func (n *If) stmtNode()      {}

type While struct {
	Span Span
	Cond Expr
	Body Stmt
}

func (n *While) Kind() string   { return "While" }
func (n *While) NodeSpan() Span { return n.Span }
func (n *While) stmtNode()      {}

type DoWhile struct {
	Span Span
	Body Stmt
	Cond Expr
}

func (n *DoWhile) Kind() string   { return "DoWhile" }
func (n *DoWhile) NodeSpan() Span { return n.Span }
func (n *DoWhile) stmtNode()      {}

// For is a C-style loop. Init and Update are optional; Cond is required.
type For struct {
	Span   Span
	Init   Stmt // optional: declaration or assignment
	Cond   Expr
	Update Node // optional: assignment, increment, or expression
	Body   Stmt
}

func (n *For) Kind() string   { return "For" }
func (n *For) NodeSpan() Span { return n.Span }
func (n *For) stmtNode()      {}

type Return struct {
	Span  Span
	Value Expr // optional for void functions
}

func (n *Return) Kind() string   { return "Return" }
func (n *Return) NodeSpan() Span { return n.Span }
func (n *Return) stmtNode()      {}

// FunctionDef registers itself into the user-function registry when
// evaluated; it is also the body shape for constructors and methods.
type FunctionDef struct {
	Span       Span
	Name       string
	ReturnType DeclaredType
	Params     []Param
	Body       *Block
}

func (n *FunctionDef) Kind() string   { return "FunctionDef" }
func (n *FunctionDef) NodeSpan() Span { return n.Span }
func (n *FunctionDef) stmtNode()      {}

// ClassDef declares a class: data members, an optional constructor, and
// methods. Members keep declaration order.
type ClassDef struct {
	Span        Span
	Name        string
	Members     []*Declaration
	Constructor *FunctionDef // optional; Name is the class name
	Methods     []*FunctionDef
}

func (n *ClassDef) Kind() string   { return "ClassDef" }
func (n *ClassDef) NodeSpan() Span { return n.Span }
func (n *ClassDef) stmtNode()      {}

// --- Program ---

type Program struct {
	Span       Span
	Statements []Stmt
}

func (n *Program) Kind() string   { return "Program" }
func (n *Program) NodeSpan() Span { return n.Span }
