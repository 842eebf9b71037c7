// Package validator runs static checks over a parsed program before
// evaluation: duplicate definitions, native-name collisions, and return
// statements outside any function body.
package validator

import (
	"fmt"

	"github.com/matan45/intercpp/pkg/ast"
	"github.com/matan45/intercpp/pkg/diagnostics"
)

// Validate checks prog and returns all findings. natives holds the
// registered native function names; nil disables collision checks.
func Validate(prog *ast.Program, natives map[string]bool) []diagnostics.Diagnostic {
	v := &validator{natives: natives, funcs: map[string]bool{}, classes: map[string]bool{}}
	for _, stmt := range prog.Statements {
		v.checkTopLevel(stmt)
	}
	return v.diags
}

type validator struct {
	natives map[string]bool
	funcs   map[string]bool
	classes map[string]bool
	diags   []diagnostics.Diagnostic
}

func (v *validator) report(code string, span ast.Span, format string, args ...any) {
	s := span
	v.diags = append(v.diags, diagnostics.MakeDiag(code, fmt.Sprintf(format, args...), &s, ""))
}

func (v *validator) checkTopLevel(stmt ast.Stmt) {
	switch n := stmt.(type) {
	case *ast.FunctionDef:
		if v.funcs[n.Name] {
			v.report(diagnostics.EName, n.Span, "function '%s' already defined", n.Name)
		}
		if v.natives[n.Name] {
			v.report(diagnostics.EName, n.Span, "'%s' is already a native function", n.Name)
		}
		v.funcs[n.Name] = true

	case *ast.ClassDef:
		if v.classes[n.Name] {
			v.report(diagnostics.EName, n.Span, "class '%s' already defined", n.Name)
		}
		v.classes[n.Name] = true
		seen := map[string]bool{}
		for _, member := range n.Members {
			if seen[member.Name] {
				v.report(diagnostics.EName, member.Span, "class '%s' member '%s' already declared", n.Name, member.Name)
			}
			seen[member.Name] = true
		}
		for _, method := range n.Methods {
			if seen[method.Name] {
				v.report(diagnostics.EName, method.Span, "class '%s' method '%s' collides with another member", n.Name, method.Name)
			}
			seen[method.Name] = true
		}

	default:
		v.checkNoReturn(stmt)
	}
}

// checkNoReturn walks statements outside function bodies and flags any
// return it reaches. Function and class bodies are skipped.
func (v *validator) checkNoReturn(stmt ast.Stmt) {
	switch n := stmt.(type) {
	case *ast.Return:
		v.report(diagnostics.EParse, n.Span, "return outside function")
	case *ast.Block:
		for _, s := range n.Statements {
			v.checkNoReturn(s)
		}
	case *ast.If:
		v.checkNoReturn(n.Then)
		if n.Else != nil {
			v.checkNoReturn(n.Else)
		}
	case *ast.While:
		v.checkNoReturn(n.Body)
	case *ast.DoWhile:
		v.checkNoReturn(n.Body)
	case *ast.For:
		v.checkNoReturn(n.Body)
	}
}
