// Package parser implements the script language recursive-descent parser.
//
// The parser pulls tokens from the lexer one at a time and keeps a single
// token of lookahead. Operator precedence is encoded as a cascade of
// left-associative levels, lowest first:
//
//	logicalOr → logicalAnd → equality → comparison → term → factor → unary → primary
package parser

import (
	"fmt"

	"github.com/matan45/intercpp/pkg/ast"
	"github.com/matan45/intercpp/pkg/diagnostics"
	"github.com/matan45/intercpp/pkg/lexer"
)

// ParseError wraps a diagnostic for parse errors.
type ParseError struct {
	Diag diagnostics.Diagnostic
}

func (e *ParseError) Error() string {
	return e.Diag.Message
}

// Parser consumes a token stream and produces one Program AST.
type Parser struct {
	lx  *lexer.Lexer
	tok lexer.Token

	// classNames tracks classes defined earlier in the same program so
	// that `Name x;` parses as a class-typed declaration.
	classNames map[string]bool
}

// New creates a Parser over a lexer and primes the lookahead token.
func New(lx *lexer.Lexer) (*Parser, error) {
	p := &Parser{lx: lx, classNames: map[string]bool{}}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return p, nil
}

// Parse is a convenience that lexes and parses source text in one call.
func Parse(text, filename string, importer lexer.Importer) (*ast.Program, error) {
	p, err := New(lexer.New(text, filename, importer))
	if err != nil {
		return nil, err
	}
	return p.Parse()
}

// Parse consumes the whole token stream and returns the program.
func (p *Parser) Parse() (*ast.Program, error) {
	start := p.tok.Span
	var stmts []ast.Stmt
	for p.tok.Type != lexer.TokEnd {
		if p.tok.Type == lexer.TokSemicolon {
			// Empty statement.
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	return &ast.Program{Span: p.spanFrom(start), Statements: stmts}, nil
}

func (p *Parser) advance() error {
	tok, err := p.lx.Next()
	if err != nil {
		return err
	}
	p.tok = tok
	return nil
}

func (p *Parser) errAt(span ast.Span, msg string) error {
	s := span
	return &ParseError{Diag: diagnostics.MakeDiag(diagnostics.EParse, msg, &s, "")}
}

// eat consumes the current token if it has the expected type, failing with
// an unexpected-token error naming the expected and actual kinds otherwise.
func (p *Parser) eat(typ lexer.TokenType) (lexer.Token, error) {
	tok := p.tok
	if tok.Type != typ {
		return tok, p.errAt(tok.Span, fmt.Sprintf("expected %s, got %s", tokenName(typ), describe(tok)))
	}
	if err := p.advance(); err != nil {
		return tok, err
	}
	return tok, nil
}

func (p *Parser) spanFrom(start ast.Span) ast.Span {
	cur := p.tok.Span
	return ast.Span{
		File:      start.File,
		StartLine: start.StartLine,
		StartCol:  start.StartCol,
		EndLine:   cur.StartLine,
		EndCol:    cur.StartCol,
	}
}

func tokenName(t lexer.TokenType) string {
	switch t {
	case lexer.TokLParen:
		return "'('"
	case lexer.TokRParen:
		return "')'"
	case lexer.TokLBrace:
		return "'{'"
	case lexer.TokRBrace:
		return "'}'"
	case lexer.TokLBracket:
		return "'['"
	case lexer.TokRBracket:
		return "']'"
	case lexer.TokComma:
		return "','"
	case lexer.TokSemicolon:
		return "';'"
	case lexer.TokColon:
		return "':'"
	case lexer.TokAssign:
		return "'='"
	case lexer.TokIdent:
		return "identifier"
	case lexer.TokNumber:
		return "number"
	case lexer.TokStringLit:
		return "string"
	case lexer.TokWhile:
		return "'while'"
	case lexer.TokEnd:
		return "end of input"
	default:
		return fmt.Sprintf("token(%d)", t)
	}
}

func describe(tok lexer.Token) string {
	switch tok.Type {
	case lexer.TokEnd:
		return "end of input"
	case lexer.TokNumber:
		return fmt.Sprintf("number '%s'", tok.Text)
	case lexer.TokStringLit:
		return fmt.Sprintf("string %q", tok.Text)
	default:
		return fmt.Sprintf("'%s'", tok.Text)
	}
}

func isTypeKeyword(t lexer.TokenType) bool {
	switch t {
	case lexer.TokInt, lexer.TokFloat, lexer.TokBool, lexer.TokString, lexer.TokArray, lexer.TokMap:
		return true
	}
	return false
}

// parseVarType parses a declarable variable type: a type keyword or a
// known class name. void is not declarable.
func (p *Parser) parseVarType() (ast.DeclaredType, error) {
	switch p.tok.Type {
	case lexer.TokInt:
		_, err := p.eat(lexer.TokInt)
		return ast.DeclaredType{Kind: ast.TypeInt}, err
	case lexer.TokFloat:
		_, err := p.eat(lexer.TokFloat)
		return ast.DeclaredType{Kind: ast.TypeFloat}, err
	case lexer.TokBool:
		_, err := p.eat(lexer.TokBool)
		return ast.DeclaredType{Kind: ast.TypeBool}, err
	case lexer.TokString:
		_, err := p.eat(lexer.TokString)
		return ast.DeclaredType{Kind: ast.TypeString}, err
	case lexer.TokArray:
		_, err := p.eat(lexer.TokArray)
		return ast.DeclaredType{Kind: ast.TypeArray}, err
	case lexer.TokMap:
		_, err := p.eat(lexer.TokMap)
		return ast.DeclaredType{Kind: ast.TypeMap}, err
	case lexer.TokIdent:
		if p.classNames[p.tok.Text] {
			tok, err := p.eat(lexer.TokIdent)
			return ast.DeclaredType{Kind: ast.TypeClass, ClassName: tok.Text}, err
		}
	}
	return ast.DeclaredType{}, p.errAt(p.tok.Span, fmt.Sprintf("expected type, got %s", describe(p.tok)))
}

// parseReturnType additionally accepts void.
func (p *Parser) parseReturnType() (ast.DeclaredType, error) {
	if p.tok.Type == lexer.TokVoid {
		_, err := p.eat(lexer.TokVoid)
		return ast.DeclaredType{Kind: ast.TypeVoid}, err
	}
	return p.parseVarType()
}

// --- Statements ---

func (p *Parser) parseStatement() (ast.Stmt, error) {
	switch p.tok.Type {
	case lexer.TokFunc:
		return p.parseFunctionDef()
	case lexer.TokClass:
		return p.parseClassDef()
	case lexer.TokInt, lexer.TokFloat, lexer.TokBool, lexer.TokString, lexer.TokArray, lexer.TokMap:
		return p.parseDeclaration()
	case lexer.TokIdent:
		if p.classNames[p.tok.Text] {
			return p.parseDeclaration()
		}
		return p.parseIdentStatement()
	case lexer.TokPlusPlus, lexer.TokMinusMinus:
		return p.parsePrefixIncrementStatement()
	case lexer.TokReturn:
		return p.parseReturn()
	case lexer.TokIf:
		return p.parseIf()
	case lexer.TokWhile:
		return p.parseWhile()
	case lexer.TokFor:
		return p.parseFor()
	case lexer.TokDo:
		return p.parseDoWhile()
	case lexer.TokLBrace:
		return p.parseBlock()
	}
	return nil, p.errAt(p.tok.Span, fmt.Sprintf("unexpected %s in statement", describe(p.tok)))
}

func (p *Parser) parseDeclaration() (ast.Stmt, error) {
	typ, err := p.parseVarType()
	if err != nil {
		return nil, err
	}
	return p.parseDeclarationWithType(typ)
}

// parseDeclarationWithType finishes a declaration whose type has already
// been consumed. The trailing semicolon is optional so for-loop headers
// can reuse this production.
func (p *Parser) parseDeclarationWithType(typ ast.DeclaredType) (*ast.Declaration, error) {
	start := p.tok.Span
	nameTok, err := p.eat(lexer.TokIdent)
	if err != nil {
		return nil, err
	}

	var init ast.Expr
	if p.tok.Type == lexer.TokAssign {
		if _, err := p.eat(lexer.TokAssign); err != nil {
			return nil, err
		}
		init, err = p.parseExpression()
		if err != nil {
			return nil, err
		}
		// Array and map declarations expect a literal of matching shape.
		switch typ.Kind {
		case ast.TypeArray:
			if _, ok := init.(*ast.ArrayLit); !ok {
				return nil, p.errAt(init.NodeSpan(), "array declaration expects an array literal initializer")
			}
		case ast.TypeMap:
			if _, ok := init.(*ast.MapLit); !ok {
				return nil, p.errAt(init.NodeSpan(), "map declaration expects a map literal initializer")
			}
		}
	}
	if p.tok.Type == lexer.TokSemicolon {
		if _, err := p.eat(lexer.TokSemicolon); err != nil {
			return nil, err
		}
	}
	return &ast.Declaration{
		Span: p.spanFrom(start),
		Name: nameTok.Text,
		Type: typ,
		Init: init,
	}, nil
}

// parseIdentStatement disambiguates the statements that begin with an
// identifier: assignment, indexed assignment, call, postfix increment, or
// a method call.
func (p *Parser) parseIdentStatement() (ast.Stmt, error) {
	start := p.tok.Span
	nameTok, err := p.eat(lexer.TokIdent)
	if err != nil {
		return nil, err
	}

	switch p.tok.Type {
	case lexer.TokAssign:
		if _, err := p.eat(lexer.TokAssign); err != nil {
			return nil, err
		}
		value, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.eat(lexer.TokSemicolon); err != nil {
			return nil, err
		}
		return &ast.Assignment{Span: p.spanFrom(start), Name: nameTok.Text, Value: value}, nil

	case lexer.TokLBracket:
		if _, err := p.eat(lexer.TokLBracket); err != nil {
			return nil, err
		}
		key, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.eat(lexer.TokRBracket); err != nil {
			return nil, err
		}
		if _, err := p.eat(lexer.TokAssign); err != nil {
			return nil, err
		}
		value, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.eat(lexer.TokSemicolon); err != nil {
			return nil, err
		}
		return &ast.Assignment{Span: p.spanFrom(start), Name: nameTok.Text, Index: key, Value: value}, nil

	case lexer.TokLParen:
		args, err := p.parseArgs()
		if err != nil {
			return nil, err
		}
		if _, err := p.eat(lexer.TokSemicolon); err != nil {
			return nil, err
		}
		return &ast.FunctionCall{Span: p.spanFrom(start), Name: nameTok.Text, Args: args}, nil

	case lexer.TokPlusPlus, lexer.TokMinusMinus:
		op := ast.OpInc
		if p.tok.Type == lexer.TokMinusMinus {
			op = ast.OpDec
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		if _, err := p.eat(lexer.TokSemicolon); err != nil {
			return nil, err
		}
		return &ast.Increment{Span: p.spanFrom(start), Name: nameTok.Text, Op: op, Prefix: false}, nil

	case lexer.TokDot:
		expr, err := p.parsePostfix(&ast.Variable{Span: nameTok.Span, Name: nameTok.Text})
		if err != nil {
			return nil, err
		}
		call, ok := expr.(*ast.MemberCall)
		if !ok {
			return nil, p.errAt(expr.NodeSpan(), "expected method call statement")
		}
		if _, err := p.eat(lexer.TokSemicolon); err != nil {
			return nil, err
		}
		return call, nil
	}

	return nil, p.errAt(p.tok.Span,
		fmt.Sprintf("unexpected %s after identifier '%s'", describe(p.tok), nameTok.Text))
}

func (p *Parser) parsePrefixIncrementStatement() (ast.Stmt, error) {
	start := p.tok.Span
	op := ast.OpInc
	if p.tok.Type == lexer.TokMinusMinus {
		op = ast.OpDec
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	nameTok, err := p.eat(lexer.TokIdent)
	if err != nil {
		return nil, err
	}
	if _, err := p.eat(lexer.TokSemicolon); err != nil {
		return nil, err
	}
	return &ast.Increment{Span: p.spanFrom(start), Name: nameTok.Text, Op: op, Prefix: true}, nil
}

func (p *Parser) parseReturn() (ast.Stmt, error) {
	start := p.tok.Span
	if _, err := p.eat(lexer.TokReturn); err != nil {
		return nil, err
	}
	var value ast.Expr
	if p.tok.Type != lexer.TokSemicolon {
		var err error
		value, err = p.parseExpression()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.eat(lexer.TokSemicolon); err != nil {
		return nil, err
	}
	return &ast.Return{Span: p.spanFrom(start), Value: value}, nil
}

func (p *Parser) parseIf() (ast.Stmt, error) {
	start := p.tok.Span
	if _, err := p.eat(lexer.TokIf); err != nil {
		return nil, err
	}
	if _, err := p.eat(lexer.TokLParen); err != nil {
		return nil, err
	}
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.eat(lexer.TokRParen); err != nil {
		return nil, err
	}
	then, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	var elseStmt ast.Stmt
	if p.tok.Type == lexer.TokElse {
		if _, err := p.eat(lexer.TokElse); err != nil {
			return nil, err
		}
		// `else if` folds naturally into a nested If statement.
		elseStmt, err = p.parseStatement()
		if err != nil {
			return nil, err
		}
	}
	return &ast.If{Span: p.spanFrom(start), Cond: cond, Then: then, Else: elseStmt}, nil
}

func (p *Parser) parseWhile() (ast.Stmt, error) {
	start := p.tok.Span
	if _, err := p.eat(lexer.TokWhile); err != nil {
		return nil, err
	}
	if _, err := p.eat(lexer.TokLParen); err != nil {
		return nil, err
	}
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.eat(lexer.TokRParen); err != nil {
		return nil, err
	}
	body, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	return &ast.While{Span: p.spanFrom(start), Cond: cond, Body: body}, nil
}

func (p *Parser) parseDoWhile() (ast.Stmt, error) {
	start := p.tok.Span
	if _, err := p.eat(lexer.TokDo); err != nil {
		return nil, err
	}
	body, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	if _, err := p.eat(lexer.TokWhile); err != nil {
		return nil, err
	}
	if _, err := p.eat(lexer.TokLParen); err != nil {
		return nil, err
	}
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.eat(lexer.TokRParen); err != nil {
		return nil, err
	}
	if _, err := p.eat(lexer.TokSemicolon); err != nil {
		return nil, err
	}
	return &ast.DoWhile{Span: p.spanFrom(start), Body: body, Cond: cond}, nil
}

func (p *Parser) parseFor() (ast.Stmt, error) {
	start := p.tok.Span
	if _, err := p.eat(lexer.TokFor); err != nil {
		return nil, err
	}
	if _, err := p.eat(lexer.TokLParen); err != nil {
		return nil, err
	}

	// Initializer: declaration, assignment, or empty.
	var init ast.Stmt
	switch {
	case p.tok.Type == lexer.TokSemicolon:
		if _, err := p.eat(lexer.TokSemicolon); err != nil {
			return nil, err
		}
	case isTypeKeyword(p.tok.Type) || (p.tok.Type == lexer.TokIdent && p.classNames[p.tok.Text]):
		decl, err := p.parseDeclaration()
		if err != nil {
			return nil, err
		}
		init = decl
	case p.tok.Type == lexer.TokIdent:
		istart := p.tok.Span
		nameTok, err := p.eat(lexer.TokIdent)
		if err != nil {
			return nil, err
		}
		var index ast.Expr
		if p.tok.Type == lexer.TokLBracket {
			if _, err := p.eat(lexer.TokLBracket); err != nil {
				return nil, err
			}
			index, err = p.parseExpression()
			if err != nil {
				return nil, err
			}
			if _, err := p.eat(lexer.TokRBracket); err != nil {
				return nil, err
			}
		}
		if _, err := p.eat(lexer.TokAssign); err != nil {
			return nil, err
		}
		value, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.eat(lexer.TokSemicolon); err != nil {
			return nil, err
		}
		init = &ast.Assignment{Span: p.spanFrom(istart), Name: nameTok.Text, Index: index, Value: value}
	default:
		return nil, p.errAt(p.tok.Span, fmt.Sprintf("expected declaration or assignment in for initializer, got %s", describe(p.tok)))
	}

	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.eat(lexer.TokSemicolon); err != nil {
		return nil, err
	}

	var update ast.Node
	if p.tok.Type != lexer.TokRParen {
		update, err = p.parseForUpdate()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.eat(lexer.TokRParen); err != nil {
		return nil, err
	}

	body, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	return &ast.For{Span: p.spanFrom(start), Init: init, Cond: cond, Update: update, Body: body}, nil
}

// parseForUpdate accepts an assignment, a prefix or postfix increment, or
// a bare expression. No trailing semicolon.
func (p *Parser) parseForUpdate() (ast.Node, error) {
	start := p.tok.Span
	switch p.tok.Type {
	case lexer.TokPlusPlus, lexer.TokMinusMinus:
		op := ast.OpInc
		if p.tok.Type == lexer.TokMinusMinus {
			op = ast.OpDec
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		nameTok, err := p.eat(lexer.TokIdent)
		if err != nil {
			return nil, err
		}
		return &ast.Increment{Span: p.spanFrom(start), Name: nameTok.Text, Op: op, Prefix: true}, nil

	case lexer.TokIdent:
		nameTok, err := p.eat(lexer.TokIdent)
		if err != nil {
			return nil, err
		}
		switch p.tok.Type {
		case lexer.TokAssign:
			if _, err := p.eat(lexer.TokAssign); err != nil {
				return nil, err
			}
			value, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			return &ast.Assignment{Span: p.spanFrom(start), Name: nameTok.Text, Value: value}, nil
		case lexer.TokLBracket:
			if _, err := p.eat(lexer.TokLBracket); err != nil {
				return nil, err
			}
			key, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			if _, err := p.eat(lexer.TokRBracket); err != nil {
				return nil, err
			}
			if _, err := p.eat(lexer.TokAssign); err != nil {
				return nil, err
			}
			value, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			return &ast.Assignment{Span: p.spanFrom(start), Name: nameTok.Text, Index: key, Value: value}, nil
		case lexer.TokPlusPlus, lexer.TokMinusMinus:
			op := ast.OpInc
			if p.tok.Type == lexer.TokMinusMinus {
				op = ast.OpDec
			}
			if err := p.advance(); err != nil {
				return nil, err
			}
			return &ast.Increment{Span: p.spanFrom(start), Name: nameTok.Text, Op: op, Prefix: false}, nil
		case lexer.TokLParen:
			args, err := p.parseArgs()
			if err != nil {
				return nil, err
			}
			return &ast.FunctionCall{Span: p.spanFrom(start), Name: nameTok.Text, Args: args}, nil
		case lexer.TokDot:
			return p.parsePostfix(&ast.Variable{Span: nameTok.Span, Name: nameTok.Text})
		}
		return nil, p.errAt(p.tok.Span, "expected assignment, increment, or call in for update")
	}
	return p.parseExpression()
}

func (p *Parser) parseBlock() (*ast.Block, error) {
	start := p.tok.Span
	if _, err := p.eat(lexer.TokLBrace); err != nil {
		return nil, err
	}
	var stmts []ast.Stmt
	for p.tok.Type != lexer.TokRBrace && p.tok.Type != lexer.TokEnd {
		if p.tok.Type == lexer.TokSemicolon {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	if _, err := p.eat(lexer.TokRBrace); err != nil {
		return nil, err
	}
	return &ast.Block{Span: p.spanFrom(start), Statements: stmts}, nil
}

// --- Functions and classes ---

func (p *Parser) parseFunctionDef() (ast.Stmt, error) {
	return p.parseFunctionDefNode()
}

func (p *Parser) parseFunctionDefNode() (*ast.FunctionDef, error) {
	start := p.tok.Span
	if _, err := p.eat(lexer.TokFunc); err != nil {
		return nil, err
	}
	retType, err := p.parseReturnType()
	if err != nil {
		return nil, err
	}
	nameTok, err := p.eat(lexer.TokIdent)
	if err != nil {
		return nil, err
	}
	params, err := p.parseParams()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.FunctionDef{
		Span:       p.spanFrom(start),
		Name:       nameTok.Text,
		ReturnType: retType,
		Params:     params,
		Body:       body,
	}, nil
}

func (p *Parser) parseParams() ([]ast.Param, error) {
	if _, err := p.eat(lexer.TokLParen); err != nil {
		return nil, err
	}
	var params []ast.Param
	for p.tok.Type != lexer.TokRParen {
		typ, err := p.parseVarType()
		if err != nil {
			return nil, err
		}
		nameTok, err := p.eat(lexer.TokIdent)
		if err != nil {
			return nil, err
		}
		params = append(params, ast.Param{Name: nameTok.Text, Type: typ})
		if p.tok.Type != lexer.TokComma {
			break
		}
		if _, err := p.eat(lexer.TokComma); err != nil {
			return nil, err
		}
	}
	if _, err := p.eat(lexer.TokRParen); err != nil {
		return nil, err
	}
	return params, nil
}

func (p *Parser) parseClassDef() (ast.Stmt, error) {
	start := p.tok.Span
	if _, err := p.eat(lexer.TokClass); err != nil {
		return nil, err
	}
	nameTok, err := p.eat(lexer.TokIdent)
	if err != nil {
		return nil, err
	}
	className := nameTok.Text
	// Members may reference the class's own type.
	p.classNames[className] = true

	if _, err := p.eat(lexer.TokLBrace); err != nil {
		return nil, err
	}

	def := &ast.ClassDef{Name: className}
	for p.tok.Type != lexer.TokRBrace && p.tok.Type != lexer.TokEnd {
		switch {
		case p.tok.Type == lexer.TokSemicolon:
			if err := p.advance(); err != nil {
				return nil, err
			}

		case p.tok.Type == lexer.TokFunc:
			method, err := p.parseFunctionDefNode()
			if err != nil {
				return nil, err
			}
			def.Methods = append(def.Methods, method)

		case p.tok.Type == lexer.TokIdent && p.tok.Text == className:
			ctorStart := p.tok.Span
			if err := p.advance(); err != nil {
				return nil, err
			}
			if p.tok.Type == lexer.TokLParen {
				if def.Constructor != nil {
					return nil, p.errAt(ctorStart, fmt.Sprintf("class '%s' already has a constructor", className))
				}
				params, err := p.parseParams()
				if err != nil {
					return nil, err
				}
				body, err := p.parseBlock()
				if err != nil {
					return nil, err
				}
				def.Constructor = &ast.FunctionDef{
					Span:       p.spanFrom(ctorStart),
					Name:       className,
					ReturnType: ast.DeclaredType{Kind: ast.TypeVoid},
					Params:     params,
					Body:       body,
				}
				continue
			}
			// A member of the class's own type: `Name next;`.
			member, err := p.parseDeclarationWithType(ast.DeclaredType{Kind: ast.TypeClass, ClassName: className})
			if err != nil {
				return nil, err
			}
			def.Members = append(def.Members, member)

		case isTypeKeyword(p.tok.Type) || (p.tok.Type == lexer.TokIdent && p.classNames[p.tok.Text]):
			typ, err := p.parseVarType()
			if err != nil {
				return nil, err
			}
			member, err := p.parseDeclarationWithType(typ)
			if err != nil {
				return nil, err
			}
			def.Members = append(def.Members, member)

		default:
			return nil, p.errAt(p.tok.Span,
				fmt.Sprintf("unexpected %s in class body", describe(p.tok)))
		}
	}
	if _, err := p.eat(lexer.TokRBrace); err != nil {
		return nil, err
	}
	def.Span = p.spanFrom(start)
	return def, nil
}

// --- Expressions ---

func (p *Parser) parseExpression() (ast.Expr, error) {
	return p.parseLogicalOr()
}

func (p *Parser) parseLogicalOr() (ast.Expr, error) {
	left, err := p.parseLogicalAnd()
	if err != nil {
		return nil, err
	}
	for p.tok.Type == lexer.TokOr {
		start := left.NodeSpan()
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseLogicalAnd()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Span: p.spanFrom(start), Op: ast.OpOr, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseLogicalAnd() (ast.Expr, error) {
	left, err := p.parseEquality()
	if err != nil {
		return nil, err
	}
	for p.tok.Type == lexer.TokAnd {
		start := left.NodeSpan()
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseEquality()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Span: p.spanFrom(start), Op: ast.OpAnd, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseEquality() (ast.Expr, error) {
	left, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	for p.tok.Type == lexer.TokEqEq || p.tok.Type == lexer.TokBangEq {
		op := ast.OpEqEq
		if p.tok.Type == lexer.TokBangEq {
			op = ast.OpNeq
		}
		start := left.NodeSpan()
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Span: p.spanFrom(start), Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseComparison() (ast.Expr, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for {
		var op ast.BinaryOp
		switch p.tok.Type {
		case lexer.TokLt:
			op = ast.OpLt
		case lexer.TokLtEq:
			op = ast.OpLtEq
		case lexer.TokGt:
			op = ast.OpGt
		case lexer.TokGtEq:
			op = ast.OpGtEq
		default:
			return left, nil
		}
		start := left.NodeSpan()
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Span: p.spanFrom(start), Op: op, Left: left, Right: right}
	}
}

func (p *Parser) parseTerm() (ast.Expr, error) {
	left, err := p.parseFactor()
	if err != nil {
		return nil, err
	}
	for p.tok.Type == lexer.TokPlus || p.tok.Type == lexer.TokMinus {
		op := ast.OpAdd
		if p.tok.Type == lexer.TokMinus {
			op = ast.OpSub
		}
		start := left.NodeSpan()
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Span: p.spanFrom(start), Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseFactor() (ast.Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.tok.Type == lexer.TokStar || p.tok.Type == lexer.TokSlash {
		op := ast.OpMul
		if p.tok.Type == lexer.TokSlash {
			op = ast.OpDiv
		}
		start := left.NodeSpan()
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Span: p.spanFrom(start), Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseUnary() (ast.Expr, error) {
	start := p.tok.Span
	switch p.tok.Type {
	case lexer.TokMinus:
		if err := p.advance(); err != nil {
			return nil, err
		}
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpr{Span: p.spanFrom(start), Op: ast.OpNeg, Operand: operand}, nil
	case lexer.TokNot:
		if err := p.advance(); err != nil {
			return nil, err
		}
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpr{Span: p.spanFrom(start), Op: ast.OpNot, Operand: operand}, nil
	case lexer.TokPlusPlus, lexer.TokMinusMinus:
		op := ast.OpInc
		if p.tok.Type == lexer.TokMinusMinus {
			op = ast.OpDec
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		nameTok, err := p.eat(lexer.TokIdent)
		if err != nil {
			return nil, err
		}
		return &ast.Increment{Span: p.spanFrom(start), Name: nameTok.Text, Op: op, Prefix: true}, nil
	}
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() (ast.Expr, error) {
	start := p.tok.Span
	switch p.tok.Type {
	case lexer.TokNumber:
		tok, err := p.eat(lexer.TokNumber)
		if err != nil {
			return nil, err
		}
		return &ast.NumberLit{Span: tok.Span, Value: tok.Number}, nil

	case lexer.TokStringLit:
		tok, err := p.eat(lexer.TokStringLit)
		if err != nil {
			return nil, err
		}
		return &ast.StringLit{Span: tok.Span, Value: tok.Text}, nil

	case lexer.TokTrue, lexer.TokFalse:
		val := p.tok.Type == lexer.TokTrue
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &ast.BoolLit{Span: start, Value: val}, nil

	case lexer.TokLParen:
		if err := p.advance(); err != nil {
			return nil, err
		}
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.eat(lexer.TokRParen); err != nil {
			return nil, err
		}
		return p.parsePostfix(expr)

	case lexer.TokLBracket:
		return p.parseArrayLiteral()

	case lexer.TokLBrace:
		return p.parseMapLiteral()

	case lexer.TokNew:
		if err := p.advance(); err != nil {
			return nil, err
		}
		nameTok, err := p.eat(lexer.TokIdent)
		if err != nil {
			return nil, err
		}
		args, err := p.parseArgs()
		if err != nil {
			return nil, err
		}
		obj := &ast.ObjectNew{Span: p.spanFrom(start), ClassName: nameTok.Text, Args: args}
		return p.parsePostfix(obj)

	case lexer.TokIdent:
		nameTok, err := p.eat(lexer.TokIdent)
		if err != nil {
			return nil, err
		}
		switch p.tok.Type {
		case lexer.TokLParen:
			args, err := p.parseArgs()
			if err != nil {
				return nil, err
			}
			call := &ast.FunctionCall{Span: p.spanFrom(start), Name: nameTok.Text, Args: args}
			return p.parsePostfix(call)
		case lexer.TokPlusPlus, lexer.TokMinusMinus:
			op := ast.OpInc
			if p.tok.Type == lexer.TokMinusMinus {
				op = ast.OpDec
			}
			if err := p.advance(); err != nil {
				return nil, err
			}
			return &ast.Increment{Span: p.spanFrom(start), Name: nameTok.Text, Op: op, Prefix: false}, nil
		}
		return p.parsePostfix(&ast.Variable{Span: nameTok.Span, Name: nameTok.Text})
	}

	return nil, p.errAt(p.tok.Span, fmt.Sprintf("unexpected %s in expression", describe(p.tok)))
}

// parsePostfix folds member access, method call, and indexing chains onto
// an already-parsed expression: obj.field, obj.method(args), target[key].
func (p *Parser) parsePostfix(expr ast.Expr) (ast.Expr, error) {
	for {
		switch p.tok.Type {
		case lexer.TokDot:
			start := expr.NodeSpan()
			if err := p.advance(); err != nil {
				return nil, err
			}
			nameTok, err := p.eat(lexer.TokIdent)
			if err != nil {
				return nil, err
			}
			if p.tok.Type == lexer.TokLParen {
				args, err := p.parseArgs()
				if err != nil {
					return nil, err
				}
				expr = &ast.MemberCall{Span: p.spanFrom(start), Object: expr, Method: nameTok.Text, Args: args}
			} else {
				expr = &ast.MemberAccess{Span: p.spanFrom(start), Object: expr, Member: nameTok.Text}
			}

		case lexer.TokLBracket:
			start := expr.NodeSpan()
			if err := p.advance(); err != nil {
				return nil, err
			}
			key, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			if _, err := p.eat(lexer.TokRBracket); err != nil {
				return nil, err
			}
			expr = &ast.Index{Span: p.spanFrom(start), Target: expr, Key: key}

		default:
			return expr, nil
		}
	}
}

func (p *Parser) parseArgs() ([]ast.Expr, error) {
	if _, err := p.eat(lexer.TokLParen); err != nil {
		return nil, err
	}
	var args []ast.Expr
	for p.tok.Type != lexer.TokRParen {
		arg, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if p.tok.Type != lexer.TokComma {
			break
		}
		if _, err := p.eat(lexer.TokComma); err != nil {
			return nil, err
		}
	}
	if _, err := p.eat(lexer.TokRParen); err != nil {
		return nil, err
	}
	return args, nil
}

func (p *Parser) parseArrayLiteral() (ast.Expr, error) {
	start := p.tok.Span
	if _, err := p.eat(lexer.TokLBracket); err != nil {
		return nil, err
	}
	var elems []ast.Expr
	for p.tok.Type != lexer.TokRBracket {
		elem, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		elems = append(elems, elem)
		if p.tok.Type != lexer.TokComma {
			break
		}
		if _, err := p.eat(lexer.TokComma); err != nil {
			return nil, err
		}
	}
	if _, err := p.eat(lexer.TokRBracket); err != nil {
		return nil, err
	}
	return &ast.ArrayLit{Span: p.spanFrom(start), Elements: elems}, nil
}

func (p *Parser) parseMapLiteral() (ast.Expr, error) {
	start := p.tok.Span
	if _, err := p.eat(lexer.TokLBrace); err != nil {
		return nil, err
	}
	lit := &ast.MapLit{}
	for p.tok.Type != lexer.TokRBrace {
		keyTok, err := p.eat(lexer.TokStringLit)
		if err != nil {
			return nil, p.errAt(keyTok.Span, "map literal keys must be string literals")
		}
		if _, err := p.eat(lexer.TokColon); err != nil {
			return nil, err
		}
		value, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		lit.Keys = append(lit.Keys, keyTok.Text)
		lit.Values = append(lit.Values, value)
		if p.tok.Type != lexer.TokComma {
			break
		}
		if _, err := p.eat(lexer.TokComma); err != nil {
			return nil, err
		}
	}
	if _, err := p.eat(lexer.TokRBrace); err != nil {
		return nil, err
	}
	lit.Span = p.spanFrom(start)
	return lit, nil
}
