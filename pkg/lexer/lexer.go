// Package lexer implements the script language tokenizer.
//
// The lexer is pull-based: the parser calls Next repeatedly until it yields
// TokEnd, after which Next keeps yielding TokEnd. Import directives are
// spliced into the token stream as they are encountered, with the actual
// text lookup delegated to an Importer collaborator.
package lexer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/matan45/intercpp/pkg/ast"
	"github.com/matan45/intercpp/pkg/diagnostics"
)

// TokenType identifies the type of a lexer token.
type TokenType int

const (
	// Keywords
	TokFunc TokenType = iota
	TokReturn
	TokIf
	TokElse
	TokWhile
	TokFor
	TokDo
	TokInt
	TokFloat
	TokBool
	TokString
	TokVoid
	TokArray
	TokMap
	TokClass
	TokNew
	TokTrue
	TokFalse
	TokImport // #import

	// Literals
	TokNumber
	TokStringLit

	// Identifiers
	TokIdent

	// Punctuation
	TokLParen    // (
	TokRParen    // )
	TokLBrace    // {
	TokRBrace    // }
	TokLBracket  // [
	TokRBracket  // ]
	TokComma     // ,
	TokSemicolon // ;
	TokColon     // :
	TokDot       // .

	// Operators
	TokAssign     // =
	TokPlus       // +
	TokMinus      // -
	TokStar       // *
	TokSlash      // /
	TokNot        // !
	TokAnd        // &&
	TokOr         // ||
	TokEqEq       // ==
	TokBangEq     // !=
	TokLt         // <
	TokLtEq       // <=
	TokGt         // >
	TokGtEq       // >=
	TokPlusPlus   // ++
	TokMinusMinus // --

	// Special
	TokEnd
)

// Token represents a single lexer token.
type Token struct {
	Type   TokenType
	Number float64 // payload for TokNumber
	Text   string  // payload for TokStringLit, TokIdent and operator text
	Span   ast.Span
}

var keywords = map[string]TokenType{
	"func":   TokFunc,
	"return": TokReturn,
	"if":     TokIf,
	"else":   TokElse,
	"while":  TokWhile,
	"for":    TokFor,
	"do":     TokDo,
	"int":    TokInt,
	"float":  TokFloat,
	"bool":   TokBool,
	"string": TokString,
	"void":   TokVoid,
	"array":  TokArray,
	"map":    TokMap,
	"class":  TokClass,
	"new":    TokNew,
	"true":   TokTrue,
	"false":  TokFalse,
}

// Importer resolves a logical import path to script source text. The
// collaborator owns actual file/storage access; a missing path must be
// reported as an error.
type Importer interface {
	Resolve(path string) (string, error)
}

type source struct {
	text string
	file string
	pos  int
	line int
	col  int
}

type openBracket struct {
	ch   byte
	span ast.Span
}

// Lexer tokenizes one lexing session, including any spliced imports.
type Lexer struct {
	stack    []*source // innermost source last
	balance  []openBracket
	importer Importer
	imported map[string]bool
	done     bool
}

// New creates a Lexer over the given source text. The importer may be nil,
// in which case any #import directive is an error.
func New(text, filename string, importer Importer) *Lexer {
	return &Lexer{
		stack:    []*source{{text: text, file: filename, line: 1, col: 1}},
		importer: importer,
		imported: map[string]bool{},
	}
}

// LexError wraps a diagnostic for lex errors.
type LexError struct {
	Diag diagnostics.Diagnostic
}

func (e *LexError) Error() string {
	return e.Diag.Message
}

func (l *Lexer) errAt(code string, span ast.Span, msg string) error {
	s := span
	return &LexError{Diag: diagnostics.MakeDiag(code, msg, &s, "")}
}

func (l *Lexer) cur() *source {
	return l.stack[len(l.stack)-1]
}

func (s *source) atEnd() bool {
	return s.pos >= len(s.text)
}

func (s *source) peek() byte {
	if s.atEnd() {
		return 0
	}
	return s.text[s.pos]
}

func (s *source) peekAt(offset int) byte {
	p := s.pos + offset
	if p >= len(s.text) {
		return 0
	}
	return s.text[p]
}

func (s *source) advance() byte {
	ch := s.text[s.pos]
	s.pos++
	if ch == '\n' {
		s.line++
		s.col = 1
	} else {
		s.col++
	}
	return ch
}

func (s *source) here() ast.Span {
	return ast.Span{File: s.file, StartLine: s.line, StartCol: s.col, EndLine: s.line, EndCol: s.col + 1}
}

func (s *source) span(startLine, startCol int) ast.Span {
	return ast.Span{
		File:      s.file,
		StartLine: startLine,
		StartCol:  startCol,
		EndLine:   s.line,
		EndCol:    s.col,
	}
}

func isAlpha(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_'
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isAlphaNumeric(ch byte) bool {
	return isAlpha(ch) || isDigit(ch)
}

// skipTrivia consumes whitespace and both comment forms in the current
// source. An unterminated block comment is an error.
func (l *Lexer) skipTrivia() error {
	s := l.cur()
	for !s.atEnd() {
		ch := s.peek()
		switch {
		case ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n':
			s.advance()
		case ch == '/' && s.peekAt(1) == '/':
			for !s.atEnd() && s.peek() != '\n' {
				s.advance()
			}
		case ch == '/' && s.peekAt(1) == '*':
			startLine, startCol := s.line, s.col
			s.advance()
			s.advance()
			closed := false
			for !s.atEnd() {
				if s.peek() == '*' && s.peekAt(1) == '/' {
					s.advance()
					s.advance()
					closed = true
					break
				}
				s.advance()
			}
			if !closed {
				return l.errAt(diagnostics.ELex, s.span(startLine, startCol), "unterminated block comment")
			}
		default:
			return nil
		}
	}
	return nil
}

func (l *Lexer) scanNumber() (Token, error) {
	s := l.cur()
	startLine, startCol := s.line, s.col
	startPos := s.pos
	for !s.atEnd() && (isDigit(s.peek()) || s.peek() == '.') {
		s.advance()
	}
	text := s.text[startPos:s.pos]
	val, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return Token{}, l.errAt(diagnostics.ELex, s.span(startLine, startCol),
			fmt.Sprintf("invalid number literal '%s'", text))
	}
	return Token{Type: TokNumber, Number: val, Text: text, Span: s.span(startLine, startCol)}, nil
}

func (l *Lexer) scanString() (Token, error) {
	s := l.cur()
	startLine, startCol := s.line, s.col
	s.advance() // opening "

	var buf strings.Builder
	for !s.atEnd() {
		ch := s.peek()
		if ch == '"' {
			s.advance()
			return Token{Type: TokStringLit, Text: buf.String(), Span: s.span(startLine, startCol)}, nil
		}
		if ch == '\\' {
			s.advance()
			if s.atEnd() {
				break
			}
			switch esc := s.advance(); esc {
			case '"':
				buf.WriteByte('"')
			case '\\':
				buf.WriteByte('\\')
			case 'n':
				buf.WriteByte('\n')
			case 't':
				buf.WriteByte('\t')
			default:
				return Token{}, l.errAt(diagnostics.ELex, s.span(startLine, startCol),
					fmt.Sprintf("invalid escape character: \\%c", esc))
			}
			continue
		}
		buf.WriteByte(s.advance())
	}
	return Token{}, l.errAt(diagnostics.ELex, s.span(startLine, startCol), "unterminated string literal")
}

func (l *Lexer) scanIdentOrKeyword() Token {
	s := l.cur()
	startLine, startCol := s.line, s.col
	startPos := s.pos
	for !s.atEnd() && isAlphaNumeric(s.peek()) {
		s.advance()
	}
	text := s.text[startPos:s.pos]
	if typ, ok := keywords[text]; ok {
		return Token{Type: typ, Text: text, Span: s.span(startLine, startCol)}
	}
	return Token{Type: TokIdent, Text: text, Span: s.span(startLine, startCol)}
}

// handleImport lexes the directive body after '#' and splices the resolved
// text as a nested source. Re-importing the same logical path within one
// lexing session is an error.
func (l *Lexer) handleImport() error {
	s := l.cur()
	startLine, startCol := s.line, s.col
	s.advance() // consume '#'
	word := l.scanIdentOrKeyword()
	if word.Text != "import" {
		return l.errAt(diagnostics.ELex, s.span(startLine, startCol),
			fmt.Sprintf("unknown directive '#%s'", word.Text))
	}
	if err := l.skipTrivia(); err != nil {
		return err
	}
	if l.cur().peek() != '"' {
		return l.errAt(diagnostics.EImport, s.span(startLine, startCol), "#import expects a quoted path")
	}
	pathTok, err := l.scanString()
	if err != nil {
		return err
	}
	path := pathTok.Text

	if l.importer == nil {
		return l.errAt(diagnostics.EImport, pathTok.Span,
			fmt.Sprintf("no importer configured for '%s'", path))
	}
	if l.imported[path] {
		return l.errAt(diagnostics.EImport, pathTok.Span,
			fmt.Sprintf("repeated import of '%s'", path))
	}
	l.imported[path] = true

	text, err := l.importer.Resolve(path)
	if err != nil {
		return l.errAt(diagnostics.EImport, pathTok.Span,
			fmt.Sprintf("cannot import '%s': %s", path, err.Error()))
	}
	l.stack = append(l.stack, &source{text: text, file: path, line: 1, col: 1})
	return nil
}

// Next returns the next token. After the end of input it keeps returning
// TokEnd. Residual unmatched open brackets at end-of-input are an error.
func (l *Lexer) Next() (Token, error) {
	if l.done {
		return Token{Type: TokEnd, Span: l.cur().here()}, nil
	}

	for {
		if err := l.skipTrivia(); err != nil {
			return Token{}, err
		}
		s := l.cur()

		if s.atEnd() {
			if len(l.stack) > 1 {
				// Imported source drained; resume the including source.
				l.stack = l.stack[:len(l.stack)-1]
				continue
			}
			if len(l.balance) > 0 {
				open := l.balance[len(l.balance)-1]
				return Token{}, l.errAt(diagnostics.ELex, open.span,
					fmt.Sprintf("unmatched opening '%c'", open.ch))
			}
			l.done = true
			return Token{Type: TokEnd, Span: s.here()}, nil
		}

		ch := s.peek()

		if ch == '#' {
			if err := l.handleImport(); err != nil {
				return Token{}, err
			}
			continue
		}

		if isDigit(ch) || ch == '.' {
			return l.scanNumber()
		}
		if ch == '"' {
			return l.scanString()
		}
		if isAlpha(ch) {
			return l.scanIdentOrKeyword(), nil
		}
		return l.scanOperator()
	}
}

func (l *Lexer) scanOperator() (Token, error) {
	s := l.cur()
	startLine, startCol := s.line, s.col
	ch := s.peek()

	two := func(typ TokenType, text string) (Token, error) {
		s.advance()
		s.advance()
		return Token{Type: typ, Text: text, Span: s.span(startLine, startCol)}, nil
	}
	one := func(typ TokenType, text string) (Token, error) {
		s.advance()
		return Token{Type: typ, Text: text, Span: s.span(startLine, startCol)}, nil
	}

	// Two-character operators are matched greedily before their
	// one-character prefixes.
	switch ch {
	case '&':
		if s.peekAt(1) == '&' {
			return two(TokAnd, "&&")
		}
		return Token{}, l.errAt(diagnostics.ELex, s.here(), "unexpected character '&'")
	case '|':
		if s.peekAt(1) == '|' {
			return two(TokOr, "||")
		}
		return Token{}, l.errAt(diagnostics.ELex, s.here(), "unexpected character '|'")
	case '=':
		if s.peekAt(1) == '=' {
			return two(TokEqEq, "==")
		}
		return one(TokAssign, "=")
	case '!':
		if s.peekAt(1) == '=' {
			return two(TokBangEq, "!=")
		}
		return one(TokNot, "!")
	case '<':
		if s.peekAt(1) == '=' {
			return two(TokLtEq, "<=")
		}
		return one(TokLt, "<")
	case '>':
		if s.peekAt(1) == '=' {
			return two(TokGtEq, ">=")
		}
		return one(TokGt, ">")
	case '+':
		if s.peekAt(1) == '+' {
			return two(TokPlusPlus, "++")
		}
		return one(TokPlus, "+")
	case '-':
		if s.peekAt(1) == '-' {
			return two(TokMinusMinus, "--")
		}
		return one(TokMinus, "-")
	case '*':
		return one(TokStar, "*")
	case '/':
		return one(TokSlash, "/")
	case ',':
		return one(TokComma, ",")
	case ';':
		return one(TokSemicolon, ";")
	case ':':
		return one(TokColon, ":")
	case '[':
		return one(TokLBracket, "[")
	case ']':
		return one(TokRBracket, "]")

	case '(':
		l.balance = append(l.balance, openBracket{ch: '(', span: s.here()})
		return one(TokLParen, "(")
	case ')':
		if len(l.balance) == 0 || l.balance[len(l.balance)-1].ch != '(' {
			return Token{}, l.errAt(diagnostics.ELex, s.here(), "unmatched closing parenthesis")
		}
		l.balance = l.balance[:len(l.balance)-1]
		return one(TokRParen, ")")
	case '{':
		l.balance = append(l.balance, openBracket{ch: '{', span: s.here()})
		return one(TokLBrace, "{")
	case '}':
		if len(l.balance) == 0 || l.balance[len(l.balance)-1].ch != '{' {
			return Token{}, l.errAt(diagnostics.ELex, s.here(), "unmatched closing brace")
		}
		l.balance = l.balance[:len(l.balance)-1]
		return one(TokRBrace, "}")
	}

	return Token{}, l.errAt(diagnostics.ELex, s.here(), fmt.Sprintf("unexpected character '%c'", ch))
}

// Tokenize drains a lexer over the given source into a token slice,
// ending with TokEnd. It exists for tests and hosts that want the whole
// stream up front; the parser pulls tokens one at a time instead.
func Tokenize(text, filename string, importer Importer) ([]Token, error) {
	l := New(text, filename, importer)
	var tokens []Token
	for {
		tok, err := l.Next()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Type == TokEnd {
			return tokens, nil
		}
	}
}
