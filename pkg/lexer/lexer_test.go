package lexer

import (
	"strings"
	"testing"
)

// helper to tokenize and fail on error
func mustTokenize(t *testing.T, source string) []Token {
	t.Helper()
	tokens, err := Tokenize(source, "test.isc", nil)
	if err != nil {
		t.Fatalf("unexpected lex error: %v", err)
	}
	return tokens
}

// helper that strips the trailing end marker for easier assertions
func mustTokenizeNoEnd(t *testing.T, source string) []Token {
	t.Helper()
	tokens := mustTokenize(t, source)
	if len(tokens) == 0 {
		t.Fatal("expected at least one token")
	}
	if tokens[len(tokens)-1].Type != TokEnd {
		t.Fatal("last token is not TokEnd")
	}
	return tokens[:len(tokens)-1]
}

func expectLexError(t *testing.T, source, code string) {
	t.Helper()
	_, err := Tokenize(source, "test.isc", nil)
	if err == nil {
		t.Fatal("expected lex error, got none")
	}
	le, ok := err.(*LexError)
	if !ok {
		t.Fatalf("expected *LexError, got %T", err)
	}
	if le.Diag.Code != code {
		t.Errorf("expected code %s, got %s (%s)", code, le.Diag.Code, le.Diag.Message)
	}
}

// ---------------------------------------------------------------------------
// Test: empty input produces only the end marker
// ---------------------------------------------------------------------------
func TestEmptyInput(t *testing.T) {
	tokens := mustTokenize(t, "")
	if len(tokens) != 1 {
		t.Fatalf("expected 1 token, got %d", len(tokens))
	}
	if tokens[0].Type != TokEnd {
		t.Errorf("expected TokEnd, got %v", tokens[0].Type)
	}
}

// ---------------------------------------------------------------------------
// Test: all keywords
// ---------------------------------------------------------------------------
func TestKeywords(t *testing.T) {
	tests := []struct {
		keyword  string
		expected TokenType
	}{
		{"func", TokFunc},
		{"return", TokReturn},
		{"if", TokIf},
		{"else", TokElse},
		{"while", TokWhile},
		{"for", TokFor},
		{"do", TokDo},
		{"int", TokInt},
		{"float", TokFloat},
		{"bool", TokBool},
		{"string", TokString},
		{"void", TokVoid},
		{"array", TokArray},
		{"map", TokMap},
		{"class", TokClass},
		{"new", TokNew},
		{"true", TokTrue},
		{"false", TokFalse},
	}

	for _, tt := range tests {
		t.Run(tt.keyword, func(t *testing.T) {
			tokens := mustTokenizeNoEnd(t, tt.keyword)
			if len(tokens) != 1 {
				t.Fatalf("expected 1 token, got %d", len(tokens))
			}
			if tokens[0].Type != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, tokens[0].Type)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Test: operators, including two-character forms
// ---------------------------------------------------------------------------
func TestOperators(t *testing.T) {
	tests := []struct {
		source   string
		expected TokenType
	}{
		{"=", TokAssign},
		{"+", TokPlus},
		{"-", TokMinus},
		{"*", TokStar},
		{"/", TokSlash},
		{"!", TokNot},
		{"&&", TokAnd},
		{"||", TokOr},
		{"==", TokEqEq},
		{"!=", TokBangEq},
		{"<", TokLt},
		{"<=", TokLtEq},
		{">", TokGt},
		{">=", TokGtEq},
		{"++", TokPlusPlus},
		{"--", TokMinusMinus},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			tokens := mustTokenizeNoEnd(t, tt.source)
			if len(tokens) != 1 {
				t.Fatalf("expected 1 token, got %d", len(tokens))
			}
			if tokens[0].Type != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, tokens[0].Type)
			}
		})
	}
}

func TestTwoCharOperatorsBeforeOneChar(t *testing.T) {
	tokens := mustTokenizeNoEnd(t, "a<=b")
	types := []TokenType{TokIdent, TokLtEq, TokIdent}
	if len(tokens) != len(types) {
		t.Fatalf("expected %d tokens, got %d", len(types), len(tokens))
	}
	for i, typ := range types {
		if tokens[i].Type != typ {
			t.Errorf("token %d: expected %v, got %v", i, typ, tokens[i].Type)
		}
	}
}

// ---------------------------------------------------------------------------
// Test: numbers
// ---------------------------------------------------------------------------
func TestNumbers(t *testing.T) {
	tests := []struct {
		source string
		value  float64
	}{
		{"0", 0},
		{"42", 42},
		{"3.14", 3.14},
		{"0.5", 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			tokens := mustTokenizeNoEnd(t, tt.source)
			if len(tokens) != 1 {
				t.Fatalf("expected 1 token, got %d", len(tokens))
			}
			if tokens[0].Type != TokNumber {
				t.Fatalf("expected TokNumber, got %v", tokens[0].Type)
			}
			if tokens[0].Number != tt.value {
				t.Errorf("expected %v, got %v", tt.value, tokens[0].Number)
			}
		})
	}
}

func TestInvalidNumber(t *testing.T) {
	expectLexError(t, "1.2.3", "E_LEX")
}

// ---------------------------------------------------------------------------
// Test: strings and escapes
// ---------------------------------------------------------------------------
func TestStringEscapes(t *testing.T) {
	tokens := mustTokenizeNoEnd(t, `"a\nb\t\"q\"\\"`)
	if len(tokens) != 1 {
		t.Fatalf("expected 1 token, got %d", len(tokens))
	}
	want := "a\nb\t\"q\"\\"
	if tokens[0].Text != want {
		t.Errorf("expected %q, got %q", want, tokens[0].Text)
	}
}

func TestUnterminatedString(t *testing.T) {
	expectLexError(t, `"never closed`, "E_LEX")
}

// ---------------------------------------------------------------------------
// Test: comments
// ---------------------------------------------------------------------------
func TestComments(t *testing.T) {
	source := `
// line comment
int /* inline */ x; /* multi
line */ 1
`
	tokens := mustTokenizeNoEnd(t, source)
	types := []TokenType{TokInt, TokIdent, TokSemicolon, TokNumber}
	if len(tokens) != len(types) {
		t.Fatalf("expected %d tokens, got %d", len(types), len(tokens))
	}
	for i, typ := range types {
		if tokens[i].Type != typ {
			t.Errorf("token %d: expected %v, got %v", i, typ, tokens[i].Type)
		}
	}
}

func TestUnterminatedBlockComment(t *testing.T) {
	expectLexError(t, "/* forever", "E_LEX")
}

// ---------------------------------------------------------------------------
// Test: bracket balance
// ---------------------------------------------------------------------------
func TestUnmatchedBrackets(t *testing.T) {
	expectLexError(t, "func void f() {", "E_LEX")
	expectLexError(t, "(1 + 2", "E_LEX")
	expectLexError(t, ")", "E_LEX")
	expectLexError(t, "}", "E_LEX")
}

// ---------------------------------------------------------------------------
// Test: spans carry file and position
// ---------------------------------------------------------------------------
func TestSpans(t *testing.T) {
	tokens := mustTokenizeNoEnd(t, "int x;\nx = 1;")
	if tokens[0].Span.File != "test.isc" {
		t.Errorf("expected file test.isc, got %s", tokens[0].Span.File)
	}
	if tokens[0].Span.StartLine != 1 || tokens[0].Span.StartCol != 1 {
		t.Errorf("expected 1:1, got %d:%d", tokens[0].Span.StartLine, tokens[0].Span.StartCol)
	}
	// "x" on the second line
	if tokens[3].Span.StartLine != 2 || tokens[3].Span.StartCol != 1 {
		t.Errorf("expected 2:1, got %d:%d", tokens[3].Span.StartLine, tokens[3].Span.StartCol)
	}
}

// ---------------------------------------------------------------------------
// Test: #import splicing
// ---------------------------------------------------------------------------

type mapImporter map[string]string

func (m mapImporter) Resolve(path string) (string, error) {
	src, ok := m[path]
	if !ok {
		return "", errNotFound(path)
	}
	return src, nil
}

type errNotFound string

func (e errNotFound) Error() string { return "not found: " + string(e) }

func TestImportSplicesTokens(t *testing.T) {
	imp := mapImporter{"lib": "int a;"}
	tokens, err := Tokenize("#import \"lib\"\nint b;", "main.isc", imp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var idents []string
	for _, tok := range tokens {
		if tok.Type == TokIdent {
			idents = append(idents, tok.Text)
		}
	}
	if strings.Join(idents, ",") != "a,b" {
		t.Errorf("expected imported tokens first, got %v", idents)
	}
	// Imported tokens keep their own file name.
	if tokens[1].Span.File != "lib" {
		t.Errorf("expected imported span file 'lib', got %s", tokens[1].Span.File)
	}
}

func TestRepeatedImportRejected(t *testing.T) {
	imp := mapImporter{"lib": "int a;"}
	_, err := Tokenize("#import \"lib\"\n#import \"lib\"", "main.isc", imp)
	if err == nil {
		t.Fatal("expected error for repeated import")
	}
	le, ok := err.(*LexError)
	if !ok || le.Diag.Code != "E_IMPORT" {
		t.Errorf("expected E_IMPORT, got %v", err)
	}
}

func TestImportWithoutImporter(t *testing.T) {
	expectLexError(t, "#import \"lib\"", "E_IMPORT")
}

func TestUnresolvedImport(t *testing.T) {
	imp := mapImporter{}
	_, err := Tokenize("#import \"missing\"", "main.isc", imp)
	le, ok := err.(*LexError)
	if !ok || le.Diag.Code != "E_IMPORT" {
		t.Errorf("expected E_IMPORT, got %v", err)
	}
}

func TestUnknownDirective(t *testing.T) {
	expectLexError(t, "#define X 1", "E_LEX")
}

// ---------------------------------------------------------------------------
// Test: end marker is sticky
// ---------------------------------------------------------------------------
func TestEndIsSticky(t *testing.T) {
	lx := New("1", "test.isc", nil)
	for i := 0; i < 3; i++ {
		tok, err := lx.Next()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if i > 0 && tok.Type != TokEnd {
			t.Errorf("call %d: expected TokEnd, got %v", i, tok.Type)
		}
	}
}
