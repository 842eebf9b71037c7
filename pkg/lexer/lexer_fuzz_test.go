package lexer

import (
	"testing"
)

// FuzzTokenize feeds random inputs to the lexer to catch panics.
// The lexer should never panic — it should return an error for invalid input.
func FuzzTokenize(f *testing.F) {
	seeds := []string{
		// Keywords
		`func return if else while for do`,
		`int float bool string void array map`,
		`class new true false`,
		// Literals
		`42 3.14 0 0.5`,
		`"hello" "with\nescape" "quote\""`,
		// Operators
		`+ - * / ! = == != < <= > >= ++ --`,
		`&& ||`,
		// Balanced delimiters
		`{ } [ ] ( ) , ; : .`,
		`({[]})`,
		// Identifiers
		`x foo bar_baz myVar`,
		// Comments
		`// a line comment`,
		`/* a block comment */`,
		// Directives
		`#import "lib"`,
		`#define X`,
		// Mixed
		`int x = 42;`,
		`func int f(int a) { return a; }`,
		// Edge cases
		``,
		`   `,
		"\t\n\r",
		`"unterminated`,
		`"""`,
		`@$^`,
		`&`,
		`|`,
		`1.2.3`,
		`(`,
		`)`,
		`}`,
	}
	for _, s := range seeds {
		f.Add(s)
	}

	f.Fuzz(func(t *testing.T, input string) {
		defer func() {
			if r := recover(); r != nil {
				t.Errorf("lexer panicked on input %q: %v", input, r)
			}
		}()
		_, _ = Tokenize(input, "fuzz.isc", nil)
	})
}
