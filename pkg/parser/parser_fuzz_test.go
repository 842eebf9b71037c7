package parser

import (
	"testing"
)

// FuzzParse feeds random inputs to the full lex+parse pipeline to catch
// panics. The parser should never panic — it should return an error.
func FuzzParse(f *testing.F) {
	seeds := []string{
		`int x = 6;`,
		`float f = 3.14;`,
		`string s = "hi";`,
		`array a = [1, 2, 3];`,
		`map m = {"a": 1};`,
		`func int add(int a, int b) { return a + b; }`,
		`func void noop() { }`,
		`if (x > 1) { f(); } else { g(); }`,
		`while (x < 3) { x = x + 1; }`,
		`do { x++; } while (x < 3);`,
		`for (int i = 0; i < 5; ++i) { f(i); }`,
		`class C { int v; C(int v0) { v = v0; } func int get() { return v; } }`,
		`C c = new C(7);`,
		`print(c.get(), c.v);`,
		`grid[1][0] = 5;`,
		`x = a && b || !c;`,
		// Malformed inputs
		``,
		`;`,
		`int`,
		`int = 5;`,
		`func`,
		`class {}`,
		`1 + 2;`,
		`(((`,
		`x = ;`,
		`new`,
		`return`,
	}
	for _, s := range seeds {
		f.Add(s)
	}

	f.Fuzz(func(t *testing.T, input string) {
		defer func() {
			if r := recover(); r != nil {
				t.Errorf("parser panicked on input %q: %v", input, r)
			}
		}()
		_, _ = Parse(input, "fuzz.isc", nil)
	})
}
