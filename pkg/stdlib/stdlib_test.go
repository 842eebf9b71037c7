package stdlib

import (
	"bytes"
	"strings"
	"testing"

	"github.com/matan45/intercpp/pkg/evaluator"
	"github.com/matan45/intercpp/pkg/parser"
)

// helper that runs source with the default natives and captures output
func run(t *testing.T, source string) (string, *evaluator.Environment, error) {
	t.Helper()
	prog, err := parser.Parse(source, "test.isc", nil)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	env := evaluator.NewEnvironment()
	var out bytes.Buffer
	env.SetStdout(&out)
	if err := Register(env); err != nil {
		t.Fatalf("register stdlib: %v", err)
	}
	_, err = evaluator.Evaluate(prog, env)
	return out.String(), env, err
}

func mustRun(t *testing.T, source string) string {
	t.Helper()
	out, _, err := run(t, source)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return out
}

func expectError(t *testing.T, source, code string) {
	t.Helper()
	_, _, err := run(t, source)
	if err == nil {
		t.Fatal("expected error, got none")
	}
	re, ok := err.(*evaluator.RuntimeError)
	if !ok {
		t.Fatalf("expected *evaluator.RuntimeError, got %T", err)
	}
	if re.Diag.Code != code {
		t.Errorf("expected %s, got %s (%s)", code, re.Diag.Code, re.Diag.Message)
	}
	if re.Diag.Span == nil {
		t.Error("expected a span filled in at the call site")
	}
}

func TestPrint(t *testing.T) {
	out := mustRun(t, `print("x", 6, true, [1, "two"]);`)
	want := `x 6 true [1, "two"]` + "\n"
	if out != want {
		t.Errorf("expected %q, got %q", want, out)
	}
}

func TestLen(t *testing.T) {
	out := mustRun(t, `print(len("abc"), len([1, 2]), len({"a": 1}));`)
	if out != "3 2 1\n" {
		t.Errorf("unexpected output %q", out)
	}
	expectError(t, "print(len(5));", "E_TYPE")
	expectError(t, "print(len());", "E_ARITY")
}

func TestPushPop(t *testing.T) {
	out := mustRun(t, `
array a = [1];
push(a, 2);
print(len(a), a[1]);
print(pop(a), len(a));
`)
	if out != "2 2\n2 1\n" {
		t.Errorf("unexpected output %q", out)
	}
	expectError(t, "array a = []; print(pop(a));", "E_RANGE")
	expectError(t, "print(push(1, 2));", "E_TYPE")
}

func TestMapHelpers(t *testing.T) {
	out := mustRun(t, `
map m = {"a": 1, "b": 2};
print(keys(m));
print(has(m, "a"), has(m, "z"));
print(delete(m, "a"), len(m));
`)
	want := `["a", "b"]
true false
true 1
`
	if out != want {
		t.Errorf("unexpected output %q", out)
	}
}

func TestMathHelpers(t *testing.T) {
	out := mustRun(t, `print(abs(0 - 3), min(2, 5), max(2, 5), sqrt(9), pow(2, 10), floor(2.9));`)
	if out != "3 2 5 3 1024 2\n" {
		t.Errorf("unexpected output %q", out)
	}
	expectError(t, "print(sqrt(0 - 1));", "E_RANGE")
}

func TestStringHelpers(t *testing.T) {
	out := mustRun(t, `print(upper("abc"), lower("ABC"), str(42), contains("haystack", "hay"));`)
	if out != "ABC abc 42 true\n" {
		t.Errorf("unexpected output %q", out)
	}
	expectError(t, "print(upper(1));", "E_TYPE")
}

func TestAllNamesRegistered(t *testing.T) {
	env := evaluator.NewEnvironment()
	if err := Register(env); err != nil {
		t.Fatalf("register stdlib: %v", err)
	}
	registered := env.NativeNames()
	for _, name := range Names() {
		if !registered[name] {
			t.Errorf("native %s missing from the registry", name)
		}
	}
}

func TestRegisterTwiceFails(t *testing.T) {
	env := evaluator.NewEnvironment()
	if err := Register(env); err != nil {
		t.Fatalf("first register: %v", err)
	}
	err := Register(env)
	if err == nil {
		t.Fatal("expected second register to fail")
	}
	if !strings.Contains(err.Error(), "already") {
		t.Errorf("unexpected error message %q", err)
	}
}
