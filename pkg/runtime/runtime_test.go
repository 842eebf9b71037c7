package runtime

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/matan45/intercpp/pkg/evaluator"
)

func TestRunCapturesOutput(t *testing.T) {
	var out bytes.Buffer
	rt := New(WithStdout(&out))
	if _, err := rt.Run("print(2 + 2);", "test.isc"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.String() != "4\n" {
		t.Errorf("expected 4, got %q", out.String())
	}
}

func TestRunReturnsLastValue(t *testing.T) {
	rt := New(WithStdout(&bytes.Buffer{}))
	v, err := rt.Run(`
func int f() { return 6; }
f();
`, "test.isc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	num, ok := v.(*evaluator.Number)
	if !ok || num.Value != 6 {
		t.Errorf("expected 6, got %#v", v)
	}
}

func TestRunInAccumulatesState(t *testing.T) {
	var out bytes.Buffer
	rt := New(WithStdout(&out))
	env, err := rt.NewEnv()
	if err != nil {
		t.Fatalf("new env: %v", err)
	}
	if _, err := rt.RunIn(env, "int x = 40;", "<repl>"); err != nil {
		t.Fatalf("first input: %v", err)
	}
	if _, err := rt.RunIn(env, "print(x + 2);", "<repl>"); err != nil {
		t.Fatalf("second input: %v", err)
	}
	if out.String() != "42\n" {
		t.Errorf("expected 42, got %q", out.String())
	}
}

func TestCheckReportsWithoutRunning(t *testing.T) {
	var out bytes.Buffer
	rt := New(WithStdout(&out))

	diags := rt.Check("return 1;", "test.isc")
	if len(diags) != 1 || diags[0].Code != "E_PARSE" {
		t.Errorf("expected one E_PARSE, got %v", diags)
	}

	diags = rt.Check(`print("side effect");`, "test.isc")
	if len(diags) != 0 {
		t.Errorf("expected clean check, got %v", diags)
	}
	if out.Len() != 0 {
		t.Errorf("check must not execute the script, got output %q", out.String())
	}
}

func TestCheckSurfacesLexAndParseErrors(t *testing.T) {
	rt := New()
	if diags := rt.Check(`string s = "open;`, "test.isc"); len(diags) != 1 || diags[0].Code != "E_LEX" {
		t.Errorf("expected E_LEX, got %v", diags)
	}
	if diags := rt.Check("int = 5;", "test.isc"); len(diags) != 1 || diags[0].Code != "E_PARSE" {
		t.Errorf("expected E_PARSE, got %v", diags)
	}
}

func TestWithoutStdlib(t *testing.T) {
	rt := New(WithoutStdlib(), WithStdout(&bytes.Buffer{}))
	_, err := rt.Run("print(1);", "test.isc")
	if err == nil {
		t.Fatal("expected unknown function error without the stdlib")
	}
	if diag := ToDiagnostic(err); diag.Code != "E_NAME" {
		t.Errorf("expected E_NAME, got %s", diag.Code)
	}
}

func TestWithMaxDepth(t *testing.T) {
	rt := New(WithMaxDepth(8), WithStdout(&bytes.Buffer{}))
	_, err := rt.Run(`
func void spin() { spin(); }
spin();
`, "test.isc")
	if diag := ToDiagnostic(err); diag.Code != "E_DEPTH" {
		t.Errorf("expected E_DEPTH, got %v", err)
	}
}

func TestDirImporter(t *testing.T) {
	dir := t.TempDir()
	lib := "func int twice(int n) {\n  return n * 2;\n}\n"
	if err := os.WriteFile(filepath.Join(dir, "lib.isc"), []byte(lib), 0o644); err != nil {
		t.Fatalf("write lib: %v", err)
	}

	var out bytes.Buffer
	rt := New(WithStdout(&out), WithImporter(DirImporter{Dir: dir}))
	_, err := rt.Run("#import \"lib\"\nprint(twice(21));", "main.isc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.String() != "42\n" {
		t.Errorf("expected 42, got %q", out.String())
	}
}

func TestDirImporterKeepsExplicitExtension(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "util.inc"), []byte("int marker = 1;"), 0o644); err != nil {
		t.Fatalf("write util: %v", err)
	}
	imp := DirImporter{Dir: dir}
	if _, err := imp.Resolve("util.inc"); err != nil {
		t.Errorf("explicit extension should resolve: %v", err)
	}
	if _, err := imp.Resolve("missing"); err == nil {
		t.Error("expected error for missing import")
	}
}

func TestToDiagnosticUnwraps(t *testing.T) {
	rt := New(WithStdout(&bytes.Buffer{}))
	_, err := rt.Run("print(1 / 0);", "test.isc")
	if err == nil {
		t.Fatal("expected error")
	}
	diag := ToDiagnostic(err)
	if diag.Code != "E_ARITH" {
		t.Errorf("expected E_ARITH, got %s", diag.Code)
	}
	if diag.Span == nil || diag.Span.File != "test.isc" {
		t.Errorf("expected span with file, got %+v", diag.Span)
	}
}
