package validator

import (
	"testing"

	"github.com/matan45/intercpp/pkg/parser"
)

func validate(t *testing.T, source string, natives map[string]bool) []string {
	t.Helper()
	prog, err := parser.Parse(source, "test.isc", nil)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	diags := Validate(prog, natives)
	codes := make([]string, len(diags))
	for i, d := range diags {
		codes[i] = d.Code
	}
	return codes
}

func TestCleanProgram(t *testing.T) {
	codes := validate(t, `
func int f() { return 1; }
class C {
  int x;
  func int get() { return x; }
}
int r = f();
`, nil)
	if len(codes) != 0 {
		t.Errorf("expected no findings, got %v", codes)
	}
}

func TestDuplicateFunction(t *testing.T) {
	codes := validate(t, `
func int f() { return 1; }
func int f() { return 2; }
`, nil)
	if len(codes) != 1 || codes[0] != "E_NAME" {
		t.Errorf("expected one E_NAME, got %v", codes)
	}
}

func TestNativeCollision(t *testing.T) {
	codes := validate(t, "func int print() { return 1; }", map[string]bool{"print": true})
	if len(codes) != 1 || codes[0] != "E_NAME" {
		t.Errorf("expected one E_NAME, got %v", codes)
	}
}

func TestDuplicateClass(t *testing.T) {
	codes := validate(t, `
class C { int x; }
class C { int y; }
`, nil)
	if len(codes) != 1 || codes[0] != "E_NAME" {
		t.Errorf("expected one E_NAME, got %v", codes)
	}
}

func TestDuplicateClassMember(t *testing.T) {
	codes := validate(t, `
class C {
  int x;
  int x;
}
`, nil)
	if len(codes) != 1 || codes[0] != "E_NAME" {
		t.Errorf("expected one E_NAME, got %v", codes)
	}
}

func TestMethodMemberCollision(t *testing.T) {
	codes := validate(t, `
class C {
  int x;
  func int x() { return 1; }
}
`, nil)
	if len(codes) != 1 || codes[0] != "E_NAME" {
		t.Errorf("expected one E_NAME, got %v", codes)
	}
}

func TestReturnOutsideFunction(t *testing.T) {
	sources := []string{
		"return 1;",
		"if (true) { return 1; }",
		"while (true) { return 1; }",
		"for (int i = 0; i < 1; ++i) { return 1; }",
	}
	for _, src := range sources {
		t.Run(src, func(t *testing.T) {
			codes := validate(t, src, nil)
			if len(codes) != 1 || codes[0] != "E_PARSE" {
				t.Errorf("expected one E_PARSE, got %v", codes)
			}
		})
	}
}

func TestReturnInsideFunctionIsFine(t *testing.T) {
	codes := validate(t, `
func int f() {
  if (true) { return 1; }
  return 2;
}
`, nil)
	if len(codes) != 0 {
		t.Errorf("expected no findings, got %v", codes)
	}
}
