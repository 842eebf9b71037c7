package formatter

import (
	"testing"

	"github.com/matan45/intercpp/pkg/evaluator"
)

func TestFormatValue(t *testing.T) {
	obj := &evaluator.Map{Class: "Point"}
	obj.Set("x", evaluator.NewNumber(1))
	obj.Set("move", &evaluator.FuncRef{Name: "move"})

	m := evaluator.NewMap()
	m.Set("a", evaluator.NewNumber(1))
	m.Set("b", evaluator.NewString("two"))

	tests := []struct {
		name  string
		value evaluator.Value
		want  string
	}{
		{"integral number", evaluator.NewNumber(42), "42"},
		{"fractional number", evaluator.NewNumber(2.5), "2.5"},
		{"negative number", evaluator.NewNumber(-3), "-3"},
		{"bool", evaluator.NewBool(false), "false"},
		{"string is quoted", evaluator.NewString("hi"), `"hi"`},
		{"escapes in strings", evaluator.NewString("a\nb"), `"a\nb"`},
		{"empty array", evaluator.NewArray(), "[]"},
		{"array", evaluator.NewArray(evaluator.NewNumber(1), evaluator.NewString("x")), `[1, "x"]`},
		{"map keeps order", m, `{"a": 1, "b": "two"}`},
		{"object shows class and data members", obj, `Point {"x": 1}`},
		{"func ref", &evaluator.FuncRef{Name: "inc"}, "<fn inc>"},
		{"void", nil, "void"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatValue(tt.value); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestFormatBare(t *testing.T) {
	if got := FormatBare(evaluator.NewString("raw")); got != "raw" {
		t.Errorf("expected raw, got %s", got)
	}
	if got := FormatBare(evaluator.NewNumber(7)); got != "7" {
		t.Errorf("expected 7, got %s", got)
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{120, "120"},
		{-5, "-5"},
		{2.5, "2.5"},
		{0.1, "0.1"},
	}
	for _, tt := range tests {
		if got := FormatNumber(tt.in); got != tt.want {
			t.Errorf("FormatNumber(%v): expected %s, got %s", tt.in, tt.want, got)
		}
	}
}
