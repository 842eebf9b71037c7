package evaluator

import "testing"

func TestMapPreservesInsertionOrder(t *testing.T) {
	m := NewMap()
	m.Set("z", NewNumber(1))
	m.Set("a", NewNumber(2))
	m.Set("m", NewNumber(3))
	m.Set("a", NewNumber(4)) // overwrite keeps position

	keys := m.Keys()
	want := []string{"z", "a", "m"}
	if len(keys) != len(want) {
		t.Fatalf("expected %d keys, got %d", len(want), len(keys))
	}
	for i, k := range want {
		if keys[i] != k {
			t.Errorf("key %d: expected %s, got %s", i, k, keys[i])
		}
	}
	v, ok := m.Get("a")
	if !ok || v.(*Number).Value != 4 {
		t.Error("overwrite did not update the value")
	}
}

func TestMapDelete(t *testing.T) {
	m := NewMap()
	m.Set("a", NewNumber(1))
	m.Set("b", NewNumber(2))
	if !m.Delete("a") {
		t.Error("expected delete to report presence")
	}
	if m.Delete("a") {
		t.Error("expected second delete to report absence")
	}
	if m.Len() != 1 {
		t.Errorf("expected 1 entry, got %d", m.Len())
	}
	if _, ok := m.Get("b"); !ok {
		t.Error("remaining key lost after delete")
	}
}

func TestMarshalValue(t *testing.T) {
	tests := []struct {
		name  string
		value Value
		want  string
	}{
		{"integral number", NewNumber(42), "42"},
		{"fractional number", NewNumber(2.5), "2.5"},
		{"bool", NewBool(true), "true"},
		{"string", NewString("hi\n"), `"hi\n"`},
		{"array", NewArray(NewNumber(1), NewString("x")), `[1,"x"]`},
		{"func ref", &FuncRef{Name: "inc"}, `{"$fn":"inc"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MarshalValue(tt.value)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestMarshalValueKeepsMapOrder(t *testing.T) {
	m := NewMap()
	m.Set("z", NewNumber(1))
	m.Set("a", NewNumber(2))
	got, err := MarshalValue(m)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `{"z":1,"a":2}`
	if string(got) != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}
