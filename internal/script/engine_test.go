package script

import (
	"errors"
	"testing"
	"time"
)

func TestEngine_EvalPredicate(t *testing.T) {
	e := New()
	defer e.Close()

	tests := []struct {
		name     string
		chunk    string
		bindings map[string]any
		want     bool
	}{
		{"expression true", "value >= 18", map[string]any{"value": 21}, true},
		{"expression false", "value >= 18", map[string]any{"value": 3}, false},
		{"float", "value < 1.5", map[string]any{"value": 1.25}, true},
		{"string", "string.len(value) == 3", map[string]any{"value": "abc"}, true},
		{"nil is falsy", "value", map[string]any{"value": nil}, false},
		{"table", "#value == 2 and value[1] == 'a'", map[string]any{"value": []any{"a", "b"}}, true},
		{"typed slice", "#value == 3", map[string]any{"value": []int{1, 2, 3}}, true},
		{"map", "value.kind == 'x'", map[string]any{"value": map[string]any{"kind": "x"}}, true},
		{"identifier containing return", "returned == 1", map[string]any{"returned": 1}, true},
		{"string containing return", `value ~= "return"`, map[string]any{"value": "x"}, true},
		{"statement", "if field == 'age' then return value > 0 end return false", map[string]any{"value": 1, "field": "age"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.EvalPredicate(tt.chunk, tt.bindings)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("EvalPredicate(%q) = %v, want %v", tt.chunk, got, tt.want)
			}
		})
	}
}

func TestEngine_BindingsDoNotLeak(t *testing.T) {
	e := New()
	defer e.Close()

	if _, err := e.EvalPredicate("value == 1", map[string]any{"value": 1}); err != nil {
		t.Fatal(err)
	}
	got, err := e.EvalPredicate("value == nil", nil)
	if err != nil {
		t.Fatal(err)
	}
	if !got {
		t.Error("bindings from a previous evaluation should be cleared")
	}
}

func TestEngine_Sandbox(t *testing.T) {
	e := New()
	defer e.Close()

	for _, chunk := range []string{
		"return io ~= nil",
		"return os ~= nil",
		"return load ~= nil",
		"return dofile ~= nil",
		"return require ~= nil",
	} {
		got, err := e.EvalPredicate(chunk, nil)
		if err != nil {
			t.Fatalf("%s: %v", chunk, err)
		}
		if got {
			t.Errorf("%s: expected the sandbox to hide it", chunk)
		}
	}
}

func TestEngine_Errors(t *testing.T) {
	e := New(WithTimeout(50 * time.Millisecond))

	if _, err := e.EvalPredicate("value >=", nil); err == nil {
		t.Error("expected compile error")
	}
	if _, err := e.EvalPredicate("return error('boom')", nil); err == nil {
		t.Error("expected runtime error")
	}
	if _, err := e.EvalPredicate("while true do end return true", nil); !errors.Is(err, ErrTimeout) {
		t.Errorf("expected ErrTimeout, got %v", err)
	}

	e.Close()
	e.Close()
	if _, err := e.EvalPredicate("true", nil); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}
