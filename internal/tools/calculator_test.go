package tools

import (
	"context"
	"testing"

	"github.com/toolgate-ai/toolgate/internal/protocol"
)

func TestCalculator_Operations(t *testing.T) {
	desc := NewCalculator().Descriptor()

	cases := []struct {
		op   string
		a, b float64
		want string
	}{
		{"add", 5, 3, "Result: 5 add 3 = 8"},
		{"subtract", 10, 4, "Result: 10 subtract 4 = 6"},
		{"multiply", 6, 7, "Result: 6 multiply 7 = 42"},
		{"divide", 15, 4, "Result: 15 divide 4 = 3.75"},
		{"add", -2.5, 1.5, "Result: -2.5 add 1.5 = -1"},
	}
	for _, tc := range cases {
		t.Run(tc.op, func(t *testing.T) {
			result, err := desc.Handler(context.Background(), map[string]any{
				"operation": tc.op, "a": tc.a, "b": tc.b,
			})
			if err != nil {
				t.Fatal(err)
			}
			if got := result.Content[0].Text; got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestCalculator_DivisionByZero(t *testing.T) {
	desc := NewCalculator().Descriptor()

	_, err := desc.Handler(context.Background(), map[string]any{
		"operation": "divide", "a": 1.0, "b": 0.0,
	})
	if !protocol.IsKind(err, protocol.KindDomain) {
		t.Fatalf("expected domain error, got %v", err)
	}
	if err.Error() != "domain: division by zero is not allowed" {
		t.Fatalf("unexpected message: %v", err)
	}
}

func TestCalculator_SchemaRejectsBadOperation(t *testing.T) {
	desc := NewCalculator().Descriptor()
	// Registration compiles the schema.
	reg := newTestRegistry(t, desc)
	compiled, err := reg.Lookup("calculator")
	if err != nil {
		t.Fatal(err)
	}

	if err := compiled.ValidateArgs(map[string]any{"operation": "modulo", "a": 1.0, "b": 2.0}); err == nil {
		t.Fatal("unknown operation should fail schema validation")
	}
	if err := compiled.ValidateArgs(map[string]any{"operation": "add", "a": 1.0}); err == nil {
		t.Fatal("missing operand should fail schema validation")
	}
	if err := compiled.ValidateArgs(map[string]any{"operation": "add", "a": 1.0, "b": 2.0}); err != nil {
		t.Fatalf("valid args rejected: %v", err)
	}
}
