package tools

import (
	"context"

	"github.com/toolgate-ai/toolgate/internal/protocol"
	"github.com/toolgate-ai/toolgate/internal/registry"
)

// Calculator performs basic arithmetic on two operands.
type Calculator struct{}

func NewCalculator() *Calculator {
	return &Calculator{}
}

func (c *Calculator) Descriptor() registry.ToolDescriptor {
	return registry.ToolDescriptor{
		Name:        "calculator",
		Description: "Perform basic arithmetic operations (add, subtract, multiply, divide)",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"operation": map[string]any{
					"type":        "string",
					"enum":        []any{"add", "subtract", "multiply", "divide"},
					"description": "Operation to perform: add, subtract, multiply, divide",
				},
				"a": map[string]any{"type": "number", "description": "First number"},
				"b": map[string]any{"type": "number", "description": "Second number"},
			},
			"required": []any{"operation", "a", "b"},
		},
		Handler: c.handle,
	}
}

func (c *Calculator) handle(_ context.Context, args map[string]any) (*protocol.ToolCallResult, error) {
	op, _ := args["operation"].(string)
	a := floatArg(args, "a")
	b := floatArg(args, "b")

	var result float64
	switch op {
	case "add":
		result = a + b
	case "subtract":
		result = a - b
	case "multiply":
		result = a * b
	case "divide":
		if b == 0 {
			return nil, protocol.Errorf(protocol.KindDomain, "division by zero is not allowed")
		}
		result = a / b
	default:
		return nil, protocol.Errorf(protocol.KindDomain, "unsupported operation: %s", op)
	}

	return protocol.Text("Result: %v %s %v = %v", a, op, b, result), nil
}

// floatArg reads a numeric argument. Schema validation has already
// established the type, so a failed assertion yields zero.
func floatArg(args map[string]any, key string) float64 {
	switch v := args[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return 0
	}
}
