// Package registry maps tool names and resource URIs to their handlers.
// Both registries are populated once at startup and are read-only
// afterwards; List returns descriptors in registration order.
package registry

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/toolgate-ai/toolgate/internal/protocol"
)

// Handler executes a tool call with already-validated arguments.
type Handler func(ctx context.Context, args map[string]any) (*protocol.ToolCallResult, error)

// ToolDescriptor declares one tool: its name, the JSON Schema its
// arguments must satisfy, and the handler capability.
type ToolDescriptor struct {
	Name        string
	Description string
	InputSchema map[string]any
	Handler     Handler

	compiled *jsonschema.Schema
}

// ValidateArgs checks args against the tool's compiled input schema.
// The returned error message names the offending field.
func (d *ToolDescriptor) ValidateArgs(args map[string]any) error {
	if d.compiled == nil {
		return nil
	}
	if args == nil {
		args = map[string]any{}
	}
	// Round-trip through JSON so the validator sees plain decoded values.
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("marshal arguments: %w", err)
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("unmarshal arguments: %w", err)
	}
	return d.compiled.Validate(doc)
}

// ToolRegistry is the static name → descriptor table.
type ToolRegistry struct {
	order []string
	tools map[string]*ToolDescriptor
}

func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{tools: make(map[string]*ToolDescriptor)}
}

// Register adds a tool and compiles its input schema. Called only during
// startup; duplicate names and invalid schemas are configuration errors.
func (r *ToolRegistry) Register(desc ToolDescriptor) error {
	if desc.Name == "" {
		return fmt.Errorf("tool descriptor missing name")
	}
	if desc.Handler == nil {
		return fmt.Errorf("tool %s missing handler", desc.Name)
	}
	if _, exists := r.tools[desc.Name]; exists {
		return fmt.Errorf("tool %s already registered", desc.Name)
	}

	if desc.InputSchema != nil {
		compiled, err := compileSchema(desc.Name, desc.InputSchema)
		if err != nil {
			return fmt.Errorf("tool %s: %w", desc.Name, err)
		}
		desc.compiled = compiled
	}

	d := desc
	r.tools[d.Name] = &d
	r.order = append(r.order, d.Name)
	return nil
}

// Lookup returns the descriptor for name, or a NotFound error.
func (r *ToolRegistry) Lookup(name string) (*ToolDescriptor, error) {
	d, ok := r.tools[name]
	if !ok {
		return nil, protocol.Errorf(protocol.KindNotFound, "unknown tool: %s", name)
	}
	return d, nil
}

// List returns all descriptors in registration order. The order is
// stable across calls.
func (r *ToolRegistry) List() []*ToolDescriptor {
	out := make([]*ToolDescriptor, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name])
	}
	return out
}

func compileSchema(name string, schema map[string]any) (*jsonschema.Schema, error) {
	data, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("marshal input schema: %w", err)
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal input schema: %w", err)
	}

	c := jsonschema.NewCompiler()
	url := name + "-schema.json"
	if err := c.AddResource(url, doc); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	compiled, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return compiled, nil
}
