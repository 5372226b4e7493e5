package registry

import (
	"context"
	"fmt"

	"github.com/toolgate-ai/toolgate/internal/protocol"
)

// Producer returns the current content of a resource.
type Producer func(ctx context.Context) (string, error)

// ResourceDescriptor declares one read-only resource.
type ResourceDescriptor struct {
	URI         string
	Name        string
	Description string
	MIMEType    string
	Producer    Producer
}

// ResourceRegistry is the static uri → descriptor table.
type ResourceRegistry struct {
	order     []string
	resources map[string]*ResourceDescriptor
}

func NewResourceRegistry() *ResourceRegistry {
	return &ResourceRegistry{resources: make(map[string]*ResourceDescriptor)}
}

// Register adds a resource. Called only during startup.
func (r *ResourceRegistry) Register(desc ResourceDescriptor) error {
	if desc.URI == "" {
		return fmt.Errorf("resource descriptor missing uri")
	}
	if desc.Producer == nil {
		return fmt.Errorf("resource %s missing producer", desc.URI)
	}
	if _, exists := r.resources[desc.URI]; exists {
		return fmt.Errorf("resource %s already registered", desc.URI)
	}
	d := desc
	r.resources[d.URI] = &d
	r.order = append(r.order, d.URI)
	return nil
}

// Lookup returns the descriptor for uri, or a NotFound error.
func (r *ResourceRegistry) Lookup(uri string) (*ResourceDescriptor, error) {
	d, ok := r.resources[uri]
	if !ok {
		return nil, protocol.Errorf(protocol.KindNotFound, "unknown resource: %s", uri)
	}
	return d, nil
}

// List returns all descriptors in registration order.
func (r *ResourceRegistry) List() []*ResourceDescriptor {
	out := make([]*ResourceDescriptor, 0, len(r.order))
	for _, uri := range r.order {
		out = append(out, r.resources[uri])
	}
	return out
}
