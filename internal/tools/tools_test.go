package tools

import (
	"context"
	"testing"
	"time"

	"github.com/toolgate-ai/toolgate/internal/auth"
	"github.com/toolgate-ai/toolgate/internal/config"
	"github.com/toolgate-ai/toolgate/internal/registry"
	"github.com/toolgate-ai/toolgate/internal/sqldb"
)

func newTestRegistry(t *testing.T, descriptors ...registry.ToolDescriptor) *registry.ToolRegistry {
	t.Helper()
	reg := registry.NewToolRegistry()
	for _, desc := range descriptors {
		if err := reg.Register(desc); err != nil {
			t.Fatal(err)
		}
	}
	return reg
}

func TestRegisterAll_OrderAndNames(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := sqldb.Open(ctx, sqldb.Config{Driver: "sqlite", DSN: ":memory:"})
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	reg := registry.NewToolRegistry()
	err = RegisterAll(reg, Deps{
		Config: config.Default(),
		DB:     db,
		Issuer: auth.NewIssuer("test-secret"),
	})
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"calculator", "file_operations", "database_query", "web_scraper", "generate_auth_token"}
	got := reg.List()
	if len(got) != len(want) {
		t.Fatalf("expected %d tools, got %d", len(want), len(got))
	}
	for i, desc := range got {
		if desc.Name != want[i] {
			t.Fatalf("position %d: got %s, want %s", i, desc.Name, want[i])
		}
		if desc.Description == "" || desc.InputSchema == nil {
			t.Fatalf("tool %s missing description or schema", desc.Name)
		}
	}
}
