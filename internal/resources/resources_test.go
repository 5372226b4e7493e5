package resources

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/toolgate-ai/toolgate/internal/config"
	"github.com/toolgate-ai/toolgate/internal/registry"
	"github.com/toolgate-ai/toolgate/internal/sqldb"
)

func newRegistry(t *testing.T) *registry.ResourceRegistry {
	t.Helper()
	db, err := sqldb.Open(context.Background(), sqldb.Config{Driver: "sqlite", DSN: ":memory:"})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	reg := registry.NewResourceRegistry()
	if err := RegisterAll(reg, config.Default(), db); err != nil {
		t.Fatal(err)
	}
	return reg
}

func TestRegisterAll_Order(t *testing.T) {
	reg := newRegistry(t)

	want := []string{"resource://config", "resource://users", "resource://help"}
	got := reg.List()
	if len(got) != len(want) {
		t.Fatalf("expected %d resources, got %d", len(want), len(got))
	}
	for i, desc := range got {
		if desc.URI != want[i] {
			t.Fatalf("position %d: got %s, want %s", i, desc.URI, want[i])
		}
	}
}

func TestConfigResource_ElidesSecrets(t *testing.T) {
	reg := newRegistry(t)

	desc, err := reg.Lookup("resource://config")
	if err != nil {
		t.Fatal(err)
	}
	body, err := desc.Producer(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	var snapshot map[string]any
	if err := json.Unmarshal([]byte(body), &snapshot); err != nil {
		t.Fatalf("config resource is not valid json: %v", err)
	}
	if _, ok := snapshot["shared_secret"]; ok {
		t.Fatal("shared secret exposed in config resource")
	}
	if strings.Contains(body, config.Default().SharedSecret) {
		t.Fatal("secret value leaked into config resource body")
	}
	if _, ok := snapshot["rate_limit_quota"]; !ok {
		t.Fatal("config resource missing policy fields")
	}
}

func TestUsersResource_ListsSeededUsers(t *testing.T) {
	reg := newRegistry(t)

	desc, err := reg.Lookup("resource://users")
	if err != nil {
		t.Fatal(err)
	}
	body, err := desc.Producer(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	var users []demoUser
	if err := json.Unmarshal([]byte(body), &users); err != nil {
		t.Fatalf("users resource is not valid json: %v", err)
	}
	if len(users) != 3 {
		t.Fatalf("expected 3 users, got %d", len(users))
	}
	if users[0].Name != "John Doe" || users[0].ID != 1 {
		t.Fatalf("unexpected first user: %+v", users[0])
	}
}

func TestHelpResource(t *testing.T) {
	reg := newRegistry(t)

	desc, err := reg.Lookup("resource://help")
	if err != nil {
		t.Fatal(err)
	}
	if desc.MIMEType != "text/plain" {
		t.Fatalf("unexpected mime type: %s", desc.MIMEType)
	}
	body, err := desc.Producer(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"calculator", "web_scraper", "resource://users"} {
		if !strings.Contains(body, want) {
			t.Fatalf("help text missing %q", want)
		}
	}
}
