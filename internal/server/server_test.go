package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/toolgate-ai/toolgate/internal/auth"
	"github.com/toolgate-ai/toolgate/internal/config"
	"github.com/toolgate-ai/toolgate/internal/dispatch"
	"github.com/toolgate-ai/toolgate/internal/ratelimit"
	"github.com/toolgate-ai/toolgate/internal/registry"
	"github.com/toolgate-ai/toolgate/internal/resources"
	"github.com/toolgate-ai/toolgate/internal/sqldb"
	"github.com/toolgate-ai/toolgate/internal/storage"
	"github.com/toolgate-ai/toolgate/internal/tools"
)

const testSecret = "integration-secret"

func newTestServer(t *testing.T, requireAuth bool, quota int) *Server {
	t.Helper()

	cfg := config.Default()
	cfg.RequireAuth = requireAuth
	cfg.SharedSecret = testSecret
	cfg.RateLimitQuota = quota

	db, err := sqldb.Open(context.Background(), sqldb.Config{Driver: "sqlite", DSN: ":memory:"})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	logger := zap.NewNop()
	issuer := auth.NewIssuer(cfg.SharedSecret)

	toolReg := registry.NewToolRegistry()
	if err := tools.RegisterAll(toolReg, tools.Deps{Config: cfg, DB: db, Issuer: issuer}); err != nil {
		t.Fatal(err)
	}
	resourceReg := registry.NewResourceRegistry()
	if err := resources.RegisterAll(resourceReg, cfg, db); err != nil {
		t.Fatal(err)
	}

	var authenticator auth.Authenticator = auth.NewAllowAll()
	if requireAuth {
		authenticator = auth.NewJWTAuthenticator(cfg.SharedSecret)
	}

	dispatcher := dispatch.NewDispatcher(
		ratelimit.NewLimiter(quota, cfg.Window()),
		authenticator,
		toolReg,
		storage.NewLogWriter(logger),
		logger,
	)

	return New(Config{
		Dispatcher: dispatcher,
		Tools:      toolReg,
		Resources:  resourceReg,
		Logger:     logger,
	})
}

func connect(t *testing.T, srv *Server, bearer string) *mcp.ClientSession {
	t.Helper()

	httpServer := httptest.NewServer(srv.HTTPHandler())
	t.Cleanup(httpServer.Close)

	httpClient := httpServer.Client()
	if bearer != "" {
		httpClient.Transport = &bearerTransport{base: httpServer.Client().Transport, bearer: bearer}
	}

	transport := &mcp.StreamableClientTransport{
		Endpoint:   httpServer.URL,
		HTTPClient: httpClient,
	}
	client := mcp.NewClient(&mcp.Implementation{Name: "toolgate-test-client", Version: "1.0.0"}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	session, err := client.Connect(ctx, transport, nil)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = session.Close() })
	return session
}

// bearerTransport injects the Authorization header into every request.
type bearerTransport struct {
	base   http.RoundTripper
	bearer string
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	clone.Header.Set("Authorization", t.bearer)
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(clone)
}

func TestServer_ListsAllTools(t *testing.T) {
	session := connect(t, newTestServer(t, false, 100), "")

	ctx := context.Background()
	listed, err := session.ListTools(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"calculator", "file_operations", "database_query", "web_scraper", "generate_auth_token"}
	if len(listed.Tools) != len(want) {
		t.Fatalf("expected %d tools, got %d", len(want), len(listed.Tools))
	}
	names := make(map[string]bool, len(listed.Tools))
	for _, tool := range listed.Tools {
		names[tool.Name] = true
		if tool.InputSchema == nil {
			t.Fatalf("tool %s missing input schema", tool.Name)
		}
	}
	for _, name := range want {
		if !names[name] {
			t.Fatalf("tool %s not advertised", name)
		}
	}
}

func TestServer_CallCalculator(t *testing.T) {
	session := connect(t, newTestServer(t, false, 100), "")

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "calculator",
		Arguments: map[string]any{"operation": "add", "a": 4, "b": 6},
	})
	if err != nil {
		t.Fatal(err)
	}
	if result.IsError {
		t.Fatalf("tool reported error: %+v", result.Content)
	}
	text := contentText(t, result)
	if !strings.Contains(text, "= 10") {
		t.Fatalf("unexpected result: %s", text)
	}
}

func TestServer_RejectionCarriesErrorEnvelope(t *testing.T) {
	session := connect(t, newTestServer(t, false, 100), "")

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "calculator",
		Arguments: map[string]any{"operation": "divide", "a": 1, "b": 0},
	})
	if err != nil {
		t.Fatal(err)
	}
	if !result.IsError {
		t.Fatal("expected IsError result")
	}

	var env struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal([]byte(contentText(t, result)), &env); err != nil {
		t.Fatalf("error envelope is not json: %v", err)
	}
	if env.Error.Code != "domain" || env.Error.Message != "division by zero is not allowed" {
		t.Fatalf("unexpected envelope: %+v", env)
	}
}

func TestServer_AuthRequired(t *testing.T) {
	srv := newTestServer(t, true, 100)
	session := connect(t, srv, "")

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "calculator",
		Arguments: map[string]any{"operation": "add", "a": 1, "b": 2},
	})
	if err != nil {
		t.Fatal(err)
	}
	if !result.IsError {
		t.Fatal("expected auth rejection without credential")
	}
	if !strings.Contains(contentText(t, result), `"code":"auth"`) {
		t.Fatalf("expected auth error code, got: %s", contentText(t, result))
	}
}

func TestServer_AuthWithIssuedToken(t *testing.T) {
	token, err := auth.NewIssuer(testSecret).Issue("alice")
	if err != nil {
		t.Fatal(err)
	}

	srv := newTestServer(t, true, 100)
	session := connect(t, srv, "Bearer "+token)

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "calculator",
		Arguments: map[string]any{"operation": "multiply", "a": 3, "b": 3},
	})
	if err != nil {
		t.Fatal(err)
	}
	if result.IsError {
		t.Fatalf("valid token rejected: %+v", result.Content)
	}
}

func TestServer_ReadResources(t *testing.T) {
	session := connect(t, newTestServer(t, false, 100), "")
	ctx := context.Background()

	listed, err := session.ListResources(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(listed.Resources) != 3 {
		t.Fatalf("expected 3 resources, got %d", len(listed.Resources))
	}

	result, err := session.ReadResource(ctx, &mcp.ReadResourceParams{URI: "resource://users"})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Contents) != 1 || !strings.Contains(result.Contents[0].Text, "John Doe") {
		t.Fatalf("unexpected users resource: %+v", result.Contents)
	}

	result, err = session.ReadResource(ctx, &mcp.ReadResourceParams{URI: "resource://config"})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(result.Contents[0].Text, testSecret) {
		t.Fatal("config resource leaked the shared secret")
	}
}

func contentText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("empty result content")
	}
	text, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("unexpected content type %T", result.Content[0])
	}
	return text.Text
}
