// Package server binds the gateway to MCP transports. Tool and resource
// listings come straight from the registries; every tool call is routed
// through the dispatcher, which owns rate limiting, auth, validation,
// and error normalization.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	gjs "github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/toolgate-ai/toolgate/internal/dispatch"
	"github.com/toolgate-ai/toolgate/internal/protocol"
	"github.com/toolgate-ai/toolgate/internal/registry"
)

const (
	serverName    = "toolgate"
	serverVersion = "1.0.0"

	httpShutdownTimeout = 10 * time.Second
)

// Server exposes the registries over MCP, stdio or streamable HTTP.
type Server struct {
	dispatcher *dispatch.Dispatcher
	tools      *registry.ToolRegistry
	resources  *registry.ResourceRegistry
	logger     *zap.Logger

	// stdioCredential is the bearer credential for the stdio session,
	// where no per-request header exists.
	stdioCredential string
}

// Config wires a Server.
type Config struct {
	Dispatcher      *dispatch.Dispatcher
	Tools           *registry.ToolRegistry
	Resources       *registry.ResourceRegistry
	Logger          *zap.Logger
	StdioCredential string
}

func New(cfg Config) *Server {
	return &Server{
		dispatcher:      cfg.Dispatcher,
		tools:           cfg.Tools,
		resources:       cfg.Resources,
		logger:          cfg.Logger,
		stdioCredential: cfg.StdioCredential,
	}
}

// RunStdio serves a single MCP session over stdin/stdout until the
// context is cancelled or the peer disconnects.
func (s *Server) RunStdio(ctx context.Context) error {
	srv, err := s.buildMCPServer(s.stdioCredential)
	if err != nil {
		return err
	}
	return srv.Run(ctx, &mcp.StdioTransport{})
}

// HTTPHandler returns the streamable HTTP handler. A fresh MCP server
// is built per request so each session carries the credential from its
// own Authorization header.
func (s *Server) HTTPHandler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(req *http.Request) *mcp.Server {
		credential := req.Header.Get("Authorization")
		srv, err := s.buildMCPServer(credential)
		if err != nil {
			s.logger.Error("build mcp server", zap.Error(err))
			return nil
		}
		return srv
	}, nil)
}

// RunHTTP serves the streamable HTTP transport on addr until the
// context is cancelled.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	httpServer := &http.Server{Addr: addr, Handler: s.HTTPHandler()}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), httpShutdownTimeout)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// buildMCPServer registers every tool and resource descriptor on a new
// MCP server, with handlers routed through the dispatcher.
func (s *Server) buildMCPServer(credential string) (*mcp.Server, error) {
	srv := mcp.NewServer(&mcp.Implementation{
		Name:    serverName,
		Version: serverVersion,
	}, &mcp.ServerOptions{
		HasTools:     true,
		HasResources: true,
	})

	for _, desc := range s.tools.List() {
		tool := &mcp.Tool{
			Name:        desc.Name,
			Description: desc.Description,
		}
		if desc.InputSchema != nil {
			schema, err := toSDKSchema(desc.InputSchema)
			if err != nil {
				return nil, fmt.Errorf("tool %s: %w", desc.Name, err)
			}
			tool.InputSchema = schema
		}
		srv.AddTool(tool, s.makeToolHandler(desc.Name, credential))
	}

	for _, desc := range s.resources.List() {
		res := &mcp.Resource{
			URI:         desc.URI,
			Name:        desc.Name,
			Description: desc.Description,
			MIMEType:    desc.MIMEType,
		}
		srv.AddResource(res, s.makeResourceHandler())
	}

	return srv, nil
}

// makeToolHandler routes one tool's calls through the dispatcher. Typed
// gateway rejections come back as IsError results carrying the error
// envelope, so callers see the kind and message rather than a bare
// protocol fault.
func (s *Server) makeToolHandler(name, credential string) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args map[string]any
		if req.Params != nil && len(req.Params.Arguments) > 0 {
			if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
				return errorResult(protocol.Errorf(protocol.KindValidation, "arguments are not valid JSON")), nil
			}
		}

		result, err := s.dispatcher.Handle(ctx, protocol.ToolCallRequest{
			Name:      name,
			Arguments: args,
		}, dispatch.DefaultClientID, credential)
		if err != nil {
			return errorResult(err), nil
		}

		content := make([]mcp.Content, 0, len(result.Content))
		for _, block := range result.Content {
			content = append(content, &mcp.TextContent{Text: block.Text})
		}
		return &mcp.CallToolResult{Content: content}, nil
	}
}

func (s *Server) makeResourceHandler() mcp.ResourceHandler {
	return func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		desc, err := s.resources.Lookup(req.Params.URI)
		if err != nil {
			return nil, err
		}
		text, err := desc.Producer(ctx)
		if err != nil {
			s.logger.Error("resource producer failed",
				zap.String("uri", desc.URI),
				zap.Error(err),
			)
			return nil, protocol.Errorf(protocol.KindInternal, "resource read failed")
		}
		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{{
				URI:      desc.URI,
				MIMEType: desc.MIMEType,
				Text:     text,
			}},
		}, nil
	}
}

// errorEnvelope is the outbound failure shape.
type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func errorResult(err error) *mcp.CallToolResult {
	var env errorEnvelope
	env.Error.Code = string(protocol.KindOf(err))
	var ge *protocol.Error
	if errors.As(err, &ge) {
		env.Error.Message = ge.Message
	} else {
		env.Error.Message = err.Error()
	}

	data, marshalErr := json.Marshal(env)
	if marshalErr != nil {
		data = []byte(`{"error":{"code":"internal","message":"error encoding failed"}}`)
	}
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}
}

// toSDKSchema converts the registry's plain JSON schema map into the
// SDK's schema type for tools/list.
func toSDKSchema(schema map[string]any) (*gjs.Schema, error) {
	data, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	var out gjs.Schema
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("unmarshal schema: %w", err)
	}
	return &out, nil
}
