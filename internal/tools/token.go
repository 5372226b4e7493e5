package tools

import (
	"context"
	"fmt"

	"github.com/toolgate-ai/toolgate/internal/auth"
	"github.com/toolgate-ai/toolgate/internal/protocol"
	"github.com/toolgate-ai/toolgate/internal/registry"
)

// TokenTool issues demo bearer tokens with a fixed 24-hour expiry.
type TokenTool struct {
	issuer *auth.Issuer
}

func NewTokenTool(issuer *auth.Issuer) *TokenTool {
	return &TokenTool{issuer: issuer}
}

func (t *TokenTool) Descriptor() registry.ToolDescriptor {
	return registry.ToolDescriptor{
		Name:        "generate_auth_token",
		Description: "Generate a JWT token for authentication (demo purposes)",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"username": map[string]any{"type": "string", "description": "Username for token"},
			},
			"required": []any{"username"},
		},
		Handler: t.handle,
	}
}

func (t *TokenTool) handle(_ context.Context, args map[string]any) (*protocol.ToolCallResult, error) {
	username, _ := args["username"].(string)
	if username == "" {
		return nil, protocol.Errorf(protocol.KindDomain, "username is required")
	}

	token, err := t.issuer.Issue(username)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	return protocol.Text(
		"Generated JWT token for %s:\n%s\n\nNote: This is for demo purposes only. In production, use proper authentication flows.",
		username, token,
	), nil
}
