// Package auth verifies the bearer credential a transport supplies with
// each tool call. Verification is a strategy with three variants: allow
// everything (auth disabled), HMAC-signed JWT against the shared secret,
// and a bcrypt-hashed static API key.
package auth

import (
	"context"
	"strings"

	"github.com/toolgate-ai/toolgate/internal/protocol"
)

// Authenticator verifies a bearer credential. An empty credential means
// the transport supplied none.
type Authenticator interface {
	Verify(ctx context.Context, credential string) error
}

// ErrMissingCredential and ErrInvalidCredential are the two auth
// rejections the gateway produces.
var (
	ErrMissingCredential = protocol.Errorf(protocol.KindAuth, "missing credential")
	ErrInvalidCredential = protocol.Errorf(protocol.KindAuth, "invalid credential")
)

// StripBearer removes a leading "Bearer " scheme marker, if present.
func StripBearer(credential string) string {
	credential = strings.TrimSpace(credential)
	credential = strings.TrimPrefix(credential, "Bearer ")
	credential = strings.TrimPrefix(credential, "bearer ")
	return credential
}

// AllowAll accepts every request regardless of credential. Used when
// require_auth is off.
type AllowAll struct{}

func NewAllowAll() *AllowAll {
	return &AllowAll{}
}

func (a *AllowAll) Verify(_ context.Context, _ string) error {
	return nil
}
