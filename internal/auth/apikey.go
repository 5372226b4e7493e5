package auth

import (
	"context"

	"golang.org/x/crypto/bcrypt"
)

// APIKeyAuthenticator compares the presented key against a bcrypt hash
// configured at startup. The plaintext key never lives in config.
type APIKeyAuthenticator struct {
	hash []byte
}

func NewAPIKeyAuthenticator(hash string) *APIKeyAuthenticator {
	return &APIKeyAuthenticator{hash: []byte(hash)}
}

func (a *APIKeyAuthenticator) Verify(_ context.Context, credential string) error {
	credential = StripBearer(credential)
	if credential == "" {
		return ErrMissingCredential
	}
	if err := bcrypt.CompareHashAndPassword(a.hash, []byte(credential)); err != nil {
		return ErrInvalidCredential
	}
	return nil
}
