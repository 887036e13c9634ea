package policy

import (
	"fmt"
	"sync"
)

// StaticAPIKeyCredential is a ready-to-use CredentialProvider implementing
// bearer-token authentication with thread-safe key rotation, generalizing
// the prior workbrew client's AuthConfig/AuthManager pair (workbrew/client/auth.go)
// from one fixed API key to any caller-supplied one, with the same
// rotate-without-recreating-the-client guarantee.
type StaticAPIKeyCredential struct {
	mu     sync.RWMutex
	apiKey string
	scheme string // defaults to "Bearer"
}

// NewStaticAPIKeyCredential builds a credential from an initial API key.
func NewStaticAPIKeyCredential(apiKey string) (*StaticAPIKeyCredential, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("static credential: API key is required")
	}
	return &StaticAPIKeyCredential{apiKey: apiKey, scheme: "Bearer"}, nil
}

// UpdateAPIKey rotates the key in a thread-safe manner, mirroring the
// prior workbrew client's AuthManager.UpdateAPIKey.
func (c *StaticAPIKeyCredential) UpdateAPIKey(newAPIKey string) error {
	if newAPIKey == "" {
		return fmt.Errorf("static credential: API key cannot be empty")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.apiKey = newAPIKey
	return nil
}

// Sign implements CredentialProvider by setting the Authorization header.
func (c *StaticAPIKeyCredential) Sign(ctx *Context) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.apiKey == "" {
		return fmt.Errorf("static credential: API key is not set")
	}
	ctx.Request.Headers.Set("Authorization", fmt.Sprintf("%s %s", c.scheme, c.apiKey))
	return nil
}

// Refresh is a no-op: a static key has nothing to refresh. Credential
// providers that front an OAuth/OIDC token service should implement their
// own Refresh instead of embedding this type.
func (c *StaticAPIKeyCredential) Refresh(ctx *Context) error {
	return nil
}
