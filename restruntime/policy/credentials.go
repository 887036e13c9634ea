package policy

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/deploymenttheory/go-restruntime/restruntime/transport"
)

// CredentialProvider is the consumed external collaborator: sign(request)
// -> async; refresh() -> async. Implementations handle their own caching.
type CredentialProvider interface {
	Sign(ctx *Context) error
	Refresh(ctx *Context) error
}

// CredentialsPolicy calls an injected CredentialProvider to sign the
// request before delegating. On a 401 response whose body indicates an
// expired token (an AuthenticationFailed error code plus a message
// beginning with "The access token expiry" or "The access token is
// missing or invalid", preserved verbatim for compatibility with the
// upstream API's error shape), the credential is refreshed and the
// request is retried once by restarting the pipeline from its head, so
// this refresh does not count against the retry policy's budget. The
// refresh is also recorded on the Context (see AuthJustRefreshed).
type CredentialsPolicy struct {
	provider CredentialProvider
	mu       sync.Mutex
}

// NewCredentialsPolicy builds the policy from a provider.
func NewCredentialsPolicy(provider CredentialProvider) *CredentialsPolicy {
	return &CredentialsPolicy{provider: provider}
}

// authFailureBody is the minimal shape needed to detect the token-expiry
// condition, decoded best-effort from the response body.
type authFailureBody struct {
	ErrorCode string `json:"error-code"`
	Message   string `json:"message"`
}

func (p *CredentialsPolicy) Process(ctx *Context, next Next) (*transport.Response, error) {
	if err := p.provider.Sign(ctx); err != nil {
		return nil, err
	}

	resp, err := next.Process(ctx)
	if err != nil {
		return resp, err
	}

	if resp == nil || resp.Status != 401 {
		return resp, nil
	}

	if !isTokenExpired(resp) {
		return resp, nil
	}

	// Guard against refreshing more than once per call: a credential that
	// is refreshed but still rejected must surface as a failure, not loop
	// forever re-entering the pipeline.
	if alreadyAttempted, _ := ctx.Get(keyAuthRefreshAttempted); alreadyAttempted == true {
		return resp, nil
	}
	ctx.Set(keyAuthRefreshAttempted, true)

	if resp.Body != nil {
		resp.Body.Discard()
	}

	p.mu.Lock()
	refreshErr := p.provider.Refresh(ctx)
	p.mu.Unlock()
	if refreshErr != nil {
		return resp, nil
	}

	ctx.Set(keyAuthRefreshed, true)
	if err := p.provider.Sign(ctx); err != nil {
		return resp, nil
	}

	// Re-enter the pipeline from its head; this is the one re-authentication
	// retry that must not count against the retry policy's own budget.
	// Because this is a nested invocation of the whole chain (including the
	// retry policy itself), the retry policy gets a fresh attempt counter
	// for it, leaving the outer retry loop's counter untouched.
	return next.Restart().Process(ctx)
}

// isTokenExpired implements the brittle-by-design string-prefix check
// preserved for compatibility with the upstream API: status 401, error
// code AuthenticationFailed, and a message beginning with one of two
// known prefixes.
func isTokenExpired(resp *transport.Response) bool {
	buffered, ok := resp.Body.Buffered()
	var raw []byte
	if ok {
		raw = buffered.Bytes()
	} else {
		b, err := resp.Body.Buffer()
		if err != nil {
			return false
		}
		raw = b.Bytes()
	}

	var body authFailureBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return false
	}
	if body.ErrorCode != "AuthenticationFailed" {
		return false
	}
	return strings.HasPrefix(body.Message, "The access token expiry") ||
		strings.HasPrefix(body.Message, "The access token is missing or invalid")
}

// AuthJustRefreshed reports whether the credentials policy refreshed the
// token during this call. The retry policy does not consult it: the
// re-authentication retry stays out of the retry budget because it
// re-enters the pipeline from a fresh head.
func AuthJustRefreshed(ctx *Context) bool {
	v, ok := ctx.Get(keyAuthRefreshed)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}
