package policy

import "github.com/deploymenttheory/go-restruntime/restruntime/transport"

// UserAgentPolicy sets the User-Agent header to a configured string when
// the request does not already carry one. It generalizes the prior
// workbrew client's fixed fmt.Sprintf("%s/%s", UserAgentBase, Version)
// composition into a caller-supplied string.
type UserAgentPolicy struct {
	UserAgent string
}

// NewUserAgentPolicy builds the policy with a fixed user agent string.
func NewUserAgentPolicy(userAgent string) *UserAgentPolicy {
	return &UserAgentPolicy{UserAgent: userAgent}
}

// Process implements Policy.
func (p *UserAgentPolicy) Process(ctx *Context, next Next) (*transport.Response, error) {
	if !ctx.Request.Headers.Has("User-Agent") {
		ctx.Request.Headers.Set("User-Agent", p.UserAgent)
	}
	return next.Process(ctx)
}
