package policy

import (
	"github.com/deploymenttheory/go-restruntime/restruntime/transport"
	"github.com/google/uuid"
)

// RequestIDHeader is the header name correlating a request with its
// server-side trace.
const RequestIDHeader = "x-ms-client-request-id"

// RequestIDPolicy assigns a fresh v4 UUID to RequestIDHeader when the
// request does not already carry one. Promotes the prior workbrew
// client's indirect github.com/google/uuid dependency (pulled in
// transitively via otel) to a direct, deliberately-used one.
type RequestIDPolicy struct{}

// NewRequestIDPolicy builds the policy.
func NewRequestIDPolicy() *RequestIDPolicy {
	return &RequestIDPolicy{}
}

// Process implements Policy.
func (p *RequestIDPolicy) Process(ctx *Context, next Next) (*transport.Response, error) {
	if !ctx.Request.Headers.Has(RequestIDHeader) {
		ctx.Request.Headers.Set(RequestIDHeader, uuid.New().String())
	}
	return next.Process(ctx)
}
