package policy

import "github.com/deploymenttheory/go-restruntime/restruntime/transport"

// DecodingPolicy runs the per-call Context.DecodeHook on every response
// the rest of the chain returns without error, so consumers can observe
// decoded data without re-reading the wire. The hook is supplied by
// restruntime/invoke (which avoids a policy -> invoke import cycle); the
// one the invocation engine installs attaches the deserialized-headers
// handle only. The deserialized body is filled in later, on demand, by
// invoke's ResponseDecoder.
type DecodingPolicy struct{}

// NewDecodingPolicy builds the policy.
func NewDecodingPolicy() *DecodingPolicy {
	return &DecodingPolicy{}
}

// Process implements Policy.
func (p *DecodingPolicy) Process(ctx *Context, next Next) (*transport.Response, error) {
	resp, err := next.Process(ctx)
	if err != nil || resp == nil {
		return resp, err
	}
	if ctx.DecodeHook != nil {
		ctx.DecodeHook(resp)
	}
	return resp, nil
}
