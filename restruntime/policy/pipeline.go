package policy

import (
	"fmt"

	"github.com/deploymenttheory/go-restruntime/restruntime/transport"
)

// Policy is the pipeline's extensibility point: a value implementing
// Process(ctx, next) that can mutate the request, call onward, and
// transform the response. Grounded on azcore's Policy interface
// (Do(req) (*http.Response, error)) but reshaped around this module's own
// Context/Response types.
type Policy interface {
	Process(ctx *Context, next Next) (*transport.Response, error)
}

// PolicyFunc adapts an ordinary function to the Policy interface, the way
// azcore's exported.PolicyFunc does for stateless policies.
type PolicyFunc func(ctx *Context, next Next) (*transport.Response, error)

// Process implements Policy.
func (f PolicyFunc) Process(ctx *Context, next Next) (*transport.Response, error) {
	return f(ctx, next)
}

// Next is the single-use token a policy uses to invoke the remainder of
// the chain. A policy must not invoke next more than once per received
// handle; it may construct a new handle by re-entering the pipeline from
// index 0 via Restart, but each next handle itself is single-use.
type Next interface {
	// Process invokes the next policy in the chain (or the terminal
	// transport, if this is the last policy). Calling it a second time on
	// the same handle panics.
	Process(ctx *Context) (*transport.Response, error)

	// Restart returns a brand new, single-use handle starting back at
	// pipeline index 0. This is how the retry policy re-enters the chain
	// for each attempt, and how retries always restart from the pipeline
	// head rather than resuming mid-chain.
	Restart() Next
}

type chainHandle struct {
	policies []Policy
	index    int
	used     bool
	terminal terminalSender
}

type terminalSender func(ctx *Context) (*transport.Response, error)

func (h *chainHandle) Process(ctx *Context) (*transport.Response, error) {
	if h.used {
		panic(fmt.Sprintf("policy pipeline: next handle already consumed at index %d", h.index))
	}
	h.used = true

	if h.index >= len(h.policies) {
		return h.terminal(ctx)
	}

	current := h.policies[h.index]
	nextHandle := &chainHandle{
		policies: h.policies,
		index:    h.index + 1,
		terminal: h.terminal,
	}
	return current.Process(ctx, nextHandle)
}

func (h *chainHandle) Restart() Next {
	return &chainHandle{
		policies: h.policies,
		index:    0,
		terminal: h.terminal,
	}
}

// Pipeline is the ordered composition of policies terminated by the
// transport. It is immutable and freely shared across calls once
// constructed; each call gets a fresh chainHandle starting at index 0.
type Pipeline struct {
	policies  []Policy
	transport transport.Transport
}

// New builds a Pipeline from an ordered policy list and a terminal
// transport. The transport is conceptually policy index len(policies): the
// last link in the chain rather than a special case.
func New(t transport.Transport, policies ...Policy) *Pipeline {
	return &Pipeline{
		policies:  append([]Policy(nil), policies...),
		transport: t,
	}
}

// Send drives the pipeline for one call: a fresh chain head is created
// (index 0), and the transport is invoked once the chain is exhausted.
func (p *Pipeline) Send(ctx *Context) (*transport.Response, error) {
	head := &chainHandle{
		policies: p.policies,
		index:    0,
		terminal: func(ctx *Context) (*transport.Response, error) {
			return p.transport.Send(ctx.Ctx, ctx.Request)
		},
	}
	return head.Process(ctx)
}
