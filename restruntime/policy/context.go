// Package policy implements the pipeline executor and the built-in
// policies, grounded on the azcore pipeline/policy vendor slices found in
// the example pack (github.com/Azure/azure-sdk-for-go/sdk/azcore/{policy,
// runtime,internal/exported}), reworked so Context is a caller-visible
// scratchpad rather than azcore's private reflect-keyed map.
package policy

import (
	"context"
	"sync"

	"github.com/deploymenttheory/go-restruntime/restruntime/transport"
)

// Context is the per-call mutable scratchpad: it carries the request,
// caller-supplied key/value data, and shared options. One Context is
// created per invocation and discarded once the response stream is fully
// consumed or dropped.
type Context struct {
	// Ctx is the Go context.Context driving cancellation/deadlines for
	// this call; every blocking operation in the pipeline must honor it.
	Ctx context.Context

	// Request is the HttpRequest being sent. Policies may mutate it
	// in-place (it is conceptually frozen only after the terminal
	// transport accepts it for sending) or clone it when retrying.
	Request *transport.Request

	// OperationName is set by the invocation engine to the plan's
	// fully-qualified name (caller-method = plan.fullyQualifiedName).
	OperationName string

	// DecodeHook, when set by the invocation engine, is invoked by
	// DecodingPolicy on each response; the engine's hook attaches the
	// deserialized-headers handle. It lives on Context rather than being imported by the
	// policy package directly, so that restruntime/policy never needs to
	// depend on restruntime/invoke.
	DecodeHook func(resp *transport.Response)

	mu     sync.Mutex
	values map[string]any
}

// NewContext builds a Context for one call.
func NewContext(ctx context.Context, req *transport.Request, operationName string) *Context {
	return &Context{
		Ctx:           ctx,
		Request:       req,
		OperationName: operationName,
		values:        make(map[string]any),
	}
}

// Set stores a key/value entry visible to every policy in this call.
// Concurrent-safe because a single Context may be read from a policy that
// starts a background goroutine (e.g. a progress callback).
func (c *Context) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
}

// Get retrieves a previously Set value.
func (c *Context) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.values[key]
	return v, ok
}

// well-known Context keys used by the built-in policies to record per-call
// state (e.g. the credentials policy flagging a just-completed refresh,
// readable through AuthJustRefreshed).
const (
	keyExtraAllowedStatus   = "policy.extraAllowedStatus"
	keyAuthRefreshed        = "policy.authJustRefreshed"
	keyAuthRefreshAttempted = "policy.authRefreshAttempted"
)

// SetExtraAllowedStatus records caller-supplied extra status codes for
// this call, consumed by plan.MethodPlan.IsExpected's "extraAllowed"
// parameter.
func (c *Context) SetExtraAllowedStatus(codes []int) {
	c.Set(keyExtraAllowedStatus, codes)
}

// ExtraAllowedStatus returns the codes set by SetExtraAllowedStatus, if any.
func (c *Context) ExtraAllowedStatus() []int {
	v, ok := c.Get(keyExtraAllowedStatus)
	if !ok {
		return nil
	}
	codes, _ := v.([]int)
	return codes
}
