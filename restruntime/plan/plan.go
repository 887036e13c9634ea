// Package plan implements the Interface Parser and MethodPlan: a
// declarative OperationDescription is compiled once into an immutable
// MethodPlan, which then exposes pure accessors consumed by the request
// builder and invocation engine on every call.
package plan

import (
	"fmt"

	"github.com/deploymenttheory/go-restruntime/restruntime/codec"
	"github.com/deploymenttheory/go-restruntime/restruntime/transport"
)

// BindingKind is the closed set of parameter binding roles.
type BindingKind int

const (
	// Path binds an argument to a `{name}` placeholder in the URL
	// template.
	Path BindingKind = iota
	// Query binds an argument to a query string key.
	Query
	// Header binds an argument to a request header, or (when Expand is
	// true) treats the argument as a mapping whose entries each become a
	// header named Prefix+entryKey.
	Header
	// Body binds the single body argument.
	Body
	// HostParameter overrides a host template placeholder.
	HostParameter
	// ContextBinding contributes an entry to the per-call PolicyContext,
	// keyed by the binding's Name.
	ContextBinding
)

// EncodingPolicy controls percent-encoding for Path and HostParameter
// bindings. Query binding values are always percent-encoded by the URL
// builder; a Raw policy on a Query binding has no effect.
type EncodingPolicy int

const (
	Encoded EncodingPolicy = iota
	Raw
)

// BodyWireType enumerates the declared wire shapes a Body binding may
// carry.
type BodyWireType int

const (
	BodyText BodyWireType = iota
	BodyBytes
	BodyStream
	BodyObject // serialize via codec
)

// Binding describes one parameter role attached to a MethodPlan.
type Binding struct {
	Kind     BindingKind
	Name     string // argument name, used to look up the call-site value
	Key      string // placeholder name (Path), query/header key (Query/Header)
	Encoding EncodingPolicy
	Expand   bool         // Header: argument is a mapping of header-name-suffix -> value
	Prefix   string       // Header+Expand: prefix prepended to each mapping key
	Wire     BodyWireType // Body only
}

// ReturnShapeKind enumerates the return shapes an operation may declare.
type ReturnShapeKind int

const (
	ReturnVoid ReturnShapeKind = iota
	ReturnStream
	ReturnBytes
	ReturnBoolean
	ReturnEnvelope
	ReturnTyped
)

// ReturnShape describes how the invocation engine reshapes a decoded
// response into the operation's declared return type.
type ReturnShape struct {
	Kind BindingKindReturn
	// BodyIsBase64URL marks a Bytes return shape whose wire type is
	// base64url-encoded bytes that must be decoded.
	BodyIsBase64URL bool
}

// BindingKindReturn avoids colliding with BindingKind while keeping the
// ReturnShapeKind enum values usable directly.
type BindingKindReturn = ReturnShapeKind

// ErrorDescriptor names the plan's declared failure variant: the
// operation's "failure exception descriptor".
type ErrorDescriptor struct {
	// ErrorType identifies which tagged-variant constructor the invocation
	// engine should invoke on an unexpected status. Construct is the
	// constructor itself; it receives the message, response, and decoded
	// body, and returns an error value, or an error if the shape does not
	// fit.
	ErrorType string
	Construct func(message string, resp *transport.Response, decodedBody any) (error, error)
	// ErrorBodyType names the type the decoder should attempt to parse
	// the error body into before handing it to Construct.
	ErrorBodyType any
}

// MethodPlan is the per-operation immutable plan produced by Parse. Once
// built, a MethodPlan exposes pure accessors only, and is safe for
// concurrent use by any number of calls.
type MethodPlan struct {
	name     string // operation identifier, as registered
	verb     transport.Verb
	scheme   string
	host     string
	pathTmpl string // "/items/{id}"
	bindings []Binding

	expectedStatus  map[int]struct{}
	errorDesc       ErrorDescriptor
	returnShape     ReturnShape
	responseWire    *BodyWireType // optional wire type for the response body
	bodyEncoding    codec.Encoding
	hasBodyEncoding bool

	fullyQualifiedName string
}

// FullyQualifiedName returns the telemetry-facing name for this operation.
func (p *MethodPlan) FullyQualifiedName() string { return p.fullyQualifiedName }

// Verb returns the HTTP method.
func (p *MethodPlan) Verb() transport.Verb { return p.verb }

// URLTemplate returns the scheme/host/path template with `{name}`
// placeholders.
func (p *MethodPlan) URLTemplate() (scheme, host, path string) {
	return p.scheme, p.host, p.pathTmpl
}

// Bindings returns the ordered parameter bindings.
func (p *MethodPlan) Bindings() []Binding {
	return append([]Binding(nil), p.bindings...)
}

// ErrorDescriptor returns the plan's declared failure variant.
func (p *MethodPlan) ErrorDescriptor() ErrorDescriptor { return p.errorDesc }

// ReturnShape returns the plan's declared return shape.
func (p *MethodPlan) ReturnShape() ReturnShape { return p.returnShape }

// ResponseBodyWire returns the declared wire type for the response body,
// if any (e.g. base64url-encoded bytes that must be decoded).
func (p *MethodPlan) ResponseBodyWire() (BodyWireType, bool) {
	if p.responseWire == nil {
		return 0, false
	}
	return *p.responseWire, true
}

// BodyEncoding returns the plan's explicitly-declared request Content-Type
// encoding, if the description specified one.
func (p *MethodPlan) BodyEncoding() (codec.Encoding, bool) {
	return p.bodyEncoding, p.hasBodyEncoding
}

// IsExpected implements status classification:
// success iff status is in the plan's expected set union the caller's
// extras. Ties (extraAllowed overlapping expectedSet) are still success.
// 1xx is never considered success unless explicitly present in the
// expected set (a plan may opt in explicitly).
func (p *MethodPlan) IsExpected(status int, extraAllowed ...int) bool {
	if _, ok := p.expectedStatus[status]; ok {
		return true
	}
	for _, s := range extraAllowed {
		if s == status && status >= 200 {
			return true
		}
	}
	return false
}

// ExpectedStatusSet returns a copy of the plan's declared expected status
// codes.
func (p *MethodPlan) ExpectedStatusSet() []int {
	out := make([]int, 0, len(p.expectedStatus))
	for s := range p.expectedStatus {
		out = append(out, s)
	}
	return out
}

// PathPlaceholders extracts every `{name}` placeholder referenced by the
// template, in order of first appearance.
func PathPlaceholders(tmpl string) []string {
	var out []string
	seen := map[string]bool{}
	i := 0
	for i < len(tmpl) {
		if tmpl[i] == '{' {
			j := i + 1
			for j < len(tmpl) && tmpl[j] != '}' {
				j++
			}
			if j < len(tmpl) {
				name := tmpl[i+1 : j]
				if !seen[name] {
					seen[name] = true
					out = append(out, name)
				}
				i = j + 1
				continue
			}
		}
		i++
	}
	return out
}

func (k BindingKind) String() string {
	switch k {
	case Path:
		return "Path"
	case Query:
		return "Query"
	case Header:
		return "Header"
	case Body:
		return "Body"
	case HostParameter:
		return "HostParameter"
	case ContextBinding:
		return "Context"
	default:
		return fmt.Sprintf("BindingKind(%d)", int(k))
	}
}
