package plan

import (
	"fmt"
	"strings"

	"github.com/deploymenttheory/go-restruntime/restruntime/codec"
	resterrors "github.com/deploymenttheory/go-restruntime/restruntime/errors"
	"github.com/deploymenttheory/go-restruntime/restruntime/transport"
)

// OperationDescription is the declarative input to Parse: everything a
// caller writes down once per REST operation, before it is compiled into
// a MethodPlan. Field names mirror MethodPlan's accessors; Parse is
// responsible for validating and freezing this into an immutable plan.
type OperationDescription struct {
	// Name identifies the operation for logging/tracing; combined with
	// Service to produce the plan's fully-qualified name.
	Name    string
	Service string

	Verb   transport.Verb
	Scheme string // defaults to "https"
	Host   string // may itself contain `{placeholder}` host parameters
	Path   string // "/items/{id}"

	Bindings []Binding

	// ExpectedStatus lists the status codes this operation treats as
	// success. Must be non-empty.
	ExpectedStatus []int

	ErrorDescriptor ErrorDescriptor
	ReturnShape     ReturnShape

	// ResponseBodyWire optionally declares a non-default wire shape for
	// the response body (e.g. base64url bytes).
	ResponseBodyWire *BodyWireType

	// BodyEncoding optionally pins the request Content-Type encoding,
	// overriding inference from the Body binding's Go value.
	BodyEncoding    codec.Encoding
	HasBodyEncoding bool
}

// Parse validates an OperationDescription and compiles it into an
// immutable MethodPlan. It never returns a partially-built plan: either
// every invariant holds and a complete plan is returned, or validation
// fails with a *errors.BadDescription and the returned plan is nil.
func Parse(desc OperationDescription) (*MethodPlan, error) {
	op := operationLabel(desc)

	if desc.Name == "" {
		return nil, &resterrors.BadDescription{Operation: op, Reason: "operation name is required"}
	}
	if desc.Host == "" {
		return nil, &resterrors.BadDescription{Operation: op, Reason: "host is required"}
	}
	if desc.Verb == "" {
		return nil, &resterrors.BadDescription{Operation: op, Reason: "HTTP verb is required"}
	}
	if len(desc.ExpectedStatus) == 0 {
		return nil, &resterrors.BadDescription{Operation: op, Reason: "at least one expected status code is required"}
	}

	scheme := desc.Scheme
	if scheme == "" {
		scheme = "https"
	}
	if scheme != "http" && scheme != "https" {
		return nil, &resterrors.BadDescription{Operation: op, Reason: fmt.Sprintf("unsupported scheme %q", scheme)}
	}

	if err := validateBindings(op, desc.Path, desc.Host, desc.Bindings); err != nil {
		return nil, err
	}

	if desc.ErrorDescriptor.Construct == nil {
		return nil, &resterrors.BadDescription{Operation: op, Reason: "error descriptor must supply a Construct function"}
	}

	expected := make(map[int]struct{}, len(desc.ExpectedStatus))
	for _, s := range desc.ExpectedStatus {
		if s < 100 || s > 599 {
			return nil, &resterrors.BadDescription{Operation: op, Reason: fmt.Sprintf("invalid status code %d", s)}
		}
		expected[s] = struct{}{}
	}

	fqName := op

	return &MethodPlan{
		name:            desc.Name,
		verb:            desc.Verb,
		scheme:          scheme,
		host:            desc.Host,
		pathTmpl:        desc.Path,
		bindings:        append([]Binding(nil), desc.Bindings...),
		expectedStatus:  expected,
		errorDesc:       desc.ErrorDescriptor,
		returnShape:     desc.ReturnShape,
		responseWire:    desc.ResponseBodyWire,
		bodyEncoding:    desc.BodyEncoding,
		hasBodyEncoding: desc.HasBodyEncoding,

		fullyQualifiedName: fqName,
	}, nil
}

func operationLabel(desc OperationDescription) string {
	if desc.Service != "" && desc.Name != "" {
		return desc.Service + "." + desc.Name
	}
	if desc.Name != "" {
		return desc.Name
	}
	return "<unnamed operation>"
}

// validateBindings checks the rules that must hold before a plan can be
// published:
//   - every `{name}` placeholder in path and host has exactly one Path or
//     HostParameter binding naming it,
//   - no placeholder is left unbound,
//   - no binding names a placeholder absent from path or host,
//   - at most one Body binding exists,
//   - Header bindings with Expand set carry a non-empty Prefix only when
//     the caller supplied one explicitly (empty Prefix is legal: it means
//     "use the mapping key as the full header name").
func validateBindings(op, path, host string, bindings []Binding) error {
	pathPlaceholders := placeholderSet(path)
	hostPlaceholders := placeholderSet(host)

	boundPath := map[string]bool{}
	boundHost := map[string]bool{}
	sawBody := false

	for i, b := range bindings {
		switch b.Kind {
		case Path:
			if b.Key == "" {
				return &resterrors.BadDescription{Operation: op, Reason: fmt.Sprintf("binding %d: Path binding requires a Key naming the placeholder", i)}
			}
			if !pathPlaceholders[b.Key] {
				return &resterrors.BadDescription{Operation: op, Reason: fmt.Sprintf("binding %d: Path binding %q does not match any placeholder in %q", i, b.Key, path)}
			}
			if boundPath[b.Key] {
				return &resterrors.BadDescription{Operation: op, Reason: fmt.Sprintf("placeholder %q is bound more than once", b.Key)}
			}
			boundPath[b.Key] = true

		case HostParameter:
			if b.Key == "" {
				return &resterrors.BadDescription{Operation: op, Reason: fmt.Sprintf("binding %d: HostParameter binding requires a Key naming the placeholder", i)}
			}
			if !hostPlaceholders[b.Key] {
				return &resterrors.BadDescription{Operation: op, Reason: fmt.Sprintf("binding %d: HostParameter binding %q does not match any placeholder in %q", i, b.Key, host)}
			}
			if boundHost[b.Key] {
				return &resterrors.BadDescription{Operation: op, Reason: fmt.Sprintf("host placeholder %q is bound more than once", b.Key)}
			}
			boundHost[b.Key] = true

		case Body:
			if sawBody {
				return &resterrors.BadDescription{Operation: op, Reason: "at most one Body binding is allowed"}
			}
			sawBody = true

		case Query, Header, ContextBinding:
			// no structural constraint beyond Name being set

		default:
			return &resterrors.BadDescription{Operation: op, Reason: fmt.Sprintf("binding %d: unknown binding kind %v", i, b.Kind)}
		}

		if b.Kind != Body && b.Name == "" {
			return &resterrors.BadDescription{Operation: op, Reason: fmt.Sprintf("binding %d: Name is required", i)}
		}
	}

	for name := range pathPlaceholders {
		if !boundPath[name] {
			return &resterrors.BadDescription{Operation: op, Reason: fmt.Sprintf("path placeholder %q has no Path binding", name)}
		}
	}
	for name := range hostPlaceholders {
		if !boundHost[name] {
			return &resterrors.BadDescription{Operation: op, Reason: fmt.Sprintf("host placeholder %q has no HostParameter binding", name)}
		}
	}

	return nil
}

func placeholderSet(tmpl string) map[string]bool {
	out := map[string]bool{}
	for _, name := range PathPlaceholders(tmpl) {
		out[strings.TrimSpace(name)] = true
	}
	return out
}
