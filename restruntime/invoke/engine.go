package invoke

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/deploymenttheory/go-restruntime/restruntime/codec"
	resterrors "github.com/deploymenttheory/go-restruntime/restruntime/errors"
	"github.com/deploymenttheory/go-restruntime/restruntime/plan"
	"github.com/deploymenttheory/go-restruntime/restruntime/policy"
	"github.com/deploymenttheory/go-restruntime/restruntime/transport"
)

// Pipeline is the subset of policy.Pipeline the engine depends on,
// narrowed to ease substitution in tests.
type Pipeline interface {
	Send(ctx *policy.Context) (*transport.Response, error)
}

// Engine is the invocation engine: it drives one call end to end through
// plan lookup (performed by the caller before Invoke), request building,
// pipeline submission, response decoding, status validation, and
// return-shape reshaping.
//
// A call passes through the states Created -> Dispatched -> Responded ->
// (Validated | Failed) -> (Decoded | Streamed | Drained) -> Done. Invoke
// does not expose these states directly; they describe the sequencing
// invariant that a response is never reshaped before its status has been
// validated, and a body is read at most once regardless of which branch
// is taken.
type Engine struct {
	Pipeline Pipeline
	Builder  *RequestBuilder
	Decoder  *ResponseDecoder
}

// NewEngine builds an Engine from a pipeline and a codec (nil falls back
// to the standard JSON/XML/form/text codec).
func NewEngine(p Pipeline, c codec.Codec) *Engine {
	return &Engine{
		Pipeline: p,
		Builder:  NewRequestBuilder(c),
		Decoder:  NewResponseDecoder(c),
	}
}

// Invoke executes one call of m with the given call-site arguments,
// decoding into result according to m's declared return shape:
//   - ReturnVoid: result is ignored, body is drained.
//   - ReturnBoolean: result must be a *bool; it receives 2xx-or-not.
//   - ReturnBytes: result must be a *[]byte.
//   - ReturnStream: result must be a *io.ReadCloser; the caller owns
//     closing it and must not rely on the engine draining it.
//   - ReturnEnvelope, ReturnTyped: result is decoded via the codec.
//
// extraAllowedStatus supplements the plan's own expected-status set for
// this one call (e.g. a caller that wants to treat 404 as success for a
// HEAD-style existence check).
func (e *Engine) Invoke(ctx context.Context, m *plan.MethodPlan, args Arguments, result any, extraAllowedStatus ...int) error {
	op := m.FullyQualifiedName()

	req, err := e.Builder.Build(m, args)
	if err != nil {
		return err
	}

	pctx := policy.NewContext(ctx, req, op)
	for _, b := range m.Bindings() {
		if b.Kind != plan.ContextBinding {
			continue
		}
		if v, ok := args[b.Name]; ok {
			pctx.Set(b.Name, v)
		}
	}
	if len(extraAllowedStatus) > 0 {
		pctx.SetExtraAllowedStatus(extraAllowedStatus)
	}
	pctx.DecodeHook = attachDecodedHeaders

	resp, err := e.Pipeline.Send(pctx)
	if err != nil {
		if resterrors.IsCancelled(err) {
			return err
		}
		return err
	}

	if !m.IsExpected(resp.Status, pctx.ExtraAllowedStatus()...) {
		return e.buildUnexpectedStatusError(op, m, resp)
	}

	return e.reshape(op, m, resp, result)
}

func (e *Engine) buildUnexpectedStatusError(op string, m *plan.MethodPlan, resp *transport.Response) error {
	errDesc := m.ErrorDescriptor()

	var decodedBody any
	var rawBody []byte
	bodyIsBinary := false

	if resp.Body != nil {
		if buffered, err := resp.Body.Buffer(); err == nil {
			rawBody = buffered.Bytes()
			if _, encErr := codec.EncodingFromContentType(resp.Headers.Get("Content-Type")); encErr != nil {
				bodyIsBinary = true
			}
			if errDesc.ErrorBodyType != nil {
				if derr := e.Decoder.DecodeInto(op, m, resp, errDesc.ErrorBodyType); derr == nil {
					decodedBody = errDesc.ErrorBodyType
				}
			}
		}
	}

	message := resterrors.NewUnexpectedStatus(op, resp.Status, httpStatusText(resp.Status), rawBody, bodyIsBinary, decodedBody).Message

	constructed, constructErr := errDesc.Construct(message, resp, decodedBody)
	if constructErr != nil {
		generic := resterrors.NewUnexpectedStatus(op, resp.Status, httpStatusText(resp.Status), rawBody, bodyIsBinary, decodedBody)
		return fmt.Errorf("%w (%w)", generic, &resterrors.ErrorTypeConstructionFailed{Operation: op, ErrorType: errDesc.ErrorType, Err: constructErr})
	}
	if constructed == nil {
		return resterrors.NewUnexpectedStatus(op, resp.Status, httpStatusText(resp.Status), rawBody, bodyIsBinary, decodedBody)
	}
	return constructed
}

func (e *Engine) reshape(op string, m *plan.MethodPlan, resp *transport.Response, result any) error {
	shape := m.ReturnShape()

	switch shape.Kind {
	case plan.ReturnVoid:
		if resp.Body != nil {
			resp.Body.Discard()
		}
		return nil

	case plan.ReturnBoolean:
		b, ok := result.(*bool)
		if !ok {
			return &resterrors.BadDescription{Operation: op, Reason: "Boolean return shape requires a *bool result"}
		}
		*b = resp.IsSuccess()
		if resp.Body != nil {
			resp.Body.Discard()
		}
		return nil

	case plan.ReturnBytes:
		out, ok := result.(*[]byte)
		if !ok {
			return &resterrors.BadDescription{Operation: op, Reason: "Bytes return shape requires a *[]byte result"}
		}
		data, err := DecodeBytesShape(op, m, resp)
		if err != nil {
			return err
		}
		*out = data
		return nil

	case plan.ReturnStream:
		out, ok := result.(*io.ReadCloser)
		if !ok {
			return &resterrors.BadDescription{Operation: op, Reason: "Stream return shape requires a *io.ReadCloser result"}
		}
		if resp.Body == nil {
			*out = io.NopCloser(nil)
			return nil
		}
		rc, err := resp.Body.Raw()
		if err != nil {
			return &resterrors.DecodingFailure{Operation: op, Err: err}
		}
		*out = rc
		return nil

	case plan.ReturnEnvelope:
		env, ok := result.(*Envelope)
		if !ok {
			return &resterrors.BadDescription{Operation: op, Reason: "Envelope return shape requires a *invoke.Envelope result"}
		}
		env.Status = resp.Status
		headers := make(map[string][]string, len(resp.Headers.Keys()))
		for _, k := range resp.Headers.Keys() {
			headers[k] = resp.Headers.Values(k)
		}
		env.Headers = headers
		if dh, ok := resp.DecodedHeaders(); ok {
			env.DecodedHeaders = dh
		}
		if env.DecodedBody != nil {
			return e.Decoder.DecodeInto(op, m, resp, env.DecodedBody)
		}
		if resp.Body != nil {
			resp.Body.Discard()
		}
		return nil

	case plan.ReturnTyped:
		if result == nil {
			if resp.Body != nil {
				resp.Body.Discard()
			}
			return nil
		}
		return e.Decoder.DecodeInto(op, m, resp, result)

	default:
		return &resterrors.BadDescription{Operation: op, Reason: "unknown return shape"}
	}
}

func httpStatusText(code int) string {
	return http.StatusText(code)
}

// attachDecodedHeaders is the Context.DecodeHook installed by Invoke for
// every call, giving policy.DecodingPolicy something to do: it snapshots
// the response's headers into the deserialized-headers handle the moment
// the response is received, before any outer policy (retry, tracing, ...)
// sees it. The body's deserialized handle stays lazy, populated on demand
// by ResponseDecoder.DecodeInto when reshape or error-construction needs
// it, rather than eagerly here.
func attachDecodedHeaders(resp *transport.Response) {
	headers := make(map[string][]string, len(resp.Headers.Keys()))
	for _, k := range resp.Headers.Keys() {
		headers[k] = resp.Headers.Values(k)
	}
	resp.SetDecodedHeaders(headers)
}
