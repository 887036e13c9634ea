package invoke

import (
	"github.com/deploymenttheory/go-restruntime/restruntime/codec"
	resterrors "github.com/deploymenttheory/go-restruntime/restruntime/errors"
	"github.com/deploymenttheory/go-restruntime/restruntime/plan"
	"github.com/deploymenttheory/go-restruntime/restruntime/transport"
)

// ResponseDecoder buffers a response body once and memoizes its
// deserialized form, so a call site and the invocation engine's own
// status-validation logic can both inspect the decoded value without
// re-reading the wire or double-decoding.
type ResponseDecoder struct {
	Codec codec.Codec
}

// NewResponseDecoder builds a decoder backed by c. A nil c falls back to
// codec.NewStandardCodec().
func NewResponseDecoder(c codec.Codec) *ResponseDecoder {
	if c == nil {
		c = codec.NewStandardCodec()
	}
	return &ResponseDecoder{Codec: c}
}

// DecodeInto buffers resp's body and deserializes it into target,
// inferring the wire encoding from the response's Content-Type header
// unless the plan declares one explicitly. The decoded value (or the
// buffered bytes, for a nil target) is memoized onto resp via
// SetDecodedBody so repeated access is free.
func (d *ResponseDecoder) DecodeInto(op string, p *plan.MethodPlan, resp *transport.Response, target any) error {
	if resp.Body == nil {
		return nil
	}

	buffered, err := resp.Body.Buffer()
	if err != nil {
		return &resterrors.DecodingFailure{Operation: op, Err: err}
	}
	raw := buffered.Bytes()

	if target == nil {
		resp.SetDecodedBody(raw)
		return nil
	}

	enc, ok := p.BodyEncoding()
	if !ok {
		inferred, err := d.Codec.EncodingFromHeaders(resp.Headers.Get("Content-Type"))
		if err != nil {
			return &resterrors.DecodingFailure{Operation: op, Err: err}
		}
		enc = inferred
	}

	if len(raw) == 0 {
		resp.SetDecodedBody(target)
		return nil
	}

	if err := d.Codec.Deserialize(raw, target, enc); err != nil {
		return &resterrors.DecodingFailure{Operation: op, Err: err}
	}

	resp.SetDecodedBody(target)
	return nil
}

// DecodeBytesShape applies the BodyIsBase64URL translation for a Bytes
// return shape, returning the raw response bytes (decoding base64url
// first if the plan declares that wire shape).
func DecodeBytesShape(op string, p *plan.MethodPlan, resp *transport.Response) ([]byte, error) {
	buffered, err := resp.Body.Buffer()
	if err != nil {
		return nil, &resterrors.DecodingFailure{Operation: op, Err: err}
	}
	raw := buffered.Bytes()

	shape := p.ReturnShape()
	wire, hasWire := p.ResponseBodyWire()
	if hasWire && wire == plan.BodyBytes && shape.BodyIsBase64URL {
		decoded, err := decodeBase64URLBytes(string(raw))
		if err != nil {
			return nil, &resterrors.DecodingFailure{Operation: op, Err: err}
		}
		return decoded, nil
	}
	return raw, nil
}
