package transport

import "time"

// Response is the lazily-bodied HTTP response. Its two optional
// side-channels (deserialized headers/body) are attached by the decoding
// policy/decoder and are not populated by the transport itself.
type Response struct {
	Status  int
	Headers *Headers
	Body    *BodyReader
	Request *Request

	// ReceivedAt/Duration are carried for telemetry/logging, following the
	// prior workbrew client's interfaces.Response shape (ReceivedAt,
	// Duration).
	ReceivedAt time.Time
	Duration   time.Duration

	// decodedHeaders/decodedBody are set by the decoding layer; accessed
	// through accessor methods so the zero value of Response stays usable.
	decodedHeaders any
	decodedBody    any
	hasDecodedHdr  bool
	hasDecodedBody bool
}

// SetDecodedHeaders attaches the lazily-deserialized header model computed
// by the response decoder.
func (r *Response) SetDecodedHeaders(v any) {
	r.decodedHeaders = v
	r.hasDecodedHdr = true
}

// DecodedHeaders returns the previously attached deserialized-headers
// handle, if any.
func (r *Response) DecodedHeaders() (any, bool) {
	return r.decodedHeaders, r.hasDecodedHdr
}

// SetDecodedBody attaches the lazily-deserialized body value computed by
// the response decoder.
func (r *Response) SetDecodedBody(v any) {
	r.decodedBody = v
	r.hasDecodedBody = true
}

// DecodedBody returns the previously attached deserialized-body handle, if
// any.
func (r *Response) DecodedBody() (any, bool) {
	return r.decodedBody, r.hasDecodedBody
}

// IsSuccess is a convenience used by the Boolean (HEAD-only) return shape:
// 200 <= status < 300.
func (r *Response) IsSuccess() bool {
	return r.Status >= 200 && r.Status < 300
}
