package invoke

// Envelope is the decoded form produced for the Envelope return shape: the
// status and raw header map travel alongside whatever the decoding layer
// attached to the response, rather than handing the caller only the
// unwrapped body the way the Typed shape does.
//
// DecodedHeaders is populated automatically from the response (see
// Engine's DecodeHook wiring). DecodedBody is populated only if the
// caller pre-sets it to a non-nil target (e.g. &Envelope{DecodedBody:
// &myStruct{}}) before invoking; a caller that does not care about the
// body leaves it nil and the body is drained unread.
type Envelope struct {
	Status         int
	Headers        map[string][]string
	DecodedHeaders any
	DecodedBody    any
}
