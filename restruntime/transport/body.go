package transport

import (
	"bytes"
	"io"
)

// Body is the closed set of request body shapes: none | bytes | text |
// lazy chunk stream.
type Body interface {
	isBody()
}

// NoBody represents the absence of a request body.
type NoBody struct{}

func (NoBody) isBody() {}

// BytesBody carries a raw byte payload (e.g. already-serialized JSON, or a
// user-supplied octet-stream).
type BytesBody struct {
	Data []byte
}

func (BytesBody) isBody() {}

// TextBody carries a UTF-8 (or caller-declared charset) text payload.
type TextBody struct {
	Text string
}

func (TextBody) isBody() {}

// StreamBody carries a lazy chunk stream; the caller is responsible for
// Content-Length/Transfer-Encoding consistency.
type StreamBody struct {
	Reader io.ReadCloser
}

func (StreamBody) isBody() {}

// BodyReader is the lazy response body: it can be materialized as bytes,
// as text, or left unread and discarded, and it may be consumed at most
// once unless wrapped by Buffer.
type BodyReader struct {
	rc       io.ReadCloser
	consumed bool
	buffered *BufferedBody
}

// NewBodyReader wraps rc as a single-use BodyReader.
func NewBodyReader(rc io.ReadCloser) *BodyReader {
	if rc == nil {
		rc = io.NopCloser(bytes.NewReader(nil))
	}
	return &BodyReader{rc: rc}
}

// ErrBodyAlreadyConsumed is returned by Raw/Bytes/Text when the body was
// already read once and is not buffered: a body may be read at most once.
// Discard on an already-consumed body is a no-op and returns nil.
type ErrBodyAlreadyConsumed struct{}

func (ErrBodyAlreadyConsumed) Error() string { return "response body already consumed" }

// Raw hands ownership of the underlying stream to the caller, for the
// Stream return shape where the body is meant to be read lazily rather
// than materialized. It marks the reader consumed; the caller is
// responsible for closing the returned io.ReadCloser.
func (b *BodyReader) Raw() (io.ReadCloser, error) {
	if b.buffered != nil {
		return b.buffered.Reader(), nil
	}
	if b.consumed {
		return nil, ErrBodyAlreadyConsumed{}
	}
	b.consumed = true
	return b.rc, nil
}

// Bytes materializes the full body. Subsequent calls fail unless the body
// was produced via Buffer.
func (b *BodyReader) Bytes() ([]byte, error) {
	if b.buffered != nil {
		return b.buffered.Bytes(), nil
	}
	if b.consumed {
		return nil, ErrBodyAlreadyConsumed{}
	}
	b.consumed = true
	defer b.rc.Close()
	return io.ReadAll(b.rc)
}

// Text materializes the body as a string. See Bytes for consumption rules.
func (b *BodyReader) Text() (string, error) {
	data, err := b.Bytes()
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Discard drains and closes the body without returning its content.
func (b *BodyReader) Discard() error {
	if b.buffered != nil {
		return nil
	}
	if b.consumed {
		return nil
	}
	b.consumed = true
	defer b.rc.Close()
	_, err := io.Copy(io.Discard, b.rc)
	return err
}

// Buffer eagerly drains the body into memory and re-exposes it as a
// replayable BufferedBody, the opt-in escape hatch from the at-most-once
// consumption rule.
func (b *BodyReader) Buffer() (*BufferedBody, error) {
	if b.buffered != nil {
		return b.buffered, nil
	}
	data, err := b.Bytes()
	if err != nil {
		return nil, err
	}
	b.buffered = &BufferedBody{data: data}
	b.consumed = false
	return b.buffered, nil
}

// Buffered reports whether the body has already been materialized into a
// replayable BufferedBody, and returns it if so.
func (b *BodyReader) Buffered() (*BufferedBody, bool) {
	if b.buffered == nil {
		return nil, false
	}
	return b.buffered, true
}

// BufferedBody is the replayable form produced by BodyReader.Buffer.
type BufferedBody struct {
	data []byte
}

// Bytes returns the buffered content; it may be called any number of times.
func (b *BufferedBody) Bytes() []byte { return b.data }

// Reader returns a fresh reader over the buffered content.
func (b *BufferedBody) Reader() io.ReadCloser {
	return io.NopCloser(bytes.NewReader(b.data))
}
