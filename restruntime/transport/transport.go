package transport

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	restclienterrors "github.com/deploymenttheory/go-restruntime/restruntime/errors"
	"resty.dev/v3"
)

// Transport is the consumed external collaborator: send(HttpRequest) ->
// async Response. It never fails synchronously; failures surface as
// *errors.TransportFailure from the returned error.
type Transport interface {
	Send(ctx context.Context, req *Request) (*Response, error)
}

// RestyTransport is the default concrete Transport, backed by
// resty.dev/v3, the same HTTP library the prior workbrew client builds on.
// It owns none of the pipeline's policy behavior (retry, auth, cookies,
// ...); it only performs the wire exchange, TLS, and connection pooling.
type RestyTransport struct {
	client *resty.Client
}

// NewRestyTransport wraps an existing *resty.Client, or creates a default
// one if nil.
func NewRestyTransport(client *resty.Client) *RestyTransport {
	if client == nil {
		client = resty.New()
	}
	return &RestyTransport{client: client}
}

// Client returns the underlying resty client so callers can configure
// TLS/proxy/timeouts the way the prior workbrew client's client options do.
func (t *RestyTransport) Client() *resty.Client {
	return t.client
}

// Send implements Transport.
func (t *RestyTransport) Send(ctx context.Context, req *Request) (*Response, error) {
	r := t.client.R().SetContext(ctx).SetDoNotParseResponse(true)

	req.Headers.Range(func(key string, values []string) {
		for _, v := range values {
			r.AddHeader(key, v)
		}
	})

	switch body := req.Body.(type) {
	case NoBody:
		// nothing to attach
	case BytesBody:
		r.SetBody(body.Data)
	case TextBody:
		r.SetBody(body.Text)
	case StreamBody:
		r.SetBody(body.Reader)
	}

	resp, err := r.Execute(string(req.Verb), req.URL)
	if err != nil {
		return nil, classifyTransportError(err)
	}

	respHeaders := NewHeaders()
	for k, vs := range resp.Header() {
		for _, v := range vs {
			respHeaders.Add(k, v)
		}
	}

	var rc io.ReadCloser
	if rb := resp.RawBody(); rb != nil {
		rc = rb
	} else {
		rc = io.NopCloser(nil)
	}

	return &Response{
		Status:     resp.StatusCode(),
		Headers:    respHeaders,
		Body:       NewBodyReader(rc),
		Request:    req,
		ReceivedAt: resp.ReceivedAt(),
		Duration:   resp.Duration(),
	}, nil
}

func classifyTransportError(err error) error {
	kind := restclienterrors.ConnectionFailed
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		kind = restclienterrors.Timeout
	} else if errors.Is(err, context.DeadlineExceeded) {
		kind = restclienterrors.Timeout
	} else if errors.Is(err, http.ErrHandlerTimeout) {
		kind = restclienterrors.Timeout
	}
	return &restclienterrors.TransportFailure{Kind: kind, Err: err}
}

// Sleep is a context-aware delay primitive used by the retry policy; it
// returns early (with ctx.Err()) on cancellation rather than blocking the
// full duration, so retry backoffs stay cooperatively cancellable.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
