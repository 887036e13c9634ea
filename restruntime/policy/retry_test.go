package policy

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/deploymenttheory/go-restruntime/restruntime/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flakyTransport struct {
	statuses []int
	calls    int
}

func (f *flakyTransport) Send(ctx context.Context, req *transport.Request) (*transport.Response, error) {
	status := f.statuses[f.calls]
	f.calls++
	return &transport.Response{Status: status, Headers: transport.NewHeaders(), Body: transport.NewBodyReader(nil)}, nil
}

func fastRetryPolicy() *RetryPolicy {
	rp := NewRetryPolicy()
	rp.RetryDelay = time.Millisecond
	rp.MaxRetryDelay = 5 * time.Millisecond
	return rp
}

func TestRetryPolicyRetriesOnRetriableStatusThenSucceeds(t *testing.T) {
	tr := &flakyTransport{statuses: []int{503, 503, 200}}
	p := New(tr, fastRetryPolicy())

	resp, err := p.Send(newTestContext(newTestRequest()))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.Status)
	assert.Equal(t, 3, tr.calls)
}

func TestRetryPolicyGivesUpAfterMaxRetries(t *testing.T) {
	tr := &flakyTransport{statuses: []int{503, 503, 503, 503, 503}}
	rp := fastRetryPolicy()
	rp.MaxRetries = 2
	p := New(tr, rp)

	resp, err := p.Send(newTestContext(newTestRequest()))
	require.NoError(t, err)
	assert.Equal(t, 503, resp.Status)
	assert.Equal(t, 3, tr.calls) // 1 initial + 2 retries
}

func TestRetryPolicyDoesNotRetryNonRetriableStatus(t *testing.T) {
	tr := &flakyTransport{statuses: []int{404}}
	p := New(tr, fastRetryPolicy())

	resp, err := p.Send(newTestContext(newTestRequest()))
	require.NoError(t, err)
	assert.Equal(t, 404, resp.Status)
	assert.Equal(t, 1, tr.calls)
}

func TestRetryPolicyDoesNotRetry501Or505(t *testing.T) {
	for _, status := range []int{501, 505} {
		tr := &flakyTransport{statuses: []int{status}}
		p := New(tr, fastRetryPolicy())

		resp, err := p.Send(newTestContext(newTestRequest()))
		require.NoError(t, err)
		assert.Equal(t, status, resp.Status)
		assert.Equal(t, 1, tr.calls)
	}
}

type erroringTransport struct {
	err   error
	calls int
}

func (e *erroringTransport) Send(ctx context.Context, req *transport.Request) (*transport.Response, error) {
	e.calls++
	return nil, e.err
}

func TestRetryPolicyRetriesOnTransportError(t *testing.T) {
	tr := &erroringTransport{err: errors.New("connection reset")}
	rp := fastRetryPolicy()
	rp.MaxRetries = 2
	p := New(tr, rp)

	_, err := p.Send(newTestContext(newTestRequest()))
	assert.Error(t, err)
	assert.Equal(t, 3, tr.calls)
}

func TestRetryPolicyHonorsRetryAfterSeconds(t *testing.T) {
	headers := transport.NewHeaders()
	headers.Set("Retry-After", "0")
	tr := &recordingTransport{resp: &transport.Response{Status: 503, Headers: headers, Body: transport.NewBodyReader(nil)}}
	rp := fastRetryPolicy()
	rp.MaxRetries = 1
	p := New(tr, rp)

	_, err := p.Send(newTestContext(newTestRequest()))
	require.NoError(t, err)
	assert.Equal(t, 2, len(tr.reqs))
}

func TestRetryPolicyCustomShouldRetryOverridesDefault(t *testing.T) {
	tr := &flakyTransport{statuses: []int{200, 200}}
	rp := fastRetryPolicy()
	calls := 0
	rp.ShouldRetry = func(resp *transport.Response, err error) bool {
		calls++
		return calls == 1
	}
	p := New(tr, rp)

	resp, err := p.Send(newTestContext(newTestRequest()))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.Status)
	assert.Equal(t, 2, tr.calls)
}
