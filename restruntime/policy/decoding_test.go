package policy

import (
	"testing"

	"github.com/deploymenttheory/go-restruntime/restruntime/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodingPolicyInvokesDecodeHookWhenSet(t *testing.T) {
	var hookSawStatus int
	ctx := newTestContext(newTestRequest())
	ctx.DecodeHook = func(resp *transport.Response) {
		hookSawStatus = resp.Status
	}

	tr := &recordingTransport{resp: &transport.Response{Status: 201, Headers: transport.NewHeaders()}}
	p := New(tr, NewDecodingPolicy())

	_, err := p.Send(ctx)
	require.NoError(t, err)
	assert.Equal(t, 201, hookSawStatus)
}

func TestDecodingPolicyToleratesNilHook(t *testing.T) {
	ctx := newTestContext(newTestRequest())
	tr := &recordingTransport{resp: &transport.Response{Status: 200, Headers: transport.NewHeaders()}}
	p := New(tr, NewDecodingPolicy())

	resp, err := p.Send(ctx)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.Status)
}

func TestDecodingPolicySkipsHookOnTransportError(t *testing.T) {
	called := false
	ctx := newTestContext(newTestRequest())
	ctx.DecodeHook = func(resp *transport.Response) { called = true }

	tr := &erroringTransport{err: assert.AnError}
	p := New(tr, NewDecodingPolicy())

	_, err := p.Send(ctx)
	assert.Error(t, err)
	assert.False(t, called)
}
