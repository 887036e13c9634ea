package client

import (
	"context"
	"net/http"
	"testing"
	"time"

	resterrors "github.com/deploymenttheory/go-restruntime/restruntime/errors"
	"github.com/deploymenttheory/go-restruntime/restruntime/invoke"
	"github.com/deploymenttheory/go-restruntime/restruntime/plan"
	"github.com/deploymenttheory/go-restruntime/restruntime/transport"
	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type apiError struct {
	Code string `json:"code"`
}

func errorDescriptor() plan.ErrorDescriptor {
	return plan.ErrorDescriptor{
		ErrorType:     "ApiError",
		ErrorBodyType: &apiError{},
		Construct: func(message string, resp *transport.Response, decodedBody any) (error, error) {
			return &resterrors.UnexpectedStatus{Message: message, StatusCode: resp.Status}, nil
		},
	}
}

func newMockedClient(t *testing.T, opts ...Option) *Client {
	t.Helper()
	allOpts := append([]Option{WithLogger(zap.NewNop())}, opts...)
	c, err := New(allOpts...)
	require.NoError(t, err)

	httpmock.ActivateNonDefault(c.RestyClient().Client())
	t.Cleanup(httpmock.DeactivateAndReset)
	return c
}

func TestClientSimpleGetWithPathParameter(t *testing.T) {
	c := newMockedClient(t)

	httpmock.RegisterResponder("GET", "https://api.example.com/items/abc",
		httpmock.NewStringResponder(200, `{"name":"widget"}`))

	p, err := c.RegisterOperation(plan.OperationDescription{
		Name:     "GetItem",
		Verb:     transport.GET,
		Host:     "api.example.com",
		Path:     "/items/{id}",
		Bindings: []plan.Binding{{Kind: plan.Path, Name: "id", Key: "id"}},
		ExpectedStatus:  []int{200},
		ErrorDescriptor: errorDescriptor(),
		ReturnShape:     plan.ReturnShape{Kind: plan.ReturnTyped},
	})
	require.NoError(t, err)

	var result map[string]string
	err = c.Invoke(context.Background(), p.FullyQualifiedName(), invoke.Arguments{"id": "abc"}, &result)
	require.NoError(t, err)
	assert.Equal(t, "widget", result["name"])
	assert.Equal(t, 1, httpmock.GetTotalCallCount())
}

func TestClientUnexpectedStatusWithTypedError(t *testing.T) {
	c := newMockedClient(t)

	httpmock.RegisterResponder("GET", "https://api.example.com/items",
		httpmock.NewStringResponder(404, `{"code":"NotFound"}`))

	p, err := c.RegisterOperation(plan.OperationDescription{
		Name:            "ListItems",
		Verb:            transport.GET,
		Host:            "api.example.com",
		Path:            "/items",
		ExpectedStatus:  []int{200},
		ErrorDescriptor: errorDescriptor(),
		ReturnShape:     plan.ReturnShape{Kind: plan.ReturnTyped},
	})
	require.NoError(t, err)

	var result map[string]string
	err = c.Invoke(context.Background(), p.FullyQualifiedName(), invoke.Arguments{}, &result)
	require.Error(t, err)
	var unexpected *resterrors.UnexpectedStatus
	require.ErrorAs(t, err, &unexpected)
	assert.Equal(t, 404, unexpected.StatusCode)
}

func TestClientRetryOn503ThenSuccess(t *testing.T) {
	c := newMockedClient(t, WithRetryCount(3), WithRetryDelay(10*time.Millisecond), WithRetryMaxDelay(50*time.Millisecond))

	attempt := 0
	httpmock.RegisterResponder("GET", "https://api.example.com/flaky",
		func(req *http.Request) (*http.Response, error) {
			attempt++
			if attempt < 3 {
				return httpmock.NewStringResponse(503, "unavailable"), nil
			}
			return httpmock.NewStringResponse(200, `{"ok":true}`), nil
		})

	p, err := c.RegisterOperation(plan.OperationDescription{
		Name:            "GetFlaky",
		Verb:            transport.GET,
		Host:            "api.example.com",
		Path:            "/flaky",
		ExpectedStatus:  []int{200},
		ErrorDescriptor: errorDescriptor(),
		ReturnShape:     plan.ReturnShape{Kind: plan.ReturnTyped},
	})
	require.NoError(t, err)

	start := time.Now()
	var result map[string]bool
	err = c.Invoke(context.Background(), p.FullyQualifiedName(), invoke.Arguments{}, &result)
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.True(t, result["ok"])
	assert.Equal(t, 3, attempt)
	assert.GreaterOrEqual(t, elapsed, 20*time.Millisecond)
}

func TestClientHeadReturningBoolean(t *testing.T) {
	c := newMockedClient(t)

	httpmock.RegisterResponder("HEAD", "https://api.example.com/obj/1",
		httpmock.NewStringResponder(204, ""))

	p, err := c.RegisterOperation(plan.OperationDescription{
		Name:            "ObjectExists",
		Verb:            transport.HEAD,
		Host:            "api.example.com",
		Path:            "/obj/{id}",
		Bindings:        []plan.Binding{{Kind: plan.Path, Name: "id", Key: "id"}},
		ExpectedStatus:  []int{200, 204, 404},
		ErrorDescriptor: errorDescriptor(),
		ReturnShape:     plan.ReturnShape{Kind: plan.ReturnBoolean},
	})
	require.NoError(t, err)

	var exists bool
	err = c.Invoke(context.Background(), p.FullyQualifiedName(), invoke.Arguments{"id": "1"}, &exists)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestClientInvokeUnregisteredOperation(t *testing.T) {
	c := newMockedClient(t)

	var result map[string]string
	err := c.Invoke(context.Background(), "Missing.Operation", invoke.Arguments{}, &result)
	require.Error(t, err)
	var bad *resterrors.BadDescription
	require.ErrorAs(t, err, &bad)
}

func TestClientResumeDefaultsToUnsupported(t *testing.T) {
	c := newMockedClient(t)

	token, err := invoke.Encode("GetItem", "corr-1", map[string]string{"id": "abc"})
	require.NoError(t, err)

	_, err = c.Resume(context.Background(), token)
	require.Error(t, err)
	var notSupported *resterrors.NotSupported
	require.ErrorAs(t, err, &notSupported)
}
