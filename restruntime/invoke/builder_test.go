package invoke

import (
	"testing"

	"github.com/deploymenttheory/go-restruntime/restruntime/plan"
	"github.com/deploymenttheory/go-restruntime/restruntime/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestBuilderPostJSONBodyWithOverridingHeader covers the POST-with-body
// scenario: a JSON object body infers Content-Type: application/json in
// step 4, and a declared header binding is applied afterward in step 5,
// without disturbing the inferred Content-Type.
func TestBuilderPostJSONBodyWithOverridingHeader(t *testing.T) {
	p, err := plan.Parse(plan.OperationDescription{
		Name: "CreateWidget",
		Verb: transport.POST,
		Host: "api.example.com",
		Path: "/widgets",
		Bindings: []plan.Binding{
			{Kind: plan.Body, Name: "body", Wire: plan.BodyObject},
			{Kind: plan.Header, Name: "debug", Key: "X-Debug"},
		},
		ExpectedStatus:  []int{201},
		ErrorDescriptor: errorDescriptor(),
		ReturnShape:     plan.ReturnShape{Kind: plan.ReturnVoid},
	})
	require.NoError(t, err)

	rb := NewRequestBuilder(nil)
	req, err := rb.Build(p, Arguments{
		"body":  map[string]int{"a": 1},
		"debug": "on",
	})
	require.NoError(t, err)

	assert.Equal(t, "application/json", req.Headers.Get("Content-Type"))
	assert.Equal(t, "on", req.Headers.Get("X-Debug"))

	bytesBody, ok := req.Body.(transport.BytesBody)
	require.True(t, ok)
	assert.JSONEq(t, `{"a":1}`, string(bytesBody.Data))
}

// TestBuilderHeaderBindingOverridesInferredContentType asserts the header
// precedence invariant literally: a Header binding targeting Content-Type
// applied after body resolution wins over whatever step 4 inferred.
func TestBuilderHeaderBindingOverridesInferredContentType(t *testing.T) {
	p, err := plan.Parse(plan.OperationDescription{
		Name: "CreateWidget",
		Verb: transport.POST,
		Host: "api.example.com",
		Path: "/widgets",
		Bindings: []plan.Binding{
			{Kind: plan.Body, Name: "body", Wire: plan.BodyObject},
			{Kind: plan.Header, Name: "contentType", Key: "Content-Type"},
		},
		ExpectedStatus:  []int{201},
		ErrorDescriptor: errorDescriptor(),
		ReturnShape:     plan.ReturnShape{Kind: plan.ReturnVoid},
	})
	require.NoError(t, err)

	rb := NewRequestBuilder(nil)
	req, err := rb.Build(p, Arguments{
		"body":        map[string]int{"a": 1},
		"contentType": "application/merge-patch+json",
	})
	require.NoError(t, err)

	assert.Equal(t, "application/merge-patch+json", req.Headers.Get("Content-Type"))
}

// TestBuilderBodyBytesDefaultsToOctetStream covers the Bytes wire shape's
// Content-Type inference: octet-stream unless the plan declares an
// explicit BodyEncoding override.
func TestBuilderBodyBytesDefaultsToOctetStream(t *testing.T) {
	p, err := plan.Parse(plan.OperationDescription{
		Name: "UploadBlob",
		Verb: transport.PUT,
		Host: "api.example.com",
		Path: "/blobs/{id}",
		Bindings: []plan.Binding{
			{Kind: plan.Path, Name: "id", Key: "id"},
			{Kind: plan.Body, Name: "data", Wire: plan.BodyBytes},
		},
		ExpectedStatus:  []int{200},
		ErrorDescriptor: errorDescriptor(),
		ReturnShape:     plan.ReturnShape{Kind: plan.ReturnVoid},
	})
	require.NoError(t, err)

	rb := NewRequestBuilder(nil)
	req, err := rb.Build(p, Arguments{"id": "1", "data": []byte{0x01, 0x02, 0x03}})
	require.NoError(t, err)

	assert.Equal(t, "application/octet-stream", req.Headers.Get("Content-Type"))
	assert.Equal(t, "3", req.Headers.Get("Content-Length"))
}

// TestBuilderBodyTextDefaultsToOctetStream mirrors the Bytes case for the
// Text wire shape: a plain string body with no explicit BodyEncoding also
// defaults to octet-stream, not text/plain.
func TestBuilderBodyTextDefaultsToOctetStream(t *testing.T) {
	p, err := plan.Parse(plan.OperationDescription{
		Name:            "UploadNote",
		Verb:            transport.PUT,
		Host:            "api.example.com",
		Path:            "/notes",
		Bindings:        []plan.Binding{{Kind: plan.Body, Name: "text", Wire: plan.BodyText}},
		ExpectedStatus:  []int{200},
		ErrorDescriptor: errorDescriptor(),
		ReturnShape:     plan.ReturnShape{Kind: plan.ReturnVoid},
	})
	require.NoError(t, err)

	rb := NewRequestBuilder(nil)
	req, err := rb.Build(p, Arguments{"text": "hello"})
	require.NoError(t, err)

	assert.Equal(t, "application/octet-stream", req.Headers.Get("Content-Type"))
	textBody, ok := req.Body.(transport.TextBody)
	require.True(t, ok)
	assert.Equal(t, "hello", textBody.Text)
}
