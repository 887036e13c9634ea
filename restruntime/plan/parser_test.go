package plan

import (
	"testing"

	"github.com/deploymenttheory/go-restruntime/restruntime/codec"
	resterrors "github.com/deploymenttheory/go-restruntime/restruntime/errors"
	"github.com/deploymenttheory/go-restruntime/restruntime/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func simpleErrorDescriptor() ErrorDescriptor {
	return ErrorDescriptor{
		ErrorType: "default",
		Construct: func(message string, resp *transport.Response, decodedBody any) (error, error) {
			return &resterrors.UnexpectedStatus{Message: message}, nil
		},
	}
}

func TestParseSimpleGet(t *testing.T) {
	desc := OperationDescription{
		Name:    "GetItem",
		Service: "Items",
		Verb:    transport.GET,
		Host:    "api.example.com",
		Path:    "/items/{id}",
		Bindings: []Binding{
			{Kind: Path, Name: "id", Key: "id"},
		},
		ExpectedStatus:  []int{200},
		ErrorDescriptor: simpleErrorDescriptor(),
		ReturnShape:     ReturnShape{Kind: ReturnTyped},
	}

	p, err := Parse(desc)
	require.NoError(t, err)
	require.NotNil(t, p)

	assert.Equal(t, transport.GET, p.Verb())
	scheme, host, path := p.URLTemplate()
	assert.Equal(t, "https", scheme)
	assert.Equal(t, "api.example.com", host)
	assert.Equal(t, "/items/{id}", path)
	assert.True(t, p.IsExpected(200))
	assert.False(t, p.IsExpected(404))
	assert.True(t, p.IsExpected(404, 404))
	assert.Equal(t, "Items.GetItem", p.FullyQualifiedName())
}

func TestParseRejectsUnboundPathPlaceholder(t *testing.T) {
	desc := OperationDescription{
		Name:            "GetItem",
		Verb:            transport.GET,
		Host:            "api.example.com",
		Path:            "/items/{id}",
		ExpectedStatus:  []int{200},
		ErrorDescriptor: simpleErrorDescriptor(),
	}

	_, err := Parse(desc)
	require.Error(t, err)
	var bad *resterrors.BadDescription
	require.ErrorAs(t, err, &bad)
}

func TestParseRejectsBindingForMissingPlaceholder(t *testing.T) {
	desc := OperationDescription{
		Name: "GetItem",
		Verb: transport.GET,
		Host: "api.example.com",
		Path: "/items",
		Bindings: []Binding{
			{Kind: Path, Name: "id", Key: "id"},
		},
		ExpectedStatus:  []int{200},
		ErrorDescriptor: simpleErrorDescriptor(),
	}

	_, err := Parse(desc)
	require.Error(t, err)
	var bad *resterrors.BadDescription
	require.ErrorAs(t, err, &bad)
}

func TestParseRejectsDuplicateBodyBinding(t *testing.T) {
	desc := OperationDescription{
		Name: "CreateItem",
		Verb: transport.POST,
		Host: "api.example.com",
		Path: "/items",
		Bindings: []Binding{
			{Kind: Body, Name: "a", Wire: BodyObject},
			{Kind: Body, Name: "b", Wire: BodyObject},
		},
		ExpectedStatus:  []int{201},
		ErrorDescriptor: simpleErrorDescriptor(),
	}

	_, err := Parse(desc)
	require.Error(t, err)
	var bad *resterrors.BadDescription
	require.ErrorAs(t, err, &bad)
}

func TestParseRejectsEmptyExpectedStatus(t *testing.T) {
	desc := OperationDescription{
		Name:            "GetItem",
		Verb:            transport.GET,
		Host:            "api.example.com",
		Path:            "/items",
		ErrorDescriptor: simpleErrorDescriptor(),
	}

	_, err := Parse(desc)
	require.Error(t, err)
}

func TestParseRequiresErrorDescriptorConstructor(t *testing.T) {
	desc := OperationDescription{
		Name:           "GetItem",
		Verb:           transport.GET,
		Host:           "api.example.com",
		Path:           "/items",
		ExpectedStatus: []int{200},
	}

	_, err := Parse(desc)
	require.Error(t, err)
}

func TestParseHostParameterBinding(t *testing.T) {
	desc := OperationDescription{
		Name: "GetWorkspace",
		Verb: transport.GET,
		Host: "{workspace}.api.example.com",
		Path: "/status",
		Bindings: []Binding{
			{Kind: HostParameter, Name: "workspace", Key: "workspace"},
		},
		ExpectedStatus:  []int{200},
		ErrorDescriptor: simpleErrorDescriptor(),
	}

	p, err := Parse(desc)
	require.NoError(t, err)
	assert.Len(t, p.Bindings(), 1)
}

func TestParseBodyEncodingPreserved(t *testing.T) {
	desc := OperationDescription{
		Name:            "CreateItem",
		Verb:            transport.POST,
		Host:            "api.example.com",
		Path:            "/items",
		ExpectedStatus:  []int{201},
		ErrorDescriptor: simpleErrorDescriptor(),
		BodyEncoding:    codec.XML,
		HasBodyEncoding: true,
	}

	p, err := Parse(desc)
	require.NoError(t, err)
	enc, ok := p.BodyEncoding()
	require.True(t, ok)
	assert.Equal(t, codec.XML, enc)
}

func TestMethodPlanIsImmutableAcrossCalls(t *testing.T) {
	desc := OperationDescription{
		Name: "GetItem",
		Verb: transport.GET,
		Host: "api.example.com",
		Path: "/items/{id}",
		Bindings: []Binding{
			{Kind: Path, Name: "id", Key: "id"},
		},
		ExpectedStatus:  []int{200},
		ErrorDescriptor: simpleErrorDescriptor(),
	}
	p, err := Parse(desc)
	require.NoError(t, err)

	bindings := p.Bindings()
	bindings[0].Key = "mutated"

	assert.Equal(t, "id", p.Bindings()[0].Key)
}
