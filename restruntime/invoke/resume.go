package invoke

import (
	"context"
	"encoding/json"

	resterrors "github.com/deploymenttheory/go-restruntime/restruntime/errors"
)

// ResumeToken is the wire format for reattaching to a long-running
// operation: a JSON-encoded snapshot of the OperationDescription that
// started it, plus a correlation id so server-side logs and client-side
// retries can be tied back to the originating call.
type ResumeToken struct {
	CorrelationID string          `json:"correlationId"`
	OperationName string          `json:"operationName"`
	Description   json.RawMessage `json:"description"`
}

// Encode serializes an operation identifier and its raw description into
// a resumable token, stamping correlationID for later correlation.
func Encode(operationName, correlationID string, description any) (*ResumeToken, error) {
	raw, err := json.Marshal(description)
	if err != nil {
		return nil, &resterrors.SerializationFailure{Operation: operationName, Err: err}
	}
	return &ResumeToken{
		CorrelationID: correlationID,
		OperationName: operationName,
		Description:   raw,
	}, nil
}

// ResumeHook reattaches to a previously-started long-running operation
// given its resume token. The default implementation, Unsupported,
// returns *errors.NotSupported: resumption requires operation-specific
// knowledge of how to poll or re-subscribe, which this runtime does not
// provide out of the box.
type ResumeHook func(ctx context.Context, token *ResumeToken) (any, error)

// Unsupported is the default ResumeHook.
func Unsupported(ctx context.Context, token *ResumeToken) (any, error) {
	return nil, &resterrors.NotSupported{Reason: "resume is not implemented for this operation"}
}
