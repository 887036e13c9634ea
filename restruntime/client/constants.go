package client

import "time"

// DefaultTimeout is the default HTTP client timeout, mirroring the prior
// workbrew client's DefaultTimeout (120s).
const DefaultTimeout = 120 * time.Second

// UserAgentBase and Version compose the default User-Agent string, in the
// prior workbrew client's "<base>/<version>" format.
const (
	UserAgentBase = "go-restruntime"
	Version       = "0.1.0"
)

// DefaultServiceName names the tracer used when a caller enables tracing
// without specifying one.
const DefaultServiceName = "restruntime-client"
