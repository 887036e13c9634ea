// Package client is the public facade tying the interface parser, policy
// pipeline, and invocation engine together into the usable surface: an
// operation table built by RegisterOperation, a functional-options
// constructor generalizing the prior workbrew client's NewClient, and an
// Invoke method that looks a plan up by name and drives one call through
// the pipeline.
package client

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/deploymenttheory/go-restruntime/restruntime/codec"
	resterrors "github.com/deploymenttheory/go-restruntime/restruntime/errors"
	"github.com/deploymenttheory/go-restruntime/restruntime/invoke"
	"github.com/deploymenttheory/go-restruntime/restruntime/plan"
	"github.com/deploymenttheory/go-restruntime/restruntime/policy"
	"github.com/deploymenttheory/go-restruntime/restruntime/transport"
	"go.uber.org/zap"
	"resty.dev/v3"
)

// Client is the runtime: a registered operation table, the assembled
// policy pipeline, and the invocation engine built over them. It is safe
// for concurrent use once constructed; RegisterOperation and Invoke both
// take an internal lock around the operation table.
type Client struct {
	logger     *zap.Logger
	resty      *resty.Client
	pipeline   *policy.Pipeline
	engine     *invoke.Engine
	resumeHook invoke.ResumeHook

	mu    sync.RWMutex
	plans map[string]*plan.MethodPlan

	baseURL       string
	globalHeaders map[string]string
	userAgent     string

	credential       policy.CredentialProvider
	cookieJar        http.CookieJar
	requestIDEnabled bool
	tracing          *OTelConfig
	retry            *policy.RetryPolicy
	codec            codec.Codec
}

// New builds a Client, applying options in order and assembling the
// policy pipeline from whichever built-in policies the options enabled.
// A logger is created with zap.NewProduction() if WithLogger is not
// supplied, matching the prior workbrew client's NewClient behavior.
func New(options ...Option) (*Client, error) {
	logger, err := zap.NewProduction()
	if err != nil {
		return nil, fmt.Errorf("restruntime client: failed to create logger: %w", err)
	}

	restyClient := resty.New()
	restyClient.SetTimeout(DefaultTimeout)

	c := &Client{
		logger:           logger,
		resty:            restyClient,
		plans:            make(map[string]*plan.MethodPlan),
		globalHeaders:    make(map[string]string),
		userAgent:        fmt.Sprintf("%s/%s", UserAgentBase, Version),
		requestIDEnabled: true,
		retry:            policy.NewRetryPolicy(),
		codec:            codec.NewStandardCodec(),
	}
	restyClient.SetHeader("User-Agent", c.userAgent)

	for _, opt := range options {
		if err := opt(c); err != nil {
			return nil, fmt.Errorf("restruntime client: failed to apply option: %w", err)
		}
	}

	if c.baseURL != "" {
		restyClient.SetBaseURL(c.baseURL)
	}
	for k, v := range c.globalHeaders {
		restyClient.SetHeader(k, v)
	}

	c.pipeline = c.buildPipeline()
	c.engine = invoke.NewEngine(c.pipeline, c.codec)
	if c.resumeHook == nil {
		c.resumeHook = invoke.Unsupported
	}

	c.logger.Info("restruntime client created",
		zap.String("base_url", c.baseURL),
		zap.String("user_agent", c.userAgent))

	return c, nil
}

// buildPipeline assembles the built-in policies in the fixed forward-pass
// order: user agent, request id, cookies (if a jar was configured),
// credentials (if a provider was configured), tracing (if enabled), retry,
// then decoding, terminated by the resty-backed transport.
func (c *Client) buildPipeline() *policy.Pipeline {
	var policies []policy.Policy

	policies = append(policies, policy.NewUserAgentPolicy(c.userAgent))

	if c.requestIDEnabled {
		policies = append(policies, policy.NewRequestIDPolicy())
	}
	if c.cookieJar != nil {
		policies = append(policies, policy.NewCookiePolicy(c.cookieJar))
	}
	if c.credential != nil {
		policies = append(policies, policy.NewCredentialsPolicy(c.credential))
	}
	if c.tracing != nil {
		policies = append(policies, policy.NewTracingPolicy(c.tracing.TracerProvider, c.tracing.Propagators, c.tracing.ServiceName))
	}

	policies = append(policies, c.retry)
	policies = append(policies, policy.NewDecodingPolicy())

	return policy.New(transport.NewRestyTransport(c.resty), policies...)
}

// RegisterOperation parses desc into a MethodPlan and adds it to the
// operation table, keyed by its fully-qualified name. It returns the
// parsed plan so callers can retain it (e.g. for building Arguments
// helpers) without a second lookup.
func (c *Client) RegisterOperation(desc plan.OperationDescription) (*plan.MethodPlan, error) {
	p, err := plan.Parse(desc)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.plans[p.FullyQualifiedName()] = p
	return p, nil
}

// Lookup returns the previously registered plan for operationName, if any.
func (c *Client) Lookup(operationName string) (*plan.MethodPlan, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.plans[operationName]
	return p, ok
}

// Invoke looks up operationName in the operation table and drives one
// call through the engine, decoding into result per the plan's declared
// return shape.
func (c *Client) Invoke(ctx context.Context, operationName string, args invoke.Arguments, result any, extraAllowedStatus ...int) error {
	p, ok := c.Lookup(operationName)
	if !ok {
		return &resterrors.BadDescription{Operation: operationName, Reason: "operation is not registered on this client"}
	}
	return c.engine.Invoke(ctx, p, args, result, extraAllowedStatus...)
}

// Resume reattaches to a long-running operation via the configured resume
// hook (WithResumeHook), or returns *errors.NotSupported if none was set.
func (c *Client) Resume(ctx context.Context, token *invoke.ResumeToken) (any, error) {
	return c.resumeHook(ctx, token)
}

// Logger returns the client's logger. The built-in policies do not log
// through it.
func (c *Client) Logger() *zap.Logger {
	return c.logger
}

// RestyClient returns the underlying resty client, for callers that need
// to reach transport-level configuration this package does not expose.
func (c *Client) RestyClient() *resty.Client {
	return c.resty
}

// Pipeline returns the assembled policy pipeline.
func (c *Client) Pipeline() *policy.Pipeline {
	return c.pipeline
}
