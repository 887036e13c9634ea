package policy

import (
	"net/http"
	"net/url"
	"sync"

	"github.com/deploymenttheory/go-restruntime/restruntime/transport"
)

// CookiePolicy maintains a per-pipeline cookie jar: it injects matching
// cookies on send and harvests Set-Cookie on response. The jar is shared
// mutable state across concurrent calls and so is guarded by a mutex; no
// example in the pack imports a third-party cookie jar for an HTTP client
// SDK, so this wraps the stdlib's net/http/cookiejar rather than
// reimplementing RFC 6265 matching (see DESIGN.md).
type CookiePolicy struct {
	mu  sync.Mutex
	jar http.CookieJar
}

// NewCookiePolicy builds a policy backed by jar: a jar built with
// cookiejar.New(nil) for in-memory storage, or any other http.CookieJar
// to customize persistence.
func NewCookiePolicy(jar http.CookieJar) *CookiePolicy {
	return &CookiePolicy{jar: jar}
}

// Process implements Policy.
func (p *CookiePolicy) Process(ctx *Context, next Next) (*transport.Response, error) {
	reqURL, err := url.Parse(ctx.Request.URL)
	if err != nil {
		return next.Process(ctx)
	}

	p.mu.Lock()
	cookies := p.jar.Cookies(reqURL)
	p.mu.Unlock()

	for _, c := range cookies {
		ctx.Request.Headers.Add("Cookie", c.String())
	}

	resp, err := next.Process(ctx)
	if err != nil {
		return resp, err
	}

	if resp != nil {
		setCookie := resp.Headers.Values("Set-Cookie")
		if len(setCookie) > 0 {
			header := http.Header{"Set-Cookie": setCookie}
			fakeResp := &http.Response{Header: header}
			p.mu.Lock()
			p.jar.SetCookies(reqURL, fakeResp.Cookies())
			p.mu.Unlock()
		}
	}

	return resp, nil
}
