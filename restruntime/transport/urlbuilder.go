package transport

import (
	"fmt"
	"net/url"
	"strings"
)

// UrlBuilder assembles request URLs from scheme/host/path/query fragments,
// generalizing the prior workbrew client's fixed
// fmt.Sprintf("%s/workspaces/%s", baseURL, workspace) join into a
// general-purpose builder with percent-encoding rules.
type UrlBuilder struct {
	scheme string
	host   string
	path   string
	query  url.Values
}

// NewUrlBuilder starts from a scheme and host, e.g. "https" and
// "console.workbrew.com".
func NewUrlBuilder(scheme, host string) *UrlBuilder {
	return &UrlBuilder{scheme: scheme, host: host, query: url.Values{}}
}

// WithScheme overrides the scheme.
func (b *UrlBuilder) WithScheme(scheme string) *UrlBuilder {
	b.scheme = scheme
	return b
}

// WithHost overrides the host.
func (b *UrlBuilder) WithHost(host string) *UrlBuilder {
	b.host = host
	return b
}

// AppendPath joins segment onto the builder's path, inserting exactly one
// "/" between segments regardless of leading/trailing slashes on either
// side.
func (b *UrlBuilder) AppendPath(segment string) *UrlBuilder {
	b.path = joinPath(b.path, segment)
	return b
}

func joinPath(a, b string) string {
	a = strings.TrimSuffix(a, "/")
	b = strings.TrimPrefix(b, "/")
	switch {
	case a == "" && b == "":
		return ""
	case a == "":
		return "/" + b
	case b == "":
		return a
	default:
		return a + "/" + b
	}
}

// SetQuery sets (overriding any prior value) a query parameter. Query
// bindings are applied in declaration order; each call here sets or
// overrides its key.
func (b *UrlBuilder) SetQuery(key, value string) *UrlBuilder {
	b.query.Set(key, value)
	return b
}

// AddQuery appends an additional value for key without clearing existing
// ones, for query bindings that are repeatable.
func (b *UrlBuilder) AddQuery(key, value string) *UrlBuilder {
	b.query.Add(key, value)
	return b
}

// Build renders the absolute, percent-encoded URL. Percent-escapes already
// present in the path (e.g. from EscapePathSegment) are kept as they are
// rather than encoded a second time; any other character that needs
// escaping is encoded here.
func (b *UrlBuilder) Build() (string, error) {
	if b.host == "" {
		return "", fmt.Errorf("urlbuilder: host is required")
	}
	u := &url.URL{
		Scheme:   b.scheme,
		Host:     b.host,
		Path:     b.path,
		RawQuery: b.query.Encode(),
	}
	if unescaped, err := url.PathUnescape(b.path); err == nil {
		u.Path = unescaped
		u.RawPath = b.path
	}
	return u.String(), nil
}

// EscapePathSegment percent-encodes s for safe inclusion as one path
// segment (e.g. a Path binding's rendered value), leaving "/" encoded
// rather than treated as a separator.
func EscapePathSegment(s string) string {
	return url.PathEscape(s)
}

// ParseAbsolute reports whether raw parses as an absolute URL (scheme
// present). This implements the paging-link case: a Path binding argument
// that is itself an absolute URL is adopted verbatim, skipping
// host/scheme resolution.
func ParseAbsolute(raw string) (*url.URL, bool) {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, false
	}
	return u, true
}

// MergeQuery appends the query bindings declared for a call onto an
// already-absolute URL, per the path-absolute-override rule that still
// allows query additions from Query bindings.
func MergeQuery(absolute *url.URL, extra url.Values) string {
	if len(extra) == 0 {
		return absolute.String()
	}
	merged := absolute.Query()
	for k, vs := range extra {
		for _, v := range vs {
			merged.Add(k, v)
		}
	}
	clone := *absolute
	clone.RawQuery = merged.Encode()
	return clone.String()
}
