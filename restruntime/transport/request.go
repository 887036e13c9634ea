package transport

// Verb is one of the HTTP methods the runtime can issue.
type Verb string

const (
	GET     Verb = "GET"
	POST    Verb = "POST"
	PUT     Verb = "PUT"
	PATCH   Verb = "PATCH"
	DELETE  Verb = "DELETE"
	HEAD    Verb = "HEAD"
	OPTIONS Verb = "OPTIONS"
)

// Request is the mutable-until-dispatch HTTP request value. Policies may
// clone it once it is conceptually frozen (after being handed to the
// pipeline).
type Request struct {
	Verb    Verb
	URL     string // absolute, after UrlBuilder has run
	Headers *Headers
	Body    Body
}

// NewRequest builds a Request with empty headers and no body, the state
// produced by the early steps of the request builder algorithm.
func NewRequest(verb Verb, url string) *Request {
	return &Request{
		Verb:    verb,
		URL:     url,
		Headers: NewHeaders(),
		Body:    NoBody{},
	}
}

// Clone returns a shallow copy sharing the same Body value but an
// independent Headers multimap, suitable for policies that need to mutate
// headers without affecting the caller's retained request (e.g. a retry
// loop that reconstructs a fresh pipeline head).
func (r *Request) Clone() *Request {
	return &Request{
		Verb:    r.Verb,
		URL:     r.URL,
		Headers: r.Headers.Clone(),
		Body:    r.Body,
	}
}
