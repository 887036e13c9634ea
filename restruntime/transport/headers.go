package transport

import (
	"net/textproto"
)

// Headers is an ordered, case-insensitively keyed multimap. Values appended
// via Add preserve insertion order; Set replaces all prior values for a
// key (last-write-wins), with Add remaining available as a distinct
// append operation.
//
// Headers instances are not safe for concurrent use; each HttpRequest or
// HttpResponse owns its own instance for the lifetime of one call.
type Headers struct {
	values map[string][]string
	order  []string // canonical keys in first-seen order
}

// NewHeaders returns an empty header multimap.
func NewHeaders() *Headers {
	return &Headers{values: make(map[string][]string)}
}

func canonicalKey(key string) string {
	return textproto.CanonicalMIMEHeaderKey(key)
}

// Set replaces all existing values for key with a single value.
func (h *Headers) Set(key, value string) {
	ck := canonicalKey(key)
	if _, ok := h.values[ck]; !ok {
		h.order = append(h.order, ck)
	}
	h.values[ck] = []string{value}
}

// Add appends value to the list of values for key without clearing
// existing ones.
func (h *Headers) Add(key, value string) {
	ck := canonicalKey(key)
	if _, ok := h.values[ck]; !ok {
		h.order = append(h.order, ck)
	}
	h.values[ck] = append(h.values[ck], value)
}

// Get returns the first value for key, or "" if absent.
func (h *Headers) Get(key string) string {
	vs := h.values[canonicalKey(key)]
	if len(vs) == 0 {
		return ""
	}
	return vs[0]
}

// Values returns every value set for key, in append order.
func (h *Headers) Values(key string) []string {
	return append([]string(nil), h.values[canonicalKey(key)]...)
}

// Has reports whether key has at least one value.
func (h *Headers) Has(key string) bool {
	_, ok := h.values[canonicalKey(key)]
	return ok
}

// Del removes every value for key.
func (h *Headers) Del(key string) {
	ck := canonicalKey(key)
	if _, ok := h.values[ck]; !ok {
		return
	}
	delete(h.values, ck)
	for i, k := range h.order {
		if k == ck {
			h.order = append(h.order[:i], h.order[i+1:]...)
			break
		}
	}
}

// Keys returns the canonical header keys in first-seen order.
func (h *Headers) Keys() []string {
	return append([]string(nil), h.order...)
}

// Clone returns a deep copy, used by policies that need to mutate a
// request/response without affecting a caller's retained reference.
func (h *Headers) Clone() *Headers {
	if h == nil {
		return NewHeaders()
	}
	c := &Headers{
		values: make(map[string][]string, len(h.values)),
		order:  append([]string(nil), h.order...),
	}
	for k, v := range h.values {
		c.values[k] = append([]string(nil), v...)
	}
	return c
}

// Range calls fn for every (key, values) pair in first-seen order.
func (h *Headers) Range(fn func(key string, values []string)) {
	for _, k := range h.order {
		fn(k, h.values[k])
	}
}

// EnforceLengthEncodingExclusivity applies the section 3 invariant that
// Content-Length and Transfer-Encoding are mutually exclusive after the
// request is built: if both are present, Transfer-Encoding wins, matching
// how a streamed body takes precedence over a stale byte count.
func (h *Headers) EnforceLengthEncodingExclusivity() {
	if h.Has("Transfer-Encoding") {
		h.Del("Content-Length")
	}
}
