package transport

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestUrlBuilderBuildParseRoundTrip is the build/parse idempotence round-trip
// law: a URL assembled by UrlBuilder, parsed back with net/url, yields the
// same scheme/host/path/query the builder was given.
func TestUrlBuilderBuildParseRoundTrip(t *testing.T) {
	built, err := NewUrlBuilder("https", "api.example.com").
		AppendPath("/widgets/42").
		SetQuery("verbose", "true").
		AddQuery("tag", "a").
		AddQuery("tag", "b").
		Build()
	require.NoError(t, err)

	parsed, err := url.Parse(built)
	require.NoError(t, err)

	assert.Equal(t, "https", parsed.Scheme)
	assert.Equal(t, "api.example.com", parsed.Host)
	assert.Equal(t, "/widgets/42", parsed.Path)
	assert.Equal(t, "true", parsed.Query().Get("verbose"))
	assert.Equal(t, []string{"a", "b"}, parsed.Query()["tag"])

	rebuilt, err := NewUrlBuilder(parsed.Scheme, parsed.Host).
		AppendPath(parsed.Path).
		Build()
	require.NoError(t, err)
	reparsed, err := url.Parse(rebuilt)
	require.NoError(t, err)
	assert.Equal(t, parsed.Scheme, reparsed.Scheme)
	assert.Equal(t, parsed.Host, reparsed.Host)
	assert.Equal(t, parsed.Path, reparsed.Path)
}

// TestUrlBuilderAppendPathJoinsExactlyOneSlash covers the segment-joining
// rule regardless of leading/trailing slashes on either side.
func TestUrlBuilderAppendPathJoinsExactlyOneSlash(t *testing.T) {
	cases := []struct {
		segments []string
		want     string
	}{
		{[]string{"/widgets/", "/42"}, "/widgets/42"},
		{[]string{"widgets", "42"}, "/widgets/42"},
		{[]string{"", "widgets"}, "/widgets"},
	}

	for _, tc := range cases {
		b := NewUrlBuilder("https", "api.example.com")
		for _, seg := range tc.segments {
			b.AppendPath(seg)
		}
		built, err := b.Build()
		require.NoError(t, err)
		parsed, err := url.Parse(built)
		require.NoError(t, err)
		assert.Equal(t, tc.want, parsed.Path)
	}
}

// TestUrlBuilderRequiresHost covers the one validation rule Build enforces.
func TestUrlBuilderRequiresHost(t *testing.T) {
	_, err := NewUrlBuilder("https", "").Build()
	assert.Error(t, err)
}

// TestParseAbsoluteDistinguishesRelative covers the paging-link detection
// used by the request builder's absolute-URL override.
func TestParseAbsoluteDistinguishesRelative(t *testing.T) {
	_, ok := ParseAbsolute("https://api.example.com/items?page=2")
	assert.True(t, ok)

	_, ok = ParseAbsolute("/items?page=2")
	assert.False(t, ok)
}

// TestMergeQueryAppendsOntoAbsoluteURL covers the companion helper used when
// an absolute-URL Path override still has Query bindings to apply.
func TestMergeQueryAppendsOntoAbsoluteURL(t *testing.T) {
	abs, ok := ParseAbsolute("https://api.example.com/items?page=2")
	require.True(t, ok)

	merged := MergeQuery(abs, url.Values{"limit": []string{"10"}})
	parsed, err := url.Parse(merged)
	require.NoError(t, err)

	assert.Equal(t, "2", parsed.Query().Get("page"))
	assert.Equal(t, "10", parsed.Query().Get("limit"))
}
