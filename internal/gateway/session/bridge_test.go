package session

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultNavOptions() NavOptions {
	return NavOptions{
		Scheme:                  "https",
		PrimaryDomain:           "example.com",
		SubdomainRoutingEnabled: true,
	}
}

// TestShouldUseCrossDomainNav tests the gating rules for tenant navigation.
func TestShouldUseCrossDomainNav(t *testing.T) {
	t.Run("enabled in production", func(t *testing.T) {
		assert.True(t, ShouldUseCrossDomainNav(defaultNavOptions()))
	})

	t.Run("disabled by kill-switch", func(t *testing.T) {
		opts := defaultNavOptions()
		opts.SubdomainRoutingEnabled = false
		assert.False(t, ShouldUseCrossDomainNav(opts))
	})

	t.Run("disabled without primary domain", func(t *testing.T) {
		opts := defaultNavOptions()
		opts.PrimaryDomain = ""
		assert.False(t, ShouldUseCrossDomainNav(opts))
	})

	t.Run("disabled on local dev by default", func(t *testing.T) {
		opts := defaultNavOptions()
		opts.LocalHost = true
		assert.False(t, ShouldUseCrossDomainNav(opts))
	})

	t.Run("local dev opt-in", func(t *testing.T) {
		opts := defaultNavOptions()
		opts.LocalHost = true
		opts.AllowLocalSubdomains = true
		assert.True(t, ShouldUseCrossDomainNav(opts))
	})
}

// TestBuildTenantURL_LabelPreference tests the destination label order:
// custom domain, explicit subdomain, normalized name, reserved fallback.
func TestBuildTenantURL_LabelPreference(t *testing.T) {
	opts := defaultNavOptions()

	tests := []struct {
		name     string
		tenant   TenantRef
		expected string
	}{
		{
			name:     "custom domain wins",
			tenant:   TenantRef{ID: 7, Name: "Apollo Care", Subdomain: "apollo", CustomDomain: "mycare.health"},
			expected: "https://mycare.health/",
		},
		{
			name:     "explicit subdomain next",
			tenant:   TenantRef{ID: 7, Name: "Apollo Care", Subdomain: "apollo"},
			expected: "https://apollo.example.com/",
		},
		{
			name:     "normalized name next",
			tenant:   TenantRef{ID: 7, Name: "Apollo Care"},
			expected: "https://apollo-care.example.com/",
		},
		{
			name:     "reserved id fallback",
			tenant:   TenantRef{ID: 7, Name: "!!!"},
			expected: "https://hospital-7.example.com/",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, BuildTenantURL(tt.tenant, opts, ""))
		})
	}
}

// TestBuildTenantURL_Port tests non-default port propagation.
func TestBuildTenantURL_Port(t *testing.T) {
	opts := defaultNavOptions()
	opts.Scheme = "http"
	opts.Port = "8080"

	got := BuildTenantURL(TenantRef{ID: 7, Name: "Apollo Care"}, opts, "")
	assert.Equal(t, "http://apollo-care.example.com:8080/", got)
}

// TestBuildTenantURL_FragmentRoundTrip verifies the token rides in the
// fragment and URL-decodes back to the original value.
func TestBuildTenantURL_FragmentRoundTrip(t *testing.T) {
	opts := defaultNavOptions()
	token := "eyJhbGciOiJIUzI1NiJ9.payload+with/odd=chars and spaces"

	got := BuildTenantURL(TenantRef{ID: 7, Name: "Apollo Care"}, opts, token)

	idx := strings.Index(got, "#"+FragmentParam+"=")
	require.NotEqual(t, -1, idx, "fragment missing from %q", got)

	encoded := got[idx+len("#"+FragmentParam+"="):]
	decoded, err := url.QueryUnescape(encoded)
	require.NoError(t, err)
	assert.Equal(t, token, decoded)

	// Token must not appear in the query (would leak into server logs)
	parsed, err := url.Parse(got[:idx])
	require.NoError(t, err)
	assert.Empty(t, parsed.RawQuery)
}

// TestBuildTenantURL_NoToken verifies navigation works unauthenticated; the
// handoff is additive, never a precondition.
func TestBuildTenantURL_NoToken(t *testing.T) {
	got := BuildTenantURL(TenantRef{ID: 7, Name: "Apollo Care"}, defaultNavOptions(), "")

	assert.Equal(t, "https://apollo-care.example.com/", got)
	assert.NotContains(t, got, "#")
}
