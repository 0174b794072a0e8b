package session

import (
	"fmt"
	"net/url"

	"github.com/radityapura/medigate/internal/gateway/directory"
	"github.com/radityapura/medigate/pkg/utils"
)

// FragmentParam is the fragment key carrying the relayed session token.
// The receiving origin's client bootstrap parses #authToken=... on load and
// posts the token to the bootstrap endpoint.
const FragmentParam = "authToken"

// TenantRef carries the tenant fields link generation needs.
type TenantRef struct {
	ID           uint
	Name         string
	Subdomain    string
	CustomDomain string
}

// NavOptions describes the navigation context of the current page.
type NavOptions struct {
	// Scheme is the current protocol, e.g. "https".
	Scheme string

	// Port is the current origin's non-default port, "" otherwise.
	Port string

	// PrimaryDomain is the platform's registrable domain.
	PrimaryDomain string

	// SubdomainRoutingEnabled mirrors the routing kill-switch.
	SubdomainRoutingEnabled bool

	// LocalHost is true when the current origin is a local development
	// host.
	LocalHost bool

	// AllowLocalSubdomains opts in to tenant navigation under *.localhost.
	AllowLocalSubdomains bool
}

// ShouldUseCrossDomainNav reports whether "visit site" navigation may cross
// to a tenant origin at all. Disabled when subdomain routing is switched off
// and under local development unless explicitly opted in, since local
// tooling and browser extensions often reject synthetic local subdomains.
func ShouldUseCrossDomainNav(opts NavOptions) bool {
	if !opts.SubdomainRoutingEnabled || opts.PrimaryDomain == "" {
		return false
	}
	if opts.LocalHost && !opts.AllowLocalSubdomains {
		return false
	}
	return true
}

// BuildTenantURL constructs the destination origin for a tenant microsite
// and, when a session token is present, appends it as a URL fragment. The
// fragment never reaches server logs, unlike a query parameter, and it
// survives navigation to origins that share no cookies with the platform.
// An absent token still yields a valid, unauthenticated destination.
func BuildTenantURL(tenant TenantRef, opts NavOptions, token string) string {
	scheme := opts.Scheme
	if scheme == "" {
		scheme = "https"
	}

	hostname := tenant.CustomDomain
	if hostname == "" {
		hostname = tenantLabel(tenant) + "." + opts.PrimaryDomain
	}
	if opts.Port != "" {
		hostname = hostname + ":" + opts.Port
	}

	target := scheme + "://" + hostname + "/"
	if token != "" {
		target += "#" + FragmentParam + "=" + url.QueryEscape(token)
	}
	return target
}

// tenantLabel picks the subdomain label: the explicit subdomain when set,
// the normalized name when it yields one, and the reserved hospital-{id}
// form as the last resort.
func tenantLabel(tenant TenantRef) string {
	if tenant.Subdomain != "" {
		return tenant.Subdomain
	}
	if label := utils.NormalizeSlug(tenant.Name); label != "" {
		return label
	}
	return fmt.Sprintf("%s%d", directory.ReservedHospitalPrefix, tenant.ID)
}
