package host

import (
	"net"
	"strings"
)

// Kind labels an inbound request hostname.
type Kind int

const (
	// Primary is the platform's own domain; the request passes through.
	Primary Kind = iota
	// PlatformSubdomain is a tenant label under the primary domain.
	PlatformSubdomain
	// CustomDomain is a tenant-owned hostname outside the primary domain.
	CustomDomain
	// LocalDev is a local development host; tenant routing is skipped.
	LocalDev
)

// String returns the metric/log label for a kind.
func (k Kind) String() string {
	switch k {
	case PlatformSubdomain:
		return "platform_subdomain"
	case CustomDomain:
		return "custom_domain"
	case LocalDev:
		return "local_dev"
	default:
		return "primary"
	}
}

// Classification is the result of classifying a request hostname.
type Classification struct {
	Kind  Kind
	Label string // tenant label, set for PlatformSubdomain
	Host  string // port-stripped, lowercased hostname
}

// Options controls classification behavior.
type Options struct {
	// PrimaryDomain is the platform's registrable domain, e.g. "example.com".
	PrimaryDomain string

	// SubdomainRoutingEnabled is the operational kill-switch. When false,
	// every hostname classifies as Primary.
	SubdomainRoutingEnabled bool

	// AllowLocalSubdomains re-enables tenant routing under *.localhost for
	// local testing. The default is conservative: local hosts never route.
	AllowLocalSubdomains bool

	// PlatformSuffixes are hosting-infrastructure domains (e.g. cloud
	// preview deployments) that must never be treated as tenant hosts.
	PlatformSuffixes []string
}

// Classify labels an inbound hostname. The port, if any, is stripped first;
// classification operates on the hostname alone.
func Classify(hostport string, opts Options) Classification {
	hostname := StripPort(strings.ToLower(strings.TrimSpace(hostport)))

	if !opts.SubdomainRoutingEnabled || opts.PrimaryDomain == "" {
		return Classification{Kind: Primary, Host: hostname}
	}

	if isLocalHost(hostname) {
		if opts.AllowLocalSubdomains {
			if label, ok := strings.CutSuffix(hostname, ".localhost"); ok && label != "" && !strings.Contains(label, ".") {
				return Classification{Kind: PlatformSubdomain, Label: label, Host: hostname}
			}
		}
		return Classification{Kind: LocalDev, Host: hostname}
	}

	for _, suffix := range opts.PlatformSuffixes {
		suffix = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(suffix)), ".")
		if suffix == "" {
			continue
		}
		if hostname == suffix || strings.HasSuffix(hostname, "."+suffix) {
			return Classification{Kind: Primary, Host: hostname}
		}
	}

	if labels := strings.Split(hostname, "."); len(labels) > 2 {
		return Classification{Kind: PlatformSubdomain, Label: labels[0], Host: hostname}
	}

	if hostname != strings.ToLower(opts.PrimaryDomain) {
		return Classification{Kind: CustomDomain, Host: hostname}
	}

	return Classification{Kind: Primary, Host: hostname}
}

// StripPort removes the port from a Host header value, if present.
func StripPort(hostport string) string {
	if hostname, _, err := net.SplitHostPort(hostport); err == nil {
		return hostname
	}
	return hostport
}

func isLocalHost(hostname string) bool {
	return hostname == "localhost" ||
		hostname == "127.0.0.1" ||
		strings.HasSuffix(hostname, ".localhost")
}
