package utils

import (
	"regexp"
	"strings"
)

const (
	// MaxLabelLength is the maximum length of a single DNS label
	MaxLabelLength = 63
)

var (
	// slugStripRegex removes everything outside lowercase alphanumerics, whitespace and hyphens
	slugStripRegex = regexp.MustCompile(`[^a-z0-9\s-]+`)

	// slugSeparatorRegex matches whitespace/hyphen runs that collapse to a single hyphen
	slugSeparatorRegex = regexp.MustCompile(`[\s-]+`)

	// subdomainRegex validates an explicitly configured tenant subdomain
	subdomainRegex = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)
)

// NormalizeSlug converts a free-text name into its canonical URL-safe form.
// The same function runs at link-generation time (on display names) and at
// resolution time (on hostname labels), so both sides agree by construction.
// Idempotent: NormalizeSlug(NormalizeSlug(s)) == NormalizeSlug(s).
func NormalizeSlug(input string) string {
	s := strings.ToLower(input)
	s = slugStripRegex.ReplaceAllString(s, "")
	s = slugSeparatorRegex.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// IsValidSubdomain checks if an explicitly configured subdomain is
// syntactically acceptable as a single DNS label.
func IsValidSubdomain(subdomain string) bool {
	if subdomain == "" || len(subdomain) > MaxLabelLength {
		return false
	}
	return subdomainRegex.MatchString(subdomain)
}
