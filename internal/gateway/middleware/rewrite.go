package middleware

import (
	"net/http"
	"strings"

	"github.com/radityapura/medigate/internal/gateway/directory"
	"github.com/radityapura/medigate/internal/gateway/host"
	"github.com/radityapura/medigate/internal/gateway/metrics"
	"github.com/radityapura/medigate/pkg/logger"
)

// Rewriter is the tenant routing middleware: it classifies the request
// hostname, resolves the tenant, and rewrites the request path to the
// internal microsite route before handing off downstream. The client-visible
// URL never changes; only the internally served path does.
type Rewriter struct {
	opts           host.Options
	resolver       *directory.Resolver
	next           http.Handler
	bypassPrefixes []string
	adminPrefix    string
}

// RewriterConfig configures the tenant rewriter.
type RewriterConfig struct {
	Host host.Options

	Resolver *directory.Resolver

	// BypassPrefixes are path prefixes excluded from classification
	// entirely: platform API routes, static bundles, the session bootstrap
	// endpoint. Checked before anything else.
	BypassPrefixes []string

	// AdminPrefix passes through unchanged; authorization for the admin
	// area is the page layer's job, and skipping classification here avoids
	// redirect loops on the admin login path.
	AdminPrefix string
}

// NewRewriter creates the tenant routing middleware in front of next.
func NewRewriter(cfg RewriterConfig, next http.Handler) *Rewriter {
	return &Rewriter{
		opts:           cfg.Host,
		resolver:       cfg.Resolver,
		next:           next,
		bypassPrefixes: cfg.BypassPrefixes,
		adminPrefix:    cfg.AdminPrefix,
	}
}

// ServeHTTP implements http.Handler.
func (rw *Rewriter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if rw.bypassed(r.URL.Path) {
		rw.next.ServeHTTP(w, r)
		return
	}

	if rw.adminPrefix != "" && strings.HasPrefix(r.URL.Path, rw.adminPrefix) {
		rw.next.ServeHTTP(w, r)
		return
	}

	c := host.Classify(r.Host, rw.opts)
	metrics.ClassificationsTotal.WithLabelValues(c.Kind.String()).Inc()

	if c.Kind == host.Primary || c.Kind == host.LocalDev {
		rw.next.ServeHTTP(w, r)
		return
	}

	route := rw.resolver.Resolve(r.Context(), c)
	if !route.Found {
		rw.next.ServeHTTP(w, r)
		return
	}

	metrics.ResolutionsTotal.WithLabelValues(route.Tier).Inc()

	original := r.URL.Path
	r.URL.Path = joinPaths(route.TargetPath, original)
	r.URL.RawPath = ""

	logger.DebugEvent().
		Str("host", c.Host).
		Str("kind", c.Kind.String()).
		Str("tier", route.Tier).
		Str("from", original).
		Str("to", r.URL.Path).
		Msg("Rewrote tenant request")

	rw.next.ServeHTTP(w, r)
}

func (rw *Rewriter) bypassed(path string) bool {
	for _, prefix := range rw.bypassPrefixes {
		if prefix != "" && strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// joinPaths appends the originally requested path under the microsite
// target, preserving whatever the user was requesting within the site.
func joinPaths(target, original string) string {
	if original == "" || original == "/" {
		return target
	}
	if !strings.HasPrefix(original, "/") {
		original = "/" + original
	}
	return target + original
}
