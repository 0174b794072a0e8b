package directory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/radityapura/medigate/internal/db/models"
	"github.com/radityapura/medigate/internal/gateway/host"
	"github.com/radityapura/medigate/internal/gateway/metrics"
	pkgerrors "github.com/radityapura/medigate/pkg/errors"
	"github.com/radityapura/medigate/pkg/logger"
	"github.com/radityapura/medigate/pkg/utils"
)

const (
	// HospitalSitePath is the internal microsite route prefix for hospitals.
	// The page-rendering layer serves these paths; changing the shape here
	// requires changing it there too.
	HospitalSitePath = "/hospital-site/"

	// DoctorSitePath is the internal microsite route prefix for doctors.
	DoctorSitePath = "/site/"

	// ReservedHospitalPrefix is the reserved subdomain-label prefix that
	// always routes directly by ID/slug, bypassing name matching. Hospitals
	// whose normalized name starts with this prefix must use the explicit
	// subdomain field instead.
	ReservedHospitalPrefix = "hospital-"

	// DefaultLookupTimeout bounds a single directory query so a slow store
	// cannot stall page delivery.
	DefaultLookupTimeout = 2 * time.Second
)

// Resolution tiers, in precedence order.
const (
	TierReserved       = "reserved"
	TierSubdomain      = "subdomain"
	TierName           = "name"
	TierCustomDomain   = "custom_domain"
	TierDoctorFallback = "doctor_fallback"
)

// Route is the outcome of resolving a classified hostname. The zero value
// means no rewrite: the request passes through to ordinary routing.
type Route struct {
	Found      bool
	TargetPath string
	Tier       string
}

// Resolver maps host classifications to internal microsite routes through a
// fixed pipeline of fallback tiers.
type Resolver struct {
	dir     Directory
	timeout time.Duration
}

// NewResolver creates a resolver over the given directory. A non-positive
// timeout selects DefaultLookupTimeout.
func NewResolver(dir Directory, timeout time.Duration) *Resolver {
	if timeout <= 0 {
		timeout = DefaultLookupTimeout
	}
	return &Resolver{
		dir:     dir,
		timeout: timeout,
	}
}

// Resolve maps a classification to a route. It never returns an error: a
// failing or slow directory degrades to the doctor-slug tier so a transient
// outage produces a best-effort route instead of blocking the request.
func (r *Resolver) Resolve(ctx context.Context, c host.Classification) Route {
	switch c.Kind {
	case host.PlatformSubdomain:
		return r.resolveLabel(ctx, c.Label)
	case host.CustomDomain:
		return r.resolveCustomDomain(ctx, c.Host)
	case host.Primary, host.LocalDev:
		return Route{}
	default:
		return Route{}
	}
}

// resolveLabel runs the subdomain-label pipeline: reserved fast path, then
// hospital match, then the unconditional doctor-slug fallback.
func (r *Resolver) resolveLabel(ctx context.Context, label string) Route {
	if label == "" {
		return Route{}
	}
	if route, ok := resolveReserved(label); ok {
		return route
	}
	if route, ok := r.resolveHospital(ctx, label); ok {
		return route
	}
	return doctorFallback(label)
}

// resolveCustomDomain tries the exact custom-domain match first; explicit
// configuration beats name matching. Hospitals may also point a custom
// domain at a label matching their own name, so a miss falls back to the
// label form of the full host.
func (r *Resolver) resolveCustomDomain(ctx context.Context, hostname string) Route {
	if hospital, ok := r.find(ctx, TierCustomDomain, hostname, r.dir.FindHospitalByCustomDomain); ok {
		return hospitalRoute(hospital, TierCustomDomain)
	}
	return r.resolveLabel(ctx, utils.NormalizeSlug(hostname))
}

// resolveReserved handles hospital-{suffix} labels: the suffix is a hospital
// ID or slug routed directly, no directory query involved. The fast path
// always wins over name matching.
func resolveReserved(label string) (Route, bool) {
	suffix, ok := strings.CutPrefix(label, ReservedHospitalPrefix)
	if !ok || suffix == "" {
		return Route{}, false
	}
	return Route{
		Found:      true,
		TargetPath: HospitalSitePath + suffix,
		Tier:       TierReserved,
	}, true
}

// resolveHospital tries the explicit subdomain field, then the normalized
// name.
func (r *Resolver) resolveHospital(ctx context.Context, label string) (Route, bool) {
	if hospital, ok := r.find(ctx, TierSubdomain, label, r.dir.FindHospitalBySubdomain); ok {
		return hospitalRoute(hospital, TierSubdomain), true
	}
	if hospital, ok := r.find(ctx, TierName, label, r.dir.FindHospitalByName); ok {
		return hospitalRoute(hospital, TierName), true
	}
	return Route{}, false
}

// find runs one bounded lookup. A miss and an infrastructure failure both
// report "no match" so the pipeline moves to the next tier; failures are
// additionally counted and logged for operator visibility.
func (r *Resolver) find(ctx context.Context, tier, candidate string, query func(context.Context, string) (*models.Hospital, error)) (*models.Hospital, bool) {
	lookupCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	hospital, err := query(lookupCtx, candidate)
	if err != nil {
		if !errors.Is(err, pkgerrors.ErrHospitalNotFound) {
			metrics.LookupFailures.Inc()
			logger.WarnEvent().
				Err(err).
				Str("tier", tier).
				Str("candidate", candidate).
				Msg("Directory lookup failed, degrading to next tier")
		}
		return nil, false
	}
	return hospital, true
}

// doctorFallback treats an unmatched label as a doctor slug unconditionally.
// A bad guess surfaces as the renderer's own not-found page downstream;
// availability wins over precision here.
func doctorFallback(label string) Route {
	logger.DebugEvent().
		Str("label", label).
		Msg("No hospital matched, assuming doctor slug")
	return Route{
		Found:      true,
		TargetPath: DoctorSitePath + label,
		Tier:       TierDoctorFallback,
	}
}

func hospitalRoute(hospital *models.Hospital, tier string) Route {
	return Route{
		Found:      true,
		TargetPath: fmt.Sprintf("%s%d", HospitalSitePath, hospital.ID),
		Tier:       tier,
	}
}
