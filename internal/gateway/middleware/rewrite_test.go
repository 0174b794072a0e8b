package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radityapura/medigate/internal/db/models"
	"github.com/radityapura/medigate/internal/gateway/directory"
	"github.com/radityapura/medigate/internal/gateway/host"
	pkgerrors "github.com/radityapura/medigate/pkg/errors"
)

// fakeDirectory serves canned hospital records for routing tests.
type fakeDirectory struct {
	byName   map[string]*models.Hospital
	byDomain map[string]*models.Hospital
}

func (f *fakeDirectory) FindHospitalBySubdomain(_ context.Context, _ string) (*models.Hospital, error) {
	return nil, pkgerrors.ErrHospitalNotFound
}

func (f *fakeDirectory) FindHospitalByName(_ context.Context, normalizedName string) (*models.Hospital, error) {
	if h, ok := f.byName[normalizedName]; ok {
		return h, nil
	}
	return nil, pkgerrors.ErrHospitalNotFound
}

func (f *fakeDirectory) FindHospitalByCustomDomain(_ context.Context, hostname string) (*models.Hospital, error) {
	if h, ok := f.byDomain[hostname]; ok {
		return h, nil
	}
	return nil, pkgerrors.ErrHospitalNotFound
}

// capture records the path and query the downstream handler received.
type capture struct {
	path  string
	query string
}

func newTestRewriter(dir directory.Directory) *Rewriter {
	return NewRewriter(RewriterConfig{
		Host: host.Options{
			PrimaryDomain:           "example.com",
			SubdomainRoutingEnabled: true,
			PlatformSuffixes:        []string{"vercel.app"},
		},
		Resolver:       directory.NewResolver(dir, 0),
		BypassPrefixes: []string{"/api/", "/static/", "/session/"},
		AdminPrefix:    "/admin",
	}, nil)
}

func doRequest(t *testing.T, rw *Rewriter, hostHeader, target string) (*capture, *httptest.ResponseRecorder) {
	t.Helper()

	captured := &capture{}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.path = r.URL.Path
		captured.query = r.URL.RawQuery
		w.WriteHeader(http.StatusOK)
	})
	rw.next = next

	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.Host = hostHeader
	rec := httptest.NewRecorder()
	rw.ServeHTTP(rec, req)

	return captured, rec
}

// TestRewriter_HospitalByName covers the concrete end-to-end scenario: a
// request to apollo-care.example.com/booking is rewritten to the hospital
// microsite path with the original path preserved.
func TestRewriter_HospitalByName(t *testing.T) {
	dir := &fakeDirectory{
		byName: map[string]*models.Hospital{
			"apollo-care": {ID: 7, Name: "Apollo Care"},
		},
	}
	rw := newTestRewriter(dir)

	captured, rec := doRequest(t, rw, "apollo-care.example.com", "http://apollo-care.example.com/booking")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/hospital-site/7/booking", captured.path)
}

// TestRewriter_RootPath verifies the microsite root is served for "/".
func TestRewriter_RootPath(t *testing.T) {
	dir := &fakeDirectory{
		byName: map[string]*models.Hospital{
			"apollo-care": {ID: 7, Name: "Apollo Care"},
		},
	}
	rw := newTestRewriter(dir)

	captured, _ := doRequest(t, rw, "apollo-care.example.com", "http://apollo-care.example.com/")

	assert.Equal(t, "/hospital-site/7", captured.path)
}

// TestRewriter_QueryPreserved verifies the query string survives rewriting.
func TestRewriter_QueryPreserved(t *testing.T) {
	dir := &fakeDirectory{}
	rw := newTestRewriter(dir)

	captured, _ := doRequest(t, rw, "dr-jane.example.com", "http://dr-jane.example.com/appointments?date=2024-06-01")

	assert.Equal(t, "/site/dr-jane/appointments", captured.path)
	assert.Equal(t, "date=2024-06-01", captured.query)
}

// TestRewriter_BypassPrefixes verifies platform API and asset paths are
// never classified, even on tenant hosts.
func TestRewriter_BypassPrefixes(t *testing.T) {
	dir := &fakeDirectory{
		byName: map[string]*models.Hospital{
			"apollo-care": {ID: 7, Name: "Apollo Care"},
		},
	}
	rw := newTestRewriter(dir)

	for _, path := range []string{"/api/doctors", "/static/app.js", "/session/bootstrap"} {
		captured, _ := doRequest(t, rw, "apollo-care.example.com", "http://apollo-care.example.com"+path)
		assert.Equal(t, path, captured.path, "path %q must pass through", path)
	}
}

// TestRewriter_AdminPassThrough verifies the admin area skips tenant
// routing so its login flow cannot loop.
func TestRewriter_AdminPassThrough(t *testing.T) {
	dir := &fakeDirectory{}
	rw := newTestRewriter(dir)

	captured, _ := doRequest(t, rw, "apollo-care.example.com", "http://apollo-care.example.com/admin/login")

	assert.Equal(t, "/admin/login", captured.path)
}

// TestRewriter_PrimaryPassThrough verifies the bare primary domain is
// untouched.
func TestRewriter_PrimaryPassThrough(t *testing.T) {
	dir := &fakeDirectory{}
	rw := newTestRewriter(dir)

	captured, _ := doRequest(t, rw, "example.com", "http://example.com/doctors/123")

	assert.Equal(t, "/doctors/123", captured.path)
}

// TestRewriter_LocalDevPassThrough verifies localhost requests never route
// to tenants.
func TestRewriter_LocalDevPassThrough(t *testing.T) {
	dir := &fakeDirectory{
		byName: map[string]*models.Hospital{
			"localhost": {ID: 1, Name: "Localhost"},
		},
	}
	rw := newTestRewriter(dir)

	captured, _ := doRequest(t, rw, "localhost:3000", "http://localhost:3000/anything")

	assert.Equal(t, "/anything", captured.path)
}

// TestRewriter_CustomDomain verifies custom-domain requests rewrite to the
// owning hospital's microsite.
func TestRewriter_CustomDomain(t *testing.T) {
	dir := &fakeDirectory{
		byDomain: map[string]*models.Hospital{
			"mycare.health": {ID: 11, Name: "MyCare"},
		},
	}
	rw := newTestRewriter(dir)

	captured, _ := doRequest(t, rw, "mycare.health", "http://mycare.health/booking")

	assert.Equal(t, "/hospital-site/11/booking", captured.path)
}
