package session

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/radityapura/medigate/internal/gateway/host"
	pkgerrors "github.com/radityapura/medigate/pkg/errors"
	"github.com/radityapura/medigate/pkg/logger"
)

// DefaultCookieName is the session cookie the platform's page layer reads.
const DefaultCookieName = "auth_token"

// Claims are the claims medigate expects in a relayed session token. The
// bridge treats tokens as opaque; only this consumer inspects them, and only
// to validate the signature and expiry before re-issuing the cookie.
type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Bootstrapper re-establishes a session on a tenant origin from a relayed
// token, closing the fragment-handoff loop: the client bootstrap reads
// #authToken=... on load and posts it here, then cookies take over for the
// rest of the visit.
type Bootstrapper struct {
	jwtSecret     []byte
	primaryDomain string
	cookieName    string
	secureCookies bool
}

// NewBootstrapper creates a session bootstrapper.
func NewBootstrapper(jwtSecret, primaryDomain, cookieName string, secureCookies bool) *Bootstrapper {
	if cookieName == "" {
		cookieName = DefaultCookieName
	}
	return &Bootstrapper{
		jwtSecret:     []byte(jwtSecret),
		primaryDomain: strings.ToLower(primaryDomain),
		cookieName:    cookieName,
		secureCookies: secureCookies,
	}
}

// Handler accepts POST requests carrying a session token (form value or JSON
// body) and sets the session cookie for the requesting origin. Under the
// primary domain the cookie is scoped to the parent domain so it covers
// every tenant subdomain; custom domains get a host-only cookie.
func (b *Bootstrapper) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		token := b.extractToken(r)
		if token == "" {
			http.Error(w, "Missing token", http.StatusBadRequest)
			return
		}

		claims, err := b.validate(token)
		if err != nil {
			logger.WarnEvent().
				Err(err).
				Str("host", r.Host).
				Msg("Rejected session bootstrap")
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		cookie := &http.Cookie{
			Name:     b.cookieName,
			Value:    token,
			Path:     "/",
			HttpOnly: true,
			Secure:   b.secureCookies,
			SameSite: http.SameSiteLaxMode,
		}
		if claims.ExpiresAt != nil {
			cookie.Expires = claims.ExpiresAt.Time
		}

		hostname := host.StripPort(strings.ToLower(r.Host))
		if b.primaryDomain != "" &&
			(hostname == b.primaryDomain || strings.HasSuffix(hostname, "."+b.primaryDomain)) {
			cookie.Domain = "." + b.primaryDomain
		}

		http.SetCookie(w, cookie)
		w.WriteHeader(http.StatusNoContent)
	})
}

func (b *Bootstrapper) extractToken(r *http.Request) string {
	if token := r.PostFormValue("token"); token != "" {
		return token
	}

	var payload struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err == nil {
		return payload.Token
	}
	return ""
}

func (b *Bootstrapper) validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return b.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, pkgerrors.ErrTokenExpired
		}
		return nil, pkgerrors.Wrap(pkgerrors.ErrInvalidToken, err.Error())
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, pkgerrors.ErrInvalidToken
	}
	return claims, nil
}
