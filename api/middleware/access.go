package middleware

import (
	"net/http"
	"net/url"

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/pkg/auth/session"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// Capability decides whether an identity may pass a gate.
type Capability func(*session.Identity) error

// Authenticated admits any signed-in identity.
func Authenticated(identity *session.Identity) error {
	if identity == nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	return nil
}

// Admin admits signed-in identities carrying the admin role.
func Admin(identity *session.Identity) error {
	if err := Authenticated(identity); err != nil {
		return err
	}
	if !identity.IsAdmin() {
		return pkgerrors.New(pkgerrors.CodeForbidden, "restricted access")
	}
	return nil
}

// Require gates the wrapped routes on every capability. Anonymous callers are
// redirected to loginPath; signed-in callers lacking a capability get 403.
func Require(loginPath string, logg *logger.Logger, caps ...Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := IdentityFromContext(r.Context())
			for _, capability := range caps {
				err := capability(identity)
				if err == nil {
					continue
				}
				if pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) && loginPath != "" {
					location := LoginRedirect(loginPath, r.URL.RequestURI())
					if logg != nil {
						logg.Warn(logg.WithField(r.Context(), "redirect", location), "access.login_required")
					}
					responses.WriteRedirect(w, location, map[string]string{"login": location})
					return
				}
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// LoginRedirect builds the login location remembering where the caller was going.
func LoginRedirect(loginPath, next string) string {
	if next == "" {
		return loginPath
	}
	return loginPath + "?next=" + url.QueryEscape(next)
}
