package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/angelmondragon/storefront-backend/api/responses"
	pkgauth "github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/auth/session"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// SessionHeader mirrors the session token for clients that do not keep cookies.
const SessionHeader = "X-SF-Session"

// SessionCookie mints session tokens and writes them to responses.
type SessionCookie struct {
	jwt     config.JWTConfig
	session config.SessionConfig
	now     func() time.Time
}

func NewSessionCookie(jwtCfg config.JWTConfig, sessionCfg config.SessionConfig) *SessionCookie {
	return &SessionCookie{jwt: jwtCfg, session: sessionCfg, now: time.Now}
}

func (c *SessionCookie) cookieName() string {
	if name := strings.TrimSpace(c.session.CookieName); name != "" {
		return name
	}
	return "sf_session"
}

// Issue binds sessionID to the client through the cookie and the session header.
func (c *SessionCookie) Issue(w http.ResponseWriter, sessionID string) error {
	now := c.now()
	token, err := pkgauth.MintSessionToken(c.jwt, now, sessionID, c.session.TTL)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     c.cookieName(),
		Value:    token,
		Path:     "/",
		Expires:  now.Add(c.session.TTL),
		MaxAge:   int(c.session.TTL.Seconds()),
		HttpOnly: true,
		Secure:   c.session.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	w.Header().Set(SessionHeader, token)
	return nil
}

// sessionID returns the id carried by a valid token on the request, or "",
// and whether the token is past half its lifetime and should be renewed.
func (c *SessionCookie) sessionID(r *http.Request) (string, bool) {
	token := ""
	if cookie, err := r.Cookie(c.cookieName()); err == nil {
		token = strings.TrimSpace(cookie.Value)
	}
	if token == "" {
		header := r.Header.Get("Authorization")
		if strings.HasPrefix(header, "Bearer ") {
			token = strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		}
	}
	if token == "" {
		return "", false
	}
	claims, err := pkgauth.ParseSessionToken(c.jwt, token)
	if err != nil {
		return "", false
	}
	return claims.SessionID(), c.stale(claims.ExpiresAt)
}

func (c *SessionCookie) stale(expiresAt *jwt.NumericDate) bool {
	if expiresAt == nil || c.session.TTL <= 0 {
		return false
	}
	return expiresAt.Time.Sub(c.now()) < c.session.TTL/2
}

// Session resolves the caller's session on every request. Requests without a
// valid token get a fresh anonymous session; a token past half its lifetime
// is reissued for the same session and the session keys are extended.
func Session(cookies *SessionCookie, store session.Store, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if cookies == nil || store == nil {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session store unavailable"))
				return
			}

			var identity *session.Identity
			sid, renew := cookies.sessionID(r)
			if sid != "" {
				loaded, err := store.Identity(ctx, sid)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load session"))
					return
				}
				identity = loaded
				if renew {
					if err := store.Touch(ctx, sid); err != nil {
						responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "extend session"))
						return
					}
					if err := cookies.Issue(w, sid); err != nil {
						responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "renew session"))
						return
					}
				}
			} else {
				sid = session.NewID()
				if err := cookies.Issue(w, sid); err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "issue session"))
					return
				}
			}

			if logg != nil {
				ctx = logg.WithSessionID(ctx, sid)
				if identity != nil {
					ctx = logg.WithUserID(ctx, identity.UserID)
					ctx = logg.WithActorRole(ctx, string(identity.Role))
				}
			}
			ctx = WithSession(ctx, sid, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
