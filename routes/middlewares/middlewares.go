package middlewares

import (
	"context"
	"net/http"
	"net/url"

	"formlink/httpx"
	"formlink/log"
	"formlink/token"
)

type contextKey int

const claimsKey contextKey = iota

// ClaimsFrom returns the validated claims stored by Auth.
func ClaimsFrom(ctx context.Context) (token.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(token.Claims)
	return claims, ok
}

// Auth validates the token cookie and stores the claims in the
// request context. Requests without a valid token get a 401, never a
// 500.
func Auth(tokens *token.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie("token")
			if err != nil {
				httpx.LogStatus(w, http.StatusUnauthorized, log.DebugLevel, "auth.cookie")
				return
			}

			claims, err := tokens.Validate(cookie.Value)
			if err != nil {
				log.Debugf("auth.validate: %s", err)
				httpx.LogStatus(w, http.StatusUnauthorized, log.DebugLevel, "auth.validate")
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireLevel rejects authenticated requests whose level does not
// pass the area's policy check.
func RequireLevel(allow func(level int) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFrom(r.Context())
			if !ok || !allow(claims.Level) {
				httpx.LogStatus(w, http.StatusForbidden, log.DebugLevel, "auth.level")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// PageGate protects a browser-facing area. Every method is gated; the
// redirect UX is reserved for GET navigation. Missing or invalid
// tokens on a GET redirect to the entry point carrying the original
// URI as a return target, any other method gets a bare 401; a wrong
// level redirects a GET to the user's own area and rejects the rest
// with 403. The downstream handler runs into a buffer so a 401 raised
// deeper still becomes a redirect instead of a bare error page.
func PageGate(tokens *token.Service, allow func(level int) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			loginLocation := "/?redirect=" + url.QueryEscape(r.RequestURI)
			deny := func(code string) {
				if r.Method == http.MethodGet {
					redirect(w, loginLocation)
					return
				}
				httpx.LogStatus(w, http.StatusUnauthorized, log.DebugLevel, code)
			}

			cookie, err := r.Cookie("token")
			if err != nil {
				deny("page_gate.cookie")
				return
			}
			claims, err := tokens.Validate(cookie.Value)
			if err != nil {
				log.Debugf("page_gate.validate: %s", err)
				deny("page_gate.validate")
				return
			}
			if !allow(claims.Level) {
				if r.Method == http.MethodGet {
					redirect(w, claims.Role.HomePath())
					return
				}
				httpx.LogStatus(w, http.StatusForbidden, log.DebugLevel, "page_gate.level")
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			buf := httpx.NewResponseBuffer()
			next.ServeHTTP(buf, r.WithContext(ctx))
			if buf.Status() == http.StatusUnauthorized && r.Method == http.MethodGet {
				redirect(w, loginLocation)
				return
			}
			buf.Flush(w)
		})
	}
}

func redirect(w http.ResponseWriter, location string) {
	w.Header().Set("location", location)
	w.WriteHeader(http.StatusTemporaryRedirect)
}
