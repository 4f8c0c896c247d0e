package middlewares

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/oauth"

	"github.com/TRSiddique/university-association-sub000/httpx"
	"github.com/TRSiddique/university-association-sub000/log"
)

const refreshCookieMaxAge = 60 * 60 * 24 * 365

// Admin checks for a valid bearer token carrying the 'admin' role.
func Admin(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return chi.Chain(oauth.Authorize(secret, nil), admin).Handler(next)
	}
}

// IsAdmin reports whether the request was authorised with the admin role.
// Handlers pass the result down as the "can manage forms" capability.
func IsAdmin(r *http.Request) bool {
	claims, ok := r.Context().Value(oauth.ClaimsContext).(map[string]string)
	if !ok {
		return false
	}
	for _, role := range strings.Split(claims["roles"], ",") {
		if strings.TrimSpace(role) == httpx.AdminRole {
			return true
		}
	}
	return false
}

func admin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !IsAdmin(r) {
			httpx.LogStatus(w, http.StatusForbidden, log.DebugLevel, "auth.admin.forbidden")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// CookieAuth lets browser pages authenticate with the access_token cookie,
// refreshing it from the refresh_token cookie when it has expired. Without
// usable cookies the user is redirected to the login page.
func CookieAuth(bearerServer *oauth.BearerServer) func(http.Handler) http.Handler {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				h.ServeHTTP(w, r)
				return
			}

			token, err := r.Cookie("access_token")
			if err != nil && !errors.Is(err, http.ErrNoCookie) {
				httpx.LogInternalError(w, "auth.cookie.access_token", err)
				return
			}
			if err == nil {
				r.Header.Set("authorization", "Bearer "+token.Value)
				buf := httpx.NewResponseBuffer()
				h.ServeHTTP(buf, r)
				if buf.Status() != http.StatusUnauthorized {
					buf.Flush(w)
					return
				}
			}

			loginLocation := "/login?goto=" + url.QueryEscape(r.RequestURI)

			refreshToken, err := r.Cookie("refresh_token")
			if err != nil {
				if !errors.Is(err, http.ErrNoCookie) {
					httpx.LogInternalError(w, "auth.cookie.refresh_token", err)
					return
				}
				http.Redirect(w, r, loginLocation, http.StatusTemporaryRedirect)
				return
			}

			tokens, status := Grant(r.Context(), bearerServer, url.Values{
				"grant_type":    {"refresh_token"},
				"refresh_token": {refreshToken.Value},
			})
			if status == http.StatusUnauthorized {
				http.SetCookie(w, &http.Cookie{
					Path:     "/",
					Name:     "refresh_token",
					Value:    "",
					MaxAge:   -1,
					SameSite: http.SameSiteStrictMode,
				})
				http.Redirect(w, r, loginLocation, http.StatusTemporaryRedirect)
				return
			}
			if status != http.StatusOK {
				httpx.LogStatus(w, status, log.WarnLevel, "auth.cookie.refresh")
				return
			}

			SetTokenCookies(w, tokens)
			r.Header.Set("authorization", "Bearer "+tokens.AccessToken)
			h.ServeHTTP(w, r)
		})
	}
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

// Grant runs a password or refresh_token grant against the bearer server
// in-process and returns the issued tokens with the grant's status code.
func Grant(ctx context.Context, bearerServer *oauth.BearerServer, values url.Values) (TokenPair, int) {
	req, err := httpx.GrantRequest(ctx, values)
	if err != nil {
		return TokenPair{}, http.StatusInternalServerError
	}

	resp := httpx.NewResponseBuffer()
	bearerServer.UserCredentials(resp, req)
	if resp.Status() != http.StatusOK {
		return TokenPair{}, resp.Status()
	}

	var tokens TokenPair
	if err := json.Unmarshal(resp.Body(), &tokens); err != nil {
		return TokenPair{}, http.StatusInternalServerError
	}
	return tokens, http.StatusOK
}

// SetTokenCookies stores both tokens as HttpOnly cookies.
func SetTokenCookies(w http.ResponseWriter, tokens TokenPair) {
	http.SetCookie(w, &http.Cookie{
		Path:     "/",
		Name:     "access_token",
		Value:    tokens.AccessToken,
		MaxAge:   tokens.ExpiresIn,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
	http.SetCookie(w, &http.Cookie{
		Path:     "/",
		Name:     "refresh_token",
		Value:    tokens.RefreshToken,
		MaxAge:   refreshCookieMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}
