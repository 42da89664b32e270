package server

import (
	"fmt"
	"net/http"
	"time"
)

const (
	// TokenCookieName holds the Todoist access token.
	TokenCookieName = "TODOIST_TOKEN"

	// StateCookieName holds the OAuth state between start and callback.
	StateCookieName = "todoist_oauth_state"

	stateCookieMaxAge = 10 * time.Minute
)

// setTokenCookie stores the access token, encrypted when a key is configured.
func (s *Server) setTokenCookie(w http.ResponseWriter, token string) error {
	value, err := s.cipher.Encrypt(token)
	if err != nil {
		return fmt.Errorf("failed to encrypt token cookie: %w", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.cfg.CookieSecure,
		SameSite: http.SameSiteStrictMode,
	})
	return nil
}

// readToken returns the access token from the request cookie. A cookie that
// cannot be decrypted counts as missing.
func (s *Server) readToken(r *http.Request) (string, bool) {
	c, err := r.Cookie(TokenCookieName)
	if err != nil || c.Value == "" {
		return "", false
	}
	token, err := s.cipher.Decrypt(c.Value)
	if err != nil {
		s.requestLogger(r).Debug("ignoring undecryptable token cookie", "error", err)
		return "", false
	}
	return token, token != ""
}

func (s *Server) clearTokenCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.cfg.CookieSecure,
		SameSite: http.SameSiteStrictMode,
	})
}

// stateCookiePath scopes the state cookie to the auth routes.
func (s *Server) stateCookiePath() string {
	return s.cfg.BasePath + "/api/auth"
}

// setStateCookie uses SameSite=Lax so the cookie survives the redirect back
// from todoist.com.
func (s *Server) setStateCookie(w http.ResponseWriter, state string) {
	http.SetCookie(w, &http.Cookie{
		Name:     StateCookieName,
		Value:    state,
		Path:     s.stateCookiePath(),
		MaxAge:   int(stateCookieMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   s.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearStateCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     StateCookieName,
		Value:    "",
		Path:     s.stateCookiePath(),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
