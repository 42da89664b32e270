package server

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/teemow/todoist-daily/internal/instrumentation"
	"github.com/teemow/todoist-daily/internal/logging"
)

// handleAuthStart redirects the browser to the Todoist consent screen.
func (s *Server) handleAuthStart(w http.ResponseWriter, r *http.Request) {
	state := uuid.NewString()
	s.setStateCookie(w, state)
	http.Redirect(w, r, s.oauth.AuthCodeURL(state), http.StatusTemporaryRedirect)
}

// handleAuthCallback exchanges the authorization code and stores the token.
func (s *Server) handleAuthCallback(w http.ResponseWriter, r *http.Request) {
	logger := logging.WithOperation(s.requestLogger(r), "oauth.callback")
	query := r.URL.Query()

	if errParam := query.Get("error"); errParam != "" {
		s.metrics.RecordOAuthAuth(r.Context(), instrumentation.OAuthResultDenied)
		logger.Info("authorization denied", "error", errParam)
		http.Error(w, errParam, http.StatusInternalServerError)
		return
	}

	code := query.Get("code")
	if code == "" {
		http.Error(w, "Bad request", http.StatusUnauthorized)
		return
	}

	// Only enforced when the flow started here and set the cookie.
	if c, err := r.Cookie(StateCookieName); err == nil && c.Value != "" {
		s.clearStateCookie(w)
		if query.Get("state") != c.Value {
			s.metrics.RecordOAuthAuth(r.Context(), instrumentation.OAuthResultStateMismatch)
			logger.Warn("oauth state mismatch")
			http.Error(w, "Invalid state", http.StatusBadRequest)
			return
		}
	}

	token, err := s.oauth.Exchange(r.Context(), code)
	if err != nil {
		s.metrics.RecordOAuthAuth(r.Context(), instrumentation.OAuthResultFailure)
		logger.Error("token exchange failed", logging.Err(err))
		http.Error(w, "Unable to exchange authorization code", http.StatusBadGateway)
		return
	}

	if err := s.setTokenCookie(w, token); err != nil {
		s.metrics.RecordOAuthAuth(r.Context(), instrumentation.OAuthResultFailure)
		logger.Error("failed to store token", logging.Err(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	s.metrics.RecordOAuthAuth(r.Context(), instrumentation.OAuthResultSuccess)
	logger.Info("user authorized", "token", logging.SanitizeToken(token))
	http.Redirect(w, r, s.homePath(), http.StatusTemporaryRedirect)
}

// handleLogout forgets the stored token.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.clearTokenCookie(w)
	http.Redirect(w, r, s.homePath(), http.StatusTemporaryRedirect)
}
