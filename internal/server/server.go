package server

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/teemow/todoist-daily/internal/daily"
	"github.com/teemow/todoist-daily/internal/instrumentation"
)

const (
	// DefaultReadHeaderTimeout bounds how long a client may take to send headers.
	DefaultReadHeaderTimeout = 10 * time.Second

	// DefaultWriteTimeout covers a full report build, which fans out to Todoist.
	DefaultWriteTimeout = 60 * time.Second

	// DefaultIdleTimeout is the keep-alive timeout.
	DefaultIdleTimeout = 120 * time.Second
)

// Config holds the settings the HTTP server needs.
type Config struct {
	// BasePath prefixes every application route. Empty or "/x" without a trailing slash.
	BasePath string

	// ProjectName is the Todoist project the report is built from.
	ProjectName string

	// Location defines "yesterday". Nil means the local time zone.
	Location *time.Location

	// CookieKey enables AES-256-GCM encryption of the token cookie when set.
	CookieKey []byte

	// CookieSecure marks cookies Secure.
	CookieSecure bool

	// RateLimitRate is the per-IP request rate. Zero or less disables limiting.
	RateLimitRate  float64
	RateLimitBurst int

	// TrustProxy makes the rate limiter honor X-Forwarded-For and X-Real-IP.
	TrustProxy bool

	// FetchConcurrency bounds parallel Todoist calls per batch. Zero means unbounded.
	FetchConcurrency int
}

// OAuthFlow is the authorization code flow against Todoist.
type OAuthFlow interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (string, error)
}

// SourceFactory returns a task source authenticated with token.
type SourceFactory func(ctx context.Context, token string) daily.Source

// Server serves the dashboard page, its JSON API and the OAuth handlers.
type Server struct {
	cfg       Config
	oauth     OAuthFlow
	newSource SourceFactory

	cipher  *CookieCipher
	limiter *RateLimiter
	health  *HealthChecker
	page    *template.Template

	metrics *instrumentation.Metrics
	logger  *slog.Logger
	now     func() time.Time
	version string

	httpServer *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics records HTTP, OAuth and report metrics.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the clock used to compute "yesterday".
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}

// WithVersion sets the version reported by /healthz/detailed.
func WithVersion(version string) Option {
	return func(s *Server) {
		s.version = version
	}
}

// New creates a server. oauth and newSource are required.
func New(cfg Config, oauth OAuthFlow, newSource SourceFactory, opts ...Option) (*Server, error) {
	if oauth == nil {
		return nil, errors.New("oauth flow is required")
	}
	if newSource == nil {
		return nil, errors.New("source factory is required")
	}

	cipher, err := NewCookieCipher(cfg.CookieKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie cipher: %w", err)
	}

	page, err := parsePageTemplate()
	if err != nil {
		return nil, err
	}

	if cfg.ProjectName == "" {
		cfg.ProjectName = daily.DefaultProjectName
	}

	s := &Server{
		cfg:       cfg,
		oauth:     oauth,
		newSource: newSource,
		cipher:    cipher,
		page:      page,
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.health = NewHealthChecker(s.version)
	if cfg.RateLimitRate > 0 {
		s.limiter = NewRateLimiter(cfg.RateLimitRate, cfg.RateLimitBurst, cfg.TrustProxy)
	}
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: DefaultReadHeaderTimeout,
		WriteTimeout:      DefaultWriteTimeout,
		IdleTimeout:       DefaultIdleTimeout,
	}
	return s, nil
}

// Handler returns the complete middleware-wrapped route tree.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	base := s.cfg.BasePath

	s.handle(mux, "GET "+base+"/api/auth/start", s.handleAuthStart)
	s.handle(mux, "GET "+base+"/api/auth/callback", s.handleAuthCallback)
	s.handle(mux, "GET "+base+"/api/auth/logout", s.handleLogout)
	s.handle(mux, "GET "+base+"/api/tasks", s.handleTasks)
	s.handle(mux, "GET "+base+"/{$}", s.handleIndex)
	if base != "" {
		s.handle(mux, "GET "+base, s.handleIndex)
	}

	s.health.RegisterHealthEndpoints(mux)

	var h http.Handler = mux
	h = s.instrument(h)
	h = securityHeaders(h)
	h = s.recoverer(h)
	h = requestID(h)
	return h
}

// handle registers an application route behind the rate limiter.
func (s *Server) handle(mux *http.ServeMux, pattern string, fn http.HandlerFunc) {
	var h http.Handler = fn
	if s.limiter != nil {
		h = s.limiter.Middleware(h)
	}
	mux.Handle(pattern, h)
}

// Start listens on addr and serves until Shutdown is called. It blocks.
func (s *Server) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln until Shutdown is called. Readiness
// passes once serving starts. It blocks and closes ln on return.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("starting http server", "addr", ln.Addr().String(), "base_path", s.cfg.BasePath)
	s.health.SetReady(true)
	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown fails readiness, stops the rate limiter and drains connections.
// A server shut down before Serve never accepts a connection.
func (s *Server) Shutdown(ctx context.Context) error {
	s.health.SetShuttingDown()
	if s.limiter != nil {
		s.limiter.Stop()
	}
	return s.httpServer.Shutdown(ctx)
}

// homePath is where the browser lands after login and logout.
func (s *Server) homePath() string {
	if s.cfg.BasePath == "" {
		return "/"
	}
	return s.cfg.BasePath
}

// ValidateHTTPSRequirement checks that the public base URL uses HTTPS.
// Plain HTTP is accepted for loopback hosts only.
func ValidateHTTPSRequirement(baseURL string) error {
	if baseURL == "" {
		return fmt.Errorf("base URL cannot be empty")
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}

	switch u.Scheme {
	case "https":
		return nil
	case "http":
		host := u.Hostname()
		if host != "localhost" && host != "127.0.0.1" && host != "::1" {
			return fmt.Errorf("OAuth callbacks require HTTPS outside localhost (got: %s)", baseURL)
		}
		return nil
	default:
		return fmt.Errorf("invalid URL scheme: %s. Must be http (localhost only) or https", u.Scheme)
	}
}
