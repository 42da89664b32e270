package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Setting keys. Each key is also the lower-cased name of its environment variable.
const (
	KeyConfigFile          = "config_file"
	KeyClientID            = "todoist_client_id"
	KeyClientSecret        = "todoist_client_secret"
	KeyToken               = "todoist_token"
	KeyBasePath            = "base_path"
	KeyBaseURL             = "base_url"
	KeyHTTPAddr            = "http_addr"
	KeyProjectName         = "project_name"
	KeyTimezone            = "timezone"
	KeyCookieEncryptionKey = "cookie_encryption_key"
	KeyCookieSecure        = "cookie_secure"
	KeyRateLimitRate       = "rate_limit_rate"
	KeyRateLimitBurst      = "rate_limit_burst"
	KeyTrustProxy          = "trust_proxy"
	KeyTodoistTimeout      = "todoist_timeout"
	KeyFetchConcurrency    = "fetch_concurrency"
	KeyMetricsEnabled      = "metrics_enabled"
	KeyMetricsAddr         = "metrics_addr"
	KeyLogFormat           = "log_format"
	KeyLogLevel            = "log_level"
)

// Defaults.
const (
	DefaultHTTPAddr       = ":3000"
	DefaultProjectName    = "Work"
	DefaultTodoistTimeout = 30 * time.Second
	DefaultMetricsAddr    = ":9090"
	DefaultRateLimitRate  = 5.0
	DefaultRateLimitBurst = 20
	DefaultLogFormat      = "text"
	DefaultLogLevel       = "info"
)

// Config holds the resolved settings.
type Config struct {
	ClientID     string
	ClientSecret string

	// Token is the Todoist access token used by the report command.
	Token string

	// BasePath prefixes every application route, e.g. "/daily". Empty means root.
	BasePath string

	// BaseURL is the externally visible origin, e.g. "https://example.com".
	// When set, the OAuth redirect URI is BaseURL + BasePath + "/api/auth/callback".
	BaseURL string

	HTTPAddr    string
	ProjectName string

	Timezone string
	Location *time.Location

	// CookieKey is the decoded 32-byte AES key. Nil disables cookie encryption.
	CookieKey    []byte
	CookieSecure bool

	// RateLimitRate is the per-IP request rate in requests per second. Zero disables limiting.
	RateLimitRate  float64
	RateLimitBurst int
	TrustProxy     bool

	TodoistTimeout   time.Duration
	FetchConcurrency int

	MetricsEnabled bool
	MetricsAddr    string

	LogFormat string
	LogLevel  string
}

// flagSpec ties a setting key to its flag.
type flagSpec struct {
	key   string
	flag  string
	usage string
}

var flagSpecs = []flagSpec{
	{KeyConfigFile, "config", "Path to a YAML config file"},
	{KeyClientID, "client-id", "Todoist OAuth client ID (env: TODOIST_CLIENT_ID)"},
	{KeyClientSecret, "client-secret", "Todoist OAuth client secret (env: TODOIST_CLIENT_SECRET)"},
	{KeyToken, "token", "Todoist access token for the report command (env: TODOIST_TOKEN)"},
	{KeyBasePath, "base-path", "Path prefix for all routes, e.g. /daily (env: BASE_PATH)"},
	{KeyBaseURL, "base-url", "Public origin used to build the OAuth redirect URI (env: BASE_URL)"},
	{KeyHTTPAddr, "http-addr", "HTTP listen address (env: HTTP_ADDR)"},
	{KeyProjectName, "project", "Name of the Todoist project to report on (env: PROJECT_NAME)"},
	{KeyTimezone, "timezone", "IANA time zone for computing yesterday, default local (env: TIMEZONE)"},
	{KeyCookieEncryptionKey, "cookie-encryption-key", "Base64 AES-256 key for encrypting the token cookie (env: COOKIE_ENCRYPTION_KEY)"},
	{KeyCookieSecure, "cookie-secure", "Mark cookies Secure (env: COOKIE_SECURE)"},
	{KeyRateLimitRate, "rate-limit-rate", "Per-IP requests per second, 0 disables (env: RATE_LIMIT_RATE)"},
	{KeyRateLimitBurst, "rate-limit-burst", "Per-IP burst size (env: RATE_LIMIT_BURST)"},
	{KeyTrustProxy, "trust-proxy", "Trust X-Forwarded-For for client IPs (env: TRUST_PROXY)"},
	{KeyTodoistTimeout, "todoist-timeout", "Timeout for a single Todoist call (env: TODOIST_TIMEOUT)"},
	{KeyFetchConcurrency, "fetch-concurrency", "Maximum concurrent task fetches, 0 is unbounded (env: FETCH_CONCURRENCY)"},
	{KeyMetricsEnabled, "metrics-enabled", "Serve Prometheus metrics on a separate port (env: METRICS_ENABLED)"},
	{KeyMetricsAddr, "metrics-addr", "Metrics listen address (env: METRICS_ADDR)"},
	{KeyLogFormat, "log-format", "Log format: text or json (env: LOG_FORMAT)"},
	{KeyLogLevel, "log-level", "Log level: debug, info, warn, error (env: LOG_LEVEL)"},
}

// RegisterFlags defines every setting flag on fs.
func RegisterFlags(fs *pflag.FlagSet) {
	for _, spec := range flagSpecs {
		switch spec.key {
		case KeyCookieSecure, KeyTrustProxy:
			fs.Bool(spec.flag, false, spec.usage)
		case KeyMetricsEnabled:
			fs.Bool(spec.flag, true, spec.usage)
		case KeyRateLimitRate:
			fs.Float64(spec.flag, DefaultRateLimitRate, spec.usage)
		case KeyRateLimitBurst:
			fs.Int(spec.flag, DefaultRateLimitBurst, spec.usage)
		case KeyFetchConcurrency:
			fs.Int(spec.flag, 0, spec.usage)
		case KeyTodoistTimeout:
			fs.Duration(spec.flag, DefaultTodoistTimeout, spec.usage)
		default:
			fs.String(spec.flag, defaultString(spec.key), spec.usage)
		}
	}
}

func defaultString(key string) string {
	switch key {
	case KeyHTTPAddr:
		return DefaultHTTPAddr
	case KeyProjectName:
		return DefaultProjectName
	case KeyMetricsAddr:
		return DefaultMetricsAddr
	case KeyLogFormat:
		return DefaultLogFormat
	case KeyLogLevel:
		return DefaultLogLevel
	}
	return ""
}

// NewViper returns a viper instance bound to the flags registered by
// RegisterFlags and to their environment variables.
func NewViper(fs *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	for _, spec := range flagSpecs {
		if err := v.BindEnv(spec.key, strings.ToUpper(spec.key)); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", spec.key, err)
		}
		if f := fs.Lookup(spec.flag); f != nil {
			if err := v.BindPFlag(spec.key, f); err != nil {
				return nil, fmt.Errorf("failed to bind flag --%s: %w", spec.flag, err)
			}
		}
	}
	return v, nil
}

// Load resolves the settings from v, reading the config file if one is set.
func Load(v *viper.Viper) (*Config, error) {
	if path := v.GetString(KeyConfigFile); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	cfg := &Config{
		ClientID:         v.GetString(KeyClientID),
		ClientSecret:     v.GetString(KeyClientSecret),
		Token:            v.GetString(KeyToken),
		BasePath:         NormalizeBasePath(v.GetString(KeyBasePath)),
		BaseURL:          strings.TrimSuffix(v.GetString(KeyBaseURL), "/"),
		HTTPAddr:         v.GetString(KeyHTTPAddr),
		ProjectName:      v.GetString(KeyProjectName),
		Timezone:         v.GetString(KeyTimezone),
		CookieSecure:     v.GetBool(KeyCookieSecure),
		RateLimitRate:    v.GetFloat64(KeyRateLimitRate),
		RateLimitBurst:   v.GetInt(KeyRateLimitBurst),
		TrustProxy:       v.GetBool(KeyTrustProxy),
		TodoistTimeout:   v.GetDuration(KeyTodoistTimeout),
		FetchConcurrency: v.GetInt(KeyFetchConcurrency),
		MetricsEnabled:   v.GetBool(KeyMetricsEnabled),
		MetricsAddr:      v.GetString(KeyMetricsAddr),
		LogFormat:        v.GetString(KeyLogFormat),
		LogLevel:         v.GetString(KeyLogLevel),
	}

	if cfg.ProjectName == "" {
		cfg.ProjectName = DefaultProjectName
	}

	loc, err := LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, err
	}
	cfg.Location = loc

	if raw := v.GetString(KeyCookieEncryptionKey); raw != "" {
		key, err := DecodeKey(raw)
		if err != nil {
			return nil, err
		}
		cfg.CookieKey = key
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings shared by every command.
func (c *Config) Validate() error {
	if c.TodoistTimeout < 0 {
		return fmt.Errorf("todoist timeout must not be negative, got %s", c.TodoistTimeout)
	}
	if c.FetchConcurrency < 0 {
		return fmt.Errorf("fetch concurrency must not be negative, got %d", c.FetchConcurrency)
	}
	if c.RateLimitRate < 0 {
		return fmt.Errorf("rate limit rate must not be negative, got %g", c.RateLimitRate)
	}
	if c.RateLimitRate > 0 && c.RateLimitBurst <= 0 {
		return fmt.Errorf("rate limit burst must be positive when rate limiting is enabled, got %d", c.RateLimitBurst)
	}
	if c.BaseURL != "" {
		u, err := url.Parse(c.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("base URL %q must be an absolute URL", c.BaseURL)
		}
	}
	return nil
}

// ErrMissingCredentials is returned by ValidateServer when the OAuth client is not configured.
var ErrMissingCredentials = errors.New("TODOIST_CLIENT_ID and TODOIST_CLIENT_SECRET are required")

// ValidateServer checks the settings the HTTP server needs in addition to Validate.
func (c *Config) ValidateServer() error {
	if c.ClientID == "" || c.ClientSecret == "" {
		return ErrMissingCredentials
	}
	if c.HTTPAddr == "" {
		return errors.New("http address must not be empty")
	}
	if c.MetricsEnabled && c.MetricsAddr == "" {
		return errors.New("metrics address must not be empty when metrics are enabled")
	}
	return nil
}

// RedirectURL returns the OAuth callback URL, or "" when BaseURL is not set.
func (c *Config) RedirectURL() string {
	if c.BaseURL == "" {
		return ""
	}
	return c.BaseURL + c.BasePath + "/api/auth/callback"
}

// NormalizeBasePath returns p with a leading slash and no trailing slash.
// "", "/" and whitespace all mean the root.
func NormalizeBasePath(p string) string {
	p = strings.Trim(strings.TrimSpace(p), "/")
	if p == "" {
		return ""
	}
	return "/" + p
}

// LoadLocation resolves an IANA zone name; empty means time.Local.
func LoadLocation(name string) (*time.Location, error) {
	if name == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", name, err)
	}
	return loc, nil
}

// DecodeKey decodes a base64 AES-256 key.
func DecodeKey(encoded string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return nil, fmt.Errorf("invalid cookie encryption key: not valid base64: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("invalid cookie encryption key: must decode to 32 bytes, got %d", len(key))
	}
	return key, nil
}
