package todoist

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/teemow/todoist-daily/internal/instrumentation"
)

// ScopeDataRead grants read access to all of the user's data.
const ScopeDataRead = "data:read"

// Endpoint is the Todoist OAuth2 endpoint. Client credentials are sent in the
// token request body.
var Endpoint = oauth2.Endpoint{
	AuthURL:   "https://todoist.com/oauth/authorize",
	TokenURL:  "https://todoist.com/oauth/access_token",
	AuthStyle: oauth2.AuthStyleInParams,
}

// OAuth runs the authorization code flow against Todoist.
type OAuth struct {
	config     *oauth2.Config
	httpClient *http.Client
	metrics    *instrumentation.Metrics
}

// OAuthOption configures OAuth.
type OAuthOption func(*OAuth)

// WithEndpoint overrides the authorize and token URLs.
func WithEndpoint(endpoint oauth2.Endpoint) OAuthOption {
	return func(o *OAuth) {
		o.config.Endpoint = endpoint
	}
}

// WithOAuthHTTPClient sets the HTTP client used for the token exchange.
func WithOAuthHTTPClient(hc *http.Client) OAuthOption {
	return func(o *OAuth) {
		o.httpClient = hc
	}
}

// WithOAuthMetrics records token exchanges as Todoist API operations.
func WithOAuthMetrics(m *instrumentation.Metrics) OAuthOption {
	return func(o *OAuth) {
		o.metrics = m
	}
}

// NewOAuth returns an OAuth flow for the given application credentials.
// An empty redirectURL leaves the redirect to the one registered with Todoist.
func NewOAuth(clientID, clientSecret, redirectURL string, opts ...OAuthOption) *OAuth {
	o := &OAuth{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     Endpoint,
			Scopes:       []string{ScopeDataRead},
		},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// AuthCodeURL returns the authorize URL the user is redirected to.
func (o *OAuth) AuthCodeURL(state string) string {
	return o.config.AuthCodeURL(state)
}

// Exchange trades an authorization code for an access token.
func (o *OAuth) Exchange(ctx context.Context, code string) (accessToken string, err error) {
	if o.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, o.httpClient)
	}

	ctx, span := instrumentation.StartAPISpan(ctx, instrumentation.APIOAuth, "exchange")
	start := time.Now()
	defer func() {
		status := instrumentation.StatusSuccess
		if err != nil {
			status = instrumentation.StatusError
		}
		instrumentation.EndSpan(span, err)
		o.metrics.RecordAPIOperation(ctx, instrumentation.APIOAuth, "exchange", status, "", time.Since(start))
	}()

	token, err := o.config.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("failed to exchange authorization code: %w", err)
	}
	return token.AccessToken, nil
}
