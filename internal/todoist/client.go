package todoist

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/oauth2"

	"github.com/teemow/todoist-daily/internal/instrumentation"
	"github.com/teemow/todoist-daily/internal/logging"
)

// Default API locations.
const (
	DefaultRESTBaseURL = "https://api.todoist.com/rest/v1"
	DefaultSyncBaseURL = "https://api.todoist.com/sync/v8"

	// DefaultTimeout bounds a single Todoist call.
	DefaultTimeout = 30 * time.Second

	// SyncTimeFormat is the since/until layout accepted by completed/get_all.
	SyncTimeFormat = "2006-01-02T15:04"
)

// maxResponseBody bounds how much of a response body is read.
const maxResponseBody = 10 << 20

// Client calls the Todoist REST and sync APIs on behalf of a single user.
type Client struct {
	httpClient  *http.Client
	baseClient  *http.Client
	token       string
	restBaseURL string
	syncBaseURL string
	timeout     time.Duration
	project     string
	metrics     *instrumentation.Metrics
	logger      *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the base HTTP client the bearer transport wraps.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.baseClient = hc
	}
}

// WithRESTBaseURL overrides the REST v1 base URL.
func WithRESTBaseURL(u string) Option {
	return func(c *Client) {
		c.restBaseURL = strings.TrimSuffix(u, "/")
	}
}

// WithSyncBaseURL overrides the sync v8 base URL.
func WithSyncBaseURL(u string) Option {
	return func(c *Client) {
		c.syncBaseURL = strings.TrimSuffix(u, "/")
	}
}

// WithTimeout bounds every call. Zero or negative disables the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithMetrics records every call in the given metrics recorder.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithProjectLabel names the project the client works on. The name is added
// to API metrics when detailed labels are enabled.
func WithProjectLabel(name string) Option {
	return func(c *Client) {
		c.project = name
	}
}

// WithLogger sets the logger used for per-call debug logging.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient returns a client authenticated with the given access token.
func NewClient(ctx context.Context, token string, opts ...Option) *Client {
	c := &Client{
		token:       token,
		restBaseURL: DefaultRESTBaseURL,
		syncBaseURL: DefaultSyncBaseURL,
		timeout:     DefaultTimeout,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.baseClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, c.baseClient)
	}
	c.httpClient = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: token,
		TokenType:   "Bearer",
	}))
	c.logger = logging.WithService(c.logger, "todoist")

	return c
}

// Projects lists all projects of the user.
func (c *Client) Projects(ctx context.Context) ([]Project, error) {
	body, err := c.get(ctx, "projects", c.restBaseURL+"/projects")
	if err != nil {
		return nil, err
	}

	var projects []Project
	if err := json.Unmarshal(body, &projects); err != nil {
		return nil, fmt.Errorf("failed to decode projects: %w", err)
	}
	return projects, nil
}

// TodayTasks lists the active tasks of a project that match the "today" filter.
func (c *Client) TodayTasks(ctx context.Context, projectID ID) ([]Task, error) {
	q := url.Values{}
	q.Set("project_id", projectID.String())
	q.Set("filter", "today")

	body, err := c.get(ctx, "tasks", c.restBaseURL+"/tasks?"+q.Encode())
	if err != nil {
		return nil, err
	}

	var tasks []Task
	if err := json.Unmarshal(body, &tasks); err != nil {
		return nil, fmt.Errorf("failed to decode tasks: %w", err)
	}
	return tasks, nil
}

// CompletedItems lists the items of a project completed between since and until.
// Both times are formatted in their own location with minute precision.
func (c *Client) CompletedItems(ctx context.Context, projectID ID, since, until time.Time) ([]CompletedItem, error) {
	form := url.Values{}
	form.Set("project_id", projectID.String())
	form.Set("since", since.Format(SyncTimeFormat))
	form.Set("until", until.Format(SyncTimeFormat))

	body, err := c.postSync(ctx, "completed", "/completed/get_all", form)
	if err != nil {
		return nil, err
	}

	items := gjson.GetBytes(body, "items")
	if !items.Exists() {
		return nil, fmt.Errorf("todoist completed: response has no items field")
	}

	var completed []CompletedItem
	if err := json.Unmarshal([]byte(items.Raw), &completed); err != nil {
		return nil, fmt.Errorf("failed to decode completed items: %w", err)
	}
	return completed, nil
}

// Item fetches a single task by id.
func (c *Client) Item(ctx context.Context, id ID) (Task, error) {
	form := url.Values{}
	form.Set("item_id", id.String())

	body, err := c.postSync(ctx, "item", "/items/get", form,
		attribute.String(instrumentation.SpanAttrTaskID, id.String()))
	if err != nil {
		return Task{}, err
	}

	item := gjson.GetBytes(body, "item")
	if !item.Exists() || !item.IsObject() {
		return Task{}, fmt.Errorf("todoist item %s: response has no item object", id)
	}

	var task Task
	if err := json.Unmarshal([]byte(item.Raw), &task); err != nil {
		return Task{}, fmt.Errorf("failed to decode item %s: %w", id, err)
	}
	return task, nil
}

func (c *Client) get(ctx context.Context, operation, rawURL string) ([]byte, error) {
	return c.do(ctx, instrumentation.APIRest, operation, http.MethodGet, rawURL, nil)
}

func (c *Client) postSync(ctx context.Context, operation, path string, form url.Values, attrs ...attribute.KeyValue) ([]byte, error) {
	form.Set("token", c.token)
	return c.do(ctx, instrumentation.APISync, operation, http.MethodPost, c.syncBaseURL+path, form, attrs...)
}

func (c *Client) do(ctx context.Context, api, operation, method, rawURL string, form url.Values, attrs ...attribute.KeyValue) (body []byte, err error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	ctx, span := instrumentation.StartAPISpan(ctx, api, operation,
		append(attrs, attribute.String("http.method", method))...)
	start := time.Now()
	defer func() {
		duration := time.Since(start)
		status := instrumentation.StatusSuccess
		if err != nil {
			status = instrumentation.StatusError
		}
		instrumentation.EndSpan(span, err)
		c.metrics.RecordAPIOperation(ctx, api, operation, status, c.project, duration)
		c.logger.Debug("todoist call",
			logging.Operation(api+"."+operation),
			logging.Status(status),
			logging.Duration(duration),
			logging.Err(err))
	}()

	var reqBody io.Reader
	if form != nil {
		reqBody = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s request: %w", operation, err)
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("todoist %s request failed: %w", operation, err)
	}
	defer resp.Body.Close()

	body, err = io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("failed to read todoist %s response: %w", operation, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Operation:  operation,
			Body:       truncateBody(body),
		}
	}

	return body, nil
}
