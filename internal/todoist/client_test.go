package todoist

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/todoist-daily/internal/instrumentation"
)

const testToken = "test-token"

// newTestClient returns a client whose REST and sync base URLs point at srv.
func newTestClient(t *testing.T, srv *httptest.Server, opts ...Option) *Client {
	t.Helper()
	opts = append([]Option{
		WithHTTPClient(srv.Client()),
		WithRESTBaseURL(srv.URL + "/rest/v1"),
		WithSyncBaseURL(srv.URL + "/sync/v8"),
	}, opts...)
	return NewClient(context.Background(), testToken, opts...)
}

func TestClient_Projects(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/rest/v1/projects", r.URL.Path)
		assert.Equal(t, "Bearer "+testToken, r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id": 1, "name": "Inbox"}, {"id": "2", "name": "Work"}]`))
	}))
	defer srv.Close()

	projects, err := newTestClient(t, srv).Projects(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Project{{ID: "1", Name: "Inbox"}, {ID: "2", Name: "Work"}}, projects)
}

func TestClient_TodayTasks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/v1/tasks", r.URL.Path)
		assert.Equal(t, "42", r.URL.Query().Get("project_id"))
		assert.Equal(t, "today", r.URL.Query().Get("filter"))
		_, _ = w.Write([]byte(`[{"id": 10, "content": "Review PR", "parent_id": 9, "project_id": 42}]`))
	}))
	defer srv.Close()

	tasks, err := newTestClient(t, srv).TodayTasks(context.Background(), "42")
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, ID("10"), tasks[0].ID)
	assert.Equal(t, ID("9"), tasks[0].ParentID)
	assert.Equal(t, "Review PR", tasks[0].Content)
}

func TestClient_CompletedItems(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	since := time.Date(2021, 3, 14, 0, 0, 0, 0, loc)
	until := time.Date(2021, 3, 14, 23, 59, 59, 999999999, loc)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/sync/v8/completed/get_all", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "42", r.PostForm.Get("project_id"))
		assert.Equal(t, "2021-03-14T00:00", r.PostForm.Get("since"))
		assert.Equal(t, "2021-03-14T23:59", r.PostForm.Get("until"))
		assert.Equal(t, testToken, r.PostForm.Get("token"))
		_, _ = w.Write([]byte(`{"items": [{"id": 1, "task_id": 100, "content": "Done thing", "project_id": 42, "completed_date": "2021-03-14T10:00:00Z"}], "projects": {}}`))
	}))
	defer srv.Close()

	items, err := newTestClient(t, srv).CompletedItems(context.Background(), "42", since, until)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, ID("100"), items[0].TaskID)
	assert.Equal(t, "Done thing", items[0].Content)
}

func TestClient_CompletedItems_MissingItems(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"projects": {}}`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv).CompletedItems(context.Background(), "42", time.Now(), time.Now())
	assert.Error(t, err)
}

func TestClient_Item(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sync/v8/items/get", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "100", r.PostForm.Get("item_id"))
		assert.Equal(t, testToken, r.PostForm.Get("token"))
		_, _ = w.Write([]byte(`{"item": {"id": 100, "content": "Child", "parent_id": "50"}, "notes": []}`))
	}))
	defer srv.Close()

	task, err := newTestClient(t, srv).Item(context.Background(), "100")
	require.NoError(t, err)
	assert.Equal(t, Task{ID: "100", Content: "Child", ParentID: "50"}, task)
}

func TestClient_Item_MissingItem(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"item": null}`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv).Item(context.Background(), "100")
	assert.Error(t, err)
}

func TestClient_ErrorStatus(t *testing.T) {
	tests := []struct {
		name             string
		status           int
		wantUnauthorized bool
	}{
		{"unauthorized", http.StatusUnauthorized, true},
		{"forbidden", http.StatusForbidden, true},
		{"server error", http.StatusInternalServerError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "nope", tt.status)
			}))
			defer srv.Close()

			_, err := newTestClient(t, srv).Projects(context.Background())
			require.Error(t, err)

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, "projects", apiErr.Operation)
			assert.Equal(t, tt.wantUnauthorized, errors.Is(err, ErrUnauthorized))
		})
	}
}

func TestClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer srv.Close()
	defer close(release)

	client := newTestClient(t, srv, WithTimeout(20*time.Millisecond))

	_, err := client.Projects(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded), "got %v", err)
}

func TestClient_InvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv).TodayTasks(context.Background(), "1")
	assert.Error(t, err)
}

func TestClient_ProjectLabel(t *testing.T) {
	tests := []struct {
		name           string
		detailedLabels bool
		wantLabel      bool
	}{
		{name: "detailed labels", detailedLabels: true, wantLabel: true},
		{name: "default labels", detailedLabels: false, wantLabel: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			provider, err := instrumentation.NewProvider(ctx, instrumentation.Config{
				ServiceName:     "test-service",
				Enabled:         true,
				MetricsExporter: instrumentation.ExporterPrometheus,
				TracingExporter: instrumentation.ExporterNone,
				DetailedLabels:  tt.detailedLabels,
			})
			require.NoError(t, err)
			t.Cleanup(func() { _ = provider.Shutdown(ctx) })

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`[{"id": "2", "name": "Work"}]`))
			}))
			defer srv.Close()

			client := newTestClient(t, srv,
				WithMetrics(provider.Metrics()),
				WithProjectLabel("Work"))
			_, err = client.Projects(ctx)
			require.NoError(t, err)

			rec := httptest.NewRecorder()
			provider.PrometheusHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
			body := rec.Body.String()

			require.Contains(t, body, "todoist_api_operations_total")
			if tt.wantLabel {
				assert.Contains(t, body, `project="Work"`)
			} else {
				assert.NotContains(t, body, `project="Work"`)
			}
		})
	}
}
