package daily

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/teemow/todoist-daily/internal/batch"
	"github.com/teemow/todoist-daily/internal/instrumentation"
	"github.com/teemow/todoist-daily/internal/logging"
	"github.com/teemow/todoist-daily/internal/todoist"
)

// DefaultProjectName is the project a report is built from unless configured otherwise.
const DefaultProjectName = "Work"

// Report is the "yesterday / today" task list of one project.
type Report struct {
	Today     []todoist.Task `json:"today"`
	Yesterday []todoist.Task `json:"yesterday"`
}

// ProjectNotFoundError is returned when no project has the configured name.
type ProjectNotFoundError struct {
	Name string
}

func (e *ProjectNotFoundError) Error() string {
	return fmt.Sprintf("Unable to find Todoist %q project", e.Name)
}

// FindProject returns the project whose name equals name exactly.
func FindProject(projects []todoist.Project, name string) (todoist.Project, error) {
	for _, p := range projects {
		if p.Name == name {
			return p, nil
		}
	}
	return todoist.Project{}, &ProjectNotFoundError{Name: name}
}

// Aggregator builds reports from a Source.
type Aggregator struct {
	source      Source
	projectName string
	location    *time.Location
	now         func() time.Time
	concurrency int
	maxDepth    int
	metrics     *instrumentation.Metrics
	logger      *slog.Logger
}

// AggregatorOption configures an Aggregator.
type AggregatorOption func(*Aggregator)

// WithProjectName selects the project by exact, case-sensitive name.
func WithProjectName(name string) AggregatorOption {
	return func(a *Aggregator) {
		if name != "" {
			a.projectName = name
		}
	}
}

// WithLocation sets the time zone "yesterday" is computed in.
func WithLocation(loc *time.Location) AggregatorOption {
	return func(a *Aggregator) {
		if loc != nil {
			a.location = loc
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) AggregatorOption {
	return func(a *Aggregator) {
		if now != nil {
			a.now = now
		}
	}
}

// WithConcurrency bounds the number of concurrent task fetches per step.
// Zero means unbounded.
func WithConcurrency(n int) AggregatorOption {
	return func(a *Aggregator) {
		a.concurrency = n
	}
}

// WithMaxDepth sets how many ancestors are followed per task.
func WithMaxDepth(n int) AggregatorOption {
	return func(a *Aggregator) {
		a.maxDepth = n
	}
}

// WithMetrics records report builds.
func WithMetrics(m *instrumentation.Metrics) AggregatorOption {
	return func(a *Aggregator) {
		a.metrics = m
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) AggregatorOption {
	return func(a *Aggregator) {
		if l != nil {
			a.logger = l
		}
	}
}

// NewAggregator returns an Aggregator reading from source.
func NewAggregator(source Source, opts ...AggregatorOption) *Aggregator {
	a := &Aggregator{
		source:      source,
		projectName: DefaultProjectName,
		location:    time.Local,
		now:         time.Now,
		maxDepth:    DefaultMaxDepth,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Build fetches and resolves the report.
func (a *Aggregator) Build(ctx context.Context) (report Report, err error) {
	ctx, span := instrumentation.StartSpan(ctx, "daily.build",
		attribute.String(instrumentation.SpanAttrProject, a.projectName))
	start := time.Now()
	logger := logging.WithOperation(a.logger, "daily.build")

	defer func() {
		duration := time.Since(start)
		status := instrumentation.StatusSuccess
		if err != nil {
			status = instrumentation.StatusError
		}
		instrumentation.EndSpan(span, err)
		a.metrics.RecordReportBuild(ctx, status, duration)
		logger.Debug("report build finished",
			logging.Project(a.projectName),
			logging.Status(status),
			logging.Duration(duration),
			logging.Err(err))
	}()

	projects, err := a.source.Projects(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("failed to list projects: %w", err)
	}

	project, err := FindProject(projects, a.projectName)
	if err != nil {
		return Report{}, err
	}

	resolver := NewResolver(a.source, a.maxDepth)

	todayTasks, err := a.source.TodayTasks(ctx, project.ID)
	if err != nil {
		return Report{}, fmt.Errorf("failed to list today's tasks: %w", err)
	}

	today, err := batch.Map(ctx, todayTasks, a.concurrency, resolver.Resolve)
	if err != nil {
		return Report{}, fmt.Errorf("failed to resolve today's tasks: %w", err)
	}

	since, until := YesterdayWindow(a.now(), a.location)
	completed, err := a.source.CompletedItems(ctx, project.ID, since, until)
	if err != nil {
		return Report{}, fmt.Errorf("failed to list completed tasks: %w", err)
	}

	yesterday, err := batch.Map(ctx, completed, a.concurrency, func(ctx context.Context, item todoist.CompletedItem) (todoist.Task, error) {
		task, err := resolver.Fetch(ctx, item.TaskID)
		if err != nil {
			return todoist.Task{}, fmt.Errorf("failed to fetch completed task %s: %w", item.TaskID, err)
		}
		return resolver.Resolve(ctx, task)
	})
	if err != nil {
		return Report{}, fmt.Errorf("failed to resolve yesterday's tasks: %w", err)
	}

	a.metrics.RecordReportTasks(ctx, "today", len(today))
	a.metrics.RecordReportTasks(ctx, "yesterday", len(yesterday))
	span.SetAttributes(attribute.Int(instrumentation.SpanAttrCount, len(today)+len(yesterday)))

	return Report{Today: today, Yesterday: yesterday}, nil
}
