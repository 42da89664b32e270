package daily

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/todoist-daily/internal/todoist"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestFindProject(t *testing.T) {
	projects := []todoist.Project{{ID: "1", Name: "work"}, {ID: "2", Name: "Work"}, {ID: "3", Name: "Work "}}

	p, err := FindProject(projects, "Work")
	require.NoError(t, err)
	assert.Equal(t, todoist.ID("2"), p.ID)

	_, err = FindProject(projects, "WORK")
	var notFound *ProjectNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "WORK", notFound.Name)
}

func TestProjectNotFoundError_Message(t *testing.T) {
	err := &ProjectNotFoundError{Name: "Work"}
	assert.Equal(t, `Unable to find Todoist "Work" project`, err.Error())
}

func TestAggregator_Build(t *testing.T) {
	src := newFakeSource()
	src.addItem(todoist.Task{ID: "100", Content: "Launch"})
	src.addItem(todoist.Task{ID: "101", Content: "Blog post", ParentID: "100"})
	src.addItem(todoist.Task{ID: "200", Content: "Ship fix", ParentID: "101"})
	src.addItem(todoist.Task{ID: "201", Content: "Reply to mail"})

	src.today = []todoist.Task{
		{ID: "1", Content: "Standup"},
		{ID: "2", Content: "Draft", ParentID: "100"},
		{ID: "3", Content: "Proofread", ParentID: "101"},
	}
	src.completed = []todoist.CompletedItem{
		{ID: "9001", TaskID: "200", Content: "Ship fix"},
		{ID: "9002", TaskID: "201", Content: "Reply to mail"},
	}

	now := time.Date(2021, 3, 15, 9, 0, 0, 0, time.UTC)
	agg := NewAggregator(src, WithClock(fixedClock(now)), WithLocation(time.UTC))

	report, err := agg.Build(context.Background())
	require.NoError(t, err)

	require.Len(t, report.Today, 3)
	assert.Equal(t, "Standup", report.Today[0].ContentWithParent)
	assert.Equal(t, "Launch 👉 Draft", report.Today[1].ContentWithParent)
	assert.Equal(t, "Launch 👉 Proofread", report.Today[2].ContentWithParent)

	require.Len(t, report.Yesterday, 2)
	assert.Equal(t, todoist.ID("200"), report.Yesterday[0].ID)
	assert.Equal(t, "Launch 👉 Ship fix", report.Yesterday[0].ContentWithParent)
	assert.Equal(t, "Reply to mail", report.Yesterday[1].ContentWithParent)

	assert.Equal(t, "2021-03-14T00:00", src.since.Format(todoist.SyncTimeFormat))
	assert.Equal(t, "2021-03-14T23:59", src.until.Format(todoist.SyncTimeFormat))
}

func TestAggregator_BuildEmpty(t *testing.T) {
	src := newFakeSource()

	report, err := NewAggregator(src).Build(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, report.Today)
	assert.NotNil(t, report.Yesterday)
	assert.Empty(t, report.Today)
	assert.Empty(t, report.Yesterday)
}

func TestAggregator_ProjectNotFound(t *testing.T) {
	src := newFakeSource()
	src.projects = []todoist.Project{{ID: "1", Name: "Personal"}}

	_, err := NewAggregator(src).Build(context.Background())

	var notFound *ProjectNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, `Unable to find Todoist "Work" project`, err.Error())
}

func TestAggregator_CustomProjectName(t *testing.T) {
	src := newFakeSource()
	src.projects = []todoist.Project{{ID: "7", Name: "Side Project"}}
	src.today = []todoist.Task{{ID: "1", Content: "Hack", ProjectID: "7"}}

	report, err := NewAggregator(src, WithProjectName("Side Project")).Build(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Today, 1)
	assert.Equal(t, "Hack", report.Today[0].ContentWithParent)
}

func TestAggregator_ProjectsError(t *testing.T) {
	boom := errors.New("connection refused")
	src := newFakeSource()
	src.projectsErr = boom

	_, err := NewAggregator(src).Build(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestAggregator_UnauthorizedPropagates(t *testing.T) {
	src := newFakeSource()
	src.projectsErr = &todoist.APIError{StatusCode: 401, Operation: "projects"}

	_, err := NewAggregator(src).Build(context.Background())
	assert.ErrorIs(t, err, todoist.ErrUnauthorized)
}

func TestAggregator_FailsWholeReportOnAnyTaskError(t *testing.T) {
	boom := errors.New("item fetch failed")
	src := newFakeSource()
	src.addItem(todoist.Task{ID: "100", Content: "Parent"})
	src.itemErr["201"] = boom
	src.today = []todoist.Task{{ID: "1", Content: "Child", ParentID: "100"}}
	src.completed = []todoist.CompletedItem{
		{TaskID: "100"},
		{TaskID: "201"},
	}

	report, err := NewAggregator(src, WithConcurrency(1)).Build(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, report.Today)
	assert.Nil(t, report.Yesterday)
}

func TestAggregator_ParentCycleFailsReport(t *testing.T) {
	src := newFakeSource()
	src.addItem(todoist.Task{ID: "a", Content: "A", ParentID: "b"})
	src.addItem(todoist.Task{ID: "b", Content: "B", ParentID: "a"})
	src.today = []todoist.Task{{ID: "c", Content: "C", ParentID: "a"}}

	_, err := NewAggregator(src).Build(context.Background())
	assert.ErrorIs(t, err, ErrParentCycle)
}
