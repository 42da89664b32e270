package daily

import (
	"context"
	"time"

	"github.com/teemow/todoist-daily/internal/todoist"
)

// Source is the subset of the Todoist API a report is built from.
// *todoist.Client implements it.
type Source interface {
	Projects(ctx context.Context) ([]todoist.Project, error)
	TodayTasks(ctx context.Context, projectID todoist.ID) ([]todoist.Task, error)
	CompletedItems(ctx context.Context, projectID todoist.ID, since, until time.Time) ([]todoist.CompletedItem, error)
	Item(ctx context.Context, id todoist.ID) (todoist.Task, error)
}

var _ Source = (*todoist.Client)(nil)
