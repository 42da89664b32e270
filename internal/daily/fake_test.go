package daily

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/teemow/todoist-daily/internal/todoist"
)

// fakeSource is an in-memory Source.
type fakeSource struct {
	projects    []todoist.Project
	today       []todoist.Task
	completed   []todoist.CompletedItem
	items       map[todoist.ID]todoist.Task
	projectsErr error
	itemErr     map[todoist.ID]error
	itemDelay   time.Duration

	mu         sync.Mutex
	since      time.Time
	until      time.Time
	itemCalls  map[todoist.ID]int
	totalCalls atomic.Int32
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		projects:  []todoist.Project{{ID: "1", Name: "Inbox"}, {ID: "2", Name: "Work"}},
		items:     map[todoist.ID]todoist.Task{},
		itemErr:   map[todoist.ID]error{},
		itemCalls: map[todoist.ID]int{},
	}
}

func (f *fakeSource) addItem(task todoist.Task) {
	f.items[task.ID] = task
}

func (f *fakeSource) Projects(context.Context) ([]todoist.Project, error) {
	if f.projectsErr != nil {
		return nil, f.projectsErr
	}
	return f.projects, nil
}

func (f *fakeSource) TodayTasks(_ context.Context, projectID todoist.ID) ([]todoist.Task, error) {
	var out []todoist.Task
	for _, t := range f.today {
		if t.ProjectID == "" || t.ProjectID == projectID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeSource) CompletedItems(_ context.Context, _ todoist.ID, since, until time.Time) ([]todoist.CompletedItem, error) {
	f.mu.Lock()
	f.since, f.until = since, until
	f.mu.Unlock()
	return f.completed, nil
}

func (f *fakeSource) Item(ctx context.Context, id todoist.ID) (todoist.Task, error) {
	f.totalCalls.Add(1)
	f.mu.Lock()
	f.itemCalls[id]++
	f.mu.Unlock()

	if f.itemDelay > 0 {
		select {
		case <-time.After(f.itemDelay):
		case <-ctx.Done():
			return todoist.Task{}, ctx.Err()
		}
	}

	if err, ok := f.itemErr[id]; ok {
		return todoist.Task{}, err
	}
	task, ok := f.items[id]
	if !ok {
		return todoist.Task{}, fmt.Errorf("item %s not found", id)
	}
	return task, nil
}

func (f *fakeSource) calls(id todoist.ID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.itemCalls[id]
}
