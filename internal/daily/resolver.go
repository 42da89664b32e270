package daily

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/singleflight"

	"github.com/teemow/todoist-daily/internal/todoist"
)

// Separator joins the top-most ancestor and the task in a label.
const Separator = " \U0001F449 "

// DefaultMaxDepth is the number of ancestors followed before giving up.
const DefaultMaxDepth = 32

var (
	// ErrParentCycle is returned when a task is its own ancestor.
	ErrParentCycle = errors.New("parent chain contains a cycle")

	// ErrChainTooDeep is returned when a task has more ancestors than the resolver follows.
	ErrChainTooDeep = errors.New("parent chain too deep")
)

// Resolver fills in ContentWithParent by walking a task's parent chain.
//
// Concurrent fetches of the same id through one Resolver share a single
// upstream call. Nothing is kept once a fetch completes, so a Resolver is meant
// to live for one report build.
type Resolver struct {
	source   Source
	maxDepth int
	group    singleflight.Group
}

// NewResolver returns a resolver fetching ancestors from source.
// A maxDepth <= 0 selects DefaultMaxDepth.
func NewResolver(source Source, maxDepth int) *Resolver {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Resolver{
		source:   source,
		maxDepth: maxDepth,
	}
}

// Resolve returns task with ContentWithParent set.
//
// A task without a parent is labelled with its own content. Otherwise the
// label is the content of the top-most ancestor, the separator, and the
// task's own content.
func (r *Resolver) Resolve(ctx context.Context, task todoist.Task) (todoist.Task, error) {
	if !task.HasParent() {
		task.ContentWithParent = task.Content
		return task, nil
	}

	visited := make(map[todoist.ID]struct{}, 4)
	if !task.ID.IsZero() {
		visited[task.ID] = struct{}{}
	}

	current := task
	for depth := 0; current.HasParent(); depth++ {
		if depth >= r.maxDepth {
			return todoist.Task{}, fmt.Errorf("task %s: %w (more than %d ancestors)", task.ID, ErrChainTooDeep, r.maxDepth)
		}

		parentID := current.ParentID
		if _, seen := visited[parentID]; seen {
			return todoist.Task{}, fmt.Errorf("task %s: %w at %s", task.ID, ErrParentCycle, parentID)
		}
		visited[parentID] = struct{}{}

		parent, err := r.Fetch(ctx, parentID)
		if err != nil {
			return todoist.Task{}, fmt.Errorf("failed to fetch parent %s of task %s: %w", parentID, task.ID, err)
		}
		current = parent
	}

	task.ContentWithParent = current.Content + Separator + task.Content
	return task, nil
}

// Fetch loads a single task, sharing the call with concurrent fetches of the same id.
func (r *Resolver) Fetch(ctx context.Context, id todoist.ID) (todoist.Task, error) {
	v, err, _ := r.group.Do(id.String(), func() (any, error) {
		return r.source.Item(ctx, id)
	})
	if err != nil {
		return todoist.Task{}, err
	}
	return v.(todoist.Task), nil
}
