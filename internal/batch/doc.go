// Package batch runs the same operation over a list of inputs concurrently.
//
// Results keep the order of their inputs. The first failing operation cancels
// the context handed to the remaining ones and its error is returned.
//
//	tasks, err := batch.Map(ctx, ids, 0, func(ctx context.Context, id todoist.ID) (todoist.Task, error) {
//	    return client.Item(ctx, id)
//	})
package batch
