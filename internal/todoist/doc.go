// Package todoist is a small client for the parts of the Todoist API the daily
// report needs.
//
// It talks to two API surfaces:
//   - REST v1 for projects and today's tasks
//   - Sync v8 for completed items and single-item lookups
//
// and implements the OAuth2 authorization code flow against todoist.com.
//
// # Authentication
//
// Every call is authenticated with a bearer token. The token is attached through
// an oauth2.StaticTokenSource; the sync endpoints additionally receive it as the
// "token" form field.
//
// # Example Usage
//
//	client := todoist.NewClient(ctx, token)
//
//	projects, err := client.Projects(ctx)
//	if err != nil {
//	    return err
//	}
//
//	tasks, err := client.TodayTasks(ctx, projects[0].ID)
//
// # Errors
//
// Non-2xx responses are returned as *APIError. Responses with status 401 or 403
// also match ErrUnauthorized:
//
//	if errors.Is(err, todoist.ErrUnauthorized) {
//	    // ask the user to sign in again
//	}
package todoist
