package todoist

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ID is a Todoist object identifier.
// The API returns ids as JSON numbers on some endpoints and as strings on
// others; both decode into the same value. JSON null decodes as the empty ID.
type ID string

// UnmarshalJSON accepts a JSON string, number or null.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("invalid todoist id %s: %w", data, err)
		}
		*id = ID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid todoist id %s: %w", data, err)
	}
	*id = ID(n.String())
	return nil
}

// MarshalJSON always encodes the id as a JSON string.
func (id ID) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(id))
}

// String returns the id as a string.
func (id ID) String() string {
	return string(id)
}

// IsZero reports whether the id is empty.
func (id ID) IsZero() bool {
	return id == ""
}

// Project is a named grouping of tasks.
type Project struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
}

// Task is an active or completed Todoist task.
//
// ContentWithParent is not part of the API; it is filled in by the parent
// resolver before the task is handed to the page or the JSON API.
type Task struct {
	ID                ID     `json:"id"`
	TaskID            ID     `json:"task_id,omitempty"`
	Content           string `json:"content"`
	ParentID          ID     `json:"parent_id,omitempty"`
	ProjectID         ID     `json:"project_id,omitempty"`
	ContentWithParent string `json:"content_with_parent,omitempty"`
}

// HasParent reports whether the task is a subtask.
func (t Task) HasParent() bool {
	return !t.ParentID.IsZero()
}

// CompletedItem is the partial record returned by completed/get_all.
// TaskID references the full task, which must be fetched separately.
type CompletedItem struct {
	ID            ID     `json:"id"`
	TaskID        ID     `json:"task_id"`
	Content       string `json:"content"`
	ProjectID     ID     `json:"project_id"`
	CompletedDate string `json:"completed_date"`
}
