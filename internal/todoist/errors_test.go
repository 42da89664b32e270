package todoist

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAPIError_IsUnauthorized(t *testing.T) {
	tests := []struct {
		status int
		want   bool
	}{
		{http.StatusUnauthorized, true},
		{http.StatusForbidden, true},
		{http.StatusNotFound, false},
		{http.StatusInternalServerError, false},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			err := fmt.Errorf("wrapped: %w", &APIError{StatusCode: tt.status, Operation: "projects"})
			assert.Equal(t, tt.want, errors.Is(err, ErrUnauthorized))
		})
	}
}

func TestAPIError_Error(t *testing.T) {
	err := &APIError{StatusCode: 500, Operation: "tasks", Body: "oops"}
	assert.Equal(t, "todoist tasks: http status 500: oops", err.Error())

	err = &APIError{StatusCode: 502, Operation: "item"}
	assert.Equal(t, "todoist item: http status 502", err.Error())
}

func TestTruncateBody(t *testing.T) {
	short := []byte("short")
	assert.Equal(t, "short", truncateBody(short))

	long := []byte(strings.Repeat("x", maxErrorBody+10))
	got := truncateBody(long)
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.Len(t, got, maxErrorBody+3)
}
