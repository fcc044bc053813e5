package resources

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTasksList(t *testing.T) {
	doer := &fakeDoer{responses: []any{
		map[string]any{
			"data":      []map[string]any{{"id": 1, "task_name": "ship", "status": "done"}},
			"page":      1,
			"page_size": 20,
			"total":     1,
		},
	}}
	started := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	page, err := NewTasks(doer).List(t.Context(), ListTasksParams{
		Page:      1,
		PageSize:  20,
		UserID:    ptr(int64(7)),
		TaskName:  ptr("ship"),
		StartedAt: &started,
		Status:    ptr(TaskStatusDone),
	})
	require.NoError(t, err)

	require.Len(t, page.Items, 1)
	assert.Equal(t, TaskStatusDone, page.Items[0].Status)
	assert.Equal(t, 1, page.Total)

	query := doer.last(t).Query
	assert.Equal(t, "/tasks", doer.last(t).Path)
	assert.Equal(t, "7", query.Get("user_id"))
	assert.Equal(t, "ship", query.Get("task_name"))
	assert.Equal(t, "done", query.Get("status"))
	assert.Equal(t, "2024-03-01T09:00:00Z", query.Get("started_at"))
	assert.False(t, query.Has("ended_at"))
}

func TestTasksListRejectsUnknownStatus(t *testing.T) {
	doer := &fakeDoer{}

	_, err := NewTasks(doer).List(t.Context(), ListTasksParams{Page: 1, PageSize: 10, Status: ptr(TaskStatus("paused"))})

	require.Error(t, err)
	assert.Empty(t, doer.requests)
}

func TestTasksCreate(t *testing.T) {
	doer := &fakeDoer{responses: []any{
		map[string]any{"data": map[string]any{"id": 5, "task_name": "write report", "status": "not_started"}},
	}}
	start := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	task, err := NewTasks(doer).Create(t.Context(), CreateTaskRequest{
		UserID:    1,
		TaskName:  "write report",
		StartedAt: start,
		EndedAt:   start.Add(2 * time.Hour),
		Status:    TaskStatusNotStarted,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(5), task.ID)
	assert.Equal(t, http.MethodPost, doer.last(t).Method)
	assert.Equal(t, "/task", doer.last(t).Path)
}

func TestTasksCreateValidation(t *testing.T) {
	start := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		req  CreateTaskRequest
	}{
		{"missing name", CreateTaskRequest{UserID: 1, StartedAt: start, EndedAt: start, Status: TaskStatusDone}},
		{"ends before start", CreateTaskRequest{UserID: 1, TaskName: "x", StartedAt: start, EndedAt: start.Add(-time.Hour), Status: TaskStatusDone}},
		{"unknown status", CreateTaskRequest{UserID: 1, TaskName: "x", StartedAt: start, EndedAt: start, Status: "paused"}},
		{"missing start", CreateTaskRequest{UserID: 1, TaskName: "x", EndedAt: start, Status: TaskStatusDone}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doer := &fakeDoer{}
			_, err := NewTasks(doer).Create(t.Context(), tt.req)
			assert.Error(t, err)
			assert.Empty(t, doer.requests)
		})
	}
}

func TestTasksUpdateAndDelete(t *testing.T) {
	doer := &fakeDoer{responses: []any{
		map[string]any{"data": map[string]any{"id": 3, "status": "abandoned"}},
	}}
	tasks := NewTasks(doer)
	start := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	task, err := tasks.Update(t.Context(), UpdateTaskRequest{
		ID:        3,
		UserID:    1,
		TaskName:  "write report",
		StartedAt: start,
		EndedAt:   start,
		Status:    TaskStatusAbandoned,
	})
	require.NoError(t, err)
	assert.Equal(t, TaskStatusAbandoned, task.Status)
	assert.Equal(t, "/task/3", doer.last(t).Path)
	assert.Equal(t, http.MethodPut, doer.last(t).Method)

	require.NoError(t, tasks.Delete(t.Context(), 3))
	assert.Equal(t, "/task/3", doer.last(t).Path)
	assert.Equal(t, http.MethodDelete, doer.last(t).Method)
}
