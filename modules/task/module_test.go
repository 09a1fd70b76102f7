package task

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	domain "github.com/example/jarvis-task-api/domain/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startTestModule(t *testing.T) *TaskModule {
	t.Helper()

	m := NewModule("sqlite://"+filepath.Join(t.TempDir(), "jarvis.db"), false)
	require.NoError(t, m.Start(context.Background()))
	t.Cleanup(func() {
		m.Stop(context.Background())
	})
	return m
}

func TestTaskModule_Lifecycle(t *testing.T) {
	m := NewModule("sqlite://"+filepath.Join(t.TempDir(), "jarvis.db"), false)
	ctx := context.Background()

	assert.Equal(t, "task", m.Name())
	assert.Nil(t, m.Service())

	health := m.Health(ctx)
	assert.False(t, health.Healthy)

	require.NoError(t, m.Start(ctx))
	assert.NotNil(t, m.Service())

	health = m.Health(ctx)
	assert.True(t, health.Healthy)
	assert.Equal(t, "sqlite", health.Details["driver"])

	require.NoError(t, m.Stop(ctx))

	health = m.Health(ctx)
	assert.False(t, health.Healthy)
}

func TestTaskModule_StopBeforeStart(t *testing.T) {
	m := NewModule("jarvis.db", false)
	assert.NoError(t, m.Stop(context.Background()))
}

func TestTaskModule_HandlersBeforeStart(t *testing.T) {
	m := NewModule("jarvis.db", false)
	ctx := context.Background()

	_, err := m.getTask(ctx, GetTaskRequest{ID: 1}, nil)
	assert.ErrorIs(t, err, errNotStarted)

	_, err = m.listTasks(ctx, ListTasksRequest{}, nil)
	assert.ErrorIs(t, err, errNotStarted)
}

func TestTaskModule_Handlers(t *testing.T) {
	m := startTestModule(t)
	ctx := context.Background()

	created, err := m.createTask(ctx, CreateTaskRequest{
		Title: "Renew passport",
		Tags:  []string{"admin"},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultCategory, created.Category)

	got, err := m.getTask(ctx, GetTaskRequest{ID: created.ID}, nil)
	require.NoError(t, err)
	assert.Equal(t, created.Title, got.Title)

	list, err := m.listTasks(ctx, ListTasksRequest{}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, list.Total)
	assert.Len(t, list.Tasks, 1)

	updated, err := m.updateTask(ctx, UpdateTaskRequest{
		ID:    created.ID,
		Patch: domain.Patch{Outcome: domain.Some(strPtr("appointment booked"))},
	}, nil)
	require.NoError(t, err)
	require.NotNil(t, updated.Outcome)
	assert.Equal(t, "appointment booked", *updated.Outcome)

	done, err := m.updateStatus(ctx, UpdateStatusRequest{ID: created.ID, Status: domain.StatusDone}, nil)
	require.NoError(t, err)
	assert.NotNil(t, done.CompletedAt)

	deleted, err := m.deleteTask(ctx, DeleteTaskRequest{ID: created.ID}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Task 'Renew passport' deleted", deleted.Message)

	_, err = m.getTask(ctx, GetTaskRequest{ID: created.ID}, nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// The request-reply codec must keep absent patch fields absent.
func TestUpdateTaskRequest_JSONKeepsPresence(t *testing.T) {
	req := UpdateTaskRequest{
		ID: 7,
		Patch: domain.Patch{
			Details: domain.Some[*string](nil),
		},
	}

	data, err := json.Marshal(req)
	require.NoError(t, err)

	var decoded UpdateTaskRequest
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, uint(7), decoded.ID)
	assert.True(t, decoded.Patch.Details.Set)
	assert.Nil(t, decoded.Patch.Details.Value)
	assert.False(t, decoded.Patch.Title.Set)
	assert.False(t, decoded.Patch.Outcome.Set)
	assert.False(t, decoded.Patch.Tags.Set)
}

func TestSQLiteDSN(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "jarvis.db?_foreign_keys=on&_busy_timeout=5000"},
		{"jarvis.db", "jarvis.db?_foreign_keys=on&_busy_timeout=5000"},
		{"sqlite:///./jarvis.db", "./jarvis.db?_foreign_keys=on&_busy_timeout=5000"},
		{"sqlite://data/tasks.db", "data/tasks.db?_foreign_keys=on&_busy_timeout=5000"},
		{"file.db?cache=shared", "file.db?cache=shared&_foreign_keys=on&_busy_timeout=5000"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, sqliteDSN(tt.in), tt.in)
	}
}
