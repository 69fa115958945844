package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tcmartin/flowgraph/pkg/engine"
)

func TestMemoryExecutionStoreSaveAndGet(t *testing.T) {
	store := NewMemoryExecutionStore()

	status := engine.ExecutionStatus{
		ID:           "exec-1",
		WorkflowName: "demo",
		State:        engine.RunRunning,
		StartTime:    time.Now(),
	}
	require.NoError(t, store.SaveExecution(status))

	got, err := store.GetExecution("exec-1")
	require.NoError(t, err)
	assert.Equal(t, "demo", got.WorkflowName)
	assert.Equal(t, engine.RunRunning, got.State)

	// Saving again replaces the prior state.
	status.State = engine.RunCompleted
	require.NoError(t, store.SaveExecution(status))
	got, err = store.GetExecution("exec-1")
	require.NoError(t, err)
	assert.Equal(t, engine.RunCompleted, got.State)
}

func TestMemoryExecutionStoreNotFound(t *testing.T) {
	store := NewMemoryExecutionStore()

	_, err := store.GetExecution("ghost")
	assert.ErrorIs(t, err, ErrExecutionNotFound)
}

func TestMemoryExecutionStoreListNewestFirst(t *testing.T) {
	store := NewMemoryExecutionStore()
	base := time.Now()

	for i, id := range []string{"old", "middle", "new"} {
		require.NoError(t, store.SaveExecution(engine.ExecutionStatus{
			ID:        id,
			StartTime: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	list, err := store.ListExecutions()
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "new", list[0].ID)
	assert.Equal(t, "middle", list[1].ID)
	assert.Equal(t, "old", list[2].ID)
}

func TestMemoryExecutionStoreLogs(t *testing.T) {
	store := NewMemoryExecutionStore()

	require.NoError(t, store.SaveLog("exec-1", engine.LogEntry{NodeID: "a", State: engine.NodeSucceeded}))
	require.NoError(t, store.SaveLog("exec-1", engine.LogEntry{NodeID: "b", State: engine.NodeFailed}))

	logs, err := store.GetLogs("exec-1")
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "a", logs[0].NodeID)
	assert.Equal(t, "b", logs[1].NodeID)

	// Unknown executions have no logs rather than an error.
	logs, err = store.GetLogs("ghost")
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestMemoryProviderLifecycle(t *testing.T) {
	p := NewMemoryProvider()
	require.NoError(t, p.Initialize())
	assert.NotNil(t, p.ExecutionStore())
	assert.NoError(t, p.Close())
}
