package storage

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tcmartin/flowgraph/pkg/config"
	"github.com/tcmartin/flowgraph/pkg/engine"
)

func newRedisStore(t *testing.T) *RedisExecutionStore {
	t.Helper()

	mr := miniredis.RunT(t)
	provider := NewRedisProvider(config.RedisConfig{Addr: mr.Addr()})
	require.NoError(t, provider.Initialize())
	t.Cleanup(func() { _ = provider.Close() })

	return provider.ExecutionStore().(*RedisExecutionStore)
}

func TestRedisExecutionStoreSaveAndGet(t *testing.T) {
	store := newRedisStore(t)

	status := engine.ExecutionStatus{
		ID:           "exec-1",
		WorkflowName: "demo",
		State:        engine.RunCompleted,
		StartTime:    time.Now().UTC().Truncate(time.Second),
		NodeStates: map[string]engine.NodeState{
			"a": engine.NodeSucceeded,
			"b": engine.NodeSkipped,
		},
	}
	require.NoError(t, store.SaveExecution(status))

	got, err := store.GetExecution("exec-1")
	require.NoError(t, err)
	assert.Equal(t, "demo", got.WorkflowName)
	assert.Equal(t, engine.RunCompleted, got.State)
	assert.Equal(t, engine.NodeSucceeded, got.NodeStates["a"])
}

func TestRedisExecutionStoreNotFound(t *testing.T) {
	store := newRedisStore(t)

	_, err := store.GetExecution("ghost")
	assert.ErrorIs(t, err, ErrExecutionNotFound)
}

func TestRedisExecutionStoreListNewestFirst(t *testing.T) {
	store := newRedisStore(t)
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
	assert.Equal(t, "old", list[2].ID)
}

func TestRedisExecutionStoreLogs(t *testing.T) {
	store := newRedisStore(t)

	require.NoError(t, store.SaveLog("exec-1", engine.LogEntry{NodeID: "a", State: engine.NodeSucceeded}))
	require.NoError(t, store.SaveLog("exec-1", engine.LogEntry{NodeID: "b", State: engine.NodeFailed, Error: "boom"}))

	logs, err := store.GetLogs("exec-1")
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "a", logs[0].NodeID)
	assert.Equal(t, "boom", logs[1].Error)

	logs, err = store.GetLogs("ghost")
	require.NoError(t, err)
	assert.Empty(t, logs)
}
