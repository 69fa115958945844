package scripting

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsExpression(t *testing.T) {
	assert.True(t, IsExpression("${input.count > 3}"))
	assert.False(t, IsExpression("input.count > 3"))
	assert.False(t, IsExpression("${unterminated"))
}

func TestEvaluatePassesThroughPlainStrings(t *testing.T) {
	e := NewExpressionEvaluator()

	result, err := e.Evaluate(context.Background(), "just text", nil)
	require.NoError(t, err)
	assert.Equal(t, "just text", result)
}

func TestEvaluateExpression(t *testing.T) {
	e := NewExpressionEvaluator()

	result, err := e.Evaluate(context.Background(), "${input.count * 2}", map[string]interface{}{
		"input": map[string]interface{}{"count": 5},
	})
	require.NoError(t, err)
	assert.EqualValues(t, 10, result)
}

func TestEvaluateBool(t *testing.T) {
	e := NewExpressionEvaluator()
	vars := map[string]interface{}{
		"input": map[string]interface{}{"count": 5, "name": ""},
	}

	ok, err := e.EvaluateBool(context.Background(), "${input.count > 3}", vars)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = e.EvaluateBool(context.Background(), "${input.name}", vars)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEvaluateInvalidExpression(t *testing.T) {
	e := NewExpressionEvaluator()

	_, err := e.Evaluate(context.Background(), "${this is not javascript}", nil)
	require.Error(t, err)

	var scriptErr *ScriptExecutionError
	assert.ErrorAs(t, err, &scriptErr)
}

func TestEvaluateTimeoutInterruptsUnboundedLoop(t *testing.T) {
	e := NewExpressionEvaluator()
	e.Timeout = 50 * time.Millisecond

	started := time.Now()
	_, err := e.Evaluate(context.Background(), "${(function(){ while(true){} })()}", nil)
	elapsed := time.Since(started)

	require.Error(t, err)
	assert.True(t, IsTimeout(err), "expected a timeout error, got %v", err)
	assert.Less(t, elapsed, 500*time.Millisecond, "interrupt should fire near the deadline")
}

func TestEvaluateContextCancellation(t *testing.T) {
	e := NewExpressionEvaluator()
	e.Timeout = 10 * time.Second

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	started := time.Now()
	_, err := e.Evaluate(ctx, "${(function(){ while(true){} })()}", nil)
	elapsed := time.Since(started)

	require.Error(t, err)
	var scriptErr *ScriptExecutionError
	require.ErrorAs(t, err, &scriptErr)
	assert.Contains(t, scriptErr.Message, "cancelled")
	assert.Less(t, elapsed, 500*time.Millisecond)
}

func TestTruthy(t *testing.T) {
	assert.False(t, Truthy(nil))
	assert.False(t, Truthy(false))
	assert.False(t, Truthy(""))
	assert.False(t, Truthy(float64(0)))
	assert.False(t, Truthy(0))
	assert.False(t, Truthy(int64(0)))

	assert.True(t, Truthy(true))
	assert.True(t, Truthy("x"))
	assert.True(t, Truthy(float64(0.1)))
	assert.True(t, Truthy(map[string]interface{}{}))
}

func TestString(t *testing.T) {
	assert.Equal(t, "", String(nil))
	assert.Equal(t, "abc", String("abc"))
	assert.Equal(t, "42", String(42))
}
