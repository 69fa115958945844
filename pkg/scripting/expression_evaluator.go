package scripting

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/robertkrimen/otto"
)

// errExpressionHalt is panicked inside the otto VM to stop an evaluation.
var errExpressionHalt = errors.New("expression interrupted")

// ExpressionEvaluator evaluates ${...} expressions against a variable
// context. It is used for the lightweight expression mode of the condition
// node; full script bodies go through the ScriptEngine instead. Each
// evaluation runs in a fresh VM bounded by Timeout and the caller's context,
// so an unbounded expression cannot hang the run.
type ExpressionEvaluator struct {
	// Timeout bounds a single evaluation; zero means DefaultScriptTimeout
	Timeout time.Duration
}

// NewExpressionEvaluator creates a new expression evaluator
func NewExpressionEvaluator() *ExpressionEvaluator {
	return &ExpressionEvaluator{}
}

// IsExpression reports whether a string is a ${...} expression.
func IsExpression(s string) bool {
	return strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}")
}

// Evaluate processes an expression string with the given variables. Strings
// that are not ${...} expressions are returned unchanged. Failures surface as
// *ScriptExecutionError or *TimeoutError, same as the script engine.
func (e *ExpressionEvaluator) Evaluate(ctx context.Context, expression string, vars map[string]interface{}) (interface{}, error) {
	if !IsExpression(expression) {
		return expression, nil
	}

	expr := expression[2 : len(expression)-1]

	timeout := e.Timeout
	if timeout <= 0 {
		timeout = DefaultScriptTimeout
	}

	vm := otto.New()
	vm.Interrupt = make(chan func(), 1)

	for key, value := range vars {
		if err := vm.Set(key, value); err != nil {
			return nil, &ScriptExecutionError{Message: sanitizeMessage(err.Error())}
		}
	}

	halt := func() {
		select {
		case vm.Interrupt <- func() { panic(errExpressionHalt) }:
		default:
		}
	}

	// Interrupt on deadline or caller cancellation, mirroring the goja
	// engine. The interrupt fires inside the VM between statements.
	timer := time.AfterFunc(timeout, halt)
	defer timer.Stop()

	watchDone := make(chan struct{})
	defer close(watchDone)
	go func() {
		select {
		case <-ctx.Done():
			halt()
		case <-watchDone:
		}
	}()

	result, err := runExpression(vm, expr)
	if err != nil {
		if errors.Is(err, errExpressionHalt) {
			if ctx.Err() != nil {
				return nil, &ScriptExecutionError{Message: "execution cancelled"}
			}
			return nil, &TimeoutError{Timeout: timeout}
		}
		return nil, &ScriptExecutionError{Message: sanitizeMessage(err.Error())}
	}

	goValue, err := result.Export()
	if err != nil {
		return nil, &ScriptExecutionError{Message: sanitizeMessage(err.Error())}
	}
	return goValue, nil
}

// run executes the expression, converting the interrupt panic back into an
// error.
func runExpression(vm *otto.Otto, expr string) (value otto.Value, err error) {
	defer func() {
		if caught := recover(); caught != nil {
			if haltErr, ok := caught.(error); ok && errors.Is(haltErr, errExpressionHalt) {
				err = haltErr
				return
			}
			panic(caught)
		}
	}()
	return vm.Run(expr)
}

// EvaluateBool evaluates an expression and coerces the result to a boolean
// using JavaScript truthiness.
func (e *ExpressionEvaluator) EvaluateBool(ctx context.Context, expression string, vars map[string]interface{}) (bool, error) {
	value, err := e.Evaluate(ctx, expression, vars)
	if err != nil {
		return false, err
	}
	return Truthy(value), nil
}

// Truthy applies JavaScript truthiness rules to a Go value.
func Truthy(value interface{}) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	case float64:
		return v != 0
	case int:
		return v != 0
	case int64:
		return v != 0
	default:
		return true
	}
}

// String renders an evaluated value for route labels and log lines.
func String(value interface{}) string {
	if value == nil {
		return ""
	}
	return fmt.Sprintf("%v", value)
}
