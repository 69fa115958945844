package scripting

import (
	"context"
	"fmt"
	"time"

	"github.com/dop251/goja"
)

// GojaScriptEngine is the ScriptEngine implementation backed by the goja
// JavaScript interpreter. Each execution gets a fresh VM, so scripts cannot
// observe state left behind by earlier executions.
type GojaScriptEngine struct {
	// LogFunc receives console.log output from scripts; nil discards it
	LogFunc func(message string)
}

// NewScriptEngine creates a new goja-backed script engine
func NewScriptEngine() *GojaScriptEngine {
	return &GojaScriptEngine{}
}

// ExecuteCode runs the script and returns its result value. All failures
// are normalized to *ScriptExecutionError or *TimeoutError.
func (e *GojaScriptEngine) ExecuteCode(ctx context.Context, script string, variables map[string]interface{}, hostServices map[string]interface{}, opts ScriptOptions) (interface{}, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultScriptTimeout
	}

	vm := goja.New()

	for name, value := range variables {
		if err := vm.Set(name, value); err != nil {
			return nil, &ScriptExecutionError{Message: sanitizeMessage(err.Error())}
		}
	}

	// Host services are invisible unless explicitly whitelisted.
	allowed := make(map[string]bool, len(opts.AllowedCapabilities))
	for _, name := range opts.AllowedCapabilities {
		allowed[name] = true
	}
	for name, svc := range hostServices {
		if allowed[name] {
			if err := vm.Set(name, svc); err != nil {
				return nil, &ScriptExecutionError{Message: sanitizeMessage(err.Error())}
			}
		}
	}

	console := vm.NewObject()
	_ = console.Set("log", func(call goja.FunctionCall) goja.Value {
		if e.LogFunc != nil {
			parts := make([]interface{}, 0, len(call.Arguments))
			for _, a := range call.Arguments {
				parts = append(parts, a.Export())
			}
			e.LogFunc(fmt.Sprintln(parts...))
		}
		return goja.Undefined()
	})
	_ = vm.Set("console", console)

	// Interrupt on deadline or caller cancellation. The timer fires inside
	// the VM, so an unbounded loop cannot hang the caller.
	timer := time.AfterFunc(timeout, func() {
		vm.Interrupt("timeout")
	})
	defer timer.Stop()

	watchDone := make(chan struct{})
	defer close(watchDone)
	go func() {
		select {
		case <-ctx.Done():
			vm.Interrupt("cancelled")
		case <-watchDone:
		}
	}()

	// Wrap the snippet in a function body so return statements work.
	wrapped := "(function() {\n" + script + "\n})()"

	value, err := vm.RunString(wrapped)
	if err != nil {
		if _, ok := err.(*goja.InterruptedError); ok {
			if ctx.Err() != nil {
				return nil, &ScriptExecutionError{Message: "execution cancelled"}
			}
			return nil, &TimeoutError{Timeout: timeout}
		}
		return nil, &ScriptExecutionError{Message: sanitizeMessage(err.Error())}
	}

	result := value.Export()

	if promise, ok := result.(*goja.Promise); ok {
		if !opts.AllowAsync {
			return nil, &ScriptExecutionError{Message: "script returned an asynchronous result but async is not allowed"}
		}
		switch promise.State() {
		case goja.PromiseStateFulfilled:
			return promise.Result().Export(), nil
		case goja.PromiseStateRejected:
			return nil, &ScriptExecutionError{Message: sanitizeMessage(promise.Result().String())}
		default:
			return nil, &ScriptExecutionError{Message: "script returned a pending asynchronous result"}
		}
	}

	return result, nil
}
