// Package scripting provides the sandboxed execution of user-supplied script
// snippets and lightweight expression evaluation for node configuration.
package scripting

import (
	"context"
	"time"
)

// DefaultScriptTimeout bounds script execution when no timeout is configured.
const DefaultScriptTimeout = 5 * time.Second

// ScriptOptions bound a single script execution.
type ScriptOptions struct {
	// Timeout after which the script is interrupted. Zero means
	// DefaultScriptTimeout.
	Timeout time.Duration

	// AllowAsync permits the script to return a settled promise. A pending
	// promise is always an error.
	AllowAsync bool

	// AllowedCapabilities whitelists host service names the script may see.
	// Empty means the script gets no host access at all.
	AllowedCapabilities []string
}

// ScriptEngine executes a short user-supplied script against an explicit
// variable set under a timeout and a restricted capability surface. A script
// sees exactly the provided variables plus whitelisted host services; it has
// no ambient access to the filesystem, network or process.
type ScriptEngine interface {
	// ExecuteCode runs the script and returns its result value. All
	// failures are normalized to *ScriptExecutionError or *TimeoutError.
	ExecuteCode(ctx context.Context, script string, variables map[string]interface{}, hostServices map[string]interface{}, opts ScriptOptions) (interface{}, error)
}
