package flow

import (
	"fmt"
	"strings"
)

// ValidationError reports structural problems in a graph. It is fatal before
// any run starts; nothing recovers from it.
type ValidationError struct {
	// Issues enumerates every structural problem found
	Issues []string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("graph validation failed: %s", strings.Join(e.Issues, "; "))
}

// ConfigurationError reports a missing or invalid node parameter. It is
// fatal for that node and surfaces as the node Failed.
type ConfigurationError struct {
	// NodeID is the node whose configuration is invalid
	NodeID string

	// Parameter is the offending parameter name
	Parameter string

	// Reason describes the problem
	Reason string
}

// Error implements the error interface
func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("node %q: parameter %q %s", e.NodeID, e.Parameter, e.Reason)
}
