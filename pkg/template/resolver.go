// Package template resolves {{path.to.value}} placeholders in node
// configuration against upstream node output.
package template

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/tcmartin/flowgraph/pkg/flow"
)

// VariableNotFoundError is returned when a placeholder cannot be resolved
// and the resolver is configured with ThrowOnMissing.
type VariableNotFoundError struct {
	// Name is the unresolved variable path
	Name string
}

// Error implements the error interface
func (e *VariableNotFoundError) Error() string {
	return fmt.Sprintf("variable %q not found", e.Name)
}

// Options configure a Resolver. The zero value gives the defaults:
// {{ / }} delimiters, nested access enabled, missing placeholders left as-is.
type Options struct {
	// Prefix of a placeholder, default "{{"
	Prefix string

	// Suffix of a placeholder, default "}}"
	Suffix string

	// DisableNestedAccess restricts paths to top-level keys
	DisableNestedAccess bool

	// ThrowOnMissing fails resolution instead of leaving the placeholder
	ThrowOnMissing bool
}

// Resolver resolves placeholders against the first input's payload.
type Resolver struct {
	opts Options
	re   *regexp.Regexp
}

var indexRe = regexp.MustCompile(`^(.*)\[(\d+)\]$`)

// NewResolver creates a resolver with the given options.
func NewResolver(opts Options) *Resolver {
	if opts.Prefix == "" {
		opts.Prefix = "{{"
	}
	if opts.Suffix == "" {
		opts.Suffix = "}}"
	}
	re := regexp.MustCompile(regexp.QuoteMeta(opts.Prefix) + `(.*?)` + regexp.QuoteMeta(opts.Suffix))
	return &Resolver{opts: opts, re: re}
}

// Resolve substitutes every placeholder in the template. The special names
// "data" and "input" resolve to the entire first input's payload. Missing
// values either leave the placeholder untouched (default) or return a
// *VariableNotFoundError when ThrowOnMissing is set.
func (r *Resolver) Resolve(template string, inputs []flow.NodeData) (string, error) {
	matches := r.re.FindAllStringSubmatchIndex(template, -1)
	if len(matches) == 0 {
		return template, nil
	}

	var payload map[string]interface{}
	if len(inputs) > 0 {
		payload = inputs[0].JSON
	}

	var b strings.Builder
	last := 0
	for _, m := range matches {
		b.WriteString(template[last:m[0]])
		name := strings.TrimSpace(template[m[2]:m[3]])

		value, found := r.lookup(payload, name)
		if !found {
			if r.opts.ThrowOnMissing {
				return "", &VariableNotFoundError{Name: name}
			}
			// leave the original placeholder text in place
			b.WriteString(template[m[0]:m[1]])
		} else {
			b.WriteString(formatValue(value))
		}
		last = m[1]
	}
	b.WriteString(template[last:])
	return b.String(), nil
}

// ResolveConfig applies Resolve to every string leaf of a nested
// configuration record, returning a deep copy. Non-string leaves are left
// untouched.
func (r *Resolver) ResolveConfig(config map[string]interface{}, inputs []flow.NodeData) (map[string]interface{}, error) {
	resolved, err := r.resolveValue(config, inputs)
	if err != nil {
		return nil, err
	}
	return resolved.(map[string]interface{}), nil
}

func (r *Resolver) resolveValue(value interface{}, inputs []flow.NodeData) (interface{}, error) {
	switch v := value.(type) {
	case string:
		return r.Resolve(v, inputs)
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for key, item := range v {
			resolved, err := r.resolveValue(item, inputs)
			if err != nil {
				return nil, err
			}
			out[key] = resolved
		}
		return out, nil
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, item := range v {
			resolved, err := r.resolveValue(item, inputs)
			if err != nil {
				return nil, err
			}
			out[i] = resolved
		}
		return out, nil
	default:
		return value, nil
	}
}

// ExtractVariables returns the variable paths referenced by a template, in
// order of appearance, without resolving them.
func (r *Resolver) ExtractVariables(template string) []string {
	matches := r.re.FindAllStringSubmatch(template, -1)
	var names []string
	for _, m := range matches {
		names = append(names, strings.TrimSpace(m[1]))
	}
	return names
}

// HasVariables reports whether a template contains any placeholder.
func (r *Resolver) HasVariables(template string) bool {
	return r.re.MatchString(template)
}

// lookup resolves a dotted path (with optional [i] index steps) against the
// payload. Traversal through a non-object yields not found.
func (r *Resolver) lookup(payload map[string]interface{}, name string) (interface{}, bool) {
	if name == "data" || name == "input" {
		if payload == nil {
			return map[string]interface{}{}, true
		}
		return payload, true
	}
	if payload == nil {
		return nil, false
	}

	if r.opts.DisableNestedAccess {
		v, ok := payload[name]
		return v, ok
	}

	var current interface{} = payload
	for _, part := range strings.Split(name, ".") {
		var index = -1
		if m := indexRe.FindStringSubmatch(part); m != nil {
			part = m[1]
			index, _ = strconv.Atoi(m[2])
		}

		if part != "" {
			obj, ok := current.(map[string]interface{})
			if !ok {
				return nil, false
			}
			current, ok = obj[part]
			if !ok {
				return nil, false
			}
		}

		if index >= 0 {
			arr, ok := current.([]interface{})
			if !ok || index >= len(arr) {
				return nil, false
			}
			current = arr[index]
		}
	}
	return current, true
}

// formatValue renders a resolved value: nil as "", strings as themselves,
// numbers and booleans in their textual form, objects and arrays as JSON.
func formatValue(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case map[string]interface{}, []interface{}:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(data)
	default:
		return fmt.Sprintf("%v", v)
	}
}
