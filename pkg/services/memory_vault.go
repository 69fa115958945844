package services

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// MemoryVault is an in-memory Vault implementation used by the CLI and tests.
type MemoryVault struct {
	resources map[string]string
	mu        sync.RWMutex
}

// NewMemoryVault creates a new in-memory vault
func NewMemoryVault() *MemoryVault {
	return &MemoryVault{
		resources: make(map[string]string),
	}
}

// Read returns the content of the resource at path
func (v *MemoryVault) Read(path string) (string, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	content, ok := v.resources[path]
	if !ok {
		return "", fmt.Errorf("resource %q not found", path)
	}
	return content, nil
}

// Write creates or replaces the resource at path
func (v *MemoryVault) Write(path string, content string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.resources[path] = content
	return nil
}

// Rename moves a resource to a new path
func (v *MemoryVault) Rename(oldPath, newPath string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	content, ok := v.resources[oldPath]
	if !ok {
		return fmt.Errorf("resource %q not found", oldPath)
	}
	delete(v.resources, oldPath)
	v.resources[newPath] = content
	return nil
}

// Delete removes the resource at path
func (v *MemoryVault) Delete(path string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if _, ok := v.resources[path]; !ok {
		return fmt.Errorf("resource %q not found", path)
	}
	delete(v.resources, path)
	return nil
}

// List returns the paths of all resources under prefix
func (v *MemoryVault) List(prefix string) ([]string, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	var paths []string
	for path := range v.resources {
		if strings.HasPrefix(path, prefix) {
			paths = append(paths, path)
		}
	}
	sort.Strings(paths)
	return paths, nil
}
