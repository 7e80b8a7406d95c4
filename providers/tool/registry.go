package tool

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	// ErrUnknownTool is returned by Lookup when no tool carries the name.
	ErrUnknownTool = errors.New("tool is not registered")
	// ErrDuplicateTool is returned by Register when the name is taken.
	ErrDuplicateTool = errors.New("tool name is already registered")
	// ErrEmptyToolName is returned when a tool advertises an empty name.
	ErrEmptyToolName = errors.New("tool name is empty")
)

// Registry maps tool names to tool instances for dispatch-time lookup.
// Names are case-insensitive: "Fetch_PR" and "fetch_pr" are the same tool.
//
// The registry is read-heavy after startup but safe for concurrent
// mutation; hot-swapping a tool during a run is allowed, with in-flight
// dispatches completing against whatever instance was current at lookup
// time.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]GenericTool
}

// NewRegistry creates a registry pre-populated with the given tools.
// Registration order matters only for duplicate detection: the first
// conflicting tool wins and the call errors.
func NewRegistry(tools ...GenericTool) (*Registry, error) {
	registry := &Registry{tools: make(map[string]GenericTool, len(tools))}
	for _, t := range tools {
		if err := registry.Register(t); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

// Register adds a tool under its advertised name. It fails with
// [ErrDuplicateTool] if the name (case-insensitively) is already taken and
// [ErrEmptyToolName] if the tool advertises no name.
func (r *Registry) Register(t GenericTool) error {
	name := strings.ToLower(t.ToolInfo().Name)
	if name == "" {
		return ErrEmptyToolName
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateTool, name)
	}
	r.tools[name] = t
	return nil
}

// Replace installs a tool under its advertised name regardless of whether
// the name is taken. This is the hot-swap path; Register is the startup
// path.
func (r *Registry) Replace(t GenericTool) {
	name := strings.ToLower(t.ToolInfo().Name)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[name] = t
}

// Lookup returns the tool registered under name, or [ErrUnknownTool].
func (r *Registry) Lookup(name string) (GenericTool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, exists := r.tools[strings.ToLower(name)]
	if !exists {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTool, name)
	}
	return t, nil
}

// Descriptions returns the advertised metadata of every registered tool,
// sorted by name, for embedding into reasoning prompts.
func (r *Registry) Descriptions() []Description {
	r.mu.RLock()
	defer r.mu.RUnlock()

	descriptions := make([]Description, 0, len(r.tools))
	for _, t := range r.tools {
		descriptions = append(descriptions, t.ToolInfo())
	}
	sort.Slice(descriptions, func(i, j int) bool {
		return descriptions[i].Name < descriptions[j].Name
	})
	return descriptions
}

// Size returns the number of registered tools.
func (r *Registry) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}
