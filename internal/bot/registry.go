package bot

import (
	"fmt"
	"sync"
)

// Registry holds registered modules in registration order.
type Registry struct {
	mu      sync.RWMutex
	modules []Module
	names   map[string]struct{}
}

// NewRegistry creates a new module registry.
func NewRegistry() *Registry {
	return &Registry{
		modules: make([]Module, 0),
		names:   make(map[string]struct{}),
	}
}

// Register adds a module to the registry.
// It panics if m is nil or a module with the same name is already registered.
func (r *Registry) Register(m Module) {
	if m == nil {
		panic("bot: Register module is nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	name := m.Name()
	if _, dup := r.names[name]; dup {
		panic("bot: Register called twice for module " + name)
	}
	r.names[name] = struct{}{}
	r.modules = append(r.modules, m)
}

// Modules returns a snapshot of all registered modules.
func (r *Registry) Modules() []Module {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Module, len(r.modules))
	copy(result, r.modules)
	return result
}

// Global registry instance for module self-registration via init()
var globalRegistry = NewRegistry()

// Register adds a module to the global registry.
// This is typically called from module init() functions.
func Register(m Module) {
	globalRegistry.Register(m)
}

// Modules returns all modules from the global registry.
func Modules() []Module {
	return globalRegistry.Modules()
}

// ResetGlobalRegistry resets the global registry.
// This is intended for testing purposes only.
func ResetGlobalRegistry() {
	globalRegistry = NewRegistry()
}

// checkConflicts reports two modules claiming the same slash command or component prefix.
// Handler maps are merged into one table, so a conflict would silently shadow a handler.
func checkConflicts(modules []Module) error {
	commands := make(map[string]string)
	prefixes := make(map[string]string)

	for _, mod := range modules {
		for _, cmd := range mod.Commands() {
			if owner, ok := commands[cmd.Name]; ok {
				return fmt.Errorf("command %q is provided by both %s and %s", cmd.Name, owner, mod.Name())
			}
			commands[cmd.Name] = mod.Name()
		}

		cm, ok := mod.(ComponentModule)
		if !ok {
			continue
		}
		for prefix := range cm.ComponentHandlers() {
			if owner, ok := prefixes[prefix]; ok {
				return fmt.Errorf("component prefix %q is provided by both %s and %s", prefix, owner, mod.Name())
			}
			prefixes[prefix] = mod.Name()
		}
	}

	return nil
}
