// Package dispatch provides the table that maps protocol command names to
// action factories. The set of names is fixed when the daemon is built; nothing
// received over the wire can add to it.
package dispatch

import (
	"fmt"
	"sort"
	"sync"

	"github.com/mfulz/scenerelay/protocol"
)

// Action is a parameter-bound unit of work. It runs on the host's designated
// thread and returns a human readable result.
type Action func() (string, error)

// Factory binds parameters to an Action. It must not touch host state itself.
type Factory func(params protocol.Params) Action

// Table maps command names to their factories.
type Table struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// New creates an empty Table.
func New() *Table {
	return &Table{
		factories: make(map[string]Factory),
	}
}

// Register binds a command name to a factory.
// Registering the same name twice is a programming error and panics.
func (t *Table) Register(command string, factory Factory) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.factories[command]; exists {
		panic(fmt.Sprintf("command already registered: %s", command))
	}
	t.factories[command] = factory
}

// Resolve produces the action for a command. Unknown names return false.
func (t *Table) Resolve(command string, params protocol.Params) (Action, bool) {
	t.mu.RLock()
	factory, ok := t.factories[command]
	t.mu.RUnlock()

	if !ok {
		return nil, false
	}
	if params == nil {
		params = protocol.Params{}
	}
	return factory(params), true
}

// Names returns the registered command names in sorted order.
func (t *Table) Names() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	names := make([]string, 0, len(t.factories))
	for name := range t.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Without returns a copy of the table minus the given commands.
func (t *Table) Without(commands ...string) *Table {
	skip := make(map[string]struct{}, len(commands))
	for _, c := range commands {
		skip[c] = struct{}{}
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	out := New()
	for name, factory := range t.factories {
		if _, ok := skip[name]; ok {
			continue
		}
		out.factories[name] = factory
	}
	return out
}
