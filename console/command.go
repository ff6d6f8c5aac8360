package console

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrUsage          = errors.New("usage")
)

// CommandHandler handles one console command. args excludes the command name.
type CommandHandler func(args []string) error

// Command is a registered console command
type Command struct {
	ID      uint16
	Name    string
	Format  string // Argument synopsis for help (e.g., "<ms>")
	Help    string
	Handler CommandHandler
}

// Registry holds console commands
type Registry struct {
	mu         sync.RWMutex
	commands   map[uint16]*Command
	nameToID   map[string]uint16
	nextID     uint16
	dictionary string // Help text, rebuilt on registration
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		commands: make(map[uint16]*Command),
		nameToID: make(map[string]uint16),
	}
}

// Register adds a command. Registering a name twice keeps the first
// handler and returns its ID.
func (r *Registry) Register(name, format, help string, handler CommandHandler) uint16 {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id, exists := r.nameToID[name]; exists {
		return id
	}

	id := r.nextID
	r.nextID++

	r.commands[id] = &Command{
		ID:      id,
		Name:    name,
		Format:  format,
		Help:    help,
		Handler: handler,
	}
	r.nameToID[name] = id

	r.rebuildDictionary()
	return id
}

// Lookup finds a command by name
func (r *Registry) Lookup(name string) (*Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.nameToID[name]
	if !ok {
		return nil, false
	}
	return r.commands[id], true
}

// Count returns the number of registered commands
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.commands)
}

// Names returns the registered command names, sorted
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.nameToID))
	for name := range r.nameToID {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dispatch runs the named command
func (r *Registry) Dispatch(name string, args []string) error {
	cmd, ok := r.Lookup(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}
	return cmd.Handler(args)
}

// Dictionary returns one help line per command in registration order
func (r *Registry) Dictionary() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.dictionary
}

// rebuildDictionary rebuilds the help text
// Must be called with lock held
func (r *Registry) rebuildDictionary() {
	var b strings.Builder
	for i := uint16(0); i < r.nextID; i++ {
		cmd, ok := r.commands[i]
		if !ok {
			continue
		}
		synopsis := cmd.Name
		if cmd.Format != "" {
			synopsis += " " + cmd.Format
		}
		b.WriteString("  ")
		b.WriteString(synopsis)
		if pad := 22 - len(synopsis); pad > 0 {
			b.WriteString(strings.Repeat(" ", pad))
		}
		b.WriteString(" - ")
		b.WriteString(cmd.Help)
		b.WriteString("\n")
	}
	r.dictionary = b.String()
}
