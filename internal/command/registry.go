package command

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/danmuck/inkctl/internal/protocol"
)

var (
	ErrUnknownCommand   = errors.New("command: unknown command")
	ErrDuplicateCommand = errors.New("command: duplicate command")
	ErrInvalidEntry     = errors.New("command: invalid registry entry")
	ErrUsage            = errors.New("command: usage")
)

// Key names one device action from the command line.
type Key struct {
	Category string
	Action   string
}

func (k Key) String() string {
	return k.Category + " " + k.Action
}

// Handler runs one action with positional arguments.
type Handler func(ctx context.Context, c *Client, args []string) (protocol.Response, error)

// Entry is a registered action.
type Entry struct {
	Usage   string
	MinArgs int
	Handler Handler
}

// Registry is the closed (category, action) table.
type Registry struct {
	items map[Key]Entry
}

// NewRegistry builds the registry of every built-in action.
func NewRegistry() (*Registry, error) {
	r := &Registry{items: make(map[Key]Entry, len(builtins))}
	for _, b := range builtins {
		if err := r.Register(b.key, b.entry); err != nil {
			return nil, err
		}
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// Validate rechecks every entry.
func (r *Registry) Validate() error {
	if len(r.items) == 0 {
		return fmt.Errorf("%w: registry is empty", ErrInvalidEntry)
	}
	for key, entry := range r.items {
		if err := validateEntry(key, entry); err != nil {
			return err
		}
	}
	return nil
}

// Register adds one action.
func (r *Registry) Register(key Key, entry Entry) error {
	if err := validateEntry(key, entry); err != nil {
		return err
	}
	if _, ok := r.items[key]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateCommand, key)
	}
	r.items[key] = entry
	return nil
}

func validateEntry(key Key, entry Entry) error {
	if !isValidName(key.Category) || !isValidName(key.Action) {
		return fmt.Errorf("%w: bad key %q", ErrInvalidEntry, key.String())
	}
	if entry.Handler == nil {
		return fmt.Errorf("%w: %s has no handler", ErrInvalidEntry, key)
	}
	if entry.MinArgs < 0 {
		return fmt.Errorf("%w: %s has negative arity", ErrInvalidEntry, key)
	}
	return nil
}

// Lookup resolves an action; names are case-insensitive.
func (r *Registry) Lookup(category, action string) (Entry, error) {
	key := Key{Category: strings.ToLower(category), Action: strings.ToLower(action)}
	entry, ok := r.items[key]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s", ErrUnknownCommand, key)
	}
	return entry, nil
}

// Run looks up and invokes an action after checking its arity.
func (r *Registry) Run(ctx context.Context, c *Client, category, action string, args []string) (protocol.Response, error) {
	entry, err := r.Lookup(category, action)
	if err != nil {
		return nil, err
	}
	if len(args) < entry.MinArgs {
		return nil, fmt.Errorf("%w: %s %s %s", ErrUsage, strings.ToLower(category), strings.ToLower(action), entry.Usage)
	}
	return entry.Handler(ctx, c, args)
}

// Categories returns the sorted category names.
func (r *Registry) Categories() []string {
	seen := make(map[string]struct{})
	for key := range r.items {
		seen[key.Category] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for cat := range seen {
		out = append(out, cat)
	}
	sort.Strings(out)
	return out
}

// Actions returns the sorted actions of one category.
func (r *Registry) Actions(category string) []string {
	category = strings.ToLower(category)
	var out []string
	for key := range r.items {
		if key.Category == category {
			out = append(out, key.Action)
		}
	}
	sort.Strings(out)
	return out
}

func isValidName(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		isLower := c >= 'a' && c <= 'z'
		isDigit := c >= '0' && c <= '9'
		if !(isLower || isDigit || c == '_') {
			return false
		}
	}
	return name[0] != '_' && name[len(name)-1] != '_'
}
