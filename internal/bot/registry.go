// Package bot implements the command registry and the stateful interaction
// dispatch engine. A command is invoked once as a slash command and may then
// be driven through any number of button clicks; the progress of one such
// execution survives process restarts via the execution state store.
package bot

import (
	"context"
	"fmt"
	"strings"
)

// ButtonStyle selects a button's visual treatment in the presentation layer.
type ButtonStyle string

// Button styles understood by the presentation layer.
const (
	StylePrimary   ButtonStyle = "primary"
	StyleSecondary ButtonStyle = "secondary"
	StyleSuccess   ButtonStyle = "success"
	StyleDanger    ButtonStyle = "danger"
)

// ExecHandler runs a slash-command invocation (or one of its subcommands).
type ExecHandler func(ctx context.Context, exec *Execution, ev *CommandEvent) error

// ButtonHandler runs a button click belonging to an execution.
type ButtonHandler func(ctx context.Context, exec *Execution, ev *ButtonEvent) error

// Button describes one clickable action a command exposes.
type Button struct {
	Label   string
	Style   ButtonStyle
	Handler ButtonHandler
}

// Command is a named, versioned descriptor: subcommand handlers keyed by
// subcommand name (the empty string means "no subcommand") and button
// handlers keyed by a normalized label-derived id. Descriptors are plain
// values built by explicit registration calls.
type Command struct {
	Name        string
	Version     string
	Description string

	handlers map[string]ExecHandler
	buttons  map[string]*Button
}

// NewCommand creates an empty command descriptor.
func NewCommand(name, version, description string) *Command {
	return &Command{
		Name:        name,
		Version:     version,
		Description: description,
		handlers:    make(map[string]ExecHandler),
		buttons:     make(map[string]*Button),
	}
}

// Handle attaches the handler for a subcommand. Use the empty string for the
// bare command. It returns the command for chaining.
func (c *Command) Handle(subcommand string, h ExecHandler) *Command {
	c.handlers[subcommand] = h
	return c
}

// AddButton attaches a button handler under the normalized form of label.
func (c *Command) AddButton(label string, style ButtonStyle, h ButtonHandler) *Command {
	c.buttons[NormalizeLabel(label)] = &Button{Label: label, Style: style, Handler: h}
	return c
}

// handler resolves the handler for a subcommand, falling back to the
// empty-string handler.
func (c *Command) handler(subcommand string) ExecHandler {
	if h, ok := c.handlers[subcommand]; ok {
		return h
	}
	return c.handlers[""]
}

// button resolves a button by its normalized id.
func (c *Command) button(id string) *Button {
	return c.buttons[id]
}

// NormalizeLabel derives a button id from its label: lowercased, with every
// non-word rune replaced by a dash. "Add One" becomes "add-one".
func NormalizeLabel(label string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(label) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	return b.String()
}

// Registry is the static mapping from command name to descriptor, populated
// once at process start.
type Registry struct {
	commands map[string]*Command
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]*Command)}
}

// Register adds command descriptors, rejecting duplicate names.
func (r *Registry) Register(cmds ...*Command) error {
	for _, cmd := range cmds {
		if cmd.Name == "" {
			return fmt.Errorf("command with empty name")
		}
		if _, exists := r.commands[cmd.Name]; exists {
			return fmt.Errorf("command %q registered twice", cmd.Name)
		}
		r.commands[cmd.Name] = cmd
	}
	return nil
}

// Get looks up a command descriptor by name.
func (r *Registry) Get(name string) (*Command, bool) {
	cmd, ok := r.commands[name]
	return cmd, ok
}

// Commands returns every registered descriptor, for command uploads.
func (r *Registry) Commands() []*Command {
	out := make([]*Command, 0, len(r.commands))
	for _, cmd := range r.commands {
		out = append(out, cmd)
	}
	return out
}
