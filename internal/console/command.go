package console

import (
	"fmt"
	"sort"
	"strings"
)

// Handler identifiers. Input handlers become simulation inputs; the rest are
// answered by the console itself.
const (
	HandlerBuild  = "build"
	HandlerSelect = "select"
	HandlerAim    = "aim"
	HandlerClick  = "click"
	HandlerDay    = "day"
	HandlerNight  = "night"
	HandlerHazard = "hazard"
	HandlerStatus = "status"
	HandlerBlocks = "blocks"
	HandlerHelp   = "help"
	HandlerQuit   = "quit"
)

// Command defines a console command.
type Command struct {
	// Name is the canonical command name.
	Name string
	// Aliases are alternate names for this command.
	Aliases []string
	// Usage shows the argument syntax, e.g. "select <n|id>".
	Usage string
	// Help is the short help text.
	Help string
	// Handler selects the behaviour.
	Handler string
}

// BuiltinCommands returns the console commands in help order.
func BuiltinCommands() []Command {
	return []Command{
		{Name: "build", Aliases: []string{"b"}, Usage: "build", Help: "Toggle building mode", Handler: HandlerBuild},
		{Name: "select", Aliases: []string{"s"}, Usage: "select <n|id>", Help: "Select a block type by number or id", Handler: HandlerSelect},
		{Name: "aim", Aliases: []string{"a"}, Usage: "aim <x> <y>", Help: "Move the pointer to screen coordinates", Handler: HandlerAim},
		{Name: "click", Aliases: []string{"place", "c"}, Usage: "click [<x> <y>]", Help: "Place the selected block at the pointer", Handler: HandlerClick},
		{Name: "day", Aliases: []string{"advance"}, Usage: "day", Help: "End the day and regenerate resources", Handler: HandlerDay},
		{Name: "night", Aliases: []string{"n"}, Usage: "night", Help: "Skip to nightfall", Handler: HandlerNight},
		{Name: "hazard", Aliases: []string{"h"}, Usage: "hazard <kind> [damage]", Help: "Strike every block with a hazard", Handler: HandlerHazard},
		{Name: "status", Aliases: []string{"st"}, Usage: "status", Help: "Show day, mode and resources", Handler: HandlerStatus},
		{Name: "blocks", Aliases: []string{"ls"}, Usage: "blocks", Help: "List block types and their pools", Handler: HandlerBlocks},
		{Name: "help", Aliases: []string{"?"}, Usage: "help", Help: "Show this help", Handler: HandlerHelp},
		{Name: "quit", Aliases: []string{"q", "exit"}, Usage: "quit", Help: "Stop the simulation", Handler: HandlerQuit},
	}
}

// ParseResult holds the parsed command name and arguments from a text line.
type ParseResult struct {
	// Command is the first word of the input, lowercased.
	Command string
	// Args are the remaining words after the command.
	Args []string
}

// Parse splits a text line into a command and arguments.
//
// Postcondition: Returns a ParseResult. If line is blank, Command is empty.
func Parse(line string) ParseResult {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return ParseResult{}
	}
	res := ParseResult{Command: strings.ToLower(fields[0])}
	if len(fields) > 1 {
		res.Args = fields[1:]
	}
	return res
}

// Registry maps command names and aliases to Command definitions.
type Registry struct {
	ordered  []*Command
	commands map[string]*Command // canonical name → command
	aliases  map[string]string   // alias → canonical name
}

// NewRegistry creates a Registry populated with the given commands.
//
// Precondition: No two commands may share a canonical name or alias.
// Postcondition: Returns a Registry or an error on name/alias collisions.
func NewRegistry(cmds []Command) (*Registry, error) {
	r := &Registry{
		commands: make(map[string]*Command, len(cmds)),
		aliases:  make(map[string]string),
	}

	for i := range cmds {
		cmd := &cmds[i]
		if _, exists := r.commands[cmd.Name]; exists {
			return nil, fmt.Errorf("duplicate command name: %q", cmd.Name)
		}
		if _, exists := r.aliases[cmd.Name]; exists {
			return nil, fmt.Errorf("command name %q conflicts with an existing alias", cmd.Name)
		}
		r.commands[cmd.Name] = cmd
		r.ordered = append(r.ordered, cmd)

		for _, alias := range cmd.Aliases {
			if _, exists := r.commands[alias]; exists {
				return nil, fmt.Errorf("alias %q conflicts with command name %q", alias, alias)
			}
			if existing, exists := r.aliases[alias]; exists {
				return nil, fmt.Errorf("duplicate alias %q: used by %q and %q", alias, existing, cmd.Name)
			}
			r.aliases[alias] = cmd.Name
		}
	}

	return r, nil
}

// DefaultRegistry creates a Registry with all built-in commands.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(BuiltinCommands())
	if err != nil {
		panic(fmt.Sprintf("building default registry: %v", err))
	}
	return r
}

// Resolve looks up a command by name or alias.
//
// Postcondition: Returns (command, true) if found, or (nil, false).
func (r *Registry) Resolve(input string) (*Command, bool) {
	if cmd, ok := r.commands[input]; ok {
		return cmd, true
	}
	if canonical, ok := r.aliases[input]; ok {
		return r.commands[canonical], true
	}
	return nil, false
}

// Commands returns all registered commands in registration order.
func (r *Registry) Commands() []*Command {
	out := make([]*Command, len(r.ordered))
	copy(out, r.ordered)
	return out
}

// Names returns every command name and alias, sorted.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.commands)+len(r.aliases))
	for n := range r.commands {
		out = append(out, n)
	}
	for a := range r.aliases {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}
