// Package router answers built-in chat commands without calling the model.
package router

import (
	"cmp"
	"slices"
	"strings"
)

// UnknownCommand is the reply for input that matches no command.
const UnknownCommand = "unknown command"

// HelpText lists the built-in commands.
const HelpText = "Commands:\n" +
	"- ping: healthcheck\n" +
	"- help: show this help\n" +
	"Just send a message (optionally with an image)."

// Command maps a command name to a pure reply function of the raw input.
type Command struct {
	Name        string
	Description string
	Reply       func(input string) string
}

// DefaultCommands returns the built-in command set.
func DefaultCommands() []Command {
	return []Command{
		{Name: "ping", Description: "Healthcheck", Reply: func(string) string { return "pong" }},
		{Name: "help", Description: "Show available commands", Reply: func(string) string { return HelpText }},
	}
}

// Router is an immutable command table keyed by lower-cased command name.
type Router struct {
	commands map[string]Command
}

// New creates a router with the built-in commands plus extra. An extra
// command with an existing name replaces it.
func New(extra ...Command) *Router {
	r := &Router{commands: make(map[string]Command)}
	for _, cmd := range append(DefaultCommands(), extra...) {
		name := strings.ToLower(strings.TrimSpace(cmd.Name))
		if name == "" || cmd.Reply == nil {
			continue
		}
		cmd.Name = name
		r.commands[name] = cmd
	}
	return r
}

// Route looks up the first word of text. ok is false if text is blank or the
// command is unknown.
func (r *Router) Route(text string) (reply string, ok bool) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return UnknownCommand, false
	}
	cmd, ok := r.commands[strings.ToLower(fields[0])]
	if !ok {
		return UnknownCommand, false
	}
	return cmd.Reply(text), true
}

// Commands returns the command table sorted by name.
func (r *Router) Commands() []Command {
	cmds := make([]Command, 0, len(r.commands))
	for _, cmd := range r.commands {
		cmds = append(cmds, cmd)
	}
	slices.SortFunc(cmds, func(a, b Command) int {
		return cmp.Compare(a.Name, b.Name)
	})
	return cmds
}

var defaultRouter = New()

// Route answers text with the built-in commands, returning UnknownCommand on a miss.
func Route(text string) string {
	reply, _ := defaultRouter.Route(text)
	return reply
}
