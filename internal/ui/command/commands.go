package command

import (
	"errors"
	"fmt"
	"strings"
)

// Command is an inbox action that can be run from the palette.
type Command string

const (
	Refresh Command = "refresh"
	Clear   Command = "clear"
	Logout  Command = "logout"
	Help    Command = "help"
	Quit    Command = "quit"
)

// ErrUnknownCommand is returned by Parse for input that names no command.
var ErrUnknownCommand = errors.New("unknown command")

type entry struct {
	command Command
	aliases []string
	summary string
}

// commands is in palette order.
var commands = []entry{
	{Refresh, []string{"reload", "r"}, "reload the inbox from the store"},
	{Clear, nil, "delete every notification for the signed-in identity"},
	{Logout, []string{"signout"}, "sign out and return to the sign-in form"},
	{Help, []string{"?"}, "show keys and commands"},
	{Quit, []string{"q", "exit"}, "leave the inbox"},
}

// Parse resolves palette input to a command. Input is case-insensitive
// and may be an alias.
func Parse(s string) (Command, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, e := range commands {
		if string(e.command) == s {
			return e.command, nil
		}
		for _, a := range e.aliases {
			if a == s {
				return e.command, nil
			}
		}
	}
	return "", fmt.Errorf("%w %q", ErrUnknownCommand, s)
}

// Names returns the canonical command names in palette order.
func Names() []string {
	out := make([]string, len(commands))
	for i, e := range commands {
		out[i] = string(e.command)
	}
	return out
}

// Summary describes what c does.
func (c Command) Summary() string {
	for _, e := range commands {
		if e.command == c {
			return e.summary
		}
	}
	return ""
}
