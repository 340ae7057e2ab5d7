package tui

import "strings"

// Command represents a parsed command.
type Command struct {
	Name string
	Args string
}

// ParseCommand parses a command string (without the leading ':'). Aliases
// resolve to their long names.
func ParseCommand(input string) Command {
	input = strings.TrimSpace(input)
	name, args, _ := strings.Cut(input, " ")
	cmd := Command{Name: strings.ToLower(name), Args: strings.TrimSpace(args)}
	if long, ok := commandAliases[cmd.Name]; ok {
		cmd.Name = long
	}
	return cmd
}

var commandAliases = map[string]string{
	"q":     "quit",
	"h":     "help",
	"s":     "search",
	"o":     "open",
	"chat":  "open",
	"m":     "messages",
	"n":     "notifications",
	"notif": "notifications",
	"c":     "connect",
}
