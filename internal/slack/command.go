package slack

import (
	"fmt"
	"regexp"
	"strings"
)

// Action names one slash subcommand after alias folding.
type Action string

const (
	ActionSearch  Action = "search"
	ActionSave    Action = "save"
	ActionList    Action = "list"
	ActionDelete  Action = "delete"
	ActionApply   Action = "apply"
	ActionSuggest Action = "suggest"
	ActionHelp    Action = "help"
)

// Command is one parsed slash invocation.
type Command struct {
	Action  Action
	Name    string
	Pattern string
	Flags   string
}

var flagsToken = regexp.MustCompile(`^[gims]{1,4}$`)

// ParseCommand splits raw slash text into an action and its arguments.
// Empty text means help, not an error.
//
// Patterns keep internal whitespace. A trailing token made only of flag
// letters is read as flags when the pattern part has at least one other
// token, so a pattern that happens to BE a flag-shaped word ("gims") still
// works on its own.
func ParseCommand(text string) (Command, error) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return Command{Action: ActionHelp}, nil
	}
	action, rest := strings.ToLower(fields[0]), fields[1:]

	switch action {
	case "search", "grep", "group":
		if len(rest) == 0 {
			return Command{}, fmt.Errorf("usage: %s <pattern> [flags]", action)
		}
		pattern, flags := splitPatternFlags(rest)
		return Command{Action: ActionSearch, Pattern: pattern, Flags: flags}, nil

	case "save":
		if len(rest) < 2 {
			return Command{}, fmt.Errorf("usage: save <name> <pattern> [flags]")
		}
		pattern, flags := splitPatternFlags(rest[1:])
		return Command{Action: ActionSave, Name: rest[0], Pattern: pattern, Flags: flags}, nil

	case "list":
		return Command{Action: ActionList}, nil

	case "delete", "remove", "rm":
		if len(rest) != 1 {
			return Command{}, fmt.Errorf("usage: %s <name>", action)
		}
		return Command{Action: ActionDelete, Name: rest[0]}, nil

	case "apply", "run":
		if len(rest) != 1 {
			return Command{}, fmt.Errorf("usage: %s <name>", action)
		}
		return Command{Action: ActionApply, Name: rest[0]}, nil

	case "suggest", "suggestions", "examples":
		return Command{Action: ActionSuggest}, nil

	case "help":
		return Command{Action: ActionHelp}, nil

	default:
		return Command{}, fmt.Errorf("unknown subcommand %q", fields[0])
	}
}

func splitPatternFlags(tokens []string) (pattern, flags string) {
	if len(tokens) >= 2 && flagsToken.MatchString(tokens[len(tokens)-1]) {
		flags = tokens[len(tokens)-1]
		tokens = tokens[:len(tokens)-1]
	}
	return strings.Join(tokens, " "), flags
}
