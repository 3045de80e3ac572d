// Package commands handles slash command parsing for the synapse TUI.
package commands

import (
	"strconv"
	"strings"
)

// Command interface for all command types
type Command interface {
	Type() string
}

// Help returns help text
type Help struct{}

func (Help) Type() string { return "help" }

// NewConversation starts a new conversation
type NewConversation struct {
	Title string
}

func (NewConversation) Type() string { return "new" }

// Rename retitles the current conversation
type Rename struct {
	Title string
}

func (Rename) Type() string { return "rename" }

// Delete deletes the current conversation
type Delete struct{}

func (Delete) Type() string { return "delete" }

// List shows the conversation list
type List struct{}

func (List) Type() string { return "list" }

// Open opens the nth conversation of the last listing (1-based)
type Open struct {
	Index int
}

func (Open) Type() string { return "open" }

// ToggleGraph toggles the reasoning graph panel
type ToggleGraph struct{}

func (ToggleGraph) Type() string { return "graph" }

// ShowStage selects which council stage the transcript shows
type ShowStage struct {
	Stage int
}

func (ShowStage) Type() string { return "stage" }

// Export exports the current conversation
type Export struct{}

func (Export) Type() string { return "export" }

// ShowMatrix shows the similarity and contradiction matrices
type ShowMatrix struct{}

func (ShowMatrix) Type() string { return "matrix" }

// Cancel abandons the in-flight exchange
type Cancel struct{}

func (Cancel) Type() string { return "cancel" }

// ParseError represents a command parsing error
type ParseError struct {
	Message string
}

func (ParseError) Type() string { return "error" }

// Parse parses user input and returns the appropriate Command.
// Returns nil if the input is not a slash command.
func Parse(input string) Command {
	input = strings.TrimSpace(input)
	if !strings.HasPrefix(input, "/") {
		return nil
	}

	parts := strings.Fields(input)
	if len(parts) == 0 {
		return nil
	}

	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "/help":
		return Help{}

	case "/new":
		return NewConversation{Title: strings.Join(args, " ")}

	case "/rename":
		title := strings.Join(args, " ")
		if title == "" {
			return ParseError{Message: "/rename requires a title"}
		}
		return Rename{Title: title}

	case "/delete":
		return Delete{}

	case "/list":
		return List{}

	case "/open":
		if len(args) != 1 {
			return ParseError{Message: "/open requires a conversation number"}
		}
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			return ParseError{Message: "invalid conversation number: " + args[0]}
		}
		return Open{Index: n}

	case "/graph":
		return ToggleGraph{}

	case "/stage":
		if len(args) != 1 {
			return ParseError{Message: "/stage requires 1, 2 or 3"}
		}
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 || n > 3 {
			return ParseError{Message: "invalid stage: " + args[0]}
		}
		return ShowStage{Stage: n}

	case "/export":
		return Export{}

	case "/matrix":
		return ShowMatrix{}

	case "/cancel":
		return Cancel{}

	default:
		return ParseError{Message: "unknown command: " + cmd}
	}
}

// HelpText returns the help text for all available commands.
func HelpText() string {
	return `Available commands:
  /help            - Show this help
  /new [title]     - Start a new conversation
  /rename <title>  - Rename the current conversation
  /delete          - Delete the current conversation
  /list            - List conversations
  /open <n>        - Open conversation n from the list
  /graph           - Toggle the reasoning graph panel
  /stage <1|2|3>   - Show answers, rankings or the final answer
  /export          - Export the current conversation to markdown
  /matrix          - Show similarity and contradiction matrices
  /cancel          - Abandon the running exchange`
}
