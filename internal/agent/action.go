package agent

import (
	"encoding/json"

	"github.com/iishyfishyy/shellmind/internal/executor"
)

// ActionType tags an Action
type ActionType string

const (
	ActionShell   ActionType = "shell_command"
	ActionRespond ActionType = "response"
	ActionError   ActionType = "error"
)

// Action is the typed interpretation of a model reply. Exactly one of
// Command, Content or Reason is meaningful, selected by Type.
type Action struct {
	Type    ActionType
	Command string
	Content string
	Reason  string

	// Raw keeps the unparsed model reply when parsing itself failed
	Raw string
}

// ShellCommand creates an action that runs command in the shell
func ShellCommand(command string) Action {
	return Action{Type: ActionShell, Command: command}
}

// Respond creates an action that answers with content
func Respond(content string) Action {
	return Action{Type: ActionRespond, Content: content}
}

// Error creates an action that reports reason
func Error(reason string) Action {
	return Action{Type: ActionError, Reason: reason}
}

// ExecutionResult is what executing an Action produced
type ExecutionResult struct {
	Type   ActionType
	Shell  executor.Result
	Output string
	Error  string
}

// MarshalJSON emits {stdout,...} for shell results, {output} for responses
// and {error} for errors.
func (r ExecutionResult) MarshalJSON() ([]byte, error) {
	switch r.Type {
	case ActionShell:
		return json.Marshal(r.Shell)
	case ActionRespond:
		return json.Marshal(struct {
			Output string `json:"output"`
		}{r.Output})
	default:
		return json.Marshal(struct {
			Error string `json:"error"`
		}{r.Error})
	}
}

// Status of a processed command
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Envelope is the uniform result of Dispatcher.Process
type Envelope struct {
	Status Status           `json:"status"`
	Action ActionType       `json:"action,omitempty"`
	Result *ExecutionResult `json:"result,omitempty"`
	Error  string           `json:"error,omitempty"`
}
