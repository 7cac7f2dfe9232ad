package ui

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/fatih/color"
	"golang.org/x/term"
)

// ErrInterrupted is returned when the user presses Ctrl-C in a prompt
var ErrInterrupted = errors.New("interrupted by user")

// IsInteractive reports whether stdin and stdout are terminals
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// ConfirmCommand shows a model-proposed command and asks whether to run it.
// It has the signature of agent.ConfirmFunc.
func ConfirmCommand(ctx context.Context, command string) (bool, error) {
	cyan := color.New(color.FgCyan, color.Bold)
	cyan.Println("\nProposed command:")
	fmt.Printf("  %s\n\n", command)

	var choice string
	prompt := &survey.Select{
		Message: "What would you like to do?",
		Options: []string{
			"Run it",
			"Cancel",
		},
	}

	if err := survey.AskOne(prompt, &choice); err != nil {
		if errors.Is(err, terminal.InterruptErr) {
			return false, ErrInterrupted
		}
		return false, err
	}

	return choice == "Run it", nil
}

// AskCommand reads one command in the interactive loop
func AskCommand() (string, error) {
	var command string
	prompt := &survey.Input{
		Message: "Enter command:",
	}

	if err := survey.AskOne(prompt, &command); err != nil {
		if errors.Is(err, terminal.InterruptErr) {
			return "", ErrInterrupted
		}
		return "", err
	}

	return command, nil
}

// AskBackend prompts for the backend used by `shellmind configure`
func AskBackend() (string, error) {
	var backend string
	prompt := &survey.Select{
		Message: "Select a model backend:",
		Options: []string{"Ollama", "API server", "Local model"},
		Default: "Ollama",
	}

	if err := survey.AskOne(prompt, &backend); err != nil {
		return "", err
	}

	return backend, nil
}

// AskString prompts for a required value with a default
func AskString(message, def string) (string, error) {
	var value string
	prompt := &survey.Input{
		Message: message,
		Default: def,
	}

	if err := survey.AskOne(prompt, &value, survey.WithValidator(survey.Required)); err != nil {
		return "", err
	}

	return value, nil
}

// PromptYesNo asks a yes/no question
func PromptYesNo(message string, def bool) (bool, error) {
	answer := def
	prompt := &survey.Confirm{
		Message: message,
		Default: def,
	}

	if err := survey.AskOne(prompt, &answer); err != nil {
		return false, err
	}

	return answer, nil
}

// ShowSuccess displays a success message
func ShowSuccess(message string) {
	green := color.New(color.FgGreen, color.Bold)
	green.Printf("✓ %s\n", message)
}

// ShowError displays an error message
func ShowError(message string) {
	red := color.New(color.FgRed, color.Bold)
	red.Printf("✗ %s\n", message)
}

// ShowWarning displays a warning message
func ShowWarning(message string) {
	yellow := color.New(color.FgYellow)
	yellow.Printf("! %s\n", message)
}

// ShowInfo displays an info message
func ShowInfo(message string) {
	blue := color.New(color.FgBlue)
	blue.Println(message)
}
