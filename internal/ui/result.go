package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/glamour"
	"github.com/fatih/color"

	"github.com/iishyfishyy/shellmind/internal/agent"
)

// Printer writes dispatcher envelopes for humans
type Printer struct {
	out      io.Writer
	markdown bool
}

// NewPrinter creates a printer. With markdown set, response text is
// rendered through glamour.
func NewPrinter(out io.Writer, markdown bool) *Printer {
	return &Printer{out: out, markdown: markdown}
}

// Print writes env the way the interactive loop shows results
func (p *Printer) Print(env agent.Envelope) {
	bold := color.New(color.Bold)
	red := color.New(color.FgRed, color.Bold)
	yellow := color.New(color.FgYellow)

	if env.Status != agent.StatusSuccess {
		red.Fprintf(p.out, "\nError: %s\n", orUnknown(env.Error))
		return
	}
	if env.Result == nil {
		fmt.Fprintln(p.out, "\nCommand executed successfully")
		return
	}

	switch res := env.Result; res.Type {
	case agent.ActionRespond:
		bold.Fprintln(p.out, "\nResult:")
		fmt.Fprintln(p.out, p.render(res.Output))
	case agent.ActionShell:
		if !res.Shell.Completed {
			red.Fprintf(p.out, "\nError: %s\n", orUnknown(res.Shell.Error))
			return
		}
		bold.Fprintln(p.out, "\nCommand Output:")
		if res.Shell.Stdout != "" {
			fmt.Fprint(p.out, ensureNewline(res.Shell.Stdout))
		}
		if res.Shell.Stderr != "" {
			yellow.Fprint(p.out, "Errors: ")
			fmt.Fprint(p.out, ensureNewline(res.Shell.Stderr))
		}
		fmt.Fprintf(p.out, "Return code: %d\n", res.Shell.ReturnCode)
	default:
		red.Fprintf(p.out, "\nError: %s\n", orUnknown(res.Error))
	}
}

func (p *Printer) render(content string) string {
	if !p.markdown {
		return content
	}
	out, err := glamour.Render(content, "auto")
	if err != nil {
		return content
	}
	return strings.TrimRight(out, "\n")
}

// Copyable returns the text worth copying from env: the response text or
// the command's stdout
func Copyable(env agent.Envelope) string {
	if env.Result == nil {
		return ""
	}
	switch env.Result.Type {
	case agent.ActionRespond:
		return env.Result.Output
	case agent.ActionShell:
		return env.Result.Shell.Stdout
	}
	return ""
}

// CopyToClipboard copies the useful part of env to the system clipboard
func CopyToClipboard(env agent.Envelope) error {
	text := Copyable(env)
	if text == "" {
		return fmt.Errorf("nothing to copy")
	}
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("failed to copy to clipboard: %w", err)
	}
	return nil
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown error"
	}
	return s
}

func ensureNewline(s string) string {
	if strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}
