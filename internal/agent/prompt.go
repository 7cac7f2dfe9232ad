package agent

import (
	"fmt"
	"os"
	"runtime"
)

// BuildPrompt embeds the user's command in the instructions that define the
// three-action reply format
func BuildPrompt(command string) string {
	shell := os.Getenv("SHELL")
	if shell == "" {
		shell = "/bin/sh"
	}

	return fmt.Sprintf(`
You are helping process user commands in a command-line interface.

Environment:
- Operating System: %s
- Shell: %s

User command: %q

Based on this command, do one of these:
1. If it's a system command (like checking time, listing files, etc.), reply with:
   ACTION: shell
   COMMAND: <the exact shell command to run>

2. If it's a question or conversation, reply with:
   ACTION: respond
   CONTENT: <your helpful response>

3. If there's an error or you can't process it, reply with:
   ACTION: error
   REASON: <explanation of the error>

Reply using ONLY this format, with no additional text.
`, runtime.GOOS, shell, command)
}
