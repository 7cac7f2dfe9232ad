package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseResponse(t *testing.T) {
	tests := []struct {
		name       string
		in         string
		want       Action
		structured bool
	}{
		{
			name:       "shell",
			in:         "ACTION: shell\nCOMMAND: ls -la",
			want:       ShellCommand("ls -la"),
			structured: true,
		},
		{
			name:       "respond terminated by blank line",
			in:         "ACTION: respond\nCONTENT: hello\n\n",
			want:       Respond("hello"),
			structured: true,
		},
		{
			name:       "respond spans lines until blank line",
			in:         "ACTION: respond\nCONTENT: line one\nline two\n\ntrailing",
			want:       Respond("line one\nline two"),
			structured: true,
		},
		{
			name:       "respond runs to end of text",
			in:         "ACTION: respond\nCONTENT: a\nb",
			want:       Respond("a\nb"),
			structured: true,
		},
		{
			name:       "error",
			in:         "ACTION: error\nREASON: cannot do that\nextra",
			want:       Error("cannot do that"),
			structured: true,
		},
		{
			name:       "case insensitive tags",
			in:         "action: SHELL\ncommand:   date +%s  ",
			want:       ShellCommand("date +%s"),
			structured: true,
		},
		{
			name:       "preamble and crlf",
			in:         "Sure!\r\nACTION: shell\r\nCOMMAND: uptime\r\n",
			want:       ShellCommand("uptime"),
			structured: true,
		},
		{
			name:       "value on the following line",
			in:         "ACTION: error\nREASON:\n  model overloaded",
			want:       Error("model overloaded"),
			structured: true,
		},
		{
			name:       "shell wins over an earlier respond block",
			in:         "ACTION: respond\nCONTENT: hi\n\nACTION: shell\nCOMMAND: whoami",
			want:       ShellCommand("whoami"),
			structured: true,
		},
		{
			name:       "tag without field falls back",
			in:         "ACTION: shell\nrun ls please",
			want:       Respond("ACTION: shell\nrun ls please"),
			structured: false,
		},
		{
			name:       "kind must be exact",
			in:         "ACTION: shellfish\nCOMMAND: ls",
			want:       Respond("ACTION: shellfish\nCOMMAND: ls"),
			structured: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, structured := ParseResponse(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.structured, structured)
		})
	}
}

func TestParseResponseUnstructuredIsVerbatim(t *testing.T) {
	inputs := []string{
		"",
		"The current time is 10:42.",
		"  padded text with spaces  \n\n",
		"COMMAND: ls\nno action tag here",
	}

	for _, in := range inputs {
		got, structured := ParseResponse(in)
		assert.False(t, structured)
		assert.Equal(t, Respond(in), got)
	}
}
