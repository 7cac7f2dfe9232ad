package agent

import (
	"fmt"
	"strings"
)

// tag grammar: an ACTION line names the kind, the next non-blank line
// carries the field for that kind
var actionFields = []struct {
	kind  string
	field string
	typ   ActionType
}{
	{kind: "shell", field: "command:", typ: ActionShell},
	{kind: "respond", field: "content:", typ: ActionRespond},
	{kind: "error", field: "reason:", typ: ActionError},
}

// ParseResponse converts a model reply into an Action.
// Kinds are tried in the order shell, respond, error, each against the
// whole reply. The boolean reports whether a tagged block was found; when
// it is false the reply is returned verbatim as a Respond action.
func ParseResponse(text string) (action Action, structured bool) {
	defer func() {
		if r := recover(); r != nil {
			action = Action{
				Type:   ActionError,
				Reason: fmt.Sprintf("Failed to parse response: %v", r),
				Raw:    text,
			}
			structured = false
		}
	}()

	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	for _, af := range actionFields {
		value, ok := findBlock(lines, af.kind, af.field, af.typ == ActionRespond)
		if !ok {
			continue
		}
		switch af.typ {
		case ActionShell:
			return ShellCommand(value), true
		case ActionRespond:
			return Respond(value), true
		default:
			return Error(value), true
		}
	}

	return Respond(text), false
}

// findBlock locates the first "ACTION: <kind>" line directly followed
// (blank lines allowed) by a "<field>" line. For multiline blocks the value
// runs until the next empty line or the end of the text.
func findBlock(lines []string, kind, field string, multiline bool) (string, bool) {
	for i, line := range lines {
		if !isActionLine(line, kind) {
			continue
		}

		j := nextNonBlank(lines, i+1)
		if j < 0 {
			continue
		}
		rest, ok := cutPrefixFold(strings.TrimLeft(lines[j], " \t"), field)
		if !ok {
			continue
		}

		rest = strings.TrimSpace(rest)
		if rest == "" {
			// value starts on a following line
			k := nextNonBlank(lines, j+1)
			if k < 0 {
				return "", true
			}
			j, rest = k, strings.TrimSpace(lines[k])
		}
		if !multiline {
			return rest, true
		}

		block := []string{rest}
		for _, next := range lines[j+1:] {
			if next == "" {
				break
			}
			block = append(block, next)
		}
		return strings.TrimSpace(strings.Join(block, "\n")), true
	}
	return "", false
}

// isActionLine reports whether line holds "ACTION: <kind>" with nothing
// after the kind. Text before the tag is tolerated.
func isActionLine(line, kind string) bool {
	lower := strings.ToLower(line)
	idx := strings.Index(lower, "action:")
	if idx < 0 {
		return false
	}
	return strings.TrimSpace(lower[idx+len("action:"):]) == kind
}

func nextNonBlank(lines []string, from int) int {
	for i := from; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) != "" {
			return i
		}
	}
	return -1
}

func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) < len(prefix) || !strings.EqualFold(s[:len(prefix)], prefix) {
		return s, false
	}
	return s[len(prefix):], true
}
