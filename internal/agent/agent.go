package agent

import (
	"context"

	"github.com/iishyfishyy/shellmind/internal/executor"
	"github.com/iishyfishyy/shellmind/internal/llm"
)

// Generator produces model text for a prompt
type Generator interface {
	Generate(ctx context.Context, prompt string, opts ...llm.GenerateOption) llm.Result
}

// Runner executes shell commands
type Runner interface {
	Execute(ctx context.Context, command string) executor.Result
}

// ConfirmFunc approves a model-proposed shell command before it runs
type ConfirmFunc func(ctx context.Context, command string) (bool, error)

// Processor is the outward contract consumed by the CLI and HTTP front-ends
type Processor interface {
	Process(ctx context.Context, command string) Envelope
}

var (
	_ Generator = (*llm.Client)(nil)
	_ Runner    = (*executor.Executor)(nil)
	_ Processor = (*Dispatcher)(nil)
)
