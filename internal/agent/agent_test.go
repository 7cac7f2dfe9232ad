package agent

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/iishyfishyy/shellmind/internal/executor"
	"github.com/iishyfishyy/shellmind/internal/llm"
)

// MockGenerator for testing code that depends on Generator
type MockGenerator struct {
	GenerateFn func(ctx context.Context, prompt string) llm.Result
	calls      atomic.Int32
}

func (m *MockGenerator) Generate(ctx context.Context, prompt string, opts ...llm.GenerateOption) llm.Result {
	m.calls.Add(1)
	if m.GenerateFn != nil {
		return m.GenerateFn(ctx, prompt)
	}
	return llm.Text("ACTION: respond\nCONTENT: mock")
}

func (m *MockGenerator) Calls() int {
	return int(m.calls.Load())
}

// replying returns a generator that always answers text
func replying(text string) *MockGenerator {
	return &MockGenerator{
		GenerateFn: func(ctx context.Context, prompt string) llm.Result {
			return llm.Text(text)
		},
	}
}

// MockRunner records commands instead of running them
type MockRunner struct {
	mu       sync.Mutex
	commands []string
	result   executor.Result
}

func (m *MockRunner) Execute(ctx context.Context, command string) executor.Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commands = append(m.commands, command)
	if m.result.Status == "" && !m.result.Completed {
		return executor.Result{Status: executor.StatusSuccess, Stdout: "ran: " + command + "\n", Completed: true}
	}
	return m.result
}

func (m *MockRunner) Commands() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.commands...)
}

var (
	_ Generator = (*MockGenerator)(nil)
	_ Runner    = (*MockRunner)(nil)
)
