package agent

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/iishyfishyy/shellmind/internal/executor"
	"github.com/iishyfishyy/shellmind/internal/history"
	"github.com/iishyfishyy/shellmind/internal/metrics"
)

// FastPathPrefixes are shell idioms run without asking the model
var FastPathPrefixes = []string{"ls", "cd ", "pwd", "cat ", "date", "echo "}

// Dispatcher routes raw commands to the shell or through the model
type Dispatcher struct {
	model   Generator
	runner  Runner
	history *history.History
	confirm ConfirmFunc
	logger  *zap.Logger
	metrics *metrics.Metrics
	running atomic.Bool
}

// Option configures a Dispatcher
type Option func(*Dispatcher)

// WithRunner replaces the default shell executor
func WithRunner(r Runner) Option {
	return func(d *Dispatcher) {
		d.runner = r
	}
}

// WithHistory replaces the default in-memory history
func WithHistory(h *history.History) Option {
	return func(d *Dispatcher) {
		d.history = h
	}
}

// WithConfirm asks before running shell commands proposed by the model.
// Fast-path commands are typed by the user and are never confirmed.
func WithConfirm(fn ConfirmFunc) Option {
	return func(d *Dispatcher) {
		d.confirm = fn
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

// NewDispatcher creates a dispatcher backed by model
func NewDispatcher(model Generator, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		model:  model,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.runner == nil {
		d.runner = executor.New(executor.WithLogger(d.logger.Named("executor")), executor.WithMetrics(d.metrics))
	}
	if d.history == nil {
		d.history = history.New(history.WithLogger(d.logger.Named("history")))
	}
	d.logger.Info("dispatcher initialized")
	return d
}

func (d *Dispatcher) Start() {
	d.logger.Info("starting dispatcher")
	d.running.Store(true)
}

func (d *Dispatcher) Stop() {
	d.logger.Info("stopping dispatcher")
	d.running.Store(false)
}

func (d *Dispatcher) Running() bool {
	return d.running.Load()
}

// History returns the command history owned by this dispatcher
func (d *Dispatcher) History() *history.History {
	return d.history
}

// IsFastPath reports whether command is run directly in the shell
func IsFastPath(command string) bool {
	trimmed := strings.TrimSpace(command)
	for _, prefix := range FastPathPrefixes {
		if strings.HasPrefix(trimmed, prefix) {
			return true
		}
	}
	return false
}

// Process classifies command, resolves it to an Action and executes it.
// It always returns an envelope; nothing escapes to the caller.
func (d *Dispatcher) Process(ctx context.Context, command string) (env Envelope) {
	d.logger.Info("processing command", zap.String("command", command))
	d.history.Append(ctx, command)

	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("panic while processing command", zap.String("command", command), zap.Any("panic", r))
			env = Envelope{Status: StatusError, Error: fmt.Sprint(r)}
		}
		d.metrics.CommandProcessed(string(env.Action), string(env.Status))
	}()

	action, proposed, err := d.resolve(ctx, command)
	if err != nil {
		d.logger.Error("error processing command", zap.String("command", command), zap.Error(err))
		return Envelope{Status: StatusError, Error: err.Error()}
	}

	result, err := d.execute(ctx, action, proposed)
	if err != nil {
		d.logger.Error("error executing action", zap.String("command", command), zap.Error(err))
		return Envelope{Status: StatusError, Error: err.Error()}
	}

	d.logger.Info("command processed", zap.String("command", command), zap.String("action", string(action.Type)))
	return Envelope{
		Status: StatusSuccess,
		Action: action.Type,
		Result: &result,
	}
}

// resolve turns a raw command into an Action, via the model unless the
// command is on the fast path. proposed is true when the model chose it.
// A model failure is not parsed as text: it becomes an Error action, so the
// envelope reports action "error" with the failure in result.error.
func (d *Dispatcher) resolve(ctx context.Context, command string) (Action, bool, error) {
	if IsFastPath(command) {
		d.metrics.FastPath()
		action := ShellCommand(strings.TrimSpace(command))
		d.logger.Debug("direct shell command interpretation", zap.String("command", action.Command))
		return action, false, nil
	}

	if err := ctx.Err(); err != nil {
		return Action{}, false, err
	}

	res := d.model.Generate(ctx, BuildPrompt(command))
	if !res.OK() {
		return Error(res.Failure.Error()), true, nil
	}
	d.logger.Debug("model response", zap.String("response", res.Text))

	action, structured := ParseResponse(res.Text)
	if !structured && action.Type == ActionRespond {
		d.logger.Warn("could not parse model response as ACTION format, treating as plain text")
	}
	d.logger.Debug("parsed action", zap.String("type", string(action.Type)))
	return action, true, nil
}

// DeclinedMessage is reported when the user refuses a proposed command
const DeclinedMessage = "execution declined by user"

func (d *Dispatcher) execute(ctx context.Context, action Action, proposed bool) (ExecutionResult, error) {
	switch action.Type {
	case ActionShell:
		if proposed && d.confirm != nil && strings.TrimSpace(action.Command) != "" {
			ok, err := d.confirm(ctx, action.Command)
			if err != nil {
				return ExecutionResult{}, fmt.Errorf("confirmation failed: %w", err)
			}
			if !ok {
				return ExecutionResult{
					Type:  ActionShell,
					Shell: executor.Result{Status: executor.StatusError, Error: DeclinedMessage},
				}, nil
			}
		}
		return ExecutionResult{Type: ActionShell, Shell: d.runner.Execute(ctx, action.Command)}, nil
	case ActionRespond:
		return ExecutionResult{Type: ActionRespond, Output: action.Content}, nil
	case ActionError:
		d.logger.Error("action error", zap.String("reason", action.Reason))
		return ExecutionResult{Type: ActionError, Error: action.Reason}, nil
	default:
		d.logger.Warn("unknown action type", zap.String("type", string(action.Type)))
		return ExecutionResult{Type: ActionError, Error: fmt.Sprintf("Unknown action type: %s", action.Type)}, nil
	}
}
