package llm

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
)

// LocalTransport stands in for in-process inference. No weights are loaded:
// it answers with a deterministic placeholder that echoes the prompt.
type LocalTransport struct {
	modelPath string
	dummy     bool
	logger    *zap.Logger
}

// NewLocalTransport checks modelPath and falls back to a dummy model when
// the path does not exist
func NewLocalTransport(modelPath string, logger *zap.Logger) *LocalTransport {
	if logger == nil {
		logger = zap.NewNop()
	}
	t := &LocalTransport{modelPath: modelPath, logger: logger}

	if _, err := os.Stat(modelPath); err != nil {
		logger.Warn("model path does not exist, using dummy model", zap.String("path", modelPath))
		t.dummy = true
	} else {
		logger.Info("model would be loaded from path", zap.String("path", modelPath))
	}
	return t
}

func (t *LocalTransport) Name() string {
	return "local"
}

// Dummy reports whether the model path was missing
func (t *LocalTransport) Dummy() bool {
	return t.dummy
}

func (t *LocalTransport) Send(ctx context.Context, req Request) Result {
	if t.dummy {
		t.logger.Warn("using dummy model for generation")
		return Text(fmt.Sprintf("This is a dummy response to: %s", req.Prompt))
	}
	t.logger.Info("simulating generation",
		zap.Int("max_tokens", req.MaxTokens),
		zap.Float64("temperature", req.Temperature))
	return Text(fmt.Sprintf("This is a simulated response to: %s", req.Prompt))
}
