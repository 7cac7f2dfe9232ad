package llm

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/iishyfishyy/shellmind/internal/metrics"
)

// Client is the single entry point for text generation. Callers never see
// which backend is in use beyond Backend().
type Client struct {
	transport Transport
	logger    *zap.Logger
	metrics   *metrics.Metrics
}

// Option configures a Client
type Option func(*Client)

func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// NewClient validates cfg and builds its transport
func NewClient(cfg BackendConfig, opts ...Option) (*Client, error) {
	c := &Client{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}

	if err := validate(cfg); err != nil {
		c.logger.Error("failed to initialize LLM client", zap.Error(err))
		return nil, err
	}

	switch cfg := cfg.(type) {
	case InferenceServerConfig:
		c.transport = NewInferenceServerTransport(cfg.BaseURL, cfg.Model, c.logger.Named("inference"), c.metrics)
	case RemoteConfig:
		c.transport = NewRemoteTransport(cfg.BaseURL, c.logger.Named("remote"))
	case LocalConfig:
		c.transport = NewLocalTransport(cfg.ModelPath, c.logger.Named("local"))
	}

	c.logger.Info("initialized LLM client", zap.String("backend", c.transport.Name()))
	return c, nil
}

// NewClientFromOptions selects a backend from loose options and builds the client
func NewClientFromOptions(opts Options, clientOpts ...Option) (*Client, error) {
	cfg, err := Select(opts)
	if err != nil {
		return nil, err
	}
	return NewClient(cfg, clientOpts...)
}

// NewClientWithTransport wraps an existing transport
func NewClientWithTransport(t Transport, opts ...Option) *Client {
	c := &Client{transport: t, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Backend names the selected transport
func (c *Client) Backend() string {
	return c.transport.Name()
}

// Generate sends prompt to the backend. Defaults are max_tokens=1024,
// temperature=0.7, top_p=0.9.
func (c *Client) Generate(ctx context.Context, prompt string, opts ...GenerateOption) Result {
	req := NewRequest(prompt, opts...)

	start := time.Now()
	res := c.transport.Send(ctx, req)
	elapsed := time.Since(start)

	outcome := "ok"
	if !res.OK() {
		outcome = string(res.Failure.Kind)
		c.logger.Warn("generation failed",
			zap.String("backend", c.transport.Name()),
			zap.String("kind", outcome),
			zap.Error(res.Failure))
	}
	c.metrics.Generated(c.transport.Name(), outcome, elapsed)
	c.logger.Debug("generation finished", zap.Duration("elapsed", elapsed), zap.String("outcome", outcome))
	return res
}

// GenerateText is Generate for text-oriented callers: failures come back as
// an "Error: ..." message instead of a Failure.
func (c *Client) GenerateText(ctx context.Context, prompt string, opts ...GenerateOption) string {
	return c.Generate(ctx, prompt, opts...).String()
}
