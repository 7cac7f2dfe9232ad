package llm

import (
	"context"
	"time"
)

// Transport sends one generation request to a backend.
// Implementations never panic or return errors past this boundary: every
// problem is reported as a Failure in the Result.
type Transport interface {
	Name() string
	Send(ctx context.Context, req Request) Result
}

const (
	remoteTimeout    = 60 * time.Second
	inferenceTimeout = 120 * time.Second
	probeTimeout     = 5 * time.Second
)
