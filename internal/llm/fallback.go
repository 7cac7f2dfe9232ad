package llm

import (
	"context"
	"fmt"
)

// Attempt is one step of an ordered fallback chain
type Attempt struct {
	Name string
	Send func(ctx context.Context, req Request) Result
}

// FallbackFunc is notified each time an attempt fails and the chain moves on
type FallbackFunc func(attempt string, failure *Failure)

// FirstSuccess runs attempts in order and returns the first result carrying
// text. Failures before the last attempt are only reported to onFallback.
// When every attempt fails, the returned Failure keeps the last attempt's
// kind and cause and records the last HTTP status seen across the chain.
func FirstSuccess(ctx context.Context, req Request, attempts []Attempt, onFallback FallbackFunc) Result {
	if len(attempts) == 0 {
		return Fail(KindTransport, 0, nil, "no endpoints configured")
	}

	var (
		last       *Failure
		lastStatus int
	)
	for i, attempt := range attempts {
		res := attempt.Send(ctx, req)
		if res.OK() {
			return res
		}
		last = res.Failure
		if last.Status != 0 {
			lastStatus = last.Status
		}
		if i < len(attempts)-1 && onFallback != nil {
			onFallback(attempt.Name, last)
		}
	}

	return Result{Failure: &Failure{
		Kind:    last.Kind,
		Message: fmt.Sprintf("could not get a valid response after %d attempts (last status code: %d)", len(attempts), lastStatus),
		Status:  lastStatus,
		Err:     last,
	}}
}
