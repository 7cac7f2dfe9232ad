package llm

import (
	"fmt"
)

const (
	DefaultMaxTokens   = 1024
	DefaultTemperature = 0.7
	DefaultTopP        = 0.9
)

// Request is one generation request handed to a transport.
// Temperature and TopP are passed through to the backend uninterpreted.
type Request struct {
	Prompt      string
	MaxTokens   int
	Temperature float64
	TopP        float64
}

// GenerateOption adjusts the sampling parameters of a Request
type GenerateOption func(*Request)

func WithMaxTokens(n int) GenerateOption {
	return func(r *Request) {
		r.MaxTokens = n
	}
}

func WithTemperature(t float64) GenerateOption {
	return func(r *Request) {
		r.Temperature = t
	}
}

func WithTopP(p float64) GenerateOption {
	return func(r *Request) {
		r.TopP = p
	}
}

// NewRequest builds a request with the default sampling parameters.
// A non-positive MaxTokens falls back to DefaultMaxTokens.
func NewRequest(prompt string, opts ...GenerateOption) Request {
	req := Request{
		Prompt:      prompt,
		MaxTokens:   DefaultMaxTokens,
		Temperature: DefaultTemperature,
		TopP:        DefaultTopP,
	}
	for _, opt := range opts {
		opt(&req)
	}
	if req.MaxTokens <= 0 {
		req.MaxTokens = DefaultMaxTokens
	}
	return req
}

// FailureKind classifies a failed generation
type FailureKind string

const (
	// KindTransport covers network errors, timeouts and non-200 statuses
	KindTransport FailureKind = "transport"
	// KindBadResponse is a success status with a body missing the expected field
	KindBadResponse FailureKind = "bad_response_shape"
)

// Failure describes why a transport could not produce text
type Failure struct {
	Kind    FailureKind
	Message string
	// Status is the last HTTP status observed, 0 when none was received
	Status int
	Err    error
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("%s: %v", f.Message, f.Err)
	}
	return f.Message
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Result holds either generated text or a Failure, never both
type Result struct {
	Text    string
	Failure *Failure
}

// Text wraps successful output
func Text(s string) Result {
	return Result{Text: s}
}

// Fail wraps a failure
func Fail(kind FailureKind, status int, err error, format string, args ...any) Result {
	return Result{Failure: &Failure{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Status:  status,
		Err:     err,
	}}
}

// OK reports whether the result carries text
func (r Result) OK() bool {
	return r.Failure == nil
}

// String renders the result as text, failures prefixed with "Error: "
func (r Result) String() string {
	if r.Failure != nil {
		return "Error: " + r.Failure.Error()
	}
	return r.Text
}
