package llm

import (
	"errors"
	"fmt"
	"strings"
)

// ErrConfig is returned when no usable backend is configured
var ErrConfig = errors.New("invalid backend configuration")

// DefaultInferenceModel is used when an inference server is configured
// without a model name
const DefaultInferenceModel = "llama3"

// BackendConfig is one of LocalConfig, RemoteConfig or InferenceServerConfig.
// It is chosen once and never changes for the lifetime of a Client.
type BackendConfig interface {
	backend() string
}

// LocalConfig selects the in-process stand-in model
type LocalConfig struct {
	ModelPath string
}

// RemoteConfig selects a generation API server
type RemoteConfig struct {
	BaseURL string
}

// InferenceServerConfig selects a local inference server
type InferenceServerConfig struct {
	BaseURL string
	Model   string
}

func (LocalConfig) backend() string           { return "local" }
func (RemoteConfig) backend() string          { return "remote" }
func (InferenceServerConfig) backend() string { return "inference-server" }

// Options is the loose form coming from flags and config files, where any
// combination of fields may be set
type Options struct {
	ModelPath      string
	RemoteURL      string
	InferenceURL   string
	InferenceModel string
}

// Select picks exactly one backend.
// Priority is inference server, then remote service, then local model.
func Select(opts Options) (BackendConfig, error) {
	switch {
	case strings.TrimSpace(opts.InferenceURL) != "":
		model := strings.TrimSpace(opts.InferenceModel)
		if model == "" {
			model = DefaultInferenceModel
		}
		return InferenceServerConfig{BaseURL: strings.TrimSpace(opts.InferenceURL), Model: model}, nil
	case strings.TrimSpace(opts.RemoteURL) != "":
		return RemoteConfig{BaseURL: strings.TrimSpace(opts.RemoteURL)}, nil
	case strings.TrimSpace(opts.ModelPath) != "":
		return LocalConfig{ModelPath: strings.TrimSpace(opts.ModelPath)}, nil
	default:
		return nil, fmt.Errorf("%w: one of model path, API URL or inference server URL must be provided", ErrConfig)
	}
}

func validate(cfg BackendConfig) error {
	switch c := cfg.(type) {
	case LocalConfig:
		if c.ModelPath == "" {
			return fmt.Errorf("%w: local backend requires a model path", ErrConfig)
		}
	case RemoteConfig:
		if c.BaseURL == "" {
			return fmt.Errorf("%w: remote backend requires a URL", ErrConfig)
		}
	case InferenceServerConfig:
		if c.BaseURL == "" {
			return fmt.Errorf("%w: inference server backend requires a URL", ErrConfig)
		}
		if c.Model == "" {
			return fmt.Errorf("%w: inference server backend requires a model name", ErrConfig)
		}
	case nil:
		return fmt.Errorf("%w: no backend selected", ErrConfig)
	default:
		return fmt.Errorf("%w: unsupported backend %T", ErrConfig, cfg)
	}
	return nil
}
