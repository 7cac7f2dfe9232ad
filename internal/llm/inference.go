package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/iishyfishyy/shellmind/internal/metrics"
)

// inferenceOptions is the sampling block shared by both endpoints
type inferenceOptions struct {
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
	NumPredict  int     `json:"num_predict"`
}

type completionRequest struct {
	Model   string           `json:"model"`
	Prompt  string           `json:"prompt"`
	Stream  bool             `json:"stream"`
	Options inferenceOptions `json:"options"`
}

type completionResponse struct {
	Response *string `json:"response"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string           `json:"model"`
	Messages []chatMessage    `json:"messages"`
	Stream   bool             `json:"stream"`
	Options  inferenceOptions `json:"options"`
}

type chatResponse struct {
	Message *struct {
		Content *string `json:"content"`
	} `json:"message"`
}

// InferenceServerTransport talks to a local inference server (Ollama style)
// that exposes either the older completion endpoint or the newer chat
// endpoint. Completion is tried first and chat is the fallback.
type InferenceServerTransport struct {
	baseURL string
	model   string
	client  *http.Client
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewInferenceServerTransport creates the transport and probes
// {base}/api/version. The probe result is only logged.
func NewInferenceServerTransport(baseURL, model string, logger *zap.Logger, m *metrics.Metrics) *InferenceServerTransport {
	if logger == nil {
		logger = zap.NewNop()
	}
	t := &InferenceServerTransport{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  &http.Client{Timeout: inferenceTimeout},
		logger:  logger,
		metrics: m,
	}
	t.probeVersion()
	return t
}

func (t *InferenceServerTransport) Name() string {
	return "inference-server"
}

// Attempts returns the ordered endpoint chain used by Send
func (t *InferenceServerTransport) Attempts() []Attempt {
	return []Attempt{
		{Name: "completion", Send: t.sendCompletion},
		{Name: "chat", Send: t.sendChat},
	}
}

func (t *InferenceServerTransport) Send(ctx context.Context, req Request) Result {
	res := FirstSuccess(ctx, req, t.Attempts(), func(attempt string, f *Failure) {
		t.metrics.FellBack(attempt)
		t.logger.Warn("endpoint failed, trying next",
			zap.String("endpoint", attempt),
			zap.Int("status", f.Status),
			zap.Error(f))
	})
	if !res.OK() {
		t.logger.Error("inference server request failed", zap.Error(res.Failure))
	}
	return res
}

func (t *InferenceServerTransport) options(req Request) inferenceOptions {
	return inferenceOptions{
		Temperature: req.Temperature,
		TopP:        req.TopP,
		NumPredict:  req.MaxTokens,
	}
}

func (t *InferenceServerTransport) sendCompletion(ctx context.Context, req Request) Result {
	body := completionRequest{
		Model:   t.model,
		Prompt:  req.Prompt,
		Options: t.options(req),
	}

	var out completionResponse
	status, res := t.post(ctx, "/api/completion", body, &out)
	if res != nil {
		return *res
	}
	if out.Response == nil {
		return Fail(KindBadResponse, status, nil, "unexpected completion response format: missing \"response\" field")
	}
	return Text(*out.Response)
}

func (t *InferenceServerTransport) sendChat(ctx context.Context, req Request) Result {
	body := chatRequest{
		Model:    t.model,
		Messages: []chatMessage{{Role: "user", Content: req.Prompt}},
		Options:  t.options(req),
	}

	var out chatResponse
	status, res := t.post(ctx, "/api/chat", body, &out)
	if res != nil {
		return *res
	}
	if out.Message == nil || out.Message.Content == nil {
		return Fail(KindBadResponse, status, nil, "unexpected chat response format: missing \"message.content\" field")
	}
	return Text(*out.Message.Content)
}

// post sends body as JSON and decodes a 200 response into out. A non-nil
// Result means the call failed.
func (t *InferenceServerTransport) post(ctx context.Context, path string, body, out any) (int, *Result) {
	endpoint := t.baseURL + path

	jsonData, err := json.Marshal(body)
	if err != nil {
		res := Fail(KindTransport, 0, err, "failed to marshal request")
		return 0, &res
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonData))
	if err != nil {
		res := Fail(KindTransport, 0, err, "failed to create request")
		return 0, &res
	}
	httpReq.Header.Set("Content-Type", "application/json")

	t.logger.Debug("trying endpoint", zap.String("endpoint", endpoint))
	start := time.Now()

	resp, err := t.client.Do(httpReq)
	if err != nil {
		res := Fail(KindTransport, 0, err, "error communicating with inference server at %s", endpoint)
		return 0, &res
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		res := Fail(KindTransport, resp.StatusCode, nil, "%s returned status %d", path, resp.StatusCode)
		return resp.StatusCode, &res
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		res := Fail(KindBadResponse, resp.StatusCode, err, "error parsing response from %s", path)
		return resp.StatusCode, &res
	}

	t.logger.Debug("response received", zap.String("endpoint", endpoint), zap.Duration("elapsed", time.Since(start)))
	return resp.StatusCode, nil
}

// probeVersion logs whether the server answers; failures are not fatal
func (t *InferenceServerTransport) probeVersion() {
	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL+"/api/version", nil)
	if err != nil {
		t.logger.Warn("could not build version probe", zap.Error(err))
		return
	}

	resp, err := t.client.Do(req)
	if err != nil {
		t.logger.Warn("could not connect to inference server, will retry when needed", zap.Error(err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.logger.Warn("inference server version probe failed", zap.Int("status", resp.StatusCode))
		return
	}

	var v struct {
		Version string `json:"version"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil || v.Version == "" {
		v.Version = "unknown"
	}
	t.logger.Info("connected to inference server", zap.String("version", v.Version), zap.String("model", t.model))
}
