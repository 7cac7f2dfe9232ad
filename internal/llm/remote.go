package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// QueryRequest is the body of POST {base}/query
type QueryRequest struct {
	Prompt      string  `json:"prompt"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
}

// QueryResponse is the success body of POST {base}/query.
// Response is a pointer so a missing field can be told apart from "".
type QueryResponse struct {
	Response *string `json:"response"`
}

// RemoteTransport calls a generation API server
type RemoteTransport struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewRemoteTransport creates a transport for the API server at baseURL
func NewRemoteTransport(baseURL string, logger *zap.Logger) *RemoteTransport {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RemoteTransport{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: remoteTimeout},
		logger:  logger,
	}
}

func (t *RemoteTransport) Name() string {
	return "remote"
}

func (t *RemoteTransport) Send(ctx context.Context, req Request) Result {
	endpoint := t.baseURL + "/query"

	jsonData, err := json.Marshal(QueryRequest{
		Prompt:      req.Prompt,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		TopP:        req.TopP,
	})
	if err != nil {
		return Fail(KindTransport, 0, err, "failed to marshal request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return Fail(KindTransport, 0, err, "failed to create request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	t.logger.Debug("sending request", zap.String("endpoint", endpoint))
	start := time.Now()

	resp, err := t.client.Do(httpReq)
	if err != nil {
		t.logger.Error("API request failed", zap.Error(err))
		return Fail(KindTransport, 0, err, "error communicating with API server")
	}
	defer resp.Body.Close()

	t.logger.Debug("response received", zap.Duration("elapsed", time.Since(start)), zap.Int("status", resp.StatusCode))

	if resp.StatusCode != http.StatusOK {
		t.logger.Error("API server returned error status", zap.Int("status", resp.StatusCode))
		return Fail(KindTransport, resp.StatusCode, nil, "API server returned status %d", resp.StatusCode)
	}

	var result QueryResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.logger.Error("failed to parse API response", zap.Error(err))
		return Fail(KindBadResponse, resp.StatusCode, err, "error parsing response from API server")
	}
	if result.Response == nil {
		t.logger.Error("unexpected API response format")
		return Fail(KindBadResponse, resp.StatusCode, nil, "unexpected response format from API: missing \"response\" field")
	}

	return Text(*result.Response)
}
