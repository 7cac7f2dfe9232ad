package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iishyfishyy/shellmind/internal/agent"
	"github.com/iishyfishyy/shellmind/internal/executor"
	"github.com/iishyfishyy/shellmind/internal/llm"
	"github.com/iishyfishyy/shellmind/internal/metrics"
)

type fakeModel struct {
	got llm.Request
	res llm.Result
}

func (f *fakeModel) Backend() string { return "fake" }

func (f *fakeModel) Generate(ctx context.Context, prompt string, opts ...llm.GenerateOption) llm.Result {
	f.got = llm.NewRequest(prompt, opts...)
	return f.res
}

type fakeRunner struct{}

func (fakeRunner) Execute(ctx context.Context, command string) executor.Result {
	return executor.Result{Status: executor.StatusSuccess, Stdout: command + "\n", Completed: true}
}

func newTestServer(t *testing.T, model *fakeModel) *httptest.Server {
	t.Helper()
	m := metrics.New()
	d := agent.NewDispatcher(model, agent.WithRunner(fakeRunner{}), agent.WithMetrics(m))
	srv := httptest.NewServer(New(model, d, WithRegistry(m.Registry())).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, url, body string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, &fakeModel{})

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body healthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, healthResponse{Status: "ok", Backend: "fake"}, body)
}

func TestQuery(t *testing.T) {
	model := &fakeModel{res: llm.Text("generated")}
	srv := newTestServer(t, model)

	resp, data := post(t, srv.URL+"/query", `{"prompt":"hi","temperature":0.1}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"response":"generated"}`, string(data))
	assert.Equal(t, llm.Request{Prompt: "hi", MaxTokens: 1024, Temperature: 0.1, TopP: 0.9}, model.got)
}

func TestQueryErrors(t *testing.T) {
	model := &fakeModel{res: llm.Fail(llm.KindTransport, 0, nil, "backend down")}
	srv := newTestServer(t, model)

	resp, _ := post(t, srv.URL+"/query", `not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = post(t, srv.URL+"/query", `{"max_tokens":5}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp, data := post(t, srv.URL+"/query", `{"prompt":"hi"}`)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.JSONEq(t, `{"detail":"backend down"}`, string(data))
}

func TestQueryServesRemoteTransport(t *testing.T) {
	srv := newTestServer(t, &fakeModel{res: llm.Text("ACTION: respond\nCONTENT: relayed")})

	client, err := llm.NewClient(llm.RemoteConfig{BaseURL: srv.URL})
	require.NoError(t, err)

	res := client.Generate(context.Background(), "hello")
	require.True(t, res.OK())
	assert.Equal(t, "ACTION: respond\nCONTENT: relayed", res.Text)
}

func TestProcess(t *testing.T) {
	srv := newTestServer(t, &fakeModel{res: llm.Text("ACTION: respond\nCONTENT: hi there")})

	_, data := post(t, srv.URL+"/process", `{"command":"echo hello"}`)
	assert.JSONEq(t,
		`{"status":"success","action":"shell_command","result":{"status":"success","stdout":"echo hello\n","stderr":"","return_code":0}}`,
		string(data))

	_, data = post(t, srv.URL+"/process", `{"command":"greet me"}`)
	assert.JSONEq(t, `{"status":"success","action":"response","result":{"output":"hi there"}}`, string(data))
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, &fakeModel{})
	post(t, srv.URL+"/process", `{"command":"date"}`)

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(data), "shellmind_fast_path_total 1")
	assert.Contains(t, string(data), `shellmind_commands_total{action="shell_command",status="success"} 1`)
}
