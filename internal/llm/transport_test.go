package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalTransportDummy(t *testing.T) {
	tr := NewLocalTransport(filepath.Join(t.TempDir(), "missing"), nil)
	require.True(t, tr.Dummy())

	res := tr.Send(context.Background(), NewRequest("hi"))
	require.True(t, res.OK())
	assert.Equal(t, "This is a dummy response to: hi", res.Text)
}

func TestLocalTransportExistingPath(t *testing.T) {
	tr := NewLocalTransport(t.TempDir(), nil)
	require.False(t, tr.Dummy())

	res := tr.Send(context.Background(), NewRequest("hi"))
	assert.Equal(t, "This is a simulated response to: hi", res.Text)
}

func TestRemoteTransport(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantText string
		wantKind FailureKind
	}{
		{name: "success", status: 200, body: `{"response":"ACTION: respond\nCONTENT: hi"}`, wantText: "ACTION: respond\nCONTENT: hi"},
		{name: "empty response is still a response", status: 200, body: `{"response":""}`, wantText: ""},
		{name: "missing field", status: 200, body: `{"answer":"x"}`, wantKind: KindBadResponse},
		{name: "invalid json", status: 200, body: `not json`, wantKind: KindBadResponse},
		{name: "server error", status: 503, body: `{"detail":"Model not initialized"}`, wantKind: KindTransport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got QueryRequest
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/query", r.URL.Path)
				assert.Equal(t, http.MethodPost, r.Method)
				assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			tr := NewRemoteTransport(srv.URL+"/", nil)
			res := tr.Send(context.Background(), NewRequest("p", WithTemperature(0.2)))

			assert.Equal(t, "p", got.Prompt)
			assert.Equal(t, 1024, got.MaxTokens)
			assert.Equal(t, 0.2, got.Temperature)
			assert.Equal(t, 0.9, got.TopP)

			if tt.wantKind == "" {
				require.True(t, res.OK(), "unexpected failure: %v", res.Failure)
				assert.Equal(t, tt.wantText, res.Text)
				return
			}
			require.False(t, res.OK())
			assert.Equal(t, tt.wantKind, res.Failure.Kind)
			assert.Equal(t, tt.status, res.Failure.Status)
			assert.Empty(t, res.Text)
		})
	}
}

func TestRemoteTransportUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	res := NewRemoteTransport(url, nil).Send(context.Background(), NewRequest("p"))
	require.False(t, res.OK())
	assert.Equal(t, KindTransport, res.Failure.Kind)
	assert.Equal(t, 0, res.Failure.Status)
	assert.Contains(t, res.String(), "Error: error communicating with API server")
}

// inferenceServer fakes both endpoints and counts calls per path
type inferenceServer struct {
	completion http.HandlerFunc
	chat       http.HandlerFunc
	calls      map[string]*atomic.Int32

	mu    sync.Mutex
	order []string
}

func (f *inferenceServer) record(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.order = append(f.order, name)
}

func (f *inferenceServer) calledInOrder() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.order...)
}

func newInferenceServer(t *testing.T, completion, chat http.HandlerFunc) (*httptest.Server, *inferenceServer) {
	t.Helper()
	fake := &inferenceServer{
		completion: completion,
		chat:       chat,
		calls: map[string]*atomic.Int32{
			"/api/version":    {},
			"/api/completion": {},
			"/api/chat":       {},
		},
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		counter, ok := fake.calls[r.URL.Path]
		if !ok {
			t.Errorf("unexpected path: %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
			return
		}
		counter.Add(1)
		switch r.URL.Path {
		case "/api/version":
			_, _ = w.Write([]byte(`{"version":"0.1.32"}`))
		case "/api/completion":
			fake.record("completion")
			fake.completion(w, r)
		case "/api/chat":
			fake.record("chat")
			fake.chat(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, fake
}

func status(code int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(code)
	}
}

func TestInferenceServerCompletionSuccess(t *testing.T) {
	var body completionRequest
	srv, fake := newInferenceServer(t,
		func(w http.ResponseWriter, r *http.Request) {
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			_, _ = w.Write([]byte(`{"response":"from completion"}`))
		},
		status(http.StatusInternalServerError),
	)

	tr := NewInferenceServerTransport(srv.URL+"/", "deepseek-coder", nil, nil)
	res := tr.Send(context.Background(), NewRequest("hello", WithMaxTokens(64)))

	require.True(t, res.OK())
	assert.Equal(t, "from completion", res.Text)
	assert.Equal(t, []string{"completion"}, fake.calledInOrder(), "chat must not be tried after a successful completion")
	assert.Equal(t, int32(1), fake.calls["/api/version"].Load())

	assert.Equal(t, "deepseek-coder", body.Model)
	assert.Equal(t, "hello", body.Prompt)
	assert.False(t, body.Stream)
	assert.Equal(t, 64, body.Options.NumPredict)
	assert.Equal(t, 0.7, body.Options.Temperature)
	assert.Equal(t, 0.9, body.Options.TopP)
}

func TestInferenceServerFallsBackToChat(t *testing.T) {
	var body chatRequest
	srv, fake := newInferenceServer(t,
		status(http.StatusInternalServerError),
		func(w http.ResponseWriter, r *http.Request) {
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":"from chat"}}`))
		},
	)

	res := NewInferenceServerTransport(srv.URL, "llama3", nil, nil).Send(context.Background(), NewRequest("hello"))

	require.True(t, res.OK())
	assert.Equal(t, "from chat", res.Text)
	assert.Equal(t, []string{"completion", "chat"}, fake.calledInOrder())
	require.Len(t, body.Messages, 1)
	assert.Equal(t, chatMessage{Role: "user", Content: "hello"}, body.Messages[0])
	assert.Equal(t, 1024, body.Options.NumPredict)
}

func TestInferenceServerFallsBackOnMissingField(t *testing.T) {
	srv, fake := newInferenceServer(t,
		func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"done":true}`))
		},
		func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"message":{"content":"chat"}}`))
		},
	)

	res := NewInferenceServerTransport(srv.URL, "llama3", nil, nil).Send(context.Background(), NewRequest("x"))
	assert.Equal(t, "chat", res.Text)
	assert.Equal(t, []string{"completion", "chat"}, fake.calledInOrder())
}

func TestInferenceServerBothFail(t *testing.T) {
	srv, fake := newInferenceServer(t,
		status(http.StatusInternalServerError),
		status(http.StatusNotFound),
	)

	res := NewInferenceServerTransport(srv.URL, "llama3", nil, nil).Send(context.Background(), NewRequest("x"))

	require.False(t, res.OK())
	assert.Equal(t, []string{"completion", "chat"}, fake.calledInOrder())
	assert.Equal(t, http.StatusNotFound, res.Failure.Status)
	assert.Contains(t, res.String(), "404")
}

func TestInferenceServerChatBadShapeKeepsLastStatus(t *testing.T) {
	srv, _ := newInferenceServer(t,
		status(http.StatusInternalServerError),
		func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"message":{}}`))
		},
	)

	res := NewInferenceServerTransport(srv.URL, "llama3", nil, nil).Send(context.Background(), NewRequest("x"))

	require.False(t, res.OK())
	assert.Equal(t, KindBadResponse, res.Failure.Kind)
	assert.Equal(t, http.StatusOK, res.Failure.Status)
	assert.Contains(t, res.String(), "200")
}

func TestInferenceServerUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	tr := NewInferenceServerTransport(url, "llama3", nil, nil)
	res := tr.Send(context.Background(), NewRequest("x"))

	require.False(t, res.OK())
	assert.Equal(t, KindTransport, res.Failure.Kind)
	assert.Contains(t, res.String(), "last status code: 0")
}
