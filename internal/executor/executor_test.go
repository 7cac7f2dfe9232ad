package executor

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteEmptyCommand(t *testing.T) {
	// A shell that cannot be spawned proves no process is started.
	e := New(WithShell("/nonexistent/shell", "-c"))

	for _, cmd := range []string{"", "   ", "\n\t"} {
		res := e.Execute(context.Background(), cmd)
		assert.Equal(t, "Empty command", res.Error)
		assert.False(t, res.Completed)
		assert.Empty(t, res.Status)
	}
}

func TestExecuteSpawnError(t *testing.T) {
	e := New(WithShell("/nonexistent/shell", "-c"))

	res := e.Execute(context.Background(), "echo hi")
	assert.Equal(t, StatusError, res.Status)
	assert.Contains(t, res.Error, "Command execution failed")
	assert.False(t, res.Completed)
}

func TestResultJSON(t *testing.T) {
	tests := []struct {
		name string
		in   Result
		want string
	}{
		{
			name: "completed with empty output keeps all fields",
			in:   Result{Status: StatusSuccess, Completed: true},
			want: `{"status":"success","stdout":"","stderr":"","return_code":0}`,
		},
		{
			name: "empty command has no status",
			in:   Result{Error: "Empty command"},
			want: `{"error":"Empty command"}`,
		},
		{
			name: "timeout drops partial output",
			in:   Result{Status: StatusError, Error: "timed out", Stdout: "partial", TimedOut: true},
			want: `{"status":"error","error":"timed out"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.in)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(data))
		})
	}
}

func TestTimeoutOption(t *testing.T) {
	assert.Equal(t, DefaultTimeout, New().Timeout())
	assert.Equal(t, time.Second, New(WithTimeout(time.Second)).Timeout())
	assert.Equal(t, DefaultTimeout, New(WithTimeout(0)).Timeout())
}
