package logging

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileName(t *testing.T) {
	day := time.Date(2024, time.March, 7, 15, 4, 5, 0, time.UTC)
	assert.Equal(t, "shellmind_2024-03-07.log", FileName(day))
}

func TestNewWritesDailyFile(t *testing.T) {
	dir := t.TempDir()

	logger, err := New(Options{Debug: true, Dir: dir})
	require.NoError(t, err)

	logger.Info("hello from test")
	_ = logger.Sync()

	data, err := os.ReadFile(filepath.Join(dir, FileName(time.Now())))
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello from test")
}

func TestNewProduction(t *testing.T) {
	logger, err := New(Options{})
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(-1), "debug should be disabled in production mode")
}
