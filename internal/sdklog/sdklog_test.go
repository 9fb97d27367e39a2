package sdklog_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/etopay/sigilwallet/internal/sdklog"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()
	assert.Equal(t, sdklog.LevelOff, sdklog.ParseLevel("off"))
	assert.Equal(t, sdklog.LevelDebug, sdklog.ParseLevel("DEBUG"))
	assert.Equal(t, sdklog.LevelError, sdklog.ParseLevel("error"))
	assert.Equal(t, sdklog.LevelError, sdklog.ParseLevel("garbage"))
}

func TestNullDiscardsEverything(t *testing.T) {
	t.Parallel()
	l := sdklog.Null()
	l.Debug("unseen %d", 1)
	l.Error("also unseen")
	l.Warn("still unseen")
	assert.Nil(t, l.Structured())
}

func TestNewWritesToFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "sigil.log")
	l, err := sdklog.New(sdklog.LevelDebug, path)
	require.NoError(t, err)
	defer func() { _ = l.Close() }()

	l.Debug("hello %s", "world")
	l.Warn("careful")
	require.NoError(t, l.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello world")
	assert.Contains(t, string(data), "careful")
}

func TestErrorLevelSuppressesDebug(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "sigil.log")
	l, err := sdklog.New(sdklog.LevelError, path)
	require.NoError(t, err)
	defer func() { _ = l.Close() }()

	l.Debug("should not appear")
	l.Error("should appear")
	require.NoError(t, l.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "should not appear")
	assert.Contains(t, string(data), "should appear")
}
