package app

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestExecuteBindFailureExitCode は使用中のポートで終了コード1を返すことをテストする
func TestExecuteBindFailureExitCode(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	cfg := newTestConfig(t)
	cfg.Server.Port = ln.Addr().(*net.TCPAddr).Port
	cfg.Browser.Disabled = true
	cfg.Log.Level = "error"

	assert.Equal(t, 1, Execute(cfg))
}

// TestExecuteInvalidLogLevelExitCode はロガーを作れない場合に終了コード1を返すことをテストする
func TestExecuteInvalidLogLevelExitCode(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.Browser.Disabled = true
	cfg.Log.Level = "loud"

	assert.Equal(t, 1, Execute(cfg))
}
