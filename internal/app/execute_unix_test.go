//go:build unix

package app

import (
	"net"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestExecuteInterruptExitCode はSIGINTで終了コード0を返しポートを解放することをテストする
func TestExecuteInterruptExitCode(t *testing.T) {
	// 空きポートを確保してから解放する
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	cfg := newTestConfig(t)
	cfg.Server.Port = port
	cfg.Browser.Disabled = true
	cfg.Log.Level = "error"
	addr := ln.Addr().String()

	codeCh := make(chan int, 1)
	go func() {
		codeCh <- Execute(cfg)
	}()

	// バインドはシグナルの登録後なので、接続できればSIGINTを送ってよい
	require.Eventually(t, func() bool {
		conn, err := net.DialTimeout("tcp", addr, 100*time.Millisecond)
		if err != nil {
			return false
		}
		_ = conn.Close()
		return true
	}, 3*time.Second, 20*time.Millisecond, "サーバーが起動しませんでした")

	require.NoError(t, syscall.Kill(syscall.Getpid(), syscall.SIGINT))

	select {
	case code := <-codeCh:
		assert.Equal(t, 0, code)
	case <-time.After(5 * time.Second):
		t.Fatal("SIGINTで停止しませんでした")
	}

	// ポートが解放されていること
	ln, err = net.Listen("tcp", addr)
	require.NoError(t, err, "停止後にポートを再利用できません")
	require.NoError(t, ln.Close())
}
